package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/optimanage/core/dispatch"
	coremon "github.com/kilianp07/optimanage/core/monitoring"
	"github.com/kilianp07/optimanage/core/publish"
	"github.com/kilianp07/optimanage/infra/logger"
)

const (
	DefaultRankingTopic = "optimanage/rankings"
	DefaultRequestTopic = "optimanage/rank/request"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker       string          `json:"broker"`
	ClientID     string          `json:"client_id"`
	Username     string          `json:"username"`
	Password     string          `json:"password"`
	RankingTopic string          `json:"ranking_topic"`
	RequestTopic string          `json:"request_topic"`
	Retain       bool            `json:"retain"`
	UseTLS       bool            `json:"use_tls"`
	ClientCert   string          `json:"client_cert"`
	ClientKey    string          `json:"client_key"`
	CABundle     string          `json:"ca_bundle"`
	AuthMethod   string          `json:"auth_method"`
	QoS          map[string]byte `json:"qos"`
	LWTTopic     string          `json:"lwt_topic"`
	LWTPayload   string          `json:"lwt_payload"`
	LWTQoS       byte            `json:"lwt_qos"`
	LWTRetain    bool            `json:"lwt_retain"`
	MaxRetries   int             `json:"max_retries"`
	BackoffMS    int             `json:"backoff_ms"`
	TLSConfig    *tls.Config     `json:"-"`
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// Request asks the service for an immediate ranking of N workflows.
type Request struct {
	RequestID string `json:"request_id"`
	N         int    `json:"n"`
}

// RequestHandler is invoked for every decoded ranking request.
type RequestHandler func(Request)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// Publisher implements publish.Publisher using Eclipse Paho. Rankings are
// published as JSON to the ranking topic; requests received on the request
// topic are forwarded to the registered handler.
type Publisher struct {
	cli          pahoClient
	rankingTopic string
	requestTopic string
	retain       bool
	qos          map[string]byte
	logger       logger.Logger
	maxRetries   int
	backoff      time.Duration

	mu      sync.RWMutex
	handler RequestHandler
}

var _ publish.Publisher = (*Publisher)(nil)

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPublisher connects to the MQTT broker and subscribes to the request
// topic when one is configured.
func NewPublisher(cfg Config) (*Publisher, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RankingTopic == "" {
		cfg.RankingTopic = DefaultRankingTopic
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffMS <= 0 {
		cfg.BackoffMS = 100
	}

	log := logger.New("mqtt_publisher")
	p := &Publisher{
		rankingTopic: cfg.RankingTopic,
		requestTopic: cfg.RequestTopic,
		retain:       cfg.Retain,
		qos:          cfg.QoS,
		logger:       log,
		maxRetries:   cfg.MaxRetries,
		backoff:      time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if p.requestTopic == "" {
			return
		}
		if token := c.Subscribe(p.requestTopic, p.qosFor("request"), p.onRequest); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	p.cli = c
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return p, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// OnRequest registers the handler for ranking requests.
func (p *Publisher) OnRequest(h RequestHandler) {
	p.mu.Lock()
	p.handler = h
	p.mu.Unlock()
}

func (p *Publisher) qosFor(kind string) byte {
	if q, ok := p.qos[kind]; ok {
		return q
	}
	return 0
}

func (p *Publisher) onRequest(_ paho.Client, msg paho.Message) {
	var req Request
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		p.logger.Errorf("failed to decode ranking request: %v", err)
		return
	}
	if req.N <= 0 {
		p.logger.Warnf("ignoring ranking request %q with n=%d", req.RequestID, req.N)
		return
	}
	p.mu.RLock()
	h := p.handler
	p.mu.RUnlock()
	if h == nil {
		p.logger.Warnf("no handler for ranking request %q", req.RequestID)
		return
	}
	p.logger.Infof("received ranking request %q for %d workflows", req.RequestID, req.N)
	h(req)
}

// PublishRanking sends r to the ranking topic, retrying with exponential
// backoff. Failures after the last retry are reported to the monitor.
func (p *Publisher) PublishRanking(ctx context.Context, r dispatch.Ranking) (string, error) {
	msgID := uuid.NewString()
	payload, err := json.Marshal(publish.NewMessage(msgID, r))
	if err != nil {
		return "", err
	}
	qos := p.qosFor("ranking")

	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(p.rankingTopic, qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Infof("published ranking %s as message %s to %s", r.ID, msgID, p.rankingTopic)
			return msgID, nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == p.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	err = errors.Join(publish.ErrPublish, publishErr)
	coremon.CaptureException(err, map[string]string{
		"module":     "mqtt",
		"ranking_id": r.ID,
		"topic":      p.rankingTopic,
	})
	return "", err
}

// Close gracefully closes the MQTT connection.
func (p *Publisher) Close() error {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
	return nil
}

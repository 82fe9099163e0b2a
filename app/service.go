package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/optimanage/api/rankings"
	"github.com/kilianp07/optimanage/app/plugins"
	"github.com/kilianp07/optimanage/config"
	"github.com/kilianp07/optimanage/core/dispatch"
	"github.com/kilianp07/optimanage/core/events"
	coremetrics "github.com/kilianp07/optimanage/core/metrics"
	coremon "github.com/kilianp07/optimanage/core/monitoring"
	"github.com/kilianp07/optimanage/core/publish"
	"github.com/kilianp07/optimanage/core/ranklog"
	"github.com/kilianp07/optimanage/core/store"
	"github.com/kilianp07/optimanage/infra/logger"
	inframetrics "github.com/kilianp07/optimanage/infra/metrics"
	"github.com/kilianp07/optimanage/infra/monitoring"
	"github.com/kilianp07/optimanage/infra/mqtt"
	"github.com/kilianp07/optimanage/internal/eventbus"
	"github.com/kilianp07/optimanage/objectives"
)

const defaultInterval = 5 * time.Minute

// Service owns the record store, the dispatcher and everything a ranking
// flows into: the ranking log, the metrics sinks and the MQTT publisher.
type Service struct {
	Dispatcher *dispatch.Dispatcher
	Store      store.RecordStore

	cfg       *config.Config
	log       logger.Logger
	bus       *eventbus.TypedBus[events.Event]
	rankLog   ranklog.Store
	publisher publish.Publisher
	requests  chan int

	mu     sync.RWMutex
	latest *ranklog.Entry
}

// Option overrides a component New would otherwise build from config.
type Option func(*Service)

func WithStore(st store.RecordStore) Option    { return func(s *Service) { s.Store = st } }
func WithPublisher(p publish.Publisher) Option { return func(s *Service) { s.publisher = p } }
func WithRankLog(l ranklog.Store) Option       { return func(s *Service) { s.rankLog = l } }

// New creates a Service from the configuration and registers the configured
// objectives, which partitions each of them once.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	s := &Service{cfg: cfg, log: logger.New("service"), requests: make(chan int, 4)}
	for _, o := range opts {
		o(s)
	}
	if err := s.build(ctx, mon); err != nil {
		if cerr := s.Close(); cerr != nil {
			s.log.Errorf("close after failed start: %v", cerr)
		}
		return nil, err
	}
	return s, nil
}

func (s *Service) build(ctx context.Context, mon coremon.Monitor) error {
	if s.Store == nil {
		st, err := plugins.OpenStore(ctx, s.cfg.Store)
		if err != nil {
			return err
		}
		s.Store = st
	}
	d, err := dispatch.NewDispatcher(s.Store, s.cfg.Dispatch.Core(), logger.New("dispatcher"))
	if err != nil {
		return fmt.Errorf("dispatcher: %w", err)
	}
	s.Dispatcher = d

	sink, err := coremetrics.NewMetricsSink(s.cfg.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}
	d.SetMetricsSink(sink)
	s.bus = eventbus.NewTyped[events.Event](0)
	d.SetEventBus(s.bus)
	d.SetMonitor(mon)

	for i, oc := range s.cfg.Objectives {
		obj, err := objectives.New(oc.Module())
		if err != nil {
			return fmt.Errorf("objectives[%d]: %w", i, err)
		}
		if err := d.AddObjective(ctx, obj, oc.WeightValue()); err != nil {
			return fmt.Errorf("objectives[%d]: %w", i, err)
		}
	}

	if s.rankLog == nil && s.cfg.Ranklog.Enabled() {
		l, err := ranklog.New(s.cfg.Ranklog)
		if err != nil {
			return fmt.Errorf("ranking log: %w", err)
		}
		s.rankLog = l
	}

	if s.publisher == nil {
		if !s.cfg.MQTT.Enabled() {
			s.publisher = publish.NopPublisher{}
			return nil
		}
		p, err := mqtt.NewPublisher(s.cfg.MQTT)
		if err != nil {
			return fmt.Errorf("mqtt publisher: %w", err)
		}
		p.OnRequest(func(r mqtt.Request) { s.Request(r.N) })
		s.publisher = p
	}
	return nil
}

// Request schedules an extra ranking of n workflows. It returns false when
// the request queue is full.
func (s *Service) Request(n int) bool {
	select {
	case s.requests <- n:
		return true
	default:
		s.log.Warnf("ranking request for %d workflows dropped: queue full", n)
		return false
	}
}

// RankOnce ranks the n best workflows, then logs and publishes the result.
// Failures downstream of the ranking are reported but do not fail the call.
func (s *Service) RankOnce(ctx context.Context, n int) (dispatch.Ranking, error) {
	r, err := s.Dispatcher.RankWflows(ctx, n)
	if err != nil {
		return r, err
	}
	entry := ranklog.FromRanking(r, n, s.weights())
	s.mu.Lock()
	s.latest = &entry
	s.mu.Unlock()

	if s.rankLog != nil {
		if err := s.rankLog.Append(ctx, entry); err != nil {
			s.log.Errorf("append ranking %s: %v", r.ID, err)
			coremon.CaptureException(err, map[string]string{"component": "ranklog", "ranking_id": r.ID})
		}
	}
	if len(r.Entries) > 0 {
		if _, err := s.publisher.PublishRanking(ctx, r); err != nil {
			s.log.Errorf("publish ranking %s: %v", r.ID, err)
		}
	}
	return r, nil
}

// Latest returns the last ranking of this process, falling back to the
// ranking log.
func (s *Service) Latest(ctx context.Context) (ranklog.Entry, bool, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return *latest, true, nil
	}
	if s.rankLog == nil {
		return ranklog.Entry{}, false, nil
	}
	return ranklog.Latest(ctx, s.rankLog)
}

func (s *Service) weights() map[string]float64 {
	objs := s.Dispatcher.Objectives()
	w := make(map[string]float64, len(objs))
	for _, o := range objs {
		if v, ok := s.Dispatcher.Weight(o.ID()); ok {
			w[o.ID()] = v
		}
	}
	return w
}

// Handler returns the HTTP surface: /metrics, /healthz and the ranking API.
func (s *Service) Handler() http.Handler {
	token := s.cfg.Server.Token
	mux := http.NewServeMux()
	mux.Handle("/metrics", inframetrics.Handler(nil))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/api/rankings/latest", rankings.NewLatestHandler(s, token))
	if s.rankLog != nil {
		mux.Handle("/api/rankings", rankings.NewHistoryHandler(s.rankLog, token))
	} else {
		mux.HandleFunc("/api/rankings", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "ranking log disabled", http.StatusServiceUnavailable)
		})
	}
	return mux
}

// Run serves HTTP and ranks on the configured interval and on request until
// the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	defer coremon.Recover()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.serve(gctx) })
	if addr := s.cfg.Metrics.Address; addr != "" && addr != s.cfg.Server.Address {
		g.Go(func() error { return inframetrics.StartPromServer(gctx, addr) })
	}
	g.Go(func() error {
		s.logEvents(gctx)
		return nil
	})
	g.Go(func() error { return s.loop(gctx) })
	return g.Wait()
}

func (s *Service) serve(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Server.Address, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Infof("serving API on %s", s.cfg.Server.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Service) loop(ctx context.Context) error {
	interval := s.cfg.Dispatch.Interval()
	if interval <= 0 {
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.cycle(ctx, s.cfg.Dispatch.TopN)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.cycle(ctx, s.cfg.Dispatch.TopN)
		case n := <-s.requests:
			s.cycle(ctx, n)
		}
	}
}

func (s *Service) cycle(ctx context.Context, n int) {
	r, err := s.RankOnce(ctx, n)
	switch {
	case err == nil:
		s.log.Infow("ranking cycle done", map[string]any{
			"ranking_id": r.ID,
			"entries":    len(r.Entries),
			"partial":    r.Partial(),
		})
	case ctx.Err() != nil:
	default:
		s.log.Errorf("ranking cycle failed: %v", err)
		coremon.CaptureException(err, map[string]string{"component": "service"})
	}
}

func (s *Service) logEvents(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	evLog := logger.New("events")
	for {
		select {
		case <-ctx.Done():
			if n := s.bus.Dropped(); n > 0 {
				evLog.Warnf("%d events dropped by slow subscribers", n)
			}
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			evLog.Debugw(ev.Kind(), eventFields(ev))
		}
	}
}

func eventFields(ev events.Event) map[string]any {
	switch e := ev.(type) {
	case events.PartitionEvent:
		return map[string]any{"objective": e.ObjectiveID, "training": e.Training, "candidates": e.Candidates, "token": e.Token}
	case events.ObjectiveRunEvent:
		f := map[string]any{"objective": e.ObjectiveID, "scored": e.Scored, "duration_ms": e.Duration.Milliseconds()}
		if e.Err != nil {
			f["error"] = e.Err.Error()
		}
		return f
	case events.RankingEvent:
		return map[string]any{"ranking_id": e.RankingID, "entries": e.Entries, "errors": e.Errors, "duration_ms": e.Duration.Milliseconds()}
	default:
		return nil
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.rankLog != nil {
		errs = append(errs, s.rankLog.Close())
	}
	if c, ok := s.Store.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	if s.bus != nil {
		s.bus.Close()
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}

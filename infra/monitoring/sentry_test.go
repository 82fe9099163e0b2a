package monitoring

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/optimanage/config"
	coremon "github.com/kilianp07/optimanage/core/monitoring"
)

type captured struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (c *captured) beforeSend(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	return nil
}

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	mon, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, mon)
}

func TestSentryMonitorCapturesTags(t *testing.T) {
	tr := &captured{}
	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: "https://key@example.com/1", BeforeSend: tr.beforeSend})
	require.NoError(t, err)
	mon := &sentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}

	mon.CaptureException(errors.New("train failed"), coremon.ObjectiveTags("duct", "train"))
	mon.CaptureException(nil, nil)
	mon.CapturePanic("boom")
	mon.Flush(time.Second)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	require.Len(t, tr.events, 2)
	assert.Equal(t, "duct", tr.events[0].Tags["objective"])
	assert.Equal(t, "train", tr.events[0].Tags["stage"])
	assert.Equal(t, "boom", tr.events[1].Message)
}

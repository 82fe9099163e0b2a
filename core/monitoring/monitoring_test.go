package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type captureMonitor struct {
	errs   []error
	tags   []map[string]string
	panics []any
}

func (c *captureMonitor) CaptureException(err error, tags map[string]string) {
	c.errs = append(c.errs, err)
	c.tags = append(c.tags, tags)
}
func (c *captureMonitor) CapturePanic(v any)  { c.panics = append(c.panics, v) }
func (c *captureMonitor) Flush(time.Duration) {}

func TestGlobalMonitor(t *testing.T) {
	prev := Current()
	t.Cleanup(func() { current = prev })

	m := &captureMonitor{}
	Init(m)
	Init(nil)
	assert.Same(t, m, Current())

	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), ObjectiveTags("o1", "train"))
	assert.Len(t, m.errs, 1)
	assert.Equal(t, "o1", m.tags[0]["objective"])
	assert.Equal(t, "train", m.tags[0]["stage"])
}

func TestRecoverRepanics(t *testing.T) {
	prev := Current()
	t.Cleanup(func() { current = prev })
	m := &captureMonitor{}
	Init(m)

	assert.PanicsWithValue(t, "kaboom", func() {
		defer Recover()
		panic("kaboom")
	})
	assert.Equal(t, []any{"kaboom"}, m.panics)
}

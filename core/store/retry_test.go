package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/optimanage/core/record"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Query(ctx context.Context, c Criteria, props []string) ([]record.Record, error) {
	args := m.Called(c, props)
	recs, _ := args.Get(0).([]record.Record)
	return recs, args.Error(1)
}

func (m *mockStore) Fingerprint(ctx context.Context) (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestRetryingRecovers(t *testing.T) {
	m := &mockStore{}
	unavailable := fmt.Errorf("dial: %w", ErrUnavailable)
	m.On("Fingerprint").Return("", unavailable).Twice()
	m.On("Fingerprint").Return("rev-1", nil).Once()

	r := NewRetrying(m, RetryConfig{MaxRetries: 3}, nil)
	r.sleep = noSleep
	fp, err := r.Fingerprint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rev-1", fp)
	m.AssertNumberOfCalls(t, "Fingerprint", 3)
}

func TestRetryingExhausted(t *testing.T) {
	m := &mockStore{}
	m.On("Query", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("timeout: %w", ErrUnavailable))

	r := NewRetrying(m, RetryConfig{MaxRetries: 2}, nil)
	r.sleep = noSleep
	_, err := r.Query(context.Background(), Criteria{}, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	m.AssertNumberOfCalls(t, "Query", 3)
}

func TestRetryingDoesNotRetryOtherErrors(t *testing.T) {
	m := &mockStore{}
	m.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("bad criteria"))

	r := NewRetrying(m, RetryConfig{MaxRetries: 5}, nil)
	r.sleep = noSleep
	_, err := r.Query(context.Background(), Criteria{}, nil)
	assert.EqualError(t, err, "bad criteria")
	m.AssertNumberOfCalls(t, "Query", 1)
}

func TestRetryingStopsOnCancel(t *testing.T) {
	m := &mockStore{}
	m.On("Fingerprint").Return("", ErrUnavailable)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetrying(m, RetryConfig{MaxRetries: 5, BackoffMS: 1}, nil)
	_, err := r.Fingerprint(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	m.AssertNumberOfCalls(t, "Fingerprint", 1)
}

package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/optimanage/core/dispatch"
	"github.com/kilianp07/optimanage/core/publish"
)

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Rankings []dispatch.Ranking
	Fail     bool
	mu       sync.Mutex
}

var _ publish.Publisher = (*MockPublisher)(nil)

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

// PublishRanking records the ranking or returns an error if configured to fail.
func (m *MockPublisher) PublishRanking(_ context.Context, r dispatch.Ranking) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return "", fmt.Errorf("%w: mock failure", publish.ErrPublish)
	}
	m.Rankings = append(m.Rankings, r)
	return fmt.Sprintf("msg-%d", len(m.Rankings)), nil
}

// Published returns a copy of the recorded rankings.
func (m *MockPublisher) Published() []dispatch.Ranking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dispatch.Ranking(nil), m.Rankings...)
}

func (m *MockPublisher) Close() error { return nil }

// Package publish defines how rankings leave the process.
package publish

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/optimanage/core/dispatch"
)

// ErrPublish is returned when a ranking could not be delivered.
var ErrPublish = errors.New("ranking publish failed")

// Publisher delivers rankings to downstream consumers such as workflow
// submission tools.
type Publisher interface {
	// PublishRanking sends r and returns the message identifier.
	PublishRanking(ctx context.Context, r dispatch.Ranking) (messageID string, err error)
	Close() error
}

// Entry is the wire form of one ranked workflow.
type Entry struct {
	Rank       int     `json:"rank"`
	Type       string  `json:"type"`
	MaterialID string  `json:"material_id"`
	Score      float64 `json:"score"`
}

// Message is the wire form of a ranking.
type Message struct {
	MessageID string    `json:"message_id"`
	RankingID string    `json:"ranking_id"`
	CreatedAt time.Time `json:"created_at"`
	Partial   bool      `json:"partial"`
	Entries   []Entry   `json:"entries"`
	Errors    []string  `json:"errors,omitempty"`
}

// NewMessage converts r into its wire form.
func NewMessage(messageID string, r dispatch.Ranking) Message {
	m := Message{
		MessageID: messageID,
		RankingID: r.ID,
		CreatedAt: r.CreatedAt,
		Partial:   r.Partial(),
		Entries:   make([]Entry, len(r.Entries)),
		Errors:    r.ErrorMessages(),
	}
	for i, e := range r.Entries {
		m.Entries[i] = Entry{Rank: i + 1, Type: e.Instance.Type, MaterialID: e.Instance.MaterialID, Score: e.Score}
	}
	return m
}

// NopPublisher drops every ranking.
type NopPublisher struct{}

func (NopPublisher) PublishRanking(context.Context, dispatch.Ranking) (string, error) { return "", nil }
func (NopPublisher) Close() error                                                     { return nil }

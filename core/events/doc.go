// Package events defines the dispatcher events emitted on the event bus.
//
// Available event types:
//   - PartitionEvent: an objective's training/candidate split was rebuilt
//   - ObjectiveRunEvent: an objective was trained and scored, or failed
//   - RankingEvent: a ranking was produced
package events

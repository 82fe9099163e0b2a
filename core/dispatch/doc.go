// Package dispatch implements the Dispatcher: it registers weighted
// objectives, caches the training/candidate partition of each one against a
// store fingerprint and ranks candidate workflow instances by the weighted
// sum of objective scores.
//
// Rankings tolerate failing objectives: their errors are returned in
// Ranking.Errors while the remaining objectives still contribute. Store
// failures and context cancellation abort the ranking and leave the
// partition cache untouched.
package dispatch

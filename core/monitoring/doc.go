// Package monitoring exposes the error reporting contract and a process-wide
// monitor used by goroutines that have no dispatcher at hand.
package monitoring

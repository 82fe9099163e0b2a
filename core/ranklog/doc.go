// Package ranklog persists produced rankings so they can be served and
// audited later. Entries are stored as JSON lines, optionally rotated with
// lumberjack, or in SQLite with a material index.
package ranklog

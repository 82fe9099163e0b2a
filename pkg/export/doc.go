// Package export renders rankings as tables, JSON or CSV.
package export

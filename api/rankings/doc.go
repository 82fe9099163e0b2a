// Package rankings exposes the ranking log over HTTP.
package rankings

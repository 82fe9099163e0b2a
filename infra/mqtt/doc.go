// Package mqtt publishes rankings to an MQTT broker and accepts on-demand
// ranking requests over the same connection.
package mqtt

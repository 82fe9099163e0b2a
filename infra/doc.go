// Package infra holds the adapters behind the core interfaces: record
// stores backed by SQLite and MongoDB, the MQTT ranking publisher, metrics
// exporters and the Sentry monitor. Packages here depend on core, never the
// other way round.
package infra

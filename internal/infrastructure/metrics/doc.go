// Package metrics records authorisation decision metrics to InfluxDB.
//
// Writes are non-blocking and batched; the recorder is optional and the
// authorisation gate degrades to logging-only when it is absent or
// disconnected. Metrics never influence an authorisation decision.
package metrics

package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/rentgrid/rentgrid-core/internal/infrastructure/config"
)

const (
	defaultConnectTimeout = 10 * time.Second

	// millisecondsPerSecond converts seconds to milliseconds for the
	// InfluxDB batching API.
	millisecondsPerSecond = 1000
)

// Sentinel errors for metrics operations.
var (
	// ErrDisabled indicates metrics are disabled in config.
	ErrDisabled = errors.New("metrics: disabled in configuration")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("metrics: connection failed")
)

// Recorder writes authorisation decision points to InfluxDB.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Writes are non-blocking and batched.
type Recorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI

	connected bool
	mu        sync.RWMutex

	// onError is called when async write errors occur.
	onError func(err error)
}

// Connect establishes a connection to the InfluxDB server and configures
// the non-blocking write API with batching.
func Connect(cfg config.MetricsConfig) (*Recorder, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}

	// #nosec G115 -- values validated above to be positive
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*millisecondsPerSecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	r := &Recorder{
		client:    client,
		writeAPI:  writeAPI,
		connected: true,
	}

	go r.handleWriteErrors(writeAPI.Errors())

	return r, nil
}

// handleWriteErrors processes async write errors from the WriteAPI.
func (r *Recorder) handleWriteErrors(errorsCh <-chan error) {
	for err := range errorsCh {
		r.mu.RLock()
		callback := r.onError
		r.mu.RUnlock()

		if callback != nil {
			callback(err)
		}
	}
}

// OnError sets a callback invoked for asynchronous write failures.
func (r *Recorder) OnError(fn func(err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = fn
}

// IsConnected reports whether the recorder has an active connection.
func (r *Recorder) IsConnected() bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connected
}

// RecordDecision writes a single authorisation decision point.
//
// outcome is "admit" or "reject"; kind is the error kind on rejection
// ("" on admits). The write is non-blocking; a nil or disconnected
// recorder drops the point silently.
func (r *Recorder) RecordDecision(route, outcome, kind string) {
	if !r.IsConnected() {
		return
	}

	tags := map[string]string{
		"route":   route,
		"outcome": outcome,
	}
	if kind != "" {
		tags["kind"] = kind
	}

	point := write.NewPoint(
		"auth_decisions",
		tags,
		map[string]interface{}{"count": 1},
		time.Now(),
	)

	r.writeAPI.WritePoint(point)
}

// Close flushes pending writes and closes the connection.
func (r *Recorder) Close() {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.connected {
		return
	}

	r.writeAPI.Flush()
	r.client.Close()
	r.connected = false
}

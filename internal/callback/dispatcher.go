// Package callback delivers session reports to the external evaluation
// endpoint. Delivery is asynchronous and best effort: the pipeline never
// waits on the network, and a dead endpoint never fails a turn.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"lurelab/internal/config"
	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

const queueSize = 256

type job struct {
	kind    models.DecisionKind
	payload *models.CallbackPayload
}

// Dispatcher posts callback payloads over HTTP with bounded retries.
type Dispatcher struct {
	cfg    config.CallbackConfig
	client *http.Client
	logger *logger.Logger

	queue     chan job
	delivered atomic.Int64
	failed    atomic.Int64
}

// NewDispatcher creates a dispatcher. Call Run to start delivery.
func NewDispatcher(cfg config.CallbackConfig, log *logger.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Dispatcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: log.WithComponent("callback"),
		queue:  make(chan job, queueSize),
	}
}

// Dispatch queues a payload for delivery and returns immediately. When the
// queue is full the report is dropped and counted; blocking the pipeline on
// a slow endpoint is worse than losing one snapshot, the next turn will
// carry the full cumulative state anyway.
func (d *Dispatcher) Dispatch(kind models.DecisionKind, payload *models.CallbackPayload) {
	select {
	case d.queue <- job{kind: kind, payload: payload}:
	default:
		d.failed.Add(1)
		d.logger.Error().
			Str("session_id", payload.SessionID).
			Str("kind", string(kind)).
			Msg("callback queue full, report dropped")
	}
}

// Run consumes the queue until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.queue:
			d.deliver(ctx, j)
		}
	}
}

// Delivered returns the count of successfully posted reports.
func (d *Dispatcher) Delivered() int64 {
	return d.delivered.Load()
}

// Failed returns the count of reports that exhausted retries or were dropped.
func (d *Dispatcher) Failed() int64 {
	return d.failed.Load()
}

func (d *Dispatcher) deliver(ctx context.Context, j job) {
	if d.cfg.URL == "" {
		d.logger.Debug().Str("session_id", j.payload.SessionID).Msg("no callback URL configured, report discarded")
		return
	}

	body, err := json.Marshal(j.payload)
	if err != nil {
		d.failed.Add(1)
		d.logger.Error().Err(err).Str("session_id", j.payload.SessionID).Msg("failed to marshal callback payload")
		return
	}

	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.cfg.RetryDelay):
			}
		}

		if lastErr = d.post(ctx, body); lastErr == nil {
			d.delivered.Add(1)
			d.logger.Info().
				Str("session_id", j.payload.SessionID).
				Str("kind", string(j.kind)).
				Int("attempt", attempt).
				Msg("callback delivered")
			return
		}
		d.logger.Warn().
			Err(lastErr).
			Str("session_id", j.payload.SessionID).
			Int("attempt", attempt).
			Msg("callback delivery failed")
	}

	d.failed.Add(1)
	d.logger.Error().
		Err(lastErr).
		Str("session_id", j.payload.SessionID).
		Int("attempts", d.cfg.MaxRetries).
		Msg("callback delivery abandoned")
}

func (d *Dispatcher) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.cfg.AuthToken)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	return nil
}

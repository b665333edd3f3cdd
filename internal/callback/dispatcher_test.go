package callback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lurelab/internal/config"
	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

func samplePayload() *models.CallbackPayload {
	return &models.CallbackPayload{
		SessionID:    "sess-1",
		ScamDetected: true,
		ExtractedIntelligence: map[string][]models.IntelligenceGroup{
			"upiIds": {{Value: "fraud@ybl", Confidence: 0.9, SourceTurn: 3}},
		},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestDeliverSendsAuthenticatedJSON(t *testing.T) {
	var gotAuth, gotType atomic.Value
	var gotBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		gotType.Store(r.Header.Get("Content-Type"))
		var p models.CallbackPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		gotBody.Store(p.SessionID)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(config.CallbackConfig{
		URL:       srv.URL,
		AuthToken: "secret-token",
	}, logger.NewDefault())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Dispatch(models.DecisionCreate, samplePayload())

	waitFor(t, func() bool { return d.Delivered() == 1 })
	assert.Equal(t, "Bearer secret-token", gotAuth.Load())
	assert.Equal(t, "application/json", gotType.Load())
	assert.Equal(t, "sess-1", gotBody.Load())
	assert.Zero(t, d.Failed())
}

func TestDeliverRetriesOnServerError(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(config.CallbackConfig{
		URL:        srv.URL,
		MaxRetries: 3,
		RetryDelay: 10 * time.Millisecond,
	}, logger.NewDefault())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Dispatch(models.DecisionUpdate, samplePayload())

	waitFor(t, func() bool { return d.Delivered() == 1 })
	assert.EqualValues(t, 2, calls.Load())
	assert.Zero(t, d.Failed())
}

func TestDeliverGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDispatcher(config.CallbackConfig{
		URL:        srv.URL,
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
	}, logger.NewDefault())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Dispatch(models.DecisionCreate, samplePayload())

	waitFor(t, func() bool { return d.Failed() == 1 })
	assert.EqualValues(t, 2, calls.Load())
	assert.Zero(t, d.Delivered())
}

func TestDispatchNeverBlocks(t *testing.T) {
	// no Run consumer, so the queue fills up and overflow is dropped
	d := NewDispatcher(config.CallbackConfig{URL: "http://127.0.0.1:0"}, logger.NewDefault())

	done := make(chan struct{})
	go func() {
		for i := 0; i < queueSize+10; i++ {
			d.Dispatch(models.DecisionCreate, samplePayload())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}
	require.EqualValues(t, 10, d.Failed())
}

func TestDeliverWithoutURLDiscards(t *testing.T) {
	d := NewDispatcher(config.CallbackConfig{}, logger.NewDefault())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Dispatch(models.DecisionCreate, samplePayload())

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, d.Delivered())
	assert.Zero(t, d.Failed())
}

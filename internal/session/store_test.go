package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lurelab/internal/config"
	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

func newStore(max int) *Store {
	return NewStore(config.SessionConfig{MaxSessions: max, IdleTTL: time.Hour}, logger.NewDefault())
}

func TestDoCreatesAndMutates(t *testing.T) {
	st := newStore(10)

	err := st.Do("a", func(s *models.Session) error {
		s.TurnCount++
		return nil
	})
	require.NoError(t, err)

	snap, ok := st.Snapshot("a")
	require.True(t, ok)
	assert.Equal(t, 1, snap.TurnCount)
	assert.Equal(t, 1, st.Len())
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	st := newStore(10)

	_ = st.Do("a", func(s *models.Session) error {
		s.Intelligence.Upsert(models.ExtractedItem{Kind: models.KindUPIID, NormalizedValue: "x@ybl", Confidence: 0.9})
		return nil
	})

	snap, _ := st.Snapshot("a")
	snap.Intelligence.Upsert(models.ExtractedItem{Kind: models.KindUPIID, NormalizedValue: "y@ybl", Confidence: 0.9})

	fresh, _ := st.Snapshot("a")
	assert.Equal(t, 1, len(fresh.Intelligence[models.KindUPIID]), "mutating a snapshot leaked into the store")
}

func TestSnapshotUnknownSession(t *testing.T) {
	st := newStore(10)
	_, ok := st.Snapshot("missing")
	assert.False(t, ok)
}

// Two interleaved message streams must never make either session's turn
// counter skip or repeat a value.
func TestConcurrentSessionsStayIsolated(t *testing.T) {
	st := newStore(100)
	const turns = 500

	run := func(id string, observed *[]int) func() {
		return func() {
			for i := 0; i < turns; i++ {
				_ = st.Do(id, func(s *models.Session) error {
					s.TurnCount++
					*observed = append(*observed, s.TurnCount)
					return nil
				})
			}
		}
	}

	var seqA, seqB []int
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); run("alpha", &seqA)() }()
	go func() { defer wg.Done(); run("beta", &seqB)() }()
	wg.Wait()

	for i, got := range seqA {
		require.Equal(t, i+1, got, "session alpha turn sequence broken")
	}
	for i, got := range seqB {
		require.Equal(t, i+1, got, "session beta turn sequence broken")
	}
}

func TestSameSessionSerializes(t *testing.T) {
	st := newStore(10)
	const writers = 8
	const perWriter = 200

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_ = st.Do("shared", func(s *models.Session) error {
					s.TurnCount++
					return nil
				})
			}
		}()
	}
	wg.Wait()

	snap, _ := st.Snapshot("shared")
	assert.Equal(t, writers*perWriter, snap.TurnCount)
}

func TestEvictionBoundsStore(t *testing.T) {
	st := newStore(3)
	clockAt := time.Now()
	st.clock = func() time.Time { clockAt = clockAt.Add(time.Second); return clockAt }

	for _, id := range []string{"one", "two", "three", "four"} {
		_ = st.Do(id, func(s *models.Session) error { return nil })
	}

	assert.Equal(t, 3, st.Len())
	assert.Equal(t, int64(1), st.Evictions())

	// oldest went first
	_, ok := st.Snapshot("one")
	assert.False(t, ok, "expected the least recently active session to be evicted")
	_, ok = st.Snapshot("four")
	assert.True(t, ok)
}

func TestEvictHookFires(t *testing.T) {
	st := newStore(1)
	var evicted []string
	st.OnEvict(func(id string) { evicted = append(evicted, id) })

	_ = st.Do("first", func(s *models.Session) error { return nil })
	time.Sleep(2 * time.Millisecond)
	_ = st.Do("second", func(s *models.Session) error { return nil })

	require.Len(t, evicted, 1)
	assert.Equal(t, "first", evicted[0])
}

func TestSweepDropsIdleSessions(t *testing.T) {
	st := NewStore(config.SessionConfig{MaxSessions: 10, IdleTTL: 10 * time.Millisecond}, logger.NewDefault())

	_ = st.Do("stale", func(s *models.Session) error { return nil })
	time.Sleep(25 * time.Millisecond)
	st.sweepOnce()

	assert.Equal(t, 0, st.Len())
	assert.Equal(t, int64(1), st.Evictions())
}

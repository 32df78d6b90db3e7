package violation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaishnavucv/droid-proctoring/internal/metrics"
	"github.com/vaishnavucv/droid-proctoring/internal/telemetry"
	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

// memLogStore records appended events in order.
type memLogStore struct {
	mu     sync.Mutex
	events []violation.Event
	err    error
}

func (s *memLogStore) Append(_ context.Context, _ violation.LogKey, event violation.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *memLogStore) waitFor(t *testing.T, n int) []violation.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		if len(s.events) >= n {
			out := append([]violation.Event(nil), s.events...)
			s.mu.Unlock()
			return out
		}
		s.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d persisted events", n)
	return nil
}

func newEngine(t *testing.T, store *memLogStore, exempt bool) (*violation.Engine, *time2.MockClock) {
	t.Helper()
	clock := time2.NewMockClock(time.Date(2026, 2, 7, 11, 0, 0, 0, time.UTC))
	engine := violation.NewEngine(clock, store, telemetry.Noop{}, metrics.New())
	engine.Begin(violation.LogKey{
		Username:     "user1",
		UserID:       "999999",
		SessionStart: clock.Now(),
	}, violation.Policy{
		WarningCap:     5,
		Exempt:         exempt,
		Banner:         10 * time.Second,
		BannerIdentity: 15 * time.Second,
	})
	return engine, clock
}

func TestTerminatesExactlyAtCap(t *testing.T) {
	store := &memLogStore{}
	engine, _ := newEngine(t, store, false)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		out, ok := engine.Report(ctx, violation.CategoryFullscreen, "")
		require.True(t, ok)
		assert.Equal(t, i, out.Count)
		assert.False(t, out.Terminated, "warning %d must not terminate", i)
	}

	out, ok := engine.Report(ctx, violation.CategoryFullscreen, "")
	require.True(t, ok)
	assert.Equal(t, 5, out.Count)
	assert.True(t, out.Terminated)

	// A sixth alert arrives late: the engine is disarmed, no double kill.
	_, ok = engine.Report(ctx, violation.CategoryFullscreen, "")
	assert.False(t, ok)

	events := store.waitFor(t, 5)
	assert.Len(t, events, 5)
}

func TestOrdinalsStrictlyIncreasingAndContiguous(t *testing.T) {
	store := &memLogStore{}
	engine, clock := newEngine(t, store, false)
	ctx := context.Background()

	categories := []violation.Category{
		violation.CategoryVisibility,
		violation.CategoryClassifier,
		violation.CategoryIdentity,
	}
	for i, cat := range categories {
		out, ok := engine.Report(ctx, cat, "reason")
		require.True(t, ok)
		assert.Equal(t, i+1, out.Count)
		clock.Advance(90 * time.Second)
	}

	events := store.waitFor(t, 3)
	seen := map[int]bool{}
	for _, ev := range events {
		seen[ev.WarningCount] = true
	}
	for i := 1; i <= 3; i++ {
		assert.True(t, seen[i], "missing ordinal %d", i)
	}
}

func TestExemptCourseExceedsCapWithoutFailing(t *testing.T) {
	store := &memLogStore{}
	engine, _ := newEngine(t, store, true)
	ctx := context.Background()

	for i := 1; i <= 8; i++ {
		out, ok := engine.Report(ctx, violation.CategoryClassifier, "")
		require.True(t, ok)
		assert.False(t, out.Terminated)
		assert.Equal(t, i, out.Count)
	}
	assert.Equal(t, 8, engine.Count())
}

func TestBannerDurationByCategory(t *testing.T) {
	store := &memLogStore{}
	engine, _ := newEngine(t, store, false)
	ctx := context.Background()

	out, _ := engine.Report(ctx, violation.CategoryClassifier, "")
	assert.Equal(t, 10*time.Second, out.Banner)

	out, _ = engine.Report(ctx, violation.CategoryIdentity, "")
	assert.Equal(t, 15*time.Second, out.Banner)
}

func TestResetRestoresCounter(t *testing.T) {
	store := &memLogStore{}
	engine, clock := newEngine(t, store, false)
	ctx := context.Background()

	engine.Report(ctx, violation.CategoryFullscreen, "")
	engine.Report(ctx, violation.CategoryFullscreen, "")
	engine.Reset()
	assert.Equal(t, 0, engine.Count())

	// A fresh attempt starts again at ordinal 1.
	engine.Begin(violation.LogKey{Username: "user1", UserID: "999999", SessionStart: clock.Now()},
		violation.Policy{WarningCap: 5, Banner: 10 * time.Second, BannerIdentity: 15 * time.Second})
	out, ok := engine.Report(ctx, violation.CategoryFullscreen, "")
	require.True(t, ok)
	assert.Equal(t, 1, out.Count)
}

func TestEventShape(t *testing.T) {
	store := &memLogStore{}
	engine, clock := newEngine(t, store, false)
	ctx := context.Background()

	clock.Advance(90 * time.Second)
	engine.Report(ctx, violation.CategoryIdentity, "MULTIPLE FACES DETECTED")

	events := store.waitFor(t, 1)
	assert.Equal(t, "face-malpractice: MULTIPLE FACES DETECTED", events[0].Type)
	assert.Equal(t, "00:01:30", events[0].Duration)
	assert.Equal(t, "N/A", events[0].Justification)
}

func TestLogAppendFailureDoesNotAffectCounter(t *testing.T) {
	store := &memLogStore{err: assert.AnError}
	engine, _ := newEngine(t, store, false)
	ctx := context.Background()

	out, ok := engine.Report(ctx, violation.CategoryFullscreen, "")
	require.True(t, ok)
	assert.Equal(t, 1, out.Count)

	out, ok = engine.Report(ctx, violation.CategoryFullscreen, "")
	require.True(t, ok)
	assert.Equal(t, 2, out.Count)
}

package violation

import (
	"context"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/rs/zerolog/log"

	"github.com/vaishnavucv/droid-proctoring/internal/metrics"
	"github.com/vaishnavucv/droid-proctoring/internal/telemetry"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

// LogStore persists violation events. Implemented by storage.FileLogStore.
type LogStore interface {
	Append(ctx context.Context, key LogKey, event Event) error
}

// Policy holds the escalation parameters for one session.
type Policy struct {
	WarningCap     int
	Exempt         bool // course track exempt from the hard cap
	Banner         time.Duration
	BannerIdentity time.Duration
}

// Outcome describes the effect of one reported violation. Event is the
// record as persisted, for fan-out to live subscribers.
type Outcome struct {
	Count      int
	Terminated bool
	Banner     time.Duration
	Reason     string
	Category   Category
	Event      Event
}

// Engine aggregates all violation signals of a session into one monotonically
// increasing warning counter with escalation and termination policy.
//
// The engine is driven exclusively by the session controller's event loop;
// Report and the lifecycle methods must not be called concurrently. The
// threshold check happens synchronously inside Report so that two
// near-simultaneous alerts can never both pass the cap.
type Engine struct {
	clock   time2.Clock
	logs    LogStore
	emitter telemetry.Emitter
	metrics *metrics.Service

	policy       Policy
	key          LogKey
	sessionStart time.Time

	count int
	armed bool
}

func NewEngine(clock time2.Clock, logs LogStore, emitter telemetry.Emitter, m *metrics.Service) *Engine {
	return &Engine{clock: clock, logs: logs, emitter: emitter, metrics: m}
}

// Begin arms the engine for a new session attempt with a zeroed counter.
func (e *Engine) Begin(key LogKey, policy Policy) {
	e.key = key
	e.policy = policy
	e.sessionStart = key.SessionStart
	e.count = 0
	e.armed = true
}

// Disarm stops the engine from accepting reports. Called when the session
// leaves the running state; late alerts are then discarded by Report.
func (e *Engine) Disarm() {
	e.armed = false
}

// Reset clears the counter. Only an explicit session reset may do this.
func (e *Engine) Reset() {
	e.count = 0
	e.armed = false
}

func (e *Engine) Count() int { return e.count }

// Report records one violation. It returns false when the engine is disarmed
// (session not running, already failed, or already complete); such alerts are
// dropped, not deferred.
func (e *Engine) Report(ctx context.Context, category Category, reason string) (Outcome, bool) {
	if !e.armed {
		return Outcome{}, false
	}

	e.count++
	out := Outcome{Count: e.count, Category: category, Reason: reason}

	if e.count >= e.policy.WarningCap && !e.policy.Exempt {
		// Termination must win within the same tick that incremented the
		// counter, before any further alert can be processed.
		out.Terminated = true
		e.armed = false
	} else {
		out.Banner = e.policy.Banner
		if category == CategoryIdentity {
			out.Banner = e.policy.BannerIdentity
		}
	}

	event := Event{
		WarningCount:  e.count,
		Type:          string(category),
		Duration:      util.FormatElapsed(e.clock.Now().Sub(e.sessionStart)),
		Timestamp:     e.clock.Now().Format("15:04:05"),
		Justification: "N/A",
	}
	if reason != "" {
		event.Type = string(category) + ": " + reason
	}

	e.metrics.ViolationReported(string(category))
	e.persist(event)

	out.Event = event
	return out, true
}

// persist appends the event to the log store off the session loop. A failed
// append is reported to log and telemetry only; it never blocks or retries.
func (e *Engine) persist(event Event) {
	key := e.key
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := e.logs.Append(ctx, key, event); err != nil {
			log.Error().Err(err).
				Str("user_id", key.UserID).
				Int("warning_count", event.WarningCount).
				Msg("Failed to persist violation event")
			e.metrics.LogAppendFailed()
			e.emitter.Emit(ctx, "log_append_failure", event)
			return
		}
		e.emitter.Emit(ctx, "violation", event)
	}()
}

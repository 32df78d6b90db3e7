package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vaishnavucv/droid-proctoring/internal/analysis"
	"github.com/vaishnavucv/droid-proctoring/internal/config"
	"github.com/vaishnavucv/droid-proctoring/internal/identity"
	"github.com/vaishnavucv/droid-proctoring/internal/media"
	"github.com/vaishnavucv/droid-proctoring/internal/metrics"
	"github.com/vaishnavucv/droid-proctoring/internal/recording"
	"github.com/vaishnavucv/droid-proctoring/internal/storage"
	"github.com/vaishnavucv/droid-proctoring/internal/telemetry"
	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

// State of one assessment attempt.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateFailed   State = "failed"
)

var (
	ErrInvalidState          = errors.New("operation not valid in current session state")
	ErrMediaNotAcquired      = errors.New("screen and camera must be acquired before starting")
	ErrJustificationRequired = errors.New("a justification is required to resume")
)

// User identifies the candidate of an attempt.
type User struct {
	UserID   string
	Username string
	CourseID string
}

// Snapshot is a point-in-time view of the controller for status endpoints.
type Snapshot struct {
	State                State
	SessionKey           string
	Folder               string
	WarningCount         int
	RemainingSeconds     int
	PendingJustification bool
}

// AssessmentGrader is the external record the controller reports into.
type AssessmentGrader interface {
	Start(ctx context.Context, userID, courseID string, maxAttempts int) error
	Complete(ctx context.Context, userID, courseID string, justifications []violation.Justification, isFailure bool) (int, string, error)
}

// LiveMirror receives best-effort copies of the live session state and fans
// violation events out to live subscribers.
type LiveMirror interface {
	SaveState(ctx context.Context, snapshot *storage.LiveSnapshot, ttl time.Duration) error
	PublishViolation(ctx context.Context, sessionKey string, event violation.Event) error
	Delete(ctx context.Context, sessionKey string) error
}

// FailureNotifier raises a support ticket when an attempt is terminated by
// the warning cap.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, user User, warningCount int) error
}

// Controller is the session state machine. All state lives on a single
// goroutine fed by a command channel; periodic tasks and async completions
// post commands stamped with the epoch they belong to, and the loop discards
// anything from a previous epoch. There are no locks because there is no
// shared mutable state.
type Controller struct {
	cfg        config.Proctoring
	clock      time2.Clock
	acquirer   *media.Acquirer
	engine     *violation.Engine
	identity   *identity.Manager
	classifier analysis.Classifier
	segments   recording.SegmentSink
	grader     AssessmentGrader
	live       LiveMirror
	notifier   FailureNotifier
	emitter    telemetry.Emitter
	metrics    *metrics.Service

	commands  chan func()
	closed    chan struct{}
	closeOnce sync.Once

	// Loop-owned state. Only ever touched from the run goroutine.
	state          State
	epoch          int
	user           User
	start          time.Time
	sessionKey     string
	folder         string
	remaining      int
	justifications []violation.Justification
	pendingJustify bool
	tasks          *TaskSet
	recorders      []*recording.Recorder
}

func NewController(
	cfg config.Proctoring,
	clock time2.Clock,
	acquirer *media.Acquirer,
	engine *violation.Engine,
	identityMgr *identity.Manager,
	classifier analysis.Classifier,
	segments recording.SegmentSink,
	grader AssessmentGrader,
	live LiveMirror,
	notifier FailureNotifier,
	emitter telemetry.Emitter,
	m *metrics.Service,
) *Controller {
	c := &Controller{
		cfg:        cfg,
		clock:      clock,
		acquirer:   acquirer,
		engine:     engine,
		identity:   identityMgr,
		classifier: classifier,
		segments:   segments,
		grader:     grader,
		live:       live,
		notifier:   notifier,
		emitter:    emitter,
		metrics:    m,
		commands:   make(chan func(), 64),
		closed:     make(chan struct{}),
		state:      StateIdle,
	}
	acquirer.OnScreenLost(func() {
		// Losing the shared display outside an explicit stop is treated
		// like leaving fullscreen: supervision of the desktop is gone.
		// reportLocked ignores it unless a session is actually running.
		select {
		case c.commands <- func() { c.reportLocked(violation.CategoryFullscreen, "screen sharing stopped") }:
		case <-c.closed:
		}
	})
	go c.run()
	return c
}

// DeriveKey builds the stable session key all artifacts of an attempt share.
func DeriveKey(userID, courseID string, start time.Time) string {
	iso := start.UTC().Format("2006-01-02T15:04:05.000Z")
	return userID + "_" + courseID + "_" + strings.NewReplacer(":", "-", ".", "-").Replace(iso)
}

func (c *Controller) run() {
	for {
		select {
		case cmd := <-c.commands:
			cmd()
		case <-c.closed:
			return
		}
	}
}

// Close stops the command loop. Pending commands are dropped; an in-flight
// session should be finished or reset first. Safe to call more than once.
func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// exec runs fn on the loop and waits for its result.
func (c *Controller) exec(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case c.commands <- func() { errc <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return errors.New("session controller closed")
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// postAsync queues fn without waiting. The epoch captured at post time is
// checked on the loop so work scheduled before a reset cannot touch the next
// attempt.
func (c *Controller) postAsync(epoch int, fn func()) {
	select {
	case c.commands <- func() {
		if epoch != c.epoch {
			return
		}
		fn()
	}:
	case <-c.closed:
	}
}

// Begin moves idle -> starting. The attempt counter is consumed here; after
// the startup ramp elapses the session enters running and every supervision
// loop starts.
func (c *Controller) Begin(ctx context.Context, user User) error {
	return c.exec(ctx, func() error {
		if c.state != StateIdle {
			return ErrInvalidState
		}
		if c.acquirer.Screen() == nil || c.acquirer.Camera() == nil {
			return ErrMediaNotAcquired
		}

		if err := c.grader.Start(ctx, user.UserID, user.CourseID, c.cfg.MaxAttempts); err != nil {
			return err
		}

		c.user = user
		c.state = StateStarting
		epoch := c.epoch

		log.Info().
			Str("user_id", user.UserID).
			Str("course_id", user.CourseID).
			Msg("Session starting")

		time.AfterFunc(c.cfg.StartupRamp, func() {
			c.postAsync(epoch, c.enterRunning)
		})
		return nil
	})
}

// enterRunning runs on the loop once the startup ramp has elapsed.
func (c *Controller) enterRunning() {
	if c.state != StateStarting {
		return
	}

	c.start = c.clock.Now()
	c.sessionKey = DeriveKey(c.user.UserID, c.user.CourseID, c.start)
	c.folder = storage.SessionFolder(c.user.Username, c.user.UserID, c.start)
	c.remaining = int(c.cfg.AssessmentDuration.Seconds())
	c.justifications = nil
	c.pendingJustify = false

	c.engine.Begin(
		violation.LogKey{Username: c.user.Username, UserID: c.user.UserID, SessionStart: c.start},
		violation.Policy{
			WarningCap:     c.cfg.WarningCap,
			Exempt:         c.cfg.CourseExempt(c.user.CourseID),
			Banner:         c.cfg.BannerDuration,
			BannerIdentity: c.cfg.BannerIdentity,
		},
	)
	c.identity.Begin(c.folder, c.user.UserID, c.start)

	epoch := c.epoch
	scheduler := analysis.NewScheduler(
		c.clock,
		c.classifier,
		c.identity,
		c.acquirer.Camera,
		c.acquirer.Screen,
		func(ctx context.Context, category violation.Category, reason string) {
			c.post(ctx, epoch, func() { c.reportLocked(category, reason) })
		},
		c.metrics,
	)

	screenRec := recording.New(c.segments, c.metrics, c.folder, c.sessionKey, media.StreamScreen, c.acquirer.Screen)
	cameraRec := recording.New(c.segments, c.metrics, c.folder, c.sessionKey, media.StreamCamera, c.acquirer.Camera)
	c.recorders = []*recording.Recorder{screenRec, cameraRec}

	c.tasks = NewTaskSet()
	c.tasks.Every("record-screen-"+c.sessionKey, c.cfg.RecordInterval, func(ctx context.Context) {
		_ = screenRec.Flush(ctx)
	})
	c.tasks.Every("record-camera-"+c.sessionKey, c.cfg.RecordInterval, func(ctx context.Context) {
		_ = cameraRec.Flush(ctx)
	})
	c.tasks.Every("analysis-"+c.sessionKey, c.cfg.AnalysisInterval, scheduler.Tick)
	c.tasks.Every("countdown-"+c.sessionKey, c.cfg.CountdownInterval, func(ctx context.Context) {
		c.post(ctx, epoch, c.countdownTick)
	})

	c.state = StateRunning
	c.mirrorState()

	log.Info().
		Str("session_key", c.sessionKey).
		Str("folder", c.folder).
		Int("remaining_seconds", c.remaining).
		Msg("Session running")
}

// post queues fn from a task goroutine, giving up when the task context is
// cancelled so CancelAll never deadlocks against a full command buffer.
func (c *Controller) post(ctx context.Context, epoch int, fn func()) {
	select {
	case c.commands <- func() {
		if epoch != c.epoch {
			return
		}
		fn()
	}:
	case <-ctx.Done():
	case <-c.closed:
	}
}

func (c *Controller) countdownTick() {
	if c.state != StateRunning {
		return
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.finishLocked(false)
	}
}

// reportLocked feeds one violation through the engine and acts on the
// outcome. Runs on the loop; the threshold check is synchronous with the
// increment so two near-simultaneous alerts cannot both pass the cap.
func (c *Controller) reportLocked(category violation.Category, reason string) {
	if c.state != StateRunning {
		return
	}

	outcome, ok := c.engine.Report(context.Background(), category, reason)
	if !ok {
		return
	}

	c.mirrorState()

	if c.live != nil {
		sessionKey := c.sessionKey
		event := outcome.Event
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = c.live.PublishViolation(ctx, sessionKey, event)
		}()
	}

	if outcome.Terminated {
		log.Warn().
			Str("session_key", c.sessionKey).
			Int("warning_count", outcome.Count).
			Msg("Warning cap reached, terminating session")
		c.finishLocked(true)
	}
}

// FullscreenExited records a fullscreen violation and arms the justification
// gate for re-entry.
func (c *Controller) FullscreenExited(ctx context.Context) error {
	return c.exec(ctx, func() error {
		if c.state != StateRunning {
			return ErrInvalidState
		}
		c.pendingJustify = true
		c.reportLocked(violation.CategoryFullscreen, "")
		return nil
	})
}

// VisibilityHidden records a visibility violation.
func (c *Controller) VisibilityHidden(ctx context.Context) error {
	return c.exec(ctx, func() error {
		if c.state != StateRunning {
			return ErrInvalidState
		}
		c.reportLocked(violation.CategoryVisibility, "")
		return nil
	})
}

// Report records a violation on behalf of the analysis pipeline.
func (c *Controller) Report(ctx context.Context, category violation.Category, reason string) error {
	return c.exec(ctx, func() error {
		c.reportLocked(category, reason)
		return nil
	})
}

// RequestFullscreen clears the justification gate. Once the attempt has
// accumulated warnings, resuming demands a justification text, which is
// carried into the completion call.
func (c *Controller) RequestFullscreen(ctx context.Context, justification string) error {
	return c.exec(ctx, func() error {
		if c.state != StateRunning {
			return ErrInvalidState
		}
		if c.pendingJustify && c.engine.Count() > 0 {
			if strings.TrimSpace(justification) == "" {
				return ErrJustificationRequired
			}
			c.justifications = append(c.justifications, violation.Justification{
				Count:     c.engine.Count(),
				Reason:    justification,
				Timestamp: c.clock.Now().Format("15:04:05"),
			})
		}
		c.pendingJustify = false
		return nil
	})
}

// Finish completes the attempt ahead of the countdown.
func (c *Controller) Finish(ctx context.Context) error {
	return c.exec(ctx, func() error {
		if c.state != StateRunning {
			return ErrInvalidState
		}
		c.finishLocked(false)
		return nil
	})
}

// finishLocked drives the single completion path. Runs on the loop; the
// state transition happens first so the external completion call can never
// be issued twice.
func (c *Controller) finishLocked(isFailure bool) {
	if c.state != StateRunning {
		return
	}
	if isFailure {
		c.state = StateFailed
	} else {
		c.state = StateComplete
	}
	c.epoch++

	c.identity.End()
	c.engine.Disarm()

	user := c.user
	sessionKey := c.sessionKey
	warnings := c.engine.Count()
	justifications := append([]violation.Justification{}, c.justifications...)
	tasks := c.tasks
	recorders := c.recorders
	c.tasks = nil
	c.recorders = nil

	go func() {
		if tasks != nil {
			tasks.CancelAll()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		for _, rec := range recorders {
			if err := rec.Close(ctx); err != nil {
				log.Warn().Err(err).Str("session_key", sessionKey).Msg("Final recorder flush failed")
			}
		}
		c.acquirer.StopAll()

		score, result, err := c.grader.Complete(ctx, user.UserID, user.CourseID, justifications, isFailure)
		if err != nil {
			log.Error().Err(err).Str("session_key", sessionKey).Msg("Failed to record assessment completion")
		} else {
			log.Info().
				Str("session_key", sessionKey).
				Int("score", score).
				Str("result", result).
				Bool("failure", isFailure).
				Msg("Session finished")
		}

		if isFailure && c.notifier != nil {
			if err := c.notifier.NotifyFailure(ctx, user, warnings); err != nil {
				log.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to send failure notification")
			}
		}

		if c.live != nil {
			_ = c.live.Delete(ctx, sessionKey)
		}

		kind := "session_complete"
		if isFailure {
			kind = "session_failed"
		}
		c.emitter.Emit(ctx, kind, map[string]interface{}{
			"sessionKey":   sessionKey,
			"userId":       user.UserID,
			"courseId":     user.CourseID,
			"warningCount": warnings,
		})
	}()
}

// Retake tears the attempt down and returns to idle. Every pending timer is
// cancelled and every in-flight result is invalidated by the epoch bump
// before idle is re-entered.
func (c *Controller) Retake(ctx context.Context) error {
	return c.exec(ctx, func() error {
		if c.state == StateIdle {
			return nil
		}
		c.epoch++

		c.identity.End()
		c.engine.Reset()

		tasks := c.tasks
		recorders := c.recorders
		c.tasks = nil
		c.recorders = nil

		sessionKey := c.sessionKey
		c.sessionKey = ""
		c.folder = ""
		c.justifications = nil
		c.pendingJustify = false
		c.remaining = 0
		c.state = StateIdle

		go func() {
			if tasks != nil {
				tasks.CancelAll()
			}

			flushCtx, cancelFlush := context.WithTimeout(context.Background(), 30*time.Second)
			for _, rec := range recorders {
				if err := rec.Close(flushCtx); err != nil {
					log.Warn().Err(err).Str("session_key", sessionKey).Msg("Final recorder flush failed")
				}
			}
			cancelFlush()

			c.acquirer.StopAll()
			if c.live != nil && sessionKey != "" {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = c.live.Delete(ctx, sessionKey)
			}
		}()

		log.Info().Str("session_key", sessionKey).Msg("Session reset to idle")
		return nil
	})
}

// Status returns a consistent snapshot of the controller.
func (c *Controller) Status(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := c.exec(ctx, func() error {
		snap = c.snapshotLocked()
		return nil
	})
	return snap, err
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:                c.state,
		SessionKey:           c.sessionKey,
		Folder:               c.folder,
		WarningCount:         c.engine.Count(),
		RemainingSeconds:     c.remaining,
		PendingJustification: c.pendingJustify,
	}
}

// mirrorState pushes the current snapshot to the live mirror, best effort.
func (c *Controller) mirrorState() {
	if c.live == nil {
		return
	}
	snapshot := &storage.LiveSnapshot{
		SessionKey:   c.sessionKey,
		UserID:       c.user.UserID,
		CourseID:     c.user.CourseID,
		State:        string(c.state),
		WarningCount: c.engine.Count(),
		UpdatedAt:    c.clock.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.live.SaveState(ctx, snapshot, 2*time.Hour); err != nil {
			log.Warn().Err(err).Msg("Failed to mirror session state")
		}
	}()
}

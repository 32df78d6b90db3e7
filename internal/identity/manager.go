package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"

	"github.com/vaishnavucv/droid-proctoring/internal/analysis"
	"github.com/vaishnavucv/droid-proctoring/internal/storage"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

// Phase of the identity manager within a running session.
type Phase string

const (
	PhaseInactive    Phase = "inactive"
	PhaseRegistering Phase = "registering"
	PhaseMonitoring  Phase = "monitoring"
)

// ReferenceStore persists and recalls the registered reference face of a
// session.
type ReferenceStore interface {
	SaveReference(folder, userID string, image []byte) error
	LoadReference(folder, userID string) ([]byte, error)
}

// Manager owns the two-phase identity check of a session. For a fixed window
// after the session enters running it registers the candidate's face,
// overwriting the reference on every camera tick so the freshest capture
// wins. After the window closes every camera tick is compared against the
// registered reference.
//
// The phase is derived from the clock on every call, never stored, so there
// is no transition to race against and a reset simply deactivates the
// manager.
type Manager struct {
	mu sync.Mutex

	clock      time2.Clock
	classifier analysis.Classifier
	refs       ReferenceStore
	window     time.Duration

	folder  string
	userID  string
	entered time.Time
	active  bool
}

func NewManager(clock time2.Clock, classifier analysis.Classifier, refs ReferenceStore, window time.Duration) *Manager {
	return &Manager{
		clock:      clock,
		classifier: classifier,
		refs:       refs,
		window:     window,
	}
}

// Begin arms the manager for a session. The registration window opens at the
// given instant.
func (m *Manager) Begin(folder, userID string, entered time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.folder = folder
	m.userID = userID
	m.entered = entered
	m.active = true
}

// End deactivates the manager; subsequent camera frames are ignored.
func (m *Manager) End() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
}

// Phase reports the current phase, derived from the clock.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phaseLocked()
}

func (m *Manager) phaseLocked() Phase {
	if !m.active {
		return PhaseInactive
	}
	if m.clock.Now().Sub(m.entered) < m.window {
		return PhaseRegistering
	}
	return PhaseMonitoring
}

// HandleCameraFrame consumes one camera frame according to the current phase
// and returns a finding when the frame constitutes a violation.
func (m *Manager) HandleCameraFrame(ctx context.Context, frame []byte) (*analysis.Finding, error) {
	m.mu.Lock()
	phase := m.phaseLocked()
	folder, userID := m.folder, m.userID
	m.mu.Unlock()

	switch phase {
	case PhaseRegistering:
		return m.register(ctx, folder, userID, frame)
	case PhaseMonitoring:
		return m.monitor(ctx, folder, userID, frame)
	default:
		return nil, nil
	}
}

// register stores the frame as the session's reference face and runs the
// basic behavior checks that make sense before a reference exists.
func (m *Manager) register(ctx context.Context, folder, userID string, frame []byte) (*analysis.Finding, error) {
	if err := m.refs.SaveReference(folder, userID, frame); err != nil {
		// Registration keeps retrying on the next tick.
		util.LogFromContext(ctx).Error().Err(err).Str("folder", folder).Msg("Failed to save reference face")
	}

	verdict, err := m.classifier.AnalyzeCamera(ctx, frame)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze camera frame")
	}
	if !verdict.Alert {
		return nil, nil
	}

	behavior := verdict.Behavior
	if behavior.FaceDetected && !behavior.MultipleFaces && !behavior.TalkingToSomeone {
		// Lesser findings are not actionable while the candidate is
		// still settling in front of the camera.
		return nil, nil
	}

	category := violation.CategoryClassifier
	if behavior.MultipleFaces || behavior.TalkingToSomeone {
		category = violation.CategoryIdentity
	}
	return &analysis.Finding{Category: category, Reason: verdict.Reason}, nil
}

// monitor compares the frame against the registered reference and applies
// the severity ladder, most severe first.
func (m *Manager) monitor(ctx context.Context, folder, userID string, frame []byte) (*analysis.Finding, error) {
	reference, err := m.refs.LoadReference(folder, userID)
	if err != nil {
		if err == storage.ErrNoReference {
			// Registration never captured a face; nothing to compare.
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to load reference face")
	}

	signals, err := m.classifier.CompareIdentity(ctx, reference, frame)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compare identity")
	}

	return Classify(signals), nil
}

// Classify maps identity signals onto a single finding via the severity
// ladder. Impersonation-grade signals (wrong or extra person, coaching) are
// identity findings; the rest are ordinary classifier alerts.
func Classify(signals *analysis.IdentitySignals) *analysis.Finding {
	switch {
	case !signals.FaceDetected:
		return &analysis.Finding{
			Category: violation.CategoryClassifier,
			Reason:   "NO FACE DETECTED - camera may be blocked or candidate absent",
		}
	case !signals.SamePerson:
		return &analysis.Finding{
			Category: violation.CategoryIdentity,
			Reason:   fmt.Sprintf("DIFFERENT PERSON DETECTED - unauthorized individual at terminal (confidence: %.0f%%)", signals.Confidence),
		}
	case signals.MultipleFaces && signals.TalkingToSomeone:
		return &analysis.Finding{
			Category: violation.CategoryIdentity,
			Reason:   "CANDIDATE COMMUNICATING WITH NEARBY PERSON - multiple faces detected and candidate appears to be talking",
		}
	case signals.MultipleFaces:
		return &analysis.Finding{
			Category: violation.CategoryIdentity,
			Reason:   "MULTIPLE FACES DETECTED - " + orDefault(signals.Reason, "unauthorized person visible in frame"),
		}
	case signals.TalkingToSomeone:
		return &analysis.Finding{
			Category: violation.CategoryIdentity,
			Reason:   "CANDIDATE APPEARS TO BE TALKING TO SOMEONE - possible verbal communication with nearby person",
		}
	case signals.SuspiciousActivity:
		return &analysis.Finding{
			Category: violation.CategoryClassifier,
			Reason:   "SUSPICIOUS ACTIVITY - " + orDefault(signals.Reason, "unauthorized behavior detected"),
		}
	case signals.LookingAway:
		return &analysis.Finding{
			Category: violation.CategoryClassifier,
			Reason:   "CANDIDATE LOOKING AWAY - possible reference to external materials",
		}
	default:
		return nil
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

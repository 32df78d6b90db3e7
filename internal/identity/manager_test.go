package identity_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaishnavucv/droid-proctoring/internal/analysis"
	"github.com/vaishnavucv/droid-proctoring/internal/identity"
	"github.com/vaishnavucv/droid-proctoring/internal/storage"
	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

type memRefStore struct {
	mu    sync.Mutex
	refs  map[string][]byte
	saves int
}

func newMemRefStore() *memRefStore {
	return &memRefStore{refs: map[string][]byte{}}
}

func (s *memRefStore) SaveReference(folder, userID string, image []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.refs[folder+"/"+userID] = append([]byte{}, image...)
	return nil
}

func (s *memRefStore) LoadReference(folder, userID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.refs[folder+"/"+userID]
	if !ok {
		return nil, storage.ErrNoReference
	}
	return ref, nil
}

type stubClassifier struct {
	camera   *analysis.CameraVerdict
	identity *analysis.IdentitySignals

	lastReference []byte
}

func (s *stubClassifier) AnalyzeCamera(context.Context, []byte) (*analysis.CameraVerdict, error) {
	if s.camera == nil {
		return &analysis.CameraVerdict{Behavior: analysis.BehaviorSignals{FaceDetected: true}}, nil
	}
	return s.camera, nil
}

func (s *stubClassifier) AnalyzeScreen(context.Context, []byte) (*analysis.ScreenVerdict, error) {
	return &analysis.ScreenVerdict{}, nil
}

func (s *stubClassifier) CompareIdentity(_ context.Context, reference, _ []byte) (*analysis.IdentitySignals, error) {
	s.lastReference = reference
	if s.identity == nil {
		return &analysis.IdentitySignals{FaceDetected: true, SamePerson: true}, nil
	}
	return s.identity, nil
}

func newManager(cls analysis.Classifier, refs identity.ReferenceStore) (*identity.Manager, *time2.MockClock) {
	clock := time2.NewMockClock(time.Date(2026, 2, 7, 11, 0, 0, 0, time.UTC))
	m := identity.NewManager(clock, cls, refs, 20*time.Second)
	m.Begin("alice_u1_2026-02-07_11-00-00", "u1", clock.Now())
	return m, clock
}

func TestPhaseDerivation(t *testing.T) {
	m, clock := newManager(&stubClassifier{}, newMemRefStore())

	assert.Equal(t, identity.PhaseRegistering, m.Phase())

	clock.Advance(19 * time.Second)
	assert.Equal(t, identity.PhaseRegistering, m.Phase())

	clock.Advance(time.Second)
	assert.Equal(t, identity.PhaseMonitoring, m.Phase())

	m.End()
	assert.Equal(t, identity.PhaseInactive, m.Phase())
}

func TestRegistrationOverwritesReference(t *testing.T) {
	refs := newMemRefStore()
	m, _ := newManager(&stubClassifier{}, refs)

	_, err := m.HandleCameraFrame(context.Background(), []byte("first"))
	require.NoError(t, err)
	_, err = m.HandleCameraFrame(context.Background(), []byte("second"))
	require.NoError(t, err)

	assert.Equal(t, 2, refs.saves)
	ref, err := refs.LoadReference("alice_u1_2026-02-07_11-00-00", "u1")
	require.NoError(t, err)
	assert.Equal(t, "second", string(ref))
}

func TestRegistrationFlagsExtraPerson(t *testing.T) {
	cls := &stubClassifier{camera: &analysis.CameraVerdict{
		Alert:    true,
		Reason:   "second person at edge of frame",
		Behavior: analysis.BehaviorSignals{FaceDetected: true, MultipleFaces: true},
	}}
	m, _ := newManager(cls, newMemRefStore())

	finding, err := m.HandleCameraFrame(context.Background(), []byte("frame"))
	require.NoError(t, err)
	require.NotNil(t, finding)
	assert.Equal(t, violation.CategoryIdentity, finding.Category)
	assert.Equal(t, "second person at edge of frame", finding.Reason)
}

func TestRegistrationIgnoresLesserAlerts(t *testing.T) {
	cls := &stubClassifier{camera: &analysis.CameraVerdict{
		Alert:    true,
		Reason:   "candidate glancing sideways",
		Behavior: analysis.BehaviorSignals{FaceDetected: true, LookingAway: true},
	}}
	m, _ := newManager(cls, newMemRefStore())

	finding, err := m.HandleCameraFrame(context.Background(), []byte("frame"))
	require.NoError(t, err)
	assert.Nil(t, finding)
}

func TestMonitoringComparesAgainstReference(t *testing.T) {
	refs := newMemRefStore()
	cls := &stubClassifier{}
	m, clock := newManager(cls, refs)

	_, err := m.HandleCameraFrame(context.Background(), []byte("reference"))
	require.NoError(t, err)

	clock.Advance(25 * time.Second)
	finding, err := m.HandleCameraFrame(context.Background(), []byte("current"))
	require.NoError(t, err)
	assert.Nil(t, finding)
	assert.Equal(t, "reference", string(cls.lastReference))
}

func TestMonitoringWithoutReferenceIsSilent(t *testing.T) {
	m, clock := newManager(&stubClassifier{}, newMemRefStore())
	clock.Advance(25 * time.Second)

	// LoadReference misses, no comparison happens. The ref store was never
	// written because no registration frame arrived.
	refs := newMemRefStore()
	m = identity.NewManager(time2.NewMockClock(clock.Now()), &stubClassifier{}, refs, 20*time.Second)
	m.Begin("alice_u1_2026-02-07_11-00-00", "u1", clock.Now().Add(-time.Minute))

	finding, err := m.HandleCameraFrame(context.Background(), []byte("current"))
	require.NoError(t, err)
	assert.Nil(t, finding)
}

func TestSeverityLadder(t *testing.T) {
	cases := []struct {
		name     string
		signals  analysis.IdentitySignals
		category violation.Category
		contains string
	}{
		{
			name:     "no face wins over everything",
			signals:  analysis.IdentitySignals{SamePerson: false, MultipleFaces: true},
			category: violation.CategoryClassifier,
			contains: "NO FACE DETECTED",
		},
		{
			name:     "different person",
			signals:  analysis.IdentitySignals{FaceDetected: true, SamePerson: false, Confidence: 92},
			category: violation.CategoryIdentity,
			contains: "DIFFERENT PERSON DETECTED",
		},
		{
			name:     "communicating with nearby person",
			signals:  analysis.IdentitySignals{FaceDetected: true, SamePerson: true, MultipleFaces: true, TalkingToSomeone: true},
			category: violation.CategoryIdentity,
			contains: "COMMUNICATING WITH NEARBY PERSON",
		},
		{
			name:     "multiple faces",
			signals:  analysis.IdentitySignals{FaceDetected: true, SamePerson: true, MultipleFaces: true},
			category: violation.CategoryIdentity,
			contains: "MULTIPLE FACES DETECTED",
		},
		{
			name:     "talking",
			signals:  analysis.IdentitySignals{FaceDetected: true, SamePerson: true, TalkingToSomeone: true},
			category: violation.CategoryIdentity,
			contains: "TALKING TO SOMEONE",
		},
		{
			name:     "suspicious activity",
			signals:  analysis.IdentitySignals{FaceDetected: true, SamePerson: true, SuspiciousActivity: true},
			category: violation.CategoryClassifier,
			contains: "SUSPICIOUS ACTIVITY",
		},
		{
			name:     "looking away",
			signals:  analysis.IdentitySignals{FaceDetected: true, SamePerson: true, LookingAway: true},
			category: violation.CategoryClassifier,
			contains: "LOOKING AWAY",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			finding := identity.Classify(&tc.signals)
			require.NotNil(t, finding)
			assert.Equal(t, tc.category, finding.Category)
			assert.Contains(t, finding.Reason, tc.contains)
		})
	}
}

func TestCleanFrameYieldsNoFinding(t *testing.T) {
	finding := identity.Classify(&analysis.IdentitySignals{FaceDetected: true, SamePerson: true})
	assert.Nil(t, finding)
}

func TestConfidenceRenderedAsPercentage(t *testing.T) {
	finding := identity.Classify(&analysis.IdentitySignals{FaceDetected: true, SamePerson: false, Confidence: 87})
	require.NotNil(t, finding)
	assert.Contains(t, finding.Reason, "(confidence: 87%)")
}

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/stretchr/testify/require"

	"github.com/vaishnavucv/droid-proctoring/internal/analysis"
	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/router"
	"github.com/vaishnavucv/droid-proctoring/internal/config"
	"github.com/vaishnavucv/droid-proctoring/internal/identity"
	"github.com/vaishnavucv/droid-proctoring/internal/media"
	"github.com/vaishnavucv/droid-proctoring/internal/metrics"
	"github.com/vaishnavucv/droid-proctoring/internal/session"
	"github.com/vaishnavucv/droid-proctoring/internal/storage"
	"github.com/vaishnavucv/droid-proctoring/internal/telemetry"
	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

// StubClassifier returns configured verdicts without any network round-trip.
// Zero-value verdicts (no alert) are returned for anything left nil.
type StubClassifier struct {
	mu sync.Mutex

	CameraVerdict   *analysis.CameraVerdict
	ScreenVerdict   *analysis.ScreenVerdict
	IdentityVerdict *analysis.IdentitySignals

	CameraErr   error
	ScreenErr   error
	IdentityErr error
}

func (s *StubClassifier) AnalyzeCamera(context.Context, []byte) (*analysis.CameraVerdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CameraErr != nil {
		return nil, s.CameraErr
	}
	if s.CameraVerdict != nil {
		return s.CameraVerdict, nil
	}
	return &analysis.CameraVerdict{Behavior: analysis.BehaviorSignals{FaceDetected: true}}, nil
}

func (s *StubClassifier) AnalyzeScreen(context.Context, []byte) (*analysis.ScreenVerdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ScreenErr != nil {
		return nil, s.ScreenErr
	}
	if s.ScreenVerdict != nil {
		return s.ScreenVerdict, nil
	}
	return &analysis.ScreenVerdict{}, nil
}

func (s *StubClassifier) CompareIdentity(context.Context, []byte, []byte) (*analysis.IdentitySignals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.IdentityErr != nil {
		return nil, s.IdentityErr
	}
	if s.IdentityVerdict != nil {
		return s.IdentityVerdict, nil
	}
	return &analysis.IdentitySignals{FaceDetected: true, SamePerson: true, Confidence: 99}, nil
}

// FakeGrader is an in-memory AssessmentGrader for server tests that must not
// touch postgres.
type FakeGrader struct {
	mu          sync.Mutex
	Starts      int
	Completions int
	LastFailure bool
	StartErr    error
}

func (g *FakeGrader) Start(context.Context, string, string, int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Starts++
	return g.StartErr
}

func (g *FakeGrader) Complete(_ context.Context, _, _ string, _ []violation.Justification, isFailure bool) (int, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Completions++
	g.LastFailure = isFailure
	if isFailure {
		return 0, storage.ResultFail, nil
	}
	return 85, storage.ResultPass, nil
}

func (g *FakeGrader) CompletionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Completions
}

type noopNotifier struct{}

func (noopNotifier) NotifyFailure(context.Context, session.User, int) error { return nil }

// DefaultTestConfig returns a server configuration suitable for tests: temp
// storage directories, short intervals, no external services.
func DefaultTestConfig(t *testing.T) config.Server {
	t.Helper()
	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Storage.RecordDir = t.TempDir()
	cfg.Storage.LogsDir = t.TempDir()
	cfg.Redis.Enabled = false
	cfg.MQTT.Enabled = false
	cfg.Mailer.Enabled = false
	cfg.Proctoring.StartupRamp = 0
	cfg.Proctoring.RecordInterval = time.Hour
	cfg.Proctoring.AnalysisInterval = time.Hour
	cfg.Proctoring.CountdownInterval = time.Hour
	return cfg
}

// WithTestServer builds a fully wired Server on in-memory fakes and temp
// directories, runs the closure against it and tears everything down again.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()
	WithTestServerConfigurable(t, DefaultTestConfig(t), closure)
}

func WithTestServerConfigurable(t *testing.T, cfg config.Server, closure func(s *api.Server)) {
	t.Helper()

	s := api.NewServer(cfg)

	clock := time2.DefaultClock
	s.Clock = clock
	s.Metrics = metrics.New()
	s.Emitter = telemetry.Noop{}
	s.Mailer = NewTestMailer(t)

	s.Segments = storage.NewFileSegmentStore(cfg.Storage.RecordDir)
	s.Logs = storage.NewFileLogStore(cfg.Storage.LogsDir)

	s.Classifier = &StubClassifier{}

	provider := &FakeProvider{
		ScreenHandle: NewFakeHandle("monitor"),
		CameraHandle: NewFakeHandle("camera"),
	}
	s.Acquirer = media.NewAcquirer(provider)
	require.NoError(t, s.Acquirer.AcquireScreen(context.Background()))
	require.NoError(t, s.Acquirer.AcquireCameraMic(context.Background()))

	s.Identity = identity.NewManager(clock, s.Classifier, s.Segments, cfg.Proctoring.RegistrationWindow)
	s.Engine = violation.NewEngine(clock, s.Logs, s.Emitter, s.Metrics)

	s.Controller = session.NewController(
		cfg.Proctoring,
		clock,
		s.Acquirer,
		s.Engine,
		s.Identity,
		s.Classifier,
		s.Segments,
		&FakeGrader{},
		nil,
		noopNotifier{},
		s.Emitter,
		s.Metrics,
	)
	defer s.Controller.Close()

	router.Init(s)

	closure(s)
}

// PerformRequest issues a request against the server's router and returns the
// recorded response.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body interface{}, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echoHeaderContentType, echoMIMEApplicationJSON)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)
	return res
}

// ParseResponseAndValidate decodes the recorded JSON body into v.
func ParseResponseAndValidate(t *testing.T, res *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), v))
}

const (
	echoHeaderContentType   = "Content-Type"
	echoMIMEApplicationJSON = "application/json"
)

package analysis

import (
	"context"

	"github.com/dropbox/godropbox/time2"

	"github.com/vaishnavucv/droid-proctoring/internal/media"
	"github.com/vaishnavucv/droid-proctoring/internal/metrics"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

// Finding is one actionable verdict produced by an analysis tick.
type Finding struct {
	Category violation.Category
	Reason   string
}

// CameraAnalyzer consumes camera frames. The identity phase manager
// implements it: during registration it captures the reference face, during
// monitoring it compares against it.
type CameraAnalyzer interface {
	HandleCameraFrame(ctx context.Context, frame []byte) (*Finding, error)
}

// ReportFunc surfaces a finding to the session controller. It must be safe to
// call from the scheduler's goroutine; the controller serializes it onto its
// own loop.
type ReportFunc func(ctx context.Context, category violation.Category, reason string)

// Scheduler alternates classifier attention between the camera and the
// screen. Each tick samples exactly one frame from one stream, weighted
// toward the camera: ticks landing in the first 7s of every 10s wall-clock
// window go to the camera, the rest to the screen.
type Scheduler struct {
	clock      time2.Clock
	classifier Classifier
	camera     CameraAnalyzer
	screen     func() media.Handle
	cameraSrc  func() media.Handle
	report     ReportFunc
	metrics    *metrics.Service
}

func NewScheduler(
	clock time2.Clock,
	classifier Classifier,
	camera CameraAnalyzer,
	cameraSrc func() media.Handle,
	screen func() media.Handle,
	report ReportFunc,
	m *metrics.Service,
) *Scheduler {
	return &Scheduler{
		clock:      clock,
		classifier: classifier,
		camera:     camera,
		cameraSrc:  cameraSrc,
		screen:     screen,
		report:     report,
		metrics:    m,
	}
}

// Tick runs one analysis pass. All failures are swallowed after logging: a
// slow or broken classifier degrades supervision, it never ends a session.
func (s *Scheduler) Tick(ctx context.Context) {
	if s.pickCamera() {
		s.tickCamera(ctx)
		return
	}
	s.tickScreen(ctx)
}

func (s *Scheduler) pickCamera() bool {
	return s.clock.Now().UnixMilli()%10000 < 7000
}

func (s *Scheduler) tickCamera(ctx context.Context) {
	handle := s.cameraSrc()
	if handle == nil || !handle.Active() {
		return
	}

	frame, err := handle.Frame(ctx)
	if err != nil {
		util.LogFromContext(ctx).Warn().Err(err).Msg("Failed to sample camera frame")
		return
	}

	finding, err := s.camera.HandleCameraFrame(ctx, frame)
	s.metrics.ClassifierRequest("camera", err)
	if err != nil {
		util.LogFromContext(ctx).Warn().Err(err).Msg("Camera analysis failed")
		return
	}
	if finding != nil {
		s.report(ctx, finding.Category, finding.Reason)
	}
}

func (s *Scheduler) tickScreen(ctx context.Context) {
	handle := s.screen()
	if handle == nil || !handle.Active() {
		return
	}

	frame, err := handle.Frame(ctx)
	if err != nil {
		util.LogFromContext(ctx).Warn().Err(err).Msg("Failed to sample screen frame")
		return
	}

	verdict, err := s.classifier.AnalyzeScreen(ctx, frame)
	s.metrics.ClassifierRequest("screen", err)
	if err != nil {
		util.LogFromContext(ctx).Warn().Err(err).Msg("Screen analysis failed")
		return
	}
	if verdict.Alert {
		reason := verdict.Reason
		if reason == "" {
			reason = "prohibited content on screen"
		}
		s.report(ctx, violation.CategoryClassifier, reason)
	}
}

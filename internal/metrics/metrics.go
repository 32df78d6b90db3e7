package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	violationsTotal     *prometheus.CounterVec
	segmentsTotal       *prometheus.CounterVec
	classifierTotal     *prometheus.CounterVec
	logAppendFailsTotal prometheus.Counter
)

func ensureMetrics() {
	once.Do(func() {
		violationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proctoring_violations_total",
			Help: "Violations reported, by category.",
		}, []string{"category"})
		segmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proctoring_segments_total",
			Help: "Recording segments delivered to storage, by stream and status.",
		}, []string{"stream", "status"})
		classifierTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proctoring_classifier_requests_total",
			Help: "Classifier round-trips, by kind and status.",
		}, []string{"kind", "status"})
		logAppendFailsTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "proctoring_log_append_failures_total",
			Help: "Violation log appends that could not be persisted.",
		})
	})
}

// Service is the process-wide metrics handle, constructed once at startup and
// passed down explicitly.
type Service struct{}

func New() *Service {
	ensureMetrics()
	return &Service{}
}

func (s *Service) ViolationReported(category string) {
	violationsTotal.WithLabelValues(category).Inc()
}

func (s *Service) SegmentDelivered(stream string) {
	segmentsTotal.WithLabelValues(stream, "ok").Inc()
}

func (s *Service) SegmentFailed(stream string) {
	segmentsTotal.WithLabelValues(stream, "error").Inc()
}

func (s *Service) ClassifierRequest(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	classifierTotal.WithLabelValues(kind, status).Inc()
}

func (s *Service) LogAppendFailed() {
	logAppendFailsTotal.Inc()
}

package api

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/vaishnavucv/droid-proctoring/internal/analysis"
	"github.com/vaishnavucv/droid-proctoring/internal/config"
	"github.com/vaishnavucv/droid-proctoring/internal/identity"
	"github.com/vaishnavucv/droid-proctoring/internal/mailer"
	"github.com/vaishnavucv/droid-proctoring/internal/mailer/transport"
	"github.com/vaishnavucv/droid-proctoring/internal/media"
	"github.com/vaishnavucv/droid-proctoring/internal/metrics"
	"github.com/vaishnavucv/droid-proctoring/internal/session"
	"github.com/vaishnavucv/droid-proctoring/internal/storage"
	"github.com/vaishnavucv/droid-proctoring/internal/telemetry"
	"github.com/vaishnavucv/droid-proctoring/internal/violation"

	// Import postgres driver for database/sql package
	_ "github.com/lib/pq"
)

type Router struct {
	Routes          []*echo.Route
	Root            *echo.Group
	Management      *echo.Group
	APIV1Assessment *echo.Group
	APIV1Proctoring *echo.Group
	APIV1Session    *echo.Group
}

// Server is the central struct keeping all dependencies. Components are
// initialized in order by InitServer; handlers only ever reach them through
// this struct.
type Server struct {
	Echo   *echo.Echo
	Router *Router

	Config  config.Server
	DB      *sql.DB
	Redis   *goredis.Client
	Clock   time2.Clock
	Metrics *metrics.Service
	Mailer  *mailer.Mailer
	Emitter telemetry.Emitter

	Segments    *storage.FileSegmentStore
	Logs        *storage.FileLogStore
	Assessments *storage.AssessmentStore
	Live        *storage.LiveStore

	Classifier analysis.Classifier
	Acquirer   *media.Acquirer
	Push       *media.PushProvider
	Identity   *identity.Manager
	Engine     *violation.Engine
	Controller *session.Controller
}

func NewServer(config config.Server) *Server {
	return &Server{
		Config: config,
	}
}

// InitServer wires every component of the service in dependency order. The
// media provider is injected because the capture layer differs between
// deployments and tests.
func InitServer(cfg config.Server, provider media.Provider) (*Server, error) {
	s := NewServer(cfg)

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	s.DB = db

	s.Clock = time2.DefaultClock
	s.Metrics = metrics.New()
	s.Emitter = telemetry.FromConfig(cfg.MQTT)

	if cfg.Redis.Enabled {
		s.Redis = goredis.NewClient(&goredis.Options{Addr: cfg.Redis.Addr})
		s.Live = storage.NewLiveStore(s.Redis)
	}

	s.Mailer = mailer.New(cfg.Mailer, transport.NewSMTP(cfg.SMTP))

	s.Segments = storage.NewFileSegmentStore(cfg.Storage.RecordDir)
	s.Logs = storage.NewFileLogStore(cfg.Storage.LogsDir)
	s.Assessments = storage.NewAssessmentStore(db, storage.FixedScorePolicy(cfg.Proctoring.PassingScore))

	s.Classifier = analysis.NewClient(cfg.Classifier)
	s.Acquirer = media.NewAcquirer(provider)
	if push, ok := provider.(*media.PushProvider); ok {
		s.Push = push
	}
	s.Identity = identity.NewManager(s.Clock, s.Classifier, s.Segments, cfg.Proctoring.RegistrationWindow)
	s.Engine = violation.NewEngine(s.Clock, s.Logs, s.Emitter, s.Metrics)

	var live session.LiveMirror
	if s.Live != nil {
		live = s.Live
	}
	s.Controller = session.NewController(
		cfg.Proctoring,
		s.Clock,
		s.Acquirer,
		s.Engine,
		s.Identity,
		s.Classifier,
		s.Segments,
		s.Assessments,
		live,
		s.Mailer,
		s.Emitter,
		s.Metrics,
	)

	return s, nil
}

func (s *Server) Ready() bool {
	return s.Echo != nil && s.Router != nil && s.DB != nil && s.Controller != nil
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}
	return s.Echo.Start(s.Config.Echo.ListenAddress)
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Controller != nil {
		s.Controller.Close()
	}

	if s.Acquirer != nil {
		log.Debug().Msg("Stopping capture devices")
		s.Acquirer.StopAll()
	}

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")
		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	if s.Redis != nil {
		log.Debug().Msg("Closing redis client")
		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis client")
			errs = append(errs, err)
		}
	}

	if s.DB != nil {
		log.Debug().Msg("Closing database connection")
		if err := s.DB.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			log.Error().Err(err).Msg("Failed to close database connection")
			errs = append(errs, err)
		}
	}

	return errs
}

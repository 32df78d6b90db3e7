package config

import (
	"fmt"
	"time"

	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

type EchoServer struct {
	ListenAddress string
}

type Database struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

// ConnectionString returns a keyword/value DSN for lib/pq.
func (d Database) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.Username, d.Password, d.Database)
}

type Redis struct {
	Enabled bool
	Addr    string
	Ctrl    string // pub/sub channel for violation events
}

type Classifier struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

type Storage struct {
	RecordDir string
	LogsDir   string
}

// Proctoring holds every policy knob of the session controller. None of the
// course-specific behavior is hardcoded in the controller itself.
type Proctoring struct {
	WarningCap         int
	ExemptCourseIDs    []string
	AssessmentDuration time.Duration
	RecordInterval     time.Duration
	AnalysisInterval   time.Duration
	RegistrationWindow time.Duration
	StartupRamp        time.Duration
	CountdownInterval  time.Duration
	BannerDuration     time.Duration
	BannerIdentity     time.Duration
	PassingScore       int
	MaxAttempts        int
}

type MQTT struct {
	Enabled  bool
	BrokerURL string
	ClientID string
	Topic    string
}

type Mailer struct {
	Enabled        bool
	DefaultSender  string
	SupportAddress string
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
}

type Server struct {
	Echo       EchoServer
	Database   Database
	Redis      Redis
	Classifier Classifier
	Storage    Storage
	Proctoring Proctoring
	MQTT       MQTT
	Mailer     Mailer
	SMTP       SMTP
}

// DefaultServiceConfigFromEnv assembles the full server configuration from the
// environment, falling back to development defaults.
func DefaultServiceConfigFromEnv() Server {
	return Server{
		Echo: EchoServer{
			ListenAddress: util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":8080"),
		},
		Database: Database{
			Host:     util.GetEnv("PGHOST", "127.0.0.1"),
			Port:     util.GetEnvAsInt("PGPORT", 5432),
			Username: util.GetEnv("PGUSER", "postgres"),
			Password: util.GetEnv("PGPASSWORD", "postgres"),
			Database: util.GetEnv("PGDATABASE", "proctoring"),
		},
		Redis: Redis{
			Enabled: util.GetEnvAsBool("SERVER_REDIS_ENABLED", false),
			Addr:    util.GetEnv("SERVER_REDIS_ADDR", "127.0.0.1:6379"),
			Ctrl:    util.GetEnv("SERVER_REDIS_CTRL_CHANNEL", "proctoring:violations"),
		},
		Classifier: Classifier{
			Endpoint: util.GetEnv("SERVER_CLASSIFIER_ENDPOINT", "https://api.openai.com/v1"),
			APIKey:   util.GetEnv("SERVER_CLASSIFIER_API_KEY", ""),
			Model:    util.GetEnv("SERVER_CLASSIFIER_MODEL", "gpt-4o"),
			Timeout:  util.GetEnvAsDuration("SERVER_CLASSIFIER_TIMEOUT", 30*time.Second),
		},
		Storage: Storage{
			RecordDir: util.GetEnv("SERVER_STORAGE_RECORD_DIR", "record"),
			LogsDir:   util.GetEnv("SERVER_STORAGE_LOGS_DIR", "logs"),
		},
		Proctoring: Proctoring{
			WarningCap:         util.GetEnvAsInt("SERVER_PROCTORING_WARNING_CAP", 5),
			ExemptCourseIDs:    util.GetEnvAsStringArr("SERVER_PROCTORING_EXEMPT_COURSE_IDS", []string{"444444"}),
			AssessmentDuration: util.GetEnvAsDuration("SERVER_PROCTORING_ASSESSMENT_DURATION", 10*time.Minute),
			RecordInterval:     util.GetEnvAsDuration("SERVER_PROCTORING_RECORD_INTERVAL", 5*time.Second),
			AnalysisInterval:   util.GetEnvAsDuration("SERVER_PROCTORING_ANALYSIS_INTERVAL", 5*time.Second),
			RegistrationWindow: util.GetEnvAsDuration("SERVER_PROCTORING_REGISTRATION_WINDOW", 20*time.Second),
			StartupRamp:        util.GetEnvAsDuration("SERVER_PROCTORING_STARTUP_RAMP", 10*time.Second),
			CountdownInterval:  util.GetEnvAsDuration("SERVER_PROCTORING_COUNTDOWN_INTERVAL", time.Second),
			BannerDuration:     util.GetEnvAsDuration("SERVER_PROCTORING_BANNER_DURATION", 10*time.Second),
			BannerIdentity:     util.GetEnvAsDuration("SERVER_PROCTORING_BANNER_IDENTITY_DURATION", 15*time.Second),
			PassingScore:       util.GetEnvAsInt("SERVER_PROCTORING_PASSING_SCORE", 85),
			MaxAttempts:        util.GetEnvAsInt("SERVER_PROCTORING_MAX_ATTEMPTS", 3),
		},
		MQTT: MQTT{
			Enabled:   util.GetEnvAsBool("SERVER_MQTT_ENABLED", false),
			BrokerURL: util.GetEnv("SERVER_MQTT_BROKER_URL", "tcp://127.0.0.1:1883"),
			ClientID:  util.GetEnv("SERVER_MQTT_CLIENT_ID", "proctord"),
			Topic:     util.GetEnv("SERVER_MQTT_TOPIC", "proctoring/alerts"),
		},
		Mailer: Mailer{
			Enabled:        util.GetEnvAsBool("SERVER_MAILER_ENABLED", false),
			DefaultSender:  util.GetEnv("SERVER_MAILER_DEFAULT_SENDER", "proctoring@example.com"),
			SupportAddress: util.GetEnv("SERVER_MAILER_SUPPORT_ADDRESS", "support@example.com"),
		},
		SMTP: SMTP{
			Host:     util.GetEnv("SERVER_SMTP_HOST", "127.0.0.1"),
			Port:     util.GetEnvAsInt("SERVER_SMTP_PORT", 1025),
			Username: util.GetEnv("SERVER_SMTP_USERNAME", ""),
			Password: util.GetEnv("SERVER_SMTP_PASSWORD", ""),
		},
	}
}

// CourseExempt reports whether the given course track is exempt from the hard
// warning cap.
func (p Proctoring) CourseExempt(courseID string) bool {
	for _, id := range p.ExemptCourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

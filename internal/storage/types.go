package storage

import (
	"time"

	"github.com/pkg/errors"
)

var (
	ErrMaxAttempts    = errors.New("maximum attempts reached")
	ErrSessionUnknown = errors.New("session not found")
	ErrNoReference    = errors.New("no reference identity registered")
)

// AssessmentStatus values of the external record.
const (
	StatusNotStarted = "not_started"
	StatusStarted    = "started"
	StatusCompleted  = "completed"
)

// Assessment results.
const (
	ResultPass = "Pass"
	ResultFail = "Fail"
)

// AssessmentRecord is the externally owned per-(user, course) record. The
// controller only transitions it through Start/Complete/Reset.
type AssessmentRecord struct {
	Status        string  `json:"status"`
	AttemptsTaken int     `json:"attempts_taken"`
	Score         *int    `json:"score"`
	Result        *string `json:"result"`
}

// SessionInfo is one recorded session folder, as listed to the reviewer.
type SessionInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
}

// ChunkInfo is one persisted recording artifact within a session folder.
type ChunkInfo struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Type      string    `json:"type"`
	Timestamp string    `json:"timestamp"`
	Size      int64     `json:"size"`
	Created   time.Time `json:"created"`
}

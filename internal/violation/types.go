package violation

import "time"

// Category classifies the origin of a violation. The string values are the
// persisted log vocabulary and must stay stable.
type Category string

const (
	CategoryFullscreen Category = "fullscreen"
	CategoryVisibility Category = "visibility"
	CategoryClassifier Category = "ai-alert"
	CategoryIdentity   Category = "face-malpractice"
)

// Event is one persisted violation. Events are immutable once recorded and
// ordered by WarningCount, which is 1-based and strictly increasing per
// session.
type Event struct {
	WarningCount  int    `json:"warningCount"`
	Type          string `json:"type"`
	Duration      string `json:"duration"` // elapsed since session start, HH:MM:SS
	Timestamp     string `json:"timestamp"`
	Justification string `json:"justification"`
}

// Justification is a candidate-supplied reason for a violation, collected when
// fullscreen is restored and submitted with the completion call.
type Justification struct {
	Count     int    `json:"count"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

// LogKey identifies the log file of one session attempt.
type LogKey struct {
	Username     string
	UserID       string
	SessionStart time.Time
}

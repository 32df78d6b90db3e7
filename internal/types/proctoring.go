package types

import (
	"errors"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"

	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

type PostSessionBeginPayload struct {
	UserID   *string `json:"userId"`
	Username *string `json:"username"`
	CourseID *string `json:"courseId"`
}

func (p *PostSessionBeginPayload) Validate() error {
	if swag.StringValue(p.UserID) == "" {
		return errors.New("userId is required")
	}
	if swag.StringValue(p.Username) == "" {
		return errors.New("username is required")
	}
	if swag.StringValue(p.CourseID) == "" {
		return errors.New("courseId is required")
	}
	return nil
}

type PostFullscreenPayload struct {
	Justification string `json:"justification,omitempty"`
}

func (p *PostFullscreenPayload) Validate() error {
	return nil
}

type SessionStatusResponse struct {
	State                string `json:"state"`
	SessionKey           string `json:"sessionKey,omitempty"`
	Folder               string `json:"folder,omitempty"`
	WarningCount         int    `json:"warningCount"`
	RemainingSeconds     int    `json:"remainingSeconds"`
	PendingJustification bool   `json:"pendingJustification"`
}

type PostProctoringLogPayload struct {
	Username         *string         `json:"username"`
	UserID           *string         `json:"userId"`
	SessionStartTime strfmt.DateTime `json:"sessionStartTime"`
	WarningCount     int             `json:"warningCount"`
	Type             *string         `json:"type"`
	Duration         string          `json:"duration"`
	Timestamp        string          `json:"timestamp"`
}

func (p *PostProctoringLogPayload) Validate() error {
	if swag.StringValue(p.Username) == "" {
		return errors.New("username is required")
	}
	if swag.StringValue(p.UserID) == "" {
		return errors.New("userId is required")
	}
	if swag.StringValue(p.Type) == "" {
		return errors.New("type is required")
	}
	return nil
}

type ProctoringLogsResponse struct {
	Success bool              `json:"success"`
	File    string            `json:"file,omitempty"`
	Logs    []violation.Event `json:"logs"`
}

type PostFramePayload struct {
	Image  *string `json:"image"`
	Source *string `json:"source"`
}

func (p *PostFramePayload) Validate() error {
	if swag.StringValue(p.Image) == "" {
		return errors.New("image is required")
	}
	source := swag.StringValue(p.Source)
	if source != "camera" && source != "screen" {
		return errors.New("source must be camera or screen")
	}
	return nil
}

type PostAnalyzePayload struct {
	Image  *string `json:"image"`
	Source *string `json:"source"`
}

func (p *PostAnalyzePayload) Validate() error {
	if swag.StringValue(p.Image) == "" {
		return errors.New("image is required")
	}
	source := swag.StringValue(p.Source)
	if source != "camera" && source != "screen" {
		return errors.New("source must be camera or screen")
	}
	return nil
}

type AnalyzeResponse struct {
	Success bool   `json:"success"`
	Alert   bool   `json:"alert"`
	Reason  string `json:"reason,omitempty"`
}

type PostFaceRegisterPayload struct {
	Image  *string `json:"image"`
	Folder *string `json:"folder"`
	UserID *string `json:"userId"`
}

func (p *PostFaceRegisterPayload) Validate() error {
	if swag.StringValue(p.Image) == "" || swag.StringValue(p.Folder) == "" {
		return errors.New("image and folder are required")
	}
	if swag.StringValue(p.UserID) == "" {
		return errors.New("userId is required")
	}
	return nil
}

type PostFaceCheckPayload struct {
	Image  *string `json:"image"`
	Folder *string `json:"folder"`
	UserID *string `json:"userId"`
}

func (p *PostFaceCheckPayload) Validate() error {
	if swag.StringValue(p.Image) == "" || swag.StringValue(p.Folder) == "" {
		return errors.New("image and folder are required")
	}
	if swag.StringValue(p.UserID) == "" {
		return errors.New("userId is required")
	}
	return nil
}

type FaceCheckBehavior struct {
	FaceDetected       bool    `json:"faceDetected"`
	SamePerson         bool    `json:"samePerson"`
	MultipleFaces      bool    `json:"multipleFaces"`
	TalkingToSomeone   bool    `json:"talkingToSomeone"`
	LookingAway        bool    `json:"lookingAway"`
	SuspiciousActivity bool    `json:"suspiciousActivity"`
	Confidence         float64 `json:"confidence"`
}

type FaceCheckResponse struct {
	Success  bool               `json:"success"`
	Alert    bool               `json:"alert"`
	Reason   string             `json:"reason,omitempty"`
	Category string             `json:"category,omitempty"`
	Behavior *FaceCheckBehavior `json:"behavior,omitempty"`
}

type TimelineResponse struct {
	Success     bool            `json:"success"`
	Entries     []TimelineEntry `json:"entries"`
	Summary     map[string]int  `json:"summary"`
	ActiveIndex *int            `json:"activeIndex,omitempty"`
}

type TimelineEntry struct {
	Event  violation.Event `json:"event"`
	Offset int             `json:"offset"`
}

type SessionListResponse struct {
	Success  bool          `json:"success"`
	Sessions []SessionItem `json:"sessions"`
}

type SessionItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
}

type ChunkListResponse struct {
	Success bool        `json:"success"`
	Chunks  []ChunkItem `json:"chunks"`
}

type ChunkItem struct {
	Name      string          `json:"name"`
	URL       string          `json:"url"`
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Size      int64           `json:"size"`
	Created   strfmt.DateTime `json:"created"`
}

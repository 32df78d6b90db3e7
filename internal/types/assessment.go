package types

import (
	"errors"

	"github.com/go-openapi/swag"

	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

type PostAssessmentStartPayload struct {
	UserID   *string `json:"userId"`
	CourseID *string `json:"courseId"`
}

func (p *PostAssessmentStartPayload) Validate() error {
	if swag.StringValue(p.UserID) == "" {
		return errors.New("userId is required")
	}
	if swag.StringValue(p.CourseID) == "" {
		return errors.New("courseId is required")
	}
	return nil
}

type PostAssessmentCompletePayload struct {
	UserID         *string                   `json:"userId"`
	CourseID       *string                   `json:"courseId"`
	IsFailure      bool                      `json:"isFailure"`
	Justifications []violation.Justification `json:"proctoringLogs,omitempty"`
}

func (p *PostAssessmentCompletePayload) Validate() error {
	if swag.StringValue(p.UserID) == "" {
		return errors.New("userId is required")
	}
	if swag.StringValue(p.CourseID) == "" {
		return errors.New("courseId is required")
	}
	return nil
}

type PostAssessmentResetPayload struct {
	UserID   *string `json:"userId"`
	CourseID *string `json:"courseId"`
}

func (p *PostAssessmentResetPayload) Validate() error {
	if swag.StringValue(p.UserID) == "" {
		return errors.New("userId is required")
	}
	if swag.StringValue(p.CourseID) == "" {
		return errors.New("courseId is required")
	}
	return nil
}

type AssessmentStatusResponse struct {
	Status        string  `json:"status"`
	AttemptsTaken int     `json:"attemptsTaken"`
	Score         *int    `json:"score,omitempty"`
	Result        *string `json:"result,omitempty"`
}

type AssessmentCompleteResponse struct {
	Success bool   `json:"success"`
	Score   int    `json:"score"`
	Result  string `json:"result"`
}

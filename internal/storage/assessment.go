package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

// ScorePolicy maps a completion into a score and result. The default mirrors
// the fixed grading of the record service; deployments can swap it.
type ScorePolicy func(isFailure bool) (score int, result string)

// FixedScorePolicy awards passingScore/Pass on a clean completion and 0/Fail
// when the session was terminated by the proctoring policy.
func FixedScorePolicy(passingScore int) ScorePolicy {
	return func(isFailure bool) (int, string) {
		if isFailure {
			return 0, ResultFail
		}
		return passingScore, ResultPass
	}
}

// AssessmentStore drives the external user_assessments record through its
// defined transitions. The record itself is owned by the record service; this
// store never inspects or mutates it outside Start/Status/Complete/Reset.
type AssessmentStore struct {
	db     *sql.DB
	policy ScorePolicy
}

func NewAssessmentStore(db *sql.DB, policy ScorePolicy) *AssessmentStore {
	return &AssessmentStore{db: db, policy: policy}
}

// Start increments the attempt counter, rejecting with ErrMaxAttempts once
// the cap is reached. First-time starts insert the record.
func (s *AssessmentStore) Start(ctx context.Context, userID, courseID string, maxAttempts int) error {
	var attempts int
	err := s.db.QueryRowContext(ctx, `
		SELECT attempts_taken FROM user_assessments
		WHERE user_id = $1 AND course_id = $2;
	`, userID, courseID).Scan(&attempts)
	if err != nil && err != sql.ErrNoRows {
		return errors.Wrap(err, "failed to check attempts")
	}

	if attempts >= maxAttempts {
		return ErrMaxAttempts
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_assessments (user_id, course_id, status, attempts_taken, start_time)
		VALUES ($1, $2, 'started', 1, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, course_id)
		DO UPDATE SET
			status = 'started',
			attempts_taken = user_assessments.attempts_taken + 1,
			start_time = CURRENT_TIMESTAMP;
	`, userID, courseID)
	if err != nil {
		return errors.Wrap(err, "failed to start assessment")
	}
	return nil
}

// Status returns the current record, defaulting to not_started when none
// exists.
func (s *AssessmentStore) Status(ctx context.Context, userID, courseID string) (*AssessmentRecord, error) {
	record := &AssessmentRecord{}
	err := s.db.QueryRowContext(ctx, `
		SELECT status, attempts_taken, score, result
		FROM user_assessments
		WHERE user_id = $1 AND course_id = $2;
	`, userID, courseID).Scan(&record.Status, &record.AttemptsTaken, &record.Score, &record.Result)
	if err == sql.ErrNoRows {
		return &AssessmentRecord{Status: StatusNotStarted}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch assessment status")
	}
	return record, nil
}

// Complete marks the attempt completed and applies the score policy. A
// proctoring failure forces score 0 / Fail regardless of time remaining.
func (s *AssessmentStore) Complete(ctx context.Context, userID, courseID string, justifications []violation.Justification, isFailure bool) (int, string, error) {
	score, result := s.policy(isFailure)

	logsJSON, err := json.Marshal(justifications)
	if err != nil {
		return 0, "", errors.Wrap(err, "failed to marshal justifications")
	}
	if justifications == nil {
		logsJSON = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE user_assessments
		SET status = 'completed',
			score = $3,
			result = $4,
			proctoring_logs = $5,
			end_time = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND course_id = $2;
	`, userID, courseID, score, result, logsJSON)
	if err != nil {
		return 0, "", errors.Wrap(err, "failed to complete assessment")
	}
	return score, result, nil
}

// Reset clears the record back to not_started with zero attempts.
func (s *AssessmentStore) Reset(ctx context.Context, userID, courseID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE user_assessments
		SET status = 'not_started',
			attempts_taken = 0,
			score = NULL,
			result = NULL,
			start_time = NULL,
			proctoring_logs = '[]'::jsonb
		WHERE user_id = $1 AND course_id = $2;
	`, userID, courseID)
	if err != nil {
		return errors.Wrap(err, "failed to reset assessment")
	}
	return nil
}

package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

// LiveSnapshot is the externally visible state of an in-flight session,
// mirrored to redis so monitoring dashboards can read it without touching the
// controller.
type LiveSnapshot struct {
	SessionKey   string    `json:"sessionKey"`
	UserID       string    `json:"userId"`
	CourseID     string    `json:"courseId"`
	State        string    `json:"state"`
	WarningCount int       `json:"warningCount"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LiveStore mirrors live session state and fan-outs violation events over
// redis pub/sub. All operations are best-effort from the controller's point
// of view; errors are reported but never fail the session.
type LiveStore struct {
	client *redis.Client
}

func NewLiveStore(client *redis.Client) *LiveStore {
	return &LiveStore{client: client}
}

// SaveState writes the snapshot under the session key with the given TTL.
func (s *LiveStore) SaveState(ctx context.Context, snapshot *LiveSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session snapshot")
	}

	key := "proctoring:session:" + snapshot.SessionKey
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to save session snapshot")
	}

	return nil
}

// GetState fetches the snapshot for a session key, ErrSessionUnknown when the
// key has expired or never existed.
func (s *LiveStore) GetState(ctx context.Context, sessionKey string) (*LiveSnapshot, error) {
	key := "proctoring:session:" + sessionKey
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionUnknown
		}
		return nil, errors.Wrap(err, "failed to get session snapshot")
	}

	var snapshot LiveSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session snapshot")
	}

	return &snapshot, nil
}

// Delete removes the snapshot once the session is over.
func (s *LiveStore) Delete(ctx context.Context, sessionKey string) error {
	key := "proctoring:session:" + sessionKey
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "failed to delete session snapshot")
	}
	return nil
}

// PublishViolation fans a violation event out to subscribers of the session's
// channel.
func (s *LiveStore) PublishViolation(ctx context.Context, sessionKey string, event violation.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal violation event")
	}

	channel := "proctoring:violations:" + sessionKey
	if err := s.client.Publish(ctx, channel, data).Err(); err != nil {
		return errors.Wrap(err, "failed to publish violation event")
	}

	return nil
}

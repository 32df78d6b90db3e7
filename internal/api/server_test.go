package api_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/session"
	"github.com/vaishnavucv/droid-proctoring/internal/test"
)

func TestShutdownStopsCaptureDevices(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		user := session.User{UserID: "u1", Username: "alice", CourseID: "c1"}
		require.NoError(t, s.Controller.Begin(context.Background(), user))

		errs := s.Shutdown(context.Background())
		assert.Empty(t, errs)

		assert.Nil(t, s.Acquirer.Screen())
		assert.Nil(t, s.Acquirer.Camera())
	})
}

func TestShutdownWithoutSession(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		assert.Empty(t, s.Shutdown(context.Background()))
		assert.Nil(t, s.Acquirer.Screen())
		assert.Nil(t, s.Acquirer.Camera())
	})
}

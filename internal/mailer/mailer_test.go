package mailer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaishnavucv/droid-proctoring/internal/session"
	"github.com/vaishnavucv/droid-proctoring/internal/test"
)

func TestNotifyFailureSendsTicket(t *testing.T) {
	m := test.NewTestMailer(t)
	m.Config.SupportAddress = "support@example.com"

	user := session.User{UserID: "u1", Username: "alice", CourseID: "c1"}
	require.NoError(t, m.NotifyFailure(context.Background(), user, 5))

	mail := test.GetLastSentMail(t, m)
	require.NotNil(t, mail)
	assert.Equal(t, test.TestMailerDefaultSender, mail.From)
	assert.Equal(t, []string{"support@example.com"}, mail.To)
	assert.Contains(t, mail.Subject, "alice")
	assert.Contains(t, string(mail.Text), "5 proctoring warnings")
}

func TestNotifyFailureDisabledIsSilent(t *testing.T) {
	m := test.NewTestMailer(t)
	m.Config.Enabled = false

	user := session.User{UserID: "u1", Username: "alice", CourseID: "c1"}
	require.NoError(t, m.NotifyFailure(context.Background(), user, 5))
	assert.Empty(t, test.GetSentMails(t, m))
}

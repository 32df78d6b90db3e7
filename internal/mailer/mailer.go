package mailer

import (
	"context"
	"fmt"

	"github.com/jordan-wright/email"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vaishnavucv/droid-proctoring/internal/config"
	"github.com/vaishnavucv/droid-proctoring/internal/mailer/transport"
	"github.com/vaishnavucv/droid-proctoring/internal/session"
)

// Mailer sends operational mail over a pluggable transport so tests can
// capture instead of deliver.
type Mailer struct {
	Config    config.Mailer
	Transport transport.MailTransporter
}

func New(config config.Mailer, transport transport.MailTransporter) *Mailer {
	return &Mailer{
		Config:    config,
		Transport: transport,
	}
}

// NotifyFailure raises a support ticket for an attempt terminated by the
// warning cap.
func (m *Mailer) NotifyFailure(_ context.Context, user session.User, warningCount int) error {
	if !m.Config.Enabled {
		log.Debug().Str("user_id", user.UserID).Msg("Mailer disabled, skipping failure notification")
		return nil
	}

	mail := email.NewEmail()
	mail.From = m.Config.DefaultSender
	mail.To = []string{m.Config.SupportAddress}
	mail.Subject = fmt.Sprintf("Proctoring failure: %s (course %s)", user.Username, user.CourseID)
	mail.Text = []byte(fmt.Sprintf(
		"The assessment attempt of %s (user %s, course %s) was terminated after %d proctoring warnings.\n\n"+
			"The violation log and session recordings are available under the candidate's latest session folder.\n",
		user.Username, user.UserID, user.CourseID, warningCount,
	))

	if err := m.Transport.Send(mail); err != nil {
		return errors.Wrap(err, "failed to send failure notification")
	}
	return nil
}

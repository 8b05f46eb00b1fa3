package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

type resendAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender sends through the Resend API.
type ResendSender struct {
	emails resendAPI
	from   string
	log    zerolog.Logger
}

func NewResendSender(apiKey, from string, logger zerolog.Logger) *ResendSender {
	return newResendSender(resend.NewClient(apiKey).Emails, from, logger)
}

func newResendSender(emails resendAPI, from string, logger zerolog.Logger) *ResendSender {
	return &ResendSender{
		emails: emails,
		from:   from,
		log:    logger.With().Str("module", "email").Str("component", "resend").Logger(),
	}
}

func (s *ResendSender) Name() string { return "resend" }

func (s *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	msg, err := prepare(msg)
	if err != nil {
		return "", err
	}
	sent, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Markdown,
	})
	if err != nil {
		s.log.Error().Err(err).Strs("to", msg.To).Str("subject", msg.Subject).Msg("resend send failed")
		return "", fmt.Errorf("resend send: %w", err)
	}
	s.log.Info().Str("message_id", sent.Id).Strs("to", msg.To).Msg("resend sent")
	return sent.Id, nil
}

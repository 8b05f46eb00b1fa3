// Package email delivers notification messages through SES, Resend or the
// log. Bodies are authored in markdown and rendered to HTML before sending.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/fusaf/fusaf-service/internal/config"
)

var ErrNoRecipients = errors.New("email: no recipients")

// Message is one outgoing email. HTML is derived from Markdown when empty.
type Message struct {
	To       []string
	Subject  string
	Markdown string
	HTML     string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) (messageID string, err error)
	Name() string
}

// Raw HTML in markdown input is escaped.
var md = goldmark.New(goldmark.WithRendererOptions(gmhtml.WithHardWraps()))

// Render converts markdown to HTML.
func Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func prepare(msg Message) (Message, error) {
	if len(msg.To) == 0 {
		return msg, ErrNoRecipients
	}
	if msg.HTML == "" && msg.Markdown != "" {
		html, err := Render(msg.Markdown)
		if err != nil {
			return msg, err
		}
		msg.HTML = html
	}
	return msg, nil
}

// NewSender picks the configured provider.
func NewSender(ctx context.Context, cfg config.Email, logger zerolog.Logger) (Sender, error) {
	switch cfg.Provider {
	case config.EmailSES:
		return NewSESSender(ctx, cfg.SESRegion, cfg.From, logger)
	case config.EmailResend:
		return NewResendSender(cfg.ResendAPIKey, cfg.From, logger), nil
	case config.EmailLog, "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{log: logger.With().Str("module", "email").Str("component", "log").Logger()}
}

func (s *LogSender) Name() string { return config.EmailLog }

func (s *LogSender) Send(_ context.Context, msg Message) (string, error) {
	msg, err := prepare(msg)
	if err != nil {
		return "", err
	}
	s.log.Info().Strs("to", msg.To).Str("subject", msg.Subject).Int("html_bytes", len(msg.HTML)).Msg("email suppressed")
	return "", nil
}

package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fusaf/fusaf-service/internal/email"
	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/repository"
)

type notificationService struct {
	notifications repository.NotificationRepository
	athletes      AthleteStore
	sender        email.Sender
	adminAddress  string
	log           zerolog.Logger
}

func NewNotificationService(notifications repository.NotificationRepository, athletes AthleteStore, sender email.Sender, adminAddress string, logger zerolog.Logger) NotificationService {
	l := logger.With().Str("module", "service").Str("component", "notification").Logger()
	return &notificationService{notifications: notifications, athletes: athletes, sender: sender, adminAddress: adminAddress, log: l}
}

// recipients resolves an audience to a sorted, de-duplicated address list.
func (s *notificationService) recipients(in NotificationInput) ([]string, []FieldError) {
	var out []string
	switch in.Audience {
	case AudienceAthletes:
		for _, a := range s.athletes.GetAll() {
			if a.Status == model.AthleteStatusActive && a.Email != "" {
				out = append(out, a.Email)
			}
		}
	case AudienceAdmin:
		if s.adminAddress == "" {
			return nil, []FieldError{{Field: "audience", Message: "admin address is not configured"}}
		}
		out = []string{s.adminAddress}
	case AudienceCustom:
		var ferrs []FieldError
		for i, r := range in.Recipients {
			r = strings.TrimSpace(r)
			if !isEmail(r) {
				ferrs = append(ferrs, FieldError{Field: fmt.Sprintf("recipients[%d]", i), Message: "must be a valid email"})
				continue
			}
			out = append(out, r)
		}
		if len(ferrs) > 0 {
			return nil, ferrs
		}
	default:
		return nil, []FieldError{{Field: "audience", Message: "must be one of athletes, admin, custom"}}
	}
	for i := range out {
		out[i] = strings.ToLower(out[i])
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil, []FieldError{{Field: "recipients", Message: "audience has no recipients"}}
	}
	return out, nil
}

// Send delivers one email per recipient so addresses are not disclosed to
// each other, then stores the broadcast with its delivery counts.
func (s *notificationService) Send(ctx context.Context, in NotificationInput) (model.Notification, error) {
	start := time.Now()
	in.Subject = strings.TrimSpace(in.Subject)

	var ferrs []FieldError
	if in.Subject == "" {
		ferrs = append(ferrs, FieldError{Field: "subject", Message: "must not be empty"})
	}
	if strings.TrimSpace(in.Body) == "" {
		ferrs = append(ferrs, FieldError{Field: "body", Message: "must not be empty"})
	}
	to, rerrs := s.recipients(in)
	ferrs = append(ferrs, rerrs...)
	if err := newInvalidInput(ferrs); err != nil {
		return model.Notification{}, err
	}

	html, err := email.Render(in.Body)
	if err != nil {
		return model.Notification{}, err
	}
	n := model.Notification{Subject: in.Subject, Body: in.Body, Audience: in.Audience, Recipients: to}
	for _, addr := range to {
		if ctx.Err() != nil {
			return model.Notification{}, ctx.Err()
		}
		_, err := s.sender.Send(ctx, email.Message{To: []string{addr}, Subject: in.Subject, Markdown: in.Body, HTML: html})
		if err != nil {
			n.Failed++
			s.log.Warn().Err(err).Str("to", addr).Msg("notification delivery failed")
			continue
		}
		n.Delivered++
	}

	out, err := s.notifications.Create(ctx, n)
	if err != nil {
		s.log.Error().Err(err).Msg("store notification failed")
		return model.Notification{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("notification_id", out.ID).Int("delivered", out.Delivered).Int("failed", out.Failed).Str("sender", s.sender.Name()).Msg("notification sent")
	return out, nil
}

func (s *notificationService) List(ctx context.Context, page repository.Page) (repository.PageResult[model.Notification], error) {
	return s.notifications.List(ctx, normalizePage(page))
}

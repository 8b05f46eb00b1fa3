package service_test

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusaf/fusaf-service/internal/athlete"
	"github.com/fusaf/fusaf-service/internal/repository"
	"github.com/fusaf/fusaf-service/internal/repository/memory"
	"github.com/fusaf/fusaf-service/internal/service"
)

func newNotificationService(t *testing.T, sender *recordingSender) (service.NotificationService, *memory.Store) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db := memory.New()
	athletes := athlete.NewStore(logger)
	athlete.Seed(athletes)
	return service.NewNotificationService(db.Notifications(), athletes, sender, "admin@fusaf.org.ua", logger), db
}

func TestNotificationService_SendToAthletes(t *testing.T) {
	sender := &recordingSender{fail: map[string]bool{"andrii.shevchuk@example.com": true}}
	svc, _ := newNotificationService(t, sender)

	n, err := svc.Send(context.Background(), service.NotificationInput{
		Subject: "Зміни в календарі", Body: "Кубок **перенесено** на травень.", Audience: service.AudienceAthletes,
	})
	require.NoError(t, err)
	// the inactive demo athlete is skipped
	assert.Equal(t, []string{"andrii.shevchuk@example.com", "olena.kovalenko@example.com"}, n.Recipients)
	assert.Equal(t, 1, n.Delivered)
	assert.Equal(t, 1, n.Failed)
	require.Len(t, sender.msgs, 1)
	assert.Contains(t, sender.msgs[0].HTML, "<strong>перенесено</strong>")

	page, err := svc.List(context.Background(), repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestNotificationService_CustomDeduplicates(t *testing.T) {
	sender := &recordingSender{}
	svc, _ := newNotificationService(t, sender)

	n, err := svc.Send(context.Background(), service.NotificationInput{
		Subject: "s", Body: "b", Audience: service.AudienceCustom,
		Recipients: []string{"Coach@Club.ua", "coach@club.ua", " judge@fusaf.org.ua "},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"coach@club.ua", "judge@fusaf.org.ua"}, n.Recipients)
	assert.Equal(t, 2, n.Delivered)
}

func TestNotificationService_Validation(t *testing.T) {
	svc, _ := newNotificationService(t, &recordingSender{})
	_, err := svc.Send(context.Background(), service.NotificationInput{Audience: "everyone"})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.True(t, hasField(err, "subject"))
	assert.True(t, hasField(err, "body"))
	assert.True(t, hasField(err, "audience"))

	_, err = svc.Send(context.Background(), service.NotificationInput{
		Subject: "s", Body: "b", Audience: service.AudienceCustom, Recipients: []string{"bad"},
	})
	assert.True(t, hasField(err, "recipients[0]"))

	_, err = svc.Send(context.Background(), service.NotificationInput{Subject: "s", Body: "b", Audience: service.AudienceCustom})
	assert.True(t, hasField(err, "recipients"))
}

func TestNotificationService_Admin(t *testing.T) {
	sender := &recordingSender{}
	svc, _ := newNotificationService(t, sender)
	n, err := svc.Send(context.Background(), service.NotificationInput{Subject: "s", Body: "b", Audience: service.AudienceAdmin})
	require.NoError(t, err)
	assert.Equal(t, []string{"admin@fusaf.org.ua"}, n.Recipients)
}

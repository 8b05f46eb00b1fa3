package email

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusaf/fusaf-service/internal/config"
)

type fakeSES struct {
	in  *sesv2.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

type fakeResend struct {
	req *resend.SendEmailRequest
	err error
}

func (f *fakeResend) SendWithContext(_ context.Context, req *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "rs-1"}, nil
}

func TestRender(t *testing.T) {
	html, err := Render("# Кубок\n\n**оплачено**")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Кубок</h1>")
	assert.Contains(t, html, "<strong>оплачено</strong>")

	html, err = Render("<script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestSESSender(t *testing.T) {
	api := &fakeSES{}
	s := newSESSender(api, "noreply@fusaf.org.ua", zerolog.Nop())

	id, err := s.Send(context.Background(), Message{To: []string{"a@b.ua"}, Subject: "Привіт", Markdown: "текст"})
	require.NoError(t, err)
	assert.Equal(t, "ses-1", id)
	assert.Equal(t, []string{"a@b.ua"}, api.in.Destination.ToAddresses)
	assert.Equal(t, "Привіт", aws.ToString(api.in.Content.Simple.Subject.Data))
	assert.Contains(t, aws.ToString(api.in.Content.Simple.Body.Html.Data), "<p>текст</p>")
	assert.Equal(t, "текст", aws.ToString(api.in.Content.Simple.Body.Text.Data))

	api.err = errors.New("throttled")
	_, err = s.Send(context.Background(), Message{To: []string{"a@b.ua"}, Subject: "x"})
	assert.Error(t, err)
}

func TestResendSender(t *testing.T) {
	api := &fakeResend{}
	s := newResendSender(api, "noreply@fusaf.org.ua", zerolog.Nop())

	id, err := s.Send(context.Background(), Message{To: []string{"c@d.ua"}, Subject: "s", HTML: "<p>ready</p>"})
	require.NoError(t, err)
	assert.Equal(t, "rs-1", id)
	assert.Equal(t, "<p>ready</p>", api.req.Html)
	assert.Equal(t, "noreply@fusaf.org.ua", api.req.From)
}

func TestSend_NoRecipients(t *testing.T) {
	for _, s := range []Sender{
		NewLogSender(zerolog.Nop()),
		newSESSender(&fakeSES{}, "x@y.z", zerolog.Nop()),
		newResendSender(&fakeResend{}, "x@y.z", zerolog.Nop()),
	} {
		_, err := s.Send(context.Background(), Message{Subject: "s"})
		assert.ErrorIs(t, err, ErrNoRecipients, s.Name())
	}
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(context.Background(), config.Email{Provider: config.EmailLog}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, config.EmailLog, s.Name())

	s, err = NewSender(context.Background(), config.Email{Provider: config.EmailResend, ResendAPIKey: "re_x", From: "a@b.c"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "resend", s.Name())

	_, err = NewSender(context.Background(), config.Email{Provider: "pigeon"}, zerolog.Nop())
	assert.Error(t, err)
}

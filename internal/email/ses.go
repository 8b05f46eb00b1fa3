package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"
)

// sesAPI is the subset of the SES v2 client we use.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, opts ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends through Amazon SES v2.
type SESSender struct {
	client sesAPI
	from   string
	log    zerolog.Logger
}

// NewSESSender loads the default AWS credential chain for region.
func NewSESSender(ctx context.Context, region, from string, logger zerolog.Logger) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newSESSender(sesv2.NewFromConfig(cfg), from, logger), nil
}

func newSESSender(client sesAPI, from string, logger zerolog.Logger) *SESSender {
	return &SESSender{
		client: client,
		from:   from,
		log:    logger.With().Str("module", "email").Str("component", "ses").Logger(),
	}
}

func (s *SESSender) Name() string { return "ses" }

func utf8(v string) *types.Content {
	return &types.Content{Data: aws.String(v), Charset: aws.String("UTF-8")}
}

func (s *SESSender) Send(ctx context.Context, msg Message) (string, error) {
	msg, err := prepare(msg)
	if err != nil {
		return "", err
	}
	body := &types.Body{Html: utf8(msg.HTML)}
	if msg.Markdown != "" {
		body.Text = utf8(msg.Markdown)
	}
	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: msg.To},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: utf8(msg.Subject), Body: body},
		},
	})
	if err != nil {
		s.log.Error().Err(err).Strs("to", msg.To).Str("subject", msg.Subject).Msg("ses send failed")
		return "", fmt.Errorf("ses send: %w", err)
	}
	id := aws.ToString(out.MessageId)
	s.log.Info().Str("message_id", id).Strs("to", msg.To).Msg("ses sent")
	return id, nil
}

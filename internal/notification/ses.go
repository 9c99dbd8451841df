package notification

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/rs/zerolog"

	"github.com/sharath018/campus-events-backend/config"
)

// sesAPI is the slice of the SES client the channel uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESChannel delivers email through Amazon SES.
type SESChannel struct {
	client      sesAPI
	fromAddress string
	fromName    string
	log         zerolog.Logger
}

func NewSESChannel(cfg *config.Config, log zerolog.Logger) *SESChannel {
	awsCfg := aws.Config{
		Region: cfg.AWSRegion,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		),
	}
	return &SESChannel{
		client:      ses.NewFromConfig(awsCfg),
		fromAddress: cfg.SMTPFromEmail,
		fromName:    cfg.SMTPFromName,
		log:         log.With().Str("channel", "ses").Logger(),
	}
}

func (s *SESChannel) Send(ctx context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	html, err := renderEmail(subject, body)
	if err != nil {
		return err
	}

	source := s.fromAddress
	if s.fromName != "" {
		source = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}
	input := &ses.SendEmailInput{
		Source:      aws.String(source),
		Destination: &types.Destination{ToAddresses: to},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	}
	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	s.log.Debug().Str("message_id", aws.ToString(out.MessageId)).Msg("📧 email sent via SES")
	return nil
}

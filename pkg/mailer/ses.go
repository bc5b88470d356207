package mailer

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/cekilis/secret-santa-api/pkg/config"
	appErrors "github.com/cekilis/secret-santa-api/pkg/errors"
)

// SESSender delivers mail through Amazon SES.
type SESSender struct {
	client *sesv2.Client
	from   string
}

// NewSES builds an SES-backed sender using the default AWS credential chain.
func NewSES(ctx context.Context, cfg config.MailConfig) (*SESSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}

	return &SESSender{
		client: sesv2.NewFromConfig(awsCfg),
		from:   cfg.FromEmail,
	}, nil
}

// Send delivers one HTML email to a single recipient.
func (s *SESSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "ses send failed")
	}
	return nil
}

// Package ses sends email through Amazon SES v2.
package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/willemschots/mailinglist/internal/email"
	"github.com/willemschots/mailinglist/internal/krypto"
)

const charset = "UTF-8"

// Settings contains the settings for the SES API.
// When no access key is provided the default AWS credential chain is used.
type Settings struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey krypto.Secret
}

// Client is the part of the SES v2 client that is used by the Sender.
type Client interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// NewClient creates an SES v2 client from the settings.
func NewClient(ctx context.Context, s Settings) (*sesv2.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s.Region),
	}

	if s.AccessKeyID != "" {
		provider := credentials.NewStaticCredentialsProvider(s.AccessKeyID, string(s.SecretAccessKey.SecretValue()), "")
		opts = append(opts, awsconfig.WithCredentialsProvider(provider))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return sesv2.NewFromConfig(cfg), nil
}

// Sender is an email sender that sends emails using SES.
type Sender struct {
	client Client
}

func NewSender(client Client) *Sender {
	return &Sender{
		client: client,
	}
}

// Send sends a single email through SES.
func (s *Sender) Send(ctx context.Context, msg email.Message) error {
	body := &types.Body{}
	if msg.TextBody != "" {
		body.Text = &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String(charset)}
	}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String(charset)}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(string(msg.From)),
		Destination:      &types.Destination{ToAddresses: []string{string(msg.To)}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charset)},
				Body:    body,
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via ses: %w", err)
	}

	return nil
}

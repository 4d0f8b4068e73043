package notifications

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/surigaorunners/racereg/internal/verification"
)

// sesAPI is the slice of the SES client we use, kept small so tests
// can fake it.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	FromAddress     string
	FromName        string
}

// SESNotifier sends runner emails through AWS SES.
type SESNotifier struct {
	client      sesAPI
	fromAddress string
	fromName    string
}

func NewSESNotifier(cfg SESConfig) *SESNotifier {
	awsCfg := aws.Config{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	}

	return &SESNotifier{
		client:      ses.NewFromConfig(awsCfg),
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
	}
}

func (n *SESNotifier) SendRegistrationReceived(ctx context.Context, in RegistrationReceivedInput) error {
	subject := "Registration Received"

	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"Thanks for registering for:\n\n"+
			"Event: %s\n"+
			"Distance: %s KM\n"+
			"Date: %s\n\n"+
			"We'll verify your proof of payment shortly.\n"+
			"Once confirmed, you'll get another email.\n\n"+
			"– The Surigao Runners Team",
		in.FirstName, in.EventName, in.DistanceLabel, in.EventDate.Format("January 02, 2006"),
	)

	return n.send(ctx, in.Email, subject, body)
}

func (n *SESNotifier) SendVerificationConfirmed(ctx context.Context, in VerificationConfirmedInput) error {
	note := verification.Notification{
		Email:         in.Email,
		FirstName:     in.FirstName,
		EventName:     in.EventName,
		DistanceLabel: in.DistanceLabel,
		EventDate:     in.EventDate,
	}

	return n.send(ctx, in.Email, note.Subject(), note.Body())
}

func (n *SESNotifier) send(ctx context.Context, to, subject, text string) error {
	source := n.fromAddress

	if n.fromName != "" {
		source = fmt.Sprintf("%s <%s>", n.fromName, n.fromAddress)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(source),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(text),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	_, err := n.client.SendEmail(ctx, input)

	if err != nil {
		return fmt.Errorf("send email via ses: %w", err)
	}

	return nil
}

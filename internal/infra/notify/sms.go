package notify

import (
	"context"

	appconfig "fleetbook/internal/pkg/config"
	"fleetbook/internal/pkg/errs"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SMSSender publishes directly to a phone number through SNS.
type SMSSender struct {
	client *sns.Client
}

func NewSMSSender(ctx context.Context, cfg appconfig.SNSConfig) (*SMSSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, errs.Wrap(err, "failed to load aws config")
	}
	return &SMSSender{client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *SMSSender) Send(ctx context.Context, phone, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(message),
	})
	if err != nil {
		return errs.Wrap(err, "sns publish failed")
	}
	return nil
}

package notification

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/sirupsen/logrus"
)

type snsAPI interface {
	CreatePlatformEndpoint(ctx context.Context, params *awssns.CreatePlatformEndpointInput, optFns ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, params *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

// SNSSender publishes to a device endpoint registered under one SNS
// platform application.
type SNSSender struct {
	client      snsAPI
	platformARN string
}

func NewSNSSender(ctx context.Context, cfg config.PushConfig) (*SNSSender, error) {
	if cfg.PlatformApplicationARN == "" {
		return nil, errors.New("SNS platform application ARN is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}
	return newSNSSender(awssns.NewFromConfig(awsCfg), cfg.PlatformApplicationARN), nil
}

func newSNSSender(client snsAPI, platformARN string) *SNSSender {
	return &SNSSender{client: client, platformARN: platformARN}
}

func (s *SNSSender) Send(ctx context.Context, pushToken string, msg Message) error {
	endpoint, err := s.client.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(s.platformARN),
		Token:                  aws.String(pushToken),
	})
	if err != nil {
		return err
	}

	payload, err := snsPayload(msg)
	if err != nil {
		return err
	}

	_, err = s.client.Publish(ctx, &awssns.PublishInput{
		MessageStructure: aws.String("json"),
		Message:          aws.String(payload),
		TargetArn:        endpoint.EndpointArn,
	})
	return err
}

func snsPayload(msg Message) (string, error) {
	gcm, err := json.Marshal(map[string]any{
		"notification": map[string]string{
			"title": msg.Title,
			"body":  msg.Body,
		},
		"data": msg.Data,
	})
	if err != nil {
		return "", err
	}
	apns, err := json.Marshal(map[string]any{
		"aps": map[string]any{
			"alert": map[string]string{
				"title": msg.Title,
				"body":  msg.Body,
			},
		},
		"data": msg.Data,
	})
	if err != nil {
		return "", err
	}

	raw, err := json.Marshal(map[string]string{
		"default": msg.Body,
		"GCM":     string(gcm),
		"APNS":    string(apns),
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// LogSender only logs; used when no push provider is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, pushToken string, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"push_token": pushToken,
		"title":      msg.Title,
		"data":       msg.Data,
	}).Info("Push notification (log only)")
	return nil
}

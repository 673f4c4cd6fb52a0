// Package storage archives uploaded ID-card images in S3-compatible storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type ImageArchive struct {
	client putObjectAPI
	bucket string
	prefix string
}

func NewImageArchive(ctx context.Context, cfg config.StorageConfig) (*ImageArchive, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newImageArchive(client, cfg.Bucket, cfg.Prefix), nil
}

func newImageArchive(client putObjectAPI, bucket, prefix string) *ImageArchive {
	return &ImageArchive{client: client, bucket: bucket, prefix: prefix}
}

// Store uploads the image and returns its object key.
func (a *ImageArchive) Store(ctx context.Context, contentType, extension string, data []byte) (string, error) {
	now := time.Now().UTC()
	key := fmt.Sprintf("%s%d/%02d/%02d/%s%s", a.prefix, now.Year(), now.Month(), now.Day(), uuid.New().String(), extension)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

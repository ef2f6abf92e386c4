// Package objectstore wraps an S3-compatible backend (AWS or MinIO) and
// hands out presigned upload URLs so file bytes never flow through this
// service.
package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"apibase/internal/platform/config"
)

const presignTTL = 15 * time.Minute

// Client exposes the object-store operations the API needs.
type Client struct {
	presign *s3.PresignClient
	bucket  string
}

// New builds the S3 client. A custom endpoint switches it to MinIO-style
// path addressing.
func New(ctx context.Context, cfg config.S3Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

// PresignPut returns a storage key and a time-limited URL the client can PUT
// the object to directly.
func (c *Client) PresignPut(ctx context.Context, userID string) (key, url string, err error) {
	now := time.Now()
	key = fmt.Sprintf("users/%s/%d/%02d/%s", userID, now.Year(), now.Month(), uuid.NewString())

	req, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", "", fmt.Errorf("presign put object: %w", err)
	}
	return key, req.URL, nil
}

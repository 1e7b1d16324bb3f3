// Package archive keeps finished workbooks outside the process.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joseph-ayodele/bizscan/constants"
)

// PutObjectAPI is the part of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Config struct {
	Bucket string
	Region string
	Prefix string
}

// S3Uploader writes workbooks to a bucket under a key prefix.
type S3Uploader struct {
	client PutObjectAPI
	cfg    Config
	logger *slog.Logger
}

// NewS3Uploader builds a client from the default AWS credential chain.
func NewS3Uploader(ctx context.Context, cfg Config, logger *slog.Logger) (*S3Uploader, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3UploaderWithClient(s3.NewFromConfig(awsCfg), cfg, logger), nil
}

func NewS3UploaderWithClient(client PutObjectAPI, cfg Config, logger *slog.Logger) *S3Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Uploader{client: client, cfg: cfg, logger: logger}
}

// Upload stores data under prefix/key and returns the object URL.
func (u *S3Uploader) Upload(ctx context.Context, key string, data []byte) (string, error) {
	start := time.Now()
	objectKey := path.Join(u.cfg.Prefix, key)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(constants.XLSXContentType),
	})
	if err != nil {
		u.logger.Error("archive.s3.failed", "bucket", u.cfg.Bucket, "key", objectKey, "error", err)
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, objectKey)
	u.logger.Info("archive.s3.ok",
		"bucket", u.cfg.Bucket,
		"key", objectKey,
		"bytes", len(data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return url, nil
}

// NopUploader drops workbooks. Used when no bucket is configured.
type NopUploader struct{}

func (NopUploader) Upload(context.Context, string, []byte) (string, error) { return "", nil }

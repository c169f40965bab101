package services

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"alfredoptarigan/ats-matcher/internal/config"
)

// ArchiveService copies saved résumés to an S3-compatible bucket (S3, R2, MinIO).
type ArchiveService interface {
	Archive(ctx context.Context, storedFilename, filePath string) error
	Enabled() bool
}

type s3Archive struct {
	client *s3.Client
	bucket string
	log    *zap.Logger
}

func NewArchiveService(ctx context.Context, cfg config.ArchiveConfig, log *zap.Logger) (ArchiveService, error) {
	if cfg.Bucket == "" {
		return noopArchive{}, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Archive{client: client, bucket: cfg.Bucket, log: log}, nil
}

func (a *s3Archive) Enabled() bool { return true }

func (a *s3Archive) Archive(ctx context.Context, storedFilename, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file for archive: %w", err)
	}
	defer f.Close()

	key := ArchiveKey(storedFilename, time.Now())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentTypeFor(storedFilename)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to bucket %s: %w", key, a.bucket, err)
	}

	a.log.Debug("resume archived", zap.String("bucket", a.bucket), zap.String("key", key))
	return nil
}

// ArchiveKey partitions archived résumés by upload day.
func ArchiveKey(storedFilename string, at time.Time) string {
	return path.Join("resumes", at.UTC().Format("2006/01/02"), filepath.Base(storedFilename))
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

type noopArchive struct{}

func (noopArchive) Archive(context.Context, string, string) error { return nil }

func (noopArchive) Enabled() bool { return false }

// Package storage saves meter photos and returns the opaque path stored on
// the reading.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"rent-backend/internal/config"
)

type ImageStore interface {
	Save(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// New picks the backend from uploads.driver.
func New(ctx context.Context, cfg *config.Config) (ImageStore, error) {
	switch cfg.Uploads.Driver {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "", "local":
		return NewLocalStore(cfg.Uploads.LocalDir), nil
	default:
		return nil, fmt.Errorf("unknown uploads driver %q", cfg.Uploads.Driver)
	}
}

// SanitizeName keeps the base name and replaces anything outside [A-Za-z0-9._-].
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "upload"
	}
	return out
}

// LocalStore writes files under a directory on disk.
type LocalStore struct {
	Dir string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{Dir: dir}
}

func (s *LocalStore) Save(_ context.Context, name, _ string, body io.Reader) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name = SanitizeName(name)
	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return "uploads/" + name, nil
}

// S3Store uploads to an S3 compatible bucket (AWS S3 or Cloudflare R2).
type S3Store struct {
	client *s3.Client
	bucket string
}

func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	if cfg.Uploads.Bucket == "" {
		return nil, fmt.Errorf("uploads.bucket is required for the s3 driver")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Uploads.AccessKey,
			cfg.Uploads.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Uploads.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("configure s3 client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Uploads.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Uploads.Endpoint)
		}
	})
	return &S3Store{client: client, bucket: cfg.Uploads.Bucket}, nil
}

func (s *S3Store) Save(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	key := "uploads/" + SanitizeName(name)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

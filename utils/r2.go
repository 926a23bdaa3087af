package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrStorageDisabled is returned by callers that need object storage when
// no bucket is configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// R2Options configures a Cloudflare R2 bucket.
type R2Options struct {
	AccountID       string
	Bucket          string
	PublicURL       string // e.g. https://cdn.example.org
	AccessKeyID     string
	SecretAccessKey string
}

// R2Store uploads public assets (church logos, giving statements) to R2
// through its S3-compatible API.
type R2Store struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

func NewR2Store(ctx context.Context, opts R2Options) (*R2Store, error) {
	if opts.Bucket == "" || opts.AccountID == "" || opts.PublicURL == "" {
		return nil, fmt.Errorf("missing required R2 settings")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", opts.AccountID)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &R2Store{
		client:     client,
		bucket:     opts.Bucket,
		publicBase: strings.TrimRight(opts.PublicURL, "/"),
	}, nil
}

// Upload stores body under key and returns its public URL.
func (s *R2Store) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return PublicObjectURL(s.publicBase, key), nil
}

// Delete removes the object behind a URL previously returned by Upload.
func (s *R2Store) Delete(ctx context.Context, fileURL string) error {
	key, err := ObjectKeyFromURL(s.publicBase, fileURL)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete R2 object: %w", err)
	}
	return nil
}

// PublicObjectURL joins base and an object key, escaping each path segment.
func PublicObjectURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}

// ObjectKeyFromURL recovers the object key from a public URL under base.
func ObjectKeyFromURL(base, fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid file URL: %w", err)
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	key := strings.TrimPrefix(u.Path, path.Clean("/"+b.Path))
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("invalid file URL: %s", fileURL)
	}
	return key, nil
}

// Package storage deletes attachment blobs from S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/taskflow/backend/internal/application/attachment"
	infraconfig "github.com/taskflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var (
	_ attachment.BlobStore = (*S3BlobStore)(nil)
	_ attachment.BlobStore = DisabledStore{}
)

// ErrForeignURL is returned for URLs that do not point into the bucket
var ErrForeignURL = errors.New("url does not reference the attachment bucket")

// objectDeleter is the subset of *s3.Client used here
type objectDeleter interface {
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3BlobStore removes objects addressed by their public URL. The object key
// is everything after "/<bucket>/" in the URL path.
type S3BlobStore struct {
	client objectDeleter
	bucket string
	logger *zap.Logger
}

// S3BlobStoreOption is a functional option for configuring S3BlobStore
type S3BlobStoreOption func(*S3BlobStore)

// WithLogger sets a custom logger for S3BlobStore
func WithLogger(logger *zap.Logger) S3BlobStoreOption {
	return func(s *S3BlobStore) {
		s.logger = logger
	}
}

// NewS3BlobStore creates a blob store from configuration. Static credentials
// are used when both keys are set; otherwise the default AWS chain applies.
func NewS3BlobStore(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...S3BlobStoreOption) (*S3BlobStore, error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3BlobStore(client, cfg.Bucket, opts...), nil
}

func newS3BlobStore(client objectDeleter, bucket string, opts ...S3BlobStoreOption) *S3BlobStore {
	s := &S3BlobStore{client: client, bucket: bucket, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DeleteByURL deletes the object behind a public URL. Deleting a missing
// object succeeds, matching S3 semantics.
func (s *S3BlobStore) DeleteByURL(ctx context.Context, rawURL string) error {
	key, err := KeyFromURL(rawURL, s.bucket)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	s.logger.Debug("Deleted attachment blob", zap.String("key", key))
	return nil
}

// KeyFromURL extracts the percent-decoded object key following "/<bucket>/"
func KeyFromURL(rawURL, bucket string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid attachment url: %w", err)
	}
	marker := "/" + bucket + "/"
	// EscapedPath keeps %2F inside a key distinguishable from a separator
	_, rest, found := strings.Cut(u.EscapedPath(), marker)
	if !found || rest == "" {
		return "", ErrForeignURL
	}
	key, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("invalid attachment key: %w", err)
	}
	return key, nil
}

// DisabledStore is used when no bucket is configured; deletions are logged and skipped
type DisabledStore struct {
	Logger *zap.Logger
}

func (d DisabledStore) DeleteByURL(_ context.Context, rawURL string) error {
	if d.Logger != nil {
		d.Logger.Debug("Blob storage disabled, skipping delete", zap.String("url", rawURL))
	}
	return nil
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// maxURLExpiry is the longest lifetime S3 accepts for a presigned URL.
const maxURLExpiry = 7 * 24 * time.Hour

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	publicBaseURL   string
	region          string
	urlExpiry       time.Duration
	useSSL          bool
}

func newMinioConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{bucket: "videos", region: "us-east-1", urlExpiry: maxURLExpiry}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// MinioStore keeps assets in an S3-compatible bucket.
type MinioStore struct {
	cfg    *minioConfig
	client *minio.Client
}

func NewMinioStore(opts ...MinioOpts) (*MinioStore, error) {
	cfg := newMinioConfig(opts...)
	if strings.TrimSpace(cfg.endpoint) == "" {
		return nil, errors.New("storage: minio endpoint is required")
	}
	client, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
		Region: cfg.region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: minio client: %w", err)
	}
	return &MinioStore{cfg: cfg, client: client}, nil
}

// EnsureBucket creates the configured bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.bucket)
	if err != nil {
		return fmt.Errorf("storage: check bucket %s: %w", s.cfg.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("storage: create bucket %s: %w", s.cfg.bucket, err)
	}
	return nil
}

// Put uploads data at key, replacing any existing object.
func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = s.client.PutObject(ctx, s.cfg.bucket, cleanKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("storage: put %s: %w", cleanKey, err)
	}
	return cleanKey, nil
}

func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	object, err := s.client.GetObject(ctx, s.cfg.bucket, cleanKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(cleanKey, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, s.mapError(cleanKey, err)
	}
	return data, nil
}

// PublicURL returns the object URL. Without a public base URL the bucket
// stays private and the URL is a presigned GET valid for the configured
// expiry.
func (s *MinioStore) PublicURL(key string) string {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return ""
	}
	if s.cfg.publicBaseURL != "" {
		return joinURL(s.cfg.publicBaseURL, cleanKey)
	}
	// A fixed region keeps presigning local; no bucket location lookup.
	signed, err := s.client.PresignedGetObject(context.Background(), s.cfg.bucket, cleanKey, s.cfg.urlExpiry, nil)
	if err != nil {
		return ""
	}
	return signed.String()
}

func (s *MinioStore) mapError(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return fmt.Errorf("storage: get %s: %w", key, err)
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		if bucket != "" {
			c.bucket = bucket
		}
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}

func WithPublicBaseURL(baseURL string) MinioOpts {
	return func(c *minioConfig) {
		c.publicBaseURL = strings.TrimSpace(baseURL)
	}
}

func WithRegion(region string) MinioOpts {
	return func(c *minioConfig) {
		if region != "" {
			c.region = region
		}
	}
}

// WithURLExpiry sets how long presigned URLs stay valid, capped at the S3
// limit of seven days.
func WithURLExpiry(d time.Duration) MinioOpts {
	return func(c *minioConfig) {
		switch {
		case d <= 0:
		case d > maxURLExpiry:
			c.urlExpiry = maxURLExpiry
		default:
			c.urlExpiry = d
		}
	}
}

var _ ObjectStore = (*MinioStore)(nil)

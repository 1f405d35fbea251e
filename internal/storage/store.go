package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"contentstudio/internal/infra"
)

// ErrNotFound is returned by Get when no object exists at the key.
var ErrNotFound = errors.New("storage: object not found")

// URLResolver maps a storage key to the URL clients download it from.
type URLResolver interface {
	PublicURL(key string) string
}

// ObjectStore is the asset storage used by the pipeline. Put overwrites any
// existing object at the same key.
type ObjectStore interface {
	URLResolver
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// New builds the store selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *infra.Config) (ObjectStore, error) {
	switch cfg.StorageDriver {
	case "", "fs":
		return NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	case "minio":
		store, err := NewMinioStore(
			WithEndpoint(cfg.S3Endpoint),
			WithBucket(cfg.S3Bucket),
			WithAccessKey(cfg.S3AccessKey),
			WithSecretKey(cfg.S3SecretKey),
			WithSSL(cfg.S3UseSSL),
			WithPublicBaseURL(cfg.S3PublicBaseURL),
			WithRegion(cfg.S3Region),
			WithURLExpiry(cfg.S3URLExpiry),
		)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.StorageDriver)
	}
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

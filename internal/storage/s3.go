package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/andresuchdata/reorder-forecast/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// S3Client implements ObjectStorage for any S3-compatible service.
type S3Client struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Client builds an S3Client from storage configuration.
func NewS3Client(cfg config.StorageConfig) (*S3Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("storage credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket must be provided")
	}

	host, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       secure,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &S3Client{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// UploadObject stores data under the configured prefix.
func (c *S3Client) UploadObject(ctx context.Context, key string, data []byte, contentType string) (ObjectInfo, error) {
	objectKey := ObjectKey(c.prefix, key)
	info, err := c.client.PutObject(ctx, c.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("storage upload %s failed: %w", objectKey, err)
	}

	log.Info().
		Str("bucket", c.bucket).
		Str("key", objectKey).
		Int64("size", info.Size).
		Msg("storage: uploaded report")

	return ObjectInfo{
		Key:  objectKey,
		Size: info.Size,
		URL:  c.client.EndpointURL().JoinPath(c.bucket, objectKey).String(),
	}, nil
}

// splitEndpoint strips any scheme from endpoint. An explicit scheme wins over useSSL.
func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	endpoint = strings.TrimSpace(endpoint)
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	default:
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "//"), "/"), useSSL
	}
}

var _ ObjectStorage = (*S3Client)(nil)

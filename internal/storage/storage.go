package storage

import (
	"context"
	"path"
	"strings"
)

// ObjectInfo represents metadata for an uploaded report object.
type ObjectInfo struct {
	Key  string
	Size int64
	URL  string
}

// ObjectStorage captures the S3-compatible operations used for report export.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, data []byte, contentType string) (ObjectInfo, error)
}

// ObjectKey joins prefix and key into a bucket key with no leading slash.
func ObjectKey(prefix, key string) string {
	key = strings.TrimLeft(key, "/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}

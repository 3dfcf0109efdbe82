package storage

import (
	"testing"

	"github.com/andresuchdata/reorder-forecast/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "report.csv", ObjectKey("", "/report.csv"))
	assert.Equal(t, "reports/2024/report.csv", ObjectKey("/reports/", "2024/report.csv"))
}

func TestSplitEndpoint(t *testing.T) {
	host, secure := splitEndpoint("https://s3.example.com/", false)
	assert.Equal(t, "s3.example.com", host)
	assert.True(t, secure)

	host, secure = splitEndpoint("http://localhost:9000", true)
	assert.Equal(t, "localhost:9000", host)
	assert.False(t, secure)

	host, secure = splitEndpoint("minio:9000", true)
	assert.Equal(t, "minio:9000", host)
	assert.True(t, secure)
}

func TestNewS3ClientValidation(t *testing.T) {
	_, err := NewS3Client(config.StorageConfig{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewS3Client(config.StorageConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "credentials")

	_, err = NewS3Client(config.StorageConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")

	client, err := NewS3Client(config.StorageConfig{
		Endpoint: "http://localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "reports", Prefix: "forecast",
	})
	require.NoError(t, err)
	assert.Equal(t, "reports", client.bucket)
}

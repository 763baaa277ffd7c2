package backup

import (
	"context"
	"testing"

	"recetario/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreFromConfig(t *testing.T) {
	ctx := context.Background()

	store, err := NewStoreFromConfig(ctx, &config.Config{BackupStore: "memory"})
	require.NoError(t, err)
	assert.Equal(t, "memory", store.Name())

	store, err = NewStoreFromConfig(ctx, &config.Config{BackupStore: "filesystem", BackupDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "filesystem", store.Name())

	store, err = NewStoreFromConfig(ctx, &config.Config{
		BackupStore:       "s3",
		S3Bucket:          "recetario",
		S3Region:          "eu-west-1",
		S3Endpoint:        "http://localhost:9000",
		S3AccessKeyID:     "minio",
		S3SecretAccessKey: "minio-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "s3", store.Name())

	_, err = NewStoreFromConfig(ctx, &config.Config{BackupStore: "ftp"})
	assert.Error(t, err)
}

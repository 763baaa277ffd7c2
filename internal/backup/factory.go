package backup

import (
	"context"
	"fmt"

	"recetario/internal/config"
)

// NewStoreFromConfig creates the Store selected by BACKUP_STORE.
func NewStoreFromConfig(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.BackupStore {
	case "memory":
		return NewMemoryStore(), nil
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	case "", "filesystem":
		return NewFileSystemStore(cfg.BackupDir)
	default:
		return nil, fmt.Errorf("unknown backup store: %s", cfg.BackupStore)
	}
}

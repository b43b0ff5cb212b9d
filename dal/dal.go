package dal

import (
	"context"
	"fmt"

	"mcpadmin/models"
	"mcpadmin/utils/logger"
)

// NewStore builds the KeyValueStore selected by cfg.StorageBackend
func NewStore(ctx context.Context, cfg *models.Config, log logger.Logger) (KeyValueStore, error) {
	switch cfg.StorageBackend {
	case models.StorageBackendMemory:
		log.Debug("Using in-memory client storage")
		return NewMemoryStore(), nil

	case models.StorageBackendFile, "":
		store, err := NewFileStore(cfg.StoragePath, cfg.StorageNamespace, log)
		if err != nil {
			return nil, err
		}
		log.Debugf("Using file client storage at %s", cfg.StoragePath)
		return store, nil

	case models.StorageBackendRedis:
		client, err := NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Debugf("Using redis client storage at %s", cfg.RedisAddr)
		return NewRedisStore(client, cfg.StorageNamespace, cfg.RedisTTL, log), nil

	case models.StorageBackendDynamoDB:
		client, err := NewDynamoDBClient(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return NewDynamoDBStore(client, cfg.DynamoDBTable, cfg.StorageNamespace, log), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

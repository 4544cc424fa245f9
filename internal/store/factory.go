package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	"flashdeck/internal/awsutil"
	"flashdeck/internal/config"
	"flashdeck/internal/deck"
)

// NewStoreFromConfig creates a deck.Store implementation based on the store config type.
func NewStoreFromConfig(ctx context.Context, cfg config.StoreConfig, creds config.AWSConfig, now time.Time) (deck.Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "blob":
		if cfg.BlobPath == "" {
			return nil, fmt.Errorf("blob store requires blob_path to be set")
		}
		s, err := NewBlobStore(cfg.BlobPath, cfg.Seed, now)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite store requires sqlite_path to be set")
		}
		s, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "dynamodb":
		if cfg.DynamoTable == "" {
			return nil, fmt.Errorf("dynamodb store requires dynamo_table to be set")
		}
		awsCfg, err := awsutil.LoadConfig(ctx, creds, cfg.DynamoRegion)
		if err != nil {
			return nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
			}
		})
		return NewDynamoStore(client, cfg.DynamoTable), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis store requires redis_addr to be set")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisStore(client, cfg.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}

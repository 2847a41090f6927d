package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storyspark/internal/config"
	"storyspark/internal/history"
)

func openHistoryBackend(ctx context.Context, cfg config.HistoryConfig, log *zap.Logger) (history.Backend, error) {
	switch cfg.Backend {
	case "", "file":
		be, err := history.NewFileBackend(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		log.Info("history store: file", zap.String("path", cfg.FilePath))
		return be, nil
	case "memory":
		log.Info("history store: in-memory")
		return history.NewMemoryBackend(), nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("HISTORY_PG_DSN is required for the postgres history backend")
		}
		be, err := history.NewPostgresBackend(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres history backend: %w", err)
		}
		log.Info("history store: postgres")
		return be, nil
	case "redis":
		be, err := history.NewRedisBackend(ctx, history.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open redis history backend: %w", err)
		}
		log.Info("history store: redis", zap.String("addr", cfg.RedisAddr))
		return be, nil
	case "s3":
		if !cfg.S3.CanUse() {
			return nil, fmt.Errorf("s3 history backend needs endpoint, access key, secret key and bucket")
		}
		be, err := history.NewS3Backend(history.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.Secure(),
		})
		if err != nil {
			return nil, err
		}
		log.Info("history store: s3", zap.String("bucket", cfg.S3.Bucket), zap.String("endpoint", cfg.S3.Endpoint))
		return be, nil
	}
	return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
}

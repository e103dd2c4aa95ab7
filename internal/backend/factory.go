package backend

import (
	"context"
	"fmt"

	applog "immistat/internal/log"
	"immistat/internal/storage/memory"
	"immistat/internal/storage/mongo"
	"immistat/internal/storage/postgres"
	"immistat/internal/storage/s3"
	"immistat/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		f.logger.Warn("Using memory backend, records will not survive a restart")
		return &BackendResult{Store: memory.NewStore()}, nil
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case S3Backend:
		return f.createS3Backend(ctx, config)
	case MongoBackend:
		return f.createMongoBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	store, err := sqlite.NewStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{Store: store, Cleanup: store.Close, Ping: store.Ping}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := postgres.NewStore(ctx, config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")

	return &BackendResult{Store: store, Cleanup: store.Close, Ping: store.Ping}, nil
}

func (f *DefaultFactory) createS3Backend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := s3.New(ctx, s3.Config{
		Bucket:          config.S3Bucket,
		Region:          config.S3Region,
		Endpoint:        config.S3Endpoint,
		PathStyle:       config.S3PathStyle,
		Prefix:          config.S3Prefix,
		AccessKeyID:     config.S3AccessKeyID,
		SecretAccessKey: config.S3SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 store: %w", err)
	}

	f.logger.Info("Initialized S3 backend",
		"bucket", config.S3Bucket,
		"prefix", config.S3Prefix,
		"endpoint", config.S3Endpoint)

	return &BackendResult{Store: store}, nil
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := mongo.NewStore(ctx, config.MongoURI, config.MongoDBName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
	}

	f.logger.Info("Initialized MongoDB backend", "database", config.MongoDBName)

	return &BackendResult{Store: store, Cleanup: store.Close, Ping: store.Ping}, nil
}

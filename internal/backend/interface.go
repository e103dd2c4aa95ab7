package backend

import (
	"context"

	"immistat/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func(ctx context.Context) error

// BackendResult contains the key-value store and an optional cleanup function
type BackendResult struct {
	Store   storage.KeyValueStore
	Cleanup CleanupFunc
	// Ping is nil for backends without a connection to check.
	Ping func(ctx context.Context) error
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	PostgresDSN string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3PathStyle       bool
	S3Prefix          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	MongoURI    string
	MongoDBName string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	S3Backend       BackendType = "s3"
	MongoBackend    BackendType = "mongo"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, S3Backend, MongoBackend:
		return true
	default:
		return false
	}
}

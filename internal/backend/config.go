package backend

import (
	"fmt"

	"immistat/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		PostgresDSN: appConfig.PostgresDSN,

		S3Bucket:          appConfig.S3Bucket,
		S3Region:          appConfig.S3Region,
		S3Endpoint:        appConfig.S3Endpoint,
		S3PathStyle:       appConfig.S3PathStyle,
		S3Prefix:          appConfig.S3Prefix,
		S3AccessKeyID:     appConfig.S3AccessKeyID,
		S3SecretAccessKey: appConfig.S3SecretAccessKey,

		MongoURI:    appConfig.MongoURI,
		MongoDBName: appConfig.MongoDBName,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresDSN == "" {
			return fmt.Errorf("Postgres DSN is required for postgres backend")
		}
	case S3Backend:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 backend")
		}
	case MongoBackend:
		if c.MongoURI == "" || c.MongoDBName == "" {
			return fmt.Errorf("MongoDB URI and database name are required for mongo backend")
		}
	case MemoryBackend:
		// nothing to check
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend, S3Backend, MongoBackend}
}

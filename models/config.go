package models

import "time"

// Config holds all configuration for the application
type Config struct {
	// Application
	AppName    string `mapstructure:"app_name"`
	AppVersion string `mapstructure:"app_version"`

	// Backend API
	APIURL         string        `mapstructure:"api_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Durable client storage
	StorageBackend   string `mapstructure:"storage_backend"` // file, memory, redis, dynamodb
	StorageNamespace string `mapstructure:"storage_namespace"`
	StoragePath      string `mapstructure:"storage_path"`

	// Redis
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisTTL      time.Duration `mapstructure:"redis_ttl"`

	// AWS
	AWSRegion          string `mapstructure:"aws_region"`
	AWSAccessKeyID     string `mapstructure:"aws_access_key_id"`
	AWSSecretAccessKey string `mapstructure:"aws_secret_access_key"`
	DynamoDBEndpoint   string `mapstructure:"dynamodb_endpoint"`
	DynamoDBTable      string `mapstructure:"dynamodb_table"`

	// Silent token refresh
	RefreshSchedule string `mapstructure:"refresh_schedule"`

	// Local gateway
	GatewayHost     string   `mapstructure:"gateway_host"`
	GatewayPort     string   `mapstructure:"gateway_port"`
	GatewayBasePath string   `mapstructure:"gateway_base_path"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
}

// Storage backends understood by dal.NewStore
const (
	StorageBackendFile     = "file"
	StorageBackendMemory   = "memory"
	StorageBackendRedis    = "redis"
	StorageBackendDynamoDB = "dynamodb"
)

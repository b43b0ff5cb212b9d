package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mcpadmin/models"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load
const EnvPrefix = "MCPADMIN"

// GetConfig reads the configuration from environment variables or config files
func GetConfig() (*models.Config, error) {
	config, err := Load("", nil)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return config, nil
}

// Load initializes and returns the application configuration using Viper.
// configFile, when set, replaces the search paths. flags, when set, are bound
// so command line values win over files and the environment.
func Load(configFile string, flags *pflag.FlagSet) (*models.Config, error) {
	// A missing .env is the common case
	_ = godotenv.Load()

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("mcpadmin")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if dir := defaultConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	flattenNestedConfig(v)

	var config models.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// bindFlags binds only the flags the user actually set, so unset flag
// defaults never shadow file or environment values.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || !f.Changed {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		bindErr = v.BindPFlag(key, f)
	})
	return bindErr
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mcpadmin")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Application defaults
	v.SetDefault("app_name", "mcpadmin")
	v.SetDefault("app_version", "1.0.0")

	// Backend defaults
	v.SetDefault("api_url", "http://localhost:8000")
	v.SetDefault("request_timeout", 30*time.Second)

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	// Storage defaults
	v.SetDefault("storage_backend", models.StorageBackendFile)
	v.SetDefault("storage_namespace", "mcpadmin")
	if dir := defaultConfigDir(); dir != "" {
		v.SetDefault("storage_path", filepath.Join(dir, "state.json"))
	} else {
		v.SetDefault("storage_path", "mcpadmin-state.json")
	}
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_ttl", time.Duration(0))

	// AWS defaults
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("aws_access_key_id", "")
	v.SetDefault("aws_secret_access_key", "")
	v.SetDefault("dynamodb_endpoint", "")
	v.SetDefault("dynamodb_table", "")

	// Worker defaults
	v.SetDefault("refresh_schedule", "@every 4m")

	// Gateway defaults
	v.SetDefault("gateway_host", "127.0.0.1")
	v.SetDefault("gateway_port", "8787")
	v.SetDefault("gateway_base_path", "/api/v1")
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
}

// validate checks if all required configuration is provided
func validate(c *models.Config) error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api_url must be an absolute http(s) URL, got %q", c.APIURL)
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")

	switch c.StorageBackend {
	case models.StorageBackendFile:
		if c.StoragePath == "" {
			return fmt.Errorf("storage_path is required for the file storage backend")
		}
	case models.StorageBackendMemory:
	case models.StorageBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required for the redis storage backend")
		}
	case models.StorageBackendDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("dynamodb_table is required for the dynamodb storage backend")
		}
	default:
		return fmt.Errorf("unknown storage_backend %q", c.StorageBackend)
	}

	if c.StorageNamespace == "" {
		return fmt.Errorf("storage_namespace must not be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}

	return nil
}

// flattenNestedConfig flattens the nested config file sections to flat keys for easier mapping.
// Values are installed as defaults so environment variables and flags keep precedence.
func flattenNestedConfig(v *viper.Viper) {
	nested := map[string]string{
		"app.name":              "app_name",
		"app.version":           "app_version",
		"api.url":               "api_url",
		"api.timeout":           "request_timeout",
		"logging.level":         "log_level",
		"logging.format":        "log_format",
		"storage.backend":       "storage_backend",
		"storage.namespace":     "storage_namespace",
		"storage.path":          "storage_path",
		"redis.addr":            "redis_addr",
		"redis.password":        "redis_password",
		"redis.db":              "redis_db",
		"redis.ttl":             "redis_ttl",
		"aws.region":            "aws_region",
		"aws.access_key_id":     "aws_access_key_id",
		"aws.secret_access_key": "aws_secret_access_key",
		"aws.dynamodb_endpoint": "dynamodb_endpoint",
		"aws.dynamodb_table":    "dynamodb_table",
		"refresh.schedule":      "refresh_schedule",
		"gateway.host":          "gateway_host",
		"gateway.port":          "gateway_port",
		"gateway.base_path":     "gateway_base_path",
	}

	for from, to := range nested {
		if v.InConfig(from) {
			v.SetDefault(to, v.Get(from))
		}
	}

	// CORS section
	if v.InConfig("gateway.cors_origins") {
		v.SetDefault("cors_origins", v.GetStringSlice("gateway.cors_origins"))
	}
}

// PrintPrettyJSON takes any struct or map and returns it as pretty JSON
func PrintPrettyJSON(data interface{}) string {
	prettyJSON, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return ""
	}
	return string(prettyJSON)
}

// GenerateUUID returns a new UUID string
func GenerateUUID() string {
	return uuid.New().String()
}

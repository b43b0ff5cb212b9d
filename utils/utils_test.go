package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mcpadmin/models"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// UtilsTestSuite defines a test suite for utils functions
type UtilsTestSuite struct {
	suite.Suite
	originalEnv map[string]string
}

// SetupTest runs before each test
func (suite *UtilsTestSuite) SetupTest() {
	suite.originalEnv = make(map[string]string)
	envVars := []string{
		"MCPADMIN_API_URL", "MCPADMIN_LOG_LEVEL", "MCPADMIN_LOG_FORMAT",
		"MCPADMIN_STORAGE_BACKEND", "MCPADMIN_STORAGE_PATH", "MCPADMIN_STORAGE_NAMESPACE",
		"MCPADMIN_REDIS_ADDR", "MCPADMIN_DYNAMODB_TABLE", "MCPADMIN_REQUEST_TIMEOUT",
		"MCPADMIN_REFRESH_SCHEDULE", "MCPADMIN_GATEWAY_PORT",
	}

	for _, envVar := range envVars {
		suite.originalEnv[envVar] = os.Getenv(envVar)
		os.Unsetenv(envVar)
	}
}

// TearDownTest runs after each test
func (suite *UtilsTestSuite) TearDownTest() {
	for envVar, value := range suite.originalEnv {
		if value != "" {
			os.Setenv(envVar, value)
		} else {
			os.Unsetenv(envVar)
		}
	}
}

func (suite *UtilsTestSuite) writeConfig(name, body string) string {
	path := filepath.Join(suite.T().TempDir(), name)
	require.NoError(suite.T(), os.WriteFile(path, []byte(body), 0o600))
	return path
}

// TestGetConfig tests the defaults
func (suite *UtilsTestSuite) TestGetConfig() {
	config, err := GetConfig()
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "mcpadmin", config.AppName)
	assert.Equal(suite.T(), "http://localhost:8000", config.APIURL)
	assert.Equal(suite.T(), 30*time.Second, config.RequestTimeout)
	assert.Equal(suite.T(), "info", config.LogLevel)
	assert.Equal(suite.T(), models.StorageBackendFile, config.StorageBackend)
	assert.Equal(suite.T(), "mcpadmin", config.StorageNamespace)
	assert.NotEmpty(suite.T(), config.StoragePath)
	assert.Equal(suite.T(), "@every 4m", config.RefreshSchedule)
	assert.Equal(suite.T(), "127.0.0.1", config.GatewayHost)
	assert.Equal(suite.T(), "/api/v1", config.GatewayBasePath)
}

// TestLoadWithEnvironmentVariables tests environment overrides
func (suite *UtilsTestSuite) TestLoadWithEnvironmentVariables() {
	os.Setenv("MCPADMIN_API_URL", "https://api.example.com/")
	os.Setenv("MCPADMIN_LOG_LEVEL", "debug")
	os.Setenv("MCPADMIN_STORAGE_BACKEND", "memory")
	os.Setenv("MCPADMIN_REQUEST_TIMEOUT", "5s")

	config, err := Load("", nil)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "https://api.example.com", config.APIURL)
	assert.Equal(suite.T(), "debug", config.LogLevel)
	assert.Equal(suite.T(), models.StorageBackendMemory, config.StorageBackend)
	assert.Equal(suite.T(), 5*time.Second, config.RequestTimeout)
}

// TestLoadNestedConfigFile tests nested sections are flattened
func (suite *UtilsTestSuite) TestLoadNestedConfigFile() {
	path := suite.writeConfig("mcpadmin.json", `{
		"api": {"url": "https://backend.internal", "timeout": "10s"},
		"logging": {"level": "warn", "format": "json"},
		"storage": {"backend": "redis", "namespace": "team-a"},
		"redis": {"addr": "localhost:6379", "db": 2},
		"gateway": {"port": "9999", "cors_origins": ["http://ui.local"]}
	}`)

	config, err := Load(path, nil)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "https://backend.internal", config.APIURL)
	assert.Equal(suite.T(), 10*time.Second, config.RequestTimeout)
	assert.Equal(suite.T(), "warn", config.LogLevel)
	assert.Equal(suite.T(), "json", config.LogFormat)
	assert.Equal(suite.T(), models.StorageBackendRedis, config.StorageBackend)
	assert.Equal(suite.T(), "team-a", config.StorageNamespace)
	assert.Equal(suite.T(), "localhost:6379", config.RedisAddr)
	assert.Equal(suite.T(), 2, config.RedisDB)
	assert.Equal(suite.T(), "9999", config.GatewayPort)
	assert.Equal(suite.T(), []string{"http://ui.local"}, config.CORSOrigins)
}

// TestLoadMissingExplicitFile tests an explicit but missing config file
func (suite *UtilsTestSuite) TestLoadMissingExplicitFile() {
	config, err := Load(filepath.Join(suite.T().TempDir(), "nope.yaml"), nil)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), config)
}

// TestLoadFlagsOverride tests that changed flags win over the environment
func (suite *UtilsTestSuite) TestLoadFlagsOverride() {
	os.Setenv("MCPADMIN_API_URL", "https://env.example.com")
	os.Setenv("MCPADMIN_LOG_LEVEL", "error")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api-url", "", "")
	flags.String("log-level", "", "")
	require.NoError(suite.T(), flags.Parse([]string{"--api-url", "https://flag.example.com"}))

	config, err := Load("", flags)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "https://flag.example.com", config.APIURL)
	// unchanged flags do not shadow the environment
	assert.Equal(suite.T(), "error", config.LogLevel)
}

// TestValidate tests the validate function
func (suite *UtilsTestSuite) TestValidate() {
	base := func() *models.Config {
		return &models.Config{
			APIURL:           "http://localhost:8000",
			RequestTimeout:   time.Second,
			StorageBackend:   models.StorageBackendMemory,
			StorageNamespace: "mcpadmin",
		}
	}

	testCases := []struct {
		name    string
		mutate  func(c *models.Config)
		wantErr string
	}{
		{"valid memory config", func(c *models.Config) {}, ""},
		{"relative api url", func(c *models.Config) { c.APIURL = "/v1" }, "api_url"},
		{"non http scheme", func(c *models.Config) { c.APIURL = "ftp://host" }, "api_url"},
		{"unknown backend", func(c *models.Config) { c.StorageBackend = "etcd" }, "unknown storage_backend"},
		{"redis without addr", func(c *models.Config) { c.StorageBackend = models.StorageBackendRedis }, "redis_addr"},
		{"dynamodb without table", func(c *models.Config) { c.StorageBackend = models.StorageBackendDynamoDB }, "dynamodb_table"},
		{"file without path", func(c *models.Config) { c.StorageBackend = models.StorageBackendFile }, "storage_path"},
		{"empty namespace", func(c *models.Config) { c.StorageNamespace = "" }, "storage_namespace"},
		{"zero timeout", func(c *models.Config) { c.RequestTimeout = 0 }, "request_timeout"},
	}

	for _, tc := range testCases {
		suite.T().Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(c)
			err := validate(c)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

// TestPrintPrettyJSON tests the PrintPrettyJSON function
func (suite *UtilsTestSuite) TestPrintPrettyJSON() {
	data := map[string]interface{}{
		"name":  "test",
		"value": 123,
	}

	result := PrintPrettyJSON(data)
	assert.NotEmpty(suite.T(), result)

	var parsed map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal([]byte(result), &parsed))
	assert.Equal(suite.T(), "test", parsed["name"])
	assert.Equal(suite.T(), float64(123), parsed["value"])
}

// TestPrintPrettyJSONWithInvalidData tests PrintPrettyJSON with non-serializable data
func (suite *UtilsTestSuite) TestPrintPrettyJSONWithInvalidData() {
	assert.Empty(suite.T(), PrintPrettyJSON(make(chan int)))
	assert.Equal(suite.T(), "null", PrintPrettyJSON(nil))
}

// TestGenerateUUID tests the GenerateUUID function
func (suite *UtilsTestSuite) TestGenerateUUID() {
	id1 := GenerateUUID()
	id2 := GenerateUUID()

	assert.NotEqual(suite.T(), id1, id2)
	_, err := uuid.Parse(id1)
	assert.NoError(suite.T(), err)
}

// Run the test suite
func TestUtilsTestSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

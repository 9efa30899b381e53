package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	config     *Config
	configOnce sync.Once
)

// Config stores all configuration of the application
type Config struct {
	// Environment type
	EnvType string

	// Database
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	DBMigrationMode string // "auto" (default) or "drop"

	// Server
	ServerPort string

	// Redis
	RedisHost string
	RedisPort string
	RedisDB   int

	// Door controllers (Hikvision ISAPI)
	DeviceUsername   string        // digest auth username, usually "admin"
	DevicePassword   string        // digest auth password shared by the fleet
	DeviceTimeout    time.Duration // per-request timeout for door commands
	DeviceFaceFDID   string        // face library ID on the controllers
	DeviceMaxRetries int           // retry cap for provisioning pushes

	// Provisioning tuning
	PushBaseDelay    time.Duration // pacing delay between consecutive device calls
	PushMaxDelay     time.Duration // backoff ceiling
	PushImageLimitKB int           // face image size limit accepted by devices

	// Identity directory (external personalization API)
	IdentityAPIURL   string
	IdentityAPIToken string

	// MQTT
	MQTTBrokerURL  string // broker address, e.g. tcp://broker.example.com:1883
	MQTTClientID   string
	MQTTUsername   string
	MQTTPassword   string
	MQTTQoS        int // quality of service (0, 1, 2)
	MQTTRetained   bool
	MQTTSSLEnabled bool
	MQTTCACertPath string

	// JWT Authentication
	JWTSecretKey string

	// Admin
	DefaultAdminPassword string
}

// LoadConfig loads config from environment variables based on ENV_TYPE
func LoadConfig() *Config {
	// Get environment type (default to LOCAL if not set)
	envType := getEnv("ENV_TYPE", "LOCAL")
	prefix := ""

	// Set prefix based on environment type
	if strings.ToUpper(envType) == "LOCAL" {
		prefix = "LOCAL_"
	} else if strings.ToUpper(envType) == "SERVER" {
		prefix = "SERVER_"
	} else {
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		prefix = "LOCAL_"
		envType = "LOCAL"
	}

	fmt.Printf("Loading configuration for environment: %s\n", envType)

	return &Config{
		// Environment type
		EnvType: envType,

		// Database config - use environment-specific variables if available
		DBHost:          getEnvRequired(prefix + "DB_HOST"),
		DBUser:          getEnvRequired(prefix + "DB_USER"),
		DBPassword:      getEnvRequired(prefix + "DB_PASSWORD"),
		DBName:          getEnvRequired(prefix + "DB_NAME"),
		DBPort:          getEnvRequired(prefix + "DB_PORT"),
		DBMigrationMode: getEnv(prefix+"DB_MIGRATION_MODE", "auto"),

		// Server config
		ServerPort: getEnv(prefix+"SERVER_PORT", getEnv("SERVER_PORT", "8080")),

		// Redis config
		RedisHost: getEnv(prefix+"REDIS_HOST", getEnv("REDIS_HOST", "localhost")),
		RedisPort: getEnv(prefix+"REDIS_PORT", getEnv("REDIS_PORT", "6379")),
		RedisDB:   getEnvAsInt("REDIS_DB", 0),

		// Door controller config
		DeviceUsername:   getEnv("DEVICE_USERNAME", "admin"),
		DevicePassword:   getEnvRequired("DEVICE_PASSWORD"),
		DeviceTimeout:    time.Duration(getEnvAsInt("DEVICE_TIMEOUT_SECONDS", 5)) * time.Second,
		DeviceFaceFDID:   getEnv("DEVICE_FACE_FDID", "1"),
		DeviceMaxRetries: getEnvAsInt("DEVICE_MAX_RETRIES", 10),

		// Provisioning config
		PushBaseDelay:    time.Duration(getEnvAsInt("PUSH_BASE_DELAY_MS", 300)) * time.Millisecond,
		PushMaxDelay:     time.Duration(getEnvAsInt("PUSH_MAX_DELAY_MS", 5000)) * time.Millisecond,
		PushImageLimitKB: getEnvAsInt("PUSH_IMAGE_LIMIT_KB", 200),

		// Identity directory config
		IdentityAPIURL:   getEnv("IDENTITY_API_URL", ""),
		IdentityAPIToken: getEnv("IDENTITY_API_TOKEN", ""),

		// MQTT config
		MQTTBrokerURL:  getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTClientID:   getEnv("MQTT_CLIENT_ID", "faceid_server"),
		MQTTUsername:   getEnv("MQTT_USERNAME", ""),
		MQTTPassword:   getEnv("MQTT_PASSWORD", ""),
		MQTTQoS:        getEnvAsInt("MQTT_QOS", 1),
		MQTTRetained:   getEnvAsBool("MQTT_RETAINED", false),
		MQTTSSLEnabled: getEnvAsBool("MQTT_SSL_ENABLED", false),
		MQTTCACertPath: getEnv("MQTT_CA_CERT_PATH", ""),

		// JWT Config
		JWTSecretKey: getEnv("JWT_SECRET_KEY", "faceid-secret-key-change-in-production"),

		// Admin Config
		DefaultAdminPassword: getEnvRequired("DEFAULT_ADMIN_PASSWORD"),
	}
}

// GetConfig returns the application configuration as a singleton
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local&allowNativePasswords=true&multiStatements=true"
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper that requires the environment variable to be present
func getEnvRequired(key string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	panic(fmt.Sprintf("Required environment variable %s is not set", key))
}

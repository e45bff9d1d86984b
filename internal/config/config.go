package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Firebase  FirebaseConfig  `yaml:"firebase"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Payment   PaymentConfig   `yaml:"payment"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP API server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GRPCConfig contains the ops gRPC server settings (health + reflection)
type GRPCConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// RedisConfig contains the Redis settings used for payment verification locks.
// An empty Addr falls back to in-process locks, which is only safe for a single instance.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GatewayConfig contains payment gateway credentials
type GatewayConfig struct {
	BaseURL   string `yaml:"base_url"`
	KeyID     string `yaml:"key_id"`
	KeySecret string `yaml:"key_secret"`
	TimeoutS  int    `yaml:"timeout_seconds"`
}

// SendGridConfig contains email delivery settings
type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// FirebaseConfig contains push notification settings. Push is disabled when CredentialsFile is empty.
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// PaymentConfig contains payment behaviour settings
type PaymentConfig struct {
	DefaultCurrency string `yaml:"default_currency"`
	LockTTLSeconds  int    `yaml:"lock_ttl_seconds"`
	ReceiptPrefix   string `yaml:"receipt_prefix"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	RepairOrphanedIntents string `yaml:"repair_orphaned_intents"`
	RecomputeSponsorStats string `yaml:"recompute_sponsor_stats"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Gateway
	if val := os.Getenv("GATEWAY_BASE_URL"); val != "" {
		c.Gateway.BaseURL = val
	}
	if val := os.Getenv("GATEWAY_KEY_ID"); val != "" {
		c.Gateway.KeyID = val
	}
	if val := os.Getenv("GATEWAY_KEY_SECRET"); val != "" {
		c.Gateway.KeySecret = val
	}

	// Notifications
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("FIREBASE_CREDENTIALS_FILE"); val != "" {
		c.Firebase.CredentialsFile = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Port < 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.GRPC.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Gateway.KeyID == "" || c.Gateway.KeySecret == "" {
		return fmt.Errorf("gateway key id and secret are required")
	}
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = "https://api.razorpay.com/v1"
	}
	if c.Gateway.TimeoutS == 0 {
		c.Gateway.TimeoutS = 15
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	// Payment defaults
	if c.Payment.DefaultCurrency == "" {
		c.Payment.DefaultCurrency = "INR"
	}
	if c.Payment.LockTTLSeconds == 0 {
		c.Payment.LockTTLSeconds = 30
	}
	if c.Payment.ReceiptPrefix == "" {
		c.Payment.ReceiptPrefix = "RCP"
	}

	if c.SendGrid.FromName == "" {
		c.SendGrid.FromName = "Sponsorhub"
	}

	// Scheduler defaults
	if c.Scheduler.RepairOrphanedIntents == "" {
		c.Scheduler.RepairOrphanedIntents = "0 15 2 * * *" // 2:15 AM UTC
	}
	if c.Scheduler.RecomputeSponsorStats == "" {
		c.Scheduler.RecomputeSponsorStats = "0 45 2 * * *" // 2:45 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the ops gRPC server address; empty when disabled
func (c *Config) GetGRPCAddress() string {
	if c.GRPC.Port == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Server.Host, c.GRPC.Port)
}

// LockTTL returns the payment verification lock TTL
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Payment.LockTTLSeconds) * time.Second
}

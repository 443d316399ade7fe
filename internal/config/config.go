package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `json:"server"`
	Database     DatabaseConfig     `json:"database"`
	Chain        ChainConfig        `json:"chain"`
	Pinning      PinningConfig      `json:"pinning"`
	Certificates CertificatesConfig `json:"certificates"`
	Scheduler    SchedulerConfig    `json:"scheduler"`
	Logging      LoggingConfig      `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// ChainConfig configures the settlement-ledger client. The registry only
// validates reported references; ExplorerURL may be left empty.
type ChainConfig struct {
	ExplorerURL string        `json:"explorer_url"`
	Timeout     time.Duration `json:"timeout"`
}

// PinningConfig configures the evidence pin-check client.
type PinningConfig struct {
	BaseURL string        `json:"base_url"`
	APIKey  string        `json:"api_key"`
	Timeout time.Duration `json:"timeout"`
}

// CertificatesConfig configures retirement certificate output.
type CertificatesConfig struct {
	OutputDir string `json:"output_dir"`
}

// SchedulerConfig configures background jobs.
type SchedulerConfig struct {
	LedgerRebuildSpec string `json:"ledger_rebuild_spec"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    os.Getenv("USER"),
			DBName:  "bluecarbon_registry",
			SSLMode: "disable",
		},
		Certificates: CertificatesConfig{
			OutputDir: "certificates",
		},
		Scheduler: SchedulerConfig{
			LedgerRebuildSpec: "@hourly",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if explorer := os.Getenv("CHAIN_EXPLORER_URL"); explorer != "" {
		config.Chain.ExplorerURL = explorer
	}
	if pinURL := os.Getenv("PINNING_BASE_URL"); pinURL != "" {
		config.Pinning.BaseURL = pinURL
	}
	if pinKey := os.Getenv("PINNING_API_KEY"); pinKey != "" {
		config.Pinning.APIKey = pinKey
	}
	if dir := os.Getenv("CERTIFICATES_DIR"); dir != "" {
		config.Certificates.OutputDir = dir
	}
	if spec := os.Getenv("LEDGER_REBUILD_SPEC"); spec != "" {
		config.Scheduler.LedgerRebuildSpec = spec
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

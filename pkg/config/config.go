package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/narwhalmedia/watchtrack/pkg/database"
	"github.com/narwhalmedia/watchtrack/pkg/logger"
)

// Config is the full watchtrack configuration.
type Config struct {
	Service  ServiceConfig  `koanf:"service"`
	Database DatabaseConfig `koanf:"database"`
	Logger   LoggerConfig   `koanf:"logger"`
	Notifier NotifierConfig `koanf:"notifier"`
	Cache    CacheConfig    `koanf:"cache"`
}

// ServiceConfig contains service metadata.
type ServiceConfig struct {
	Name        string `koanf:"name"`
	Environment string `koanf:"environment"` // dev, staging, production
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"` // postgres or sqlite
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"ssl_mode"`
	SQLitePath      string        `koanf:"sqlite_path"`
	MaxConnections  int           `koanf:"max_connections"`
	MinConnections  int           `koanf:"min_connections"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
	LogSQL          bool          `koanf:"log_sql"`
}

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level       string `koanf:"level"`  // debug, info, warn, error
	Format      string `koanf:"format"` // json, console
	Development bool   `koanf:"development"`
	OutputPath  string `koanf:"output_path"`
}

// NotifierConfig selects where status change records are published.
type NotifierConfig struct {
	Type  string      `koanf:"type"`
	NATS  NATSConfig  `koanf:"nats"`
	Kafka KafkaConfig `koanf:"kafka"`
}

// NATSConfig configures the JetStream notifier.
type NATSConfig struct {
	URL           string        `koanf:"url"`
	ClientID      string        `koanf:"client_id"`
	Stream        string        `koanf:"stream"`
	SubjectPrefix string        `koanf:"subject_prefix"`
	MaxReconnect  int           `koanf:"max_reconnect"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// KafkaConfig configures the Kafka notifier.
type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

// CacheConfig configures the profile cache.
type CacheConfig struct {
	ProfileTTL time.Duration `koanf:"profile_ttl"`
}

// Manager handles configuration loading and parsing.
type Manager struct {
	k           *koanf.Koanf
	serviceName string
	configPaths []string
}

// NewManager creates a new configuration manager.
func NewManager(serviceName string, extraPaths ...string) *Manager {
	return &Manager{
		k:           koanf.New("."),
		serviceName: serviceName,
		configPaths: append(extraPaths, getDefaultConfigPaths(serviceName)...),
	}
}

// Load loads defaults, config files and environment into cfg, then validates it.
func (m *Manager) Load(cfg *Config) error {
	if err := m.k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}

	for _, path := range m.configPaths {
		if err := m.loadFromFile(path); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		}
	}

	if err := m.loadFromEnv(); err != nil {
		return fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := m.k.Unmarshal("", cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func (m *Manager) loadFromFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	return m.k.Load(file.Provider(path), parser)
}

func (m *Manager) loadFromEnv() error {
	prefix := strings.ToUpper(m.serviceName) + "_"

	// WATCHTRACK_DATABASE_HOST -> database.host. Only the first underscore
	// after the section separates levels so that keys like ssl_mode survive.
	return m.k.Load(env.Provider(prefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, prefix))
		return strings.Replace(key, "_", ".", 1)
	}), nil)
}

func getDefaultConfigPaths(serviceName string) []string {
	paths := []string{
		fmt.Sprintf("%s.yaml", serviceName),
		fmt.Sprintf("%s.json", serviceName),
		fmt.Sprintf("configs/%s.yaml", serviceName),
		fmt.Sprintf("configs/%s.json", serviceName),
	}

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		paths = append([]string{configPath}, paths...)
	}
	return paths
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case database.DriverPostgres:
		if c.Database.Host == "" {
			return errors.New("database host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
	case database.DriverSQLite:
		if c.Database.SQLitePath == "" {
			return errors.New("database sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	switch c.Notifier.Type {
	case NotifierNone, NotifierEventBus:
	case NotifierNATS:
		if c.Notifier.NATS.URL == "" {
			return errors.New("notifier.nats.url is required")
		}
	case NotifierKafka:
		if len(c.Notifier.Kafka.Brokers) == 0 {
			return errors.New("notifier.kafka.brokers is required")
		}
	default:
		return fmt.Errorf("unsupported notifier type: %q", c.Notifier.Type)
	}
	return nil
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        ServiceName,
			Environment: "dev",
		},
		Database: DatabaseConfig{
			Driver:          database.DriverPostgres,
			Host:            "localhost",
			Port:            DefaultPostgresPort,
			User:            "narwhal",
			Password:        "narwhal_dev",
			Name:            "watchtrack",
			SSLMode:         "disable",
			SQLitePath:      "watchtrack.db",
			MaxConnections:  DefaultMaxConnections,
			MinConnections:  DefaultMinConnections,
			MaxConnLifetime: DefaultMaxConnLifetime,
			MaxConnIdleTime: DefaultMaxConnIdleTime,
		},
		Logger: LoggerConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
		Notifier: NotifierConfig{
			Type: NotifierNone,
			NATS: NATSConfig{
				URL:           DefaultNATSURL,
				ClientID:      ServiceName,
				Stream:        DefaultNATSStream,
				SubjectPrefix: DefaultNATSSubject,
				MaxReconnect:  DefaultNATSReconnect,
				ReconnectWait: DefaultNATSReconnectGap,
			},
			Kafka: KafkaConfig{
				Topic: DefaultKafkaTopic,
			},
		},
		Cache: CacheConfig{
			ProfileTTL: DefaultProfileCacheTTL,
		},
	}
}

// Load is a convenience wrapper loading Defaults through a Manager.
func Load(extraPaths ...string) (*Config, error) {
	cfg := Defaults()
	if err := NewManager(ServiceName, extraPaths...).Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToDatabaseConfig converts to the database package configuration.
func (c DatabaseConfig) ToDatabaseConfig() database.Config {
	return database.Config{
		Driver:          c.Driver,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Database:        c.Name,
		SSLMode:         c.SSLMode,
		SQLitePath:      c.SQLitePath,
		MaxConnections:  c.MaxConnections,
		MinConnections:  c.MinConnections,
		MaxConnLifetime: c.MaxConnLifetime,
		MaxConnIdleTime: c.MaxConnIdleTime,
		LogSQL:          c.LogSQL,
	}
}

// ToLoggerConfig converts to the logger package configuration.
func (c LoggerConfig) ToLoggerConfig() logger.Config {
	out := logger.Config{
		Level:       c.Level,
		Development: c.Development,
		Encoding:    c.Format,
	}
	if c.OutputPath != "" {
		out.OutputPaths = []string{c.OutputPath}
	}
	return out
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Service.Environment == "production" || c.Service.Environment == "prod"
}

// Package config loads application configuration from an optional YAML file
// with PAWTRAIL_* environment variables taking precedence. A .env file in the
// working directory is loaded first so development setups need no exported
// shell state.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Push     PushConfig     `yaml:"push"`
	Backup   BackupConfig   `yaml:"backup"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PushConfig struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
}

type BackupConfig struct {
	S3Endpoint    string `yaml:"s3_endpoint"`
	S3Bucket      string `yaml:"s3_bucket"`
	S3Region      string `yaml:"s3_region"`
	S3AccessKey   string `yaml:"s3_access_key"`
	S3SecretKey   string `yaml:"s3_secret_key"`
	Passphrase    string `yaml:"passphrase"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "pawtrail.db"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Backup:   BackupConfig{Schedule: "0 3 * * *", RetentionDays: 30},
	}
}

// Load reads configuration from the given YAML file path (skipped when empty
// or missing), then applies environment overrides.
func Load(path string) (Config, error) {
	// Missing .env is fine; it only exists in development.
	godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Server.Port)
	}
	if cfg.Database.Path == "" {
		return cfg, fmt.Errorf("database path must not be empty")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Database.Path, "PAWTRAIL_DB_PATH")
	setString(&cfg.Logging.Level, "PAWTRAIL_LOG_LEVEL")
	setString(&cfg.Logging.Format, "PAWTRAIL_LOG_FORMAT")
	setString(&cfg.Push.VAPIDPublicKey, "PAWTRAIL_VAPID_PUBLIC_KEY")
	setString(&cfg.Push.VAPIDPrivateKey, "PAWTRAIL_VAPID_PRIVATE_KEY")
	setString(&cfg.Backup.S3Endpoint, "PAWTRAIL_S3_ENDPOINT")
	setString(&cfg.Backup.S3Bucket, "PAWTRAIL_S3_BUCKET")
	setString(&cfg.Backup.S3Region, "PAWTRAIL_S3_REGION")
	setString(&cfg.Backup.S3AccessKey, "PAWTRAIL_S3_ACCESS_KEY")
	setString(&cfg.Backup.S3SecretKey, "PAWTRAIL_S3_SECRET_KEY")
	setString(&cfg.Backup.Passphrase, "PAWTRAIL_BACKUP_PASSPHRASE")
	setString(&cfg.Backup.Schedule, "PAWTRAIL_BACKUP_SCHEDULE")
	setInt(&cfg.Server.Port, "PAWTRAIL_PORT")
	setInt(&cfg.Backup.RetentionDays, "PAWTRAIL_BACKUP_RETENTION_DAYS")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Hemanth1845/FullStackProject/internal/storage"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Configuration struct {
	Server   ServerConfig   `mapstructure:"server"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  storage.Config `mapstructure:"storage"`
	Vault    VaultConfig    `mapstructure:"vault"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type SecurityConfig struct {
	SessionTimeout    time.Duration `mapstructure:"session_timeout"`
	PasswordMinLength int           `mapstructure:"password_min_length"`
	MaxFailedAttempts int           `mapstructure:"max_failed_attempts"`
	FailureWindow     time.Duration `mapstructure:"failure_window"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            string `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type VaultConfig struct {
	PinMinLength   int   `mapstructure:"pin_min_length"`
	PinMaxLength   int   `mapstructure:"pin_max_length"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)

	v.SetDefault("security.session_timeout", 24*time.Hour)
	v.SetDefault("security.password_min_length", 8)
	v.SetDefault("security.max_failed_attempts", 5)
	v.SetDefault("security.failure_window", 30*time.Second)

	v.SetDefault("logging.level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "crm")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 300)

	v.SetDefault("storage.backend", "filesystem")
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.s3.endpoint", "localhost:9000")
	v.SetDefault("storage.s3.use_ssl", false)
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "crm-vault")
	v.SetDefault("storage.s3.key_prefix", "")

	v.SetDefault("vault.pin_min_length", 4)
	v.SetDefault("vault.pin_max_length", 64)
	v.SetDefault("vault.max_upload_bytes", int64(32<<20))
}

// Load reads configuration from an optional config file plus CRM_* environment
// variables, with sane defaults for everything.
func Load(filePath string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filePath != "" {
		v.SetConfigFile(filePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Configuration{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, nil
}

// LogConfig logs the effective configuration with secrets redacted.
func LogConfig(cfg *Configuration, logger *zap.Logger) {
	logger.Info("Application configuration",
		zap.String("port", cfg.Server.Port),
		zap.Duration("read_timeout", cfg.Server.ReadTimeout),
		zap.Duration("write_timeout", cfg.Server.WriteTimeout),
		zap.Duration("session_timeout", cfg.Security.SessionTimeout),
		zap.String("database_host", cfg.Database.Host),
		zap.String("database_name", cfg.Database.Name),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("upload_dir", cfg.Storage.UploadDir),
		zap.Int64("max_upload_bytes", cfg.Vault.MaxUploadBytes),
	)
}

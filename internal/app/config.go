package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"wechat-cli/internal/credstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
	LogFormatOTLP LogFormat = "otlp"
)

// CredentialStorageType represents the storage backends supported for
// credentials.
type CredentialStorageType string

const (
	CredentialStorageFile    CredentialStorageType = "file"
	CredentialStorageKeyring CredentialStorageType = "keyring"
)

// Default configuration values
const (
	DefaultConfigLogFormat       = LogFormatText
	DefaultConfigServerHost      = "127.0.0.1"
	DefaultConfigServerPort      = 8520
	DefaultConfigShutdownTimeout = 5 * time.Second
	DefaultConfigAPIBaseURL      = "https://api.weixin.qq.com"
	DefaultConfigCredStorage     = CredentialStorageFile

	// keyringService identifies this tool's entries in the OS keyring.
	keyringService = "wechat-cli"

	// configDirName is the subdirectory of the user config dir holding
	// credentials and the token cache.
	configDirName = "wechat-cli"
)

// ServerConfig holds serve-mode listener configuration.
type ServerConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"` // Port range 0-65535 handled by uint16 type
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// APIConfig holds WeChat platform endpoint configuration.
type APIConfig struct {
	BaseURL string `json:"base_url" validate:"required,url"`
}

// CredentialsConfig describes where the long-lived app credentials live.
type CredentialsConfig struct {
	Storage CredentialStorageType `json:"storage" validate:"required,oneof=file keyring"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	File        string `json:"file,omitempty"`         // For file storage: path to credentials file
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier
}

// NewStore creates a credential Store from the configuration.
func (c *CredentialsConfig) NewStore() (credstore.Store, error) {
	switch c.Storage {
	case CredentialStorageFile:
		return credstore.NewFileStore(c.File)
	case CredentialStorageKeyring:
		return credstore.NewKeyringStore(keyringService, c.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.Storage)
	}
}

// TokenConfig holds token lifecycle settings.
type TokenConfig struct {
	// CacheFile is where the last-known access token is persisted so fresh
	// processes reuse it.
	CacheFile string `json:"cache_file"`

	// SafetyMargin is how long before the literal expiry a token is treated
	// as expiring.
	SafetyMargin time.Duration `json:"safety_margin"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel    slog.Level        `json:"log_level"`
	LogFormat   LogFormat         `json:"log_format" validate:"oneof=text json otlp"`
	Server      ServerConfig      `json:"server"`
	Shutdown    ShutdownConfig    `json:"shutdown"`
	API         APIConfig         `json:"api"`
	Credentials CredentialsConfig `json:"credentials"`
	Token       TokenConfig       `json:"token"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultConfigServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultConfigServerPort
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultConfigAPIBaseURL
	}
	if c.Credentials.Storage == "" {
		c.Credentials.Storage = DefaultConfigCredStorage
	}

	// Dynamic defaults based on storage type
	switch c.Credentials.Storage {
	case CredentialStorageFile:
		if c.Credentials.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("credentials.file required (auto-detect failed: %w)", err)
			}
			c.Credentials.File = filepath.Join(configDir, configDirName, "credentials.json")
		}
	case CredentialStorageKeyring:
		if c.Credentials.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("credentials.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Credentials.KeyringUser = currentUser.Username
		}
	}

	if c.Token.CacheFile == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("token.cache_file required (auto-detect failed: %w)", err)
		}
		c.Token.CacheFile = filepath.Join(configDir, configDirName, "token.json")
	}
	// SafetyMargin zero means the manager default; no value forced here so
	// the config file can stay minimal.

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Credentials.Storage {
	case CredentialStorageFile:
		if c.Credentials.File == "" {
			return fmt.Errorf("file path required for file storage")
		}
	case CredentialStorageKeyring:
		if c.Credentials.KeyringUser == "" {
			return fmt.Errorf("keyring_user required for keyring storage")
		}
	}

	if c.Token.SafetyMargin < 0 {
		return fmt.Errorf("token.safety_margin cannot be negative")
	}

	return nil
}

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for flashdeck.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Store      StoreConfig      `toml:"store"`
	Archive    ArchiveConfig    `toml:"archive"`
	Encryption EncryptionConfig `toml:"encryption"`
	Auth       AuthConfig       `toml:"auth"`
	AWS        AWSConfig        `toml:"aws"`
}

// AWSConfig holds credentials shared by the DynamoDB store and the S3 archive.
// When AccessKeyID is empty the SDK's default credential chain is used.
type AWSConfig struct {
	Profile         string `toml:"profile,omitempty"`
	AccessKeyID     string `toml:"access_key_id,omitempty"`
	SecretAccessKey string `toml:"secret_access_key,omitempty"`
}

// StoreConfig selects the deck record store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"`           // "memory", "blob", "sqlite", "dynamodb" or "redis"
	Mode string `toml:"mode,omitempty"` // "local" or "remote"; defaults by type

	// Blob-specific fields (only used when Type == "blob")
	BlobPath string `toml:"blob_path,omitempty"`
	Seed     bool   `toml:"seed,omitempty"`

	// SQLite-specific fields (only used when Type == "sqlite")
	SQLitePath string `toml:"sqlite_path,omitempty"`

	// DynamoDB-specific fields (only used when Type == "dynamodb")
	DynamoTable    string `toml:"dynamo_table,omitempty"`
	DynamoRegion   string `toml:"dynamo_region,omitempty"`
	DynamoEndpoint string `toml:"dynamo_endpoint,omitempty"`

	// Redis-specific fields (only used when Type == "redis")
	RedisAddr     string `toml:"redis_addr,omitempty"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db,omitempty"`
	RedisPrefix   string `toml:"redis_prefix,omitempty"`
}

// ResolvedMode returns the ownership mode for the store. An explicit Mode
// wins; otherwise the single-file blob and the in-memory store are local and
// every database-backed store is remote.
func (c StoreConfig) ResolvedMode() string {
	if c.Mode != "" {
		return c.Mode
	}
	switch c.Type {
	case "blob", "memory", "":
		return "local"
	default:
		return "remote"
	}
}

// ArchiveConfig selects where exported snapshots are kept.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ArchiveConfig struct {
	Type string `toml:"type"` // "memory", "filesystem" or "s3"

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used for archive encryption.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// AuthConfig configures the token authority that yields the acting principal.
type AuthConfig struct {
	Issuer    string `toml:"issuer"`
	Secret    string `toml:"secret,omitempty"` // HMAC key; FLASHDECK_AUTH_SECRET overrides
	TokenPath string `toml:"token_path"`
	TokenTTL  string `toml:"token_ttl"` // Go duration, e.g. "720h"
}

// TTL parses TokenTTL, falling back to 30 days when unset.
func (c AuthConfig) TTL() (time.Duration, error) {
	if c.TokenTTL == "" {
		return 30 * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid token_ttl %q: %w", c.TokenTTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("token_ttl must be positive, got %s", c.TokenTTL)
	}
	return d, nil
}

// NewConfig creates a Config rooted at baseDir with a local blob library,
// filesystem archive and age key paths.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Store: StoreConfig{
			Type:     "blob",
			BlobPath: filepath.Join(baseDir, "decks.json"),
			Seed:     true,
		},
		Archive: ArchiveConfig{
			Type:   "filesystem",
			FSRoot: filepath.Join(baseDir, "archive"),
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "flashdeck.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "flashdeck.key"),
		},
		Auth: AuthConfig{
			Issuer:    "flashdeck",
			TokenPath: filepath.Join(baseDir, "token"),
			TokenTTL:  "720h",
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file may carry the auth secret.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

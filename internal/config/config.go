// Package config loads the application configuration from a YAML file.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/todos/internal/logging"
	"github.com/aretw0/todos/pkg/adapters/memory"
	"github.com/aretw0/todos/pkg/cache"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Backend names a BlobStore implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// Duplicate predicates a store can persist with.
const (
	// DedupState saves whenever any part of the state changed.
	DedupState = "state"
	// DedupTodos saves the todos store only when its todos changed.
	DedupTodos = "todos"
	// DedupStep saves the onboarding store only when its step changed.
	DedupStep = "step"
)

// ErrUnknownBackend is returned by Validate for an unsupported cache.backend.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Config is the root of the configuration file.
type Config struct {
	LogLevel  string         `mapstructure:"log_level"`
	LogFormat logging.Format `mapstructure:"log_format"`
	Cache     CacheConfig    `mapstructure:"cache"`
	Stores    StoresConfig   `mapstructure:"stores"`
	Server    ServerConfig   `mapstructure:"server"`
}

// CacheConfig selects and tunes the persistence backend.
type CacheConfig struct {
	Backend Backend `mapstructure:"backend"`
	// Dir is the private directory of the file backend. Empty means the user config directory.
	Dir string `mapstructure:"dir"`
	// Codec is "json", "yaml" or "toml".
	Codec        string      `mapstructure:"codec"`
	MaxValueSize int         `mapstructure:"max_value_size"`
	MaxKeys      int         `mapstructure:"max_keys"`
	Redis        RedisConfig `mapstructure:"redis"`
	// EncryptionKey is a base64 AES-256 key. Empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys are older base64 keys still accepted for reading.
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StoresConfig names the cache key of each store.
type StoresConfig struct {
	Todos      StoreConfig `mapstructure:"todos"`
	Onboarding StoreConfig `mapstructure:"onboarding"`
}

// StoreConfig configures one cached store.
type StoreConfig struct {
	Key string `mapstructure:"key"`
	// Dedup names the duplicate predicate. Every process of the CLI starts
	// from the cache, so anything left out by the predicate is lost between
	// commands.
	Dedup string `mapstructure:"dedup"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: logging.FormatText,
		Cache: CacheConfig{
			Backend:      BackendFile,
			Codec:        "json",
			MaxValueSize: memory.DefaultMaxValueSize,
			MaxKeys:      memory.DefaultMaxKeys,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "todos:cache:",
			},
		},
		Stores: StoresConfig{
			Todos:      StoreConfig{Key: "todos", Dedup: DedupState},
			Onboarding: StoreConfig{Key: "onboarding", Dedup: DedupState},
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return cfg, err
	}
	if err := dec.Decode(raw); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that cannot be caught while decoding.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Cache.Backend)
	}
	if _, ok := cache.CodecByName(c.Cache.Codec); !ok {
		return fmt.Errorf("unknown cache codec %q", c.Cache.Codec)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.Stores.Todos.Key == "" || c.Stores.Onboarding.Key == "" {
		return errors.New("store keys cannot be empty")
	}
	if c.Stores.Todos.Key == c.Stores.Onboarding.Key {
		return fmt.Errorf("stores share the cache key %q", c.Stores.Todos.Key)
	}
	if d := c.Stores.Todos.Dedup; d != DedupState && d != DedupTodos {
		return fmt.Errorf("stores.todos.dedup: unknown predicate %q", d)
	}
	if d := c.Stores.Onboarding.Dedup; d != DedupState && d != DedupStep {
		return fmt.Errorf("stores.onboarding.dedup: unknown predicate %q", d)
	}
	if _, _, err := c.Cache.Keys(); err != nil {
		return err
	}
	return nil
}

// Keys decodes the encryption keys. It returns a nil active key when encryption is off.
func (c CacheConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if c.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err = decodeKey(c.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption_key: %w", err)
	}
	for i, k := range c.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

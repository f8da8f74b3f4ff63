package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Authorization AuthorizationConfig
	Avatar        AvatarConfig
	Directory     DirectoryConfig
	Observe       ObserveConfig
	Server        ServerConfig
	Storage       StorageConfig
}

type ServerConfig struct {
	Port                   int `env:"SERVER_PORT, default=8080"`
	ShutdownTimeoutSeconds int `env:"SERVER_SHUTDOWN_TIMEOUT_SECS, default=25"`

	OutgoingHTTPMaxIdleConns    int `env:"SERVER_OUTGOING_MAX_IDLE_CONNS, default=100"`
	OutgoingHTTPMaxConnsPerHost int `env:"SERVER_OUTGOING_MAX_CONNS_PER_HOST, default=20"`
}

// StorageConfig locates the on-disk avatar store.
type StorageConfig struct {
	// Root is the directory holding one folder per user.
	Root string `env:"STORAGE_ROOT, default=/var/lib/glyphd/avatars"`
}

// AvatarConfig controls placeholder generation and the hot cache.
type AvatarConfig struct {
	// MaxSize caps the pixel size accepted from clients.
	MaxSize int `env:"AVATAR_MAX_SIZE, default=2048"`

	// PalettePath optionally overrides the built-in color palette with
	// a YAML file.
	PalettePath string `env:"AVATAR_PALETTE_PATH"`

	// VectorRendererURL is the SVG-to-PNG conversion endpoint. Empty
	// disables vector rendering; all avatars are rasterized locally.
	VectorRendererURL string `env:"AVATAR_VECTOR_RENDERER_URL"`

	// HotCacheSize is the maximum number of artifacts held in memory.
	// Zero disables the hot cache.
	HotCacheSize int `env:"AVATAR_HOT_CACHE_SIZE, default=512"`

	// HotCacheTTLMinutes bounds how long a hot entry may be served
	// without re-reading the store.
	HotCacheTTLMinutes int `env:"AVATAR_HOT_CACHE_TTL_MINS, default=15"`
}

// DirectoryConfig locates the external user directory used for
// display-name resolution.
type DirectoryConfig struct {
	// URL is the directory service base URL. Empty means display names
	// fall back to the user ID.
	URL string `env:"DIRECTORY_URL"`
}

// AuthorizationConfig secures the mutating endpoints. The avatar fetch
// routes stay unauthenticated: they serve public profile images.
type AuthorizationConfig struct {
	Disabled            bool   `env:"AUTH_DISABLED, default=false"`
	Audience            string `env:"JWT_AUDIENCE, default=glyphd"`
	IssuerURL           string `env:"JWT_ISSUER_URL"`
	ConfigurationStatic string `env:"JWT_JWKS_STATIC"`
}

type ObserveConfig struct {
	Enabled                    bool   `env:"OBSERVE_ENABLED, default=false"`
	MetricsEnabled             bool   `env:"OBSERVE_METRICS_ENABLED, default=true"`
	Type                       string `env:"OBSERVE_TYPE, default=grpc"`
	ServiceName                string `env:"OBSERVE_SERVICE_NAME, default=glyphd"`
	TraceBatchTimeoutSeconds   int    `env:"OBSERVE_TRACE_BATCH_TIMEOUT_SECS, default=20"`
	MetricReadIntervalSeconds  int    `env:"OBSERVE_METRIC_READ_INTERVAL_SECS, default=60"`
	HTTPTransportEnabled       bool   `env:"OBSERVE_HTTP_TRANSPORT_ENABLED, default=true"`
	HTTPConnectionTraceEnabled bool   `env:"OBSERVE_CONNECTION_TRACE_ENABLED, default=true"`
}

func Load(ctx context.Context) (Config, error) {
	return load(ctx, nil) // load from OS environment
}

func load(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, err
	}

	if err := cfg.Authorization.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid authorization configuration: %w", err)
	}
	if err := cfg.Avatar.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid avatar configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that authorization is either configured or
// explicitly disabled.
func (c *AuthorizationConfig) Validate() error {
	if c.Disabled {
		return nil
	}
	if c.IssuerURL == "" && c.ConfigurationStatic == "" {
		return fmt.Errorf("JWT_ISSUER_URL required unless AUTH_DISABLED=true")
	}
	return nil
}

// Validate checks avatar generation limits.
func (c *AvatarConfig) Validate() error {
	if c.MaxSize < 1 {
		return fmt.Errorf("AVATAR_MAX_SIZE must be positive")
	}
	if c.HotCacheSize < 0 {
		return fmt.Errorf("AVATAR_HOT_CACHE_SIZE must not be negative")
	}
	return nil
}

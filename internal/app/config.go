package app

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	apphttp "github.com/yungbote/tilegen-backend/internal/http"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type Config struct {
	Env      string
	HTTPAddr string

	TemplatesPath     string
	PromptSourcesPath string
	ConfigSource      string
	ConfigBucket      string

	RedisAddr string

	PostgresDSN      string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresName     string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAITimeout     time.Duration
	ImageModel        string
	ImageSize         string
	ImageFormat       string
	ImageBackground   string
	TileBucket        string
	TileCDNDomain     string
	ObjectStorageMode string
	StorageEmulator   string
	StoragePublicURL  string
	GCPCredentials    string

	ProviderTimeout   time.Duration
	ProviderUserAgent string
	ColorAPIURL       string
	ColormindURL      string

	RateLimits apphttp.RateLimits

	CORSOrigins []string
	MetricsAddr string
	WatchConfig bool
}

func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

func setDefaults(v *viper.Viper) {
	limits := apphttp.DefaultRateLimits()
	defaults := map[string]any{
		"app_env":                 "development",
		"http_addr":               ":8080",
		"templates_path":          "data/prompt-templates.json",
		"prompt_sources_path":     "data/prompt-sources.json",
		"config_source":           "file",
		"postgres_host":           "localhost",
		"postgres_port":           "5432",
		"postgres_user":           "postgres",
		"postgres_name":           "tilegen",
		"access_token_ttl":        "1h",
		"openai_image_model":      "gpt-image-1",
		"openai_image_size":       "1024x1024",
		"openai_image_format":     "webp",
		"openai_image_background": "opaque",
		"openai_timeout_seconds":  180,
		"provider_http_timeout":   "8s",
		"provider_user_agent":     "tilegen/1.0 (prompt-sources)",
		"options_rate_limit":      limits.PromptOptions,
		"palettes_rate_limit":     limits.Palettes,
		"generate_rate_limit":     limits.Generate,
		"generate_rate_window":    limits.GenerateWindow.String(),
		"watch_config":            true,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// envKeys lists every setting so viper binds it to its environment variable
// even when no config file mentions it.
var envKeys = []string{
	"app_env", "http_addr",
	"templates_path", "prompt_sources_path", "config_source", "config_gcs_bucket_name",
	"redis_addr",
	"postgres_dsn", "postgres_host", "postgres_port", "postgres_user", "postgres_password", "postgres_name",
	"jwt_secret_key", "access_token_ttl",
	"openai_api_key", "openai_base_url", "openai_timeout_seconds",
	"openai_image_model", "openai_image_size", "openai_image_format", "openai_image_background",
	"tile_gcs_bucket_name", "tile_cdn_domain", "object_storage_mode", "storage_emulator_host", "object_storage_public_base_url",
	"google_application_credentials_json", "google_application_credentials",
	"provider_http_timeout", "provider_user_agent", "thecolorapi_url", "colormind_url",
	"options_rate_limit", "palettes_rate_limit", "generate_rate_limit", "generate_rate_window",
	"cors_allowed_origins", "metrics_addr", "watch_config",
}

func newViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}
	if cfgFile == "" {
		return v, nil
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	return v, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Env:      v.GetString("app_env"),
		HTTPAddr: v.GetString("http_addr"),

		TemplatesPath:     v.GetString("templates_path"),
		PromptSourcesPath: v.GetString("prompt_sources_path"),
		ConfigSource:      strings.ToLower(v.GetString("config_source")),
		ConfigBucket:      v.GetString("config_gcs_bucket_name"),

		RedisAddr: v.GetString("redis_addr"),

		PostgresDSN:      v.GetString("postgres_dsn"),
		PostgresHost:     v.GetString("postgres_host"),
		PostgresPort:     v.GetString("postgres_port"),
		PostgresUser:     v.GetString("postgres_user"),
		PostgresPassword: v.GetString("postgres_password"),
		PostgresName:     v.GetString("postgres_name"),

		JWTSecretKey:   v.GetString("jwt_secret_key"),
		AccessTokenTTL: v.GetDuration("access_token_ttl"),

		OpenAIAPIKey:      v.GetString("openai_api_key"),
		OpenAIBaseURL:     v.GetString("openai_base_url"),
		OpenAITimeout:     time.Duration(v.GetInt("openai_timeout_seconds")) * time.Second,
		ImageModel:        v.GetString("openai_image_model"),
		ImageSize:         v.GetString("openai_image_size"),
		ImageFormat:       v.GetString("openai_image_format"),
		ImageBackground:   v.GetString("openai_image_background"),
		TileBucket:        v.GetString("tile_gcs_bucket_name"),
		TileCDNDomain:     v.GetString("tile_cdn_domain"),
		ObjectStorageMode: v.GetString("object_storage_mode"),
		StorageEmulator:   v.GetString("storage_emulator_host"),
		StoragePublicURL:  v.GetString("object_storage_public_base_url"),
		GCPCredentials:    gcpCredentials(v),

		ProviderTimeout:   v.GetDuration("provider_http_timeout"),
		ProviderUserAgent: v.GetString("provider_user_agent"),
		ColorAPIURL:       v.GetString("thecolorapi_url"),
		ColormindURL:      v.GetString("colormind_url"),

		RateLimits: rateLimitsFrom(v),

		CORSOrigins: splitList(v.GetString("cors_allowed_origins")),
		MetricsAddr: v.GetString("metrics_addr"),
		WatchConfig: v.GetBool("watch_config"),
	}
}

func rateLimitsFrom(v *viper.Viper) apphttp.RateLimits {
	window := v.GetDuration("generate_rate_window")
	if window <= 0 {
		window = time.Hour
	}
	return apphttp.RateLimits{
		PromptOptions:  v.GetInt("options_rate_limit"),
		Palettes:       v.GetInt("palettes_rate_limit"),
		Generate:       v.GetInt("generate_rate_limit"),
		GenerateWindow: window,
	}
}

// gcpCredentials prefers inline JSON over a credentials file path.
func gcpCredentials(v *viper.Viper) string {
	if js := strings.TrimSpace(v.GetString("google_application_credentials_json")); js != "" {
		return js
	}
	return strings.TrimSpace(v.GetString("google_application_credentials"))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfig reads defaults, the environment and, when cfgFile is set, a
// YAML/JSON config file.
func LoadConfig(cfgFile string) (Config, error) {
	v, err := newViper(cfgFile)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v), nil
}

// ConfigManager keeps the loaded config and reapplies rate limits when the
// config file changes.
type ConfigManager struct {
	v   *viper.Viper
	cfg Config

	mu     sync.RWMutex
	limits apphttp.RateLimits
}

func NewConfigManager(cfgFile string) (*ConfigManager, error) {
	v, err := newViper(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg := fromViper(v)
	return &ConfigManager{v: v, cfg: cfg, limits: cfg.RateLimits}, nil
}

func (m *ConfigManager) Config() Config { return m.cfg }

func (m *ConfigManager) RateLimits() apphttp.RateLimits {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.limits
}

func (m *ConfigManager) reload(log *logger.Logger) {
	next := rateLimitsFrom(m.v)
	m.mu.Lock()
	m.limits = next
	m.mu.Unlock()
	log.Info("rate limits reloaded",
		"options", next.PromptOptions,
		"palettes", next.Palettes,
		"generate", next.Generate,
	)
}

// Watch hot-reloads the config file. It is a no-op without one.
func (m *ConfigManager) Watch(log *logger.Logger) {
	if m.v.ConfigFileUsed() == "" {
		return
	}
	m.v.OnConfigChange(func(e fsnotify.Event) {
		m.reload(log)
	})
	m.v.WatchConfig()
}

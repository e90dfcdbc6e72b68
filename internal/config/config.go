// Package config loads monitor configuration from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"pumpfun-monitor/internal/logging"
	"pumpfun-monitor/internal/solana"
)

// placeholderKey marks an RPC URL copied from the example env file.
const placeholderKey = "YOUR_API_KEY_HERE"

// Config materialises application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	RPC      RPCConfig      `mapstructure:"rpc"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Program  ProgramConfig  `mapstructure:"program"`
	Poller   PollerConfig   `mapstructure:"poller"`
	Hub      HubConfig      `mapstructure:"hub"`
	State    StateConfig    `mapstructure:"state"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Viewer   ViewerConfig   `mapstructure:"viewer"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  logging.Config `mapstructure:"logging"`
}

// ServerConfig covers the viewer-facing HTTP listener.
type ServerConfig struct {
	Port int `mapstructure:"port"`
	// CORSOrigins is "*", a comma-separated origin list, or empty.
	CORSOrigins     string        `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RPCConfig covers the Solana JSON-RPC endpoint.
type RPCConfig struct {
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// FeedConfig covers the upstream token-creation WebSocket.
type FeedConfig struct {
	URL            string        `mapstructure:"url"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
}

// ProgramConfig identifies the monitored program.
type ProgramConfig struct {
	ID string `mapstructure:"id"`
}

// PollerConfig governs RPC polling cadence.
type PollerConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	SignatureLimit int           `mapstructure:"signature_limit"`
}

// HubConfig governs batching and viewer queues.
type HubConfig struct {
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	SendQueue     int           `mapstructure:"send_queue"`
}

// StateConfig bounds in-memory state.
type StateConfig struct {
	Capacity      int           `mapstructure:"capacity"`
	ClearInterval time.Duration `mapstructure:"clear_interval"`
}

// MetadataConfig governs token metadata fetches.
type MetadataConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// ViewerConfig bounds per-viewer enrichment requests.
type ViewerConfig struct {
	RatePerSec float64 `mapstructure:"rate_per_sec"`
	Burst      int     `mapstructure:"burst"`
}

// MetricsConfig controls the Prometheus listener. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// envBindings maps config keys to the environment variable names the
// deployment already uses.
var envBindings = map[string]string{
	"server.port":         "BACKEND_WS_PORT",
	"server.cors_origins": "CORS_ORIGIN",
	"rpc.url":             "VITE_SOLANA_RPC_URL",
	"feed.url":            "VITE_PUMP_FUN_WS_URL",
	"program.id":          "VITE_PUMP_FUN_PROGRAM_ID",
	"metrics.addr":        "METRICS_ADDR",
	"logging.level":       "LOG_LEVEL",
	"logging.format":      "LOG_FORMAT",
}

// LoadEnvFile loads variables from a dotenv file without overriding ones
// already set. A missing default file is not an error.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load builds configuration from file, environment, and defaults.
// Every key can also be set as PUMPFUN_<SECTION>_<KEY>.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PUMPFUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env, "PUMPFUN_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", "")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("rpc.timeout", "15s")
	v.SetDefault("rpc.max_retries", 2)

	v.SetDefault("feed.reconnect_delay", "5s")
	v.SetDefault("feed.ping_interval", "30s")
	v.SetDefault("feed.read_timeout", "60s")

	v.SetDefault("poller.interval", "4s")
	v.SetDefault("poller.retry_delay", "10s")
	v.SetDefault("poller.signature_limit", 10)

	v.SetDefault("hub.flush_interval", "500ms")
	v.SetDefault("hub.send_queue", 256)

	v.SetDefault("state.capacity", 100)
	v.SetDefault("state.clear_interval", "5m")

	v.SetDefault("metadata.timeout", "3s")

	v.SetDefault("viewer.rate_per_sec", 1.0)
	v.SetDefault("viewer.burst", 5)

	v.SetDefault("metrics.addr", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.RPC.URL == "" || strings.Contains(c.RPC.URL, placeholderKey) {
		return fmt.Errorf("rpc.url (VITE_SOLANA_RPC_URL) is not configured correctly")
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url (VITE_PUMP_FUN_WS_URL) is not configured")
	}
	if c.Program.ID == "" {
		return fmt.Errorf("program.id (VITE_PUMP_FUN_PROGRAM_ID) is not configured")
	}
	if err := solana.ValidateAddress(c.Program.ID); err != nil {
		return fmt.Errorf("program.id: %w", err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Poller.Interval <= 0 || c.Poller.RetryDelay <= 0 {
		return fmt.Errorf("poller.interval and poller.retry_delay must be greater than zero")
	}
	if c.Hub.FlushInterval <= 0 {
		return fmt.Errorf("hub.flush_interval must be greater than zero")
	}
	if c.State.Capacity <= 0 || c.State.ClearInterval <= 0 {
		return fmt.Errorf("state.capacity and state.clear_interval must be greater than zero")
	}
	if c.Viewer.RatePerSec <= 0 || c.Viewer.Burst <= 0 {
		return fmt.Errorf("viewer.rate_per_sec and viewer.burst must be greater than zero")
	}
	return nil
}

// ListenAddr returns the viewer listener address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

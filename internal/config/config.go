package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string            `mapstructure:"environment"`
	LogLevel    string            `mapstructure:"log_level"`
	Server      ServerConfig      `mapstructure:"server"`
	RemoteCache RemoteCacheConfig `mapstructure:"remote_cache"`
	LocalCache  LocalCacheConfig  `mapstructure:"local_cache"`
	Upstream    UpstreamConfig    `mapstructure:"upstream"`
	Token       TokenConfig       `mapstructure:"token"`
	MasterData  MasterDataConfig  `mapstructure:"master_data"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RemoteCacheConfig describes the shared Redis tier. The tier is optional:
// an empty Addr disables it and the service runs local-only.
type RemoteCacheConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password" json:"-" yaml:"-"`
	DB       int    `mapstructure:"db"`
}

type LocalCacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// UpstreamConfig carries the market-data vendor endpoint and credentials.
type UpstreamConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	AppKey    string `mapstructure:"app_key" json:"-" yaml:"-"`
	AppSecret string `mapstructure:"app_secret" json:"-" yaml:"-"`
	Timeout   int    `mapstructure:"timeout"`
}

type TokenConfig struct {
	ExpiryBuffer string `mapstructure:"expiry_buffer"`
	LockTTL      string `mapstructure:"lock_ttl"`
	LockMaxWait  string `mapstructure:"lock_max_wait"`
	LockPoll     string `mapstructure:"lock_poll_interval"`
}

type MasterDataConfig struct {
	DomesticURLs  map[string]string   `mapstructure:"domestic_urls"`
	ForeignURLs   map[string]string   `mapstructure:"foreign_urls"`
	CacheTTLHours int                 `mapstructure:"cache_ttl_hours"`
	Timeout       int                 `mapstructure:"timeout"`
	MaxRetries    int                 `mapstructure:"max_retries"`
	ForeignSchema ForeignSchemaConfig `mapstructure:"foreign_schema"`
}

// ForeignSchemaConfig pins the tab-delimited column layout of the foreign
// master feed. The vendor has shifted these columns across feed revisions,
// so the mapping is configuration rather than a constant.
type ForeignSchemaConfig struct {
	Version          int `mapstructure:"version"`
	MinFields        int `mapstructure:"min_fields"`
	SymbolIndex      int `mapstructure:"symbol_index"`
	LocalNameIndex   int `mapstructure:"local_name_index"`
	EnglishNameIndex int `mapstructure:"english_name_index"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Bind the secrets explicitly so they never have to live in the yaml file
	for key, env := range map[string]string{
		"upstream.app_key":      "UPSTREAM_APP_KEY",
		"upstream.app_secret":   "UPSTREAM_APP_SECRET",
		"remote_cache.addr":     "REMOTE_CACHE_ADDR",
		"remote_cache.password": "REMOTE_CACHE_TOKEN",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	// Upstream credentials are required outside development: without them the
	// credential exchange cannot run and every dependent price call is dead.
	if config.Environment != "development" && (config.Upstream.AppKey == "" || config.Upstream.AppSecret == "") {
		return nil, errors.New("UPSTREAM_APP_KEY and UPSTREAM_APP_SECRET are required in non-development environments")
	}

	for name, value := range map[string]string{
		"token.expiry_buffer":      config.Token.ExpiryBuffer,
		"token.lock_ttl":           config.Token.LockTTL,
		"token.lock_max_wait":      config.Token.LockMaxWait,
		"token.lock_poll_interval": config.Token.LockPoll,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return nil, fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}

	if s := config.MasterData.ForeignSchema; s.MinFields <= s.SymbolIndex || s.MinFields <= s.LocalNameIndex || s.MinFields <= s.EnglishNameIndex {
		return nil, fmt.Errorf("foreign schema v%d is inconsistent: min_fields %d does not cover all column indices", s.Version, s.MinFields)
	}

	return &config, nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Remote cache tier (disabled unless an address is configured)
	viper.SetDefault("remote_cache.addr", "")
	viper.SetDefault("remote_cache.password", "")
	viper.SetDefault("remote_cache.db", 0)

	// Local cache tier
	viper.SetDefault("local_cache.dir", ".cache/marketdata")

	// Upstream vendor API
	viper.SetDefault("upstream.base_url", "https://openapi.koreainvestment.com:9443")
	viper.SetDefault("upstream.app_key", "")
	viper.SetDefault("upstream.app_secret", "")
	viper.SetDefault("upstream.timeout", 10)

	// Token lifecycle
	viper.SetDefault("token.expiry_buffer", "10m")
	viper.SetDefault("token.lock_ttl", "30s")
	viper.SetDefault("token.lock_max_wait", "10s")
	viper.SetDefault("token.lock_poll_interval", "250ms")

	// Master data pipeline
	viper.SetDefault("master_data.domestic_urls", map[string]string{
		"kospi":  "https://new.real.download.dws.co.kr/common/master/kospi_code.mst.zip",
		"kosdaq": "https://new.real.download.dws.co.kr/common/master/kosdaq_code.mst.zip",
	})
	viper.SetDefault("master_data.foreign_urls", map[string]string{
		"nasdaq": "https://new.real.download.dws.co.kr/common/master/nasmst.cod.zip",
		"nyse":   "https://new.real.download.dws.co.kr/common/master/nysmst.cod.zip",
		"amex":   "https://new.real.download.dws.co.kr/common/master/amsmst.cod.zip",
	})
	viper.SetDefault("master_data.cache_ttl_hours", 24)
	viper.SetDefault("master_data.timeout", 30)
	viper.SetDefault("master_data.max_retries", 3)

	// Foreign feed column layout, revision 2. Revision 1 had the symbol at
	// index 3; the vendor inserted a column in a later drop.
	viper.SetDefault("master_data.foreign_schema.version", 2)
	viper.SetDefault("master_data.foreign_schema.min_fields", 8)
	viper.SetDefault("master_data.foreign_schema.symbol_index", 4)
	viper.SetDefault("master_data.foreign_schema.local_name_index", 6)
	viper.SetDefault("master_data.foreign_schema.english_name_index", 7)
}

// ExpiryBufferDuration returns the parsed token expiry buffer.
func (c TokenConfig) ExpiryBufferDuration() time.Duration {
	d, _ := time.ParseDuration(c.ExpiryBuffer)
	return d
}

// LockTTLDuration returns the parsed refresh-lock TTL.
func (c TokenConfig) LockTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.LockTTL)
	return d
}

// LockMaxWaitDuration returns the parsed bounded wait for a contended lock.
func (c TokenConfig) LockMaxWaitDuration() time.Duration {
	d, _ := time.ParseDuration(c.LockMaxWait)
	return d
}

// LockPollDuration returns the parsed poll interval used while waiting.
func (c TokenConfig) LockPollDuration() time.Duration {
	d, _ := time.ParseDuration(c.LockPoll)
	return d
}

// CacheTTL returns the master-dataset freshness window.
func (c MasterDataConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

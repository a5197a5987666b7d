package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is a stand-in for testing.T.Chdir, which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func loadWithDefaults(t *testing.T) *Config {
	t.Helper()
	viper.Reset()
	chdir(t, t.TempDir()) // no config file, defaults + env only

	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadWithDefaults(t)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)

	// Remote tier disabled out of the box
	assert.Equal(t, "", cfg.RemoteCache.Addr)
	assert.Equal(t, ".cache/marketdata", cfg.LocalCache.Dir)

	assert.Equal(t, 10*time.Minute, cfg.Token.ExpiryBufferDuration())
	assert.Equal(t, 30*time.Second, cfg.Token.LockTTLDuration())
	assert.Equal(t, 10*time.Second, cfg.Token.LockMaxWaitDuration())
	assert.Equal(t, 250*time.Millisecond, cfg.Token.LockPollDuration())

	assert.Equal(t, 24*time.Hour, cfg.MasterData.CacheTTL())
	assert.Len(t, cfg.MasterData.DomesticURLs, 2)
	assert.Len(t, cfg.MasterData.ForeignURLs, 3)
}

func TestLoad_ForeignSchemaDefaults(t *testing.T) {
	cfg := loadWithDefaults(t)

	s := cfg.MasterData.ForeignSchema
	assert.Equal(t, 2, s.Version)
	assert.Equal(t, 8, s.MinFields)
	assert.Equal(t, 4, s.SymbolIndex)
	assert.Equal(t, 6, s.LocalNameIndex)
	assert.Equal(t, 7, s.EnglishNameIndex)
}

func TestLoad_RemoteTierFromEnvironment(t *testing.T) {
	t.Setenv("REMOTE_CACHE_ADDR", "redis.internal:6379")
	t.Setenv("REMOTE_CACHE_TOKEN", "secret")

	cfg := loadWithDefaults(t)
	assert.Equal(t, "redis.internal:6379", cfg.RemoteCache.Addr)
	assert.Equal(t, "secret", cfg.RemoteCache.Password)
}

func TestLoad_ProductionRequiresCredentials(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	viper.Reset()
	chdir(t, t.TempDir())

	_, err := Load()
	assert.ErrorContains(t, err, "UPSTREAM_APP_KEY")
}

func TestLoad_ProductionWithCredentials(t *testing.T) {
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("UPSTREAM_APP_KEY", "key")
	t.Setenv("UPSTREAM_APP_SECRET", "secret")

	cfg := loadWithDefaults(t)
	assert.Equal(t, "production", cfg.Environment, "environment is normalized to lowercase")
	assert.Equal(t, "key", cfg.Upstream.AppKey)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("TOKEN_EXPIRY_BUFFER", "not-a-duration")

	viper.Reset()
	chdir(t, t.TempDir())

	_, err := Load()
	assert.ErrorContains(t, err, "token.expiry_buffer")
}

func TestLoad_InconsistentForeignSchema(t *testing.T) {
	t.Setenv("MASTER_DATA_FOREIGN_SCHEMA_MIN_FIELDS", "3")

	viper.Reset()
	chdir(t, t.TempDir())

	_, err := Load()
	assert.ErrorContains(t, err, "foreign schema")
}

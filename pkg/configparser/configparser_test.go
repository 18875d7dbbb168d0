package configparser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Database struct {
		Host string `env:"CPTEST_DATABASE_HOST" default:"localhost"`
		Port int    `env:"CPTEST_DATABASE_PORT" default:"5432"`
	}
	Timeout time.Duration `env:"CPTEST_TIMEOUT" default:"10s"`
	Debug   bool          `env:"CPTEST_DEBUG" default:"false"`
	Origins []string      `env:"CPTEST_ORIGINS" default:"http://a, http://b"`
	Ratio   float64       `env:"CPTEST_RATIO"`
}

func TestFlatten(t *testing.T) {
	t.Setenv("CPTEST_FROM_ENV", "injected")

	vars, err := Flatten([]byte(`
cptest:
  database:
    host: db.internal
    port: 6543
  origins: [http://x, http://y]
  secret: ${CPTEST_FROM_ENV:-fallback}
  other: ${CPTEST_UNSET_VAR:-fallback}
  empty:
`))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", vars["CPTEST_DATABASE_HOST"])
	assert.Equal(t, "6543", vars["CPTEST_DATABASE_PORT"])
	assert.Equal(t, "http://x,http://y", vars["CPTEST_ORIGINS"])
	assert.Equal(t, "injected", vars["CPTEST_SECRET"])
	assert.Equal(t, "fallback", vars["CPTEST_OTHER"])
	assert.NotContains(t, vars, "CPTEST_EMPTY")
}

func TestParseEnv_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, ParseEnv(&cfg))

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.False(t, cfg.Debug)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Origins)
	assert.Zero(t, cfg.Ratio)
}

func TestLoadAndParseYaml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cptest:\n  database:\n    host: yaml-host\n  timeout: 1m\n  debug: true\n"), 0o600))

	// the environment beats the file
	t.Setenv("CPTEST_DATABASE_HOST", "env-host")
	t.Setenv("CPTEST_TIMEOUT", "")
	t.Setenv("CPTEST_DEBUG", "")
	t.Cleanup(func() {
		os.Unsetenv("CPTEST_TIMEOUT")
		os.Unsetenv("CPTEST_DEBUG")
	})

	var cfg testConfig
	require.NoError(t, LoadAndParseYaml(path, &cfg))

	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.True(t, cfg.Debug)
}

func TestParseEnv_Errors(t *testing.T) {
	assert.ErrorIs(t, ParseEnv(testConfig{}), ErrNotStructPointer)

	t.Setenv("CPTEST_DATABASE_PORT", "not-a-port")
	var cfg testConfig
	err := ParseEnv(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CPTEST_DATABASE_PORT")

	assert.ErrorIs(t, LoadYamlFile(""), ErrNoFilePath)
}

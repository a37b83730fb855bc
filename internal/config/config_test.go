package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when config file is missing", func(t *testing.T) {
		t.Setenv(geminiKeyEnv, "")

		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, ":8181", cfg.Addr)
		assert.Equal(t, "₹", cfg.Currency.Symbol)
		assert.Equal(t, "5000", cfg.Budget.DefaultGoal)
		assert.Equal(t, DefaultModels, cfg.Advisor.Models)
		assert.Equal(t, 30*time.Second, cfg.Advisor.Timeout)
		assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
		assert.Empty(t, cfg.Advisor.ApiKey)
	})

	t.Run("should override defaults with yaml file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		content := `
addr: ":9000"
budget:
  defaultgoal: "1200"
advisor:
  models:
    - gemini-2.5-flash
    - " "
    - gemini-2.0-flash
  timeout: 5s
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Addr)
		assert.Equal(t, "1200", cfg.Budget.DefaultGoal)
		assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.0-flash"}, cfg.Advisor.Models)
		assert.Equal(t, 5*time.Second, cfg.Advisor.Timeout)
	})

	t.Run("should override file values with environment", func(t *testing.T) {
		// given
		t.Setenv("SPENDWISE_ADVISOR_APIKEY", "env-key")
		t.Setenv("SPENDWISE_ADVISOR_MODELS", "a-model,b-model")
		t.Setenv("SPENDWISE_CURRENCY_SYMBOL", "Rs.")

		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, "env-key", cfg.Advisor.ApiKey)
		assert.Equal(t, []string{"a-model", "b-model"}, cfg.Advisor.Models)
		assert.Equal(t, "Rs.", cfg.Currency.Symbol)
	})

	t.Run("should fall back to GEMINI_API_KEY", func(t *testing.T) {
		t.Setenv(geminiKeyEnv, " gemini-key ")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		require.NoError(t, err)
		assert.Equal(t, "gemini-key", cfg.Advisor.ApiKey)
	})

	t.Run("should fail on malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "application.yaml")
		require.NoError(t, os.WriteFile(path, []byte("addr: [unclosed"), 0o600))

		_, err := Load(path)

		assert.Error(t, err)
	})
}

func TestGoogle_Enabled(t *testing.T) {
	assert.False(t, Google{}.Enabled())
	assert.False(t, Google{ClientId: "id"}.Enabled())
	assert.True(t, Google{ClientId: "id", ClientSecret: "secret"}.Enabled())
}

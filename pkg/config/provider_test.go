package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultTestModel = "test-default-model"

func TestBuildProvider(t *testing.T) {
	// Keep ambient credentials out of the precedence chain.
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")

	t.Run("CLI flags take precedence", func(t *testing.T) {
		provider, err := BuildProvider("cli-model", "https://cli.url", "cli-key", defaultTestModel)
		require.NoError(t, err)

		assert.Equal(t, "cli-model", provider.GetModel())
		assert.Equal(t, "https://cli.url", provider.GetBaseURL())
		assert.Equal(t, "cli-key", provider.GetAPIKey())
	})

	t.Run("environment fills missing values", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "env-key")
		t.Setenv("OPENAI_BASE_URL", "https://env.url")

		provider, err := BuildProvider("", "", "", defaultTestModel)
		require.NoError(t, err)

		assert.Equal(t, defaultTestModel, provider.GetModel())
		assert.Equal(t, "https://env.url", provider.GetBaseURL())
		assert.Equal(t, "env-key", provider.GetAPIKey())
	})

	t.Run("config file fills the rest", func(t *testing.T) {
		require.NoError(t, Initialize(filepath.Join(t.TempDir(), "config.json")))
		llmCfg := GetLLM()
		require.NotNil(t, llmCfg)
		t.Cleanup(llmCfg.Reset)

		llmCfg.SetModel("cfg-model")
		llmCfg.SetBaseURL("https://cfg.url")
		llmCfg.SetAPIKey("cfg-key")

		// The flag default does not shadow the configured model.
		provider, err := BuildProvider(defaultTestModel, "", "", defaultTestModel)
		require.NoError(t, err)

		assert.Equal(t, "cfg-model", provider.GetModel())
		assert.Equal(t, "https://cfg.url", provider.GetBaseURL())
		assert.Equal(t, "cfg-key", provider.GetAPIKey())
	})

	t.Run("missing API key is an error", func(t *testing.T) {
		_, err := BuildProvider("", "", "", defaultTestModel)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key is required")
	})
}

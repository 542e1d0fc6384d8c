package config

import (
	"fmt"
	"os"

	"github.com/lexhq/counsel/pkg/llm/openai"
)

// BuildProvider resolves the generation backend settings and constructs the
// provider. Explicit CLI values win, then environment variables, then the
// config file; the model falls back to defaultModel when nothing names one.
func BuildProvider(cliModel, cliBaseURL, cliAPIKey, defaultModel string) (*openai.Provider, error) {
	var cfgModel, cfgBaseURL, cfgAPIKey string
	if llmCfg := GetLLM(); llmCfg != nil {
		cfgModel = llmCfg.GetModel()
		cfgBaseURL = llmCfg.GetBaseURL()
		cfgAPIKey = llmCfg.GetAPIKey()
	}

	// A CLI model equal to the default is treated as "not chosen", so a
	// configured model still wins over the flag's default value.
	model := cliModel
	if model == "" || model == defaultModel {
		model = firstNonEmpty(cfgModel, defaultModel)
	}

	baseURL := firstNonEmpty(cliBaseURL, os.Getenv("OPENAI_BASE_URL"), cfgBaseURL)
	apiKey := firstNonEmpty(cliAPIKey, os.Getenv("OPENAI_API_KEY"), cfgAPIKey)

	if apiKey == "" {
		return nil, fmt.Errorf("API key is required: set OPENAI_API_KEY, pass -api-key, or configure it in ~/.counsel/config.json")
	}

	opts := []openai.ProviderOption{openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	provider, err := openai.NewProvider(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	return provider, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

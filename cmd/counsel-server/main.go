// Package main provides the counsel conversational legal-assistant server.
// It exposes an HTTP API where each client session carries its own case
// state; every incoming message runs one orchestrated turn against the
// configured LLM backend and persists the updated state.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lexhq/counsel/pkg/api"
	appconfig "github.com/lexhq/counsel/pkg/config"
	"github.com/lexhq/counsel/pkg/knowledge"
	"github.com/lexhq/counsel/pkg/llm/openai"
	"github.com/lexhq/counsel/pkg/logging"
	"github.com/lexhq/counsel/pkg/orchestrator"
	"github.com/lexhq/counsel/pkg/prompt"
	"github.com/lexhq/counsel/pkg/session"
)

const (
	version     = "0.1.0"
	defaultPort = "8080"
)

// Config holds the application configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Port        string
	PromptDir   string
	ConfigPath  string
	ShowVersion bool
}

func main() {
	// Environment files are optional; real env vars win either way.
	_ = godotenv.Load()

	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("counsel-server v%s\n", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

// parseFlags parses command line flags and environment variables
func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.APIKey, "api-key", os.Getenv("OPENAI_API_KEY"), "OpenAI API key (or set OPENAI_API_KEY env var)")
	flag.StringVar(&config.BaseURL, "base-url", os.Getenv("OPENAI_BASE_URL"), "OpenAI API base URL (or set OPENAI_BASE_URL env var)")
	flag.StringVar(&config.Model, "model", openai.DefaultModel, "LLM model to use")
	flag.StringVar(&config.Port, "port", envOr("PORT", defaultPort), "HTTP listen port")
	flag.StringVar(&config.PromptDir, "prompts", "", "Prompt fragment directory (overrides configured sources)")
	flag.StringVar(&config.ConfigPath, "config", "", "Config file path (default: ~/.counsel/config.json)")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "counsel-server v%s - conversational legal assistant backend\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()
	return config
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(ctx context.Context, config *Config) error {
	logger, err := logging.NewLogger("server")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	if err := appconfig.Initialize(config.ConfigPath); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}
	for _, section := range appconfig.Global().GetSections() {
		logger.Debugf("config section loaded: %s (%s)", section.ID(), section.Title())
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user home directory: %w", err)
	}
	counselHome := filepath.Join(homeDir, ".counsel")

	// Knowledge base: CLI flag, then config, then ~/.counsel/prompts.
	knowledgeCfg := appconfig.GetKnowledge()
	sources := knowledgeCfg.GetSources()
	if config.PromptDir != "" {
		sources = []string{config.PromptDir}
	}
	if len(sources) == 0 {
		sources = []string{filepath.Join(counselHome, "prompts")}
	}

	cacheOpts := []knowledge.Option{}
	if includes := knowledgeCfg.GetIncludes(); len(includes) > 0 {
		cacheOpts = append(cacheOpts, knowledge.WithIncludes(includes))
	}
	cache, err := knowledge.NewCache(sources, cacheOpts...)
	if err != nil {
		return fmt.Errorf("failed to create knowledge cache: %w", err)
	}
	if err := cache.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize knowledge cache: %w", err)
	}
	logger.Infof("knowledge cache ready: %d fragments from %v", cache.Len(), sources)

	store, err := buildStore(counselHome)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	provider, err := appconfig.BuildProvider(config.Model, config.BaseURL, config.APIKey, openai.DefaultModel)
	if err != nil {
		return err
	}
	logger.Infof("LLM provider ready: model=%s", provider.GetModel())

	assemblerOpts := []prompt.Option{}
	if rootKey := knowledgeCfg.GetRootKey(); rootKey != "" {
		assemblerOpts = append(assemblerOpts, prompt.WithRootKey(rootKey))
	}
	if personaKey := knowledgeCfg.GetPersonaKey(); personaKey != "" {
		assemblerOpts = append(assemblerOpts, prompt.WithPersonaKey(personaKey))
	}
	assembler := prompt.NewAssembler(cache, assemblerOpts...)

	orch := orchestrator.New(store, assembler, provider)
	router := api.NewRouter(api.NewHandler(orch, store))

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("listening on :%s", config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	return nil
}

// buildStore selects the session backend from configuration.
func buildStore(counselHome string) (session.Store, error) {
	storageCfg := appconfig.GetStorage()

	switch storageCfg.GetBackend() {
	case appconfig.BackendSQLite:
		dbPath := storageCfg.GetDBPath()
		if dbPath == "" {
			dbPath = filepath.Join(counselHome, "sessions.db")
		}
		return session.NewSQLiteStore(dbPath)
	default:
		dataDir := storageCfg.GetDataDir()
		if dataDir == "" {
			dataDir = filepath.Join(counselHome, "sessions")
		}
		return session.NewFileStore(dataDir)
	}
}

// Command girder retrieves construction safety guidance for incident
// analysis. It wires the adapters selected by configuration into the
// core services and hands control to the CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hardhat-labs/girder-cli/internal/adapters/driven/config/file"
	embollama "github.com/hardhat-labs/girder-cli/internal/adapters/driven/embedding/ollama"
	embopenai "github.com/hardhat-labs/girder-cli/internal/adapters/driven/embedding/openai"
	indexmemory "github.com/hardhat-labs/girder-cli/internal/adapters/driven/index/memory"
	"github.com/hardhat-labs/girder-cli/internal/adapters/driven/index/snapshot"
	llmollama "github.com/hardhat-labs/girder-cli/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/hardhat-labs/girder-cli/internal/adapters/driven/llm/openai"
	"github.com/hardhat-labs/girder-cli/internal/adapters/driven/reranker/httpapi"
	storagememory "github.com/hardhat-labs/girder-cli/internal/adapters/driven/storage/memory"
	"github.com/hardhat-labs/girder-cli/internal/adapters/driven/storage/sqlite"
	"github.com/hardhat-labs/girder-cli/internal/adapters/driven/websearch/googlecse"
	"github.com/hardhat-labs/girder-cli/internal/adapters/driven/websearch/tavily"
	"github.com/hardhat-labs/girder-cli/internal/adapters/driving/cli"
	"github.com/hardhat-labs/girder-cli/internal/adapters/driving/tui"
	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
	"github.com/hardhat-labs/girder-cli/internal/core/services"
	"github.com/hardhat-labs/girder-cli/internal/logger"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "girder: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	config, err := file.NewConfigStore(os.Getenv("GIRDER_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	catalogStore, err := file.NewCatalogStore(config.GetString("catalog.path"))
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}

	catalog, err := catalogStore.Load(ctx)
	if err != nil {
		// An unusable catalog means every query would route blind.
		return fmt.Errorf("loading partition catalog: %w", err)
	}

	// Warn-only watcher: catalog edits require a restart.
	go func() {
		if err := catalogStore.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Catalog watcher stopped: %v", err)
		}
	}()

	sessions := openSessionStore(config)
	defer sessions.Close()

	partitions, err := snapshot.Load(snapshotDir(config))
	if err != nil {
		logger.Warn("Loading partition indexes: %v; retrieval will return no documents", err)
		partitions = indexmemory.NewPartitionStore()
	}

	embedder := buildEmbedder(config)
	reasoning := buildReasoning(config)
	rerankPool := buildRerankPool(config)
	web := buildWebSearch(ctx, config)
	if web != nil {
		defer web.Close()
	}

	opts := domain.RetrieveOptions{
		TopK:  config.GetInt("retrieval.top_k"),
		Alpha: config.GetFloat("retrieval.alpha"),
	}

	retriever := services.NewRetrieverService(partitions, embedder, rerankPool)
	router := services.NewRouterService(catalog, reasoning)

	var feedback driven.FeedbackChannel
	if cli.Interactive() {
		if config.GetString("feedback.mode") == "plain" {
			feedback = cli.NewTerminalFeedback(os.Stdin, os.Stdout)
		} else {
			feedback = tui.NewFeedbackChannel()
		}
	}

	loop := services.NewLoopController(retriever, catalog, feedback, reasoning, opts)
	orchestrator := services.NewOrchestratorService(router, retriever, loop, reasoning, web, sessions, opts)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Session:   orchestrator,
		Retrieval: retriever,
		Router:    router,
		Store:     sessions,
		Catalog:   catalog,
	})

	return cli.Execute()
}

// openSessionStore opens the SQLite store, degrading to in-memory
// sessions when the database cannot be opened. Suspended sessions then
// do not survive the process, which is better than refusing to start.
func openSessionStore(config *file.ConfigStore) driven.SessionStore {
	store, err := sqlite.NewStore(config.GetString("storage.data_dir"))
	if err != nil {
		logger.Warn("Opening session database: %v; sessions will not survive restarts", err)
		return storagememory.NewSessionStore()
	}
	return store
}

func snapshotDir(config *file.ConfigStore) string {
	if dir := config.GetString("index.snapshot_dir"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "snapshots"
	}
	return filepath.Join(home, ".girder", "snapshots")
}

func buildEmbedder(config *file.ConfigStore) driven.EmbeddingService {
	switch config.GetString("embedding.provider") {
	case "ollama":
		return embollama.NewEmbeddingService(embollama.Config{
			BaseURL:    config.GetString("embedding.base_url"),
			Model:      config.GetString("embedding.model"),
			Dimensions: config.GetInt("embedding.dimensions"),
		})
	case "openai":
		service, err := embopenai.NewEmbeddingService(embopenai.Config{
			APIKey:     apiKey(config, "embedding.api_key", "OPENAI_API_KEY"),
			BaseURL:    config.GetString("embedding.base_url"),
			Model:      config.GetString("embedding.model"),
			Dimensions: config.GetInt("embedding.dimensions"),
		})
		if err != nil {
			logger.Warn("Embedding provider unavailable: %v; retrieval is lexical-only", err)
			return nil
		}
		return service
	default:
		logger.Info("No embedding provider configured; retrieval is lexical-only")
		return nil
	}
}

func buildReasoning(config *file.ConfigStore) driven.ReasoningService {
	switch config.GetString("llm.provider") {
	case "ollama":
		return llmollama.NewReasoningService(llmollama.Config{
			BaseURL: config.GetString("llm.base_url"),
			Model:   config.GetString("llm.model"),
		})
	case "openai":
		service, err := llmopenai.NewReasoningService(llmopenai.Config{
			APIKey:  apiKey(config, "llm.api_key", "OPENAI_API_KEY"),
			BaseURL: config.GetString("llm.base_url"),
			Model:   config.GetString("llm.model"),
		})
		if err != nil {
			logger.Warn("Reasoning provider unavailable: %v; rule tables decide stages", err)
			return nil
		}
		return service
	default:
		logger.Info("No reasoning provider configured; rule tables decide stages")
		return nil
	}
}

func buildRerankPool(config *file.ConfigStore) *services.RerankPool {
	baseURL := config.GetString("reranker.base_url")
	if baseURL == "" {
		logger.Info("No reranker configured; fusion order stands")
		return nil
	}

	reranker := httpapi.NewReranker(httpapi.Config{
		BaseURL: baseURL,
		Model:   config.GetString("reranker.model"),
		APIKey:  apiKey(config, "reranker.api_key", "RERANKER_API_KEY"),
	})
	return services.NewRerankPool(reranker, config.GetInt("reranker.workers"))
}

func buildWebSearch(ctx context.Context, config *file.ConfigStore) driven.WebSearchService {
	switch config.GetString("websearch.provider") {
	case "tavily":
		service, err := tavily.NewWebSearchService(tavily.Config{
			APIKey:      apiKey(config, "websearch.api_key", "TAVILY_API_KEY"),
			QuerySuffix: config.GetString("websearch.query_suffix"),
		})
		if err != nil {
			logger.Warn("Web search unavailable: %v; escalation is refused", err)
			return nil
		}
		return service
	case "googlecse":
		service, err := googlecse.NewWebSearchService(ctx, googlecse.Config{
			APIKey:      apiKey(config, "websearch.api_key", "GOOGLE_API_KEY"),
			EngineID:    config.GetString("websearch.engine_id"),
			QuerySuffix: config.GetString("websearch.query_suffix"),
		})
		if err != nil {
			logger.Warn("Web search unavailable: %v; escalation is refused", err)
			return nil
		}
		return service
	default:
		return nil
	}
}

// apiKey reads a credential from config, falling back to an
// environment variable.
func apiKey(config *file.ConfigStore, key, env string) string {
	if v := config.GetString(key); v != "" {
		return v
	}
	return os.Getenv(env)
}

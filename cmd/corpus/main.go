// Command corpus is the entry point for the Corpus CLI.
// It wires the store adapter, the strategy registries and the core
// services, then hands control to the command tree.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/loomworks/corpus-cli/internal/adapters/driven/config/file"
	"github.com/loomworks/corpus-cli/internal/adapters/driven/embedding/ollama"
	"github.com/loomworks/corpus-cli/internal/adapters/driven/embedding/openai"
	"github.com/loomworks/corpus-cli/internal/adapters/driven/store/embedded"
	"github.com/loomworks/corpus-cli/internal/adapters/driven/store/weaviate"
	"github.com/loomworks/corpus-cli/internal/adapters/driving/cli"
	"github.com/loomworks/corpus-cli/internal/chunkers/sentence"
	"github.com/loomworks/corpus-cli/internal/chunkers/word"
	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
	"github.com/loomworks/corpus-cli/internal/core/services"
	"github.com/loomworks/corpus-cli/internal/logger"
	"github.com/loomworks/corpus-cli/internal/readers/github"
	"github.com/loomworks/corpus-cli/internal/readers/markdown"
	"github.com/loomworks/corpus-cli/internal/readers/plaintext"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; explicit environment wins anyway.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	store, remote, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	readers, chunkers, embedders := buildRegistries(ctx, cfg)

	schema := services.NewSchemaCoordinator(store, embedders)
	ingest := services.NewIngestService(readers, chunkers, embedders, store, schema)
	catalog := services.NewRetrievalService(store, embedders)

	caps := detectCapabilities(ctx, cfg, embedders, remote)

	// Missing classes are created up front so the first import does not
	// race schema creation. A failure here is logged, not fatal; the
	// pipeline re-ensures the schema it needs before writing.
	if err := schema.EnsureAllKnownSchemas(ctx); err != nil {
		logger.Warn("Schema preparation incomplete: %v", err)
	}

	cli.SetVersion(version)
	cli.Configure(cli.Services{
		Ingestor:  ingest,
		Catalog:   catalog,
		Schema:    schema,
		Readers:   readers,
		Chunkers:  chunkers,
		Embedders: embedders,
		Config:    cfg,
		Caps:      caps,
	})

	return cli.Execute()
}

// openStore picks the store adapter: a remote instance when a URL is
// configured, the embedded database otherwise. The choice is fixed for
// the process lifetime.
func openStore(ctx context.Context, cfg driven.ConfigStore) (driven.StoreClient, bool, error) {
	url := setting(cfg, "CORPUS_URL", "store.url")
	if url == "" {
		dataDir := setting(cfg, "CORPUS_DATA_DIR", "store.data_dir")
		store, err := embedded.NewStore(dataDir)
		if err != nil {
			return nil, false, fmt.Errorf("open embedded store: %w", err)
		}
		logger.Info("Using embedded store at %s", store.Path())
		return store, false, nil
	}

	headers := map[string]string{}
	if key := setting(cfg, "OPENAI_API_KEY", "openai.api_key"); key != "" {
		headers["X-OpenAI-Api-Key"] = key
	}

	client, err := weaviate.NewClient(ctx, weaviate.Config{
		URL:     url,
		APIKey:  setting(cfg, "CORPUS_API_KEY", "store.api_key"),
		Headers: headers,
	})
	if err != nil {
		return nil, false, fmt.Errorf("connect to store: %w", err)
	}
	logger.Info("Connected to remote store at %s", url)
	return client, true, nil
}

// buildRegistries registers every available strategy and selects the
// defaults. Explicit selection by the user replaces these.
func buildRegistries(ctx context.Context, cfg driven.ConfigStore) (
	*services.Registry[driven.Reader],
	*services.Registry[driven.Chunker],
	*services.Registry[driven.Embedder],
) {
	readers := services.NewRegistry[driven.Reader]("reader")
	readers.Register("plaintext", plaintext.New())
	readers.Register("markdown", markdown.New())
	readers.Register("github", github.New(ctx, setting(cfg, "GITHUB_TOKEN", "github.token")))

	chunkers := services.NewRegistry[driven.Chunker]("chunker")
	chunkers.Register("word", word.New())
	chunkers.Register("sentence", sentence.New())

	embedders := services.NewRegistry[driven.Embedder]("embedder")
	embedders.Register("ollama", ollama.NewEmbedder(ollama.Config{
		BaseURL: setting(cfg, "OLLAMA_URL", "ollama.url"),
		Model:   setting(cfg, "OLLAMA_MODEL", "ollama.model"),
	}))

	defaultEmbedder := "ollama"
	if key := setting(cfg, "OPENAI_API_KEY", "openai.api_key"); key != "" {
		emb, err := openai.NewEmbedder(openai.Config{
			APIKey: key,
			Model:  setting(cfg, "OPENAI_EMBED_MODEL", "openai.model"),
		})
		if err == nil {
			embedders.Register("openai", emb)
			defaultEmbedder = "openai"
		}
	}

	// Defaults cannot fail: the names were just registered.
	_ = readers.Select("plaintext")       //nolint:errcheck
	_ = chunkers.Select("word")           //nolint:errcheck
	_ = embedders.Select(defaultEmbedder) //nolint:errcheck

	return readers, chunkers, embedders
}

// detectCapabilities probes optional features once at startup.
func detectCapabilities(
	ctx context.Context,
	cfg driven.ConfigStore,
	embedders *services.Registry[driven.Embedder],
	remote bool,
) domain.Capabilities {
	probes := map[string]services.CapabilityProbe{
		domain.CapOpenAIKey:   services.StaticProbe(setting(cfg, "OPENAI_API_KEY", "openai.api_key") != ""),
		domain.CapGitHubToken: services.StaticProbe(setting(cfg, "GITHUB_TOKEN", "github.token") != ""),
		domain.CapRemoteStore: services.StaticProbe(remote),
	}
	if emb, ok := embedders.Available()["ollama"]; ok {
		if pinger, ok := emb.(interface{ Ping(context.Context) error }); ok {
			probes[domain.CapOllama] = services.PingProbe(pinger)
		}
	}
	return services.DetectCapabilities(ctx, probes)
}

// setting reads a value from the environment first, then the config
// file.
func setting(cfg driven.ConfigStore, envKey, cfgKey string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return cfg.GetString(cfgKey)
}

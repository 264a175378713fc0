// Package cli provides the cobra command tree for the Corpus CLI.
// Commands talk to the core exclusively through the driving ports and
// the strategy registries; wiring happens in the composition root.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
	"github.com/loomworks/corpus-cli/internal/core/ports/driving"
	"github.com/loomworks/corpus-cli/internal/core/services"
	"github.com/loomworks/corpus-cli/internal/logger"
)

// version is set by the composition root at startup.
var version = "dev"

// Services injected by the composition root.
var (
	ingestService    driving.Ingestor
	catalogService   driving.Catalog
	schemaService    *services.SchemaCoordinator
	readerRegistry   *services.Registry[driven.Reader]
	chunkerRegistry  *services.Registry[driven.Chunker]
	embedderRegistry *services.Registry[driven.Embedder]
	configStore      driven.ConfigStore
	capabilities     domain.Capabilities
)

// verboseFlag toggles debug logging for all commands.
var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Corpus - document ingestion for vector search",
	Long: `Corpus ingests documents into a vector store.

Each import runs a four-stage pipeline: read, chunk, embed, persist.
Readers, chunkers and embedding backends are pluggable strategies;
use 'corpus strategy list' to see what is available.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose logging")
}

// Services bundles everything the command tree needs.
type Services struct {
	Ingestor  driving.Ingestor
	Catalog   driving.Catalog
	Schema    *services.SchemaCoordinator
	Readers   *services.Registry[driven.Reader]
	Chunkers  *services.Registry[driven.Chunker]
	Embedders *services.Registry[driven.Embedder]
	Config    driven.ConfigStore
	Caps      domain.Capabilities
}

// Configure injects the wired services. Must be called before Execute.
func Configure(s Services) {
	ingestService = s.Ingestor
	catalogService = s.Catalog
	schemaService = s.Schema
	readerRegistry = s.Readers
	chunkerRegistry = s.Chunkers
	embedderRegistry = s.Embedders
	configStore = s.Config
	capabilities = s.Caps
}

// SetVersion sets the version string shown by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

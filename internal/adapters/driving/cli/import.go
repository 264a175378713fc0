package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driving"
)

var (
	importType     string
	importReader   string
	importChunker  string
	importEmbedder string
	importUnits    int
	importOverlap  int
	importText     string
	importName     string
)

var importCmd = &cobra.Command{
	Use:   "import [paths...]",
	Short: "Import documents into the store",
	Long: `Import documents through the read, chunk, embed, persist pipeline.

Positional arguments are files or directories; directories are walked
recursively. Inline content can be supplied with --text and --name
instead of paths. Malformed inputs fail individually without aborting
the batch; an embedding or persistence failure fails the whole batch.

Examples:
  corpus import notes.txt docs/
  corpus import --type markdown README.md
  corpus import --name greeting --text "Hello world"
  corpus import --reader github --name readme --text golang/go/README.md`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importType, "type", "t", "plain", "Document type (plain, markdown, code, documentation)")
	importCmd.Flags().StringVar(&importReader, "reader", "", "Reader strategy to select for this import")
	importCmd.Flags().StringVar(&importChunker, "chunker", "", "Chunker strategy to select for this import")
	importCmd.Flags().StringVar(&importEmbedder, "embedder", "", "Embedding backend to select for this import")
	importCmd.Flags().IntVar(&importUnits, "units", 100, "Chunk size in the chunker's units")
	importCmd.Flags().IntVar(&importOverlap, "overlap", 50, "Units shared between consecutive chunks")
	importCmd.Flags().StringVar(&importText, "text", "", "Inline content to import instead of paths")
	importCmd.Flags().StringVar(&importName, "name", "", "Document name for inline content")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := selectStrategies(); err != nil {
		return err
	}

	inputs, err := collectInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errors.New("nothing to import: pass paths or --text")
	}

	docType, err := domain.ParseDocumentType(importType)
	if err != nil {
		return err
	}

	result, err := ingestService.ImportBatch(cmd.Context(), driving.ImportRequest{
		Inputs:       inputs,
		Type:         docType,
		ChunkUnits:   importUnits,
		ChunkOverlap: importOverlap,
	})
	if err != nil {
		var batchErr *domain.BatchError
		if errors.As(err, &batchErr) {
			printBatchError(cmd, batchErr)
		}
		return err
	}

	printImportResult(cmd, result)
	return nil
}

// selectStrategies applies the per-invocation strategy flags.
func selectStrategies() error {
	if importReader != "" {
		if err := readerRegistry.Select(importReader); err != nil {
			return err
		}
	}
	if importChunker != "" {
		if err := chunkerRegistry.Select(importChunker); err != nil {
			return err
		}
	}
	if importEmbedder != "" {
		if err := embedderRegistry.Select(importEmbedder); err != nil {
			return err
		}
	}
	return nil
}

// collectInputs turns args and flags into the raw input batch.
// Directories are walked recursively; unreadable entries surface later
// as per-input read failures, not here.
func collectInputs(paths []string) ([]domain.RawInput, error) {
	var inputs []domain.RawInput

	if importText != "" {
		if importName == "" {
			return nil, errors.New("--text requires --name")
		}
		inputs = append(inputs, domain.TextInput(importName, importText))
	}

	for _, path := range paths {
		expanded, err := walkFiles(path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, expanded...)
	}
	return inputs, nil
}

// walkFiles lists regular files under a path.
func walkFiles(path string) ([]domain.RawInput, error) {
	var inputs []domain.RawInput
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			inputs = append(inputs, domain.PathInput(p))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	return inputs, nil
}

func printImportResult(cmd *cobra.Command, result *domain.ImportResult) {
	for _, doc := range result.Documents {
		cmd.Printf("  %s  %s (%d chunks)\n", doc.ID, doc.Name, len(doc.Chunks))
	}

	for _, f := range result.ReadFailures {
		cmd.Printf("  read failed: %s: %v\n", f.Input, f.Err)
	}
	for _, f := range result.ChunkFailures {
		cmd.Printf("  chunk failed: %s: %v\n", f.Document, f.Err)
	}

	cmd.Printf("\nImported %d document(s), %d failure(s)\n",
		len(result.Documents), len(result.ReadFailures)+len(result.ChunkFailures))
}

func printBatchError(cmd *cobra.Command, batchErr *domain.BatchError) {
	for _, f := range batchErr.ReadFailures {
		cmd.Printf("  read failed: %s: %v\n", f.Input, f.Err)
	}
	for _, f := range batchErr.ChunkFailures {
		cmd.Printf("  chunk failed: %s: %v\n", f.Document, f.Err)
	}
	for _, f := range batchErr.DocumentFailures {
		cmd.Printf("  embed/persist failed: %s: %v\n", f.Document, f.Err)
	}
}

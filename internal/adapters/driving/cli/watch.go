package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driving"
	"github.com/loomworks/corpus-cli/internal/logger"
)

// watchDebounce coalesces bursts of filesystem events for the same
// file into a single import.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and import changed files",
	Long: `Watch a directory and import files as they are created or modified.

Each changed file goes through the full import pipeline with the
currently selected strategies. Failures for one file never stop the
watch. Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&importType, "type", "t", "plain", "Document type for imported files")
	watchCmd.Flags().IntVar(&importUnits, "units", 100, "Chunk size in the chunker's units")
	watchCmd.Flags().IntVar(&importOverlap, "overlap", 50, "Units shared between consecutive chunks")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	docType, err := domain.ParseDocumentType(importType)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := args[0]
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)

	// pending maps paths to debounce timers; expiry triggers import.
	pending := make(map[string]*time.Timer)
	imports := make(chan string)

	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			logger.Debug("Watch event: %s", event)

			path := event.Name
			if timer, exists := pending[path]; exists {
				timer.Reset(watchDebounce)
				continue
			}
			pending[path] = time.AfterFunc(watchDebounce, func() {
				select {
				case imports <- path:
				case <-ctx.Done():
				}
			})

		case path := <-imports:
			delete(pending, path)
			importWatchedFile(cmd, path, docType)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmd.Printf("watch error: %v\n", err)
		}
	}
}

// importWatchedFile imports a single changed file, reporting failures
// without stopping the watch.
func importWatchedFile(cmd *cobra.Command, path string, docType domain.DocumentType) {
	result, err := ingestService.ImportBatch(cmd.Context(), driving.ImportRequest{
		Inputs:       []domain.RawInput{domain.PathInput(path)},
		Type:         docType,
		ChunkUnits:   importUnits,
		ChunkOverlap: importOverlap,
	})
	if err != nil {
		cmd.Printf("  import failed: %s: %v\n", path, err)
		return
	}

	for _, doc := range result.Documents {
		cmd.Printf("  imported %s (%d chunks)\n", doc.Name, len(doc.Chunks))
	}
	for _, f := range result.ReadFailures {
		cmd.Printf("  read failed: %s: %v\n", f.Input, f.Err)
	}
	for _, f := range result.ChunkFailures {
		cmd.Printf("  chunk failed: %s: %v\n", f.Document, f.Err)
	}
}

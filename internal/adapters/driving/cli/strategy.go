package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Manage pipeline strategies",
	Long: `List and select the strategies the import pipeline uses.

Each stage (reader, chunker, embedder) has its own independent
registry with exactly one active strategy.`,
}

var strategyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available strategies",
	RunE:  runStrategyList,
}

var strategySelectCmd = &cobra.Command{
	Use:   "select [stage] [name]",
	Short: "Select the active strategy for a stage",
	Long: `Select the active strategy for one stage.

Stages: reader, chunker, embedder.

Examples:
  corpus strategy select reader markdown
  corpus strategy select embedder ollama`,
	Args: cobra.ExactArgs(2),
	RunE: runStrategySelect,
}

func init() {
	strategyCmd.AddCommand(strategyListCmd)
	strategyCmd.AddCommand(strategySelectCmd)
	rootCmd.AddCommand(strategyCmd)
}

func runStrategyList(cmd *cobra.Command, _ []string) error {
	if readerRegistry == nil || chunkerRegistry == nil || embedderRegistry == nil {
		return errors.New("registries not configured")
	}

	printRegistry(cmd, "Readers", names(readerRegistry.Available()), selectedName(readerRegistry.Selected()))
	printRegistry(cmd, "Chunkers", names(chunkerRegistry.Available()), selectedName(chunkerRegistry.Selected()))
	printRegistry(cmd, "Embedders", names(embedderRegistry.Available()), selectedName(embedderRegistry.Selected()))

	if len(capabilities) > 0 {
		cmd.Println("Capabilities:")
		for _, name := range sortedKeys(capabilities) {
			state := "unavailable"
			if capabilities[name] {
				state = "available"
			}
			cmd.Printf("  %-16s %s\n", name, state)
		}
	}
	return nil
}

func runStrategySelect(cmd *cobra.Command, args []string) error {
	if readerRegistry == nil || chunkerRegistry == nil || embedderRegistry == nil {
		return errors.New("registries not configured")
	}
	stage, name := args[0], args[1]

	var err error
	switch stage {
	case "reader":
		err = readerRegistry.Select(name)
	case "chunker":
		err = chunkerRegistry.Select(name)
	case "embedder":
		err = embedderRegistry.Select(name)
	default:
		return fmt.Errorf("unknown stage %q: want reader, chunker or embedder", stage)
	}
	if err != nil {
		return err
	}

	cmd.Printf("Selected %s %q\n", stage, name)
	return nil
}

// printRegistry shows one registry with its active entry marked.
func printRegistry(cmd *cobra.Command, title string, available []string, active string) {
	cmd.Printf("%s:\n", title)
	for _, name := range available {
		marker := " "
		if name == active {
			marker = "*"
		}
		cmd.Printf("  %s %s\n", marker, name)
	}
	cmd.Println()
}

// names returns the sorted names of a registry's entries.
func names[T any](entries map[string]T) []string {
	out := make([]string, 0, len(entries))
	for name := range entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// selectedName flattens the (name, ok) pair from a registry.
func selectedName(name string, ok bool) string {
	if !ok {
		return ""
	}
	return name
}

// sortedKeys returns map keys in stable order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var schemaForce bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage storage classes",
	Long: `Inspect and maintain the storage classes backing each embedding
backend. Class creation is idempotent; running ensure twice is safe.`,
}

var schemaEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create missing storage classes",
	Long: `Create the storage classes for every registered embedding backend.
Existing classes are verified, not touched. With --force, classes are
dropped and recreated, destroying their objects.`,
	RunE: runSchemaEnsure,
}

var schemaCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count objects per storage class",
	RunE:  runSchemaCount,
}

func init() {
	schemaEnsureCmd.Flags().BoolVar(&schemaForce, "force", false, "Drop and recreate existing classes")

	schemaCmd.AddCommand(schemaEnsureCmd)
	schemaCmd.AddCommand(schemaCountCmd)
	rootCmd.AddCommand(schemaCmd)
}

func runSchemaEnsure(cmd *cobra.Command, _ []string) error {
	if schemaService == nil || embedderRegistry == nil {
		return errors.New("schema service not configured")
	}

	if !schemaForce {
		if err := schemaService.EnsureAllKnownSchemas(cmd.Context()); err != nil {
			return fmt.Errorf("ensure schemas: %w", err)
		}
		cmd.Println("Storage classes are in place.")
		return nil
	}

	for _, emb := range embedderRegistry.Available() {
		if err := schemaService.EnsureSchema(cmd.Context(), emb.VectorizerID(), emb.Dimensions(), true); err != nil {
			return fmt.Errorf("recreate schema for %s: %w", emb.VectorizerID(), err)
		}
		cmd.Printf("Recreated classes for %s\n", emb.VectorizerID())
	}
	return nil
}

func runSchemaCount(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	counts, err := catalogService.CountObjectsPerClass(cmd.Context())
	if err != nil {
		return fmt.Errorf("count objects: %w", err)
	}

	if len(counts) == 0 {
		cmd.Println("No storage classes exist.")
		return nil
	}

	classes := make([]string, 0, len(counts))
	for class := range counts {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		cmd.Printf("  %-40s %d\n", class, counts[class])
	}
	return nil
}

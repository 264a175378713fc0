package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all stored data",
	Long: `Delete every storage class and every object in the store.

This is irreversible. The command asks for confirmation unless --force
is given.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	if !resetForce {
		cmd.Print("This deletes ALL stored documents and chunks. Type 'yes' to continue: ")
		reader := bufio.NewReader(os.Stdin)
		input, _ := reader.ReadString('\n') //nolint:errcheck // CLI prompt, error means no confirmation
		if strings.TrimSpace(input) != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := catalogService.DeleteAll(cmd.Context()); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}

	cmd.Println("Store reset.")
	return nil
}

package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge <source-id>",
	Short: "Remove every stored document of a source",
	Long: `Purge deletes all documents and chunks stored for a source.
Run "sercha-kb ingest <source-id>" afterwards to rebuild them.`,
	Args: cobra.ExactArgs(1),
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	n, err := ingestionService.PurgeSource(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	cmd.Printf("Removed %d document(s) from %s\n", n, args[0])
	return nil
}

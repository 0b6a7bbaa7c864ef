package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect configured sources",
	Long:  `Commands for inspecting the configured scrape sources.`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	Long: `List every configured source with its base URL, page count and the
number of documents currently stored for it.`,
	Args: cobra.NoArgs,
	RunE: runSourcesList,
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	sources, err := sourceService.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		cmd.Println("No sources configured.")
		return nil
	}

	for i := range sources {
		src := &sources[i]
		cmd.Printf("%s  %s\n", src.ID, src.DisplayName())
		cmd.Printf("  Base URL: %s\n", src.BaseURL)
		cmd.Printf("  Pages:    %d\n", len(src.Paths))
		if documentService != nil {
			docs, err := documentService.ListBySource(cmd.Context(), src.ID)
			if err != nil {
				return err
			}
			cmd.Printf("  Stored:   %d document(s)\n", len(docs))
		}
		if ingestionService != nil {
			if st, err := ingestionService.Status(cmd.Context(), src.ID); err == nil && st.Running {
				cmd.Printf("  Ingesting: %d processed, %d error(s)\n", st.DocumentsProcessed, st.ErrorCount)
			}
		}
	}

	if documentService != nil {
		stats, err := documentService.Stats(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("\nTotal: %d document(s), %d chunk(s), %d embedded\n",
			stats.Documents, stats.Chunks, stats.EmbeddedChunks)
	}
	return nil
}

package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [source-id]",
	Short: "Scrape, chunk and embed source documents",
	Long: `Ingest fetches every page of a configured source, extracts the text,
splits it into chunks, embeds them and stores the result.

Without a source ID every configured source is ingested in order.
Pages that fail are skipped and reported at the end.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	progress := func(status string) {
		cmd.Println(status)
	}

	if len(args) == 1 {
		report, err := ingestionService.ScrapeSource(cmd.Context(), args[0], progress)
		if report != nil {
			printReport(cmd, report)
		}
		return err
	}

	reports, err := ingestionService.ScrapeAll(cmd.Context(), progress)
	total := 0
	for i := range reports {
		printReport(cmd, &reports[i])
		total += reports[i].Documents
	}
	if len(reports) > 1 {
		cmd.Printf("\nTotal: %d document(s) from %d source(s)\n", total, len(reports))
	}
	return err
}

func printReport(cmd *cobra.Command, r *domain.IngestReport) {
	cmd.Printf("\n%s: %d document(s) stored, %d failed", r.SourceID, r.Documents, r.Failed)
	if d := r.Duration(); d > 0 {
		cmd.Printf(" in %s", d.Round(time.Millisecond))
	}
	cmd.Println()
	for _, e := range r.Errors {
		cmd.Printf("  - %s\n", e)
	}
}

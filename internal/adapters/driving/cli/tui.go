package cli

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the knowledge base interactively",
	Long: `Open the terminal interface.

Ask questions and read answers with their citations, page through sources
and the documents ingested from them, or start ingestion of one source.
Scheduled ingestion keeps running while the interface is open.

Keys: enter ask/select, j/k move, n new question, i ingest source,
r reload, esc back, ? help, q quit.`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringP("lang", "l", "", "Answer language (sr or en)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	// bubbletea restores the terminal before a panic reaches us;
	// report it as an ordinary command error.
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("tui panic stack:\n%s", debug.Stack())
			err = fmt.Errorf("tui crashed: %v", r)
		}
	}()

	lang, _ := cmd.Flags().GetString("lang")
	if lang == "" {
		lang = defaultLanguage
	}

	app, err := tui.NewApp(tui.NewPorts(answerService, sourceService, documentService, ingestionService))
	if err != nil {
		return fmt.Errorf("create tui: %w", err)
	}

	stop := startScheduler(cmd.Context())
	defer stop()

	if err := app.WithContext(cmd.Context()).WithLanguage(lang).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

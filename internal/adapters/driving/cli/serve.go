package cli

import (
	"errors"

	"github.com/spf13/cobra"

	httpapi "github.com/custodia-labs/sercha-kb/internal/adapters/driving/http"
)

// DefaultServerAddr is used when neither the flag nor the config set one.
const DefaultServerAddr = ":8080"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP query API",
	Long: `Serve exposes the knowledge base over HTTP:

  POST /api/v1/query                      ask a question
  POST /api/v1/ingest[/:sourceId]         start ingestion
  GET  /api/v1/sources                    list sources
  GET  /api/v1/sources/:sourceId/status   ingestion status
  GET  /api/v1/documents/:documentId      read a document
  GET  /healthz                           liveness
  GET  /metrics                           Prometheus metrics

Scheduled ingestion runs in the background when enabled in the config.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config or "+DefaultServerAddr+")")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = serverAddr
	}
	if addr == "" {
		addr = DefaultServerAddr
	}

	var opts []httpapi.Option
	if metricsHandler != nil {
		opts = append(opts, httpapi.WithMetricsHandler(metricsHandler))
	}
	server, err := httpapi.NewServer(&httpapi.Ports{
		Answer:    answerService,
		Ingestion: ingestionService,
		Source:    sourceService,
		Document:  documentService,
	}, opts...)
	if err != nil {
		return err
	}

	stop := startScheduler(cmd.Context())
	defer stop()

	cmd.Printf("HTTP API listening on %s\n", addr)
	return server.Run(cmd.Context(), addr)
}

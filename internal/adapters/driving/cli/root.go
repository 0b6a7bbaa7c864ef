// Package cli provides the sercha-kb command line interface.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// annotationNoServices marks commands that run without the core services.
const annotationNoServices = "sercha-kb/no-services"

// Services holds the driving ports and runtime settings used by commands.
type Services struct {
	Answer    driving.AnswerService
	Retrieval driving.RetrievalService
	Ingestion driving.IngestionService
	Document  driving.DocumentService
	Source    driving.SourceService
	Scheduler driving.Scheduler

	// SchedulerEnabled starts Scheduler for long-running commands.
	SchedulerEnabled bool

	// Metrics is served on /metrics by the serve command when set.
	Metrics http.Handler

	// ServerAddr is the default listen address for serve.
	ServerAddr string

	// Language is the default answer language.
	Language string
}

// Initialiser builds the services from a config file path.
// The returned cleanup func runs once the command finishes.
type Initialiser func(ctx context.Context, configPath string) (*Services, func(), error)

var (
	answerService    driving.AnswerService
	retrievalService driving.RetrievalService
	ingestionService driving.IngestionService
	documentService  driving.DocumentService
	sourceService    driving.SourceService
	scheduler        driving.Scheduler
	schedulerEnabled bool
	metricsHandler   http.Handler
	serverAddr       string
	defaultLanguage  string

	initialiser Initialiser
	cleanup     func()

	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "sercha-kb",
	Short: "Knowledge base for Serbian tax and business regulations",
	Long: `sercha-kb scrapes official Serbian tax and regulatory websites,
indexes them as embedded chunks and answers questions with citations.

Run "sercha-kb ingest" once to populate the store, then ask questions
with "sercha-kb ask", the TUI, the HTTP API or the MCP server.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.sercha-kb/config.toml)")
}

// SetServices sets the driving ports used by commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	answerService = s.Answer
	retrievalService = s.Retrieval
	ingestionService = s.Ingestion
	documentService = s.Document
	sourceService = s.Source
	scheduler = s.Scheduler
	schedulerEnabled = s.SchedulerEnabled
	metricsHandler = s.Metrics
	serverAddr = s.ServerAddr
	defaultLanguage = s.Language
}

// SetInitialiser registers the function that builds services once flags are parsed.
func SetInitialiser(fn Initialiser) {
	initialiser = fn
}

// Execute runs the root command and releases resources afterwards.
func Execute(ctx context.Context) error {
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if initialiser == nil || cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}

	s, done, err := initialiser(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	SetServices(s)
	cleanup = done
	return nil
}

// startScheduler runs the scheduler in the background when enabled.
// The returned func stops it.
func startScheduler(ctx context.Context) func() {
	if !schedulerEnabled || scheduler == nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		if err := scheduler.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("scheduler stopped: %v", err)
		}
	}()

	return func() {
		cancel()
		if err := scheduler.Stop(); err != nil {
			logger.Warn("scheduler stop: %v", err)
		}
	}
}

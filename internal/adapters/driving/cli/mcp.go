package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
	Long:  `Expose the knowledge base to AI assistants over the Model Context Protocol.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start an MCP server offering two tools:

  ask       answer a tax question with numbered citations
  retrieve  return the most similar passages with scores

and resources for the configured sources and their documents.

The server speaks JSON-RPC over stdio unless --port is given, in which
case it serves the streamable HTTP transport instead.

Examples:
  sercha-kb mcp serve
  sercha-kb mcp serve --port 8090

Assistant configuration:
  {
    "mcpServers": {
      "sercha-kb": {
        "command": "sercha-kb",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "Serve HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, _ := cmd.Flags().GetInt("port")
	if port < 0 || port > 65535 {
		return errors.New("port must be between 0 and 65535")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Answer:    answerService,
		Retrieval: retrievalService,
		Source:    sourceService,
		Document:  documentService,
	})
	if err != nil {
		return err
	}

	stop := startScheduler(cmd.Context())
	defer stop()

	if port == 0 {
		// stdout carries the protocol, so nothing else may be printed.
		return server.Run(cmd.Context())
	}

	addr := fmt.Sprintf(":%d", port)
	cmd.Printf("MCP server listening on http://localhost%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}

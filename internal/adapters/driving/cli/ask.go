package cli

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	httpapi "github.com/custodia-labs/sercha-kb/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about Serbian tax regulations",
	Long: `Ask retrieves the most relevant chunks from the knowledge base and
generates an answer grounded in them, with numbered source citations.

Examples:
  sercha-kb ask "Koja je stopa PDV-a?"
  sercha-kb ask --lang en --category vat "What is the VAT threshold?"
  sercha-kb ask --json "Rok za podnošenje PPPDV"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringP("lang", "l", "", "Answer language (sr or en)")
	askCmd.Flags().StringSliceP("category", "C", nil, "Restrict retrieval to categories")
	askCmd.Flags().IntP("max", "n", 0, "Number of chunks to retrieve (0 = configured default)")
	askCmd.Flags().Bool("json", false, "Print the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("question must not be empty")
	}

	lang, _ := cmd.Flags().GetString("lang")
	if lang == "" {
		lang = defaultLanguage
	}
	rawCategories, _ := cmd.Flags().GetStringSlice("category")
	categories, err := domain.ParseCategories(rawCategories)
	if err != nil {
		return err
	}
	maxResults, _ := cmd.Flags().GetInt("max")
	asJSON, _ := cmd.Flags().GetBool("json")

	result, err := answerService.Answer(cmd.Context(), domain.Query{
		Question:   question,
		Language:   lang,
		MaxResults: maxResults,
		Categories: categories,
	})
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(httpapi.NewQueryResponse(result))
	}

	cmd.Println(result.Answer)
	if result.State == domain.StateNoMatch {
		return nil
	}

	if len(result.Sources) > 0 {
		cmd.Println("\nSources:")
		for i, s := range result.Sources {
			cmd.Printf("  [%d] %s (%s)\n      %s\n", i+1, s.Title, s.Category, s.URL)
		}
	}
	cmd.Printf("\nConfidence: %.0f%%", result.Confidence*100)
	if result.Provider != "" {
		cmd.Printf(" | %s", result.Provider)
	}
	cmd.Println()
	return nil
}

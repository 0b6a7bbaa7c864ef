package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// excerptLength is how many runes of a chunk "documents chunks" prints.
const excerptLength = 160

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Browse stored documents",
	Long:  `Commands for browsing documents and chunks in the knowledge base.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list [source-id]",
	Short: "List documents of a source or category",
	Long: `List stored documents for a source, or for a category with --category.

Examples:
  sercha-kb documents list purs
  sercha-kb documents list --category vat`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDocumentsList,
}

var documentsGetCmd = &cobra.Command{
	Use:   "get <document-id>",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsGet,
}

var documentsChunksCmd = &cobra.Command{
	Use:   "chunks <document-id>",
	Short: "Show the chunks of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsChunks,
}

func init() {
	documentsListCmd.Flags().String("category", "", "List documents in this category")
	documentsGetCmd.Flags().Bool("content", false, "Print the full document text")
	documentsChunksCmd.Flags().Bool("full", false, "Print full chunk content")
	documentsCmd.AddCommand(documentsListCmd, documentsGetCmd, documentsChunksCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	category, _ := cmd.Flags().GetString("category")
	var (
		docs []domain.Document
		err  error
	)
	switch {
	case category != "":
		c, perr := domain.ParseCategory(category)
		if perr != nil {
			return perr
		}
		docs, err = documentService.ListByCategory(cmd.Context(), c)
	case len(args) == 1:
		docs, err = documentService.ListBySource(cmd.Context(), args[0])
	default:
		return errors.New("specify a source ID or --category")
	}
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}
	for i := range docs {
		d := &docs[i]
		cmd.Printf("%s  [%s %d]  %s\n", d.ID, d.Metadata.Category, d.Metadata.Year, d.Title)
	}
	cmd.Printf("\n%d document(s)\n", len(docs))
	return nil
}

func runDocumentsGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	m := doc.Metadata
	cmd.Printf("ID:        %s\n", doc.ID)
	cmd.Printf("Title:     %s\n", doc.Title)
	cmd.Printf("Source:    %s\n", doc.SourceID)
	cmd.Printf("URL:       %s\n", doc.SourceURL)
	cmd.Printf("Category:  %s\n", m.Category)
	cmd.Printf("Type:      %s\n", m.DocumentType)
	cmd.Printf("Year:      %d\n", m.Year)
	cmd.Printf("Language:  %s\n", m.Language)
	if m.LawReference != "" {
		cmd.Printf("Law:       %s\n", m.LawReference)
	}
	if len(m.Tags) > 0 {
		cmd.Printf("Tags:      %s\n", strings.Join(m.Tags, ", "))
	}
	if len(m.RelevantFor) > 0 {
		cmd.Printf("For:       %s\n", strings.Join(m.RelevantFor, ", "))
	}
	cmd.Printf("Updated:   %s\n", doc.UpdatedAt.Format("2006-01-02 15:04"))

	if full, _ := cmd.Flags().GetBool("content"); full {
		cmd.Printf("\n%s\n", doc.Content)
	}
	return nil
}

func runDocumentsChunks(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	chunks, err := documentService.Chunks(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		cmd.Println("No chunks stored for this document.")
		return nil
	}

	full, _ := cmd.Flags().GetBool("full")
	for i := range chunks {
		c := &chunks[i]
		cmd.Printf("[%d] %s  %d tokens", c.Position, chunkLabel(c), c.TokenCount)
		if c.Oversized {
			cmd.Print("  (oversized)")
		}
		cmd.Println()

		content := c.Content
		if !full {
			content = excerpt(content, excerptLength)
		}
		cmd.Printf("    %s\n", content)
	}
	return nil
}

func chunkLabel(c *domain.Chunk) string {
	switch {
	case c.Metadata.Section != "" && c.Metadata.Subtitle != "":
		return c.Metadata.Section + " / " + c.Metadata.Subtitle
	case c.Metadata.Section != "":
		return c.Metadata.Section
	case c.Metadata.Subtitle != "":
		return c.Metadata.Subtitle
	default:
		return c.Metadata.Title
	}
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

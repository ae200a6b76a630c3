package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Retrieve safety guidance for a query",
	Long: `Runs a full retrieval session for the query without composing a report.
The query is routed to guidance partitions, retrieved with hybrid dense
and keyword search, and refined interactively when a terminal is attached.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	state, err := sessionService.Start(cmd.Context(), args[0], domain.IntentSearchOnly)
	if err != nil {
		if state != nil && state.Suspended {
			printSuspended(cmd, state)
			return nil
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if state.Suspended {
		printSuspended(cmd, state)
		return nil
	}

	if searchJSON {
		return outputJSON(cmd, state.Documents)
	}

	outputDocumentTable(cmd, state.Documents)
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputDocumentTable(cmd *cobra.Command, docs []domain.Document) {
	if len(docs) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, doc := range docs {
		title := doc.Section
		if title == "" {
			title = doc.Source
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, doc.Score)
		cmd.Printf("      Source: %s [%s]\n", doc.Source, doc.PartitionID)
		if doc.Content != "" {
			cmd.Printf("      %s\n", snippet(doc.Content, 160))
		}
		cmd.Println()
	}
}

func printSuspended(cmd *cobra.Command, state *domain.SessionState) {
	cmd.Printf("Session %s suspended awaiting feedback.\n", state.ID)
	cmd.Println()
	outputDocumentTable(cmd, state.PendingFeedback)
	cmd.Printf("Resume with: girder session resume %s --action <decision>\n", state.ID)
}

func snippet(content string, max int) string {
	content = strings.TrimSpace(content)
	if len(content) <= max {
		return content
	}
	cut := strings.LastIndex(content[:max], " ")
	if cut <= 0 {
		cut = max
	}
	return content[:cut] + "..."
}

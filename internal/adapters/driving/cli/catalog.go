package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var catalogJSON bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the partition catalog",
	Long: `Lists the guidance partitions queries can be routed to.

The catalog is loaded once at startup; edit the partitions file and
restart to change it.`,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "output catalog as JSON")
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	if catalog == nil {
		return errors.New("catalog not configured")
	}

	if catalogJSON {
		type entry struct {
			ID       string   `json:"id"`
			Domain   string   `json:"domain"`
			Keywords []string `json:"keywords,omitempty"`
		}
		entries := make([]entry, 0, len(catalog.IDs()))
		for _, id := range catalog.IDs() {
			p, _ := catalog.Get(id)
			entries = append(entries, entry{ID: p.ID, Domain: p.Domain, Keywords: p.Keywords})
		}
		return outputJSON(cmd, entries)
	}

	cmd.Println("Partitions:")
	cmd.Println()
	for _, id := range catalog.IDs() {
		p, _ := catalog.Get(id)
		cmd.Printf("  %s\t%s\n", p.ID, p.Domain)
		if len(p.Keywords) > 0 {
			cmd.Printf("  \tkeywords: %s\n", strings.Join(p.Keywords, ", "))
		}
	}
	return nil
}

// Package cli implements the girder command-line interface.
//
// Commands are thin: they parse flags, call the driving ports, and
// format output. Services are injected once at startup via SetServices.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driving"
	"github.com/hardhat-labs/girder-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verboseFlag bool

var (
	sessionService   driving.SessionService
	retrievalService driving.RetrievalService
	routerService    driving.RouterService
	sessionStore     driven.SessionStore
	catalog          *domain.Catalog
)

var rootCmd = &cobra.Command{
	Use:   "girder",
	Short: "Construction safety guidance retrieval",
	Long: `Girder retrieves construction safety guidance for incident analysis.

Queries are routed to partitioned guidance indexes, retrieved with
hybrid dense and keyword search, and refined interactively before an
optional findings report is composed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

// Services bundles everything the commands need.
type Services struct {
	Session   driving.SessionService
	Retrieval driving.RetrievalService
	Router    driving.RouterService
	Store     driven.SessionStore
	Catalog   *domain.Catalog
}

// SetServices injects the core services used by the commands.
func SetServices(s Services) {
	sessionService = s.Session
	retrievalService = s.Retrieval
	routerService = s.Router
	sessionStore = s.Store
	catalog = s.Catalog
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

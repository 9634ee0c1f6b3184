// Package cli provides the datacat command line interface.
package cli

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/datacat/internal/core/ports/driving"
	"github.com/custodia-labs/datacat/internal/logger"
)

var version = "dev"

var verbose bool

// Services configured by SetServices. Commands report an error when the
// service they need is nil.
var (
	stackService    driving.StackService
	dataService     driving.DataService
	registryService driving.RegistryService
	settingsService driving.SettingsService
	metricsHandler  http.Handler
)

// Services holds everything the commands call into.
type Services struct {
	Stack    driving.StackService
	Data     driving.DataService
	Registry driving.RegistryService
	Settings driving.SettingsService
	// Metrics serves the Prometheus exposition; optional.
	Metrics http.Handler
}

var rootCmd = &cobra.Command{
	Use:   "datacat",
	Short: "Work with data catalogs",
	Long: `datacat loads catalog files describing datasets and reads or writes
their data through pluggable storage, loader and writer drivers.

Catalogs form a stack; the top catalog shadows datasets of the same
name further down.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log catalog loading and resolution to stderr")
}

// SetServices wires the services used by the commands.
func SetServices(s Services) {
	stackService = s.Stack
	dataService = s.Data
	registryService = s.Registry
	settingsService = s.Settings
	metricsHandler = s.Metrics
}

// SetVersion sets the string printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

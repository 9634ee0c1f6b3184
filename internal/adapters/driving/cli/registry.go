package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List registered storage, loader and writer drivers",
	Args:  cobra.NoArgs,
	RunE:  runDrivers,
}

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List registered plugins",
	Long: `Lists the plugins that can be named in a catalog's plugins list, with the
number of advice hooks each contributes.`,
	Args: cobra.NoArgs,
	RunE: runPlugins,
}

func init() {
	rootCmd.AddCommand(driversCmd)
	rootCmd.AddCommand(pluginsCmd)
}

var errRegistryNotConfigured = errors.New("registry service not configured")

func runDrivers(cmd *cobra.Command, _ []string) error {
	if registryService == nil {
		return errRegistryNotConfigured
	}

	drivers := registryService.Drivers()
	if len(drivers) == 0 {
		cmd.Println("No drivers registered.")
		return nil
	}

	kind := ""
	for _, d := range drivers {
		if d.Kind != kind {
			kind = d.Kind
			cmd.Println(titleStyle.Render(kind))
		}
		cmd.Printf("  %-12s %s -> %s\n", d.Name, joinTypes(d.Input), joinTypes(d.Output))
	}
	return nil
}

func joinTypes(tags []string) string {
	if len(tags) == 0 {
		return "*"
	}
	return strings.Join(tags, ", ")
}

func runPlugins(cmd *cobra.Command, _ []string) error {
	if registryService == nil {
		return errRegistryNotConfigured
	}

	plugins := registryService.Plugins()
	if len(plugins) == 0 {
		cmd.Println("No plugins registered.")
		return nil
	}

	cmd.Println(titleStyle.Render("Plugins:"))
	for _, p := range plugins {
		cmd.Printf("  %-10s %d hooks\n", p.Name, p.Hooks)
	}
	return nil
}

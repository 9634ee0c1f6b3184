package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show effective settings",
	Long: `Shows the settings in effect after reading config.yaml and applying
DATACAT_ environment overrides, e.g. DATACAT_LOG__LEVEL=debug.`,
	Args: cobra.NoArgs,
	RunE: runSettingsShow,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return err
	}

	cmd.Println(titleStyle.Render("Settings"))
	if path := settingsService.Path(); path != "" {
		cmd.Println(mutedStyle.Render("  from " + path))
	}
	cmd.Println()

	cmd.Printf("  Log level:        %s\n", settings.Log.Level)
	cmd.Printf("  Log JSON:         %t\n", settings.Log.JSON)
	plugins := "(none)"
	if len(settings.Plugins.Default) > 0 {
		plugins = strings.Join(settings.Plugins.Default, ", ")
	}
	cmd.Printf("  Default plugins:  %s\n", plugins)
	cmd.Printf("  Stack store:      %s\n", settings.Store.Backend)
	if settings.Store.Dir != "" {
		cmd.Printf("  Store directory:  %s\n", settings.Store.Dir)
	}
	cmd.Printf("  Throttle:         %.2f/s (burst %d)\n", settings.Throttle.Rate, settings.Throttle.Burst)
	cmd.Printf("  Deadline:         %s\n", settings.Deadline.Timeout)
	cmd.Printf("  Watch catalogs:   %t\n", settings.Watch)
	return nil
}

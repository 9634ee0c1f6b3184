package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/datacat/internal/core/domain"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and catalog format information",
	Long: `Prints the datacat version, the catalog format version it reads and
writes (data_config_version), and the Go toolchain and platform it was
built for. --short prints the version alone.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if versionShort {
			cmd.Println(version)
			return
		}
		cmd.Printf("datacat %s\n", version)
		cmd.Printf("  catalog format: %d\n", domain.FormatVersion)
		cmd.Printf("  go:             %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version")
	rootCmd.AddCommand(versionCmd)
}

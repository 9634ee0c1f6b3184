// Command datacat loads data catalogs and reads or writes their datasets.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/datacat/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	a, err := newApp(ctx, os.Getenv("DATACAT_HOME"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "datacat: %v\n", err)
		return 1
	}
	defer a.Close()

	cli.SetVersion(version)
	cli.SetServices(a.services())
	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}

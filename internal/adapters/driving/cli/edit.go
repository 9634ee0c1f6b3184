package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/datacat/internal/core/domain"
)

var (
	createCatalog     string
	createFrom        string
	createStorage     string
	createParams      []string
	createLoaders     []string
	createWriters     []string
	createDescription string

	removeTransformer string
)

// formatByExt maps a file extension to the loader that reads it.
var formatByExt = map[string]string{
	".json":     "json",
	".toml":     "toml",
	".yaml":     "yaml",
	".yml":      "yaml",
	".md":       "markdown",
	".markdown": "markdown",
	".html":     "html",
	".htm":      "html",
}

// markupFormats have a loader but are written as plain text.
var markupFormats = map[string]bool{"markdown": true, "html": true}

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Add a dataset to a catalog",
	Long: `Adds a dataset to a catalog on the stack (the top one unless --catalog
is given) and saves the catalog file.

--from PATH adds a filesystem storage; relative paths resolve against the
catalog's directory. When no --loader or --writer is given they are picked
from the file extension, falling back to text. Markdown and HTML files get
a text writer.`,
	Example: `  datacat create notes --from notes.md
  datacat create cfg --storage filesystem --param path=cfg.json --loader json
  datacat create words --catalog demo --from words.txt --loader lines`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var removeCmd = &cobra.Command{
	Use:   "remove [identifier]",
	Short: "Remove a dataset, or one of its transformers",
	Long: `Removes a dataset from its catalog and saves the catalog file.

With --transformer only that transformer is removed. It is named by its
label ("loader[1]:json") or by kind and index ("loader[1]"), as printed by
'datacat show'.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	createCmd.Flags().StringVar(&createCatalog, "catalog", "", "catalog name or UUID (default: top of the stack)")
	createCmd.Flags().StringVar(&createFrom, "from", "", "file the dataset lives in")
	createCmd.Flags().StringVar(&createStorage, "storage", "", "storage driver (default filesystem with --from)")
	createCmd.Flags().StringArrayVar(&createParams, "param", nil, "storage parameter as key=value; repeatable")
	createCmd.Flags().StringArrayVar(&createLoaders, "loader", nil, "loader driver; repeatable")
	createCmd.Flags().StringArrayVar(&createWriters, "writer", nil, "writer driver; repeatable")
	createCmd.Flags().StringVar(&createDescription, "description", "", "dataset description")

	removeCmd.Flags().StringVar(&removeTransformer, "transformer", "", "remove only this transformer")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(removeCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	if stackService == nil {
		return errStackNotConfigured
	}

	spec, err := createSpec()
	if err != nil {
		return err
	}
	ds, err := stackService.AddDataset(cmd.Context(), createCatalog, args[0], spec)
	if err != nil {
		return fmt.Errorf("create %s: %w", args[0], err)
	}
	cmd.Println(successStyle.Render(fmt.Sprintf("Created dataset %q in catalog %q", ds.Name, ds.Catalog().Name)))
	return nil
}

// createSpec turns the create flags into a dataset spec table.
func createSpec() (map[string]any, error) {
	spec := map[string]any{}
	if createDescription != "" {
		spec["description"] = createDescription
	}

	driver := createStorage
	if driver == "" && createFrom != "" {
		driver = "filesystem"
	}
	if driver == "" && len(createParams) > 0 {
		return nil, fmt.Errorf("%w: --param needs --storage or --from", domain.ErrInvalidInput)
	}
	if driver != "" {
		storage := map[string]any{"driver": driver}
		if createFrom != "" {
			storage["path"] = createFrom
		}
		for _, p := range createParams {
			k, v, ok := strings.Cut(p, "=")
			if !ok || k == "" {
				return nil, fmt.Errorf("%w: --param %q is not key=value", domain.ErrInvalidInput, p)
			}
			storage[k] = v
		}
		spec[string(domain.KindStorage)] = []any{storage}
	}

	loaders, writers := createLoaders, createWriters
	if createFrom != "" && len(loaders) == 0 && len(writers) == 0 {
		format := formatFor(createFrom)
		loaders, writers = []string{format}, []string{format}
		if markupFormats[format] {
			writers = []string{"text"}
		}
	}
	if len(loaders) > 0 {
		spec[string(domain.KindLoader)] = driverTables(loaders)
	}
	if len(writers) > 0 {
		spec[string(domain.KindWriter)] = driverTables(writers)
	}
	return spec, nil
}

func formatFor(path string) string {
	if f, ok := formatByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return "text"
}

func driverTables(drivers []string) []any {
	out := make([]any, len(drivers))
	for i, d := range drivers {
		out[i] = map[string]any{"driver": d}
	}
	return out
}

func runRemove(cmd *cobra.Command, args []string) error {
	if stackService == nil {
		return errStackNotConfigured
	}
	if dataService == nil {
		return errors.New("data service not configured")
	}

	ds, err := dataService.Find(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if removeTransformer == "" {
		if err := stackService.RemoveDataset(cmd.Context(), ds); err != nil {
			return fmt.Errorf("remove %s: %w", args[0], err)
		}
		cmd.Printf("Removed dataset %q\n", ds.Name)
		return nil
	}

	t, err := transformerLabelled(ds, removeTransformer)
	if err != nil {
		return err
	}
	label := t.Label()
	if err := stackService.RemoveTransformer(cmd.Context(), t); err != nil {
		return fmt.Errorf("remove %s: %w", label, err)
	}
	cmd.Printf("Removed %s from dataset %q\n", label, ds.Name)
	return nil
}

// transformerLabelled finds the transformer whose label is label, or whose
// label starts with label followed by the driver.
func transformerLabelled(ds *domain.Dataset, label string) (*domain.Transformer, error) {
	for _, kind := range domain.AllTransformerKinds() {
		for _, t := range ds.Transformers(kind) {
			l := t.Label()
			if l == label || strings.TrimSuffix(l, ":"+t.Driver) == label {
				return t, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: dataset %s has no transformer %q", domain.ErrNotFound, ds.Name, label)
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driving"
)

var (
	readAs     string
	readJSON   bool
	writeAs    string
	writeValue string
	writeFrom  string
	writeWith  string
)

var kindTitles = map[domain.TransformerKind]string{
	domain.KindStorage: "Storages",
	domain.KindLoader:  "Loaders",
	domain.KindWriter:  "Writers",
}

var listCmd = &cobra.Command{
	Use:   "list [catalog]",
	Short: "List datasets",
	Long: `Lists the datasets of every catalog on the stack, or of one catalog
when a name or UUID is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show [identifier]",
	Short: "Show a dataset and its transformers",
	Long: `Shows the storages, loaders and writers of a dataset.

Identifiers have the form [catalog:]dataset[::type], for example
"iris", "examples:iris" or "iris::table.rows".`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var readCmd = &cobra.Command{
	Use:   "read [identifier]",
	Short: "Load a dataset and print it",
	Long: `Resolves the dataset through its storages and loaders and prints the
result. --as selects the target type; by default any loader output is
accepted. Text values are printed as-is, everything else as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

var writeCmd = &cobra.Command{
	Use:   "write [identifier]",
	Short: "Store a value through a dataset's writers",
	Long: `Writes a value to a dataset using the first writer that accepts it.

The value comes from --value, --from (a file, or - for stdin). With --as
json.value the input is parsed as JSON before it is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runWrite,
}

func init() {
	readCmd.Flags().StringVar(&readAs, "as", "", "target type, e.g. core.string or table.rows")
	readCmd.Flags().BoolVar(&readJSON, "json", false, "always print the value as JSON")

	writeCmd.Flags().StringVar(&writeValue, "value", "", "value to write")
	writeCmd.Flags().StringVar(&writeFrom, "from", "", "read the value from a file (- for stdin)")
	writeCmd.Flags().StringVar(&writeAs, "as", "", "value type: core.string (default) or json.value")
	writeCmd.Flags().StringVar(&writeWith, "writer", "", "use the writer with this driver name")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(writeCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if stackService == nil {
		return errStackNotConfigured
	}

	catalogs := stackService.Catalogs()
	if len(args) == 1 {
		cat, err := stackService.Catalog(args[0])
		if err != nil {
			return fmt.Errorf("catalog %s: %w", args[0], err)
		}
		catalogs = []*domain.Catalog{cat}
	}

	if len(catalogs) == 0 {
		cmd.Println("No catalogs loaded.")
		return nil
	}

	for _, cat := range catalogs {
		cmd.Println(titleStyle.Render(cat.Name))
		datasets := cat.Datasets()
		if len(datasets) == 0 {
			cmd.Println(mutedStyle.Render("  (no datasets)"))
			continue
		}
		for _, ds := range datasets {
			line := "  " + ds.Name
			if desc, ok := ds.Properties["description"].(string); ok && desc != "" {
				line += " - " + desc
			}
			cmd.Println(line)
		}
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	if dataService == nil {
		return errors.New("data service not configured")
	}

	ds, err := dataService.Find(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	cmd.Println(titleStyle.Render(ds.Name))
	cmd.Printf("  UUID:    %s\n", ds.UUID)
	if cat := ds.Catalog(); cat != nil {
		cmd.Printf("  Catalog: %s\n", cat.Name)
	}
	for _, key := range slices.Sorted(maps.Keys(ds.Properties)) {
		cmd.Printf("  %s: %v\n", key, ds.Properties[key])
	}
	for _, kind := range domain.AllTransformerKinds() {
		ts := ds.Transformers(kind)
		if len(ts) == 0 {
			continue
		}
		cmd.Println()
		cmd.Printf("  %s:\n", kindTitles[kind])
		for _, t := range ts {
			cmd.Printf("    - %s (priority %d)", t.Label(), t.Priority)
			if len(t.Types) > 0 {
				cmd.Printf(" %v", t.Types)
			}
			cmd.Println()
		}
	}
	return nil
}

func runRead(cmd *cobra.Command, args []string) error {
	if dataService == nil {
		return errors.New("data service not configured")
	}

	var as domain.TypeTag
	if readAs != "" {
		tag, err := domain.ParseTypeTag(readAs)
		if err != nil {
			return err
		}
		as = tag
	}

	value, err := dataService.Read(cmd.Context(), args[0], as)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	return printValue(cmd.OutOrStdout(), value, readJSON)
}

func printValue(w io.Writer, value any, asJSON bool) error {
	if !asJSON {
		switch v := value.(type) {
		case string:
			_, err := fmt.Fprintln(w, strings.TrimRight(v, "\n"))
			return err
		case []byte:
			_, err := w.Write(v)
			return err
		case []string:
			_, err := fmt.Fprintln(w, strings.Join(v, "\n"))
			return err
		}
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func runWrite(cmd *cobra.Command, args []string) error {
	if dataService == nil {
		return errors.New("data service not configured")
	}

	raw, err := writeInput(cmd)
	if err != nil {
		return err
	}

	var opts driving.StoreOptions
	var value any = raw
	switch writeAs {
	case "", domain.TagString.String():
	case domain.TagJSONValue.String():
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return fmt.Errorf("%w: value is not JSON: %v", domain.ErrInvalidInput, err)
		}
		value = v
		opts.Type = domain.TagJSONValue
	default:
		return fmt.Errorf("%w: --as must be %s or %s", domain.ErrInvalidInput, domain.TagString, domain.TagJSONValue)
	}

	if writeWith != "" {
		w, err := writerNamed(cmd, args[0], writeWith)
		if err != nil {
			return err
		}
		opts.Writer = w
	}

	if err := dataService.Write(cmd.Context(), args[0], value, opts); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	cmd.Printf("Wrote %s\n", args[0])
	return nil
}

func writeInput(cmd *cobra.Command) (string, error) {
	switch {
	case writeFrom != "" && writeValue != "":
		return "", fmt.Errorf("%w: use either --value or --from", domain.ErrInvalidInput)
	case writeFrom == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case writeFrom != "":
		data, err := os.ReadFile(writeFrom)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", writeFrom, err)
		}
		return string(data), nil
	default:
		return writeValue, nil
	}
}

func writerNamed(cmd *cobra.Command, text, driver string) (*domain.Transformer, error) {
	ds, err := dataService.Find(cmd.Context(), text)
	if err != nil {
		return nil, err
	}
	for _, w := range ds.Writers() {
		if w.Driver == driver {
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: dataset %s has no %q writer", domain.ErrNotFound, ds.Name, driver)
}

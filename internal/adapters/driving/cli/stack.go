package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var stackCmd = &cobra.Command{
	Use:   "stack",
	Short: "Manage the catalog stack",
	Long: `Show and change the catalog stack.

The first catalog listed is the top of the stack. Dataset lookups scan
catalogs from the top down and stop at the first catalog that has a match.`,
	RunE: runStackList,
}

var stackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogs on the stack, top first",
	RunE:  runStackList,
}

var stackLoadCmd = &cobra.Command{
	Use:   "load [path...]",
	Short: "Load catalog files onto the stack",
	Long: `Reads each catalog file (TOML or YAML) and pushes it on top of the stack.
Files are pushed in the order given, so the last one ends up on top.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStackLoad,
}

var stackPopCmd = &cobra.Command{
	Use:   "pop",
	Short: "Remove the top catalog",
	Args:  cobra.NoArgs,
	RunE:  runStackPop,
}

var stackPromoteCmd = &cobra.Command{
	Use:   "promote [catalog]",
	Short: "Move a catalog to the top of the stack",
	Args:  cobra.ExactArgs(1),
	RunE:  runStackPromote,
}

var stackDemoteCmd = &cobra.Command{
	Use:   "demote [catalog]",
	Short: "Move a catalog one position down the stack",
	Args:  cobra.ExactArgs(1),
	RunE:  runStackDemote,
}

var stackRemoveCmd = &cobra.Command{
	Use:   "remove [catalog]",
	Short: "Remove a catalog from the stack",
	Args:  cobra.ExactArgs(1),
	RunE:  runStackRemove,
}

var stackReloadCmd = &cobra.Command{
	Use:   "reload [path]",
	Short: "Re-read a catalog file already on the stack",
	Args:  cobra.ExactArgs(1),
	RunE:  runStackReload,
}

func init() {
	stackCmd.AddCommand(stackListCmd)
	stackCmd.AddCommand(stackLoadCmd)
	stackCmd.AddCommand(stackPopCmd)
	stackCmd.AddCommand(stackPromoteCmd)
	stackCmd.AddCommand(stackDemoteCmd)
	stackCmd.AddCommand(stackRemoveCmd)
	stackCmd.AddCommand(stackReloadCmd)
	rootCmd.AddCommand(stackCmd)
}

var errStackNotConfigured = errors.New("stack service not configured")

func runStackList(cmd *cobra.Command, _ []string) error {
	if stackService == nil {
		return errStackNotConfigured
	}

	catalogs := stackService.Catalogs()
	if len(catalogs) == 0 {
		cmd.Println("The catalog stack is empty. Use 'datacat stack load <file>' to add one.")
		return nil
	}

	cmd.Println(titleStyle.Render("Catalog stack (top first):"))
	for i, cat := range catalogs {
		cmd.Printf("  [%d] %s  %s\n", i, cat.Name, mutedStyle.Render(cat.UUID))
		cmd.Printf("      Datasets: %d\n", len(cat.Datasets()))
		if cat.Path != "" {
			cmd.Printf("      Path:     %s\n", cat.Path)
		}
		if len(cat.Plugins) > 0 {
			cmd.Printf("      Plugins:  %v\n", cat.Plugins)
		}
	}
	return nil
}

func runStackLoad(cmd *cobra.Command, args []string) error {
	if stackService == nil {
		return errStackNotConfigured
	}

	for _, path := range args {
		cat, err := stackService.Load(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		cmd.Println(successStyle.Render(fmt.Sprintf("Loaded catalog %q with %d datasets", cat.Name, len(cat.Datasets()))))
	}
	return nil
}

func runStackPop(cmd *cobra.Command, _ []string) error {
	if stackService == nil {
		return errStackNotConfigured
	}

	cat, err := stackService.Pop(cmd.Context())
	if err != nil {
		return fmt.Errorf("pop: %w", err)
	}
	cmd.Printf("Removed catalog %q\n", cat.Name)
	return nil
}

func runStackPromote(cmd *cobra.Command, args []string) error {
	if stackService == nil {
		return errStackNotConfigured
	}

	if err := stackService.Promote(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("promote: %w", err)
	}
	cmd.Printf("Catalog %q is now on top\n", args[0])
	return nil
}

func runStackDemote(cmd *cobra.Command, args []string) error {
	if stackService == nil {
		return errStackNotConfigured
	}

	if err := stackService.Demote(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("demote: %w", err)
	}
	cmd.Printf("Catalog %q moved down one position\n", args[0])
	return nil
}

func runStackRemove(cmd *cobra.Command, args []string) error {
	if stackService == nil {
		return errStackNotConfigured
	}

	if err := stackService.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	cmd.Printf("Removed catalog %q\n", args[0])
	return nil
}

func runStackReload(cmd *cobra.Command, args []string) error {
	if stackService == nil {
		return errStackNotConfigured
	}

	if err := stackService.Reload(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	cmd.Printf("Reloaded %s\n", args[0])
	return nil
}

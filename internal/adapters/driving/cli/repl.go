package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Run datacat commands interactively",
	Long: `Starts a prompt that runs datacat commands against the same runtime, so
plugin state such as memorised loads and metrics carries over between
commands. Type "quit" or press Ctrl+D to leave.`,
	Args: cobra.NoArgs,
	RunE: runREPL,
}

func init() {
	replCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address, e.g. :9090")
	rootCmd.AddCommand(replCmd)
}

func runREPL(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if metricsAddr != "" {
		addr, err := serveMetrics(ctx, metricsAddr)
		if err != nil {
			return err
		}
		cmd.Printf("Serving metrics on http://%s/metrics\n", addr)
	}

	out := cmd.OutOrStdout()
	readLine, restore, err := lineReader(cmd.InOrStdin(), &out)
	if err != nil {
		return err
	}
	defer restore()

	for {
		line, err := readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "quit", "exit":
			return nil
		case cmd.Name():
			fmt.Fprintln(out, "Already in the REPL.")
			continue
		}

		resetFlags(rootCmd)
		rootCmd.SetOut(out)
		rootCmd.SetErr(out)
		rootCmd.SetArgs(args)
		// cobra reports the error on out.
		_ = rootCmd.ExecuteContext(ctx)
	}
}

// lineReader returns a prompt with line editing when in is a terminal and a
// plain line scanner otherwise. In the terminal case *out is replaced so that
// output goes through the prompt.
func lineReader(in io.Reader, out *io.Writer) (func() (string, error), func(), error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, nil, fmt.Errorf("raw terminal: %w", err)
		}
		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{f, *out}, "datacat> ")
		*out = t
		return t.ReadLine, func() { _ = term.Restore(fd, state) }, nil
	}

	sc := bufio.NewScanner(in)
	read := func() (string, error) {
		if sc.Scan() {
			return sc.Text(), nil
		}
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return read, func() {}, nil
}

// resetFlags puts every flag back to its default so one REPL command does
// not inherit flags from the previous one.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

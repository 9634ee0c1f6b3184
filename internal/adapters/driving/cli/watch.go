package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/datacat/internal/adapters/driving/watch"
	"github.com/custodia-labs/datacat/internal/logger"
)

var metricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload catalogs when their files change",
	Long: `Watches the file of every catalog on the stack and reloads it in place
when it is saved. Runs until interrupted.

With --metrics-addr the Prometheus metrics of the metrics plugin are
served at /metrics on that address.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address, e.g. :9090")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchCatalogs(ctx, cmd)
}

func watchCatalogs(ctx context.Context, cmd *cobra.Command) error {
	if stackService == nil {
		return errStackNotConfigured
	}

	w, err := watch.New(stackService)
	if err != nil {
		return err
	}
	defer w.Close()

	count := 0
	for _, cat := range stackService.Catalogs() {
		if cat.Path == "" {
			continue
		}
		if err := w.Add(cat.Path); err != nil {
			return err
		}
		count++
	}
	if count == 0 {
		return errors.New("no catalog files on the stack to watch")
	}
	w.OnReload = func(path string, err error) {
		if err != nil {
			cmd.Println(errorStyle.Render(fmt.Sprintf("Reload of %s failed: %v", path, err)))
			return
		}
		cmd.Println(successStyle.Render("Reloaded " + path))
	}

	if metricsAddr != "" {
		addr, err := serveMetrics(ctx, metricsAddr)
		if err != nil {
			return err
		}
		cmd.Printf("Serving metrics on http://%s/metrics\n", addr)
	}

	cmd.Printf("Watching %d catalog files. Press Ctrl+C to stop.\n", count)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// serveMetrics starts an HTTP server for metricsHandler that stops with ctx.
// It returns the bound address.
func serveMetrics(ctx context.Context, addr string) (string, error) {
	if metricsHandler == nil {
		return "", errors.New("metrics not configured")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return ln.Addr().String(), nil
}

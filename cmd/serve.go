package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msalah0e/kgviz/internal/metrics"
	"github.com/msalah0e/kgviz/internal/serve"
	"github.com/msalah0e/kgviz/internal/source"
	"github.com/msalah0e/kgviz/internal/ui"
)

func serveCmd() *cobra.Command {
	var (
		snapshot string
		url      string
		addr     string
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live graph viewer",
		Long: `Run the force layout continuously and stream it to a browser canvas.

  kgviz serve --snapshot graph.json            # http://127.0.0.1:8080
  kgviz serve --snapshot graph.yaml --watch    # reload when the file changes
  kgviz serve --url https://host/graph.json --addr :9000`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if snapshot != "" && url != "" {
				ui.Bad.Println("  --snapshot and --url are mutually exclusive")
				os.Exit(1)
			}
			if watch && snapshot == "" {
				ui.Bad.Println("  --watch needs --snapshot")
				os.Exit(1)
			}

			cfg := loadConfig()
			log := newLogger(cfg)
			defer log.Sync()

			if addr == "" {
				addr = cfg.Serve.Addr
			}

			opts := serve.Options{
				Addr:           addr,
				AllowedOrigins: cfg.Serve.AllowedOrigins,
				Engine:         cfg.Engine(),
			}
			switch {
			case snapshot != "":
				opts.Source = &source.File{Path: snapshot}
				if watch {
					opts.WatchPath = snapshot
				}
			case url != "":
				opts.Source = &source.HTTP{URL: url}
			}

			ui.Banner(os.Stdout, "viewer")
			fmt.Printf("  %s  %s\n", ui.Brand.Sprintf("%-10s", "Viewer"), viewerURL(addr))
			if opts.Source != nil {
				fmt.Printf("  %s  %s\n", ui.Brand.Sprintf("%-10s", "Source"), opts.Source)
			}
			fmt.Printf("  %s  %s\n", ui.Brand.Sprintf("%-10s", "Metrics"), viewerURL(addr)+"metrics")
			fmt.Println()
			fmt.Printf("  %s\n\n", ui.Subtle.Sprint("Press Ctrl+C to stop"))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := serve.New(opts, log, metrics.New())
			if err := srv.Run(ctx); err != nil {
				log.Error("viewer stopped", zap.Error(err))
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			ui.Subtle.Println("  Viewer stopped")
		},
	}

	cmd.Flags().StringVarP(&snapshot, "snapshot", "s", "", "Snapshot file (.json, .yaml)")
	cmd.Flags().StringVar(&url, "url", "", "Snapshot URL")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the snapshot file when it changes")
	return cmd
}

func viewerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr + "/"
}

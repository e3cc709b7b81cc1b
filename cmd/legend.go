package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msalah0e/kgviz/internal/render"
	"github.com/msalah0e/kgviz/internal/source"
	"github.com/msalah0e/kgviz/internal/ui"
)

func legendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "legend [snapshot]",
		Short: "Show the node type color legend",
		Long: `Print the color assigned to each node type. With a snapshot, only the
types present in it are listed.

  kgviz legend
  kgviz legend graph.json`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			entries := render.FullLegend()
			if len(args) == 1 {
				src := source.New(args[0])
				m, err := src.Fetch(context.Background())
				if err != nil {
					ui.Bad.Printf("  Failed to load %s: %v\n", src, err)
					os.Exit(1)
				}
				entries = render.Legend(m.NodeTypes())
			}

			ui.Banner(os.Stdout, "legend")
			for _, e := range entries {
				fmt.Printf("  %s %s  %s\n", ui.Swatch(e.Color), ui.Brand.Sprintf("%-16s", e.Type), ui.Subtle.Sprint(e.Color))
			}
		},
	}
}

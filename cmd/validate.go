package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msalah0e/kgviz/internal/graph"
	"github.com/msalah0e/kgviz/internal/source"
	"github.com/msalah0e/kgviz/internal/ui"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <snapshot...>",
		Short: "Check snapshots for duplicate ids, dangling edges and bad entries",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner(os.Stdout, "validate")

			bad := 0
			for _, loc := range args {
				src := source.New(loc)
				m, err := src.Fetch(context.Background())
				if err != nil {
					bad++
					kind := "Unreadable"
					if k, ok := graph.KindOf(err); ok {
						kind = k.String()
					}
					fmt.Printf("  %s %s  %s\n", ui.StatusIcon(false), src, ui.Bad.Sprint(kind))
					fmt.Printf("      %s\n", ui.Subtle.Sprint(err))
					continue
				}
				st := m.Stats()
				fmt.Printf("  %s %s  %s\n", ui.StatusIcon(true), src,
					ui.Subtle.Sprintf("%d nodes, %d edges, %d types", st.Nodes, st.Edges, st.Types))
			}

			fmt.Println()
			if bad > 0 {
				ui.Bad.Printf("  %d of %d snapshots invalid\n", bad, len(args))
				os.Exit(1)
			}
			ui.Good.Printf("  All %d snapshot(s) valid\n", len(args))
		},
	}
}

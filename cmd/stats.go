package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msalah0e/kgviz/internal/graph"
	"github.com/msalah0e/kgviz/internal/render"
	"github.com/msalah0e/kgviz/internal/source"
	"github.com/msalah0e/kgviz/internal/ui"
)

func statsCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats <snapshot>",
		Short: "Show node, edge and type counts for a snapshot",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			src := source.New(args[0])
			m, err := src.Fetch(context.Background())
			if err != nil {
				ui.Bad.Printf("  Failed to load %s: %v\n", src, err)
				os.Exit(1)
			}

			ui.Banner(os.Stdout, "stats")

			if m.IsEmpty() {
				ui.Warn.Printf("  %s No graph data in %s\n", ui.WarnIcon(), src)
				return
			}

			st := m.Stats()
			fmt.Printf("  %s  %d\n", ui.Brand.Sprintf("%-16s", "Nodes"), st.Nodes)
			fmt.Printf("  %s  %d\n", ui.Brand.Sprintf("%-16s", "Edges"), st.Edges)
			fmt.Printf("  %s  %d\n", ui.Brand.Sprintf("%-16s", "Types"), st.Types)
			fmt.Printf("  %s  %.1f\n", ui.Brand.Sprintf("%-16s", "Avg connections"), st.AvgConnections)
			fmt.Println()

			ui.Table(os.Stdout, []string{"TYPE", "NODES", "COLOR"}, typeRows(m))
			fmt.Println()

			if top > 0 {
				ui.Info.Println("  Most connected")
				ui.Table(os.Stdout, []string{"NODE", "TYPE", "DEGREE"}, degreeRows(m, top))
			}
		},
	}

	cmd.Flags().IntVar(&top, "top", 5, "How many of the most connected nodes to list")
	return cmd
}

func typeRows(m *graph.Model) [][]string {
	counts := make(map[string]int)
	for _, n := range m.Nodes() {
		counts[n.Type]++
	}
	rows := make([][]string, 0, len(counts))
	for _, t := range m.NodeTypes() {
		rows = append(rows, []string{t, strconv.Itoa(counts[t]), render.ColorFor(t)})
	}
	return rows
}

func degreeRows(m *graph.Model, top int) [][]string {
	nodes := append([]graph.Node(nil), m.Nodes()...)
	sort.SliceStable(nodes, func(i, j int) bool {
		return m.Degree(nodes[i].ID) > m.Degree(nodes[j].ID)
	})
	if len(nodes) > top {
		nodes = nodes[:top]
	}
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []string{render.Truncate(n.Name, 32), n.Type, strconv.Itoa(m.Degree(n.ID))})
	}
	return rows
}

package render

import (
	"fmt"
	"html"
	"io"
	"strings"
)

// WriteSVG writes the scene as a standalone SVG document.
func WriteSVG(w io.Writer, sc Scene) error {
	var sb strings.Builder

	width, height := sc.Width, sc.Height
	if width <= 0 || height <= 0 {
		width, height = 800, 600
	}

	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`,
		width, height, width, height))
	sb.WriteString("\n")
	sb.WriteString(`  <style>
    .link { stroke: ` + edgeColor + `; stroke-width: 1.5; }
    .link-label { font: 10px sans-serif; fill: #4B5563; text-anchor: middle; }
    .node-label { font: 12px sans-serif; fill: #111827; text-anchor: middle; }
    .legend { font: 12px sans-serif; fill: #374151; }
  </style>`)
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf(`  <rect width="%g" height="%g" fill="#FFFFFF"/>`, width, height))
	sb.WriteString("\n")

	if sc.Empty {
		sb.WriteString(fmt.Sprintf(`  <text class="legend" x="%g" y="%g" text-anchor="middle">No graph data</text>`,
			width/2, height/2))
		sb.WriteString("\n")
	}

	sb.WriteString("  <g class=\"links\">\n")
	for _, l := range sc.Edges {
		sb.WriteString(fmt.Sprintf(`    <line class="link" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-opacity="%g"/>`,
			l.X1, l.Y1, l.X2, l.Y2, l.Opacity))
		sb.WriteString("\n")
		if l.Label != "" {
			sb.WriteString(fmt.Sprintf(`    <text class="link-label" x="%.2f" y="%.2f" opacity="%g">%s</text>`,
				l.LabelX, l.LabelY, l.Opacity, html.EscapeString(l.Label)))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("  </g>\n")

	sb.WriteString("  <g class=\"nodes\">\n")
	for _, c := range sc.Nodes {
		sb.WriteString(fmt.Sprintf(`    <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="%s" stroke-width="%g" opacity="%g"><title>%s</title></circle>`,
			c.X, c.Y, c.R, c.Fill, c.Stroke, c.StrokeWidth, c.Opacity, html.EscapeString(c.ID)))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf(`    <text class="node-label" x="%.2f" y="%.2f" opacity="%g">%s</text>`,
			c.X, c.LabelY, c.Opacity, html.EscapeString(c.Label)))
		sb.WriteString("\n")
	}
	sb.WriteString("  </g>\n")

	if len(sc.Legend) > 0 {
		sb.WriteString("  <g class=\"legend\">\n")
		for i, e := range sc.Legend {
			y := 20 + float64(i)*20
			sb.WriteString(fmt.Sprintf(`    <circle cx="20" cy="%g" r="6" fill="%s"/>`, y, e.Color))
			sb.WriteString("\n")
			sb.WriteString(fmt.Sprintf(`    <text class="legend" x="32" y="%g">%s</text>`, y+4, html.EscapeString(e.Type)))
			sb.WriteString("\n")
		}
		sb.WriteString("  </g>\n")
	}

	sb.WriteString("</svg>\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Brand colors
var (
	Brand  = color.New(color.FgHiBlue, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Info   = color.New(color.FgCyan)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

const Mark = "◉" // ◉

// SetColor turns colored output on or off.
func SetColor(on bool) {
	color.NoColor = !on
}

// Banner prints the kgviz banner.
func Banner(w io.Writer, subtitle string) {
	fmt.Fprintf(w, "%s %s - %s\n\n", Brand.Sprint(Mark), Brand.Sprint("kgviz"), subtitle)
}

// Table prints a simple aligned table.
func Table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += fmt.Sprintf("%-*s  ", widths[i], h)
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	Subtle.Fprintln(w, strings.TrimRight(headerLine, " "))
	Subtle.Fprintln(w, strings.TrimRight(sepLine, " "))

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += fmt.Sprintf("%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// Swatch renders a filled dot in a #RRGGBB color. Malformed colors fall
// back to an uncolored dot.
func Swatch(hex string) string {
	const dot = "●"
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return dot
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return dot
	}
	return color.RGB(int(v>>16&0xFF), int(v>>8&0xFF), int(v&0xFF)).Sprint(dot)
}

// StatusIcon returns a status icon string.
func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

// WarnIcon returns a warning icon.
func WarnIcon() string {
	return Warn.Sprint("⚠")
}

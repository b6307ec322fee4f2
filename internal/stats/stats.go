// Package stats renders a post-conversion summary for the CLI.
package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Conversion collects the measurable facts of one finished conversion.
type Conversion struct {
	Input       string
	Output      string
	InputBytes  int64
	OutputBytes int
	Duration    time.Duration
}

// Print writes the summary table to w.
func (c *Conversion) Print(w io.Writer) {
	title := color.New(color.FgCyan, color.Bold)
	title.Fprintln(w, "Conversion Summary")

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendRow(table.Row{"Input", c.Input})
	if c.Output != "" {
		tw.AppendRow(table.Row{"Output", c.Output})
	}
	tw.AppendRow(table.Row{"Input size", formatBytes(c.InputBytes)})
	tw.AppendRow(table.Row{"Output size", formatBytes(int64(c.OutputBytes))})
	tw.AppendRow(table.Row{"Duration", c.Duration.Round(time.Millisecond).String()})
	tw.SetStyle(table.StyleLight)
	tw.Render()
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMG"[exp])
}

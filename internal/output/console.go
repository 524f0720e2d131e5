// Package output renders run summaries to the console.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/wesleyorama2/stampede/internal/metrics"
)

// Console renders the end-of-run summary. Colors are used when the writer is
// a terminal and not disabled explicitly.
type Console struct {
	writer  io.Writer
	noColor bool
}

// NewConsole creates a console bound to w. A nil writer means stdout.
func NewConsole(w io.Writer, noColor bool) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{
		writer:  w,
		noColor: noColor || !isTerminal(w) || os.Getenv("NO_COLOR") != "",
	}
}

// isTerminal checks if the writer is a terminal.
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return checkIsTerminal(f)
	}
	return false
}

// PrintSummary renders the final summary for one run.
func (c *Console) PrintSummary(name string, snap metrics.Snapshot) {
	bold := c.style(color.Bold)
	cyan := c.style(color.FgCyan)
	green := c.style(color.FgGreen)
	red := c.style(color.FgRed)

	line := strings.Repeat("━", 56)

	c.writeln(cyan.Sprint(line))
	c.writeln(bold.Sprintf("%s - Completed", name))
	c.writeln(cyan.Sprint(line))
	c.writeln("")

	c.writeln(fmt.Sprintf("Duration:      %s", cyan.Sprint(formatDuration(snap.Elapsed))))
	c.writeln(fmt.Sprintf("Total Tasks:   %s", cyan.Sprint(formatNumber(snap.TotalTasks))))

	failColor := green
	if snap.FailedTasks > 0 {
		failColor = red
	}
	c.writeln(fmt.Sprintf("Failed Tasks:  %s", failColor.Sprint(formatNumber(snap.FailedTasks))))
	c.writeln(fmt.Sprintf("Bytes:         %s sent / %s received",
		formatNumber(snap.BytesSent), formatNumber(snap.BytesReceived)))
	if snap.MessagesSent > 0 || snap.MessagesRecvd > 0 {
		c.writeln(fmt.Sprintf("Messages:      %s sent / %s received",
			formatNumber(snap.MessagesSent), formatNumber(snap.MessagesRecvd)))
	}
	c.writeln("")

	c.printLatency("Task Latency:", snap.TaskLatency)
	if snap.PairLatency.Count > 0 {
		c.printLatency("Round-Trip Latency:", snap.PairLatency)
	}

	if len(snap.Tasks) > 0 {
		c.writeln(c.style(color.Bold).Sprint("Per Task:"))
		for _, t := range snap.Tasks {
			mark := green.Sprint("✓")
			if t.Failures > 0 {
				mark = red.Sprint("✗")
			}
			c.writeln(fmt.Sprintf("  %s %-40s %6d runs  p50 %-8s p99 %-8s",
				mark, t.Name, t.Latency.Count,
				formatDurationShort(t.Latency.P50),
				formatDurationShort(t.Latency.P99)))
		}
		c.writeln("")
	}
}

func (c *Console) printLatency(title string, l metrics.LatencyStats) {
	if l.Count == 0 {
		return
	}
	c.writeln(c.style(color.Bold).Sprint(title))
	c.writeln(fmt.Sprintf("  Min:       %s", formatDurationShort(l.Min)))
	c.writeln(fmt.Sprintf("  P50:       %s", formatDurationShort(l.P50)))
	c.writeln(fmt.Sprintf("  P90:       %s", formatDurationShort(l.P90)))
	c.writeln(fmt.Sprintf("  P99:       %s", formatDurationShort(l.P99)))
	c.writeln(fmt.Sprintf("  Max:       %s", formatDurationShort(l.Max)))
	c.writeln("")
}

func (c *Console) style(attrs ...color.Attribute) *color.Color {
	s := color.New(attrs...)
	if c.noColor {
		s.DisableColor()
	}
	return s
}

func (c *Console) writeln(s string) {
	fmt.Fprintln(c.writer, s)
}

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
}

// formatDurationShort formats a duration in a short format.
func formatDurationShort(d time.Duration) string {
	if d < time.Microsecond {
		return "0ms"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// formatNumber formats a number with thousands separators.
func formatNumber(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	offset := len(str) % 3
	if offset > 0 {
		result.WriteString(str[:offset])
	}
	for i := offset; i < len(str); i += 3 {
		if result.Len() > 0 {
			result.WriteString(",")
		}
		result.WriteString(str[i : i+3])
	}
	return result.String()
}

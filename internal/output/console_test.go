package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/wesleyorama2/stampede/internal/metrics"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m 30s"},
		{3661 * time.Second, "1h 01m 01s"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.d); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestFormatDurationShort(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0ms"},
		{250 * time.Microsecond, "250µs"},
		{42 * time.Millisecond, "42ms"},
		{3 * time.Second, "3.00s"},
	}
	for _, tc := range cases {
		if got := formatDurationShort(tc.d); got != tc.want {
			t.Errorf("formatDurationShort(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tc := range cases {
		if got := formatNumber(tc.n); got != tc.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)

	c.PrintSummary("demo", metrics.Snapshot{
		Elapsed:     90 * time.Second,
		TotalTasks:  1200,
		FailedTasks: 3,
		BytesSent:   1000,
		TaskLatency: metrics.LatencyStats{
			Count: 1200,
			P50:   12 * time.Millisecond,
			P99:   80 * time.Millisecond,
		},
		Tasks: []metrics.TaskSummary{
			{Name: "browse/000-fetch", Latency: metrics.LatencyStats{Count: 1200}},
		},
	})

	out := buf.String()
	for _, want := range []string{"demo", "1,200", "Failed Tasks", "browse/000-fetch"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("colors not disabled for non-TTY writer")
	}
}

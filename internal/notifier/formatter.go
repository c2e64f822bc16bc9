package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"TickData/internal/collector"
	"TickData/internal/recorder"

	"github.com/dustin/go-humanize"
)

// FormatRunReport formats a finished run and its per-asset results.
func FormatRunReport(run *recorder.Run, results []*collector.AssetResult) string {
	var b strings.Builder

	status := "✅"
	if run.Err != "" {
		status = "❌"
	}
	b.WriteString(fmt.Sprintf("%s <b>TickData run</b> | %s\n\n", status, run.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Trigger: %s\n", run.Trigger))
	b.WriteString(fmt.Sprintf("Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Second)))
	b.WriteString(fmt.Sprintf("Archives: %d fetched, %d already on disk\n", run.Fetched, run.Skipped))
	b.WriteString(fmt.Sprintf("Tick files: %s (%s ticks)\n",
		humanize.Comma(int64(run.Files)), humanize.Comma(int64(run.Ticks))))

	if len(results) > 0 {
		b.WriteString("\n<b>Assets:</b>\n")
		for _, r := range results {
			if r == nil {
				continue
			}
			var size int64
			for _, s := range r.Saved {
				size += s.Bytes
			}
			b.WriteString(fmt.Sprintf("  %s: %d archives, %s ticks, %d ignored, %s\n",
				r.Symbol, r.Archives, humanize.Comma(int64(r.Ticks)), r.Ignored, humanize.Bytes(uint64(size))))
		}
	}

	if run.Err != "" {
		b.WriteString(fmt.Sprintf("\n⚠️ %s\n", html.EscapeString(run.Err)))
	}
	return b.String()
}

// FormatStatus formats the last recorded run for the /status command.
func FormatStatus(last *recorder.Run, running bool) string {
	var b strings.Builder
	b.WriteString("📦 <b>TickData status</b>\n\n")
	if running {
		b.WriteString("A run is in progress.\n")
	}
	if last == nil {
		b.WriteString("No run yet.\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Last run: %s (%s)\n", last.StartedAt.Format("2006-01-02 15:04"), last.Trigger))
	b.WriteString(fmt.Sprintf("Tick files: %s\n", humanize.Comma(int64(last.Files))))
	if last.Err != "" {
		b.WriteString(fmt.Sprintf("Error: %s\n", html.EscapeString(last.Err)))
	}
	return b.String()
}

// FormatHelp lists the chat commands.
func FormatHelp() string {
	return "/run - fetch and process now\n/status - last run\n/help - this message"
}

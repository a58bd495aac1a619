package internal

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/rtzll/mediadash/internal/api"
)

const sentimentBarWidth = 30

// FormatCount formats n with thousands separators
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatDuration formats seconds as h:mm:ss
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Round(seconds))
	return fmt.Sprintf("%d:%02d:%02d", total/3600, total/60%60, total%60)
}

// SentimentBar draws value (0..1) as a horizontal bar of width cells
func SentimentBar(value float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(math.Max(0, math.Min(1, value)) * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// SentimentText renders a sentiment as LABEL (NN%)
func SentimentText(s api.Sentiment) string {
	label := strings.ToUpper(s.Label)
	if label == "" {
		label = "UNKNOWN"
	}
	return fmt.Sprintf("%s (%d%%)", label, s.Percent())
}

// MetricsMarkdown renders a metrics document as markdown. A positive
// transcriptLimit truncates the transcript to that many characters.
func MetricsMarkdown(m *api.Metrics, transcriptLimit int) string {
	if m == nil {
		return ""
	}

	var sb strings.Builder

	title := m.Title
	if title == "" {
		title = m.VideoID
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	sb.WriteString("| Uploader | Duration | Views | Likes |\n")
	sb.WriteString("|---|---|---|---|\n")
	fmt.Fprintf(&sb, "| %s | %s (%.0fs) | %s | %s |\n\n",
		orDash(m.Uploader),
		FormatDuration(m.DurationSeconds), m.DurationSeconds,
		FormatCount(m.ViewCount),
		FormatCount(m.LikeCount))

	if m.Description != "" {
		fmt.Fprintf(&sb, "> %s\n\n", strings.ReplaceAll(strings.TrimSpace(m.Description), "\n", "\n> "))
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(orDash(strings.TrimSpace(m.Summary)))
	sb.WriteString("\n\n")

	sb.WriteString("## Sentiment Analysis\n\n")
	fmt.Fprintf(&sb, "**%s**\n\n", SentimentText(m.Sentiment))
	sb.WriteString("```\n")
	for i, v := range m.SentimentBreakdown.ChartData() {
		fmt.Fprintf(&sb, "%-8s %s %3.0f%%\n", api.ChartLabels[i], SentimentBar(v, sentimentBarWidth), v*100)
	}
	sb.WriteString("```\n\n")

	sb.WriteString("## Transcript\n\n")
	t := m.Transcript
	if t.WordCount > 0 || t.CharCount > 0 || t.ChunksCount > 0 {
		fmt.Fprintf(&sb, "_%s words, %s characters, %d chunks_\n\n",
			FormatCount(int64(t.WordCount)), FormatCount(int64(t.CharCount)), t.ChunksCount)
	}
	text := strings.TrimSpace(t.Text)
	if transcriptLimit > 0 && len([]rune(text)) > transcriptLimit {
		text = string([]rune(text)[:transcriptLimit]) + "…"
	}
	sb.WriteString(orDash(text))
	sb.WriteString("\n")

	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

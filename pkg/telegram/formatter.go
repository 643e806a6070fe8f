package telegram

import (
	"fmt"
	"strings"

	"golang-deal-sentinel/internal/entity"
)

// FormatPulseMessage renders the morning pulse briefing as a Telegram
// Markdown message.
func FormatPulseMessage(pulseDate string, signals []entity.Signal) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*Morning Pulse* (%s)\n", pulseDate))
	if len(signals) == 0 {
		sb.WriteString("\nNo qualifying signals in the last cycle.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Top %d signals by conviction:\n\n", len(signals)))
	for i, signal := range signals {
		sb.WriteString(fmt.Sprintf("%d. *%s* [%s | %d/100]\n",
			i+1, escapeMarkdown(signal.CompanyName), signal.SignalType, signal.ConvictionScore))
		if signal.Headline != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", escapeMarkdown(signal.Headline)))
		}
		if signal.SourceLink != "" {
			sb.WriteString(fmt.Sprintf("   [source](%s)\n", signal.SourceLink))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "`", "\\`")
	return replacer.Replace(s)
}

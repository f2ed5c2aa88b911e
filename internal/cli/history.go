package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/GarvGoel08/DocOnGo/models"
)

// FormatChatSummary renders one history row for lists and pickers.
func FormatChatSummary(chat models.ChatSummary) string {
	title := strings.TrimSpace(chat.Title)
	if title == "" {
		title = "Consultation"
	}
	parts := []string{
		fmt.Sprintf("%s (%d messages, %s)", title, chat.MessageCount, formatRelativeTime(chat.UpdatedAt, time.Now())),
	}
	if len(chat.DetectedSymptoms) > 0 {
		parts = append(parts, strings.Join(chat.DetectedSymptoms, ", "))
	}
	return strings.Join(parts, " - ")
}

// RenderHistory prints the history listing with one row per
// consultation.
func RenderHistory(chats []models.ChatSummary) string {
	if len(chats) == 0 {
		return dimStyle.Render("No past consultations yet.")
	}
	var b strings.Builder
	for i, chat := range chats {
		b.WriteString(fmt.Sprintf("%2d. %s\n", i+1, FormatChatSummary(chat)))
		if last := strings.TrimSpace(chat.LastMessage); last != "" {
			b.WriteString("    " + dimStyle.Render(truncate(last, 70)) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatRelativeTime renders a timestamp the way the history panel
// shows it: clock time today, "Yesterday", day counts within a week,
// a full date beyond that.
func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	t = t.Local()
	now = now.Local()

	days := daysBetween(t, now)
	switch {
	case days <= 0:
		return t.Format("3:04 PM")
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("Jan 2, 2006")
	}
}

// daysBetween counts calendar-day boundaries between t and now; same
// day is 0 regardless of the hour.
func daysBetween(t, now time.Time) int {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	start := time.Date(ty, tm, td, 0, 0, 0, 0, t.Location())
	end := time.Date(ny, nm, nd, 0, 0, 0, 0, now.Location())
	return int(end.Sub(start).Hours() / 24)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

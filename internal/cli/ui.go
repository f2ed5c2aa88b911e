package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/GarvGoel08/DocOnGo/internal/stage"
	"github.com/GarvGoel08/DocOnGo/models"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0EA5E9")).
			Padding(0, 1)

	doctorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	patientStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	typingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8B5CF6")).
			Bold(true)

	symptomStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0EA5E9"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	prescriptionStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#10B981")).
				Padding(1, 2).
				Width(76)
)

// DisplayWelcomeBanner shows the welcome banner.
func DisplayWelcomeBanner() {
	fmt.Println(titleStyle.Render("🩺 DocOnGo - your AI doctor in the terminal"))
	fmt.Println(dimStyle.Render("Describe your symptoms to begin. Type /help for commands."))
	fmt.Println()
}

// RenderMessage formats one transcript message for the terminal.
func RenderMessage(m models.Message) string {
	if m.IsTyping {
		return typingStyle.Render("Dr. AI is typing...")
	}
	switch {
	case m.IsError:
		return doctorStyle.Render("Dr. AI: ") + errorStyle.Render(m.Text)
	case m.IsPrescriptionNote:
		return doctorStyle.Render("Dr. AI: ") + noteStyle.Render(m.Text)
	case m.Sender == models.SenderUser:
		return patientStyle.Render("You: ") + m.Text
	default:
		out := doctorStyle.Render("Dr. AI: ") + m.Text
		if m.IsStageTransition {
			out += dimStyle.Render("  (new stage)")
		}
		return out
	}
}

// RenderStatusLine shows the consultation stage, a progress bar and the
// symptoms detected so far.
func RenderStatusLine(meta models.ConversationMetadata, progress int) string {
	var b strings.Builder
	b.WriteString(stageStyle.Render(stageLabel(meta.Stage)))
	b.WriteString("  ")
	b.WriteString(renderProgressBar(progress, 20))
	if len(meta.DetectedSymptoms) > 0 {
		b.WriteString("  ")
		b.WriteString(symptomStyle.Render(strings.Join(meta.DetectedSymptoms, ", ")))
	}
	if next := stage.Next(meta.Stage); next != meta.Stage {
		b.WriteString(dimStyle.Render("  next: " + stageLabel(next)))
	}
	return b.String()
}

func renderProgressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %d%%", bar, percent)
}

// stageLabel turns a stage name into a readable label, falling back to
// the raw name for stages this build does not know.
func stageLabel(name string) string {
	labels := map[string]string{
		"GREETING":            "Greeting",
		"SYMPTOM_COLLECTION":  "Collecting symptoms",
		"DETAILED_ASSESSMENT": "Detailed assessment",
		"MEDICAL_HISTORY":     "Medical history",
		"RECOMMENDATIONS":     "Recommendations",
		"FOLLOW_UP":           "Follow-up",
	}
	if label, ok := labels[name]; ok {
		return label
	}
	return name
}

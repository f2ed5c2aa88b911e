package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/GarvGoel08/DocOnGo/models"
	"github.com/GarvGoel08/DocOnGo/pkg/utils"
)

const prescriptionDisclaimer = "This prescription is AI-generated and for informational purposes only. " +
	"Consult a licensed healthcare provider before taking any medication."

// RenderPrescription formats a prescription for the terminal.
func RenderPrescription(p *models.Prescription) string {
	if p == nil {
		return dimStyle.Render("No prescription for this consultation yet. Use /prescription after describing your symptoms.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Prescription") + "\n\n")

	if p.DescriptionOfIssue != "" {
		b.WriteString(doctorStyle.Render("Issue: ") + p.DescriptionOfIssue + "\n")
	}
	if p.AIAnalysis != "" {
		b.WriteString(doctorStyle.Render("Analysis: ") + p.AIAnalysis + "\n")
	}

	if len(p.Medicines) > 0 {
		b.WriteString("\n" + doctorStyle.Render("Medicines:") + "\n")
		for _, med := range p.Medicines {
			b.WriteString("  • " + med.Name)
			if med.Composition != "" {
				b.WriteString(" (" + med.Composition + ")")
			}
			b.WriteString("\n")
			b.WriteString(fmt.Sprintf("    %s for %s\n", med.Dosage, med.Duration))
			if med.Instructions != "" {
				b.WriteString("    " + dimStyle.Render(med.Instructions) + "\n")
			}
		}
	}

	writeList := func(heading string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("\n" + doctorStyle.Render(heading+":") + "\n")
		for _, item := range items {
			b.WriteString("  • " + item + "\n")
		}
	}
	writeList("General tips", p.GeneralTips)
	writeList("Dietary advice", p.DietaryAdvice)

	if p.FollowUpInstructions != "" {
		b.WriteString("\n" + doctorStyle.Render("Follow-up: ") + p.FollowUpInstructions + "\n")
	}

	b.WriteString("\n" + errorStyle.Render(prescriptionDisclaimer))
	return prescriptionStyle.Render(b.String())
}

// BuildPrescriptionMarkdown renders a prescription as a markdown
// document for export.
func BuildPrescriptionMarkdown(sessionID string, p *models.Prescription, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Prescription\n\n")
	b.WriteString("Session: " + sessionID + "\n\n")
	b.WriteString("Generated: " + now.Format("January 2, 2006 3:04 PM") + "\n\n")

	if p.DescriptionOfIssue != "" {
		b.WriteString("## Issue\n\n" + p.DescriptionOfIssue + "\n\n")
	}
	if p.AIAnalysis != "" {
		b.WriteString("## Analysis\n\n" + p.AIAnalysis + "\n\n")
	}

	if len(p.Medicines) > 0 {
		b.WriteString("## Medicines\n\n")
		b.WriteString("| Medicine | Composition | Dosage | Duration | Instructions |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, med := range p.Medicines {
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				med.Name, med.Composition, med.Dosage, med.Duration, med.Instructions))
		}
		b.WriteString("\n")
	}

	writeList := func(heading string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("## " + heading + "\n\n")
		for _, item := range items {
			b.WriteString("- " + item + "\n")
		}
		b.WriteString("\n")
	}
	writeList("General tips", p.GeneralTips)
	writeList("Dietary advice", p.DietaryAdvice)

	if p.FollowUpInstructions != "" {
		b.WriteString("## Follow-up\n\n" + p.FollowUpInstructions + "\n\n")
	}

	b.WriteString("---\n\n*" + prescriptionDisclaimer + "*\n")
	return b.String()
}

// ExportPrescription writes the prescription to a markdown file under
// dir and returns its path.
func ExportPrescription(dir, sessionID string, p *models.Prescription) (string, error) {
	if p == nil {
		return "", fmt.Errorf("no prescription to export")
	}
	now := time.Now()
	fileName := fmt.Sprintf("prescription-%s-%s.md", sessionID, now.Format("2006-01-02"))
	return utils.WriteMarkdown(dir, fileName, BuildPrescriptionMarkdown(sessionID, p, now))
}

// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/cadlingo/cadlingo/internal/model"
)

var (
	// PrimaryColor is the main theme color (drafting blue).
	PrimaryColor = lipgloss.Color("#5B8DEF")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates warnings or review-flagged items.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates errors or rejected mutations.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#333"))
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	return BoxStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		boxTitle,
		content,
	))
}

// RenderJobReport renders a completed job report for the terminal.
func RenderJobReport(report *model.JobReport) string {
	counts := report.Counts()

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Target language:  %s\n", report.TargetLanguage))
	b.WriteString(fmt.Sprintf("Items:            %d\n", len(report.Items)))
	b.WriteString(fmt.Sprintf("Provider calls:   %d\n", report.ProviderCalls))
	b.WriteString(fmt.Sprintf("Duration:         %s\n\n", report.Duration.Round(time.Millisecond)))

	b.WriteString(SuccessStyle.Render(fmt.Sprintf("  translated  %d", counts[model.StatusTranslated])))
	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("  skipped     %d", counts[model.StatusSkipped])))
	b.WriteString("\n")
	if n := counts[model.StatusFallback]; n > 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("  fallback    %d", n)))
		b.WriteString("\n")
	}
	if n := counts[model.StatusRejected]; n > 0 {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("  rejected    %d", n)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if report.Validation.Passed {
		b.WriteString(FormatSuccess("integrity validation passed"))
	} else {
		b.WriteString(FormatError(fmt.Sprintf(
			"integrity validation FAILED (%d critical errors)", len(report.Validation.CriticalErrors))))
		if report.RollbackRecommended {
			b.WriteString("\n")
			b.WriteString(ErrorStyle.Render("  rollback recommended"))
		}
	}

	return RenderBox("Translation Report", b.String())
}

// RenderReviewItems lists review-flagged items with their warnings.
func RenderReviewItems(items []model.ItemOutcome) string {
	var b strings.Builder
	for _, item := range items {
		if !item.NeedsReview {
			continue
		}
		b.WriteString(WarningStyle.Render(fmt.Sprintf("%s %s", WarningIcon, item.ItemID)))
		b.WriteString(fmt.Sprintf("  %.0f%%", item.Confidence*100))
		for _, w := range item.Warnings {
			b.WriteString("\n    ")
			b.WriteString(SubtleStyle.Render(w))
		}
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return ""
	}
	return b.String()
}

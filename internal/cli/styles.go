// Package cli renders extraction results and stored entries for the terminal.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vorrawut/poon-ai-service-sub001/internal/confidence"
)

// Baht gold for headings and amounts; the three band colours follow the
// confidence bands so a glance tells how far to trust an entry.
var (
	GoldColor   = lipgloss.Color("#F4B942")
	TrustColor  = lipgloss.Color("#4ECDC4")
	ReviewColor = lipgloss.Color("#FFE66D")
	DoubtColor  = lipgloss.Color("#FF6B6B")
	AIColor     = lipgloss.Color("#B39DDB")
	MutedColor  = lipgloss.Color("#666666")
	RuleColor   = lipgloss.Color("#333333")
)

var bandStyles = map[confidence.Band]lipgloss.Style{
	confidence.BandHigh:   lipgloss.NewStyle().Foreground(TrustColor).Bold(true),
	confidence.BandMedium: lipgloss.NewStyle().Foreground(ReviewColor),
	confidence.BandLow:    lipgloss.NewStyle().Foreground(DoubtColor),
}

// BandStyle returns the colour of a confidence band.
func BandStyle(b confidence.Band) lipgloss.Style {
	if s, ok := bandStyles[b]; ok {
		return s
	}
	return bandStyles[confidence.BandLow]
}

var (
	// SuccessStyle, WarningStyle and ErrorStyle reuse the band colours for
	// status lines.
	SuccessStyle = lipgloss.NewStyle().Foreground(TrustColor)
	WarningStyle = lipgloss.NewStyle().Foreground(ReviewColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(DoubtColor)

	SubtleStyle = lipgloss.NewStyle().Foreground(MutedColor)
	BoldStyle   = lipgloss.NewStyle().Bold(true)

	// AmountStyle renders baht amounts.
	AmountStyle = lipgloss.NewStyle().Foreground(GoldColor).Bold(true)

	// AIStyle marks values that a language model filled in or corrected.
	AIStyle = lipgloss.NewStyle().Foreground(AIColor).Italic(true)

	// LabelStyle pads field labels so entry card values line up.
	LabelStyle = lipgloss.NewStyle().Foreground(MutedColor).Width(12)

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(GoldColor)

	// cardStyle frames entry cards; the border takes the band colour.
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(RuleColor).
			Padding(0, 1)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(RuleColor)
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)
)

const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	WalletIcon  = "👛"
	RobotIcon   = "🤖"
	ChartIcon   = "📊"
	ReceiptIcon = "🧾"
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

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return SubtleStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a heading with the wallet icon.
func FormatTitle(title string) string {
	return headingStyle.MarginBottom(1).Render(WalletIcon + " " + title)
}

// RenderBox renders content in a neutral card.
func RenderBox(title, content string) string {
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, headingStyle.Render(title), content))
}

// RenderCard renders content in a card whose border shows the confidence band.
func RenderCard(title, content string, c float64) string {
	border := BandStyle(confidence.Clamp(c).Band()).GetForeground()
	return cardStyle.BorderForeground(border).
		Render(lipgloss.JoinVertical(lipgloss.Left, headingStyle.Render(title), content))
}

package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/vorrawut/poon-ai-service-sub001/internal/confidence"
	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
	"github.com/vorrawut/poon-ai-service-sub001/internal/pattern"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
)

const dateLayout = "2006-01-02 15:04"

// ConfidenceStyle picks the colour of a confidence value by its band.
func ConfidenceStyle(c float64) lipgloss.Style {
	return BandStyle(confidence.Clamp(c).Band())
}

// FormatConfidence renders c as a coloured percentage with its band.
func FormatConfidence(c float64) string {
	score := confidence.Clamp(c)
	return ConfidenceStyle(c).Render(fmt.Sprintf("%.0f%% (%s)", score.Percentage(), score.Band()))
}

// RenderEntry renders a spending entry as a bordered card.
func RenderEntry(entry model.SpendingEntry) string {
	rows := []string{
		field("Amount", AmountStyle.Render("฿"+entry.Amount.StringFixed(2))),
		field("Merchant", entry.Merchant),
		field("Category", categoryLabel(entry.Category, entry.Subcategory)),
		field("Payment", entry.PaymentMethod.String()),
		field("Date", entry.Date.Format(dateLayout)),
		field("Confidence", FormatConfidence(entry.Confidence)),
		field("Method", methodLabel(entry.ProcessingMethod)),
	}
	if entry.Description != "" {
		rows = append(rows, field("Note", entry.Description))
	}
	if entry.ID != "" {
		rows = append(rows, field("ID", SubtleStyle.Render(entry.ID)))
	}
	if reason, ok := entry.Metadata["reasoning"].(string); ok && reason != "" {
		rows = append(rows, field("Reasoning", SubtleStyle.Render(reason)))
	}

	return RenderCard(ReceiptIcon+" Spending entry", lipgloss.JoinVertical(lipgloss.Left, rows...), entry.Confidence)
}

// RenderExtraction renders the fields an extraction found. Missing fields
// are shown as a dash.
func RenderExtraction(result model.ExtractionResult) string {
	rows := []string{
		field("Amount", amountString(result.Amount)),
		field("Merchant", deref(result.Merchant)),
		field("Category", deref(result.Category)),
		field("Subcategory", deref(result.Subcategory)),
		field("Payment", deref(result.PaymentMethod)),
		field("Date", optionalDate(result)),
		field("Confidence", FormatConfidence(result.Confidence)),
	}
	if result.Reasoning != nil {
		rows = append(rows, field("Reasoning", SubtleStyle.Render(*result.Reasoning)))
	}
	if msg, ok := result.Detail(model.DetailAIError); ok {
		rows = append(rows, FormatWarning(fmt.Sprintf("AI enhancement failed: %v", msg)))
	}

	return RenderCard("Extraction", lipgloss.JoinVertical(lipgloss.Left, rows...), result.Confidence)
}

// RenderEntryTable renders entries as a compact table.
func RenderEntryTable(entries []model.SpendingEntry) string {
	if len(entries) == 0 {
		return FormatInfo("No entries")
	}

	headers := []string{"DATE", "AMOUNT", "MERCHANT", "CATEGORY", "CONF", "ID"}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.Date.Format("2006-01-02"),
			e.Amount.StringFixed(2),
			truncate(e.Merchant, 28),
			e.Category.String(),
			fmt.Sprintf("%.2f", e.Confidence),
			shortID(e.ID),
		}
	}
	return renderTable(headers, rows)
}

// RenderStatistics renders aggregate statistics of the stored entries.
func RenderStatistics(stats *service.Statistics) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d\n", LabelStyle.Render("Entries"), stats.TotalEntries)
	fmt.Fprintf(&sb, "%s ฿%s\n", LabelStyle.Render("Total"), stats.TotalAmount.StringFixed(2))
	fmt.Fprintf(&sb, "%s %s\n", LabelStyle.Render("Confidence"), FormatConfidence(stats.AverageConfidence))

	if len(stats.CategoryBreakdown) > 0 {
		sb.WriteString("\n" + BoldStyle.Render("By category") + "\n")
		for _, c := range model.Categories {
			if n := stats.CategoryBreakdown[c]; n > 0 {
				fmt.Fprintf(&sb, "  %-20s %d\n", c, n)
			}
		}
	}

	if len(stats.MethodBreakdown) > 0 {
		sb.WriteString("\n" + BoldStyle.Render("By method") + "\n")
		methods := make([]string, 0, len(stats.MethodBreakdown))
		for m := range stats.MethodBreakdown {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		for _, m := range methods {
			fmt.Fprintf(&sb, "  %-20s %d\n", m, stats.MethodBreakdown[m])
		}
	}

	return RenderBox(ChartIcon+" Statistics", strings.TrimRight(sb.String(), "\n"))
}

// RenderSuggestions renders ranked category suggestions.
func RenderSuggestions(suggestions []pattern.Suggestion) string {
	lines := make([]string, len(suggestions))
	for i, s := range suggestions {
		lines[i] = fmt.Sprintf("%d. %s %s", i+1, BoldStyle.Render(s.Category.String()), SubtleStyle.Render(s.Reason))
	}
	return strings.Join(lines, "\n")
}

// RenderProcessingLogs renders the pipeline stages recorded for an entry.
func RenderProcessingLogs(logs []service.ProcessingLog) string {
	if len(logs) == 0 {
		return SubtleStyle.Render("No processing logs")
	}

	headers := []string{"Time", "Stage", "Status", "Confidence", "Duration", "Error"}
	rows := make([][]string, len(logs))
	for i, l := range logs {
		status := SuccessStyle.Render(l.Status)
		if l.ErrorMessage != "" {
			status = ErrorStyle.Render(l.Status)
		}
		rows[i] = []string{
			l.CreatedAt.Format(dateLayout),
			l.Stage,
			status,
			fmt.Sprintf("%.2f", l.Confidence),
			l.Duration.Round(time.Millisecond).String(),
			truncate(l.ErrorMessage, 40),
		}
	}
	return renderTable(headers, rows)
}

func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	render := func(cells []string, style lipgloss.Style) string {
		out := make([]string, len(cells))
		for i, cell := range cells {
			out[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, out...))
	}

	lines := []string{render(headers, TableHeaderStyle)}
	for _, row := range rows {
		lines = append(lines, render(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func field(label, value string) string {
	if value == "" {
		value = SubtleStyle.Render("-")
	}
	return LabelStyle.Render(label) + " " + value
}

func categoryLabel(c model.Category, sub string) string {
	if sub == "" {
		return c.String()
	}
	return c.String() + " / " + sub
}

func methodLabel(method string) string {
	if strings.HasSuffix(method, "+ai") {
		return AIStyle.Render(method + " " + RobotIcon)
	}
	return method
}

func deref[T ~string](p *T) string {
	if p == nil {
		return ""
	}
	return string(*p)
}

func amountString(amount *decimal.Decimal) string {
	if amount == nil {
		return ""
	}
	return "฿" + amount.StringFixed(2)
}

func optionalDate(r model.ExtractionResult) string {
	if r.TransactionDate == nil {
		return ""
	}
	return r.TransactionDate.Format(dateLayout)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

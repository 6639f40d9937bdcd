package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vorrawut/poon-ai-service-sub001/internal/cli"
	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
	"github.com/vorrawut/poon-ai-service-sub001/internal/pattern"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
)

// ConfirmedConfidence is stored on entries the user has corrected.
const ConfirmedConfidence = 1.0

const visibleRows = 10

// EntryUpdater persists corrections made during a review.
type EntryUpdater interface {
	UpdateEntry(ctx context.Context, id string, update service.EntryUpdate) error
}

// SuggestFunc ranks categories for a merchant and description.
type SuggestFunc func(merchant, description string) []pattern.Suggestion

type reviewMode int

const (
	modeBrowse reviewMode = iota
	modeEditMerchant
)

// entryUpdatedMsg reports the outcome of a save.
type entryUpdatedMsg struct {
	err    error
	update service.EntryUpdate
	index  int
}

// ReviewModel walks a list of entries and lets the user confirm a suggested
// category or correct the merchant of each one.
type ReviewModel struct {
	ctx      context.Context
	store    EntryUpdater
	suggest  SuggestFunc
	err      error
	reviewed map[int]bool
	entries  []model.SpendingEntry
	status   string
	input    textinput.Model
	help     help.Model
	keys     KeyMap
	cursor   int
	updated  int
	mode     reviewMode
	saving   bool
}

// NewReviewModel creates a review over entries. suggest may be nil.
func NewReviewModel(ctx context.Context, entries []model.SpendingEntry, store EntryUpdater, suggest SuggestFunc) ReviewModel {
	input := textinput.New()
	input.Placeholder = "Merchant name"
	input.CharLimit = 100
	input.Prompt = "› "

	return ReviewModel{
		ctx:      ctx,
		store:    store,
		suggest:  suggest,
		entries:  entries,
		reviewed: make(map[int]bool),
		input:    input,
		help:     help.New(),
		keys:     DefaultKeyMap(),
	}
}

// Init implements tea.Model.
func (m ReviewModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case entryUpdatedMsg:
		return m.applyUpdate(msg), nil

	case tea.KeyMsg:
		if m.mode == modeEditMerchant {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}

	return m, nil
}

func (m ReviewModel) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.saving || len(m.entries) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.Skip):
		m = m.advance()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Edit):
		m.mode = modeEditMerchant
		m.input.SetValue(m.entries[m.cursor].Merchant)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Pick):
		suggestions := m.currentSuggestions()
		choice := int(msg.Runes[0] - '1')
		if choice >= len(suggestions) {
			return m, nil
		}
		category := suggestions[choice].Category
		confirmed := ConfirmedConfidence
		return m.save(service.EntryUpdate{Category: &category, Confidence: &confirmed})
	}

	return m, nil
}

func (m ReviewModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Save):
		merchant := strings.TrimSpace(m.input.Value())
		if merchant == "" {
			m.status = cli.FormatWarning("Merchant cannot be empty")
			return m, nil
		}
		m.mode = modeBrowse
		m.input.Blur()
		confirmed := ConfirmedConfidence
		return m.save(service.EntryUpdate{Merchant: &merchant, Confidence: &confirmed})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ReviewModel) save(update service.EntryUpdate) (tea.Model, tea.Cmd) {
	m.saving = true
	m.err = nil
	m.status = ""

	index := m.cursor
	id := m.entries[index].ID
	ctx, store := m.ctx, m.store
	return m, func() tea.Msg {
		return entryUpdatedMsg{index: index, update: update, err: store.UpdateEntry(ctx, id, update)}
	}
}

func (m ReviewModel) applyUpdate(msg entryUpdatedMsg) ReviewModel {
	m.saving = false
	if msg.err != nil {
		m.err = msg.err
		return m
	}

	entry := m.entries[msg.index]
	if msg.update.Merchant != nil {
		entry.Merchant = *msg.update.Merchant
	}
	if msg.update.Category != nil {
		entry.Category = *msg.update.Category
	}
	if msg.update.Confidence != nil {
		entry.Confidence = *msg.update.Confidence
	}
	m.entries[msg.index] = entry

	if !m.reviewed[msg.index] {
		m.updated++
	}
	m.reviewed[msg.index] = true
	m.status = cli.FormatSuccess("Updated " + entry.Merchant)

	if msg.index == m.cursor {
		m = m.advance()
	}
	return m
}

func (m ReviewModel) advance() ReviewModel {
	if m.cursor < len(m.entries)-1 {
		m.cursor++
	}
	return m
}

func (m ReviewModel) currentSuggestions() []pattern.Suggestion {
	if m.suggest == nil || len(m.entries) == 0 {
		return nil
	}
	entry := m.entries[m.cursor]
	suggestions := m.suggest(entry.Merchant, entry.Description)
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}

// Updated returns how many entries were corrected.
func (m ReviewModel) Updated() int {
	return m.updated
}

// Entries returns the entries with corrections applied.
func (m ReviewModel) Entries() []model.SpendingEntry {
	return m.entries
}

// View implements tea.Model.
func (m ReviewModel) View() string {
	if len(m.entries) == 0 {
		return cli.FormatInfo("Nothing to review") + "\n"
	}

	var b strings.Builder
	b.WriteString(cli.FormatTitle(fmt.Sprintf("Review %d/%d", m.cursor+1, len(m.entries))))
	b.WriteString("\n")

	start := max(0, min(m.cursor-visibleRows/2, len(m.entries)-visibleRows))
	end := min(len(m.entries), start+visibleRows)
	for i := start; i < end; i++ {
		b.WriteString(m.row(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(cli.RenderEntry(m.entries[m.cursor]))
	b.WriteString("\n")

	if m.mode == modeEditMerchant {
		b.WriteString(cli.LabelStyle.Render("Merchant") + " " + m.input.View() + "\n")
	} else if suggestions := m.currentSuggestions(); len(suggestions) > 0 {
		b.WriteString(cli.BoldStyle.Render("Suggestions") + "\n")
		b.WriteString(cli.RenderSuggestions(suggestions) + "\n")
	}

	switch {
	case m.saving:
		b.WriteString(cli.SubtleStyle.Render("Saving…") + "\n")
	case m.err != nil:
		b.WriteString(cli.FormatError(m.err.Error()) + "\n")
	case m.status != "":
		b.WriteString(m.status + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m ReviewModel) row(i int) string {
	entry := m.entries[i]

	pointer := "  "
	if i == m.cursor {
		pointer = cli.BoldStyle.Render("› ")
	}
	mark := " "
	if m.reviewed[i] {
		mark = cli.SuccessStyle.Render(cli.SuccessIcon)
	}

	merchant := []rune(entry.Merchant)
	if len(merchant) > 24 {
		merchant = append(merchant[:23], '…')
	}

	return fmt.Sprintf("%s%s %s ฿%10s  %-24s %s",
		pointer,
		mark,
		entry.Date.Format("2006-01-02"),
		entry.Amount.StringFixed(2),
		string(merchant),
		cli.FormatConfidence(entry.Confidence),
	)
}

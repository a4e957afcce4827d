package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dyike/patvec/pkg/patvec"
)

// FocusedPane represents which pane has focus
type FocusedPane int

const (
	FocusInput FocusedPane = iota
	FocusResults
	FocusDetail
)

// SearchMode selects the search strategy
type SearchMode int

const (
	ModeSemantic SearchMode = iota
	ModeKeyword
)

// resultRow is a display-normalized search hit
type resultRow struct {
	PatentID     string
	PatentNumber string
	Title        string
	Score        float64
}

// Model represents the search browser state
type Model struct {
	// Components
	input    textinput.Model
	viewport viewport.Model

	// State
	width     int
	height    int
	focused   FocusedPane
	mode      SearchMode
	ready     bool
	searching bool

	// Data
	query       string
	results     []resultRow
	resultIndex int
	detail      *patvec.Patent
	status      *patvec.Status

	// Dependencies
	engine *patvec.PatVec
	ctx    context.Context

	// Error
	err error
}

// NewModel creates a new search browser model
func NewModel(ctx context.Context, engine *patvec.PatVec) Model {
	ti := textinput.New()
	ti.Placeholder = "Search patents... (Enter to search, Ctrl+K to toggle mode)"
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		input:   ti,
		focused: FocusInput,
		mode:    ModeSemantic,
		engine:  engine,
		ctx:     ctx,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.loadStatus,
	)
}

// loadStatus loads engine status for the status bar
func (m Model) loadStatus() tea.Msg {
	status, err := m.engine.Status()
	if err != nil {
		return ErrorMsg{Err: err}
	}
	return StatusLoadedMsg{Status: status}
}

// doSearch runs the search with the current mode
func (m Model) doSearch(query string) tea.Cmd {
	mode := m.mode
	engine := m.engine
	ctx := m.ctx

	return func() tea.Msg {
		if mode == ModeKeyword {
			results, err := engine.SearchKeyword(query, 20)
			if err != nil {
				return ErrorMsg{Err: err}
			}
			return KeywordResultsMsg{Query: query, Results: results}
		}

		results, err := engine.SearchTop5(ctx, query)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return SearchResultsMsg{Query: query, Results: results}
	}
}

// loadDetail loads the selected patent
func (m Model) loadDetail() tea.Cmd {
	if m.resultIndex >= len(m.results) {
		return nil
	}
	id := m.results[m.resultIndex].PatentID
	engine := m.engine

	return func() tea.Msg {
		patent, err := engine.GetPatent(id)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return PatentLoadedMsg{Patent: patent}
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		detailWidth := m.width - listWidth(m.width) - 6
		detailHeight := m.height - 8 // input + status bar
		m.viewport = viewport.New(detailWidth, detailHeight)
		m.viewport.SetContent(m.renderDetail())
		m.input.Width = m.width - 6

	case SearchResultsMsg:
		m.searching = false
		m.err = nil
		m.query = msg.Query
		m.results = m.results[:0]
		for _, r := range msg.Results {
			m.results = append(m.results, resultRow{
				PatentID:     r.PatentID,
				PatentNumber: r.PatentNumber,
				Title:        r.Title,
				Score:        r.Score,
			})
		}
		m.resultIndex = 0
		m.detail = nil
		if len(m.results) > 0 {
			m.focused = FocusResults
			m.input.Blur()
			return m, m.loadDetail()
		}
		m.viewport.SetContent(m.renderDetail())

	case KeywordResultsMsg:
		m.searching = false
		m.err = nil
		m.query = msg.Query
		m.results = m.results[:0]
		for _, r := range msg.Results {
			m.results = append(m.results, resultRow{
				PatentID:     r.PatentID,
				PatentNumber: r.PatentNumber,
				Title:        r.Title,
				Score:        r.Score,
			})
		}
		m.resultIndex = 0
		m.detail = nil
		if len(m.results) > 0 {
			m.focused = FocusResults
			m.input.Blur()
			return m, m.loadDetail()
		}
		m.viewport.SetContent(m.renderDetail())

	case PatentLoadedMsg:
		m.detail = msg.Patent
		m.viewport.SetContent(m.renderDetail())
		m.viewport.GotoTop()

	case StatusLoadedMsg:
		status := msg.Status
		m.status = &status

	case ErrorMsg:
		m.err = msg.Err
		m.searching = false
	}

	return m, nil
}

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global shortcuts
	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		return m, tea.Quit

	case "tab":
		// Cycle focus: Input -> Results -> Detail -> Input
		switch m.focused {
		case FocusInput:
			m.focused = FocusResults
			m.input.Blur()
		case FocusResults:
			m.focused = FocusDetail
		case FocusDetail:
			m.focused = FocusInput
			m.input.Focus()
		}
		return m, nil

	case "ctrl+k":
		// Toggle search mode
		if m.mode == ModeSemantic {
			m.mode = ModeKeyword
		} else {
			m.mode = ModeSemantic
		}
		return m, nil

	case "/":
		if m.focused != FocusInput {
			m.focused = FocusInput
			m.input.Focus()
			return m, nil
		}
	}

	switch m.focused {
	case FocusInput:
		if msg.String() == "enter" && !m.searching {
			query := strings.TrimSpace(m.input.Value())
			if query != "" {
				m.searching = true
				m.err = nil
				return m, m.doSearch(query)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case FocusResults:
		switch msg.String() {
		case "up", "k":
			if m.resultIndex > 0 {
				m.resultIndex--
				return m, m.loadDetail()
			}
		case "down", "j":
			if m.resultIndex < len(m.results)-1 {
				m.resultIndex++
				return m, m.loadDetail()
			}
		case "enter":
			return m, m.loadDetail()
		case "q":
			return m, tea.Quit
		}
		return m, nil

	case FocusDetail:
		if msg.String() == "q" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// listWidth computes the result list width
func listWidth(total int) int {
	w := total / 3
	if w < 30 {
		w = 30
	}
	return w
}

// View implements tea.Model
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	inputStyle := InputStyle
	if m.focused == FocusInput {
		inputStyle = InputFocusedStyle
	}
	inputView := inputStyle.Width(m.width - 4).Render(m.input.View())

	listView := m.renderResults()
	detailView := DetailStyle.
		Width(m.width - listWidth(m.width) - 6).
		Height(m.height - 8).
		Render(m.viewport.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top, listView, detailView)

	return lipgloss.JoinVertical(lipgloss.Left,
		inputView,
		body,
		m.renderStatusBar(),
	)
}

// renderResults renders the result list pane
func (m Model) renderResults() string {
	var b strings.Builder

	if m.searching {
		b.WriteString(HelpStyle.Render("Searching..."))
	} else if len(m.results) == 0 {
		b.WriteString(HelpStyle.Render("No results"))
	}

	for i, r := range m.results {
		label := r.PatentNumber
		if label == "" {
			label = r.Title
		}
		line := fmt.Sprintf("%s %.2f %s", label, r.Score, truncate(r.Title, 40))

		style := ResultItemStyle
		if i == m.resultIndex {
			style = ResultItemSelectedStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	return ResultListStyle.
		Width(listWidth(m.width)).
		Height(m.height - 8).
		Render(b.String())
}

// renderDetail renders the selected patent detail
func (m Model) renderDetail() string {
	if m.detail == nil {
		return HelpStyle.Render("Select a result to view details")
	}

	var b strings.Builder
	b.WriteString(DetailTitleStyle.Render(m.detail.Title))
	b.WriteString("\n\n")

	if m.detail.PatentNumber != "" {
		b.WriteString(DetailLabelStyle.Render("Number: "))
		b.WriteString(m.detail.PatentNumber)
		b.WriteString("\n")
	}
	if m.detail.FilingDate != nil {
		b.WriteString(DetailLabelStyle.Render("Filed:  "))
		b.WriteString(m.detail.FilingDate.Format("2006-01-02"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.detail.Abstract != "" {
		b.WriteString(m.detail.Abstract)
		b.WriteString("\n\n")
	}
	b.WriteString(m.detail.Content)

	return b.String()
}

// renderStatusBar renders the bottom status bar
func (m Model) renderStatusBar() string {
	mode := "semantic"
	if m.mode == ModeKeyword {
		mode = "keyword"
	}
	left := StatusModeStyle.Render(mode)

	var middle string
	if m.err != nil {
		middle = StatusErrorStyle.Render(truncate(m.err.Error(), m.width/2))
	} else if m.status != nil {
		middle = fmt.Sprintf("%d patents, %d embedded", m.status.TotalPatents, m.status.EmbeddedCount)
	}

	help := HelpStyle.Render("tab: focus  ctrl+k: mode  q: quit")

	return StatusBarStyle.Width(m.width).Render(
		lipgloss.JoinHorizontal(lipgloss.Center, left, " ", middle, "  ", help))
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// Run starts the search browser
func Run(ctx context.Context, engine *patvec.PatVec) error {
	p := tea.NewProgram(NewModel(ctx, engine), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

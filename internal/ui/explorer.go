package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/wordbias/internal/emoji"
	"github.com/yildizm/wordbias/internal/formatter"
)

const historySize = 8

// ExplorerModel is the interactive word explorer
type ExplorerModel struct {
	ctx       context.Context
	inspector *Inspector
	theme     Theme

	input   textinput.Model
	spinner spinner.Model

	current *Inspection
	history []*Inspection
	pending string
	err     error
	busy    bool

	width    int
	height   int
	quitting bool
}

// NewExplorerModel creates an explorer over inspector
func NewExplorerModel(ctx context.Context, inspector *Inspector) *ExplorerModel {
	input := textinput.New()
	input.Placeholder = "type a word, e.g. nurse"
	input.Prompt = "word> "
	input.CharLimit = 64
	input.Width = 40
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot

	return &ExplorerModel{
		ctx:       ctx,
		inspector: inspector,
		theme:     GetTheme(),
		input:     input,
		spinner:   s,
	}
}

// Init implements tea.Model
func (m *ExplorerModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m *ExplorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(20, msg.Width-12)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case inspectDoneMsg:
		m.busy = false
		m.pending = ""
		m.err = nil
		m.current = msg.result
		m.remember(msg.result)
		return m, nil

	case inspectErrorMsg:
		m.busy = false
		m.pending = ""
		m.err = fmt.Errorf("%s: %w", msg.word, msg.err)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *ExplorerModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEnter:
		word := strings.TrimSpace(m.input.Value())
		if word == "" || m.busy {
			return m, nil
		}
		m.busy = true
		m.pending = word
		m.input.SetValue("")
		return m, tea.Batch(m.spinner.Tick, inspectCommand(m.ctx, m.inspector, word))

	case tea.KeyUp:
		if len(m.history) > 0 {
			m.input.SetValue(m.history[0].Word)
			m.input.CursorEnd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// remember keeps the most recent inspections, newest first, one per word
func (m *ExplorerModel) remember(r *Inspection) {
	kept := []*Inspection{r}
	for _, h := range m.history {
		if h.Word != r.Word && len(kept) < historySize {
			kept = append(kept, h)
		}
	}
	m.history = kept
}

// View implements tea.Model
func (m *ExplorerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Primary)
	subtitle := lipgloss.NewStyle().Foreground(m.theme.Secondary)
	b.WriteString(title.Render(emoji.GetEmoji("subspace") + " Gender Bias Explorer"))
	if m.inspector != nil && m.inspector.Model != nil {
		b.WriteString(subtitle.Render("  " + m.inspector.Model.Name()))
	}
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.busy:
		b.WriteString(fmt.Sprintf("%s Inspecting %s...\n", m.spinner.View(), m.pending))
	case m.err != nil:
		b.WriteString(lipgloss.NewStyle().Foreground(m.theme.Error).Render(emoji.GetEmoji("error") + " " + m.err.Error()))
		b.WriteString("\n")
	}

	if m.current != nil {
		b.WriteString(m.renderInspection(m.current))
	}

	if len(m.history) > 1 {
		b.WriteString("\n")
		b.WriteString(m.renderHistory())
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(m.theme.Muted).Render("enter inspect • ↑ recall • esc quit"))
	b.WriteString("\n")

	return b.String()
}

func (m *ExplorerModel) renderInspection(r *Inspection) string {
	var b strings.Builder
	muted := lipgloss.NewStyle().Foreground(m.theme.Muted)
	heading := lipgloss.NewStyle().Bold(true)

	g := r.Projection.Gender
	lean := lipgloss.NewStyle().Bold(true).Foreground(m.theme.leanColor(g, emoji.NeutralBand))
	b.WriteString(fmt.Sprintf("%s %s  %s %s\n",
		emoji.ForScore(float64(g)),
		heading.Render(r.Word),
		formatter.ProjectionBar(g),
		lean.Render(fmt.Sprintf("%+.3f", g))))
	b.WriteString(muted.Render(fmt.Sprintf("   second component %+.3f", r.Projection.Second)))
	b.WriteString("\n")

	if len(r.Neighbors) > 0 {
		b.WriteString("\n" + heading.Render("Nearest words") + "\n")
		for i, n := range r.Neighbors {
			b.WriteString(fmt.Sprintf("  %2d. %-18s %.3f\n", i+1, n.Word, n.Score))
		}
	}

	if r.Comparison != nil && len(r.Comparison.Gaps) > 0 {
		b.WriteString("\n" + heading.Render("Pair gaps") + muted.Render("  cos(word, A) - cos(word, B)") + "\n")
		for _, gap := range r.Comparison.Gaps {
			style := lipgloss.NewStyle().Foreground(m.theme.leanColor(gap.Gap, emoji.NeutralBand))
			b.WriteString(fmt.Sprintf("  %-18s %s\n", gap.Pair.String(), style.Render(fmt.Sprintf("%+.3f", gap.Gap))))
		}
		b.WriteString(fmt.Sprintf("  %-18s %+.3f\n", "mean", r.Comparison.MeanGap))
		if len(r.Comparison.Skipped) > 0 {
			b.WriteString(muted.Render(fmt.Sprintf("  %d pairs skipped", len(r.Comparison.Skipped))))
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Border).
		Padding(0, 1).
		Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func (m *ExplorerModel) renderHistory() string {
	parts := make([]string, 0, len(m.history)-1)
	for _, h := range m.history[1:] {
		style := lipgloss.NewStyle().Foreground(m.theme.leanColor(h.Projection.Gender, emoji.NeutralBand))
		parts = append(parts, style.Render(fmt.Sprintf("%s %+.2f", h.Word, h.Projection.Gender)))
	}
	return lipgloss.NewStyle().Foreground(m.theme.Muted).Render("recent: ") + strings.Join(parts, "  ") + "\n"
}

// RunExplorer runs the explorer until the user quits
func RunExplorer(ctx context.Context, inspector *Inspector) error {
	p := tea.NewProgram(NewExplorerModel(ctx, inspector), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

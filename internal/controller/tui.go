package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	m "trapcov.dev/pkg/trapcov/internal/model"
)

const (
	// lines reserved for the title, the warning and the footer of the pager.
	pagerChromeHeight = 4
	defaultPagerWidth = 100
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output io.Writer
	input  io.Reader
}

// NewTUI creates a new TUI writing to output.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output, input: os.Stdin}
}

// DisplayReplayStats prints the per-trace table above the pager.
func (t *TUI) DisplayReplayStats(ctx context.Context, stats []m.ReplayStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(stats) == 0 {
		return nil
	}

	_, err := fmt.Fprintf(t.output, "\n%s", renderStatsTable(stats))

	return err
}

// DisplayCoverage shows the coverage table, paging it when it does not fit the terminal.
func (t *TUI) DisplayCoverage(ctx context.Context, report *m.CoverageData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if report == nil {
		return errNilReport
	}

	model := newCoverageModel(report)

	if f, ok := t.output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			model = model.resize(width, height)
		}
	}

	// If the report is small, just print and exit
	if !model.needsPagination() {
		_, err := fmt.Fprint(t.output, model.staticView())
		return err
	}

	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(t.input),
		tea.WithOutput(t.output),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}

// coverageModel is the Bubble Tea model paging through a rendered report.
type coverageModel struct {
	title    string
	warning  string
	body     string
	summary  string
	viewport viewport.Model
	ready    bool
	quitting bool
}

func newCoverageModel(report *m.CoverageData) coverageModel {
	body := "No module was instrumented.\n"
	if len(report.Modules) > 0 {
		body = renderCoverageTable(report)
	}

	warning := ""
	if report.ExitCode != 0 {
		warning = WarningExitCodeMessage
	}

	summaryStyle := goodStyle
	if report.Rate.Unexecuted() > 0 {
		summaryStyle = badStyle
	}

	return coverageModel{
		title:   reportTitle(report),
		warning: warning,
		body:    body,
		summary: summaryStyle.Render(fmt.Sprintf("Line coverage: %.2f%%", report.Rate.Percentage())),
	}
}

func (cm coverageModel) resize(width, height int) coverageModel {
	bodyHeight := height - pagerChromeHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	if width <= 0 {
		width = defaultPagerWidth
	}

	if !cm.ready {
		cm.viewport = viewport.New(width, bodyHeight)
		cm.viewport.SetContent(cm.body)
		cm.ready = true

		return cm
	}

	cm.viewport.Width = width
	cm.viewport.Height = bodyHeight

	return cm
}

func (cm coverageModel) needsPagination() bool {
	return cm.ready && strings.Count(cm.body, "\n") > cm.viewport.Height
}

func (cm coverageModel) Init() tea.Cmd {
	return nil
}

func (cm coverageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return cm.resize(msg.Width, msg.Height), nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			cm.quitting = true
			return cm, tea.Quit
		case "g", "home":
			cm.viewport.GotoTop()
			return cm, nil
		case "G", "end":
			cm.viewport.GotoBottom()
			return cm, nil
		}
	}

	var cmd tea.Cmd

	cm.viewport, cmd = cm.viewport.Update(msg)

	return cm, cmd
}

func (cm coverageModel) View() string {
	if cm.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(cm.title))
	b.WriteString("\n")

	if cm.warning != "" {
		b.WriteString(warningStyle.Render(cm.warning))
	}

	b.WriteString("\n")

	if cm.ready {
		b.WriteString(cm.viewport.View())
	} else {
		b.WriteString(cm.body)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  %s", cm.summary,
		helpStyle.Render(fmt.Sprintf("%3.f%% | ↑/k ↓/j | g/G | q: quit", cm.viewport.ScrollPercent()*100)))

	return b.String()
}

// staticView renders the whole report without scrolling.
func (cm coverageModel) staticView() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(cm.title))
	b.WriteString("\n")

	if cm.warning != "" {
		b.WriteString(warningStyle.Render(cm.warning))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(cm.body)
	b.WriteString(cm.summary)
	b.WriteString("\n")

	return b.String()
}

// Package tui renders a live terminal view of a pipeline run.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// SnapshotMsg carries the latest agent statuses.
type SnapshotMsg []model.AgentStatus

// DoneMsg carries the finished run.
type DoneMsg model.PipelineState

// RunFunc executes one pipeline run, reporting snapshots through onUpdate.
type RunFunc func(ctx context.Context, onUpdate func([]model.AgentStatus)) model.PipelineState

// Model is the bubbletea model for one run.
type Model struct {
	company string
	agents  []model.AgentStatus
	bars    []progress.Model
	final   *model.PipelineState
	cancel  context.CancelFunc
	width   int
}

// New returns a Model for company with every agent pending.
func New(company string, cancel context.CancelFunc) Model {
	m := Model{company: company, cancel: cancel, width: 80}
	for _, name := range model.AgentNames {
		m.agents = append(m.agents, model.AgentStatus{Name: name, Status: model.AgentPending})
		bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
		bar.Width = 30
		m.bars = append(m.bars, bar)
	}
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := min(max(msg.Width-40, 10), 40)
		for i := range m.bars {
			m.bars[i].Width = w
		}
	case SnapshotMsg:
		m.apply(msg)
	case DoneMsg:
		st := model.PipelineState(msg)
		m.final = &st
		m.apply(st.Agents)
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) apply(agents []model.AgentStatus) {
	for _, a := range agents {
		for i := range m.agents {
			if m.agents[i].Name == a.Name {
				m.agents[i] = a
			}
		}
	}
}

// Final is the finished run, or nil while running.
func (m Model) Final() *model.PipelineState { return m.final }

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Researching " + m.company))
	b.WriteString("\n")
	for i, a := range m.agents {
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			icon(a.Status), " ",
			nameStyle.Render(string(a.Name)),
			m.bars[i].ViewAs(float64(a.Progress)/100), " ",
			fmt.Sprintf("%3d%% ", a.Progress),
			messageStyle.Render(a.Message),
		)
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.final != nil {
		b.WriteString(summary(*m.final))
	}
	return b.String()
}

func icon(s model.AgentState) string {
	switch s {
	case model.AgentRunning:
		return "●"
	case model.AgentCompleted:
		return doneStyle.Render("✓")
	case model.AgentError:
		return errorStyle.Render("✗")
	}
	return messageStyle.Render("○")
}

func summary(st model.PipelineState) string {
	if st.Status == model.PipelineError {
		return boxStyle.Render(errorStyle.Render("Error: " + st.Error))
	}
	var lines []string
	if st.Score != nil {
		rec := string(st.Score.Recommendation)
		lines = append(lines, fmt.Sprintf("Intent score %d/100  %s  (confidence %s)",
			st.Score.Overall, recommendationStyle(rec).Render(strings.ToUpper(rec)), st.Score.ConfidenceLevel))
	}
	if st.Research != nil && len(st.Research.Contacts) > 0 {
		c := st.Research.Contacts[0]
		lines = append(lines, fmt.Sprintf("Target: %s, %s", c.Name, c.Title))
	}
	if st.Outreach != nil {
		lines = append(lines, "Subject: "+st.Outreach.Email.Subject)
	}
	return boxStyle.Render(strings.Join(lines, "\n")) + "\n"
}

// Run drives a pipeline run inside a bubbletea program writing to out and
// returns the finished state. If the user quits early the run's context is
// cancelled and Run waits for it to wind down.
func Run(ctx context.Context, company string, out io.Writer, run RunFunc, opts ...tea.ProgramOption) (model.PipelineState, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithOutput(out), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(company, cancel), opts...)

	done := make(chan model.PipelineState, 1)
	go func() {
		st := run(ctx, func(agents []model.AgentStatus) { p.Send(SnapshotMsg(agents)) })
		done <- st
		p.Send(DoneMsg(st))
	}()

	_, err := p.Run()
	st := <-done
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return st, eris.Wrap(err, "tui: run")
	}
	return st, nil
}

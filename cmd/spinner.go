package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// startupStep is one labelled stage of listener startup.
type startupStep struct {
	label string
	run   func(context.Context) error
}

type stepDoneMsg struct {
	err error
}

type startupModel struct {
	ctx     context.Context
	spinner spinner.Model
	steps   []startupStep
	current int
	err     error
	done    bool
}

func newStartupModel(ctx context.Context, steps []startupStep) startupModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return startupModel{ctx: ctx, spinner: s, steps: steps}
}

func (m startupModel) Init() tea.Cmd {
	if len(m.steps) == 0 {
		return tea.Quit
	}
	return tea.Batch(m.spinner.Tick, m.runStep(0))
}

func (m startupModel) runStep(i int) tea.Cmd {
	step := m.steps[i]
	ctx := m.ctx
	return func() tea.Msg {
		return stepDoneMsg{err: step.run(ctx)}
	}
}

func (m startupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stepDoneMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("%s: %w", m.steps[m.current].label, msg.err)
			m.done = true
			return m, tea.Quit
		}
		m.current++
		if m.current == len(m.steps) {
			m.done = true
			return m, tea.Quit
		}
		return m, m.runStep(m.current)
	default:
		return m, nil
	}
}

func (m startupModel) View() string {
	if m.done || m.current >= len(m.steps) {
		return ""
	}

	return fmt.Sprintf("%s %s (%d/%d)", m.spinner.View(), m.steps[m.current].label, m.current+1, len(m.steps))
}

// runStartup runs steps in order behind a spinner naming the current one.
// The first failing step stops startup and is named in the error.
func runStartup(ctx context.Context, output io.Writer, steps ...startupStep) error {
	p := tea.NewProgram(
		newStartupModel(ctx, steps),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(startupModel)
	if !ok {
		return fmt.Errorf("unexpected final startup model type %T", finalModel)
	}

	return result.err
}

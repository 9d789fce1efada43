package catalog

import (
	"errors"
	"io"

	"github.com/bnema/roland/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type Catalog struct {
	Macros   []domain.Macro
	Keybinds []domain.KeybindAction
}

type renderReadyMsg struct{}

type model struct {
	catalog Catalog
	opts    RenderOptions
	styles  styles
	output  string
}

func newModel(catalog Catalog, opts RenderOptions) model {
	return model{
		catalog: catalog,
		opts:    opts,
		styles:  newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = renderView(m.catalog, m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func Render(catalog Catalog, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(catalog, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/jclass/classfile"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// browseItem is one entry of the section list with its pre-rendered
// detail text.
type browseItem struct {
	title  string
	detail string
}

type modelState int

const (
	stateSelect modelState = iota
	stateDetail
)

type interactiveModel struct {
	err      error
	cfg      *Config
	log      *zap.Logger
	filename string
	items    []browseItem
	viewport viewport.Model
	selected int
	width    int
	height   int
	state    modelState
	loaded   bool
}

func newInteractiveModel(filename string, cfg *Config, log *zap.Logger) *interactiveModel {
	return &interactiveModel{
		filename: filename,
		cfg:      cfg,
		log:      log,
		state:    stateSelect,
		viewport: viewport.New(80, 20),
	}
}

type loadedMsg struct {
	err   error
	items []browseItem
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadClass
}

func (m *interactiveModel) loadClass() tea.Msg {
	cf, _, err := loadClass(m.filename, m.cfg, m.log)
	if err != nil {
		return loadedMsg{err: err}
	}
	items, err := browseItems(cf, lipgloss.DefaultRenderer())
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{items: items}
}

// browseItems splits the report into one item per header, pool, member
// and class attribute list. Method items include disassembly.
func browseItems(cf *classfile.ClassFile, r *lipgloss.Renderer) ([]browseItem, error) {
	var items []browseItem
	render := func(title string, fn func(p *printer)) error {
		var b strings.Builder
		p := newPrinter(&b, r)
		p.cp = cf.ConstantPool
		p.code = true
		fn(p)
		if p.err != nil {
			return fmt.Errorf("%s: %w", title, p.err)
		}
		items = append(items, browseItem{title: title, detail: b.String()})
		return nil
	}

	if err := render("Header", func(p *printer) { p.header(cf) }); err != nil {
		return nil, err
	}
	if err := render(fmt.Sprintf("Constant pool (%d)", len(cf.ConstantPool)), func(p *printer) { p.constantPool() }); err != nil {
		return nil, err
	}
	for i := range cf.Fields {
		f := &cf.Fields[i]
		if err := render("field "+memberTitle(cf.ConstantPool, f), func(p *printer) { p.member(f, classfile.TargetField) }); err != nil {
			return nil, err
		}
	}
	for i := range cf.Methods {
		mth := &cf.Methods[i]
		if err := render("method "+memberTitle(cf.ConstantPool, mth), func(p *printer) { p.member(mth, classfile.TargetMethod) }); err != nil {
			return nil, err
		}
	}
	if err := render(fmt.Sprintf("Attributes (%d)", len(cf.Attributes)), func(p *printer) { p.attributes(cf.Attributes, "") }); err != nil {
		return nil, err
	}
	return items, nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 1)
		return m, nil

	case loadedMsg:
		m.loaded = true
		m.err = msg.err
		m.items = msg.items
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelect && m.selected > 0 {
				m.selected--
				return m, nil
			}

		case "down", "j":
			if m.state == stateSelect && m.selected < len(m.items)-1 {
				m.selected++
				return m, nil
			}

		case "enter":
			if m.state == stateSelect && len(m.items) > 0 {
				m.viewport.SetContent(m.items[m.selected].detail)
				m.viewport.GotoTop()
				m.state = stateDetail
				return m, nil
			}

		case "esc":
			if m.state == stateDetail {
				m.state = stateSelect
				return m, nil
			}
		}
	}

	if m.state == stateDetail {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.loaded {
		return "Loading class..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Class Browser"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelect:
		for i, item := range m.items {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + item.title))
			} else {
				b.WriteString("  " + itemStyle.Render(item.title))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter open • q quit"))

	case stateDetail:
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(fmt.Sprintf("↑/↓ scroll • esc back • q quit • %3.f%%", m.viewport.ScrollPercent()*100)))
	}

	return b.String()
}

func runInteractive(filename string, cfg *Config, log *zap.Logger) error {
	p := tea.NewProgram(newInteractiveModel(filename, cfg, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

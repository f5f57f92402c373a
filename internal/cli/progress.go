package cli

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/saucier-dev/saucier/internal/models"
	"github.com/saucier-dev/saucier/internal/service"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// progressMsg carries an upload progress update.
type progressMsg struct {
	done  int
	total int
}

// uploadDoneMsg signals the upload finished, successfully or not.
type uploadDoneMsg struct {
	err error
}

// loadModel is the bubbletea model for upload progress.
type loadModel struct {
	progress progress.Model
	theme    Theme
	done     int
	total    int
	finished bool
	canceled bool
	err      error
	cancel   context.CancelFunc
}

func newLoadModel(total int, cancel context.CancelFunc) loadModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return loadModel{
		progress: prog,
		theme:    defaultTheme,
		total:    total,
		cancel:   cancel,
	}
}

// Init returns the initial command.
func (m loadModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m loadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.canceled = true
			m.cancel()
			return m, nil
		}

	case progressMsg:
		m.done = msg.done
		m.total = msg.total
		return m, nil

	case uploadDoneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m loadModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m loadModel) renderContent() string {
	if m.finished {
		return m.finalView()
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}

	status := m.theme.statusStyle().Render("[loading]")
	bar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d recipes", m.done, m.total)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to cancel")

	return fmt.Sprintf("%s %s %s\n%s\n", status, bar, counts, hint)
}

func (m loadModel) finalView() string {
	if m.err != nil {
		if m.canceled {
			return m.theme.hintStyle().Render("\nLoad canceled.\n")
		}
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Load failed: %s\n", m.err))
	}
	return m.theme.completedStyle().Render("✓ Completed\n")
}

// RunLoadProgress uploads recipes while rendering an interactive progress
// bar. Ctrl+C cancels the upload.
func RunLoadProgress(ctx context.Context, svc *service.IngestService, recipes []models.Recipe) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newLoadModel(len(recipes), cancel)
	p := tea.NewProgram(model)

	go func() {
		err := svc.Upload(ctx, recipes, func(done, total int) {
			p.Send(progressMsg{done: done, total: total})
		})
		p.Send(uploadDoneMsg{err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(loadModel); ok {
		if m.canceled {
			return fmt.Errorf("load canceled")
		}
		if m.err != nil {
			return m.err
		}
	}

	return nil
}

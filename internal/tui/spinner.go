package tui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

var spinnerFrames = spinner.Spinner{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    120 * time.Millisecond,
}

type doneMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	label   string
	work    tea.Cmd
	done    bool
}

func newSpinnerModel(label string, work tea.Cmd) spinnerModel {
	return spinnerModel{
		spinner: spinner.New(spinner.WithSpinner(spinnerFrames), spinner.WithStyle(boldStyle)),
		label:   label,
		work:    work,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work)
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View clears the line once the work is done.
func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.label
}

// RunWithSpinner calls fn while a spinner followed by label animates on w.
// When w is not a terminal fn is simply called.
func RunWithSpinner[T any](ctx context.Context, w io.Writer, label string, fn func(context.Context) (T, error)) (T, error) {
	if !IsTerminal(w) {
		return fn(ctx)
	}

	var (
		res T
		err error
	)
	work := func() tea.Msg {
		res, err = fn(ctx)
		return doneMsg{}
	}

	p := tea.NewProgram(newSpinnerModel(label, work),
		tea.WithOutput(w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	if _, perr := p.Run(); perr != nil {
		// The renderer failed; the work still has to happen.
		return fn(ctx)
	}
	return res, err
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

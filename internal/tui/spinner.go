package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCanceled is returned when the user interrupts a spinner.
var ErrCanceled = errors.New("canceled")

// spinnerModel is the bubbletea model for a spinner.
type spinnerModel struct {
	spinner  spinner.Model
	message  string
	done     bool
	result   string
	err      error
	styles   *Styles
	quitting bool
}

// SpinnerOption configures a spinner.
type SpinnerOption func(*spinnerModel)

// WithSpinnerStyles colors the spinner and its result line.
func WithSpinnerStyles(s *Styles) SpinnerOption {
	return func(m *spinnerModel) {
		m.styles = s
		m.spinner.Style = s.Accent
	}
}

func newSpinnerModel(message string, opts ...SpinnerOption) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := spinnerModel{
		spinner: s,
		message: message,
		styles:  NewStyles(),
	}
	m.spinner.Style = m.styles.Accent

	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

type spinnerDoneMsg struct {
	result string
	err    error
}

// spinnerStatusMsg replaces the message while the work is running.
type spinnerStatusMsg string

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case spinnerStatusMsg:
		m.message = string(msg)
	case spinnerDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	if m.done {
		if m.err != nil {
			return m.styles.Error.Render("✗ "+m.err.Error()) + "\n"
		}
		return m.styles.Success.Render("✓ "+m.result) + "\n"
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.message)
}

// Spinner runs a spinner on a terminal while a function executes.
type Spinner struct {
	message string
	out     io.Writer
	opts    []SpinnerOption
}

// NewSpinner creates a spinner that draws on out.
func NewSpinner(message string, out io.Writer, opts ...SpinnerOption) *Spinner {
	return &Spinner{message: message, out: out, opts: opts}
}

// Run executes fn while displaying the spinner. fn may call status to
// replace the message. Interrupting the spinner cancels fn's context and
// returns ErrCanceled.
func (s *Spinner) Run(ctx context.Context, fn func(ctx context.Context, status func(string)) (string, error)) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinnerModel(s.message, s.opts...),
		tea.WithOutput(s.out),
		tea.WithContext(ctx),
	)

	go func() {
		result, err := fn(ctx, func(msg string) { p.Send(spinnerStatusMsg(msg)) })
		p.Send(spinnerDoneMsg{result: result, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	final := finalModel.(spinnerModel) //nolint:errcheck // type assertion always succeeds here
	if final.quitting {
		return "", ErrCanceled
	}
	return final.result, final.err
}

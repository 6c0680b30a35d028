package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// taskState holds the outcome of a background task shown behind a spinner
type taskState[T any] struct {
	mu     sync.RWMutex
	done   bool
	err    error
	result T
}

func (s *taskState[T]) set(result T, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.result = result
	s.err = err
}

func (s *taskState[T]) get() (bool, error, T) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done, s.err, s.result
}

type taskTickMsg time.Time

type spinnerModel[T any] struct {
	spinner spinner.Model
	label   string
	url     string
	state   *taskState[T]
}

func newSpinnerModel[T any](label, url string, state *taskState[T]) spinnerModel[T] {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return spinnerModel[T]{
		spinner: s,
		label:   label,
		url:     url,
		state:   state,
	}
}

func taskTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return taskTickMsg(t)
	})
}

func (m spinnerModel[T]) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, taskTickCmd())
}

func (m spinnerModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case taskTickMsg:
		done, _, _ := m.state.get()
		if done {
			return m, tea.Quit
		}
		return m, taskTickCmd()
	}

	return m, nil
}

func (m spinnerModel[T]) View() string {
	// Errors and results are printed by the caller
	if done, _, _ := m.state.get(); done {
		return ""
	}

	return fmt.Sprintf("\n  %s %s: %s\n\n",
		m.spinner.View(),
		m.label,
		infoStyle.Render(m.url),
	)
}

// runWithSpinner runs fn in the background while a spinner TUI is shown.
// Quitting the spinner does not stop fn.
func runWithSpinner[T any](label, url string, fn func() (T, error)) (T, error) {
	state := &taskState[T]{}

	go func() {
		state.set(fn())
	}()

	p := tea.NewProgram(newSpinnerModel(label, url, state))
	if _, err := p.Run(); err != nil {
		var zero T
		return zero, err
	}

	done, taskErr, result := state.get()
	if taskErr != nil {
		return result, taskErr
	}
	if !done {
		return result, fmt.Errorf("cancelled")
	}
	return result, nil
}

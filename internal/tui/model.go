package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Model is the Bubble Tea model for the analysis progress display.
type Model struct {
	tasks          []Task
	started        time.Time
	spinner        spinner.Model
	progress       progress.Model
	events         <-chan Event
	done           bool
	cancelled      bool
	username       string
	rateLimited    bool
	rateLimitReset time.Time
	now            func() time.Time
}

// doneMsg signals that the event channel was closed.
type doneMsg struct{}

// ModelOption is a functional option for configuring a Model.
type ModelOption func(*Model)

// WithTasks sets the tasks to display in the TUI.
func WithTasks(tasks []Task) ModelOption {
	return func(m *Model) {
		m.tasks = tasks
	}
}

// WithUsername shows the analyzed user above the task list.
func WithUsername(username string) ModelOption {
	return func(m *Model) {
		m.username = username
	}
}

// DefaultTasks returns the task list for a profile analysis.
func DefaultTasks() []Task {
	return []Task{
		NewTask(TaskProfile, "Fetching profile", ""),
		NewTask(TaskRepos, "Fetching repositories", "repositories"),
		NewTask(TaskAnalyze, "Analyzing", "languages"),
	}
}

// NewModel creates a new TUI model.
func NewModel(events <-chan Event, opts ...ModelOption) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	p := progress.New(
		progress.WithScaledGradient("#60a5fa", "#1e3a8a"),
		progress.WithWidth(25),
		progress.WithoutPercentage(),
	)

	m := Model{
		tasks:    DefaultTasks(),
		spinner:  s,
		progress: p,
		events:   events,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(&m)
	}
	m.started = m.now()

	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForEvent(m.events),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancelled = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case TaskEvent:
		var cmd tea.Cmd
		m, cmd = m.updateTask(msg)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case RateLimitEvent:
		m.rateLimited = msg.Limited
		m.rateLimitReset = msg.ResetAt
		return m, waitForEvent(m.events)

	case DoneEvent, doneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// Cancelled reports whether the user quit before the work finished.
func (m Model) Cancelled() bool {
	return m.cancelled
}

// updateTask folds a TaskEvent into its task and animates the progress bar.
func (m Model) updateTask(e TaskEvent) (Model, tea.Cmd) {
	// tasks is shared with the previous model value
	tasks := make([]Task, len(m.tasks))
	copy(tasks, m.tasks)
	m.tasks = tasks

	var cmd tea.Cmd
	for i := range m.tasks {
		if m.tasks[i].ID != e.Task {
			continue
		}
		m.tasks[i].apply(e, m.now())
		if e.Progress > 0 {
			cmd = m.progress.SetPercent(e.Progress)
		}
		break
	}
	return m, cmd
}

// failed reports whether any task ended in an error.
func (m Model) failed() bool {
	for _, t := range m.tasks {
		if t.Status == StatusError {
			return true
		}
	}
	return false
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	if m.username != "" {
		fmt.Fprintf(&b, "  Analyzing %s\n", userStyle.Render("@"+m.username))
	}

	for _, task := range m.tasks {
		b.WriteString(task.View(m.spinner.View(), m.progress))
		b.WriteString("\n")
	}

	if m.rateLimited {
		if d := m.rateLimitReset.Sub(m.now()).Round(time.Second); d > 0 {
			b.WriteString(warnStyle.Render(fmt.Sprintf("\n  Rate limited by GitHub (resets in %s)\n", d)))
		}
	}

	switch {
	case !m.done:
		b.WriteString(footerStyle.Render("\n  Press Ctrl+C to cancel"))
	case !m.failed():
		elapsed := m.now().Sub(m.started).Round(time.Millisecond)
		b.WriteString(footerStyle.Render(fmt.Sprintf("\n  Done in %s", elapsed)))
	}
	b.WriteString("\n")

	return b.String()
}

// waitForEvent creates a command that waits for the next event.
func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return event
	}
}

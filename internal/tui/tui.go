// Package tui renders live progress for a profile analysis with Bubble Tea.
package tui

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/spiffcs/gitgazer/internal/constants"
	"github.com/spiffcs/gitgazer/internal/ghclient"
)

// ErrCancelled is returned by Run when the user quits with Ctrl+C.
var ErrCancelled = errors.New("cancelled")

// Run starts the TUI and blocks until the event channel is closed, a
// DoneEvent arrives or the user cancels.
func Run(events <-chan Event, opts ...ModelOption) error {
	model := NewModel(events, opts...)
	// Don't use alt screen - render inline
	p := tea.NewProgram(model)
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.Cancelled() {
		return ErrCancelled
	}
	return nil
}

// ShouldUseTUI returns true if the TUI should be used based on environment.
func ShouldUseTUI() bool {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}

	ciVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"GITLAB_CI",
		"BUILDKITE",
	}

	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return false
		}
	}

	return true
}

// SendEvent sends an event to the channel in a non-blocking manner.
func SendEvent(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- e:
	default:
		// Non-blocking send - drop event if channel is full
	}
}

// SendTaskEvent is a convenience function for sending task events.
func SendTaskEvent(ch chan<- Event, task TaskID, status TaskStatus, opts ...TaskEventOption) {
	e := TaskEvent{
		Task:   task,
		Status: status,
	}
	for _, opt := range opts {
		opt(&e)
	}
	SendEvent(ch, e)
}

// TaskEventOption is a functional option for TaskEvent.
type TaskEventOption func(*TaskEvent)

// WithMessage sets the message on a TaskEvent.
func WithMessage(msg string) TaskEventOption {
	return func(e *TaskEvent) {
		e.Message = msg
	}
}

// WithCount sets the count on a TaskEvent.
func WithCount(count int) TaskEventOption {
	return func(e *TaskEvent) {
		e.Count = count
	}
}

// WithProgress sets the progress on a TaskEvent.
func WithProgress(progress float64) TaskEventOption {
	return func(e *TaskEvent) {
		e.Progress = progress
	}
}

// WithError sets the error on a TaskEvent.
func WithError(err error) TaskEventOption {
	return func(e *TaskEvent) {
		e.Error = err
	}
}

// FetchProgress adapts fetcher progress into task events. Repository page
// updates closer together than constants.TUIUpdateInterval are dropped.
func FetchProgress(ch chan<- Event) ghclient.ProgressFunc {
	var (
		mu   sync.Mutex
		last time.Time
	)

	return func(p ghclient.Progress) {
		switch p.Stage {
		case ghclient.StageProfile:
			SendTaskEvent(ch, TaskProfile, StatusComplete)
			SendTaskEvent(ch, TaskRepos, StatusRunning, WithMessage(fmt.Sprintf("0/%d", p.Expected)))

		case ghclient.StageRepositories:
			mu.Lock()
			now := time.Now()
			if now.Sub(last) < constants.TUIUpdateInterval {
				mu.Unlock()
				return
			}
			last = now
			mu.Unlock()

			opts := []TaskEventOption{
				WithCount(p.Fetched),
				WithMessage(fmt.Sprintf("page %d", p.Page)),
			}
			if p.Expected > 0 {
				opts = append(opts, WithProgress(min(float64(p.Fetched)/float64(p.Expected), 1)))
			}
			SendTaskEvent(ch, TaskRepos, StatusRunning, opts...)
		}
	}
}

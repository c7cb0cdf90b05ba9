package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/spiffcs/gitgazer/internal/ghclient"
)

func TestTaskIDsDistinct(t *testing.T) {
	ids := []TaskID{TaskProfile, TaskRepos, TaskAnalyze}
	seen := make(map[TaskID]bool)

	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate task ID: %d", id)
		}
		seen[id] = true
	}
}

func TestNewTask(t *testing.T) {
	task := NewTask(TaskRepos, "Fetching repositories", "repositories")

	if task.ID != TaskRepos {
		t.Errorf("expected ID %d, got %d", TaskRepos, task.ID)
	}
	if task.Status != StatusPending {
		t.Errorf("expected status %d, got %d", StatusPending, task.Status)
	}
}

func TestTaskCountLabel(t *testing.T) {
	tests := []struct {
		unit  string
		count int
		want  string
	}{
		{"repositories", 0, ""},
		{"repositories", 1, "1 repository"},
		{"repositories", 250, "250 repositories"},
		{"languages", 1, "1 language"},
		{"", 3, "3"},
	}

	for _, tt := range tests {
		task := NewTask(TaskRepos, "x", tt.unit)
		task.Count = tt.count
		if got := task.countLabel(); got != tt.want {
			t.Errorf("countLabel(%d %s) = %q, want %q", tt.count, tt.unit, got, tt.want)
		}
	}
}

func TestTaskTiming(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	task := NewTask(TaskRepos, "Fetching repositories", "repositories")

	task.apply(TaskEvent{Status: StatusRunning}, start)
	task.apply(TaskEvent{Status: StatusRunning, Count: 100}, start.Add(time.Second))
	if task.Elapsed() != 0 {
		t.Errorf("running task reported elapsed %v", task.Elapsed())
	}

	task.apply(TaskEvent{Status: StatusComplete, Count: 200}, start.Add(1500*time.Millisecond))
	if task.Elapsed() != 1500*time.Millisecond {
		t.Errorf("Elapsed() = %v, want 1.5s", task.Elapsed())
	}
	if task.Count != 200 {
		t.Errorf("Count = %d", task.Count)
	}
}

func TestSendEvent(t *testing.T) {
	ch := make(chan Event, 1)

	SendEvent(ch, TaskEvent{Task: TaskProfile, Status: StatusComplete})

	select {
	case received := <-ch:
		te, ok := received.(TaskEvent)
		if !ok || te.Task != TaskProfile {
			t.Errorf("unexpected event %#v", received)
		}
	default:
		t.Error("expected event in channel")
	}
}

func TestSendEventNilAndFullChannel(t *testing.T) {
	// Should not panic or block
	SendEvent(nil, TaskEvent{})

	ch := make(chan Event, 1)
	SendEvent(ch, DoneEvent{})
	SendEvent(ch, DoneEvent{})
	if len(ch) != 1 {
		t.Errorf("expected the second event to be dropped, channel holds %d", len(ch))
	}
}

func TestSendTaskEventOptions(t *testing.T) {
	ch := make(chan Event, 1)
	testErr := errors.New("boom")

	SendTaskEvent(ch, TaskRepos, StatusError,
		WithMessage("page 3"),
		WithCount(250),
		WithProgress(0.5),
		WithError(testErr),
	)

	te := (<-ch).(TaskEvent)
	if te.Message != "page 3" || te.Count != 250 || te.Progress != 0.5 || te.Error != testErr {
		t.Errorf("unexpected event %+v", te)
	}
}

func TestFetchProgress(t *testing.T) {
	ch := make(chan Event, 10)
	report := FetchProgress(ch)

	report(ghclient.Progress{Stage: ghclient.StageProfile, Expected: 200})
	report(ghclient.Progress{Stage: ghclient.StageRepositories, Page: 1, Fetched: 100, Expected: 200})
	// Within the update interval, so dropped.
	report(ghclient.Progress{Stage: ghclient.StageRepositories, Page: 2, Fetched: 200, Expected: 200})
	close(ch)

	var events []TaskEvent
	for e := range ch {
		events = append(events, e.(TaskEvent))
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}
	if events[0].Task != TaskProfile || events[0].Status != StatusComplete {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Task != TaskRepos || events[1].Status != StatusRunning {
		t.Errorf("second event = %+v", events[1])
	}
	if events[2].Count != 100 || events[2].Progress != 0.5 || events[2].Message != "page 1" {
		t.Errorf("page event = %+v", events[2])
	}
}

func TestModelAppliesTaskEvents(t *testing.T) {
	m := NewModel(make(chan Event), WithUsername("octocat"))

	updated, _ := m.Update(TaskEvent{Task: TaskProfile, Status: StatusComplete})
	updated, _ = updated.Update(TaskEvent{Task: TaskRepos, Status: StatusRunning, Count: 120, Message: "page 2"})
	updated, _ = updated.Update(TaskEvent{Task: TaskAnalyze, Status: StatusSkipped, Message: "cached"})

	view := updated.View()
	for _, want := range []string{"@octocat", "Fetching profile", "Fetching repositories", "120 repositories", "page 2", "cached", "Ctrl+C"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q\n%s", want, view)
		}
	}

	final := updated.(Model)
	if final.tasks[0].Status != StatusComplete || final.tasks[1].Count != 120 {
		t.Errorf("tasks not updated: %+v", final.tasks)
	}
}

func TestModelDone(t *testing.T) {
	m := NewModel(make(chan Event))

	updated, cmd := m.Update(DoneEvent{})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	view := updated.View()
	if strings.Contains(view, "Ctrl+C") {
		t.Error("cancel hint should disappear when done")
	}
	if !strings.Contains(view, "Done in") {
		t.Errorf("expected completion summary\n%s", view)
	}
}

func TestModelDoneAfterError(t *testing.T) {
	m := NewModel(make(chan Event))
	updated, _ := m.Update(TaskEvent{Task: TaskProfile, Status: StatusError, Error: errors.New("not found")})
	updated, _ = updated.Update(DoneEvent{})

	view := updated.View()
	if strings.Contains(view, "Done in") || !strings.Contains(view, "not found") {
		t.Errorf("unexpected view after failure\n%s", view)
	}
}

func TestModelCancel(t *testing.T) {
	m := NewModel(make(chan Event))
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !updated.(Model).Cancelled() {
		t.Error("expected model to record cancellation")
	}
}

func TestModelRateLimitWarning(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewModel(make(chan Event))
	m.now = func() time.Time { return now }

	updated, _ := m.Update(RateLimitEvent{Limited: true, ResetAt: now.Add(90 * time.Second)})
	if !strings.Contains(updated.View(), "resets in 1m30s") {
		t.Errorf("expected rate limit warning\n%s", updated.View())
	}
}

func TestWaitForEventClosedChannel(t *testing.T) {
	ch := make(chan Event)
	close(ch)
	if _, ok := waitForEvent(ch)().(doneMsg); !ok {
		t.Error("expected doneMsg from closed channel")
	}
}

func TestStatusIcon(t *testing.T) {
	statuses := []TaskStatus{StatusPending, StatusRunning, StatusComplete, StatusError, StatusSkipped}

	for _, status := range statuses {
		if icon := StatusIcon(status, ">"); icon == "" {
			t.Errorf("StatusIcon returned empty string for status %d", status)
		}
	}
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
)

// Task is one line of the progress display.
type Task struct {
	ID       TaskID
	Name     string
	Unit     string // noun for Count, e.g. "repositories"
	Status   TaskStatus
	Message  string
	Count    int
	Progress float64
	Error    error

	Started  time.Time
	Finished time.Time
}

// NewTask creates a pending task. unit labels the task's count and may be
// empty.
func NewTask(id TaskID, name, unit string) Task {
	return Task{
		ID:     id,
		Name:   name,
		Unit:   unit,
		Status: StatusPending,
	}
}

// apply folds an event into the task, stamping start and finish times.
func (t *Task) apply(e TaskEvent, now time.Time) {
	if e.Status == StatusRunning && t.Started.IsZero() {
		t.Started = now
	}
	if (e.Status == StatusComplete || e.Status == StatusError) && t.Finished.IsZero() {
		if t.Started.IsZero() {
			t.Started = now
		}
		t.Finished = now
	}

	t.Status = e.Status
	if e.Message != "" {
		t.Message = e.Message
	}
	if e.Count > 0 {
		t.Count = e.Count
	}
	if e.Progress > 0 {
		t.Progress = e.Progress
	}
	if e.Error != nil {
		t.Error = e.Error
	}
}

// Elapsed returns how long the task ran, or zero if it has not finished.
func (t Task) Elapsed() time.Duration {
	if t.Started.IsZero() || t.Finished.IsZero() {
		return 0
	}
	return t.Finished.Sub(t.Started)
}

func (t Task) countLabel() string {
	if t.Count <= 0 {
		return ""
	}
	unit := t.Unit
	if t.Count == 1 {
		if stem, ok := strings.CutSuffix(unit, "ies"); ok {
			unit = stem + "y"
		} else {
			unit = strings.TrimSuffix(unit, "s")
		}
	}
	return strings.TrimSpace(fmt.Sprintf("%d %s", t.Count, unit))
}

// View renders the task line.
func (t Task) View(spinnerFrame string, prog progress.Model) string {
	name := taskNameStyle.Render(t.Name)
	if t.Status == StatusPending || t.Status == StatusSkipped {
		name = taskDimStyle.Render(t.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  %s %s", StatusIcon(t.Status, spinnerFrame), name)

	var details []string
	if t.Status == StatusRunning && t.Progress > 0 {
		fmt.Fprintf(&b, " %s %3d%%", prog.ViewAs(t.Progress), int(t.Progress*100))
	}
	if label := t.countLabel(); label != "" {
		details = append(details, label)
	}
	if t.Message != "" {
		details = append(details, t.Message)
	}
	if d := t.Elapsed(); d > 0 && t.Status == StatusComplete {
		details = append(details, d.Round(time.Millisecond).String())
	}
	if len(details) > 0 {
		b.WriteString(" " + messageStyle.Render("("+strings.Join(details, ", ")+")"))
	}

	if t.Error != nil {
		b.WriteString(" " + errorStyle.Render(t.Error.Error()))
	}

	return b.String()
}

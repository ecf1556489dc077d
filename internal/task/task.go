package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"timetracker/internal/timer"
)

// ErrInvalidState is returned when a transition does not match the task's
// current intervals, e.g. pausing a task that is not running.
var ErrInvalidState = errors.New("invalid task state")

type Status string

const (
	StatusRunning Status = "RUNNING"
	StatusPaused  Status = "PAUSED"
)

func (s Status) Valid() bool {
	return s == StatusRunning || s == StatusPaused
}

// Task is a named unit of tracked work. Its elapsed time is derived from
// its intervals; only the trailing interval may be open, and only while the
// task is running.
type Task struct {
	ID        int64
	Name      string
	Intervals []timer.Interval
	Status    Status

	clock timer.Clock
}

func New(id int64, name string, clock timer.Clock) *Task {
	return &Task{
		ID:     id,
		Name:   name,
		Status: StatusPaused,
		clock:  clock,
	}
}

func (t *Task) Clock() timer.Clock {
	if t.clock == nil {
		return timer.Real{}
	}
	return t.clock
}

func (t *Task) SetClock(c timer.Clock) {
	t.clock = c
}

func (t *Task) Running() bool {
	return t.Status == StatusRunning
}

func (t *Task) Toggle() error {
	switch t.Status {
	case StatusPaused:
		return t.Run()
	case StatusRunning:
		return t.Pause()
	}
	return t.invalid("unknown status %q", t.Status)
}

func (t *Task) Run() error {
	if t.Running() {
		return t.invalid("already running")
	}
	var iv timer.Interval
	iv.Start(t.Clock())
	t.Intervals = append(t.Intervals, iv)
	t.Status = StatusRunning
	return nil
}

func (t *Task) Pause() error {
	if !t.Running() {
		return t.invalid("already paused")
	}
	last := t.openInterval()
	if last == nil {
		return t.invalid("running without an open interval")
	}
	last.Stop(t.Clock())
	t.Status = StatusPaused
	return nil
}

// Reset drops all recorded intervals and leaves the task paused.
func (t *Task) Reset() {
	t.Intervals = nil
	t.Status = StatusPaused
}

func (t *Task) Rename(name string) {
	t.Name = name
}

func (t *Task) Elapsed() time.Duration {
	c := t.Clock()
	var total time.Duration
	for _, iv := range t.Intervals {
		total += iv.Elapsed(c)
	}
	return total
}

// Current returns the elapsed time of the open interval, or zero when paused.
func (t *Task) Current() time.Duration {
	if last := t.openInterval(); last != nil {
		return last.Elapsed(t.Clock())
	}
	return 0
}

func (t *Task) openInterval() *timer.Interval {
	if len(t.Intervals) == 0 {
		return nil
	}
	last := &t.Intervals[len(t.Intervals)-1]
	if !last.Open() {
		return nil
	}
	return last
}

func (t *Task) invalid(format string, args ...any) error {
	return fmt.Errorf("task %d: %w: %s", t.ID, ErrInvalidState, fmt.Sprintf(format, args...))
}

type record struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Intervals []timer.Interval `json:"intervals"`
	Status    Status           `json:"status"`
}

func (t *Task) MarshalJSON() ([]byte, error) {
	intervals := t.Intervals
	if intervals == nil {
		intervals = []timer.Interval{}
	}
	return json.Marshal(record{
		ID:        t.ID,
		Name:      t.Name,
		Intervals: intervals,
		Status:    t.Status,
	})
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if err := validate(rec); err != nil {
		return err
	}
	if len(rec.Intervals) == 0 {
		rec.Intervals = nil
	}
	t.ID = rec.ID
	t.Name = rec.Name
	t.Intervals = rec.Intervals
	t.Status = rec.Status
	return nil
}

func validate(rec record) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("task %d: %w: %s", rec.ID, ErrInvalidState, fmt.Sprintf(format, args...))
	}
	if !rec.Status.Valid() {
		return invalid("unknown status %q", rec.Status)
	}
	for i, iv := range rec.Intervals {
		if iv.Open() {
			if i != len(rec.Intervals)-1 {
				return invalid("interval %d is open but not last", i)
			}
			if rec.Status != StatusRunning {
				return invalid("open interval on a paused task")
			}
			continue
		}
		if *iv.EndMs < iv.StartMs {
			return invalid("interval %d ends before it starts", i)
		}
	}
	if rec.Status == StatusRunning {
		if n := len(rec.Intervals); n == 0 || !rec.Intervals[n-1].Open() {
			return invalid("running without an open interval")
		}
	}
	return nil
}

// Restore decodes a stored task, binds it to clock and advances ids past
// the restored id.
func Restore(data []byte, clock timer.Clock, ids *IDAllocator) (*Task, error) {
	t := &Task{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, err
	}
	t.clock = clock
	if ids != nil {
		ids.Observe(t.ID)
	}
	return t, nil
}

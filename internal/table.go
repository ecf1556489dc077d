package internal

import (
	"fmt"

	"timetracker/internal/events"
	"timetracker/internal/task"
	"timetracker/internal/tracker"
)

// taskRow is the on-screen mirror of one task. It only formats what the
// task reports; elapsed time is never computed here.
type taskRow struct {
	task    *task.Task
	elapsed string
}

func newTaskRow(t *task.Task) *taskRow {
	r := &taskRow{task: t}
	r.refresh()
	return r
}

func (r *taskRow) refresh() {
	r.elapsed = FormatDuration(r.task.Elapsed())
}

func (r *taskRow) tick() {
	if r.task.Running() {
		r.refresh()
	}
}

func (r *taskRow) toggle(tr *tracker.Tracker) error {
	err := tr.Toggle(r.task)
	r.refresh()
	return err
}

func (r *taskRow) delete(bus *events.Bus) error {
	return bus.TaskDeleted.Publish(events.TaskDeleted{Task: r.task})
}

type taskTable struct {
	rows []*taskRow
}

func newTaskTable(tasks []*task.Task, bus *events.Bus) *taskTable {
	tbl := &taskTable{}
	for _, t := range tasks {
		tbl.add(t)
	}
	bus.TaskDeleted.Subscribe(tbl.onTaskDeleted)
	return tbl
}

func (tbl *taskTable) add(t *task.Task) *taskRow {
	r := newTaskRow(t)
	tbl.rows = append(tbl.rows, r)
	return r
}

func (tbl *taskTable) onTaskDeleted(ev events.TaskDeleted) error {
	return tbl.remove(ev.Task)
}

func (tbl *taskTable) remove(t *task.Task) error {
	if t == nil {
		return fmt.Errorf("row for nil task: %w", tracker.ErrNotFound)
	}
	for i, r := range tbl.rows {
		if r.task == t || r.task.ID == t.ID {
			tbl.rows = append(tbl.rows[:i], tbl.rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("row for task %d: %w", t.ID, tracker.ErrNotFound)
}

func (tbl *taskTable) tick() {
	for _, r := range tbl.rows {
		r.tick()
	}
}

func (tbl *taskTable) refreshAll() {
	for _, r := range tbl.rows {
		r.refresh()
	}
}

func (tbl *taskTable) len() int {
	return len(tbl.rows)
}

func (tbl *taskTable) row(i int) *taskRow {
	if i < 0 || i >= len(tbl.rows) {
		return nil
	}
	return tbl.rows[i]
}

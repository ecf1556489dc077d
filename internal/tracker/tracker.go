package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"timetracker/internal/events"
	"timetracker/internal/storage"
	"timetracker/internal/task"
	"timetracker/internal/timer"
)

const (
	DefaultKey  = "timetracker"
	DefaultName = "New task"
)

var ErrNotFound = errors.New("task not found")

// Store is the local key/value storage the tracker persists into.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Document is the persisted shape of the tracker.
type Document struct {
	Tasks []*task.Task `json:"tasks"`
}

// Tracker owns the task collection. Insertion order is display order.
type Tracker struct {
	tasks []*task.Task
	ids   *task.IDAllocator
	store Store
	bus   *events.Bus
	clock timer.Clock

	key         string
	defaultName string
	autosave    bool
	exclusive   bool
	saveErr     error
}

type Option func(*Tracker)

func WithKey(key string) Option {
	return func(t *Tracker) { t.key = key }
}

func WithClock(c timer.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

func WithBus(b *events.Bus) Option {
	return func(t *Tracker) { t.bus = b }
}

func WithDefaultName(name string) Option {
	return func(t *Tracker) { t.defaultName = name }
}

// WithAutosave persists after every mutation instead of only on Persist.
func WithAutosave(on bool) Option {
	return func(t *Tracker) { t.autosave = on }
}

// WithExclusive pauses every other task when one is started.
func WithExclusive(on bool) Option {
	return func(t *Tracker) { t.exclusive = on }
}

func New(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		ids:         task.NewIDAllocator(),
		store:       store,
		bus:         events.NewBus(),
		clock:       timer.Real{},
		key:         DefaultKey,
		defaultName: DefaultName,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.bus.TaskDeleted.Subscribe(t.onTaskDeleted)
	if t.autosave {
		t.bus.Changed.Subscribe(t.onChanged)
	}
	return t
}

func (t *Tracker) Bus() *events.Bus { return t.bus }

func (t *Tracker) Clock() timer.Clock { return t.clock }

// Tasks returns the tasks in display order. The slice is a copy; the tasks
// are not.
func (t *Tracker) Tasks() []*task.Task {
	out := make([]*task.Task, len(t.tasks))
	copy(out, t.tasks)
	return out
}

func (t *Tracker) Len() int { return len(t.tasks) }

func (t *Tracker) Find(id int64) (*task.Task, error) {
	for _, tk := range t.tasks {
		if tk.ID == id {
			return tk, nil
		}
	}
	return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
}

func (t *Tracker) AddTask(name string) *task.Task {
	name = strings.TrimSpace(name)
	if name == "" {
		name = t.defaultName
	}
	tk := task.New(t.ids.Next(), name, t.clock)
	t.tasks = append(t.tasks, tk)
	t.changed(tk, "add")
	return tk
}

// Delete asks every TaskDeleted subscriber, the tracker included, to drop tk.
func (t *Tracker) Delete(tk *task.Task) error {
	return t.bus.TaskDeleted.Publish(events.TaskDeleted{Task: tk})
}

func (t *Tracker) onTaskDeleted(ev events.TaskDeleted) error {
	i := t.indexOf(ev.Task)
	if i < 0 {
		if ev.Task == nil {
			return fmt.Errorf("nil task: %w", ErrNotFound)
		}
		return fmt.Errorf("task %d: %w", ev.Task.ID, ErrNotFound)
	}
	removed := t.tasks[i]
	t.tasks = append(t.tasks[:i], t.tasks[i+1:]...)
	t.changed(removed, "delete")
	return nil
}

func (t *Tracker) indexOf(tk *task.Task) int {
	if tk == nil {
		return -1
	}
	for i, candidate := range t.tasks {
		if candidate == tk {
			return i
		}
	}
	for i, candidate := range t.tasks {
		if candidate.ID == tk.ID {
			return i
		}
	}
	return -1
}

func (t *Tracker) Toggle(tk *task.Task) error {
	if t.exclusive && !tk.Running() {
		if err := t.PauseAll(); err != nil {
			return err
		}
	}
	if err := tk.Toggle(); err != nil {
		return err
	}
	t.changed(tk, "toggle")
	return nil
}

func (t *Tracker) Rename(tk *task.Task, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	tk.Rename(name)
	t.changed(tk, "rename")
}

func (t *Tracker) Reset(tk *task.Task) {
	tk.Reset()
	t.changed(tk, "reset")
}

// PauseAll pauses every running task.
func (t *Tracker) PauseAll() error {
	var errs []error
	for _, tk := range t.tasks {
		if !tk.Running() {
			continue
		}
		if err := tk.Pause(); err != nil {
			errs = append(errs, err)
			continue
		}
		t.changed(tk, "pause")
	}
	return errors.Join(errs...)
}

func (t *Tracker) changed(tk *task.Task, reason string) {
	if err := t.bus.Changed.Publish(events.Changed{Task: tk, Reason: reason}); err != nil {
		log.Printf("change %q: %v", reason, err)
	}
}

func (t *Tracker) onChanged(ev events.Changed) error {
	return t.Persist(context.Background())
}

// SaveErr returns the error from the most recent persist attempt, if any.
func (t *Tracker) SaveErr() error { return t.saveErr }

func (t *Tracker) Document() Document {
	return Document{Tasks: t.Tasks()}
}

func (t *Tracker) Encode() ([]byte, error) {
	return json.Marshal(t.Document())
}

// Persist writes every task to the store under the tracker's key. A failed
// write is returned and remembered; it is not retried.
func (t *Tracker) Persist(ctx context.Context) error {
	data, err := t.Encode()
	if err != nil {
		t.saveErr = fmt.Errorf("failed to encode tasks: %w", err)
		return t.saveErr
	}
	if err := t.store.Set(ctx, t.key, data); err != nil {
		t.saveErr = fmt.Errorf("failed to save tasks: %w", err)
		return t.saveErr
	}
	t.saveErr = nil
	return nil
}

// Load replaces the collection with the stored document. A missing or
// malformed document leaves the tracker empty without failing.
func (t *Tracker) Load(ctx context.Context) error {
	t.tasks = nil

	data, err := t.store.Get(ctx, t.key)
	if errors.Is(err, storage.ErrNoValue) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read tasks: %w", err)
	}

	tasks, err := decode(data, t.clock, t.ids)
	if err != nil {
		log.Printf("ignoring stored tasks under %q: %v", t.key, err)
		return nil
	}
	t.tasks = tasks
	return nil
}

func decode(data []byte, clock timer.Clock, ids *task.IDAllocator) ([]*task.Task, error) {
	var raw struct {
		Tasks []json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(raw.Tasks))
	tasks := make([]*task.Task, 0, len(raw.Tasks))
	for _, msg := range raw.Tasks {
		tk, err := task.Restore(msg, clock, nil)
		if err != nil {
			return nil, err
		}
		if seen[tk.ID] {
			return nil, fmt.Errorf("duplicate task id %d", tk.ID)
		}
		seen[tk.ID] = true
		tasks = append(tasks, tk)
	}
	for _, tk := range tasks {
		ids.Observe(tk.ID)
	}
	return tasks, nil
}

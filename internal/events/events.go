package events

import (
	"errors"
	"fmt"

	"timetracker/internal/task"
)

// Topic delivers one kind of event to its subscribers. Handlers run
// synchronously in registration order; a handler that fails or panics does
// not stop the others, and all failures come back joined from Publish.
type Topic[T any] struct {
	name     string
	handlers []func(T) error
}

func NewTopic[T any](name string) *Topic[T] {
	return &Topic[T]{name: name}
}

func (t *Topic[T]) Subscribe(fn func(T) error) {
	t.handlers = append(t.handlers, fn)
}

func (t *Topic[T]) Publish(ev T) error {
	var errs []error
	for i, fn := range t.handlers {
		if err := invoke(fn, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s handler %d: %w", t.name, i, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Topic[T]) Len() int {
	return len(t.handlers)
}

func invoke[T any](fn func(T) error, ev T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ev)
}

// TaskDeleted asks every subscriber to forget Task.
type TaskDeleted struct {
	Task *task.Task
}

// Changed reports that tracker state was mutated and is worth saving.
type Changed struct {
	Task   *task.Task
	Reason string
}

type Bus struct {
	TaskDeleted *Topic[TaskDeleted]
	Changed     *Topic[Changed]
}

func NewBus() *Bus {
	return &Bus{
		TaskDeleted: NewTopic[TaskDeleted]("delete_task"),
		Changed:     NewTopic[Changed]("changed"),
	}
}

package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"timetracker/internal/events"
	"timetracker/internal/storage"
	"timetracker/internal/task"
	"timetracker/internal/timer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracker(t *testing.T, opts ...Option) (*Tracker, *storage.Memory, *timer.Manual) {
	t.Helper()
	store := storage.NewMemory()
	clock := timer.NewManual(time.UnixMilli(1_700_000_000_000))
	opts = append([]Option{WithClock(clock)}, opts...)
	return New(store, opts...), store, clock
}

func names(tasks []*task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, tk := range tasks {
		out = append(out, tk.Name)
	}
	return out
}

func TestAddTaskAssignsFreshIDs(t *testing.T) {
	tr, _, _ := newTracker(t)

	a := tr.AddTask("a")
	b := tr.AddTask("  ")

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, DefaultName, b.Name)
	assert.Equal(t, []string{"a", DefaultName}, names(tr.Tasks()))
}

func TestDeleteRemovesExactlyOneAndKeepsOrder(t *testing.T) {
	tr, _, _ := newTracker(t)
	tr.AddTask("a")
	b := tr.AddTask("b")
	tr.AddTask("c")

	require.NoError(t, tr.Delete(b))
	assert.Equal(t, []string{"a", "c"}, names(tr.Tasks()))

	_, err := tr.Find(b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMissingTaskIsNotFound(t *testing.T) {
	tr, _, _ := newTracker(t)
	tr.AddTask("a")

	stranger := task.New(99, "ghost", nil)
	err := tr.Delete(stranger)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, tr.Len())

	assert.ErrorIs(t, tr.Delete(nil), ErrNotFound)
}

func TestDeleteMatchesByIDForRestoredCopies(t *testing.T) {
	tr, _, _ := newTracker(t)
	a := tr.AddTask("a")

	copyOfA := task.New(a.ID, a.Name, nil)
	require.NoError(t, tr.Delete(copyOfA))
	assert.Equal(t, 0, tr.Len())
}

func TestDeleteNotifiesOtherSubscribers(t *testing.T) {
	bus := events.NewBus()
	tr, _, _ := newTracker(t, WithBus(bus))
	a := tr.AddTask("a")

	var got *task.Task
	bus.TaskDeleted.Subscribe(func(ev events.TaskDeleted) error {
		got = ev.Task
		return nil
	})

	require.NoError(t, bus.TaskDeleted.Publish(events.TaskDeleted{Task: a}))
	assert.Same(t, a, got)
	assert.Equal(t, 0, tr.Len())
}

func TestPersistAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	tr, store, clock := newTracker(t)

	a := tr.AddTask("a")
	require.NoError(t, tr.Toggle(a))
	clock.Advance(2 * time.Second)
	require.NoError(t, tr.Toggle(a))
	b := tr.AddTask("b")
	require.NoError(t, tr.Toggle(b))
	clock.Advance(time.Second)

	require.NoError(t, tr.Persist(ctx))

	restored := New(store, WithClock(clock))
	require.NoError(t, restored.Load(ctx))

	got := restored.Tasks()
	require.Len(t, got, 2)
	assert.Equal(t, a.Intervals, got[0].Intervals)
	assert.Equal(t, task.StatusPaused, got[0].Status)
	assert.Equal(t, b.Intervals, got[1].Intervals)
	assert.Equal(t, task.StatusRunning, got[1].Status)
	assert.Equal(t, 2*time.Second, got[0].Elapsed())
	assert.Equal(t, time.Second, got[1].Elapsed())

	next := restored.AddTask("c")
	assert.Greater(t, next.ID, b.ID)
}

func TestPersistedDocumentShape(t *testing.T) {
	ctx := context.Background()
	tr, store, _ := newTracker(t, WithKey("custom"))

	require.NoError(t, tr.Persist(ctx))
	data, err := store.Get(ctx, "custom")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tasks":[]}`, string(data))

	tr.AddTask("a")
	require.NoError(t, tr.Persist(ctx))
	data, err = store.Get(ctx, "custom")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tasks":[{"id":1,"name":"a","intervals":[],"status":"PAUSED"}]}`, string(data))
}

func TestLoadWithoutDocumentIsEmpty(t *testing.T) {
	tr, _, _ := newTracker(t)
	require.NoError(t, tr.Load(context.Background()))
	assert.Equal(t, 0, tr.Len())
}

func TestLoadMalformedDocumentIsEmpty(t *testing.T) {
	ctx := context.Background()
	docs := []string{
		`not json`,
		`{"tasks":[{"id":1,"name":"a","intervals":[],"status":"LOST"}]}`,
		`{"tasks":[{"id":1,"name":"a","intervals":[],"status":"PAUSED"},{"id":1,"name":"b","intervals":[],"status":"PAUSED"}]}`,
	}
	for _, doc := range docs {
		store := storage.NewMemory()
		require.NoError(t, store.Set(ctx, DefaultKey, []byte(doc)))

		tr := New(store)
		tr.AddTask("stale")
		require.NoError(t, tr.Load(ctx))
		assert.Equal(t, 0, tr.Len(), doc)
	}
}

func TestLoadAdvancesIDsPastRestored(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Set(ctx, DefaultKey, []byte(
		`{"tasks":[{"id":17,"name":"old","intervals":[{"startMs":1,"endMs":5}],"status":"PAUSED"}]}`)))

	tr := New(store)
	require.NoError(t, tr.Load(ctx))
	assert.Equal(t, int64(18), tr.AddTask("new").ID)
}

func TestPersistFailureIsReported(t *testing.T) {
	tr, store, _ := newTracker(t)
	full := errors.New("quota exceeded")
	store.WriteErr = full

	err := tr.Persist(context.Background())
	assert.ErrorIs(t, err, full)
	assert.ErrorIs(t, tr.SaveErr(), full)

	store.WriteErr = nil
	require.NoError(t, tr.Persist(context.Background()))
	assert.NoError(t, tr.SaveErr())
}

func TestAutosaveOnMutation(t *testing.T) {
	ctx := context.Background()
	tr, store, _ := newTracker(t, WithAutosave(true))

	a := tr.AddTask("a")
	data, err := store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":"a"`)

	require.NoError(t, tr.Toggle(a))
	data, err = store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"RUNNING"`)

	require.NoError(t, tr.Delete(a))
	data, err = store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tasks":[]}`, string(data))

	store.WriteErr = errors.New("disabled")
	tr.AddTask("b")
	assert.Error(t, tr.SaveErr())
}

func TestExclusivePausesOthers(t *testing.T) {
	tr, _, clock := newTracker(t, WithExclusive(true))
	a := tr.AddTask("a")
	b := tr.AddTask("b")

	require.NoError(t, tr.Toggle(a))
	clock.Advance(time.Second)
	require.NoError(t, tr.Toggle(b))

	assert.False(t, a.Running())
	assert.True(t, b.Running())
	assert.Equal(t, time.Second, a.Elapsed())
}

func TestRenameAndReset(t *testing.T) {
	tr, _, clock := newTracker(t)
	a := tr.AddTask("a")
	require.NoError(t, tr.Toggle(a))
	clock.Advance(time.Second)

	tr.Rename(a, "renamed")
	tr.Rename(a, "   ")
	assert.Equal(t, "renamed", a.Name)

	tr.Reset(a)
	assert.Equal(t, time.Duration(0), a.Elapsed())
	assert.False(t, a.Running())
}

func TestEndToEndOnSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "timetracker.db")
	clock := timer.NewManual(time.UnixMilli(1_700_000_000_000))

	db, err := storage.NewSQLite(path)
	require.NoError(t, err)

	tr := New(db, WithClock(clock))
	require.NoError(t, tr.Load(ctx))
	a := tr.AddTask("")
	require.NoError(t, a.Run())
	clock.Advance(1500 * time.Millisecond)
	require.NoError(t, a.Pause())
	assert.Equal(t, 1500*time.Millisecond, a.Elapsed())
	require.NoError(t, tr.Persist(ctx))
	require.NoError(t, db.Close())

	clock.Advance(time.Hour)

	db, err = storage.NewSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	reloaded := New(db, WithClock(clock))
	require.NoError(t, reloaded.Load(ctx))
	require.Equal(t, 1, reloaded.Len())
	assert.Equal(t, 1500*time.Millisecond, reloaded.Tasks()[0].Elapsed())
}

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteGetSet(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "timetracker.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(ctx, "timetracker")
	assert.ErrorIs(t, err, ErrNoValue)

	require.NoError(t, s.Set(ctx, "timetracker", []byte(`{"tasks":[]}`)))
	require.NoError(t, s.Set(ctx, "timetracker", []byte(`{"tasks":[1]}`)))

	got, err := s.Get(ctx, "timetracker")
	require.NoError(t, err)
	assert.Equal(t, `{"tasks":[1]}`, string(got))

	updated, err := s.UpdatedAt(ctx, "timetracker")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), updated, time.Minute)

	require.NoError(t, s.Remove(ctx, "timetracker"))
	_, err = s.Get(ctx, "timetracker")
	assert.ErrorIs(t, err, ErrNoValue)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "timetracker.db")

	s1, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, "k", []byte("v")))
	require.NoError(t, s1.Close())

	s2, err := NewSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNoValue)

	require.NoError(t, m.Set(ctx, "k", []byte("v")))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	full := errors.New("quota exceeded")
	m.WriteErr = full
	assert.ErrorIs(t, m.Set(ctx, "k", []byte("w")), full)

	got, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

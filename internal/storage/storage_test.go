package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/repository"
	"todo-planner/internal/storage"
)

func backends(t *testing.T) map[string]storage.Backend {
	t.Helper()
	out := map[string]storage.Backend{
		"memory": storage.NewMemory(),
	}

	file, err := storage.NewFile(filepath.Join(t.TempDir(), "state", "todos.json"))
	require.NoError(t, err)
	out["file"] = file

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "planner.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	out["sqlite"] = repository.NewEntryRepository(db)

	if dsn := os.Getenv("TODO_TEST_MYSQL_DSN"); dsn != "" {
		m, err := storage.NewMySQL(context.Background(), dsn)
		require.NoError(t, err)
		t.Cleanup(func() { m.Close() })
		out["mysql"] = m
	}
	return out
}

func TestBackendContract(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			origin := "contract-" + name
			st := storage.Scope(backend, origin)

			_, found, err := st.Get(ctx, storage.KeyTodos)
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, st.Set(ctx, storage.KeyTodos, `[{"text":"a"}]`))
			require.NoError(t, st.Set(ctx, storage.KeyCategories, `["Work"]`))
			require.NoError(t, st.Set(ctx, storage.KeyTodos, `[]`))

			value, found, err := st.Get(ctx, storage.KeyTodos)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, `[]`, value)

			value, found, err = st.Get(ctx, storage.KeyCategories)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, `["Work"]`, value)

			_, found, err = storage.Scope(backend, origin+"-other").Get(ctx, storage.KeyCategories)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestScopeRejectsEmptyOrigin(t *testing.T) {
	st := storage.Scope(storage.NewMemory(), "  ")
	_, _, err := st.Get(context.Background(), storage.KeyTodos)
	assert.ErrorIs(t, err, storage.ErrEmptyOrigin)
	assert.ErrorIs(t, st.Set(context.Background(), storage.KeyTodos, "[]"), storage.ErrEmptyOrigin)
}

func TestFileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "todos.json")

	first, err := storage.NewFile(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "cli", storage.KeyCategories, `["Home"]`))

	second, err := storage.NewFile(path)
	require.NoError(t, err)
	value, found, err := second.Get(ctx, "cli", storage.KeyCategories)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `["Home"]`, value)
	assert.Equal(t, path, second.Path())
}

func TestFileRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	f, err := storage.NewFile(path)
	require.NoError(t, err)
	_, _, err = f.Get(context.Background(), "cli", storage.KeyTodos)
	assert.Error(t, err)
}

func TestFileConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	f, err := storage.NewFile(filepath.Join(t.TempDir(), "todos.json"))
	require.NoError(t, err)

	origins := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	for _, origin := range origins {
		wg.Add(1)
		go func(origin string) {
			defer wg.Done()
			assert.NoError(t, f.Set(ctx, origin, storage.KeyTodos, `[]`))
		}(origin)
	}
	wg.Wait()

	for _, origin := range origins {
		_, found, err := f.Get(ctx, origin, storage.KeyTodos)
		require.NoError(t, err)
		assert.True(t, found, origin)
	}
}

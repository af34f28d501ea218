package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Load(ctx, "b1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := ViewState{
		Query:       "cats",
		PlayerOpen:  true,
		PlayerSrc:   "videos/a.mp4",
		PlayerTitle: "A",
		UpdatedAt:   time.UnixMilli(1700000000123),
	}
	require.NoError(t, s.Save(ctx, "b1", want))
	got, ok, err := s.Load(ctx, "b1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Query, got.Query)
	assert.True(t, got.PlayerOpen)
	assert.Equal(t, want.PlayerSrc, got.PlayerSrc)
	assert.Equal(t, want.PlayerTitle, got.PlayerTitle)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))

	want.PlayerOpen = false
	want.PlayerSrc = ""
	require.NoError(t, s.Save(ctx, "b1", want))
	got, _, err = s.Load(ctx, "b1")
	require.NoError(t, err)
	assert.False(t, got.PlayerOpen)
	assert.Empty(t, got.PlayerSrc)

	require.NoError(t, s.Delete(ctx, "b1"))
	_, ok, err = s.Load(ctx, "b1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, s.Delete(ctx, "missing"))
}

func TestMemory(t *testing.T) {
	s, err := Open(DriverMemory, "")
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "view.json")
	s, err := Open(DriverFile, path)
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFile_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.json")
	s, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "b", ViewState{Query: "q"}))

	s2, err := OpenFile(path)
	require.NoError(t, err)
	got, ok, err := s2.Load(context.Background(), "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "q", got.Query)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "tmp file is renamed away")
}

func TestFile_CorruptIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))
	_, err := OpenFile(path)
	assert.Error(t, err)
}

func TestFile_EmptyIsFine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	_, err := OpenFile(path)
	assert.NoError(t, err)
}

func TestSQLite(t *testing.T) {
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "gallery.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("redis", "")
	assert.Error(t, err)
}

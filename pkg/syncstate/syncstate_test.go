package syncstate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := NewStore(path)
	require.NoError(t, err)

	rec := &Record{
		Source:   "neodb",
		LastRun:  time.Now(),
		Duration: 2 * time.Second,
		Items:    42,
		Status:   StatusSuccess,
	}
	require.NoError(t, s.Record(rec))

	got := s.Get("neodb")
	require.NotNil(t, got)
	assert.Equal(t, 42, got.Items)
	assert.Equal(t, StatusSuccess, got.Status)

	assert.Nil(t, s.Get("vsco"))
}

func TestRecordRequiresSource(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	assert.Error(t, s.Record(&Record{}))
	assert.Error(t, s.Record(nil))
}

func TestPersistenceAcrossStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(&Record{
		Source: "lastfm",
		Status: StatusFailed,
		Error:  "rate limit exceeded",
	}))

	reopened, err := NewStore(path)
	require.NoError(t, err)

	got := reopened.Get("lastfm")
	require.NotNil(t, got)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "rate limit exceeded", got.Error)
}

func TestAllSortedBySource(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	for _, src := range []string{"wakatime", "instagram", "neodb"} {
		require.NoError(t, s.Record(&Record{Source: src, Status: StatusSuccess}))
	}

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "instagram", all[0].Source)
	assert.Equal(t, "neodb", all[1].Source)
	assert.Equal(t, "wakatime", all[2].Source)
}

func TestCorruptStateFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s, err := NewStore(path)
	require.NoError(t, err)
	assert.Empty(t, s.All())
}

func TestNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(&Record{Source: "vsco", Status: StatusSkipped}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestXDGDataHomeLocation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	s, err := NewStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "profilesync", "state.json"), s.Path())
}

package jsonstore_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embertv/internal/jsonstore"
)

type doc struct {
	Lists []string       `json:"lists"`
	Extra map[string]int `json:"extra"`
	Note  string         `json:"note"`
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store := jsonstore.New(afero.NewMemMapFs())

	defaults := doc{Lists: []string{"a"}, Note: "hello"}
	var got doc
	require.NoError(t, store.Load("data/missing.json", defaults, &got))
	assert.Equal(t, defaults, got)
}

func TestLoadCorruptFileReturnsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.json", []byte("{not json"), 0o644))

	store := jsonstore.New(fs)
	var got doc
	require.NoError(t, store.Load("bad.json", doc{Note: "fallback"}, &got))
	assert.Equal(t, "fallback", got.Note)
}

func TestLoadBackfillsMissingTopLevelKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "partial.json", []byte(`{"lists":["kept"]}`), 0o644))

	store := jsonstore.New(fs)
	defaults := doc{Lists: []string{"default"}, Extra: map[string]int{"x": 1}, Note: "n"}
	var got doc
	require.NoError(t, store.Load("partial.json", defaults, &got))

	// present keys preserved, absent keys backfilled
	assert.Equal(t, []string{"kept"}, got.Lists)
	assert.Equal(t, map[string]int{"x": 1}, got.Extra)
	assert.Equal(t, "n", got.Note)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	store := jsonstore.New(afero.NewMemMapFs())

	want := doc{Lists: []string{"one", "two"}, Extra: map[string]int{"k": 7}, Note: "saved"}
	require.NoError(t, store.Save("nested/dir/data.json", want))

	var got doc
	require.NoError(t, store.Load("nested/dir/data.json", doc{}, &got))
	assert.Equal(t, want, got)
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := jsonstore.New(fs)
	require.NoError(t, store.Save("data.json", doc{Note: "x"}))

	exists, err := afero.Exists(fs, "data.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

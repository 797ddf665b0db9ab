// Package jsonstore is the shared flat-file persistence helper. Every
// data document in the portal (playlists, viewers, analytics, ...) is
// one JSON file loaded and rewritten whole; this package owns the
// default-backfill semantics on load and the temp-file-then-rename
// discipline on save.
package jsonstore

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store reads and writes JSON documents on a filesystem. Passing an
// afero.NewMemMapFs lets tests run without touching disk.
type Store struct {
	fs afero.Fs
}

// New returns a store backed by the given filesystem.
func New(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// NewOS returns a store backed by the real filesystem.
func NewOS() *Store {
	return New(afero.NewOsFs())
}

// Load reads the document at path into out. Top-level keys present in
// defaults but absent from the file are backfilled (one level deep). A
// missing, unreadable, or corrupt file yields a deep copy of defaults:
// the caller always gets a usable document.
func (s *Store) Load(path string, defaults, out any) error {
	raw, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return copyDefaults(defaults, out)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return copyDefaults(defaults, out)
	}

	defRaw, err := json.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var defDoc map[string]json.RawMessage
	if err := json.Unmarshal(defRaw, &defDoc); err != nil {
		return fmt.Errorf("decode defaults: %w", err)
	}

	for k, v := range defDoc {
		if _, ok := doc[k]; !ok {
			doc[k] = v
		}
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("merge document: %w", err)
	}
	if err := json.Unmarshal(merged, out); err != nil {
		return copyDefaults(defaults, out)
	}
	return nil
}

// Save serializes doc and replaces the file at path atomically. Errors
// must reach the caller: a swallowed save failure is silent data loss.
func (s *Store) Save(path string, doc any) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := s.fs.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		f.Close()
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func copyDefaults(defaults, out any) error {
	raw, err := json.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("copy defaults: %w", err)
	}
	return nil
}

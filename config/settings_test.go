package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"embertv/config"
)

func TestLoadCreatesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := config.NewManager(path)

	s, err := m.Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if s.M3U.RefreshHours != 6 {
		t.Fatalf("expected default refresh hours 6, got %d", s.M3U.RefreshHours)
	}
	if !s.M3U.AutoRefresh {
		t.Fatal("expected auto refresh enabled by default")
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected settings file to be created: %v", err)
	}
}

func TestLoadBackfillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	// A config written before the security section existed.
	partial := map[string]any{
		"server": map[string]any{"host": "127.0.0.1", "port": 9000},
		"m3u":    map[string]any{"autoRefresh": false, "refreshHours": 12},
	}
	raw, _ := json.Marshal(partial)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write partial config: %v", err)
	}

	s, err := config.NewManager(path).Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if s.Server.Port != 9000 {
		t.Fatalf("expected port preserved, got %d", s.Server.Port)
	}
	if s.M3U.AutoRefresh {
		t.Fatal("expected auto refresh preserved as disabled")
	}
	if s.M3U.RefreshHours != 12 {
		t.Fatalf("expected refresh hours preserved, got %d", s.M3U.RefreshHours)
	}
	if s.Security.SessionHours != 24 {
		t.Fatalf("expected session hours backfilled to 24, got %d", s.Security.SessionHours)
	}
	if s.Security.RateLimit != 100 {
		t.Fatalf("expected rate limit backfilled to 100, got %d", s.Security.RateLimit)
	}
}

func TestSaveRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	m := config.NewManager(path)

	s := config.DefaultSettings()
	s.Site.Name = "Test Portal"
	s.M3U.RefreshHours = 3
	if err := m.Save(s); err != nil {
		t.Fatalf("save returned error: %v", err)
	}

	got, err := m.Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if got.Site.Name != "Test Portal" {
		t.Fatalf("expected site name round-tripped, got %q", got.Site.Name)
	}
	if got.M3U.RefreshHours != 3 {
		t.Fatalf("expected refresh hours round-tripped, got %d", got.M3U.RefreshHours)
	}
}

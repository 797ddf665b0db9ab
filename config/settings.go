package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Settings represents the portal configuration persisted to disk.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Storage  StorageSettings  `json:"storage"`
	Site     SiteSettings     `json:"site"`
	M3U      M3USettings      `json:"m3u"`
	Security SecuritySettings `json:"security"`
	Log      LogConfig        `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StorageSettings locates the flat JSON data files.
type StorageSettings struct {
	DataDirectory string `json:"dataDirectory"`
}

type SiteSettings struct {
	Name                string `json:"name"`
	RequireSubscription bool   `json:"requireSubscription"`
}

// DefaultRefreshHours is the playlist refresh interval applied when the
// configured value is missing or invalid.
const DefaultRefreshHours = 6

// M3USettings drives the playlist refresh scheduler.
type M3USettings struct {
	AutoRefresh  bool `json:"autoRefresh"`
	RefreshHours int  `json:"refreshHours"`
}

// SecuritySettings tune session lifetime and login protection.
type SecuritySettings struct {
	SessionHours     int `json:"sessionHours"`
	MaxLoginAttempts int `json:"maxLoginAttempts"`
	LockoutMinutes   int `json:"lockoutMinutes"`
	RateLimit        int `json:"rateLimit"`      // requests per window
	RateWindowSecs   int `json:"rateWindowSecs"` // window length in seconds
}

// LogConfig configures file logging rotation.
type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration used when no settings file
// exists yet.
func DefaultSettings() Settings {
	return Settings{
		Server:  ServerSettings{Host: "0.0.0.0", Port: 8080},
		Storage: StorageSettings{DataDirectory: "data"},
		Site:    SiteSettings{Name: "Ember TV"},
		M3U:     M3USettings{AutoRefresh: true, RefreshHours: DefaultRefreshHours},
		Security: SecuritySettings{
			SessionHours:     24,
			MaxLoginAttempts: 5,
			LockoutMinutes:   15,
			RateLimit:        100,
			RateWindowSecs:   60,
		},
		Log: LogConfig{
			File:       "data/logs/embertv.log",
			MaxSize:    50, // MB per file
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures the parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing.
// Fields introduced after a config file was written are backfilled.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	d := DefaultSettings()
	if strings.TrimSpace(s.Server.Host) == "" {
		s.Server.Host = d.Server.Host
	}
	if s.Server.Port == 0 {
		s.Server.Port = d.Server.Port
	}
	if strings.TrimSpace(s.Storage.DataDirectory) == "" {
		s.Storage.DataDirectory = d.Storage.DataDirectory
	}
	if strings.TrimSpace(s.Site.Name) == "" {
		s.Site.Name = d.Site.Name
	}
	if s.M3U.RefreshHours <= 0 {
		s.M3U.RefreshHours = d.M3U.RefreshHours
	}
	if s.Security.SessionHours <= 0 {
		s.Security.SessionHours = d.Security.SessionHours
	}
	if s.Security.MaxLoginAttempts <= 0 {
		s.Security.MaxLoginAttempts = d.Security.MaxLoginAttempts
	}
	if s.Security.LockoutMinutes <= 0 {
		s.Security.LockoutMinutes = d.Security.LockoutMinutes
	}
	if s.Security.RateLimit <= 0 {
		s.Security.RateLimit = d.Security.RateLimit
	}
	if s.Security.RateWindowSecs <= 0 {
		s.Security.RateWindowSecs = d.Security.RateWindowSecs
	}
	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = d.Log.File
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = d.Log.MaxSize
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = d.Log.MaxBackups
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = d.Log.MaxAge
	}

	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}

package playlists

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mozillazg/go-unidecode"

	"embertv/internal/jsonstore"
	"embertv/models"
	"embertv/services/ingest"
)

var (
	ErrURLRequired = errors.New("URL required")
	ErrNotFound    = errors.New("playlist not found")
	ErrNoChannels  = errors.New("no channels found in source")
)

// DefaultListName is used when an import request carries no name.
const DefaultListName = "My List"

// Fetcher retrieves raw playlist text for a source URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

var _ Fetcher = (*ingest.Fetcher)(nil)

// document is the on-disk shape of m3u_lists.json.
type document struct {
	Lists []models.Playlist `json:"lists"`
}

func emptyDocument() document {
	return document{Lists: []models.Playlist{}}
}

// Service manages the stored M3U playlists. Every operation reloads the
// whole document, mutates it, and rewrites it; the mutex keeps
// concurrent writers from losing each other's saves.
type Service struct {
	mu      sync.Mutex
	store   *jsonstore.Store
	path    string
	fetcher Fetcher
	now     func() time.Time
}

// NewService creates a playlists service storing data inside the
// provided directory.
func NewService(store *jsonstore.Store, dataDir string, fetcher Fetcher) *Service {
	return &Service{
		store:   store,
		path:    filepath.Join(dataDir, "m3u_lists.json"),
		fetcher: fetcher,
		now:     time.Now,
	}
}

// List returns lightweight summaries; the channel payload never travels
// with a listing.
func (s *Service) List() ([]models.PlaylistSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	summaries := make([]models.PlaylistSummary, 0, len(doc.Lists))
	for _, l := range doc.Lists {
		summaries = append(summaries, l.Summary())
	}
	return summaries, nil
}

// Get returns the full record including channels and categories.
func (s *Service) Get(id int) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Playlist{}, err
	}
	for _, l := range doc.Lists {
		if l.ID == id {
			return l, nil
		}
	}
	return models.Playlist{}, ErrNotFound
}

// Channels returns a playlist's channels, optionally filtered by an
// accent-insensitive substring match on name and group.
func (s *Service) Channels(id int, query string) (models.Playlist, []models.Channel, error) {
	list, err := s.Get(id)
	if err != nil {
		return models.Playlist{}, nil, err
	}

	query = normalize(query)
	if query == "" {
		return list, list.Channels, nil
	}

	matched := make([]models.Channel, 0, len(list.Channels))
	for _, ch := range list.Channels {
		if strings.Contains(normalize(ch.Name), query) || strings.Contains(normalize(ch.Group), query) {
			matched = append(matched, ch)
		}
	}
	return list, matched, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(s)))
}

// Import fetches and parses the source at url and appends a new
// playlist. Nothing is persisted unless fetch and parse both succeed
// and yield at least one channel.
func (s *Service) Import(ctx context.Context, url, name string) (models.Playlist, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return models.Playlist{}, ErrURLRequired
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultListName
	}

	content, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("fetch source: %w", err)
	}
	channels, categories := ingest.ParseM3U(content)
	if len(channels) == 0 {
		return models.Playlist{}, ErrNoChannels
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Playlist{}, err
	}

	list := models.Playlist{
		ID:            nextID(doc.Lists),
		Name:          name,
		URL:           url,
		Channels:      channels,
		Categories:    categories,
		ChannelsCount: len(channels),
		Created:       s.now().Format(models.TimeLayout),
	}
	doc.Lists = append(doc.Lists, list)

	if err := s.store.Save(s.path, doc); err != nil {
		return models.Playlist{}, err
	}

	log.Printf("[playlists] Imported %q (id %d): %d channels, %d categories", list.Name, list.ID, list.ChannelsCount, len(list.Categories))
	return list, nil
}

// Refresh re-fetches a playlist from its stored URL and replaces its
// channels and categories wholesale. On any failure the stored record
// is left exactly as it was. A refresh that parses to zero channels is
// rejected like an import: a transient empty response must not wipe a
// healthy playlist.
func (s *Service) Refresh(ctx context.Context, id int) (int, error) {
	s.mu.Lock()
	doc, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	var url string
	found := false
	for _, l := range doc.Lists {
		if l.ID == id {
			url, found = l.URL, true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return 0, ErrNotFound
	}

	// The fetch can take minutes; never hold the store lock across it.
	content, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("fetch source: %w", err)
	}
	channels, categories := ingest.ParseM3U(content)
	if len(channels) == 0 {
		return 0, ErrNoChannels
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err = s.load()
	if err != nil {
		return 0, err
	}
	for i := range doc.Lists {
		if doc.Lists[i].ID != id {
			continue
		}
		doc.Lists[i].Channels = channels
		doc.Lists[i].Categories = categories
		doc.Lists[i].ChannelsCount = len(channels)
		doc.Lists[i].Updated = s.now().Format(models.TimeLayout)
		if err := s.store.Save(s.path, doc); err != nil {
			return 0, err
		}
		log.Printf("[playlists] Refreshed %q (id %d): %d channels", doc.Lists[i].Name, id, len(channels))
		return len(channels), nil
	}
	// Deleted while the fetch was in flight.
	return 0, ErrNotFound
}

// Delete removes the playlist with the given id. Deleting an unknown id
// is a no-op, not an error.
func (s *Service) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	kept := doc.Lists[:0]
	for _, l := range doc.Lists {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	doc.Lists = kept
	return s.store.Save(s.path, doc)
}

func (s *Service) load() (document, error) {
	var doc document
	if err := s.store.Load(s.path, emptyDocument(), &doc); err != nil {
		return document{}, err
	}
	if doc.Lists == nil {
		doc.Lists = []models.Playlist{}
	}
	return doc, nil
}

// nextID assigns max(existing)+1; ids of deleted playlists are not
// reused within a surviving population.
func nextID(lists []models.Playlist) int {
	next := 1
	for _, l := range lists {
		if l.ID >= next {
			next = l.ID + 1
		}
	}
	return next
}

package channels

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"embertv/internal/jsonstore"
	"embertv/models"
)

var (
	ErrNameRequired      = errors.New("name is required")
	ErrChannelNotFound   = errors.New("channel not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrProtectedCategory = errors.New("the default category cannot be deleted")
)

const (
	defaultChannelIcon  = "📺"
	defaultCategoryIcon = "🏷️"
)

type document struct {
	Categories []models.Category       `json:"categories"`
	Channels   []models.CuratedChannel `json:"channels"`
}

func defaultDocument() document {
	return document{
		Categories: []models.Category{
			{ID: models.DefaultCategoryID, Name: "CHANNELS", Icon: defaultChannelIcon},
		},
		Channels: []models.CuratedChannel{},
	}
}

// Service manages the hand-curated channel grid and its categories.
type Service struct {
	mu    sync.Mutex
	store *jsonstore.Store
	path  string
}

// NewService creates a channels service storing data inside the
// provided directory.
func NewService(store *jsonstore.Store, dataDir string) *Service {
	return &Service{
		store: store,
		path:  filepath.Join(dataDir, "channels.json"),
	}
}

// Categories returns all categories.
func (s *Service) Categories() ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

// Channels returns all curated channels.
func (s *Service) Channels() ([]models.CuratedChannel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Channels, nil
}

// SaveChannel creates a channel when id is zero, otherwise updates the
// existing one. The first server doubles as the legacy iframe value.
func (s *Service) SaveChannel(ch models.CuratedChannel) (models.CuratedChannel, error) {
	ch.Name = strings.TrimSpace(ch.Name)
	if ch.Name == "" {
		return models.CuratedChannel{}, ErrNameRequired
	}
	if len(ch.Servers) == 0 && ch.Iframe != "" {
		ch.Servers = []string{ch.Iframe}
	}
	if len(ch.Servers) > 0 {
		ch.Iframe = ch.Servers[0]
	} else {
		ch.Iframe = ""
		ch.Servers = []string{}
	}
	if ch.Icon == "" {
		ch.Icon = defaultChannelIcon
	}
	if ch.CategoryID == 0 {
		ch.CategoryID = models.DefaultCategoryID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.CuratedChannel{}, err
	}

	if ch.ID == 0 {
		ch.ID = nextChannelID(doc.Channels)
		doc.Channels = append(doc.Channels, ch)
	} else {
		found := false
		for i := range doc.Channels {
			if doc.Channels[i].ID == ch.ID {
				doc.Channels[i] = ch
				found = true
				break
			}
		}
		if !found {
			return models.CuratedChannel{}, ErrChannelNotFound
		}
	}

	if err := s.store.Save(s.path, doc); err != nil {
		return models.CuratedChannel{}, err
	}
	return ch, nil
}

// DeleteChannel removes a channel. Unknown ids are a no-op.
func (s *Service) DeleteChannel(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	kept := doc.Channels[:0]
	for _, c := range doc.Channels {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	doc.Channels = kept
	return s.store.Save(s.path, doc)
}

// SaveCategory creates a category when id is zero, otherwise updates
// the existing one.
func (s *Service) SaveCategory(cat models.Category) (models.Category, error) {
	cat.Name = strings.TrimSpace(cat.Name)
	if cat.Name == "" {
		return models.Category{}, ErrNameRequired
	}
	if cat.Icon == "" {
		cat.Icon = defaultCategoryIcon
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Category{}, err
	}

	if cat.ID == 0 {
		cat.ID = nextCategoryID(doc.Categories)
		doc.Categories = append(doc.Categories, cat)
	} else {
		found := false
		for i := range doc.Categories {
			if doc.Categories[i].ID == cat.ID {
				doc.Categories[i] = cat
				found = true
				break
			}
		}
		if !found {
			return models.Category{}, ErrCategoryNotFound
		}
	}

	if err := s.store.Save(s.path, doc); err != nil {
		return models.Category{}, err
	}
	return cat, nil
}

// DeleteCategory removes a category and moves its channels to the
// default one. The default category itself is protected.
func (s *Service) DeleteCategory(id int) error {
	if id == models.DefaultCategoryID {
		return ErrProtectedCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	for i := range doc.Channels {
		if doc.Channels[i].CategoryID == id {
			doc.Channels[i].CategoryID = models.DefaultCategoryID
		}
	}

	kept := doc.Categories[:0]
	for _, c := range doc.Categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	doc.Categories = kept
	return s.store.Save(s.path, doc)
}

func (s *Service) load() (document, error) {
	var doc document
	if err := s.store.Load(s.path, defaultDocument(), &doc); err != nil {
		return document{}, err
	}
	if doc.Categories == nil {
		doc.Categories = []models.Category{}
	}
	if doc.Channels == nil {
		doc.Channels = []models.CuratedChannel{}
	}
	return doc, nil
}

func nextChannelID(channels []models.CuratedChannel) int {
	next := 1
	for _, c := range channels {
		if c.ID >= next {
			next = c.ID + 1
		}
	}
	return next
}

func nextCategoryID(categories []models.Category) int {
	next := 1
	for _, c := range categories {
		if c.ID >= next {
			next = c.ID + 1
		}
	}
	return next
}

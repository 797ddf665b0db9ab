package analytics

import (
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"embertv/internal/jsonstore"
	"embertv/models"
)

// maxViews caps the rolling raw view log.
const maxViews = 10000

// popularLimit caps the channels in the popularity ranking response.
const popularLimit = 10

type popularCounter struct {
	Name  string `json:"name"`
	Views int    `json:"views"`
}

type document struct {
	Views   []models.View               `json:"views"`
	Daily   map[string]models.DailyStat `json:"daily"`
	Popular map[string]popularCounter   `json:"popular"`
}

func emptyDocument() document {
	return document{
		Views:   []models.View{},
		Daily:   map[string]models.DailyStat{},
		Popular: map[string]popularCounter{},
	}
}

// Summary is the aggregated view served to the admin dashboard.
type Summary struct {
	TodayViews int                         `json:"today_views"`
	TodayUsers int                         `json:"today_users"`
	Popular    []models.PopularEntry       `json:"popular"`
	Daily      map[string]models.DailyStat `json:"daily"`
}

// Service records channel views and aggregates them per day and per
// channel.
type Service struct {
	mu    sync.Mutex
	store *jsonstore.Store
	path  string
	now   func() time.Time
}

// NewService creates an analytics service storing data inside the
// provided directory.
func NewService(store *jsonstore.Store, dataDir string) *Service {
	return &Service{
		store: store,
		path:  filepath.Join(dataDir, "analytics.json"),
		now:   time.Now,
	}
}

// Track records one channel view. A zero viewerID means anonymous.
// The raw log keeps only the most recent entries; the aggregates keep
// counting past that horizon.
func (s *Service) Track(channelID int, channelName string, viewerID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	now := s.now()
	today := now.Format(models.DateLayout)

	doc.Views = append(doc.Views, models.View{
		Channel: channelID,
		Name:    channelName,
		Viewer:  viewerID,
		Time:    now.Format(time.RFC3339),
	})
	if len(doc.Views) > maxViews {
		doc.Views = doc.Views[len(doc.Views)-maxViews:]
	}

	day := doc.Daily[today]
	day.Views++
	if viewerID != 0 && !containsInt(day.Users, viewerID) {
		day.Users = append(day.Users, viewerID)
	}
	doc.Daily[today] = day

	key := strconv.Itoa(channelID)
	pop := doc.Popular[key]
	pop.Views++
	pop.Name = channelName
	doc.Popular[key] = pop

	return s.store.Save(s.path, doc)
}

// Summarize returns today's totals, the top channels and the full
// per-day history.
func (s *Service) Summarize() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return Summary{}, err
	}

	today := doc.Daily[s.now().Format(models.DateLayout)]

	popular := make([]models.PopularEntry, 0, len(doc.Popular))
	for _, p := range doc.Popular {
		popular = append(popular, models.PopularEntry{Name: p.Name, Views: p.Views})
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].Views == popular[j].Views {
			return popular[i].Name < popular[j].Name
		}
		return popular[i].Views > popular[j].Views
	})
	if len(popular) > popularLimit {
		popular = popular[:popularLimit]
	}

	return Summary{
		TodayViews: today.Views,
		TodayUsers: len(today.Users),
		Popular:    popular,
		Daily:      doc.Daily,
	}, nil
}

func containsInt(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s *Service) load() (document, error) {
	var doc document
	if err := s.store.Load(s.path, emptyDocument(), &doc); err != nil {
		return document{}, err
	}
	if doc.Views == nil {
		doc.Views = []models.View{}
	}
	if doc.Daily == nil {
		doc.Daily = map[string]models.DailyStat{}
	}
	if doc.Popular == nil {
		doc.Popular = map[string]popularCounter{}
	}
	return doc, nil
}

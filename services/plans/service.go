package plans

import (
	"errors"
	"log"
	"path/filepath"
	"sync"
	"time"

	"embertv/internal/jsonstore"
	"embertv/models"
)

var (
	ErrNameRequired = errors.New("name is required")
	ErrInvalidDays  = errors.New("days must be at least 1")
	ErrInvalidPrice = errors.New("invalid price")
	ErrPlanNotFound = errors.New("plan not found")
)

type document struct {
	Plans []models.Plan `json:"plans"`
	Sales []models.Sale `json:"subscriptions"`
}

// defaultPlans are seeded when no plans file exists yet.
func defaultPlans() []models.Plan {
	return []models.Plan{
		{ID: 1, Name: "2-Day Pass", Price: 2.99, Days: 2, Devices: 1},
		{ID: 2, Name: "Weekly Pass", Price: 14.99, Days: 7, Devices: 1},
		{ID: 3, Name: "Monthly Pass", Price: 19.99, Days: 30, Devices: 1},
		{ID: 4, Name: "Annual Pass", Price: 99.99, OriginalPrice: 240, Days: 365, Devices: 2, Featured: true},
	}
}

// Service manages subscription plans and the sales ledger.
type Service struct {
	mu    sync.Mutex
	store *jsonstore.Store
	path  string
	now   func() time.Time
}

// NewService creates a plans service storing data inside the provided
// directory.
func NewService(store *jsonstore.Store, dataDir string) *Service {
	return &Service{
		store: store,
		path:  filepath.Join(dataDir, "plans.json"),
		now:   time.Now,
	}
}

// List returns all plans in stored order.
func (s *Service) List() ([]models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Plans, nil
}

// Get returns the plan with the given id.
func (s *Service) Get(id int) (models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Plan{}, err
	}
	for _, p := range doc.Plans {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Plan{}, ErrPlanNotFound
}

// Save creates a plan when id is zero, otherwise updates the existing
// one. An absent original price clears any stored strike-through price.
func (s *Service) Save(plan models.Plan) (models.Plan, error) {
	if plan.Name == "" {
		return models.Plan{}, ErrNameRequired
	}
	if plan.Days < 1 {
		return models.Plan{}, ErrInvalidDays
	}
	if plan.Price < 0 {
		return models.Plan{}, ErrInvalidPrice
	}
	if plan.Devices < 1 {
		plan.Devices = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Plan{}, err
	}

	if plan.ID == 0 {
		plan.ID = nextID(doc.Plans)
		doc.Plans = append(doc.Plans, plan)
		log.Printf("[plans] Created plan %q (id %d)", plan.Name, plan.ID)
	} else {
		found := false
		for i := range doc.Plans {
			if doc.Plans[i].ID == plan.ID {
				doc.Plans[i] = plan
				found = true
				break
			}
		}
		if !found {
			return models.Plan{}, ErrPlanNotFound
		}
		log.Printf("[plans] Updated plan %q (id %d)", plan.Name, plan.ID)
	}

	if err := s.store.Save(s.path, doc); err != nil {
		return models.Plan{}, err
	}
	return plan, nil
}

// Delete removes a plan. Viewers already subscribed keep their carried
// subscription snapshot. Unknown ids are a no-op.
func (s *Service) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	kept := doc.Plans[:0]
	for _, p := range doc.Plans {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	doc.Plans = kept
	return s.store.Save(s.path, doc)
}

// RecordSale appends an entry to the sales ledger.
func (s *Service) RecordSale(viewer models.Viewer, plan models.Plan, orderID string) (models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Sale{}, err
	}

	sale := models.Sale{
		ID:       len(doc.Sales) + 1,
		ViewerID: viewer.ID,
		Viewer:   viewer.Username,
		Plan:     plan.Name,
		Price:    plan.Price,
		PayPal:   orderID,
		Created:  s.now().Format(time.RFC3339),
	}
	doc.Sales = append(doc.Sales, sale)

	if err := s.store.Save(s.path, doc); err != nil {
		return models.Sale{}, err
	}
	return sale, nil
}

// Sales returns the full sales ledger.
func (s *Service) Sales() ([]models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Sales, nil
}

func (s *Service) load() (document, error) {
	var doc document
	defaults := document{Plans: defaultPlans(), Sales: []models.Sale{}}
	if err := s.store.Load(s.path, defaults, &doc); err != nil {
		return document{}, err
	}
	if doc.Plans == nil {
		doc.Plans = []models.Plan{}
	}
	if doc.Sales == nil {
		doc.Sales = []models.Sale{}
	}
	return doc, nil
}

func nextID(plans []models.Plan) int {
	next := 1
	for _, p := range plans {
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	return next
}

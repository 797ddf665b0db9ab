package viewers

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"

	"embertv/internal/jsonstore"
	"embertv/models"
)

var (
	ErrUsernameTooShort   = errors.New("username must be at least 3 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already registered")
	ErrViewerNotFound     = errors.New("viewer not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	minUsernameLen = 3
	minPasswordLen = 6

	// resetPasswordLen is the length of generated replacement passwords.
	resetPasswordLen = 10
)

// Favorite toggle actions.
const (
	FavoriteAdd    = "add"
	FavoriteRemove = "remove"
	FavoriteToggle = "toggle"
)

type document struct {
	Viewers []models.Viewer `json:"viewers"`
}

// Service manages viewer accounts, their subscriptions and favorites.
type Service struct {
	mu    sync.Mutex
	store *jsonstore.Store
	path  string
	now   func() time.Time
}

// NewService creates a viewers service storing data inside the provided
// directory.
func NewService(store *jsonstore.Store, dataDir string) *Service {
	return &Service{
		store: store,
		path:  filepath.Join(dataDir, "viewers.json"),
		now:   time.Now,
	}
}

// List returns all viewers for the admin panel. Expired subscriptions
// are reported as absent.
func (s *Service) List() ([]models.ViewerSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	now := s.now()
	summaries := make([]models.ViewerSummary, 0, len(doc.Viewers))
	for _, v := range doc.Viewers {
		sub := v.Subscription
		if !sub.ActiveAt(now) {
			sub = nil
		}
		summaries = append(summaries, models.ViewerSummary{
			ID:           v.ID,
			Username:     v.Username,
			Email:        v.Email,
			Created:      v.Created,
			Subscription: sub,
		})
	}
	return summaries, nil
}

// Get returns the viewer with the given id.
func (s *Service) Get(id int) (models.Viewer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Viewer{}, err
	}
	for _, v := range doc.Viewers {
		if v.ID == id {
			return v, nil
		}
	}
	return models.Viewer{}, ErrViewerNotFound
}

// Register creates a new viewer account.
func (s *Service) Register(username, email, pass string) (models.Viewer, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate(username, email, pass); err != nil {
		return models.Viewer{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return models.Viewer{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Viewer{}, err
	}
	if err := checkTaken(doc.Viewers, 0, username, email); err != nil {
		return models.Viewer{}, err
	}

	viewer := models.Viewer{
		ID:           nextID(doc.Viewers),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Created:      s.now().Format(models.DateLayout),
		Favorites:    []int{},
	}
	doc.Viewers = append(doc.Viewers, viewer)

	if err := s.store.Save(s.path, doc); err != nil {
		return models.Viewer{}, err
	}
	log.Printf("[viewers] Registered %q (id %d)", viewer.Username, viewer.ID)
	return viewer, nil
}

// Authenticate verifies a viewer login. The login value matches either
// the username or the email, case-insensitively.
func (s *Service) Authenticate(login, pass string) (models.Viewer, error) {
	login = strings.ToLower(strings.TrimSpace(login))

	s.mu.Lock()
	doc, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return models.Viewer{}, err
	}

	for _, v := range doc.Viewers {
		if strings.ToLower(v.Username) != login && v.Email != login {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(v.PasswordHash), []byte(pass)) != nil {
			return models.Viewer{}, ErrInvalidCredentials
		}
		return v, nil
	}
	return models.Viewer{}, ErrInvalidCredentials
}

// UpdateProfile lets a viewer change their own email and password.
// Empty fields are left untouched.
func (s *Service) UpdateProfile(id int, email, pass string) (models.Viewer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && !strings.Contains(email, "@") {
		return models.Viewer{}, ErrInvalidEmail
	}
	if pass != "" && len(pass) < minPasswordLen {
		return models.Viewer{}, ErrPasswordTooShort
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Viewer{}, err
	}
	for i := range doc.Viewers {
		if doc.Viewers[i].ID != id {
			continue
		}
		if email != "" {
			if err := checkTaken(doc.Viewers, id, "", email); err != nil {
				return models.Viewer{}, err
			}
			doc.Viewers[i].Email = email
		}
		if pass != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
			if err != nil {
				return models.Viewer{}, fmt.Errorf("hash password: %w", err)
			}
			doc.Viewers[i].PasswordHash = string(hash)
		}
		if err := s.store.Save(s.path, doc); err != nil {
			return models.Viewer{}, err
		}
		return doc.Viewers[i], nil
	}
	return models.Viewer{}, ErrViewerNotFound
}

// Update edits a viewer from the admin panel. A new password is
// optional; username and email are not.
func (s *Service) Update(id int, username, email, pass string) (models.Viewer, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if len(username) < minUsernameLen {
		return models.Viewer{}, ErrUsernameTooShort
	}
	if !strings.Contains(email, "@") {
		return models.Viewer{}, ErrInvalidEmail
	}
	if pass != "" && len(pass) < minPasswordLen {
		return models.Viewer{}, ErrPasswordTooShort
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Viewer{}, err
	}
	for i := range doc.Viewers {
		if doc.Viewers[i].ID != id {
			continue
		}
		if err := checkTaken(doc.Viewers, id, username, email); err != nil {
			return models.Viewer{}, err
		}
		doc.Viewers[i].Username = username
		doc.Viewers[i].Email = email
		if pass != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
			if err != nil {
				return models.Viewer{}, fmt.Errorf("hash password: %w", err)
			}
			doc.Viewers[i].PasswordHash = string(hash)
		}
		if err := s.store.Save(s.path, doc); err != nil {
			return models.Viewer{}, err
		}
		return doc.Viewers[i], nil
	}
	return models.Viewer{}, ErrViewerNotFound
}

// Delete removes a viewer account. Deleting an unknown id is a no-op.
func (s *Service) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	kept := doc.Viewers[:0]
	for _, v := range doc.Viewers {
		if v.ID != id {
			kept = append(kept, v)
		}
	}
	doc.Viewers = kept
	return s.store.Save(s.path, doc)
}

// ResetPassword replaces a viewer's password with a generated one and
// returns the plaintext so it can be handed to the account owner.
func (s *Service) ResetPassword(id int) (string, error) {
	plain, err := password.Generate(resetPasswordLen, 2, 2, false, false)
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}
	for i := range doc.Viewers {
		if doc.Viewers[i].ID != id {
			continue
		}
		doc.Viewers[i].PasswordHash = string(hash)
		if err := s.store.Save(s.path, doc); err != nil {
			return "", err
		}
		log.Printf("[viewers] Reset password for %q (id %d)", doc.Viewers[i].Username, id)
		return plain, nil
	}
	return "", ErrViewerNotFound
}

// Subscribe attaches a plan to a viewer, replacing any existing
// subscription. The expiry is the plan length from now.
func (s *Service) Subscribe(id int, plan models.Plan, orderID string) (models.Subscription, error) {
	now := s.now()
	devices := plan.Devices
	if devices < 1 {
		devices = 1
	}
	sub := models.Subscription{
		PlanID:        plan.ID,
		PlanName:      plan.Name,
		Price:         plan.Price,
		Devices:       devices,
		Started:       now.Format(time.RFC3339),
		Expires:       now.AddDate(0, 0, plan.Days).Format(time.RFC3339),
		PayPalOrderID: orderID,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Subscription{}, err
	}
	for i := range doc.Viewers {
		if doc.Viewers[i].ID != id {
			continue
		}
		doc.Viewers[i].Subscription = &sub
		if err := s.store.Save(s.path, doc); err != nil {
			return models.Subscription{}, err
		}
		log.Printf("[viewers] %q subscribed to %q", doc.Viewers[i].Username, plan.Name)
		return sub, nil
	}
	return models.Subscription{}, ErrViewerNotFound
}

// HasActiveSubscription reports whether a viewer's subscription is
// current.
func (s *Service) HasActiveSubscription(id int) bool {
	v, err := s.Get(id)
	if err != nil {
		return false
	}
	return v.Subscription.ActiveAt(s.now())
}

// Favorites returns a viewer's favorite channel ids.
func (s *Service) Favorites(id int) ([]int, error) {
	v, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if v.Favorites == nil {
		return []int{}, nil
	}
	return v.Favorites, nil
}

// SetFavorite applies an add, remove or toggle action to a viewer's
// favorites and returns the resulting list. Unknown actions leave the
// list untouched.
func (s *Service) SetFavorite(id int, action string, channelID int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Viewers {
		if doc.Viewers[i].ID != id {
			continue
		}
		favs := doc.Viewers[i].Favorites
		has := contains(favs, channelID)
		switch action {
		case FavoriteAdd:
			if !has {
				favs = append(favs, channelID)
			}
		case FavoriteRemove:
			if has {
				favs = remove(favs, channelID)
			}
		case FavoriteToggle:
			if has {
				favs = remove(favs, channelID)
			} else {
				favs = append(favs, channelID)
			}
		}
		if favs == nil {
			favs = []int{}
		}
		doc.Viewers[i].Favorites = favs
		if err := s.store.Save(s.path, doc); err != nil {
			return nil, err
		}
		return favs, nil
	}
	return nil, ErrViewerNotFound
}

func validate(username, email, pass string) error {
	if len(username) < minUsernameLen {
		return ErrUsernameTooShort
	}
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if len(pass) < minPasswordLen {
		return ErrPasswordTooShort
	}
	return nil
}

// checkTaken reports a conflict if another viewer already owns the
// username or email. Empty values are not checked.
func checkTaken(viewers []models.Viewer, selfID int, username, email string) error {
	for _, v := range viewers {
		if v.ID == selfID {
			continue
		}
		if username != "" && strings.EqualFold(v.Username, username) {
			return ErrUsernameTaken
		}
		if email != "" && v.Email == email {
			return ErrEmailTaken
		}
	}
	return nil
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (s *Service) load() (document, error) {
	var doc document
	if err := s.store.Load(s.path, document{Viewers: []models.Viewer{}}, &doc); err != nil {
		return document{}, err
	}
	if doc.Viewers == nil {
		doc.Viewers = []models.Viewer{}
	}
	return doc, nil
}

func nextID(viewers []models.Viewer) int {
	next := 1
	for _, v := range viewers {
		if v.ID >= next {
			next = v.ID + 1
		}
	}
	return next
}

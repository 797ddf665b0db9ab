package users

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"embertv/internal/jsonstore"
	"embertv/models"
)

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProtectedUser      = errors.New("the primary admin cannot be deleted")
)

// primaryAdminID is the seeded account that must always exist.
const primaryAdminID = 1

type document struct {
	Users []models.User `json:"users"`
}

// Service manages the admin panel accounts.
type Service struct {
	mu    sync.Mutex
	store *jsonstore.Store
	path  string
}

// NewService creates a users service storing data inside the provided
// directory. A default admin account is seeded on first run.
func NewService(store *jsonstore.Store, dataDir string) (*Service, error) {
	svc := &Service{
		store: store,
		path:  filepath.Join(dataDir, "users.json"),
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	doc, err := svc.load()
	if err != nil {
		return nil, err
	}
	if len(doc.Users) == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(models.DefaultAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash default password: %w", err)
		}
		doc.Users = append(doc.Users, models.User{
			ID:           primaryAdminID,
			Username:     models.DefaultAdminUsername,
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
			Created:      time.Now().Format(models.TimeLayout),
		})
		if err := svc.store.Save(svc.path, doc); err != nil {
			return nil, err
		}
		log.Printf("[users] Seeded default admin account %q", models.DefaultAdminUsername)
	}

	return svc, nil
}

// List returns all accounts without password hashes.
func (s *Service) List() ([]models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	summaries := make([]models.UserSummary, 0, len(doc.Users))
	for _, u := range doc.Users {
		summaries = append(summaries, u.Summary())
	}
	return summaries, nil
}

// Get returns the account with the given id.
func (s *Service) Get(id int) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.User{}, err
	}
	for _, u := range doc.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

// Authenticate verifies a username and password pair. Unknown usernames
// and wrong passwords yield the same error.
func (s *Service) Authenticate(username, password string) (models.User, error) {
	username = strings.TrimSpace(username)

	s.mu.Lock()
	doc, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return models.User{}, err
	}

	for _, u := range doc.Users {
		if !strings.EqualFold(u.Username, username) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			return models.User{}, ErrInvalidCredentials
		}
		return u, nil
	}
	return models.User{}, ErrInvalidCredentials
}

// Create adds a new admin panel account.
func (s *Service) Create(username, password, role string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, ErrUsernameRequired
	}
	if password == "" {
		return models.User{}, ErrPasswordRequired
	}
	if role != models.RoleAdmin && role != models.RoleEditor {
		role = models.RoleEditor
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.User{}, err
	}
	for _, u := range doc.Users {
		if strings.EqualFold(u.Username, username) {
			return models.User{}, ErrUsernameTaken
		}
	}

	user := models.User{
		ID:           nextID(doc.Users),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Created:      time.Now().Format(models.TimeLayout),
	}
	doc.Users = append(doc.Users, user)

	if err := s.store.Save(s.path, doc); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Update changes an account's username, password or role. Empty fields
// are left untouched.
func (s *Service) Update(id int, username, password, role string) (models.User, error) {
	username = strings.TrimSpace(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.User{}, err
	}

	for i := range doc.Users {
		if doc.Users[i].ID != id {
			continue
		}
		if username != "" {
			for _, other := range doc.Users {
				if other.ID != id && strings.EqualFold(other.Username, username) {
					return models.User{}, ErrUsernameTaken
				}
			}
			doc.Users[i].Username = username
		}
		if password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return models.User{}, fmt.Errorf("hash password: %w", err)
			}
			doc.Users[i].PasswordHash = string(hash)
		}
		if role == models.RoleAdmin || role == models.RoleEditor {
			// The primary admin keeps its role no matter what.
			if id != primaryAdminID {
				doc.Users[i].Role = role
			}
		}
		if err := s.store.Save(s.path, doc); err != nil {
			return models.User{}, err
		}
		return doc.Users[i], nil
	}
	return models.User{}, ErrUserNotFound
}

// Delete removes an account. The seeded primary admin is protected.
func (s *Service) Delete(id int) error {
	if id == primaryAdminID {
		return ErrProtectedUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	kept := doc.Users[:0]
	found := false
	for _, u := range doc.Users {
		if u.ID == id {
			found = true
			continue
		}
		kept = append(kept, u)
	}
	if !found {
		return ErrUserNotFound
	}
	doc.Users = kept
	return s.store.Save(s.path, doc)
}

func (s *Service) load() (document, error) {
	var doc document
	if err := s.store.Load(s.path, document{Users: []models.User{}}, &doc); err != nil {
		return document{}, err
	}
	if doc.Users == nil {
		doc.Users = []models.User{}
	}
	return doc, nil
}

func nextID(users []models.User) int {
	next := 1
	for _, u := range users {
		if u.ID >= next {
			next = u.ID + 1
		}
	}
	return next
}

package sessions

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"embertv/config"
	"embertv/internal/jsonstore"
	"embertv/models"
)

var ErrInvalidSession = errors.New("invalid or expired session")

// AdminSession is an authenticated admin panel login.
type AdminSession struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Created  string `json:"created"`
	IP       string `json:"ip,omitempty"`
}

// ViewerSession is an authenticated viewer login.
type ViewerSession struct {
	ViewerID int    `json:"viewer_id"`
	Username string `json:"username"`
	Created  string `json:"created"`
}

type document struct {
	Admin  map[string]AdminSession  `json:"sessions"`
	Viewer map[string]ViewerSession `json:"viewer_sessions"`
}

func emptyDocument() document {
	return document{
		Admin:  map[string]AdminSession{},
		Viewer: map[string]ViewerSession{},
	}
}

// Service issues and verifies bearer tokens for admins and viewers.
// Sessions expire after the configured lifetime; expired entries are
// dropped lazily on verification.
type Service struct {
	mu            sync.Mutex
	store         *jsonstore.Store
	path          string
	configManager *config.Manager
	now           func() time.Time
}

// NewService creates a sessions service storing data inside the
// provided directory.
func NewService(store *jsonstore.Store, dataDir string, configManager *config.Manager) *Service {
	return &Service{
		store:         store,
		path:          filepath.Join(dataDir, "sessions.json"),
		configManager: configManager,
		now:           time.Now,
	}
}

// CreateAdmin issues a token for an admin panel account.
func (s *Service) CreateAdmin(user models.User, ip string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	doc.Admin[token] = AdminSession{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Created:  s.now().Format(time.RFC3339),
		IP:       ip,
	}
	if err := s.store.Save(s.path, doc); err != nil {
		return "", err
	}
	return token, nil
}

// CreateViewer issues a token for a viewer account.
func (s *Service) CreateViewer(viewer models.Viewer) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	doc.Viewer[token] = ViewerSession{
		ViewerID: viewer.ID,
		Username: viewer.Username,
		Created:  s.now().Format(time.RFC3339),
	}
	if err := s.store.Save(s.path, doc); err != nil {
		return "", err
	}
	return token, nil
}

// VerifyAdmin resolves an admin token. Expired tokens are removed.
func (s *Service) VerifyAdmin(token string) (AdminSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return AdminSession{}, err
	}
	sess, ok := doc.Admin[token]
	if !ok {
		return AdminSession{}, ErrInvalidSession
	}
	if s.expired(sess.Created) {
		delete(doc.Admin, token)
		_ = s.store.Save(s.path, doc)
		return AdminSession{}, ErrInvalidSession
	}
	return sess, nil
}

// VerifyViewer resolves a viewer token. Expired tokens are removed.
func (s *Service) VerifyViewer(token string) (ViewerSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return ViewerSession{}, err
	}
	sess, ok := doc.Viewer[token]
	if !ok {
		return ViewerSession{}, ErrInvalidSession
	}
	if s.expired(sess.Created) {
		delete(doc.Viewer, token)
		_ = s.store.Save(s.path, doc)
		return ViewerSession{}, ErrInvalidSession
	}
	return sess, nil
}

// Revoke drops a token of either kind. Unknown tokens are ignored.
func (s *Service) Revoke(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	delete(doc.Admin, token)
	delete(doc.Viewer, token)
	return s.store.Save(s.path, doc)
}

// RevokeViewer drops every session belonging to a viewer. Used when
// the account is deleted or its password is reset.
func (s *Service) RevokeViewer(viewerID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for token, sess := range doc.Viewer {
		if sess.ViewerID == viewerID {
			delete(doc.Viewer, token)
		}
	}
	return s.store.Save(s.path, doc)
}

// expired reports whether a session creation stamp is past the
// configured lifetime. Unreadable stamps count as expired.
func (s *Service) expired(created string) bool {
	at, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return true
	}

	hours := 24
	if settings, err := s.configManager.Load(); err == nil && settings.Security.SessionHours > 0 {
		hours = settings.Security.SessionHours
	}
	return s.now().Sub(at) >= time.Duration(hours)*time.Hour
}

func (s *Service) load() (document, error) {
	var doc document
	if err := s.store.Load(s.path, emptyDocument(), &doc); err != nil {
		return document{}, err
	}
	if doc.Admin == nil {
		doc.Admin = map[string]AdminSession{}
	}
	if doc.Viewer == nil {
		doc.Viewer = map[string]ViewerSession{}
	}
	return doc, nil
}

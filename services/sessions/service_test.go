package sessions

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"embertv/config"
	"embertv/internal/jsonstore"
	"embertv/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	manager := config.NewManager(filepath.Join(t.TempDir(), "settings.json"))
	return NewService(jsonstore.New(afero.NewMemMapFs()), "data", manager)
}

func TestAdminSessionLifecycle(t *testing.T) {
	svc := newTestService(t)

	user := models.User{ID: 1, Username: "admin", Role: models.RoleAdmin}
	token, err := svc.CreateAdmin(user, "10.0.0.1")
	if err != nil {
		t.Fatalf("CreateAdmin failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	sess, err := svc.VerifyAdmin(token)
	if err != nil {
		t.Fatalf("VerifyAdmin failed: %v", err)
	}
	if sess.UserID != 1 || sess.Role != models.RoleAdmin || sess.IP != "10.0.0.1" {
		t.Errorf("unexpected session: %+v", sess)
	}

	// Admin tokens are not viewer tokens.
	if _, err := svc.VerifyViewer(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession, got %v", err)
	}

	if err := svc.Revoke(token); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := svc.VerifyAdmin(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession after revoke, got %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	svc := newTestService(t)

	past := time.Now().Add(-25 * time.Hour)
	svc.now = func() time.Time { return past }
	token, err := svc.CreateAdmin(models.User{ID: 1, Username: "admin", Role: models.RoleAdmin}, "")
	if err != nil {
		t.Fatalf("CreateAdmin failed: %v", err)
	}
	svc.now = time.Now

	if _, err := svc.VerifyAdmin(token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestRevokeViewerDropsAllTheirSessions(t *testing.T) {
	svc := newTestService(t)

	viewer := models.Viewer{ID: 7, Username: "alice"}
	other := models.Viewer{ID: 8, Username: "bob"}

	t1, err := svc.CreateViewer(viewer)
	if err != nil {
		t.Fatalf("CreateViewer failed: %v", err)
	}
	t2, err := svc.CreateViewer(viewer)
	if err != nil {
		t.Fatalf("CreateViewer failed: %v", err)
	}
	t3, err := svc.CreateViewer(other)
	if err != nil {
		t.Fatalf("CreateViewer failed: %v", err)
	}

	if err := svc.RevokeViewer(7); err != nil {
		t.Fatalf("RevokeViewer failed: %v", err)
	}

	if _, err := svc.VerifyViewer(t1); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("first session should be gone, got %v", err)
	}
	if _, err := svc.VerifyViewer(t2); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("second session should be gone, got %v", err)
	}
	if sess, err := svc.VerifyViewer(t3); err != nil || sess.ViewerID != 8 {
		t.Errorf("unrelated session should survive, got %+v, %v", sess, err)
	}
}

func TestTokensAreUnique(t *testing.T) {
	svc := newTestService(t)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		token, err := svc.CreateViewer(models.Viewer{ID: 1, Username: "alice"})
		if err != nil {
			t.Fatalf("CreateViewer failed: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token issued: %s", token)
		}
		seen[token] = true
	}
}

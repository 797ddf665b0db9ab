package users

import (
	"errors"
	"testing"

	"github.com/spf13/afero"

	"embertv/internal/jsonstore"
	"embertv/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(jsonstore.New(afero.NewMemMapFs()), "data")
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestSeedsDefaultAdmin(t *testing.T) {
	svc := newTestService(t)

	admin, err := svc.Get(1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if admin.Username != models.DefaultAdminUsername {
		t.Errorf("expected seeded admin, got %q", admin.Username)
	}
	if admin.Role != models.RoleAdmin {
		t.Errorf("expected admin role, got %q", admin.Role)
	}
	if admin.PasswordHash == models.DefaultAdminPassword {
		t.Error("password must be stored hashed")
	}

	if _, err := svc.Authenticate(models.DefaultAdminUsername, models.DefaultAdminPassword); err != nil {
		t.Errorf("default credentials rejected: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Authenticate("admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Authenticate("nobody", "admin123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	// Username comparison ignores case.
	if _, err := svc.Authenticate("ADMIN", "admin123"); err != nil {
		t.Errorf("case-insensitive login failed: %v", err)
	}
}

func TestCreateAndUpdate(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Create("editor", "secret", "bogus role")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.ID != 2 {
		t.Errorf("expected id 2, got %d", user.ID)
	}
	if user.Role != models.RoleEditor {
		t.Errorf("unknown role should fall back to editor, got %q", user.Role)
	}

	if _, err := svc.Create("EDITOR", "x", models.RoleAdmin); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := svc.Create("", "x", models.RoleAdmin); !errors.Is(err, ErrUsernameRequired) {
		t.Errorf("expected ErrUsernameRequired, got %v", err)
	}
	if _, err := svc.Create("new", "", models.RoleAdmin); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("expected ErrPasswordRequired, got %v", err)
	}

	updated, err := svc.Update(user.ID, "chief", "newpass", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Username != "chief" || updated.Role != models.RoleAdmin {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if _, err := svc.Authenticate("chief", "newpass"); err != nil {
		t.Errorf("updated credentials rejected: %v", err)
	}
	if _, err := svc.Authenticate("chief", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password should be rejected, got %v", err)
	}
}

func TestPrimaryAdminProtected(t *testing.T) {
	svc := newTestService(t)

	if err := svc.Delete(1); !errors.Is(err, ErrProtectedUser) {
		t.Fatalf("expected ErrProtectedUser, got %v", err)
	}

	// Demoting the primary admin is silently refused.
	updated, err := svc.Update(1, "", "", models.RoleEditor)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Role != models.RoleAdmin {
		t.Errorf("primary admin role must stay admin, got %q", updated.Role)
	}
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Create("temp", "pw", models.RoleEditor)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Delete(user.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := svc.Delete(user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	list, err := svc.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected only the seeded admin, got %d users", len(list))
	}
}

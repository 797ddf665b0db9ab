package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"embertv/config"
	"embertv/internal/jsonstore"
	"embertv/models"
	"embertv/services/channels"
	"embertv/services/sessions"
	"embertv/services/users"
	"embertv/services/viewers"
)

type dataFixture struct {
	handler  *ChannelsHandler
	manager  *config.Manager
	viewers  *viewers.Service
	sessions *sessions.Service
}

func newDataFixture(t *testing.T) *dataFixture {
	t.Helper()
	store := jsonstore.New(afero.NewMemMapFs())
	manager := config.NewManager(filepath.Join(t.TempDir(), "settings.json"))

	channelsSvc := channels.NewService(store, "data")
	viewersSvc := viewers.NewService(store, "data")
	sessionsSvc := sessions.NewService(store, "data", manager)
	usersSvc, err := users.NewService(store, "data")
	if err != nil {
		t.Fatalf("users.NewService failed: %v", err)
	}

	for i := 1; i <= 5; i++ {
		if _, err := channelsSvc.SaveChannel(models.CuratedChannel{Name: fmt.Sprintf("Ch %d", i)}); err != nil {
			t.Fatalf("SaveChannel failed: %v", err)
		}
	}

	return &dataFixture{
		handler:  NewChannelsHandler(channelsSvc, sessionsSvc, viewersSvc, usersSvc, manager),
		manager:  manager,
		viewers:  viewersSvc,
		sessions: sessionsSvc,
	}
}

func (f *dataFixture) get(token string) dataResponse {
	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.Data(rec, req)

	var resp dataResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	return resp
}

type dataResponse struct {
	Channels        []models.CuratedChannel `json:"channels"`
	RequireSub      bool                    `json:"require_subscription"`
	HasSubscription bool                    `json:"has_subscription"`
}

func requireSubscription(t *testing.T, manager *config.Manager) {
	t.Helper()
	settings, err := manager.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	settings.Site.RequireSubscription = true
	if err := manager.Save(settings); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
}

func TestDataServesFullGridByDefault(t *testing.T) {
	f := newDataFixture(t)

	resp := f.get("")
	if len(resp.Channels) != 5 {
		t.Errorf("expected all 5 channels, got %d", len(resp.Channels))
	}
	if resp.RequireSub {
		t.Error("subscriptions are off by default")
	}
}

func TestDataTruncatesWithoutSubscription(t *testing.T) {
	f := newDataFixture(t)
	requireSubscription(t, f.manager)

	resp := f.get("")
	if len(resp.Channels) != freeChannelLimit {
		t.Errorf("expected teaser of %d channels, got %d", freeChannelLimit, len(resp.Channels))
	}
}

func TestDataFullGridWithActiveSubscription(t *testing.T) {
	f := newDataFixture(t)
	requireSubscription(t, f.manager)

	viewer, err := f.viewers.Register("alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := f.viewers.Subscribe(viewer.ID, models.Plan{ID: 1, Name: "Monthly", Days: 30}, ""); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	token, err := f.sessions.CreateViewer(viewer)
	if err != nil {
		t.Fatalf("CreateViewer failed: %v", err)
	}

	resp := f.get(token)
	if !resp.HasSubscription {
		t.Error("expected has_subscription true")
	}
	if len(resp.Channels) != 5 {
		t.Errorf("subscriber should see all channels, got %d", len(resp.Channels))
	}
}

func TestDataFullGridForAdmins(t *testing.T) {
	f := newDataFixture(t)
	requireSubscription(t, f.manager)

	token, err := f.sessions.CreateAdmin(models.User{ID: 1, Username: "admin", Role: models.RoleAdmin}, "")
	if err != nil {
		t.Fatalf("CreateAdmin failed: %v", err)
	}

	resp := f.get(token)
	if len(resp.Channels) != 5 {
		t.Errorf("admin should see all channels, got %d", len(resp.Channels))
	}
}

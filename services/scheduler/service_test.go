package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"embertv/config"
	"embertv/models"
)

type fakePlaylists struct {
	mu        sync.Mutex
	lists     []models.PlaylistSummary
	listErr   error
	refreshed []int
	errFor    map[int]error
	panicFor  map[int]bool
}

func (f *fakePlaylists) List() ([]models.PlaylistSummary, error) {
	return f.lists, f.listErr
}

func (f *fakePlaylists) Refresh(ctx context.Context, id int) (int, error) {
	f.mu.Lock()
	f.refreshed = append(f.refreshed, id)
	f.mu.Unlock()
	if f.panicFor[id] {
		panic("refresh blew up")
	}
	if err := f.errFor[id]; err != nil {
		return 0, err
	}
	return 1, nil
}

func newTestScheduler(t *testing.T, playlists Playlists) (*Service, *config.Manager) {
	t.Helper()
	manager := config.NewManager(filepath.Join(t.TempDir(), "settings.json"))
	svc := NewService(manager, playlists)
	svc.now = func() time.Time {
		return time.Date(2025, 3, 14, 12, 0, 0, 0, time.Local)
	}
	return svc, manager
}

func stamp(svc *Service, age time.Duration) string {
	return svc.now().Add(-age).Format(models.TimeLayout)
}

func TestRunCycleRefreshesOnlyStaleLists(t *testing.T) {
	playlists := &fakePlaylists{}
	svc, _ := newTestScheduler(t, playlists)

	playlists.lists = []models.PlaylistSummary{
		{ID: 1, Name: "Stale", Created: stamp(svc, 10*time.Hour)},
		{ID: 2, Name: "Fresh", Created: stamp(svc, 10*time.Hour), Updated: stamp(svc, time.Hour)},
		{ID: 3, Name: "Exactly due", Created: stamp(svc, 6*time.Hour)},
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle failed: %v", err)
	}
	if len(playlists.refreshed) != 2 || playlists.refreshed[0] != 1 || playlists.refreshed[1] != 3 {
		t.Errorf("expected ids [1 3] refreshed, got %v", playlists.refreshed)
	}
}

func TestRunCycleTreatsUnreadableStampAsDue(t *testing.T) {
	playlists := &fakePlaylists{}
	svc, _ := newTestScheduler(t, playlists)

	playlists.lists = []models.PlaylistSummary{
		{ID: 1, Name: "Broken", Created: "not a date"},
		{ID: 2, Name: "Blank"},
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle failed: %v", err)
	}
	if len(playlists.refreshed) != 2 {
		t.Errorf("expected both refreshed, got %v", playlists.refreshed)
	}
}

func TestRunCycleHonorsAutoRefreshOff(t *testing.T) {
	playlists := &fakePlaylists{}
	svc, manager := newTestScheduler(t, playlists)

	settings := config.DefaultSettings()
	settings.M3U.AutoRefresh = false
	if err := manager.Save(settings); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	playlists.lists = []models.PlaylistSummary{
		{ID: 1, Name: "Stale", Created: stamp(svc, 48*time.Hour)},
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle failed: %v", err)
	}
	if len(playlists.refreshed) != 0 {
		t.Errorf("auto refresh disabled, expected no refreshes, got %v", playlists.refreshed)
	}
}

func TestRunCycleReportsRefreshError(t *testing.T) {
	playlists := &fakePlaylists{
		errFor: map[int]error{1: errors.New("upstream down")},
	}
	svc, _ := newTestScheduler(t, playlists)

	playlists.lists = []models.PlaylistSummary{
		{ID: 1, Name: "Broken upstream", Created: stamp(svc, 10*time.Hour)},
		{ID: 2, Name: "Healthy", Created: stamp(svc, 10*time.Hour)},
	}

	err := svc.runCycle(context.Background())
	if err == nil {
		t.Fatal("expected cycle error")
	}
	// The failure must not stop the rest of the cycle.
	if len(playlists.refreshed) != 2 {
		t.Errorf("expected both attempted, got %v", playlists.refreshed)
	}
}

func TestRunCycleSurvivesPanic(t *testing.T) {
	playlists := &fakePlaylists{
		panicFor: map[int]bool{1: true},
	}
	svc, _ := newTestScheduler(t, playlists)

	playlists.lists = []models.PlaylistSummary{
		{ID: 1, Name: "Panics", Created: stamp(svc, 10*time.Hour)},
		{ID: 2, Name: "Healthy", Created: stamp(svc, 10*time.Hour)},
	}

	err := svc.runCycle(context.Background())
	if err == nil {
		t.Fatal("expected cycle error after panic")
	}
	if len(playlists.refreshed) != 2 {
		t.Errorf("panic must not stop the cycle, got %v", playlists.refreshed)
	}
}

func TestStartStop(t *testing.T) {
	playlists := &fakePlaylists{}
	svc, _ := newTestScheduler(t, playlists)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// Starting twice is a no-op.
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}

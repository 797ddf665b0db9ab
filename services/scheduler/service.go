package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sourcegraph/conc/panics"

	"embertv/config"
	"embertv/models"
)

const (
	cycleInterval = time.Hour
	retryInterval = 5 * time.Minute
)

// Playlists is the slice of the playlist store the scheduler needs.
type Playlists interface {
	List() ([]models.PlaylistSummary, error)
	Refresh(ctx context.Context, id int) (int, error)
}

// Service refreshes stale playlists in the background. Cycles normally
// run hourly; after a cycle that hit an error the next one runs sooner.
type Service struct {
	configManager *config.Manager
	playlists     Playlists

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	now func() time.Time
}

// NewService creates a new refresh scheduler.
func NewService(configManager *config.Manager, playlists Playlists) *Service {
	return &Service{
		configManager: configManager,
		playlists:     playlists,
		now:           time.Now,
	}
}

// Start begins the scheduler background loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.loop()

	log.Println("[scheduler] Refresh scheduler started")
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[scheduler] Refresh scheduler stopped gracefully")
	case <-ctx.Done():
		log.Println("[scheduler] Refresh scheduler stopped (timeout)")
	}

	s.running = false
	return nil
}

func (s *Service) loop() {
	defer s.wg.Done()

	timer := time.NewTimer(cycleInterval)
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}

		if err := s.runCycle(s.ctx); err != nil {
			log.Printf("[scheduler] Cycle finished with errors: %v", err)
			timer.Reset(retryInterval)
		} else {
			timer.Reset(cycleInterval)
		}
	}
}

// runCycle refreshes every playlist whose last successful load is older
// than the configured refresh interval. Settings are re-read each cycle
// so toggling auto refresh takes effect without a restart.
func (s *Service) runCycle(ctx context.Context) error {
	settings, err := s.configManager.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !settings.M3U.AutoRefresh {
		return nil
	}

	hours := settings.M3U.RefreshHours
	if hours <= 0 {
		hours = config.DefaultRefreshHours
	}
	maxAge := time.Duration(hours) * time.Hour

	lists, err := s.playlists.List()
	if err != nil {
		return fmt.Errorf("list playlists: %w", err)
	}

	var firstErr error
	for _, list := range lists {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !s.stale(list, maxAge) {
			continue
		}

		var refreshErr error
		recovered := panics.Try(func() {
			_, refreshErr = s.playlists.Refresh(ctx, list.ID)
		})
		switch {
		case recovered != nil:
			log.Printf("[scheduler] Panic refreshing %q (id %d): %v", list.Name, list.ID, recovered.Value)
			if firstErr == nil {
				firstErr = fmt.Errorf("refresh %d: %v", list.ID, recovered.Value)
			}
		case refreshErr != nil:
			log.Printf("[scheduler] Failed to refresh %q (id %d): %v", list.Name, list.ID, refreshErr)
			if firstErr == nil {
				firstErr = refreshErr
			}
		}
	}
	return firstErr
}

// stale reports whether a playlist is due for a refresh. Age is counted
// from the last refresh, falling back to the import time. Records with
// an unreadable stamp are treated as due.
func (s *Service) stale(list models.PlaylistSummary, maxAge time.Duration) bool {
	stamp := list.Updated
	if stamp == "" {
		stamp = list.Created
	}
	if stamp == "" {
		return true
	}
	at, err := time.ParseInLocation(models.TimeLayout, stamp, time.Local)
	if err != nil {
		return true
	}
	return s.now().Sub(at) >= maxAge
}

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lanternauth/lantern/internal/auth/store"
)

// HousekeepingService periodically deletes expired magic-link tokens,
// expired authorization codes, and token rows past the audit retention
// window.
type HousekeepingService struct {
	Store          store.Store
	Logger         *slog.Logger
	Interval       time.Duration
	TokenRetention time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping worker. A non-positive
// interval defaults to 1 hour; a non-positive retention defaults to 30
// days, which keeps revoked token rows around long enough to audit.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval, retention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	return &HousekeepingService{
		Store:          st,
		Logger:         logger,
		Interval:       interval,
		TokenRetention: retention,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut
// it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started",
		"interval", s.Interval,
		"token_retention", s.TokenRetention,
	)
}

// Stop shuts the worker down, blocking until any in-progress cleanup
// finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup performs the deletions. Each is independent; a failure in one
// does not stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	s.Logger.Debug("starting housekeeping cleanup")

	if err := s.Store.MagicLinkTokens().DeleteExpiredMagicLinkTokens(ctx); err != nil {
		s.Logger.Error("failed to delete expired magic link tokens", "error", err)
	}

	if err := s.Store.AuthorizationCodes().DeleteExpiredAuthorizationCodes(ctx); err != nil {
		s.Logger.Error("failed to delete expired authorization codes", "error", err)
	}

	cutoff := time.Now().Add(-s.TokenRetention)
	if err := s.Store.Tokens().DeleteTokensExpiredBefore(ctx, cutoff); err != nil {
		s.Logger.Error("failed to delete expired tokens", "error", err)
	}

	s.Logger.Debug("housekeeping cleanup completed")
}

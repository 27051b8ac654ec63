package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gatehouse/gatehouse/config"
	"github.com/gatehouse/gatehouse/internal/ports"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Sessions ports.SessionStore  // Required: session store to sweep
	Config   config.ReaperConfig // Required: reaper configuration
	Logger   *slog.Logger        // Optional: structured logger
}

// ReaperService periodically purges expired session rows. This is storage
// hygiene only: FindValid already filters expired rows, so correctness never
// depends on the sweep running.
type ReaperService struct {
	sessions ports.SessionStore
	config   config.ReaperConfig
	logger   *slog.Logger
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Sessions == nil {
		return nil, errors.New("SessionStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ReaperService{
		sessions: opts.Sessions,
		config:   opts.Config,
		logger:   logger.With("component", "session_reaper"),
	}, nil
}

// Run starts the purge loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context cancellation), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting session reaper", "interval", s.config.Interval)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// First sweep immediately so restarts don't defer cleanup a full interval.
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "session reaper stopped")
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one purge pass. Failures are logged and the loop continues; a
// transient storage outage must not kill the reaper.
func (s *ReaperService) sweep(ctx context.Context) {
	purged, err := s.sessions.PurgeExpired(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.ErrorContext(ctx, "purge expired sessions failed", "error", err)
		}
		return
	}
	if purged > 0 {
		s.logger.InfoContext(ctx, "purged expired sessions", "count", purged)
	}
}

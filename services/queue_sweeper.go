package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// QueueSweeper periodically expires stale queue entries so abandoned sessions
// never linger as phantom opponents.
type QueueSweeper struct {
	matchmaking *MatchmakingService
	scheduler   gocron.Scheduler
	interval    time.Duration
	ttl         time.Duration
	logger      *slog.Logger
}

func NewQueueSweeper(matchmaking *MatchmakingService, interval, ttl time.Duration, logger *slog.Logger) (*QueueSweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &QueueSweeper{
		matchmaking: matchmaking,
		scheduler:   scheduler,
		interval:    interval,
		ttl:         ttl,
		logger:      logger,
	}, nil
}

func (s *QueueSweeper) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			defer cancel()
			if err := s.matchmaking.ExpireStaleEntries(ctx, s.ttl); err != nil {
				s.logger.Error("queue sweep failed", "error", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule queue sweep: %w", err)
	}
	s.scheduler.Start()
	s.logger.Info("queue sweeper started", "interval", s.interval, "ttl", s.ttl)
	return nil
}

func (s *QueueSweeper) Stop() error {
	return s.scheduler.Shutdown()
}

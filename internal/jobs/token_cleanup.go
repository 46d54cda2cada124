// Package jobs runs the periodic maintenance tasks of the API server
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// runTimeout bounds a single job run
const runTimeout = time.Minute

// ExpiredTokenDeleter removes refresh tokens created at or before a point in time
type ExpiredTokenDeleter interface {
	DeleteExpiredTokens(ctx context.Context, expiryTime time.Time) (int, error)
}

// TokenCleaner deletes refresh tokens older than the refresh token lifetime
type TokenCleaner struct {
	repo               ExpiredTokenDeleter
	refreshTokenExpiry time.Duration
	logger             *zap.Logger
	now                func() time.Time
}

// NewTokenCleaner creates a new token cleaner
func NewTokenCleaner(repo ExpiredTokenDeleter, refreshTokenExpiry time.Duration, logger *zap.Logger) *TokenCleaner {
	return &TokenCleaner{
		repo:               repo,
		refreshTokenExpiry: refreshTokenExpiry,
		logger:             logger,
		now:                time.Now,
	}
}

// Run deletes expired tokens once and returns how many were removed
func (c *TokenCleaner) Run(ctx context.Context) (int, error) {
	expiryTime := c.now().Add(-c.refreshTokenExpiry)

	deleted, err := c.repo.DeleteExpiredTokens(ctx, expiryTime)
	if err != nil {
		c.logger.Error("failed to delete expired tokens", zap.Error(err))
		return 0, err
	}

	// 0 deleted rows is not an error
	c.logger.Info("token cleaning completed", zap.Int("deleted_count", deleted))
	return deleted, nil
}

// Scheduler runs jobs on cron schedules
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler creates a scheduler using standard five-field cron expressions
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger{logger}))),
		logger: logger,
	}
}

// AddTokenCleanup schedules the token cleaner
func (s *Scheduler) AddTokenCleanup(schedule string, cleaner *TokenCleaner) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		_, _ = cleaner.Run(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid token cleanup schedule %q: %w", schedule, err)
	}
	s.logger.Info("token cleanup scheduled", zap.String("schedule", schedule))
	return nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling new runs and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stopped before running jobs finished")
	}
}

// cronLogger adapts zap to the cron.Logger interface
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

/**
 * @description
 * Cron scheduler for the service's background jobs. Currently the only job
 * refreshes the JWKS key cache used for bearer token verification.
 */
package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// KeyRefresher is satisfied by middleware.JWKSCache.
type KeyRefresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron     *cron.Cron
	keys     KeyRefresher
	schedule string
	logger   logrus.FieldLogger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(keys KeyRefresher, schedule string, logger logrus.FieldLogger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cronLogger := cron.PrintfLogger(logger)
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:     c,
		keys:     keys,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.RefreshKeys); err != nil {
		s.logger.WithError(err).Error("failed to schedule jwks refresh job")
		return err
	}
	s.logger.WithField("schedule", s.schedule).Info("scheduled jwks refresh job")

	s.cron.Start()
	return nil
}

// RefreshKeys reloads the JWKS key set. Failures keep the previous keys.
func (s *Scheduler) RefreshKeys() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.keys.Refresh(ctx); err != nil {
		s.logger.WithError(err).Warn("jwks refresh failed")
	}
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

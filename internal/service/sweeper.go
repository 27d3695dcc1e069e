package service

import (
	"time"

	"go.uber.org/zap"
)

// IdleCloser closes sessions that saw no activity for a while
type IdleCloser interface {
	CloseIdle(maxIdle time.Duration) int
}

// SweepService ends idle chat sessions
type SweepService struct {
	sessions IdleCloser
	maxIdle  time.Duration
	logger   *zap.Logger
}

// NewSweepService creates a new sweep service
func NewSweepService(sessions IdleCloser, maxIdle time.Duration, logger *zap.Logger) *SweepService {
	return &SweepService{
		sessions: sessions,
		maxIdle:  maxIdle,
		logger:   logger,
	}
}

// SweepIdleSessions closes sessions idle longer than the configured timeout
func (s *SweepService) SweepIdleSessions() int {
	closed := s.sessions.CloseIdle(s.maxIdle)
	if closed > 0 {
		s.logger.Info("Closed idle sessions",
			zap.Int("closed", closed),
			zap.Duration("max_idle", s.maxIdle),
		)
	}
	return closed
}

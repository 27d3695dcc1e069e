package service

import (
	"testing"
	"time"

	"linguo/internal/testutil"

	"github.com/stretchr/testify/assert"
)

type fakeIdleCloser struct {
	closed  int
	maxIdle time.Duration
}

func (f *fakeIdleCloser) CloseIdle(maxIdle time.Duration) int {
	f.maxIdle = maxIdle
	return f.closed
}

func TestSweepService_SweepIdleSessions(t *testing.T) {
	tests := []struct {
		name     string
		closed   int
		expected int
	}{
		{name: "nothing idle", closed: 0, expected: 0},
		{name: "idle sessions closed", closed: 3, expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &fakeIdleCloser{closed: tt.closed}
			service := NewSweepService(sessions, 30*time.Minute, testutil.NewTestLogger())

			result := service.SweepIdleSessions()

			assert.Equal(t, tt.expected, result)
			assert.Equal(t, 30*time.Minute, sessions.maxIdle)
		})
	}
}

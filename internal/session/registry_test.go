package session

import (
	"context"
	"testing"
	"time"

	"linguo/internal/service"
	"linguo/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(clock *testutil.FixedClock) (*Registry, *testutil.MemoryHistory) {
	history := testutil.NewMemoryHistory(testStart)
	quota := new(testutil.MockQuotaStore)
	quota.On("Load", mock.Anything, mock.Anything).Return(0, nil)

	factory := func() *Controller {
		return New(Deps{
			Translator: new(testutil.MockTranslator),
			History:    history,
			Feed:       history,
			Quota:      service.NewQuotaService(quota, 10),
			Clock:      clock,
		})
	}
	return NewRegistry(factory, clock), history
}

func TestRegistry_GetCreatesOnce(t *testing.T) {
	r, _ := newTestRegistry(&testutil.FixedClock{T: testStart})
	defer r.CloseAll()

	first, created := r.Get(100)
	assert.True(t, created)

	again, created := r.Get(100)
	assert.False(t, created)
	assert.Same(t, first, again)

	other, created := r.Get(200)
	assert.True(t, created)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_CloseIdle(t *testing.T) {
	clock := &testutil.FixedClock{T: testStart}
	r, history := newTestRegistry(clock)
	defer r.CloseAll()

	stale, _ := r.Get(100)
	require.NoError(t, stale.SetIdentity(context.Background(), *testutil.NewTestIdentity("uuid-1", "100")))

	clock.Advance(20 * time.Minute)
	fresh, _ := r.Get(200)
	fresh.SetInput("Hola")
	clock.Advance(15 * time.Minute)

	closed := r.CloseIdle(30 * time.Minute)

	assert.Equal(t, 1, closed)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 0, history.OpenSubscriptions())

	again, created := r.Get(100)
	assert.True(t, created)
	assert.NotSame(t, stale, again)
}

func TestRegistry_CloseIdleKeepsBusySessions(t *testing.T) {
	clock := &testutil.FixedClock{T: testStart}
	r, _ := newTestRegistry(clock)
	defer r.CloseAll()

	c, _ := r.Get(100)
	c.mu.Lock()
	c.state.IsLoading = true
	c.mu.Unlock()
	clock.Advance(time.Hour)

	assert.Equal(t, 0, r.CloseIdle(30*time.Minute))
	assert.Equal(t, 1, r.Len())

	c.mu.Lock()
	c.state.IsLoading = false
	c.mu.Unlock()
}

func TestRegistry_CloseAll(t *testing.T) {
	r, history := newTestRegistry(&testutil.FixedClock{T: testStart})

	for i, id := range []string{"uuid-1", "uuid-2"} {
		c, _ := r.Get(int64(i))
		require.NoError(t, c.SetIdentity(context.Background(), *testutil.NewTestIdentity(id, id)))
	}
	require.Equal(t, 2, history.OpenSubscriptions())

	r.CloseAll()

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, history.OpenSubscriptions())
}

func TestSweepService_WithRegistry(t *testing.T) {
	clock := &testutil.FixedClock{T: testStart}
	r, _ := newTestRegistry(clock)
	defer r.CloseAll()

	r.Get(1)
	r.Get(2)
	clock.Advance(time.Hour)

	sweeper := service.NewSweepService(r, 30*time.Minute, testutil.NewTestLogger())

	assert.Equal(t, 2, sweeper.SweepIdleSessions())
	assert.Equal(t, 0, r.Len())
}

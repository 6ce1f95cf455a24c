package events

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatorBeginPublishesLifecycle(t *testing.T) {
	c := NewCoordinator()

	var got []Event
	c.Subscribe(func(e Event) { got = append(got, e) })

	end := c.Begin("hello-world")
	assert.Equal(t, 1, c.Inflight())

	boom := errors.New("boom")
	end(OutcomeFault, boom)
	end(OutcomeSuccess, nil)

	require.Len(t, got, 2)
	assert.Equal(t, RenderStarted, got[0].Kind)
	assert.Equal(t, 1, got[0].Inflight)
	assert.Equal(t, RenderFinished, got[1].Kind)
	assert.Equal(t, OutcomeFault, got[1].Outcome)
	assert.ErrorIs(t, got[1].Err, boom)
	assert.Equal(t, 0, got[1].Inflight)
	assert.Equal(t, 0, c.Inflight())
}

func TestCoordinatorUnsubscribe(t *testing.T) {
	c := NewCoordinator()

	calls := 0
	unsubscribe := c.Subscribe(func(Event) { calls++ })
	c.Publish(Event{Kind: ListFinished})
	unsubscribe()
	c.Publish(Event{Kind: ListFinished})

	assert.Equal(t, 1, calls)
}

func TestNilCoordinatorIsInert(t *testing.T) {
	var c *Coordinator

	assert.NotPanics(t, func() {
		c.Subscribe(func(Event) {})()
		c.Publish(Event{Kind: ListFinished})
		c.Begin("x")(OutcomeSuccess, nil)
	})
	assert.Equal(t, 0, c.Inflight())
}

func TestCoordinatorConcurrentRenders(t *testing.T) {
	c := NewCoordinator()

	var mu sync.Mutex
	finished := 0
	c.Subscribe(func(e Event) {
		if e.Kind == RenderFinished {
			mu.Lock()
			finished++
			mu.Unlock()
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Begin("slug")(OutcomeSuccess, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, finished)
	assert.Equal(t, 0, c.Inflight())
}

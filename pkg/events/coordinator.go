// Package events carries in-process notifications about content work
// (renders starting and finishing, listings skipping documents) from the
// components doing the work to whoever subscribed, such as metrics and logs.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

type Kind string

const (
	RenderStarted   Kind = "render.started"
	RenderFinished  Kind = "render.finished"
	ListFinished    Kind = "list.finished"
	DocumentSkipped Kind = "list.skipped"
)

type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFault    Outcome = "fault"
)

type Event struct {
	Kind     Kind
	Slug     string
	Outcome  Outcome
	Duration time.Duration
	Err      error
	// Inflight is the number of renders in progress once this event is applied.
	Inflight int
}

// Coordinator fans events out to subscribers and tracks in-flight work.
// A nil *Coordinator is valid and drops everything.
type Coordinator struct {
	mu     sync.RWMutex
	subs   map[uint64]func(Event)
	nextID uint64

	inflight atomic.Int64
}

func NewCoordinator() *Coordinator {
	return &Coordinator{subs: map[uint64]func(Event){}}
}

// Subscribe registers fn and returns a function that removes it.
// Subscribers are called synchronously and must not block.
func (c *Coordinator) Subscribe(fn func(Event)) (unsubscribe func()) {
	if c == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Coordinator) Publish(e Event) {
	if c == nil {
		return
	}
	c.mu.RLock()
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}

// Begin marks a render of slug as started and returns the function that ends it.
func (c *Coordinator) Begin(slug string) (end func(Outcome, error)) {
	if c == nil {
		return func(Outcome, error) {}
	}
	start := time.Now()
	n := c.inflight.Add(1)
	c.Publish(Event{Kind: RenderStarted, Slug: slug, Inflight: int(n)})

	var once sync.Once
	return func(outcome Outcome, err error) {
		once.Do(func() {
			n := c.inflight.Add(-1)
			c.Publish(Event{
				Kind:     RenderFinished,
				Slug:     slug,
				Outcome:  outcome,
				Duration: time.Since(start),
				Err:      err,
				Inflight: int(n),
			})
		})
	}
}

func (c *Coordinator) Inflight() int {
	if c == nil {
		return 0
	}
	return int(c.inflight.Load())
}

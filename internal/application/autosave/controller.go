// Package autosave debounces draft persistence and exposes the save status
// shown next to the travel request form.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/garyjia/travel-expense-portal/internal/application/port"
	domainsave "github.com/garyjia/travel-expense-portal/internal/domain/autosave"
)

const writeTimeout = 5 * time.Second

// Config holds the controller delays
type Config struct {
	Debounce time.Duration
	Settle   time.Duration
	Display  time.Duration
}

// DefaultConfig returns the portal's standard delays
func DefaultConfig() Config {
	return Config{
		Debounce: 2 * time.Second,
		Settle:   500 * time.Millisecond,
		Display:  2 * time.Second,
	}
}

// Transition is one observed status change
type Transition struct {
	From domainsave.Status
	To   domainsave.Status
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller logger
func WithLogger(logger port.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a callback for status changes. Callbacks run after the
// controller lock is released and may call Status.
func WithObserver(fn func(Transition)) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, fn)
	}
}

// WithWriteHook registers a callback invoked with the result of every store write
func WithWriteHook(fn func(err error)) Option {
	return func(c *Controller) {
		c.writeHooks = append(c.writeHooks, fn)
	}
}

// Controller owns the save status of one draft. It never reads the draft
// itself; callers hand it the serialized record on every change.
type Controller struct {
	store      port.KVStore
	key        string
	clock      port.Clock
	cfg        Config
	logger     port.Logger
	observers  []func(Transition)
	writeHooks []func(error)

	// ioMu serialises store access so a discard cannot be overtaken by a write
	ioMu sync.Mutex

	mu          sync.Mutex
	machine     domainsave.Machine
	gen         uint64
	savedGen    uint64
	revertToken uint64
	epoch       uint64
	pending     []byte
	dirty       bool
	flushNext   bool
	debounce    port.Timer
	settle      port.Timer
	display     port.Timer
	queued      []Transition
}

// NewController creates a controller persisting under key
func NewController(store port.KVStore, key string, clock port.Clock, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		key:    key,
		clock:  clock,
		cfg:    cfg,
		logger: port.NopLogger{},
	}
	// Saved may only revert if nothing happened since it was entered
	c.machine = domainsave.NewMachine(func() bool {
		return c.revertToken == c.savedGen && c.gen == c.savedGen
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns the current save status
func (c *Controller) Status() domainsave.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Status()
}

// Changed records a mutation of the draft. payload is the full serialized record.
func (c *Controller) Changed(payload []byte) {
	c.mu.Lock()
	c.gen++
	c.pending = payload

	if c.machine.Status() == domainsave.StatusSaving {
		c.dirty = true
		c.fireLocked(domainsave.TriggerMutate)
		c.unlockAndNotify()
		return
	}

	stop(&c.display)
	c.fireLocked(domainsave.TriggerMutate)
	c.armDebounceLocked()
	c.unlockAndNotify()
}

// SaveNow writes payload without waiting for the debounce delay. During an
// in-flight write the request is held and flushed as soon as that write settles.
func (c *Controller) SaveNow(payload []byte) {
	c.mu.Lock()
	c.gen++
	c.pending = payload

	if c.machine.Status() == domainsave.StatusSaving {
		c.dirty = true
		c.flushNext = true
		c.unlockAndNotify()
		return
	}

	stop(&c.debounce)
	stop(&c.display)
	c.flushLocked()
}

// Discard cancels any pending save, resets the status to Idle and deletes the
// persisted draft.
func (c *Controller) Discard(ctx context.Context) error {
	c.mu.Lock()
	c.epoch++
	c.gen++
	c.pending = nil
	c.dirty = false
	c.flushNext = false
	stop(&c.debounce)
	stop(&c.settle)
	stop(&c.display)
	c.fireLocked(domainsave.TriggerDiscard)
	c.unlockAndNotify()

	c.ioMu.Lock()
	defer c.ioMu.Unlock()
	return c.store.Delete(ctx, c.key)
}

// Stop cancels all pending timers without touching the store
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	stop(&c.debounce)
	stop(&c.settle)
	stop(&c.display)
}

func (c *Controller) armDebounceLocked() {
	stop(&c.debounce)
	token := c.gen
	c.debounce = c.clock.AfterFunc(c.cfg.Debounce, func() { c.onDebounce(token) })
}

func (c *Controller) onDebounce(token uint64) {
	c.mu.Lock()
	if token != c.gen || c.machine.Status() != domainsave.StatusUnsaved {
		c.mu.Unlock()
		return
	}
	c.debounce = nil
	c.flushLocked()
}

// flushLocked moves to Saving and writes the pending payload. Entered with mu
// held; returns with mu released.
func (c *Controller) flushLocked() {
	c.fireLocked(domainsave.TriggerFlush)
	payload := c.pending
	c.pending = nil
	c.dirty = false
	c.flushNext = false
	epoch := c.epoch
	c.unlockAndNotify()

	err := c.write(epoch, payload)
	for _, hook := range c.writeHooks {
		hook(err)
	}

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.logger.Error("Draft write failed", "key", c.key, "error", err)
		if c.pending == nil {
			c.pending = payload
		}
		c.dirty = false
		c.flushNext = false
		c.fireLocked(domainsave.TriggerFail)
		c.unlockAndNotify()
		return
	}
	c.settle = c.clock.AfterFunc(c.cfg.Settle, func() { c.onSettle(epoch) })
	c.mu.Unlock()
}

func (c *Controller) write(epoch uint64, payload []byte) error {
	c.ioMu.Lock()
	defer c.ioMu.Unlock()

	c.mu.Lock()
	stale := epoch != c.epoch
	c.mu.Unlock()
	if stale {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return c.store.Save(ctx, c.key, payload)
}

func (c *Controller) onSettle(epoch uint64) {
	c.mu.Lock()
	if epoch != c.epoch || c.machine.Status() != domainsave.StatusSaving {
		c.mu.Unlock()
		return
	}
	c.settle = nil

	switch {
	case c.flushNext:
		c.flushLocked()
		return
	case c.dirty:
		c.dirty = false
		c.fireLocked(domainsave.TriggerSupersede)
		c.armDebounceLocked()
	default:
		c.fireLocked(domainsave.TriggerSettle)
		c.savedGen = c.gen
		token := c.gen
		c.display = c.clock.AfterFunc(c.cfg.Display, func() { c.onDisplayElapsed(token) })
	}
	c.unlockAndNotify()
}

func (c *Controller) onDisplayElapsed(token uint64) {
	c.mu.Lock()
	c.revertToken = token
	c.fireLocked(domainsave.TriggerRevert)
	c.unlockAndNotify()
}

func (c *Controller) fireLocked(trigger domainsave.Trigger) {
	from := c.machine.Status()
	to, err := c.machine.Fire(trigger)
	if err != nil {
		// stale timers land here once the status has moved on
		return
	}
	if from != to {
		c.queued = append(c.queued, Transition{From: from, To: to})
	}
}

func (c *Controller) unlockAndNotify() {
	queued := c.queued
	c.queued = nil
	c.mu.Unlock()

	for _, t := range queued {
		for _, fn := range c.observers {
			fn(t)
		}
	}
}

func stop(t *port.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

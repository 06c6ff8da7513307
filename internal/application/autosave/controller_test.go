package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domainsave "github.com/garyjia/travel-expense-portal/internal/domain/autosave"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const draftKey = "travelRequestDraft"

type fakeStore struct {
	mu      sync.Mutex
	writes  [][]byte
	deletes int
	err     error
	onSave  func()
}

func (f *fakeStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes) == 0 {
		return nil, false, nil
	}
	return f.writes[len(f.writes)-1], true, nil
}

func (f *fakeStore) Save(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	hook := f.onSave
	f.onSave = nil
	err := f.err
	if err == nil {
		f.writes = append(f.writes, value)
	}
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	return nil
}

func (f *fakeStore) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	for i, w := range f.writes {
		out[i] = string(w)
	}
	return out
}

type recorder struct {
	mu  sync.Mutex
	seq []domainsave.Status
}

func (r *recorder) observe(t Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq = append(r.seq, t.To)
}

func (r *recorder) Seq() []domainsave.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domainsave.Status(nil), r.seq...)
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *fakeStore, *clock.Manual, *recorder) {
	t.Helper()
	store := &fakeStore{}
	clk := clock.NewManual(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	rec := &recorder{}
	opts = append(opts, WithObserver(rec.observe))
	return NewController(store, draftKey, clk, DefaultConfig(), opts...), store, clk, rec
}

func TestController_BurstCollapsesToOneWrite(t *testing.T) {
	c, store, clk, _ := newTestController(t)

	for _, p := range []string{"b", "be", "ber", "berl", "berlin"} {
		c.Changed([]byte(p))
		clk.Advance(1500 * time.Millisecond)
	}
	assert.Empty(t, store.Writes())

	clk.Advance(500 * time.Millisecond)

	assert.Equal(t, []string{"berlin"}, store.Writes())
	assert.Equal(t, domainsave.StatusSaving, c.Status())
}

func TestController_StatusSequence(t *testing.T) {
	c, store, clk, rec := newTestController(t)

	c.Changed([]byte("draft"))
	assert.Equal(t, domainsave.StatusUnsaved, c.Status())

	clk.Advance(2 * time.Second)
	assert.Equal(t, domainsave.StatusSaving, c.Status())
	require.Len(t, store.Writes(), 1)

	clk.Advance(500 * time.Millisecond)
	assert.Equal(t, domainsave.StatusSaved, c.Status())

	clk.Advance(2 * time.Second)
	assert.Equal(t, domainsave.StatusIdle, c.Status())

	assert.Equal(t, []domainsave.Status{
		domainsave.StatusUnsaved,
		domainsave.StatusSaving,
		domainsave.StatusSaved,
		domainsave.StatusIdle,
	}, rec.Seq())
}

func TestController_MutationDuringSavedWindowSuppressesRevert(t *testing.T) {
	c, store, clk, rec := newTestController(t)

	c.Changed([]byte("v1"))
	clk.Advance(2500 * time.Millisecond)
	require.Equal(t, domainsave.StatusSaved, c.Status())

	clk.Advance(time.Second)
	c.Changed([]byte("v2"))
	assert.Equal(t, domainsave.StatusUnsaved, c.Status())

	// the old display window would have ended here
	clk.Advance(time.Second)
	assert.Equal(t, domainsave.StatusUnsaved, c.Status())

	clk.Advance(time.Second)
	assert.Equal(t, domainsave.StatusSaving, c.Status())
	assert.Equal(t, []string{"v1", "v2"}, store.Writes())

	for _, s := range rec.Seq()[:4] {
		assert.NotEqual(t, domainsave.StatusIdle, s)
	}
}

func TestController_WriteFailureLeavesUnsaved(t *testing.T) {
	var hookErrs []error
	c, store, clk, rec := newTestController(t, WithWriteHook(func(err error) { hookErrs = append(hookErrs, err) }))
	store.err = errors.New("quota exceeded")

	c.Changed([]byte("draft"))
	clk.Advance(10 * time.Second)

	assert.Equal(t, domainsave.StatusUnsaved, c.Status())
	assert.Equal(t, []domainsave.Status{
		domainsave.StatusUnsaved,
		domainsave.StatusSaving,
		domainsave.StatusUnsaved,
	}, rec.Seq())
	require.Len(t, hookErrs, 1)
	assert.EqualError(t, hookErrs[0], "quota exceeded")
}

func TestController_SaveNowBypassesDebounce(t *testing.T) {
	c, store, clk, rec := newTestController(t)

	c.Changed([]byte("typed"))
	c.SaveNow([]byte("typed"))

	assert.Equal(t, []string{"typed"}, store.Writes())
	assert.Equal(t, domainsave.StatusSaving, c.Status())

	clk.Advance(500 * time.Millisecond)
	assert.Equal(t, domainsave.StatusSaved, c.Status())

	// the cancelled debounce timer must not start a second write
	clk.Advance(2 * time.Second)
	assert.Equal(t, domainsave.StatusIdle, c.Status())
	assert.Len(t, store.Writes(), 1)
	assert.Equal(t, []domainsave.Status{
		domainsave.StatusUnsaved,
		domainsave.StatusSaving,
		domainsave.StatusSaved,
		domainsave.StatusIdle,
	}, rec.Seq())
}

func TestController_MutationDuringSavingIsNotLost(t *testing.T) {
	c, store, clk, _ := newTestController(t)
	store.onSave = func() { c.Changed([]byte("v2")) }

	c.Changed([]byte("v1"))
	clk.Advance(2 * time.Second)
	assert.Equal(t, domainsave.StatusSaving, c.Status())

	clk.Advance(500 * time.Millisecond)
	assert.Equal(t, domainsave.StatusUnsaved, c.Status())

	clk.Advance(2 * time.Second)
	assert.Equal(t, []string{"v1", "v2"}, store.Writes())
}

func TestController_SaveNowDuringSavingFlushesAfterSettle(t *testing.T) {
	c, store, clk, _ := newTestController(t)
	store.onSave = func() { c.SaveNow([]byte("v2")) }

	c.SaveNow([]byte("v1"))
	assert.Equal(t, []string{"v1"}, store.Writes())

	clk.Advance(500 * time.Millisecond)
	assert.Equal(t, []string{"v1", "v2"}, store.Writes())
	assert.Equal(t, domainsave.StatusSaving, c.Status())

	clk.Advance(500 * time.Millisecond)
	assert.Equal(t, domainsave.StatusSaved, c.Status())
}

func TestController_DiscardCancelsPendingWrite(t *testing.T) {
	c, store, clk, _ := newTestController(t)

	c.Changed([]byte("draft"))
	require.NoError(t, c.Discard(context.Background()))

	assert.Equal(t, domainsave.StatusIdle, c.Status())
	clk.Advance(time.Minute)
	assert.Empty(t, store.Writes())
	assert.Equal(t, 1, store.deletes)
}

func TestController_DiscardDuringSettleIgnoresWrite(t *testing.T) {
	c, _, clk, rec := newTestController(t)

	c.SaveNow([]byte("draft"))
	require.NoError(t, c.Discard(context.Background()))
	clk.Advance(time.Minute)

	assert.Equal(t, domainsave.StatusIdle, c.Status())
	assert.Equal(t, []domainsave.Status{domainsave.StatusSaving, domainsave.StatusIdle}, rec.Seq())
}

func TestController_StopCancelsTimers(t *testing.T) {
	c, store, clk, _ := newTestController(t)

	c.Changed([]byte("draft"))
	c.Stop()
	clk.Advance(time.Minute)

	assert.Empty(t, store.Writes())
	assert.Zero(t, clk.Pending())
}

package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/modrt/internal/resourcepot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	tracker   *resourcepot.Tracker
	installed []string
	mu        sync.Mutex
}

func (h *harness) install(_ context.Context, pot *resourcepot.Pot) error {
	h.mu.Lock()
	h.installed = append(h.installed, pot.ID)
	h.mu.Unlock()
	h.tracker.MarkLoaded(pot.ID)
	return nil
}

func newHarness() *harness {
	return &harness{tracker: resourcepot.NewTracker()}
}

func TestLoad_CoalescesConcurrentFetches(t *testing.T) {
	h := newHarness()
	var fetches atomic.Int32
	release := make(chan struct{})
	fetcher := FetcherFunc(func(ctx context.Context, r Resource) (*resourcepot.Pot, error) {
		fetches.Add(1)
		<-release
		return resourcepot.NewPot(r.Path), nil
	})
	r := New(h.tracker, fetcher, h.install)
	res := Resource{Path: "chunk-1", Type: ScriptResource}

	ctx := context.Background()
	first := r.EnsureLoaded(ctx, res)
	second := r.EnsureLoaded(ctx, res)

	// Let both goroutines reach the flight before the fetch returns.
	time.Sleep(20 * time.Millisecond)
	close(release)

	_, err := first.Await(ctx)
	require.NoError(t, err)
	_, err = second.Await(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), fetches.Load())
	assert.Equal(t, []string{"chunk-1"}, h.installed)

	settled := r.EnsureLoaded(ctx, res)
	assert.True(t, settled.Settled(), "loaded resource settles immediately")
	assert.Equal(t, int32(1), fetches.Load())
}

func TestLoad_FailureIsNotCached(t *testing.T) {
	h := newHarness()
	var fetches atomic.Int32
	fetcher := FetcherFunc(func(ctx context.Context, r Resource) (*resourcepot.Pot, error) {
		if fetches.Add(1) == 1 {
			return nil, errors.New("network down")
		}
		return resourcepot.NewPot(r.Path), nil
	})
	r := New(h.tracker, fetcher, h.install)
	res := Resource{Path: "chunk-1"}

	err := r.Load(context.Background(), res)
	require.ErrorIs(t, err, ErrResourceLoad)
	var re *ResourceError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "chunk-1", re.Resource.Path)
	assert.False(t, h.tracker.IsLoaded("chunk-1"))

	require.NoError(t, r.Load(context.Background(), res))
	assert.Equal(t, int32(2), fetches.Load())
}

func TestLoad_TracksByPath(t *testing.T) {
	h := newHarness()
	fetcher := FetcherFunc(func(ctx context.Context, r Resource) (*resourcepot.Pot, error) {
		return resourcepot.NewPot("declared-elsewhere"), nil
	})
	r := New(h.tracker, fetcher, h.install)

	require.NoError(t, r.Load(context.Background(), Resource{Path: "chunk.json"}))
	assert.True(t, h.tracker.IsLoaded("chunk.json"))
}

func TestLoad_NoFetcher(t *testing.T) {
	h := newHarness()
	r := New(h.tracker, nil, h.install)
	assert.ErrorIs(t, r.Load(context.Background(), Resource{Path: "x"}), ErrResourceLoad)
}

func TestLoad_InstallError(t *testing.T) {
	tracker := resourcepot.NewTracker()
	fetcher := FetcherFunc(func(ctx context.Context, r Resource) (*resourcepot.Pot, error) {
		return resourcepot.NewPot(r.Path), nil
	})
	r := New(tracker, fetcher, func(context.Context, *resourcepot.Pot) error {
		return errors.New("hook refused")
	})
	err := r.Load(context.Background(), Resource{Path: "x"})
	assert.ErrorIs(t, err, ErrResourceLoad)
	assert.ErrorContains(t, err, "hook refused")
}

func TestLoadAll_StopsAtFirstFailure(t *testing.T) {
	h := newHarness()
	var seen []string
	fetcher := FetcherFunc(func(ctx context.Context, r Resource) (*resourcepot.Pot, error) {
		seen = append(seen, r.Path)
		if r.Path == "b" {
			return nil, errors.New("bad")
		}
		return resourcepot.NewPot(r.Path), nil
	})
	r := New(h.tracker, fetcher, h.install)

	err := r.LoadAll(context.Background(), []Resource{{Path: "a"}, {Path: "b"}, {Path: "c"}})
	assert.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestResolver_SetMap(t *testing.T) {
	r := New(resourcepot.NewTracker(), nil, nil)
	assert.Empty(t, r.ResourcesFor("M"))

	m, err := NewMap([]Resource{{Path: "chunk-1"}}, map[string][]int{"M": {0}})
	require.NoError(t, err)
	r.SetMap(m)
	assert.Equal(t, []Resource{{Path: "chunk-1", Type: ScriptResource}}, r.ResourcesFor("M"))

	r.SetMap(nil)
	assert.Empty(t, r.ResourcesFor("M"))
}

package cart

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/stickerverse/internal/ai"
)

// RecommendFunc fetches suggestions for a set of cart names.  It must
// honour ctx cancellation.
type RecommendFunc func(ctx context.Context, names []string) []ai.Suggestion

// Snapshot is the refresher's current state.  Key is the content hash the
// Items belong to; Pending means a newer cart is waiting for (or in the
// middle of) its own call.
type Snapshot struct {
	Key     string          `json:"key"`
	Items   []ai.Suggestion `json:"items"`
	Pending bool            `json:"pending"`
}

// Refresher keeps one cart's recommendations fresh.  Each Schedule waits
// for the cart to stop changing for the debounce delay, then makes one
// call.  A newer Schedule with different content stops the pending timer
// and cancels the call in flight, whose result is then discarded.
type Refresher struct {
	delay time.Duration
	fetch RecommendFunc

	mu      sync.Mutex
	wg      sync.WaitGroup
	timer   *time.Timer
	cancel  context.CancelFunc
	gen     uint64
	want    string // key of the most recent schedule
	settled string // key the items belong to
	items   []ai.Suggestion
	pending bool
	closed  bool
}

func NewRefresher(delay time.Duration, fetch RecommendFunc) *Refresher {
	return &Refresher{delay: delay, fetch: fetch, items: []ai.Suggestion{}}
}

// Schedule asks for recommendations for names.  Scheduling the content
// that is already wanted is a no-op; an empty cart clears the list
// without a call.
func (r *Refresher) Schedule(names []string) {
	key := HashNames(names)
	names = append([]string(nil), names...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || (key == r.want && (r.pending || r.settled == key)) {
		return
	}
	r.supersedeLocked()
	r.want = key
	if key == "" {
		r.items, r.settled, r.pending = []ai.Suggestion{}, "", false
		return
	}
	r.pending = true
	gen := r.gen
	r.wg.Add(1)
	r.timer = time.AfterFunc(r.delay, func() {
		defer r.wg.Done()
		r.run(gen, key, names)
	})
}

// supersedeLocked invalidates the pending timer and the call in flight.
func (r *Refresher) supersedeLocked() {
	r.gen++
	if r.timer != nil {
		if r.timer.Stop() {
			r.wg.Done()
		}
		r.timer = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Refresher) run(gen uint64, key string, names []string) {
	r.mu.Lock()
	if r.closed || gen != r.gen {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.timer = nil
	r.mu.Unlock()

	items := r.fetch(ctx, names)
	cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	if items == nil {
		items = []ai.Suggestion{}
	}
	r.items, r.settled, r.pending, r.cancel = items, key, false, nil
}

// Latest returns the last settled recommendations.
func (r *Refresher) Latest() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]ai.Suggestion, len(r.items))
	copy(items, r.items)
	return Snapshot{Key: r.settled, Items: items, Pending: r.pending}
}

// Close stops the refresher and waits for any running call to return.
func (r *Refresher) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.supersedeLocked()
	r.pending = false
	r.mu.Unlock()
	r.wg.Wait()
}

package civit

import (
	"sort"
	"sync"
	"sync/atomic"
)

// ProgressUpdate is one observable progress event for a labeled transfer.
type ProgressUpdate struct {
	// Label identifies the transfer, typically the destination filename.
	Label string

	// Downloaded is the bytes written so far. Monotonically
	// non-decreasing and never exceeds Total.
	Downloaded int64

	// Total is the expected transfer size from Content-Length.
	// Zero until the transfer learns it.
	Total int64
}

// Tracker aggregates progress for many concurrent transfers. Each
// transfer owns an independent Track; registration and updates are safe
// for concurrent use and never interfere across labels. The Tracker only
// emits events; rendering is the caller's concern.
type Tracker struct {
	mu     sync.Mutex
	tracks map[string]*Track

	// onUpdate, when set, receives every progress event. Invoked from
	// transfer goroutines; must be safe for concurrent use.
	onUpdate func(ProgressUpdate)
}

// NewTracker creates an empty progress aggregator.
func NewTracker() *Tracker {
	return &Tracker{
		tracks: make(map[string]*Track),
	}
}

// OnUpdate installs a callback receiving every progress event.
// Must be called before transfers start.
func (t *Tracker) OnUpdate(fn func(ProgressUpdate)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onUpdate = fn
}

// Register creates (or returns) the track for a label.
func (t *Tracker) Register(label string) *Track {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tr, ok := t.tracks[label]; ok {
		return tr
	}
	tr := &Track{label: label, notify: t.notify}
	t.tracks[label] = tr
	return tr
}

// Snapshot returns the current state of every track, sorted by label.
func (t *Tracker) Snapshot() []ProgressUpdate {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]ProgressUpdate, 0, len(t.tracks))
	for _, tr := range t.tracks {
		downloaded, total := tr.Progress()
		out = append(out, ProgressUpdate{Label: tr.label, Downloaded: downloaded, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func (t *Tracker) notify(u ProgressUpdate) {
	t.mu.Lock()
	fn := t.onUpdate
	t.mu.Unlock()
	if fn != nil {
		fn(u)
	}
}

// Track is the progress counter for one transfer.
type Track struct {
	label      string
	downloaded atomic.Int64
	total      atomic.Int64
	notify     func(ProgressUpdate)
}

// SetTotal records the expected transfer size and emits an initial event.
func (tr *Track) SetTotal(total int64) {
	tr.total.Store(total)
	tr.emit()
}

// Add advances the downloaded counter by delta, clamped so it never
// exceeds the total, and emits a progress event.
func (tr *Track) Add(delta int64) {
	if delta <= 0 {
		return
	}
	total := tr.total.Load()
	for {
		cur := tr.downloaded.Load()
		next := cur + delta
		if total > 0 && next > total {
			next = total
		}
		if tr.downloaded.CompareAndSwap(cur, next) {
			break
		}
	}
	tr.emit()
}

// Progress returns the current (downloaded, total) counters.
func (tr *Track) Progress() (int64, int64) {
	return tr.downloaded.Load(), tr.total.Load()
}

func (tr *Track) emit() {
	if tr.notify == nil {
		return
	}
	downloaded, total := tr.Progress()
	tr.notify(ProgressUpdate{Label: tr.label, Downloaded: downloaded, Total: total})
}

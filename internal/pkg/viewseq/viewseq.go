// Package viewseq discards out-of-order view results. Clients number the
// requests of one view with an increasing sequence; a result computed for a
// number lower than the newest one seen for that view is stale.
//
// State is grouped by owner (a session) so that everything an owner left
// behind can be dropped at once.
package viewseq

import (
	"sync"
	"time"
)

type owner struct {
	latest   map[string]uint64
	lastSeen time.Time
}

type Tracker struct {
	mu     sync.Mutex
	owners map[string]*owner
	now    func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		owners: make(map[string]*owner),
		now:    time.Now,
	}
}

// Begin records seq for the view of ownerKey. It returns false when a newer
// request for the same view has already been seen.
func (t *Tracker) Begin(ownerKey, view string, seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	o, ok := t.owners[ownerKey]
	if !ok {
		o = &owner{latest: make(map[string]uint64)}
		t.owners[ownerKey] = o
	}
	o.lastSeen = t.now()

	if cur, ok := o.latest[view]; ok && seq < cur {
		return false
	}
	o.latest[view] = seq
	return true
}

// IsLatest reports whether seq is still the newest request for the view.
func (t *Tracker) IsLatest(ownerKey, view string, seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	o, ok := t.owners[ownerKey]
	if !ok {
		return false
	}
	return o.latest[view] == seq
}

// Forget drops every view of ownerKey, e.g. when its session ends.
func (t *Tracker) Forget(ownerKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.owners, ownerKey)
}

// Prune drops the owners that started no request for longer than idle and
// returns how many were removed.
func (t *Tracker) Prune(idle time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-idle)
	n := 0
	for k, o := range t.owners {
		if o.lastSeen.Before(cutoff) {
			delete(t.owners, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked owners.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.owners)
}

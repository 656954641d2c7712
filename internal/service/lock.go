package service

import (
	"sort"
	"sync"
	"time"

	"go-lending-ws/internal/apperr"

	"github.com/google/uuid"
)

// itemLocks serializes ledger operations per item. Locks are acquired in
// sorted id order so two checkouts touching overlapping item sets cannot
// deadlock, and each acquisition waits at most the given timeout before
// surfacing contention to the caller.
type itemLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]chan struct{}
}

func newItemLocks() *itemLocks {
	return &itemLocks{locks: make(map[uuid.UUID]chan struct{})}
}

func (l *itemLocks) lockFor(id uuid.UUID) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[id] = ch
	}
	return ch
}

// acquire takes the locks for all given ids (duplicates collapsed) and
// returns a release func. On timeout it releases everything it already
// holds and reports which item was contended.
func (l *itemLocks) acquire(ids []uuid.UUID, timeout time.Duration) (func(), error) {
	unique := make(map[uuid.UUID]bool, len(ids))
	ordered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !unique[id] {
			unique[id] = true
			ordered = append(ordered, id)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].String() < ordered[j].String()
	})

	held := make([]chan struct{}, 0, len(ordered))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for _, id := range ordered {
		ch := l.lockFor(id)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-deadline.C:
			release()
			return nil, &apperr.ContentionError{ItemID: id.String()}
		}
	}
	return release, nil
}

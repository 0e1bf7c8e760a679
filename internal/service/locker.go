package service

import (
	"sync"

	"github.com/ledgerkeep/ledgerkeep/models"
)

// LockManager guards records that are mid-flight in a push batch. While an
// id is locked, local edits are diverted into a last-write-wins buffer
// instead of mutating the record, so the payload that was validated and
// serialized is exactly the payload the server receives. The push engine
// drains the buffer after unlocking and re-stages the touched records.
type LockManager struct {
	mu     sync.Mutex
	locked map[string]struct{}
	buffer map[string]models.BufferedUpdate
}

func NewLockManager() *LockManager {
	return &LockManager{
		locked: make(map[string]struct{}),
		buffer: make(map[string]models.BufferedUpdate),
	}
}

// Lock marks ids as in-flight. Locking an already-locked id is a no-op.
func (l *LockManager) Lock(ids ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range ids {
		l.locked[id] = struct{}{}
	}
}

// Unlock releases ids. Buffered updates are kept; only Flush clears them.
func (l *LockManager) Unlock(ids ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range ids {
		delete(l.locked, id)
	}
}

// IsLocked reports whether id is currently in-flight.
func (l *LockManager) IsLocked(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.locked[id]
	return ok
}

// Buffer parks an update for replay. A second update for the same id
// replaces the first: the buffer holds the latest intended state, not a
// journal.
func (l *LockManager) Buffer(update models.BufferedUpdate) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buffer[update.ID] = update
}

// BufferIfLocked parks the update only when its id is in-flight, reporting
// whether it did. The check and the insert are one critical section so an
// unlock between them cannot lose the update.
func (l *LockManager) BufferIfLocked(update models.BufferedUpdate) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.locked[update.ID]; !ok {
		return false
	}

	l.buffer[update.ID] = update
	return true
}

// Flush atomically returns all buffered updates and clears the buffer.
func (l *LockManager) Flush() []models.BufferedUpdate {
	l.mu.Lock()
	defer l.mu.Unlock()

	updates := make([]models.BufferedUpdate, 0, len(l.buffer))
	for _, u := range l.buffer {
		updates = append(updates, u)
	}
	l.buffer = make(map[string]models.BufferedUpdate)

	return updates
}

// Reset clears all locks and buffered updates.
func (l *LockManager) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.locked = make(map[string]struct{})
	l.buffer = make(map[string]models.BufferedUpdate)
}

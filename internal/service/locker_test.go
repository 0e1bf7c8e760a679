package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/ledgerkeep/models"
)

func TestLockManager_LockUnlock(t *testing.T) {
	lm := NewLockManager()

	lm.Lock("a", "b")
	assert.True(t, lm.IsLocked("a"))
	assert.True(t, lm.IsLocked("b"))
	assert.False(t, lm.IsLocked("c"))

	// idempotent
	lm.Lock("a")
	assert.True(t, lm.IsLocked("a"))

	lm.Unlock("a")
	assert.False(t, lm.IsLocked("a"))
	assert.True(t, lm.IsLocked("b"))
}

func TestLockManager_BufferIfLocked(t *testing.T) {
	lm := NewLockManager()
	lm.Lock("tx-1")

	buffered := lm.BufferIfLocked(models.BufferedUpdate{
		ID:     "tx-1",
		Table:  models.TableTransactions,
		Fields: map[string]any{"note": "first"},
	})
	assert.True(t, buffered)

	buffered = lm.BufferIfLocked(models.BufferedUpdate{
		ID:     "tx-2",
		Table:  models.TableTransactions,
		Fields: map[string]any{"note": "unlocked"},
	})
	assert.False(t, buffered, "unlocked ids are not buffered")

	updates := lm.Flush()
	require.Len(t, updates, 1)
	assert.Equal(t, "tx-1", updates[0].ID)
}

func TestLockManager_BufferLastWriteWins(t *testing.T) {
	lm := NewLockManager()

	lm.Buffer(models.BufferedUpdate{ID: "tx-1", Fields: map[string]any{"note": "first"}})
	lm.Buffer(models.BufferedUpdate{ID: "tx-1", Fields: map[string]any{"note": "second"}})

	updates := lm.Flush()
	require.Len(t, updates, 1)
	assert.Equal(t, "second", updates[0].Fields["note"])
}

func TestLockManager_FlushClears(t *testing.T) {
	lm := NewLockManager()
	lm.Buffer(models.BufferedUpdate{ID: "tx-1"})

	require.Len(t, lm.Flush(), 1)
	assert.Empty(t, lm.Flush())
}

func TestLockManager_UnlockKeepsBuffer(t *testing.T) {
	lm := NewLockManager()
	lm.Lock("tx-1")
	require.True(t, lm.BufferIfLocked(models.BufferedUpdate{ID: "tx-1"}))

	lm.Unlock("tx-1")

	updates := lm.Flush()
	require.Len(t, updates, 1, "unlock must not discard buffered updates")
}

func TestLockManager_Reset(t *testing.T) {
	lm := NewLockManager()
	lm.Lock("a")
	lm.Buffer(models.BufferedUpdate{ID: "a"})

	lm.Reset()

	assert.False(t, lm.IsLocked("a"))
	assert.Empty(t, lm.Flush())
}

func TestLockManager_ConcurrentAccess(t *testing.T) {
	lm := NewLockManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			lm.Lock("tx-1")
			lm.IsLocked("tx-1")
			lm.Unlock("tx-1")
		}()
		go func() {
			defer wg.Done()
			lm.Buffer(models.BufferedUpdate{ID: "tx-1"})
			lm.Flush()
		}()
	}
	wg.Wait()
}

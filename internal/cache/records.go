package cache

import (
	"time"

	"tally/internal/core"
)

// RecordsCache keeps each owner's merged record list for a short TTL.
// Mutations must call Invalidate so the next read refetches.
type RecordsCache struct {
	lru  *LRU[[]core.Transaction]
	stop chan struct{}
	done chan struct{}
}

func NewRecordsCache(maxOwners int, ttl time.Duration) *RecordsCache {
	return &RecordsCache{
		lru:  NewLRU[[]core.Transaction](maxOwners, ttl),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (c *RecordsCache) Get(ownerID string) ([]core.Transaction, bool) {
	return c.lru.Get(ownerID)
}

func (c *RecordsCache) Set(ownerID string, records []core.Transaction) {
	c.lru.Set(ownerID, records)
}

// Invalidate drops the owner's cached list after a mutation.
func (c *RecordsCache) Invalidate(ownerID string) {
	c.lru.Delete(ownerID)
}

func (c *RecordsCache) Size() int {
	return c.lru.Size()
}

// StartCleanup sweeps expired entries on the given interval until Stop
// is called.
func (c *RecordsCache) StartCleanup(interval time.Duration) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.lru.CleanExpired()
			case <-c.stop:
				return
			}
		}
	}()
}

func (c *RecordsCache) Stop() {
	close(c.stop)
	<-c.done
}

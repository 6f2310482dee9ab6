package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/tbmm-scraper/models"
)

// entry holds an enriched record with the time its detail page was read.
type entry struct {
	record    models.Proposal
	createdAt time.Time
}

// Cache holds enriched records from earlier runs so their detail pages need
// not be fetched again. It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	now        func() time.Time
}

// New creates an empty Cache holding at most maxEntries records.
// maxEntries <= 0 means unbounded.
func New(maxEntries int) *Cache {
	return &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// FromRecords builds a Cache from previously persisted records. Only
// enriched records are kept. Entries are aged by EnrichedAt; records
// written without it fall back to FetchedAt.
func FromRecords(records []*models.Proposal) *Cache {
	c := New(0)
	for _, p := range records {
		if p == nil || !p.Enriched() {
			continue
		}
		at := p.EnrichedAt
		if at.IsZero() {
			at = p.FetchedAt
		}
		c.put(p, at)
	}
	return c
}

// Key derives the cache key of a record link.
func Key(link string) string {
	h := sha256.Sum256([]byte(link))
	return hex.EncodeToString(h[:])
}

// Get returns a copy of the cached record for link if it is younger than
// maxAge. The copy's EnrichedAt is the entry time. maxAge <= 0 disables
// lookups.
func (c *Cache) Get(link string, maxAge time.Duration) (*models.Proposal, bool) {
	if maxAge <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[Key(link)]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.now().Sub(e.createdAt) > maxAge {
		return nil, false
	}

	rec := e.record
	rec.EnrichedAt = e.createdAt
	return &rec, true
}

// Set stores an enriched record, aged from its EnrichedAt (now when
// unset). Records without body text are ignored.
func (c *Cache) Set(p *models.Proposal) {
	if p == nil || !p.Enriched() {
		return
	}
	at := p.EnrichedAt
	if at.IsZero() {
		at = c.now()
	}
	c.put(p, at)
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *Cache) put(p *models.Proposal, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(p.Link)
	// Evict one random entry if at capacity (map iteration is random in Go).
	if _, exists := c.store[key]; !exists && c.maxEntries > 0 && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{record: *p, createdAt: at}
}

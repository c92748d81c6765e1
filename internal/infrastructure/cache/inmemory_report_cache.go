package cache

import (
	"context"
	"sync"
	"time"

	appreconciliation "github.com/dairy/backend/internal/application/reconciliation"
)

type reportEntry struct {
	report    appreconciliation.ReconciliationResponse
	expiresAt time.Time
}

// InMemoryReportCache implements ReportCache using a map.
// It does not share state across process instances.
type InMemoryReportCache struct {
	mu      sync.RWMutex
	entries map[string]reportEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryReportCache creates an in-memory report cache. A zero ttl keeps
// entries for the life of the process.
func NewInMemoryReportCache(ttl time.Duration) *InMemoryReportCache {
	return &InMemoryReportCache{
		entries: make(map[string]reportEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the cached report for date
func (c *InMemoryReportCache) Get(_ context.Context, date time.Time) (*appreconciliation.ReconciliationResponse, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[date.UTC().Format(time.DateOnly)]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, date.UTC().Format(time.DateOnly))
		c.mu.Unlock()
		return nil, false, nil
	}
	report := e.report
	return &report, true, nil
}

// Set stores a copy of the report for date
func (c *InMemoryReportCache) Set(_ context.Context, date time.Time, report *appreconciliation.ReconciliationResponse) error {
	e := reportEntry{report: *report}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[date.UTC().Format(time.DateOnly)] = e
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored reports, expired ones included
func (c *InMemoryReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ appreconciliation.ReportCache = (*InMemoryReportCache)(nil)

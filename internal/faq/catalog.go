package faq

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"supportbot/internal/entities"
)

// Source lists the active FAQ entries in insertion order.
type Source interface {
	ListActive(ctx context.Context) ([]entities.FAQEntry, error)
}

type snapshot struct {
	entries  []entities.FAQEntry
	loadedAt time.Time
}

// Catalog serves an immutable snapshot of the active FAQ table. Readers never
// block; Reload swaps in a new snapshot after administrative writes.
type Catalog struct {
	src    Source
	snap   atomic.Pointer[snapshot]
	reload sync.Mutex // orders list+publish so the last reload wins
	log    zerolog.Logger
}

func NewCatalog(src Source, logger zerolog.Logger) *Catalog {
	c := &Catalog{src: src, log: logger.With().Str("component", "faq_catalog").Logger()}
	c.snap.Store(&snapshot{})
	return c
}

// Entries returns the current snapshot. Callers must not modify it.
func (c *Catalog) Entries() []entities.FAQEntry {
	return c.snap.Load().entries
}

func (c *Catalog) Len() int {
	return len(c.snap.Load().entries)
}

func (c *Catalog) LoadedAt() time.Time {
	return c.snap.Load().loadedAt
}

// Reload reads the active entries from the source and publishes them.
func (c *Catalog) Reload(ctx context.Context) error {
	c.reload.Lock()
	defer c.reload.Unlock()

	entries, err := c.src.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("reload faq catalog: %w", err)
	}
	c.Replace(entries)
	c.log.Debug().Int("entries", len(entries)).Msg("faq catalog reloaded")
	return nil
}

// Replace publishes entries as the new snapshot.
func (c *Catalog) Replace(entries []entities.FAQEntry) {
	cp := make([]entities.FAQEntry, len(entries))
	copy(cp, entries)
	c.snap.Store(&snapshot{entries: cp, loadedAt: time.Now()})
}

package crawl

import "github.com/use-agent/tbmm-scraper/models"

// Deduplicator accumulates records keyed by link. The first record seen for
// a link wins and insertion order is kept. It is owned by a single run.
type Deduplicator struct {
	seen    map[string]struct{}
	records []*models.Proposal
}

// NewDeduplicator returns an empty Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Add appends p unless its link was already added. It reports whether p was
// kept.
func (d *Deduplicator) Add(p *models.Proposal) bool {
	if p == nil || p.Link == "" {
		return false
	}
	if _, ok := d.seen[p.Link]; ok {
		return false
	}
	d.seen[p.Link] = struct{}{}
	d.records = append(d.records, p)
	return true
}

// Seen reports whether link has been added.
func (d *Deduplicator) Seen(link string) bool {
	_, ok := d.seen[link]
	return ok
}

// Len returns the number of distinct records.
func (d *Deduplicator) Len() int { return len(d.records) }

// Records returns the accumulated records in first-seen order.
func (d *Deduplicator) Records() []*models.Proposal {
	return d.records
}

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/tbmm-scraper/models"
)

func enriched(link string, at time.Time) *models.Proposal {
	p := models.NewStub("Kanun Teklifi "+link, link, at)
	p.BodyText = "metin"
	p.CaseNumber = "2/100"
	return p
}

func TestFromRecords_KeepsEnrichedOnly(t *testing.T) {
	now := time.Now()
	stub := models.NewStub("Kanun Teklifi stub", "https://x/stub", now)
	c := FromRecords([]*models.Proposal{enriched("https://x/1", now), stub, nil})

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("https://x/stub", time.Hour)
	assert.False(t, ok)
}

func TestGet_MaxAge(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := FromRecords([]*models.Proposal{enriched("https://x/1", now.Add(-2*time.Hour))})
	c.now = func() time.Time { return now }

	_, ok := c.Get("https://x/1", time.Hour)
	assert.False(t, ok, "older than max age")

	got, ok := c.Get("https://x/1", 3*time.Hour)
	require.True(t, ok)
	assert.Equal(t, "2/100", got.CaseNumber)

	_, ok = c.Get("https://x/1", 0)
	assert.False(t, ok, "zero max age disables reuse")
}

func TestGet_ReturnsCopy(t *testing.T) {
	c := New(0)
	c.Set(enriched("https://x/1", time.Now()))

	got, ok := c.Get("https://x/1", time.Hour)
	require.True(t, ok)
	got.CaseNumber = "changed"

	again, _ := c.Get("https://x/1", time.Hour)
	assert.Equal(t, "2/100", again.CaseNumber)
}

func TestSet_IgnoresStubsAndEvicts(t *testing.T) {
	c := New(2)
	c.Set(models.NewStub("Kanun Teklifi stub", "https://x/stub", time.Now()))
	assert.Equal(t, 0, c.Len())

	c.Set(enriched("https://x/1", time.Now()))
	c.Set(enriched("https://x/2", time.Now()))
	c.Set(enriched("https://x/3", time.Now()))
	assert.Equal(t, 2, c.Len())

	_, ok := c.Get("https://x/3", time.Hour)
	assert.True(t, ok, "newest entry is kept")
}

func TestGet_StampsEnrichmentTime(t *testing.T) {
	fetched := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	enrichedAt := fetched.Add(-24 * time.Hour)
	p := enriched("https://x/1", fetched)
	p.EnrichedAt = enrichedAt

	c := FromRecords([]*models.Proposal{p})
	c.now = func() time.Time { return fetched }

	_, ok := c.Get("https://x/1", time.Hour)
	assert.False(t, ok, "aged by EnrichedAt, not FetchedAt")

	got, ok := c.Get("https://x/1", 48*time.Hour)
	require.True(t, ok)
	assert.Equal(t, enrichedAt, got.EnrichedAt)
}

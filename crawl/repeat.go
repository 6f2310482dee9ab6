package crawl

import (
	"hash/fnv"
	"math/bits"

	"github.com/use-agent/tbmm-scraper/extract"
)

// pageFingerprint computes a 64-bit SimHash over the links of a page's rows.
// Two pages listing the same links in any order get the same fingerprint.
func pageFingerprint(rows []extract.Row) uint64 {
	if len(rows) == 0 {
		return 0
	}

	var vector [64]int
	for _, r := range rows {
		h := fnv.New64a()
		h.Write([]byte(r.Link))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// distance returns the Hamming distance between two fingerprints.
func distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// repeatGuard notices when navigation leaves the list on the same page,
// which happens when the next control is a no-op the disabled check missed.
type repeatGuard struct {
	last    uint64
	hasLast bool
}

// repeated records rows as the current page and reports whether they match
// the previous page.
func (g *repeatGuard) repeated(rows []extract.Row) bool {
	fp := pageFingerprint(rows)
	same := g.hasLast && distance(fp, g.last) == 0
	g.last, g.hasLast = fp, true
	return same
}

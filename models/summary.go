package models

import "sort"

// StatusCount is one row of a status distribution.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Summary describes a finished run or a persisted dataset.
type Summary struct {
	Total    int           `json:"total"`
	Enriched int           `json:"enriched"`
	Pages    int           `json:"pages,omitempty"`
	Statuses []StatusCount `json:"statuses"`
}

// Summarize counts records per status, most frequent first. Records without
// a status are counted under Unknown.
func Summarize(records []*Proposal) Summary {
	counts := make(map[string]int)
	s := Summary{Total: len(records)}
	for _, r := range records {
		status := r.Status
		if status == "" {
			status = Unknown
		}
		counts[status]++
		if r.Enriched() {
			s.Enriched++
		}
	}

	s.Statuses = make([]StatusCount, 0, len(counts))
	for status, n := range counts {
		s.Statuses = append(s.Statuses, StatusCount{Status: status, Count: n})
	}
	sort.Slice(s.Statuses, func(i, j int) bool {
		if s.Statuses[i].Count != s.Statuses[j].Count {
			return s.Statuses[i].Count > s.Statuses[j].Count
		}
		return s.Statuses[i].Status < s.Statuses[j].Status
	})
	return s
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Unknown is the sentinel stored in CaseNumber and TermSession when the
// field was looked for but not found.
const Unknown = "UNKNOWN"

// MinTitleLength is the shortest title (in runes) accepted for a record.
const MinTitleLength = 10

// extraKeyPrefix prefixes positional fallback keys ("field_3").
const extraKeyPrefix = "field_"

// Known status labels. Matching is a Turkish-aware, case-insensitive
// substring test (see extract.MatchStatus).
const (
	StatusEnacted    = "KANUNLAŞTI"
	StatusInProgress = "İŞLEMDE"
	StatusCommittee  = "KOMİSYONDA"
	StatusWithdrawn  = "GERİ ALINDI"
)

// StatusLabels is the closed set of status values, in match priority order.
var StatusLabels = []string{StatusEnacted, StatusInProgress, StatusCommittee, StatusWithdrawn}

// Proposal is one legislative proposal.
//
// It starts as a stub (Title + Link) from a list page, is enriched from its
// detail page (BodyText, CaseNumber, TermSession, Status) and is persisted
// once at the end of a run.
type Proposal struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	CaseNumber  string    `json:"caseNumber"`
	TermSession string    `json:"termSession"`
	Status      string    `json:"status,omitempty"`
	BodyText    string    `json:"bodyText,omitempty"`
	FetchedAt   time.Time `json:"fetchedAt"`

	// EnrichedAt is when BodyText was read from the detail page. A reused
	// body keeps its original time.
	EnrichedAt time.Time `json:"enrichedAt,omitzero"`

	// Extra holds positional fallback cells keyed "field_<index>".
	// They are flattened into the JSON object.
	Extra map[string]string `json:"-"`
}

// NewStub returns a stub record with both derived fields set to Unknown.
func NewStub(title, link string, fetchedAt time.Time) *Proposal {
	return &Proposal{
		Title:       title,
		Link:        link,
		CaseNumber:  Unknown,
		TermSession: Unknown,
		FetchedAt:   fetchedAt,
	}
}

// Enriched reports whether detail-page text has been attached.
func (p *Proposal) Enriched() bool {
	return p.BodyText != ""
}

// Normalize replaces empty derived fields with the Unknown sentinel.
func (p *Proposal) Normalize() {
	if p.CaseNumber == "" {
		p.CaseNumber = Unknown
	}
	if p.TermSession == "" {
		p.TermSession = Unknown
	}
}

// ExtraKey builds the positional fallback key for a cell index.
func ExtraKey(index int) string {
	return fmt.Sprintf("%s%d", extraKeyPrefix, index)
}

type proposalAlias Proposal

// MarshalJSON writes the canonical fields first, followed by the positional
// fallback keys in sorted order. HTML characters in URLs are left literal.
func (p Proposal) MarshalJSON() ([]byte, error) {
	base, err := marshalLiteral(proposalAlias(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return base, nil
	}

	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	for _, k := range keys {
		kb, err := marshalLiteral(k)
		if err != nil {
			return nil, err
		}
		vb, err := marshalLiteral(p.Extra[k])
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the canonical fields and collects any "field_<n>" keys
// back into Extra.
func (p *Proposal) UnmarshalJSON(data []byte) error {
	var alias proposalAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Proposal(alias)
	for k, v := range raw {
		if !strings.HasPrefix(k, extraKeyPrefix) {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]string)
		}
		p.Extra[k] = s
	}
	return nil
}

// marshalLiteral encodes v without HTML escaping and without the trailing
// newline added by json.Encoder.
func marshalLiteral(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

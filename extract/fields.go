// Package extract turns list rows and detail pages into proposal fields.
//
// Nothing here returns an error for content that does not fit: a field that
// cannot be parsed becomes models.Unknown, a row without a usable title is
// dropped, and a page without a content area yields empty text.
package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/use-agent/tbmm-scraper/models"
)

var (
	// "Esas No: 2/1234", "(2/1234)".
	caseNumberRe = regexp.MustCompile(`(?i)(?:Esas\s*No[:\s]+)?(\d+/\d+)`)

	// "28. Dönem 3. Yasama Yılı". Dotted and dotless i are both accepted
	// because simple case folding keeps them apart.
	termSessionRe = regexp.MustCompile(`(?i)(\d+)\.\s*Dönem\s+(\d+)\.\s*Yasama\s+Y[ıiIİ]l[ıiIİ]`)
)

// Fields are the values derived from free text.
type Fields struct {
	CaseNumber  string
	TermSession string
}

// ExtractFields applies the case-number and term/session patterns to text.
// Each field is models.Unknown when its pattern does not match.
func ExtractFields(text string) Fields {
	return Fields{
		CaseNumber:  CaseNumber(text),
		TermSession: TermSession(text),
	}
}

// CaseNumber returns the first "N/M" case identifier in text, or
// models.Unknown.
func CaseNumber(text string) string {
	m := caseNumberRe.FindStringSubmatch(text)
	if m == nil {
		return models.Unknown
	}
	return m[1]
}

// TermSession returns the "term/session" pair found in text, or
// models.Unknown.
func TermSession(text string) string {
	m := termSessionRe.FindStringSubmatch(text)
	if m == nil {
		return models.Unknown
	}
	return m[1] + "/" + m[2]
}

// MatchStatus returns the canonical status label contained in text, or ""
// when none is present. Matching upper-cases text with Turkish rules, so
// "Kanunlaştı" and "kanunlaştı" both resolve to KANUNLAŞTI.
func MatchStatus(text string) string {
	upper := upperTR(text)
	for _, label := range models.StatusLabels {
		if strings.Contains(upper, label) {
			return label
		}
	}
	return ""
}

func upperTR(s string) string {
	return cases.Upper(language.Turkish).String(s)
}

func lowerTR(s string) string {
	return cases.Lower(language.Turkish).String(s)
}

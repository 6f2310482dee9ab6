package selector

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Selection
}

const listPage = `<html><body>
<table id="layout"><tr><td>menu</td></tr><tr><td>a</td></tr><tr><td>b</td></tr><tr><td>c</td></tr></table>
<table class="sonucTablo"><tr><th>Başlık</th></tr><tr><td>row</td></tr></table>
</body></html>`

func TestResolve_SpecificCandidateWins(t *testing.T) {
	root := parse(t, listPage)

	m, ok := Resolve(root, ResultTables, PickMostRows)
	require.True(t, ok)
	assert.Equal(t, "table.sonucTablo", m.Candidate.Query)
	assert.True(t, m.Selection.HasClass("sonucTablo"))
}

func TestResolve_PickMostRows(t *testing.T) {
	root := parse(t, `<html><body>
<table><tr><td>1</td></tr></table>
<table id="big"><tr><td>1</td></tr><tr><td>2</td></tr><tr><td>3</td></tr></table>
<table><tr><td>1</td></tr><tr><td>2</td></tr></table>
</body></html>`)

	m, ok := Resolve(root, ResultTables, PickMostRows)
	require.True(t, ok)
	assert.Equal(t, "table", m.Candidate.Query)
	assert.Equal(t, 1, m.Index)
	id, _ := m.Selection.Attr("id")
	assert.Equal(t, "big", id)

	first, ok := Resolve(root, ResultTables, PickFirst)
	require.True(t, ok)
	assert.Equal(t, 0, first.Index)
}

func TestResolve_NotFound(t *testing.T) {
	root := parse(t, `<html><body><p>Kayıt bulunamadı</p></body></html>`)

	m, ok := Resolve(root, ResultTables, PickMostRows)
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestResolve_SkipsInvalidQuery(t *testing.T) {
	root := parse(t, `<html><body><div class="liste">x</div></body></html>`)

	m, ok := Resolve(root, []Candidate{{Query: "div[[["}, {Query: ".liste"}}, nil)
	require.True(t, ok)
	assert.Equal(t, ".liste", m.Candidate.Query)
}

func TestResolve_TextFilter(t *testing.T) {
	root := parse(t, `<html><body><div class="pager">
<a href="?p=1">1</a><a href="?p=2">2</a><a href="?p=3">İLERİ</a>
</div></body></html>`)

	m, ok := Resolve(root, NextControls, PickFirst)
	require.True(t, ok)
	assert.Equal(t, "İleri", m.Candidate.Contains)
	href, _ := m.Selection.Attr("href")
	assert.Equal(t, "?p=3", href)
}

func TestResolve_InputValueLabel(t *testing.T) {
	root := parse(t, `<html><body><form>
<input type="submit" value="Temizle">
<input type="submit" value="Sorgula">
</form></body></html>`)

	m, ok := Resolve(root, SearchSubmitControls, PickFirst)
	require.True(t, ok)
	assert.Equal(t, `input[type="submit"]`, m.Candidate.Query)
	assert.Equal(t, "SORGULA", m.Candidate.Contains)
	assert.Equal(t, "Sorgula", m.Selection.AttrOr("value", ""))
}

func TestTextContains_Turkish(t *testing.T) {
	assert.True(t, TextContains("SONRAKİ SAYFA", "Sonraki"))
	assert.True(t, TextContains("ileri", "İleri"))
	assert.False(t, TextContains("Önceki", "Sonraki"))
}

func TestIsDisabled(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{"enabled", `<a id="n" href="?p=2">Sonraki</a>`, false},
		{"class", `<a id="n" class="page-link Disabled">Sonraki</a>`, true},
		{"attribute", `<button id="n" disabled>Sonraki</button>`, true},
		{"aria", `<a id="n" aria-disabled="true">Sonraki</a>`, true},
		{"parent li", `<ul><li class="disabled"><a id="n">Sonraki</a></li></ul>`, true},
		{"parent li enabled", `<ul><li class="page-item"><a id="n">Sonraki</a></li></ul>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parse(t, "<html><body>"+tt.html+"</body></html>")
			assert.Equal(t, tt.want, IsDisabled(root.Find("#n")))
		})
	}
}

func TestCandidateLists_Compile(t *testing.T) {
	root := parse(t, "<html><body></body></html>")
	lists := map[string][]Candidate{
		"ResultTables":         ResultTables,
		"ContentAreas":         ContentAreas,
		"ListAreas":            ListAreas,
		"NextControls":         NextControls,
		"SearchKeywordInputs":  SearchKeywordInputs,
		"SearchTermSelects":    SearchTermSelects,
		"SearchStatusSelects":  SearchStatusSelects,
		"SearchSubmitControls": SearchSubmitControls,
	}
	for name, cands := range lists {
		for _, c := range cands {
			_, err := FindAll(root, c)
			assert.NoError(t, err, "%s: %s", name, c.Query)
		}
	}
}

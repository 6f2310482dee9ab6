package selector

// ResultTables locates the results grid on a list page. The bare "table"
// entry is the last resort.
var ResultTables = []Candidate{
	{Query: "table.sonucTablo"},
	{Query: "table.listeTablo"},
	{Query: "table.table"},
	{Query: "#sonuclar table"},
	{Query: ".sonuclar table"},
	{Query: "table.gridview"},
	{Query: `table[id*="Grid"]`},
	{Query: "table"},
}

// ContentAreas locates the main text block of a detail page.
var ContentAreas = []Candidate{
	{Query: "#icerik"},
	{Query: ".icerik"},
	{Query: ".icerikMetni"},
	{Query: ".kanunMetni"},
	{Query: ".teklif-metni"},
	{Query: "main"},
	{Query: "article"},
	{Query: ".content"},
	{Query: "#content"},
	{Query: "body"},
}

// ListAreas locates the block holding proposal links on list pages that
// have no results table.
var ListAreas = []Candidate{
	{Query: ".icerikMetni"},
	{Query: ".liste"},
	{Query: ".kanunListesi"},
	{Query: "#icerik"},
	{Query: "main"},
}

// NextControls locates the "next page" control.
var NextControls = []Candidate{
	{Query: "a", Contains: "Sonraki"},
	{Query: "a", Contains: "İleri"},
	{Query: "a", Contains: ">"},
	{Query: `a[class*="next"]`},
	{Query: "button", Contains: "Sonraki"},
	{Query: `button[class*="next"]`},
	{Query: `a[aria-label*="Next"]`},
}

// SearchKeywordInputs locates the keyword box of the search form, by id
// first and then by name.
var SearchKeywordInputs = []Candidate{
	{Query: "#txtArama"},
	{Query: "#txtKelime"},
	{Query: "#txtSearch"},
	{Query: "#searchWord"},
	{Query: `[name="arama"]`},
	{Query: `[name="kelime"]`},
	{Query: `[name="search"]`},
	{Query: `[name="q"]`},
}

// SearchTermSelects locates the legislative term dropdown.
var SearchTermSelects = []Candidate{
	{Query: "select#ddlDonem"},
	{Query: "select#ddlYasama"},
	{Query: "select#donem"},
}

// SearchStatusSelects locates the status dropdown.
var SearchStatusSelects = []Candidate{
	{Query: "select#ddlDurum"},
	{Query: "select#ddlSonDurum"},
	{Query: "select#durum"},
}

// SearchSubmitControls locates the search form's submit control. Text
// candidates also match the value of input buttons.
var SearchSubmitControls = []Candidate{
	{Query: "#btnSorgula"},
	{Query: "#btnAra"},
	{Query: "#btnSearch"},
	{Query: "#btnSubmit"},
	{Query: "button", Contains: "SORGULA"},
	{Query: `input[type="submit"]`, Contains: "SORGULA"},
	{Query: "button", Contains: "ARA"},
	{Query: `input[type="submit"]`, Contains: "ARA"},
	{Query: "button", Contains: "Search"},
	{Query: `input[type="submit"]`, Contains: "Search"},
	{Query: "button", Contains: "Submit"},
	{Query: `input[type="submit"]`, Contains: "Submit"},
	{Query: `input[type="submit"]`},
}

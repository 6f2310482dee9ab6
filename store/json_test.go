package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/tbmm-scraper/models"
)

func TestSave_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "proposals.json")

	require.NoError(t, Save(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestSave_LiteralText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proposals.json")
	p := models.NewStub("Türk Ceza Kanununda Değişiklik", "https://www.tbmm.gov.tr/kt?id=1&d=28", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	p.Extra = map[string]string{"field_5": "İçişleri"}

	require.NoError(t, Save(path, []*models.Proposal{p}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "Türk Ceza Kanununda Değişiklik")
	assert.Contains(t, out, `"https://www.tbmm.gov.tr/kt?id=1&d=28"`)
	assert.Contains(t, out, `"caseNumber": "UNKNOWN"`)
	assert.Contains(t, out, `"field_5": "İçişleri"`)
	assert.NotContains(t, out, `\u00`)
	assert.NotContains(t, out, `"status"`)
	assert.True(t, strings.HasPrefix(out, "[\n  {\n    \"title\""))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not remain")
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proposals.json")
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	a := models.NewStub("Gelir Vergisi Kanunu Teklifi", "https://x/1", at)
	a.CaseNumber, a.TermSession, a.Status = "2/1234", "28/3", models.StatusEnacted
	a.BodyText = "Madde 1\nMadde 2"
	b := models.NewStub("Tapu Kanununda Değişiklik", "https://x/2", at)
	b.Extra = map[string]string{"field_4": "01.02.2026"}

	require.NoError(t, Save(path, []*models.Proposal{a, b}))
	got, err := Load(path)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, *a, *got[0])
	assert.Equal(t, *b, *got[1])
}

func TestLoad_Missing(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/m760622/snabbaLexinTSR/internal/repository"
	"github.com/m760622/snabbaLexinTSR/internal/storage"
)

const testCatalog = `[
	{"id": 1, "primary_text": "ett hus", "translation": "بيت", "category": "hem", "sequence_number": 1, "example": "Vi bor i ett hus."},
	{"id": 2, "primary_text": "en bil", "translation": "سيارة", "category": "resa", "sequence_number": 2},
	{"id": 3, "primary_text": "ett tåg", "translation": "قطار", "category": "resa", "sequence_number": 3}
]`

func newTestApp() *app {
	return &app{kv: storage.NewMemoryStore(), logger: zap.NewNop()}
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))
	return path
}

func TestWriteCatalogReport(t *testing.T) {
	catalog, err := repository.LoadCatalogFile(writeCatalog(t))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeCatalogReport(&out, catalog))

	assert.Equal(t, "items: 3\nwith example sentence: 1\ncategory hem: 1\ncategory resa: 2\n", out.String())
}

func TestApp_ImportExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := newTestApp()

	n, err := a.importDump(ctx, []byte(`{
		"progress:42": {"favorites": [1], "memorized": [2]},
		"progress:7": {"version": 1, "total_score": 100, "records": {"3": {"times_wrong": 2, "difficulty_score": 4}}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var list bytes.Buffer
	require.NoError(t, a.list(ctx, &list))
	assert.Equal(t, "42\n7\n", list.String())

	var out bytes.Buffer
	require.NoError(t, a.export(ctx, &out, []string{"42", "missing"}))

	var dump map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out.Bytes(), &dump))
	require.Len(t, dump, 1)

	records, _, err := repository.DecodeSnapshot(dump["progress:42"])
	require.NoError(t, err)
	assert.True(t, records["1"].IsFavorite)
	assert.True(t, records["2"].IsMemorized)
}

func TestApp_ImportRejectsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	a := newTestApp()

	_, err := a.importDump(ctx, []byte(`{"progress:1": {"version": 1}, "progress:2": "not a snapshot"}`))
	require.Error(t, err)

	var list bytes.Buffer
	require.NoError(t, a.list(ctx, &list))
	assert.Empty(t, list.String(), "nothing is written when one snapshot is bad")
}

func TestApp_StatsAndReset(t *testing.T) {
	ctx := context.Background()
	a := newTestApp()

	_, err := a.importDump(ctx, []byte(`{
		"progress:7": {"version": 1, "total_score": 100, "questions_answered": 3,
			"records": {"1": {"memorized": true}, "3": {"times_wrong": 2, "difficulty_score": 4}}}
	}`))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, a.stats(ctx, &out, "7", writeCatalog(t)))
	assert.Contains(t, out.String(), "memorized: 1 / 3")
	assert.Contains(t, out.String(), "score: 100 (3 questions)")
	assert.Contains(t, out.String(), "mistake: ett tåg (قطار) wrong 2")

	require.NoError(t, a.reset(ctx, "7"))
	_, err = a.kv.Get(ctx, "progress:7")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

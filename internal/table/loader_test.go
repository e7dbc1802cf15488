package table

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLoadFileParsesTypesAndTrimsHeaders(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "itens.csv", []byte("\ufeff NOME , VALOR ,OBS\nParafuso,2.5,\nPorca,1,ok\n"))

	tab, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "itens.csv", tab.Name)
	assert.Equal(t, []string{"NOME", "VALOR", "OBS"}, tab.Columns)
	require.Equal(t, 2, tab.NumRows())

	assert.Equal(t, "Parafuso", tab.Rows[0]["NOME"])
	assert.Equal(t, 2.5, tab.Rows[0]["VALOR"])
	assert.Nil(t, tab.Rows[0]["OBS"], "empty cell becomes nil")
	assert.Equal(t, 1.0, tab.Rows[1]["VALOR"])
}

func TestLoadFileLatin1Fallback(t *testing.T) {
	dir := t.TempDir()
	// "DESCRIÇÃO" in ISO-8859-1: Ç=0xC7, Ã=0xC3, invalid as UTF-8.
	raw := append([]byte("DESCRI"), 0xC7, 0xC3)
	raw = append(raw, []byte("O\nma")...)
	raw = append(raw, 0xE7)
	raw = append(raw, []byte("a\n")...)
	path := writeFile(t, dir, "legacy.csv", raw)

	tab, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"DESCRIÇÃO"}, tab.Columns)
	assert.Equal(t, "maça", tab.Rows[0]["DESCRIÇÃO"])
}

func TestLoadFileEmpty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vazio.csv", nil)
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestLoadDirReportsFailuresWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", []byte("X\n1\n"))
	writeFile(t, dir, "b.csv", []byte("X,Y\n1\n")) // ragged record
	writeFile(t, dir, "c.csv", []byte("X\n3\n"))
	writeFile(t, dir, "notas.txt", []byte("ignored"))

	report, err := LoadDir(context.Background(), dir)
	require.NoError(t, err)

	tables := report.Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, "a.csv", tables[0].Name)
	assert.Equal(t, "c.csv", tables[1].Name)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "b.csv", failed[0].File)
	assert.Error(t, failed[0].Err)
}

func TestLoadPathSingleCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "um.csv", []byte("A\n1\n"))
	report, err := LoadPath(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, report.Tables(), 1)
	assert.Equal(t, "um.csv", report.Tables()[0].Name)
}

func TestLoadPathRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dados.xlsx", []byte("nope"))
	_, err := LoadPath(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported upload")
}

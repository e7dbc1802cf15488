package table

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, dir string, entries map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(dir, "upload.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestLoadPathZipArchive(t *testing.T) {
	dir := t.TempDir()
	path := writeZip(t, dir, map[string]string{
		"cabecalho.csv": "CHAVE DE ACESSO,VALOR NOTA FISCAL\nk1,100.5\n",
		"itens.csv":     "CHAVE DE ACESSO,QUANTIDADE\nk1,3\nk1,7\n",
		"leiame.txt":    "ignorado",
	})

	report, err := LoadPath(context.Background(), path)
	require.NoError(t, err)

	tables := report.Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, "cabecalho.csv", tables[0].Name)
	assert.Equal(t, "itens.csv", tables[1].Name)
	assert.Equal(t, 2, tables[1].NumRows())
	assert.Empty(t, report.Failed())
}

func TestExtractZipRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	path := writeZip(t, dir, map[string]string{
		"../fora.csv": "A\n1\n",
	})

	err := ExtractZip(path, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fora.csv")
}

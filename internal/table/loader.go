package table

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"

	"csvagent/internal/logging"
)

// maxParallelLoads bounds concurrent file decodes during a batch load.
const maxParallelLoads = 4

// LoadResult reports the outcome of loading one CSV file. Exactly one of
// Table or Err is set.
type LoadResult struct {
	File  string
	Table *Table
	Err   error
}

// LoadReport collects per-file results for a batch load. A failed file
// never aborts the batch; callers inspect Failed for partial errors.
type LoadReport struct {
	Results []LoadResult
}

// Tables returns the successfully loaded tables in file-name order.
func (r *LoadReport) Tables() []*Table {
	var out []*Table
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res.Table)
		}
	}
	return out
}

// Failed returns the results that carry an error.
func (r *LoadReport) Failed() []LoadResult {
	var out []LoadResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// LoadDir loads every *.csv file under dir (recursively). Files are decoded
// as UTF-8 with a Latin-1 fallback, headers are whitespace-trimmed and
// numeric cells are parsed to float64. Decoding runs concurrently but the
// report is ordered by file path.
func LoadDir(ctx context.Context, dir string) (*LoadReport, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(paths)

	report := &LoadReport{Results: make([]LoadResult, len(paths))}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				report.Results[i] = LoadResult{File: filepath.Base(path), Err: err}
				return nil
			}
			t, err := LoadFile(path)
			report.Results[i] = LoadResult{File: filepath.Base(path), Table: t, Err: err}
			if err != nil {
				logging.Session("load failed for %s: %v", filepath.Base(path), err)
			} else {
				logging.Session("loaded %s (%d rows)", t.Name, t.NumRows())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// LoadPath loads tables from a directory, a single .csv file or a .zip
// archive. Archives are extracted to a scratch directory first; an
// extraction failure aborts only this upload.
func LoadPath(ctx context.Context, path string) (*LoadReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	switch {
	case info.IsDir():
		return LoadDir(ctx, path)
	case strings.EqualFold(filepath.Ext(path), ".zip"):
		scratch, err := os.MkdirTemp("", "csvagent-upload-*")
		if err != nil {
			return nil, err
		}
		if err := ExtractZip(path, scratch); err != nil {
			return nil, fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
		}
		return LoadDir(ctx, scratch)
	case strings.EqualFold(filepath.Ext(path), ".csv"):
		t, err := LoadFile(path)
		return &LoadReport{Results: []LoadResult{{File: filepath.Base(path), Table: t, Err: err}}}, nil
	default:
		return nil, fmt.Errorf("unsupported upload %q: expected a directory, .csv or .zip", filepath.Base(path))
	}
}

// LoadFile reads and parses one CSV file into a Table named after the file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		// Legacy exports from Brazilian ERPs are commonly Latin-1.
		data, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
		}
	}

	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", filepath.Base(path))
	}

	header := records[0]
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(stripBOM(h))
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = parseCell(rec[i])
		}
		rows = append(rows, row)
	}
	return New(filepath.Base(path), columns, rows), nil
}

// parseCell converts a raw CSV field: empty becomes nil, numerals become
// float64, everything else stays a string.
func parseCell(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return s
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}

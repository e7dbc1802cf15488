// Package store persists LLM traces and per-question audit records in a
// local SQLite database. Persistence is best-effort observability: every
// caller treats a store failure as loggable, never fatal.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"csvagent/internal/llm"
	"csvagent/internal/logging"
)

// Store wraps the SQLite handle. Thread-safe with a read-write mutex.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// AuditRecord is the persisted form of one answered question. Mirrors the
// pipeline's audit type to avoid an import cycle.
type AuditRecord struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	ChosenTables []string  `json:"chosen_tables"`
	DetailTable  string    `json:"detail_table"`
	HeaderTable  string    `json:"header_table"`
	Snippet      string    `json:"snippet"`
	Success      bool      `json:"success"`
	Result       string    `json:"result,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Diagnostic   string    `json:"diagnostic,omitempty"`
	Answer       string    `json:"answer"`
	CreatedAt    time.Time `json:"created_at"`
}

// Open initializes the SQLite database at the given path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	logging.StoreLog("store opened at %s", path)
	return s, nil
}

func (s *Store) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS traces (
		id TEXT PRIMARY KEY,
		stage TEXT NOT NULL,
		prompt TEXT NOT NULL,
		response TEXT,
		error TEXT,
		duration_ms INTEGER,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audits (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		chosen_tables TEXT,
		detail_table TEXT,
		header_table TEXT,
		snippet TEXT,
		success BOOLEAN NOT NULL,
		result TEXT,
		error_message TEXT,
		diagnostic TEXT,
		answer TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_traces_stage ON traces(stage);
	CREATE INDEX IF NOT EXISTS idx_traces_created ON traces(created_at);
	CREATE INDEX IF NOT EXISTS idx_audits_created ON audits(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// StoreTrace persists one LLM round-trip. Implements llm.TraceStore.
func (s *Store) StoreTrace(t *llm.Trace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO traces (id, stage, prompt, response, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Stage, t.Prompt, t.Response, t.Error, t.DurationMs, t.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to store trace: %w", err)
	}
	return nil
}

// StoreAudit persists the audit record of one answered question.
func (s *Store) StoreAudit(a *AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chosen, err := json.Marshal(a.ChosenTables)
	if err != nil {
		return fmt.Errorf("failed to encode chosen tables: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO audits (id, question, chosen_tables, detail_table, header_table,
		 snippet, success, result, error_message, diagnostic, answer, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Question, string(chosen), a.DetailTable, a.HeaderTable,
		a.Snippet, a.Success, a.Result, a.ErrorMessage, a.Diagnostic, a.Answer, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store audit: %w", err)
	}
	return nil
}

// RecentTraces returns up to n traces, newest first.
func (s *Store) RecentTraces(n int) ([]llm.Trace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, stage, prompt, response, error, duration_ms, created_at
		 FROM traces ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query traces: %w", err)
	}
	defer rows.Close()

	var traces []llm.Trace
	for rows.Next() {
		var t llm.Trace
		if err := rows.Scan(&t.ID, &t.Stage, &t.Prompt, &t.Response, &t.Error, &t.DurationMs, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan trace: %w", err)
		}
		traces = append(traces, t)
	}
	return traces, rows.Err()
}

// RecentAudits returns up to n audit records, newest first.
func (s *Store) RecentAudits(n int) ([]AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, question, chosen_tables, detail_table, header_table,
		 snippet, success, result, error_message, diagnostic, answer, created_at
		 FROM audits ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	var audits []AuditRecord
	for rows.Next() {
		var a AuditRecord
		var chosen string
		if err := rows.Scan(&a.ID, &a.Question, &chosen, &a.DetailTable, &a.HeaderTable,
			&a.Snippet, &a.Success, &a.Result, &a.ErrorMessage, &a.Diagnostic, &a.Answer, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		if chosen != "" {
			if err := json.Unmarshal([]byte(chosen), &a.ChosenTables); err != nil {
				return nil, fmt.Errorf("failed to decode chosen tables: %w", err)
			}
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

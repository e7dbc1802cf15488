package pipeline

import (
	"context"
	"sync"

	"csvagent/internal/logging"
	"csvagent/internal/store"
	"csvagent/internal/table"
)

// Entry is one question/answer pair in the session history.
type Entry struct {
	Question string
	Answer   string
}

// AuditSink persists audit records. The SQLite store implements it; tests
// use in-memory fakes. Persistence failures are logged, never surfaced.
type AuditSink interface {
	StoreAudit(a *store.AuditRecord) error
}

// Session owns one conversation's mutable state: the table store, the
// append-only history and the audit trail. Sessions share nothing; a
// concurrent server gives each its own instance.
type Session struct {
	Tables *table.Store

	pipe *Pipeline
	sink AuditSink

	mu      sync.Mutex
	history []Entry
	audits  []*Audit
}

// NewSession creates a session with an empty table store. sink may be nil.
func NewSession(pipe *Pipeline, sink AuditSink) *Session {
	return &Session{Tables: table.NewStore(), pipe: pipe, sink: sink}
}

// Load ingests CSV data from a path (file, directory or zip archive) and
// atomically replaces the table store: no previously loaded table remains
// queryable afterward.
func (s *Session) Load(ctx context.Context, path string) (*table.LoadReport, error) {
	res, err := table.LoadPath(ctx, path)
	if err != nil {
		return nil, err
	}
	s.Tables.Replace(res.Tables())
	logging.Session("store replaced: %d tables loaded from %s", s.Tables.Len(), path)
	return res, nil
}

// Ask answers one question, appends it to the history and records the
// audit. History order is arrival order; this method is the only writer.
func (s *Session) Ask(ctx context.Context, question string) (string, *Audit) {
	answer, audit := s.pipe.Answer(ctx, question, s.Tables)

	s.mu.Lock()
	s.history = append(s.history, Entry{Question: question, Answer: answer})
	s.audits = append(s.audits, audit)
	s.mu.Unlock()

	if s.sink != nil {
		if err := s.sink.StoreAudit(toRecord(audit)); err != nil {
			logging.StoreError("audit persist failed: %v", err)
		}
	}
	return answer, audit
}

// History returns a copy of the question/answer pairs in arrival order.
func (s *Session) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.history))
	copy(out, s.history)
	return out
}

// LastAudit returns the audit record of the most recent question, or nil.
func (s *Session) LastAudit() *Audit {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.audits) == 0 {
		return nil
	}
	return s.audits[len(s.audits)-1]
}

func toRecord(a *Audit) *store.AuditRecord {
	return &store.AuditRecord{
		ID:           a.ID,
		Question:     a.Question,
		ChosenTables: a.Chosen,
		DetailTable:  a.Detail,
		HeaderTable:  a.Header,
		Snippet:      a.Snippet,
		Success:      a.Outcome.Success,
		Result:       a.Outcome.Result,
		ErrorMessage: a.Outcome.Err,
		Diagnostic:   a.Outcome.Diagnostic,
		Answer:       a.Answer,
		CreatedAt:    a.Timestamp,
	}
}

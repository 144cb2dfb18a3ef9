// audit_backend.go: Storage backends for the invocation audit trail
//
// Two backends implement the same minimal contract: JSONL files for
// grep-able, shippable logs, and SQLite for queryable trails. The
// output file extension selects the backend: ".db" means SQLite,
// anything else means JSONL.
//
// Copyright (c) 2025 AGILira
// Series: AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// auditBackend abstracts audit event persistence.
type auditBackend interface {
	Write(events []AuditEvent) error
	Close() error
}

// newAuditBackend selects a backend from the output file extension.
func newAuditBackend(config AuditConfig) (auditBackend, error) {
	if config.OutputFile == "" {
		config.OutputFile = DefaultAuditConfig().OutputFile
	}
	if filepath.Ext(config.OutputFile) == ".db" {
		return newSQLiteBackend(config.OutputFile)
	}
	return newJSONLBackend(config.OutputFile)
}

// sqliteAuditBackend stores events in a single-table SQLite database.
// WAL mode keeps writers from blocking the occasional reader.
type sqliteAuditBackend struct {
	db         *sql.DB
	insertStmt *sql.Stmt
	mu         sync.Mutex
	closed     bool
}

func newSQLiteBackend(path string) (*sqliteAuditBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create audit database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS audit_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		level TEXT NOT NULL,
		event TEXT NOT NULL,
		subject TEXT NOT NULL,
		process_id INTEGER NOT NULL,
		context TEXT,
		checksum TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_event ON audit_events(event, subject);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	stmt, err := db.Prepare(`
	INSERT INTO audit_events (timestamp, level, event, subject, process_id, context, checksum)
	VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare audit insert: %w", err)
	}

	return &sqliteAuditBackend{db: db, insertStmt: stmt}, nil
}

func (s *sqliteAuditBackend) Write(events []AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("audit backend is closed")
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	stmt := tx.Stmt(s.insertStmt)
	for _, event := range events {
		contextJSON := ""
		if event.Context != nil {
			data, err := json.Marshal(event.Context)
			if err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("failed to serialize audit context: %w", err)
			}
			contextJSON = string(data)
		}
		if _, err := stmt.Exec(
			event.Timestamp.Format(time.RFC3339Nano),
			event.Level.String(),
			event.Event,
			event.Subject,
			event.ProcessID,
			contextJSON,
			event.Checksum,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert audit event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit transaction: %w", err)
	}
	return nil
}

func (s *sqliteAuditBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.insertStmt != nil {
		_ = s.insertStmt.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// jsonlAuditBackend appends one JSON object per line.
type jsonlAuditBackend struct {
	file   *os.File
	mu     sync.Mutex
	closed bool
}

func newJSONLBackend(path string) (*jsonlAuditBackend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create audit log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec G304 -- path from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}
	return &jsonlAuditBackend{file: file}, nil
}

func (j *jsonlAuditBackend) Write(events []AuditEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return fmt.Errorf("audit backend is closed")
	}
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to serialize audit event: %w", err)
		}
		data = append(data, '\n')
		if _, err := j.file.Write(data); err != nil {
			return fmt.Errorf("failed to write audit event: %w", err)
		}
	}
	return j.file.Sync()
}

func (j *jsonlAuditBackend) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}

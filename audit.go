// audit.go: Invocation audit trail
//
// Optional, buffered audit logging of command registrations and wake
// invocations, with tamper-detection checksums on every event. Events
// buffer in memory and flush on a background ticker, on buffer
// pressure, and on close.
//
// Copyright (c) 2025 AGILira
// Series: AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// AuditLevel represents the severity of audit events
type AuditLevel int

const (
	AuditInfo AuditLevel = iota
	AuditWarn
	AuditCritical
)

func (al AuditLevel) String() string {
	switch al {
	case AuditInfo:
		return "INFO"
	case AuditWarn:
		return "WARN"
	case AuditCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// AuditEvent is a single auditable occurrence: a registration, a
// configuration load, an override application, or an invocation
// outcome.
type AuditEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     AuditLevel             `json:"level"`
	Event     string                 `json:"event"`
	Subject   string                 `json:"subject"`
	ProcessID int                    `json:"process_id"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Checksum  string                 `json:"checksum"`
}

// AuditConfig configures the audit trail.
type AuditConfig struct {
	Enabled       bool          `json:"enabled"`
	OutputFile    string        `json:"output_file"`
	MinLevel      AuditLevel    `json:"min_level"`
	BufferSize    int           `json:"buffer_size"`
	FlushInterval time.Duration `json:"flush_interval"`
}

// DefaultAuditConfig returns an enabled configuration writing JSONL
// next to the process. A ".db" OutputFile selects SQLite storage
// instead.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:       true,
		OutputFile:    "hypnos-audit.jsonl",
		MinLevel:      AuditInfo,
		BufferSize:    256,
		FlushInterval: 5 * time.Second,
	}
}

// AuditLogger buffers audit events and delegates persistence to a
// pluggable backend.
type AuditLogger struct {
	config      AuditConfig
	backend     auditBackend
	buffer      []AuditEvent
	bufferMu    sync.Mutex
	flushTicker *time.Ticker
	stopCh      chan struct{}
	closeOnce   sync.Once
	processID   int
}

// NewAuditLogger creates an audit logger with a backend selected from
// the output file extension.
func NewAuditLogger(config AuditConfig) (*AuditLogger, error) {
	if config.BufferSize <= 0 {
		config.BufferSize = 256
	}
	backend, err := newAuditBackend(config)
	if err != nil {
		return nil, err
	}

	logger := &AuditLogger{
		config:    config,
		backend:   backend,
		buffer:    make([]AuditEvent, 0, config.BufferSize),
		stopCh:    make(chan struct{}),
		processID: os.Getpid(),
	}

	if config.FlushInterval > 0 {
		logger.flushTicker = time.NewTicker(config.FlushInterval)
		go logger.flushLoop()
	}
	return logger, nil
}

// Log records one audit event. Safe on a nil logger so callers never
// branch on whether auditing is enabled.
func (al *AuditLogger) Log(level AuditLevel, event, subject string, context map[string]interface{}) {
	if al == nil || al.backend == nil || !al.config.Enabled || level < al.config.MinLevel {
		return
	}

	// Cached timestamp: audit logging must not dominate invocation cost.
	auditEvent := AuditEvent{
		Timestamp: timecache.CachedTime(),
		Level:     level,
		Event:     event,
		Subject:   subject,
		ProcessID: al.processID,
		Context:   context,
	}
	auditEvent.Checksum = generateChecksum(auditEvent)

	al.bufferMu.Lock()
	al.buffer = append(al.buffer, auditEvent)
	if len(al.buffer) >= al.config.BufferSize {
		_ = al.flushBufferUnsafe()
	}
	al.bufferMu.Unlock()
}

// Flush immediately writes all buffered events.
func (al *AuditLogger) Flush() error {
	if al == nil {
		return nil
	}
	al.bufferMu.Lock()
	defer al.bufferMu.Unlock()
	return al.flushBufferUnsafe()
}

// Close flushes remaining events and releases the backend. Closing an
// already-closed logger is a no-op.
func (al *AuditLogger) Close() error {
	if al == nil {
		return nil
	}
	var err error
	al.closeOnce.Do(func() {
		close(al.stopCh)
		if al.flushTicker != nil {
			al.flushTicker.Stop()
		}
		if err = al.Flush(); err != nil {
			err = fmt.Errorf("failed to flush audit logger during close: %w", err)
			return
		}
		if al.backend != nil {
			err = al.backend.Close()
		}
	})
	return err
}

func (al *AuditLogger) flushLoop() {
	for {
		select {
		case <-al.flushTicker.C:
			_ = al.Flush()
		case <-al.stopCh:
			return
		}
	}
}

// flushBufferUnsafe writes the buffer to the backend. Caller holds
// bufferMu.
func (al *AuditLogger) flushBufferUnsafe() error {
	if len(al.buffer) == 0 {
		return nil
	}
	if err := al.backend.Write(al.buffer); err != nil {
		return fmt.Errorf("failed to write audit events: %w", err)
	}
	al.buffer = al.buffer[:0]
	return nil
}

// generateChecksum creates a tamper-detection checksum using SHA-256.
func generateChecksum(event AuditEvent) string {
	data := fmt.Sprintf("%s:%s:%s:%d",
		event.Timestamp.Format(time.RFC3339Nano),
		event.Event, event.Subject, event.ProcessID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// manager.go: CLI orchestration for the Hypnos configuration utility
//
// This package implements the Orpheus-powered companion CLI for Hypnos.
// It operates on the same YAML and JSON configuration files that a
// Hypnos registry loads and writes, and can query the audit trail the
// registry produces.
//
// Architecture:
// - Manager: command routing and setup
// - Handlers: individual command implementations
// - Utils: shared helpers for key traversal and templates
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"github.com/agilira/hypnos"
	"github.com/agilira/orpheus/pkg/orpheus"
)

// Version is the CLI release version reported by the version command.
const Version = "1.0.0"

// Manager routes CLI commands for Hypnos configuration files.
type Manager struct {
	app         *orpheus.App
	auditLogger *hypnos.AuditLogger // Optional audit integration
}

// NewManager creates the CLI manager with all commands registered.
func NewManager() *Manager {
	app := orpheus.New("hypnos").
		SetDescription("Declarative command and configuration management").
		SetVersion(Version)

	manager := &Manager{
		app: app,
	}

	manager.setupConfigCommands()
	manager.setupAuditCommands()
	manager.setupUtilityCommands()

	return manager
}

// WithAudit enables audit logging for CLI operations.
func (m *Manager) WithAudit(auditLogger *hypnos.AuditLogger) *Manager {
	m.auditLogger = auditLogger
	return m
}

// Run executes the CLI application with the provided arguments.
func (m *Manager) Run(args []string) error {
	return m.app.Run(args)
}

// setupConfigCommands configures the 'config' command group for file
// operations: show, get, validate, convert and init.
func (m *Manager) setupConfigCommands() {
	configCmd := orpheus.NewCommand("config", "Configuration file operations")

	// config show <file> [--prefix=]
	showCmd := configCmd.Subcommand("show", "Show configuration keys and values", m.handleConfigShow)
	showCmd.AddFlag("prefix", "p", "", "Key prefix filter")

	// config get <file> <key>
	configCmd.Subcommand("get", "Get a configuration value by dot path", m.handleConfigGet)

	// config validate <file>
	configCmd.Subcommand("validate", "Validate configuration file syntax", m.handleConfigValidate)

	// config convert <input> <output>
	configCmd.Subcommand("convert", "Convert between YAML and JSON", m.handleConfigConvert)

	// config init <file> [--template=default]
	initCmd := orpheus.NewCommand("init", "Initialize a new configuration file").
		AddFlag("template", "t", "default", "Template type (default|trainer|minimal)").
		SetHandler(m.handleConfigInit)
	configCmd.AddSubcommand(initCmd)

	m.app.AddCommand(configCmd)
}

// setupAuditCommands configures the 'audit' command group.
func (m *Manager) setupAuditCommands() {
	auditCmd := orpheus.NewCommand("audit", "Audit trail inspection")

	queryCmd := auditCmd.Subcommand("query", "Query a JSON Lines audit trail", m.handleAuditQuery)
	queryCmd.AddFlag("file", "f", "hypnos-audit.jsonl", "Audit trail file")
	queryCmd.AddFlag("since", "s", "", "Time range (e.g. 24h, 7d, 2w)")
	queryCmd.AddFlag("event", "e", "", "Event type filter")
	queryCmd.AddIntFlag("limit", "l", 100, "Maximum results")

	m.app.AddCommand(auditCmd)
}

// setupUtilityCommands configures the remaining standalone commands.
func (m *Manager) setupUtilityCommands() {
	versionCmd := orpheus.NewCommand("version", "Print version information")
	versionCmd.SetHandler(m.handleVersion)
	m.app.AddCommand(versionCmd)
}

// handlers.go: Command handlers for the Hypnos CLI
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/hypnos"
	"github.com/agilira/orpheus/pkg/orpheus"
)

// handleConfigShow prints every key in a configuration file as a
// flattened dot path, optionally filtered by prefix.
func (m *Manager) handleConfigShow(ctx *orpheus.Context) error {
	filePath := ctx.GetArg(0)
	prefix := ctx.GetFlagString("prefix")

	m.auditCommand("cli_config_show", filePath)

	value, err := hypnos.LoadFile(filePath)
	if err != nil {
		return errors.Wrap(err, hypnos.ErrCodeIO, "failed to load configuration")
	}

	entries := flattenValue(value, prefix)
	if len(entries) == 0 {
		if prefix != "" {
			fmt.Printf("No keys found with prefix '%s'\n", prefix)
		} else {
			fmt.Println("No configuration keys found")
		}
		return nil
	}

	fmt.Printf("Configuration keys in %s:\n", filePath)
	for _, e := range entries {
		fmt.Printf("  %s = %v\n", e.key, e.value)
	}
	return nil
}

// handleConfigGet retrieves a single value using dot notation.
func (m *Manager) handleConfigGet(ctx *orpheus.Context) error {
	filePath := ctx.GetArg(0)
	key := ctx.GetArg(1)

	m.auditCommand("cli_config_get", filePath)

	value, err := hypnos.LoadFile(filePath)
	if err != nil {
		return errors.Wrap(err, hypnos.ErrCodeIO, "failed to load configuration")
	}

	found, ok := lookupValue(value, key)
	if !ok {
		return errors.New(hypnos.ErrCodeUnknownConfig, fmt.Sprintf("key '%s' not found", key))
	}

	fmt.Printf("%v\n", found)
	return nil
}

// handleConfigValidate checks that a configuration file parses.
func (m *Manager) handleConfigValidate(ctx *orpheus.Context) error {
	filePath := ctx.GetArg(0)

	m.auditCommand("cli_config_validate", filePath)

	if _, err := hypnos.LoadFile(filePath); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		return err
	}

	fmt.Printf("Valid configuration: %s\n", filePath)
	return nil
}

// handleConfigConvert rewrites a configuration file in the format the
// output extension selects. YAML to JSON and back.
func (m *Manager) handleConfigConvert(ctx *orpheus.Context) error {
	inputPath := ctx.GetArg(0)
	outputPath := ctx.GetArg(1)

	m.auditCommand("cli_config_convert", inputPath)

	value, err := hypnos.LoadFile(inputPath)
	if err != nil {
		return errors.Wrap(err, hypnos.ErrCodeIO, "failed to load input configuration")
	}

	if err := hypnos.WriteFile(outputPath, value); err != nil {
		return errors.Wrap(err, hypnos.ErrCodeIO, "failed to write output configuration")
	}

	fmt.Printf("Converted %s -> %s\n", inputPath, outputPath)
	return nil
}

// handleConfigInit creates a new configuration file from a template.
func (m *Manager) handleConfigInit(ctx *orpheus.Context) error {
	filePath := ctx.GetArg(0)
	template := ctx.GetFlagString("template")
	if template == "" {
		template = "default"
	}

	if _, err := os.Stat(filePath); err == nil {
		return errors.New(hypnos.ErrCodeIO, fmt.Sprintf("file already exists: %s", filePath))
	}

	m.auditCommand("cli_config_init", filePath)

	config, err := generateTemplate(template)
	if err != nil {
		return err
	}

	if err := hypnos.WriteFile(filePath, config); err != nil {
		return errors.Wrap(err, hypnos.ErrCodeIO, "failed to write configuration")
	}

	fmt.Printf("Created configuration: %s\n", filePath)
	fmt.Printf("Template: %s\n", template)
	return nil
}

// handleAuditQuery scans a JSON Lines audit trail with optional
// event and time filters.
func (m *Manager) handleAuditQuery(ctx *orpheus.Context) error {
	filePath := ctx.GetFlagString("file")
	eventFilter := ctx.GetFlagString("event")
	sinceStr := ctx.GetFlagString("since")
	limit := ctx.GetFlagInt("limit")

	var since time.Time
	if sinceStr != "" {
		d, err := parseExtendedDuration(sinceStr)
		if err != nil {
			return errors.New(hypnos.ErrCodeInvalidFormat, fmt.Sprintf("invalid time range: %v", err))
		}
		since = time.Now().Add(-d)
	}

	f, err := os.Open(filePath) // #nosec G304 -- operator-supplied audit path
	if err != nil {
		return errors.Wrap(err, hypnos.ErrCodeIO, "failed to open audit trail")
	}
	defer func() { _ = f.Close() }()

	shown := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && shown < limit {
		var event hypnos.AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue // tolerate partial trailing writes
		}
		if eventFilter != "" && event.Event != eventFilter {
			continue
		}
		if !since.IsZero() && event.Timestamp.Before(since) {
			continue
		}
		fmt.Printf("%s  %-8s  %-24s  %s\n",
			event.Timestamp.Format(time.RFC3339),
			event.Level.String(),
			event.Event,
			event.Subject)
		shown++
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, hypnos.ErrCodeIO, "failed to read audit trail")
	}

	fmt.Printf("%d events shown\n", shown)
	return nil
}

// handleVersion prints version and build information.
func (m *Manager) handleVersion(ctx *orpheus.Context) error {
	fmt.Printf("hypnos %s\n", Version)
	fmt.Printf("go: %s\n", runtime.Version())
	fmt.Printf("platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return nil
}

// auditCommand records a CLI operation when audit logging is enabled.
func (m *Manager) auditCommand(event, filePath string) {
	if m.auditLogger != nil {
		m.auditLogger.Log(hypnos.AuditInfo, event, filePath, nil)
	}
}

// utils.go: Shared helpers for the Hypnos CLI
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/hypnos"
)

type flatEntry struct {
	key   string
	value interface{}
}

// flattenValue walks a parsed configuration and returns dot-path keys
// for every leaf, sorted, filtered by prefix when one is given.
func flattenValue(value interface{}, prefix string) []flatEntry {
	var entries []flatEntry
	flattenInto(&entries, "", value)
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	if prefix == "" {
		return entries
	}
	filtered := entries[:0]
	for _, e := range entries {
		if strings.HasPrefix(e.key, prefix) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func flattenInto(entries *[]flatEntry, path string, value interface{}) {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, child := range v {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			flattenInto(entries, childPath, child)
		}
	case []interface{}:
		for i, child := range v {
			childPath := strconv.Itoa(i)
			if path != "" {
				childPath = path + "." + childPath
			}
			flattenInto(entries, childPath, child)
		}
	default:
		if path == "" {
			return
		}
		*entries = append(*entries, flatEntry{key: path, value: v})
	}
}

// lookupValue descends a parsed configuration by dot-separated path.
func lookupValue(value interface{}, key string) (interface{}, bool) {
	current := value
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// generateTemplate returns starter configuration content by name.
func generateTemplate(templateType string) (map[string]interface{}, error) {
	switch templateType {
	case "trainer":
		return map[string]interface{}{
			"model": map[string]interface{}{
				"layers": 4,
				"rate":   0.001,
			},
			"data": map[string]interface{}{
				"path":       "./data",
				"batch_size": 32,
			},
			"seed": 7,
		}, nil
	case "minimal":
		return map[string]interface{}{
			"name":  "my-application",
			"debug": false,
		}, nil
	case "default":
		return map[string]interface{}{
			"app": map[string]interface{}{
				"name":        "hypnos-app",
				"environment": "development",
			},
			"logging": map[string]interface{}{
				"level": "info",
			},
		}, nil
	default:
		return nil, errors.New(hypnos.ErrCodeInvalidFormat, fmt.Sprintf("unknown template: %s", templateType))
	}
}

var extendedDurationRe = regexp.MustCompile(`^(\d+)(d|w)$`)

// parseExtendedDuration parses duration strings with extended units.
// Supports the Go standard units plus d (days) and w (weeks).
func parseExtendedDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	matches := extendedDurationRe.FindStringSubmatch(s)
	if len(matches) != 3 {
		_, err := time.ParseDuration(s)
		return 0, err
	}

	value, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value: %s", matches[1])
	}

	switch matches[2] {
	case "w":
		return time.Duration(value) * 7 * 24 * time.Hour, nil
	default: // "d"
		return time.Duration(value) * 24 * time.Hour, nil
	}
}

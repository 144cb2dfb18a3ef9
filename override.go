// override.go: Command-line override resolution
//
// Leftover command-line tokens become configuration overrides. A token
// containing '=' is dict-like, otherwise list-like; either form may be
// scoped to one configuration with an id prefix ("db::host=x"), matched
// by unambiguous abbreviation. Unprefixed tokens apply to every
// configuration whose schema accepts their shape. List-like overrides
// replace sequence configurations wholesale; dict-like overrides merge
// by dot-path into mappings and coerce declared fields of typed
// configurations, silently ignoring undeclared field names.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"strings"

	"github.com/agilira/go-errors"
	"go.yaml.in/yaml/v3"
)

// overrideToken is one parsed leftover argument.
type overrideToken struct {
	raw      string
	prefix   string
	scoped   bool
	key      string
	value    string
	dictLike bool
}

// parseOverrideToken splits a raw token into its scope, key and value.
// The '=' split happens first, so values may freely contain the prefix
// separator.
func parseOverrideToken(raw, sep string) (overrideToken, error) {
	tok := overrideToken{raw: raw}

	keyPart := raw
	if eq := strings.Index(raw, "="); eq >= 0 {
		keyPart = raw[:eq]
		tok.value = raw[eq+1:]
		tok.dictLike = true
	}

	parts := strings.Split(keyPart, sep)
	switch len(parts) {
	case 1:
		if tok.dictLike {
			tok.key = keyPart
		} else {
			tok.value = keyPart
		}
	case 2:
		tok.prefix = parts[0]
		tok.scoped = true
		if tok.dictLike {
			tok.key = parts[1]
		} else {
			tok.value = parts[1]
		}
	default:
		return tok, errors.New(ErrCodeUnknownConfig, "malformed override token").
			WithContext("token", raw)
	}

	if tok.dictLike && tok.key == "" {
		return tok, errors.New(ErrCodeUnknownConfig, "override key cannot be empty").
			WithContext("token", raw)
	}
	return tok, nil
}

// overrideState stages the pending override variant for one
// configuration while tokens apply.
type overrideState struct {
	entry *ConfigEntry

	listValues []interface{}
	mapValue   map[string]interface{}
	structVal  *StructValue
}

// applyOverrides resolves the leftover tokens against the tracked
// configurations and installs an override variant on every
// configuration that received at least one override.
func applyOverrides(set *ParamSet, tokens []string, opts Options) error {
	staged := make(map[string]*overrideState)
	assigned := make(map[string]bool)

	for _, raw := range tokens {
		tok, err := parseOverrideToken(raw, opts.PrefixSep)
		if err != nil {
			return err
		}

		var targets []*ConfigEntry
		if tok.scoped {
			targets, err = matchPrefixed(set, tok, opts)
		} else {
			targets, err = matchShared(set, tok, opts)
		}
		if err != nil {
			return err
		}

		for _, entry := range targets {
			if tok.dictLike && opts.uniqueOverrides() {
				mark := entry.id + "\x00" + tok.key
				if assigned[mark] {
					return errors.New(ErrCodeDuplicateOverride, "override key supplied more than once").
						WithContext("config", entry.id).
						WithContext("key", tok.key)
				}
				assigned[mark] = true
			}
			if err := stagedFor(staged, entry).apply(tok); err != nil {
				return err
			}
		}
	}

	for _, entry := range set.Configs() {
		state, ok := staged[entry.id]
		if !ok {
			continue
		}
		entry.Set(VariantOverride, state.result(), true)
	}
	return nil
}

// matchPrefixed resolves a scoped token's target configurations by
// abbreviation against every tracked id.
func matchPrefixed(set *ParamSet, tok overrideToken, opts Options) ([]*ConfigEntry, error) {
	var matches []*ConfigEntry
	for _, entry := range set.Configs() {
		if strings.HasPrefix(entry.id, tok.prefix) {
			matches = append(matches, entry)
		}
	}
	if len(matches) == 0 {
		return nil, errors.New(ErrCodeUnknownConfig, "override prefix matches no configuration").
			WithContext("token", tok.raw).
			WithContext("prefix", tok.prefix)
	}
	if len(matches) > 1 && opts.exclusivePrefixed() {
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.id
		}
		return nil, errors.New(ErrCodeAmbiguousPrefix, "override prefix matches more than one configuration").
			WithContext("token", tok.raw).
			WithContext("prefix", tok.prefix).
			WithContext("matches", strings.Join(ids, ","))
	}

	// Scoped tokens are strict: every match must accept the shape.
	for _, entry := range matches {
		if !accepts(entry, tok) {
			return nil, errors.New(ErrCodeUnknownConfig, "configuration cannot accept override").
				WithContext("token", tok.raw).
				WithContext("config", entry.id).
				WithContext("schema", entry.schema.Kind().String())
		}
	}
	return matches, nil
}

// matchShared resolves an unprefixed token against every configuration
// whose schema accepts its shape. A token nothing accepts is a silent
// no-op: shared overrides are not necessarily intended for every
// configuration, so a mismatch is not an error.
func matchShared(set *ParamSet, tok overrideToken, opts Options) ([]*ConfigEntry, error) {
	var matches []*ConfigEntry
	for _, entry := range set.Configs() {
		if accepts(entry, tok) {
			matches = append(matches, entry)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 && opts.ExclusiveShared {
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.id
		}
		return nil, errors.New(ErrCodeNonExclusiveOverride, "override accepted by more than one configuration in exclusive mode").
			WithContext("token", tok.raw).
			WithContext("matches", strings.Join(ids, ","))
	}
	return matches, nil
}

// accepts reports whether a configuration's schema can take the token's
// shape. Typed schemas accept only declared field names; undeclared
// names are ignored rather than raised when the token later applies, so
// acceptance and strictness agree.
func accepts(entry *ConfigEntry, tok overrideToken) bool {
	switch entry.schema.Kind() {
	case SchemaList:
		return !tok.dictLike
	case SchemaMap:
		return tok.dictLike
	case SchemaStruct:
		if !tok.dictLike || strings.Contains(tok.key, ".") {
			return false
		}
		schema := entry.schema.(*StructSchema)
		if schema.HasField(tok.key) {
			return true
		}
		// A scoped token targeting this configuration is accepted and
		// ignored; an unprefixed one simply does not match here.
		return tok.scoped
	default:
		return false
	}
}

// stagedFor returns (building on demand) the staging state for one
// configuration, seeded from its latest variant.
func stagedFor(staged map[string]*overrideState, entry *ConfigEntry) *overrideState {
	if state, ok := staged[entry.id]; ok {
		return state
	}
	state := &overrideState{entry: entry}

	latest, err := entry.Latest()
	if err != nil {
		latest = entry.schema.DefaultValue()
	}

	switch entry.schema.Kind() {
	case SchemaList:
		// Sequence overrides replace wholesale: staging starts empty
		// and collects only the override values.
		state.listValues = make([]interface{}, 0, 4)
	case SchemaMap:
		m, ok := deepCopyValue(latest).(map[string]interface{})
		if !ok {
			m = make(map[string]interface{})
		}
		state.mapValue = m
	case SchemaStruct:
		sv, ok := latest.(*StructValue)
		if !ok {
			sv = entry.schema.DefaultValue().(*StructValue)
		}
		state.structVal = sv.Clone()
	}

	staged[entry.id] = state
	return state
}

// apply folds one token into the staged value.
func (s *overrideState) apply(tok overrideToken) error {
	switch s.entry.schema.Kind() {
	case SchemaList:
		s.listValues = append(s.listValues, parseScalar(tok.value))
		return nil
	case SchemaMap:
		return setPath(s.mapValue, strings.Split(tok.key, "."), parseScalar(tok.value))
	case SchemaStruct:
		if !s.structVal.schema.HasField(tok.key) {
			// Undeclared fields are ignored for typed configurations.
			return nil
		}
		return s.structVal.Set(tok.key, tok.value)
	default:
		return errors.New(ErrCodeUnknownConfig, "configuration cannot accept override").
			WithContext("config", s.entry.id)
	}
}

// result returns the finished override variant value.
func (s *overrideState) result() interface{} {
	switch s.entry.schema.Kind() {
	case SchemaList:
		return s.listValues
	case SchemaMap:
		return s.mapValue
	default:
		return s.structVal
	}
}

// setPath assigns a value at a dot-separated path, creating
// intermediate mappings and replacing non-mapping intermediates.
func setPath(m map[string]interface{}, path []string, value interface{}) error {
	if len(path) == 0 || path[0] == "" {
		return errors.New(ErrCodeUnknownConfig, "override key cannot be empty")
	}
	head := path[0]
	if len(path) == 1 {
		m[head] = value
		return nil
	}
	next, ok := m[head].(map[string]interface{})
	if !ok {
		next = make(map[string]interface{})
		m[head] = next
	}
	return setPath(next, path[1:], value)
}

// parseScalar interprets an override value as a YAML scalar so numbers
// and booleans keep their natural types. Unparseable input stays a
// string.
func parseScalar(s string) interface{} {
	var out interface{}
	if err := yaml.Unmarshal([]byte(s), &out); err != nil {
		return s
	}
	if out == nil && strings.TrimSpace(s) != "" && strings.TrimSpace(s) != "null" && strings.TrimSpace(s) != "~" {
		return s
	}
	return out
}

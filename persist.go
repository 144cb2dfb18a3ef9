// persist.go: Configuration file persistence
//
// Serializable configurations read and write YAML or JSON files chosen
// by extension. The persistence manager tracks one path flag per
// configuration ("--<id>-path") with a default of "<id>.yaml", so every
// file can be relocated on the command line.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/agilira/go-errors"
	"go.yaml.in/yaml/v3"
)

// Extension is a supported configuration file extension.
type Extension string

const (
	ExtYAML Extension = ".yaml"
	ExtYML  Extension = ".yml"
	ExtJSON Extension = ".json"
)

// MaybeAddExt appends the extension when the path has none.
func MaybeAddExt(path string, ext Extension) string {
	if filepath.Ext(path) == "" {
		return path + string(ext)
	}
	return path
}

func isYAMLExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == string(ExtYAML) || ext == string(ExtYML)
}

func isJSONExt(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == string(ExtJSON)
}

// validExt reports whether the path carries a supported extension.
func validExt(path string) bool {
	return isYAMLExt(path) || isJSONExt(path)
}

type persistEntry struct {
	flagName    string
	defaultPath string
	ext         Extension
}

// PersistenceManager tracks file locations for serializable
// configurations.
type PersistenceManager struct {
	entries map[string]persistEntry
}

// NewPersistenceManager creates an empty manager.
func NewPersistenceManager() *PersistenceManager {
	return &PersistenceManager{entries: make(map[string]persistEntry)}
}

// Track registers a configuration id with the default YAML extension.
// Tracking an already-tracked id is a no-op, so several commands can
// share a configuration.
func (p *PersistenceManager) Track(id string) error {
	return p.TrackAs(id, ExtYAML)
}

// TrackAs registers a configuration id with an explicit extension.
func (p *PersistenceManager) TrackAs(id string, ext Extension) error {
	if id == "" {
		return errors.New(ErrCodeDeclaration, "configuration id cannot be empty")
	}
	switch ext {
	case ExtYAML, ExtYML, ExtJSON:
	default:
		return errors.New(ErrCodeInvalidFormat, "unsupported configuration file extension").
			WithContext("config", id).
			WithContext("extension", string(ext))
	}
	if _, ok := p.entries[id]; ok {
		return nil
	}
	p.entries[id] = persistEntry{
		flagName:    id + "-path",
		defaultPath: id + string(ext),
		ext:         ext,
	}
	return nil
}

// FlagName returns the path flag for a tracked configuration.
func (p *PersistenceManager) FlagName(id string) string {
	if e, ok := p.entries[id]; ok {
		return e.flagName
	}
	return id + "-path"
}

// AddPathFlag registers the configuration's path flag on a parser sink.
func (p *PersistenceManager) AddPathFlag(sink FlagSink, id string) {
	if sink == nil {
		return
	}
	e, ok := p.entries[id]
	if !ok {
		e = persistEntry{flagName: id + "-path", defaultPath: id + string(ExtYAML), ext: ExtYAML}
	}
	sink.String(e.flagName, e.defaultPath, "Path to the "+id+" configuration file")
}

// FilePath resolves the configuration's file location: the path flag
// value when the invocation changed it, otherwise the tracked default.
// A flag value without an extension gets the tracked one appended.
func (p *PersistenceManager) FilePath(id string, flags Flags) string {
	e, ok := p.entries[id]
	if !ok {
		e = persistEntry{flagName: id + "-path", defaultPath: id + string(ExtYAML), ext: ExtYAML}
	}
	if flags != nil && flags.Changed(e.flagName) {
		return MaybeAddExt(flags.GetString(e.flagName), e.ext)
	}
	return e.defaultPath
}

// Exists reports whether a file is present at the path.
func (p *PersistenceManager) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads and decodes a configuration file, validated against the
// schema when one is given. A missing file is reported with a
// distinguishable code so callers can fall back to declared defaults.
func (p *PersistenceManager) Load(path string, schema Schema) (interface{}, error) {
	raw, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return raw, nil
	}
	return conformValue(path, raw, schema)
}

// Write encodes a value to the path, creating parent directories.
func (p *PersistenceManager) Write(path string, value interface{}) error {
	return WriteFile(path, value)
}

// conformValue checks decoded file contents against a schema and, for
// typed schemas, coerces the fields.
func conformValue(path string, raw interface{}, schema Schema) (interface{}, error) {
	shapeErr := func(want string) error {
		return errors.New(ErrCodeTypeValidation, "configuration file does not match the declared schema").
			WithContext("path", path).
			WithContext("want", want)
	}

	switch schema.Kind() {
	case SchemaList:
		if raw == nil {
			return []interface{}{}, nil
		}
		list, ok := raw.([]interface{})
		if !ok {
			return nil, shapeErr("list")
		}
		return list, nil

	case SchemaMap:
		if raw == nil {
			return map[string]interface{}{}, nil
		}
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, shapeErr("map")
		}
		return m, nil

	case SchemaStruct:
		if raw == nil {
			return schema.DefaultValue(), nil
		}
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, shapeErr("map")
		}
		sv := schema.DefaultValue().(*StructValue)
		if err := sv.populateFromMap(m); err != nil {
			return nil, err
		}
		return sv, nil

	default:
		return nil, shapeErr("unknown")
	}
}

// LoadFile reads and decodes a YAML or JSON file by extension.
func LoadFile(path string) (interface{}, error) {
	if !validExt(path) {
		return nil, errors.New(ErrCodeInvalidFormat, "unsupported configuration file extension").
			WithContext("path", path)
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path supplied by the caller
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, ErrCodeFileNotFound, "configuration file not found").
				WithContext("path", path)
		}
		return nil, errors.Wrap(err, ErrCodeIO, "cannot read configuration file").
			WithContext("path", path)
	}

	var out interface{}
	if isJSONExt(path) {
		if len(data) == 0 {
			return nil, nil
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, errors.Wrap(err, ErrCodeInvalidFormat, "invalid JSON configuration file").
				WithContext("path", path)
		}
		return out, nil
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidFormat, "invalid YAML configuration file").
			WithContext("path", path)
	}
	return out, nil
}

// WriteFile encodes a value to a YAML or JSON file by extension,
// creating parent directories as needed. Typed configuration values
// serialize as plain mappings.
func WriteFile(path string, value interface{}) error {
	if !validExt(path) {
		return errors.New(ErrCodeInvalidFormat, "unsupported configuration file extension").
			WithContext("path", path)
	}
	if sv, ok := value.(*StructValue); ok {
		value = sv.AsMap()
	}

	var (
		data []byte
		err  error
	)
	if isJSONExt(path) {
		data, err = json.MarshalIndent(value, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	} else {
		data, err = yaml.Marshal(value)
	}
	if err != nil {
		return errors.Wrap(err, ErrCodeInvalidFormat, "cannot encode configuration value").
			WithContext("path", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.Wrap(err, ErrCodeIO, "cannot create configuration directory").
				WithContext("path", path)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(err, ErrCodeIO, "cannot write configuration file").
			WithContext("path", path)
	}
	return nil
}

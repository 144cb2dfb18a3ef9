// variants.go: Declaration hierarchy tracking for configuration values
//
// Each tracked configuration holds an insertion-ordered chain of variant
// instances: declared defaults, file contents, and command-line
// overrides. The latest inserted variant is the effective value, which
// yields override > file > base precedence after a standard pipeline
// because phases insert in that order.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"github.com/agilira/go-errors"
)

// Variant keys for the declaration hierarchy.
const (
	VariantBase     = "base"
	VariantFile     = "file"
	VariantOverride = "override"
)

// ConfigEntry is one tracked configuration: its identity, declared
// schema, serializability, and the variant chain holding its values.
type ConfigEntry struct {
	id           string
	schema       Schema
	serializable bool

	keys   []string
	values map[string]interface{}
}

// NewConfigEntry tracks a configuration with no variants yet.
func NewConfigEntry(id string, schema Schema, serializable bool) *ConfigEntry {
	return &ConfigEntry{
		id:           id,
		schema:       schema,
		serializable: serializable,
		values:       make(map[string]interface{}),
	}
}

// ID returns the configuration's identity.
func (c *ConfigEntry) ID() string { return c.id }

// Schema returns the declared schema.
func (c *ConfigEntry) Schema() Schema { return c.schema }

// Serializable reports whether the configuration participates in file
// persistence. The synthetic inline configuration never does.
func (c *ConfigEntry) Serializable() bool { return c.serializable }

// Has reports whether the named variant exists.
func (c *ConfigEntry) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Get returns the named variant's value.
func (c *ConfigEntry) Get(key string) (interface{}, error) {
	v, ok := c.values[key]
	if !ok {
		return nil, errors.New(ErrCodeUnknownConfig, "no such configuration variant").
			WithContext("config", c.id).
			WithContext("variant", key)
	}
	return v, nil
}

// Set stores a variant value, deep-copied so callers cannot alias the
// chain's internals. Setting an existing key updates it in place
// without changing its position unless forceLatest is set, in which
// case the key moves to the latest position.
func (c *ConfigEntry) Set(key string, value interface{}, forceLatest bool) {
	_, exists := c.values[key]
	c.values[key] = deepCopyValue(value)
	if !exists {
		c.keys = append(c.keys, key)
		return
	}
	if forceLatest {
		c.removeKey(key)
		c.keys = append(c.keys, key)
	}
}

// Delete removes a variant. Removing an absent key is a no-op.
func (c *ConfigEntry) Delete(key string) {
	if _, ok := c.values[key]; !ok {
		return
	}
	delete(c.values, key)
	c.removeKey(key)
}

// Latest returns the most recently inserted variant's value.
func (c *ConfigEntry) Latest() (interface{}, error) {
	key, err := c.LatestKey()
	if err != nil {
		return nil, err
	}
	return c.values[key], nil
}

// LatestKey returns the most recently inserted variant's key.
func (c *ConfigEntry) LatestKey() (string, error) {
	if len(c.keys) == 0 {
		return "", errors.New(ErrCodeUnknownConfig, "configuration has no variants").
			WithContext("config", c.id)
	}
	return c.keys[len(c.keys)-1], nil
}

// GetOrLatest returns the named variant when present, otherwise the
// latest one.
func (c *ConfigEntry) GetOrLatest(key string) (interface{}, error) {
	if v, ok := c.values[key]; ok {
		return v, nil
	}
	return c.Latest()
}

// MakeLatest moves an existing variant to the latest position.
func (c *ConfigEntry) MakeLatest(key string) error {
	if _, ok := c.values[key]; !ok {
		return errors.New(ErrCodeUnknownConfig, "no such configuration variant").
			WithContext("config", c.id).
			WithContext("variant", key)
	}
	c.removeKey(key)
	c.keys = append(c.keys, key)
	return nil
}

// Keys returns the variant keys in insertion order.
func (c *ConfigEntry) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

func (c *ConfigEntry) removeKey(key string) {
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			return
		}
	}
}

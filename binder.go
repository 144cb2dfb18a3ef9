// binder.go: Fluent binding from resolved configurations to variables
//
// Commands that prefer plain local variables over value lookups can
// bind them once against a resolved configuration value. The binder
// follows the bind pattern: typed Bind* calls accumulate, Apply walks
// them in one pass. No reflection; the coercion rules are the same
// ones used by typed schemas.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"fmt"
	"strings"
	"time"

	"github.com/agilira/go-errors"
)

type bindKind uint8

const (
	bindString bindKind = iota
	bindInt
	bindInt64
	bindBool
	bindFloat64
	bindDuration
	bindStringSlice
)

type bindTarget struct {
	str      *string
	i        *int
	i64      *int64
	b        *bool
	f64      *float64
	dur      *time.Duration
	strSlice *[]string
}

type bindingEntry struct {
	target bindTarget
	key    string
	kind   bindKind
}

// Binder binds configuration values to caller variables.
type Binder struct {
	bindings []bindingEntry
	source   func(key string) (interface{}, bool)
}

// Bind creates a binder over a mapping value. Dot-separated keys
// traverse nested mappings.
func Bind(values map[string]interface{}) *Binder {
	return &Binder{
		source: func(key string) (interface{}, bool) {
			return lookupPath(values, key)
		},
	}
}

// BindStruct creates a binder over a typed configuration value.
func BindStruct(value *StructValue) *Binder {
	return &Binder{
		source: func(key string) (interface{}, bool) {
			if value == nil {
				return nil, false
			}
			return value.Get(key)
		},
	}
}

// BindArgs creates a binder over collapsed call arguments: keys are
// argument names, with dot-separated paths descending into mapping and
// typed values ("db.host").
func BindArgs(args *CallArgs) *Binder {
	return &Binder{
		source: func(key string) (interface{}, bool) {
			head, rest, nested := strings.Cut(key, ".")
			v, ok := args.Get(head)
			if !ok || !nested {
				return v, ok
			}
			switch inner := v.(type) {
			case map[string]interface{}:
				return lookupPath(inner, rest)
			case *StructValue:
				return inner.Get(rest)
			default:
				return nil, false
			}
		},
	}
}

// String binds a string variable to a key.
func (b *Binder) String(target *string, key string) *Binder {
	b.bindings = append(b.bindings, bindingEntry{target: bindTarget{str: target}, key: key, kind: bindString})
	return b
}

// Int binds an int variable to a key.
func (b *Binder) Int(target *int, key string) *Binder {
	b.bindings = append(b.bindings, bindingEntry{target: bindTarget{i: target}, key: key, kind: bindInt})
	return b
}

// Int64 binds an int64 variable to a key.
func (b *Binder) Int64(target *int64, key string) *Binder {
	b.bindings = append(b.bindings, bindingEntry{target: bindTarget{i64: target}, key: key, kind: bindInt64})
	return b
}

// Bool binds a bool variable to a key.
func (b *Binder) Bool(target *bool, key string) *Binder {
	b.bindings = append(b.bindings, bindingEntry{target: bindTarget{b: target}, key: key, kind: bindBool})
	return b
}

// Float64 binds a float64 variable to a key.
func (b *Binder) Float64(target *float64, key string) *Binder {
	b.bindings = append(b.bindings, bindingEntry{target: bindTarget{f64: target}, key: key, kind: bindFloat64})
	return b
}

// Duration binds a time.Duration variable to a key.
func (b *Binder) Duration(target *time.Duration, key string) *Binder {
	b.bindings = append(b.bindings, bindingEntry{target: bindTarget{dur: target}, key: key, kind: bindDuration})
	return b
}

// StringSlice binds a []string variable to a key.
func (b *Binder) StringSlice(target *[]string, key string) *Binder {
	b.bindings = append(b.bindings, bindingEntry{target: bindTarget{strSlice: target}, key: key, kind: bindStringSlice})
	return b
}

// Apply walks the accumulated bindings in one pass. Absent keys leave
// targets untouched; present values that cannot coerce fail.
func (b *Binder) Apply() error {
	for _, entry := range b.bindings {
		value, ok := b.source(entry.key)
		if !ok {
			continue
		}
		if err := applyBinding(entry, value); err != nil {
			return err
		}
	}
	return nil
}

func applyBinding(entry bindingEntry, value interface{}) error {
	var err error
	switch entry.kind {
	case bindString:
		if s, ok := value.(string); ok {
			*entry.target.str = s
		} else {
			*entry.target.str = toDisplayString(value)
		}
	case bindInt:
		*entry.target.i, err = coerceInt(value)
	case bindInt64:
		*entry.target.i64, err = coerceInt64(value)
	case bindBool:
		*entry.target.b, err = coerceBool(value)
	case bindFloat64:
		*entry.target.f64, err = coerceFloat64(value)
	case bindDuration:
		*entry.target.dur, err = coerceDuration(value)
	case bindStringSlice:
		*entry.target.strSlice, err = coerceStringSlice(value)
	}
	if err != nil {
		return errors.Wrap(err, ErrCodeTypeValidation, "cannot bind configuration value").
			WithContext("key", entry.key)
	}
	return nil
}

func toDisplayString(value interface{}) string {
	if d, ok := value.(time.Duration); ok {
		return d.String()
	}
	return fmt.Sprintf("%v", value)
}

// lookupPath resolves a dot-separated key against nested mappings.
func lookupPath(m map[string]interface{}, key string) (interface{}, bool) {
	head, rest, nested := strings.Cut(key, ".")
	v, ok := m[head]
	if !ok {
		return nil, false
	}
	if !nested {
		return v, true
	}
	inner, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return lookupPath(inner, rest)
}

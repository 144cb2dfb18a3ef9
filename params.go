// params.go: Parameter classification for command declarations
//
// Commands declare their parameters as an explicit, ordered list of
// specifications. The classifier sorts each one into a tracked
// configuration, an inline field of the synthetic inline configuration,
// or a regular pass-through parameter, applying a fixed priority:
// variadic capture first, inline membership second, schema annotation
// third, regular last.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"github.com/agilira/go-errors"
)

// ParamMode describes how a declared parameter binds at invocation.
type ParamMode int

const (
	ModePositional ParamMode = iota
	ModeKeyword
	ModeVariadicPositional
	ModeVariadicKeyword
)

func (m ParamMode) String() string {
	switch m {
	case ModePositional:
		return "positional"
	case ModeKeyword:
		return "keyword"
	case ModeVariadicPositional:
		return "variadic_positional"
	case ModeVariadicKeyword:
		return "variadic_keyword"
	default:
		return "unknown"
	}
}

// ParamSpec declares one command parameter. Use the constructor
// functions; a zero ParamSpec is a positional regular parameter with
// an empty name, which the classifier rejects.
type ParamSpec struct {
	Name   string
	Mode   ParamMode
	Schema Schema

	Inline       bool
	FieldKind    FieldKind
	HasFieldKind bool

	Default    interface{}
	HasDefault bool
	Factory    func() interface{}
}

// Positional declares a regular positional parameter.
func Positional(name string) ParamSpec {
	return ParamSpec{Name: name, Mode: ModePositional}
}

// PositionalDefault declares a regular positional parameter with a
// default value.
func PositionalDefault(name string, def interface{}) ParamSpec {
	return ParamSpec{Name: name, Mode: ModePositional, Default: def, HasDefault: true}
}

// Keyword declares a regular keyword parameter with a default value.
func Keyword(name string, def interface{}) ParamSpec {
	return ParamSpec{Name: name, Mode: ModeKeyword, Default: def, HasDefault: true}
}

// VariadicArgs declares a variadic positional parameter. With
// ArgsAsConfig enabled it becomes a sequence configuration.
func VariadicArgs(name string) ParamSpec {
	return ParamSpec{Name: name, Mode: ModeVariadicPositional}
}

// VariadicKwargs declares a variadic keyword parameter. With
// KwargsAsConfig enabled it becomes a mapping configuration.
func VariadicKwargs(name string) ParamSpec {
	return ParamSpec{Name: name, Mode: ModeVariadicKeyword}
}

// ConfigOf declares a parameter backed by a tracked configuration.
func ConfigOf(name string, schema Schema) ParamSpec {
	return ParamSpec{Name: name, Mode: ModePositional, Schema: schema}
}

// InlineField declares a one-off typed field folded into the synthetic
// inline configuration.
func InlineField(name string, kind FieldKind, def interface{}) ParamSpec {
	return ParamSpec{
		Name:         name,
		Mode:         ModeKeyword,
		Inline:       true,
		FieldKind:    kind,
		HasFieldKind: true,
		Default:      def,
		HasDefault:   true,
	}
}

// InlineFieldFactory declares an inline field whose default is produced
// by a factory at initialization time.
func InlineFieldFactory(name string, kind FieldKind, factory func() interface{}) ParamSpec {
	return ParamSpec{
		Name:         name,
		Mode:         ModeKeyword,
		Inline:       true,
		FieldKind:    kind,
		HasFieldKind: true,
		Factory:      factory,
	}
}

// callParam is one slot of the positional invocation plan: either a
// tracked configuration (latest variant at call time) or a regular
// parameter's declared default.
type callParam struct {
	configID string
	spec     ParamSpec
}

// ParamSet is the classifier's output: the tracked configurations in
// declaration order plus the regular parameters, ready for override
// resolution and invocation collapse.
type ParamSet struct {
	entries []*ConfigEntry
	byID    map[string]*ConfigEntry

	calls         []callParam
	keywordParams []ParamSpec

	argsID   string
	kwargsID string
	inlineID string
}

// Configs returns the tracked configurations in declaration order,
// including the synthetic inline configuration when present.
func (p *ParamSet) Configs() []*ConfigEntry {
	out := make([]*ConfigEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Config looks up a tracked configuration by id.
func (p *ParamSet) Config(id string) (*ConfigEntry, bool) {
	c, ok := p.byID[id]
	return c, ok
}

// IDs returns the tracked configuration ids in declaration order.
func (p *ParamSet) IDs() []string {
	out := make([]string, len(p.entries))
	for i, c := range p.entries {
		out[i] = c.id
	}
	return out
}

// Inline returns the synthetic inline configuration, or nil when the
// command declares no inline fields.
func (p *ParamSet) Inline() *ConfigEntry {
	if p.inlineID == "" {
		return nil
	}
	return p.byID[p.inlineID]
}

// ArgsConfig returns the variadic positional configuration, or nil.
func (p *ParamSet) ArgsConfig() *ConfigEntry {
	if p.argsID == "" {
		return nil
	}
	return p.byID[p.argsID]
}

// KwargsConfig returns the variadic keyword configuration, or nil.
func (p *ParamSet) KwargsConfig() *ConfigEntry {
	if p.kwargsID == "" {
		return nil
	}
	return p.byID[p.kwargsID]
}

// classifyParams builds a ParamSet from an explicit declaration list.
// All violations surface as declaration errors.
func classifyParams(specs []ParamSpec, opts Options) (*ParamSet, error) {
	set := &ParamSet{byID: make(map[string]*ConfigEntry)}
	seen := make(map[string]bool, len(specs))

	var (
		inlineFields   []Field
		inlineEntryPos = -1
		hasNamedLike   bool
	)

	declErr := func(msg, name string) error {
		return errors.New(ErrCodeDeclaration, msg).WithContext("parameter", name)
	}

	for _, spec := range specs {
		if spec.Name == "" {
			return nil, declErr("parameter name cannot be empty", spec.Name)
		}
		if seen[spec.Name] {
			return nil, declErr("duplicate parameter name", spec.Name)
		}
		seen[spec.Name] = true

		switch {
		case spec.Mode == ModeVariadicPositional && opts.argsAsConfig():
			if spec.Inline {
				return nil, declErr("inline parameter cannot be variadic", spec.Name)
			}
			if set.argsID != "" {
				return nil, declErr("multiple variadic positional parameters", spec.Name)
			}
			entry := NewConfigEntry(spec.Name, List(), true)
			set.track(entry)
			set.calls = append(set.calls, callParam{configID: spec.Name})
			set.argsID = spec.Name

		case spec.Mode == ModeVariadicKeyword && opts.kwargsAsConfig():
			if spec.Inline {
				return nil, declErr("inline parameter cannot be variadic", spec.Name)
			}
			if set.kwargsID != "" {
				return nil, declErr("multiple variadic keyword parameters", spec.Name)
			}
			entry := NewConfigEntry(spec.Name, Map(nil), true)
			set.track(entry)
			set.kwargsID = spec.Name

		case spec.Inline:
			field, err := inlineFieldOf(spec)
			if err != nil {
				return nil, err
			}
			if inlineEntryPos < 0 {
				inlineEntryPos = len(set.entries)
				set.calls = append(set.calls, callParam{configID: opts.InlineID})
			}
			inlineFields = append(inlineFields, field)

		case spec.Schema != nil && !spec.HasDefault:
			if spec.Name == opts.InlineID {
				hasNamedLike = true
			}
			entry := NewConfigEntry(spec.Name, spec.Schema, true)
			set.track(entry)
			set.calls = append(set.calls, callParam{configID: spec.Name})

		default:
			if spec.Name == opts.InlineID {
				hasNamedLike = true
			}
			switch spec.Mode {
			case ModeKeyword:
				set.keywordParams = append(set.keywordParams, spec)
			case ModeVariadicPositional, ModeVariadicKeyword:
				// Variadic capture disabled: the parameter passes
				// through with no bound value.
			default:
				set.calls = append(set.calls, callParam{spec: spec})
			}
		}
	}

	if len(inlineFields) > 0 {
		if hasNamedLike {
			return nil, errors.New(ErrCodeDeclaration, "parameter name collides with the inline configuration identifier").
				WithContext("identifier", opts.InlineID)
		}
		schema := NewStruct(opts.InlineID)
		for _, f := range inlineFields {
			schema.add(f)
		}
		entry := NewConfigEntry(opts.InlineID, schema, false)
		set.trackAt(entry, inlineEntryPos)
		set.inlineID = opts.InlineID
	}

	return set, nil
}

// inlineFieldOf validates an inline parameter and converts it into a
// field of the synthetic inline configuration.
func inlineFieldOf(spec ParamSpec) (Field, error) {
	declErr := func(msg string) error {
		return errors.New(ErrCodeDeclaration, msg).WithContext("parameter", spec.Name)
	}
	if spec.Mode == ModeVariadicPositional || spec.Mode == ModeVariadicKeyword {
		return Field{}, declErr("inline parameter cannot be variadic")
	}
	if !spec.HasFieldKind {
		return Field{}, declErr("inline parameter requires a declared field type")
	}
	if spec.HasDefault == (spec.Factory != nil) {
		return Field{}, declErr("inline parameter requires exactly one of a default value or a default factory")
	}
	field := Field{Name: spec.Name, Kind: spec.FieldKind, Factory: spec.Factory}
	if spec.HasDefault {
		coerced, err := coerceField(Field{Name: spec.Name, Kind: spec.FieldKind}, spec.Default)
		if err != nil {
			return Field{}, errors.Wrap(err, ErrCodeDeclaration, "inline default does not satisfy the declared field type").
				WithContext("parameter", spec.Name)
		}
		field.Default = coerced
	}
	return field, nil
}

// track appends a configuration entry preserving declaration order.
func (p *ParamSet) track(entry *ConfigEntry) {
	p.entries = append(p.entries, entry)
	p.byID[entry.id] = entry
}

// trackAt inserts the inline entry at the declaration position of the
// first inline parameter.
func (p *ParamSet) trackAt(entry *ConfigEntry, pos int) {
	if pos < 0 || pos >= len(p.entries) {
		p.track(entry)
		return
	}
	p.entries = append(p.entries, nil)
	copy(p.entries[pos+1:], p.entries[pos:])
	p.entries[pos] = entry
	p.byID[entry.id] = entry
}

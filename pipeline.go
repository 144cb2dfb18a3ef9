// pipeline.go: Wake invocation pipeline
//
// After the parser selects a command, nine phases run in a fixed order:
// pre-config, config, post-config, pre-init, init, post-init, pre-run,
// run, post-run. Each phase resolves its hook slot and invokes the
// resulting pipe over the execution state. The built-in config, init
// and run hooks implement the standard behavior: initialize and
// override configurations, collapse them into call arguments,
// instantiate the command, run it.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"sort"

	"github.com/agilira/go-errors"
)

// ExecutionState carries an invocation through the pipeline. Hooks read
// it and may return a replacement built with Clone.
type ExecutionState struct {
	Command  string
	Runner   Runner
	Params   *ParamSet
	Flags    Flags
	Tokens   []string
	Sink     FlagSink
	Instance Instance
	Result   interface{}
}

// Clone returns a shallow copy for hooks that replace the state.
func (s *ExecutionState) Clone() *ExecutionState {
	cp := *s
	return &cp
}

// Instance is an instantiated command ready to run.
type Instance interface {
	Run() (interface{}, error)
}

// Runner builds a command instance from collapsed call arguments. The
// two variants are Func, for plain callables, and Class, for commands
// with a separate construction step.
type Runner interface {
	Instantiate(args *CallArgs) (Instance, error)
}

type funcRunner struct {
	fn func(*CallArgs) (interface{}, error)
}

type funcInstance struct {
	fn   func(*CallArgs) (interface{}, error)
	args *CallArgs
}

func (i funcInstance) Run() (interface{}, error) { return i.fn(i.args) }

func (r funcRunner) Instantiate(args *CallArgs) (Instance, error) {
	return funcInstance{fn: r.fn, args: args}, nil
}

// Func wraps a callable as a command runner. Instantiation closes over
// the arguments; Run invokes the callable.
func Func(fn func(*CallArgs) (interface{}, error)) Runner {
	return funcRunner{fn: fn}
}

type classRunner struct {
	init func(*CallArgs) (Instance, error)
}

func (r classRunner) Instantiate(args *CallArgs) (Instance, error) {
	return r.init(args)
}

// Class wraps a two-step command: init builds the instance from the
// arguments, the instance's Run method does the work.
func Class(init func(*CallArgs) (Instance, error)) Runner {
	return classRunner{init: init}
}

// OverridePolicy decides what happens when a variadic keyword entry
// collides with a declared parameter or configuration name at collapse
// time.
type OverridePolicy int

const (
	// PolicyRaise rejects the collision.
	PolicyRaise OverridePolicy = iota
	// PolicySkip keeps the declared value and drops the variadic one.
	PolicySkip
	// PolicyOverride lets the variadic value win.
	PolicyOverride
)

// CallArgs holds the collapsed invocation arguments: positional values
// in declaration order plus a keyword mapping.
type CallArgs struct {
	names      []string
	positional []interface{}
	keyword    map[string]interface{}
}

// Len returns the number of positional arguments.
func (a *CallArgs) Len() int { return len(a.positional) }

// At returns the positional argument at index i.
func (a *CallArgs) At(i int) interface{} {
	if i < 0 || i >= len(a.positional) {
		return nil
	}
	return a.positional[i]
}

// Get returns an argument by name, searching positional slots first and
// then keywords.
func (a *CallArgs) Get(name string) (interface{}, bool) {
	for i, n := range a.names {
		if n == name {
			return a.positional[i], true
		}
	}
	v, ok := a.keyword[name]
	return v, ok
}

// Keyword returns a copy of the keyword arguments.
func (a *CallArgs) Keyword() map[string]interface{} {
	out := make(map[string]interface{}, len(a.keyword))
	for k, v := range a.keyword {
		out[k] = v
	}
	return out
}

// Struct returns the named argument as a typed configuration value.
func (a *CallArgs) Struct(name string) *StructValue {
	if v, ok := a.Get(name); ok {
		if sv, ok := v.(*StructValue); ok {
			return sv
		}
	}
	return nil
}

// List returns the named argument as a sequence value.
func (a *CallArgs) List(name string) []interface{} {
	if v, ok := a.Get(name); ok {
		if l, ok := v.([]interface{}); ok {
			return l
		}
	}
	return nil
}

// Map returns the named argument as a mapping value.
func (a *CallArgs) Map(name string) map[string]interface{} {
	if v, ok := a.Get(name); ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}

// collapse flattens the parameter set into call arguments: latest
// configuration variants and regular defaults positionally, keyword
// parameters and the variadic keyword mapping as keywords.
func collapse(set *ParamSet, policy OverridePolicy) (*CallArgs, error) {
	args := &CallArgs{keyword: make(map[string]interface{})}

	declared := make(map[string]bool)
	for _, id := range set.IDs() {
		declared[id] = true
	}

	for _, call := range set.calls {
		if call.configID != "" {
			entry, ok := set.Config(call.configID)
			if !ok {
				return nil, errors.New(ErrCodeInvocation, "call plan references unknown configuration").
					WithContext("config", call.configID)
			}
			value, err := entry.Latest()
			if err != nil {
				value = entry.schema.DefaultValue()
			}
			args.names = append(args.names, call.configID)
			args.positional = append(args.positional, value)
			continue
		}
		declared[call.spec.Name] = true
		args.names = append(args.names, call.spec.Name)
		args.positional = append(args.positional, call.spec.Default)
	}

	for _, spec := range set.keywordParams {
		declared[spec.Name] = true
		args.keyword[spec.Name] = spec.Default
	}

	kwargs := set.KwargsConfig()
	if kwargs == nil {
		return args, nil
	}
	latest, err := kwargs.Latest()
	if err != nil {
		return args, nil
	}
	m, ok := latest.(map[string]interface{})
	if !ok {
		return args, nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if declared[key] {
			switch policy {
			case PolicyRaise:
				return nil, errors.New(ErrCodeParameterCollision, "variadic keyword collides with a declared name").
					WithContext("config", kwargs.id).
					WithContext("key", key)
			case PolicySkip:
				continue
			case PolicyOverride:
			}
		}
		args.keyword[key] = m[key]
	}
	return args, nil
}

// commandSlots lists the nine phases run for a selected command, in
// order. The parser slot runs earlier, at registration time.
var commandSlots = []HookSlot{
	SlotPreConfig, SlotConfig, SlotPostConfig,
	SlotPreInit, SlotInit, SlotPostInit,
	SlotPreRun, SlotRun, SlotPostRun,
}

// invoke drives the nine phases for the selected command.
func (r *Registry) invoke(entry *commandEntry, state *ExecutionState) (interface{}, error) {
	for _, slot := range commandSlots {
		pipe, err := resolveCommand(entry.hooks.slot(slot), slot, r.shared[slot], r.defaultHookFor(slot))
		if err != nil {
			return nil, err
		}
		state, err = runPipe(pipe, state)
		if err != nil {
			if errorCode(err) != "" {
				return nil, err
			}
			return nil, errors.Wrap(err, ErrCodeInvocation, "hook pipeline aborted").
				WithContext("command", state.Command).
				WithContext("slot", slot.String())
		}
	}
	return state.Result, nil
}

// defaultHookFor returns the built-in behavior for a slot. Pre and post
// slots have none.
func (r *Registry) defaultHookFor(slot HookSlot) Hook {
	switch slot {
	case SlotParser:
		return r.defaultParserHook
	case SlotConfig:
		return r.defaultConfigHook
	case SlotInit:
		return r.defaultInitHook
	case SlotRun:
		return defaultRunHook
	default:
		return nil
	}
}

// defaultParserHook registers one path flag per serializable
// configuration so files can be relocated on the command line.
func (r *Registry) defaultParserHook(state *ExecutionState) (*ExecutionState, error) {
	for _, entry := range state.Params.Configs() {
		if !entry.Serializable() {
			continue
		}
		if err := r.persist.Track(entry.ID()); err != nil {
			return nil, err
		}
		r.persist.AddPathFlag(state.Sink, entry.ID())
	}
	return nil, nil
}

// defaultConfigHook initializes every configuration (declared defaults,
// then file contents), applies command-line overrides, and writes
// starting-point files back.
func (r *Registry) defaultConfigHook(state *ExecutionState) (*ExecutionState, error) {
	for _, entry := range state.Params.Configs() {
		if err := r.initializeConfig(entry, state.Flags); err != nil {
			return nil, err
		}
	}

	if err := applyOverrides(state.Params, state.Tokens, r.opts); err != nil {
		return nil, err
	}
	if len(state.Tokens) > 0 {
		r.auditEvent("override_applied", state.Command, map[string]interface{}{
			"tokens": len(state.Tokens),
		})
	}

	if !r.opts.SkipWriteBack {
		for _, entry := range state.Params.Configs() {
			if err := r.writeBack(entry, state.Flags); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

// initializeConfig installs the base variant from schema defaults and
// the file variant from disk. A missing file is tolerated unless the
// registry is configured to raise.
func (r *Registry) initializeConfig(entry *ConfigEntry, flags Flags) error {
	if !entry.Has(VariantBase) {
		entry.Set(VariantBase, entry.schema.DefaultValue(), false)
	}
	if !entry.Serializable() {
		return nil
	}

	path := r.persist.FilePath(entry.ID(), flags)
	value, err := r.persist.Load(path, entry.Schema())
	if err != nil {
		if hasErrorCode(err, ErrCodeFileNotFound) && !r.opts.RaiseOnMissingFile {
			return nil
		}
		return err
	}
	entry.Set(VariantFile, value, false)
	r.auditEvent("config_loaded", entry.ID(), map[string]interface{}{
		"path": path,
	})
	return nil
}

// writeBack persists the base variant as a starting-point file. An
// existing file is left alone unless overwriting is enabled.
func (r *Registry) writeBack(entry *ConfigEntry, flags Flags) error {
	if !entry.Serializable() || !entry.Has(VariantBase) {
		return nil
	}
	path := r.persist.FilePath(entry.ID(), flags)
	if !r.opts.OverwriteFiles && r.persist.Exists(path) {
		return nil
	}
	base, err := entry.Get(VariantBase)
	if err != nil {
		return err
	}
	return r.persist.Write(path, base)
}

// defaultInitHook collapses the parameter set and instantiates the
// command.
func (r *Registry) defaultInitHook(state *ExecutionState) (*ExecutionState, error) {
	args, err := collapse(state.Params, r.opts.OverridePolicy)
	if err != nil {
		return nil, err
	}
	instance, err := state.Runner.Instantiate(args)
	if err != nil {
		return nil, err
	}
	next := state.Clone()
	next.Instance = instance
	return next, nil
}

// defaultRunHook runs the instance and records the result.
func defaultRunHook(state *ExecutionState) (*ExecutionState, error) {
	if state.Instance == nil {
		return nil, errors.New(ErrCodeInvocation, "no command instance to run").
			WithContext("command", state.Command)
	}
	result, err := state.Instance.Run()
	if err != nil {
		return nil, err
	}
	next := state.Clone()
	next.Result = result
	return next, nil
}

// hypnos.go: Registry, options and the wake entry point
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"github.com/agilira/go-errors"
)

// Options configures a registry. The zero value selects the standard
// behavior: "::" prefix separator, "inline" identifier, exclusive
// prefix matching, unique override keys, variadic capture enabled, and
// write-back of starting-point files.
type Options struct {
	// Name identifies the application to the argument parser.
	Name        string
	Version     string
	Description string

	// PrefixSep separates a configuration prefix from an override key.
	PrefixSep string

	// InlineID names the synthetic configuration aggregating inline
	// parameters.
	InlineID string

	// SharedPrefixes lets one override prefix target several
	// configurations instead of failing as ambiguous.
	SharedPrefixes bool

	// ExclusiveShared rejects unprefixed overrides accepted by more
	// than one configuration.
	ExclusiveShared bool

	// AllowDuplicates accepts the same override key more than once;
	// later occurrences win.
	AllowDuplicates bool

	// OverridePolicy decides variadic keyword collisions at collapse.
	OverridePolicy OverridePolicy

	// NoArgsConfig and NoKwargsConfig leave variadic parameters
	// untracked instead of turning them into configurations.
	NoArgsConfig   bool
	NoKwargsConfig bool

	// OverwriteFiles rewrites starting-point files even when present.
	OverwriteFiles bool

	// SkipWriteBack disables starting-point file creation entirely.
	SkipWriteBack bool

	// RaiseOnMissingFile turns a missing configuration file into an
	// error instead of falling back to declared defaults.
	RaiseOnMissingFile bool

	// Hooks holds the registry-level shared hook slots.
	Hooks Hooks

	// Driver overrides the default flash-flags argument parser.
	Driver Driver

	// Audit enables the invocation audit trail.
	Audit AuditConfig
}

// WithDefaults fills zero-valued fields with standard values.
func (o Options) WithDefaults() Options {
	if o.Name == "" {
		o.Name = "hypnos"
	}
	if o.PrefixSep == "" {
		o.PrefixSep = "::"
	}
	if o.InlineID == "" {
		o.InlineID = "inline"
	}
	return o
}

func (o Options) exclusivePrefixed() bool { return !o.SharedPrefixes }
func (o Options) uniqueOverrides() bool   { return !o.AllowDuplicates }
func (o Options) argsAsConfig() bool      { return !o.NoArgsConfig }
func (o Options) kwargsAsConfig() bool    { return !o.NoKwargsConfig }

// Declaration describes a command being registered: its explicit
// parameter list and its hook slot assignments.
type Declaration struct {
	Params []ParamSpec
	Hooks  Hooks
}

type commandEntry struct {
	name   string
	runner Runner
	params *ParamSet
	hooks  Hooks
}

// Registry tracks declared commands and their configurations. It is an
// explicit value: independent registries never share state.
type Registry struct {
	opts    Options
	driver  Driver
	persist *PersistenceManager

	shared   map[HookSlot][]Hook
	commands map[string]*commandEntry
	order    []string

	audit *AuditLogger
	woken bool
}

// New creates a registry. Shared hook slots resolve immediately, so a
// malformed shared declaration fails here rather than at wake time.
func New(opts Options) (*Registry, error) {
	opts = opts.WithDefaults()

	r := &Registry{
		opts:     opts,
		persist:  NewPersistenceManager(),
		shared:   make(map[HookSlot][]Hook, 10),
		commands: make(map[string]*commandEntry),
	}

	r.driver = opts.Driver
	if r.driver == nil {
		r.driver = NewFlashDriver(opts.Name, opts.Description, opts.Version)
	}

	for slot := SlotParser; slot <= SlotPostRun; slot++ {
		pipe, err := resolveShared(opts.Hooks.slot(slot), slot, r.defaultHookFor(slot))
		if err != nil {
			return nil, err
		}
		r.shared[slot] = pipe
	}

	if opts.Audit.Enabled {
		logger, err := NewAuditLogger(opts.Audit)
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeIO, "cannot initialize audit trail")
		}
		r.audit = logger
	}

	return r, nil
}

// Register declares a command. The parser hook slot resolves and runs
// now, for every command, so path flags exist before any wake.
func (r *Registry) Register(name string, runner Runner, decl Declaration) error {
	if r.woken {
		return errors.New(ErrCodeDeclaration, "cannot register a command after wake").
			WithContext("command", name)
	}
	if name == "" {
		return errors.New(ErrCodeDeclaration, "command name cannot be empty")
	}
	if runner == nil {
		return errors.New(ErrCodeDeclaration, "command runner cannot be nil").
			WithContext("command", name)
	}
	if _, exists := r.commands[name]; exists {
		return errors.New(ErrCodeDeclaration, "command already registered").
			WithContext("command", name)
	}

	params, err := classifyParams(decl.Params, r.opts)
	if err != nil {
		return err
	}

	pipe, err := resolveCommand(decl.Hooks.Parser, SlotParser, r.shared[SlotParser], r.defaultParserHook)
	if err != nil {
		return err
	}
	state := &ExecutionState{
		Command: name,
		Runner:  runner,
		Params:  params,
		Sink:    r.driver.Command(name),
	}
	if _, err := runPipe(pipe, state); err != nil {
		return err
	}

	r.commands[name] = &commandEntry{
		name:   name,
		runner: runner,
		params: params,
		hooks:  decl.Hooks,
	}
	r.order = append(r.order, name)

	r.auditEvent("command_registered", name, map[string]interface{}{
		"configs": len(params.IDs()),
	})
	return nil
}

// Commands returns the registered command names in registration order.
func (r *Registry) Commands() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Wake parses the arguments, selects a command, and drives the nine
// invocation phases for it. The selected command's result is returned.
func (r *Registry) Wake(args []string) (interface{}, error) {
	if len(r.commands) == 0 {
		return nil, errors.New(ErrCodeDeclaration, "no commands registered")
	}
	r.woken = true

	parsed, err := r.driver.Parse(args)
	if err != nil {
		return nil, err
	}
	entry, ok := r.commands[parsed.Command]
	if !ok {
		return nil, errors.New(ErrCodeInvocation, "unknown command").
			WithContext("command", parsed.Command)
	}

	r.auditEvent("invocation_start", entry.name, map[string]interface{}{
		"tokens": len(parsed.Leftover),
	})

	state := &ExecutionState{
		Command: entry.name,
		Runner:  entry.runner,
		Params:  entry.params,
		Flags:   parsed.Flags,
		Tokens:  parsed.Leftover,
	}
	result, err := r.invoke(entry, state)
	if err != nil {
		r.auditEvent("invocation_failed", entry.name, map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	r.auditEvent("invocation_complete", entry.name, nil)
	return result, nil
}

// Close flushes and releases the audit trail, when enabled.
func (r *Registry) Close() error {
	if r.audit == nil {
		return nil
	}
	return r.audit.Close()
}

// auditEvent records one audit event. Safe with auditing disabled.
func (r *Registry) auditEvent(event, subject string, context map[string]interface{}) {
	r.audit.Log(AuditInfo, event, subject, context)
}

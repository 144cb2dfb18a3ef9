// hooks.go: Hook slots and sentinel resolution for the wake pipeline
//
// Every phase of an invocation is an extension point. A slot holds a
// tagged hook value: a function, a sentinel deferring to the enclosing
// scope (Shared), the built-in behavior (Default), nothing (Skip), or a
// nested sequence of values. Resolution flattens the tree depth-first,
// left to right, into a flat pipe of functions.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"github.com/agilira/go-errors"
)

// Hook is one pipeline extension function. Returning a non-nil state
// replaces the pipeline state for everything downstream; returning nil
// keeps the current state. An error aborts the invocation.
type Hook func(*ExecutionState) (*ExecutionState, error)

// HookSlot identifies one of the ten pipeline extension points.
type HookSlot int

const (
	SlotParser HookSlot = iota
	SlotPreConfig
	SlotConfig
	SlotPostConfig
	SlotPreInit
	SlotInit
	SlotPostInit
	SlotPreRun
	SlotRun
	SlotPostRun
)

func (s HookSlot) String() string {
	switch s {
	case SlotParser:
		return "parser"
	case SlotPreConfig:
		return "pre_config"
	case SlotConfig:
		return "config"
	case SlotPostConfig:
		return "post_config"
	case SlotPreInit:
		return "pre_init"
	case SlotInit:
		return "init"
	case SlotPostInit:
		return "post_init"
	case SlotPreRun:
		return "pre_run"
	case SlotRun:
		return "run"
	case SlotPostRun:
		return "post_run"
	default:
		return "unknown"
	}
}

type hookValueKind int

const (
	hookUnset hookValueKind = iota
	hookFunc
	hookShared
	hookDefault
	hookSkip
	hookSeq
)

// HookValue is the tagged value held by a hook slot. The zero value is
// unset: shared slots fall back to their built-in behavior, command
// slots defer to the shared scope.
type HookValue struct {
	kind hookValueKind
	fn   Hook
	seq  []HookValue
}

// Sentinel hook values.
var (
	// SharedHook defers to the enclosing scope's resolved sequence.
	SharedHook = HookValue{kind: hookShared}

	// DefaultHook splices the built-in behavior for the slot.
	DefaultHook = HookValue{kind: hookDefault}

	// SkipHook contributes nothing to the slot.
	SkipHook = HookValue{kind: hookSkip}
)

// HookFn wraps a function as a hook value.
func HookFn(fn Hook) HookValue {
	return HookValue{kind: hookFunc, fn: fn}
}

// HookSeq composes hook values in order. Sequences may nest.
func HookSeq(values ...HookValue) HookValue {
	return HookValue{kind: hookSeq, seq: values}
}

// Hooks assigns hook values to the ten slots. Zero-valued slots are
// unset.
type Hooks struct {
	Parser     HookValue
	PreConfig  HookValue
	Config     HookValue
	PostConfig HookValue
	PreInit    HookValue
	Init       HookValue
	PostInit   HookValue
	PreRun     HookValue
	Run        HookValue
	PostRun    HookValue
}

// slot returns the value held for a pipeline slot.
func (h Hooks) slot(s HookSlot) HookValue {
	switch s {
	case SlotParser:
		return h.Parser
	case SlotPreConfig:
		return h.PreConfig
	case SlotConfig:
		return h.Config
	case SlotPostConfig:
		return h.PostConfig
	case SlotPreInit:
		return h.PreInit
	case SlotInit:
		return h.Init
	case SlotPostInit:
		return h.PostInit
	case SlotPreRun:
		return h.PreRun
	case SlotRun:
		return h.Run
	case SlotPostRun:
		return h.PostRun
	default:
		return HookValue{}
	}
}

// mainSlot reports whether the slot has built-in behavior. Pre and post
// slots default to nothing.
func mainSlot(s HookSlot) bool {
	switch s {
	case SlotParser, SlotConfig, SlotInit, SlotRun:
		return true
	default:
		return false
	}
}

// resolveShared flattens a registry-level slot value. Shared sentinels
// are illegal here: the shared scope cannot defer to itself.
func resolveShared(value HookValue, slot HookSlot, def Hook) ([]Hook, error) {
	return flattenHooks(value, slot, nil, false, def)
}

// resolveCommand flattens a command-level slot value, splicing the
// already-resolved shared sequence wherever Shared appears. An unset
// command slot defers to the shared scope.
func resolveCommand(value HookValue, slot HookSlot, shared []Hook, def Hook) ([]Hook, error) {
	return flattenHooks(value, slot, shared, true, def)
}

// flattenHooks is the depth-first, order-preserving resolver. It is
// idempotent: resolving an already-flat sequence yields the same pipe.
func flattenHooks(value HookValue, slot HookSlot, shared []Hook, allowShared bool, def Hook) ([]Hook, error) {
	switch value.kind {
	case hookUnset:
		if allowShared {
			return append([]Hook(nil), shared...), nil
		}
		// Unset shared slot: built-in behavior for main slots, nothing
		// for pre/post slots.
		if mainSlot(slot) && def != nil {
			return []Hook{def}, nil
		}
		return nil, nil

	case hookFunc:
		if value.fn == nil {
			return nil, errors.New(ErrCodeHookProtocol, "hook function cannot be nil").
				WithContext("slot", slot.String())
		}
		return []Hook{value.fn}, nil

	case hookShared:
		if !allowShared {
			return nil, errors.New(ErrCodeHookProtocol, "shared sentinel inside a shared hook slot").
				WithContext("slot", slot.String())
		}
		return append([]Hook(nil), shared...), nil

	case hookDefault:
		if def == nil {
			return nil, nil
		}
		return []Hook{def}, nil

	case hookSkip:
		return nil, nil

	case hookSeq:
		var out []Hook
		for _, v := range value.seq {
			if v.kind == hookUnset {
				return nil, errors.New(ErrCodeHookProtocol, "unset hook value inside a sequence").
					WithContext("slot", slot.String())
			}
			flat, err := flattenHooks(v, slot, shared, allowShared, def)
			if err != nil {
				return nil, err
			}
			out = append(out, flat...)
		}
		return out, nil

	default:
		return nil, errors.New(ErrCodeHookProtocol, "unrecognized hook value").
			WithContext("slot", slot.String())
	}
}

// runPipe invokes a resolved hook sequence over the state. A hook
// returning a non-nil state rebinds the state for the rest of the pipe.
func runPipe(hooks []Hook, state *ExecutionState) (*ExecutionState, error) {
	for _, h := range hooks {
		next, err := h(state)
		if err != nil {
			return nil, err
		}
		if next != nil {
			state = next
		}
	}
	return state, nil
}

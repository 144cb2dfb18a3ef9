// hooks_test.go: Hook sentinel resolution and pipe execution tests
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"testing"
)

// traceHook appends its label to the given log when run.
func traceHook(log *[]string, label string) HookValue {
	return HookFn(func(state *ExecutionState) (*ExecutionState, error) {
		*log = append(*log, label)
		return nil, nil
	})
}

func TestFlattenShared(t *testing.T) {
	var log []string
	def := func(state *ExecutionState) (*ExecutionState, error) {
		log = append(log, "default")
		return nil, nil
	}

	t.Run("unset_main_slot_uses_default", func(t *testing.T) {
		log = nil
		pipe, err := resolveShared(HookValue{}, SlotConfig, def)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := runPipe(pipe, &ExecutionState{}); err != nil {
			t.Fatal(err)
		}
		if len(log) != 1 || log[0] != "default" {
			t.Errorf("expected default behavior, got %v", log)
		}
	})

	t.Run("unset_pre_slot_is_empty", func(t *testing.T) {
		pipe, err := resolveShared(HookValue{}, SlotPreConfig, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pipe) != 0 {
			t.Errorf("expected empty pipe, got %d hooks", len(pipe))
		}
	})

	t.Run("skip_is_empty", func(t *testing.T) {
		pipe, err := resolveShared(SkipHook, SlotConfig, def)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pipe) != 0 {
			t.Errorf("expected empty pipe, got %d hooks", len(pipe))
		}
	})

	t.Run("shared_sentinel_rejected", func(t *testing.T) {
		_, err := resolveShared(SharedHook, SlotConfig, def)
		if !hasErrorCode(err, ErrCodeHookProtocol) {
			t.Errorf("expected hook protocol code, got %v", err)
		}
	})

	t.Run("shared_sentinel_rejected_in_sequence", func(t *testing.T) {
		var log []string
		_, err := resolveShared(HookSeq(traceHook(&log, "a"), SharedHook), SlotConfig, def)
		if !hasErrorCode(err, ErrCodeHookProtocol) {
			t.Errorf("expected hook protocol code, got %v", err)
		}
	})
}

func TestFlattenCommand(t *testing.T) {
	var log []string
	shared := []Hook{
		func(state *ExecutionState) (*ExecutionState, error) {
			log = append(log, "shared")
			return nil, nil
		},
	}
	def := func(state *ExecutionState) (*ExecutionState, error) {
		log = append(log, "default")
		return nil, nil
	}

	run := func(t *testing.T, value HookValue) []string {
		t.Helper()
		log = nil
		pipe, err := resolveCommand(value, SlotConfig, shared, def)
		if err != nil {
			t.Fatalf("resolution failed: %v", err)
		}
		if _, err := runPipe(pipe, &ExecutionState{}); err != nil {
			t.Fatal(err)
		}
		return log
	}

	t.Run("unset_defers_to_shared", func(t *testing.T) {
		got := run(t, HookValue{})
		if len(got) != 1 || got[0] != "shared" {
			t.Errorf("expected shared behavior, got %v", got)
		}
	})

	t.Run("shared_sentinel_splices", func(t *testing.T) {
		got := run(t, HookSeq(traceHook(&log, "before"), SharedHook, traceHook(&log, "after")))
		want := []string{"before", "shared", "after"}
		if len(got) != 3 {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("expected %v, got %v", want, got)
			}
		}
	})

	t.Run("default_sentinel_splices_builtin", func(t *testing.T) {
		got := run(t, HookSeq(DefaultHook, traceHook(&log, "extra")))
		if len(got) != 2 || got[0] != "default" || got[1] != "extra" {
			t.Errorf("expected default then extra, got %v", got)
		}
	})

	t.Run("nested_sequences_flatten_in_order", func(t *testing.T) {
		got := run(t, HookSeq(
			HookSeq(traceHook(&log, "a"), traceHook(&log, "b")),
			traceHook(&log, "c"),
		))
		want := []string{"a", "b", "c"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	})

	t.Run("skip_inside_sequence", func(t *testing.T) {
		got := run(t, HookSeq(SkipHook, traceHook(&log, "only")))
		if len(got) != 1 || got[0] != "only" {
			t.Errorf("expected only, got %v", got)
		}
	})

	t.Run("unset_inside_sequence", func(t *testing.T) {
		_, err := resolveCommand(HookSeq(HookValue{}), SlotConfig, shared, def)
		if !hasErrorCode(err, ErrCodeHookProtocol) {
			t.Errorf("expected hook protocol code, got %v", err)
		}
	})

	t.Run("nil_function", func(t *testing.T) {
		_, err := resolveCommand(HookFn(nil), SlotConfig, shared, def)
		if !hasErrorCode(err, ErrCodeHookProtocol) {
			t.Errorf("expected hook protocol code, got %v", err)
		}
	})
}

func TestFlattenIdempotent(t *testing.T) {
	var log []string
	value := HookSeq(
		traceHook(&log, "a"),
		HookSeq(traceHook(&log, "b"), SharedHook),
		traceHook(&log, "c"),
	)
	shared := []Hook{func(state *ExecutionState) (*ExecutionState, error) {
		log = append(log, "shared")
		return nil, nil
	}}

	// Resolving the same tree twice yields the same flattened
	// sequence: sentinel resolution never consumes or rewrites the
	// declaration.
	first, err := resolveCommand(value, SlotPreRun, shared, nil)
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	second, err := resolveCommand(value, SlotPreRun, shared, nil)
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("resolve not stable: %d vs %d hooks", len(first), len(second))
	}

	want := []string{"a", "b", "shared", "c"}
	for _, pipe := range [][]Hook{first, second} {
		log = nil
		if _, err := runPipe(pipe, &ExecutionState{}); err != nil {
			t.Fatal(err)
		}
		if len(log) != len(want) {
			t.Fatalf("expected %v, got %v", want, log)
		}
		for i := range want {
			if log[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, log)
			}
		}
	}
}

func TestRunPipeStateReplacement(t *testing.T) {
	first := func(state *ExecutionState) (*ExecutionState, error) {
		next := state.Clone()
		next.Result = "replaced"
		return next, nil
	}
	var seen interface{}
	second := func(state *ExecutionState) (*ExecutionState, error) {
		seen = state.Result
		return nil, nil
	}

	final, err := runPipe([]Hook{first, second}, &ExecutionState{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "replaced" {
		t.Errorf("downstream hook saw stale state: %v", seen)
	}
	if final.Result != "replaced" {
		t.Errorf("final state lost the replacement: %v", final.Result)
	}
}

// params_test.go: Parameter classification tests
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"testing"
	"time"
)

func defaultOpts() Options {
	return Options{}.WithDefaults()
}

func TestClassifyConfigs(t *testing.T) {
	set, err := classifyParams([]ParamSpec{
		ConfigOf("model", NewStruct("model").Int("layers", 4)),
		ConfigOf("data", Map(nil)),
	}, defaultOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := set.IDs()
	if len(ids) != 2 || ids[0] != "model" || ids[1] != "data" {
		t.Errorf("unexpected ids: %v", ids)
	}

	entry, ok := set.Config("model")
	if !ok {
		t.Fatal("model not tracked")
	}
	if !entry.Serializable() {
		t.Error("tracked configuration should be serializable")
	}
	if entry.Schema().Kind() != SchemaStruct {
		t.Errorf("unexpected schema kind: %v", entry.Schema().Kind())
	}
}

func TestClassifyVariadics(t *testing.T) {
	t.Run("captured_as_configs", func(t *testing.T) {
		set, err := classifyParams([]ParamSpec{
			VariadicArgs("extras"),
			VariadicKwargs("options"),
		}, defaultOpts())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		args := set.ArgsConfig()
		if args == nil || args.Schema().Kind() != SchemaList {
			t.Error("variadic positional should become a list configuration")
		}
		kwargs := set.KwargsConfig()
		if kwargs == nil || kwargs.Schema().Kind() != SchemaMap {
			t.Error("variadic keyword should become a map configuration")
		}
	})

	t.Run("capture_disabled", func(t *testing.T) {
		opts := defaultOpts()
		opts.NoArgsConfig = true
		opts.NoKwargsConfig = true

		set, err := classifyParams([]ParamSpec{
			VariadicArgs("extras"),
			VariadicKwargs("options"),
		}, opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if set.ArgsConfig() != nil || set.KwargsConfig() != nil {
			t.Error("disabled capture still produced configurations")
		}
		if len(set.IDs()) != 0 {
			t.Errorf("expected no tracked configurations, got %v", set.IDs())
		}
	})

	t.Run("multiple_variadic_positional", func(t *testing.T) {
		_, err := classifyParams([]ParamSpec{
			VariadicArgs("a"),
			VariadicArgs("b"),
		}, defaultOpts())
		if !hasErrorCode(err, ErrCodeDeclaration) {
			t.Errorf("expected declaration code, got %v", err)
		}
	})
}

func TestClassifyInline(t *testing.T) {
	t.Run("aggregates_fields", func(t *testing.T) {
		set, err := classifyParams([]ParamSpec{
			ConfigOf("model", Map(nil)),
			InlineField("seed", FieldInt, 7),
			InlineField("verbose", FieldBool, false),
		}, defaultOpts())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		inline := set.Inline()
		if inline == nil {
			t.Fatal("no inline configuration")
		}
		if inline.Serializable() {
			t.Error("inline configuration must not serialize")
		}
		schema := inline.Schema().(*StructSchema)
		if !schema.HasField("seed") || !schema.HasField("verbose") {
			t.Errorf("inline fields missing: %v", schema.Fields())
		}

		sv := schema.DefaultValue().(*StructValue)
		if sv.GetInt("seed") != 7 {
			t.Errorf("expected seed 7, got %d", sv.GetInt("seed"))
		}
	})

	t.Run("declaration_position", func(t *testing.T) {
		set, err := classifyParams([]ParamSpec{
			InlineField("seed", FieldInt, 7),
			ConfigOf("model", Map(nil)),
		}, defaultOpts())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids := set.IDs()
		if len(ids) != 2 || ids[0] != "inline" || ids[1] != "model" {
			t.Errorf("inline not at declaration position: %v", ids)
		}
	})

	t.Run("factory_default", func(t *testing.T) {
		set, err := classifyParams([]ParamSpec{
			InlineFieldFactory("when", FieldDuration, func() interface{} { return time.Minute }),
		}, defaultOpts())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sv := set.Inline().Schema().DefaultValue().(*StructValue)
		if sv.GetDuration("when") != time.Minute {
			t.Errorf("factory default missing: %v", sv.AsMap())
		}
	})

	t.Run("id_collision", func(t *testing.T) {
		_, err := classifyParams([]ParamSpec{
			ConfigOf("inline", Map(nil)),
			InlineField("seed", FieldInt, 7),
		}, defaultOpts())
		if !hasErrorCode(err, ErrCodeDeclaration) {
			t.Errorf("expected declaration code, got %v", err)
		}
	})

	t.Run("uncoercible_default", func(t *testing.T) {
		_, err := classifyParams([]ParamSpec{
			InlineField("seed", FieldInt, "not-a-number"),
		}, defaultOpts())
		if !hasErrorCode(err, ErrCodeDeclaration) {
			t.Errorf("expected declaration code, got %v", err)
		}
	})

	t.Run("missing_field_kind", func(t *testing.T) {
		_, err := classifyParams([]ParamSpec{
			{Name: "seed", Inline: true, Default: 7, HasDefault: true},
		}, defaultOpts())
		if !hasErrorCode(err, ErrCodeDeclaration) {
			t.Errorf("expected declaration code, got %v", err)
		}
	})
}

func TestClassifyRegulars(t *testing.T) {
	set, err := classifyParams([]ParamSpec{
		Positional("target"),
		PositionalDefault("count", 1),
		Keyword("mode", "fast"),
	}, defaultOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(set.IDs()) != 0 {
		t.Errorf("regular parameters must not be tracked: %v", set.IDs())
	}
	if len(set.calls) != 2 {
		t.Errorf("expected 2 positional call slots, got %d", len(set.calls))
	}
	if len(set.keywordParams) != 1 || set.keywordParams[0].Name != "mode" {
		t.Errorf("keyword parameter missing: %v", set.keywordParams)
	}
}

func TestClassifyRejectsBadNames(t *testing.T) {
	t.Run("empty_name", func(t *testing.T) {
		_, err := classifyParams([]ParamSpec{{}}, defaultOpts())
		if !hasErrorCode(err, ErrCodeDeclaration) {
			t.Errorf("expected declaration code, got %v", err)
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		_, err := classifyParams([]ParamSpec{
			Positional("x"),
			Keyword("x", 1),
		}, defaultOpts())
		if !hasErrorCode(err, ErrCodeDeclaration) {
			t.Errorf("expected declaration code, got %v", err)
		}
	})
}

func TestSchemaWithDefaultIsRegular(t *testing.T) {
	// A schema annotation with a default value stays a regular
	// parameter: the default wins over configuration tracking.
	set, err := classifyParams([]ParamSpec{
		{Name: "opts", Mode: ModeKeyword, Schema: Map(nil), Default: nil, HasDefault: true},
	}, defaultOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.IDs()) != 0 {
		t.Errorf("defaulted schema parameter was tracked: %v", set.IDs())
	}
	if len(set.keywordParams) != 1 {
		t.Errorf("expected keyword pass-through, got %v", set.keywordParams)
	}
}

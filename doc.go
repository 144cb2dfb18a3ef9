// Package hypnos provides a declarative command and configuration manager
// that resolves every configuration a command needs at the moment the
// command is invoked, layering declared defaults, persisted files, and
// command-line overrides in rising precedence.
//
// # Declarations
//
// A command is registered with an explicit, ordered parameter list.
// Each parameter is classified once, at registration:
//
//   - A variadic positional parameter becomes a sequence configuration.
//   - A variadic keyword parameter becomes a mapping configuration.
//   - Parameters marked inline fold into one synthetic typed configuration.
//   - A parameter carrying a schema and no default is a tracked configuration.
//   - Everything else passes through to the call plan unchanged.
//
//	reg, err := hypnos.New(hypnos.Options{Name: "trainer"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer reg.Close()
//
//	err = reg.Register("train", hypnos.Func(train), hypnos.Declaration{
//		Params: []hypnos.ParamSpec{
//			hypnos.ConfigOf("model", hypnos.NewStruct("model").
//				Int("layers", 4).
//				Float64("rate", 0.001)),
//			hypnos.InlineField("seed", hypnos.FieldInt, 7),
//		},
//	})
//
//	result, err := reg.Wake(os.Args[1:])
//
// # Variants
//
// Every configuration accumulates up to three variants. The "base"
// variant holds the declared defaults, the "file" variant holds values
// loaded from a YAML or JSON file, and the "override" variant holds
// values assembled from command-line tokens. The variant registered
// last wins when the configuration collapses into call arguments.
//
// # Overrides
//
// Leftover command-line tokens override configuration values. A token
// containing '=' is dict-like and merges by dot-separated path
// ("db.pool.size=20"); a token without one is list-like and replaces
// sequence configurations wholesale. A "config::" prefix scopes a token
// to a single configuration, matched by unambiguous abbreviation;
// unprefixed tokens reach every configuration whose schema accepts the
// token's shape.
//
// # Hooks
//
// Ten slots customize the invocation pipeline: a parser slot plus
// pre, main and post slots around the config, init and run phases.
// A slot holds a function, a sequence of values, or one of the
// sentinels SharedHook, DefaultHook and SkipHook. The parser slot runs
// for every command at registration; the remaining nine run for the
// selected command when the registry wakes.
//
// # Audit Trail
//
// An optional audit logger records registrations, configuration loads,
// applied overrides and invocations with tamper-detection checksums,
// persisted to JSON Lines or SQLite.
package hypnos

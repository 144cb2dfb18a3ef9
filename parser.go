// parser.go: Argument parser collaborator
//
// The registry treats the command-line parser as a collaborator behind
// a small interface: register flags per command, then split argv into
// the selected command, its known flags, and the leftover tokens that
// become configuration overrides. The default driver is built on
// flash-flags; argv is pre-split so that only registered flags reach
// it and everything else survives as leftover tokens in order.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"strings"

	flashflags "github.com/agilira/flash-flags"
	"github.com/agilira/go-errors"
)

// FlagSink receives flag registrations during the parser phase.
type FlagSink interface {
	String(name, def, usage string)
}

// Flags exposes parsed flag values to the pipeline.
type Flags interface {
	GetString(name string) string
	Changed(name string) bool
}

// ParseResult is the outcome of splitting argv.
type ParseResult struct {
	Command  string
	Flags    Flags
	Leftover []string
}

// Driver is the argument parser collaborator.
type Driver interface {
	// Command returns the flag sink for a command, creating it on
	// first use. Calls with the same name return the same sink.
	Command(name string) FlagSink

	// Parse splits argv into the selected command, its parsed flags,
	// and the leftover tokens in original order.
	Parse(args []string) (*ParseResult, error)
}

// FlashDriver is the default Driver, one flash-flags set per command.
type FlashDriver struct {
	appName     string
	description string
	version     string
	commands    map[string]*flashCommand
	order       []string
}

type flashCommand struct {
	set   *flashflags.FlagSet
	names map[string]bool
}

// NewFlashDriver creates a flash-flags backed driver.
func NewFlashDriver(name, description, version string) *FlashDriver {
	return &FlashDriver{
		appName:     name,
		description: description,
		version:     version,
		commands:    make(map[string]*flashCommand),
	}
}

// Command returns (creating on first use) the flag sink for a command.
func (d *FlashDriver) Command(name string) FlagSink {
	if cmd, ok := d.commands[name]; ok {
		return cmd
	}
	set := flashflags.New(d.appName + " " + name)
	if d.description != "" {
		set.SetDescription(d.description)
	}
	if d.version != "" {
		set.SetVersion(d.version)
	}
	cmd := &flashCommand{
		set:   set,
		names: make(map[string]bool),
	}
	d.commands[name] = cmd
	d.order = append(d.order, name)
	return cmd
}

// String registers a string flag for the command.
func (c *flashCommand) String(name, def, usage string) {
	if c.names[name] {
		return
	}
	c.names[name] = true
	c.set.String(name, def, usage)
}

// Parse selects the command by the first non-flag token, feeds the
// command's registered flags to flash-flags, and returns everything
// else as leftover tokens.
func (d *FlashDriver) Parse(args []string) (*ParseResult, error) {
	known := make(map[string]bool)
	for _, cmd := range d.commands {
		for name := range cmd.names {
			known[name] = true
		}
	}

	cmdIdx := -1
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			// A registered flag in space-separated form carries its
			// value in the next token; that token is not the command.
			flagName := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
			if !strings.Contains(flagName, "=") && known[flagName] {
				i++
			}
			continue
		}
		cmdIdx = i
		break
	}
	if cmdIdx < 0 {
		return nil, errors.New(ErrCodeInvocation, "no command selected").
			WithContext("known", strings.Join(d.order, ","))
	}

	name := args[cmdIdx]
	cmd, ok := d.commands[name]
	if !ok {
		return nil, errors.New(ErrCodeInvocation, "unknown command").
			WithContext("command", name).
			WithContext("known", strings.Join(d.order, ","))
	}

	rest := make([]string, 0, len(args)-1)
	rest = append(rest, args[:cmdIdx]...)
	rest = append(rest, args[cmdIdx+1:]...)

	var flagArgs, leftover []string
	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		if !strings.HasPrefix(tok, "--") {
			leftover = append(leftover, tok)
			continue
		}
		flagName := strings.TrimPrefix(tok, "--")
		if eq := strings.Index(flagName, "="); eq >= 0 {
			flagName = flagName[:eq]
		}
		if !cmd.names[flagName] {
			leftover = append(leftover, tok)
			continue
		}
		flagArgs = append(flagArgs, tok)
		// Space-separated form: the registered string flag consumes
		// the following token as its value.
		if !strings.Contains(tok, "=") && i+1 < len(rest) {
			i++
			flagArgs = append(flagArgs, rest[i])
		}
	}

	if err := cmd.set.Parse(flagArgs); err != nil {
		return nil, errors.Wrap(err, ErrCodeInvocation, "flag parsing failed").
			WithContext("command", name)
	}

	return &ParseResult{
		Command:  name,
		Flags:    flashFlagValues{set: cmd.set},
		Leftover: leftover,
	}, nil
}

// flashFlagValues adapts a parsed flash-flags set to the Flags
// interface.
type flashFlagValues struct {
	set *flashflags.FlagSet
}

func (f flashFlagValues) GetString(name string) string {
	return f.set.GetString(name)
}

func (f flashFlagValues) Changed(name string) bool {
	changed := false
	f.set.VisitAll(func(flag *flashflags.Flag) {
		if flag.Name() == name && flag.Changed() {
			changed = true
		}
	})
	return changed
}

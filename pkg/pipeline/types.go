package pipeline

import (
	"errors"
	"fmt"
	"sort"
)

// Target is a single named step of the development pipeline. Each command is
// an opaque one-line shell script which runs in its own shell, just like a
// line in a make recipe. Commands don't pass data to each other; the only
// signal that travels between them is the exit status.
type Target struct {
	Name string
	Desc string

	// Deps are run before the target's own commands, in the order listed.
	// A dependency that already ran during the current invocation isn't
	// run again.
	Deps []string

	Cmds []string

	// Env entries are added to the inherited environment of every command.
	Env map[string]string

	// Base is the working directory for the commands, relative to the
	// project root. Empty means the project root itself.
	Base string
}

// TargetList maps target names to their definitions.
type TargetList map[string]*Target

// Names returns the defined target names in alphabetical order.
func (t TargetList) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// CommandError reports a command that exited with a non-zero status. The
// failed tool has already written its own diagnostics to stderr at this
// point.
type CommandError struct {
	Target  string
	Command string
	Status  int

	err error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("target %s: command %q exited with status %d", e.Target, e.Command, e.Status)
}

func (e *CommandError) Unwrap() error { return e.err }

// ExitStatus returns the exit status carried by err if it originated from a
// failed pipeline command.
func ExitStatus(err error) (int, bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Status, true
	}
	return 0, false
}

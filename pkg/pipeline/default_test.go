package pipeline

import (
	"reflect"
	"strings"
	"testing"

	"mvdan.cc/sh/v3/syntax"
)

func TestDefaultTargetsShape(t *testing.T) {
	targets := DefaultTargets(Toolset{})

	want := []string{"clean", "fmt", "install", "prep", "setup", "test", "unittest"}
	if got := targets.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected targets %v, got %v", want, got)
	}

	if deps := targets["prep"].Deps; !reflect.DeepEqual(deps, []string{"fmt", "test"}) {
		t.Errorf("expected prep to depend on fmt and test, got %v", deps)
	}
	if deps := targets["setup"].Deps; !reflect.DeepEqual(deps, []string{"install", "test"}) {
		t.Errorf("expected setup to depend on install and test, got %v", deps)
	}

	// prep and setup only sequence other targets.
	if len(targets["prep"].Cmds) != 0 || len(targets["setup"].Cmds) != 0 {
		t.Error("expected prep and setup to have no commands of their own")
	}

	for _, target := range targets {
		if target.Desc == "" {
			t.Errorf("expected a description for %s", target.Name)
		}
	}
}

func TestDefaultTargetsCommands(t *testing.T) {
	targets := DefaultTargets(Toolset{})

	cases := []struct {
		target string
		want   []string
	}{
		{"clean", []string{"rm -rf ./.mypy_cache ./.pytest_cache"}},
		{"fmt", []string{"isort .", "black ."}},
		{"install", []string{
			"python3 -m pip install --upgrade pip wheel",
			"python3 -m pip install -r requirements-dev.in",
		}},
		{"test", []string{
			"black --check .",
			"vulture . --make-whitelist > vulture_whitelist.py",
			"pytest -v",
		}},
		{"unittest", []string{"python3 -m unittest discover"}},
	}

	for _, tc := range cases {
		if got := targets[tc.target].Cmds; !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: expected commands %q, got %q", tc.target, tc.want, got)
		}
	}
}

func TestDefaultTargetsCommandsParse(t *testing.T) {
	parser := syntax.NewParser()

	for name, target := range DefaultTargets(Toolset{}) {
		for _, command := range target.Cmds {
			if _, err := parser.Parse(strings.NewReader(command), name); err != nil {
				t.Errorf("%s: command %q does not parse: %v", name, command, err)
			}
		}
	}
}

func TestDefaultTargetsCustomToolset(t *testing.T) {
	targets := DefaultTargets(Toolset{
		Python:    "/opt/python/bin/python3",
		Black:     "black-stable",
		Whitelist: "white list.py",
		CacheDirs: []string{".ruff_cache"},
	})

	if got := targets["clean"].Cmds[0]; got != "rm -rf ./.ruff_cache" {
		t.Errorf("expected the custom cache dir, got %q", got)
	}

	if got := targets["fmt"].Cmds[1]; got != "black-stable ." {
		t.Errorf("expected the custom formatter, got %q", got)
	}

	// Paths with spaces have to survive the shell.
	want := "vulture . --make-whitelist > 'white list.py'"
	if got := targets["test"].Cmds[1]; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got := targets["unittest"].Cmds[0]; got != "/opt/python/bin/python3 -m unittest discover" {
		t.Errorf("expected the custom interpreter, got %q", got)
	}

	// Unset fields keep their defaults.
	if got := targets["test"].Cmds[2]; got != "pytest -v" {
		t.Errorf("expected the default test runner, got %q", got)
	}
}

func TestQuoteArg(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"black", "black"},
		{"./path/to/tool", "./path/to/tool"},
		{"white list.py", "'white list.py'"},
		{"a'b", `'a'\''b'`},
		{"$HOME/bin", "'$HOME/bin'"},
	}

	for _, tc := range cases {
		if got := quoteArg(tc.in); got != tc.want {
			t.Errorf("quoteArg(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

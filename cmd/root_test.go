package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kabirmdasraful/wrapdisc/pkg/config"
	"github.com/kabirmdasraful/wrapdisc/pkg/pipeline"
)

func loadDefaults(t *testing.T) *config.Config {
	t.Helper()

	cfg, loader := config.Loader(t.TempDir())
	if err := loader.Load(); err != nil {
		t.Fatalf("failed to load the default config: %v", err)
	}
	return cfg
}

func TestPrintTargetsListsEverything(t *testing.T) {
	buf := &bytes.Buffer{}
	printTargets(buf, pipeline.DefaultTargets(pipeline.Toolset{}))

	got := buf.String()
	if !strings.HasPrefix(got, "Available targets:") {
		t.Errorf("expected the listing header, got %q", got)
	}

	for _, name := range []string{"clean", "fmt", "help", "install", "prep", "setup", "test", "unittest"} {
		if !strings.Contains(got, " * "+name+":") {
			t.Errorf("expected %s in the listing:\n%s", name, got)
		}
	}

	if !strings.Contains(got, "Show this listing") {
		t.Errorf("expected a description for help:\n%s", got)
	}
}

func TestPrintTargetsAlignment(t *testing.T) {
	targets := pipeline.DefaultTargets(pipeline.Toolset{})
	buf := &bytes.Buffer{}
	printTargets(buf, targets)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	column := -1
	for _, line := range lines[1:] {
		name := strings.TrimSuffix(strings.Fields(line)[1], ":")

		desc := "Show this listing"
		if target, ok := targets[name]; ok {
			desc = target.Desc
		}

		idx := strings.Index(line, desc)
		if idx < 0 {
			t.Fatalf("no description found in %q", line)
		}

		if column == -1 {
			column = idx
		} else if idx != column {
			t.Errorf("descriptions are not aligned: %q starts at %d, expected %d", line, idx, column)
		}
	}
}

func TestToolsetFromConfig(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Tools.Python = "python3.12"
	cfg.Manifest = "reqs.txt"

	ts := toolset(cfg)
	if ts.Python != "python3.12" {
		t.Errorf("expected the configured interpreter, got %q", ts.Python)
	}
	if ts.Manifest != "reqs.txt" {
		t.Errorf("expected the configured manifest, got %q", ts.Manifest)
	}
	if ts.Black != "black" {
		t.Errorf("expected the default formatter, got %q", ts.Black)
	}
	if len(ts.CacheDirs) != 2 {
		t.Errorf("expected the default cache dirs, got %v", ts.CacheDirs)
	}
}

func TestToolOverrides(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Tools.Vulture = "/opt/py/bin/vulture"

	overrides := toolOverrides(cfg)
	if overrides["vulture"] != "/opt/py/bin/vulture" {
		t.Errorf("expected the configured binary, got %q", overrides["vulture"])
	}
	if overrides["python"] != "python3" {
		t.Errorf("expected the default interpreter, got %q", overrides["python"])
	}

	for _, name := range []string{"python", "isort", "black", "vulture", "pytest"} {
		if _, ok := overrides[name]; !ok {
			t.Errorf("expected an override entry for %s", name)
		}
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"doctor":      false,
		"fetch-tools": false,
		"rm":          false,
		"mv":          false,
		"mkdir":       false,
	}

	for _, sub := range rootCmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}

	for name, found := range want {
		if !found {
			t.Errorf("expected the %s subcommand to be registered", name)
		}
	}
}

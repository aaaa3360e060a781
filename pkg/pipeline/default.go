package pipeline

import (
	"path/filepath"
	"strings"
)

// Toolset names the external executables and files the built-in targets
// work with. Zero values fall back to the standard names.
type Toolset struct {
	Python  string
	Isort   string
	Black   string
	Vulture string
	Pytest  string

	// Manifest is the requirements file handed to pip by the install
	// target.
	Manifest string

	// Whitelist is the dead code whitelist rewritten by the test target.
	Whitelist string

	// CacheDirs are removed by the clean target. Relative paths are
	// interpreted from the project root.
	CacheDirs []string
}

func (t Toolset) withDefaults() Toolset {
	setDefault(&t.Python, "python3")
	setDefault(&t.Isort, "isort")
	setDefault(&t.Black, "black")
	setDefault(&t.Vulture, "vulture")
	setDefault(&t.Pytest, "pytest")
	setDefault(&t.Manifest, "requirements-dev.in")
	setDefault(&t.Whitelist, "vulture_whitelist.py")

	if len(t.CacheDirs) == 0 {
		t.CacheDirs = []string{".mypy_cache", ".pytest_cache"}
	}

	return t
}

func setDefault(value *string, fallback string) {
	if *value == "" {
		*value = fallback
	}
}

// DefaultTargets returns the built-in development pipeline.
func DefaultTargets(tools Toolset) TargetList {
	tools = tools.withDefaults()

	targets := []*Target{
		{
			Name: "clean",
			Desc: "Remove the type checker and test runner caches",
			Cmds: []string{
				"rm -rf " + joinPaths(tools.CacheDirs),
			},
		},
		{
			Name: "fmt",
			Desc: "Sort imports and reformat the source tree in place",
			Cmds: []string{
				quoteArg(tools.Isort) + " .",
				quoteArg(tools.Black) + " .",
			},
		},
		{
			Name: "install",
			Desc: "Upgrade the packaging tools and install the dev requirements",
			Cmds: []string{
				quoteArg(tools.Python) + " -m pip install --upgrade pip wheel",
				quoteArg(tools.Python) + " -m pip install -r " + quoteArg(tools.Manifest),
			},
		},
		{
			Name: "prep",
			Desc: "Reformat, then run the full test pipeline",
			Deps: []string{"fmt", "test"},
		},
		{
			Name: "setup",
			Desc: "Install the dev requirements, then run the full test pipeline",
			Deps: []string{"install", "test"},
		},
		{
			Name: "test",
			Desc: "Verify formatting, refresh the dead code whitelist and run the tests",
			Cmds: []string{
				quoteArg(tools.Black) + " --check .",
				quoteArg(tools.Vulture) + " . --make-whitelist > " + quoteArg(tools.Whitelist),
				quoteArg(tools.Pytest) + " -v",
			},
		},
		{
			Name: "unittest",
			Desc: "Run the test suite through the stdlib test discovery",
			Cmds: []string{
				quoteArg(tools.Python) + " -m unittest discover",
			},
		},
	}

	list := make(TargetList, len(targets))
	for _, target := range targets {
		list[target.Name] = target
	}

	return list
}

func joinPaths(dirs []string) string {
	quoted := make([]string, len(dirs))
	for idx, dir := range dirs {
		if !filepath.IsAbs(dir) && !strings.HasPrefix(dir, "./") {
			dir = "./" + dir
		}
		quoted[idx] = quoteArg(dir)
	}

	return strings.Join(quoted, " ")
}

// quoteArg wraps the value in single quotes if the shell would otherwise
// mangle it.
func quoteArg(value string) string {
	if strings.ContainsAny(value, " \t$'\"*?#&|;<>()") {
		return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
	}

	return value
}

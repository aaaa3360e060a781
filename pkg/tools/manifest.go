// Package tools verifies and provisions the external executables the
// development pipeline shells out to.
package tools

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Spec describes a single external tool.
type Spec struct {
	// Bin is the executable name or path. Defaults to the tool's manifest
	// key.
	Bin string `yaml:"bin,omitempty"`

	// VersionArgs make the tool print its version. Defaults to --version.
	VersionArgs []string `yaml:"version,omitempty"`

	// Min is the lowest accepted version. Empty skips the version gate.
	Min string `yaml:"min,omitempty"`

	// URL points to a downloadable archive for fetch-tools. {os} and
	// {arch} expand to the current platform. Tools without a URL can only
	// be checked, not fetched.
	URL    string `yaml:"url,omitempty"`
	Sha256 string `yaml:"sha256,omitempty"`

	// Dest is the extraction directory, relative to the project root.
	// Defaults to .devtask/tools/<name>.
	Dest string `yaml:"dest,omitempty"`

	// Strip removes this many leading path elements while extracting.
	Strip int `yaml:"strip,omitempty"`

	// MarkExec lists files (relative to Dest) that are marked executable
	// after extraction. Necessary for .zip archives which don't carry
	// permissions.
	MarkExec []string `yaml:"markExec,omitempty"`
}

// Manifest lists all known tools by name.
type Manifest struct {
	Tools map[string]Spec `yaml:"tools"`
}

// DefaultManifest covers the standard pipeline tools.
func DefaultManifest() Manifest {
	version := []string{"--version"}
	return Manifest{Tools: map[string]Spec{
		"python":  {Bin: "python3", VersionArgs: version},
		"isort":   {Bin: "isort", VersionArgs: version},
		"black":   {Bin: "black", VersionArgs: version},
		"vulture": {Bin: "vulture", VersionArgs: version},
		"pytest":  {Bin: "pytest", VersionArgs: version},
	}}
}

// LoadManifest reads the given manifest file, falling back to the built-in
// defaults when the file doesn't exist. Entries from the file replace
// default entries of the same name. Overrides replace tool executables by
// name and win over both.
func LoadManifest(path string, overrides map[string]string) (Manifest, error) {
	manifest := DefaultManifest()

	content, err := os.ReadFile(path)
	if err != nil {
		if !eris.Is(err, os.ErrNotExist) {
			return manifest, eris.Wrapf(err, "Could not open file %s", path)
		}
	} else {
		var loaded Manifest
		if err := yaml.Unmarshal(content, &loaded); err != nil {
			return manifest, eris.Wrapf(err, "Failed to parse %s", path)
		}

		for name, spec := range loaded.Tools {
			manifest.Tools[name] = spec.normalized(name)
		}
	}

	for name, bin := range overrides {
		if bin == "" {
			continue
		}

		spec, ok := manifest.Tools[name]
		if !ok {
			spec = Spec{}.normalized(name)
		}
		spec.Bin = bin
		manifest.Tools[name] = spec
	}

	return manifest, nil
}

// Names returns the manifest's tool names in alphabetical order.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m.Tools))
	for name := range m.Tools {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// ExpandURL resolves the {os} and {arch} placeholders in the download URL.
func (s Spec) ExpandURL() string {
	url := strings.ReplaceAll(s.URL, "{os}", runtime.GOOS)
	return strings.ReplaceAll(url, "{arch}", runtime.GOARCH)
}

func (s Spec) normalized(name string) Spec {
	if s.Bin == "" {
		s.Bin = name
	}
	if len(s.VersionArgs) == 0 {
		s.VersionArgs = []string{"--version"}
	}

	return s
}

// destDir returns the extraction directory relative to the project root.
func (s Spec) destDir(name string) string {
	if s.Dest != "" {
		return s.Dest
	}

	return filepath.Join(stateDir, "tools", name)
}

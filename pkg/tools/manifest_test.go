package tools

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

func TestLoadManifestDefaultsWhenMissing(t *testing.T) {
	manifest, err := LoadManifest(filepath.Join(t.TempDir(), "tools.yml"), nil)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}

	want := []string{"black", "isort", "pytest", "python", "vulture"}
	if got := manifest.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected tools %v, got %v", want, got)
	}

	if bin := manifest.Tools["python"].Bin; bin != "python3" {
		t.Errorf("expected the python3 executable, got %q", bin)
	}
}

func TestLoadManifestMergesFile(t *testing.T) {
	content := `tools:
  black:
    min: "22.1"
  mypy:
    min: "1.0"
`
	path := filepath.Join(t.TempDir(), "tools.yml")
	if err := os.WriteFile(path, []byte(content), 0660); err != nil {
		t.Fatal(err)
	}

	manifest, err := LoadManifest(path, nil)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}

	black := manifest.Tools["black"]
	if black.Min != "22.1" {
		t.Errorf("expected the minimum from the file, got %q", black.Min)
	}
	if black.Bin != "black" {
		t.Errorf("expected the bin to default to the key, got %q", black.Bin)
	}

	mypy, ok := manifest.Tools["mypy"]
	if !ok {
		t.Fatal("expected the extra tool to be added")
	}
	if mypy.Bin != "mypy" || !reflect.DeepEqual(mypy.VersionArgs, []string{"--version"}) {
		t.Errorf("expected normalized defaults, got %+v", mypy)
	}

	// Defaults not mentioned in the file survive.
	if _, ok := manifest.Tools["pytest"]; !ok {
		t.Error("expected the default tools to survive the merge")
	}
}

func TestLoadManifestAppliesOverrides(t *testing.T) {
	manifest, err := LoadManifest(filepath.Join(t.TempDir(), "tools.yml"), map[string]string{
		"black": "/opt/black/bin/black",
		"extra": "extra-tool",
		"empty": "",
	})
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}

	if bin := manifest.Tools["black"].Bin; bin != "/opt/black/bin/black" {
		t.Errorf("expected the override to win, got %q", bin)
	}

	extra, ok := manifest.Tools["extra"]
	if !ok || extra.Bin != "extra-tool" {
		t.Errorf("expected the override to create missing entries, got %+v (ok=%v)", extra, ok)
	}

	if _, ok := manifest.Tools["empty"]; ok {
		t.Error("expected empty overrides to be ignored")
	}
}

func TestLoadManifestRejectsBadYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yml")
	if err := os.WriteFile(path, []byte("tools: [broken"), 0660); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadManifest(path, nil); err == nil {
		t.Error("expected a parse error")
	}
}

func TestExpandURL(t *testing.T) {
	spec := Spec{URL: "https://example.org/tool-{os}-{arch}.tar.gz"}

	want := "https://example.org/tool-" + runtime.GOOS + "-" + runtime.GOARCH + ".tar.gz"
	if got := spec.ExpandURL(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

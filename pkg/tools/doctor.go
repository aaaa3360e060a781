package tools

import (
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rotisserie/eris"
)

var versionPattern = regexp.MustCompile(`\d+(\.\d+)+`)

// CheckResult reports the probe of a single tool.
type CheckResult struct {
	Name    string
	Bin     string
	Path    string
	Version string
	Err     error
}

// Check probes every tool in the manifest: the executable has to resolve
// through PATH and, if the spec names a minimum, the reported version has
// to satisfy it. Results are ordered by tool name.
func Check(ctx context.Context, manifest Manifest) []CheckResult {
	results := make([]CheckResult, 0, len(manifest.Tools))
	for _, name := range manifest.Names() {
		results = append(results, checkTool(ctx, name, manifest.Tools[name]))
	}

	return results
}

func checkTool(ctx context.Context, name string, spec Spec) CheckResult {
	result := CheckResult{Name: name, Bin: spec.Bin}

	path, err := exec.LookPath(spec.Bin)
	if err != nil {
		result.Err = eris.Wrapf(err, "%s is not installed", spec.Bin)
		return result
	}
	result.Path = path

	output, err := exec.CommandContext(ctx, spec.Bin, spec.VersionArgs...).CombinedOutput()
	if err != nil {
		result.Err = eris.Wrapf(err, "Failed to run %s %s", spec.Bin, strings.Join(spec.VersionArgs, " "))
		return result
	}

	result.Version = ExtractVersion(string(output))
	if result.Version == "" {
		result.Err = eris.Errorf("No version number in the output of %s %s", spec.Bin, strings.Join(spec.VersionArgs, " "))
		return result
	}

	if spec.Min != "" {
		result.Err = checkMinVersion(name, result.Version, spec.Min)
	}

	return result
}

// ExtractVersion returns the first version-looking token from the tool
// output. The tools print their versions in wildly different formats; a
// dotted number is the common denominator.
func ExtractVersion(output string) string {
	return versionPattern.FindString(output)
}

func checkMinVersion(name, version, min string) error {
	parsed, err := semver.NewVersion(version)
	if err != nil {
		return eris.Wrapf(err, "Could not parse version %s of %s", version, name)
	}

	constraint, err := semver.NewConstraint(">= " + min)
	if err != nil {
		return eris.Wrapf(err, "Invalid minimum version %s for %s", min, name)
	}

	if !constraint.Check(parsed) {
		return eris.Errorf("%s %s is older than the required minimum %s", name, version, min)
	}

	return nil
}

package pkg

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// rootMarkers identify the project root during the upwards search.
var rootMarkers = []string{"devtask.toml", ".git"}

// FindProjectRoot walks up from the given directory until it finds one that
// contains devtask.toml or .git. If no marker is found, the start directory
// is returned so the pipeline still works in plain directories.
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", eris.Wrapf(err, "failed to resolve %s", start)
	}

	current := dir
	for {
		for _, marker := range rootMarkers {
			_, err := os.Stat(filepath.Join(current, marker))
			if err == nil {
				return current, nil
			}

			if !eris.Is(err, os.ErrNotExist) {
				return "", eris.Wrap(err, "error occurred while searching for the project root")
			}
		}

		next := filepath.Dir(current)
		if next == current {
			return dir, nil
		}
		current = next
	}
}

func PrintTask(msg string) {
	colorstring.Printf("[blue][bold]==>[default] %s\n", msg)
}

func PrintSubtask(msg string) {
	colorstring.Printf("[green][bold]  ->[reset] %s\n", msg)
}

func PrintError(msg string) {
	colorstring.Printf("[red][bold]  ->[reset] %s\n", msg)
}

package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/interp"
)

// RemovePaths implements the rm command. With force set, paths that don't
// exist are skipped instead of causing an error. Directories require
// recursive.
func RemovePaths(paths []string, recursive, force bool) error {
	// Check everything up front so a bad invocation doesn't delete half
	// its arguments before failing.
	for _, item := range paths {
		info, err := os.Stat(item)
		if err != nil {
			if force && eris.Is(err, os.ErrNotExist) {
				continue
			}
			return eris.Wrapf(err, "could not stat %s", item)
		}

		if info.IsDir() && !recursive {
			return eris.Errorf("%s is a directory but -r was not passed", item)
		}
	}

	for _, item := range paths {
		err := os.RemoveAll(item)
		if err != nil && !(force && eris.Is(err, os.ErrNotExist)) {
			return eris.Wrapf(err, "could not remove %s", item)
		}
	}

	return nil
}

// MovePaths implements the mv command. If dest is an existing directory,
// the items are moved into it. Otherwise a single item is renamed to dest.
func MovePaths(items []string, dest string) error {
	dest = filepath.Clean(dest)

	destInfo, err := os.Stat(dest)
	destIsDir := err == nil && destInfo.IsDir()
	if err != nil && !eris.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "could not inspect destination %s", dest)
	}

	if !destIsDir {
		if len(items) > 1 {
			return eris.Errorf("can't move multiple items to %s because it is not a directory", dest)
		}

		parent := filepath.Dir(dest)
		info, err := os.Stat(parent)
		if err != nil {
			return eris.Wrapf(err, "could not find destination directory %s", parent)
		}
		if !info.IsDir() {
			return eris.Errorf("%s is not a directory", parent)
		}
	}

	for _, item := range items {
		target := dest
		if destIsDir {
			target = filepath.Join(dest, filepath.Base(item))
		}

		if err := os.Rename(item, target); err != nil {
			return eris.Wrapf(err, "failed to move %s to %s", item, target)
		}
	}

	return nil
}

// MakeDirs implements the mkdir command. With parents set, missing parent
// directories are created and existing directories are not an error.
func MakeDirs(paths []string, parents bool) error {
	for _, item := range paths {
		var err error
		if parents {
			err = os.MkdirAll(item, 0770)
		} else {
			err = os.Mkdir(item, 0770)
		}

		if err != nil {
			return eris.Wrapf(err, "failed to create directory %s", item)
		}
	}

	return nil
}

// execFsCommand dispatches rm, mv and mkdir invocations from the shell to
// the implementations above. Relative paths are resolved against the
// shell's current directory. The first return value reports whether the
// command was one of ours.
func execFsCommand(hc interp.HandlerContext, args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}

	name := args[0]
	switch name {
	case "rm", "mv", "mkdir":
	default:
		return false, nil
	}

	var recursive, force, parents, flagsDone bool
	paths := make([]string, 0, len(args)-1)

	for _, arg := range args[1:] {
		if !flagsDone && strings.HasPrefix(arg, "-") && arg != "-" {
			switch arg {
			case "--":
				flagsDone = true
				continue
			case "--recursive":
				recursive = true
				continue
			case "--force":
				force = true
				continue
			case "--parents":
				parents = true
				continue
			}

			for _, flag := range arg[1:] {
				switch flag {
				case 'r', 'R':
					recursive = true
				case 'f':
					force = true
				case 'p':
					parents = true
				case 'v':
					// accepted for compatibility, we always log commands
				default:
					return true, eris.Errorf("%s: unsupported flag -%c", name, flag)
				}
			}
			continue
		}

		if !filepath.IsAbs(arg) {
			arg = filepath.Join(hc.Dir, arg)
		}
		paths = append(paths, arg)
	}

	if len(paths) == 0 {
		return true, eris.Errorf("%s: missing operand", name)
	}

	switch name {
	case "rm":
		return true, RemovePaths(paths, recursive, force)
	case "mv":
		if len(paths) < 2 {
			return true, eris.New("mv: needs a source and a destination")
		}
		return true, MovePaths(paths[:len(paths)-1], paths[len(paths)-1])
	default:
		return true, MakeDirs(paths, parents)
	}
}

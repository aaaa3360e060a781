package cmd

import (
	"path/filepath"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/kabirmdasraful/wrapdisc/pkg/pipeline"
)

// expandPatterns resolves glob patterns on Windows where no shell does it
// for us. On other platforms the arguments pass through untouched.
func expandPatterns(args []string, ignoreEmpty bool) ([]string, error) {
	if runtime.GOOS != "windows" {
		return args, nil
	}

	items := []string{}
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "Failed to resolve pattern %s", arg)
		}

		if matches == nil {
			if ignoreEmpty {
				continue
			}
			return nil, eris.Errorf("Pattern %s produced no matches", arg)
		}

		items = append(items, matches...)
	}

	return items, nil
}

var rmCmd = &cobra.Command{
	Use:   "rm [flags] path...",
	Short: "A cross-platform implementation of the POSIX rm command",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, err := cmd.Flags().GetBool("recursive")
		if err != nil {
			return err
		}

		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}

		items, err := expandPatterns(args, force)
		if err != nil {
			return err
		}

		return pipeline.RemovePaths(items, recursive, force)
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv source... dest",
	Short: "A cross-platform implementation of the POSIX mv command",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := expandPatterns(args[:len(args)-1], false)
		if err != nil {
			return err
		}

		return pipeline.MovePaths(items, args[len(args)-1])
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir [flags] path...",
	Short: "A cross-platform implementation of the POSIX mkdir command",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		makeParents, err := cmd.Flags().GetBool("parents")
		if err != nil {
			return err
		}

		return pipeline.MakeDirs(args, makeParents)
	},
}

func init() {
	rmCmd.Flags().BoolP("recursive", "r", false, "recursively delete directories")
	rmCmd.Flags().BoolP("force", "f", false, "suppresses errors caused by missing files/folders")
	mkdirCmd.Flags().BoolP("parents", "p", false, "create parent directories as needed")

	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(mkdirCmd)
}

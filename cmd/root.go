// Package cmd implements the devtask CLI.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kabirmdasraful/wrapdisc/pkg"
	"github.com/kabirmdasraful/wrapdisc/pkg/config"
	"github.com/kabirmdasraful/wrapdisc/pkg/pipeline"
)

var rootCmd = &cobra.Command{
	Use:   "devtask [target...]",
	Short: "Development pipeline runner",
	Long: `devtask runs the project's fixed development pipeline: import sorting,
formatting, dependency installation, dead code detection and the test
suite. Pass one or more target names; without arguments it lists the
available targets.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, err := cmd.Flags().GetBool("dry")
		if err != nil {
			return err
		}

		quiet, err := cmd.Flags().GetBool("quiet")
		if err != nil {
			return err
		}

		cfg, logger, projectRoot, err := bootstrap()
		if err != nil {
			return err
		}

		targets := pipeline.DefaultTargets(toolset(cfg))
		if len(args) == 0 {
			printTargets(cmd.OutOrStdout(), targets)
			return nil
		}

		// Validate all names before anything runs so a typo at the end
		// doesn't surface after minutes of work.
		for _, name := range args {
			if name == "help" {
				continue
			}
			if _, ok := targets[name]; !ok {
				logger.Fatal().Msgf("Target %s not found", name)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = pipeline.WithLogger(ctx, logger)

		opts := pipeline.RunOptions{DryRun: dryRun, Quiet: quiet}
		for _, name := range args {
			if name == "help" {
				printTargets(cmd.OutOrStdout(), targets)
				continue
			}

			if err := pipeline.RunTarget(ctx, projectRoot, name, targets, opts); err != nil {
				if eris.Is(err, context.Canceled) {
					logger.Error().Msgf("Target %s was interrupted", name)
					os.Exit(130)
				}

				logger.Error().Err(err).Msgf("Target %s failed", name)

				status, ok := pipeline.ExitStatus(err)
				if !ok {
					status = 1
				}
				os.Exit(status)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.Flags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	rootCmd.Flags().BoolP("quiet", "q", false, "hide command output unless the command fails")

	// The table is static; the descriptions don't depend on the configured
	// tool paths.
	listing := &strings.Builder{}
	printTargets(listing, pipeline.DefaultTargets(pipeline.Toolset{}))
	rootCmd.Long += "\n\n" + strings.TrimRight(listing.String(), "\n")

	rootCmd.SetHelpCommand(&cobra.Command{
		Use:   "help [command]",
		Short: "List the available targets or show help for a subcommand",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				targets := pipeline.DefaultTargets(pipeline.Toolset{})
				if target, ok := targets[args[0]]; ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", target.Name, target.Desc)
					return nil
				}

				sub, _, err := cmd.Root().Find(args)
				if err != nil {
					return err
				}
				return sub.Help()
			}

			printTargets(cmd.OutOrStdout(), pipeline.DefaultTargets(pipeline.Toolset{}))
			return nil
		},
	})
}

// Execute runs the CLI. Errors have already been printed by cobra when it
// returns.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// bootstrap locates the project root, loads the configuration and builds
// the logger.
func bootstrap() (*config.Config, zerolog.Logger, string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, zerolog.Nop(), "", eris.Wrap(err, "Failed to retrieve the current working directory")
	}

	projectRoot, err := pkg.FindProjectRoot(wd)
	if err != nil {
		return nil, zerolog.Nop(), "", err
	}

	cfg, loader := config.Loader(projectRoot)
	if err := loader.Load(); err != nil {
		return nil, zerolog.Nop(), "", eris.Wrap(err, "Failed to load the configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), "", err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, zerolog.Nop(), "", err
	}

	return cfg, logger, projectRoot, nil
}

func toolset(cfg *config.Config) pipeline.Toolset {
	return pipeline.Toolset{
		Python:    cfg.Tools.Python,
		Isort:     cfg.Tools.Isort,
		Black:     cfg.Tools.Black,
		Vulture:   cfg.Tools.Vulture,
		Pytest:    cfg.Tools.Pytest,
		Manifest:  cfg.Manifest,
		Whitelist: cfg.Whitelist,
		CacheDirs: cfg.CacheDirs,
	}
}

// toolOverrides maps the configured executables to their manifest names.
func toolOverrides(cfg *config.Config) map[string]string {
	return map[string]string{
		"python":  cfg.Tools.Python,
		"isort":   cfg.Tools.Isort,
		"black":   cfg.Tools.Black,
		"vulture": cfg.Tools.Vulture,
		"pytest":  cfg.Tools.Pytest,
	}
}

func printTargets(out io.Writer, targets pipeline.TargetList) {
	fmt.Fprintln(out, "Available targets:")

	names := append(targets.Names(), "help")
	sort.Strings(names)

	maxNameLen := 0
	for _, name := range names {
		if len(name) > maxNameLen {
			maxNameLen = len(name)
		}
	}

	lineFmt := fmt.Sprintf(" * %%-%ds %%s\n", maxNameLen+3)
	for _, name := range names {
		desc := "Show this listing"
		if target, ok := targets[name]; ok {
			desc = target.Desc
		}
		fmt.Fprintf(out, lineFmt, name+":", desc)
	}
}

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// RunOptions adjust how RunTarget behaves.
type RunOptions struct {
	// DryRun logs every command that would run without executing anything.
	DryRun bool

	// Quiet buffers command output and shows a spinner in its place. The
	// buffered output is written to Stderr if the command fails.
	Quiet bool

	// Stdout and Stderr receive the command output. They default to the
	// process' stdout and stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// RunTarget executes the named target: its dependencies first, then its own
// commands, strictly in order. The first failure aborts the run; if it was a
// command exiting with a non-zero status, that status can be retrieved from
// the returned error through ExitStatus.
func RunTarget(ctx context.Context, root, name string, targets TargetList, opts RunOptions) error {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	target, found := targets[name]
	if !found {
		return eris.Errorf("target %s not found", name)
	}

	// done tracks targets across this invocation: false means still
	// running (seeing it again is a dependency cycle), true means it
	// already finished and is skipped.
	done := map[string]bool{}
	return runTarget(ctx, root, target, targets, done, opts)
}

func runTarget(ctx context.Context, root string, target *Target, targets TargetList, done map[string]bool, opts RunOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	finished, seen := done[target.Name]
	if seen {
		if !finished {
			return eris.Errorf("dependency cycle detected at target %s", target.Name)
		}

		logger := log(ctx)
		logger.Debug().Str("target", target.Name).Msg("Already done")
		return nil
	}
	done[target.Name] = false

	for _, dep := range target.Deps {
		depTarget, found := targets[dep]
		if !found {
			return eris.Errorf("target %s not found (dependency of %s)", dep, target.Name)
		}

		if err := runTarget(ctx, root, depTarget, targets, done, opts); err != nil {
			return err
		}
	}

	if err := runCommands(ctx, root, target, opts); err != nil {
		return err
	}

	done[target.Name] = true
	return nil
}

func runCommands(ctx context.Context, root string, target *Target, opts RunOptions) error {
	if len(target.Cmds) == 0 {
		return nil
	}

	dir := root
	if target.Base != "" {
		dir = target.Base
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
	}

	environ := targetEnviron(target.Env)
	parser := syntax.NewParser()
	printer := syntax.NewPrinter(syntax.Minify(true))

	for idx, command := range target.Cmds {
		if err := ctx.Err(); err != nil {
			return err
		}

		file, err := parser.Parse(strings.NewReader(command), fmt.Sprintf("%s:%d", target.Name, idx+1))
		if err != nil {
			return eris.Wrapf(err, "failed to parse command %q in target %s", command, target.Name)
		}

		display := strings.Builder{}
		if err := printer.Print(&display, file); err != nil {
			display.Reset()
			display.WriteString(command)
		}
		shown := strings.TrimSpace(display.String())

		logger := log(ctx)
		logger.Info().Str("target", target.Name).Bool("command", true).Msg(shown)

		if opts.DryRun {
			continue
		}

		if err := runShell(ctx, dir, environ, file, target.Name, opts); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			status := 1
			if code, ok := interp.IsExitStatus(err); ok {
				status = int(code)
			}

			return &CommandError{
				Target:  target.Name,
				Command: shown,
				Status:  status,
				err:     err,
			}
		}
	}

	return nil
}

// runShell executes one parsed command line in a fresh shell, mirroring how
// make spawns a new shell per recipe line. The -e flag makes multi-statement
// lines stop at the first failing statement.
func runShell(ctx context.Context, dir string, environ expand.Environ, file *syntax.File, targetName string, opts RunOptions) error {
	stdout, stderr := opts.Stdout, opts.Stderr

	var capture *bytes.Buffer
	var bar *progressbar.ProgressBar
	if opts.Quiet {
		capture = &bytes.Buffer{}
		bar = commandBar(opts.Stderr, targetName)
		sink := io.MultiWriter(capture, bar)
		stdout, stderr = sink, sink
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(environ),
		interp.StdIO(nil, stdout, stderr),
		interp.Params("-e"),
		interp.ExecHandlers(fsCommands),
		interp.OpenHandler(openHandler),
	)
	if err != nil {
		return eris.Wrap(err, "failed to initialize the shell interpreter")
	}

	runErr := runner.Run(ctx, file)
	if bar != nil {
		_ = bar.Finish()
	}

	if runErr != nil && capture != nil {
		_, _ = opts.Stderr.Write(capture.Bytes())
	}

	return runErr
}

// targetEnviron merges the target's environment overrides into the current
// process environment.
func targetEnviron(env map[string]string) expand.Environ {
	pairs := os.Environ()
	if len(env) == 0 {
		return expand.ListEnviron(pairs...)
	}

	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pairs = append(pairs, name+"="+env[name])
	}

	return expand.ListEnviron(pairs...)
}

// fsCommands routes rm, mv and mkdir to in-process implementations so the
// pipeline behaves the same on platforms that don't ship them.
func fsCommands(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		hc := interp.HandlerCtx(ctx)

		handled, err := execFsCommand(hc, args)
		if !handled {
			return next(ctx, args)
		}

		if err != nil {
			fmt.Fprintln(hc.Stderr, err)
			return interp.NewExitStatus(1)
		}

		return nil
	}
}

// openHandler maps /dev/null to the platform equivalent. Everything else is
// passed through.
func openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == "/dev/null" {
		path = os.DevNull
	}

	return interp.DefaultOpenHandler()(ctx, path, flag, perm)
}

func commandBar(out io.Writer, desc string) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(-1, progressbar.OptionSetVisibility(false))
	}

	return progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

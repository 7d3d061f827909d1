package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	oe "os/exec"
	"strings"
)

// Result is the captured outcome of a finished command.
type Result struct {
	// Stdout is everything the command wrote to
	// standard output.
	Stdout string
	// Stderr is everything the command wrote to
	// standard error.
	Stderr string
	// ExitCode is the process exit status.
	ExitCode int
}

// Run executes the named command in the given directory
// and returns its captured output. A non-zero exit
// status is reported through Result.ExitCode and is not
// an error; failing to start the command is. Pass empty
// dir to use the current working directory.
func Run(
	ctx context.Context,
	dir string,
	name string,
	arg ...string,
) (Result, error) {
	const errCtx = "running command"

	slog.Info(
		"executing",
		"cmd", name,
		"args", strings.Join(arg, " "),
	)

	//nolint:gosec // commands and args come from the caller
	cmd := oe.CommandContext(ctx, name, arg...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *oe.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()

		return res, nil
	}

	if err != nil {
		return res, fmt.Errorf(
			"%s: %s %s: %w",
			errCtx, name, strings.Join(arg, " "), err,
		)
	}

	return res, nil
}

// Ex executes the named command and returns its
// standard output. A non-zero exit status is an error:
// the captured output is logged and the returned error
// names the failing command.
func Ex(
	ctx context.Context,
	dir string,
	name string,
	arg ...string,
) (string, error) {
	const errCtx = "executing command"

	res, err := Run(ctx, dir, name, arg...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	if res.ExitCode != 0 {
		slog.Error(
			"command failed",
			"cmd", name,
			"exit_code", res.ExitCode,
			"stdout", res.Stdout,
			"stderr", res.Stderr,
		)

		return res.Stdout, fmt.Errorf(
			"%s: failed to run %s %s: exit status %d",
			errCtx, name, strings.Join(arg, " "),
			res.ExitCode,
		)
	}

	slog.Debug("output", "result", res.Stdout)

	return res.Stdout, nil
}

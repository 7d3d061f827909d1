package formatter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/byte4ever/code_format/codeformat/exec"
)

// ErrUnknownFormatter is returned when a name does not
// match any registered formatter.
var ErrUnknownFormatter = errors.New("unknown format")

// Result is the outcome of one formatter run.
type Result struct {
	// Diff is the formatting diff; empty when the code
	// is already compliant.
	Diff string
	// Command is the invocation used, suitable as
	// local reproduction instructions.
	Command []string
	// Files are the changed files the formatter
	// handled, after filtering.
	Files []string
}

// HasDiff reports whether the formatter found issues.
func (r Result) HasDiff() bool {
	return r.Diff != ""
}

// Formatter checks a set of changed files between two
// revisions. Run filters the changed files itself and
// reports the ones it handled in Result.Files.
type Formatter interface {
	// Name is the short name stored in comment tags.
	Name() string
	// FriendlyName is the human-readable description.
	FriendlyName() string
	// Filter returns the changed files this formatter
	// handles.
	Filter(changed []string) []string
	// Run formats the filtered files between startRev
	// and endRev.
	Run(
		ctx context.Context,
		changed []string,
		startRev string,
		endRev string,
	) (Result, error)
}

// ClangFormat runs git-clang-format over C/C++ files.
type ClangFormat struct {
	// Binary is the git-clang-format executable.
	// Empty means "git-clang-format".
	Binary string
	// Dir is the working directory for the run.
	Dir string
	// Exclude lists paths never handed to the
	// formatter.
	Exclude []string
}

var clangExtensions = []string{
	".cpp", ".c", ".h", ".hpp", ".hxx", ".cxx",
}

// Name implements Formatter.
func (*ClangFormat) Name() string { return "clang-format" }

// FriendlyName implements Formatter.
func (*ClangFormat) FriendlyName() string {
	return "C/C++ code formatter"
}

// Filter keeps C/C++ sources that are not excluded.
func (cf *ClangFormat) Filter(changed []string) []string {
	var files []string

	for _, path := range changed {
		if !slices.Contains(
			clangExtensions, filepath.Ext(path),
		) {
			continue
		}

		if slices.Contains(cf.Exclude, path) {
			slog.Info("excluding file", "path", path)

			continue
		}

		files = append(files, path)
	}

	return files
}

// Run implements Formatter.
func (cf *ClangFormat) Run(
	ctx context.Context,
	changed []string,
	startRev string,
	endRev string,
) (Result, error) {
	files := cf.Filter(changed)
	if len(files) == 0 {
		return Result{}, nil
	}

	bin := cf.Binary
	if bin == "" {
		bin = "git-clang-format"
	}

	cmd := append(
		[]string{bin, "--diff", startRev, endRev, "--"},
		files...,
	)

	res, err := runDiffTool(ctx, cf.Name(), cf.Dir, cmd)
	res.Files = files

	return res, err
}

// Darker runs darker over Python files.
type Darker struct {
	// Binary is the darker executable. Empty means
	// "darker".
	Binary string
	// Dir is the working directory for the run.
	Dir string
}

// Name implements Formatter.
func (*Darker) Name() string { return "darker" }

// FriendlyName implements Formatter.
func (*Darker) FriendlyName() string {
	return "Python code formatter"
}

// Filter keeps Python sources.
func (*Darker) Filter(changed []string) []string {
	var files []string

	for _, path := range changed {
		if filepath.Ext(path) == ".py" {
			files = append(files, path)
		}
	}

	return files
}

// Run implements Formatter.
func (dk *Darker) Run(
	ctx context.Context,
	changed []string,
	startRev string,
	endRev string,
) (Result, error) {
	files := dk.Filter(changed)
	if len(files) == 0 {
		return Result{}, nil
	}

	bin := dk.Binary
	if bin == "" {
		bin = "darker"
	}

	cmd := append(
		[]string{
			bin, "--check", "--diff",
			"-r", startRev + ".." + endRev,
		},
		files...,
	)

	res, err := runDiffTool(ctx, dk.Name(), dk.Dir, cmd)
	res.Files = files

	return res, err
}

// runDiffTool runs a formatter in diff mode. Exit 0
// means compliant, exit 1 means stdout holds the diff,
// anything else is a failure.
func runDiffTool(
	ctx context.Context,
	name string,
	dir string,
	cmd []string,
) (Result, error) {
	const errCtx = "running formatter"

	res, err := exec.Run(ctx, dir, cmd[0], cmd[1:]...)
	if err != nil {
		return Result{}, fmt.Errorf(
			"%s %s: %w", errCtx, name, err,
		)
	}

	switch res.ExitCode {
	case 0:
		return Result{Command: cmd}, nil
	case 1:
		return Result{
			Diff:    res.Stdout,
			Command: cmd,
		}, nil
	default:
		return Result{}, fmt.Errorf(
			"%s %s: %s exited with status %d: %s",
			errCtx, name, strings.Join(cmd, " "),
			res.ExitCode, strings.TrimSpace(res.Stderr),
		)
	}
}

package formatter_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/code_format/codeformat/formatter"
)

var changed = []string{"a.cpp", "b.py", "c.h", "d.txt"}

// fakeTool writes an executable script that records its
// arguments, prints stdout, and exits with code.
func fakeTool(
	t *testing.T,
	code int,
	stdout string,
) (string, string) {
	t.Helper()

	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	outFile := filepath.Join(dir, "stdout")
	bin := filepath.Join(dir, "tool")

	//nolint:gosec // test file
	require.NoError(t, os.WriteFile(
		outFile, []byte(stdout), 0o644,
	))

	script := fmt.Sprintf(
		"#!/bin/sh\necho \"$@\" > %q\ncat %q\necho oops >&2\nexit %d\n",
		argsFile, outFile, code,
	)

	//nolint:gosec // executable test script
	require.NoError(t, os.WriteFile(
		bin, []byte(script), 0o755,
	))

	return bin, argsFile
}

func readArgs(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path) //nolint:gosec // test file
	require.NoError(t, err)

	return strings.TrimSpace(string(data))
}

func TestClangFormat_Filter(t *testing.T) {
	t.Parallel()

	cf := &formatter.ClangFormat{}

	assert.Equal(t, []string{"a.cpp", "c.h"}, cf.Filter(changed))
}

func TestClangFormat_Filter_all_extensions(t *testing.T) {
	t.Parallel()

	cf := &formatter.ClangFormat{}
	in := []string{
		"x.cpp", "x.c", "x.h", "x.hpp", "x.hxx", "x.cxx",
		"x.cc", "x.inc", "x.py",
	}

	assert.Equal(t, []string{
		"x.cpp", "x.c", "x.h", "x.hpp", "x.hxx", "x.cxx",
	}, cf.Filter(in))
}

func TestClangFormat_Filter_exclude(t *testing.T) {
	t.Parallel()

	cf := &formatter.ClangFormat{Exclude: []string{"a.cpp"}}

	assert.Equal(t, []string{"c.h"}, cf.Filter(changed))
}

func TestDarker_Filter(t *testing.T) {
	t.Parallel()

	assert.Equal(
		t, []string{"b.py"}, (&formatter.Darker{}).Filter(changed),
	)
}

func TestNames(t *testing.T) {
	t.Parallel()

	cf := &formatter.ClangFormat{}
	dk := &formatter.Darker{}

	assert.Equal(t, "clang-format", cf.Name())
	assert.Equal(t, "C/C++ code formatter", cf.FriendlyName())
	assert.Equal(t, "darker", dk.Name())
	assert.Equal(t, "Python code formatter", dk.FriendlyName())
}

func TestClangFormat_Run_compliant(t *testing.T) {
	t.Parallel()

	bin, argsFile := fakeTool(t, 0, "")
	cf := &formatter.ClangFormat{Binary: bin}

	res, err := cf.Run(context.Background(), changed, "base", "head")

	require.NoError(t, err)
	assert.False(t, res.HasDiff())
	assert.Equal(
		t, "--diff base head -- a.cpp c.h",
		readArgs(t, argsFile),
	)
}

func TestClangFormat_Run_diff(t *testing.T) {
	t.Parallel()

	bin, _ := fakeTool(t, 1, "the diff\n")
	cf := &formatter.ClangFormat{Binary: bin}

	res, err := cf.Run(context.Background(), changed, "base", "head")

	require.NoError(t, err)
	assert.True(t, res.HasDiff())
	assert.Equal(t, "the diff\n", res.Diff)
	assert.Equal(t, []string{
		bin, "--diff", "base", "head", "--", "a.cpp", "c.h",
	}, res.Command)
	assert.Equal(t, []string{"a.cpp", "c.h"}, res.Files)
}

func TestClangFormat_Run_failure(t *testing.T) {
	t.Parallel()

	bin, _ := fakeTool(t, 2, "")
	cf := &formatter.ClangFormat{Binary: bin}

	_, err := cf.Run(context.Background(), changed, "base", "head")

	assert.ErrorContains(t, err, "exited with status 2")
	assert.ErrorContains(t, err, "oops")
}

func TestClangFormat_Run_no_matching_files(t *testing.T) {
	t.Parallel()

	bin, argsFile := fakeTool(t, 1, "should not run")
	cf := &formatter.ClangFormat{Binary: bin}

	res, err := cf.Run(
		context.Background(), []string{"a.py"}, "base", "head",
	)

	require.NoError(t, err)
	assert.False(t, res.HasDiff())
	assert.Empty(t, res.Files)
	assert.NoFileExists(t, argsFile)
}

func TestClangFormat_Run_missing_binary(t *testing.T) {
	t.Parallel()

	cf := &formatter.ClangFormat{
		Binary: filepath.Join(t.TempDir(), "missing"),
	}

	_, err := cf.Run(context.Background(), changed, "base", "head")

	assert.ErrorContains(t, err, "running formatter clang-format")
}

func TestDarker_Run_diff(t *testing.T) {
	t.Parallel()

	bin, argsFile := fakeTool(t, 1, "--- b.py\n+++ b.py\n")
	dk := &formatter.Darker{Binary: bin}

	res, err := dk.Run(context.Background(), changed, "base", "head")

	require.NoError(t, err)
	assert.Equal(t, "--- b.py\n+++ b.py\n", res.Diff)
	assert.Equal(
		t, "--check --diff -r base..head b.py",
		readArgs(t, argsFile),
	)
}

func TestDarker_Run_compliant(t *testing.T) {
	t.Parallel()

	bin, _ := fakeTool(t, 0, "")
	dk := &formatter.Darker{Binary: bin}

	res, err := dk.Run(context.Background(), changed, "base", "head")

	require.NoError(t, err)
	assert.False(t, res.HasDiff())
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	dk := &formatter.Darker{}
	cf := &formatter.ClangFormat{}
	reg := formatter.NewRegistry(dk, cf)

	assert.Equal(t, []formatter.Formatter{dk, cf}, reg.All())

	got, err := reg.Lookup("clang-format")
	require.NoError(t, err)
	assert.Same(t, cf, got)

	_, err = reg.Lookup("rustfmt")
	assert.ErrorIs(t, err, formatter.ErrUnknownFormatter)
	assert.ErrorContains(t, err, "unknown format rustfmt")
}

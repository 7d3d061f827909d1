// Package gittest builds throwaway git repositories for tests.
package gittest

import (
	"context"
	"os"
	oe "os/exec"
	"path/filepath"
	"testing"
)

// InitRepo creates a git repository in dir with one
// empty initial commit on main. Hooks are disabled so
// local pre-commit scanners do not interfere.
func InitRepo(tb testing.TB, dir string) {
	tb.Helper()

	cmds := [][]string{
		{"init", "-b", "main"},
		{
			"config",
			"user.email", "test@test.com",
		},
		{"config", "user.name", "Test"},
		{
			"config", "core.hooksPath",
			"/dev/null",
		},
		{
			"commit", "--allow-empty",
			"-m", "initial",
		},
	}

	for _, args := range cmds {
		Git(tb, dir, args...)
	}
}

// Fork creates a bare repository whose branch holds
// files committed on top of an initial commit, and
// returns its path. It stands in for a contributor's
// fork.
func Fork(
	tb testing.TB,
	branch string,
	files map[string]string,
) string {
	tb.Helper()

	return ForkMessage(tb, branch, "contributor change", files)
}

// ForkMessage is Fork with the tip commit message set
// to msg.
func ForkMessage(
	tb testing.TB,
	branch string,
	msg string,
	files map[string]string,
) string {
	tb.Helper()

	root := tb.TempDir()
	work := filepath.Join(root, "work")

	if err := os.MkdirAll(work, 0o750); err != nil {
		tb.Fatalf("mkdir %s: %v", work, err)
	}

	InitRepo(tb, work)
	Git(tb, work, "checkout", "-b", branch)
	WriteFiles(tb, work, files)
	Git(tb, work, "add", ".")
	Git(tb, work, "commit", "-m", msg)

	bare := filepath.Join(root, "fork.git")
	Git(tb, root, "clone", "--bare", work, bare)

	return bare
}

// WriteFiles writes name->content pairs below dir.
func WriteFiles(
	tb testing.TB,
	dir string,
	files map[string]string,
) {
	tb.Helper()

	for name, content := range files {
		path := filepath.Join(dir, name)

		if err := os.MkdirAll(
			filepath.Dir(path), 0o750,
		); err != nil {
			tb.Fatalf("mkdir for %s: %v", name, err)
		}

		//nolint:gosec // test file
		if err := os.WriteFile(
			path, []byte(content), 0o644,
		); err != nil {
			tb.Fatalf("write %s: %v", name, err)
		}
	}
}

// Git runs a git command in dir and returns its
// combined output, failing the test on error.
func Git(
	tb testing.TB,
	dir string,
	args ...string,
) string {
	tb.Helper()

	//nolint:gosec // test helper
	cmd := oe.CommandContext(
		context.Background(), "git", args...,
	)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		tb.Fatalf(
			"git %v failed: %s: %v",
			args, string(out), err,
		)
	}

	return string(out)
}

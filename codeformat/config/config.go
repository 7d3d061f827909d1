package config

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/sethvargo/go-envconfig"
)

// DefaultRepository is used when GITHUB_REPOSITORY is
// not set.
const DefaultRepository = "llvm/llvm-project"

// Env holds values read from the process environment.
type Env struct {
	// Repository is the owner/name of the repository
	// the pull request belongs to.
	Repository string `env:"GITHUB_REPOSITORY,default=llvm/llvm-project"`
	// APIURL is the REST API root. Empty means
	// api.github.com.
	APIURL string `env:"GITHUB_API_URL"`
	// GitLabHost is the GitLab instance URL set by
	// GitLab CI.
	GitLabHost string `env:"CI_SERVER_URL"`
}

// LoadEnv reads Env from the process environment.
func LoadEnv(ctx context.Context) (Env, error) {
	return LoadEnvFrom(ctx, envconfig.OsLookuper())
}

// LoadEnvFrom reads Env through the given lookuper.
func LoadEnvFrom(
	ctx context.Context,
	lookuper envconfig.Lookuper,
) (Env, error) {
	const errCtx = "loading environment"

	var env Env

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: lookuper,
	}); err != nil {
		return Env{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return env, nil
}

// Settings is the optional YAML settings file.
type Settings struct {
	ClangFormat ClangFormatSettings `yaml:"clang_format"`
	Darker      DarkerSettings      `yaml:"darker"`
	Git         GitSettings         `yaml:"git"`
}

// ClangFormatSettings configures the C/C++ formatter.
type ClangFormatSettings struct {
	// Binary is the git-clang-format executable.
	Binary string `yaml:"binary"`
	// Exclude lists paths never handed to the
	// formatter.
	Exclude []string `yaml:"exclude"`
	// ExcludeFile names a file with one excluded path
	// per line.
	ExcludeFile string `yaml:"exclude_file"`
}

// DarkerSettings configures the Python formatter.
type DarkerSettings struct {
	// Binary is the darker executable.
	Binary string `yaml:"binary"`
}

// GitSettings configures the commits made when a diff
// is applied directly.
type GitSettings struct {
	Remote        string `yaml:"remote"`
	CommitMessage string `yaml:"commit_message"`
	UserName      string `yaml:"user_name"`
	UserEmail     string `yaml:"user_email"`
}

// DefaultCommitMessage is used when no commit message is
// configured.
const DefaultCommitMessage = "[clang-format] apply formatting changes"

// LoadSettings parses the YAML settings file at path. An
// empty path yields defaults. When ExcludeFile is set its
// entries are merged into ClangFormat.Exclude.
func LoadSettings(path string) (Settings, error) {
	const errCtx = "loading settings"

	var st Settings

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
		if err != nil {
			return Settings{}, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		if err := yaml.Unmarshal(data, &st); err != nil {
			return Settings{}, fmt.Errorf(
				"%s: parse %s: %w", errCtx, path, err,
			)
		}
	}

	if st.ClangFormat.ExcludeFile != "" {
		excl, err := ReadExcludeFile(
			st.ClangFormat.ExcludeFile,
		)
		if err != nil {
			return Settings{}, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		st.ClangFormat.Exclude = append(
			st.ClangFormat.Exclude, excl...,
		)
	}

	if st.Git.CommitMessage == "" {
		st.Git.CommitMessage = DefaultCommitMessage
	}

	return st, nil
}

// ReadExcludeFile reads one path per line, trimming
// whitespace and skipping blank lines and # comments.
func ReadExcludeFile(path string) ([]string, error) {
	const errCtx = "reading exclude file"

	data, err := os.ReadFile(path) //nolint:gosec // path from settings
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var paths []string

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		paths = append(paths, line)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return paths, nil
}

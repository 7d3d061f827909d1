package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/byte4ever/code_format/codeformat/config"
	"github.com/byte4ever/code_format/codeformat/git"
	"github.com/byte4ever/code_format/codeformat/git/github"
	"github.com/byte4ever/code_format/codeformat/git/gitlab"
)

// Review hosts accepted by --provider.
const (
	ProviderGitHub = "github"
	ProviderGitLab = "gitlab"
)

// Common holds the flags every command accepts.
type Common struct {
	Token          string
	Repo           string
	IssueNumber    int
	EnterpriseHost string
	ProviderName   string
	GitLabHost     string
	WorkDir        string
	Verbose        bool

	// APIURL comes from the environment only.
	APIURL string
}

// Register adds the common flags to cmd. The repository
// defaults to the one named by env.
func (c *Common) Register(cmd *cobra.Command, env config.Env) {
	fs := cmd.Flags()

	fs.StringVar(
		&c.Token, "token", "",
		"GitHub or GitLab authentication token",
	)
	fs.StringVar(
		&c.Repo, "repo", env.Repository,
		"The GitHub repository that we are working with "+
			"in the form of <owner>/<repo> "+
			"(e.g. llvm/llvm-project)",
	)
	fs.IntVar(
		&c.IssueNumber, "issue-number", 0,
		"Pull request number",
	)
	fs.StringVar(
		&c.EnterpriseHost, "github-enterprise-host", "",
		"GitHub Enterprise hostname",
	)
	fs.StringVar(
		&c.ProviderName, "provider", ProviderGitHub,
		"Review host: github or gitlab",
	)
	fs.StringVar(
		&c.GitLabHost, "gitlab-host", env.GitLabHost,
		"GitLab instance URL (default https://gitlab.com)",
	)
	fs.StringVar(
		&c.WorkDir, "workdir", ".",
		"Local working copy of the repository",
	)
	fs.BoolVarP(
		&c.Verbose, "verbose", "v", false,
		"Enable debug logging",
	)

	c.APIURL = env.APIURL

	for _, name := range []string{"token", "issue-number"} {
		// Only fails for undefined flags.
		_ = cmd.MarkFlagRequired(name)
	}
}

// Provider returns the review provider selected by
// --provider for the configured repository. Pull request
// numbers are merge request iids on GitLab.
func (c *Common) Provider() (git.ReviewProvider, error) {
	switch c.ProviderName {
	case ProviderGitHub, "":
		return c.githubProvider()
	case ProviderGitLab:
		return c.gitlabProvider()
	default:
		return nil, fmt.Errorf(
			"configuring review provider: unknown provider %q",
			c.ProviderName,
		)
	}
}

func (c *Common) githubProvider() (git.ReviewProvider, error) {
	const errCtx = "configuring github"

	owner, name, err := github.SplitRepo(c.Repo)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	cfg := github.Config{
		RepoOwner:      owner,
		Repo:           name,
		AccessToken:    c.Token,
		EnterpriseHost: c.EnterpriseHost,
	}

	if c.EnterpriseHost == "" {
		cfg.BaseURL = c.APIURL
	}

	p, err := github.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return p, nil
}

func (c *Common) gitlabProvider() (git.ReviewProvider, error) {
	p, err := gitlab.NewProvider(gitlab.Config{
		Host:         c.GitLabHost,
		Repo:         c.Repo,
		AccessToken:  c.Token,
		MergeRequest: c.IssueNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring gitlab: %w", err)
	}

	return p, nil
}

// SetupLogging installs a text handler writing to w as
// the default logger and returns its level.
func SetupLogging(w io.Writer) *slog.LevelVar {
	lvl := new(slog.LevelVar)

	slog.SetDefault(slog.New(slog.NewTextHandler(
		w, &slog.HandlerOptions{Level: lvl},
	)))

	return lvl
}

// ApplyVerbosity lowers lvl to debug when verbose
// logging was requested.
func (c *Common) ApplyVerbosity(lvl *slog.LevelVar) {
	if c.Verbose {
		lvl.Set(slog.LevelDebug)
	}
}

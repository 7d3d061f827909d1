// Command code-format-helper runs the code formatters over the files
// changed by a pull request. Findings are posted as a tagged comment on the
// pull request, or applied and pushed to its head branch with --apply-diff.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/byte4ever/code_format/codeformat/cli"
	"github.com/byte4ever/code_format/codeformat/config"
	"github.com/byte4ever/code_format/codeformat/formatter"
	"github.com/byte4ever/code_format/codeformat/git"
	"github.com/byte4ever/code_format/codeformat/helper"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)

	err := run(ctx, os.Args[1:], os.Stderr)

	stop()

	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	const errCtx = "running code-format-helper"

	lvl := cli.SetupLogging(stderr)

	env, err := config.LoadEnv(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	cmd := newCommand(env, lvl)
	cmd.SetArgs(args)
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

//nolint:funlen // CLI flag setup is inherently long
func newCommand(env config.Env, lvl *slog.LevelVar) *cobra.Command {
	var (
		common       cli.Common
		startRev     string
		endRev       string
		changedFiles string
		applyDiff    bool
		commentID    int64
		settingsPath string
		reportPath   string
	)

	cmd := &cobra.Command{
		Use:   "code-format-helper",
		Short: "Run code formatters over a pull request",
		Args:  cobra.NoArgs,

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	common.Register(cmd, env)

	fs := cmd.Flags()
	fs.StringVar(
		&startRev, "start-rev", "",
		"Compute changes from this revision.",
	)
	fs.StringVar(
		&endRev, "end-rev", "",
		"Compute changes to this revision",
	)
	fs.StringVar(
		&changedFiles, "changed-files", "",
		"Comma separated list of files that has been changed",
	)
	fs.BoolVar(
		&applyDiff, "apply-diff", false,
		"Apply the diff to the head branch",
	)
	fs.Int64Var(
		&commentID, "comment-id", 0,
		"Comment that triggered the run; only its "+
			"formatter runs",
	)
	fs.StringVar(
		&settingsPath, "config", "",
		"YAML settings file",
	)
	fs.StringVar(
		&reportPath, "report", "",
		"Write a JSON report of the run to this path",
	)

	for _, name := range []string{
		"start-rev", "end-rev", "apply-diff",
	} {
		// Only fails for undefined flags.
		_ = cmd.MarkFlagRequired(name)
	}

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		common.ApplyVerbosity(lvl)

		settings, err := config.LoadSettings(settingsPath)
		if err != nil {
			return err
		}

		provider, err := common.Provider()
		if err != nil {
			return err
		}

		registry := formatter.NewRegistry(
			&formatter.Darker{
				Binary: settings.Darker.Binary,
				Dir:    common.WorkDir,
			},
			&formatter.ClangFormat{
				Binary:  settings.ClangFormat.Binary,
				Dir:     common.WorkDir,
				Exclude: settings.ClangFormat.Exclude,
			},
		)

		out, err := helper.Run(cmd.Context(), helper.Config{
			IssueNumber:  common.IssueNumber,
			StartRev:     startRev,
			EndRev:       endRev,
			ChangedFiles: splitFiles(changedFiles),
			ApplyDiff:    applyDiff,
			CommentID:    commentID,
			Git:          settings.Git,
			ReportPath:   reportPath,
			Registry:     registry,
			Repo: git.NewRepo(
				common.WorkDir, settings.Git.Remote,
			),
			Provider: provider,
		})
		if err != nil {
			return err
		}

		return out.Err()
	}

	return cmd
}

// splitFiles splits the comma separated changed file
// list. An empty list yields no files.
func splitFiles(s string) []string {
	if s == "" {
		return nil
	}

	return strings.Split(s, ",")
}

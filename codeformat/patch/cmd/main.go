// Command code-format-diff-apply applies the diff embedded in a formatter
// status comment to the pull request's head branch and stages the result.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/byte4ever/code_format/codeformat/cli"
	"github.com/byte4ever/code_format/codeformat/config"
	"github.com/byte4ever/code_format/codeformat/git"
	"github.com/byte4ever/code_format/codeformat/patch"
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
	const errCtx = "running code-format-diff-apply"

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

func newCommand(env config.Env, lvl *slog.LevelVar) *cobra.Command {
	var (
		common    cli.Common
		commentID int64
	)

	cmd := &cobra.Command{
		Use:   "code-format-diff-apply",
		Short: "Apply the diff from a formatter comment",
		Args:  cobra.NoArgs,

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	common.Register(cmd, env)

	cmd.Flags().Int64Var(
		&commentID, "comment-id", 0,
		"Comment holding the diff",
	)

	// Only fails for undefined flags.
	_ = cmd.MarkFlagRequired("comment-id")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		common.ApplyVerbosity(lvl)

		provider, err := common.Provider()
		if err != nil {
			return err
		}

		return patch.Run(cmd.Context(), patch.Config{
			IssueNumber: common.IssueNumber,
			CommentID:   commentID,
			Repo:        git.NewRepo(common.WorkDir, ""),
			Provider:    provider,
		})
	}

	return cmd
}

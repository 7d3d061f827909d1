package patch

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/byte4ever/code_format/codeformat/commentmsg"
	"github.com/byte4ever/code_format/codeformat/diff"
	"github.com/byte4ever/code_format/codeformat/git"
)

// Config holds the settings for one diff-apply run.
type Config struct {
	// IssueNumber is the pull request number.
	IssueNumber int

	// CommentID is the status comment holding the
	// diff.
	CommentID int64

	// Repo is the local working copy.
	Repo *git.Repo

	// Provider reads the pull request and comment.
	Provider git.ReviewProvider
}

// Run fetches the comment, extracts its diff, and
// applies it to the pull request's head branch. The diff
// is extracted before any git command runs, so a comment
// without a diff leaves the working copy untouched.
func Run(ctx context.Context, cfg Config) error {
	const errCtx = "applying diff from comment"

	pr, err := cfg.Provider.PullRequest(ctx, cfg.IssueNumber)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	cm, err := cfg.Provider.GetComment(ctx, cfg.CommentID)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	d, err := commentmsg.ExtractDiff(cm.Body)
	if err != nil {
		return fmt.Errorf(
			"%s: %w",
			errCtx, commentmsg.DiffNotFoundError(cm.ID),
		)
	}

	if err := ApplyDiff(ctx, cfg.Repo, pr, d); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// ApplyDiff checks out the pull request head branch from
// its fork, applies d, and stages the result. Nothing is
// rolled back on failure.
func ApplyDiff(
	ctx context.Context,
	repo *git.Repo,
	pr *git.PullRequest,
	d string,
) error {
	const errCtx = "applying diff"

	slog.Info(
		"applying diff",
		"head_repo", pr.HeadRepoFullName,
		"head_ref", pr.HeadRef,
		"files", diff.Summarize(d),
	)

	if err := Checkout(ctx, repo, pr); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := ApplyStaged(ctx, repo, d); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Checkout adds the pull request's fork as a remote,
// fetches its head branch, and checks it out.
func Checkout(
	ctx context.Context,
	repo *git.Repo,
	pr *git.PullRequest,
) error {
	if err := repo.AddRemote(ctx, pr.HeadRepoURL); err != nil {
		return err
	}

	if err := repo.Fetch(ctx, pr.HeadRef); err != nil {
		return err
	}

	return repo.Checkout(ctx, pr.HeadRef)
}

// ApplyStaged applies d to the current checkout and
// stages the result. Use it for further diffs once
// ApplyDiff has checked out the head branch.
func ApplyStaged(
	ctx context.Context,
	repo *git.Repo,
	d string,
) error {
	if err := applyFile(ctx, repo, diff.Normalize(d)); err != nil {
		return err
	}

	return repo.AddAll(ctx)
}

// applyFile writes d to a temporary file that is
// removed on return, and git applies it.
func applyFile(
	ctx context.Context,
	repo *git.Repo,
	d string,
) (retErr error) {
	const errCtx = "writing patch file"

	tmp, err := os.CreateTemp("", "code-format-*.diff")
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if rmErr := os.Remove(tmp.Name()); rmErr != nil &&
			retErr == nil {
			retErr = fmt.Errorf("%s: %w", errCtx, rmErr)
		}
	}()

	if _, err := tmp.WriteString(d); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error wins

		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return repo.Apply(ctx, tmp.Name())
}

package git

import (
	"context"
	"fmt"

	gogit "github.com/go-git/go-git/v5"

	"github.com/byte4ever/code_format/codeformat/exec"
)

// DefaultRemote is the name of the temporary remote
// pointing at the contributor's fork.
const DefaultRemote = "pr"

// Repo is the local working copy the tools operate on.
// All git operations assume exclusive access to it for
// the duration of one run.
type Repo struct {
	// Dir is the filesystem location of the working
	// copy. Empty means the current directory.
	Dir string
	// RemoteName is the name of the fork remote.
	RemoteName string
}

// NewRepo returns a Repo rooted at dir. An empty remote
// selects DefaultRemote.
func NewRepo(dir string, remote string) *Repo {
	if remote == "" {
		remote = DefaultRemote
	}

	return &Repo{
		Dir:        dir,
		RemoteName: remote,
	}
}

// AddRemote registers url under the repo's remote name.
func (r *Repo) AddRemote(
	ctx context.Context,
	url string,
) error {
	const errCtx = "adding remote"

	if _, err := r.git(
		ctx, "remote", "add", r.RemoteName, url,
	); err != nil {
		return fmt.Errorf(
			"%s: failed to add remote for %s: %w",
			errCtx, url, err,
		)
	}

	return nil
}

// Fetch fetches ref from the fork remote.
func (r *Repo) Fetch(ctx context.Context, ref string) error {
	const errCtx = "fetching"

	if _, err := r.git(
		ctx, "fetch", r.RemoteName, ref,
	); err != nil {
		return fmt.Errorf(
			"%s: failed to fetch %s: %w",
			errCtx, ref, err,
		)
	}

	return nil
}

// Checkout switches the working copy to ref.
func (r *Repo) Checkout(
	ctx context.Context,
	ref string,
) error {
	const errCtx = "checking out"

	if _, err := r.git(ctx, "checkout", ref); err != nil {
		return fmt.Errorf(
			"%s: failed to checkout %s: %w",
			errCtx, ref, err,
		)
	}

	return nil
}

// Apply applies the patch file at path to the working
// tree.
func (r *Repo) Apply(
	ctx context.Context,
	path string,
) error {
	const errCtx = "applying patch"

	if _, err := r.git(ctx, "apply", path); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// AddAll stages every change in the working tree.
func (r *Repo) AddAll(ctx context.Context) error {
	const errCtx = "staging changes"

	if _, err := r.git(ctx, "add", "."); err != nil {
		return fmt.Errorf(
			"%s: failed to add files to commit: %w",
			errCtx, err,
		)
	}

	return nil
}

// SetIdentity configures the committer name and email
// for this working copy. Empty values are left
// untouched.
func (r *Repo) SetIdentity(
	ctx context.Context,
	name string,
	email string,
) error {
	const errCtx = "setting git identity"

	if name != "" {
		if _, err := r.git(
			ctx, "config", "user.name", name,
		); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	if email != "" {
		if _, err := r.git(
			ctx, "config", "user.email", email,
		); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return nil
}

// Commit commits the staged changes. Returns true when
// a commit was made, false when there was nothing to
// commit.
func (r *Repo) Commit(
	ctx context.Context,
	message string,
) (bool, error) {
	const errCtx = "committing"

	clean, err := r.IsClean()
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	if clean {
		return false, nil
	}

	if _, err := r.git(
		ctx, "commit", "-m", message,
	); err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	return true, nil
}

// Push pushes the current HEAD to ref on the fork
// remote.
func (r *Repo) Push(ctx context.Context, ref string) error {
	const errCtx = "pushing"

	if _, err := r.git(
		ctx, "push", r.RemoteName, "HEAD:"+ref,
	); err != nil {
		return fmt.Errorf(
			"%s: failed to push %s: %w",
			errCtx, ref, err,
		)
	}

	return nil
}

// LastCommitMessage returns the full message of the
// HEAD commit.
func (r *Repo) LastCommitMessage(ctx context.Context) (string, error) {
	const errCtx = "reading last commit message"

	msg, err := r.git(ctx, "log", "-1", "--format=%B")
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return msg, nil
}

// IsClean reports whether the working tree and index
// have no changes relative to HEAD.
func (r *Repo) IsClean() (bool, error) {
	const errCtx = "checking repo status"

	dir := r.Dir
	if dir == "" {
		dir = "."
	}

	repo, err := gogit.PlainOpenWithOptions(
		dir,
		&gogit.PlainOpenOptions{DetectDotGit: true},
	)
	if err != nil {
		return false, fmt.Errorf(
			"%s: open: %w", errCtx, err,
		)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf(
			"%s: worktree: %w", errCtx, err,
		)
	}

	st, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf(
			"%s: status: %w", errCtx, err,
		)
	}

	return st.IsClean(), nil
}

// git runs a git subcommand inside the working copy.
func (r *Repo) git(
	ctx context.Context,
	args ...string,
) (string, error) {
	return exec.Ex(ctx, r.Dir, "git", args...)
}

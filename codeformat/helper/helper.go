package helper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/code_format/codeformat/commentmsg"
	"github.com/byte4ever/code_format/codeformat/commitmsg"
	"github.com/byte4ever/code_format/codeformat/config"
	"github.com/byte4ever/code_format/codeformat/diff"
	"github.com/byte4ever/code_format/codeformat/formatter"
	"github.com/byte4ever/code_format/codeformat/git"
	"github.com/byte4ever/code_format/codeformat/patch"
)

// ErrFormattingIssues is returned by the command when at
// least one formatter left unapplied issues.
var ErrFormattingIssues = errors.New("formatting issues found")

// Config holds all settings for a formatting run. Use a
// Config struct instead of many arguments.
type Config struct {
	// IssueNumber is the pull request number.
	IssueNumber int

	// StartRev and EndRev bound the revision range
	// handed to the formatters.
	StartRev string
	EndRev   string

	// ChangedFiles lists the paths changed by the pull
	// request.
	ChangedFiles []string

	// ApplyDiff commits and pushes diffs instead of
	// commenting on them.
	ApplyDiff bool

	// CommentID, when non-zero, is the comment that
	// triggered the run. Only the formatter named by its
	// tag runs.
	CommentID int64

	// Git configures commits made in apply mode.
	Git config.GitSettings

	// ReportPath, when set, receives a JSON report of
	// the run.
	ReportPath string

	// Registry lists the available formatters.
	Registry *formatter.Registry

	// Repo is the local working copy.
	Repo *git.Repo

	// Provider reads and writes pull request comments.
	Provider git.ReviewProvider
}

// FormatterOutcome records what one formatter found and
// what was done about it.
type FormatterOutcome struct {
	Name      string   `json:"name"`
	Files     []string `json:"files"`
	Command   []string `json:"command,omitempty"`
	HasDiff   bool     `json:"has_diff"`
	DiffFiles []string `json:"diff_files,omitempty"`
	Applied   bool     `json:"applied"`
	Pushed    bool     `json:"pushed"`
	CommentID int64    `json:"comment_id,omitempty"`
}

// Outcome is the result of a formatting run.
type Outcome struct {
	IssueNumber int                `json:"issue_number"`
	StartRev    string             `json:"start_rev"`
	EndRev      string             `json:"end_rev"`
	Formatters  []FormatterOutcome `json:"formatters"`
	Error       string             `json:"error,omitempty"`
}

// Failed reports whether any formatter left issues that
// were not applied.
func (o Outcome) Failed() bool {
	for _, fo := range o.Formatters {
		if fo.HasDiff && !fo.Applied {
			return true
		}
	}

	return false
}

// Err returns an error wrapping ErrFormattingIssues that
// names the formatters with unapplied issues, or nil.
func (o Outcome) Err() error {
	var names []string

	for _, fo := range o.Formatters {
		if fo.HasDiff && !fo.Applied {
			names = append(names, fo.Name)
		}
	}

	if len(names) == 0 {
		return nil
	}

	return fmt.Errorf(
		"%w: %s", ErrFormattingIssues, strings.Join(names, ", "),
	)
}

// Run executes the formatters selected by cfg and
// updates the pull request accordingly. Formatters run
// sequentially; the first error aborts the run. The
// report, when requested, is written on every return and
// holds the formatters that ran before a failure.
func Run(ctx context.Context, cfg Config) (out Outcome, retErr error) {
	const errCtx = "running code formatters"

	out = Outcome{
		IssueNumber: cfg.IssueNumber,
		StartRev:    cfg.StartRev,
		EndRev:      cfg.EndRev,
	}

	if cfg.ReportPath != "" {
		defer func() {
			if retErr != nil {
				out.Error = retErr.Error()
			}

			if err := WriteReport(cfg.ReportPath, out); err != nil {
				slog.Error("cannot write report", "error", err)

				if retErr == nil {
					retErr = fmt.Errorf("%s: %w", errCtx, err)
				}
			}
		}()
	}

	pr, err := cfg.Provider.PullRequest(ctx, cfg.IssueNumber)
	if err != nil {
		return out, fmt.Errorf("%s: %w", errCtx, err)
	}

	formatters, err := selectFormatters(ctx, cfg)
	if err != nil {
		return out, fmt.Errorf("%s: %w", errCtx, err)
	}

	r := &runner{cfg: cfg, pr: pr}

	for _, f := range formatters {
		fo, err := r.runOne(ctx, f)
		out.Formatters = append(out.Formatters, fo)

		if err != nil {
			return out, fmt.Errorf(
				"%s: %s: %w", errCtx, f.Name(), err,
			)
		}
	}

	return out, nil
}

// selectFormatters returns the formatter named by the
// triggering comment's tag, or every formatter when the
// run was not triggered by a comment.
func selectFormatters(
	ctx context.Context,
	cfg Config,
) ([]formatter.Formatter, error) {
	const errCtx = "selecting formatters"

	if cfg.CommentID == 0 {
		return cfg.Registry.All(), nil
	}

	cm, err := cfg.Provider.GetComment(ctx, cfg.CommentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	name, err := commentmsg.ParseTag(cm.Body)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: could not find format in comment %d: %w",
			errCtx, cfg.CommentID, err,
		)
	}

	f, err := cfg.Registry.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"running formatter from comment",
		"comment_id", cfg.CommentID,
		"formatter", name,
	)

	return []formatter.Formatter{f}, nil
}

// runner carries the state shared by the formatters of
// one run.
type runner struct {
	cfg Config
	pr  *git.PullRequest

	// checkedOut is set once the head branch has been
	// checked out for applying a diff.
	checkedOut bool
}

func (r *runner) runOne(
	ctx context.Context,
	f formatter.Formatter,
) (FormatterOutcome, error) {
	fo := FormatterOutcome{Name: f.Name()}

	slog.Info(
		"running formatter",
		"formatter", f.Name(),
		"changed_files", r.cfg.ChangedFiles,
		"start_rev", r.cfg.StartRev,
		"end_rev", r.cfg.EndRev,
	)

	res, err := f.Run(
		ctx, r.cfg.ChangedFiles, r.cfg.StartRev, r.cfg.EndRev,
	)
	fo.Files = res.Files

	if err != nil {
		return fo, err
	}

	fo.Command = res.Command
	st := commentmsg.Status{
		Name:         f.Name(),
		FriendlyName: f.FriendlyName(),
	}

	if !res.HasDiff() {
		slog.Info(
			"no diff",
			"formatter", f.Name(),
			"apply_diff", r.cfg.ApplyDiff,
		)

		fo.CommentID, err = UpdatePRSuccess(
			ctx, r.cfg.Provider, r.pr.Number, st,
		)

		return fo, err
	}

	fo.HasDiff = true
	fo.DiffFiles = diff.Summarize(res.Diff)

	if !r.cfg.ApplyDiff {
		fo.CommentID, err = UpdatePR(
			ctx, r.cfg.Provider, r.pr.Number, st,
			res.Command, res.Diff,
		)

		return fo, err
	}

	applied, err := r.apply(ctx, f.Name(), res.Diff)
	if err != nil {
		return fo, err
	}

	if !applied {
		fo.CommentID, err = UpdatePR(
			ctx, r.cfg.Provider, r.pr.Number, st,
			res.Command, res.Diff,
		)

		return fo, err
	}

	fo.Applied = true

	fo.Pushed, err = r.commitAndPush(ctx, f.Name())
	if err != nil {
		return fo, err
	}

	fo.CommentID, err = UpdatePRSuccess(
		ctx, r.cfg.Provider, r.pr.Number, st,
	)

	return fo, err
}

// apply checks out the head branch once per run and
// stages d on it. It returns false without touching the
// tree when the head commit was already made by name,
// which means a previous push did not fix the issues.
func (r *runner) apply(
	ctx context.Context,
	name string,
	d string,
) (bool, error) {
	if !r.checkedOut {
		if err := patch.Checkout(ctx, r.cfg.Repo, r.pr); err != nil {
			return false, err
		}

		r.checkedOut = true
	}

	msg, err := r.cfg.Repo.LastCommitMessage(ctx)
	if err != nil {
		return false, err
	}

	if slices.Contains(commitmsg.ExtractFormatters(msg), name) {
		slog.Warn(
			"head commit already formatted, not applying again",
			"formatter", name,
			"head_ref", r.pr.HeadRef,
		)

		return false, nil
	}

	slog.Info(
		"applying diff",
		"formatter", name,
		"head_ref", r.pr.HeadRef,
		"files", diff.Summarize(d),
	)

	if err := patch.ApplyStaged(ctx, r.cfg.Repo, d); err != nil {
		return false, err
	}

	return true, nil
}

// commitAndPush commits the staged diff and pushes it to
// the head branch. Returns false when there was nothing
// to commit.
func (r *runner) commitAndPush(
	ctx context.Context,
	name string,
) (bool, error) {
	const errCtx = "pushing formatting changes"

	if err := r.cfg.Repo.SetIdentity(
		ctx, r.cfg.Git.UserName, r.cfg.Git.UserEmail,
	); err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	msg := r.cfg.Git.CommitMessage
	if msg == "" {
		msg = config.DefaultCommitMessage
	}

	committed, err := r.cfg.Repo.Commit(
		ctx, commitmsg.Generate(msg, []string{name}),
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	if !committed {
		slog.Info("nothing to commit", "head_ref", r.pr.HeadRef)

		return false, nil
	}

	if err := r.cfg.Repo.Push(ctx, r.pr.HeadRef); err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"pushed formatting changes",
		"head_repo", r.pr.HeadRepoFullName,
		"head_ref", r.pr.HeadRef,
	)

	return true, nil
}

// FindComment returns the first comment on the pull
// request whose body contains tag, or nil when none
// does.
func FindComment(
	ctx context.Context,
	provider git.ReviewProvider,
	number int,
	tag string,
) (*git.Comment, error) {
	const errCtx = "finding tagged comment"

	comments, err := provider.ListComments(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	for _, c := range comments {
		if strings.Contains(c.Body, tag) {
			return &c, nil
		}
	}

	return nil, nil //nolint:nilnil // absence is not an error
}

// UpdatePR writes the issues comment for st, editing the
// existing tagged comment or creating a new one. It
// returns the comment id.
func UpdatePR(
	ctx context.Context,
	provider git.ReviewProvider,
	number int,
	st commentmsg.Status,
	instructions []string,
	d string,
) (int64, error) {
	const errCtx = "updating pull request comment"

	body := commentmsg.IssuesBody(st, instructions, d)

	existing, err := FindComment(
		ctx, provider, number, commentmsg.Tag(st.Name),
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	if existing != nil {
		if err := provider.EditComment(
			ctx, existing.ID, body,
		); err != nil {
			return 0, fmt.Errorf("%s: %w", errCtx, err)
		}

		slog.Info(
			"updated comment",
			"formatter", st.Name,
			"comment_id", existing.ID,
		)

		return existing.ID, nil
	}

	cm, err := provider.CreateComment(ctx, number, body)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"created comment",
		"formatter", st.Name,
		"comment_id", cm.ID,
	)

	return cm.ID, nil
}

// UpdatePRSuccess flips the existing tagged comment for
// st to the success template. Nothing is posted when the
// pull request has no such comment; the returned id is
// then zero.
func UpdatePRSuccess(
	ctx context.Context,
	provider git.ReviewProvider,
	number int,
	st commentmsg.Status,
) (int64, error) {
	const errCtx = "updating pull request status"

	existing, err := FindComment(
		ctx, provider, number, commentmsg.Tag(st.Name),
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	if existing == nil {
		return 0, nil
	}

	if err := provider.EditComment(
		ctx, existing.ID, commentmsg.SuccessBody(st),
	); err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"marked comment as passing",
		"formatter", st.Name,
		"comment_id", existing.ID,
	)

	return existing.ID, nil
}

// WriteReport writes out as indented JSON to path.
func WriteReport(path string, out Outcome) error {
	const errCtx = "writing report"

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	//nolint:gosec // report is meant to be world readable
	if err := os.WriteFile(
		path, append(data, '\n'), 0o644,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

package git

import (
	"context"
	"errors"
)

// ErrCommentNotFound is returned when a comment id does
// not resolve to a comment on the review service.
var ErrCommentNotFound = errors.New("comment not found")

// Comment is a pull request conversation comment.
type Comment struct {
	ID   int64
	Body string
}

// PullRequest carries the fields needed to reach the
// contributor's branch.
type PullRequest struct {
	// Number is the issue/pull request number.
	Number int
	// HeadRepoURL is the browsable URL of the
	// repository holding the head branch (the fork).
	HeadRepoURL string
	// HeadRepoFullName is the owner/name of the head
	// repository.
	HeadRepoFullName string
	// HeadRef is the head branch name.
	HeadRef string
}

// Pattern: Strategy -- swap review service without
// changing formatting or patching logic.

// ReviewProvider reads and writes pull request comments
// on a code review service.
type ReviewProvider interface {
	// PullRequest returns the pull request with the
	// given number.
	PullRequest(
		ctx context.Context,
		number int,
	) (*PullRequest, error)

	// ListComments returns every conversation comment
	// on the pull request in the service's default
	// order (oldest first).
	ListComments(
		ctx context.Context,
		number int,
	) ([]Comment, error)

	// GetComment returns the comment with the given
	// id, or an error wrapping ErrCommentNotFound.
	GetComment(
		ctx context.Context,
		id int64,
	) (*Comment, error)

	// CreateComment posts a new comment on the pull
	// request.
	CreateComment(
		ctx context.Context,
		number int,
		body string,
	) (*Comment, error)

	// EditComment replaces the body of an existing
	// comment.
	EditComment(
		ctx context.Context,
		id int64,
		body string,
	) error
}

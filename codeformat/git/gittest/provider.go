package gittest

import (
	"context"
	"fmt"
	"sync"

	"github.com/byte4ever/code_format/codeformat/git"
)

// Provider is an in-memory git.ReviewProvider holding a
// single pull request and its comments.
type Provider struct {
	mu       sync.Mutex
	pr       git.PullRequest
	comments []git.Comment
	nextID   int64
	edits    int
}

var _ git.ReviewProvider = (*Provider)(nil)

// NewProvider returns a Provider serving pr with the
// given initial comments.
func NewProvider(
	pr git.PullRequest,
	comments ...git.Comment,
) *Provider {
	p := &Provider{
		pr:     pr,
		nextID: 1000,
	}

	for _, c := range comments {
		p.Add(c)
	}

	return p
}

// PullRequest implements git.ReviewProvider.
func (p *Provider) PullRequest(
	_ context.Context,
	number int,
) (*git.PullRequest, error) {
	if number != p.pr.Number {
		return nil, fmt.Errorf(
			"pull request %d does not exist", number,
		)
	}

	pr := p.pr

	return &pr, nil
}

// ListComments implements git.ReviewProvider.
func (p *Provider) ListComments(
	_ context.Context,
	number int,
) ([]git.Comment, error) {
	if number != p.pr.Number {
		return nil, fmt.Errorf(
			"pull request %d does not exist", number,
		)
	}

	return p.Comments(), nil
}

// GetComment implements git.ReviewProvider.
func (p *Provider) GetComment(
	_ context.Context,
	id int64,
) (*git.Comment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.comments {
		if c.ID == id {
			return &c, nil
		}
	}

	return nil, fmt.Errorf(
		"comment %d does not exist: %w",
		id, git.ErrCommentNotFound,
	)
}

// CreateComment implements git.ReviewProvider.
func (p *Provider) CreateComment(
	_ context.Context,
	number int,
	body string,
) (*git.Comment, error) {
	if number != p.pr.Number {
		return nil, fmt.Errorf(
			"pull request %d does not exist", number,
		)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	c := git.Comment{ID: p.nextID, Body: body}
	p.nextID++
	p.comments = append(p.comments, c)

	return &c, nil
}

// EditComment implements git.ReviewProvider.
func (p *Provider) EditComment(
	_ context.Context,
	id int64,
	body string,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.comments {
		if p.comments[i].ID == id {
			p.comments[i].Body = body
			p.edits++

			return nil
		}
	}

	return fmt.Errorf(
		"comment %d does not exist: %w",
		id, git.ErrCommentNotFound,
	)
}

// Add appends c as if it had been posted by a reviewer.
func (p *Provider) Add(c git.Comment) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.comments = append(p.comments, c)
	if c.ID >= p.nextID {
		p.nextID = c.ID + 1
	}
}

// Comments returns a copy of the current comments.
func (p *Provider) Comments() []git.Comment {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]git.Comment, len(p.comments))
	copy(out, p.comments)

	return out
}

// Edits returns how many times a comment was edited.
func (p *Provider) Edits() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.edits
}

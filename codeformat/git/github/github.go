package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v68/github"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"

	"github.com/byte4ever/code_format/codeformat/git"
)

// Compile-time interface satisfaction check.
var _ git.ReviewProvider = (*Provider)(nil)

// Config holds the settings needed to talk to a GitHub
// repository.
type Config struct {
	// RepoOwner is the GitHub user or organisation
	// that owns the repository.
	RepoOwner string
	// Repo is the repository name (without owner).
	Repo string
	// AccessToken is a personal access token or
	// GitHub App token used for authentication.
	AccessToken string
	// EnterpriseHost is an optional GitHub Enterprise
	// hostname (e.g. "git.corp.example.com"). Leave
	// empty for github.com.
	EnterpriseHost string
	// BaseURL overrides the API root. Used to point
	// the provider at a test server.
	BaseURL string
}

// Provider reads and writes pull request comments on
// GitHub.
//
// Pattern: Strategy -- implements git.ReviewProvider.
type Provider struct {
	client    *gh.Client
	repoOwner string
	repo      string
}

// SplitRepo splits "owner/name" into its two parts.
func SplitRepo(fullName string) (string, string, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf(
			"invalid repo name %q: expected owner/repo",
			fullName,
		)
	}

	return owner, name, nil
}

// NewProvider validates cfg and returns a Provider ready
// to use.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating github provider"

	if cfg.RepoOwner == "" {
		return nil, fmt.Errorf(
			"%s: repo owner must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	client := gh.NewClient(newHTTPClient(cfg.AccessToken))

	switch {
	case cfg.BaseURL != "":
		u, err := url.Parse(
			strings.TrimSuffix(cfg.BaseURL, "/") + "/",
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: base url: %w", errCtx, err,
			)
		}

		client.BaseURL = u

	case cfg.EnterpriseHost != "":
		baseURL := "https://" +
			cfg.EnterpriseHost + "/api/v3/"
		uploadURL := "https://" +
			cfg.EnterpriseHost + "/api/uploads/"

		var err error

		client, err = client.WithEnterpriseURLs(
			baseURL, uploadURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w",
				errCtx, err,
			)
		}
	}

	return &Provider{
		client:    client,
		repoOwner: cfg.RepoOwner,
		repo:      cfg.Repo,
	}, nil
}

// newHTTPClient builds the transport stack:
//  1. revalidateLists (no max-age reuse of comment lists)
//  2. go-github-ratelimit (sleeps on secondary rate limits)
//  3. httpcache (ETag conditional requests)
//  4. oauth2 (bearer token)
func newHTTPClient(token string) *http.Client {
	auth := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		),
		Base: http.DefaultTransport,
	}

	cache := httpcache.NewMemoryCacheTransport()
	cache.Transport = auth

	client := github_ratelimit.NewClient(cache)
	client.Transport = &revalidateLists{next: client.Transport}

	return client
}

// revalidateLists marks comment list requests no-cache.
// GitHub answers them with max-age=60, and a list read
// right after a comment was created or edited must see
// that change. Other requests keep the cache.
type revalidateLists struct {
	next http.RoundTripper
}

func (rt *revalidateLists) RoundTrip(
	req *http.Request,
) (*http.Response, error) {
	if req.Method != http.MethodGet ||
		!strings.HasSuffix(req.URL.Path, "/comments") {
		return rt.next.RoundTrip(req)
	}

	r := req.Clone(req.Context())
	r.Header.Set("Cache-Control", "no-cache")

	return rt.next.RoundTrip(r)
}

// PullRequest returns the pull request with the given
// number.
func (p *Provider) PullRequest(
	ctx context.Context,
	number int,
) (*git.PullRequest, error) {
	const errCtx = "getting github pull request"

	pr, _, err := p.client.PullRequests.Get(
		ctx, p.repoOwner, p.repo, number,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s #%d: %w", errCtx, number, err,
		)
	}

	head := pr.GetHead()

	return &git.PullRequest{
		Number:           pr.GetNumber(),
		HeadRepoURL:      head.GetRepo().GetHTMLURL(),
		HeadRepoFullName: head.GetRepo().GetFullName(),
		HeadRef:          head.GetRef(),
	}, nil
}

// ListComments returns all issue comments on the pull
// request, oldest first, following pagination.
func (p *Provider) ListComments(
	ctx context.Context,
	number int,
) ([]git.Comment, error) {
	const errCtx = "listing github comments"

	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var all []git.Comment

	for {
		comments, resp, err := p.client.Issues.ListComments(
			ctx, p.repoOwner, p.repo, number, opts,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s #%d (page %d): %w",
				errCtx, number, opts.Page, err,
			)
		}

		for _, c := range comments {
			all = append(all, mapComment(c))
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return all, nil
}

// GetComment returns the issue comment with the given
// id. A 404 is reported as git.ErrCommentNotFound.
func (p *Provider) GetComment(
	ctx context.Context,
	id int64,
) (*git.Comment, error) {
	const errCtx = "getting github comment"

	c, resp, err := p.client.Issues.GetComment(
		ctx, p.repoOwner, p.repo, id,
	)
	if err != nil {
		if resp != nil &&
			resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf(
				"%s: comment %d does not exist: %w",
				errCtx, id, git.ErrCommentNotFound,
			)
		}

		return nil, fmt.Errorf(
			"%s %d: %w", errCtx, id, err,
		)
	}

	cm := mapComment(c)

	return &cm, nil
}

// CreateComment posts a new issue comment on the pull
// request.
func (p *Provider) CreateComment(
	ctx context.Context,
	number int,
	body string,
) (*git.Comment, error) {
	const errCtx = "creating github comment"

	c, _, err := p.client.Issues.CreateComment(
		ctx, p.repoOwner, p.repo, number,
		&gh.IssueComment{Body: gh.Ptr(body)},
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s #%d: %w", errCtx, number, err,
		)
	}

	slog.Info(
		"created comment",
		"url", c.GetHTMLURL(),
	)

	cm := mapComment(c)

	return &cm, nil
}

// EditComment replaces the body of an existing issue
// comment.
func (p *Provider) EditComment(
	ctx context.Context,
	id int64,
	body string,
) error {
	const errCtx = "editing github comment"

	_, _, err := p.client.Issues.EditComment(
		ctx, p.repoOwner, p.repo, id,
		&gh.IssueComment{Body: gh.Ptr(body)},
	)
	if err != nil {
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) &&
			ghErr.Response != nil &&
			ghErr.Response.StatusCode ==
				http.StatusNotFound {
			return fmt.Errorf(
				"%s %d: %w",
				errCtx, id, git.ErrCommentNotFound,
			)
		}

		return fmt.Errorf("%s %d: %w", errCtx, id, err)
	}

	slog.Info("updated comment", "id", id)

	return nil
}

func mapComment(c *gh.IssueComment) git.Comment {
	return git.Comment{
		ID:   c.GetID(),
		Body: c.GetBody(),
	}
}

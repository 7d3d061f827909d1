package gitlab

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/byte4ever/code_format/codeformat/git"
)

// Compile-time interface satisfaction check.
var _ git.ReviewProvider = (*Provider)(nil)

// DefaultHost is used when Config.Host is empty.
const DefaultHost = "https://gitlab.com"

// Config holds the settings needed to create a GitLab
// merge request provider.
type Config struct {
	// Host is the base URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	Host string
	// Repo is the full project path
	// (e.g. "org/project").
	Repo string
	// AccessToken is a personal or project access
	// token used for authentication.
	AccessToken string
	// MergeRequest is the iid of the merge request
	// whose notes GetComment and EditComment address.
	MergeRequest int
}

// Provider reads and writes merge request notes on
// GitLab.
//
// Pattern: Strategy -- implements git.ReviewProvider.
type Provider struct {
	client *gl.Client
	repo   string
	mr     int
}

type mergeRequest struct {
	IID             int    `json:"iid"`
	SourceBranch    string `json:"source_branch"`
	SourceProjectID int64  `json:"source_project_id"`
}

type project struct {
	HTTPURLToRepo     string `json:"http_url_to_repo"`
	PathWithNamespace string `json:"path_with_namespace"`
}

type note struct {
	ID     int64  `json:"id"`
	Body   string `json:"body"`
	System bool   `json:"system"`
}

type listNotesOptions struct {
	Page    int    `url:"page,omitempty"`
	PerPage int    `url:"per_page,omitempty"`
	Sort    string `url:"sort,omitempty"`
	OrderBy string `url:"order_by,omitempty"`
}

type noteBody struct {
	Body string `json:"body"`
}

// NewProvider validates cfg and returns a Provider
// ready to use.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating gitlab provider"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	if cfg.MergeRequest <= 0 {
		return nil, fmt.Errorf(
			"%s: merge request must be set", errCtx,
		)
	}

	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}

	client, err := gl.NewClient(
		cfg.AccessToken,
		gl.WithBaseURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	return &Provider{
		client: client,
		repo:   cfg.Repo,
		mr:     cfg.MergeRequest,
	}, nil
}

// PullRequest returns the merge request with the given
// iid, with its head taken from the source project.
func (p *Provider) PullRequest(
	ctx context.Context,
	number int,
) (*git.PullRequest, error) {
	const errCtx = "getting gitlab merge request"

	var mr mergeRequest

	if _, err := p.do(
		ctx, http.MethodGet, p.mrPath(number), nil, &mr,
	); err != nil {
		return nil, fmt.Errorf(
			"%s !%d: %w", errCtx, number, err,
		)
	}

	var src project

	if _, err := p.do(
		ctx, http.MethodGet,
		"projects/"+strconv.FormatInt(mr.SourceProjectID, 10),
		nil, &src,
	); err != nil {
		return nil, fmt.Errorf(
			"%s !%d: source project %d: %w",
			errCtx, number, mr.SourceProjectID, err,
		)
	}

	return &git.PullRequest{
		Number:           mr.IID,
		HeadRepoURL:      src.HTTPURLToRepo,
		HeadRepoFullName: src.PathWithNamespace,
		HeadRef:          mr.SourceBranch,
	}, nil
}

// ListComments returns the user notes on the merge
// request, oldest first, following pagination. System
// notes are skipped.
func (p *Provider) ListComments(
	ctx context.Context,
	number int,
) ([]git.Comment, error) {
	const errCtx = "listing gitlab notes"

	opts := &listNotesOptions{
		Page:    1,
		PerPage: 100,
		Sort:    "asc",
		OrderBy: "created_at",
	}

	var all []git.Comment

	for {
		var notes []note

		resp, err := p.do(
			ctx, http.MethodGet,
			p.mrPath(number)+"/notes", opts, &notes,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s !%d (page %d): %w",
				errCtx, number, opts.Page, err,
			)
		}

		for _, n := range notes {
			if n.System {
				continue
			}

			all = append(all, git.Comment{ID: n.ID, Body: n.Body})
		}

		next := nextPage(resp)
		if next == 0 {
			break
		}

		opts.Page = next
	}

	return all, nil
}

// GetComment returns the note with the given id on the
// configured merge request. A 404 is reported as
// git.ErrCommentNotFound.
func (p *Provider) GetComment(
	ctx context.Context,
	id int64,
) (*git.Comment, error) {
	const errCtx = "getting gitlab note"

	var n note

	resp, err := p.do(
		ctx, http.MethodGet, p.notePath(id), nil, &n,
	)
	if err != nil {
		if notFound(resp) {
			return nil, fmt.Errorf(
				"%s: comment %d does not exist: %w",
				errCtx, id, git.ErrCommentNotFound,
			)
		}

		return nil, fmt.Errorf("%s %d: %w", errCtx, id, err)
	}

	return &git.Comment{ID: n.ID, Body: n.Body}, nil
}

// CreateComment posts a new note on the merge request.
func (p *Provider) CreateComment(
	ctx context.Context,
	number int,
	body string,
) (*git.Comment, error) {
	const errCtx = "creating gitlab note"

	var n note

	if _, err := p.do(
		ctx, http.MethodPost, p.mrPath(number)+"/notes",
		&noteBody{Body: body}, &n,
	); err != nil {
		return nil, fmt.Errorf(
			"%s !%d: %w", errCtx, number, err,
		)
	}

	slog.Info("created note", "merge_request", number, "id", n.ID)

	return &git.Comment{ID: n.ID, Body: n.Body}, nil
}

// EditComment replaces the body of an existing note on
// the configured merge request.
func (p *Provider) EditComment(
	ctx context.Context,
	id int64,
	body string,
) error {
	const errCtx = "editing gitlab note"

	resp, err := p.do(
		ctx, http.MethodPut, p.notePath(id),
		&noteBody{Body: body}, nil,
	)
	if err != nil {
		if notFound(resp) {
			return fmt.Errorf(
				"%s %d: %w",
				errCtx, id, git.ErrCommentNotFound,
			)
		}

		return fmt.Errorf("%s %d: %w", errCtx, id, err)
	}

	slog.Info("updated note", "id", id)

	return nil
}

// do sends one API request through the client and
// decodes the response into v when v is not nil. opt is
// encoded as the query for GET and as the JSON body
// otherwise.
func (p *Provider) do(
	ctx context.Context,
	method string,
	path string,
	opt any,
	v any,
) (*gl.Response, error) {
	req, err := p.client.NewRequest(
		method, path, opt,
		[]gl.RequestOptionFunc{gl.WithContext(ctx)},
	)
	if err != nil {
		return nil, err
	}

	return p.client.Do(req, v)
}

func (p *Provider) mrPath(number int) string {
	return fmt.Sprintf(
		"projects/%s/merge_requests/%d",
		url.PathEscape(p.repo), number,
	)
}

func (p *Provider) notePath(id int64) string {
	return fmt.Sprintf("%s/notes/%d", p.mrPath(p.mr), id)
}

// nextPage reads the X-Next-Page header, which is empty
// on the last page.
func nextPage(resp *gl.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}

	n, err := strconv.Atoi(resp.Header.Get("X-Next-Page"))
	if err != nil {
		return 0
	}

	return n
}

func notFound(resp *gl.Response) bool {
	return resp != nil &&
		resp.Response != nil &&
		resp.StatusCode == http.StatusNotFound
}

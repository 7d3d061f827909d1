package gitlab_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/code_format/codeformat/git"
	glprov "github.com/byte4ever/code_format/codeformat/git/gitlab"
)

const mrPath = "/api/v4/projects/{project}/merge_requests/7"

type noteJSON struct {
	ID     int64  `json:"id"`
	Body   string `json:"body"`
	System bool   `json:"system,omitempty"`
}

func newTestProvider(
	t *testing.T,
	mux *http.ServeMux,
) *glprov.Provider {
	t.Helper()

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	pv, err := glprov.NewProvider(glprov.Config{
		Host:         ts.URL,
		Repo:         "org/project",
		AccessToken:  "tok",
		MergeRequest: 7,
	})
	require.NoError(t, err)

	return pv
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, `{"message":"404 Not found"}`)
}

func TestNewProvider_valid(t *testing.T) {
	t.Parallel()

	pv, err := glprov.NewProvider(glprov.Config{
		Repo:         "org/project",
		AccessToken:  "tok",
		MergeRequest: 1,
	})

	require.NoError(t, err)
	assert.NotNil(t, pv)
}

func TestNewProvider_custom_host(t *testing.T) {
	t.Parallel()

	pv, err := glprov.NewProvider(glprov.Config{
		Host:         "https://gl.corp.example.com",
		Repo:         "org/project",
		AccessToken:  "tok",
		MergeRequest: 1,
	})

	require.NoError(t, err)
	assert.NotNil(t, pv)
}

func TestNewProvider_invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  glprov.Config
		want string
	}{
		{
			name: "missing token",
			cfg: glprov.Config{
				Repo: "org/project", MergeRequest: 1,
			},
			want: "access token",
		},
		{
			name: "missing repo",
			cfg: glprov.Config{
				AccessToken: "tok", MergeRequest: 1,
			},
			want: "repo must be set",
		},
		{
			name: "missing merge request",
			cfg: glprov.Config{
				Repo: "org/project", AccessToken: "tok",
			},
			want: "merge request must be set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pv, err := glprov.NewProvider(tt.cfg)

			assert.Nil(t, pv)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestProvider_PullRequest(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc(
		"GET "+mrPath,
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "org/project", r.PathValue("project"))
			assert.Equal(t, "tok", r.Header.Get("PRIVATE-TOKEN"))

			writeJSON(t, w, map[string]any{
				"iid":               7,
				"source_branch":     "feature",
				"source_project_id": 321,
			})
		},
	)
	mux.HandleFunc(
		"GET /api/v4/projects/321",
		func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, map[string]any{
				"http_url_to_repo":    "https://gitlab.com/alice/project.git",
				"path_with_namespace": "alice/project",
			})
		},
	)

	pr, err := newTestProvider(t, mux).PullRequest(
		context.Background(), 7,
	)

	require.NoError(t, err)
	assert.Equal(t, &git.PullRequest{
		Number:           7,
		HeadRepoURL:      "https://gitlab.com/alice/project.git",
		HeadRepoFullName: "alice/project",
		HeadRef:          "feature",
	}, pr)
}

func TestProvider_PullRequest_not_found(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+mrPath, notFound)

	pr, err := newTestProvider(t, mux).PullRequest(
		context.Background(), 7,
	)

	assert.Nil(t, pr)
	assert.ErrorContains(t, err, "getting gitlab merge request !7")
}

func TestProvider_ListComments_paginates(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc(
		"GET "+mrPath+"/notes",
		func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "asc", q.Get("sort"))
			assert.Equal(t, "created_at", q.Get("order_by"))

			if q.Get("page") == "2" {
				writeJSON(t, w, []noteJSON{
					{ID: 3, Body: "third"},
				})

				return
			}

			w.Header().Set("X-Next-Page", "2")
			writeJSON(t, w, []noteJSON{
				{ID: 1, Body: "first"},
				{ID: 2, Body: "added 1 commit", System: true},
			})
		},
	)

	comments, err := newTestProvider(t, mux).ListComments(
		context.Background(), 7,
	)

	require.NoError(t, err)
	assert.Equal(t, []git.Comment{
		{ID: 1, Body: "first"},
		{ID: 3, Body: "third"},
	}, comments)
}

func TestProvider_GetComment(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc(
		"GET "+mrPath+"/notes/55",
		func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, noteJSON{ID: 55, Body: "hi"})
		},
	)

	cm, err := newTestProvider(t, mux).GetComment(
		context.Background(), 55,
	)

	require.NoError(t, err)
	assert.Equal(t, &git.Comment{ID: 55, Body: "hi"}, cm)
}

func TestProvider_GetComment_not_found(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+mrPath+"/notes/55", notFound)

	cm, err := newTestProvider(t, mux).GetComment(
		context.Background(), 55,
	)

	assert.Nil(t, cm)
	assert.ErrorIs(t, err, git.ErrCommentNotFound)
	assert.ErrorContains(t, err, "comment 55 does not exist")
}

func TestProvider_CreateComment(t *testing.T) {
	t.Parallel()

	var gotBody []byte

	mux := http.NewServeMux()
	mux.HandleFunc(
		"POST "+mrPath+"/notes",
		func(w http.ResponseWriter, r *http.Request) {
			var err error

			gotBody, err = io.ReadAll(r.Body)
			assert.NoError(t, err)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			assert.NoError(t, json.NewEncoder(w).Encode(
				noteJSON{ID: 99, Body: "new body"},
			))
		},
	)

	cm, err := newTestProvider(t, mux).CreateComment(
		context.Background(), 7, "new body",
	)

	require.NoError(t, err)
	assert.Equal(t, &git.Comment{ID: 99, Body: "new body"}, cm)
	assert.JSONEq(t, `{"body":"new body"}`, string(gotBody))
}

func TestProvider_EditComment(t *testing.T) {
	t.Parallel()

	var gotBody []byte

	mux := http.NewServeMux()
	mux.HandleFunc(
		"PUT "+mrPath+"/notes/55",
		func(w http.ResponseWriter, r *http.Request) {
			var err error

			gotBody, err = io.ReadAll(r.Body)
			assert.NoError(t, err)

			writeJSON(t, w, noteJSON{ID: 55, Body: "edited"})
		},
	)

	err := newTestProvider(t, mux).EditComment(
		context.Background(), 55, "edited",
	)

	require.NoError(t, err)
	assert.JSONEq(t, `{"body":"edited"}`, string(gotBody))
}

func TestProvider_EditComment_not_found(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("PUT "+mrPath+"/notes/55", notFound)

	err := newTestProvider(t, mux).EditComment(
		context.Background(), 55, "edited",
	)

	assert.ErrorIs(t, err, git.ErrCommentNotFound)
}

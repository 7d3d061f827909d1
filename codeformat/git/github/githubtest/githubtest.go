// Package githubtest serves a gittest.Provider over the subset of the
// GitHub REST API used by the github provider.
package githubtest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/code_format/codeformat/git"
	"github.com/byte4ever/code_format/codeformat/git/gittest"
)

type commentJSON struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

type repoJSON struct {
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
}

type branchJSON struct {
	Ref  string   `json:"ref"`
	Repo repoJSON `json:"repo"`
}

type pullJSON struct {
	Number int        `json:"number"`
	Head   branchJSON `json:"head"`
}

// NewServer starts a server exposing prov as the
// owner/repo repository. The caller closes it.
func NewServer(
	owner string,
	repo string,
	prov *gittest.Provider,
) *httptest.Server {
	base := "/repos/" + owner + "/" + repo
	mux := http.NewServeMux()

	mux.HandleFunc(
		"GET "+base+"/pulls/{number}",
		func(w http.ResponseWriter, r *http.Request) {
			n, ok := number(w, r)
			if !ok {
				return
			}

			pr, err := prov.PullRequest(r.Context(), n)
			if err != nil {
				http.NotFound(w, r)

				return
			}

			writeJSON(w, http.StatusOK, pullJSON{
				Number: pr.Number,
				Head: branchJSON{
					Ref: pr.HeadRef,
					Repo: repoJSON{
						FullName: pr.HeadRepoFullName,
						HTMLURL:  pr.HeadRepoURL,
					},
				},
			})
		},
	)

	mux.HandleFunc(
		"POST "+base+"/issues/{number}/comments",
		func(w http.ResponseWriter, r *http.Request) {
			n, ok := number(w, r)
			if !ok {
				return
			}

			var in commentJSON
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)

				return
			}

			c, err := prov.CreateComment(r.Context(), n, in.Body)
			if err != nil {
				http.NotFound(w, r)

				return
			}

			writeJSON(w, http.StatusCreated, commentJSON(*c))
		},
	)

	// Comment listing and comment lookup share one
	// pattern; ServeMux rejects the two as conflicting.
	mux.HandleFunc(
		"GET "+base+"/issues/{a}/{b}",
		func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.PathValue("a") == "comments":
				getComment(w, r, prov)
			case r.PathValue("b") == "comments":
				listComments(w, r, prov)
			default:
				http.NotFound(w, r)
			}
		},
	)

	mux.HandleFunc(
		"PATCH "+base+"/issues/comments/{id}",
		func(w http.ResponseWriter, r *http.Request) {
			id, ok := commentID(w, r)
			if !ok {
				return
			}

			var in commentJSON
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)

				return
			}

			if err := prov.EditComment(
				r.Context(), id, in.Body,
			); err != nil {
				notFoundOr500(w, r, err)

				return
			}

			writeJSON(w, http.StatusOK, commentJSON{ID: id, Body: in.Body})
		},
	)

	return httptest.NewServer(mux)
}

func listComments(
	w http.ResponseWriter,
	r *http.Request,
	prov *gittest.Provider,
) {
	n, err := strconv.Atoi(r.PathValue("a"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	comments, err := prov.ListComments(r.Context(), n)
	if err != nil {
		http.NotFound(w, r)

		return
	}

	out := make([]commentJSON, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentJSON(c))
	}

	writeJSON(w, http.StatusOK, out)
}

func getComment(
	w http.ResponseWriter,
	r *http.Request,
	prov *gittest.Provider,
) {
	id, err := strconv.ParseInt(r.PathValue("b"), 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	c, err := prov.GetComment(r.Context(), id)
	if err != nil {
		notFoundOr500(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, commentJSON(*c))
}

func number(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return 0, false
	}

	return n, true
}

func commentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return 0, false
	}

	return id, true
}

func notFoundOr500(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, git.ErrCommentNotFound) {
		http.NotFound(w, r)

		return
	}

	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	//nolint:errcheck,errchkjson // client gone
	_ = json.NewEncoder(w).Encode(v)
}

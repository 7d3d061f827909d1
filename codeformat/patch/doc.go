// Package patch applies a formatting diff to a pull request's head branch.
//
// ApplyDiff is the shared workflow: register the contributor's fork as a
// remote, fetch and check out the head branch, write the diff to a temporary
// file, git apply it, and stage the result. Run drives the diff-apply
// command: it reads the diff out of a status comment and hands it to
// ApplyDiff. Every step is single-attempt and fail-fast.
package patch

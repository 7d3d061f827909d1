// Package git provides local working-copy operations and a strategy
// interface for the code review service that hosts pull request comments.
//
// The ReviewProvider interface abstracts pull request and comment access. The
// GitHub implementation lives in the github sub-package.
//
// Repo wraps the local git checkout with the handful of commands needed to
// fetch a contributor's branch, apply a patch, commit it, and push it back.
// Every command is fail-fast: a non-zero exit is returned as an error.
package git

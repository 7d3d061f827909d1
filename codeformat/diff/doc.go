// Package diff normalizes and summarizes unified diffs produced by the
// formatters or embedded in review comments.
package diff

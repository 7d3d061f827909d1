// Package cli holds the flag and logging plumbing shared by the
// code-format commands.
package cli

// Package exec runs external tools (git, formatters) and captures their
// output. Run reports the exit status to the caller; Ex treats any non-zero
// status as a failure, logging the captured output before returning.
package exec

// Package formatter adapts external code formatters to a single contract:
// filter the changed files a formatter cares about, run it over a revision
// range, and report the diff it would apply. ClangFormat wraps
// git-clang-format for C/C++ sources and Darker wraps darker for Python.
// Registry selects formatters by the name stored in comment tags.
package formatter

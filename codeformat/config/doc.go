// Package config loads the explicit configuration handed to each command:
// environment-derived defaults (GITHUB_REPOSITORY) through go-envconfig and
// an optional YAML settings file describing formatter binaries, the
// clang-format deny-list, and the git identity used for formatting commits.
package config

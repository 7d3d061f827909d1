// Package commitmsg builds and parses the formatter list recorded in the
// commits pushed by the format helper.
package commitmsg

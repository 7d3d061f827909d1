package commitmsg

import (
	"log/slog"
	"strings"
)

const (
	begin = "--- code format begin ---"
	end   = "--- code format end ---"
)

// Generate returns summary followed by a section listing
// the formatters whose changes the commit carries.
func Generate(summary string, formatters []string) string {
	var sb strings.Builder

	sb.WriteString(summary)
	sb.WriteString("\n\n")
	sb.WriteString(begin)
	sb.WriteByte('\n')

	for _, f := range formatters {
		sb.WriteString(f)
		sb.WriteByte('\n')
	}

	sb.WriteString(end)
	sb.WriteByte('\n')

	return sb.String()
}

// ExtractFormatters returns the formatters listed in a
// commit message, or nil when the section is missing or
// unterminated.
func ExtractFormatters(msg string) []string {
	var formatters []string

	betweenMarkers := false

	for _, line := range strings.Split(msg, "\n") {
		switch line {
		case begin:
			betweenMarkers = true
		case end:
			betweenMarkers = false
		default:
			if betweenMarkers {
				formatters = append(formatters, line)
			}
		}
	}

	if betweenMarkers {
		slog.Warn("unable to find end marker in commit message")

		return nil
	}

	return formatters
}

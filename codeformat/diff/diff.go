package diff

import (
	"strings"

	"github.com/waigani/diffparser"
)

const (
	lf   = "\n"
	crlf = "\r\n"
	cr   = "\r"
)

// Normalize forces LF line endings: CRLF first, then
// any remaining lone CR.
func Normalize(d string) string {
	d = strings.ReplaceAll(d, crlf, lf)

	return strings.ReplaceAll(d, cr, lf)
}

// Summarize returns the paths touched by a git-style
// diff (one starting with a "diff " header once leading
// blank lines are dropped). Other diff flavours, such as
// the plain ---/+++ output of darker, yield nil.
func Summarize(d string) []string {
	d = strings.TrimLeft(d, lf)
	if !strings.HasPrefix(d, "diff ") {
		return nil
	}

	parsed, err := diffparser.Parse(d)
	if err != nil {
		return nil
	}

	var files []string

	for _, f := range parsed.Files {
		name := f.NewName
		if name == "" {
			name = f.OrigName
		}

		if name != "" {
			files = append(files, name)
		}
	}

	return files
}

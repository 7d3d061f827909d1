package commentmsg

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/valyala/fasttemplate"

	"github.com/byte4ever/code_format/codeformat/diff"
)

// Fence delimits the blocks embedded in a comment.
const Fence = "``````````"

var (
	// ErrDiffNotFound is returned when a comment body
	// has no fenced diff block.
	ErrDiffNotFound = errors.New("diff not found")

	// ErrTagNotFound is returned when a comment body
	// has no formatter tag.
	ErrTagNotFound = errors.New("format tag not found")
)

var (
	diffPattern = regexp.MustCompile(
		"(?s)" + Fence + "diff(.+)" + Fence,
	)
	tagPattern = regexp.MustCompile(
		"<!--LLVM CODE FORMAT COMMENT: (.+)-->",
	)
)

const tagTemplate = "<!--LLVM CODE FORMAT COMMENT: {{fmt}}-->"

const issuesTemplate = `
{{tag}}

:warning: {{friendly_name}}, {{name}} found issues in your code. :warning:

<details>
<summary>
You can test this locally with the following command:
</summary>

` + Fence + `bash
{{instructions}}
` + Fence + `

</details>

<details>
<summary>
View the diff from {{name}} here.
</summary>

` + Fence + `diff
{{diff}}
` + Fence + `

</details>

- [ ] Check this box to apply formatting changes to this branch.`

const successTemplate = `
{{tag}}
:white_check_mark: With the latest revision this PR passed the {{friendly_name}}.
`

// Tag returns the hidden marker identifying comments
// written for the named formatter.
func Tag(name string) string {
	return render(tagTemplate, map[string]any{
		"fmt": name,
	})
}

// ParseTag returns the formatter name carried by the
// first tag in body.
func ParseTag(body string) (string, error) {
	m := tagPattern.FindStringSubmatch(body)
	if m == nil {
		return "", ErrTagNotFound
	}

	return m[1], nil
}

// ExtractDiff returns the content of the fenced diff
// block in body with line endings normalized to LF. The
// match is greedy: it runs to the last fence in body.
func ExtractDiff(body string) (string, error) {
	m := diffPattern.FindStringSubmatch(body)
	if m == nil {
		return "", ErrDiffNotFound
	}

	return diff.Normalize(m[1]), nil
}

// Status describes the formatter a comment is written
// for.
type Status struct {
	// Name is the short formatter name used in the
	// tag, e.g. "clang-format".
	Name string
	// FriendlyName is the human-readable formatter
	// description.
	FriendlyName string
}

// IssuesBody renders the comment reporting formatting
// issues, with the reproduction command and the diff.
func IssuesBody(
	st Status,
	instructions []string,
	d string,
) string {
	return render(issuesTemplate, map[string]any{
		"tag":           Tag(st.Name),
		"friendly_name": st.FriendlyName,
		"name":          st.Name,
		"instructions":  strings.Join(instructions, " "),
		"diff":          d,
	})
}

// SuccessBody renders the comment replacing a previous
// issues comment once the code passes.
func SuccessBody(st Status) string {
	return render(successTemplate, map[string]any{
		"tag":           Tag(st.Name),
		"friendly_name": st.FriendlyName,
	})
}

// DiffNotFoundError wraps ErrDiffNotFound with the id
// of the offending comment.
func DiffNotFoundError(commentID int64) error {
	return fmt.Errorf(
		"could not find diff in comment %d: %w",
		commentID, ErrDiffNotFound,
	)
}

func render(tpl string, vars map[string]any) string {
	return fasttemplate.ExecuteString(tpl, "{{", "}}", vars)
}

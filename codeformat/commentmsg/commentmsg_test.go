package commentmsg_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/code_format/codeformat/commentmsg"
)

var clang = commentmsg.Status{
	Name:         "clang-format",
	FriendlyName: "C/C++ code formatter",
}

func TestTag(t *testing.T) {
	t.Parallel()

	assert.Equal(
		t,
		"<!--LLVM CODE FORMAT COMMENT: clang-format-->",
		commentmsg.Tag("clang-format"),
	)
}

func TestParseTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{
			name: "tag at start",
			body: "<!--LLVM CODE FORMAT COMMENT: darker-->\nrest",
			want: "darker",
		},
		{
			name: "rendered issues comment",
			body: commentmsg.IssuesBody(clang, nil, "x"),
			want: "clang-format",
		},
		{
			name: "rendered success comment",
			body: commentmsg.SuccessBody(clang),
			want: "clang-format",
		},
		{
			name:    "no tag",
			body:    "just a comment",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := commentmsg.ParseTag(tt.body)
			if tt.wantErr {
				assert.ErrorIs(t, err, commentmsg.ErrTagNotFound)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "lf body",
			body: "pre\n``````````diff\n-a\n+b\n``````````\npost",
			want: "\n-a\n+b\n",
		},
		{
			name: "crlf body",
			body: "``````````diff\r\n-a\r\n+b\r\n``````````",
			want: "\n-a\n+b\n",
		},
		{
			name: "cr body",
			body: "``````````diff\r-a\r+b\r``````````",
			want: "\n-a\n+b\n",
		},
		{
			name: "greedy to last fence",
			body: "``````````diff\n-a\n``````````\n``````````",
			want: "\n-a\n``````````\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := commentmsg.ExtractDiff(tt.body)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractDiff_not_found(t *testing.T) {
	t.Parallel()

	for _, body := range []string{
		"",
		"no fences here",
		"``````````bash\necho\n``````````",
		"``````````diff\nunterminated",
	} {
		_, err := commentmsg.ExtractDiff(body)
		assert.ErrorIs(t, err, commentmsg.ErrDiffNotFound, body)
	}
}

func TestIssuesBody_roundtrip(t *testing.T) {
	t.Parallel()

	d := "--- a/x.cpp\n+++ b/x.cpp\n@@ -1 +1 @@\n-a\n+b\n"

	body := commentmsg.IssuesBody(
		clang,
		[]string{"git-clang-format", "--diff", "HEAD~1", "HEAD"},
		d,
	)

	assert.Contains(t, body, commentmsg.Tag("clang-format"))
	assert.Contains(
		t, body,
		":warning: C/C++ code formatter, clang-format "+
			"found issues in your code. :warning:",
	)
	assert.Contains(t, body, "git-clang-format --diff HEAD~1 HEAD")
	assert.True(t, strings.HasSuffix(
		body,
		"- [ ] Check this box to apply formatting "+
			"changes to this branch.",
	))

	got, err := commentmsg.ExtractDiff(body)

	require.NoError(t, err)
	assert.Equal(t, "\n"+d+"\n", got)
}

func TestSuccessBody(t *testing.T) {
	t.Parallel()

	assert.Equal(
		t,
		"\n<!--LLVM CODE FORMAT COMMENT: clang-format-->\n"+
			":white_check_mark: With the latest revision "+
			"this PR passed the C/C++ code formatter.\n",
		commentmsg.SuccessBody(clang),
	)
}

func TestDiffNotFoundError(t *testing.T) {
	t.Parallel()

	err := commentmsg.DiffNotFoundError(42)

	assert.ErrorIs(t, err, commentmsg.ErrDiffNotFound)
	assert.ErrorContains(t, err, "comment 42")
}

package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/byte4ever/code_format/codeformat/diff"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lf untouched", in: "a\nb\n", want: "a\nb\n"},
		{name: "crlf", in: "a\r\nb\r\n", want: "a\nb\n"},
		{name: "lone cr", in: "a\rb\r", want: "a\nb\n"},
		{name: "mixed", in: "a\r\nb\rc\n", want: "a\nb\nc\n"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, diff.Normalize(tt.in))
		})
	}
}

func TestSummarize_git_diff(t *testing.T) {
	t.Parallel()

	d := "diff --git a/a.cpp b/a.cpp\n" +
		"--- a/a.cpp\n" +
		"+++ b/a.cpp\n" +
		"@@ -1 +1 @@\n" +
		"-int  x;\n" +
		"+int x;\n" +
		"diff --git a/b.h b/b.h\n" +
		"--- a/b.h\n" +
		"+++ b/b.h\n" +
		"@@ -1 +1 @@\n" +
		"-int  y;\n" +
		"+int y;\n"

	assert.Len(t, diff.Summarize(d), 2)
}

func TestSummarize_plain_diff(t *testing.T) {
	t.Parallel()

	d := "--- a.py\n+++ a.py\n@@ -1 +1 @@\n-x=1\n+x = 1\n"

	assert.Nil(t, diff.Summarize(d))
}

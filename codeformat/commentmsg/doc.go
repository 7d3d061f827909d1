// Package commentmsg renders and parses the status comments posted on pull
// requests. Each comment carries a hidden HTML tag naming the formatter that
// wrote it, which lets later runs find and edit the same comment, and an
// issues comment embeds the formatter diff in a fenced block that the
// diff-apply tool extracts.
package commentmsg

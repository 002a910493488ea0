// Package util provides common utility functions
package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLineLinks(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []LinkToken
	}{
		{
			name: "simple wikilink",
			line: "Check out [[Note Name]] for more info",
			expected: []LinkToken{
				{Kind: TokenWikiLink, Target: "Note Name", Start: 10, End: 23},
			},
		},
		{
			name: "wikilink with alias split on first pipe",
			line: "[[Note|Display|Text]]",
			expected: []LinkToken{
				{Kind: TokenWikiLink, Target: "Note", Alias: "Display|Text", Start: 0, End: 21},
			},
		},
		{
			name: "embed",
			line: "![[image.png]]",
			expected: []LinkToken{
				{Kind: TokenEmbed, Target: "image.png", Start: 0, End: 14},
			},
		},
		{
			name: "https markdown link",
			line: "[Docs](https://example.com)",
			expected: []LinkToken{
				{Kind: TokenMarkdownURL, Target: "https://example.com", Alias: "Docs", Start: 0, End: 27},
			},
		},
		{
			name: "file markdown link",
			line: "see [PDF](file:///tmp/docs/p.pdf).",
			expected: []LinkToken{
				{Kind: TokenMarkdownURL, Target: "file:///tmp/docs/p.pdf", Alias: "PDF", Start: 4, End: 33},
			},
		},
		{
			name: "relative markdown link ignored",
			line: "[other](other.md)",
		},
		{
			name: "repeated target keeps both occurrences in order",
			line: "[[A]] and [B](http://b) and [[A]]",
			expected: []LinkToken{
				{Kind: TokenWikiLink, Target: "A", Start: 0, End: 5},
				{Kind: TokenMarkdownURL, Target: "http://b", Alias: "B", Start: 10, End: 23},
				{Kind: TokenWikiLink, Target: "A", Start: 28, End: 33},
			},
		},
		{
			name: "empty brackets ignored",
			line: "[[ ]] and [[]]",
		},
		{
			name: "no brackets",
			line: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLineLinks(tt.line))
		})
	}
}

func TestParseLineLinksMarkdownTitle(t *testing.T) {
	line := `see [t](https://x.org/a "Title") and [p](file:///tmp/p.pdf "my paper")`
	tokens := ParseLineLinks(line)
	if assert.Len(t, tokens, 2) {
		assert.Equal(t, "https://x.org/a", tokens[0].Target)
		assert.Equal(t, `[t](https://x.org/a "Title")`, line[tokens[0].Start:tokens[0].End])
		assert.Equal(t, "file:///tmp/p.pdf", tokens[1].Target)
		assert.True(t, tokens[1].IsFileURL())
		assert.Equal(t, `[p](file:///tmp/p.pdf "my paper")`, line[tokens[1].Start:tokens[1].End])
	}
}

func TestLinkTokenIsFileURL(t *testing.T) {
	tokens := ParseLineLinks("[a](FILE:///x) [b](https://y) [[file://z]]")
	if assert.Len(t, tokens, 3) {
		assert.True(t, tokens[0].IsFileURL())
		assert.False(t, tokens[1].IsFileURL())
		assert.False(t, tokens[2].IsFileURL())
	}
}

func TestFenceState(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		skip  []bool
	}{
		{"backtick block", []string{"```go", "[[x]]", "```", "[[y]]"}, []bool{true, true, true, false}},
		{"indented tilde block", []string{"  ~~~", "a", "  ~~~"}, []bool{true, true, true}},
		{"fence not at line start", []string{"text ```", "[[y]]"}, []bool{false, false}},
		{"inline span at line start", []string{"```inline``` code", "[[y]]"}, []bool{false, false}},
		{"backticks inside tilde block", []string{"~~~", "```", "~~~", "[[y]]"}, []bool{true, true, true, false}},
		{"shorter run does not close", []string{"````", "```", "[[x]]", "````", "[[y]]"}, []bool{true, true, true, true, false}},
		{"closer with info string stays open", []string{"```", "```go", "[[x]]", "```"}, []bool{true, true, true, true}},
		{"two backticks is not a fence", []string{"``", "[[y]]"}, []bool{false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FenceState
			got := make([]bool, 0, len(tt.lines))
			for _, l := range tt.lines {
				got = append(got, f.Skip(l))
			}
			assert.Equal(t, tt.skip, got)
		})
	}
}

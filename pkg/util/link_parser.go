// Package util provides common utility functions
// Package util 提供通用工具函数
package util

import (
	"regexp"
	"sort"
	"strings"
)

// TokenKind distinguishes the reference syntaxes found on a note line.
type TokenKind int

const (
	TokenWikiLink TokenKind = iota + 1 // [[target]]
	TokenEmbed                         // ![[target]]
	TokenMarkdownURL                   // [text](scheme://...)
)

// LinkToken is one reference occurrence on a single line // LinkToken 表示单行中的一个引用
type LinkToken struct {
	Kind   TokenKind
	Target string // 目标 (不含别名)
	Alias  string // [[target|alias]] 中的别名，或 [text](url) 中的 text
	Start  int    // byte offset of the whole token in the line
	End    int
}

// IsFileURL reports whether a markdown token points at a local file:// URL.
func (t LinkToken) IsFileURL() bool {
	return t.Kind == TokenMarkdownURL && HasScheme(t.Target, "file")
}

// wikiLinkRegex matches [[wiki-links]], [[link|alias]], and ![[embeds]] patterns
// Group 1: optional "!" prefix (embed marker) // 可选的 "!" 前缀（嵌入标记）
// Group 2: target // 目标
// Group 3: optional alias, everything after the first "|" // 第一个 "|" 之后的别名
var wikiLinkRegex = regexp.MustCompile(`(!?)\[\[([^\]|]+)(?:\|([^\]]*))?\]\]`)

// markdownURLRegex matches [text](http://...), [text](https://...) and [text](file://...)
// with an optional "title" after the URL
var markdownURLRegex = regexp.MustCompile(`\[([^\]]*)\]\(((?i:https?|file)://[^)\s]+)(?:\s+"[^"]*")?\)`)

// ParseLineLinks extracts every reference token from one line, ordered by position.
// Unlike a whole-document parse, repeated targets are kept since each occurrence is an edge.
// ParseLineLinks 提取单行中的全部引用，按出现位置排序，不去重
func ParseLineLinks(line string) []LinkToken {
	if !strings.Contains(line, "[") {
		return nil
	}

	var tokens []LinkToken
	for _, m := range wikiLinkRegex.FindAllStringSubmatchIndex(line, -1) {
		target := strings.TrimSpace(line[m[4]:m[5]])
		if target == "" {
			continue
		}
		tok := LinkToken{Kind: TokenWikiLink, Target: target, Start: m[0], End: m[1]}
		if m[3] > m[2] {
			tok.Kind = TokenEmbed
		}
		if m[6] >= 0 {
			tok.Alias = line[m[6]:m[7]]
		}
		tokens = append(tokens, tok)
	}

	for _, m := range markdownURLRegex.FindAllStringSubmatchIndex(line, -1) {
		if overlaps(tokens, m[0], m[1]) {
			continue
		}
		tokens = append(tokens, LinkToken{
			Kind:   TokenMarkdownURL,
			Target: line[m[4]:m[5]],
			Alias:  line[m[2]:m[3]],
			Start:  m[0],
			End:    m[1],
		})
	}

	sort.SliceStable(tokens, func(i, j int) bool { return tokens[i].Start < tokens[j].Start })
	return tokens
}

func overlaps(tokens []LinkToken, start, end int) bool {
	for _, t := range tokens {
		if start < t.End && t.Start < end {
			return true
		}
	}
	return false
}

// HasScheme reports whether raw starts with "<scheme>://", ignoring case.
func HasScheme(raw, scheme string) bool {
	prefix := scheme + "://"
	return len(raw) >= len(prefix) && strings.EqualFold(raw[:len(prefix)], prefix)
}

// FenceState follows fenced code blocks line by line.
// A block closes only on a run of the opening character at least as long as the opener.
// FenceState 逐行跟踪代码块围栏状态
type FenceState struct {
	char byte
	size int
}

// Skip advances the state with one line and reports whether the line is fence or block content.
// Skip 处理一行，返回该行是否属于代码块 (含围栏行本身)
func (f *FenceState) Skip(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	c, n := fenceRun(trimmed)

	if f.size > 0 {
		if c == f.char && n >= f.size && strings.TrimSpace(trimmed[n:]) == "" {
			f.char, f.size = 0, 0
		}
		return true
	}

	if n < 3 {
		return false
	}
	// ```x``` at the start of a line is an inline code span, not an opener
	if c == '`' && strings.Contains(trimmed[n:], "`") {
		return false
	}
	f.char, f.size = c, n
	return true
}

func fenceRun(s string) (byte, int) {
	if s == "" || (s[0] != '`' && s[0] != '~') {
		return 0, 0
	}
	n := 0
	for n < len(s) && s[n] == s[0] {
		n++
	}
	return s[0], n
}

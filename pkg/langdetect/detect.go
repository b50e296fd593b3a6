// Package langdetect guesses the language of raw blocks that carry no
// language tag, and normalizes the tags that users do write.
package langdetect

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Unknown is returned when no language could be determined.
const Unknown = "text"

const (
	langGo     = "go"
	langPython = "python"
	langJS     = "javascript"
	langJSON   = "json"
	langYAML   = "yaml"
	langHTML   = "html"
	langSQL    = "sql"
	langRust   = "rust"
	langBash   = "bash"
	langLaTeX  = "latex"
	langMarkup = "typ"
)

// rule recognizes one language from a trimmed snippet.
type rule struct {
	lang  string
	match func(trimmed []byte, text string) bool
}

//nolint:gochecknoglobals // Immutable detection tables.
var (
	sqlStart   = regexp.MustCompile(`(?i)^(select|insert|update|delete|create|with)\s`)
	markupRule = regexp.MustCompile(`(?m)^#(let|set|show|import|include)\b`)
	latexCmd   = regexp.MustCompile(`\\(begin|end|frac|section|usepackage)\{`)
	yamlKey    = regexp.MustCompile(`^[A-Za-z_][\w-]*:(\s|$)`)

	// rules are tried in order; the first match wins.
	rules = []rule{
		{langGo, func(b []byte, _ string) bool { return bytes.HasPrefix(b, []byte("package ")) }},
		{langMarkup, func(_ []byte, s string) bool { return markupRule.MatchString(s) }},
		{langLaTeX, func(_ []byte, s string) bool { return latexCmd.MatchString(s) }},
		{langPython, func(_ []byte, s string) bool {
			return strings.Contains(s, "def ") && strings.Contains(s, "):") ||
				strings.Contains(s, "__name__")
		}},
		{langHTML, func(b []byte, _ string) bool {
			lower := bytes.ToLower(b)
			return bytes.HasPrefix(lower, []byte("<!doctype html")) || bytes.Contains(lower, []byte("<html"))
		}},
		{langJSON, func(b []byte, _ string) bool {
			return (bytes.HasPrefix(b, []byte("{")) || bytes.HasPrefix(b, []byte("["))) &&
				bytes.Contains(b, []byte(`"`))
		}},
		{langSQL, func(_ []byte, s string) bool { return sqlStart.MatchString(strings.TrimSpace(s)) }},
		{langRust, func(_ []byte, s string) bool {
			return strings.Contains(s, "fn main()") || strings.Contains(s, "println!") || strings.Contains(s, "let mut ")
		}},
		{langJS, func(_ []byte, s string) bool {
			return strings.Contains(s, "=>") || strings.Contains(s, "console.log") || strings.Contains(s, "function ")
		}},
		{langYAML, func(_ []byte, s string) bool { return yamlPairs(s) >= 2 }},
	}

	// candidates limits the enry classifier to languages likely to show up in
	// documents.
	candidates = []string{
		"Go", "Python", "Shell", "JavaScript", "TypeScript", "Ruby", "Rust",
		"Java", "C", "C++", "SQL", "JSON", "YAML", "HTML", "CSS", "TeX",
	}
)

// Detect returns the language of content, or Unknown.
func Detect(content []byte) string {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return Unknown
	}

	if lang, safe := enry.GetLanguageByShebang(content); safe {
		return fenceTag(lang)
	}

	text := string(content)
	for _, r := range rules {
		if r.match(trimmed, text) {
			return r.lang
		}
	}

	if lang, safe := enry.GetLanguageByClassifier(content, candidates); safe && lang != "" {
		return fenceTag(lang)
	}
	return Unknown
}

// Normalize maps a user-written tag such as "golang" or "sh" to the tag
// Detect would produce. Unknown tags are returned lowercased.
func Normalize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return ""
	}
	if lang, ok := enry.GetLanguageByAlias(tag); ok {
		return fenceTag(lang)
	}
	return tag
}

func yamlPairs(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "", strings.HasPrefix(line, "#"):
		case yamlKey.MatchString(line), strings.HasPrefix(line, "- "):
			n++
		}
	}
	return n
}

// fenceTag converts an enry language name to a short tag.
func fenceTag(lang string) string {
	switch lang {
	case "Shell":
		return langBash
	case "TeX":
		return langLaTeX
	default:
		return strings.ToLower(lang)
	}
}

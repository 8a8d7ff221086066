package generate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	defaultCharLimit = 2200
	maxOpeningRunes  = 120
	maxHookRunes     = 100
	minCaptionLines  = 2
	maxCaptionLines  = 4
	minScriptLines   = 3
)

var charLimits = map[string]int{
	"twitter":   280,
	"bluesky":   300,
	"threads":   500,
	"pinterest": 500,
	"linkedin":  3000,
	"facebook":  5000,
	"tiktok":    2200,
	"instagram": 2200,
	"youtube":   5000,
}

// CharLimit is the maximum post length on platform, hashtags included.
func CharLimit(platform string) int {
	if n, ok := charLimits[platform]; ok {
		return n
	}
	return defaultCharLimit
}

// ContentLimit is the room left for content once hashtags are appended.
func ContentLimit(platform string, hashtags []string) int {
	n := CharLimit(platform)
	for _, h := range hashtags {
		n -= utf8.RuneCountInString(h) + 1
	}
	return n
}

// CompilePatterns compiles banned-content regexes.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile banned pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// RuleValidator checks structural rules per pack kind plus banned patterns.
type RuleValidator struct {
	banned []*regexp.Regexp
}

// NewValidator creates a validator rejecting any match of patterns.
func NewValidator(patterns []string) (*RuleValidator, error) {
	banned, err := CompilePatterns(patterns)
	if err != nil {
		return nil, err
	}
	return &RuleValidator{banned: banned}, nil
}

// Validate returns human-readable issues with content.
func (v *RuleValidator) Validate(content string, pack Pack) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return []string{"content is empty"}
	}
	base := pack.Common()
	var issues []string

	limit := ContentLimit(base.Platform, base.Hashtags)
	if n := utf8.RuneCountInString(content); n > limit {
		issues = append(issues, fmt.Sprintf("content is %d characters, limit for %s is %d", n, base.Platform, limit))
	}
	if v != nil {
		for _, re := range v.banned {
			if m := re.FindString(content); m != "" {
				issues = append(issues, fmt.Sprintf("content contains banned phrase %q", m))
			}
		}
	}

	switch p := pack.(type) {
	case EducationalIntro:
		issues = appendMention(issues, content, base.Topic)
		if p.Opening != "" && !strings.HasPrefix(content, strings.TrimSpace(p.Opening)) {
			issues = append(issues, "content does not start with the requested opening line")
		}
	case SecondaryTheme, SabbatCrossPost:
		issues = appendMention(issues, content, base.Topic)
	case Question:
		if !strings.HasSuffix(content, "?") {
			issues = append(issues, "question post must end with a question mark")
		}
	case VideoCaption:
		issues = appendMention(issues, content, base.Topic)
		if n := len(lines(content)); n < minCaptionLines || n > maxCaptionLines {
			issues = append(issues, fmt.Sprintf("caption has %d lines, want %d to %d", n, minCaptionLines, maxCaptionLines))
		}
	case VideoScript:
		ls := lines(content)
		if len(ls) < minScriptLines {
			issues = append(issues, fmt.Sprintf("script has %d lines, want at least %d", len(ls), minScriptLines))
		}
		if len(ls) > 0 && utf8.RuneCountInString(ls[0]) > maxHookRunes {
			issues = append(issues, fmt.Sprintf("hook is longer than %d characters", maxHookRunes))
		}
	case OpeningLine:
		if len(lines(content)) != 1 {
			issues = append(issues, "opening must be a single line")
		}
		if utf8.RuneCountInString(content) > maxOpeningRunes {
			issues = append(issues, fmt.Sprintf("opening is longer than %d characters", maxOpeningRunes))
		}
		issues = appendMention(issues, content, base.Topic)
	}
	return issues
}

func appendMention(issues []string, content, topic string) []string {
	if topic == "" {
		return issues
	}
	if !strings.Contains(strings.ToLower(content), strings.ToLower(topic)) {
		issues = append(issues, fmt.Sprintf("content does not mention %q", topic))
	}
	return issues
}

func lines(content string) []string {
	var out []string
	for _, l := range strings.Split(content, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

package engine

import (
	"regexp"
	"strings"

	"lemmy-automod/models"
	"lemmy-automod/utils"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultPatternCacheSize = 512

// Matcher tests rules against content. Compiled regular expressions are kept
// in an LRU so hot rules are not recompiled for every event.
type Matcher struct {
	patterns *lru.Cache[string, *regexp.Regexp]
}

// NewMatcher returns a Matcher caching up to size compiled patterns.
func NewMatcher(size int) *Matcher {
	if size <= 0 {
		size = defaultPatternCacheSize
	}
	cache, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		panic(err)
	}
	return &Matcher{patterns: cache}
}

func (m *Matcher) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := m.patterns.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	m.patterns.Add(pattern, re)
	return re, nil
}

func (m *Matcher) test(kind models.MatchKind, pattern, content string) bool {
	switch kind {
	case models.MatchExact:
		return strings.Contains(content, pattern)
	case models.MatchRegex:
		re, err := m.compile(pattern)
		if err != nil {
			utils.Warn("Matcher", "CompilePattern", "skipping rule with bad pattern "+pattern+": "+err.Error())
			return false
		}
		return re.MatchString(content)
	}
	return false
}

// MatchPost returns the first rule matching the post. Rules on a field the
// post does not have are skipped.
func (m *Matcher) MatchPost(rules []models.PostRule, post models.PostContent) (*models.PostRule, bool) {
	for i := range rules {
		value, ok := post.Field(rules[i].Field)
		if !ok {
			continue
		}
		if m.test(rules[i].Kind, rules[i].Match, value) {
			return &rules[i], true
		}
	}
	return nil, false
}

// MatchComment returns the first rule matching the comment body.
func (m *Matcher) MatchComment(rules []models.CommentRule, body string) (*models.CommentRule, bool) {
	for i := range rules {
		if m.test(rules[i].Kind, rules[i].Match, body) {
			return &rules[i], true
		}
	}
	return nil, false
}

// MatchMention returns the first rule whose command appears in text.
func (m *Matcher) MatchMention(rules []models.MentionRule, text string) (*models.MentionRule, bool) {
	for i := range rules {
		if strings.Contains(text, rules[i].Command) {
			return &rules[i], true
		}
	}
	return nil, false
}

package tagging

import (
	"regexp"

	"github.com/rohankatakam/ctag/internal/errors"
)

// Matcher finds a keyword as a whole word. Callers prepend one
// non-alphabetic character (a space) to the haystack because a match needs
// a character before it.
type Matcher interface {
	Match(padded string) bool
}

// Compiler turns a lower-cased keyword into a Matcher
type Compiler func(keyword string) (Matcher, error)

// wordMatcher rejects matches with an ASCII letter directly before or after
// the keyword. Digits and punctuation are fine.
type wordMatcher struct {
	re *regexp.Regexp
}

func (m *wordMatcher) Match(padded string) bool {
	return m.re.MatchString(padded)
}

func (m *wordMatcher) String() string {
	return m.re.String()
}

// Compile builds the whole-word matcher for keyword. Regex metacharacters in
// the keyword are escaped so "requests.get" only matches a literal dot.
func Compile(keyword string) (Matcher, error) {
	if keyword == "" {
		return nil, errors.CatalogErrorf("cannot compile a matcher for an empty keyword")
	}
	// RE2 has no lookbehind, so the leading class consumes the padding character.
	re, err := regexp.Compile(`[^a-zA-Z]` + regexp.QuoteMeta(keyword) + `(?:[^a-zA-Z]|$)`)
	if err != nil {
		return nil, errors.CatalogErrorf("compile matcher for %q: %v", keyword, err)
	}
	return &wordMatcher{re: re}, nil
}

// MatchText pads text and runs m against it
func MatchText(m Matcher, text string) bool {
	return m.Match(" " + text)
}

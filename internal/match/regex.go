package match

import (
	"regexp"

	"github.com/andycostintoma/httpx/internal/httpx"
)

// RegexMatcher performs a full-path regular-expression match (Go's
// regexp, RE2 semantics rather than the original's std::regex, both
// documented as a no-catastrophic-backtracking requirement since the
// pattern comes from route configuration, not untrusted input) and
// stores submatches on the request. A wildcard pattern may therefore
// span multiple path segments: "/begin/(.*)/end" matches both
// "/begin/middle/end" and "/begin/1/2/end". Ported from regex_matcher
// in original_source/include/server/matcher.hpp.
type RegexMatcher struct {
	pattern string
	re      *regexp.Regexp
}

func newRegexMatcher(pattern string) *RegexMatcher {
	re := regexp.MustCompile("^(?:" + pattern + ")$")
	return &RegexMatcher{pattern: pattern, re: re}
}

// Pattern returns the original route pattern.
func (m *RegexMatcher) Pattern() string { return m.pattern }

// Match implements Matcher.
func (m *RegexMatcher) Match(req *httpx.Request) bool {
	req.PathParams = nil
	matches := m.re.FindStringSubmatch(req.DecodedPath)
	if matches == nil {
		req.RegexMatch = nil
		return false
	}
	req.RegexMatch = matches
	return true
}

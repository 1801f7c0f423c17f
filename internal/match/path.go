// Package match implements the route matcher variants of spec.md §4.6:
// literal/path-parameter matching and full-path regex matching, ported
// from original_source/include/server/matcher.hpp's path_params_matcher
// and regex_matcher.
package match

import (
	"strings"

	"github.com/andycostintoma/httpx/internal/httpx"
	"github.com/andycostintoma/httpx/internal/obslog"
)

// Matcher matches a request path and, on success, binds any captured
// data (path parameters or regex submatches) onto the request.
type Matcher interface {
	// Pattern returns the original pattern string the matcher was
	// constructed from.
	Pattern() string
	// Match reports whether req's decoded path matches, populating
	// req.PathParams or req.RegexMatch as a side effect on success.
	Match(req *httpx.Request) bool
}

// New chooses a PathParamMatcher if pattern contains the literal "/:",
// otherwise a RegexMatcher, per spec.md §4.6/§6.5.
func New(pattern string) Matcher {
	for i := 0; i+1 < len(pattern); i++ {
		if pattern[i] == '/' && pattern[i+1] == ':' {
			return newPathParamMatcher(pattern, warnDuplicateParam)
		}
	}
	return newRegexMatcher(pattern)
}

// PathParamMatcher matches a pattern containing "/:name" captures
// against a request path, binding one value per capture.
//
// The pattern is split into alternating static fragments and
// parameter names at construction time; Match then walks the path
// once, consuming each static fragment in order and capturing the
// substring up to the next '/' (or end-of-path) for the parameter that
// follows it. Ported from path_params_matcher in
// original_source/include/server/matcher.hpp.
type PathParamMatcher struct {
	pattern         string
	staticFragments []string
	paramNames      []string
	onDuplicate     func(name, pattern string)
}

const pathParamMarker = "/:"

func newPathParamMatcher(pattern string, onDuplicate func(name, pattern string)) *PathParamMatcher {
	m := &PathParamMatcher{pattern: pattern, onDuplicate: onDuplicate}

	seen := make(map[string]bool)
	lastParamEnd := 0

	for {
		searchFrom := lastParamEnd
		if searchFrom > 0 {
			searchFrom--
		}
		rel := strings.Index(pattern[searchFrom:], pathParamMarker)
		if rel < 0 {
			break
		}
		markerPos := searchFrom + rel

		m.staticFragments = append(m.staticFragments, pattern[lastParamEnd:markerPos+1])

		nameStart := markerPos + len(pathParamMarker)
		sepPos := indexByteFrom(pattern, '/', nameStart)
		if sepPos < 0 {
			sepPos = len(pattern)
		}
		name := pattern[nameStart:sepPos]

		if seen[name] {
			if m.onDuplicate != nil {
				m.onDuplicate(name, pattern)
			}
		}
		seen[name] = true
		m.paramNames = append(m.paramNames, name)

		lastParamEnd = sepPos + 1
	}

	if lastParamEnd < len(pattern) {
		m.staticFragments = append(m.staticFragments, pattern[lastParamEnd:])
	}

	return m
}

// Pattern returns the original route pattern.
func (m *PathParamMatcher) Pattern() string { return m.pattern }

// Match implements Matcher.
func (m *PathParamMatcher) Match(req *httpx.Request) bool {
	path := req.DecodedPath
	params := make(map[string]string, len(m.paramNames))

	startingPos := 0
	for i, fragment := range m.staticFragments {
		if startingPos+len(fragment) > len(path) {
			return false
		}
		if path[startingPos:startingPos+len(fragment)] != fragment {
			return false
		}
		startingPos += len(fragment)

		if i >= len(m.paramNames) {
			continue
		}

		sepPos := indexByteFrom(path, '/', startingPos)
		if sepPos < 0 {
			sepPos = len(path)
		}
		params[m.paramNames[i]] = path[startingPos:sepPos]
		startingPos = sepPos + 1
	}

	if startingPos < len(path) {
		return false
	}

	req.PathParams = params
	req.RegexMatch = nil
	return true
}

// warnDuplicateParam is the default onDuplicate callback: the original
// C++ matcher wrote a std::cerr warning and kept going (duplicate
// names are not fatal, per spec.md §4.6); here it goes through
// obslog.Default instead of stderr directly.
func warnDuplicateParam(name, pattern string) {
	obslog.Default().Warn("duplicate path parameter name in route pattern",
		obslog.F("param", name), obslog.F("pattern", pattern))
}

func indexByteFrom(s string, b byte, from int) int {
	if from < 0 || from > len(s) {
		return -1
	}
	if idx := strings.IndexByte(s[from:], b); idx >= 0 {
		return from + idx
	}
	return -1
}

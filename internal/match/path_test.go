package match

import (
	"testing"

	"github.com/andycostintoma/httpx/internal/httpx"
	"github.com/stretchr/testify/require"
)

func reqFor(path string) *httpx.Request {
	return &httpx.Request{DecodedPath: path}
}

func TestNewChoosesPathParamMatcherOnMarker(t *testing.T) {
	m := New("/users/:id/posts")
	_, ok := m.(*PathParamMatcher)
	require.True(t, ok)
}

func TestNewChoosesRegexMatcherOtherwise(t *testing.T) {
	m := New("/begin/(.*)/end")
	_, ok := m.(*RegexMatcher)
	require.True(t, ok)
}

func TestPathParamMatcherCapturesSingleParam(t *testing.T) {
	m := New("/users/:id/posts")
	req := reqFor("/users/42/posts")
	require.True(t, m.Match(req))
	require.Equal(t, map[string]string{"id": "42"}, req.PathParams)
	require.Nil(t, req.RegexMatch)
}

func TestPathParamMatcherCapturesMultipleParams(t *testing.T) {
	m := New("/path/fragments/:capture/more/fragments/:second_capture")
	req := reqFor("/path/fragments/1/more/fragments/2")
	require.True(t, m.Match(req))
	require.Equal(t, map[string]string{"capture": "1", "second_capture": "2"}, req.PathParams)
}

func TestPathParamMatcherStaticSuffixAfterParam(t *testing.T) {
	m := New("/users/:id/subscriptions")
	req := reqFor("/users/7/subscriptions")
	require.True(t, m.Match(req))
	require.Equal(t, "7", req.PathParams["id"])
}

func TestPathParamMatcherRejectsLongerPath(t *testing.T) {
	m := New("/users/:id")
	req := reqFor("/users/7/extra")
	require.False(t, m.Match(req))
}

func TestPathParamMatcherRejectsMismatchedStaticFragment(t *testing.T) {
	m := New("/users/:id/posts")
	req := reqFor("/accounts/7/posts")
	require.False(t, m.Match(req))
}

func TestPathParamMatcherDuplicateNameLastCaptureWins(t *testing.T) {
	var warned []string
	m := newPathParamMatcher("/:a/:a", func(name, pattern string) { warned = append(warned, name) })

	req := reqFor("/x/y")
	require.True(t, m.Match(req))
	require.Equal(t, "y", req.PathParams["a"])
	require.Equal(t, []string{"a"}, warned)
}

package server

import (
	"strings"

	"github.com/andycostintoma/httpx/internal/httpx"
	"github.com/andycostintoma/httpx/internal/match"
)

// Method is one of the six verbs the router dispatches on, per
// spec.md §3 "Server: owns six route tables".
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodHead    Method = "HEAD"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodOptions Method = "OPTIONS"
)

type route struct {
	matcher match.Matcher
	service Service
}

// Router owns six per-method route tables, mutable only before Serve
// is invoked, per spec.md §3/§5 ("Route tables are mutated only before
// run(); afterwards they are read-only"). Grounded on
// original_source/include/server/server.hpp's per-verb registration
// methods; spec.md §9 notes the six tables could collapse into one map
// keyed by (method, matcher) with no behavior change — kept separate
// here to mirror the original's structure directly.
type Router struct {
	tables map[Method][]route
}

// NewRouter constructs an empty router.
func NewRouter() *Router {
	return &Router{tables: make(map[Method][]route, 6)}
}

// Handle registers pattern for method, compiling it via match.New.
// Routes are appended; lookup is first-match-wins, per spec.md §4.6.
func (r *Router) Handle(method Method, pattern string, svc Service) *Router {
	r.tables[method] = append(r.tables[method], route{matcher: match.New(pattern), service: svc})
	return r
}

func (r *Router) Get(pattern string, svc Service) *Router {
	return r.Handle(MethodGet, pattern, svc)
}

func (r *Router) Post(pattern string, svc Service) *Router {
	return r.Handle(MethodPost, pattern, svc)
}

func (r *Router) Head(pattern string, svc Service) *Router {
	return r.Handle(MethodHead, pattern, svc)
}

func (r *Router) Put(pattern string, svc Service) *Router {
	return r.Handle(MethodPut, pattern, svc)
}

func (r *Router) Delete(pattern string, svc Service) *Router {
	return r.Handle(MethodDelete, pattern, svc)
}

func (r *Router) Options(pattern string, svc Service) *Router {
	return r.Handle(MethodOptions, pattern, svc)
}

// match returns the first route in req's method table whose matcher
// accepts req's decoded path, or (nil, false) if none does. No route
// matches across methods, per spec.md §8 invariant 6.
func (r *Router) match(req *httpx.Request) (Service, bool) {
	for _, rt := range r.tables[Method(strings.ToUpper(req.Method))] {
		if rt.matcher.Match(req) {
			return rt.service, true
		}
	}
	return nil, false
}

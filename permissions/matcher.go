package permissions

import (
	"fmt"
	"strings"

	"github.com/IACMS/IACMS/models"
)

// RouteRule maps one method+path pattern to the permission required to use
// it. Rules are static: loaded once at startup, immutable at runtime.
type RouteRule struct {
	// Method is the HTTP method, upper-case.
	Method string

	// Pattern is the path, with ":name" segments matching any single concrete
	// segment. A pattern and a path match only with equal segment counts.
	Pattern string

	// Permission is the "resource:action" string required. Empty means the
	// rule exists only for its pinning or bypass flags.
	Permission string

	// AuthMethods, when non-empty, pins the route to specific credential
	// mechanisms.
	AuthMethods []models.AuthMethod

	// TenantBypass flags the route as eligible for the super-admin unscoped
	// path. The caller still requires the explicit bypass grant.
	TenantBypass bool
}

// PinnedTo reports whether the rule permits the given auth method. An empty
// pin list permits any.
func (r *RouteRule) PinnedTo(method models.AuthMethod) bool {
	if len(r.AuthMethods) == 0 {
		return true
	}
	for _, m := range r.AuthMethods {
		if m == method {
			return true
		}
	}
	return false
}

type patternSegment struct {
	literal string
	param   bool
}

type compiledRule struct {
	method   string
	segments []patternSegment
	rule     *RouteRule
}

// Matcher resolves a request's (method, path) to its route rule. Patterns
// are compiled once at construction rather than re-parsed per request. An
// exact method+path match outranks a pattern match; a request matching no
// rule is permission-ungated by design, so identity alone suffices for
// routes the operator chose not to enumerate.
type Matcher struct {
	exact    map[string]*RouteRule
	patterns []compiledRule
}

// NewMatcher compiles the rule table.
func NewMatcher(rules []RouteRule) (*Matcher, error) {
	m := &Matcher{exact: make(map[string]*RouteRule)}

	for i := range rules {
		rule := &rules[i]
		if rule.Method == "" || !strings.HasPrefix(rule.Pattern, "/") {
			return nil, fmt.Errorf("invalid route rule %q %q", rule.Method, rule.Pattern)
		}

		if !strings.Contains(rule.Pattern, ":") {
			m.exact[rule.Method+" "+rule.Pattern] = rule
			continue
		}

		segments := splitPath(rule.Pattern)
		compiled := compiledRule{method: rule.Method, rule: rule, segments: make([]patternSegment, len(segments))}
		for j, seg := range segments {
			if strings.HasPrefix(seg, ":") {
				if len(seg) == 1 {
					return nil, fmt.Errorf("route rule %q has an unnamed parameter segment", rule.Pattern)
				}
				compiled.segments[j] = patternSegment{param: true}
			} else {
				compiled.segments[j] = patternSegment{literal: seg}
			}
		}
		m.patterns = append(m.patterns, compiled)
	}

	return m, nil
}

// Match returns the rule for (method, path), or false when the route is
// ungated.
func (m *Matcher) Match(method, path string) (*RouteRule, bool) {
	if rule, ok := m.exact[method+" "+path]; ok {
		return rule, true
	}

	segments := splitPath(path)
	for i := range m.patterns {
		candidate := &m.patterns[i]
		if candidate.method != method {
			continue
		}
		if matchSegments(candidate.segments, segments) {
			return candidate.rule, true
		}
	}

	return nil, false
}

func matchSegments(pattern []patternSegment, segments []string) bool {
	if len(pattern) != len(segments) {
		return false
	}
	for i, seg := range pattern {
		if seg.param {
			continue
		}
		if seg.literal != segments[i] {
			return false
		}
	}
	return true
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// PublicRoute is one entry of the unauthenticated allow-list.
type PublicRoute struct {
	Method string
	Path   string
	// Prefix makes the entry match any path under Path.
	Prefix bool
}

// Allowlist is the static table of (method, path) entries exempt from
// authentication. Requests matching it skip credential resolution entirely,
// even when credentials are present.
type Allowlist struct {
	exact    map[string]struct{}
	prefixes []PublicRoute
}

// NewAllowlist builds the allow-list.
func NewAllowlist(entries []PublicRoute) *Allowlist {
	a := &Allowlist{exact: make(map[string]struct{})}
	for _, e := range entries {
		if e.Prefix {
			a.prefixes = append(a.prefixes, e)
			continue
		}
		a.exact[e.Method+" "+e.Path] = struct{}{}
	}
	return a
}

// Contains reports whether the request is public.
func (a *Allowlist) Contains(method, path string) bool {
	if _, ok := a.exact[method+" "+path]; ok {
		return true
	}
	for _, e := range a.prefixes {
		if e.Method != method {
			continue
		}
		if strings.HasPrefix(path, e.Path) {
			return true
		}
	}
	return false
}

// Package route keeps the process wide table of HTTP routes and whether they need a bearer token.
//
// Feature handlers register every endpoint during startup through a Binder. Once the server is
// assembled the Registry is sealed; from then on it is read only and IsPublic runs without locks.
// Anything not registered as public is protected.
package route

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	// ErrSealed is returned by Register after Seal.
	ErrSealed = errors.New("route registry is sealed")
	// ErrInvalidPattern is returned for patterns that do not compile.
	ErrInvalidPattern = errors.New("invalid route pattern")
	// ErrInvalidMethod is returned for an empty method.
	ErrInvalidMethod = errors.New("invalid route method")
)

// Registration is one registered route.
type Registration struct {
	Pattern string
	Method  string
	Public  bool

	re *regexp.Regexp
}

// Registry maps path patterns and methods to their public or protected status.
type Registry struct {
	mu      sync.Mutex
	pending []Registration

	sealed atomic.Pointer[[]Registration]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a route. pattern is a regular expression matched against the whole request
// path, so variable segments are written as [^/]+.
func (r *Registry) Register(pattern, method string, public bool) error {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return ErrInvalidMethod
	}

	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() != nil {
		return fmt.Errorf("%w: %s %s", ErrSealed, method, pattern)
	}

	r.pending = append(r.pending, Registration{Pattern: pattern, Method: method, Public: public, re: re})

	return nil
}

// MustRegister is Register panicking on error, for static route tables.
func (r *Registry) MustRegister(pattern, method string, public bool) {
	if err := r.Register(pattern, method, public); err != nil {
		panic(err)
	}
}

// Seal ends the registration phase. Calling it again has no effect.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() != nil {
		return
	}

	routes := make([]Registration, len(r.pending))
	copy(routes, r.pending)
	r.sealed.Store(&routes)
	r.pending = nil
}

// Sealed reports whether Seal was called.
func (r *Registry) Sealed() bool {
	return r.sealed.Load() != nil
}

// IsPublic reports whether a request needs no authentication. It is false for unknown routes
// and for every route while the registry is still open. HEAD requests follow GET routes.
func (r *Registry) IsPublic(path, method string) bool {
	routes := r.sealed.Load()
	if routes == nil {
		return false
	}

	path = normalizePath(path)
	method = strings.ToUpper(method)

	for i := range *routes {
		reg := &(*routes)[i]
		if !reg.Public || !methodMatches(reg.Method, method) {
			continue
		}

		if reg.re.MatchString(path) {
			return true
		}
	}

	return false
}

// Routes returns a copy of the sealed registrations, or the pending ones before sealing.
func (r *Registry) Routes() []Registration {
	if routes := r.sealed.Load(); routes != nil {
		out := make([]Registration, len(*routes))
		copy(out, *routes)

		return out
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Registration, len(r.pending))
	copy(out, r.pending)

	return out
}

func methodMatches(registered, method string) bool {
	if registered == method {
		return true
	}

	return method == http.MethodHead && registered == http.MethodGet
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}

	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	return path
}

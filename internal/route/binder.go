package route

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Binder registers fiber routes and their registry entries together.
type Binder struct {
	router   fiber.Router
	registry *Registry
	prefix   string
}

// NewBinder creates a binder on router.
func NewBinder(router fiber.Router, registry *Registry) *Binder {
	return &Binder{router: router, registry: registry}
}

// Registry returns the registry the binder writes to.
func (b *Binder) Registry() *Registry {
	return b.registry
}

// Group returns a binder for routes below prefix.
func (b *Binder) Group(prefix string, handlers ...fiber.Handler) *Binder {
	return &Binder{
		router:   b.router.Group(prefix, handlers...),
		registry: b.registry,
		prefix:   joinPath(b.prefix, prefix),
	}
}

// Public adds a route that is served without a bearer token.
func (b *Binder) Public(method, path string, handlers ...fiber.Handler) error {
	return b.add(method, path, true, handlers)
}

// Protected adds a route that requires a valid bearer token.
func (b *Binder) Protected(method, path string, handlers ...fiber.Handler) error {
	return b.add(method, path, false, handlers)
}

func (b *Binder) add(method, path string, public bool, handlers []fiber.Handler) error {
	full := joinPath(b.prefix, path)

	if err := b.registry.Register(PathPattern(full), method, public); err != nil {
		return err
	}

	method = strings.ToUpper(method)
	b.router.Add(method, path, handlers...)

	// IsPublic lets HEAD follow GET, so the router has to serve it too
	if method == fiber.MethodGet {
		b.router.Add(fiber.MethodHead, path, handlers...)
	}

	return nil
}

// PathPattern converts a fiber path into a registry pattern. Parameters such as ":id" become
// [^/]+, a "*" wildcard becomes .* and everything else matches literally.
func PathPattern(path string) string {
	segments := strings.Split(path, "/")

	for i, seg := range segments {
		switch {
		case strings.HasPrefix(seg, ":"):
			segments[i] = "[^/]+"
		case seg == "*":
			segments[i] = ".*"
		default:
			segments[i] = regexp.QuoteMeta(seg)
		}
	}

	return normalizePath(strings.Join(segments, "/"))
}

func joinPath(prefix, path string) string {
	switch {
	case prefix == "":
		return path
	case path == "" || path == "/":
		return prefix
	default:
		return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(path, "/")
	}
}

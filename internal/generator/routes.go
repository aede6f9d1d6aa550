package generator

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	urlkit "github.com/goliatone/go-urlkit"
)

// RouteConfig names the urlkit route group and routes used to place generated
// pages. Locale subgroups let translated sites use localized path segments;
// locales without a subgroup reuse the root group and gain a locale prefix.
type RouteConfig struct {
	Group        string
	LocaleGroups map[string]string
	PostRoute    string
	TagRoute     string
	HomeRoute    string
	SlugParam    string
}

const (
	defaultRouteGroup = "site"
	defaultPostRoute  = "post"
	defaultTagRoute   = "tag"
	defaultHomeRoute  = "home"
	defaultSlugParam  = "slug"
)

// routeResolver builds page routes through go-urlkit when a route manager is
// configured and falls back to conventional blog paths otherwise.
type routeResolver struct {
	manager *urlkit.RouteManager
	cfg     RouteConfig

	mu         sync.RWMutex
	groupCache map[string]*urlkit.Group
}

func newRouteResolver(manager *urlkit.RouteManager, cfg RouteConfig) *routeResolver {
	if strings.TrimSpace(cfg.Group) == "" {
		cfg.Group = defaultRouteGroup
	}
	if strings.TrimSpace(cfg.PostRoute) == "" {
		cfg.PostRoute = defaultPostRoute
	}
	if strings.TrimSpace(cfg.TagRoute) == "" {
		cfg.TagRoute = defaultTagRoute
	}
	if strings.TrimSpace(cfg.HomeRoute) == "" {
		cfg.HomeRoute = defaultHomeRoute
	}
	if strings.TrimSpace(cfg.SlugParam) == "" {
		cfg.SlugParam = defaultSlugParam
	}
	return &routeResolver{
		manager:    manager,
		cfg:        cfg,
		groupCache: map[string]*urlkit.Group{},
	}
}

// Post returns the route for a single post page.
func (r *routeResolver) Post(locale LocaleSpec, slug string) string {
	if route, ok := r.build(locale, r.cfg.PostRoute, slug); ok {
		return r.localize(locale, route)
	}
	return r.localize(locale, "/posts/"+strings.TrimSpace(slug))
}

// Tag returns the route for a tag listing page.
func (r *routeResolver) Tag(locale LocaleSpec, slug string) string {
	if route, ok := r.build(locale, r.cfg.TagRoute, slug); ok {
		return r.localize(locale, route)
	}
	return r.localize(locale, "/tags/"+strings.TrimSpace(slug))
}

// Home returns the route for the archive index.
func (r *routeResolver) Home(locale LocaleSpec) string {
	if route, ok := r.build(locale, r.cfg.HomeRoute, ""); ok {
		return r.localize(locale, route)
	}
	return r.localize(locale, "/")
}

func (r *routeResolver) build(locale LocaleSpec, route, slug string) (string, bool) {
	if r == nil || r.manager == nil {
		return "", false
	}
	group, err := r.groupFor(locale)
	if err != nil || group == nil {
		return "", false
	}
	builder, err := safeBuilder(group, route)
	if err != nil || builder == nil {
		return "", false
	}
	if strings.TrimSpace(slug) != "" {
		builder.WithParam(r.cfg.SlugParam, strings.TrimSpace(slug))
	}
	built, err := builder.Build()
	if err != nil {
		return "", false
	}
	return routePath(built), true
}

func (r *routeResolver) groupFor(locale LocaleSpec) (*urlkit.Group, error) {
	groupPath := r.cfg.Group
	if r.cfg.LocaleGroups != nil {
		if mapped, ok := r.cfg.LocaleGroups[strings.ToLower(strings.TrimSpace(locale.Code))]; ok && strings.TrimSpace(mapped) != "" {
			groupPath = strings.TrimSpace(mapped)
		}
	}

	r.mu.RLock()
	group, ok := r.groupCache[groupPath]
	r.mu.RUnlock()
	if ok {
		return group, nil
	}

	parts := strings.Split(groupPath, ".")
	root, err := lookupGroup(r.manager, parts[0])
	if err != nil {
		return nil, err
	}
	current := root
	for _, part := range parts[1:] {
		current, err = lookupChildGroup(current, part)
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.groupCache[groupPath] = current
	r.mu.Unlock()
	return current, nil
}

// localize prefixes non-default locale routes with the locale segment unless
// the configured route group already carries it.
func (r *routeResolver) localize(locale LocaleSpec, route string) string {
	route = normalizeRoute(route)
	if locale.IsDefault {
		return route
	}
	code := strings.TrimSpace(locale.Code)
	if code == "" {
		return route
	}
	prefix := "/" + code
	if route == prefix || strings.HasPrefix(route, prefix+"/") {
		return route
	}
	if route == "/" {
		return prefix
	}
	return prefix + route
}

func routePath(built string) string {
	trimmed := strings.TrimSpace(built)
	if trimmed == "" {
		return "/"
	}
	if parsed, err := url.Parse(trimmed); err == nil {
		if parsed.Host != "" || parsed.IsAbs() {
			trimmed = parsed.Path
		} else if parsed.Path != "" {
			trimmed = parsed.Path
		}
	}
	return normalizeRoute(trimmed)
}

func normalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
		if route == "" {
			route = "/"
		}
	}
	return route
}

// urlkit panics on unknown groups and routes; wrap lookups so missing
// configuration degrades to fallback paths instead of crashing a build.
func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	if manager == nil {
		return nil, fmt.Errorf("generator: route manager not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			group = nil
			err = fmt.Errorf("generator: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, err
}

func lookupChildGroup(parent *urlkit.Group, name string) (group *urlkit.Group, err error) {
	if parent == nil {
		return nil, fmt.Errorf("generator: parent route group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			group = nil
			err = fmt.Errorf("generator: child route group %q not found", name)
		}
	}()
	group = parent.Group(name)
	return group, err
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("generator: route group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			builder = nil
			err = fmt.Errorf("generator: route %q not found", route)
		}
	}()
	builder = group.Builder(route)
	return builder, err
}

// Package authgate gates navigation and UI fragments on the identity
// and permission state. Everything here is read-only over those
// services and fail-closed: while permissions are still loading, a
// missing grant and an unloaded grant look the same, so guarded routes
// stay blocked and fragments stay hidden until the stream re-emits.
package authgate

import (
	"context"

	"github.com/sanlucas/hospital/pkg/watchx"
)

// Identity is the slice of the identity session the gate consults.
type Identity interface {
	Initialized() *watchx.Latch
	IsAuthenticated(ctx context.Context) bool
}

// Permissions is the query surface of the permission directory.
type Permissions interface {
	HasPermission(name string) bool
	CanPerformAction(resource, action string) bool
	CanRead(resource string) bool
	CanCreate(resource string) bool
	CanUpdate(resource string) bool
	CanDelete(resource string) bool
}

// Route declares a protected route's requirements. All fields optional:
// a route with no requirements only needs authentication.
type Route struct {
	// Permissions allows access if ANY of the named permissions is held.
	Permissions []string

	// Resource and Action allow access if the (resource, action) pair is
	// held. Both must be set to take effect.
	Resource string
	Action   string
}

// Redirect is where to send a denied navigation.
type Redirect int

const (
	RedirectNone Redirect = iota

	// RedirectLogin: the user is not authenticated.
	RedirectLogin

	// RedirectDashboard: authenticated but not authorized for this
	// route; login would be the wrong destination.
	RedirectDashboard
)

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed  bool
	Redirect Redirect
}

// Guard implements route guards over the identity and permission
// services.
type Guard struct {
	ids   Identity
	perms Permissions
}

// NewGuard creates a route guard.
func NewGuard(ids Identity, perms Permissions) *Guard {
	return &Guard{ids: ids, perms: perms}
}

// Authorize decides whether navigation to a route may proceed. It waits
// for startup token validation to resolve first; a cancelled wait is
// denied fail-closed.
func (g *Guard) Authorize(ctx context.Context, route Route) Decision {
	if err := g.ids.Initialized().Wait(ctx); err != nil {
		return Decision{Allowed: false, Redirect: RedirectLogin}
	}

	if !g.ids.IsAuthenticated(ctx) {
		return Decision{Allowed: false, Redirect: RedirectLogin}
	}

	// No requirement declared means "allow".
	if len(route.Permissions) == 0 && route.Resource == "" {
		return Decision{Allowed: true}
	}

	if len(route.Permissions) > 0 {
		granted := false
		for _, name := range route.Permissions {
			if g.perms.HasPermission(name) {
				granted = true
				break
			}
		}
		if !granted {
			return Decision{Allowed: false, Redirect: RedirectDashboard}
		}
	}

	if route.Resource != "" && route.Action != "" {
		if !g.perms.CanPerformAction(route.Resource, route.Action) {
			return Decision{Allowed: false, Redirect: RedirectDashboard}
		}
	}

	return Decision{Allowed: true}
}

// AuthorizeRead guards read-only CRUD screens for a resource. An empty
// resource means no requirement.
func (g *Guard) AuthorizeRead(ctx context.Context, resource string) Decision {
	return g.authorizeAction(ctx, resource, func() bool { return g.perms.CanRead(resource) })
}

// AuthorizeWrite guards create/update CRUD screens. Action must be
// "create" or "update"; anything else (or an empty resource) means no
// requirement beyond authentication.
func (g *Guard) AuthorizeWrite(ctx context.Context, resource, action string) Decision {
	switch action {
	case "create":
		return g.authorizeAction(ctx, resource, func() bool { return g.perms.CanCreate(resource) })
	case "update":
		return g.authorizeAction(ctx, resource, func() bool { return g.perms.CanUpdate(resource) })
	default:
		return g.Authorize(ctx, Route{})
	}
}

// AuthorizeDelete guards deletion affordances for a resource.
func (g *Guard) AuthorizeDelete(ctx context.Context, resource string) Decision {
	return g.authorizeAction(ctx, resource, func() bool { return g.perms.CanDelete(resource) })
}

func (g *Guard) authorizeAction(ctx context.Context, resource string, allowed func() bool) Decision {
	if err := g.ids.Initialized().Wait(ctx); err != nil {
		return Decision{Allowed: false, Redirect: RedirectLogin}
	}
	if !g.ids.IsAuthenticated(ctx) {
		return Decision{Allowed: false, Redirect: RedirectLogin}
	}
	if resource == "" {
		return Decision{Allowed: true}
	}
	if !allowed() {
		return Decision{Allowed: false, Redirect: RedirectDashboard}
	}
	return Decision{Allowed: true}
}

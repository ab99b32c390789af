package authgate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sanlucas/hospital/pkg/watchx"
)

type stubIdentity struct {
	latch  *watchx.Latch
	authed bool
}

func newStubIdentity(authed bool) *stubIdentity {
	s := &stubIdentity{latch: watchx.NewLatch(), authed: authed}
	s.latch.Settle()
	return s
}

func (s *stubIdentity) Initialized() *watchx.Latch          { return s.latch }
func (s *stubIdentity) IsAuthenticated(context.Context) bool { return s.authed }

type stubPerms struct {
	names  map[string]bool
	grants map[string]map[string]bool
}

func (s *stubPerms) HasPermission(name string) bool { return s.names[name] }

func (s *stubPerms) CanPerformAction(resource, action string) bool {
	return s.grants[resource][action]
}

func (s *stubPerms) CanRead(resource string) bool   { return s.CanPerformAction(resource, "read") }
func (s *stubPerms) CanCreate(resource string) bool { return s.CanPerformAction(resource, "create") }
func (s *stubPerms) CanUpdate(resource string) bool { return s.CanPerformAction(resource, "update") }
func (s *stubPerms) CanDelete(resource string) bool { return s.CanPerformAction(resource, "delete") }

func medicoPerms() *stubPerms {
	return &stubPerms{
		names: map[string]bool{"ver_pacientes": true, "ver_consultas": true},
		grants: map[string]map[string]bool{
			"pacientes": {"read": true, "update": true},
			"consultas": {"read": true},
		},
	}
}

func TestAuthorizeUnauthenticatedRedirectsToLogin(t *testing.T) {
	t.Parallel()

	g := NewGuard(newStubIdentity(false), medicoPerms())

	d := g.Authorize(context.Background(), Route{})
	require.False(t, d.Allowed)
	require.Equal(t, RedirectLogin, d.Redirect)
}

func TestAuthorizeWaitsForInitialization(t *testing.T) {
	t.Parallel()

	// Latch never settles; a bounded wait must deny, not hang or allow.
	ids := &stubIdentity{latch: watchx.NewLatch(), authed: true}
	g := NewGuard(ids, medicoPerms())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	d := g.Authorize(ctx, Route{})
	require.False(t, d.Allowed)
	require.Equal(t, RedirectLogin, d.Redirect)
}

func TestAuthorizeNoRequirementAllows(t *testing.T) {
	t.Parallel()

	g := NewGuard(newStubIdentity(true), &stubPerms{})

	d := g.Authorize(context.Background(), Route{})
	require.True(t, d.Allowed)
	require.Equal(t, RedirectNone, d.Redirect)
}

func TestAuthorizePermissionListIsAnyOf(t *testing.T) {
	t.Parallel()

	g := NewGuard(newStubIdentity(true), medicoPerms())
	ctx := context.Background()

	// One of the two named permissions is enough.
	d := g.Authorize(ctx, Route{Permissions: []string{"gestionar_roles", "ver_pacientes"}})
	require.True(t, d.Allowed)

	// None held: denied towards the dashboard, not login.
	d = g.Authorize(ctx, Route{Permissions: []string{"gestionar_roles", "gestionar_usuarios"}})
	require.False(t, d.Allowed)
	require.Equal(t, RedirectDashboard, d.Redirect)
}

func TestAuthorizeResourceAction(t *testing.T) {
	t.Parallel()

	g := NewGuard(newStubIdentity(true), medicoPerms())
	ctx := context.Background()

	require.True(t, g.Authorize(ctx, Route{Resource: "pacientes", Action: "update"}).Allowed)

	d := g.Authorize(ctx, Route{Resource: "pacientes", Action: "delete"})
	require.False(t, d.Allowed)
	require.Equal(t, RedirectDashboard, d.Redirect)
}

func TestAuthorizeCRUDHelpers(t *testing.T) {
	t.Parallel()

	g := NewGuard(newStubIdentity(true), medicoPerms())
	ctx := context.Background()

	require.True(t, g.AuthorizeRead(ctx, "consultas").Allowed)
	require.False(t, g.AuthorizeRead(ctx, "recetas").Allowed)

	require.True(t, g.AuthorizeWrite(ctx, "pacientes", "update").Allowed)
	require.False(t, g.AuthorizeWrite(ctx, "pacientes", "create").Allowed)

	require.False(t, g.AuthorizeDelete(ctx, "pacientes").Allowed)

	// Unknown action or empty resource degrades to authentication-only.
	require.True(t, g.AuthorizeWrite(ctx, "pacientes", "publish").Allowed)
	require.True(t, g.AuthorizeRead(ctx, "").Allowed)
}

func TestCRUDHelpersStillRequireAuthentication(t *testing.T) {
	t.Parallel()

	g := NewGuard(newStubIdentity(false), medicoPerms())

	d := g.AuthorizeRead(context.Background(), "pacientes")
	require.False(t, d.Allowed)
	require.Equal(t, RedirectLogin, d.Redirect)
}

// Package permdir maintains the client's view of the authenticated
// user's role and permission set. State is fail-closed: any ambiguity
// (missing token, decode failure, fetch error) resolves to "no
// permissions", never to "all permissions".
package permdir

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sanlucas/hospital/pkg/hospitalapi"
	"github.com/sanlucas/hospital/pkg/jwtx"
	"github.com/sanlucas/hospital/pkg/slogx"
	"github.com/sanlucas/hospital/pkg/watchx"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Permission action vocabulary used by the convenience queries.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ErrStaleToken is returned when a fetched permission set is discarded
// because the token changed while the fetch was in flight.
var ErrStaleToken = errors.New("permdir: token changed during fetch, result discarded")

// API is the slice of the backend client the directory needs.
type API interface {
	GetRolePermissions(ctx context.Context, roleID int64) (*hospitalapi.Role, error)
}

// Tokens is the slice of the token store the directory needs.
type Tokens interface {
	Get(ctx context.Context) (string, error)
	Changes() (<-chan string, func())
}

// Options configures a Directory. Zero values get sensible defaults.
type Options struct {
	Logger *slog.Logger

	// ReconcileInterval is how often the background loop compares token
	// presence against permission state. Default 30s.
	ReconcileInterval time.Duration

	// FetchTimeout bounds each permission fetch. Default 10s.
	FetchTimeout time.Duration

	// Registerer receives the directory's metrics. Nil means metrics are
	// collected on a private throwaway registry.
	Registerer prometheus.Registerer
}

// Directory holds the current role and permission list as observable
// state and answers resource/action queries against it.
type Directory struct {
	api     API
	tokens  Tokens
	log     *slog.Logger
	metrics *metrics

	role  *watchx.Value[*hospitalapi.Role]
	perms *watchx.Value[[]hospitalapi.Permission]

	// fetchLimit caps opportunistic refetches triggered by the
	// reconciliation loop so a broken backend isn't hammered.
	fetchLimit *rate.Limiter

	reconcileInterval time.Duration
	fetchTimeout      time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New creates a Directory with empty state. Call Start to run the
// background reconciliation loop.
func New(api API, tokens Tokens, opts Options) *Directory {
	if opts.Logger == nil {
		opts.Logger = slogx.Nop()
	}
	if opts.ReconcileInterval <= 0 {
		opts.ReconcileInterval = 30 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}

	return &Directory{
		api:               api,
		tokens:            tokens,
		log:               opts.Logger,
		metrics:           newMetrics(opts.Registerer),
		role:              watchx.NewValue[*hospitalapi.Role](nil),
		perms:             watchx.NewValue([]hospitalapi.Permission{}),
		fetchLimit:        rate.NewLimiter(rate.Every(5*time.Second), 1),
		reconcileInterval: opts.ReconcileInterval,
		fetchTimeout:      opts.FetchTimeout,
		stopCh:            make(chan struct{}),
		doneCh:            make(chan struct{}),
	}
}

// LoadUserPermissions reads the stored token, extracts its role claim
// and replaces the cached role and permission list with the backend's
// answer for that role.
//
// No stored token is a quiescent no-op: existing state is left alone.
// A decode failure aborts without mutating state. A fetch failure
// clears both slots. A result whose triggering token is no longer the
// current token is discarded.
func (d *Directory) LoadUserPermissions(ctx context.Context) error {
	token, err := d.tokens.Get(ctx)
	if err != nil {
		d.log.Error("failed to read token for permission load", "error", err)
		return err
	}
	if token == "" {
		return nil
	}

	claims, err := jwtx.DecodeUnverified(token)
	if err != nil || !claims.HasRole() {
		d.metrics.fetches.WithLabelValues("decode_error").Inc()
		d.log.Error("failed to extract role claim from token", "error", err)
		if err == nil {
			err = errors.New("permdir: token carries no role claim")
		}
		return err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, d.fetchTimeout)
	defer cancel()

	role, err := d.api.GetRolePermissions(fetchCtx, claims.RoleID)
	if err != nil {
		d.metrics.fetches.WithLabelValues("error").Inc()
		d.log.Error("failed to load role permissions", "role_id", claims.RoleID, "error", err)
		d.ClearPermissions()
		return err
	}

	// A logout or re-login may have raced the fetch. Commit only if the
	// token that triggered this fetch is still the current one.
	current, err := d.tokens.Get(ctx)
	if err != nil || current != token {
		d.metrics.fetches.WithLabelValues("stale").Inc()
		d.log.Warn("discarding stale permission fetch", "role_id", claims.RoleID)
		return ErrStaleToken
	}

	d.metrics.fetches.WithLabelValues("success").Inc()
	d.role.Set(role)
	d.perms.Set(role.Permissions)
	d.log.Info("permissions loaded", "role_id", role.ID, "role", role.Name, "permissions", len(role.Permissions))
	return nil
}

// RefreshPermissions forces a reload of the cached permission set.
func (d *Directory) RefreshPermissions(ctx context.Context) error {
	return d.LoadUserPermissions(ctx)
}

// ClearPermissions resets both state slots. Idempotent; must be called
// on logout.
func (d *Directory) ClearPermissions() {
	d.metrics.clears.Inc()
	d.role.Set(nil)
	d.perms.Set([]hospitalapi.Permission{})
}

// ============================================================================
// Queries
// ============================================================================

// HasPermission reports whether any current permission has exactly the
// given name. Case-sensitive, no wildcards.
func (d *Directory) HasPermission(name string) bool {
	for _, p := range d.perms.Get() {
		if p.Name == name {
			return true
		}
	}
	return false
}

// CanPerformAction reports whether any current permission matches both
// resource and action exactly.
func (d *Directory) CanPerformAction(resource, action string) bool {
	for _, p := range d.perms.Get() {
		if p.Resource == resource && p.Action == action {
			return true
		}
	}
	return false
}

// CanRead reports read access to a resource.
func (d *Directory) CanRead(resource string) bool {
	return d.CanPerformAction(resource, ActionRead)
}

// CanCreate reports create access to a resource.
func (d *Directory) CanCreate(resource string) bool {
	return d.CanPerformAction(resource, ActionCreate)
}

// CanUpdate reports update access to a resource.
func (d *Directory) CanUpdate(resource string) bool {
	return d.CanPerformAction(resource, ActionUpdate)
}

// CanDelete reports delete access to a resource.
func (d *Directory) CanDelete(resource string) bool {
	return d.CanPerformAction(resource, ActionDelete)
}

// UserPermissions returns the current permission list.
func (d *Directory) UserPermissions() []hospitalapi.Permission {
	return d.perms.Get()
}

// UserRole returns the current role, or nil when none is loaded.
func (d *Directory) UserRole() *hospitalapi.Role {
	return d.role.Get()
}

// AccessibleResources returns the distinct resources the user holds any
// permission on, in first-seen order.
func (d *Directory) AccessibleResources() []string {
	seen := make(map[string]bool)
	var resources []string
	for _, p := range d.perms.Get() {
		if !seen[p.Resource] {
			seen[p.Resource] = true
			resources = append(resources, p.Resource)
		}
	}
	return resources
}

// ResourceActions returns the actions the user may perform on the given
// resource.
func (d *Directory) ResourceActions(resource string) []string {
	var actions []string
	for _, p := range d.perms.Get() {
		if p.Resource == resource {
			actions = append(actions, p.Action)
		}
	}
	return actions
}

// PermissionChanges returns a subscription carrying the full permission
// list on every replacement (never a delta), starting with the current
// list.
func (d *Directory) PermissionChanges() (<-chan []hospitalapi.Permission, func()) {
	return d.perms.Subscribe()
}

// RoleChanges returns a subscription carrying the current role on every
// replacement.
func (d *Directory) RoleChanges() (<-chan *hospitalapi.Role, func()) {
	return d.role.Subscribe()
}

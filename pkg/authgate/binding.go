package authgate

import (
	"sync"

	"github.com/sanlucas/hospital/pkg/hospitalapi"
)

// Directory is the permission directory surface a binding needs:
// queries plus the permission stream to re-evaluate against.
type Directory interface {
	Permissions
	PermissionChanges() (<-chan []hospitalapi.Permission, func())
}

// Requirement is what a UI fragment needs to be shown. Checked in
// order: a named permission, a (resource, action) pair, or a resource
// alone which defaults the action to "read". An empty requirement is
// never visible.
type Requirement struct {
	Permission string
	Resource   string
	Action     string
}

// Binding conditionally shows a UI fragment based on the current
// permission set, re-evaluating on every permission stream emission.
// Re-evaluation matters because permissions load asynchronously after
// login: a fragment rendered before they arrive starts hidden and
// appears once the stream emits.
type Binding struct {
	dir      Directory
	onChange func(visible bool)

	mu      sync.Mutex
	req     Requirement
	visible bool

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    func()
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewBinding creates a binding for the given requirement. onChange, if
// non-nil, fires whenever visibility flips (attach/detach the
// fragment). It is invoked from the binding's watcher goroutine.
func NewBinding(dir Directory, req Requirement, onChange func(visible bool)) *Binding {
	b := &Binding{
		dir:      dir,
		onChange: onChange,
		req:      req,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	b.visible = b.evaluate()
	return b
}

// Start subscribes to the permission stream. Call Stop to release the
// subscription.
func (b *Binding) Start() {
	b.startOnce.Do(func() {
		changes, cancel := b.dir.PermissionChanges()
		b.cancel = cancel

		go func() {
			defer close(b.doneCh)
			for {
				select {
				case <-changes:
					b.refresh()
				case <-b.stopCh:
					return
				}
			}
		}()
	})
}

// Stop unsubscribes from the permission stream.
func (b *Binding) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
		<-b.doneCh
		if b.cancel != nil {
			b.cancel()
		}
	})
}

// Visible reports whether the fragment should currently be attached.
func (b *Binding) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// SetRequirement replaces the requirement and re-evaluates immediately.
func (b *Binding) SetRequirement(req Requirement) {
	b.mu.Lock()
	b.req = req
	b.mu.Unlock()
	b.refresh()
}

// refresh recomputes visibility and fires onChange on a flip.
func (b *Binding) refresh() {
	visible := b.evaluate()

	b.mu.Lock()
	changed := visible != b.visible
	b.visible = visible
	cb := b.onChange
	b.mu.Unlock()

	if changed && cb != nil {
		cb(visible)
	}
}

func (b *Binding) evaluate() bool {
	b.mu.Lock()
	req := b.req
	b.mu.Unlock()

	switch {
	case req.Permission != "":
		return b.dir.HasPermission(req.Permission)
	case req.Resource != "" && req.Action != "":
		return b.dir.CanPerformAction(req.Resource, req.Action)
	case req.Resource != "":
		return b.dir.CanRead(req.Resource)
	default:
		return false
	}
}

// Convenience constructors matching the per-action UI affordances.

// BindRead shows a fragment while the user may read the resource.
func BindRead(dir Directory, resource string, onChange func(bool)) *Binding {
	return NewBinding(dir, Requirement{Resource: resource, Action: "read"}, onChange)
}

// BindCreate shows a fragment while the user may create in the resource.
func BindCreate(dir Directory, resource string, onChange func(bool)) *Binding {
	return NewBinding(dir, Requirement{Resource: resource, Action: "create"}, onChange)
}

// BindUpdate shows a fragment while the user may update the resource.
func BindUpdate(dir Directory, resource string, onChange func(bool)) *Binding {
	return NewBinding(dir, Requirement{Resource: resource, Action: "update"}, onChange)
}

// BindDelete shows a fragment while the user may delete in the resource.
func BindDelete(dir Directory, resource string, onChange func(bool)) *Binding {
	return NewBinding(dir, Requirement{Resource: resource, Action: "delete"}, onChange)
}

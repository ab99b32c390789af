package permdir

import (
	"context"
	"time"
)

// Start begins the background worker that keeps permission state
// converged with token presence. Token change notifications are the
// primary signal; the periodic sweep is the backstop for missed loads
// (e.g. a reload where token validation and permission loading came
// apart). Call Stop to shut the worker down.
func (d *Directory) Start() {
	d.startOnce.Do(func() {
		go d.run()
		d.log.Info("permission reconciliation started", "interval", d.reconcileInterval)
	})
}

// Stop gracefully shuts down the background worker. Blocks until any
// in-progress reconciliation has finished.
func (d *Directory) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
		<-d.doneCh
		d.log.Info("permission reconciliation stopped")
	})
}

// run is the main background worker loop.
func (d *Directory) run() {
	defer close(d.doneCh)

	changes, cancel := d.tokens.Changes()
	defer cancel()

	ticker := time.NewTicker(d.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case token := <-changes:
			if token == "" {
				if len(d.perms.Get()) > 0 || d.role.Get() != nil {
					d.metrics.heals.WithLabelValues("clear").Inc()
					d.ClearPermissions()
				}
				continue
			}
			// Errors are already logged and resolved fail-closed inside
			// the load; the next signal or sweep retries.
			_ = d.LoadUserPermissions(context.Background())

		case <-ticker.C:
			d.reconcile()

		case <-d.stopCh:
			return
		}
	}
}

// reconcile compares "is a token present" against "is the permission
// list non-empty" and self-heals either direction. Opportunistic loads
// are rate-limited; convergence is still guaranteed because the sweep
// repeats.
func (d *Directory) reconcile() {
	token, err := d.tokens.Get(context.Background())
	if err != nil {
		d.log.Error("reconciliation could not read token", "error", err)
		return
	}

	hasPerms := len(d.perms.Get()) > 0

	switch {
	case token != "" && !hasPerms:
		if !d.fetchLimit.Allow() {
			return
		}
		d.metrics.heals.WithLabelValues("load").Inc()
		_ = d.LoadUserPermissions(context.Background())

	case token == "" && hasPerms:
		d.metrics.heals.WithLabelValues("clear").Inc()
		d.ClearPermissions()
	}
}

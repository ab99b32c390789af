// Package activity enforces the inactivity-based session lifetime. It
// tracks login and last-activity timestamps, persists them across
// reloads, and forces a logout once the user has been idle for the
// configured timeout.
//
// Session state is an explicit three-state machine:
//
//	StateNone     — no session
//	StateRestored — reconstructed from storage after a reload; expiry
//	                timers are NOT armed until genuine activity occurs
//	StateLive     — fresh login or post-restore activity; timers armed
//
// The restore path deliberately does not arm timers: only real user
// activity or an explicit session start does. A restored session with
// no subsequent activity therefore never expires inside that run;
// TimeUntilExpiration still reports the true time remaining.
package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sanlucas/hospital/pkg/identity"
	"github.com/sanlucas/hospital/pkg/kvstore"
	"github.com/sanlucas/hospital/pkg/slogx"
	"github.com/sanlucas/hospital/pkg/watchx"

	"github.com/oklog/ulid/v2"
)

// storageKey is the fixed key the session snapshot lives under,
// distinct from the token store's key by construction.
const storageKey = "hospital_session_info"

// State identifies the tracker's position in the session state machine.
type State int

const (
	StateNone State = iota
	StateRestored
	StateLive
)

// Policy constants. These are design-level policy, not runtime user
// configuration; Config overrides exist for tests.
const (
	DefaultTimeout     = 30 * time.Minute
	DefaultWarningLead = 5 * time.Minute
)

// IdentitySession is the slice of the identity service the tracker
// observes and drives.
type IdentitySession interface {
	Initialized() *watchx.Latch
	CurrentUser() *identity.User
	UserChanges() (<-chan *identity.User, func())
	PerformLogout(ctx context.Context)
}

// Config tunes the tracker. Zero values get the policy defaults.
type Config struct {
	Timeout     time.Duration
	WarningLead time.Duration
	Logger      *slog.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Tracker is the activity session.
type Tracker struct {
	cfg    Config
	kv     kvstore.Store
	ids    IdentitySession
	notify Notifier
	nav    Navigator
	log    *slog.Logger
	now    func() time.Time

	mu           sync.Mutex
	state        State
	snap         Snapshot
	warningTimer *time.Timer
	expiryTimer  *time.Timer

	session *watchx.Value[Snapshot]

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewTracker creates an activity session. Call Start to bind it to the
// identity session's lifecycle.
func NewTracker(kv kvstore.Store, ids IdentitySession, notify Notifier, nav Navigator, cfg Config) *Tracker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.WarningLead <= 0 {
		cfg.WarningLead = DefaultWarningLead
	}
	if cfg.Logger == nil {
		cfg.Logger = slogx.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if notify == nil {
		notify = NopNotifier{}
	}
	if nav == nil {
		nav = NopNavigator{}
	}

	return &Tracker{
		cfg:     cfg,
		kv:      kv,
		ids:     ids,
		notify:  notify,
		nav:     nav,
		log:     cfg.Logger,
		now:     cfg.Now,
		session: watchx.NewValue(Snapshot{}),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start launches the watcher goroutine: it waits for the identity
// session to finish startup validation, restores any persisted snapshot
// and then reacts to identity changes. Call Stop to shut it down.
func (t *Tracker) Start() {
	t.startOnce.Do(func() { go t.run() })
}

// Stop shuts down the watcher and disarms any pending timers.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		<-t.doneCh

		t.mu.Lock()
		t.stopTimersLocked()
		t.mu.Unlock()
	})
}

func (t *Tracker) run() {
	defer close(t.doneCh)

	// Startup decisions wait for token validation to resolve, otherwise
	// "not yet validated" would read as "not authenticated".
	select {
	case <-t.ids.Initialized().Done():
	case <-t.stopCh:
		return
	}

	if user := t.ids.CurrentUser(); user != nil {
		t.restoreSession(user)
	}

	users, cancel := t.ids.UserChanges()
	defer cancel()

	for {
		select {
		case user := <-users:
			if user == nil {
				t.endSession()
				continue
			}
			// A restore may already have produced an active session for
			// this user; only a genuinely new identity starts a full
			// session with timers and a welcome.
			t.mu.Lock()
			active := t.snap.Active
			t.mu.Unlock()
			if !active {
				t.startSession(user)
			}

		case <-t.stopCh:
			return
		}
	}
}

// startSession begins a full session on a fresh login: timers armed,
// welcome notification emitted.
func (t *Tracker) startSession(user *identity.User) {
	now := t.now()
	snap := Snapshot{
		SessionID:    ulid.Make().String(),
		UserID:       user.ID,
		UserName:     user.DisplayName(),
		LoginTime:    now,
		LastActivity: now,
		Active:       true,
	}

	t.mu.Lock()
	t.snap = snap
	t.state = StateLive
	t.persistLocked()
	t.armTimersLocked()
	t.mu.Unlock()

	t.session.Set(snap)
	t.notify.Success(fmt.Sprintf("Welcome %s", user.DisplayName()))
	t.log.Info("session started", "session_id", snap.SessionID, "user_id", user.ID)
}

// restoreSession reconstructs session state after a reload. A persisted
// snapshot still inside the timeout window is reused; a stale or
// corrupt one is discarded and a fresh snapshot is written. Neither
// path arms timers — that waits for real activity.
func (t *Tracker) restoreSession(user *identity.User) {
	now := t.now()

	snap, ok := t.loadSnapshot()
	if ok && snap.Active && !snap.LastActivity.IsZero() {
		idle := now.Sub(snap.LastActivity)
		if idle < t.cfg.Timeout {
			t.mu.Lock()
			t.snap = snap
			t.state = StateRestored
			t.mu.Unlock()

			t.session.Set(snap)
			t.log.Info("session restored", "session_id", snap.SessionID, "idle", idle)
			return
		}
		t.log.Info("persisted session expired, discarding", "idle", idle)
	}

	if err := t.kv.Delete(context.Background(), storageKey); err != nil {
		t.log.Error("failed to clear stale session snapshot", "error", err)
	}

	fresh := Snapshot{
		SessionID:    ulid.Make().String(),
		UserID:       user.ID,
		UserName:     user.DisplayName(),
		LoginTime:    now,
		LastActivity: now,
		Active:       true,
	}

	t.mu.Lock()
	t.snap = fresh
	t.state = StateRestored
	t.persistLocked()
	t.mu.Unlock()

	t.session.Set(fresh)
}

// endSession nulls all session state, disarms timers and clears the
// persisted snapshot.
func (t *Tracker) endSession() {
	t.mu.Lock()
	t.snap = Snapshot{}
	t.state = StateNone
	t.stopTimersLocked()
	t.mu.Unlock()

	if err := t.kv.Delete(context.Background(), storageKey); err != nil {
		t.log.Error("failed to clear session snapshot", "error", err)
	}
	t.session.Set(Snapshot{})
}

// Record registers a user-activity event: last activity moves to now,
// duration is recomputed, the snapshot is persisted and both timers are
// restarted. A restored session becomes live here.
func (t *Tracker) Record(_ Event) {
	t.mu.Lock()
	if !t.snap.Active {
		t.mu.Unlock()
		return
	}

	now := t.now()
	t.snap.LastActivity = now
	t.snap.DurationMinutes = int(now.Sub(t.snap.LoginTime).Minutes())
	t.state = StateLive
	t.persistLocked()
	t.armTimersLocked()
	snap := t.snap
	t.mu.Unlock()

	t.session.Set(snap)
}

// ExtendSession is the explicit "stay logged in" affordance: same path
// as a real activity event plus a confirmation notification.
func (t *Tracker) ExtendSession() {
	t.Record(EventClick)
	t.notify.Info("Your session has been extended.")
}

// Logout ends the session on the user's request: local identity
// cleanup, navigation to login, confirmation notice. The snapshot is
// cleared when the nil identity comes back around through the watcher.
func (t *Tracker) Logout(ctx context.Context) {
	t.ids.PerformLogout(ctx)
	t.nav.NavigateToLogin()
	t.notify.Info("You have been logged out.")
}

// ============================================================================
// Timers
// ============================================================================

// armTimersLocked cancels any previously scheduled firings and
// schedules fresh single-shot warning and expiry timers. Callers hold
// t.mu.
func (t *Tracker) armTimersLocked() {
	t.stopTimersLocked()
	t.warningTimer = time.AfterFunc(t.cfg.Timeout-t.cfg.WarningLead, t.onWarning)
	t.expiryTimer = time.AfterFunc(t.cfg.Timeout, t.onExpiry)
}

func (t *Tracker) stopTimersLocked() {
	if t.warningTimer != nil {
		t.warningTimer.Stop()
		t.warningTimer = nil
	}
	if t.expiryTimer != nil {
		t.expiryTimer.Stop()
		t.expiryTimer = nil
	}
}

func (t *Tracker) onWarning() {
	t.mu.Lock()
	active := t.snap.Active
	t.mu.Unlock()
	if !active {
		return
	}

	minutes := int(t.cfg.WarningLead.Minutes())
	t.notify.Warning(fmt.Sprintf(
		"Your session will expire in %d minutes. Interact with the page to keep it active.", minutes))
	t.log.Info("session expiry warning emitted")
}

func (t *Tracker) onExpiry() {
	t.mu.Lock()
	active := t.snap.Active
	sessionID := t.snap.SessionID
	t.mu.Unlock()
	if !active {
		return
	}

	t.notify.Error("Your session has expired due to inactivity. Please log in again.")
	t.log.Info("session expired", "session_id", sessionID)

	t.ids.PerformLogout(context.Background())
	t.nav.NavigateToLogin()

	// The watcher also ends the session on the nil-identity event; doing
	// it here as well keeps expiry deterministic.
	t.endSession()
}

// ============================================================================
// Persistence
// ============================================================================

func (t *Tracker) persistLocked() {
	raw, err := encodeSnapshot(t.snap)
	if err != nil {
		t.log.Error("failed to encode session snapshot", "error", err)
		return
	}
	if err := t.kv.Set(context.Background(), storageKey, raw); err != nil {
		t.log.Error("failed to persist session snapshot", "error", err)
	}
}

// loadSnapshot reads the persisted snapshot. Corrupt data is treated as
// "no snapshot".
func (t *Tracker) loadSnapshot() (Snapshot, bool) {
	raw, err := t.kv.Get(context.Background(), storageKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return Snapshot{}, false
	}
	if err != nil {
		t.log.Error("failed to read session snapshot", "error", err)
		return Snapshot{}, false
	}

	snap, err := decodeSnapshot(raw)
	if err != nil {
		t.log.Warn("discarding corrupt session snapshot", "error", err)
		return Snapshot{}, false
	}
	return snap, true
}

// ============================================================================
// Queries
// ============================================================================

// CurrentSession returns the current snapshot.
func (t *Tracker) CurrentSession() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// SessionState returns the tracker's state machine position.
func (t *Tracker) SessionState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsSessionActive reports whether a session is active.
func (t *Tracker) IsSessionActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap.Active
}

// SessionDurationFormatted renders the session duration as "Xh Ym" or
// "Ym" ("0 min" when there is no measurable duration yet).
func (t *Tracker) SessionDurationFormatted() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.snap.Active || t.snap.DurationMinutes == 0 {
		return "0 min"
	}

	hours := t.snap.DurationMinutes / 60
	minutes := t.snap.DurationMinutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// TimeUntilExpiration returns the whole minutes left before the
// inactivity timeout, floored, never negative.
func (t *Tracker) TimeUntilExpiration() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.snap.Active || t.snap.LastActivity.IsZero() {
		return 0
	}

	remaining := t.cfg.Timeout - t.now().Sub(t.snap.LastActivity)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Minutes())
}

// Changes returns a subscription carrying the snapshot on every
// replacement.
func (t *Tracker) Changes() (<-chan Snapshot, func()) {
	return t.session.Subscribe()
}

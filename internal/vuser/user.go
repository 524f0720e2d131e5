// Package vuser implements virtual users and the registry that indexes the
// active ones.
package vuser

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/stampede/internal/schedule"
	"github.com/wesleyorama2/stampede/internal/session"
)

// State represents the lifecycle state of a virtual user.
type State int32

const (
	// StateIdle indicates the user is created but not started.
	StateIdle State = iota
	// StateRunning indicates the user is executing tasks.
	StateRunning
	// StateStopping indicates a stop was requested; it takes effect at the
	// next task boundary.
	StateStopping
	// StateStopped indicates the user has fully stopped.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Hooks are the optional per-user lifecycle callbacks. OnHeartbeat, when set,
// is invoked before every task execution of the user.
type Hooks struct {
	OnStart     func(u *User) error
	OnStop      func(u *User)
	OnHeartbeat func(u *User)
}

// User is one simulated virtual user. It owns a Scheduler, an optional
// Session, and the identity fields the registry indexes. All task execution
// for a user happens on a single goroutine; only the state/stop flags are
// shared with other goroutines.
type User struct {
	id        int64
	logicalID int64  // 0 = unset, not indexed
	name      string // "" = unset, not indexed

	profile  *schedule.Profile
	sched    *schedule.Scheduler
	sess     session.Session
	registry *Registry
	hooks    Hooks
	log      zerolog.Logger

	state         atomic.Int32
	stopRequested atomic.Bool
}

// New creates a virtual user for the given profile. The id is drawn from the
// registry's id service; the user is not registered until Start.
func New(reg *Registry, profile *schedule.Profile, reporter schedule.Reporter, log zerolog.Logger, hooks Hooks) *User {
	u := &User{
		id:       reg.NextID(),
		profile:  profile,
		registry: reg,
		hooks:    hooks,
	}
	u.log = log.With().Str("profile", profile.Name).Int64("user_id", u.id).Logger()

	var owner schedule.Owner = ownerCore{u}
	if hooks.OnHeartbeat != nil {
		owner = ownerWithHeartbeat{ownerCore{u}}
	}
	rng := rand.New(rand.NewSource(u.id))
	u.sched = schedule.New(profile, owner, reporter, u.log, rng)
	return u
}

// ownerCore adapts a User to the scheduler's Owner contract.
type ownerCore struct{ u *User }

func (o ownerCore) Exclusive() bool          { return o.u.profile.Exclusive }
func (o ownerCore) RequestStop()             { o.u.RequestStop() }
func (o ownerCore) Session() session.Session { return o.u.sess }

// ownerWithHeartbeat additionally exposes the heartbeat capability; the
// scheduler resolves it once at construction.
type ownerWithHeartbeat struct{ ownerCore }

func (o ownerWithHeartbeat) OnHeartbeat() { o.u.hooks.OnHeartbeat(o.u) }

// ID returns the globally unique user id.
func (u *User) ID() int64 { return u.id }

// Name returns the display name, or "" when unset.
func (u *User) Name() string { return u.name }

// LogicalID returns the business-level id, or 0 when unset.
func (u *User) LogicalID() int64 { return u.logicalID }

// Scheduler returns the user's scheduler.
func (u *User) Scheduler() *schedule.Scheduler { return u.sched }

// Session returns the attached session, or nil.
func (u *User) Session() session.Session { return u.sess }

// SetSession attaches the session used by this user's task bodies.
func (u *User) SetSession(sess session.Session) { u.sess = sess }

// Logger returns the user's contextual logger.
func (u *User) Logger() zerolog.Logger { return u.log }

// State returns the user's lifecycle state.
func (u *User) State() State { return State(u.state.Load()) }

// SetName updates the display name and reindexes the registry.
func (u *User) SetName(name string) {
	if name == u.name {
		return
	}
	old := u.name
	u.name = name
	u.registry.reindexName(u, old)
}

// SetLogicalID updates the business-level id and reindexes the registry.
func (u *User) SetLogicalID(id int64) {
	if id == u.logicalID {
		return
	}
	old := u.logicalID
	u.logicalID = id
	u.registry.reindexLogicalID(u, old)
}

// RequestStop asks the user to stop cooperatively; the request takes effect
// at the next task boundary.
func (u *User) RequestStop() {
	u.stopRequested.Store(true)
	u.state.CompareAndSwap(int32(StateRunning), int32(StateStopping))
}

// StopRequested reports whether a cooperative stop is pending.
func (u *User) StopRequested() bool { return u.stopRequested.Load() }

// Start brings the user up: task-set OnInit hooks in declaration order, the
// user's own OnStart hook, then registration. Called by the runner before
// the first work item.
func (u *User) Start(ctx context.Context) error {
	if err := u.sched.InitTaskSets(); err != nil {
		return err
	}
	if u.hooks.OnStart != nil {
		if err := u.hooks.OnStart(u); err != nil {
			return fmt.Errorf("user %d start: %w", u.id, err)
		}
	}
	u.registry.add(u)
	u.state.Store(int32(StateRunning))
	u.log.Info().Msg("user started")
	return nil
}

// Stop tears the user down symmetrically to Start: deregistration, the
// user's own OnStop hook, task-set OnDestroy hooks in reverse order, then
// session teardown.
func (u *User) Stop() {
	u.registry.remove(u)
	if u.hooks.OnStop != nil {
		u.hooks.OnStop(u)
	}
	u.sched.DestroyTaskSets()
	if u.sess != nil {
		if err := u.sess.Disconnect(); err != nil {
			u.log.Warn().Err(err).Msg("session disconnect failed")
		}
		u.sess = nil
	}
	u.state.Store(int32(StateStopped))
	u.log.Info().Msg("user stopped")
}

func (u *User) String() string {
	sid := int64(-1)
	if u.sess != nil {
		sid = u.sess.ID()
	}
	return fmt.Sprintf("%s[%s|id:%d|lid:%d|sid:%d]",
		u.profile.Name, u.State(), u.id, u.logicalID, sid)
}

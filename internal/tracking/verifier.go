package tracking

import (
	"sync"
	"time"

	"github.com/lukashondrich/open-workinghours-sub001/internal/clock"
)

// CheckFunc runs one verification check for a pending-exit episode.
// attempt is zero-based; last marks the final scheduled check. It returns
// true when the episode is resolved (exit committed or cancelled) and
// false when the check was inconclusive.
type CheckFunc func(sessionID string, pendingExitAt int64, attempt int, last bool) bool

// ExitVerifier arms the bounded check schedule for sessions awaiting exit
// confirmation. It owns timers only; every decision lives in the check
// callback. Episodes are keyed by session id plus the pending-exit
// timestamp, so a timer surviving from a cancelled episode can never act
// on a later one.
type ExitVerifier struct {
	clock   clock.Clock
	offsets []time.Duration
	check   CheckFunc

	mu       sync.Mutex
	episodes map[string]*verifyEpisode
}

type verifyEpisode struct {
	pendingExitAt int64
	attempt       int
	timer         clock.Timer
}

// NewExitVerifier creates a verifier firing checks at the given offsets
// after each episode's pending-exit time.
func NewExitVerifier(clk clock.Clock, offsets []time.Duration, check CheckFunc) *ExitVerifier {
	return &ExitVerifier{
		clock:    clk,
		offsets:  offsets,
		check:    check,
		episodes: make(map[string]*verifyEpisode),
	}
}

// Schedule arms the check sequence for one pending-exit episode,
// replacing any episode already armed for the session. Offsets whose
// deadline has already passed (restart recovery) fire immediately, in
// order, until the schedule catches up or a check resolves the episode.
func (v *ExitVerifier) Schedule(sessionID string, pendingExitAt int64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if ep, ok := v.episodes[sessionID]; ok {
		ep.timer.Stop()
		delete(v.episodes, sessionID)
	}

	ep := &verifyEpisode{pendingExitAt: pendingExitAt}
	v.episodes[sessionID] = ep
	v.arm(sessionID, ep)
}

// arm starts the timer for the episode's current attempt. Caller holds mu.
func (v *ExitVerifier) arm(sessionID string, ep *verifyEpisode) {
	deadline := time.UnixMilli(ep.pendingExitAt).Add(v.offsets[ep.attempt])
	delay := deadline.Sub(v.clock.Now())

	pendingExitAt := ep.pendingExitAt
	attempt := ep.attempt
	ep.timer = v.clock.AfterFunc(delay, func() {
		v.fire(sessionID, pendingExitAt, attempt)
	})
}

func (v *ExitVerifier) fire(sessionID string, pendingExitAt int64, attempt int) {
	v.mu.Lock()
	ep, ok := v.episodes[sessionID]
	if !ok || ep.pendingExitAt != pendingExitAt || ep.attempt != attempt {
		// stale timer from a cancelled or replaced episode
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()

	last := attempt == len(v.offsets)-1
	done := v.check(sessionID, pendingExitAt, attempt, last)

	v.mu.Lock()
	defer v.mu.Unlock()

	ep, ok = v.episodes[sessionID]
	if !ok || ep.pendingExitAt != pendingExitAt || ep.attempt != attempt {
		// the episode was cancelled while the check ran
		return
	}
	if done || last {
		delete(v.episodes, sessionID)
		return
	}
	ep.attempt++
	v.arm(sessionID, ep)
}

// Cancel stops the episode for the session and releases its timer. Safe
// to call repeatedly or after the episode resolved; both are no-ops.
func (v *ExitVerifier) Cancel(sessionID string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if ep, ok := v.episodes[sessionID]; ok {
		ep.timer.Stop()
		delete(v.episodes, sessionID)
	}
}

// Pending reports whether the session has an armed episode.
func (v *ExitVerifier) Pending(sessionID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	_, ok := v.episodes[sessionID]
	return ok
}

// StopAll releases every armed timer. Used on shutdown; episodes are
// rebuilt from persisted state on the next start.
func (v *ExitVerifier) StopAll() {
	v.mu.Lock()
	defer v.mu.Unlock()

	for id, ep := range v.episodes {
		ep.timer.Stop()
		delete(v.episodes, id)
	}
}

// fms/engine.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package fms implements the flight-plan state engine of a simulated
// airliner's flight management computer. It owns the dual active/temporary
// flight-plan buffers, keeps them synchronized with the authoritative
// external store via a version-gated refresh protocol, tracks the active
// leg with hysteresis correction, and derives route predictions (live
// distance/ETA fields and the deceleration point).
//
// The engine is single-threaded and cooperatively scheduled: all store
// interaction is through asynchronous calls whose completions are pumped
// by Update(), which the host is expected to call frequently (60 Hz in
// the simulator; tests call it in a loop). Nothing in the engine blocks
// on a store round trip.
package fms

import (
	"slices"
	"time"

	"github.com/avsim/fms/aviation"
	"github.com/avsim/fms/log"
	"github.com/avsim/fms/math"
	"github.com/avsim/fms/store"
)

// Situation is a snapshot of the aircraft's current position and motion,
// polled from the host simulation.
type Situation struct {
	Position    math.Point2LL
	GroundSpeed float32 // knots
	UTCSeconds  float64 // wall-clock seconds since UTC midnight
}

// PositionSource supplies the engine with the aircraft's current
// situation; it is polled, never pushed.
type PositionSource interface {
	Situation() Situation
}

// Engine is the flight-plan state engine. All methods must be called
// from a single goroutine; Update() drives asynchronous completions and
// the 1 Hz derived-state tick.
type Engine struct {
	store store.Store
	db    *aviation.Database
	pos   PositionSource

	eventStream *EventStream
	lg          *log.Logger

	plans    [2]*FlightPlan
	approach ApproachProjection

	// Index of the buffer the store currently treats as the edit target.
	currentBuffer int
	editState     EditState

	// Highest version seen, from either local bumps or store responses.
	version int64

	pendingCalls []*pendingCall

	sync    syncState
	opQueue []*queuedOp

	tracker legTracker
	decel   *DecelPoint

	// ApproachIndex already auto-activated by proximity, -1 if none;
	// keeps the activation from being re-sent every tick.
	autoActivatedFor int

	// Engine-internal clock: the now passed to the latest Update. All
	// intervals (poll pacing, cache TTLs, suppression windows) measure
	// against this so that the host controls the passage of time.
	now      time.Time
	lastTick time.Time

	// SwitchPollInterval overrides the pacing of current-buffer polls;
	// zero selects the default.
	SwitchPollInterval time.Duration
}

func New(st store.Store, db *aviation.Database, pos PositionSource, es *EventStream, lg *log.Logger) *Engine {
	e := &Engine{
		store:       st,
		db:          db,
		pos:         pos,
		eventStream: es,
		lg:          lg,
		plans:       [2]*FlightPlan{makeEmptyFlightPlan(), makeEmptyFlightPlan()},
		now:         time.Now(),
		lastTick:    time.Now(),

		autoActivatedFor: -1,
	}
	e.tracker.init()
	// Pull the store's initial state.
	e.enqueueOp("initial refresh", func() {
		e.beginRefresh(ActiveBuffer, true)
	})
	return e
}

///////////////////////////////////////////////////////////////////////////
// Queries

// FlightPlan returns the engine's cached copy of the given buffer.
// Callers must treat the result as read-only; all mutation goes through
// the edit protocol.
func (e *Engine) FlightPlan(buffer int) *FlightPlan {
	return e.plans[buffer]
}

// ActivePlan returns the buffer the aircraft is flying: the temporary
// buffer while an edit is in progress, the active buffer otherwise.
func (e *Engine) ActivePlan() *FlightPlan {
	return e.plans[e.currentBuffer]
}

func (e *Engine) Approach() *ApproachProjection { return &e.approach }

func (e *Engine) CurrentBuffer() int { return e.currentBuffer }

func (e *Engine) Version() int64 { return e.version }

func (e *Engine) EditState() EditState { return e.editState }

// DecelPoint returns the current deceleration point, if a destination is
// set and the route is long enough to place one.
func (e *Engine) DecelPoint() (*DecelPoint, bool) {
	return e.decel, e.decel != nil
}

// LastIndexBeforeApproach demarcates the enroute/arrival segment from
// the approach segment for constraint lookups.
func (e *Engine) LastIndexBeforeApproach() int {
	return e.ActivePlan().LastIndexBeforeApproach()
}

///////////////////////////////////////////////////////////////////////////
// Versioning

// observeVersion reconciles a version number reported by the store with
// the local counter. The current version is always the maximum of the
// last-known local value and the last value observed from the store, so
// the counter never decreases.
func (e *Engine) observeVersion(v int64) {
	e.version = max(e.version, v)
}

func (e *Engine) bumpVersion() {
	e.version++
}

///////////////////////////////////////////////////////////////////////////
// Asynchronous call pump

type pendingCall struct {
	call      *store.Call
	issueTime time.Time
	callback  func(error)
}

func (e *Engine) addCall(call *store.Call, callback func(error)) {
	e.pendingCalls = append(e.pendingCalls, &pendingCall{
		call:      call,
		issueTime: time.Now(),
		callback:  callback,
	})
}

func (e *Engine) checkPendingCalls() {
	var completed []*pendingCall
	e.pendingCalls = slices.DeleteFunc(e.pendingCalls,
		func(pc *pendingCall) bool {
			if pc.call.Finished() {
				completed = append(completed, pc)
				return true
			}
			return false
		})

	// Invoke callbacks after the scan so that a callback that issues a
	// new call doesn't mutate the slice mid-iteration.
	for _, pc := range completed {
		if pc.callback != nil {
			pc.callback(pc.call.Error)
		}
	}
}

///////////////////////////////////////////////////////////////////////////
// Operation queue

// queuedOp is one edit or sync operation. Operations run strictly one at
// a time in FIFO order: overlapping edits from multiple callers are
// serialized rather than allowed to interleave their refresh/commit
// cycles.
type queuedOp struct {
	name string
	run  func()
}

func (e *Engine) enqueueOp(name string, run func()) {
	e.opQueue = append(e.opQueue, &queuedOp{name: name, run: run})
}

// opDone marks the in-flight operation complete; the next queued
// operation starts on the following Update.
func (e *Engine) opDone() {
	e.sync.phase = syncIdle
}

func (e *Engine) pumpOpQueue() {
	if e.sync.phase != syncIdle || len(e.opQueue) == 0 {
		return
	}
	op := e.opQueue[0]
	e.opQueue = e.opQueue[1:]
	e.sync.phase = syncRequesting
	e.lg.Debug("starting operation", "op", op.name)
	op.run()
}

///////////////////////////////////////////////////////////////////////////
// Update

// Update pumps asynchronous store completions, advances the operation
// queue, and once per second recomputes derived state (active leg
// hysteresis, live prediction fields, the decel point).
func (e *Engine) Update(now time.Time) {
	e.now = now
	e.checkPendingCalls()
	e.pumpSwitch(now)
	e.pumpOpQueue()
	e.updateActiveLeg(now)
	e.tracker.expireChanged(now)

	if now.Sub(e.lastTick) >= time.Second {
		e.lastTick = now
		e.tick()
	}
}

func (e *Engine) tick() {
	var sit Situation
	if e.pos != nil {
		sit = e.pos.Situation()
	}
	e.applyHysteresis(sit)

	fp := e.ActivePlan()
	PropagateLiveFields(fp.Waypoints, e.tracker.activeIndex, sit.Position,
		sit.GroundSpeed, sit.UTCSeconds)
	if e.approach.Loaded {
		PropagateApproachLiveFields(&e.approach, fp, sit.GroundSpeed, sit.UTCSeconds)
	}

	e.maybeAutoActivateApproach(sit)
	e.recomputeDecelPoint()
}

// maybeAutoActivateApproach asks the store to activate the selected
// approach once the aircraft is inside the deceleration distance of the
// destination. Fires at most once per approach selection.
func (e *Engine) maybeAutoActivateApproach(sit Situation) {
	fp := e.ActivePlan()
	if fp.ApproachIndex < 0 || e.approach.Activated || !e.approach.Loaded {
		return
	}
	if e.autoActivatedFor == fp.ApproachIndex {
		return
	}
	di := fp.DestinationIndex()
	if di < 0 || sit.GroundSpeed <= 0 {
		return
	}
	if d := fp.Waypoints[di].DistanceTo; d > 0 && d <= DecelDistanceNM {
		e.autoActivatedFor = fp.ApproachIndex
		e.lg.Info("approach activation distance reached",
			"distance_to_destination", d)
		e.enqueueOp("proximity approach activation", func() {
			e.command(e.store.AutoActivateApproach(), e.currentBuffer, nil)
		})
	}
}

func (e *Engine) recomputeDecelPoint() {
	fp := e.ActivePlan()
	dp, ok := ComputeDecelPoint(fp, &e.approach, DecelDistanceNM)
	if !ok {
		e.decel = nil
		return
	}
	if e.decel == nil || *e.decel != *dp {
		e.decel = dp
		e.eventStream.Post(Event{Type: DecelPointUpdatedEvent, DecelPoint: dp})
	}
}

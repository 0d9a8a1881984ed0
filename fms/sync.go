// fms/sync.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"time"

	"github.com/avsim/fms/store"
)

// The synchronization engine runs as an explicit state machine: Idle
// when nothing is in flight, Requesting while a store command (or
// command sequence) is outstanding, Reconciling while a refresh fetch is
// replacing a buffer's contents. Operations queue while the machine is
// away from Idle, so overlapping edits serialize instead of interleaving
// their refresh/commit cycles.
type syncPhase int

const (
	syncIdle syncPhase = iota
	syncRequesting
	syncReconciling
)

func (p syncPhase) String() string {
	return [...]string{"Idle", "Requesting", "Reconciling"}[p]
}

type syncState struct {
	phase    syncPhase
	switchOp *switchOp
}

// switchOp tracks an in-flight current-buffer switch: the store has been
// told the desired index and we poll until it reports the same index,
// bounded by maxSwitchAttempts.
type switchOp struct {
	target   int
	attempts int
	polling  bool
	nextPoll time.Time
	done     func(error)
}

const maxSwitchAttempts = 60

// switchPollInterval paces the current-buffer polls. Tests shorten this
// to drive the full attempt budget quickly.
const defaultSwitchPollInterval = 100 * time.Millisecond

///////////////////////////////////////////////////////////////////////////
// Refresh

// Refresh requests a reconciliation of the current buffer's cache with
// the store. If the locally observed version already matches the store's,
// the refresh is a no-op.
func (e *Engine) Refresh() {
	buffer := e.currentBuffer
	e.enqueueOp("refresh", func() {
		e.beginRefresh(buffer, false)
	})
}

// beginRefresh runs the reconciliation leg of an in-flight operation:
// fetch the store's version, compare against the cache, and replace the
// target buffer's contents if they are out of date. Must only be called
// while the state machine is held by the current operation; it returns
// the machine to Idle when done.
func (e *Engine) beginRefresh(buffer int, force bool, then ...func(error)) {
	e.sync.phase = syncReconciling

	finish := func(err error) {
		if err != nil {
			e.lg.Error("refresh failed", "buffer", buffer, "error", err)
		}
		e.opDone()
		for _, fn := range then {
			if fn != nil {
				fn(err)
			}
		}
	}

	var v int64
	e.addCall(e.store.GetVersion(&v), func(err error) {
		if err != nil {
			finish(err)
			return
		}
		e.observeVersion(v)
		if !force && e.plans[buffer].Version == e.version {
			// Cache is current; nothing to fetch.
			finish(nil)
			return
		}
		e.fetchFlightPlan(buffer, finish)
	})
}

func (e *Engine) fetchFlightPlan(buffer int, finish func(error)) {
	data := &store.FlightPlanData{}
	e.addCall(e.store.GetFlightPlan(buffer, data), func(err error) {
		if err != nil {
			finish(err)
			return
		}
		e.plans[buffer].replaceFromStore(data)
		e.observeVersion(data.Version)
		// The cache now reflects everything through the reconciled
		// version, including commands we issued that the store applied
		// before serving the fetch.
		e.plans[buffer].Version = e.version

		done := func(err error) {
			if err == nil {
				e.eventStream.Post(Event{Type: PlanRefreshedEvent, Buffer: buffer, Version: e.version})
				e.relocateActiveLeg()
				e.recomputeDecelPoint()
			}
			finish(err)
		}

		if data.ApproachIndex >= 0 {
			e.fetchApproach(buffer, done)
		} else {
			e.approach = ApproachProjection{}
			e.autoActivatedFor = -1
			done(nil)
		}
	})
}

func (e *Engine) fetchApproach(buffer int, finish func(error)) {
	data := &store.ApproachData{}
	e.addCall(e.store.GetApproach(data), func(err error) {
		if err != nil {
			finish(err)
			return
		}
		e.approach.replaceFromStore(data, e.plans[buffer])
		finish(nil)
	})
}

///////////////////////////////////////////////////////////////////////////
// Current-buffer switch

// beginSwitch tells the store to make target the current buffer, then
// arms the poll loop. The store is eventually consistent: the switch is
// not considered effective until a poll reports the new index back.
func (e *Engine) beginSwitch(target int, done func(error)) {
	e.addCall(e.store.SwitchBuffer(target), func(err error) {
		if err != nil {
			done(err)
			return
		}
		e.sync.switchOp = &switchOp{target: target, done: done}
	})
}

// switchAndRefresh chains a buffer switch with the version bump and full
// refresh that every successful switch requires.
func (e *Engine) switchAndRefresh(target int, then func(error)) {
	e.beginSwitch(target, func(err error) {
		if err != nil {
			e.opDone()
			if then != nil {
				then(err)
			}
			return
		}
		e.beginRefresh(target, true, then)
	})
}

// pumpSwitch issues the next current-buffer poll when one is due. On
// success the switch takes effect locally; on exhaustion of the attempt
// budget the operation fails and the current-buffer pointer is left
// unchanged.
func (e *Engine) pumpSwitch(now time.Time) {
	sw := e.sync.switchOp
	if sw == nil || sw.polling || now.Before(sw.nextPoll) {
		return
	}

	sw.polling = true
	sw.attempts++
	var idx int
	e.addCall(e.store.GetCurrentBuffer(&idx), func(err error) {
		sw.polling = false
		sw.nextPoll = e.now.Add(e.switchPollInterval())

		if err == nil && idx == sw.target {
			e.sync.switchOp = nil
			e.currentBuffer = sw.target
			e.bumpVersion()
			e.eventStream.Post(Event{Type: BufferSwitchedEvent, Buffer: sw.target, Version: e.version})
			sw.done(nil)
			return
		}

		if sw.attempts >= maxSwitchAttempts {
			e.sync.switchOp = nil
			e.lg.Warn("current-buffer switch timed out", "target", sw.target,
				"attempts", sw.attempts)
			sw.done(ErrIndexSwitchTimeout)
		}
	})
}

func (e *Engine) switchPollInterval() time.Duration {
	if e.SwitchPollInterval != 0 {
		return e.SwitchPollInterval
	}
	return defaultSwitchPollInterval
}

///////////////////////////////////////////////////////////////////////////
// Commands

// command sends one store command as part of the in-flight operation; on
// success it bumps the local version and refreshes the given buffer, per
// the send/bump/refresh discipline every mutation follows.
func (e *Engine) command(call *store.Call, buffer int, callback func(error)) {
	e.addCall(call, func(err error) {
		if err != nil {
			e.opDone()
			if callback != nil {
				callback(err)
			}
			return
		}
		e.bumpVersion()
		e.beginRefresh(buffer, true, callback)
	})
}

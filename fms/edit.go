// fms/edit.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"github.com/avsim/fms/aviation"
	"github.com/avsim/fms/math"
)

// EditState is the transactional edit protocol's state: Active when the
// aircraft is flying buffer 0 with no edit in progress, Editing when a
// temporary copy in buffer 1 is the current edit target.
type EditState int

const (
	EditStateActive EditState = iota
	EditStateEditing
)

func (s EditState) String() string {
	return [...]string{"Active", "Editing"}[s]
}

///////////////////////////////////////////////////////////////////////////
// Buffer lifecycle

// EnsureTemporary makes the temporary buffer the current edit target,
// cloning the active buffer into it if no edit is already in progress.
// Calling it while Editing is a no-op. The local transition is immediate;
// the corresponding store-side copy and buffer switch are queued behind
// any in-flight operation.
func (e *Engine) EnsureTemporary() {
	if e.editState == EditStateEditing {
		return
	}
	e.plans[TemporaryBuffer] = e.plans[ActiveBuffer].Clone()
	e.setEditState(EditStateEditing)

	e.enqueueOp("ensure temporary", func() {
		fail := func(err error) {
			// Nothing took effect store-side; revert the local transition.
			e.lg.Error("temporary buffer setup failed", "error", err)
			e.setEditState(EditStateActive)
		}

		e.addCall(e.store.CopyFlightPlan(ActiveBuffer, TemporaryBuffer), func(err error) {
			if err != nil {
				fail(err)
				e.opDone()
				return
			}
			e.bumpVersion()
			e.switchAndRefresh(TemporaryBuffer, func(err error) {
				if err != nil {
					fail(err)
				}
			})
		})
	})
}

// Commit makes the temporary buffer the new active plan: the store's
// current buffer returns to 0 and buffer 1 is copied over it. Only
// valid while Editing. If the store-side sequence fails, the local state
// is rolled back to its pre-commit value. callback reports the eventual
// outcome and may be nil.
func (e *Engine) Commit(callback func(error)) error {
	if e.editState != EditStateEditing {
		return ErrNotEditing
	}

	saved := e.plans[ActiveBuffer]
	e.plans[ActiveBuffer] = e.plans[TemporaryBuffer].Clone()
	e.setEditState(EditStateActive)

	e.enqueueOp("commit", func() {
		fail := func(err error) {
			// The commit did not take effect; restore the pre-commit
			// active buffer and stay in the edit.
			e.lg.Error("commit failed, rolling back", "error", err)
			e.plans[ActiveBuffer] = saved
			e.setEditState(EditStateEditing)
			if callback != nil {
				callback(err)
			}
		}

		// Switch back to the active buffer before copying the edit over
		// it. The store's buffer 0 is the only store-side copy of the
		// pre-commit plan; doing the timeout-prone switch first means a
		// failed commit leaves it intact for a later Discard.
		e.beginSwitch(ActiveBuffer, func(err error) {
			if err != nil {
				fail(err)
				e.opDone()
				return
			}
			e.addCall(e.store.CopyFlightPlan(TemporaryBuffer, ActiveBuffer), func(err error) {
				if err != nil {
					fail(err)
					e.opDone()
					return
				}
				e.bumpVersion()
				e.beginRefresh(ActiveBuffer, true, func(err error) {
					if err != nil {
						fail(err)
					} else if callback != nil {
						callback(nil)
					}
				})
			})
		})
	})
	return nil
}

// Discard abandons the in-progress edit: the markers clear and the
// store's current buffer returns to 0. Buffer 1's contents are left to
// be overwritten by the next EnsureTemporary. Only valid while Editing.
func (e *Engine) Discard(callback func(error)) error {
	if e.editState != EditStateEditing {
		return ErrNotEditing
	}
	e.setEditState(EditStateActive)

	e.enqueueOp("discard", func() {
		e.switchAndRefresh(ActiveBuffer, func(err error) {
			if err != nil {
				e.lg.Error("discard switch failed", "error", err)
			}
			if callback != nil {
				callback(err)
			}
		})
	})
	return nil
}

func (e *Engine) setEditState(s EditState) {
	if e.editState == s {
		return
	}
	e.editState = s
	e.eventStream.Post(Event{Type: EditStateChangedEvent, EditState: s})
}

///////////////////////////////////////////////////////////////////////////
// Mutations
//
// Every mutation below that touches waypoints, procedures, or
// runway/transition selection first ensures the temporary buffer is the
// edit target and then addresses buffer 1 exclusively; the active buffer
// only ever changes wholesale, via Commit. Database lookups happen
// synchronously before any store command so that NotInDatabase and
// AmbiguousMatch conditions surface without leaving a transaction
// half-applied.

// AddWaypoint inserts the waypoint with the given identifier at index in
// the temporary buffer. An ambiguous identifier is returned as an
// *aviation.AmbiguousFixError carrying the candidates for the caller to
// disambiguate.
func (e *Engine) AddWaypoint(index int, ident string, callback func(error)) error {
	fix, err := e.db.Locate(ident)
	if err != nil {
		return err
	}
	if index < 0 || index > len(e.plans[e.currentBuffer].Waypoints) {
		return ErrInvalidWaypointIndex
	}

	wp := aviation.Waypoint{
		Fix:      fix.Ident,
		Key:      fix.Key,
		Location: fix.Location,
		Speed:    aviation.SpeedRestrictionNone,
		Leg:      aviation.LegTypeTF,
	}

	e.EnsureTemporary()
	e.enqueueOp("add waypoint", func() {
		e.command(e.store.AddWaypoint(TemporaryBuffer, index, wp), TemporaryBuffer, callback)
	})
	return nil
}

// RemoveWaypoint deletes the waypoint at index from the temporary buffer.
func (e *Engine) RemoveWaypoint(index int, callback func(error)) error {
	if index < 0 || index >= len(e.plans[e.currentBuffer].Waypoints) {
		return ErrInvalidWaypointIndex
	}

	e.EnsureTemporary()
	e.enqueueOp("remove waypoint", func() {
		e.command(e.store.RemoveWaypoint(TemporaryBuffer, index), TemporaryBuffer, callback)
	})
	return nil
}

// SetOrigin sets the departure airport of the temporary buffer.
func (e *Engine) SetOrigin(icao string, callback func(error)) error {
	if _, err := e.db.Airport(icao); err != nil {
		return err
	}
	e.EnsureTemporary()
	e.enqueueOp("set origin", func() {
		e.command(e.store.SetOrigin(TemporaryBuffer, icao), TemporaryBuffer, callback)
	})
	return nil
}

// SetDestination sets the arrival airport of the temporary buffer.
func (e *Engine) SetDestination(icao string, callback func(error)) error {
	if _, err := e.db.Airport(icao); err != nil {
		return err
	}
	e.EnsureTemporary()
	e.enqueueOp("set destination", func() {
		e.command(e.store.SetDestination(TemporaryBuffer, icao), TemporaryBuffer, callback)
	})
	return nil
}

func (e *Engine) SetOriginRunway(index int, callback func(error)) {
	e.EnsureTemporary()
	e.enqueueOp("set origin runway", func() {
		e.command(e.store.SetOriginRunway(TemporaryBuffer, index), TemporaryBuffer, callback)
	})
}

func (e *Engine) SetDestinationRunway(index int, callback func(error)) {
	e.EnsureTemporary()
	e.enqueueOp("set destination runway", func() {
		e.command(e.store.SetDestinationRunway(TemporaryBuffer, index), TemporaryBuffer, callback)
	})
}

func (e *Engine) SetCruiseAltitude(feet int, callback func(error)) {
	e.EnsureTemporary()
	e.enqueueOp("set cruise altitude", func() {
		e.command(e.store.SetCruiseAltitude(TemporaryBuffer, feet), TemporaryBuffer, callback)
	})
}

// SetDepartureProcedure selects the departure procedure by index. If a
// runway was already chosen, the store auto-selects a matching runway
// transition of the new procedure when one exists.
func (e *Engine) SetDepartureProcedure(index int, callback func(error)) {
	e.EnsureTemporary()
	e.enqueueOp("set departure procedure", func() {
		e.command(e.store.SetDepartureProcedure(TemporaryBuffer, index), TemporaryBuffer, callback)
	})
}

func (e *Engine) SetDepartureRunwayTransition(index int, callback func(error)) {
	e.EnsureTemporary()
	e.enqueueOp("set departure runway transition", func() {
		e.command(e.store.SetDepartureRunwayTransition(TemporaryBuffer, index), TemporaryBuffer, callback)
	})
}

func (e *Engine) SetDepartureEnrouteTransition(index int, callback func(error)) {
	e.EnsureTemporary()
	e.enqueueOp("set departure enroute transition", func() {
		e.command(e.store.SetDepartureEnrouteTransition(TemporaryBuffer, index), TemporaryBuffer, callback)
	})
}

func (e *Engine) SetArrivalProcedure(index int, callback func(error)) {
	e.EnsureTemporary()
	e.enqueueOp("set arrival procedure", func() {
		e.command(e.store.SetArrivalProcedure(TemporaryBuffer, index), TemporaryBuffer, callback)
	})
}

func (e *Engine) SetArrivalRunwayTransition(index int, callback func(error)) {
	e.EnsureTemporary()
	e.enqueueOp("set arrival runway transition", func() {
		e.command(e.store.SetArrivalRunwayTransition(TemporaryBuffer, index), TemporaryBuffer, callback)
	})
}

func (e *Engine) SetArrivalEnrouteTransition(index int, callback func(error)) {
	e.EnsureTemporary()
	e.enqueueOp("set arrival enroute transition", func() {
		e.command(e.store.SetArrivalEnrouteTransition(TemporaryBuffer, index), TemporaryBuffer, callback)
	})
}

func (e *Engine) SetApproach(index int, callback func(error)) {
	e.EnsureTemporary()
	e.enqueueOp("set approach", func() {
		e.command(e.store.SetApproach(TemporaryBuffer, index), TemporaryBuffer, callback)
	})
}

func (e *Engine) SetApproachTransition(index int, callback func(error)) {
	e.EnsureTemporary()
	e.enqueueOp("set approach transition", func() {
		e.command(e.store.SetApproachTransition(TemporaryBuffer, index), TemporaryBuffer, callback)
	})
}

///////////////////////////////////////////////////////////////////////////
// Approach activation and direct-to
//
// These act on the flown plan immediately rather than through the
// temporary buffer: activating an approach or a direct-to is a flight
// path change, not a plan edit.

// ActivateApproach starts flying the selected approach projection.
func (e *Engine) ActivateApproach(callback func(error)) error {
	if e.ActivePlan().ApproachIndex < 0 {
		return ErrNoApproachSelected
	}
	e.enqueueOp("activate approach", func() {
		e.command(e.store.ActivateApproach(), e.currentBuffer, callback)
	})
	return nil
}

func (e *Engine) DeactivateApproach(callback func(error)) {
	e.enqueueOp("deactivate approach", func() {
		e.command(e.store.DeactivateApproach(), e.currentBuffer, callback)
	})
}

// AutoActivateApproach asks the store to activate the approach when its
// own activation criteria are met (distance and track relative to the
// final approach course).
func (e *Engine) AutoActivateApproach(callback func(error)) error {
	if e.ActivePlan().ApproachIndex < 0 {
		return ErrNoApproachSelected
	}
	e.enqueueOp("auto-activate approach", func() {
		e.command(e.store.AutoActivateApproach(), e.currentBuffer, callback)
	})
	return nil
}

// ActivateDirectTo replaces normal sequencing with a direct course from
// the aircraft's present position to the named waypoint.
func (e *Engine) ActivateDirectTo(ident string, callback func(error)) error {
	if _, err := e.db.Locate(ident); err != nil {
		return err
	}

	var position math.Point2LL
	if e.pos != nil {
		position = e.pos.Situation().Position
	}
	e.enqueueOp("activate direct-to", func() {
		e.command(e.store.ActivateDirectTo(ident, position), e.currentBuffer, callback)
	})
	return nil
}

func (e *Engine) CancelDirectTo(callback func(error)) {
	e.enqueueOp("cancel direct-to", func() {
		e.command(e.store.CancelDirectTo(), e.currentBuffer, callback)
	})
}

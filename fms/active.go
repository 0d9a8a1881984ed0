// fms/active.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"time"

	"github.com/avsim/fms/aviation"
	"github.com/avsim/fms/math"
)

// How long a fetched next-waypoint identifier stays fresh before another
// store query is issued.
const identCacheTTL = time.Second

// How long the "active leg changed" flags stay set after a transition,
// debouncing against double-counting a single sequencing event.
const changedSuppressionWindow = 3 * time.Second

// hysteresisEpsilon is the minimum per-sample decrease in distance to
// the previous waypoint that counts as "still approaching" it.
const hysteresisEpsilon = 0.01 // nm

// legTracker resolves which waypoint the aircraft is currently flying
// toward. The authoritative answer comes from the store's next-waypoint
// identifier; the tracker locates it in the right sequence, applies a
// distance-based hysteresis correction against premature sequencing, and
// debounces change notifications.
type legTracker struct {
	// Last identifier fetched from the store and when; a fetch is only
	// issued when the cached value has aged past identCacheTTL.
	lastIdent    string
	identFetched time.Time
	identBusy    bool

	activeIdent string
	activeIndex int
	inApproach  bool

	// Hysteresis: distance to the previous active waypoint at the last
	// 1 Hz sample.
	prevDistance    float32
	hasPrevDistance bool
	correctedIndex  int

	changedUntil time.Time
}

func (t *legTracker) init() {
	t.activeIndex = -1
	t.correctedIndex = -1
}

///////////////////////////////////////////////////////////////////////////
// Queries

// ActiveIndex returns the index of the active waypoint in the sequence
// currently supplying the active leg (the approach projection if it is
// activated, the flown buffer otherwise), or -1 if unknown.
func (e *Engine) ActiveIndex() int { return e.tracker.activeIndex }

// ActiveInApproach reports whether the active leg is supplied by the
// approach projection rather than the flown buffer.
func (e *Engine) ActiveInApproach() bool { return e.tracker.inApproach }

func (e *Engine) activeSequence() aviation.WaypointArray {
	if e.tracker.inApproach {
		return e.approach.Waypoints
	}
	return e.ActivePlan().Waypoints
}

// ActiveWaypoint returns the waypoint currently being flown toward, or
// nil if no active leg is known.
func (e *Engine) ActiveWaypoint() *aviation.Waypoint {
	seq := e.activeSequence()
	if idx := e.tracker.activeIndex; idx >= 0 && idx < len(seq) {
		return &seq[idx]
	}
	return nil
}

// PreviousActiveWaypoint returns the waypoint before the active one, or
// nil at the start of the sequence.
func (e *Engine) PreviousActiveWaypoint() *aviation.Waypoint {
	seq := e.activeSequence()
	if idx := e.tracker.activeIndex - 1; idx >= 0 && idx < len(seq) {
		return &seq[idx]
	}
	return nil
}

// NextActiveWaypoint returns the waypoint after the active one, or nil
// at the end of the sequence.
func (e *Engine) NextActiveWaypoint() *aviation.Waypoint {
	seq := e.activeSequence()
	if idx := e.tracker.activeIndex + 1; idx > 0 && idx < len(seq) {
		return &seq[idx]
	}
	return nil
}

// CorrectedActiveIndex returns the hysteresis-corrected active index:
// while the distance to the previous waypoint is still decreasing the
// aircraft is treated as still flying the previous leg, so the corrected
// index lags the authoritative one by one.
func (e *Engine) CorrectedActiveIndex() int { return e.tracker.correctedIndex }

// CorrectedActiveWaypoint returns the waypoint at the corrected index.
func (e *Engine) CorrectedActiveWaypoint() *aviation.Waypoint {
	seq := e.activeSequence()
	if idx := e.tracker.correctedIndex; idx >= 0 && idx < len(seq) {
		return &seq[idx]
	}
	return nil
}

// ActiveLegChanged reports whether the active leg changed within the
// last few seconds. The flag clears automatically after the suppression
// window expires.
func (e *Engine) ActiveLegChanged() bool { return !e.tracker.changedUntil.IsZero() }

///////////////////////////////////////////////////////////////////////////
// Update

// updateActiveLeg refreshes the store's next-waypoint identifier (rate
// limited by the cache TTL) and relocates the active leg accordingly.
func (e *Engine) updateActiveLeg(now time.Time) {
	t := &e.tracker
	if now.Sub(t.identFetched) >= identCacheTTL && !t.identBusy {
		t.identBusy = true
		var ident string
		e.addCall(e.store.GetNextWaypointIdent(&ident), func(err error) {
			t.identBusy = false
			if err != nil {
				e.lg.Warn("next waypoint ident query failed", "error", err)
				return
			}
			t.identFetched = e.now
			t.lastIdent = ident
			e.relocateActiveLeg()
		})
	}
}

// relocateActiveLeg finds the active identifier in the appropriate
// waypoint sequence. Lookup order: the approach projection if the
// approach is activated, else the flown buffer, else the approach
// projection as a fallback; if the identifier is found nowhere and the
// approach is not activated, the aircraft is treated as sequencing
// toward the destination (the last index of the flown buffer).
func (e *Engine) relocateActiveLeg() {
	t := &e.tracker
	ident := t.lastIdent

	fp := e.ActivePlan()
	idx, inApproach := -1, false
	if ident != "" {
		if e.approach.Activated {
			if i := e.approach.Waypoints.Find(ident); i >= 0 {
				idx, inApproach = i, true
			} else if i := fp.Waypoints.Find(ident); i >= 0 {
				idx = i
			}
		} else {
			if i := fp.Waypoints.Find(ident); i >= 0 {
				idx = i
			} else if i := e.approach.Waypoints.Find(ident); i >= 0 {
				idx, inApproach = i, true
			}
		}
	}
	if idx < 0 && !e.approach.Activated && len(fp.Waypoints) > 0 {
		idx = len(fp.Waypoints) - 1
		ident = fp.Waypoints[idx].Fix
	}

	if idx == t.activeIndex && inApproach == t.inApproach && ident == t.activeIdent {
		return
	}

	t.activeIndex = idx
	t.activeIdent = ident
	t.inApproach = inApproach
	t.correctedIndex = idx
	t.hasPrevDistance = false
	t.changedUntil = e.now.Add(changedSuppressionWindow)

	e.eventStream.Post(Event{Type: ActiveLegChangedEvent, ActiveIdent: ident, ActiveIndex: idx})
}

// applyHysteresis runs once per second: if the distance from the current
// position to the previous active waypoint is still decreasing, the
// aircraft has not really sequenced yet and the corrected index holds at
// the previous leg.
func (e *Engine) applyHysteresis(sit Situation) {
	t := &e.tracker
	prev := e.PreviousActiveWaypoint()
	if t.activeIndex < 0 || prev == nil || sit.Position.IsZero() {
		t.correctedIndex = t.activeIndex
		t.hasPrevDistance = false
		return
	}

	d := math.NMDistance2LL(sit.Position, prev.Location)
	if t.hasPrevDistance && d < t.prevDistance-hysteresisEpsilon {
		t.correctedIndex = t.activeIndex - 1
	} else {
		t.correctedIndex = t.activeIndex
	}
	t.prevDistance = d
	t.hasPrevDistance = true
}

func (t *legTracker) expireChanged(now time.Time) {
	if !t.changedUntil.IsZero() && now.After(t.changedUntil) {
		t.changedUntil = time.Time{}
	}
}

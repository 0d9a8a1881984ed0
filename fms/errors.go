// fms/errors.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"errors"
)

var (
	ErrIndexSwitchTimeout   = errors.New("Buffer switch was not reflected by the store")
	ErrInvalidWaypointIndex = errors.New("Invalid waypoint index")
	ErrNoApproachSelected   = errors.New("No approach selected")
	ErrNotEditing           = errors.New("No temporary flight plan to commit or discard")
	ErrUnknownProcedure     = errors.New("Unknown procedure index")
)

// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package drivemovement

import "github.com/gomotion/drivemovement/pkg/segment"

// DDA is the higher-level Dynamic Displacement Analyser block that
// supplies a planned move. It is implemented and owned by the planner;
// this package only ever reads from it.
type DDA interface {
	// DirectionVector returns the move's unit path tangent, indexed by
	// drive number (XAxis, YAxis, ZAxis, and any further extruder
	// drives beyond that).
	DirectionVector() []float64
	TotalDistance() float64
	Acceleration() float64
	Deceleration() float64
	TopSpeed() float64
	AccelClocks() float64
	DecelClocks() float64
	DecelStartDistance() float64
	ClocksNeeded() float64
	UsePressureAdvance() bool
	// ShapedSegments returns the input-shaped segment list used for
	// geometric axes, or nil if no shaping applies to this move.
	ShapedSegments() *segment.MoveSegment
	// UnshapedSegments returns the raw (unshaped) segment list. This is
	// always used for extruder drives, and used for geometric axes when
	// ShapedSegments is nil.
	UnshapedSegments() *segment.MoveSegment
}

// DeltaKinematicsHandle exposes the per-tower geometric constants a
// delta machine's kinematics object holds for one drive.
type DeltaKinematicsHandle interface {
	GetTowerX(drive int) float64
	GetTowerY(drive int) float64
	GetDiagonalSquared(drive int) float64
}

// PrepParams carries the move-independent geometry and timing inputs
// needed to prepare a drive for a new move.
type PrepParams struct {
	InitialX           float64
	InitialY           float64
	A2PlusB2           float64 // dirX^2 + dirY^2
	AccelClocks        float64
	DecelClocks        float64
	DecelStartDistance float64
	DeltaParams        DeltaKinematicsHandle
}

// Platform exposes the machine's step density per drive.
type Platform interface {
	DriveStepsPerUnit(drive int) float64
}

// ExtruderShaper is the pressure-advance shaper collaborator: it
// supplies the gain K and carries fractional-step extrusion pending
// across moves.
type ExtruderShaper interface {
	GetK() float64
	GetExtrusionPending() float64
	SetExtrusionPending(x float64)
}

// DebugPrinter is the debug-output sink used by DebugPrint (see
// debug.go). Satisfied by *log.Logger's Debugf method.
type DebugPrinter interface {
	Debugf(format string, args ...interface{})
}

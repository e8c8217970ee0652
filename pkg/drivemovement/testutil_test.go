// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package drivemovement

import "github.com/gomotion/drivemovement/pkg/segment"

// fakeDDA is a minimal, hand-built stand-in for the planner's Dynamic
// Displacement Analyser, holding just enough fields for the scenarios
// exercised in this package's tests.
type fakeDDA struct {
	dirVec             []float64
	totalDistance      float64
	accel, decel       float64
	topSpeed           float64
	accelClocks        float64
	decelClocks        float64
	decelStartDistance float64
	clocksNeeded       float64
	usePA              bool
	shaped, unshaped   *segment.MoveSegment
}

func (d *fakeDDA) DirectionVector() []float64        { return d.dirVec }
func (d *fakeDDA) TotalDistance() float64            { return d.totalDistance }
func (d *fakeDDA) Acceleration() float64             { return d.accel }
func (d *fakeDDA) Deceleration() float64             { return d.decel }
func (d *fakeDDA) TopSpeed() float64                 { return d.topSpeed }
func (d *fakeDDA) AccelClocks() float64              { return d.accelClocks }
func (d *fakeDDA) DecelClocks() float64              { return d.decelClocks }
func (d *fakeDDA) DecelStartDistance() float64       { return d.decelStartDistance }
func (d *fakeDDA) ClocksNeeded() float64             { return d.clocksNeeded }
func (d *fakeDDA) UsePressureAdvance() bool          { return d.usePA }
func (d *fakeDDA) ShapedSegments() *segment.MoveSegment   { return d.shaped }
func (d *fakeDDA) UnshapedSegments() *segment.MoveSegment { return d.unshaped }

// fakePlatform reports a fixed step density regardless of drive index.
type fakePlatform struct {
	stepsPerUnit float64
}

func (p *fakePlatform) DriveStepsPerUnit(drive int) float64 { return p.stepsPerUnit }

// fakeDeltaHandle reports fixed tower geometry regardless of drive index.
type fakeDeltaHandle struct {
	towerX, towerY, diagonalSquared float64
}

func (h *fakeDeltaHandle) GetTowerX(drive int) float64          { return h.towerX }
func (h *fakeDeltaHandle) GetTowerY(drive int) float64          { return h.towerY }
func (h *fakeDeltaHandle) GetDiagonalSquared(drive int) float64 { return h.diagonalSquared }

// fakeShaper is a pressure-advance shaper collaborator recording the
// last value it was told to carry over to the next move.
type fakeShaper struct {
	k                float64
	extrusionPending float64
}

func (s *fakeShaper) GetK() float64                    { return s.k }
func (s *fakeShaper) GetExtrusionPending() float64     { return s.extrusionPending }
func (s *fakeShaper) SetExtrusionPending(x float64)    { s.extrusionPending = x }

// fakeDebugSink collects DebugPrint's formatted lines for inspection.
type fakeDebugSink struct {
	lines []string
}

func (s *fakeDebugSink) Debugf(format string, args ...interface{}) {
	s.lines = append(s.lines, format)
}

func almostEqual(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

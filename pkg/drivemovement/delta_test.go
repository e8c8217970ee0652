// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package drivemovement

import (
	"testing"

	"github.com/gomotion/drivemovement/pkg/segment"
)

// TestPrepareDeltaAxisPureZ exercises the A2PlusB2<=0 branch: a move with
// no XY component, where the tower height simply tracks Z distance.
func TestPrepareDeltaAxisPureZ(t *testing.T) {
	const stepsPerMm = 80.0
	const length = 5.0
	const velocity = 1.0

	seg := segment.NewLinear(length, length/velocity, velocity, nil)
	dda := &fakeDDA{
		dirVec:        []float64{0, 0, 1},
		totalDistance: length,
		clocksNeeded:  length / velocity,
		unshaped:      seg,
	}
	platform := &fakePlatform{stepsPerUnit: stepsPerMm}
	deltaHandle := &fakeDeltaHandle{towerX: 0, towerY: 0, diagonalSquared: 22500}
	params := PrepParams{InitialX: 0, InitialY: 0, A2PlusB2: 0, DeltaParams: deltaHandle}

	dm := &DriveMovement{drive: ZAxis}
	if !dm.PrepareDeltaAxis(dda, params, platform) {
		t.Fatalf("expected the tower to contribute steps")
	}
	if !dm.Direction() {
		t.Fatalf("expected upward motion for a positive Z move")
	}

	wantSteps := uint32(length * stepsPerMm)
	if dm.TotalSteps() != wantSteps {
		t.Fatalf("totalSteps=%d, want %d", dm.TotalSteps(), wantSteps)
	}

	count := 1
	prev := dm.NextStepTime()
	for dm.CalcNextStepTime(dda) {
		count++
		if dm.NextStepTime() < prev {
			t.Fatalf("non-monotonic step time at step %d", count)
		}
		prev = dm.NextStepTime()
	}
	if uint32(count) != dm.TotalSteps() {
		t.Fatalf("emitted %d steps, want %d", count, dm.TotalSteps())
	}
	if dm.State() == StateStepError {
		t.Fatalf("unexpected step error")
	}
	if dm.DirectionChanged() {
		t.Fatalf("a pure upward move should never reverse")
	}
}

// TestPrepareDeltaAxisReversal builds a horizontal move that passes
// under a tower positioned off to one side, so the tower-carriage
// distance first shortens then lengthens: a genuine apex reversal.
func TestPrepareDeltaAxisReversal(t *testing.T) {
	const stepsPerMm = 10.0
	const length = 150.0
	const velocity = 1.0

	seg := segment.NewLinear(length, length/velocity, velocity, nil)
	dda := &fakeDDA{
		dirVec:        []float64{1, 0, 0},
		totalDistance: length,
		clocksNeeded:  length / velocity,
		unshaped:      seg,
	}
	platform := &fakePlatform{stepsPerUnit: stepsPerMm}
	deltaHandle := &fakeDeltaHandle{towerX: 100, towerY: 0, diagonalSquared: 22500}
	params := PrepParams{InitialX: 0, InitialY: 0, A2PlusB2: 1, DeltaParams: deltaHandle}

	dm := &DriveMovement{drive: XAxis}
	if !dm.PrepareDeltaAxis(dda, params, platform) {
		t.Fatalf("expected the tower to contribute steps")
	}
	if dm.reverseStartStep > dm.totalSteps {
		t.Fatalf("expected a reversal within the move: reverseStartStep=%d totalSteps=%d", dm.reverseStartStep, dm.totalSteps)
	}

	count := 1
	prev := dm.NextStepTime()
	sawReversal := false
	for dm.CalcNextStepTime(dda) {
		count++
		if dm.State() == StateStepError {
			t.Fatalf("unexpected step error at step %d", count)
		}
		if dm.NextStepTime() < prev {
			t.Fatalf("non-monotonic step time at step %d", count)
		}
		prev = dm.NextStepTime()
		if dm.DirectionChanged() {
			sawReversal = true
		}
	}

	if !sawReversal {
		t.Fatalf("expected the tower to reverse direction partway through the move")
	}
	if uint32(count) != dm.TotalSteps() {
		t.Fatalf("emitted %d steps, want %d", count, dm.TotalSteps())
	}
}

// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package moveplan

import (
	"testing"

	"github.com/gomotion/drivemovement/pkg/drivemovement"
)

type fakePlatform struct{ stepsPerUnit float64 }

func (p *fakePlatform) DriveStepsPerUnit(drive int) float64 { return p.stepsPerUnit }

func TestLoadTrapezoidFixtureDrivesCartesianAxisToCompletion(t *testing.T) {
	plan, err := Load("testdata/trapezoid.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if plan.Name != "trapezoid-x" {
		t.Fatalf("Name=%q, want trapezoid-x", plan.Name)
	}
	if len(plan.Segments) != 3 {
		t.Fatalf("got %d segments, want 3", len(plan.Segments))
	}

	dda, params := plan.Build()
	platform := &fakePlatform{stepsPerUnit: 400}

	dmv := drivemovement.NewAllocator()
	dmv.InitialAllocate(1)
	rec := dmv.Allocate(0, drivemovement.StateIdle)

	if !rec.PrepareCartesianAxis(dda, params, platform) {
		t.Fatalf("expected the trapezoid fixture to produce steps")
	}

	count := 1
	prev := rec.NextStepTime()
	for rec.CalcNextStepTime(dda) {
		count++
		if rec.NextStepTime() < prev {
			t.Fatalf("non-monotonic step time at step %d", count)
		}
		prev = rec.NextStepTime()
	}
	if uint32(count) != rec.TotalSteps() {
		t.Fatalf("emitted %d steps, want totalSteps=%d", count, rec.TotalSteps())
	}
	if rec.State() == drivemovement.StateStepError {
		t.Fatalf("unexpected step error driving the fixture to completion")
	}
	if prev > dda.ClocksNeeded()+1e-6 {
		t.Fatalf("final step time %g exceeds clocksNeeded %g", prev, dda.ClocksNeeded())
	}
}

func TestLoadPureZDeltaFixtureDrivesDeltaAxisToCompletion(t *testing.T) {
	plan, err := Load("testdata/pure-z-delta.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if plan.Prep.Delta == nil {
		t.Fatalf("expected the fixture to carry delta tower geometry")
	}

	dda, params := plan.Build()
	platform := &fakePlatform{stepsPerUnit: 80}

	dmv := drivemovement.NewAllocator()
	dmv.InitialAllocate(1)
	rec := dmv.Allocate(2, drivemovement.StateIdle)

	if !rec.PrepareDeltaAxis(dda, params, platform) {
		t.Fatalf("expected the tower to contribute steps")
	}
	if !rec.Direction() {
		t.Fatalf("expected upward motion for a positive Z move")
	}

	count := 1
	for rec.CalcNextStepTime(dda) {
		count++
	}
	if uint32(count) != rec.TotalSteps() {
		t.Fatalf("emitted %d steps, want %d", count, rec.TotalSteps())
	}
	if rec.State() == drivemovement.StateStepError {
		t.Fatalf("unexpected step error")
	}
}

func TestLoadRejectsUnknownSegmentKind(t *testing.T) {
	p := &Plan{
		DirectionVector: []float64{1, 0, 0},
		Segments:        []SegmentSpec{{Kind: "bogus"}},
	}
	if err := p.validate(); err == nil {
		t.Fatalf("expected validation error for an unknown segment kind")
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load("testdata/does-not-exist.yaml"); err == nil {
		t.Fatalf("expected an error loading a nonexistent fixture")
	}
}

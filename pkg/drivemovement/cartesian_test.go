// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package drivemovement

import (
	"testing"

	"github.com/gomotion/drivemovement/pkg/segment"
)

func TestPrepareCartesianAxisConstantVelocity(t *testing.T) {
	const velocity = 10.0 // mm/clock
	const length = 5.0    // mm
	const stepsPerMm = 100.0

	duration := length / velocity
	seg := segment.NewLinear(length, duration, velocity, nil)

	dda := &fakeDDA{
		dirVec:       []float64{1, 0, 0},
		totalDistance: length,
		clocksNeeded: duration,
		unshaped:     seg,
	}
	platform := &fakePlatform{stepsPerUnit: stepsPerMm}

	dm := &DriveMovement{drive: XAxis, state: StateIdle}
	if !dm.PrepareCartesianAxis(dda, PrepParams{}, platform) {
		t.Fatalf("expected axis to contribute steps")
	}

	times := []float64{dm.NextStepTime()}
	for dm.CalcNextStepTime(dda) {
		times = append(times, dm.NextStepTime())
	}

	if uint32(len(times)) != dm.TotalSteps() {
		t.Fatalf("emitted %d step times, want totalSteps=%d", len(times), dm.TotalSteps())
	}
	if !dm.Done() {
		t.Fatalf("expected Done() after emitting all steps")
	}
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			t.Fatalf("step times not monotonic: t[%d]=%g < t[%d]=%g", i, times[i], i-1, times[i-1])
		}
	}
	if last := times[len(times)-1]; last > dda.ClocksNeeded()+1e-9 {
		t.Fatalf("last step time %g exceeds clocksNeeded %g", last, dda.ClocksNeeded())
	}

	expectedInterval := 1.0 / (velocity * stepsPerMm)
	for i := 1; i < len(times); i++ {
		got := times[i] - times[i-1]
		if !almostEqual(got, expectedInterval, expectedInterval*0.05+1e-9) {
			t.Fatalf("step %d interval %g, want ~%g", i, got, expectedInterval)
		}
	}
}

func TestPrepareCartesianAxisTrapezoid(t *testing.T) {
	const stepsPerMm = 400.0
	const accel = 20.0    // mm/clock^2
	const topSpeed = 4.0  // mm/clock
	const cruiseLen = 3.0 // mm

	accelClocks := topSpeed / accel
	accelLen := 0.5 * accel * accelClocks * accelClocks
	decelClocks := topSpeed / accel
	decelLen := accelLen

	decelSeg := segment.NewAccelDecel(decelLen, decelClocks, topSpeed, accel, false, nil)
	cruiseSeg := segment.NewLinear(cruiseLen, cruiseLen/topSpeed, topSpeed, decelSeg)
	accelSeg := segment.NewAccelDecel(accelLen, accelClocks, 0, accel, true, cruiseSeg)

	totalDistance := accelLen + cruiseLen + decelLen
	clocksNeeded := accelClocks + cruiseLen/topSpeed + decelClocks

	dda := &fakeDDA{
		dirVec:        []float64{1, 0, 0},
		totalDistance: totalDistance,
		accel:         accel,
		decel:         accel,
		topSpeed:      topSpeed,
		accelClocks:   accelClocks,
		decelClocks:   decelClocks,
		clocksNeeded:  clocksNeeded,
		unshaped:      accelSeg,
	}
	platform := &fakePlatform{stepsPerUnit: stepsPerMm}

	dm := &DriveMovement{drive: XAxis}
	if !dm.PrepareCartesianAxis(dda, PrepParams{}, platform) {
		t.Fatalf("expected axis to contribute steps")
	}

	prevTime := dm.NextStepTime()
	seenAccel, seenDecel := dm.State() == StateCartAccel, false
	count := 1
	for dm.CalcNextStepTime(dda) {
		count++
		if dm.NextStepTime() < prevTime {
			t.Fatalf("non-monotonic step time at step %d", count)
		}
		prevTime = dm.NextStepTime()
		switch dm.State() {
		case StateCartAccel:
			seenAccel = true
		case StateCartDecelNoReverse:
			seenDecel = true
		}
	}

	if !seenAccel || !seenDecel {
		t.Fatalf("expected to pass through both accel and decel states, got accel=%v decel=%v", seenAccel, seenDecel)
	}
	if uint32(count) != dm.TotalSteps() {
		t.Fatalf("emitted %d steps, want %d", count, dm.TotalSteps())
	}
	if prevTime > clocksNeeded+1e-6 {
		t.Fatalf("final step time %g exceeds clocksNeeded %g", prevTime, clocksNeeded)
	}
}

// TestPrepareCartesianAxisFractionalStepCountCompletes exercises a move
// whose TotalDistance*effectiveStepsPerMm has a fractional part >= 0.5:
// rounding totalSteps up here used to make it equal the final segment's
// phaseStepLimit, so the wrapper's last CalcNextStepTime call found no
// further segment and failed the move instead of completing it.
func TestPrepareCartesianAxisFractionalStepCountCompletes(t *testing.T) {
	const velocity = 1.0 // mm/clock
	const stepsPerMm = 10.0
	const length = 5.07 // 50.7 steps: fractional part >= 0.5

	seg := segment.NewLinear(length, length/velocity, velocity, nil)
	dda := &fakeDDA{
		dirVec:        []float64{1, 0, 0},
		totalDistance: length,
		clocksNeeded:  length / velocity,
		unshaped:      seg,
	}
	platform := &fakePlatform{stepsPerUnit: stepsPerMm}

	dm := &DriveMovement{drive: XAxis}
	if !dm.PrepareCartesianAxis(dda, PrepParams{}, platform) {
		t.Fatalf("expected axis to contribute steps")
	}
	if want := uint32(50); dm.TotalSteps() != want {
		t.Fatalf("TotalSteps()=%d, want %d (truncated, not rounded)", dm.TotalSteps(), want)
	}

	count := 1
	for dm.CalcNextStepTime(dda) {
		count++
	}
	if dm.State() == StateStepError {
		t.Fatalf("move ended in StateStepError instead of completing")
	}
	if uint32(count) != dm.TotalSteps() {
		t.Fatalf("emitted %d steps, want totalSteps=%d", count, dm.TotalSteps())
	}
	if !dm.Done() {
		t.Fatalf("expected Done() after emitting all steps")
	}
}

func TestPrepareCartesianAxisZeroStepsPerUnit(t *testing.T) {
	seg := segment.NewLinear(1, 1, 1, nil)
	dda := &fakeDDA{dirVec: []float64{1, 0, 0}, totalDistance: 1, unshaped: seg}
	platform := &fakePlatform{stepsPerUnit: 0}

	dm := &DriveMovement{drive: XAxis}
	if dm.PrepareCartesianAxis(dda, PrepParams{}, platform) {
		t.Fatalf("expected false when the drive has no step density")
	}
}

func TestPrepareCartesianAxisNoDistance(t *testing.T) {
	seg := segment.NewLinear(0, 0, 1, nil)
	dda := &fakeDDA{dirVec: []float64{1, 0, 0}, totalDistance: 0, unshaped: seg}
	platform := &fakePlatform{stepsPerUnit: 100}

	dm := &DriveMovement{drive: XAxis}
	if dm.PrepareCartesianAxis(dda, PrepParams{}, platform) {
		t.Fatalf("expected false for a move with no distance on this axis")
	}
}

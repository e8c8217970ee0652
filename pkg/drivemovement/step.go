// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package drivemovement

import (
	"math"

	"github.com/gomotion/drivemovement/pkg/errors"
)

// CalcNextStepTime is the realtime hot path: called once the previously
// scheduled step time has been consumed, it advances nextStep and
// returns whether a further step is due, having set NextStepTime() to
// that step's due time. It must never allocate.
//
// Most calls are served from a small batch of pre-computed step
// intervals (stepsTillRecalc) without touching the segment formulas at
// all; CalcNextStepTimeFull is invoked only when that batch runs out.
func (dm *DriveMovement) CalcNextStepTime(dda DDA) bool {
	if dm.state == StateStepError {
		return false
	}
	if dm.nextStep >= dm.totalSteps {
		return false
	}

	dm.nextStep++
	if dm.stepsTillRecalc > 0 {
		dm.stepsTillRecalc--
		dm.nextStepTime += dm.stepInterval
		return true
	}
	return dm.CalcNextStepTimeFull(dda)
}

// CalcNextStepTimeFull evaluates the current segment's step-to-time
// formula from scratch. Precondition: nextStep <= totalSteps and
// stepsTillRecalc == 0 (both guaranteed by CalcNextStepTime).
func (dm *DriveMovement) CalcNextStepTimeFull(dda DDA) bool {
	stepsToLimit := dm.phaseStepLimit - dm.nextStep

	if stepsToLimit == 0 {
		dm.currentSegment = dm.currentSegment.GetNext()
		var more bool
		switch {
		case dm.isDelta:
			more = dm.newDeltaSegment(dda)
		case dm.isExtruder:
			more = dm.newExtruderSegment()
		default:
			more = dm.newCartesianSegment()
		}
		if !more {
			dm.state = StateStepError
			dm.nextStep += uint32(errOffsetSegmentExhausted)
			dm.lastError = errors.SegmentExhaustedError(dm.drive, dm.nextStep, dm.totalSteps)
			return false
		}
		stepsToLimit = dm.phaseStepLimit - dm.nextStep
	}

	if dm.reverseStartStep-dm.nextStep < stepsToLimit {
		stepsToLimit = dm.reverseStartStep - dm.nextStep
	}

	shiftFactor := uint32(0) // assume single stepping
	if stepsToLimit > 1 && dm.stepInterval < MinCalcInterval {
		switch {
		case dm.stepInterval < MinCalcInterval/4 && stepsToLimit > 8:
			shiftFactor = 3 // octal stepping
		case dm.stepInterval < MinCalcInterval/2 && stepsToLimit > 4:
			shiftFactor = 2 // quad stepping
		case stepsToLimit > 2:
			shiftFactor = 1 // double stepping
		}
	}
	dm.stepsTillRecalc = (uint32(1) << shiftFactor) - 1

	var nextCalcStepTime float64
	n := float64(dm.nextStep + dm.stepsTillRecalc)

	switch dm.state {
	case StateCartLinear:
		nextCalcStepTime = dm.pB + n*dm.pC

	case StateCartAccel:
		nextCalcStepTime = dm.pB + math.Sqrt(dm.pA+dm.pC*n)

	case StateCartDecelForwardsReversing:
		if dm.nextStep <= dm.reverseStartStep {
			nextCalcStepTime = dm.pB - math.Sqrt(dm.pA+dm.pC*n)
			break
		}
		dm.direction = false
		dm.directionChanged = true
		dm.state = StateCartDecelReverse
		fallthrough

	case StateCartDecelReverse:
		nextCalcStepTime = dm.pB + math.Sqrt(dm.pA+dm.pC*float64(2*dm.reverseStartStep-dm.nextStep)+dm.pC*float64(dm.stepsTillRecalc))

	case StateCartDecelNoReverse:
		nextCalcStepTime = dm.pB - math.Sqrt(dm.pA+dm.pC*n)

	case StateDeltaForwardsReversing, StateDeltaForwardsNoReverse, StateDeltaReverse:
		if dm.state == StateDeltaForwardsReversing && dm.nextStep == dm.reverseStartStep {
			dm.direction = false
			dm.directionChanged = true
			dm.state = StateDeltaReverse
		}

		steps := float64(uint32(1) << shiftFactor)
		if dm.direction {
			dm.delta.fHmz0s += steps
		} else {
			dm.delta.fHmz0s -= steps
		}

		dirVec := dda.DirectionVector()
		hmz0sc := dm.delta.fHmz0s * dirVec[ZAxis]
		t1 := dm.delta.fMinusAaPlusBbTimesS + hmz0sc
		t2a := dm.delta.fDSquaredMinusAsquaredMinusBsquaredTimesSsquared - dm.delta.fHmz0s*dm.delta.fHmz0s + t1*t1
		// Rounding error near the apex or the tower baseline can drive
		// this negative; clamp before the square root.
		t2 := 0.0
		if t2a > 0.0 {
			t2 = math.Sqrt(t2a)
		}
		var ds float64
		if dm.direction {
			ds = t1 - t2
		} else {
			ds = t1 + t2
		}
		if ds < 0.0 {
			dm.state = StateStepError
			dm.nextStep += uint32(errOffsetDeltaArithmetic)
			dm.lastError = errors.DeltaArithmeticError(dm.drive, dm.nextStep)
			return false
		}

		pCds := dm.pC * ds
		switch {
		case dm.currentSegment.IsLinear():
			nextCalcStepTime = dm.pB + pCds
		case dm.currentSegment.IsAccelerating():
			nextCalcStepTime = dm.pB + math.Sqrt(dm.pA+pCds)
		default:
			nextCalcStepTime = dm.pB - math.Sqrt(dm.pA+pCds)
		}

	default:
		return false
	}

	if nextCalcStepTime > dm.nextStepTime {
		dm.stepInterval = (nextCalcStepTime - dm.nextStepTime) / float64(uint32(1)<<shiftFactor)
	} else {
		dm.stepInterval = 0
	}
	// Distribute the batch's steps evenly rather than letting every
	// sub-step in this recalculation land on the same clock tick.
	dm.nextStepTime = nextCalcStepTime - float64(dm.stepsTillRecalc)*dm.stepInterval

	if nextCalcStepTime > dda.ClocksNeeded() {
		// The calculation makes this step late. When the end speed is
		// very low, the last step's time is very sensitive to rounding
		// error, so if this is the last step, bring it forward to the
		// move's expected finish time instead of failing the move.
		if dm.nextStep+1 >= dm.totalSteps {
			dm.nextStepTime = dda.ClocksNeeded()
		} else {
			dm.state = StateStepError
			dm.nextStep += uint32(errOffsetLateStep)
			dm.lastError = errors.LateStepError(dm.drive, dm.nextStep, nextCalcStepTime, dda.ClocksNeeded())
			return false
		}
	}

	return true
}

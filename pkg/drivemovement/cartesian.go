// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package drivemovement

import "math"

// newCartesianSegment is called whenever currentSegment has just been
// advanced. It walks forward until either the list is exhausted or it
// finds a segment whose phaseStepLimit strictly exceeds nextStep,
// deriving that segment's step-to-time coefficients along the way.
func (dm *DriveMovement) newCartesianSegment() bool {
	for {
		if dm.currentSegment == nil {
			return false
		}

		dm.pC = dm.currentSegment.CalcC(dm.cart.effectiveMmPerStep)
		if dm.currentSegment.IsLinear() {
			dm.pB = dm.currentSegment.CalcLinearB(dm.distanceSoFar, dm.timeSoFar)
			dm.state = StateCartLinear
		} else {
			dm.pA = dm.currentSegment.CalcNonlinearA(dm.distanceSoFar)
			dm.pB = dm.currentSegment.CalcNonlinearB(dm.timeSoFar)
			if dm.currentSegment.IsAccelerating() {
				dm.state = StateCartAccel
			} else {
				dm.state = StateCartDecelNoReverse
			}
		}

		dm.distanceSoFar += dm.currentSegment.GetSegmentLength()
		dm.timeSoFar += dm.currentSegment.GetSegmentTime()

		dm.phaseStepLimit = uint32(math.Floor(dm.distanceSoFar*dm.cart.effectiveStepsPerMm)) + 1
		if dm.nextStep < dm.phaseStepLimit {
			return true
		}

		dm.currentSegment = dm.currentSegment.GetNext() // this segment contributes no steps on this axis
	}
}

// PrepareCartesianAxis prepares dm for a Cartesian axis move, returning
// true if this axis contributes any steps to the move.
func (dm *DriveMovement) PrepareCartesianAxis(dda DDA, params PrepParams, platform Platform) bool {
	dirVec := dda.DirectionVector()

	dm.distanceSoFar = 0
	dm.timeSoFar = 0
	dm.cart.pressureAdvanceK = 0
	dm.cart.effectiveStepsPerMm = platform.DriveStepsPerUnit(dm.drive) * math.Abs(dirVec[dm.drive])
	if dm.cart.effectiveStepsPerMm <= 0 {
		return false
	}
	dm.cart.effectiveMmPerStep = 1.0 / dm.cart.effectiveStepsPerMm
	dm.isDelta = false
	dm.isExtruder = false

	// Truncate rather than round: phaseStepLimit on the final segment is
	// floor(distanceSoFar*effectiveStepsPerMm)+1, so totalSteps must
	// equal that limit minus one or the wrapper's final CalcNextStepTime
	// call finds no next segment and fails the move.
	dm.totalSteps = uint32(math.Floor(dda.TotalDistance() * dm.cart.effectiveStepsPerMm))
	if dm.totalSteps == 0 {
		return false
	}

	dm.currentSegment = shapedOrUnshaped(dda)
	dm.nextStep = 0 // must precede newCartesianSegment

	if !dm.newCartesianSegment() {
		return false
	}

	dm.nextStepTime = 0
	dm.stepInterval = 999999 // large, so we compute just one step first time round
	dm.stepsTillRecalc = 0
	dm.reverseStartStep = dm.totalSteps + 1 // no reverse phase

	return dm.CalcNextStepTime(dda)
}

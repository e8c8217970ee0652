// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package drivemovement

import (
	"math"

	"github.com/gomotion/drivemovement/pkg/segment"
)

// newExtruderSegment is Cartesian-shaped, but folds pressure advance's
// extra extrusion distance into the accelerating segment's limit, and
// pessimistically assumes the sole deceleration segment may reverse.
func (dm *DriveMovement) newExtruderSegment() bool {
	for {
		if dm.currentSegment == nil {
			return false
		}

		startDistance := dm.distanceSoFar
		startTime := dm.timeSoFar

		dm.distanceSoFar += dm.currentSegment.GetSegmentLength()
		dm.timeSoFar += dm.currentSegment.GetSegmentTime()

		dm.pC = dm.currentSegment.CalcC(dm.cart.effectiveMmPerStep)
		if dm.currentSegment.IsLinear() {
			dm.pB = dm.currentSegment.CalcLinearB(startDistance, startTime)
			dm.phaseStepLimit = uint32(math.Floor(dm.distanceSoFar*dm.cart.effectiveStepsPerMm)) + 1
			dm.state = StateCartLinear
		} else {
			dm.pA = dm.currentSegment.CalcNonlinearA(startDistance)
			dm.pB = dm.currentSegment.CalcNonlinearB(startTime, dm.cart.pressureAdvanceK)

			if dm.currentSegment.IsAccelerating() {
				// Extruders have a single acceleration segment; add the
				// extra extrusion distance pressure advance demands.
				dm.distanceSoFar += dm.cart.extraExtrusionDistance
				dm.phaseStepLimit = uint32(math.Floor(dm.distanceSoFar*dm.cart.effectiveStepsPerMm)) + 1
				dm.state = StateCartAccel
			} else {
				// There is only one decelerating segment for extruders,
				// and if pressure advance applies it may reverse partway
				// through it.
				dm.phaseStepLimit = dm.totalSteps + 1
				dm.state = StateCartDecelForwardsReversing
			}
		}

		if dm.nextStep < dm.phaseStepLimit {
			return true
		}

		dm.currentSegment = dm.currentSegment.GetNext()
	}
}

// PrepareExtruder prepares dm for an extruder move, returning true if
// there are steps to do. It assumes the caller has already established
// there is extrusion to perform on this move.
func (dm *DriveMovement) PrepareExtruder(dda DDA, params PrepParams, platform Platform, shaper ExtruderShaper) bool {
	dirVec := dda.DirectionVector()
	driveDir := dirVec[dm.drive]

	dm.direction = true // extruder moves start forwards; only pressure-advance reversal flips this
	dm.distanceSoFar = shaper.GetExtrusionPending() / driveDir

	stepsPerMm := platform.DriveStepsPerUnit(dm.drive)
	dm.cart.effectiveStepsPerMm = stepsPerMm * math.Abs(driveDir)
	dm.cart.effectiveMmPerStep = 1.0 / dm.cart.effectiveStepsPerMm

	forwardDistance := dm.distanceSoFar
	var reverseDistance float64

	if dda.UsePressureAdvance() && shaper.GetK() > 0.0 {
		dm.cart.pressureAdvanceK = shaper.GetK()
		dm.cart.extraExtrusionDistance = dm.cart.pressureAdvanceK * dda.Acceleration() * params.AccelClocks
		forwardDistance += dm.cart.extraExtrusionDistance

		decelSeg := segment.GetFirstDecelSegment(dda.UnshapedSegments())
		switch {
		case decelSeg == nil:
			forwardDistance += dda.TotalDistance()
			reverseDistance = 0.0

		default:
			initialDecelSpeed := dda.TopSpeed() - dm.cart.pressureAdvanceK*dda.Deceleration()
			if initialDecelSpeed <= 0.0 {
				// The entire deceleration segment runs in reverse.
				forwardDistance += params.DecelStartDistance
				reverseDistance = (0.5*dda.Deceleration()*params.DecelClocks - initialDecelSpeed) * params.DecelClocks
			} else {
				// 'C' on a decel segment is -2/deceleration, so -0.5*C is 1/deceleration.
				timeToReverse := initialDecelSpeed * (-0.5 * decelSeg.GetC())
				if timeToReverse < params.DecelClocks {
					distanceToReverse := 0.5 * dda.Deceleration() * timeToReverse * timeToReverse
					forwardDistance += params.DecelStartDistance + distanceToReverse
					remaining := params.DecelClocks - timeToReverse
					reverseDistance = 0.5 * dda.Deceleration() * remaining * remaining
				} else {
					forwardDistance += dda.TotalDistance() - dm.cart.pressureAdvanceK*dda.Deceleration()*params.DecelClocks
					reverseDistance = 0.0
				}
			}
		}
	} else {
		dm.cart.pressureAdvanceK = 0.0
		dm.cart.extraExtrusionDistance = 0.0
		forwardDistance += dda.TotalDistance()
		reverseDistance = 0.0
	}

	forwardSteps := forwardDistance * dm.cart.effectiveStepsPerMm
	if reverseDistance > 0.0 {
		netDistance := forwardDistance - reverseDistance
		netSteps := int64(netDistance * dm.cart.effectiveStepsPerMm)
		if netSteps == 0 && forwardSteps <= 1.0 {
			shaper.SetExtrusionPending(netDistance * driveDir)
			return false
		}

		dm.reverseStartStep = uint32(forwardSteps) + 1
		// Subtract forwardSteps as a float before truncating, matching
		// the source: truncating it first would double-round and add an
		// extra reverse step whenever forwardSteps is non-integral.
		dm.totalSteps = uint32(2*float64(dm.reverseStartStep) - forwardSteps)
		shaper.SetExtrusionPending((netDistance - float64(netSteps)*dm.cart.effectiveMmPerStep) * driveDir)
	} else {
		switch {
		case forwardSteps >= 1.0:
			dm.totalSteps = uint32(forwardSteps)
			shaper.SetExtrusionPending((forwardDistance - float64(dm.totalSteps)*dm.cart.effectiveMmPerStep) * driveDir)
		case forwardSteps <= -1.0:
			dm.totalSteps = uint32(-forwardSteps)
			shaper.SetExtrusionPending((forwardDistance + float64(dm.totalSteps)*dm.cart.effectiveMmPerStep) * driveDir)
		default:
			shaper.SetExtrusionPending(forwardDistance * driveDir)
			return false
		}
		dm.reverseStartStep = dm.totalSteps + 1 // no reverse phase
	}

	dm.currentSegment = dda.UnshapedSegments()
	dm.timeSoFar = 0
	dm.isDelta = false
	dm.isExtruder = true

	dm.nextStep = 0 // must precede newExtruderSegment
	if !dm.newExtruderSegment() {
		return false // should not happen: we already established there are steps to do
	}

	dm.nextStepTime = 0
	dm.stepInterval = 999999
	dm.stepsTillRecalc = 0

	return dm.CalcNextStepTime(dda)
}

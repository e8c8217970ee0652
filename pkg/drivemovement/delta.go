// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package drivemovement

import "math"

// newDeltaSegment is called whenever currentSegment has just been
// advanced, for a delta-kinematics axis. In addition to the coefficient
// work NewCartesianSegment does, it must decide whether this segment
// lies entirely before the tower's apex, entirely after it, or straddles
// it, and pick the phaseStepLimit and state accordingly.
func (dm *DriveMovement) newDeltaSegment(dda DDA) bool {
	dirVec := dda.DirectionVector()
	stepsPerMm := dm.stepsPerMm

	for {
		if dm.currentSegment == nil {
			return false
		}

		dm.pC = dm.currentSegment.GetC() / stepsPerMm
		if dm.currentSegment.IsLinear() {
			dm.pB = dm.currentSegment.CalcLinearB(dm.distanceSoFar, dm.timeSoFar)
		} else {
			dm.pA = dm.currentSegment.CalcNonlinearA(dm.distanceSoFar)
			dm.pB = dm.currentSegment.CalcNonlinearB(dm.timeSoFar)
		}

		startDistance := dm.distanceSoFar
		dm.distanceSoFar += dm.currentSegment.GetSegmentLength()
		dm.timeSoFar += dm.currentSegment.GetSegmentTime()

		sDx := dm.distanceSoFar * dirVec[XAxis]
		sDy := dm.distanceSoFar * dirVec[YAxis]
		radicand := dm.delta.fDSquaredMinusAsquaredMinusBsquaredTimesSsquared -
			stepsPerMm*stepsPerMm*(sDx*(sDx+dm.delta.fTwoA)+sDy*(sDy+dm.delta.fTwoB))
		if radicand < 0 {
			radicand = 0
		}
		netStepsAtEnd := int64(math.Sqrt(radicand) + (dm.distanceSoFar*dirVec[ZAxis]-dm.delta.h0MinusZ0)*stepsPerMm)

		hasNext := dm.currentSegment.GetNext() != nil

		switch {
		case dm.delta.reverseStartDistance <= startDistance:
			// Purely downward motion for the rest of the move; want the
			// greater quadratic root. There may have been upward motion
			// earlier in the move.
			if dm.direction {
				dm.direction = false
				dm.directionChanged = true
			}
			dm.state = StateDeltaReverse
			switch {
			case !hasNext:
				dm.phaseStepLimit = dm.totalSteps + 1
			case dm.reverseStartStep <= dm.totalSteps:
				dm.phaseStepLimit = uint32(int64(2*dm.reverseStartStep) - netStepsAtEnd)
			default:
				dm.phaseStepLimit = uint32(1 - netStepsAtEnd)
			}

		case dm.distanceSoFar <= dm.delta.reverseStartDistance:
			// Purely upward motion of the tower; want the lower
			// quadratic root.
			dm.state = StateDeltaForwardsNoReverse
			if !hasNext {
				dm.phaseStepLimit = dm.totalSteps + 1
			} else {
				dm.phaseStepLimit = uint32(netStepsAtEnd + 1)
			}

		default:
			// The apex lies inside this segment; use the lower root
			// initially, until the step generator crosses reverseStartStep.
			if !hasNext {
				dm.phaseStepLimit = dm.totalSteps + 1
			} else {
				dm.phaseStepLimit = uint32(int64(2*dm.reverseStartStep) - netStepsAtEnd)
			}
			dm.state = StateDeltaForwardsReversing
		}

		if dm.phaseStepLimit > dm.nextStep {
			return true
		}

		dm.currentSegment = dm.currentSegment.GetNext()
	}
}

// towerHeight returns this drive's tower-carriage height above the Z
// datum, in mm, at path-distance d from the move's start, using the
// same geometric relation newDeltaSegment evaluates per segment.
func towerHeight(d, dirX, dirY, dirZ, dSquaredMinusAsquaredMinusBsquared, twoA, twoB float64) float64 {
	dDx := d * dirX
	dDy := d * dirY
	radicand := dSquaredMinusAsquaredMinusBsquared - (dDx*(dDx+twoA) + dDy*(dDy+twoB))
	if radicand < 0 {
		radicand = 0
	}
	return math.Sqrt(radicand) + d*dirZ
}

// PrepareDeltaAxis prepares dm for a delta-kinematics axis move,
// returning true if this axis contributes any steps to the move.
func (dm *DriveMovement) PrepareDeltaAxis(dda DDA, params PrepParams, platform Platform) bool {
	stepsPerMm := platform.DriveStepsPerUnit(dm.drive)
	dm.stepsPerMm = stepsPerMm
	dirVec := dda.DirectionVector()

	a := params.InitialX - params.DeltaParams.GetTowerX(dm.drive)
	b := params.InitialY - params.DeltaParams.GetTowerY(dm.drive)
	aAplusbB := a*dirVec[XAxis] + b*dirVec[YAxis]
	diagSquared := params.DeltaParams.GetDiagonalSquared(dm.drive)
	dSquaredMinusAsquaredMinusBsquared := diagSquared - a*a - b*b

	dm.delta.h0MinusZ0 = math.Sqrt(math.Max(0, dSquaredMinusAsquaredMinusBsquared))
	dm.delta.fTwoA = 2.0 * a
	dm.delta.fTwoB = 2.0 * b
	dm.delta.fHmz0s = dm.delta.h0MinusZ0 * stepsPerMm
	dm.delta.fMinusAaPlusBbTimesS = -(aAplusbB * stepsPerMm)
	dm.delta.fDSquaredMinusAsquaredMinusBsquaredTimesSsquared = dSquaredMinusAsquaredMinusBsquared * stepsPerMm * stepsPerMm

	totalDistance := dda.TotalDistance()

	// Derive the net height change over the whole move, and from it the
	// initial direction and total step count for this tower. The
	// original leaves this to the DDA layer; deriving it here from the
	// same tower-height relation used per segment keeps preparation
	// self-contained.
	hEnd := towerHeight(totalDistance, dirVec[XAxis], dirVec[YAxis], dirVec[ZAxis], dSquaredMinusAsquaredMinusBsquared, dm.delta.fTwoA, dm.delta.fTwoB)
	netStepsFloat := (hEnd - dm.delta.h0MinusZ0) * stepsPerMm
	dm.direction = netStepsFloat >= 0
	dm.totalSteps = uint32(math.Round(math.Abs(netStepsFloat)))

	if params.A2PlusB2 <= 0.0 {
		// Pure Z movement; the main calculation below divides by A2PlusB2.
		dm.direction = dirVec[ZAxis] >= 0.0
		if dm.direction {
			dm.delta.reverseStartDistance = totalDistance + 1.0
		} else {
			dm.delta.reverseStartDistance = -1.0
		}
		dm.reverseStartStep = dm.totalSteps + 1
	} else {
		crossTerm := a*dirVec[YAxis] - b*dirVec[XAxis]
		drev := (dirVec[ZAxis]*math.Sqrt(math.Max(0, params.A2PlusB2*diagSquared-crossTerm*crossTerm)) - aAplusbB) / params.A2PlusB2
		dm.delta.reverseStartDistance = drev

		if drev > 0.0 && drev < totalDistance {
			hrev := dirVec[ZAxis]*drev + math.Sqrt(math.Max(0, dSquaredMinusAsquaredMinusBsquared-2*drev*aAplusbB-params.A2PlusB2*drev*drev))
			numStepsUp := int64(math.Floor((hrev - dm.delta.h0MinusZ0) * stepsPerMm))

			if numStepsUp < 1 {
				// Already at (or past) the peak; treat as no reversal.
				dm.delta.reverseStartDistance = -1.0
				dm.reverseStartStep = dm.totalSteps + 1
				dm.direction = false
			} else {
				dm.reverseStartStep = uint32(numStepsUp) + 1
				if dm.direction {
					// Net movement is up: go up further, then down by less.
					dm.totalSteps = uint32(2*numStepsUp) - dm.totalSteps
				} else {
					// Net movement is down: go up first, then down by more.
					dm.direction = true
					dm.totalSteps = uint32(2*numStepsUp) + dm.totalSteps
				}
			}
		} else {
			dm.reverseStartStep = dm.totalSteps + 1
			dm.direction = drev >= 0.0
		}
	}

	dm.distanceSoFar = 0
	dm.timeSoFar = 0
	dm.isDelta = true
	dm.isExtruder = false
	dm.currentSegment = shapedOrUnshaped(dda)

	dm.nextStep = 0 // must precede newDeltaSegment
	if !dm.newDeltaSegment(dda) {
		return false
	}

	dm.nextStepTime = 0
	dm.stepInterval = 999999
	dm.stepsTillRecalc = 0

	return dm.CalcNextStepTime(dda)
}

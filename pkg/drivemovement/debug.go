// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package drivemovement

// DebugPrint dumps this drive's current state to sink, in the same
// shape a field-by-field trace of the original firmware's state machine
// would take. It intentionally does not reproduce the original's
// diagnostic write of the last delta-arithmetic root into a persistent
// field: that write exists only to let a debugger inspect it after the
// fact and has no effect on step generation, so surfacing it here would
// just be dead state with no reader.
func (dm *DriveMovement) DebugPrint(sink DebugPrinter) {
	sink.Debugf("drive %d: state=%s dir=%v dirChanged=%v", dm.drive, dm.state, dm.direction, dm.directionChanged)
	sink.Debugf("  nextStep=%d totalSteps=%d reverseStartStep=%d phaseStepLimit=%d",
		dm.nextStep, dm.totalSteps, dm.reverseStartStep, dm.phaseStepLimit)
	sink.Debugf("  nextStepTime=%g stepInterval=%g stepsTillRecalc=%d",
		dm.nextStepTime, dm.stepInterval, dm.stepsTillRecalc)
	sink.Debugf("  pA=%g pB=%g pC=%g", dm.pA, dm.pB, dm.pC)
	sink.Debugf("  distanceSoFar=%g timeSoFar=%g", dm.distanceSoFar, dm.timeSoFar)

	if dm.isDelta {
		sink.Debugf("  delta: fHmz0s=%g reverseStartDistance=%g h0MinusZ0=%g",
			dm.delta.fHmz0s, dm.delta.reverseStartDistance, dm.delta.h0MinusZ0)
	}
	if dm.isExtruder {
		sink.Debugf("  extruder: pressureAdvanceK=%g extraExtrusionDistance=%g",
			dm.cart.pressureAdvanceK, dm.cart.extraExtrusionDistance)
	}
	if dm.lastError != nil {
		sink.Debugf("  lastError: %v", dm.lastError)
	}
}

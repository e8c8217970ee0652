// Package drivemovement implements the per-axis step-time generator of a
// multi-axis motion controller: the DriveMovement state machine that
// walks a planned move's velocity-profile segments and answers, on
// demand, "when is the next step due" for one motor.
//
// Three kinematic flavours are supported: Cartesian axes (time is a
// function of step count alone), delta axes (time is a function of a
// derived tower-carriage height computed from the Cartesian distance via
// a quadratic), and extruders (Cartesian-shaped, plus pressure advance
// and possible mid-move reversal).
//
// CalcNextStepTime is meant to run from a timer interrupt or a tight
// polling loop with a microsecond-scale budget: on its success path it
// never allocates or blocks. Object reuse is handled by Allocator (see
// allocator.go), the only other place outside move setup/teardown that
// touches shared state. Only the terminal failure path, entered once
// per move at most, builds a diagnostic error (see LastError below).
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package drivemovement

import (
	"github.com/gomotion/drivemovement/pkg/errors"
	"github.com/gomotion/drivemovement/pkg/segment"
)

// Axis indices used to index a DDA's direction vector.
const (
	XAxis = 0
	YAxis = 1
	ZAxis = 2
)

// MinCalcInterval is the platform's minimum step-calculation interval,
// in timer clocks. It gates the sub-stepping heuristic in
// CalcNextStepTimeFull (see step.go) and is meant to be tuned once per
// target platform at startup, never touched from the step-generator
// hot path.
var MinCalcInterval float64 = 500

// Sentinel offsets added to nextStep when a move aborts into
// StateStepError, so a post-mortem debug dump can tell which failure
// path was hit.
const (
	errOffsetSegmentExhausted = 1.0e8
	errOffsetDeltaArithmetic  = 1.1e8
	errOffsetLateStep         = 1.2e8
)

// State is the DriveMovement's current kinematic phase.
type State int

const (
	StateIdle State = iota
	StateStepError
	StateCartLinear
	StateCartAccel
	StateCartDecelNoReverse
	StateCartDecelForwardsReversing
	StateCartDecelReverse
	StateDeltaForwardsNoReverse
	StateDeltaForwardsReversing
	StateDeltaReverse
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStepError:
		return "stepError"
	case StateCartLinear:
		return "cartLinear"
	case StateCartAccel:
		return "cartAccel"
	case StateCartDecelNoReverse:
		return "cartDecelNoReverse"
	case StateCartDecelForwardsReversing:
		return "cartDecelForwardsReversing"
	case StateCartDecelReverse:
		return "cartDecelReverse"
	case StateDeltaForwardsNoReverse:
		return "deltaForwardsNoReverse"
	case StateDeltaForwardsReversing:
		return "deltaForwardsReversing"
	case StateDeltaReverse:
		return "deltaReverse"
	default:
		return "unknown"
	}
}

// cartState holds the Cartesian/extruder-flavoured per-move scalars.
type cartState struct {
	effectiveStepsPerMm   float64
	effectiveMmPerStep    float64
	pressureAdvanceK      float64
	extraExtrusionDistance float64
}

// deltaState holds the delta-flavoured per-move scalars, following the
// naming of the original firmware so the algorithm in step.go and
// delta.go reads the same as the source it is grounded on.
type deltaState struct {
	h0MinusZ0                                        float64
	fTwoA                                            float64
	fTwoB                                            float64
	fHmz0s                                            float64 // carriage height above Z, in step units; mutated per step
	fMinusAaPlusBbTimesS                             float64
	fDSquaredMinusAsquaredMinusBsquaredTimesSsquared float64
	reverseStartDistance                             float64
}

// DriveMovement is the per-axis, per-move state record described in
// spec §3. One is acquired per participating drive per move and is
// mutated only by the move's own step-generator context.
type DriveMovement struct {
	drive            int
	state            State
	direction        bool
	directionChanged bool

	totalSteps       uint32
	nextStep         uint32
	reverseStartStep uint32
	phaseStepLimit   uint32

	nextStepTime    float64
	stepInterval    float64
	stepsTillRecalc uint32

	pA, pB, pC float64

	currentSegment *segment.MoveSegment
	distanceSoFar  float64
	timeSoFar      float64

	cart  cartState
	delta deltaState

	// stepsPerMm caches the drive's raw step density for delta axes,
	// set once during PrepareDeltaAxis. The hot path (CalcNextStepTime)
	// re-derives per-segment delta coefficients without needing to
	// touch the Platform collaborator again.
	stepsPerMm float64

	isDelta    bool
	isExtruder bool

	// lastError records why CalcNextStepTimeFull gave up, set only on
	// entry into StateStepError. nil in every other state.
	lastError *errors.HostError

	nextDM *DriveMovement // intrusive free-list / active-list link
}

// Drive returns the axis index this record was allocated for.
func (dm *DriveMovement) Drive() int { return dm.drive }

// State returns the current kinematic phase.
func (dm *DriveMovement) State() State { return dm.state }

// Direction returns the current movement sign (true = forwards/up).
func (dm *DriveMovement) Direction() bool { return dm.direction }

// DirectionChanged reports whether direction flipped at some point
// during this move. Sticky until ClearDirectionChanged is called by the
// caller once the hardware direction pin has been updated.
func (dm *DriveMovement) DirectionChanged() bool { return dm.directionChanged }

// ClearDirectionChanged clears the sticky direction-change flag.
func (dm *DriveMovement) ClearDirectionChanged() { dm.directionChanged = false }

// TotalSteps returns the total number of step events this axis will
// emit across the whole move.
func (dm *DriveMovement) TotalSteps() uint32 { return dm.totalSteps }

// NextStep returns the 1-based index of the step about to fire (0
// before the first).
func (dm *DriveMovement) NextStep() uint32 { return dm.nextStep }

// NextStepTime returns the timer-clock time, measured from the start of
// the move, at which the next step is due. Valid only after a
// successful CalcNextStepTime.
func (dm *DriveMovement) NextStepTime() float64 { return dm.nextStepTime }

// Done reports whether this axis has emitted every step of the move.
func (dm *DriveMovement) Done() bool {
	return dm.state != StateStepError && dm.nextStep >= dm.totalSteps
}

// LastError returns the diagnostic HostError recorded when this drive
// entered StateStepError, or nil if it never did.
func (dm *DriveMovement) LastError() *errors.HostError { return dm.lastError }

// Package segment provides a read-only view over a planned move's
// velocity-profile segments.
//
// A MoveSegment describes a contiguous portion of a move with uniform
// dynamics — constant velocity, or constant acceleration/deceleration —
// and is immutable once the planner (out of scope here) has emitted it.
// The accessor methods on MoveSegment pre-absorb the distance and time
// already accumulated by earlier segments so that the resulting
// coefficients turn the step-time formula into a pure function of the
// step index alone:
//
//	linear:          t = B + C*n
//	accel / decel:   t = B + sqrt(A + C*n)
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package segment

// MoveSegment is one entry in a move's singly linked segment list.
type MoveSegment struct {
	length         float64 // mm covered by this segment
	durationClocks float64 // clocks this segment takes at its own pace
	linear         bool
	accelerating   bool    // only meaningful when !linear
	startVelocity  float64 // mm/clock at the start of the segment
	accel          float64 // mm/clock^2, magnitude; unused when linear
	next           *MoveSegment
}

// New builds a linear (constant velocity) segment.
func NewLinear(length, durationClocks, velocity float64, next *MoveSegment) *MoveSegment {
	return &MoveSegment{
		length:         length,
		durationClocks: durationClocks,
		linear:         true,
		startVelocity:  velocity,
		next:           next,
	}
}

// NewAccelDecel builds an accelerating or decelerating segment.
// startVelocity is the segment's velocity at its first instant; accel is
// the magnitude of the (constant) acceleration applied over the segment.
func NewAccelDecel(length, durationClocks, startVelocity, accel float64, accelerating bool, next *MoveSegment) *MoveSegment {
	return &MoveSegment{
		length:         length,
		durationClocks: durationClocks,
		linear:         false,
		accelerating:   accelerating,
		startVelocity:  startVelocity,
		accel:          accel,
		next:           next,
	}
}

// IsLinear reports whether velocity is constant across the segment.
func (s *MoveSegment) IsLinear() bool { return s.linear }

// IsAccelerating reports whether a non-linear segment has positive
// acceleration (false means it is decelerating). Meaningless on a
// linear segment.
func (s *MoveSegment) IsAccelerating() bool { return !s.linear && s.accelerating }

// GetSegmentLength returns the segment's length in mm.
func (s *MoveSegment) GetSegmentLength() float64 { return s.length }

// GetSegmentTime returns the segment's duration in timer clocks.
func (s *MoveSegment) GetSegmentTime() float64 { return s.durationClocks }

// GetNext returns the next segment, or nil at the end of the list.
func (s *MoveSegment) GetNext() *MoveSegment { return s.next }

// SetNext links this segment to its successor. Only the party building
// the segment list (a planner or a test fixture) should call this.
func (s *MoveSegment) SetNext(next *MoveSegment) { s.next = next }

// rawC is the segment's own step-independent coefficient: for a linear
// segment it is the reciprocal of the (constant) velocity, in
// clocks/mm; for a non-linear segment it is +/-2/acceleration
// (clocks^2/mm), with the sign already carrying whether this segment
// accelerates or decelerates.
func (s *MoveSegment) rawC() float64 {
	if s.linear {
		return 1.0 / s.startVelocity
	}
	if s.accelerating {
		return 2.0 / s.accel
	}
	return -2.0 / s.accel
}

// GetC returns the raw per-mm coefficient, undivided by any step
// density. Used directly by delta axes, which evaluate the formula
// against a distance in step units rather than a step count.
func (s *MoveSegment) GetC() float64 { return s.rawC() }

// CalcC scales the raw coefficient by mmPerStep so a Cartesian axis can
// evaluate the formula directly against an integer step count.
func (s *MoveSegment) CalcC(mmPerStep float64) float64 { return s.rawC() * mmPerStep }

// CalcLinearB returns B such that t = B + C*n reproduces the segment's
// actual time at distance n*mmPerStep from the move's start, given how
// much distance and time have already elapsed at the start of this
// segment.
func (s *MoveSegment) CalcLinearB(distanceSoFar, timeSoFar float64) float64 {
	return timeSoFar - distanceSoFar*s.rawC()
}

// CalcNonlinearA returns the A term of t = B + sqrt(A + C*n).
func (s *MoveSegment) CalcNonlinearA(distanceSoFar float64) float64 {
	c := s.rawC()
	return s.startVelocity*s.startVelocity*c*c/4.0 - distanceSoFar*c
}

// CalcNonlinearB returns the B term of t = B + sqrt(A + C*n). The
// optional pressureAdvanceK argument (extruders only) shifts the
// effective start velocity used to derive B, folding in the extra
// instantaneous rate that pressure advance demands during this phase.
func (s *MoveSegment) CalcNonlinearB(timeSoFar float64, pressureAdvanceK ...float64) float64 {
	c := s.rawC()
	b := timeSoFar - (s.startVelocity/2.0)*c
	if len(pressureAdvanceK) > 0 {
		b -= pressureAdvanceK[0]
	}
	return b
}

// GetFirstDecelSegment walks a segment list and returns the first
// segment that is neither linear nor accelerating, or nil if the move
// has no deceleration phase.
func GetFirstDecelSegment(head *MoveSegment) *MoveSegment {
	for s := head; s != nil; s = s.next {
		if !s.linear && !s.accelerating {
			return s
		}
	}
	return nil
}

// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package drivemovement

import "testing"

func TestAllocatorInitialAllocateThenAllocateReusesRecords(t *testing.T) {
	a := NewAllocator()
	a.InitialAllocate(3)
	if a.NumCreated() != 3 {
		t.Fatalf("NumCreated()=%d, want 3", a.NumCreated())
	}

	dm1 := a.Allocate(XAxis, StateCartLinear)
	dm2 := a.Allocate(YAxis, StateCartLinear)
	dm3 := a.Allocate(ZAxis, StateCartLinear)
	if a.NumCreated() != 3 {
		t.Fatalf("allocating pre-created records should not create more, NumCreated()=%d", a.NumCreated())
	}

	a.Release(dm1)
	a.Release(dm2)
	a.Release(dm3)

	dm4 := a.Allocate(eAxis, StateIdle)
	if a.NumCreated() != 3 {
		t.Fatalf("allocating from the free list should not create a new record, NumCreated()=%d", a.NumCreated())
	}
	if dm4.Drive() != eAxis {
		t.Fatalf("Drive()=%d, want %d", dm4.Drive(), eAxis)
	}
	if dm4.NextStep() != 0 || dm4.TotalSteps() != 0 {
		t.Fatalf("expected a reused record to be fully reset, got nextStep=%d totalSteps=%d", dm4.NextStep(), dm4.TotalSteps())
	}
}

func TestAllocatorAllocateBeyondInitialPoolCreatesNew(t *testing.T) {
	a := NewAllocator()
	a.InitialAllocate(1)

	first := a.Allocate(XAxis, StateIdle)
	second := a.Allocate(YAxis, StateIdle)
	if a.NumCreated() != 2 {
		t.Fatalf("NumCreated()=%d, want 2 after exhausting the initial pool", a.NumCreated())
	}
	if first == second {
		t.Fatalf("expected two distinct records")
	}
}

func TestAllocatorFreeListIsLIFO(t *testing.T) {
	a := NewAllocator()
	a.InitialAllocate(2)

	dm1 := a.Allocate(XAxis, StateIdle)
	dm2 := a.Allocate(YAxis, StateIdle)
	a.Release(dm1)
	a.Release(dm2)

	// The most recently released record should come back first.
	if got := a.Allocate(ZAxis, StateIdle); got != dm2 {
		t.Fatalf("expected LIFO reuse to hand back the most recently released record")
	}
}

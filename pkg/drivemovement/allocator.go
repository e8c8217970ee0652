// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package drivemovement

import "sync"

// Allocator is a process-wide free list of reusable DriveMovement
// records, avoiding heap churn in the realtime step-generation path.
//
// It is an intrusive singly linked LIFO list rather than a sync.Pool:
// DriveMovement already carries its own nextDM link, records are never
// garbage collected while a move might still reference one, and the
// discipline the spec asks for (serialised against concurrent
// preparers, never touched from step-generator context) is exactly
// what a mutex-guarded push/pop over that link gives us, with none of
// sync.Pool's surprise evictions under GC pressure.
type Allocator struct {
	mu         sync.Mutex
	freeList   *DriveMovement
	numCreated int
}

// NewAllocator returns an empty allocator. Call InitialAllocate at
// startup to pre-populate it before any move preparation happens.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// InitialAllocate ensures at least n records exist and are on the free
// list, creating fresh ones as needed. Intended to run once at startup.
func (a *Allocator) InitialAllocate(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for a.numCreated < n {
		a.freeList = &DriveMovement{nextDM: a.freeList}
		a.numCreated++
	}
}

// Allocate pops a record from the free list, allocating a fresh one if
// the list is empty, and resets it for a new move on the given drive.
func (a *Allocator) Allocate(drive int, initialState State) *DriveMovement {
	a.mu.Lock()
	dm := a.freeList
	if dm != nil {
		a.freeList = dm.nextDM
	} else {
		dm = &DriveMovement{}
		a.numCreated++
	}
	a.mu.Unlock()

	*dm = DriveMovement{drive: drive, state: initialState}
	return dm
}

// Release returns a record to the free list. The caller must not touch
// dm again after this call.
func (a *Allocator) Release(dm *DriveMovement) {
	a.mu.Lock()
	dm.nextDM = a.freeList
	a.freeList = dm
	a.mu.Unlock()
}

// NumCreated returns how many records this allocator has ever created,
// for diagnostics.
func (a *Allocator) NumCreated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.numCreated
}

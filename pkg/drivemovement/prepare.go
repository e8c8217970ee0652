// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package drivemovement

import "github.com/gomotion/drivemovement/pkg/segment"

// shapedOrUnshaped picks the input-shaped segment list a DDA provides
// for geometric axes when present, falling back to the unshaped list.
// Extruder preparation always sources from UnshapedSegments directly —
// input shaping never applies to the extruder drive.
func shapedOrUnshaped(dda DDA) *segment.MoveSegment {
	if s := dda.ShapedSegments(); s != nil {
		return s
	}
	return dda.UnshapedSegments()
}

// Package moveplan loads a planned move's DDA and segment list from a
// YAML fixture, so demo and integration code doesn't need to hand-build
// Go literals for every scenario a step generator has to handle.
//
// A moveplan.Plan is deliberately shaped like the planner output
// DriveMovement expects: a direction vector, the move's overall
// accel/decel/top-speed timing, and an ordered list of velocity-profile
// segments. Loading a plan never touches the step-generation hot path —
// it exists purely to construct fixtures.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package moveplan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gomotion/drivemovement/pkg/drivemovement"
	"github.com/gomotion/drivemovement/pkg/segment"
)

// SegmentSpec is one entry in a plan's segment list.
type SegmentSpec struct {
	// Kind is "linear", "accel", or "decel".
	Kind           string  `yaml:"kind"`
	Length         float64 `yaml:"length"`
	DurationClocks float64 `yaml:"durationClocks"`
	// Velocity is used for linear segments.
	Velocity float64 `yaml:"velocity"`
	// StartVelocity and Accel are used for accel/decel segments.
	StartVelocity float64 `yaml:"startVelocity"`
	Accel         float64 `yaml:"accel"`
}

// TowerSpec supplies one delta tower's geometry for a plan whose
// prep.delta field is set.
type TowerSpec struct {
	TowerX          float64 `yaml:"towerX"`
	TowerY          float64 `yaml:"towerY"`
	DiagonalSquared float64 `yaml:"diagonalSquared"`
}

// GetTowerX implements drivemovement.DeltaKinematicsHandle.
func (t *TowerSpec) GetTowerX(drive int) float64 { return t.TowerX }

// GetTowerY implements drivemovement.DeltaKinematicsHandle.
func (t *TowerSpec) GetTowerY(drive int) float64 { return t.TowerY }

// GetDiagonalSquared implements drivemovement.DeltaKinematicsHandle.
func (t *TowerSpec) GetDiagonalSquared(drive int) float64 { return t.DiagonalSquared }

// PrepSpec mirrors drivemovement.PrepParams for YAML loading.
type PrepSpec struct {
	InitialX           float64    `yaml:"initialX"`
	InitialY           float64    `yaml:"initialY"`
	A2PlusB2           float64    `yaml:"a2PlusB2"`
	AccelClocks        float64    `yaml:"accelClocks"`
	DecelClocks        float64    `yaml:"decelClocks"`
	DecelStartDistance float64    `yaml:"decelStartDistance"`
	Delta              *TowerSpec `yaml:"delta"`
}

// Plan is the top-level YAML fixture: one planned move plus the
// per-drive prep parameters needed to hand it to PrepareCartesianAxis,
// PrepareDeltaAxis, or PrepareExtruder.
type Plan struct {
	Name               string        `yaml:"name"`
	DirectionVector    []float64     `yaml:"directionVector"`
	TotalDistance      float64       `yaml:"totalDistance"`
	Acceleration       float64       `yaml:"acceleration"`
	Deceleration       float64       `yaml:"deceleration"`
	TopSpeed           float64       `yaml:"topSpeed"`
	ClocksNeeded       float64       `yaml:"clocksNeeded"`
	UsePressureAdvance bool          `yaml:"usePressureAdvance"`
	Segments           []SegmentSpec `yaml:"segments"`
	Prep               PrepSpec      `yaml:"prep"`
}

// Load reads and parses a plan from a YAML file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("moveplan: read %s: %w", path, err)
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("moveplan: parse %s: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("moveplan: %s: %w", path, err)
	}
	return &p, nil
}

func (p *Plan) validate() error {
	if len(p.DirectionVector) == 0 {
		return fmt.Errorf("directionVector must not be empty")
	}
	if len(p.Segments) == 0 {
		return fmt.Errorf("segments must not be empty")
	}
	for i, s := range p.Segments {
		switch s.Kind {
		case "linear", "accel", "decel":
		default:
			return fmt.Errorf("segment %d: unknown kind %q", i, s.Kind)
		}
	}
	return nil
}

// BuildSegments turns the plan's SegmentSpec list into a linked
// segment.MoveSegment chain, in order.
func (p *Plan) BuildSegments() *segment.MoveSegment {
	var head, tail *segment.MoveSegment
	for _, s := range p.Segments {
		var seg *segment.MoveSegment
		switch s.Kind {
		case "linear":
			seg = segment.NewLinear(s.Length, s.DurationClocks, s.Velocity, nil)
		case "accel":
			seg = segment.NewAccelDecel(s.Length, s.DurationClocks, s.StartVelocity, s.Accel, true, nil)
		case "decel":
			seg = segment.NewAccelDecel(s.Length, s.DurationClocks, s.StartVelocity, s.Accel, false, nil)
		}
		if head == nil {
			head = seg
		} else {
			tail.SetNext(seg)
		}
		tail = seg
	}
	return head
}

// dda is a fixture-backed implementation of drivemovement.DDA. Both the
// shaped and unshaped segment lists point at the same chain: the plans
// this package loads never model input shaping.
type dda struct {
	plan     *Plan
	unshaped *segment.MoveSegment
}

func (d *dda) DirectionVector() []float64          { return d.plan.DirectionVector }
func (d *dda) TotalDistance() float64              { return d.plan.TotalDistance }
func (d *dda) Acceleration() float64               { return d.plan.Acceleration }
func (d *dda) Deceleration() float64               { return d.plan.Deceleration }
func (d *dda) TopSpeed() float64                   { return d.plan.TopSpeed }
func (d *dda) AccelClocks() float64                { return d.plan.Prep.AccelClocks }
func (d *dda) DecelClocks() float64                { return d.plan.Prep.DecelClocks }
func (d *dda) DecelStartDistance() float64         { return d.plan.Prep.DecelStartDistance }
func (d *dda) ClocksNeeded() float64               { return d.plan.ClocksNeeded }
func (d *dda) UsePressureAdvance() bool            { return d.plan.UsePressureAdvance }
func (d *dda) ShapedSegments() *segment.MoveSegment { return nil }
func (d *dda) UnshapedSegments() *segment.MoveSegment { return d.unshaped }

// Build materializes the plan into a drivemovement.DDA and the
// PrepParams needed to prepare a drive against it. The returned segment
// chain is read-only once built, so the same *dda may be shared across
// every drive preparing against this planned move.
func (p *Plan) Build() (drivemovement.DDA, drivemovement.PrepParams) {
	d := &dda{plan: p, unshaped: p.BuildSegments()}

	params := drivemovement.PrepParams{
		InitialX:           p.Prep.InitialX,
		InitialY:           p.Prep.InitialY,
		A2PlusB2:           p.Prep.A2PlusB2,
		AccelClocks:        p.Prep.AccelClocks,
		DecelClocks:        p.Prep.DecelClocks,
		DecelStartDistance: p.Prep.DecelStartDistance,
	}
	if p.Prep.Delta != nil {
		params.DeltaParams = p.Prep.Delta
	}
	return d, params
}

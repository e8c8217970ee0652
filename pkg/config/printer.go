// Package config provides host-side configuration parsing for the
// per-drive step generator: it turns a printer.cfg-style file into the
// `[drive N]` and `[printer]` settings PrepareCartesianAxis,
// PrepareDeltaAxis, and PrepareExtruder need, built on top of the
// generic Config/Section access-tracking layer in config.go/section.go.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gomotion/drivemovement/pkg/drivemovement"
)

// DriveKinematics names which of DriveMovement's three engines a drive
// section feeds.
type DriveKinematics string

const (
	KinematicsCartesian DriveKinematics = "cartesian"
	KinematicsDelta     DriveKinematics = "delta"
	KinematicsExtruder  DriveKinematics = "extruder"
)

// DriveConfig holds one drive's motion-relevant settings: enough to
// compute its step density and, for delta towers, its geometry.
type DriveConfig struct {
	Index      int
	Kinematics DriveKinematics

	StepPin   Pin
	DirPin    Pin
	EnablePin Pin

	FullStepsPerRotation int
	Microsteps           int
	RotationDistance     float64

	// Delta tower geometry; zero for Cartesian/extruder drives.
	TowerX, TowerY, ArmLength float64

	// Extruder-only.
	PressureAdvance float64
}

// StepsPerMM returns the drive's step density, or 0 if RotationDistance
// hasn't been set (a config error the caller should have already
// rejected).
func (d *DriveConfig) StepsPerMM() float64 {
	if d.RotationDistance == 0 {
		return 0
	}
	return float64(d.FullStepsPerRotation*d.Microsteps) / d.RotationDistance
}

// String implements fmt.Stringer for readable diagnostics.
func (d *DriveConfig) String() string {
	return fmt.Sprintf("drive %d(%s stepsPerMM=%.3f)", d.Index, d.Kinematics, d.StepsPerMM())
}

// MotionConfig is the parsed subset of a printer.cfg relevant to step
// generation: the machine's kinematics family, its motion limits, and
// one DriveConfig per `[drive N]` section, indexed by N so a
// *MotionConfig can stand in directly for drivemovement.Platform and
// drivemovement.DeltaKinematicsHandle.
type MotionConfig struct {
	Kinematics      DriveKinematics
	MaxVelocity     float64
	MaxAccel        float64
	MinCalcInterval float64
	Drives          map[int]*DriveConfig
}

// LoadMotionConfig reads path and extracts the [printer] section plus
// every [drive N] section into a MotionConfig.
func LoadMotionConfig(path string) (*MotionConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return buildMotionConfig(cfg)
}

func buildMotionConfig(cfg *Config) (*MotionConfig, error) {
	mc := &MotionConfig{Drives: make(map[int]*DriveConfig)}

	printer, err := cfg.GetSection("printer")
	if err != nil {
		return nil, err
	}
	kinematics, err := printer.GetChoice("kinematics", []string{"cartesian", "delta"})
	if err != nil {
		return nil, err
	}
	mc.Kinematics = DriveKinematics(kinematics)
	if mc.MaxVelocity, err = printer.GetFloatWithBounds("max_velocity", FloatBounds{Above: floatPtr(0)}); err != nil {
		return nil, err
	}
	if mc.MaxAccel, err = printer.GetFloatWithBounds("max_accel", FloatBounds{Above: floatPtr(0)}); err != nil {
		return nil, err
	}
	if mc.MinCalcInterval, err = printer.GetFloatWithBounds("min_calc_interval", FloatBounds{Above: floatPtr(0)}, drivemovement.MinCalcInterval); err != nil {
		return nil, err
	}

	for _, section := range cfg.GetPrefixSections("drive") {
		dc, err := parseDriveSection(section)
		if err != nil {
			return nil, err
		}
		mc.Drives[dc.Index] = dc
	}

	return mc, nil
}

// parseDriveSection reads a "[drive N]" section, N being the drive
// index PrepareCartesianAxis/PrepareDeltaAxis/PrepareExtruder receive.
func parseDriveSection(s *Section) (*DriveConfig, error) {
	index, err := driveIndexFromSectionName(s.GetName())
	if err != nil {
		return nil, err
	}

	kinematics, err := s.GetChoice("kinematics", []string{"cartesian", "delta", "extruder"}, "cartesian")
	if err != nil {
		return nil, err
	}

	dc := &DriveConfig{
		Index:                index,
		Kinematics:           DriveKinematics(kinematics),
		FullStepsPerRotation: 200,
		Microsteps:           16,
	}

	if dc.RotationDistance, err = s.GetFloatWithBounds("rotation_distance", FloatBounds{Above: floatPtr(0)}); err != nil {
		return nil, err
	}
	if dc.Microsteps, err = s.GetIntWithBounds("microsteps", intPtr(1), nil, dc.Microsteps); err != nil {
		return nil, err
	}
	if dc.FullStepsPerRotation, err = s.GetIntWithBounds("full_steps_per_rotation", intPtr(1), nil, dc.FullStepsPerRotation); err != nil {
		return nil, err
	}

	pinOpts := PinOptions{CanInvert: true, CanPullup: true}
	if dc.StepPin, err = s.GetPin("step_pin", pinOpts, Pin{}); err != nil {
		return nil, err
	}
	if dc.DirPin, err = s.GetPin("dir_pin", pinOpts, Pin{}); err != nil {
		return nil, err
	}
	if dc.EnablePin, err = s.GetPin("enable_pin", pinOpts, Pin{}); err != nil {
		return nil, err
	}

	switch dc.Kinematics {
	case KinematicsDelta:
		if dc.TowerX, err = s.GetFloat("tower_x"); err != nil {
			return nil, err
		}
		if dc.TowerY, err = s.GetFloat("tower_y"); err != nil {
			return nil, err
		}
		if dc.ArmLength, err = s.GetFloatWithBounds("arm_length", FloatBounds{Above: floatPtr(0)}); err != nil {
			return nil, err
		}
	case KinematicsExtruder:
		if dc.PressureAdvance, err = s.GetFloatWithBounds("pressure_advance", FloatBounds{MinVal: floatPtr(0)}, 0); err != nil {
			return nil, err
		}
	}

	return dc, nil
}

// driveIndexFromSectionName extracts N from a "drive N" section name.
func driveIndexFromSectionName(name string) (int, error) {
	parts := strings.Fields(name)
	if len(parts) != 2 || parts[0] != "drive" {
		return 0, fmt.Errorf("config: section %q is not of the form \"drive N\"", name)
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("config: section %q: drive index must be an integer: %w", name, err)
	}
	return index, nil
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// DriveStepsPerUnit implements drivemovement.Platform: a *MotionConfig
// can be handed directly to PrepareCartesianAxis/PrepareDeltaAxis/
// PrepareExtruder as the machine's step-density source.
func (mc *MotionConfig) DriveStepsPerUnit(drive int) float64 {
	dc, ok := mc.Drives[drive]
	if !ok {
		return 0
	}
	return dc.StepsPerMM()
}

// GetTowerX implements drivemovement.DeltaKinematicsHandle.
func (mc *MotionConfig) GetTowerX(drive int) float64 {
	if dc, ok := mc.Drives[drive]; ok {
		return dc.TowerX
	}
	return 0
}

// GetTowerY implements drivemovement.DeltaKinematicsHandle.
func (mc *MotionConfig) GetTowerY(drive int) float64 {
	if dc, ok := mc.Drives[drive]; ok {
		return dc.TowerY
	}
	return 0
}

// GetDiagonalSquared implements drivemovement.DeltaKinematicsHandle
// against the named drive's own arm length.
func (mc *MotionConfig) GetDiagonalSquared(drive int) float64 {
	if dc, ok := mc.Drives[drive]; ok {
		return dc.ArmLength * dc.ArmLength
	}
	return 0
}

package config

import (
	"testing"

	"github.com/gomotion/drivemovement/pkg/drivemovement"
)

// Compile-time assertions that a *MotionConfig can stand in directly
// for the step generator's collaborator interfaces.
var (
	_ drivemovement.Platform              = (*MotionConfig)(nil)
	_ drivemovement.DeltaKinematicsHandle = (*MotionConfig)(nil)
)

const cartesianCfg = `
[printer]
kinematics: cartesian
max_velocity: 300
max_accel: 3000

[drive 0]
step_pin: PA5
dir_pin: !PA4
enable_pin: !PA3
microsteps: 16
rotation_distance: 40

[drive 1]
kinematics: extruder
step_pin: PA7
dir_pin: PA6
enable_pin: !PA3
microsteps: 16
rotation_distance: 33.5
pressure_advance: 0.05
`

func TestBuildMotionConfigCartesian(t *testing.T) {
	cfg, err := LoadString(cartesianCfg)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	mc, err := buildMotionConfig(cfg)
	if err != nil {
		t.Fatalf("buildMotionConfig: %v", err)
	}

	if mc.Kinematics != KinematicsCartesian {
		t.Errorf("Kinematics = %q, want cartesian", mc.Kinematics)
	}
	if len(mc.Drives) != 2 {
		t.Fatalf("len(Drives) = %d, want 2", len(mc.Drives))
	}

	x, ok := mc.Drives[0]
	if !ok || x.Kinematics != KinematicsCartesian {
		t.Fatalf("drive 0 = %+v, want cartesian", x)
	}
	wantStepsPerMM := float64(200*16) / 40
	if got := mc.DriveStepsPerUnit(0); got != wantStepsPerMM {
		t.Errorf("DriveStepsPerUnit(0) = %v, want %v", got, wantStepsPerMM)
	}

	e, ok := mc.Drives[1]
	if !ok || e.Kinematics != KinematicsExtruder {
		t.Fatalf("drive 1 = %+v, want extruder", e)
	}
	if e.PressureAdvance != 0.05 {
		t.Errorf("PressureAdvance = %v, want 0.05", e.PressureAdvance)
	}

	if got := mc.DriveStepsPerUnit(9); got != 0 {
		t.Errorf("DriveStepsPerUnit(unknown) = %v, want 0", got)
	}
}

const deltaCfg = `
[printer]
kinematics: delta
max_velocity: 300
max_accel: 3000

[drive 0]
kinematics: delta
step_pin: PA5
dir_pin: !PA4
enable_pin: !PA3
rotation_distance: 40
tower_x: 0.0
tower_y: 173.2
arm_length: 150.0
`

func TestBuildMotionConfigDelta(t *testing.T) {
	cfg, err := LoadString(deltaCfg)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	mc, err := buildMotionConfig(cfg)
	if err != nil {
		t.Fatalf("buildMotionConfig: %v", err)
	}

	if got, want := mc.GetTowerX(0), 0.0; got != want {
		t.Errorf("GetTowerX(0) = %v, want %v", got, want)
	}
	if got, want := mc.GetTowerY(0), 173.2; got != want {
		t.Errorf("GetTowerY(0) = %v, want %v", got, want)
	}
	if got, want := mc.GetDiagonalSquared(0), 150.0*150.0; got != want {
		t.Errorf("GetDiagonalSquared(0) = %v, want %v", got, want)
	}
}

func TestParseDriveSectionRejectsMalformedName(t *testing.T) {
	cfg, err := LoadString(`
[printer]
kinematics: cartesian
max_velocity: 300
max_accel: 3000

[drive x]
rotation_distance: 40
`)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if _, err := buildMotionConfig(cfg); err == nil {
		t.Fatal("expected an error for a non-numeric drive index")
	}
}

func TestLoadMotionConfigMissingFile(t *testing.T) {
	if _, err := LoadMotionConfig("testdata/does-not-exist.cfg"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

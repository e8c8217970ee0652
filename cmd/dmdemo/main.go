// dmdemo drives a single planned move through the step-time generator
// and prints the resulting per-axis step schedule.
//
// Usage:
//
//	dmdemo -plan testdata/trapezoid.yaml
//	dmdemo -plan testdata/pure-z-delta.yaml -drive 2 -realtime
//	dmdemo -printer-config testdata/printer-delta.cfg -plan testdata/pure-z-delta.yaml -drive 2
//
// With no -plan, dmdemo builds a built-in trapezoidal Cartesian move so
// the binary runs standalone. With no -printer-config, step density
// comes from -steps-per-mm and delta geometry (if any) comes from the
// plan fixture itself.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/gomotion/drivemovement/pkg/config"
	"github.com/gomotion/drivemovement/pkg/drivemovement"
	dmlog "github.com/gomotion/drivemovement/pkg/log"
	"github.com/gomotion/drivemovement/pkg/moveplan"
	"github.com/gomotion/drivemovement/pkg/segment"
)

type staticPlatform struct{ stepsPerUnit float64 }

func (p staticPlatform) DriveStepsPerUnit(drive int) float64 { return p.stepsPerUnit }

type staticDDA struct {
	dirVec             []float64
	totalDistance      float64
	accel, decel       float64
	topSpeed           float64
	accelClocks        float64
	decelClocks        float64
	decelStartDistance float64
	clocksNeeded       float64
	unshaped           *segment.MoveSegment
}

func (d *staticDDA) DirectionVector() []float64             { return d.dirVec }
func (d *staticDDA) TotalDistance() float64                 { return d.totalDistance }
func (d *staticDDA) Acceleration() float64                  { return d.accel }
func (d *staticDDA) Deceleration() float64                  { return d.decel }
func (d *staticDDA) TopSpeed() float64                      { return d.topSpeed }
func (d *staticDDA) AccelClocks() float64                   { return d.accelClocks }
func (d *staticDDA) DecelClocks() float64                   { return d.decelClocks }
func (d *staticDDA) DecelStartDistance() float64             { return d.decelStartDistance }
func (d *staticDDA) ClocksNeeded() float64                  { return d.clocksNeeded }
func (d *staticDDA) UsePressureAdvance() bool                { return false }
func (d *staticDDA) ShapedSegments() *segment.MoveSegment    { return nil }
func (d *staticDDA) UnshapedSegments() *segment.MoveSegment  { return d.unshaped }

// builtinTrapezoid mirrors spec.md's scenario 1: a single-axis move that
// accelerates, cruises, and decelerates to a stop.
func builtinTrapezoid() (drivemovement.DDA, drivemovement.PrepParams) {
	const accel = 20.0
	const topSpeed = 4.0
	const cruiseLen = 3.0

	accelClocks := topSpeed / accel
	accelLen := 0.5 * accel * accelClocks * accelClocks
	decelClocks := accelClocks
	decelLen := accelLen

	decelSeg := segment.NewAccelDecel(decelLen, decelClocks, topSpeed, accel, false, nil)
	cruiseSeg := segment.NewLinear(cruiseLen, cruiseLen/topSpeed, topSpeed, decelSeg)
	accelSeg := segment.NewAccelDecel(accelLen, accelClocks, 0, accel, true, cruiseSeg)

	dda := &staticDDA{
		dirVec:             []float64{1, 0, 0},
		totalDistance:      accelLen + cruiseLen + decelLen,
		accel:              accel,
		decel:              accel,
		topSpeed:           topSpeed,
		accelClocks:        accelClocks,
		decelClocks:        decelClocks,
		decelStartDistance: accelLen + cruiseLen,
		clocksNeeded:       accelClocks + cruiseLen/topSpeed + decelClocks,
		unshaped:           accelSeg,
	}
	return dda, drivemovement.PrepParams{A2PlusB2: 1}
}

// tryRealtime attempts to move the calling goroutine's OS thread into
// SCHED_FIFO. It is best-effort: on non-Linux platforms or without
// privilege, the request fails silently and the demo continues at the
// default scheduling policy.
func tryRealtime(logger *dmlog.Logger) {
	runtime.LockOSThread()
	param := &unix.SchedParam{Priority: 10}
	if err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, param); err != nil {
		logger.Debugf("SCHED_FIFO unavailable, continuing at default policy: %v", err)
		return
	}
	logger.Info("pinned step-loop goroutine to SCHED_FIFO priority 10")
}

func main() {
	planPath := flag.String("plan", "", "moveplan YAML fixture (default: built-in trapezoid)")
	printerConfigPath := flag.String("printer-config", "", "printer.cfg-style file supplying real drive step density and delta geometry")
	drive := flag.Int("drive", drivemovement.XAxis, "drive number to prepare against the plan")
	stepsPerUnit := flag.Float64("steps-per-mm", 400, "step density for the demo axis, steps/mm (overridden by -printer-config)")
	realtime := flag.Bool("realtime", false, "attempt to run the step loop under SCHED_FIFO")
	jsonLog := flag.Bool("json-log", false, "emit log output as JSON instead of text")
	flag.Parse()

	logger := dmlog.New("dmdemo")
	dmlog.ConfigureFromEnv(logger)
	if *jsonLog {
		logger.SetFormat(dmlog.FormatJSON)
	}

	if *realtime {
		tryRealtime(logger)
	}

	var dda drivemovement.DDA
	var params drivemovement.PrepParams
	var kinematics = "cartesian"

	if *planPath != "" {
		plan, err := moveplan.Load(*planPath)
		if err != nil {
			logger.Errorf("loading plan: %v", err)
			os.Exit(1)
		}
		logger.WithField("plan", plan.Name).Info("loaded move plan")
		dda, params = plan.Build()
		if plan.Prep.Delta != nil {
			kinematics = "delta"
		}
	} else {
		logger.Info("no -plan given, using built-in trapezoid move")
		dda, params = builtinTrapezoid()
	}

	var platform drivemovement.Platform = staticPlatform{stepsPerUnit: *stepsPerUnit}
	if *printerConfigPath != "" {
		mc, err := config.LoadMotionConfig(*printerConfigPath)
		if err != nil {
			logger.Errorf("loading printer config: %v", err)
			os.Exit(1)
		}
		logger.WithField("drives", len(mc.Drives)).Info("loaded printer config")
		drivemovement.MinCalcInterval = mc.MinCalcInterval
		platform = mc
		// A printer config's own delta tower geometry supersedes
		// whatever the move plan fixture carries for this drive.
		if dc, ok := mc.Drives[*drive]; ok && dc.Kinematics == config.KinematicsDelta {
			kinematics = "delta"
			params.DeltaParams = mc
		}
	}

	allocator := drivemovement.NewAllocator()
	allocator.InitialAllocate(1)
	dm := allocator.Allocate(*drive, drivemovement.StateIdle)

	var ok bool
	switch kinematics {
	case "delta":
		ok = dm.PrepareDeltaAxis(dda, params, platform)
	default:
		ok = dm.PrepareCartesianAxis(dda, params, platform)
	}
	if !ok {
		logger.Info("drive contributes no steps to this move")
		return
	}

	fmt.Printf("drive %d: %d steps, clocksNeeded=%.6f\n", dm.Drive(), dm.TotalSteps(), dda.ClocksNeeded())
	fmt.Printf("step %6d: t=%.6f dir=%v\n", dm.NextStep(), dm.NextStepTime(), dm.Direction())

	for dm.CalcNextStepTime(dda) {
		marker := ""
		if dm.DirectionChanged() {
			marker = "  <- direction reversed"
			dm.ClearDirectionChanged()
		}
		fmt.Printf("step %6d: t=%.6f dir=%v state=%s%s\n", dm.NextStep(), dm.NextStepTime(), dm.Direction(), dm.State(), marker)
	}

	if dm.State() == drivemovement.StateStepError {
		dm.DebugPrint(logger)
		logger.Error("step generation ended in an error state")
		os.Exit(1)
	}

	logger.Info("move complete")
	allocator.Release(dm)
}

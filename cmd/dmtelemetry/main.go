// dmtelemetry runs a planned move through the step-time generator and
// pushes each drive's step schedule to connected websocket clients as
// JSON frames, Moonraker-style, so a browser or wscat client can watch
// a move happen live.
//
// Usage:
//
//	dmtelemetry -addr :8787 -plan testdata/trapezoid.yaml
//	wscat -c ws://localhost:8787/telemetry
package main

import (
	"flag"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gomotion/drivemovement/pkg/drivemovement"
	dmlog "github.com/gomotion/drivemovement/pkg/log"
	"github.com/gomotion/drivemovement/pkg/moveplan"
	"github.com/gomotion/drivemovement/pkg/pool"
	"github.com/gomotion/drivemovement/pkg/segment"
)

// stepFrame is one drive's step event, broadcast as a JSON object.
type stepFrame struct {
	Drive            int     `json:"drive"`
	Step             uint32  `json:"step"`
	TotalSteps       uint32  `json:"totalSteps"`
	Time             float64 `json:"time"`
	Direction        bool    `json:"direction"`
	DirectionChanged bool    `json:"directionChanged"`
	State            string  `json:"state"`
}

// hub tracks connected clients and the last-seen step time per drive,
// broadcasting new frames to every client.
type hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[int64]*wsClient
	nextID  int64

	drives   []int
	lastTime []float64 // pool.GetFloat64Slice-backed, one entry per drive
}

func newHub(drives []int) *hub {
	h := &hub{
		clients: make(map[int64]*wsClient),
		drives:  drives,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	h.lastTime = pool.GetFloat64Slice(len(drives))
	return h
}

type wsClient struct {
	id     int64
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
}

func (h *hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id := atomic.AddInt64(&h.nextID, 1)
	c := &wsClient{id: id, conn: conn, sendCh: make(chan []byte, 64), done: make(chan struct{})}

	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()

	go c.writePump()
	go func() {
		// Discard anything the client sends; this endpoint is push-only.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.removeClient(id)
				c.close()
				return
			}
		}
	}()
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsClient) close() {
	select {
	case <-c.done:
	default:
		close(c.done)
		c.conn.Close()
	}
}

func (h *hub) removeClient(id int64) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

// broadcast encodes a frame into a pooled byte buffer and fans it out
// to every connected client.
func (h *hub) broadcast(f stepFrame) {
	buf := pool.GetByteBuffer()
	defer pool.PutByteBuffer(buf)
	encodeFrame(buf, f)
	payload := append([]byte(nil), buf.Bytes()...) // clients each need their own copy

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.sendCh <- payload:
		default:
			// slow client, drop the frame rather than block the move
		}
	}
}

// encodeFrame writes f as a compact JSON object without allocating a
// map, since this runs once per emitted step.
func encodeFrame(buf *pool.ByteBuffer, f stepFrame) {
	buf.WriteString(`{"drive":`)
	writeInt(buf, int64(f.Drive))
	buf.WriteString(`,"step":`)
	writeInt(buf, int64(f.Step))
	buf.WriteString(`,"totalSteps":`)
	writeInt(buf, int64(f.TotalSteps))
	buf.WriteString(`,"time":`)
	writeFloat(buf, f.Time)
	buf.WriteString(`,"direction":`)
	writeBool(buf, f.Direction)
	buf.WriteString(`,"directionChanged":`)
	writeBool(buf, f.DirectionChanged)
	buf.WriteString(`,"state":"`)
	buf.WriteString(f.State)
	buf.WriteString(`"}`)
}

func writeInt(buf *pool.ByteBuffer, v int64) {
	buf.WriteString(strconv.FormatInt(v, 10))
}

func writeBool(buf *pool.ByteBuffer, v bool) {
	if v {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}
}

func writeFloat(buf *pool.ByteBuffer, v float64) {
	buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
}

// runMove drives every configured DriveMovement to completion,
// broadcasting a frame after each step. Drives run sequentially since
// this is a demo of the schedule, not a real synchronized multi-axis
// stepper loop.
func runMove(h *hub, dda drivemovement.DDA, params drivemovement.PrepParams, platform drivemovement.Platform, drives []int, logger *dmlog.Logger) {
	allocator := drivemovement.NewAllocator()
	allocator.InitialAllocate(len(drives))

	for i, drive := range drives {
		dm := allocator.Allocate(drive, drivemovement.StateIdle)
		if !dm.PrepareCartesianAxis(dda, params, platform) {
			logger.WithField("drive", drive).Info("drive contributes no steps to this move")
			continue
		}

		h.lastTime[i] = dm.NextStepTime()
		h.broadcast(stepFrame{
			Drive: drive, Step: dm.NextStep(), TotalSteps: dm.TotalSteps(),
			Time: dm.NextStepTime(), Direction: dm.Direction(), State: dm.State().String(),
		})

		for dm.CalcNextStepTime(dda) {
			h.lastTime[i] = dm.NextStepTime()
			h.broadcast(stepFrame{
				Drive: drive, Step: dm.NextStep(), TotalSteps: dm.TotalSteps(),
				Time: dm.NextStepTime(), Direction: dm.Direction(),
				DirectionChanged: dm.DirectionChanged(), State: dm.State().String(),
			})
			dm.ClearDirectionChanged()
			time.Sleep(time.Millisecond) // pace the demo so a human can watch it
		}
		allocator.Release(dm)
	}
}

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

	dda := &demoDDA{
		dirVec: []float64{1, 0, 0}, totalDistance: accelLen + cruiseLen + decelLen,
		accel: accel, decel: accel, topSpeed: topSpeed,
		accelClocks: accelClocks, decelClocks: decelClocks,
		decelStartDistance: accelLen + cruiseLen,
		clocksNeeded:       accelClocks + cruiseLen/topSpeed + decelClocks,
		unshaped:           accelSeg,
	}
	return dda, drivemovement.PrepParams{A2PlusB2: 1}
}

type demoDDA struct {
	dirVec                                                    []float64
	totalDistance, accel, decel, topSpeed                     float64
	accelClocks, decelClocks, decelStartDistance, clocksNeeded float64
	unshaped                                                  *segment.MoveSegment
}

func (d *demoDDA) DirectionVector() []float64            { return d.dirVec }
func (d *demoDDA) TotalDistance() float64                { return d.totalDistance }
func (d *demoDDA) Acceleration() float64                 { return d.accel }
func (d *demoDDA) Deceleration() float64                 { return d.decel }
func (d *demoDDA) TopSpeed() float64                     { return d.topSpeed }
func (d *demoDDA) AccelClocks() float64                  { return d.accelClocks }
func (d *demoDDA) DecelClocks() float64                  { return d.decelClocks }
func (d *demoDDA) DecelStartDistance() float64           { return d.decelStartDistance }
func (d *demoDDA) ClocksNeeded() float64                 { return d.clocksNeeded }
func (d *demoDDA) UsePressureAdvance() bool              { return false }
func (d *demoDDA) ShapedSegments() *segment.MoveSegment  { return nil }
func (d *demoDDA) UnshapedSegments() *segment.MoveSegment { return d.unshaped }

type flatPlatform struct{ stepsPerUnit float64 }

func (p flatPlatform) DriveStepsPerUnit(drive int) float64 { return p.stepsPerUnit }

func main() {
	addr := flag.String("addr", ":8787", "HTTP/websocket listen address")
	planPath := flag.String("plan", "", "moveplan YAML fixture (default: built-in trapezoid)")
	stepsPerUnit := flag.Float64("steps-per-mm", 400, "step density for the demo drives")
	flag.Parse()

	logger := dmlog.New("dmtelemetry")
	dmlog.ConfigureFromEnv(logger)

	var dda drivemovement.DDA
	var params drivemovement.PrepParams
	if *planPath != "" {
		plan, err := moveplan.Load(*planPath)
		if err != nil {
			logger.Errorf("loading plan: %v", err)
			return
		}
		dda, params = plan.Build()
	} else {
		dda, params = builtinTrapezoid()
	}

	drives := []int{drivemovement.XAxis}
	h := newHub(drives)
	defer pool.PutFloat64Slice(h.lastTime)

	mux := http.NewServeMux()
	mux.HandleFunc("/telemetry", h.handleWebSocket)

	server := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		logger.WithField("addr", *addr).Info("dmtelemetry listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server: %v", err)
		}
	}()

	// Give a client a moment to connect before the (short) demo move
	// runs; a real integration would gate this on an explicit "run"
	// command from the client instead.
	time.Sleep(2 * time.Second)
	runMove(h, dda, params, flatPlatform{stepsPerUnit: *stepsPerUnit}, drives, logger)
	logger.Info("move complete, telemetry server still running")

	select {}
}

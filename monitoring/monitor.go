// Package monitoring provides an HTTP server that exposes the state of
// timelines and players for external inspection and control.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/playline/player"
	"github.com/sarchlab/playline/timeline"
)

// Monitor turns a set of timelines and players into a server and allows
// external monitoring and controlling of playback.
type Monitor struct {
	portNumber  int
	openBrowser bool

	timelines     map[string]*timeline.Timeline
	timelineNames []string
	players       map[string]*player.Player
	playerNames   []string
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		timelines: make(map[string]*timeline.Timeline),
		players:   make(map[string]*player.Player),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes the monitor open the server address in a browser when
// the server starts.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true

	return m
}

// RegisterTimeline registers a timeline to be monitored.
func (m *Monitor) RegisterTimeline(name string, t *timeline.Timeline) {
	if _, ok := m.timelines[name]; ok {
		panic("timeline " + name + " already registered")
	}

	m.timelines[name] = t
	m.timelineNames = append(m.timelineNames, name)
}

// RegisterPlayer registers a player to be monitored and controlled.
func (m *Monitor) RegisterPlayer(name string, p *player.Player) {
	if _, ok := m.players[name]; ok {
		panic("player " + name + " already registered")
	}

	m.players[name] = p
	m.playerNames = append(m.playerNames, name)
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/list_players", m.listPlayers)
	r.HandleFunc("/api/list_timelines", m.listTimelines)
	r.HandleFunc("/api/player/{name}", m.playerState)
	r.HandleFunc("/api/player/{name}/play", m.play)
	r.HandleFunc("/api/player/{name}/pause", m.pause)
	r.HandleFunc("/api/player/{name}/start", m.start)
	r.HandleFunc("/api/player/{name}/stop", m.stop)
	r.HandleFunc("/api/player/{name}/scrub/{time}", m.scrub)
	r.HandleFunc("/api/timeline/{name}", m.timelineFrames)
	r.HandleFunc("/api/timeline/{name}/detail", m.timelineDetail)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring playback with %s\n", url)

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()

	if m.openBrowser {
		err = browser.OpenURL(url)
		dieOnErr(err)
	}
}

func (m *Monitor) listPlayers(w http.ResponseWriter, _ *http.Request) {
	writeNameList(w, m.playerNames)
}

func (m *Monitor) listTimelines(w http.ResponseWriter, _ *http.Request) {
	writeNameList(w, m.timelineNames)
}

func writeNameList(w http.ResponseWriter, names []string) {
	fmt.Fprint(w, "[")
	for i, n := range names {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "%q", n)
	}
	fmt.Fprint(w, "]")
}

type playerStateRsp struct {
	Playhead int64  `json:"playhead"`
	Playing  bool   `json:"playing"`
	Latency  int64  `json:"latency_ns"`
	Duration int64  `json:"duration"`
	Unit     string `json:"unit"`
}

func (m *Monitor) playerState(w http.ResponseWriter, r *http.Request) {
	p := m.findPlayerOr404(w, r)
	if p == nil {
		return
	}

	rsp := playerStateRsp{
		Playhead: p.Playhead(),
		Playing:  p.IsPlaying(),
		Latency:  int64(p.Latency()),
		Duration: p.Timeline().Duration(),
		Unit:     p.Timeline().Unit().String(),
	}

	writeJSON(w, rsp)
}

func (m *Monitor) play(w http.ResponseWriter, r *http.Request) {
	m.playerOp(w, r, func(p *player.Player) error { return p.Play() })
}

func (m *Monitor) pause(w http.ResponseWriter, r *http.Request) {
	m.playerOp(w, r, func(p *player.Player) error { return p.Pause() })
}

func (m *Monitor) start(w http.ResponseWriter, r *http.Request) {
	m.playerOp(w, r, func(p *player.Player) error { return p.Start() })
}

func (m *Monitor) stop(w http.ResponseWriter, r *http.Request) {
	m.playerOp(w, r, func(p *player.Player) error { return p.Stop() })
}

func (m *Monitor) scrub(w http.ResponseWriter, r *http.Request) {
	timeStr := mux.Vars(r)["time"]

	t, err := strconv.ParseInt(timeStr, 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	m.playerOp(w, r, func(p *player.Player) error { return p.Scrub(t) })
}

func (m *Monitor) playerOp(
	w http.ResponseWriter,
	r *http.Request,
	op func(p *player.Player) error,
) {
	p := m.findPlayerOr404(w, r)
	if p == nil {
		return
	}

	if err := op(p); err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	_, err := w.Write(nil)
	dieOnErr(err)
}

type frameRsp struct {
	Time  int64  `json:"time"`
	Event string `json:"event"`
}

func (m *Monitor) timelineFrames(w http.ResponseWriter, r *http.Request) {
	t := m.findTimelineOr404(w, r)
	if t == nil {
		return
	}

	frames := t.Frames()

	rsp := make([]frameRsp, 0, len(frames))
	for _, f := range frames {
		rsp = append(rsp, frameRsp{
			Time:  f.Time(),
			Event: fmt.Sprintf("%v", f.Event()),
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) timelineDetail(w http.ResponseWriter, r *http.Request) {
	t := m.findTimelineOr404(w, r)
	if t == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(t)
	serializer.SetMaxDepth(2)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func (m *Monitor) findPlayerOr404(
	w http.ResponseWriter,
	r *http.Request,
) *player.Player {
	name := mux.Vars(r)["name"]

	p, ok := m.players[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Player not found"))
		dieOnErr(err)

		return nil
	}

	return p
}

func (m *Monitor) findTimelineOr404(
	w http.ResponseWriter,
	r *http.Request,
) *timeline.Timeline {
	name := mux.Vars(r)["name"]

	t, ok := m.timelines[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Timeline not found"))
		dieOnErr(err)

		return nil
	}

	return t
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}

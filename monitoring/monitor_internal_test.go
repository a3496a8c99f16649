package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gorilla/mux"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/playline/player"
	"github.com/sarchlab/playline/timeline"
)

var _ = Describe("Monitor", func() {
	var (
		m  *Monitor
		tl *timeline.Timeline
		p  *player.Player
	)

	BeforeEach(func() {
		m = NewMonitor()

		tl = timeline.NewTimeline(timeline.Millisecond)
		tl.AddEvent(0, timeline.NewEventFunc(func() error { return nil }))
		tl.AddEvent(10, timeline.NewEventFunc(func() error { return nil }))

		p = player.NewPlayer(tl)

		m.RegisterTimeline("main", tl)
		m.RegisterPlayer("main", p)
	})

	AfterEach(func() {
		p.Close()
	})

	It("should panic on duplicated names", func() {
		Expect(func() {
			m.RegisterTimeline("main", tl)
		}).To(Panic())
		Expect(func() {
			m.RegisterPlayer("main", p)
		}).To(Panic())
	})

	It("should list registered players and timelines", func() {
		w := httptest.NewRecorder()
		m.listPlayers(w, httptest.NewRequest(http.MethodGet,
			"/api/list_players", nil))

		Expect(w.Body.String()).To(Equal(`["main"]`))

		w = httptest.NewRecorder()
		m.listTimelines(w, httptest.NewRequest(http.MethodGet,
			"/api/list_timelines", nil))

		Expect(w.Body.String()).To(Equal(`["main"]`))
	})

	It("should report player state", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/player/main", nil)
		req = mux.SetURLVars(req, map[string]string{"name": "main"})

		w := httptest.NewRecorder()
		m.playerState(w, req)

		var rsp playerStateRsp
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Playing).To(BeFalse())
		Expect(rsp.Duration).To(Equal(int64(10)))
		Expect(rsp.Unit).To(Equal("1ms"))
	})

	It("should return 404 for unknown players", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/player/ghost", nil)
		req = mux.SetURLVars(req, map[string]string{"name": "ghost"})

		w := httptest.NewRecorder()
		m.playerState(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should scrub a player", func() {
		req := httptest.NewRequest(http.MethodGet,
			"/api/player/main/scrub/10", nil)
		req = mux.SetURLVars(req,
			map[string]string{"name": "main", "time": "10"})

		w := httptest.NewRecorder()
		m.scrub(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(p.Playhead()).To(Equal(int64(10)))
	})

	It("should reject a malformed scrub time", func() {
		req := httptest.NewRequest(http.MethodGet,
			"/api/player/main/scrub/soon", nil)
		req = mux.SetURLVars(req,
			map[string]string{"name": "main", "time": "soon"})

		w := httptest.NewRecorder()
		m.scrub(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should serve timeline frames", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/timeline/main", nil)
		req = mux.SetURLVars(req, map[string]string{"name": "main"})

		w := httptest.NewRecorder()
		m.timelineFrames(w, req)

		var rsp []frameRsp
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(2))
		Expect(rsp[0].Time).To(Equal(int64(0)))
		Expect(rsp[1].Time).To(Equal(int64(10)))
	})
})

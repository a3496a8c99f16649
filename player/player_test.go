package player

import (
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/playline/timeline"
)

// triggerRecorder builds events that record the order they fire in.
type triggerRecorder struct {
	mu    sync.Mutex
	names []string
}

func (r *triggerRecorder) event(name string) timeline.Event {
	return timeline.NewEventFunc(func() error {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.names = append(r.names, name)

		return nil
	})
}

func (r *triggerRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.names))
	copy(names, r.names)

	return names
}

// playbackWatcher observes playback hook invocations.
type playbackWatcher struct {
	mu          sync.Mutex
	finished    chan struct{}
	finishOnce  sync.Once
	pausedCount int
	playheads   []int64
}

func newPlaybackWatcher() *playbackWatcher {
	return &playbackWatcher{finished: make(chan struct{})}
}

func (w *playbackWatcher) Func(ctx timeline.HookCtx) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch ctx.Pos {
	case HookPosPlaybackFinished:
		w.finishOnce.Do(func() { close(w.finished) })
	case HookPosPlaybackPaused:
		w.pausedCount++
	case HookPosPlayheadUpdated:
		detail := ctx.Detail.(PlayheadDetail)
		w.playheads = append(w.playheads, detail.Playhead)
	}

	return nil
}

func (w *playbackWatcher) numPaused() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.pausedCount
}

var _ = Describe("Player", func() {
	var (
		tl       *timeline.Timeline
		recorder *triggerRecorder
	)

	BeforeEach(func() {
		tl = timeline.NewTimeline(timeline.Millisecond)
		recorder = &triggerRecorder{}
	})

	It("should play all events in order and pause at the end", func() {
		Expect(tl.AddEvent(0, recorder.event("a"))).To(Succeed())
		Expect(tl.AddEvent(10, recorder.event("b"))).To(Succeed())
		Expect(tl.AddEvent(20, recorder.event("c"))).To(Succeed())

		p := NewPlayer(tl)
		defer p.Close()

		watcher := newPlaybackWatcher()
		p.AcceptHook(watcher)

		Expect(p.Start()).To(Succeed())

		Eventually(watcher.finished).
			WithTimeout(2 * time.Second).
			Should(BeClosed())

		Expect(recorder.recorded()).To(Equal([]string{"a", "b", "c"}))
		Expect(p.IsPlaying()).To(BeFalse())
		Expect(p.Playhead()).To(Equal(int64(20)))
		Expect(p.Latency()).To(Equal(time.Duration(0)))
	})

	It("should fire same-time events in insertion order", func() {
		Expect(tl.AddEvent(2, recorder.event("a"))).To(Succeed())
		Expect(tl.AddEvent(2, recorder.event("b"))).To(Succeed())
		Expect(tl.AddEvent(2, recorder.event("c"))).To(Succeed())

		p := NewPlayer(tl)
		defer p.Close()

		watcher := newPlaybackWatcher()
		p.AcceptHook(watcher)

		Expect(p.Start()).To(Succeed())

		Eventually(watcher.finished).
			WithTimeout(2 * time.Second).
			Should(BeClosed())

		Expect(recorder.recorded()).To(Equal([]string{"a", "b", "c"}))
	})

	It("should finish immediately on an empty timeline", func() {
		p := NewPlayer(tl)
		defer p.Close()

		watcher := newPlaybackWatcher()
		p.AcceptHook(watcher)

		Expect(p.Start()).To(Succeed())

		Eventually(watcher.finished).
			WithTimeout(2 * time.Second).
			Should(BeClosed())

		Expect(p.Playhead()).To(Equal(int64(0)))
		Expect(p.IsPlaying()).To(BeFalse())
	})

	It("should clamp the playhead when scrubbing", func() {
		Expect(tl.AddEvent(10, recorder.event("a"))).To(Succeed())

		p := NewPlayer(tl)
		defer p.Close()

		Expect(p.Scrub(-1)).To(Succeed())
		Expect(p.Playhead()).To(Equal(int64(0)))

		Expect(p.Scrub(100)).To(Succeed())
		Expect(p.Playhead()).To(Equal(int64(10)))

		Expect(p.Scrub(4)).To(Succeed())
		Expect(p.Playhead()).To(Equal(int64(4)))
	})

	It("should replay events at or after a scrubbed position", func() {
		Expect(tl.AddEvent(0, recorder.event("a"))).To(Succeed())
		Expect(tl.AddEvent(5, recorder.event("b"))).To(Succeed())

		p := NewPlayer(tl)
		defer p.Close()

		watcher := newPlaybackWatcher()
		p.AcceptHook(watcher)

		Expect(p.Start()).To(Succeed())
		Eventually(watcher.finished).
			WithTimeout(2 * time.Second).
			Should(BeClosed())

		Expect(p.Scrub(5)).To(Succeed())
		Expect(p.Play()).To(Succeed())

		Eventually(recorder.recorded).
			WithTimeout(2 * time.Second).
			Should(Equal([]string{"a", "b", "b"}))
	})

	It("should forbid timeline mutation during playback", func() {
		Expect(tl.AddEvent(0, recorder.event("a"))).To(Succeed())
		Expect(tl.AddEvent(5000, recorder.event("b"))).To(Succeed())

		p := NewPlayer(tl)
		defer p.Close()

		Expect(p.Play()).To(Succeed())
		Expect(p.IsPlaying()).To(BeTrue())

		err := tl.AddEvent(100, recorder.event("c"))
		Expect(errors.Is(err, timeline.ErrModificationForbidden)).
			To(BeTrue())

		Expect(p.Pause()).To(Succeed())

		Expect(tl.AddEvent(100, recorder.event("c"))).To(Succeed())
	})

	It("should not notify a pause when already paused", func() {
		p := NewPlayer(tl)
		defer p.Close()

		watcher := newPlaybackWatcher()
		p.AcceptHook(watcher)

		Expect(p.Pause()).To(Succeed())
		Expect(p.Pause()).To(Succeed())

		Expect(watcher.numPaused()).To(Equal(0))
	})

	It("should reject operations after close", func() {
		p := NewPlayer(tl)

		p.Close()
		p.Close()

		Expect(errors.Is(p.Play(), ErrPlayerClosed)).To(BeTrue())
		Expect(errors.Is(p.Pause(), ErrPlayerClosed)).To(BeTrue())
		Expect(errors.Is(p.Scrub(0), ErrPlayerClosed)).To(BeTrue())
		Expect(errors.Is(p.Start(), ErrPlayerClosed)).To(BeTrue())
	})

	It("should detach from the timeline on close", func() {
		Expect(tl.AddEvent(10, recorder.event("a"))).To(Succeed())

		p := NewPlayer(tl)
		p.Close()

		Expect(tl.AddEvent(20, recorder.event("b"))).To(Succeed())
	})

	It("should clamp the playhead when the timeline shrinks", func() {
		Expect(tl.AddEvent(10, recorder.event("a"))).To(Succeed())
		Expect(tl.AddEvent(50, recorder.event("b"))).To(Succeed())

		p := NewPlayer(tl)
		defer p.Close()

		Expect(p.Scrub(50)).To(Succeed())

		Expect(tl.RemoveAt(50)).To(Succeed())

		Expect(p.Playhead()).To(Equal(int64(10)))
	})
})

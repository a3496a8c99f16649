package timeline

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

// recordingHook collects the positions it is invoked at.
type recordingHook struct {
	positions []string
}

func (h *recordingHook) Func(ctx HookCtx) error {
	h.positions = append(h.positions, ctx.Pos.Name)
	return nil
}

var _ = Describe("Timeline", func() {
	var (
		mockCtrl   *gomock.Controller
		tl         *Timeline
		e1, e2, e3 *MockEvent
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		tl = NewTimeline(Millisecond)
		e1 = NewMockEvent(mockCtrl)
		e2 = NewMockEvent(mockCtrl)
		e3 = NewMockEvent(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should keep frames sorted by time", func() {
		Expect(tl.AddEvent(5, e1)).To(Succeed())
		Expect(tl.AddEvent(0, e2)).To(Succeed())
		Expect(tl.AddEvent(3, e3)).To(Succeed())

		frames := tl.Frames()
		Expect(frames).To(HaveLen(3))
		Expect(frames[0].Time()).To(Equal(int64(0)))
		Expect(frames[1].Time()).To(Equal(int64(3)))
		Expect(frames[2].Time()).To(Equal(int64(5)))
	})

	It("should keep insertion order for equal times", func() {
		Expect(tl.AddEvent(5, e1)).To(Succeed())
		Expect(tl.AddEvent(5, e2)).To(Succeed())

		events := tl.GetAll(5)
		Expect(events).To(HaveLen(2))
		Expect(events[0]).To(BeIdenticalTo(e1))
		Expect(events[1]).To(BeIdenticalTo(e2))

		first, ok := tl.Get(5)
		Expect(ok).To(BeTrue())
		Expect(first).To(BeIdenticalTo(e1))
	})

	It("should reject a nil event", func() {
		Expect(tl.AddEvent(0, nil)).NotTo(Succeed())
		Expect(tl.IsEmpty()).To(BeTrue())
	})

	It("should reject a negative timestamp", func() {
		Expect(tl.AddEvent(-1, e1)).NotTo(Succeed())
		Expect(tl.IsEmpty()).To(BeTrue())
	})

	It("should report the duration as the time of the last event", func() {
		Expect(tl.Duration()).To(Equal(int64(0)))

		Expect(tl.AddEvent(10, e1)).To(Succeed())
		Expect(tl.AddEvent(4, e2)).To(Succeed())

		Expect(tl.Duration()).To(Equal(int64(10)))
	})

	It("should answer reads on an empty timeline as absent", func() {
		_, ok := tl.Get(3)
		Expect(ok).To(BeFalse())
		Expect(tl.GetAll(3)).To(BeEmpty())
		Expect(tl.ExistsAt(3)).To(BeFalse())
		Expect(tl.Contains(e1)).To(BeFalse())
		Expect(tl.CountAt(3)).To(Equal(0))
	})

	It("should remove the first occurrence of an event", func() {
		Expect(tl.AddEvent(2, e1)).To(Succeed())
		Expect(tl.AddEvent(4, e1)).To(Succeed())

		Expect(tl.RemoveEvent(e1)).To(Succeed())

		Expect(tl.ExistsAt(2)).To(BeFalse())
		Expect(tl.ExistsAt(4)).To(BeTrue())
	})

	It("should do nothing when removing an absent event", func() {
		Expect(tl.AddEvent(2, e1)).To(Succeed())

		Expect(tl.RemoveEvent(e2)).To(Succeed())
		Expect(tl.RemoveAt(7)).To(Succeed())
		Expect(tl.RemoveEvent(nil)).To(Succeed())

		Expect(tl.Count()).To(Equal(1))
	})

	It("should remove all events at a timestamp", func() {
		Expect(tl.AddEvent(2, e1)).To(Succeed())
		Expect(tl.AddEvent(2, e2)).To(Succeed())
		Expect(tl.AddEvent(5, e3)).To(Succeed())

		Expect(tl.RemoveAll(2)).To(Succeed())

		Expect(tl.ExistsAt(2)).To(BeFalse())
		Expect(tl.Count()).To(Equal(1))
	})

	It("should shrink the duration when the last event is removed", func() {
		Expect(tl.AddEvent(2, e1)).To(Succeed())
		Expect(tl.AddEvent(9, e2)).To(Succeed())

		Expect(tl.RemoveAt(9)).To(Succeed())

		Expect(tl.Duration()).To(Equal(int64(2)))
	})

	It("should delay events at or after an occupied insert time", func() {
		Expect(tl.AddEvent(0, e1)).To(Succeed())
		Expect(tl.AddEvent(10, e2)).To(Succeed())
		Expect(tl.AddEvent(20, e3)).To(Succeed())

		inserted := NewMockEvent(mockCtrl)
		Expect(tl.Insert(10, 5, inserted)).To(Succeed())

		t, err := tl.TimeOf(e1)
		Expect(err).ToNot(HaveOccurred())
		Expect(t).To(Equal(int64(0)))

		t, err = tl.TimeOf(inserted)
		Expect(err).ToNot(HaveOccurred())
		Expect(t).To(Equal(int64(10)))

		t, err = tl.TimeOf(e2)
		Expect(err).ToNot(HaveOccurred())
		Expect(t).To(Equal(int64(15)))

		t, err = tl.TimeOf(e3)
		Expect(err).ToNot(HaveOccurred())
		Expect(t).To(Equal(int64(25)))
	})

	It("should insert plainly at an unoccupied time", func() {
		Expect(tl.AddEvent(10, e1)).To(Succeed())

		Expect(tl.Insert(5, 100, e2)).To(Succeed())

		t, err := tl.TimeOf(e1)
		Expect(err).ToNot(HaveOccurred())
		Expect(t).To(Equal(int64(10)))
	})

	It("should reject a negative delay interval", func() {
		Expect(tl.AddEvent(10, e1)).To(Succeed())

		Expect(tl.InsertAndDelay(10, -1, e2)).NotTo(Succeed())
		Expect(tl.Count()).To(Equal(1))
	})

	It("should shift a frame to a new time", func() {
		Expect(tl.AddEvent(4, e1)).To(Succeed())
		Expect(tl.AddEvent(8, e2)).To(Succeed())

		frame := tl.Frames()[0]
		Expect(tl.Shift(frame, 12)).To(Succeed())

		Expect(frame.Time()).To(Equal(int64(12)))
		Expect(tl.Duration()).To(Equal(int64(12)))
		Expect(tl.Frames()[0].Event()).To(BeIdenticalTo(e2))
	})

	It("should refuse to shift a frame of another timeline", func() {
		other := NewTimeline(Millisecond)
		Expect(other.AddEvent(4, e1)).To(Succeed())

		err := tl.Shift(other.Frames()[0], 10)
		Expect(errors.Is(err, ErrNotOwned)).To(BeTrue())
	})

	It("should look up events approximately by step", func() {
		Expect(tl.AddEvent(0, e1)).To(Succeed())
		Expect(tl.AddEvent(12, e2)).To(Succeed())
		Expect(tl.AddEvent(26, e3)).To(Succeed())

		Expect(tl.GetApprox(0, 10)).To(ConsistOf(e1))
		Expect(tl.GetApprox(1, 10)).To(ConsistOf(e2))
		Expect(tl.GetApprox(3, 10)).To(ConsistOf(e3))
		Expect(tl.GetApprox(2, 10)).To(BeEmpty())
	})

	It("should allow a hook to veto a mutation", func() {
		Expect(tl.AddEvent(3, e1)).To(Succeed())

		hook := NewMockHook(mockCtrl)
		hook.EXPECT().
			Func(gomock.Any()).
			Return(errors.New("playback in progress")).
			Times(2)
		tl.AcceptHook(hook)

		err := tl.AddEvent(5, e2)
		Expect(errors.Is(err, ErrModificationForbidden)).To(BeTrue())
		Expect(tl.Count()).To(Equal(1))

		err = tl.Clear()
		Expect(err).To(HaveOccurred())

		tl.RemoveHook(hook)
		Expect(tl.AddEvent(5, e2)).To(Succeed())
	})

	It("should notify hooks in mutation order", func() {
		hook := &recordingHook{}
		tl.AcceptHook(hook)

		Expect(tl.AddEvent(5, e1)).To(Succeed())

		Expect(hook.positions).To(Equal([]string{
			"BeforeChange",
			"DurationChanged", "Changed",
			"EventAdded", "Changed",
		}))
	})

	It("should notify a clear without per-frame removals", func() {
		Expect(tl.AddEvent(5, e1)).To(Succeed())
		Expect(tl.AddEvent(9, e2)).To(Succeed())

		hook := &recordingHook{}
		tl.AcceptHook(hook)

		Expect(tl.Clear()).To(Succeed())

		Expect(tl.IsEmpty()).To(BeTrue())
		Expect(tl.Duration()).To(Equal(int64(0)))
		Expect(hook.positions).To(Equal([]string{
			"BeforeChange",
			"DurationChanged", "Changed",
			"Cleared", "Changed",
		}))
	})

	It("should copy into an equal timeline with distinct frames", func() {
		Expect(tl.AddEvent(5, e1)).To(Succeed())
		Expect(tl.AddEvent(9, e2)).To(Succeed())

		cp := NewTimelineFrom(tl)

		Expect(cp.Equals(tl)).To(BeTrue())
		Expect(cp.Frames()[0]).NotTo(BeIdenticalTo(tl.Frames()[0]))
		Expect(cp.Frames()[0].Event()).To(BeIdenticalTo(e1))
	})

	It("should report an error for the time of an absent event", func() {
		_, err := tl.TimeOf(e1)
		Expect(errors.Is(err, ErrNoSuchEvent)).To(BeTrue())
	})

	It("should veto bracketed in-place event modification", func() {
		Expect(tl.AddEvent(3, e1)).To(Succeed())

		hook := NewMockHook(mockCtrl)
		hook.EXPECT().
			Func(gomock.Any()).
			Return(errors.New("playback in progress"))
		tl.AcceptHook(hook)

		err := tl.NotifyBeforeEventModified(3, e1)
		Expect(errors.Is(err, ErrModificationForbidden)).To(BeTrue())
	})
})

var _ = Describe("TimelineSet", func() {
	var (
		mockCtrl *gomock.Controller
		set      *TimelineSet
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		set = NewTimelineSet(Millisecond)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should reject a second event at an occupied time", func() {
		e1 := NewMockEvent(mockCtrl)
		e2 := NewMockEvent(mockCtrl)

		Expect(set.AddEvent(5, e1)).To(Succeed())

		err := set.AddEvent(5, e2)
		Expect(errors.Is(err, ErrTimestampOccupied)).To(BeTrue())

		event, ok := set.Get(5)
		Expect(ok).To(BeTrue())
		Expect(event).To(BeIdenticalTo(e1))
	})

	It("should accept events at distinct times", func() {
		e1 := NewMockEvent(mockCtrl)
		e2 := NewMockEvent(mockCtrl)

		Expect(set.AddEvent(5, e1)).To(Succeed())
		Expect(set.AddEvent(6, e2)).To(Succeed())

		Expect(set.Count()).To(Equal(2))
	})
})

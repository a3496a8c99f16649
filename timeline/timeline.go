package timeline

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// A Timeline is a playable, chronologically ordered collection of events,
// each placed at a specific time along the timeline.
//
// A timeline has no background activity of its own. Structural mutations are
// gated by the BeforeChange hook position, which an attached player uses to
// forbid modification during playback.
type Timeline struct {
	HookableBase

	unit   Unit
	frames []*Frame

	// unique forbids more than one event per timestamp.
	unique bool
}

// NewTimeline creates a timeline that runs at the given unit. The unit must
// be positive.
func NewTimeline(unit Unit) *Timeline {
	unit.Period()

	t := &Timeline{unit: unit}
	t.Hooks = make([]Hook, 0)

	return t
}

// NewTimelineFrom creates a shallow copy of the given timeline. The copy
// holds its own frames, but the events they refer to are shared.
func NewTimelineFrom(o *Timeline) *Timeline {
	t := &Timeline{unit: o.unit, unique: o.unique}
	t.Hooks = make([]Hook, 0)

	for _, f := range o.frames {
		t.frames = append(t.frames, newFrame(f.time, f.event))
	}

	return t
}

// Unit returns the granularity at which the timeline runs.
func (t *Timeline) Unit() Unit {
	return t.unit
}

// AddEvent places an event on the timeline at the given time.
func (t *Timeline) AddEvent(time int64, event Event) error {
	if event == nil {
		return fmt.Errorf("cannot add a nil event to the timeline")
	}

	if time < 0 {
		return fmt.Errorf("cannot add an event at a negative timestamp")
	}

	if t.unique && t.ExistsAt(time) {
		return fmt.Errorf("%w: %d", ErrTimestampOccupied, time)
	}

	if err := t.notifyBeforeChange(); err != nil {
		return err
	}

	oldDuration := t.Duration()

	t.frames = append(t.frames, newFrame(time, event))
	t.sortFrames()

	if t.Duration() > oldDuration {
		t.notifyDurationChanged(oldDuration)
	}

	t.notifyEventAdded(time, event)

	return nil
}

// RemoveEvent removes the first occurrence of the given event from the
// timeline, if present. Events are matched by identity. Removing an absent
// event has no effect.
func (t *Timeline) RemoveEvent(event Event) error {
	if event == nil {
		return nil
	}

	return t.removeIf(func(f *Frame) bool { return f.event == event }, false)
}

// RemoveAt removes the first event at the given timestamp, if present.
func (t *Timeline) RemoveAt(timestamp int64) error {
	if timestamp < 0 || timestamp > t.Duration() {
		return nil
	}

	return t.removeIf(func(f *Frame) bool { return f.time == timestamp }, false)
}

// RemoveAll removes all events at the given timestamp, if present.
func (t *Timeline) RemoveAll(timestamp int64) error {
	if timestamp < 0 || timestamp > t.Duration() {
		return nil
	}

	return t.removeIf(func(f *Frame) bool { return f.time == timestamp }, true)
}

func (t *Timeline) removeIf(
	condition func(f *Frame) bool,
	removeAll bool,
) error {
	if err := t.notifyBeforeChange(); err != nil {
		return err
	}

	oldDuration := t.Duration()
	removed := false

	for i := 0; i < len(t.frames); i++ {
		f := t.frames[i]
		if !condition(f) {
			continue
		}

		t.frames = append(t.frames[:i], t.frames[i+1:]...)
		i--
		removed = true

		t.notifyEventRemoved(f.time, f.event)

		if !removeAll {
			break
		}
	}

	if removed && t.Duration() < oldDuration {
		t.notifyDurationChanged(oldDuration)
	}

	return nil
}

// Insert places an event on the timeline at the given time. If an event is
// already scheduled at that time, all events at or after it are first
// delayed by the given interval.
func (t *Timeline) Insert(time, interval int64, event Event) error {
	if t.ExistsAt(time) {
		return t.InsertAndDelay(time, interval, event)
	}

	return t.AddEvent(time, event)
}

// InsertAndDelay places an event on the timeline at the given time,
// unconditionally delaying all events at or after that time by the given
// interval.
func (t *Timeline) InsertAndDelay(time, interval int64, event Event) error {
	if event == nil {
		return fmt.Errorf("cannot add a nil event to the timeline")
	}

	if time < 0 {
		return fmt.Errorf("cannot add an event at a negative timestamp")
	}

	if interval < 0 {
		return fmt.Errorf("cannot delay events by a negative interval")
	}

	if err := t.notifyBeforeChange(); err != nil {
		return err
	}

	oldDuration := t.Duration()

	for _, f := range t.frames {
		if f.time < time {
			continue
		}

		oldTime := f.time
		f.setTime(oldTime + interval)
		t.notifyEventShifted(oldTime, f.time, f.event)
	}

	if t.Duration() > oldDuration {
		t.notifyDurationChanged(oldDuration)
	}

	t.notifyEventInserted(time, interval)

	return t.AddEvent(time, event)
}

// Shift moves a frame of this timeline to a new timestamp.
func (t *Timeline) Shift(frame *Frame, time int64) error {
	if frame == nil {
		return fmt.Errorf("cannot shift a nil frame")
	}

	if !t.owns(frame) {
		return ErrNotOwned
	}

	if time < 0 {
		return fmt.Errorf("cannot shift a frame to a negative timestamp")
	}

	if err := t.notifyBeforeChange(); err != nil {
		return err
	}

	oldTime := frame.time
	oldDuration := t.Duration()

	frame.setTime(time)
	t.sortFrames()

	t.notifyEventShifted(oldTime, time, frame.event)

	if t.Duration() != oldDuration {
		t.notifyDurationChanged(oldDuration)
	} else {
		t.notifyChanged()
	}

	return nil
}

// scale multiplies the timestamp of every frame by the given factor,
// rounding half away from zero. Scaling down may place several frames at the
// same timestamp; resolving such collisions is up to the caller.
func (t *Timeline) scale(factor float64) error {
	if factor <= 0 {
		return fmt.Errorf("scale factor must be positive")
	}

	if factor == 1 {
		return nil
	}

	if err := t.notifyBeforeChange(); err != nil {
		return err
	}

	oldDuration := t.Duration()

	for _, f := range t.frames {
		oldTime := f.time
		f.setTime(int64(math.Round(float64(oldTime) * factor)))
		t.notifyEventShifted(oldTime, f.time, f.event)
	}

	if t.Duration() != oldDuration {
		t.notifyDurationChanged(oldDuration)
	} else {
		t.notifyChanged()
	}

	return nil
}

// replaceEvent swaps the event held by a frame of this timeline.
func (t *Timeline) replaceEvent(frame *Frame, event Event) error {
	if frame == nil || event == nil {
		return fmt.Errorf("frame and event must not be nil")
	}

	if !t.owns(frame) {
		return ErrNotOwned
	}

	if err := t.NotifyBeforeEventModified(frame.time, frame.event); err != nil {
		return err
	}

	frame.setEvent(event)

	t.NotifyEventModified(frame.time, event)

	return nil
}

// Clear removes all events from the timeline. Hooks are notified that the
// timeline was cleared and changed, but not of each individual removal.
func (t *Timeline) Clear() error {
	if t.IsEmpty() {
		return nil
	}

	if err := t.notifyBeforeChange(); err != nil {
		return err
	}

	oldDuration := t.Duration()

	t.frames = nil

	t.notifyDurationChanged(oldDuration)
	t.notifyCleared()

	return nil
}

// Get retrieves the first event placed at the given timestamp. If multiple
// events share the timestamp, the one added first is returned.
func (t *Timeline) Get(timestamp int64) (Event, bool) {
	for _, f := range t.frames {
		if f.time == timestamp {
			return f.event, true
		}
	}

	return nil, false
}

// GetAll retrieves all events placed at the given timestamp, in insertion
// order.
func (t *Timeline) GetAll(timestamp int64) []Event {
	var events []Event

	for _, f := range t.frames {
		if f.time == timestamp {
			events = append(events, f.event)
		}
	}

	return events
}

// GetApprox divides the timeline into steps of the given size and retrieves
// all events placed at approximately the given step. It can be used to
// display events at a lower fidelity than they are played at.
func (t *Timeline) GetApprox(step, size int64) []Event {
	var events []Event

	for _, f := range t.frames {
		approxStep := int64(math.Round(float64(f.time) / float64(size)))
		if approxStep == step {
			events = append(events, f.event)
		}
	}

	return events
}

// ExistsAt reports whether at least one event is placed at the given
// timestamp.
func (t *Timeline) ExistsAt(timestamp int64) bool {
	for _, f := range t.frames {
		if f.time == timestamp {
			return true
		}
	}

	return false
}

// Contains reports whether the given event is placed on the timeline.
func (t *Timeline) Contains(event Event) bool {
	if event == nil {
		return false
	}

	for _, f := range t.frames {
		if f.event == event {
			return true
		}
	}

	return false
}

// TimeOf retrieves the timestamp of the earliest occurrence of the given
// event on the timeline.
func (t *Timeline) TimeOf(event Event) (int64, error) {
	if event == nil {
		return 0, fmt.Errorf("cannot look up a nil event")
	}

	for _, f := range t.frames {
		if f.event == event {
			return f.time, nil
		}
	}

	return 0, ErrNoSuchEvent
}

// Frames returns a chronological list of all frames on the timeline. The
// returned slice is a copy; the frames it holds are the timeline's own.
func (t *Timeline) Frames() []*Frame {
	frames := make([]*Frame, len(t.frames))
	copy(frames, t.frames)

	return frames
}

// FramesFrom returns the frames placed at or after the given time, in
// chronological order.
func (t *Timeline) FramesFrom(time int64) []*Frame {
	return t.Frames()[t.indexAt(time):]
}

// indexAt returns the index of the first frame placed at or after the given
// time.
func (t *Timeline) indexAt(time int64) int {
	return sort.Search(len(t.frames), func(i int) bool {
		return t.frames[i].time >= time
	})
}

// Duration returns the timestamp of the last event, or 0 if the timeline is
// empty.
func (t *Timeline) Duration() int64 {
	if len(t.frames) == 0 {
		return 0
	}

	return t.frames[len(t.frames)-1].time
}

// Count returns the number of events on the timeline.
func (t *Timeline) Count() int {
	return len(t.frames)
}

// CountAt returns the number of events at the given timestamp.
func (t *Timeline) CountAt(timestamp int64) int {
	count := 0

	for _, f := range t.frames {
		if f.time == timestamp {
			count++
		}
	}

	return count
}

// IsEmpty reports whether the timeline contains no events.
func (t *Timeline) IsEmpty() bool {
	return len(t.frames) == 0
}

// Equals reports whether the other timeline runs at the same unit and holds
// equal frames in the same order.
func (t *Timeline) Equals(o *Timeline) bool {
	if o == nil {
		return false
	}

	if t.unit != o.unit || len(t.frames) != len(o.frames) {
		return false
	}

	for i, f := range t.frames {
		if !f.Equals(o.frames[i]) {
			return false
		}
	}

	return true
}

func (t *Timeline) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Timeline with duration %d x %v:", t.Duration(), t.unit)
	for _, f := range t.frames {
		fmt.Fprintf(&b, "\n\t%d x %v: %v", f.time, t.unit, f.event)
	}

	return b.String()
}

func (t *Timeline) owns(frame *Frame) bool {
	for _, f := range t.frames {
		if f == frame {
			return true
		}
	}

	return false
}

func (t *Timeline) sortFrames() {
	sort.SliceStable(t.frames, func(i, j int) bool {
		return t.frames[i].time < t.frames[j].time
	})
}

// Hook notification. Each post-mutation notification ends with a generic
// Changed invocation, mirroring the order mutations report their effects.

func (t *Timeline) notifyBeforeChange() error {
	err := t.InvokeVetoableHook(HookCtx{
		Domain: t,
		Pos:    HookPosBeforeChange,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModificationForbidden, err)
	}

	return nil
}

func (t *Timeline) notifyChanged() {
	t.InvokeHook(HookCtx{
		Domain: t,
		Pos:    HookPosChanged,
	})
}

func (t *Timeline) notifyEventAdded(time int64, event Event) {
	t.InvokeHook(HookCtx{
		Domain: t,
		Pos:    HookPosEventAdded,
		Item:   event,
		Detail: AddDetail{Time: time},
	})
	t.notifyChanged()
}

func (t *Timeline) notifyEventInserted(time, interval int64) {
	t.InvokeHook(HookCtx{
		Domain: t,
		Pos:    HookPosEventInserted,
		Detail: InsertDetail{Time: time, Interval: interval},
	})
	t.notifyChanged()
}

func (t *Timeline) notifyEventRemoved(time int64, event Event) {
	t.InvokeHook(HookCtx{
		Domain: t,
		Pos:    HookPosEventRemoved,
		Item:   event,
		Detail: RemoveDetail{Time: time},
	})
	t.notifyChanged()
}

func (t *Timeline) notifyEventShifted(oldTime, newTime int64, event Event) {
	t.InvokeHook(HookCtx{
		Domain: t,
		Pos:    HookPosEventShifted,
		Item:   event,
		Detail: ShiftDetail{OldTime: oldTime, NewTime: newTime},
	})
}

func (t *Timeline) notifyDurationChanged(oldDuration int64) {
	t.InvokeHook(HookCtx{
		Domain: t,
		Pos:    HookPosDurationChanged,
		Detail: DurationDetail{
			OldDuration: oldDuration,
			NewDuration: t.Duration(),
		},
	})
	t.notifyChanged()
}

func (t *Timeline) notifyCleared() {
	t.InvokeHook(HookCtx{
		Domain: t,
		Pos:    HookPosCleared,
	})
	t.notifyChanged()
}

// NotifyBeforeEventModified must be called by any external code that is
// about to modify an event retrieved from this timeline, so that hooks can
// respond to the change. A non-nil error means a hook vetoed the
// modification.
func (t *Timeline) NotifyBeforeEventModified(time int64, event Event) error {
	err := t.InvokeVetoableHook(HookCtx{
		Domain: t,
		Pos:    HookPosBeforeEventModified,
		Item:   event,
		Detail: ModifyDetail{Time: time},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModificationForbidden, err)
	}

	return t.notifyBeforeChange()
}

// NotifyEventModified must be called by any external code that modified an
// event retrieved from this timeline.
func (t *Timeline) NotifyEventModified(time int64, event Event) {
	t.InvokeHook(HookCtx{
		Domain: t,
		Pos:    HookPosEventModified,
		Item:   event,
		Detail: ModifyDetail{Time: time},
	})
	t.notifyChanged()
}

package timeline

import "fmt"

// A MergeFunc resolves a timestamp collision between two events, returning
// the event to keep. The first argument is the event placed earlier.
type MergeFunc func(a, b Event) Event

// A TimelineMap is a timeline that holds at most one event per timestamp and
// supports in-place replacement and timestamp scaling.
type TimelineMap struct {
	*Timeline
}

// NewTimelineMap creates a timeline map that runs at the given unit.
func NewTimelineMap(unit Unit) *TimelineMap {
	t := NewTimeline(unit)
	t.unique = true

	return &TimelineMap{Timeline: t}
}

// NewTimelineMapFrom creates a shallow copy of the given timeline map. The
// copy holds its own frames, but the events they refer to are shared.
func NewTimelineMapFrom(o *TimelineMap) *TimelineMap {
	return &TimelineMap{Timeline: NewTimelineFrom(o.Timeline)}
}

// ReplaceEvent replaces the event at the given time, only if an event is
// currently placed there.
func (t *TimelineMap) ReplaceEvent(time int64, event Event) error {
	if event == nil {
		return fmt.Errorf("cannot place a nil event on the timeline")
	}

	for _, f := range t.frames {
		if f.time == time {
			return t.replaceEvent(f, event)
		}
	}

	return nil
}

// Scale multiplies the timestamp of every event by the given factor,
// rounding half away from zero. Scaling down may cause collisions between
// the resulting timestamps; all but the earliest-placed event at each
// colliding timestamp are permanently removed. Use ScaleMerge to resolve
// collisions differently.
func (t *TimelineMap) Scale(factor float64) error {
	return t.ScaleMerge(factor, func(a, _ Event) Event { return a })
}

// ScaleMerge multiplies the timestamp of every event by the given factor,
// resolving timestamp collisions with the given merge function.
func (t *TimelineMap) ScaleMerge(factor float64, merge MergeFunc) error {
	if merge == nil {
		return fmt.Errorf("merge function must not be nil")
	}

	if err := t.scale(factor); err != nil {
		return err
	}

	// Find colliding timestamps and pick the surviving event for each.
	merged := make(map[int64]Event)
	conflicted := make(map[int64]bool)

	for _, f := range t.frames {
		if existing, ok := merged[f.time]; ok {
			merged[f.time] = merge(existing, f.event)
			conflicted[f.time] = true
		} else {
			merged[f.time] = f.event
		}
	}

	for time := range conflicted {
		if err := t.RemoveAll(time); err != nil {
			return err
		}

		if err := t.AddEvent(time, merged[time]); err != nil {
			return err
		}
	}

	return nil
}

// ToMap returns a map representation of the timeline, with each event keyed
// by its timestamp. Iterate Frames or Timestamps for chronological order.
func (t *TimelineMap) ToMap() map[int64]Event {
	m := make(map[int64]Event, len(t.frames))

	for _, f := range t.frames {
		m[f.time] = f.event
	}

	return m
}

// Timestamps returns the timestamp of every event, in chronological order.
func (t *TimelineMap) Timestamps() []int64 {
	times := make([]int64, 0, len(t.frames))

	for _, f := range t.frames {
		times = append(times, f.time)
	}

	return times
}

package timeline

// A TimelineSet is a timeline that holds at most one event per timestamp.
// Adding a second event at an occupied timestamp fails with
// ErrTimestampOccupied.
type TimelineSet struct {
	*Timeline
}

// NewTimelineSet creates a timeline set that runs at the given unit.
func NewTimelineSet(unit Unit) *TimelineSet {
	t := NewTimeline(unit)
	t.unique = true

	return &TimelineSet{Timeline: t}
}

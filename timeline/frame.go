package timeline

// A Frame is an event placed on a timeline at a specific time. Frames are
// created and owned by a Timeline; their time is only changed through
// timeline operations that keep the collection sorted.
type Frame struct {
	time  int64
	event Event
}

func newFrame(time int64, event Event) *Frame {
	return &Frame{time: time, event: event}
}

// Time returns the time at which the event fires, in the owning timeline's
// unit.
func (f *Frame) Time() int64 {
	return f.time
}

// Event returns the event to be triggered.
func (f *Frame) Event() Event {
	return f.event
}

func (f *Frame) setTime(time int64) {
	f.time = time
}

func (f *Frame) setEvent(event Event) {
	f.event = event
}

// Equals reports whether the other frame holds the same event at the same
// time. Events are compared by identity.
func (f *Frame) Equals(o *Frame) bool {
	if o == nil {
		return false
	}
	return f.time == o.time && f.event == o.event
}

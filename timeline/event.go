package timeline

// An Event is something that can be triggered when the playhead reaches its
// position on a timeline.
type Event interface {
	// Trigger fires the event. It is called within the player's worker
	// goroutine, so any long operation that may delay playback must be
	// executed in another goroutine.
	Trigger() error
}

// A ContextualEvent is an event that requires an external context value to
// trigger. It is fired by a contextual player, which supplies the context at
// trigger time.
type ContextualEvent interface {
	Event

	// TriggerWithContext fires the event with the given context value.
	TriggerWithContext(context any) error
}

// ContextualEventBase provides the context-free Trigger for events that can
// only fire with a context. Types that embed it only need to implement
// TriggerWithContext.
type ContextualEventBase struct{}

// Trigger fails with ErrContextRequired. Use a contextual player to fire the
// event instead.
func (ContextualEventBase) Trigger() error {
	return ErrContextRequired
}

type eventFunc struct {
	f func() error
}

// NewEventFunc wraps a function as an Event. The returned value is a pointer
// so that the event can be identified on a timeline.
func NewEventFunc(f func() error) Event {
	return &eventFunc{f: f}
}

func (e *eventFunc) Trigger() error {
	return e.f()
}

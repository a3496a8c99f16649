package timeline

import "errors"

// ErrModificationForbidden is returned when a hook vetoes a structural
// mutation, e.g. an attached player during active playback.
var ErrModificationForbidden = errors.New(
	"timeline modification forbidden")

// ErrTimestampOccupied is returned by unique timelines when adding a second
// event at an occupied timestamp.
var ErrTimestampOccupied = errors.New(
	"cannot add more than one event at the same timestamp")

// ErrContextRequired is returned when a contextual event is triggered
// without a context.
var ErrContextRequired = errors.New(
	"event requires a context to trigger, use a contextual player")

// ErrNotOwned is returned when a frame passed to a timeline operation does
// not belong to that timeline.
var ErrNotOwned = errors.New("frame is not owned by this timeline")

// ErrNoSuchEvent is returned when looking up the time of an event that is
// not placed on the timeline.
var ErrNoSuchEvent = errors.New("event is not placed on the timeline")

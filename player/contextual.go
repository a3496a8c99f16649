package player

import "github.com/sarchlab/playline/timeline"

// NewContextualPlayer creates a player that injects the given context value
// into each contextual event at trigger time. Events that do not accept a
// context are triggered plainly.
func NewContextualPlayer(tl *timeline.Timeline, context any) *Player {
	return newPlayer(tl, func(e timeline.Event) error {
		if ce, ok := e.(timeline.ContextualEvent); ok {
			return ce.TriggerWithContext(context)
		}

		return e.Trigger()
	})
}

// NewPlayerWithTrigger creates a player that fires events with a custom
// trigger strategy.
func NewPlayerWithTrigger(
	tl *timeline.Timeline,
	trigger TriggerFunc,
) *Player {
	if trigger == nil {
		trigger = func(e timeline.Event) error { return e.Trigger() }
	}

	return newPlayer(tl, trigger)
}

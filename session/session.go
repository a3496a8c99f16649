// Package session wires the services of a playback application together: a
// recorder for playback traces, a monitor for external control, and named
// registries of timelines and players.
package session

import (
	"github.com/rs/xid"

	"github.com/sarchlab/playline/monitoring"
	"github.com/sarchlab/playline/player"
	"github.com/sarchlab/playline/recording"
	"github.com/sarchlab/playline/timeline"
)

// A Session provides the services required by a playback application.
type Session struct {
	id string

	recorder recording.Recorder
	monitor  *monitoring.Monitor

	timelines         []*timeline.Timeline
	timelineNameIndex map[string]int
	players           []*player.Player
	playerNameIndex   map[string]int
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string {
	return s.id
}

// Recorder returns the recorder used in the session, or nil if recording is
// disabled.
func (s *Session) Recorder() recording.Recorder {
	return s.recorder
}

// Monitor returns the monitor used in the session, or nil if monitoring is
// disabled.
func (s *Session) Monitor() *monitoring.Monitor {
	return s.monitor
}

// RegisterTimeline registers a timeline with the session.
func (s *Session) RegisterTimeline(name string, t *timeline.Timeline) {
	if _, ok := s.timelineNameIndex[name]; ok {
		panic("timeline " + name + " already registered")
	}

	s.timelines = append(s.timelines, t)
	s.timelineNameIndex[name] = len(s.timelines) - 1

	if s.monitor != nil {
		s.monitor.RegisterTimeline(name, t)
	}
}

// RegisterPlayer registers a player with the session. If recording is
// enabled, the player's playback is logged into the session's recorder.
func (s *Session) RegisterPlayer(name string, p *player.Player) {
	if _, ok := s.playerNameIndex[name]; ok {
		panic("player " + name + " already registered")
	}

	s.players = append(s.players, p)
	s.playerNameIndex[name] = len(s.players) - 1

	if s.monitor != nil {
		s.monitor.RegisterPlayer(name, p)
	}

	if s.recorder != nil {
		recording.NewPlaybackLogger(s.recorder, p)
	}
}

// TimelineByName returns the timeline registered under the given name.
func (s *Session) TimelineByName(name string) *timeline.Timeline {
	return s.timelines[s.timelineNameIndex[name]]
}

// PlayerByName returns the player registered under the given name.
func (s *Session) PlayerByName(name string) *player.Player {
	return s.players[s.playerNameIndex[name]]
}

// Terminate closes all the players of the session and the recorder.
func (s *Session) Terminate() {
	for _, p := range s.players {
		p.Close()
	}

	if s.recorder != nil {
		s.recorder.Close()
	}
}

func newSession() *Session {
	return &Session{
		id:                xid.New().String(),
		timelineNameIndex: make(map[string]int),
		playerNameIndex:   make(map[string]int),
	}
}

package recording

import (
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/playline/player"
	"github.com/sarchlab/playline/timeline"
)

// TriggerEntry is one recorded event trigger.
type TriggerEntry struct {
	PlayerID string
	Playhead int64
	Time     int64
	Event    string
	WallTime int64
}

// StateEntry is one recorded playback state change.
type StateEntry struct {
	PlayerID string
	State    string
	Playhead int64
	WallTime int64
}

// A PlaybackLogger is a playback hook that records every triggered event and
// playback state change of a player into a Recorder.
type PlaybackLogger struct {
	id       string
	recorder Recorder
}

// NewPlaybackLogger creates a playback logger writing into the given
// recorder and attaches it to the player.
func NewPlaybackLogger(recorder Recorder, p *player.Player) *PlaybackLogger {
	l := &PlaybackLogger{
		id:       xid.New().String(),
		recorder: recorder,
	}

	if !tableExists(recorder, "playback_triggers") {
		recorder.CreateTable("playback_triggers", TriggerEntry{})
		recorder.CreateTable("playback_states", StateEntry{})
	}

	p.AcceptHook(l)

	return l
}

// PlayerID returns the identifier under which this logger records.
func (l *PlaybackLogger) PlayerID() string {
	return l.id
}

// Func records playback hook invocations.
func (l *PlaybackLogger) Func(ctx timeline.HookCtx) error {
	now := time.Now().UnixNano()

	switch ctx.Pos {
	case player.HookPosEventTriggered:
		detail := ctx.Detail.(player.TriggerDetail)

		l.recorder.InsertData("playback_triggers", TriggerEntry{
			PlayerID: l.id,
			Playhead: detail.Playhead,
			Time:     detail.Time,
			Event:    fmt.Sprintf("%v", ctx.Item),
			WallTime: now,
		})
	case player.HookPosPlaybackStarted,
		player.HookPosPlaybackPaused,
		player.HookPosPlaybackFinished:
		p := ctx.Domain.(*player.Player)

		l.recorder.InsertData("playback_states", StateEntry{
			PlayerID: l.id,
			State:    ctx.Pos.Name,
			Playhead: p.Playhead(),
			WallTime: now,
		})
	}

	return nil
}

func tableExists(recorder Recorder, name string) bool {
	for _, table := range recorder.ListTables() {
		if table == name {
			return true
		}
	}

	return false
}

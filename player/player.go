// Package player implements real-time playback of timelines. A player owns a
// background worker that advances a playhead at the timeline's unit and
// triggers each event when the playhead reaches its position.
package player

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sarchlab/playline/timeline"
)

// ErrPlayerClosed is returned when operating on a player that has been
// closed.
var ErrPlayerClosed = errors.New("player is closed")

// HookPosPlayheadUpdated triggers after each tick with the current playhead
// position.
var HookPosPlayheadUpdated = &timeline.HookPos{Name: "PlayheadUpdated"}

// HookPosPlaybackStarted triggers when playback starts.
var HookPosPlaybackStarted = &timeline.HookPos{Name: "PlaybackStarted"}

// HookPosPlaybackPaused triggers when playback is paused or stopped.
var HookPosPlaybackPaused = &timeline.HookPos{Name: "PlaybackPaused"}

// HookPosPlaybackFinished triggers when playback reaches the end of the
// timeline.
var HookPosPlaybackFinished = &timeline.HookPos{Name: "PlaybackFinished"}

// HookPosEventTriggered triggers after the player fires an event.
var HookPosEventTriggered = &timeline.HookPos{Name: "EventTriggered"}

// PlayheadDetail carries the information of a PlayheadUpdated invocation.
type PlayheadDetail struct {
	Playhead int64
}

// TriggerDetail carries the information of an EventTriggered invocation.
type TriggerDetail struct {
	Time     int64
	Playhead int64
}

// A TriggerFunc fires one event. It determines how a player triggers the
// events it plays.
type TriggerFunc func(e timeline.Event) error

// A Player plays a timeline in real time, triggering each of its events at
// the scheduled time.
//
// A player runs one worker goroutine from construction until Close. All
// public operations can be called from any goroutine. Events trigger within
// the worker goroutine and must not call back into the player or the
// timeline synchronously.
type Player struct {
	timeline.HookableBase

	tl      *timeline.Timeline
	trigger TriggerFunc

	mu       sync.Mutex
	cond     *sync.Cond
	playhead int64
	frames   []*timeline.Frame
	cursor   int
	playing  bool
	closed   bool
	latency  time.Duration

	wake   chan struct{}
	done   chan struct{}
	tlHook timeline.Hook
}

// NewPlayer creates a player for the given timeline. The player triggers
// events with their plain Trigger method.
func NewPlayer(tl *timeline.Timeline) *Player {
	return newPlayer(tl, func(e timeline.Event) error {
		return e.Trigger()
	})
}

func newPlayer(tl *timeline.Timeline, trigger TriggerFunc) *Player {
	if tl == nil {
		log.Panic("cannot create a player for a nil timeline")
	}

	p := &Player{
		tl:      tl,
		trigger: trigger,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	p.Hooks = make([]timeline.Hook, 0)
	p.cond = sync.NewCond(&p.mu)

	p.frames = tl.Frames()
	p.cursor = 0

	p.tlHook = timeline.NewHookFunc(p.timelineChanged)
	tl.AcceptHook(p.tlHook)

	go p.run()

	return p
}

// Timeline returns the timeline that this player is attached to.
func (p *Player) Timeline() *timeline.Timeline {
	return p.tl
}

// Play plays the timeline from the current position. Playing an already
// playing player has no effect.
func (p *Player) Play() error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("%w: cannot start playback", ErrPlayerClosed)
	}

	if p.playing {
		p.mu.Unlock()
		return nil
	}

	p.playing = true
	p.cond.Signal()
	p.mu.Unlock()

	p.invokePlaybackHook(HookPosPlaybackStarted, nil)

	return nil
}

// Pause pauses the timeline at the current position. Pausing an already
// paused player has no effect.
func (p *Player) Pause() error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("%w: cannot pause playback", ErrPlayerClosed)
	}

	if !p.playing {
		p.mu.Unlock()
		return nil
	}

	p.playing = false
	p.latency = 0
	p.clampPlayheadLocked()
	p.mu.Unlock()

	p.interruptWait()
	p.invokePlaybackHook(HookPosPlaybackPaused, nil)

	return nil
}

// Start plays the timeline from the beginning.
func (p *Player) Start() error {
	if err := p.Scrub(0); err != nil {
		return err
	}

	return p.Play()
}

// Stop pauses the timeline and resets the playhead to the start.
func (p *Player) Stop() error {
	return p.Scrub(0)
}

// Scrub pauses playback and sets the playhead to the given time, clamped
// into the timeline's duration.
func (p *Player) Scrub(time int64) error {
	return p.scrub(time, true)
}

// ScrubSilent behaves as Scrub without notifying hooks of the new playhead
// position. It is meant for callers that are themselves the only observer.
func (p *Player) ScrubSilent(time int64) error {
	return p.scrub(time, false)
}

func (p *Player) scrub(time int64, notify bool) error {
	if err := p.Pause(); err != nil {
		return err
	}

	p.mu.Lock()
	p.playhead = time
	p.clampPlayheadLocked()
	p.refreshCursorLocked()
	playhead := p.playhead
	p.mu.Unlock()

	if notify {
		p.invokePlaybackHook(
			HookPosPlayheadUpdated, PlayheadDetail{Playhead: playhead})
	}

	return nil
}

// Close stops the worker goroutine and detaches the player from its
// timeline. No operation other than Close is valid afterward; repeated
// calls have no effect. Close must not be called from an event trigger.
func (p *Player) Close() {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return
	}

	p.closed = true
	p.playing = false
	p.cond.Signal()
	p.mu.Unlock()

	p.interruptWait()
	<-p.done

	p.tl.RemoveHook(p.tlHook)
}

// Playhead returns the current playback position on the timeline, in the
// timeline's unit.
func (p *Player) Playhead() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.playhead
}

// IsPlaying reports whether the timeline is currently playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.playing
}

// Latency returns the scheduling overrun carried into the next tick's wait
// budget. It is zero unless the player is actively catching up.
func (p *Player) Latency() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.latency
}

// run is the worker loop. It waits until the player is playing, then fires
// all events due at the playhead, sleeps for one unit minus the processing
// time and accumulated latency, and advances the playhead by one.
func (p *Player) run() {
	defer close(p.done)

	for {
		p.mu.Lock()
		for !p.playing && !p.closed {
			p.cond.Wait()
		}

		if p.closed {
			p.mu.Unlock()
			return
		}

		start := time.Now()

		due, playhead, finished := p.collectDueLocked()
		p.mu.Unlock()

		for _, f := range due {
			p.triggerFrame(f, playhead)
		}

		if finished {
			p.invokePlaybackHook(HookPosPlaybackPaused, nil)
			p.invokePlaybackHook(HookPosPlaybackFinished, nil)
		}

		p.invokePlaybackHook(
			HookPosPlayheadUpdated, PlayheadDetail{Playhead: playhead})

		if finished {
			continue
		}

		p.wait(p.waitTime(time.Since(start)))

		p.mu.Lock()
		if p.playing && !p.closed {
			p.playhead++
		}
		p.mu.Unlock()
	}
}

// collectDueLocked gathers the frames scheduled at the current playhead that
// the cursor has not passed yet. If the cursor is past the last frame,
// playback transitions to paused and the second return value reports the
// finish.
func (p *Player) collectDueLocked() (
	due []*timeline.Frame,
	playhead int64,
	finished bool,
) {
	if p.cursor < len(p.frames) {
		for p.cursor < len(p.frames) &&
			p.frames[p.cursor].Time() == p.playhead {
			due = append(due, p.frames[p.cursor])
			p.cursor++
		}
	} else {
		p.playing = false
		p.latency = 0
		p.clampPlayheadLocked()
		finished = true
	}

	return due, p.playhead, finished
}

func (p *Player) triggerFrame(f *timeline.Frame, playhead int64) {
	if err := p.trigger(f.Event()); err != nil {
		log.Printf("playline: event at %d failed to trigger: %v",
			f.Time(), err)
	}

	p.InvokeHook(timeline.HookCtx{
		Domain: p,
		Pos:    HookPosEventTriggered,
		Item:   f.Event(),
		Detail: TriggerDetail{Time: f.Time(), Playhead: playhead},
	})
}

// waitTime computes the time to wait before the next tick, accounting for
// the current tick's processing time and latency left over from previous
// ticks. Overrun beyond one unit is carried forward as latency.
func (p *Player) waitTime(elapsed time.Duration) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	waitTime := p.tl.Unit().Period() - elapsed - p.latency

	if waitTime < 0 {
		p.latency = -waitTime
		waitTime = 0
	} else {
		p.latency = 0
	}

	return waitTime
}

// wait sleeps for the given duration. A pause or close request interrupts
// the sleep early.
func (p *Player) wait(d time.Duration) {
	// Discard wakeups from requests that were already observed.
	select {
	case <-p.wake:
	default:
	}

	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	select {
	case <-timer.C:
	case <-p.wake:
		timer.Stop()
	}
}

func (p *Player) interruptWait() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Player) clampPlayheadLocked() {
	duration := p.tl.Duration()
	if p.playhead > duration {
		p.playhead = duration
	}

	if p.playhead < 0 {
		p.playhead = 0
	}
}

// refreshCursorLocked points the cursor at the first frame placed at or
// after the playhead.
func (p *Player) refreshCursorLocked() {
	p.frames = p.tl.Frames()

	p.cursor = len(p.frames)
	for i, f := range p.frames {
		if f.Time() >= p.playhead {
			p.cursor = i
			break
		}
	}
}

// timelineChanged is the hook registered on the player's timeline. It
// forbids structural changes during playback and refreshes the playback
// cursor after any change.
func (p *Player) timelineChanged(ctx timeline.HookCtx) error {
	switch ctx.Pos {
	case timeline.HookPosBeforeChange, timeline.HookPosBeforeEventModified:
		p.mu.Lock()
		defer p.mu.Unlock()

		if p.playing {
			return errors.New("cannot modify the timeline during playback")
		}
	case timeline.HookPosChanged:
		p.mu.Lock()
		defer p.mu.Unlock()

		p.clampPlayheadLocked()
		p.refreshCursorLocked()
	}

	return nil
}

func (p *Player) invokePlaybackHook(pos *timeline.HookPos, detail any) {
	p.InvokeHook(timeline.HookCtx{
		Domain: p,
		Pos:    pos,
		Detail: detail,
	})
}

package timeline

import "log"

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookPosBeforeChange triggers before any structural mutation of a timeline.
// A hook can veto the mutation by returning an error from this position.
var HookPosBeforeChange = &HookPos{Name: "BeforeChange"}

// HookPosChanged triggers after any mutation of a timeline completes.
var HookPosChanged = &HookPos{Name: "Changed"}

// HookPosEventAdded triggers after an event is added to a timeline.
var HookPosEventAdded = &HookPos{Name: "EventAdded"}

// HookPosEventInserted triggers after an insert shifts subsequent events.
var HookPosEventInserted = &HookPos{Name: "EventInserted"}

// HookPosEventRemoved triggers after an event is removed from a timeline.
var HookPosEventRemoved = &HookPos{Name: "EventRemoved"}

// HookPosEventShifted triggers after a frame is moved to a new timestamp.
var HookPosEventShifted = &HookPos{Name: "EventShifted"}

// HookPosBeforeEventModified triggers before an event retrieved from a
// timeline is modified in place. A hook can veto by returning an error.
var HookPosBeforeEventModified = &HookPos{Name: "BeforeEventModified"}

// HookPosEventModified triggers after an event is modified in place.
var HookPosEventModified = &HookPos{Name: "EventModified"}

// HookPosDurationChanged triggers when the timeline duration grows or
// shrinks.
var HookPosDurationChanged = &HookPos{Name: "DurationChanged"}

// HookPosCleared triggers after all events are removed at once. Individual
// removals are not reported.
var HookPosCleared = &HookPos{Name: "Cleared"}

// HookCtx is the context that holds all the information about the site that
// a hook is invoked.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
	Detail any
}

// AddDetail carries the information of an EventAdded invocation.
type AddDetail struct {
	Time int64
}

// InsertDetail carries the information of an EventInserted invocation.
type InsertDetail struct {
	Time     int64
	Interval int64
}

// RemoveDetail carries the information of an EventRemoved invocation.
type RemoveDetail struct {
	Time int64
}

// ShiftDetail carries the information of an EventShifted invocation.
type ShiftDetail struct {
	OldTime int64
	NewTime int64
}

// ModifyDetail carries the information of a BeforeEventModified or
// EventModified invocation.
type ModifyDetail struct {
	Time int64
}

// DurationDetail carries the information of a DurationChanged invocation.
type DurationDetail struct {
	OldDuration int64
	NewDuration int64
}

// Hookable defines an object that accepts hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// RemoveHook detaches a previously registered hook. Removing a hook
	// that is not registered has no effect.
	RemoveHook(hook Hook)
}

// A Hook is a short piece of program that can be invoked by a hookable
// object. The returned error is only inspected at vetoable positions
// (BeforeChange, BeforeEventModified), where a non-nil error rejects the
// pending mutation.
type Hook interface {
	Func(ctx HookCtx) error
}

// A HookableBase provides the utility functions for types that implement the
// Hookable interface.
type HookableBase struct {
	Hooks []Hook
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	h := new(HookableBase)
	h.Hooks = make([]Hook, 0)
	return h
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	if hook == nil {
		log.Panic("cannot register a nil hook")
	}
	h.Hooks = append(h.Hooks, hook)
}

// RemoveHook detaches the first occurrence of the given hook.
func (h *HookableBase) RemoveHook(hook Hook) {
	for i, registered := range h.Hooks {
		if registered == hook {
			h.Hooks = append(h.Hooks[:i], h.Hooks[i+1:]...)
			return
		}
	}
}

// InvokeHook triggers the registered hooks, ignoring their return values.
// It is used at notification positions.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		_ = hook.Func(ctx)
	}
}

// InvokeVetoableHook triggers the registered hooks and stops at the first
// hook that returns an error. It is used at vetoable positions.
func (h *HookableBase) InvokeVetoableHook(ctx HookCtx) error {
	for _, hook := range h.Hooks {
		if err := hook.Func(ctx); err != nil {
			return err
		}
	}
	return nil
}

type hookFunc struct {
	f func(ctx HookCtx) error
}

// NewHookFunc adapts a plain function to the Hook interface. The returned
// value can be used as a handle for later removal.
func NewHookFunc(f func(ctx HookCtx) error) Hook {
	return &hookFunc{f: f}
}

func (h *hookFunc) Func(ctx HookCtx) error {
	return h.f(ctx)
}

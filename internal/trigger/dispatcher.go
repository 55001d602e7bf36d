// Package trigger turns canonical key events into slot-level trigger pulses.
package trigger

import (
	"log/slog"
	"unicode"

	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
	"github.com/Sebstrdigital/dua-talk/internal/keytap"
)

// Kind is the trigger edge for a slot.
type Kind int

const (
	Pressed Kind = iota
	Released
)

// Event is one trigger pulse for a slot.
type Event struct {
	Slot hotkey.Slot
	Kind Kind
}

// Dispatcher tracks per-slot Idle/Active state against the live registry and
// emits trigger events on edges. Slots are independent: one key event may
// activate several slots at once. The dispatcher runs entirely on the
// orchestration goroutine and carries no locking.
type Dispatcher struct {
	registry *hotkey.Registry
	logger   *slog.Logger
	liveMods hotkey.ModifierSet
	active   map[hotkey.Slot]bool
	// activeCode remembers the rawcode of the KeyDown that activated a
	// key-bound slot. Releases carry no character, so the falling edge is
	// matched by code.
	activeCode map[hotkey.Slot]uint16
	suspended  bool
}

// New builds a dispatcher over the registry with all slots idle.
func New(registry *hotkey.Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		logger:     logger,
		active:     make(map[hotkey.Slot]bool),
		activeCode: make(map[hotkey.Slot]uint16),
	}
}

// Suspend turns trigger emission off while hotkey capture owns the event
// stream. Suspending clears all Active states so resuming never produces a
// stale falling edge.
func (d *Dispatcher) Suspend(on bool) {
	d.suspended = on
	if on {
		d.active = make(map[hotkey.Slot]bool)
		d.activeCode = make(map[hotkey.Slot]uint16)
	}
}

// Suspended reports whether emission is off.
func (d *Dispatcher) Suspended() bool {
	return d.suspended
}

// Dispatch folds one canonical event into per-slot state and returns the
// trigger pulses it produced, in fixed slot order. While suspended it still
// tracks the live modifier set but emits nothing.
func (d *Dispatcher) Dispatch(ev keytap.Event) []Event {
	if ev.Kind == keytap.KindModifiersChanged {
		d.liveMods = ev.Modifiers
	}
	if d.suspended {
		return nil
	}

	var out []Event
	for _, slot := range hotkey.Slots() {
		binding := d.registry.Binding(slot)
		if trigger, emit := d.step(slot, binding, ev); emit {
			out = append(out, trigger)
		}
	}
	return out
}

// step advances one slot's Idle/Active state for one event.
func (d *Dispatcher) step(slot hotkey.Slot, binding hotkey.Binding, ev keytap.Event) (Event, bool) {
	if binding.HasKey() {
		return d.stepKeyBound(slot, binding, ev)
	}
	return d.stepModifierOnly(slot, binding, ev)
}

// stepModifierOnly implements level semantics: Active exactly while the held
// modifier set equals the binding. Key presses do not change the held set,
// so only ModifiersChanged can move the edge.
func (d *Dispatcher) stepModifierOnly(slot hotkey.Slot, binding hotkey.Binding, ev keytap.Event) (Event, bool) {
	if ev.Kind != keytap.KindModifiersChanged {
		return Event{}, false
	}

	matched := binding.Matches(d.liveMods, 0)
	switch {
	case matched && !d.active[slot]:
		d.active[slot] = true
		d.logger.Debug("trigger pressed", "slot", slot, "binding", binding.String())
		return Event{Slot: slot, Kind: Pressed}, true
	case !matched && d.active[slot]:
		d.active[slot] = false
		if slot.EmitsRelease() {
			d.logger.Debug("trigger released", "slot", slot, "binding", binding.String())
			return Event{Slot: slot, Kind: Released}, true
		}
	}
	return Event{}, false
}

// stepKeyBound activates on a matching KeyDown and deactivates on the
// release of the same raw key. Key repeat arrives as extra KeyDown events
// while Active and is filtered by the level state.
func (d *Dispatcher) stepKeyBound(slot hotkey.Slot, binding hotkey.Binding, ev keytap.Event) (Event, bool) {
	switch ev.Kind {
	case keytap.KindKeyDown:
		if d.active[slot] || !binding.Matches(d.liveMods, ev.Char) {
			return Event{}, false
		}
		d.active[slot] = true
		d.activeCode[slot] = ev.Code
		d.logger.Debug("trigger pressed", "slot", slot, "binding", binding.String())
		return Event{Slot: slot, Kind: Pressed}, true

	case keytap.KindKeyUp:
		if !d.active[slot] || !sameKey(ev.Code, d.activeCode[slot]) {
			return Event{}, false
		}
		d.active[slot] = false
		delete(d.activeCode, slot)
		if slot.EmitsRelease() {
			d.logger.Debug("trigger released", "slot", slot, "binding", binding.String())
			return Event{Slot: slot, Kind: Released}, true
		}
	}
	return Event{}, false
}

// sameKey reports whether two rawcodes name the same physical key. On Linux
// rawcodes are X11 keysyms computed against the live modifier state, so a
// press taken with shift held can release as the unshifted keysym; fold
// ASCII case to cover that.
func sameKey(a, b uint16) bool {
	if a == b {
		return true
	}
	if a < 0x80 && b < 0x80 {
		return unicode.ToLower(rune(a)) == unicode.ToLower(rune(b))
	}
	return false
}

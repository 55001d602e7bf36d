package keytap

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
)

// Kind classifies canonical key events.
type Kind int

const (
	KindKeyDown Kind = iota
	KindKeyUp
	KindModifiersChanged
)

// Event is one canonical key event. Modifiers always carries the full held
// modifier set at the time of the event. Code is the raw key identity and is
// set for KindKeyDown/KindKeyUp; Char is set only on KindKeyDown (releases
// never carry a character at the hook layer), so release matching is by
// Code.
type Event struct {
	Kind      Kind
	Code      uint16
	Char      rune
	Modifiers hotkey.ModifierSet
}

// Adapter normalizes a raw hook stream into canonical events on a single
// consumer channel. Start and Stop are idempotent. If the OS revokes the
// hook mid-run the adapter re-enables it immediately; consumers never see an
// error or a synthetic event for the revocation.
type Adapter struct {
	stream Stream
	logger *slog.Logger
	table  map[uint16]hotkey.ModifierKey
	events chan Event

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewAdapter wraps stream with the platform modifier table.
func NewAdapter(stream Stream, logger *slog.Logger) *Adapter {
	return newAdapterWithTable(stream, logger, modifierRawcodes)
}

func newAdapterWithTable(stream Stream, logger *slog.Logger, table map[uint16]hotkey.ModifierKey) *Adapter {
	return &Adapter{
		stream: stream,
		logger: logger,
		table:  table,
		events: make(chan Event, 128),
	}
}

// Events returns the single consumer channel. It is never closed; consumers
// stop via their own lifecycle.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// Start opens the hook and begins delivery. Calling Start while running is a
// no-op. A hook that cannot be created at all is a hard failure: the error
// is returned and no retry is scheduled.
func (a *Adapter) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return nil
	}

	raw, err := a.stream.Open()
	if err != nil {
		return fmt.Errorf("start keyboard hook: %w", err)
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	a.running = true
	go a.pump(raw, a.stopCh, a.done)
	return nil
}

// Stop closes the hook and waits for delivery to finish. Calling Stop while
// stopped is a no-op.
func (a *Adapter) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	close(a.stopCh)
	done := a.done
	a.mu.Unlock()

	a.stream.Close()
	<-done
}

// pump owns held-modifier tracking. heldCodes tracks raw keycodes so that
// holding both shifts and releasing one does not clear the shift modifier.
func (a *Adapter) pump(raw <-chan RawEvent, stopCh, done chan struct{}) {
	defer close(done)

	heldCodes := make(map[uint16]hotkey.ModifierKey)
	var held hotkey.ModifierSet

	for {
		select {
		case <-stopCh:
			return
		case ev, ok := <-raw:
			if !ok {
				next := a.reopen(stopCh)
				if next == nil {
					return
				}
				raw = next
				// Modifier state across a revocation is unknowable; start
				// clean and let real events rebuild it.
				heldCodes = make(map[uint16]hotkey.ModifierKey)
				held = 0
				continue
			}

			if ev.Kind == RawDisabled {
				a.logger.Warn("keyboard hook disabled by OS, re-enabling")
				a.stream.Close()
				continue // drain until the channel closes, then reopen
			}

			out, nextHeld, emit := translate(a.table, heldCodes, held, ev)
			held = nextHeld
			if !emit {
				continue
			}
			select {
			case a.events <- out:
			case <-stopCh:
				return
			}
		}
	}
}

// reopen restarts the hook after its channel closed. A nil return means the
// adapter was stopped or the hook could not be re-created.
func (a *Adapter) reopen(stopCh chan struct{}) <-chan RawEvent {
	select {
	case <-stopCh:
		return nil
	default:
	}

	raw, err := a.stream.Open()
	if err != nil {
		a.logger.Error("keyboard hook re-enable failed", "error", err)
		return nil
	}
	a.logger.Info("keyboard hook re-enabled")
	return raw
}

// translate folds one raw event into the canonical model, updating held
// modifier state in place.
func translate(table map[uint16]hotkey.ModifierKey, heldCodes map[uint16]hotkey.ModifierKey, held hotkey.ModifierSet, ev RawEvent) (Event, hotkey.ModifierSet, bool) {
	if mod, isModifier := table[ev.Rawcode]; isModifier {
		switch ev.Kind {
		case RawKeyDown:
			heldCodes[ev.Rawcode] = mod
		case RawKeyUp:
			delete(heldCodes, ev.Rawcode)
		}
		next := modifierSetOf(heldCodes)
		if next == held {
			return Event{}, held, false
		}
		return Event{Kind: KindModifiersChanged, Modifiers: next}, next, true
	}

	kind := KindKeyDown
	if ev.Kind == RawKeyUp {
		kind = KindKeyUp
	}
	// A physical press of a non-modifier key arrives twice from the hook:
	// once without a character and, for printing keys, once with it. Only
	// the char-bearing half becomes a canonical KeyDown, so consumers see
	// exactly one KeyDown per printable press and none for dead keys.
	if kind == KindKeyDown && ev.Char == 0 {
		return Event{}, held, false
	}
	return Event{Kind: kind, Code: ev.Rawcode, Char: ev.Char, Modifiers: held}, held, true
}

func modifierSetOf(heldCodes map[uint16]hotkey.ModifierKey) hotkey.ModifierSet {
	var s hotkey.ModifierSet
	for _, mod := range heldCodes {
		s = s.With(mod)
	}
	return s
}

package keytap

import (
	"errors"

	hook "github.com/robotn/gohook"
)

// charUndefined is libuiohook's CHAR_UNDEFINED. gohook reports it as the
// keychar on every key release and on presses of non-printing keys.
const charUndefined = 0xFFFF

// HookStream is the production Stream backed by the gohook global keyboard
// hook. gohook numbers its keyboard constants after libuiohook's event
// enum, so hook.KeyHold is the physical press (EVENT_KEY_PRESSED, the only
// event modifier keys ever emit) and hook.KeyDown is the typed duplicate
// (EVENT_KEY_TYPED) that carries the character of a printing key. Both
// translate to RawKeyDown; the adapter collapses them into one canonical
// key-down per press. On Linux, Rawcode is the X11 keysym of the event.
type HookStream struct{}

// NewHookStream returns the gohook-backed stream.
func NewHookStream() *HookStream {
	return &HookStream{}
}

// Open starts the global hook and returns the translated raw event channel.
func (s *HookStream) Open() (<-chan RawEvent, error) {
	events := hook.Start()
	if events == nil {
		return nil, errors.New("keyboard hook did not start")
	}

	out := make(chan RawEvent, 64)
	go func() {
		defer close(out)
		for ev := range events {
			raw, ok := translateHook(ev)
			if !ok {
				continue
			}
			out <- raw
		}
	}()
	return out, nil
}

// Close stops the global hook; the channel returned by Open closes shortly
// after.
func (s *HookStream) Close() {
	hook.End()
}

// translateHook maps one gohook event onto the raw stream model. Mouse and
// hook-enabled events are dropped.
func translateHook(ev hook.Event) (RawEvent, bool) {
	switch ev.Kind {
	case hook.KeyHold: // EVENT_KEY_PRESSED: the physical press, no character
		return RawEvent{Kind: RawKeyDown, Rawcode: ev.Rawcode, Char: keychar(ev)}, true
	case hook.KeyDown: // EVENT_KEY_TYPED: the same press, now with its character
		return RawEvent{Kind: RawKeyDown, Rawcode: ev.Rawcode, Char: keychar(ev)}, true
	case hook.KeyUp: // EVENT_KEY_RELEASED: keychar is never populated
		return RawEvent{Kind: RawKeyUp, Rawcode: ev.Rawcode}, true
	case hook.HookDisabled:
		return RawEvent{Kind: RawDisabled}, true
	}
	return RawEvent{}, false
}

// keychar returns the event's character, or 0 when gohook reports
// CHAR_UNDEFINED.
func keychar(ev hook.Event) rune {
	if ev.Keychar == charUndefined {
		return 0
	}
	return ev.Keychar
}

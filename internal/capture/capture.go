// Package capture implements interactive hotkey recording: it watches the
// canonical key event stream and derives the binding the user performs.
package capture

import (
	"unicode"

	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
	"github.com/Sebstrdigital/dua-talk/internal/keytap"
)

// Controller is a single-shot binding recorder. It starts Listening and
// moves to Finished exactly once; after that every Observe call is inert.
// Arm a new Controller for each capture.
//
// Finalization rules:
//   - a printable KeyDown finalizes immediately with that key plus all
//     modifiers accumulated so far
//   - releasing every pressed modifier with no key finalizes a
//     modifier-only binding
//   - release sequences that accumulated nothing do not finalize
type Controller struct {
	accumulated hotkey.ModifierSet
	lastMods    hotkey.ModifierSet
	finished    bool
	result      hotkey.Binding
}

// New returns an armed controller in the Listening state.
func New() *Controller {
	return &Controller{}
}

// Finished reports whether a binding has been captured.
func (c *Controller) Finished() bool {
	return c.finished
}

// Result returns the captured binding; zero until Finished.
func (c *Controller) Result() hotkey.Binding {
	return c.result
}

// Observe folds one canonical event into the capture. It returns the
// captured binding and true on the observation that finalizes it.
func (c *Controller) Observe(ev keytap.Event) (hotkey.Binding, bool) {
	if c.finished {
		return hotkey.Binding{}, false
	}

	switch ev.Kind {
	case keytap.KindModifiersChanged:
		pressed := ev.Modifiers.Diff(c.lastMods)
		c.accumulated = c.accumulated.Union(pressed)
		released := ev.Modifiers.Empty() && !c.lastMods.Empty()
		c.lastMods = ev.Modifiers
		if released && !c.accumulated.Empty() {
			return c.finalize(hotkey.Binding{Modifiers: c.accumulated})
		}

	case keytap.KindKeyDown:
		if !unicode.IsPrint(ev.Char) || unicode.IsSpace(ev.Char) {
			break
		}
		return c.finalize(hotkey.Binding{
			Modifiers: c.accumulated.Union(ev.Modifiers),
			Key:       unicode.ToLower(ev.Char),
		})
	}

	return hotkey.Binding{}, false
}

func (c *Controller) finalize(b hotkey.Binding) (hotkey.Binding, bool) {
	c.finished = true
	c.result = b
	return b, true
}

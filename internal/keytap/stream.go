// Package keytap adapts a system-wide listen-only keyboard hook into the
// canonical key event stream the trigger dispatcher consumes.
package keytap

// RawKind classifies events coming off the underlying hook.
type RawKind int

const (
	RawKeyDown RawKind = iota
	RawKeyUp
	// RawDisabled means the OS revoked the hook (sleep, idle timeout). The
	// adapter re-enables the stream without surfacing anything to consumers.
	RawDisabled
)

// RawEvent is one event from the underlying hook, before normalization.
// Char is zero whenever the hook reports no character: always on KeyUp, and
// on the physical-press half of a printing key's down pair.
type RawEvent struct {
	Kind    RawKind
	Rawcode uint16
	Char    rune
}

// Stream is the hook backend contract. Open starts delivery and returns the
// raw event channel; the channel closes when the hook ends, whether by Close
// or by OS revocation. Open after a Close must start a fresh hook.
type Stream interface {
	Open() (<-chan RawEvent, error)
	Close()
}

package hotkey

import (
	"fmt"
	"strings"
)

// Slot identifies one of the fixed application trigger slots. The slot
// determines the trigger discipline; the binding only determines which input
// activates it.
type Slot string

const (
	SlotToggle         Slot = "toggle"
	SlotPushToTalk     Slot = "push_to_talk"
	SlotSpeakSelection Slot = "speak_selection"
	SlotCycleLanguage  Slot = "cycle_language"
)

// Slots returns all slots in a fixed, deterministic order.
func Slots() []Slot {
	return []Slot{SlotToggle, SlotPushToTalk, SlotSpeakSelection, SlotCycleLanguage}
}

// ParseSlot maps a CLI/config token to a Slot. Hyphens and underscores are
// interchangeable.
func ParseSlot(token string) (Slot, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(token)), "-", "_")
	for _, slot := range Slots() {
		if normalized == string(slot) {
			return slot, nil
		}
	}
	return "", fmt.Errorf("unknown hotkey slot %q", token)
}

// EmitsRelease reports whether the slot's discipline is level-triggered,
// emitting Released when its binding stops matching. Only push-to-talk is
// level-triggered; the other slots are one-pulse-per-activation.
func (s Slot) EmitsRelease() bool {
	return s == SlotPushToTalk
}

// StartsRecording reports whether a Pressed pulse on this slot begins a
// dictation recording.
func (s Slot) StartsRecording() bool {
	return s == SlotToggle || s == SlotPushToTalk
}

// String returns the slot's canonical token.
func (s Slot) String() string {
	return string(s)
}

// Package fsm defines the session state machine as a pure transition
// function so the full table is testable without goroutines or hardware.
package fsm

import (
	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
)

// Phase is the coarse session phase.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseRecording  Phase = "recording"
	PhaseProcessing Phase = "processing"
	PhaseSpeaking   Phase = "speaking"
)

// State is the full session state. Slot identifies the initiating trigger
// slot and is meaningful only while recording.
type State struct {
	Phase Phase
	Slot  hotkey.Slot
}

// Idle is the initial state.
var Idle = State{Phase: PhaseIdle}

// EventKind classifies inputs to the state machine.
type EventKind string

const (
	EventPressed    EventKind = "pressed"
	EventReleased   EventKind = "released"
	EventAutoStop   EventKind = "auto_stop"
	EventProcessed  EventKind = "processed"
	EventSpeechDone EventKind = "speech_done"
)

// Event is one input. Slot is set for trigger events only.
type Event struct {
	Kind EventKind
	Slot hotkey.Slot
}

// Action is the side effect the controller must perform for a transition.
type Action string

const (
	ActionNone          Action = "none"
	ActionStartCapture  Action = "start_capture"
	ActionStopForward   Action = "stop_forward"
	ActionForwardTrim   Action = "forward_trimmed"
	ActionStartSpeaking Action = "start_speaking"
	ActionStopSpeaking  Action = "stop_speaking"
	ActionCycleLanguage Action = "cycle_language"
)

// Transition applies one event to the current state. Inputs with no defined
// transition keep the state unchanged with ActionNone; stray triggers and
// late completions are normal inputs here, not errors.
func Transition(current State, ev Event) (State, Action) {
	// Language cycling is a config mutation, not a phase change: valid in
	// every phase without interrupting recording, processing, or speech.
	if ev.Kind == EventPressed && ev.Slot == hotkey.SlotCycleLanguage {
		return current, ActionCycleLanguage
	}

	switch current.Phase {
	case PhaseIdle:
		if ev.Kind == EventPressed {
			switch {
			case ev.Slot.StartsRecording():
				return State{Phase: PhaseRecording, Slot: ev.Slot}, ActionStartCapture
			case ev.Slot == hotkey.SlotSpeakSelection:
				return State{Phase: PhaseSpeaking}, ActionStartSpeaking
			}
		}

	case PhaseRecording:
		switch ev.Kind {
		case EventPressed:
			// Only the initiating toggle re-press ends a toggle recording;
			// every other trigger is ignored mid-recording.
			if current.Slot == hotkey.SlotToggle && ev.Slot == hotkey.SlotToggle {
				return State{Phase: PhaseProcessing}, ActionStopForward
			}
		case EventReleased:
			if current.Slot == hotkey.SlotPushToTalk && ev.Slot == hotkey.SlotPushToTalk {
				return State{Phase: PhaseProcessing}, ActionStopForward
			}
		case EventAutoStop:
			return State{Phase: PhaseProcessing}, ActionForwardTrim
		}

	case PhaseProcessing:
		// No user-facing cancel while processing; only completion moves on.
		if ev.Kind == EventProcessed {
			return Idle, ActionNone
		}

	case PhaseSpeaking:
		switch {
		case ev.Kind == EventPressed && ev.Slot == hotkey.SlotSpeakSelection:
			return Idle, ActionStopSpeaking
		case ev.Kind == EventSpeechDone:
			return Idle, ActionNone
		}
	}

	return current, ActionNone
}

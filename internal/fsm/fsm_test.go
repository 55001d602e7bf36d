package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
)

func pressed(slot hotkey.Slot) Event  { return Event{Kind: EventPressed, Slot: slot} }
func released(slot hotkey.Slot) Event { return Event{Kind: EventReleased, Slot: slot} }

func TestToggleRoundTrip(t *testing.T) {
	s, action := Transition(Idle, pressed(hotkey.SlotToggle))
	require.Equal(t, State{Phase: PhaseRecording, Slot: hotkey.SlotToggle}, s)
	require.Equal(t, ActionStartCapture, action)

	s, action = Transition(s, pressed(hotkey.SlotToggle))
	require.Equal(t, PhaseProcessing, s.Phase)
	require.Equal(t, ActionStopForward, action)

	s, action = Transition(s, Event{Kind: EventProcessed})
	require.Equal(t, Idle, s)
	require.Equal(t, ActionNone, action)
}

func TestPushToTalkRoundTrip(t *testing.T) {
	s, action := Transition(Idle, pressed(hotkey.SlotPushToTalk))
	require.Equal(t, State{Phase: PhaseRecording, Slot: hotkey.SlotPushToTalk}, s)
	require.Equal(t, ActionStartCapture, action)

	s, action = Transition(s, released(hotkey.SlotPushToTalk))
	require.Equal(t, PhaseProcessing, s.Phase)
	require.Equal(t, ActionStopForward, action)
}

func TestOnlyInitiatingSlotEndsRecording(t *testing.T) {
	recordingToggle := State{Phase: PhaseRecording, Slot: hotkey.SlotToggle}
	recordingPTT := State{Phase: PhaseRecording, Slot: hotkey.SlotPushToTalk}

	tests := []struct {
		name  string
		state State
		event Event
	}{
		{name: "toggle ignores ptt press", state: recordingToggle, event: pressed(hotkey.SlotPushToTalk)},
		{name: "toggle ignores ptt release", state: recordingToggle, event: released(hotkey.SlotPushToTalk)},
		{name: "toggle ignores speak press", state: recordingToggle, event: pressed(hotkey.SlotSpeakSelection)},
		{name: "ptt ignores toggle press", state: recordingPTT, event: pressed(hotkey.SlotToggle)},
		{name: "ptt ignores speak press", state: recordingPTT, event: pressed(hotkey.SlotSpeakSelection)},
		{name: "ptt ignores repeated press", state: recordingPTT, event: pressed(hotkey.SlotPushToTalk)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, action := Transition(tc.state, tc.event)
			require.Equal(t, tc.state, next)
			require.Equal(t, ActionNone, action)
		})
	}
}

func TestAutoStopEndsAnyRecordingWithTrim(t *testing.T) {
	for _, slot := range []hotkey.Slot{hotkey.SlotToggle, hotkey.SlotPushToTalk} {
		s := State{Phase: PhaseRecording, Slot: slot}
		next, action := Transition(s, Event{Kind: EventAutoStop})
		require.Equal(t, PhaseProcessing, next.Phase)
		require.Equal(t, ActionForwardTrim, action)
	}
}

func TestAutoStopOutsideRecordingIsNoOp(t *testing.T) {
	for _, s := range []State{Idle, {Phase: PhaseProcessing}, {Phase: PhaseSpeaking}} {
		next, action := Transition(s, Event{Kind: EventAutoStop})
		require.Equal(t, s, next)
		require.Equal(t, ActionNone, action)
	}
}

func TestCycleLanguageWorksInEveryPhase(t *testing.T) {
	states := []State{
		Idle,
		{Phase: PhaseRecording, Slot: hotkey.SlotToggle},
		{Phase: PhaseProcessing},
		{Phase: PhaseSpeaking},
	}
	for _, s := range states {
		next, action := Transition(s, pressed(hotkey.SlotCycleLanguage))
		require.Equal(t, s, next, "cycle must not change phase from %s", s.Phase)
		require.Equal(t, ActionCycleLanguage, action)
	}
}

func TestSpeakingToggle(t *testing.T) {
	s, action := Transition(Idle, pressed(hotkey.SlotSpeakSelection))
	require.Equal(t, PhaseSpeaking, s.Phase)
	require.Equal(t, ActionStartSpeaking, action)

	next, action := Transition(s, pressed(hotkey.SlotSpeakSelection))
	require.Equal(t, Idle, next)
	require.Equal(t, ActionStopSpeaking, action)

	next, action = Transition(s, Event{Kind: EventSpeechDone})
	require.Equal(t, Idle, next)
	require.Equal(t, ActionNone, action)
}

func TestProcessingHasNoUserExit(t *testing.T) {
	processing := State{Phase: PhaseProcessing}

	for _, ev := range []Event{
		pressed(hotkey.SlotToggle),
		pressed(hotkey.SlotPushToTalk),
		pressed(hotkey.SlotSpeakSelection),
		released(hotkey.SlotPushToTalk),
		{Kind: EventAutoStop},
	} {
		next, action := Transition(processing, ev)
		require.Equal(t, processing, next)
		require.Equal(t, ActionNone, action)
	}

	next, action := Transition(processing, Event{Kind: EventProcessed})
	require.Equal(t, Idle, next)
	require.Equal(t, ActionNone, action)
}

func TestIdleIgnoresStrayInputs(t *testing.T) {
	for _, ev := range []Event{
		released(hotkey.SlotPushToTalk),
		{Kind: EventProcessed},
		{Kind: EventSpeechDone},
	} {
		next, action := Transition(Idle, ev)
		require.Equal(t, Idle, next)
		require.Equal(t, ActionNone, action)
	}
}

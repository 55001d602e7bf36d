// Package config resolves, parses, validates, defaults, and persists
// duatalk configuration.
package config

import (
	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
)

// HistoryLimit caps the number of persisted transcripts.
const HistoryLimit = 5

// Config is the fully materialized runtime configuration used by duatalk.
type Config struct {
	Hotkeys   map[hotkey.Slot]hotkey.Binding
	Audio     AudioConfig
	Silence   SilenceConfig
	Whisper   WhisperConfig
	Languages LanguagesConfig
	Paste     PasteConfig
	Clipboard CommandConfig
	PasteCmd  CommandConfig
	Speak     SpeakConfig
	Notify    NotifyConfig
	History   []string
}

// AudioConfig controls input-source selection and format retry behavior.
type AudioConfig struct {
	Input              string
	Fallback           string
	FormatRetryCount   int
	FormatRetryDelayMS int
}

// SilenceConfig controls the auto-stop silence monitor.
type SilenceConfig struct {
	// Threshold is the RMS level below which a chunk counts as silent.
	Threshold float64
	WindowMS  int
}

// WhisperConfig points at the local whisper-server transcription endpoint.
type WhisperConfig struct {
	URL         string
	Model       string
	Sensitivity string
	TimeoutMS   int
}

// LanguagesConfig is the cycling language list. Active indexes Codes.
type LanguagesConfig struct {
	Codes  []string
	Active int
}

// PasteConfig controls post-commit paste behavior.
type PasteConfig struct {
	Enable bool
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// SpeakConfig controls the speak-selection feature: the TTS command reads
// text on stdin; the selection command prints the primary selection.
type SpeakConfig struct {
	Cmd          CommandConfig
	SelectionCmd CommandConfig
}

// NotifyConfig controls desktop notifications.
type NotifyConfig struct {
	Enable    bool
	AppName   string
	TimeoutMS int
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// ActiveLanguage returns the active language code, defaulting to the first
// entry when the index is stale.
func (l LanguagesConfig) ActiveLanguage() string {
	if len(l.Codes) == 0 {
		return ""
	}
	if l.Active < 0 || l.Active >= len(l.Codes) {
		return l.Codes[0]
	}
	return l.Codes[l.Active]
}

// Registry materializes the hotkey registry: defaults overlaid with the
// configured bindings.
func (c Config) Registry() *hotkey.Registry {
	reg := hotkey.NewRegistry()
	for _, slot := range hotkey.Slots() {
		if binding, ok := c.Hotkeys[slot]; ok {
			// Override keeps the registry total even when a configured
			// binding displaces another slot's default.
			_ = reg.Override(slot, binding)
		}
	}
	return reg
}

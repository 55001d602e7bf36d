package config

import (
	"fmt"
	"strings"

	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	for _, slot := range hotkey.Slots() {
		binding, ok := cfg.Hotkeys[slot]
		if !ok {
			return nil, fmt.Errorf("hotkeys.%s is missing", slot)
		}
		if err := binding.Validate(); err != nil {
			return nil, fmt.Errorf("hotkeys.%s: %w", slot, err)
		}
	}
	if slotA, slotB, dup := findDuplicateBinding(cfg.Hotkeys); dup {
		return nil, fmt.Errorf("hotkeys.%s and hotkeys.%s share the binding %q", slotA, slotB, cfg.Hotkeys[slotA])
	}

	if cfg.Silence.Threshold <= 0 {
		return nil, fmt.Errorf("silence.threshold must be > 0")
	}
	if cfg.Silence.WindowMS <= 0 {
		return nil, fmt.Errorf("silence.window_ms must be > 0")
	}
	if cfg.Audio.FormatRetryCount <= 0 {
		return nil, fmt.Errorf("audio.format_retry_count must be > 0")
	}
	if cfg.Audio.FormatRetryDelayMS < 0 {
		return nil, fmt.Errorf("audio.format_retry_delay_ms must be >= 0")
	}

	if strings.TrimSpace(cfg.Whisper.URL) == "" {
		return nil, fmt.Errorf("whisper.url must not be empty")
	}
	if !strings.HasPrefix(cfg.Whisper.URL, "http://") && !strings.HasPrefix(cfg.Whisper.URL, "https://") {
		return nil, fmt.Errorf("whisper.url must start with http:// or https://")
	}
	switch cfg.Whisper.Sensitivity {
	case "strict", "default", "relaxed":
	default:
		return nil, fmt.Errorf("whisper.sensitivity must be one of: strict, default, relaxed")
	}
	if cfg.Whisper.TimeoutMS <= 0 {
		return nil, fmt.Errorf("whisper.timeout_ms must be > 0")
	}

	if len(cfg.Languages.Codes) == 0 {
		return nil, fmt.Errorf("languages.codes must not be empty")
	}
	if cfg.Languages.Active < 0 || cfg.Languages.Active >= len(cfg.Languages.Codes) {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("languages.active %d is out of range; using %q", cfg.Languages.Active, cfg.Languages.Codes[0]),
		})
	}

	if len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty")
	}
	if cfg.Paste.Enable && len(cfg.PasteCmd.Argv) == 0 {
		return nil, fmt.Errorf("paste_cmd must be set when paste.enable=true")
	}
	if len(cfg.Speak.Cmd.Argv) == 0 {
		return nil, fmt.Errorf("speak.cmd must not be empty")
	}
	if len(cfg.Speak.SelectionCmd.Argv) == 0 {
		return nil, fmt.Errorf("speak.selection_cmd must not be empty")
	}

	if cfg.Notify.Enable && strings.TrimSpace(cfg.Notify.AppName) == "" {
		return nil, fmt.Errorf("notify.app_name must not be empty when notify.enable=true")
	}
	if cfg.Notify.TimeoutMS < 0 {
		return nil, fmt.Errorf("notify.timeout_ms must be >= 0")
	}

	return warnings, nil
}

// findDuplicateBinding scans slot pairs in fixed order for equal bindings.
func findDuplicateBinding(hotkeys map[hotkey.Slot]hotkey.Binding) (hotkey.Slot, hotkey.Slot, bool) {
	slots := hotkey.Slots()
	for i, slotA := range slots {
		for _, slotB := range slots[i+1:] {
			if hotkeys[slotA].Equal(hotkeys[slotB]) {
				return slotA, slotB, true
			}
		}
	}
	return "", "", false
}

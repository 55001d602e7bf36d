package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
)

// persistedConfig mirrors the JSONC schema with concrete values so a saved
// file round-trips through Parse.
type persistedConfig struct {
	Hotkeys map[string]string `json:"hotkeys"`
	Audio   struct {
		Input              string `json:"input"`
		Fallback           string `json:"fallback"`
		FormatRetryCount   int    `json:"format_retry_count"`
		FormatRetryDelayMS int    `json:"format_retry_delay_ms"`
	} `json:"audio"`
	Silence struct {
		Threshold float64 `json:"threshold"`
		WindowMS  int     `json:"window_ms"`
	} `json:"silence"`
	Whisper struct {
		URL         string `json:"url"`
		Model       string `json:"model"`
		Sensitivity string `json:"sensitivity"`
		TimeoutMS   int    `json:"timeout_ms"`
	} `json:"whisper"`
	Languages struct {
		Codes  []string `json:"codes"`
		Active int      `json:"active"`
	} `json:"languages"`
	Paste struct {
		Enable bool `json:"enable"`
	} `json:"paste"`
	Speak struct {
		Cmd          string `json:"cmd"`
		SelectionCmd string `json:"selection_cmd"`
	} `json:"speak"`
	Notify struct {
		Enable    bool   `json:"enable"`
		AppName   string `json:"app_name"`
		TimeoutMS int    `json:"timeout_ms"`
	} `json:"notify"`
	ClipboardCmd string   `json:"clipboard_cmd"`
	PasteCmd     string   `json:"paste_cmd,omitempty"`
	History      []string `json:"history"`
}

// Save writes the configuration to path, creating parent directories. The
// write goes through a temp file and rename so a crash never leaves a
// half-written config.
func Save(path string, cfg Config) error {
	payload := persistedConfig{
		Hotkeys: make(map[string]string, len(cfg.Hotkeys)),
	}
	for _, slot := range hotkey.Slots() {
		if binding, ok := cfg.Hotkeys[slot]; ok {
			payload.Hotkeys[slot.String()] = binding.String()
		}
	}
	payload.Audio.Input = cfg.Audio.Input
	payload.Audio.Fallback = cfg.Audio.Fallback
	payload.Audio.FormatRetryCount = cfg.Audio.FormatRetryCount
	payload.Audio.FormatRetryDelayMS = cfg.Audio.FormatRetryDelayMS
	payload.Silence.Threshold = cfg.Silence.Threshold
	payload.Silence.WindowMS = cfg.Silence.WindowMS
	payload.Whisper.URL = cfg.Whisper.URL
	payload.Whisper.Model = cfg.Whisper.Model
	payload.Whisper.Sensitivity = cfg.Whisper.Sensitivity
	payload.Whisper.TimeoutMS = cfg.Whisper.TimeoutMS
	payload.Languages.Codes = cfg.Languages.Codes
	payload.Languages.Active = cfg.Languages.Active
	payload.Paste.Enable = cfg.Paste.Enable
	payload.Speak.Cmd = cfg.Speak.Cmd.Raw
	payload.Speak.SelectionCmd = cfg.Speak.SelectionCmd.Raw
	payload.Notify.Enable = cfg.Notify.Enable
	payload.Notify.AppName = cfg.Notify.AppName
	payload.Notify.TimeoutMS = cfg.Notify.TimeoutMS
	payload.ClipboardCmd = cfg.Clipboard.Raw
	payload.PasteCmd = cfg.PasteCmd.Raw
	payload.History = cfg.History
	if payload.History == nil {
		payload.History = []string{}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace config %q: %w", path, err)
	}
	return nil
}

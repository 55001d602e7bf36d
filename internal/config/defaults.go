package config

import "github.com/Sebstrdigital/dua-talk/internal/hotkey"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"
	speak := "espeak-ng --stdin"
	selection := "wl-paste --primary --no-newline"

	return Config{
		Hotkeys: hotkey.DefaultBindings(),
		Audio: AudioConfig{
			Input:              "default",
			Fallback:           "default",
			FormatRetryCount:   3,
			FormatRetryDelayMS: 150,
		},
		Silence: SilenceConfig{
			Threshold: 0.012,
			WindowMS:  10000,
		},
		Whisper: WhisperConfig{
			URL:         "http://127.0.0.1:8080",
			Model:       "",
			Sensitivity: "default",
			TimeoutMS:   30000,
		},
		Languages: LanguagesConfig{
			Codes:  []string{"en"},
			Active: 0,
		},
		Paste:     PasteConfig{Enable: false},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
		Speak: SpeakConfig{
			Cmd:          CommandConfig{Raw: speak, Argv: mustParseArgv(speak)},
			SelectionCmd: CommandConfig{Raw: selection, Argv: mustParseArgv(selection)},
		},
		Notify: NotifyConfig{
			Enable:    true,
			AppName:   "duatalk",
			TimeoutMS: 1600,
		},
	}
}

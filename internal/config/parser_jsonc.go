package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
)

type jsoncConfig struct {
	Hotkeys   map[string]*string `json:"hotkeys"`
	Audio     *jsoncAudio        `json:"audio"`
	Silence   *jsoncSilence      `json:"silence"`
	Whisper   *jsoncWhisper      `json:"whisper"`
	Languages *jsoncLanguages    `json:"languages"`
	Paste     *jsoncPaste        `json:"paste"`
	Speak     *jsoncSpeak        `json:"speak"`
	Notify    *jsoncNotify       `json:"notify"`

	ClipboardCmd *string  `json:"clipboard_cmd"`
	PasteCmd     *string  `json:"paste_cmd"`
	History      []string `json:"history"`
}

type jsoncAudio struct {
	Input              *string `json:"input"`
	Fallback           *string `json:"fallback"`
	FormatRetryCount   *int    `json:"format_retry_count"`
	FormatRetryDelayMS *int    `json:"format_retry_delay_ms"`
}

type jsoncSilence struct {
	Threshold *float64 `json:"threshold"`
	WindowMS  *int     `json:"window_ms"`
}

type jsoncWhisper struct {
	URL         *string `json:"url"`
	Model       *string `json:"model"`
	Sensitivity *string `json:"sensitivity"`
	TimeoutMS   *int    `json:"timeout_ms"`
}

type jsoncLanguages struct {
	Codes  *jsoncStringList `json:"codes"`
	Active *int             `json:"active"`
}

type jsoncPaste struct {
	Enable *bool `json:"enable"`
}

type jsoncSpeak struct {
	Cmd          *string `json:"cmd"`
	SelectionCmd *string `json:"selection_cmd"`
}

type jsoncNotify struct {
	Enable    *bool   `json:"enable"`
	AppName   *string `json:"app_name"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		*l = out
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.Hotkeys != nil {
		hotkeys := make(map[hotkey.Slot]hotkey.Binding, len(cfg.Hotkeys))
		for slot, binding := range cfg.Hotkeys {
			hotkeys[slot] = binding
		}
		for name, raw := range payload.Hotkeys {
			slot, err := hotkey.ParseSlot(name)
			if err != nil {
				return nil, fmt.Errorf("hotkeys: %w", err)
			}
			if raw == nil {
				return nil, fmt.Errorf("hotkeys.%s must be a binding string", slot)
			}
			binding, err := hotkey.ParseBinding(*raw)
			if err != nil {
				return nil, fmt.Errorf("hotkeys.%s: %w", slot, err)
			}
			hotkeys[slot] = binding
		}
		cfg.Hotkeys = hotkeys
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
		if payload.Audio.FormatRetryCount != nil {
			cfg.Audio.FormatRetryCount = *payload.Audio.FormatRetryCount
		}
		if payload.Audio.FormatRetryDelayMS != nil {
			cfg.Audio.FormatRetryDelayMS = *payload.Audio.FormatRetryDelayMS
		}
	}

	if payload.Silence != nil {
		if payload.Silence.Threshold != nil {
			cfg.Silence.Threshold = *payload.Silence.Threshold
		}
		if payload.Silence.WindowMS != nil {
			cfg.Silence.WindowMS = *payload.Silence.WindowMS
		}
	}

	if payload.Whisper != nil {
		if payload.Whisper.URL != nil {
			cfg.Whisper.URL = strings.TrimSpace(*payload.Whisper.URL)
		}
		if payload.Whisper.Model != nil {
			cfg.Whisper.Model = strings.TrimSpace(*payload.Whisper.Model)
		}
		if payload.Whisper.Sensitivity != nil {
			cfg.Whisper.Sensitivity = strings.TrimSpace(*payload.Whisper.Sensitivity)
		}
		if payload.Whisper.TimeoutMS != nil {
			cfg.Whisper.TimeoutMS = *payload.Whisper.TimeoutMS
		}
	}

	if payload.Languages != nil {
		if payload.Languages.Codes != nil {
			codes := make([]string, 0, len(*payload.Languages.Codes))
			for _, code := range *payload.Languages.Codes {
				code = strings.TrimSpace(code)
				if code == "" {
					continue
				}
				codes = append(codes, code)
			}
			cfg.Languages.Codes = codes
		}
		if payload.Languages.Active != nil {
			cfg.Languages.Active = *payload.Languages.Active
		}
	}

	if payload.Paste != nil && payload.Paste.Enable != nil {
		cfg.Paste.Enable = *payload.Paste.Enable
	}

	if payload.ClipboardCmd != nil {
		raw := *payload.ClipboardCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = CommandConfig{Raw: raw, Argv: argv}
	}

	if payload.PasteCmd != nil {
		raw := *payload.PasteCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid paste_cmd: %w", err)
		}
		cfg.PasteCmd = CommandConfig{Raw: raw, Argv: argv}
	}

	if payload.Speak != nil {
		if payload.Speak.Cmd != nil {
			raw := *payload.Speak.Cmd
			argv, err := parseArgv(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid speak.cmd: %w", err)
			}
			cfg.Speak.Cmd = CommandConfig{Raw: raw, Argv: argv}
		}
		if payload.Speak.SelectionCmd != nil {
			raw := *payload.Speak.SelectionCmd
			argv, err := parseArgv(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid speak.selection_cmd: %w", err)
			}
			cfg.Speak.SelectionCmd = CommandConfig{Raw: raw, Argv: argv}
		}
	}

	if payload.Notify != nil {
		if payload.Notify.Enable != nil {
			cfg.Notify.Enable = *payload.Notify.Enable
		}
		if payload.Notify.AppName != nil {
			cfg.Notify.AppName = strings.TrimSpace(*payload.Notify.AppName)
		}
		if payload.Notify.TimeoutMS != nil {
			cfg.Notify.TimeoutMS = *payload.Notify.TimeoutMS
		}
	}

	if payload.History != nil {
		history := payload.History
		if len(history) > HistoryLimit {
			warnings = append(warnings, Warning{
				Message: fmt.Sprintf("history holds %d entries; keeping the newest %d", len(history), HistoryLimit),
			})
			history = history[:HistoryLimit]
		}
		cfg.History = append([]string(nil), history...)
	}

	return warnings, nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' || ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

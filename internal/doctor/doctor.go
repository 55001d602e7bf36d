// Package doctor runs runtime readiness diagnostics for config, tools,
// audio, and the whisper endpoint.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Sebstrdigital/dua-talk/internal/audio"
	"github.com/Sebstrdigital/dua-talk/internal/config"
	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir available for daemon socket", "XDG_RUNTIME_DIR is empty"))

	checks = append(checks, checkBindings(cfg.Config))

	checks = append(checks, checkCommand(cfg.Config.Clipboard.Argv, "clipboard_cmd"))
	if cfg.Config.Paste.Enable {
		checks = append(checks, checkCommand(cfg.Config.PasteCmd.Argv, "paste_cmd"))
	}
	checks = append(checks, checkCommand(cfg.Config.Speak.Cmd.Argv, "speak.cmd"))
	checks = append(checks, checkCommand(cfg.Config.Speak.SelectionCmd.Argv, "speak.selection_cmd"))

	if cfg.Config.Notify.Enable {
		checks = append(checks, checkBinary("busctl", "desktop notifications dispatch over DBus"))
	}

	checks = append(checks, checkAudioSelection(cfg.Config))
	checks = append(checks, checkWhisperReady(cfg.Config))

	return Report{Checks: checks}
}

// checkBindings confirms the materialized registry holds a binding per slot.
func checkBindings(cfg config.Config) Check {
	reg := cfg.Registry()
	bound := make([]string, 0, len(hotkey.Slots()))
	for _, slot := range hotkey.Slots() {
		binding := reg.Binding(slot)
		if err := binding.Validate(); err != nil {
			return Check{Name: "hotkeys", Pass: false, Message: fmt.Sprintf("slot %s has no usable binding: %v", slot, err)}
		}
		bound = append(bound, fmt.Sprintf("%s=%s", slot, binding))
	}
	return Check{Name: "hotkeys", Pass: true, Message: strings.Join(bound, " ")}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkWhisperReady probes the configured whisper-server health endpoint.
func checkWhisperReady(cfg config.Config) Check {
	base := strings.TrimSpace(cfg.Whisper.URL)
	if base == "" {
		return Check{Name: "whisper.ready", Pass: false, Message: "whisper.url is empty"}
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	url := strings.TrimRight(base, "/") + "/health"
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return Check{Name: "whisper.ready", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Check{Name: "whisper.ready", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
	}
	return Check{Name: "whisper.ready", Pass: true, Message: fmt.Sprintf("ready at %s", url)}
}

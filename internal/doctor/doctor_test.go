package doctor

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sebstrdigital/dua-talk/internal/config"
	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("TEST_DOCTOR_ENV", "/run/user/1000")

	check := checkEnv(
		"TEST_DOCTOR_ENV",
		func(v string) bool { return strings.TrimSpace(v) != "" },
		"looks good",
		"unexpected",
	)

	require.True(t, check.Pass)
	require.Equal(t, "looks good", check.Message)
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "clipboard_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinaryFound(t *testing.T) {
	check := checkBinary("sh", "shell available")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell available")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckCommandUsesBinaryFromPath(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "fake-bin")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkCommand([]string{"fake-bin", "--arg"}, "clipboard_cmd")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "clipboard_cmd command is available")
}

func TestCheckBindingsAllSlotsBound(t *testing.T) {
	check := checkBindings(config.Default())
	require.True(t, check.Pass)
	for _, slot := range hotkey.Slots() {
		require.Contains(t, check.Message, slot.String()+"=")
	}
}

func TestCheckWhisperReadySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Whisper.URL = server.URL

	check := checkWhisperReady(cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "ready at")
}

func TestCheckWhisperReadyFailureStatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Whisper.URL = server.URL

	check := checkWhisperReady(cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "HTTP 503")
}

func TestCheckWhisperReadyAddsHTTPScheme(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Whisper.URL = strings.TrimPrefix(server.URL, "http://")

	check := checkWhisperReady(cfg)
	require.True(t, check.Pass)
}

func TestCheckWhisperReadyEmptyBaseURL(t *testing.T) {
	cfg := config.Default()
	cfg.Whisper.URL = ""

	check := checkWhisperReady(cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "whisper.url is empty")
}

func TestCheckAudioSelectionFailureWithInvalidPulseServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkAudioSelection(config.Default())
	require.False(t, check.Pass)
	require.Contains(t, check.Name, "audio.device")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestRunChecksPasteCmdOnlyWhenEnabled(t *testing.T) {
	binDir := t.TempDir()
	fakePaste := filepath.Join(binDir, "fake-paste")
	require.NoError(t, os.WriteFile(fakePaste, []byte("#!/usr/bin/env sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", binDir+":"+os.Getenv("PATH"))
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	cfg := config.Default()
	cfg.Paste.Enable = true
	cfg.PasteCmd = config.CommandConfig{Raw: fakePaste, Argv: []string{"fake-paste"}}
	cfg.Whisper.URL = ""

	report := Run(config.Loaded{Path: "/tmp/config.jsonc", Config: cfg})
	require.NotEmpty(t, report.Checks)

	var sawPasteCmd bool
	for _, check := range report.Checks {
		if check.Name == "fake-paste" {
			sawPasteCmd = true
		}
	}
	require.True(t, sawPasteCmd)

	cfg.Paste.Enable = false
	report = Run(config.Loaded{Path: "/tmp/config.jsonc", Config: cfg})
	for _, check := range report.Checks {
		require.NotEqual(t, "fake-paste", check.Name)
	}
}

func TestRunChecksBusctlWhenNotifyEnabled(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	cfg := config.Default()
	cfg.Notify.Enable = true
	cfg.Whisper.URL = ""

	report := Run(config.Loaded{Path: "/tmp/config.jsonc", Config: cfg})

	var sawBusctl bool
	for _, check := range report.Checks {
		if check.Name == "busctl" {
			sawBusctl = true
			break
		}
	}
	require.True(t, sawBusctl)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/Sebstrdigital/dua-talk/internal/audio"
	"github.com/Sebstrdigital/dua-talk/internal/cli"
	"github.com/Sebstrdigital/dua-talk/internal/config"
	"github.com/Sebstrdigital/dua-talk/internal/doctor"
	"github.com/Sebstrdigital/dua-talk/internal/ipc"
	"github.com/Sebstrdigital/dua-talk/internal/keytap"
	"github.com/Sebstrdigital/dua-talk/internal/logging"
	"github.com/Sebstrdigital/dua-talk/internal/notify"
	"github.com/Sebstrdigital/dua-talk/internal/output"
	"github.com/Sebstrdigital/dua-talk/internal/session"
	"github.com/Sebstrdigital/dua-talk/internal/speak"
	"github.com/Sebstrdigital/dua-talk/internal/transcribe"
	"github.com/Sebstrdigital/dua-talk/internal/trigger"
	"github.com/Sebstrdigital/dua-talk/internal/version"
)

const (
	forwardTimeout = 220 * time.Millisecond
	// captureTimeout bounds how long a capture client waits for the user to
	// press the new chord.
	captureTimeout = 30 * time.Second
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("duatalk"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("duatalk"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandToggle:
		return r.forwardOrFail(ctx, ipc.Request{Command: "toggle"}, forwardTimeout)
	case cli.CommandSpeak:
		return r.forwardOrFail(ctx, ipc.Request{Command: "speak"}, forwardTimeout)
	case cli.CommandCycleLanguage:
		return r.forwardOrFail(ctx, ipc.Request{Command: "cycle-language"}, forwardTimeout)
	case cli.CommandHistory:
		return r.commandHistory(ctx)
	case cli.CommandCapture:
		return r.commandCapture(ctx, parsed)
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | rate=%d | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			device.SampleRate,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: "status"}, forwardTimeout)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) commandHistory(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: "history"}, forwardTimeout)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: no running duatalk daemon; start one with 'duatalk run'")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if len(resp.History) == 0 {
		fmt.Fprintln(r.Stdout, "no transcripts yet")
		return 0
	}
	for i, entry := range resp.History {
		fmt.Fprintf(r.Stdout, "%d. %s\n", i+1, entry)
	}
	return 0
}

func (r Runner) commandCapture(ctx context.Context, parsed cli.Parsed) int {
	req := ipc.Request{
		Command:    "capture",
		Slot:       parsed.CaptureSlot,
		OnConflict: parsed.OnConflict,
	}

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	fmt.Fprintf(r.Stdout, "press the new hotkey for %s...\n", parsed.CaptureSlot)
	resp, handled, err := tryForward(ctx, socketPath, req, captureTimeout)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: no running duatalk daemon; start one with 'duatalk run'")
		return 1
	}
	if err != nil {
		if resp.Conflict != "" {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			fmt.Fprintf(r.Stderr, "hint: rerun with --on-conflict override to displace %s\n", resp.Conflict)
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request, timeout time.Duration) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, req, timeout)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: no running duatalk daemon; start one with 'duatalk run'")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	} else if resp.State != "" {
		fmt.Fprintln(r.Stdout, resp.State)
	}
	return 0
}

// commandRun owns the daemon lifecycle: socket, hook stream, dispatcher,
// session controller, and the IPC server.
func (r Runner) commandRun(ctx context.Context, cfgLoaded config.Loaded, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: duatalk daemon already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	cfg := cfgLoaded.Config
	registry := cfg.Registry()
	store := config.NewStore(cfgLoaded, logger)
	dispatcher := trigger.New(registry, logger)

	adapter := keytap.NewAdapter(keytap.NewHookStream(), logger)
	if err := adapter.Start(); err != nil {
		fmt.Fprintf(r.Stderr, "error: start key event stream: %v\n", err)
		return 1
	}
	defer adapter.Stop()

	recorder := audio.NewPulseRecorder(audio.Config{
		Input:            cfg.Audio.Input,
		Fallback:         cfg.Audio.Fallback,
		SilenceThreshold: cfg.Silence.Threshold,
		SilenceWindow:    time.Duration(cfg.Silence.WindowMS) * time.Millisecond,
		Retry: audio.RetryPolicy{
			MaxAttempts: cfg.Audio.FormatRetryCount,
			Delay:       time.Duration(cfg.Audio.FormatRetryDelayMS) * time.Millisecond,
		},
	}, logger)

	controller := session.New(session.Options{
		Logger:      logger,
		Registry:    registry,
		Dispatcher:  dispatcher,
		Keys:        adapter.Events(),
		Recorder:    recorder,
		Transcriber: transcribe.New(cfg.Whisper, logger),
		Committer:   output.NewCommitter(cfg, logger),
		Speaker:     speak.New(cfg.Speak.Cmd.Argv, cfg.Speak.SelectionCmd.Argv, logger),
		Notifier:    notify.NewDesktop(cfg.Notify, logger),
		Store:       store,
		Sensitivity: cfg.Whisper.Sensitivity,
	})

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	fmt.Fprintf(r.Stdout, "duatalk daemon listening on %s\n", socketPath)
	runErr := controller.Run(ctx)

	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}
	if runErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}
	return 0
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request, timeout time.Duration) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, timeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

// Package session orchestrates the dictation lifecycle: triggers and audio
// events drive a single state machine that owns recording, transcription,
// speech, and hotkey capture.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Sebstrdigital/dua-talk/internal/audio"
	"github.com/Sebstrdigital/dua-talk/internal/capture"
	"github.com/Sebstrdigital/dua-talk/internal/fsm"
	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
	"github.com/Sebstrdigital/dua-talk/internal/ipc"
	"github.com/Sebstrdigital/dua-talk/internal/keytap"
	"github.com/Sebstrdigital/dua-talk/internal/trigger"
)

// Options wires the controller's collaborators.
type Options struct {
	Logger      *slog.Logger
	Registry    *hotkey.Registry
	Dispatcher  *trigger.Dispatcher
	Keys        <-chan keytap.Event
	Recorder    audio.Recorder
	Transcriber Transcriber
	Committer   Committer
	Speaker     Speaker
	Notifier    Notifier
	Store       Store
	Sensitivity string
}

// Controller owns the one application session. All state lives on the Run
// goroutine; key events, audio auto-stops, worker completions, and IPC
// requests are marshaled onto it through channels, so the controller needs
// no locking.
type Controller struct {
	logger      *slog.Logger
	registry    *hotkey.Registry
	dispatcher  *trigger.Dispatcher
	keys        <-chan keytap.Event
	recorder    audio.Recorder
	transcriber Transcriber
	committer   Committer
	speaker     Speaker
	notifier    Notifier
	store       Store
	sensitivity string

	state     fsm.State
	recording audio.Recording

	capturing    *capture.Controller
	captureSlot  hotkey.Slot
	captureOver  bool
	captureReply chan<- ipc.Response

	requests   chan request
	processed  chan processOutcome
	speechDone chan struct{}
}

type request struct {
	req   ipc.Request
	reply chan ipc.Response
}

type processOutcome struct {
	text string
	err  error
}

// New builds a controller. A nil Notifier is replaced with a no-op.
func New(opts Options) *Controller {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Controller{
		logger:      opts.Logger,
		registry:    opts.Registry,
		dispatcher:  opts.Dispatcher,
		keys:        opts.Keys,
		recorder:    opts.Recorder,
		transcriber: opts.Transcriber,
		committer:   opts.Committer,
		speaker:     opts.Speaker,
		notifier:    notifier,
		store:       opts.Store,
		sensitivity: opts.Sensitivity,
		state:       fsm.Idle,
		requests:    make(chan request),
		processed:   make(chan processOutcome, 1),
		speechDone:  make(chan struct{}, 1),
	}
}

// Handle marshals one IPC request onto the Run goroutine and waits for the
// reply. Capture requests block until the user finishes the capture.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	r := request{req: req, reply: make(chan ipc.Response, 1)}
	select {
	case c.requests <- r:
	case <-ctx.Done():
		return ipc.Response{OK: false, Error: "daemon is shutting down"}
	}
	select {
	case resp := <-r.reply:
		return resp
	case <-ctx.Done():
		return ipc.Response{OK: false, Error: "daemon is shutting down"}
	}
}

// Run processes events until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("session controller started")
	defer c.shutdown()

	for {
		var autoStop <-chan []float32
		if c.recording != nil {
			autoStop = c.recording.AutoStop()
		}

		select {
		case <-ctx.Done():
			return nil

		case ev := <-c.keys:
			c.handleKey(ctx, ev)

		case trimmed := <-autoStop:
			c.apply(ctx, fsm.Event{Kind: fsm.EventAutoStop}, trimmed)

		case out := <-c.processed:
			c.apply(ctx, fsm.Event{Kind: fsm.EventProcessed}, nil)
			c.finishProcessing(ctx, out)

		case <-c.speechDone:
			c.apply(ctx, fsm.Event{Kind: fsm.EventSpeechDone}, nil)

		case r := <-c.requests:
			c.handleRequest(ctx, r)
		}
	}
}

// handleKey routes canonical key events: to the capture controller while a
// capture is armed, otherwise through the trigger dispatcher.
func (c *Controller) handleKey(ctx context.Context, ev keytap.Event) {
	if c.capturing != nil {
		// Dispatch keeps modifier tracking warm while suspended; it emits
		// nothing.
		c.dispatcher.Dispatch(ev)
		if binding, done := c.capturing.Observe(ev); done {
			c.finishCapture(ctx, binding)
		}
		return
	}

	for _, trg := range c.dispatcher.Dispatch(ev) {
		kind := fsm.EventPressed
		if trg.Kind == trigger.Released {
			kind = fsm.EventReleased
		}
		c.apply(ctx, fsm.Event{Kind: kind, Slot: trg.Slot}, nil)
	}
}

// apply runs one state machine step and performs its action. Actions that
// fail before their effect begins leave the state unchanged.
func (c *Controller) apply(ctx context.Context, ev fsm.Event, trimmed []float32) {
	next, action := fsm.Transition(c.state, ev)

	switch action {
	case fsm.ActionStartCapture:
		rec, err := c.recorder.Start(ctx)
		if err != nil {
			c.logger.Error("recording start failed", "slot", ev.Slot, "error", err)
			if errors.Is(err, audio.ErrNoInputDevice) {
				c.notifier.Notify(ctx, "No usable microphone")
			} else {
				c.notifier.Notify(ctx, "Recording failed to start")
			}
			return
		}
		c.recording = rec
		c.logger.Info("recording started", "slot", ev.Slot)
		c.notifier.Notify(ctx, "Recording")

	case fsm.ActionStopForward:
		samples, err := c.recording.Stop()
		c.recording = nil
		if err != nil {
			c.logger.Warn("recording stop reported error", "error", err)
		}
		c.beginProcessing(ctx, samples)

	case fsm.ActionForwardTrim:
		// The capture is detached before the state moves on; the trimmed
		// buffer from the monitor is what gets forwarded.
		if _, err := c.recording.Stop(); err != nil {
			c.logger.Warn("recording stop reported error", "error", err)
		}
		c.recording = nil
		c.logger.Info("auto-stop after sustained silence", "samples", len(trimmed))
		c.beginProcessing(ctx, trimmed)

	case fsm.ActionStartSpeaking:
		text, err := c.speaker.ReadSelection(ctx)
		if err != nil {
			c.logger.Error("read selection failed", "error", err)
			c.notifier.Notify(ctx, "Could not read selection")
			return
		}
		if strings.TrimSpace(text) == "" {
			c.notifier.Notify(ctx, "Nothing selected to speak")
			return
		}
		go func() {
			if err := c.speaker.Speak(ctx, text); err != nil {
				c.logger.Error("speech failed", "error", err)
			}
			select {
			case c.speechDone <- struct{}{}:
			default:
			}
		}()
		c.notifier.Notify(ctx, "Speaking selection")

	case fsm.ActionStopSpeaking:
		c.speaker.Stop()
		c.logger.Info("speech stopped by trigger")

	case fsm.ActionCycleLanguage:
		c.cycleLanguage(ctx)
	}

	c.state = next
}

func (c *Controller) cycleLanguage(ctx context.Context) string {
	lang, err := c.store.CycleLanguage()
	if err != nil {
		c.logger.Error("language cycle failed", "error", err)
		c.notifier.Notify(ctx, "Language cycle failed")
		return ""
	}
	c.notifier.Notify(ctx, "Language: "+lang)
	return lang
}

// beginProcessing hands a finished buffer to the transcriber worker. The
// outcome comes back through c.processed on the Run goroutine.
func (c *Controller) beginProcessing(ctx context.Context, samples []float32) {
	language := c.store.ActiveLanguage()
	c.notifier.Notify(ctx, "Transcribing")
	c.logger.Info("processing recording", "samples", len(samples), "language", language)

	go func() {
		var out processOutcome
		switch {
		case len(samples) == 0:
			out.err = ErrEmptyTranscript
		default:
			result, err := c.transcriber.Transcribe(ctx, samples, language, c.sensitivity)
			switch {
			case err != nil:
				out.err = err
			case result.NoSpeech || strings.TrimSpace(result.Text) == "":
				out.err = ErrEmptyTranscript
			default:
				out.text = result.Text
				if err := c.committer.Commit(ctx, result.Text); err != nil {
					out = processOutcome{err: fmt.Errorf("commit transcript: %w", err)}
				}
			}
		}
		c.processed <- out
	}()
}

func (c *Controller) finishProcessing(ctx context.Context, out processOutcome) {
	if out.err != nil {
		c.logger.Error("processing failed", "error", out.err)
		if errors.Is(out.err, ErrEmptyTranscript) {
			c.notifier.Notify(ctx, "No speech recognized")
		} else {
			c.notifier.Notify(ctx, "Transcription failed")
		}
		return
	}

	if err := c.store.AppendHistory(out.text); err != nil {
		c.logger.Warn("history append failed", "error", err)
	}
	c.logger.Info("transcript committed", "chars", len(out.text))
	c.notifier.Notify(ctx, "Transcript committed")
}

// handleRequest serves one marshaled IPC request. Capture requests defer
// their reply until the capture finalizes.
func (c *Controller) handleRequest(ctx context.Context, r request) {
	switch r.req.Command {
	case "status":
		r.reply <- c.statusResponse("")

	case "toggle":
		if c.state.Phase == fsm.PhaseProcessing {
			r.reply <- ipc.Response{OK: false, State: string(c.state.Phase), Error: "busy processing previous recording"}
			return
		}
		c.apply(ctx, fsm.Event{Kind: fsm.EventPressed, Slot: hotkey.SlotToggle}, nil)
		r.reply <- c.statusResponse("")

	case "speak":
		c.apply(ctx, fsm.Event{Kind: fsm.EventPressed, Slot: hotkey.SlotSpeakSelection}, nil)
		r.reply <- c.statusResponse("")

	case "cycle-language":
		lang := c.cycleLanguage(ctx)
		if lang == "" {
			r.reply <- ipc.Response{OK: false, State: string(c.state.Phase), Error: "language cycle failed"}
			return
		}
		r.reply <- c.statusResponse("language: " + lang)

	case "history":
		r.reply <- ipc.Response{OK: true, State: string(c.state.Phase), History: c.store.History()}

	case "capture":
		c.beginCaptureRequest(ctx, r)

	default:
		r.reply <- ipc.Response{OK: false, Error: fmt.Sprintf("unknown command %q", r.req.Command)}
	}
}

func (c *Controller) statusResponse(message string) ipc.Response {
	return ipc.Response{OK: true, State: string(c.state.Phase), Message: message}
}

func (c *Controller) beginCaptureRequest(ctx context.Context, r request) {
	if c.capturing != nil {
		r.reply <- ipc.Response{OK: false, State: string(c.state.Phase), Error: "a hotkey capture is already in progress"}
		return
	}
	if c.state.Phase != fsm.PhaseIdle {
		r.reply <- ipc.Response{OK: false, State: string(c.state.Phase), Error: "hotkey capture requires an idle session"}
		return
	}

	slot, err := hotkey.ParseSlot(r.req.Slot)
	if err != nil {
		r.reply <- ipc.Response{OK: false, Error: err.Error()}
		return
	}
	switch r.req.OnConflict {
	case "", "cancel", "override":
	default:
		r.reply <- ipc.Response{OK: false, Error: fmt.Sprintf("unknown on_conflict policy %q", r.req.OnConflict)}
		return
	}

	c.capturing = capture.New()
	c.captureSlot = slot
	c.captureOver = r.req.OnConflict == "override"
	c.captureReply = r.reply
	c.dispatcher.Suspend(true)

	c.logger.Info("hotkey capture armed", "slot", slot)
	c.notifier.Notify(ctx, "Press the new hotkey for "+slot.String())
}

// finishCapture resolves a finalized capture against the registry and
// releases the deferred IPC reply.
func (c *Controller) finishCapture(ctx context.Context, binding hotkey.Binding) {
	slot := c.captureSlot
	override := c.captureOver
	reply := c.captureReply
	c.capturing = nil
	c.captureReply = nil
	c.dispatcher.Suspend(false)

	resp := c.commitCaptured(slot, binding, override)
	if resp.OK {
		c.logger.Info("hotkey captured", "slot", slot, "binding", binding.String())
		c.notifier.Notify(ctx, fmt.Sprintf("%s bound to %s", slot, binding))
	} else {
		c.logger.Warn("hotkey capture rejected", "slot", slot, "binding", binding.String(), "error", resp.Error)
	}
	if reply != nil {
		reply <- resp
	}
}

func (c *Controller) commitCaptured(slot hotkey.Slot, binding hotkey.Binding, override bool) ipc.Response {
	err := c.registry.Commit(slot, binding)
	if err == nil {
		if serr := c.store.SetBinding(slot, binding); serr != nil {
			c.logger.Error("binding persist failed", "error", serr)
		}
		return ipc.Response{OK: true, State: string(c.state.Phase), Message: fmt.Sprintf("%s bound to %s", slot, binding)}
	}

	var conflict *hotkey.ConflictError
	if !errors.As(err, &conflict) {
		return ipc.Response{OK: false, State: string(c.state.Phase), Error: err.Error()}
	}

	if !override {
		return ipc.Response{
			OK:       false,
			State:    string(c.state.Phase),
			Error:    err.Error(),
			Conflict: conflict.Slot.String(),
		}
	}

	if oerr := c.registry.Override(slot, binding); oerr != nil {
		return ipc.Response{OK: false, State: string(c.state.Phase), Error: oerr.Error()}
	}
	if serr := c.store.SetBindings(c.registry.Bindings()); serr != nil {
		c.logger.Error("binding persist failed", "error", serr)
	}
	return ipc.Response{
		OK:       true,
		State:    string(c.state.Phase),
		Message:  fmt.Sprintf("%s bound to %s (displaced %s)", slot, binding, conflict.Slot),
		Conflict: conflict.Slot.String(),
	}
}

// shutdown releases live resources when Run exits.
func (c *Controller) shutdown() {
	if c.recording != nil {
		if _, err := c.recording.Stop(); err != nil {
			c.logger.Warn("recording stop on shutdown", "error", err)
		}
		c.recording = nil
	}
	c.speaker.Stop()
	if c.captureReply != nil {
		c.captureReply <- ipc.Response{OK: false, Error: "daemon is shutting down"}
		c.captureReply = nil
	}
	c.logger.Info("session controller stopped")
}

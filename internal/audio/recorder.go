package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNoInputDevice marks recording start failures caused by the absence of
// a usable input device, including devices stuck reporting a 0Hz format.
var ErrNoInputDevice = errors.New("no usable audio input device")

// RetryPolicy bounds the wait for a device to report a valid sample format.
// Bluetooth sources flip profiles on first open and briefly advertise 0Hz.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy is used when config leaves the policy unset.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Delay: 150 * time.Millisecond}

// Config carries recorder settings resolved from application config.
type Config struct {
	Input            string
	Fallback         string
	SilenceThreshold float64
	SilenceWindow    time.Duration
	Retry            RetryPolicy
}

// Recording is one live capture owned by the session controller.
type Recording interface {
	// Stop synchronously detaches capture and returns the session buffer.
	Stop() ([]float32, error)
	// AutoStop delivers the trimmed buffer when sustained silence elapses.
	AutoStop() <-chan []float32
}

// Recorder starts recordings. The production implementation is
// PulseRecorder; tests substitute fakes.
type Recorder interface {
	Start(ctx context.Context) (Recording, error)
}

// PulseRecorder starts Pulse capture streams with silence monitoring.
type PulseRecorder struct {
	cfg    Config
	logger *slog.Logger
}

// NewPulseRecorder builds the production recorder.
func NewPulseRecorder(cfg Config, logger *slog.Logger) *PulseRecorder {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy
	}
	return &PulseRecorder{cfg: cfg, logger: logger}
}

// Start selects a device, waits out transient 0Hz formats, and opens the
// capture stream with a fresh silence monitor.
func (r *PulseRecorder) Start(ctx context.Context) (Recording, error) {
	device, err := awaitValidFormat(ctx, r.cfg.Retry, func(ctx context.Context) (Device, error) {
		selection, err := SelectDevice(ctx, r.cfg.Input, r.cfg.Fallback)
		if err != nil {
			return Device{}, err
		}
		if selection.Warning != "" {
			r.logger.Warn("audio device fallback", "warning", selection.Warning)
		}
		return selection.Device, nil
	})
	if err != nil {
		return nil, err
	}

	monitor := NewMonitor(r.cfg.SilenceThreshold, r.cfg.SilenceWindow)
	capture, err := startCapture(device, monitor)
	if err != nil {
		return nil, err
	}

	r.logger.Info("recording started",
		"device", device.ID,
		"rate", device.SampleRate,
		"silence_threshold", r.cfg.SilenceThreshold,
		"silence_window", r.cfg.SilenceWindow.String(),
	)
	return capture, nil
}

// awaitValidFormat probes until the selected device reports a non-zero
// sample rate, bounded by the retry policy.
func awaitValidFormat(ctx context.Context, policy RetryPolicy, probe func(context.Context) (Device, error)) (Device, error) {
	var lastDevice Device
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		device, err := probe(ctx)
		if err != nil {
			return Device{}, err
		}
		if device.SampleRate > 0 {
			return device, nil
		}
		lastDevice = device

		if attempt == policy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return Device{}, ctx.Err()
		case <-time.After(policy.Delay):
		}
	}
	return Device{}, fmt.Errorf("device %q kept reporting a 0Hz sample format after %d attempts: %w",
		lastDevice.ID, policy.MaxAttempts, ErrNoInputDevice)
}

// Package speak reads the primary selection and voices it through the
// configured text-to-speech command.
package speak

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Speaker runs the configured selection and TTS commands. It implements
// session.Speaker: Speak blocks until the TTS process exits or Stop kills
// it.
type Speaker struct {
	speakArgv     []string
	selectionArgv []string
	logger        *slog.Logger

	mu      sync.Mutex
	current *exec.Cmd
	stopped bool
}

// New constructs a speaker from the validated command argv forms.
func New(speakArgv []string, selectionArgv []string, logger *slog.Logger) *Speaker {
	return &Speaker{speakArgv: speakArgv, selectionArgv: selectionArgv, logger: logger}
}

// ReadSelection runs the selection command and returns its stdout.
func (s *Speaker) ReadSelection(ctx context.Context) (string, error) {
	if len(s.selectionArgv) == 0 {
		return "", errors.New("selection command is not configured")
	}

	runCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.selectionArgv[0], s.selectionArgv[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("read selection via %s: %w", s.selectionArgv[0], err)
	}
	return string(out), nil
}

// Speak feeds text to the TTS command's stdin and waits for it to finish.
// A Stop call from another goroutine terminates the process; Speak then
// returns nil.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	if len(s.speakArgv) == 0 {
		return errors.New("speak command is not configured")
	}

	cmd := exec.CommandContext(ctx, s.speakArgv[0], s.speakArgv[1:]...)
	cmd.Stdin = strings.NewReader(text)

	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		return errors.New("speech already in progress")
	}
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("start speak command %s: %w", s.speakArgv[0], err)
	}
	s.current = cmd
	s.stopped = false
	s.mu.Unlock()

	err := cmd.Wait()

	s.mu.Lock()
	stopped := s.stopped
	s.current = nil
	s.stopped = false
	s.mu.Unlock()

	if stopped {
		return nil
	}
	if err != nil {
		return fmt.Errorf("speak command %s: %w", s.speakArgv[0], err)
	}
	return nil
}

// Stop terminates a running TTS process. It is a no-op when nothing is
// speaking.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.Process == nil {
		return
	}
	s.stopped = true
	if err := s.current.Process.Kill(); err != nil {
		s.logger.Warn("stopping speech process failed", "error", err)
	}
}

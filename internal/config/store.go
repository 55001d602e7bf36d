package config

import (
	"fmt"
	"log/slog"

	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
)

// Store owns the mutable slice of configuration: committed bindings, the
// active language, and dictation history. All methods run on the session
// orchestration goroutine, so there is no locking here. History is kept
// newest-first.
type Store struct {
	path   string
	cfg    Config
	logger *slog.Logger
}

// NewStore wraps a loaded configuration for persistence.
func NewStore(loaded Loaded, logger *slog.Logger) *Store {
	return &Store{path: loaded.Path, cfg: loaded.Config, logger: logger}
}

// Config returns the current configuration snapshot.
func (s *Store) Config() Config {
	return s.cfg
}

// ActiveLanguage returns the current transcription language code.
func (s *Store) ActiveLanguage() string {
	return s.cfg.Languages.ActiveLanguage()
}

// CycleLanguage advances to the next configured language and persists the
// new index. With a single configured language it is a persisted no-op.
func (s *Store) CycleLanguage() (string, error) {
	codes := s.cfg.Languages.Codes
	if len(codes) == 0 {
		return "", fmt.Errorf("no languages configured")
	}

	s.cfg.Languages.Active = (s.cfg.Languages.Active + 1) % len(codes)
	if err := s.save(); err != nil {
		return "", err
	}

	active := codes[s.cfg.Languages.Active]
	s.logger.Info("language cycled", "language", active)
	return active, nil
}

// AppendHistory records one committed transcript, newest first, capped at
// HistoryLimit, and persists.
func (s *Store) AppendHistory(text string) error {
	history := make([]string, 0, HistoryLimit)
	history = append(history, text)
	for _, prev := range s.cfg.History {
		if len(history) == HistoryLimit {
			break
		}
		history = append(history, prev)
	}
	s.cfg.History = history
	return s.save()
}

// History returns persisted transcripts, newest first.
func (s *Store) History() []string {
	return append([]string(nil), s.cfg.History...)
}

// SetBinding persists a committed binding for a slot. The caller resolves
// conflicts through the registry before calling this.
func (s *Store) SetBinding(slot hotkey.Slot, binding hotkey.Binding) error {
	if s.cfg.Hotkeys == nil {
		s.cfg.Hotkeys = make(map[hotkey.Slot]hotkey.Binding)
	}
	s.cfg.Hotkeys[slot] = binding
	if err := s.save(); err != nil {
		return err
	}
	s.logger.Info("hotkey binding saved", "slot", slot, "binding", binding.String())
	return nil
}

// SetBindings persists the full slot map after an override resolution.
func (s *Store) SetBindings(bindings map[hotkey.Slot]hotkey.Binding) error {
	s.cfg.Hotkeys = bindings
	return s.save()
}

func (s *Store) save() error {
	return Save(s.path, s.cfg)
}

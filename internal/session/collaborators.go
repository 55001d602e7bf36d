package session

import (
	"context"

	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
)

// Committer persists/dispatches a transcript when processing succeeds.
type Committer interface {
	Commit(context.Context, string) error
}

// CommitFunc adapts a function to the Committer interface.
type CommitFunc func(context.Context, string) error

func (f CommitFunc) Commit(ctx context.Context, transcript string) error {
	return f(ctx, transcript)
}

// Speaker reads the primary selection and speaks text aloud for the
// speak-selection slot. Speak blocks until speech finishes or Stop is
// called from another goroutine.
type Speaker interface {
	ReadSelection(ctx context.Context) (string, error)
	Speak(ctx context.Context, text string) error
	Stop()
}

// Notifier surfaces human-readable status to the user; the session renders
// no UI of its own.
type Notifier interface {
	Notify(ctx context.Context, summary string)
}

// NotifyFunc adapts a function to the Notifier interface.
type NotifyFunc func(context.Context, string)

func (f NotifyFunc) Notify(ctx context.Context, summary string) {
	f(ctx, summary)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string) {}

// Store persists the mutable configuration slice the session owns:
// committed bindings, the active language, and dictation history.
type Store interface {
	ActiveLanguage() string
	CycleLanguage() (string, error)
	AppendHistory(text string) error
	History() []string
	SetBinding(slot hotkey.Slot, binding hotkey.Binding) error
	SetBindings(bindings map[hotkey.Slot]hotkey.Binding) error
}

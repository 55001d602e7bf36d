package hotkey

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrEmptyBinding marks a binding with no modifiers and no key.
var ErrEmptyBinding = errors.New("binding must contain at least one modifier or a key")

// Binding is one trigger definition: a modifier set plus an optional
// primary key. Key is zero when the binding is modifier-only; when set it is
// stored lowercase so matching is case-insensitive.
type Binding struct {
	Modifiers ModifierSet
	Key       rune
}

// HasKey reports whether the binding carries a primary key.
func (b Binding) HasKey() bool {
	return b.Key != 0
}

// Validate rejects the empty binding. An empty binding can never be matched
// and must not enter a registry.
func (b Binding) Validate() error {
	if b.Modifiers.Empty() && !b.HasKey() {
		return ErrEmptyBinding
	}
	return nil
}

// Equal reports binding equality: same modifier set and same key. Keys are
// stored lowercase, so this is case-insensitive by construction.
func (b Binding) Equal(o Binding) bool {
	return b.Modifiers == o.Modifiers && b.Key == o.Key
}

// Matches reports whether the live input state satisfies the binding.
// Modifier comparison is exact set equality: a superset of held modifiers
// never matches. For key bindings, key is the primary key being pressed
// (zero when the event is modifier-only).
func (b Binding) Matches(live ModifierSet, key rune) bool {
	if b.Modifiers != live {
		return false
	}
	if !b.HasKey() {
		return key == 0
	}
	return key != 0 && unicode.ToLower(key) == b.Key
}

// String renders the binding as "cmd+shift" or "ctrl+alt+v".
func (b Binding) String() string {
	if !b.HasKey() {
		return b.Modifiers.String()
	}
	if b.Modifiers.Empty() {
		return string(b.Key)
	}
	return b.Modifiers.String() + "+" + string(b.Key)
}

// NewBinding builds a validated binding, lowercasing the key.
func NewBinding(mods ModifierSet, key rune) (Binding, error) {
	b := Binding{Modifiers: mods, Key: unicode.ToLower(key)}
	if err := b.Validate(); err != nil {
		return Binding{}, err
	}
	return b, nil
}

// ParseBinding parses a "+"-separated binding string such as "shift+ctrl" or
// "cmd+shift+v". At most one token may be a single printable non-modifier
// character; it becomes the primary key.
func ParseBinding(raw string) (Binding, error) {
	var b Binding
	tokens := strings.Split(raw, "+")
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			return Binding{}, fmt.Errorf("binding %q contains an empty token", raw)
		}
		if mod, err := ParseModifier(token); err == nil {
			b.Modifiers = b.Modifiers.With(mod)
			continue
		}
		if utf8.RuneCountInString(token) != 1 {
			return Binding{}, fmt.Errorf("binding %q: unknown token %q", raw, token)
		}
		if b.HasKey() {
			return Binding{}, fmt.Errorf("binding %q has more than one key", raw)
		}
		r, _ := utf8.DecodeRuneInString(token)
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return Binding{}, fmt.Errorf("binding %q: key %q is not a printable character", raw, token)
		}
		b.Key = unicode.ToLower(r)
	}
	if err := b.Validate(); err != nil {
		return Binding{}, err
	}
	return b, nil
}

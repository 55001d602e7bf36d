// Package hotkey defines the hotkey data model: modifier sets, bindings,
// trigger slots, and the registry that maps slots to bindings.
package hotkey

import (
	"fmt"
	"strings"
)

// ModifierKey is one abstract modifier, independent of left/right variants.
type ModifierKey uint8

const (
	ModShift ModifierKey = iota
	ModCtrl
	ModCmd
	ModAlt
	ModFn

	modifierCount
)

var modifierNames = [modifierCount]string{
	ModShift: "shift",
	ModCtrl:  "ctrl",
	ModCmd:   "cmd",
	ModAlt:   "alt",
	ModFn:    "fn",
}

// String returns the canonical lowercase name of the modifier.
func (m ModifierKey) String() string {
	if int(m) < len(modifierNames) {
		return modifierNames[m]
	}
	return fmt.Sprintf("modifier(%d)", uint8(m))
}

// ParseModifier maps a config token to a ModifierKey. Common aliases are
// accepted so configs written for other platforms still load.
func ParseModifier(token string) (ModifierKey, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "shift":
		return ModShift, nil
	case "ctrl", "control":
		return ModCtrl, nil
	case "cmd", "command", "super", "win", "meta":
		return ModCmd, nil
	case "alt", "option", "opt":
		return ModAlt, nil
	case "fn", "function":
		return ModFn, nil
	}
	return 0, fmt.Errorf("unknown modifier %q", token)
}

// ModifierSet is a bitmask over ModifierKey. Because the representation is a
// bitmask, equality and map-key hashing are order-independent by construction.
type ModifierSet uint8

// NewModifierSet builds a set from the given keys.
func NewModifierSet(keys ...ModifierKey) ModifierSet {
	var s ModifierSet
	for _, k := range keys {
		s = s.With(k)
	}
	return s
}

// With returns the set with k added.
func (s ModifierSet) With(k ModifierKey) ModifierSet {
	return s | 1<<k
}

// Without returns the set with k removed.
func (s ModifierSet) Without(k ModifierKey) ModifierSet {
	return s &^ (1 << k)
}

// Union returns the union of both sets.
func (s ModifierSet) Union(o ModifierSet) ModifierSet {
	return s | o
}

// Diff returns the members of s that are not in o.
func (s ModifierSet) Diff(o ModifierSet) ModifierSet {
	return s &^ o
}

// Has reports whether k is in the set.
func (s ModifierSet) Has(k ModifierKey) bool {
	return s&(1<<k) != 0
}

// Empty reports whether the set contains no modifiers.
func (s ModifierSet) Empty() bool {
	return s == 0
}

// Keys returns the members in canonical order (shift, ctrl, cmd, alt, fn).
func (s ModifierSet) Keys() []ModifierKey {
	keys := make([]ModifierKey, 0, 5)
	for k := ModifierKey(0); k < modifierCount; k++ {
		if s.Has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// String renders the set as "shift+ctrl" in canonical order.
func (s ModifierSet) String() string {
	if s.Empty() {
		return "(none)"
	}
	parts := make([]string, 0, 5)
	for _, k := range s.Keys() {
		parts = append(parts, k.String())
	}
	return strings.Join(parts, "+")
}

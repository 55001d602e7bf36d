package hotkey

import (
	"fmt"
)

// ConflictError reports that a candidate binding is already assigned to
// another slot. The registry is left unchanged; the caller decides whether to
// override or abandon the change.
type ConflictError struct {
	Candidate Binding
	Slot      Slot
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("binding %q is already assigned to slot %q", e.Candidate, e.Slot)
}

// Registry maps every slot to its current binding. It is always fully
// populated: construction seeds defaults, and mutation can only replace a
// binding, never remove one. The registry is confined to the orchestration
// goroutine and carries no locking.
type Registry struct {
	bindings map[Slot]Binding
}

// DefaultBindings returns the built-in slot assignments.
func DefaultBindings() map[Slot]Binding {
	return map[Slot]Binding{
		SlotToggle:         {Modifiers: NewModifierSet(ModShift, ModCtrl)},
		SlotPushToTalk:     {Modifiers: NewModifierSet(ModCmd, ModShift)},
		SlotSpeakSelection: {Modifiers: NewModifierSet(ModCmd, ModShift), Key: 's'},
		SlotCycleLanguage:  {Modifiers: NewModifierSet(ModCmd, ModShift), Key: 'l'},
	}
}

// NewRegistry builds a registry seeded with the default bindings.
func NewRegistry() *Registry {
	return &Registry{bindings: DefaultBindings()}
}

// Binding returns the current binding for a slot.
func (r *Registry) Binding(slot Slot) Binding {
	return r.bindings[slot]
}

// Bindings returns a copy of the full slot map.
func (r *Registry) Bindings() map[Slot]Binding {
	out := make(map[Slot]Binding, len(r.bindings))
	for slot, b := range r.bindings {
		out[slot] = b
	}
	return out
}

// FindConflict returns the first slot other than excluding whose binding
// equals candidate. Slots are scanned in the fixed Slots() order so the
// answer is deterministic.
func (r *Registry) FindConflict(candidate Binding, excluding Slot) (Slot, bool) {
	for _, slot := range Slots() {
		if slot == excluding {
			continue
		}
		if r.bindings[slot].Equal(candidate) {
			return slot, true
		}
	}
	return "", false
}

// Commit assigns binding to slot. It fails with ErrEmptyBinding for the
// empty binding and with a *ConflictError when another slot already holds an
// equal binding; in both cases the registry is unchanged.
func (r *Registry) Commit(slot Slot, binding Binding) error {
	if err := binding.Validate(); err != nil {
		return err
	}
	if other, found := r.FindConflict(binding, slot); found {
		return &ConflictError{Candidate: binding, Slot: other}
	}
	r.bindings[slot] = binding
	return nil
}

// Override assigns binding to slot even when it conflicts. The conflicting
// slot receives slot's previous binding, so the registry stays fully
// populated and free of duplicates.
func (r *Registry) Override(slot Slot, binding Binding) error {
	if err := binding.Validate(); err != nil {
		return err
	}
	previous := r.bindings[slot]
	if other, found := r.FindConflict(binding, slot); found {
		r.bindings[other] = previous
	}
	r.bindings[slot] = binding
	return nil
}

package capture

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sebstrdigital/dua-talk/internal/hotkey"
	"github.com/Sebstrdigital/dua-talk/internal/keytap"
)

func modsChanged(mods ...hotkey.ModifierKey) keytap.Event {
	return keytap.Event{Kind: keytap.KindModifiersChanged, Modifiers: hotkey.NewModifierSet(mods...)}
}

func keyDown(char rune, mods ...hotkey.ModifierKey) keytap.Event {
	return keytap.Event{Kind: keytap.KindKeyDown, Char: char, Modifiers: hotkey.NewModifierSet(mods...)}
}

func TestCaptureModifierOnlyBinding(t *testing.T) {
	c := New()

	_, done := c.Observe(modsChanged(hotkey.ModShift))
	require.False(t, done)
	_, done = c.Observe(modsChanged(hotkey.ModShift, hotkey.ModCtrl))
	require.False(t, done)

	// Staggered release: binding finalizes only when everything is up.
	_, done = c.Observe(modsChanged(hotkey.ModCtrl))
	require.False(t, done)
	binding, done := c.Observe(modsChanged())
	require.True(t, done)
	require.Equal(t, hotkey.Binding{Modifiers: hotkey.NewModifierSet(hotkey.ModShift, hotkey.ModCtrl)}, binding)
	require.True(t, c.Finished())
}

func TestCaptureKeyFinalizesImmediately(t *testing.T) {
	c := New()

	c.Observe(modsChanged(hotkey.ModCmd))
	c.Observe(modsChanged(hotkey.ModCmd, hotkey.ModShift))

	binding, done := c.Observe(keyDown('V', hotkey.ModCmd, hotkey.ModShift))
	require.True(t, done)
	require.Equal(t, hotkey.Binding{
		Modifiers: hotkey.NewModifierSet(hotkey.ModCmd, hotkey.ModShift),
		Key:       'v',
	}, binding)
}

func TestCaptureAccumulatesAcrossPartialRelease(t *testing.T) {
	c := New()

	// shift pressed and released partway still counts toward the union.
	c.Observe(modsChanged(hotkey.ModShift))
	c.Observe(modsChanged(hotkey.ModShift, hotkey.ModCtrl))
	c.Observe(modsChanged(hotkey.ModCtrl))

	binding, done := c.Observe(keyDown('x', hotkey.ModCtrl))
	require.True(t, done)
	require.Equal(t, hotkey.NewModifierSet(hotkey.ModShift, hotkey.ModCtrl), binding.Modifiers)
	require.Equal(t, 'x', binding.Key)
}

func TestCaptureIgnoresNonPrintableKeys(t *testing.T) {
	c := New()

	c.Observe(modsChanged(hotkey.ModShift))
	_, done := c.Observe(keyDown(0, hotkey.ModShift))
	require.False(t, done)
	_, done = c.Observe(keyDown(' ', hotkey.ModShift))
	require.False(t, done)
	require.False(t, c.Finished())
}

func TestCaptureEmptyReleaseDoesNotFinalize(t *testing.T) {
	c := New()

	_, done := c.Observe(modsChanged())
	require.False(t, done)
	_, done = c.Observe(keyDown(0))
	require.False(t, done)
	require.False(t, c.Finished())
}

func TestCaptureSingleShot(t *testing.T) {
	c := New()

	c.Observe(modsChanged(hotkey.ModShift))
	binding, done := c.Observe(modsChanged())
	require.True(t, done)
	require.Equal(t, hotkey.NewModifierSet(hotkey.ModShift), binding.Modifiers)

	// Further input is inert until a new controller is armed.
	_, done = c.Observe(modsChanged(hotkey.ModCtrl))
	require.False(t, done)
	_, done = c.Observe(keyDown('a'))
	require.False(t, done)
	require.Equal(t, hotkey.NewModifierSet(hotkey.ModShift), c.Result().Modifiers)
}

//go:build darwin

package keytap

import "github.com/Sebstrdigital/dua-talk/internal/hotkey"

// On macOS the hook reports Rawcode as the Carbon virtual keycode (kVK_*).
// Left/right variants collapse onto the same abstract modifier.
var modifierRawcodes = map[uint16]hotkey.ModifierKey{
	56: hotkey.ModShift, // left shift
	60: hotkey.ModShift, // right shift
	59: hotkey.ModCtrl,  // left control
	62: hotkey.ModCtrl,  // right control
	58: hotkey.ModAlt,   // left option
	61: hotkey.ModAlt,   // right option
	55: hotkey.ModCmd,   // left command
	54: hotkey.ModCmd,   // right command
	63: hotkey.ModFn,    // fn
}

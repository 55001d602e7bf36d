//go:build linux

package keytap

import "github.com/Sebstrdigital/dua-talk/internal/hotkey"

// On Linux the hook reports Rawcode as the X11 keysym of the event, not the
// X11 keycode, so the table is keyed by keysym. Left/right variants collapse
// onto the same abstract modifier.
var modifierRawcodes = map[uint16]hotkey.ModifierKey{
	0xFFE1: hotkey.ModShift, // XK_Shift_L
	0xFFE2: hotkey.ModShift, // XK_Shift_R
	0xFFE3: hotkey.ModCtrl,  // XK_Control_L
	0xFFE4: hotkey.ModCtrl,  // XK_Control_R
	0xFFE9: hotkey.ModAlt,   // XK_Alt_L
	0xFFEA: hotkey.ModAlt,   // XK_Alt_R
	0xFFEB: hotkey.ModCmd,   // XK_Super_L
	0xFFEC: hotkey.ModCmd,   // XK_Super_R
}

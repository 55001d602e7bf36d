//go:build windows

package keytap

import "github.com/Sebstrdigital/dua-talk/internal/hotkey"

// On Windows the hook reports Rawcode as the virtual-key code of the
// sided key. Left/right variants collapse onto the same abstract modifier.
var modifierRawcodes = map[uint16]hotkey.ModifierKey{
	160: hotkey.ModShift, // VK_LSHIFT
	161: hotkey.ModShift, // VK_RSHIFT
	162: hotkey.ModCtrl,  // VK_LCONTROL
	163: hotkey.ModCtrl,  // VK_RCONTROL
	164: hotkey.ModAlt,   // VK_LMENU
	165: hotkey.ModAlt,   // VK_RMENU
	91:  hotkey.ModCmd,   // VK_LWIN
	92:  hotkey.ModCmd,   // VK_RWIN
}

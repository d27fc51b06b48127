//go:build linux

package xlistener

import xhotkey "golang.design/x/hotkey"

// On X11 Alt is usually Mod1 and Super is Mod4.
var modMap = map[string]xhotkey.Modifier{
	"<ctrl>":  xhotkey.ModCtrl,
	"<shift>": xhotkey.ModShift,
	"<alt>":   xhotkey.Mod1,
	"<cmd>":   xhotkey.Mod4,
}

// KeyDelete is XK_Delete; BackSpace is XK_BackSpace.
var platformKeys = map[string]xhotkey.Key{
	"backspace": xhotkey.Key(0xff08),
	"delete":    xhotkey.KeyDelete,
}

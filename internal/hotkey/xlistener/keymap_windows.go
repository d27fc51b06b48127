//go:build windows

package xlistener

import xhotkey "golang.design/x/hotkey"

var modMap = map[string]xhotkey.Modifier{
	"<ctrl>":  xhotkey.ModCtrl,
	"<shift>": xhotkey.ModShift,
	"<alt>":   xhotkey.ModAlt,
	"<cmd>":   xhotkey.ModWin,
}

// KeyDelete is VK_DELETE; VK_BACK is backspace.
var platformKeys = map[string]xhotkey.Key{
	"backspace": xhotkey.Key(0x08),
	"delete":    xhotkey.KeyDelete,
}

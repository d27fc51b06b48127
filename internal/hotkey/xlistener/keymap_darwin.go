//go:build darwin

package xlistener

import xhotkey "golang.design/x/hotkey"

// Alt is the Option key on macOS.
var modMap = map[string]xhotkey.Modifier{
	"<ctrl>":  xhotkey.ModCtrl,
	"<shift>": xhotkey.ModShift,
	"<alt>":   xhotkey.ModOption,
	"<cmd>":   xhotkey.ModCmd,
}

// KeyDelete is kVK_Delete, the key labelled delete that erases backwards.
// Forward delete is kVK_ForwardDelete.
var platformKeys = map[string]xhotkey.Key{
	"backspace": xhotkey.KeyDelete,
	"delete":    xhotkey.Key(0x75),
}

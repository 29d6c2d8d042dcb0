package prefs

import (
	"fmt"
	"strings"
)

// Code 物理按键编码
type Code int

const (
	KeyUnknown Code = iota
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Digit0
	Digit1
	Digit2
	Digit3
	Digit4
	Digit5
	Digit6
	Digit7
	Digit8
	Digit9
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
)

// DefaultKey 无法识别的按键统一映射到 V
const DefaultKey = KeyV

// Modifiers 修饰键位集合
type Modifiers uint8

const (
	ModControl Modifiers = 1 << iota
	ModAlt
	ModShift
	ModMeta
)

// Hotkey 平台无关的快捷键表示
type Hotkey struct {
	Mods Modifiers
	Code Code
}

var keyCodes = map[string]Code{
	"a": KeyA, "b": KeyB, "c": KeyC, "d": KeyD, "e": KeyE, "f": KeyF, "g": KeyG,
	"h": KeyH, "i": KeyI, "j": KeyJ, "k": KeyK, "l": KeyL, "m": KeyM, "n": KeyN,
	"o": KeyO, "p": KeyP, "q": KeyQ, "r": KeyR, "s": KeyS, "t": KeyT, "u": KeyU,
	"v": KeyV, "w": KeyW, "x": KeyX, "y": KeyY, "z": KeyZ,

	"0": Digit0, "1": Digit1, "2": Digit2, "3": Digit3, "4": Digit4,
	"5": Digit5, "6": Digit6, "7": Digit7, "8": Digit8, "9": Digit9,

	"f1": F1, "f2": F2, "f3": F3, "f4": F4, "f5": F5, "f6": F6,
	"f7": F7, "f8": F8, "f9": F9, "f10": F10, "f11": F11, "f12": F12,
}

var modifierFlags = map[string]Modifiers{
	"ctrl":    ModControl,
	"alt":     ModAlt,
	"shift":   ModShift,
	"meta":    ModMeta,
	"super":   ModMeta,
	"command": ModMeta,
}

var codeNames = func() map[Code]string {
	names := make(map[Code]string, len(keyCodes))
	for name, code := range keyCodes {
		names[code] = strings.ToUpper(name)
	}
	return names
}()

// ParseKey 将按键字符串映射为 Code，大小写不敏感，未知值返回 DefaultKey
func ParseKey(key string) Code {
	if code, ok := keyCodes[strings.ToLower(strings.TrimSpace(key))]; ok {
		return code
	}
	return DefaultKey
}

// ParseModifiers 忽略顺序与大小写，未识别的修饰键直接丢弃
func ParseModifiers(tokens []string) Modifiers {
	var mods Modifiers
	for _, t := range tokens {
		mods |= modifierFlags[strings.ToLower(strings.TrimSpace(t))]
	}
	return mods
}

// Hotkey 将配置转换为平台快捷键表示
func (b Binding) Hotkey() Hotkey {
	return Hotkey{Mods: ParseModifiers(b.Modifiers), Code: ParseKey(b.Key)}
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "Unknown"
}

func (m Modifiers) String() string {
	var parts []string
	if m&ModControl != 0 {
		parts = append(parts, "Ctrl")
	}
	if m&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if m&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if m&ModMeta != 0 {
		parts = append(parts, "Meta")
	}
	return strings.Join(parts, "+")
}

func (h Hotkey) String() string {
	if h.Mods == 0 {
		return h.Code.String()
	}
	return fmt.Sprintf("%s+%s", h.Mods, h.Code)
}

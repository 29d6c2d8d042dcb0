package hotkey

import (
	"sync"

	"mememeow/prefs"
)

// MemoryRegistrar 进程内的快捷键表，用于无界面运行和测试。
// Press 模拟一次按键，Reserve 模拟被其他程序占用的组合。
type MemoryRegistrar struct {
	mu       sync.Mutex
	handlers map[prefs.Hotkey]func(prefs.Hotkey)
	reserved map[prefs.Hotkey]bool
}

func NewMemoryRegistrar() *MemoryRegistrar {
	return &MemoryRegistrar{
		handlers: make(map[prefs.Hotkey]func(prefs.Hotkey)),
		reserved: make(map[prefs.Hotkey]bool),
	}
}

func (r *MemoryRegistrar) Reserve(hk prefs.Hotkey) {
	r.mu.Lock()
	r.reserved[hk] = true
	r.mu.Unlock()
}

func (r *MemoryRegistrar) Register(hk prefs.Hotkey, pressed func(prefs.Hotkey)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reserved[hk] {
		return ErrConflict
	}
	if _, ok := r.handlers[hk]; ok {
		return ErrConflict
	}
	r.handlers[hk] = pressed
	return nil
}

func (r *MemoryRegistrar) UnregisterAll() error {
	r.mu.Lock()
	clear(r.handlers)
	r.mu.Unlock()
	return nil
}

// Registered 当前注册的快捷键数量
func (r *MemoryRegistrar) Registered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers)
}

// Press 触发回调，未注册时返回 false
func (r *MemoryRegistrar) Press(hk prefs.Hotkey) bool {
	r.mu.Lock()
	fn, ok := r.handlers[hk]
	r.mu.Unlock()
	if !ok {
		return false
	}
	fn(hk)
	return true
}

// HeadlessWindow 只记录状态的窗口
type HeadlessWindow struct {
	mu      sync.Mutex
	visible bool
	focused bool
}

func (w *HeadlessWindow) IsVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func (w *HeadlessWindow) Show() error {
	w.mu.Lock()
	w.visible = true
	w.mu.Unlock()
	return nil
}

func (w *HeadlessWindow) Hide() error {
	w.mu.Lock()
	w.visible = false
	w.focused = false
	w.mu.Unlock()
	return nil
}

func (w *HeadlessWindow) SetFocus() error {
	w.mu.Lock()
	w.focused = w.visible
	w.mu.Unlock()
	return nil
}

func (w *HeadlessWindow) Focused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

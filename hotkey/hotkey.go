// Package hotkey 把偏好中的切换快捷键注册到系统，并在按下时切换主窗口。
package hotkey

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"mememeow/logger"
	"mememeow/prefs"
)

// ErrConflict 快捷键已被其他程序占用
var ErrConflict = errors.New("hotkey already registered by another application")

// Registrar 系统全局快捷键的注册接口
type Registrar interface {
	Register(hk prefs.Hotkey, pressed func(prefs.Hotkey)) error
	UnregisterAll() error
}

// Window 主窗口的可见性与焦点控制
type Window interface {
	IsVisible() bool
	Show() error
	Hide() error
	SetFocus() error
}

// BindingSource 提供当前的切换快捷键，一般是 *prefs.Store
type BindingSource interface {
	ToggleAppHotkey() (prefs.Hotkey, error)
}

type Manager struct {
	source BindingSource
	reg    Registrar
	win    Window
	log    logrus.FieldLogger

	mu      sync.Mutex
	current *prefs.Hotkey
}

func NewManager(source BindingSource, reg Registrar, win Window, log logrus.FieldLogger) *Manager {
	return &Manager{
		source: source,
		reg:    reg,
		win:    win,
		log:    logger.OrNop(log).WithField("component", "hotkey"),
	}
}

// Refresh 注销全部快捷键，再按偏好重新注册切换快捷键。
// 偏好读取失败时已有注册保持不变。
func (m *Manager) Refresh() (prefs.Hotkey, error) {
	hk, err := m.source.ToggleAppHotkey()
	if err != nil {
		return prefs.Hotkey{}, fmt.Errorf("read toggle binding: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.reg.UnregisterAll(); err != nil {
		m.log.Warnf("注销快捷键失败: %v", err)
	}
	m.current = nil

	if err := m.reg.Register(hk, m.pressed); err != nil {
		m.log.Errorf("注册快捷键 %s 失败: %v", hk, err)
		return hk, fmt.Errorf("register %s: %w", hk, err)
	}
	m.current = &hk
	m.log.Infof("已注册快捷键: %s", hk)
	return hk, nil
}

// Current 当前已注册的快捷键
func (m *Manager) Current() (prefs.Hotkey, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return prefs.Hotkey{}, false
	}
	return *m.current, true
}

// Close 注销全部快捷键
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	return m.reg.UnregisterAll()
}

func (m *Manager) pressed(hk prefs.Hotkey) {
	m.log.Debugf("快捷键被按下: %s", hk)
	if err := m.Toggle(); err != nil {
		m.log.Errorf("切换窗口失败: %v", err)
	}
}

// Toggle 可见则隐藏，否则显示并聚焦
func (m *Manager) Toggle() error {
	if m.win.IsVisible() {
		return m.win.Hide()
	}
	if err := m.win.Show(); err != nil {
		return err
	}
	return m.win.SetFocus()
}

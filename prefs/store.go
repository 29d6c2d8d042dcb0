// Package prefs 管理用户偏好设置：单一内存副本，受互斥锁保护，每次修改都整体写回磁盘。
package prefs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"mememeow/logger"
)

// FileName 偏好文件名
const FileName = "preferences.json"

// DefaultLockWait 默认的加锁等待上限
const DefaultLockWait = 2 * time.Second

// Store 偏好设置存储。所有读写都经过同一把锁；
// 写操作在持锁期间完成序列化与落盘，读者看到的内存状态不会比磁盘新出一次写入以上。
type Store struct {
	path     string
	lockWait time.Duration
	log      logrus.FieldLogger

	sem   *semaphore.Weighted
	prefs Preferences
}

type Option func(*Store)

// WithLockWait 设置加锁等待上限；0 表示只尝试一次，被占用时立即返回 ErrBusy
func WithLockWait(d time.Duration) Option {
	return func(s *Store) {
		if d < 0 {
			d = 0
		}
		s.lockWait = d
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// DefaultDir 返回 <用户配置目录>/<appName>
func DefaultDir(appName string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, appName)
}

// New 在 dir 下打开偏好文件。文件缺失或解析失败时使用默认值并立即写回；
// 加载失败不会导致构造失败，只有目录无法创建时才返回错误。
func New(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		path:     filepath.Join(dir, FileName),
		lockWait: DefaultLockWait,
		log:      logger.NewNop(),
		sem:      semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "prefs")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory %s: %w", dir, err)
	}
	s.log.Debugf("配置目录: %s", dir)

	prefs, err := readFile(s.path)
	switch {
	case err == nil:
		s.log.Info("加载用户配置成功")
	case isNotExist(err):
		s.log.Debugf("配置文件不存在，将创建默认配置: %s", s.path)
		prefs = s.heal()
	default:
		s.log.Errorf("加载用户配置失败: %v，将使用默认配置", err)
		prefs = s.heal()
	}
	s.prefs = prefs

	return s, nil
}

// heal 写回默认配置，写入失败只记录日志
func (s *Store) heal() Preferences {
	prefs := DefaultPreferences()
	if err := writeFile(s.path, prefs); err != nil {
		s.log.Warnf("写入默认配置失败: %v", err)
	}
	return prefs
}

// Path 偏好文件的绝对路径
func (s *Store) Path() string {
	return s.path
}

func (s *Store) acquire() error {
	if s.lockWait <= 0 {
		if !s.sem.TryAcquire(1) {
			return ErrBusy
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.lockWait)
	defer cancel()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return ErrBusy
	}
	return nil
}

func (s *Store) release() {
	s.sem.Release(1)
}

func (s *Store) read(fn func(p *Preferences)) error {
	if err := s.acquire(); err != nil {
		s.log.Error("无法获取偏好设置锁，可能已被其他线程持有")
		return err
	}
	defer s.release()
	fn(&s.prefs)
	return nil
}

// update 持锁执行 mutate 并写盘。mutate 返回错误时不得修改 p。
func (s *Store) update(op string, mutate func(p *Preferences) error) error {
	if err := s.acquire(); err != nil {
		s.log.Errorf("%s: 获取偏好锁失败", op)
		return err
	}
	defer s.release()

	if err := mutate(&s.prefs); err != nil {
		return err
	}

	if err := writeFile(s.path, s.prefs); err != nil {
		s.log.Errorf("%s: 保存配置失败: %v", op, err)
		return &PersistError{Path: s.path, Err: err}
	}
	s.log.Debugf("%s: 配置已保存到 %s", op, s.path)
	return nil
}

// Preferences 返回完整偏好设置的副本
func (s *Store) Preferences() (Preferences, error) {
	var out Preferences
	err := s.read(func(p *Preferences) { out = p.Clone() })
	return out, err
}

func (s *Store) Shortcuts() (Shortcuts, error) {
	var out Shortcuts
	err := s.read(func(p *Preferences) { out = p.Shortcuts.Clone() })
	return out, err
}

func (s *Store) ToggleAppBinding() (Binding, error) {
	var out Binding
	err := s.read(func(p *Preferences) { out = p.Shortcuts.ToggleApp.Clone() })
	return out, err
}

// ToggleAppHotkey 返回切换窗口快捷键的平台表示
func (s *Store) ToggleAppHotkey() (Hotkey, error) {
	b, err := s.ToggleAppBinding()
	if err != nil {
		return Hotkey{}, err
	}
	return b.Hotkey(), nil
}

// ActiveEndpointURL 返回当前API地址；修复只作用于返回值，不写回存储
func (s *Store) ActiveEndpointURL() (string, error) {
	var out string
	err := s.read(func(p *Preferences) { out = p.APIURLs.ActiveURL() })
	return out, err
}

func (s *Store) Endpoints() (EndpointList, error) {
	var out EndpointList
	err := s.read(func(p *Preferences) { out = p.APIURLs.Clone() })
	return out, err
}

// UpdatePreferences 整体替换偏好设置
func (s *Store) UpdatePreferences(next Preferences) error {
	list, err := normalizeEndpoints(next.APIURLs)
	if err != nil {
		return err
	}
	next = next.Clone()
	next.APIURLs = list
	return s.update("update_preferences", func(p *Preferences) error {
		*p = next
		return nil
	})
}

func (s *Store) SetCopyToClipboard(enabled bool) error {
	return s.update("set_copy_to_clipboard", func(p *Preferences) error {
		p.CopyToClipboard = enabled
		s.log.Debugf("剪贴板设置已更新: %t", enabled)
		return nil
	})
}

func (s *Store) SetShortcuts(shortcuts Shortcuts) error {
	shortcuts = shortcuts.Clone()
	return s.update("set_shortcuts", func(p *Preferences) error {
		p.Shortcuts = shortcuts
		return nil
	})
}

func (s *Store) SetEndpoints(list EndpointList) error {
	list, err := normalizeEndpoints(list)
	if err != nil {
		return err
	}
	return s.update("set_endpoints", func(p *Preferences) error {
		p.APIURLs = list
		return nil
	})
}

func (s *Store) SetActiveEndpoint(index int) error {
	return s.update("set_active_endpoint", func(p *Preferences) error {
		if index < 0 || index >= len(p.APIURLs.URLs) {
			return indexError(index, len(p.APIURLs.URLs))
		}
		p.APIURLs.ActiveIndex = index
		s.log.Debugf("活跃API URL已更新为索引 %d", index)
		return nil
	})
}

func (s *Store) AddEndpoint(name, url string) error {
	name, url = strings.TrimSpace(name), strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidEndpoint)
	}
	if name == "" {
		name = url
	}
	return s.update("add_endpoint", func(p *Preferences) error {
		p.APIURLs.URLs = append(p.APIURLs.URLs, Endpoint{Name: name, URL: url})
		return nil
	})
}

// RemoveEndpoint 删除指定端点。删除的是当前选中项时选中下标重置为0，
// 删除位置在选中项之前时下标前移以保持选中同一端点。
func (s *Store) RemoveEndpoint(index int) error {
	return s.update("remove_endpoint", func(p *Preferences) error {
		list := &p.APIURLs
		if index < 0 || index >= len(list.URLs) {
			return indexError(index, len(list.URLs))
		}
		list.URLs = append(list.URLs[:index:index], list.URLs[index+1:]...)

		switch {
		case index == list.ActiveIndex:
			list.ActiveIndex = 0
		case index < list.ActiveIndex:
			list.ActiveIndex--
		}
		if list.ActiveIndex >= len(list.URLs) {
			list.ActiveIndex = 0
		}
		s.log.Debugf("已删除API URL，索引: %d", index)
		return nil
	})
}

// normalizeEndpoints 校验整体替换时的端点列表：非空列表的下标必须有效，空列表下标归零
func normalizeEndpoints(list EndpointList) (EndpointList, error) {
	list = list.Clone()
	if len(list.URLs) == 0 {
		list.ActiveIndex = 0
		return list, nil
	}
	if list.ActiveIndex < 0 || list.ActiveIndex >= len(list.URLs) {
		return EndpointList{}, indexError(list.ActiveIndex, len(list.URLs))
	}
	return list, nil
}

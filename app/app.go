// Package app 持有进程内共享的组件，按需初始化且只初始化一次。
package app

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"mememeow/community"
	"mememeow/config"
	"mememeow/database"
	"mememeow/fetch"
	"mememeow/hotkey"
	"mememeow/logger"
	"mememeow/prefs"
)

// ErrClosed 应用上下文已关闭
var ErrClosed = errors.New("app: closed")

type App struct {
	Config *config.Config
	Log    logrus.FieldLogger

	registrar hotkey.Registrar
	window    hotkey.Window

	prefsOnce sync.Once
	prefs     *prefs.Store
	prefsErr  error

	fetcherOnce sync.Once
	fetcher     *fetch.Fetcher

	dbOnce sync.Once
	db     *database.Store
	dbErr  error

	communityOnce sync.Once
	community     *community.Service
	communityErr  error

	hotkeysOnce sync.Once
	hotkeys     *hotkey.Manager
	hotkeysErr  error

	closeOnce sync.Once
	closeErr  error
}

type Option func(*App)

// WithHotkeyBackend 替换系统快捷键注册与窗口实现，默认使用进程内实现
func WithHotkeyBackend(reg hotkey.Registrar, win hotkey.Window) Option {
	return func(a *App) {
		a.registrar = reg
		a.window = win
	}
}

func New(cfg *config.Config, log logrus.FieldLogger, opts ...Option) *App {
	a := &App{Config: cfg, Log: logger.OrNop(log)}
	for _, opt := range opts {
		opt(a)
	}
	if a.registrar == nil {
		a.registrar = hotkey.NewMemoryRegistrar()
	}
	if a.window == nil {
		a.window = &hotkey.HeadlessWindow{}
	}
	return a
}

// Prefs 首次调用时从 config_dir 加载偏好设置
func (a *App) Prefs() (*prefs.Store, error) {
	a.prefsOnce.Do(func() {
		a.prefs, a.prefsErr = prefs.New(a.Config.ConfigDir,
			prefs.WithLockWait(a.Config.LockWait()),
			prefs.WithLogger(a.Log),
		)
		if a.prefsErr != nil {
			a.prefsErr = fmt.Errorf("init preferences: %w", a.prefsErr)
		}
	})
	return a.prefs, a.prefsErr
}

func (a *App) Fetcher() *fetch.Fetcher {
	a.fetcherOnce.Do(func() {
		a.fetcher = fetch.New(
			fetch.WithFloor(a.Config.FetchFloor()),
			fetch.WithCeiling(a.Config.FetchCeiling()),
			fetch.WithUserAgent(a.Config.Fetch.UserAgent),
			fetch.WithLogger(a.Log),
		)
	})
	return a.fetcher
}

func (a *App) DB() (*database.Store, error) {
	a.dbOnce.Do(func() {
		a.db, a.dbErr = database.Open(a.Config.Community.DatabasePath, a.Log)
	})
	return a.db, a.dbErr
}

func (a *App) Community() (*community.Service, error) {
	a.communityOnce.Do(func() {
		db, err := a.DB()
		if err != nil {
			a.communityErr = err
			return
		}
		a.community = community.NewService(a.Fetcher(), db,
			a.Config.Community.ManifestURLs, a.Config.ManifestCachePath(), a.Log)
	})
	return a.community, a.communityErr
}

// Hotkeys 快捷键管理器；创建时不注册，由调用方执行 Refresh
func (a *App) Hotkeys() (*hotkey.Manager, error) {
	a.hotkeysOnce.Do(func() {
		store, err := a.Prefs()
		if err != nil {
			a.hotkeysErr = err
			return
		}
		a.hotkeys = hotkey.NewManager(store, a.registrar, a.window, a.Log)
	})
	return a.hotkeys, a.hotkeysErr
}

// ActiveEndpointCandidates 当前API地址在前，其余地址按顺序在后
func (a *App) ActiveEndpointCandidates() ([]string, error) {
	store, err := a.Prefs()
	if err != nil {
		return nil, err
	}
	list, err := store.Endpoints()
	if err != nil {
		return nil, err
	}
	return list.CandidateURLs(), nil
}

// Close 释放已初始化的组件。正在进行的初始化会先完成；
// 关闭后尚未初始化的组件不再创建，访问时返回 ErrClosed。
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		// 依赖方在前，与初始化时的加锁顺序一致
		a.hotkeysOnce.Do(func() { a.hotkeysErr = ErrClosed })
		a.communityOnce.Do(func() { a.communityErr = ErrClosed })
		a.dbOnce.Do(func() { a.dbErr = ErrClosed })
		a.prefsOnce.Do(func() { a.prefsErr = ErrClosed })

		var errs []error
		if a.hotkeys != nil {
			if err := a.hotkeys.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if a.db != nil {
			if err := a.db.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

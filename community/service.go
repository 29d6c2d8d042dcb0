// Package community 下载并缓存社区表情库清单，管理本地启用的表情库。
package community

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"mememeow/database"
	"mememeow/fetch"
	"mememeow/logger"
	"mememeow/utils"
)

// ErrInvalidManifest 下载或缓存的内容不是合法的清单
var ErrInvalidManifest = errors.New("invalid community manifest")

// Fetcher 从候选地址下载内容
type Fetcher interface {
	Fetch(ctx context.Context, urls []string) (*fetch.Result, error)
}

// LibStore 表情库启用状态的持久化
type LibStore interface {
	SyncLibs(libs []database.MemeLib) error
	SetEnabled(uuid string, enabled bool) error
	EnabledUUIDs() ([]string, error)
	ListLibs() ([]database.MemeLib, error)
}

type Service struct {
	fetcher   Fetcher
	libs      LibStore
	urls      []string
	cachePath string
	log       logrus.FieldLogger
}

func NewService(fetcher Fetcher, libs LibStore, manifestURLs []string, cachePath string, log logrus.FieldLogger) *Service {
	return &Service{
		fetcher:   fetcher,
		libs:      libs,
		urls:      append([]string(nil), manifestURLs...),
		cachePath: cachePath,
		log:       logger.OrNop(log).WithField("component", "community"),
	}
}

// Load 优先读取缓存，缓存缺失或损坏时从网络下载
func (s *Service) Load(ctx context.Context) (*Manifest, error) {
	s.log.Info("接收到获取社区表情库清单请求")

	m, err := s.loadCache()
	if err == nil {
		s.log.Info("从缓存加载社区表情库清单成功")
		s.sync(m)
		return m, nil
	}
	s.log.Debugf("从缓存加载失败: %v，将从网络下载", err)
	return s.Download(ctx)
}

// Refresh 忽略缓存，强制从网络下载
func (s *Service) Refresh(ctx context.Context) (*Manifest, error) {
	s.log.Info("接收到刷新社区表情库清单请求")
	return s.Download(ctx)
}

// Download 下载清单、写入缓存并同步表情库元数据。
// 缓存写入失败只记录日志，内存中的结果照常返回。
func (s *Service) Download(ctx context.Context) (*Manifest, error) {
	s.log.Info("开始下载社区表情库清单")

	res, err := s.fetcher.Fetch(ctx, s.urls)
	if err != nil {
		s.log.Errorf("下载社区表情库清单失败: %v", err)
		return nil, fmt.Errorf("download manifest: %w", err)
	}

	m, err := parseManifest(res.Body)
	if err != nil {
		s.log.Errorf("解析社区表情库清单失败 (%s): %v", res.URL, err)
		return nil, err
	}

	if err := utils.WriteFileAtomic(s.cachePath, res.Body, 0o644); err != nil {
		s.log.Errorf("保存社区表情库清单到缓存失败: %v", err)
	} else {
		s.log.Debugf("社区表情库清单已保存到: %s", s.cachePath)
	}

	s.sync(m)

	s.log.Infof("社区表情库清单下载成功，包含 %d 个表情库", len(m.MemeLibs))
	return m, nil
}

// sync 把清单写入本地表情库目录，失败只记录日志
func (s *Service) sync(m *Manifest) {
	if err := s.libs.SyncLibs(m.records()); err != nil {
		s.log.Errorf("同步表情库元数据失败: %v", err)
	}
}

func (s *Service) loadCache() (*Manifest, error) {
	data, err := os.ReadFile(s.cachePath)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	return parseManifest(data)
}

// parseManifest 先用 gjson 做结构检查，再完整解码
func parseManifest(data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed json", ErrInvalidManifest)
	}
	if libs := gjson.GetBytes(data, "meme_libs"); !libs.IsObject() {
		return nil, fmt.Errorf("%w: missing meme_libs object", ErrInvalidManifest)
	}
	if info := gjson.GetBytes(data, "community_info"); !info.IsObject() {
		return nil, fmt.Errorf("%w: missing community_info object", ErrInvalidManifest)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return &m, nil
}

// Enable 启用表情库
func (s *Service) Enable(uuid string) error {
	if err := s.libs.SetEnabled(uuid, true); err != nil {
		return err
	}
	s.log.Infof("表情库已启用: %s", uuid)
	return nil
}

// Disable 禁用表情库
func (s *Service) Disable(uuid string) error {
	if err := s.libs.SetEnabled(uuid, false); err != nil {
		return err
	}
	s.log.Infof("表情库已禁用: %s", uuid)
	return nil
}

// Enabled 所有已启用表情库的uuid
func (s *Service) Enabled() ([]string, error) {
	return s.libs.EnabledUUIDs()
}

// Libraries 本地已知的全部表情库
func (s *Service) Libraries() ([]database.MemeLib, error) {
	return s.libs.ListLibs()
}

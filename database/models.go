package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"mememeow/logger"
)

// MemeLib 社区表情库元数据及本地启用状态
type MemeLib struct {
	UUID        string    `json:"uuid"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	URL         string    `json:"url"`
	UpdateURL   string    `json:"update_url"`
	Timestamp   int64     `json:"timestamp"`
	Enabled     bool      `json:"enabled"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store 表情库数据库
type Store struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// Open 打开（必要时创建）数据库文件并建表
func Open(dbPath string, log logrus.FieldLogger) (*Store, error) {
	log = logger.OrNop(log).WithField("component", "database")

	// 确保数据库目录存在
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// 单连接，避免多个连接同时写入
	db.SetMaxOpenConns(1)

	pragmaStmts := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, stmt := range pragmaStmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("设置PRAGMA失败: %w", err)
		}
	}

	s := &Store{db: db, log: log}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("创建表失败: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Infof("数据库初始化成功: %s", dbPath)
	return s, nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.log.Info("数据库连接已关闭")
	return s.db.Close()
}

func (s *Store) createTables() error {
	libTableSQL := `
	CREATE TABLE IF NOT EXISTS meme_libs (
		uuid TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		version TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		update_url TEXT NOT NULL DEFAULT '',
		timestamp INTEGER NOT NULL DEFAULT 0,
		enabled INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_meme_libs_enabled ON meme_libs(enabled);`

	if _, err := s.db.Exec(libTableSQL); err != nil {
		return fmt.Errorf("创建表情库表失败: %w", err)
	}
	return nil
}

// SyncLibs 用清单中的元数据更新表情库，保留已有的启用状态
func (s *Store) SyncLibs(libs []MemeLib) (err error) {
	if len(libs) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`
		INSERT INTO meme_libs
		(uuid, name, version, author, description, tags, url, update_url, timestamp, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			author = excluded.author,
			description = excluded.description,
			tags = excluded.tags,
			url = excluded.url,
			update_url = excluded.update_url,
			timestamp = excluded.timestamp,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("准备语句失败: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, lib := range libs {
		if strings.TrimSpace(lib.UUID) == "" {
			continue
		}
		if _, err = stmt.Exec(lib.UUID, lib.Name, lib.Version, lib.Author, lib.Description,
			strings.Join(lib.Tags, ";"), lib.URL, lib.UpdateURL, lib.Timestamp, now); err != nil {
			return fmt.Errorf("保存表情库失败 (uuid: %s): %w", lib.UUID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	s.log.Debugf("已同步 %d 个表情库", len(libs))
	return nil
}

// SetEnabled 设置启用状态；uuid 尚不在库中时插入占位记录
func (s *Store) SetEnabled(uuid string, enabled bool) error {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return errors.New("表情库uuid不能为空")
	}

	_, err := s.db.Exec(`
		INSERT INTO meme_libs (uuid, enabled, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at`,
		uuid, enabled, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("更新表情库启用状态失败 (uuid: %s): %w", uuid, err)
	}
	return nil
}

// EnabledUUIDs 返回所有已启用表情库的uuid，按uuid排序
func (s *Store) EnabledUUIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT uuid FROM meme_libs WHERE enabled = 1 ORDER BY uuid`)
	if err != nil {
		return nil, fmt.Errorf("查询已启用表情库失败: %w", err)
	}
	defer rows.Close()

	uuids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		uuids = append(uuids, id)
	}
	return uuids, rows.Err()
}

// ListLibs 返回全部表情库，按名称排序
func (s *Store) ListLibs() ([]MemeLib, error) {
	rows, err := s.db.Query(`
		SELECT uuid, name, version, author, description, tags, url, update_url, timestamp, enabled, updated_at
		FROM meme_libs ORDER BY name, uuid`)
	if err != nil {
		return nil, fmt.Errorf("查询表情库失败: %w", err)
	}
	defer rows.Close()

	libs := []MemeLib{}
	for rows.Next() {
		var (
			lib       MemeLib
			tags      string
			updatedAt int64
		)
		if err := rows.Scan(&lib.UUID, &lib.Name, &lib.Version, &lib.Author, &lib.Description,
			&tags, &lib.URL, &lib.UpdateURL, &lib.Timestamp, &lib.Enabled, &updatedAt); err != nil {
			return nil, err
		}
		if tags != "" {
			lib.Tags = strings.Split(tags, ";")
		}
		lib.UpdatedAt = time.Unix(updatedAt, 0)
		libs = append(libs, lib)
	}
	return libs, rows.Err()
}

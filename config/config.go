package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"mememeow/prefs"
)

// 社区表情库清单的默认下载地址，按优先级排列
var DefaultManifestURLs = []string{
	"https://github.com/MemeMeow-Studio/Memes-Community/raw/main/community_manifest.json",
	"https://raw.githubusercontent.com/MemeMeow-Studio/Memes-Community/main/community_manifest.json",
}

type Config struct {
	AppName   string `mapstructure:"app_name"`
	ConfigDir string `mapstructure:"config_dir"`
	CacheDir  string `mapstructure:"cache_dir"`

	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`

	Logging struct {
		LogFile    string `mapstructure:"log_file"`
		LogLevel   string `mapstructure:"log_level"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
	} `mapstructure:"logging"`

	Fetch struct {
		FloorSeconds   float64 `mapstructure:"floor_seconds"`
		CeilingSeconds float64 `mapstructure:"ceiling_seconds"`
		UserAgent      string  `mapstructure:"user_agent"`
	} `mapstructure:"fetch"`

	Prefs struct {
		// 0 表示只尝试一次加锁
		LockWaitMs int `mapstructure:"lock_wait_ms"`
	} `mapstructure:"prefs"`

	Community struct {
		ManifestURLs []string `mapstructure:"manifest_urls"`
		DatabasePath string   `mapstructure:"database_path"`
	} `mapstructure:"community"`
}

func (c *Config) FetchFloor() time.Duration {
	return time.Duration(c.Fetch.FloorSeconds * float64(time.Second))
}

func (c *Config) FetchCeiling() time.Duration {
	return time.Duration(c.Fetch.CeilingSeconds * float64(time.Second))
}

func (c *Config) LockWait() time.Duration {
	return time.Duration(c.Prefs.LockWaitMs) * time.Millisecond
}

// ManifestCachePath 社区清单缓存文件
func (c *Config) ManifestCachePath() string {
	return filepath.Join(c.CacheDir, "community_manifest.json")
}

// 路径规范化：展开 {{config_dir}}/{{cache_dir}} 与 ~，转为绝对路径
func normalizePath(v *viper.Viper, path string) (string, error) {
	if path == "" {
		return "", nil
	}

	for _, key := range []string{"config_dir", "cache_dir"} {
		placeholder := "{{" + key + "}}"
		if strings.Contains(path, placeholder) {
			dir, err := normalizePath(v, v.GetString(key))
			if err != nil {
				return "", err
			}
			path = strings.ReplaceAll(path, placeholder, dir)
		}
	}

	// 扩展 ~ 开头的路径
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			// 主目录获取失败时使用当前目录
			home, _ = os.Getwd()
		}
		path = filepath.Join(home, path[1:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve relative path %s: %w", path, err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// 确保目录存在
func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0755)
}

func userDir(base func() (string, error), appName string) string {
	dir, err := base()
	if err != nil {
		dir, _ = os.Getwd()
	}
	return filepath.Join(dir, appName)
}

func setDefaults(v *viper.Viper) {
	appName := "MemeMeow"
	v.SetDefault("app_name", appName)
	v.SetDefault("config_dir", prefs.DefaultDir(appName))
	v.SetDefault("cache_dir", userDir(os.UserCacheDir, appName))

	v.SetDefault("server.port", 5173)

	// 日志默认值
	v.SetDefault("logging.log_file", "{{cache_dir}}/logs/mememeow.log")
	v.SetDefault("logging.log_level", "info")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)

	v.SetDefault("fetch.floor_seconds", 3)
	v.SetDefault("fetch.ceiling_seconds", 10)
	v.SetDefault("fetch.user_agent", "MemeMeow")

	v.SetDefault("prefs.lock_wait_ms", 2000)

	v.SetDefault("community.manifest_urls", DefaultManifestURLs)
	v.SetDefault("community.database_path", "{{config_dir}}/meme_libs.db")
}

// LoadConfig 读取 config.yaml（可选）、默认值与 MEMEMEOW_* 环境变量。
// configFile 非空时只读取该文件。
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath(v.GetString("config_dir"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("MEMEMEOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 路径规范化处理
	pathsToNormalize := []*string{
		&cfg.ConfigDir,
		&cfg.CacheDir,
		&cfg.Logging.LogFile,
		&cfg.Community.DatabasePath,
	}
	for _, pathPtr := range pathsToNormalize {
		normalized, err := normalizePath(v, *pathPtr)
		if err != nil {
			return nil, fmt.Errorf("path normalization error: %w", err)
		}
		*pathPtr = normalized
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	// 确保关键目录存在
	for _, dir := range []string{cfg.ConfigDir, cfg.CacheDir, filepath.Dir(cfg.Community.DatabasePath)} {
		if err := ensureDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.AppName) == "" {
		return fmt.Errorf("app_name must not be empty")
	}
	if cfg.Fetch.FloorSeconds <= 0 {
		return fmt.Errorf("fetch.floor_seconds must be positive, got %v", cfg.Fetch.FloorSeconds)
	}
	if cfg.Fetch.CeilingSeconds < cfg.Fetch.FloorSeconds {
		return fmt.Errorf("fetch.ceiling_seconds (%v) must not be below fetch.floor_seconds (%v)",
			cfg.Fetch.CeilingSeconds, cfg.Fetch.FloorSeconds)
	}
	if cfg.Prefs.LockWaitMs < 0 {
		return fmt.Errorf("prefs.lock_wait_ms must not be negative")
	}
	if len(cfg.Community.ManifestURLs) == 0 {
		return fmt.Errorf("community.manifest_urls must list at least one url")
	}
	return nil
}

package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	once     sync.Once
	instance *logrus.Logger
	nop      = NewNop()
)

// Options 日志初始化参数
type Options struct {
	LogFile    string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Console 为 false 且设置了日志文件时只写文件
	Console bool
}

func InitLogger(opts Options) *logrus.Logger {
	once.Do(func() {
		instance = logrus.New()

		// 设置日志级别
		logLevel, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			logLevel = logrus.InfoLevel
		}
		instance.SetLevel(logLevel)

		// 终端输出使用带颜色的文本格式，其余情况使用JSON
		if isTerminal(os.Stdout) && opts.LogFile == "" {
			instance.SetFormatter(&logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: "2006-01-02 15:04:05",
			})
		} else {
			instance.SetFormatter(&logrus.JSONFormatter{
				TimestampFormat: "2006-01-02 15:04:05",
			})
		}

		if opts.LogFile == "" {
			instance.SetOutput(os.Stdout)
			return
		}

		// 确保日志目录存在
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0755); err != nil {
			instance.Errorf("创建日志目录失败: %v", err)
		}

		// 文件输出（带轮转）
		fileOutput := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
			LocalTime:  true,
		}

		if !opts.Console {
			instance.SetOutput(fileOutput)
			return
		}

		// 同时输出到文件和控制台
		instance.SetOutput(io.MultiWriter(os.Stdout, fileOutput))
	})

	return instance
}

// GetLogger 返回全局日志对象；未初始化时返回丢弃输出的日志对象
func GetLogger() *logrus.Logger {
	if instance == nil {
		return nop
	}
	return instance
}

// NewNop 返回丢弃所有输出的日志对象，用于测试或未注入日志的组件
func NewNop() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// OrNop 在 l 为 nil 时返回 NewNop()
func OrNop(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return NewNop()
	}
	return l
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

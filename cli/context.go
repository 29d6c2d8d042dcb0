package cli

import (
	"fmt"

	"mememeow/app"
	"mememeow/config"
	"mememeow/logger"
)

// commandContext 延迟加载配置与应用上下文，所有子命令共享
type commandContext struct {
	configFlag *string
	console    bool

	cfg *config.Config
	app *app.App
}

func (c *commandContext) ensureApp() (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := config.LoadConfig(*c.configFlag)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.InitLogger(logger.Options{
		LogFile:    cfg.Logging.LogFile,
		Level:      cfg.Logging.LogLevel,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Console:    c.console,
	})
	c.cfg = cfg
	c.app = app.New(cfg, log)
	return c.app, nil
}

func (c *commandContext) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

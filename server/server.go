// Package server 提供给界面层调用的本地HTTP接口。
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mememeow/app"
)

// 下载类请求的最长处理时间
const fetchRequestTimeout = 2 * time.Minute

type Server struct {
	app    *app.App
	log    logrus.FieldLogger
	router *gin.Engine
}

func New(a *app.App) *Server {
	s := &Server{app: a, log: a.Log.WithField("component", "server")}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestContext(s.log))

	api := router.Group("/api")
	{
		api.GET("/preferences", s.getPreferences)
		api.PUT("/preferences", s.putPreferences)

		api.GET("/clipboard", s.getClipboard)
		api.PUT("/clipboard", s.putClipboard)

		api.GET("/shortcuts", s.getShortcuts)
		api.PUT("/shortcuts", s.putShortcuts)
		api.POST("/shortcuts/refresh", s.refreshShortcuts)
		api.POST("/window/toggle", s.toggleWindow)

		api.GET("/endpoints", s.listEndpoints)
		api.POST("/endpoints", s.addEndpoint)
		api.DELETE("/endpoints/:index", s.removeEndpoint)
		api.GET("/endpoints/active", s.getActiveEndpoint)
		api.PUT("/endpoints/active", s.setActiveEndpoint)

		api.GET("/community/manifest", s.getManifest)
		api.POST("/community/manifest/refresh", s.refreshManifest)
		api.GET("/community/libs", s.listLibs)
		api.GET("/community/enabled", s.enabledLibs)
		api.POST("/community/libs/:uuid/enable", s.enableLib)
		api.POST("/community/libs/:uuid/disable", s.disableLib)

		api.POST("/fetch", s.fetchDiagnostic)
	}

	router.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return router
}

// Run 监听端口直到 ctx 结束或收到 SIGINT/SIGTERM，然后优雅关闭
func (s *Server) Run(ctx context.Context, port int) error {
	server := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: fetchRequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("收到退出信号，正在优雅关闭服务器...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("优雅关闭服务器失败: %w", err)
	}
	s.log.Info("服务器已优雅退出")
	return nil
}

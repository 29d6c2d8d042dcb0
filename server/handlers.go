package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"mememeow/prefs"
	"mememeow/utils"
)

func (s *Server) getPreferences(c *gin.Context) {
	store, err := s.app.Prefs()
	if err != nil {
		respondError(c, "Failed to open preferences", err)
		return
	}
	p, err := store.Preferences()
	if err != nil {
		respondError(c, "Failed to read preferences", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) putPreferences(c *gin.Context) {
	next := prefs.DefaultPreferences()
	if err := c.ShouldBindJSON(&next); err != nil {
		badRequest(c, "Invalid preferences body", err)
		return
	}
	store, err := s.app.Prefs()
	if err != nil {
		respondError(c, "Failed to open preferences", err)
		return
	}
	if err := store.UpdatePreferences(next); err != nil {
		respondError(c, "Failed to update preferences", err)
		return
	}
	requestLogger(c).Info("偏好设置已更新")
	s.refreshHotkeys(c)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) getClipboard(c *gin.Context) {
	store, err := s.app.Prefs()
	if err != nil {
		respondError(c, "Failed to open preferences", err)
		return
	}
	p, err := store.Preferences()
	if err != nil {
		respondError(c, "Failed to read preferences", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": p.CopyToClipboard})
}

func (s *Server) putClipboard(c *gin.Context) {
	var body struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Missing enabled field", err)
		return
	}
	store, err := s.app.Prefs()
	if err != nil {
		respondError(c, "Failed to open preferences", err)
		return
	}
	if err := store.SetCopyToClipboard(*body.Enabled); err != nil {
		respondError(c, "Failed to update clipboard setting", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "enabled": *body.Enabled})
}

func (s *Server) getShortcuts(c *gin.Context) {
	store, err := s.app.Prefs()
	if err != nil {
		respondError(c, "Failed to open preferences", err)
		return
	}
	sc, err := store.Shortcuts()
	if err != nil {
		respondError(c, "Failed to read shortcuts", err)
		return
	}
	hk := sc.ToggleApp.Hotkey()
	resp := gin.H{"shortcuts": sc, "toggle_app": hk.String()}
	if m, err := s.app.Hotkeys(); err == nil {
		if cur, ok := m.Current(); ok {
			resp["registered"] = cur.String()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// putShortcuts 保存后立即重新注册；注册冲突时设置已保存，返回409提示用户更换组合
func (s *Server) putShortcuts(c *gin.Context) {
	var sc prefs.Shortcuts
	if err := c.ShouldBindJSON(&sc); err != nil {
		badRequest(c, "Invalid shortcuts body", err)
		return
	}
	store, err := s.app.Prefs()
	if err != nil {
		respondError(c, "Failed to open preferences", err)
		return
	}
	if err := store.SetShortcuts(sc); err != nil {
		respondError(c, "Failed to update shortcuts", err)
		return
	}
	m, err := s.app.Hotkeys()
	if err != nil {
		respondError(c, "Failed to init hotkeys", err)
		return
	}
	hk, err := m.Refresh()
	if err != nil {
		respondError(c, "Shortcut saved but registration failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "registered": hk.String()})
}

func (s *Server) refreshShortcuts(c *gin.Context) {
	m, err := s.app.Hotkeys()
	if err != nil {
		respondError(c, "Failed to init hotkeys", err)
		return
	}
	hk, err := m.Refresh()
	if err != nil {
		respondError(c, "Failed to register shortcuts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "registered": hk.String()})
}

// refreshHotkeys 整体更新偏好后尽力重新注册，失败只记录日志
func (s *Server) refreshHotkeys(c *gin.Context) {
	m, err := s.app.Hotkeys()
	if err != nil {
		requestLogger(c).Warnf("快捷键管理器不可用: %v", err)
		return
	}
	if _, err := m.Refresh(); err != nil {
		requestLogger(c).Warnf("重新注册快捷键失败: %v", err)
	}
}

func (s *Server) toggleWindow(c *gin.Context) {
	m, err := s.app.Hotkeys()
	if err != nil {
		respondError(c, "Failed to init hotkeys", err)
		return
	}
	if err := m.Toggle(); err != nil {
		respondError(c, "Failed to toggle window", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) listEndpoints(c *gin.Context) {
	store, err := s.app.Prefs()
	if err != nil {
		respondError(c, "Failed to open preferences", err)
		return
	}
	list, err := store.Endpoints()
	if err != nil {
		respondError(c, "Failed to read endpoints", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) addEndpoint(c *gin.Context) {
	var body prefs.Endpoint
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid endpoint body", err)
		return
	}
	store, err := s.app.Prefs()
	if err != nil {
		respondError(c, "Failed to open preferences", err)
		return
	}
	if err := store.AddEndpoint(body.Name, body.URL); err != nil {
		respondError(c, "Failed to add endpoint", err)
		return
	}
	list, err := store.Endpoints()
	if err != nil {
		respondError(c, "Failed to read endpoints", err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

func (s *Server) removeEndpoint(c *gin.Context) {
	index, err := utils.StringToInt(c.Param("index"))
	if err != nil {
		badRequest(c, "Invalid index parameter", err)
		return
	}
	store, err := s.app.Prefs()
	if err != nil {
		respondError(c, "Failed to open preferences", err)
		return
	}
	if err := store.RemoveEndpoint(index); err != nil {
		respondError(c, "Failed to remove endpoint", err)
		return
	}
	list, err := store.Endpoints()
	if err != nil {
		respondError(c, "Failed to read endpoints", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getActiveEndpoint(c *gin.Context) {
	store, err := s.app.Prefs()
	if err != nil {
		respondError(c, "Failed to open preferences", err)
		return
	}
	url, err := store.ActiveEndpointURL()
	if err != nil {
		respondError(c, "Failed to read active endpoint", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (s *Server) setActiveEndpoint(c *gin.Context) {
	var body struct {
		Index *int `json:"index" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Missing index field", err)
		return
	}
	store, err := s.app.Prefs()
	if err != nil {
		respondError(c, "Failed to open preferences", err)
		return
	}
	if err := store.SetActiveEndpoint(*body.Index); err != nil {
		respondError(c, "Failed to set active endpoint", err)
		return
	}
	url, err := store.ActiveEndpointURL()
	if err != nil {
		respondError(c, "Failed to read active endpoint", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "url": url})
}

func (s *Server) getManifest(c *gin.Context) {
	svc, err := s.app.Community()
	if err != nil {
		respondError(c, "Failed to open meme library database", err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), fetchRequestTimeout)
	defer cancel()
	m, err := svc.Load(ctx)
	if err != nil {
		respondError(c, "Failed to load community manifest", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) refreshManifest(c *gin.Context) {
	svc, err := s.app.Community()
	if err != nil {
		respondError(c, "Failed to open meme library database", err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), fetchRequestTimeout)
	defer cancel()
	m, err := svc.Refresh(ctx)
	if err != nil {
		respondError(c, "Failed to refresh community manifest", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) listLibs(c *gin.Context) {
	svc, err := s.app.Community()
	if err != nil {
		respondError(c, "Failed to open meme library database", err)
		return
	}
	libs, err := svc.Libraries()
	if err != nil {
		respondError(c, "Failed to list meme libraries", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"libs": libs, "total": len(libs)})
}

func (s *Server) enabledLibs(c *gin.Context) {
	svc, err := s.app.Community()
	if err != nil {
		respondError(c, "Failed to open meme library database", err)
		return
	}
	ids, err := svc.Enabled()
	if err != nil {
		respondError(c, "Failed to list enabled libraries", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": ids})
}

func (s *Server) enableLib(c *gin.Context)  { s.setLibEnabled(c, true) }
func (s *Server) disableLib(c *gin.Context) { s.setLibEnabled(c, false) }

func (s *Server) setLibEnabled(c *gin.Context, enabled bool) {
	id := c.Param("uuid")
	svc, err := s.app.Community()
	if err != nil {
		respondError(c, "Failed to open meme library database", err)
		return
	}
	if enabled {
		err = svc.Enable(id)
	} else {
		err = svc.Disable(id)
	}
	if err != nil {
		respondError(c, "Failed to update meme library", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "uuid": id, "enabled": enabled})
}

// fetchDiagnostic 用分档下载探测给定地址；未指定时使用API地址列表
func (s *Server) fetchDiagnostic(c *gin.Context) {
	var body struct {
		URLs []string `json:"urls"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "Invalid fetch body", err)
			return
		}
	}

	urls := body.URLs
	if len(urls) == 0 {
		var err error
		if urls, err = s.app.ActiveEndpointCandidates(); err != nil {
			respondError(c, "Failed to read endpoints", err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), fetchRequestTimeout)
	defer cancel()
	res, err := s.app.Fetcher().Fetch(ctx, urls)
	if err != nil {
		respondError(c, "Fetch failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":     res.URL,
		"tier":    res.Tier,
		"timeout": res.Timeout.String(),
		"bytes":   len(res.Body),
		"message": fmt.Sprintf("第%d档成功下载 %d 字节", res.Tier, len(res.Body)),
	})
}

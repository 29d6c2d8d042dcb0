package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mememeow/community"
	"mememeow/fetch"
	"mememeow/hotkey"
	"mememeow/prefs"
)

// 错误类型，前端据此决定提示方式
const (
	ErrorTypeBusy            = "busy"
	ErrorTypeValidation      = "validation"
	ErrorTypePersist         = "persist"
	ErrorTypeHotkeyConflict  = "hotkey_conflict"
	ErrorTypeFetchExhausted  = "fetch_exhausted"
	ErrorTypeInvalidManifest = "invalid_manifest"
	ErrorTypeTimeout         = "timeout"
	ErrorTypeInternal        = "internal"
)

// classify 将错误映射为状态码与错误类型
func classify(err error) (int, string) {
	var persistErr *prefs.PersistError
	switch {
	case errors.Is(err, prefs.ErrBusy):
		return http.StatusConflict, ErrorTypeBusy
	case errors.Is(err, prefs.ErrIndexOutOfRange),
		errors.Is(err, prefs.ErrInvalidEndpoint),
		errors.Is(err, fetch.ErrNoCandidates):
		return http.StatusBadRequest, ErrorTypeValidation
	case errors.As(err, &persistErr):
		return http.StatusInternalServerError, ErrorTypePersist
	case errors.Is(err, hotkey.ErrConflict):
		return http.StatusConflict, ErrorTypeHotkeyConflict
	case errors.Is(err, fetch.ErrExhausted):
		return http.StatusBadGateway, ErrorTypeFetchExhausted
	case errors.Is(err, community.ErrInvalidManifest):
		return http.StatusBadGateway, ErrorTypeInvalidManifest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, ErrorTypeTimeout
	default:
		return http.StatusInternalServerError, ErrorTypeInternal
	}
}

// respondError 输出统一的错误响应 {error, type, message}
func respondError(c *gin.Context, summary string, err error) {
	status, typ := classify(err)
	entry := requestLogger(c)
	if status >= http.StatusInternalServerError {
		entry.Errorf("%s: %v", summary, err)
	} else {
		entry.Warnf("%s: %v", summary, err)
	}
	c.JSON(status, gin.H{
		"error":   summary,
		"type":    typ,
		"message": err.Error(),
	})
}

func badRequest(c *gin.Context, summary string, err error) {
	requestLogger(c).Warnf("%s: %v", summary, err)
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   summary,
		"type":    ErrorTypeValidation,
		"message": err.Error(),
	})
}

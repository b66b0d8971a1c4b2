package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"surekeys_dev_v1/internal/service"
	"surekeys_dev_v1/internal/validator"
	"surekeys_dev_v1/pkg/surekeys"
)

// ==================== 统一响应 ====================

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"code":    status,
		"message": message,
	})
}

// writeError 业务错误映射为 HTTP 状态码
func writeError(c *gin.Context, err error) {
	if ve, ok := validator.AsValidationError(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"code":    422,
			"message": "表单校验失败",
			"data": gin.H{
				"violations": ve.Violations,
				"fields":     ve.Fields(),
			},
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionForbidden):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrWrongStep),
		errors.Is(err, service.ErrNoPreviousStep),
		errors.Is(err, service.ErrUploadInFlight),
		errors.Is(err, service.ErrNotEnoughImages),
		errors.Is(err, service.ErrSubmitInProgress):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrIndexOutOfRange):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidVideoURL):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"code":    422,
			"message": err.Error(),
			"data": gin.H{
				"violations": []validator.FieldViolation{{Path: "url", Message: "Please enter a valid URL"}},
			},
		})
	case errors.Is(err, service.ErrSubmitFailed):
		// 远程创建失败，草稿保留，前端可以重试
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": remoteMessage(err, "提交房源失败，请稍后重试"),
		})
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrSessionExpired):
		fail(c, http.StatusUnauthorized, err.Error())
	default:
		writeRemoteError(c, err)
	}
}

// writeRemoteError 远程接口错误透传状态码，其余按 500 处理
func writeRemoteError(c *gin.Context, err error) {
	if apiErr, ok := surekeys.AsAPIError(err); ok {
		status := apiErr.StatusCode
		if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		fail(c, status, apiErr.Message)
		return
	}
	if errors.Is(err, surekeys.ErrUnexpectedResponse) {
		fail(c, http.StatusBadGateway, err.Error())
		return
	}

	zap.L().Error("[Controller] 请求处理失败", zap.String("path", c.FullPath()), zap.Error(err))
	fail(c, http.StatusInternalServerError, "服务器内部错误")
}

func remoteMessage(err error, fallback string) string {
	if apiErr, ok := surekeys.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

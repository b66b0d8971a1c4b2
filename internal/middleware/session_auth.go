package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"surekeys_dev_v1/internal/service"
)

// SessionResolver 由会话ID取得调用方
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*service.Principal, error)
}

// Context Keys
const (
	ContextKeySessionID = "session_id"
	ContextKeyToken     = "remote_token"
	ContextKeyRole      = "role"
	ContextKeyPrincipal = "principal"
)

// ==================== Gin 中间件 ====================

// SessionAuth 会话认证中间件
// Authorization: Bearer {登录返回的 sessionId}
func SessionAuth(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "未提供认证信息",
			})
			return
		}

		// 解析 Bearer Token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "认证格式错误，应为 Bearer {sessionId}",
			})
			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			message := "登录会话无效"
			switch {
			case errors.Is(err, service.ErrSessionExpired):
				message = "登录已过期，请重新登录"
			case !errors.Is(err, service.ErrUnauthenticated):
				zap.L().Error("[SessionAuth] 读取会话失败", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    500,
					"message": "读取登录会话失败",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": message,
			})
			return
		}

		// 注入调用方信息到 Context
		c.Set(ContextKeySessionID, principal.SessionID)
		c.Set(ContextKeyToken, principal.Token)
		c.Set(ContextKeyRole, principal.Role)
		c.Set(ContextKeyPrincipal, principal)

		c.Next()
	}
}

// RequireRole 角色权限校验中间件
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextKeyRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "未获取到用户角色",
			})
			return
		}

		userRole, _ := role.(string)
		for _, r := range roles {
			if userRole == r {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": "无权限访问",
		})
	}
}

// ==================== 辅助函数 ====================

// GetSessionID 从 Context 获取登录会话ID
func GetSessionID(c *gin.Context) string {
	return c.GetString(ContextKeySessionID)
}

// GetToken 从 Context 获取远程令牌
func GetToken(c *gin.Context) string {
	return c.GetString(ContextKeyToken)
}

// GetUserRole 从 Context 获取用户角色
func GetUserRole(c *gin.Context) string {
	return c.GetString(ContextKeyRole)
}

// GetPrincipal 从 Context 获取完整调用方
func GetPrincipal(c *gin.Context) *service.Principal {
	if p, exists := c.Get(ContextKeyPrincipal); exists {
		return p.(*service.Principal)
	}
	return nil
}

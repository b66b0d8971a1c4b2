package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"surekeys_dev_v1/internal/middleware"
	"surekeys_dev_v1/internal/service"
	"surekeys_dev_v1/pkg/surekeys"
)

type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(s *service.AuthService) *AuthController {
	return &AuthController{authService: s}
}

// Register
// @Summary 注册
// @Description 转发到远程注册接口，成功后需要邮箱验证码激活
// @Tags Auth (认证模块)
// @Accept json
// @Produce json
// @Param body body surekeys.RegisterRequest true "注册信息"
// @Success 201 {object} dto.MessageView
// @Router /api/auth/register [post]
func (ctrl *AuthController) Register(c *gin.Context) {
	var req surekeys.RegisterRequest
	if !bindForm(c, &req) {
		return
	}
	res, err := ctrl.authService.Register(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusCreated, res)
}

// Login
// @Summary 登录
// @Description 远程登录成功后返回本地 sessionId，后续请求使用 Authorization: Bearer {sessionId}
// @Tags Auth (认证模块)
// @Accept json
// @Produce json
// @Param body body surekeys.LoginRequest true "邮箱与密码"
// @Success 200 {object} dto.LoginResult
// @Failure 401 {object} map[string]interface{} "账号或密码错误"
// @Router /api/auth/login [post]
func (ctrl *AuthController) Login(c *gin.Context) {
	var req surekeys.LoginRequest
	if !bindForm(c, &req) {
		return
	}
	res, err := ctrl.authService.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, res)
}

// VerifyOTP
// @Summary 验证邮箱验证码
// @Tags Auth (认证模块)
// @Accept json
// @Produce json
// @Param body body surekeys.VerifyOTPRequest true "邮箱与验证码"
// @Success 200 {object} dto.LoginResult
// @Router /api/auth/verify-otp [post]
func (ctrl *AuthController) VerifyOTP(c *gin.Context) {
	var req surekeys.VerifyOTPRequest
	if !bindForm(c, &req) {
		return
	}
	res, err := ctrl.authService.VerifyOTP(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, res)
}

// ResendOTP
// @Summary 重发验证码
// @Tags Auth (认证模块)
// @Accept json
// @Param body body surekeys.EmailRequest true "邮箱"
// @Success 200 {object} dto.MessageView
// @Router /api/auth/resend-otp [post]
func (ctrl *AuthController) ResendOTP(c *gin.Context) {
	var req surekeys.EmailRequest
	if !bindForm(c, &req) {
		return
	}
	res, err := ctrl.authService.ResendOTP(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, res)
}

// ForgotPassword
// @Summary 忘记密码
// @Tags Auth (认证模块)
// @Accept json
// @Param body body surekeys.EmailRequest true "邮箱"
// @Success 200 {object} dto.MessageView
// @Router /api/auth/forgot-password [post]
func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	var req surekeys.EmailRequest
	if !bindForm(c, &req) {
		return
	}
	res, err := ctrl.authService.ForgotPassword(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, res)
}

// ResetPassword
// @Summary 重置密码
// @Tags Auth (认证模块)
// @Accept json
// @Param body body surekeys.ResetPasswordRequest true "邮箱、验证码与新密码"
// @Success 200 {object} dto.MessageView
// @Router /api/auth/reset-password [post]
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	var req surekeys.ResetPasswordRequest
	if !bindForm(c, &req) {
		return
	}
	res, err := ctrl.authService.ResetPassword(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, res)
}

// Logout
// @Summary 退出登录
// @Tags Auth (认证模块)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/logout [post]
func (ctrl *AuthController) Logout(c *gin.Context) {
	if err := ctrl.authService.Logout(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "已退出登录",
	})
}

// Profile
// @Summary 当前用户资料
// @Tags Auth (认证模块)
// @Security BearerAuth
// @Success 200 {object} dto.ProfileView
// @Router /api/auth/profile [get]
func (ctrl *AuthController) Profile(c *gin.Context) {
	profile, err := ctrl.authService.Profile(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, profile)
}

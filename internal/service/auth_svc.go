package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"surekeys_dev_v1/internal/api/dto"
	"surekeys_dev_v1/internal/model"
	"surekeys_dev_v1/internal/repository"
	"surekeys_dev_v1/pkg/surekeys"
)

// DefaultTokenTTL 登录会话默认有效期一天
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrUnauthenticated = errors.New("未登录")
	ErrSessionExpired  = errors.New("登录已过期")
)

// AuthGateway 远程认证接口
type AuthGateway interface {
	Register(ctx context.Context, req *surekeys.RegisterRequest) (*surekeys.MessageResp, error)
	Login(ctx context.Context, req *surekeys.LoginRequest) (*surekeys.AuthResp, error)
	VerifyOTP(ctx context.Context, req *surekeys.VerifyOTPRequest) (*surekeys.AuthResp, error)
	ResendOTP(ctx context.Context, req *surekeys.EmailRequest) (*surekeys.MessageResp, error)
	ForgotPassword(ctx context.Context, req *surekeys.EmailRequest) (*surekeys.MessageResp, error)
	ResetPassword(ctx context.Context, req *surekeys.ResetPasswordRequest) (*surekeys.MessageResp, error)
}

// Principal 已登录的调用方
type Principal struct {
	SessionID string
	Token     string
	Role      string
	Email     string
	ExpiresAt time.Time
}

// AuthService 登录会话管理
// 令牌只作为不透明字符串转发，不做本地签名校验
type AuthService struct {
	gateway AuthGateway
	repo    repository.AuthSessionRepository
	ttl     time.Duration
	now     func() time.Time
}

// NewAuthService 工厂方法
func NewAuthService(gateway AuthGateway, repo repository.AuthSessionRepository, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AuthService{
		gateway: gateway,
		repo:    repo,
		ttl:     ttl,
		now:     time.Now,
	}
}

// ==================== 登录 ====================

// Login 远程登录成功后建立本地会话
func (s *AuthService) Login(ctx context.Context, req *surekeys.LoginRequest) (*dto.LoginResult, error) {
	res, err := s.gateway.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, res)
}

// VerifyOTP 验证码校验，远程返回令牌时同样建立会话
func (s *AuthService) VerifyOTP(ctx context.Context, req *surekeys.VerifyOTPRequest) (*dto.LoginResult, error) {
	res, err := s.gateway.VerifyOTP(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.Token == "" || res.User == nil {
		return &dto.LoginResult{Message: res.Message}, nil
	}
	return s.establish(ctx, res)
}

func (s *AuthService) establish(ctx context.Context, res *surekeys.AuthResp) (*dto.LoginResult, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	if exp, ok := tokenExpiry(res.Token); ok && exp.Before(expiresAt) {
		expiresAt = exp
	}
	if !expiresAt.After(now) {
		return nil, ErrSessionExpired
	}

	session := &model.AuthSession{
		ID:        uuid.NewString(),
		Token:     res.Token,
		ExpiresAt: expiresAt,
	}
	profile := &model.AuthProfile{
		Email:       res.User.Email,
		Name:        res.User.Name,
		PhoneNumber: res.User.PhoneNumber,
		Role:        res.User.Role,
	}
	if err := s.repo.Create(ctx, session, profile); err != nil {
		return nil, fmt.Errorf("保存登录会话失败: %w", err)
	}

	zap.L().Info("[AuthService] 登录成功", zap.String("session_id", session.ID), zap.String("role", profile.Role))
	return &dto.LoginResult{
		SessionID: session.ID,
		ExpiresAt: expiresAt,
		Profile:   profileView(profile),
		Message:   res.Message,
	}, nil
}

// tokenExpiry 读取 JWT 的 exp，不校验签名
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// ==================== 会话 ====================

// Resolve 由会话ID取得调用方，过期会话顺带删除
func (s *AuthService) Resolve(ctx context.Context, sessionID string) (*Principal, error) {
	if sessionID == "" {
		return nil, ErrUnauthenticated
	}
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("读取登录会话失败: %w", err)
	}
	if session.IsExpired(s.now()) {
		if err := s.repo.Delete(ctx, sessionID); err != nil {
			zap.L().Warn("[AuthService] 删除过期会话失败", zap.String("session_id", sessionID), zap.Error(err))
		}
		return nil, ErrSessionExpired
	}

	p := &Principal{
		SessionID: session.ID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}
	profile, err := s.repo.GetProfile(ctx, sessionID)
	switch {
	case err == nil:
		p.Role = profile.Role
		p.Email = profile.Email
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("读取用户资料失败: %w", err)
	}
	return p, nil
}

// Profile 当前用户资料
func (s *AuthService) Profile(ctx context.Context, sessionID string) (*dto.ProfileView, error) {
	profile, err := s.repo.GetProfile(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return profileView(profile), nil
}

// Logout 删除本地会话
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("退出登录失败: %w", err)
	}
	zap.L().Info("[AuthService] 退出登录", zap.String("session_id", sessionID))
	return nil
}

// CleanupExpired 清理过期登录会话
func (s *AuthService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

// ==================== 其他转发 ====================

// Register 注册
func (s *AuthService) Register(ctx context.Context, req *surekeys.RegisterRequest) (*dto.MessageView, error) {
	return messageView(s.gateway.Register(ctx, req))
}

// ResendOTP 重发验证码
func (s *AuthService) ResendOTP(ctx context.Context, req *surekeys.EmailRequest) (*dto.MessageView, error) {
	return messageView(s.gateway.ResendOTP(ctx, req))
}

// ForgotPassword 忘记密码
func (s *AuthService) ForgotPassword(ctx context.Context, req *surekeys.EmailRequest) (*dto.MessageView, error) {
	return messageView(s.gateway.ForgotPassword(ctx, req))
}

// ResetPassword 重置密码
func (s *AuthService) ResetPassword(ctx context.Context, req *surekeys.ResetPasswordRequest) (*dto.MessageView, error) {
	return messageView(s.gateway.ResetPassword(ctx, req))
}

func messageView(res *surekeys.MessageResp, err error) (*dto.MessageView, error) {
	if err != nil {
		return nil, err
	}
	return &dto.MessageView{Message: res.Message}, nil
}

func profileView(p *model.AuthProfile) *dto.ProfileView {
	return &dto.ProfileView{
		Email:       p.Email,
		Name:        p.Name,
		PhoneNumber: p.PhoneNumber,
		Role:        p.Role,
	}
}

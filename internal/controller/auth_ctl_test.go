package controller

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"surekeys_dev_v1/internal/api/dto"
	"surekeys_dev_v1/internal/middleware"
	"surekeys_dev_v1/internal/model"
	"surekeys_dev_v1/internal/repository"
	"surekeys_dev_v1/internal/service"
	"surekeys_dev_v1/pkg/surekeys"
)

// ==================== 测试辅助 ====================

// newRemote 模拟远程 API，路径含 /api 前缀
func newRemote(t *testing.T, mux *http.ServeMux) *surekeys.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return surekeys.NewClient(surekeys.Config{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func remoteToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1",
		"exp": time.Now().Add(2 * time.Hour).Unix(),
	}).SignedString([]byte("remote-secret"))
	require.NoError(t, err)
	return token
}

func setupAuthCtlRouter(t *testing.T) *gin.Engine {
	token := remoteToken(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req surekeys.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret123" {
			writeJSON(w, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"message":"Login successful","token":"`+token+`",
			"user":{"email":"`+req.Email+`","name":"Ada","role":"landlord"}}`)
	})
	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"message":"OTP sent to your email"}`)
	})
	mux.HandleFunc("/api/auth/verify-otp", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"message":"Email verified"}`)
	})
	mux.HandleFunc("/api/auth/reset-password", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"message":"Invalid or expired OTP"}`)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.AuthSession{}, &model.AuthProfile{}))

	authSvc := service.NewAuthService(newRemote(t, mux), repository.NewAuthSessionRepository(db), 0)
	ctrl := NewAuthController(authSvc)

	r := gin.New()
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", ctrl.Register)
		auth.POST("/login", ctrl.Login)
		auth.POST("/verify-otp", ctrl.VerifyOTP)
		auth.POST("/reset-password", ctrl.ResetPassword)
		auth.POST("/logout", middleware.SessionAuth(authSvc), ctrl.Logout)
		auth.GET("/profile", middleware.SessionAuth(authSvc), ctrl.Profile)
	}
	return r
}

func withBearer(r http.Handler, method, path, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+sessionID)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ==================== 测试 ====================

func TestAuthController_LoginProfileLogout(t *testing.T) {
	router := setupAuthCtlRouter(t)

	w := performRequest(router, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "ada@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res dto.LoginResult
	decode(t, w, &res)
	require.NotEmpty(t, res.SessionID)
	assert.Equal(t, "landlord", res.Profile.Role)
	// 本地会话不超过远程令牌有效期
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), res.ExpiresAt, time.Minute)
	// 远程令牌不返回给前端
	assert.NotContains(t, w.Body.String(), "eyJ")

	w = withBearer(router, http.MethodGet, "/api/auth/profile", res.SessionID)
	require.Equal(t, http.StatusOK, w.Code)
	var profile dto.ProfileView
	decode(t, w, &profile)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "Ada", profile.Name)

	assert.Equal(t, http.StatusOK, withBearer(router, http.MethodPost, "/api/auth/logout", res.SessionID).Code)
	assert.Equal(t, http.StatusUnauthorized, withBearer(router, http.MethodGet, "/api/auth/profile", res.SessionID).Code)
}

func TestAuthController_Requests(t *testing.T) {
	router := setupAuthCtlRouter(t)

	tests := []struct {
		name        string
		path        string
		body        interface{}
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "登录缺少密码",
			path:       "/api/auth/login",
			body:       gin.H{"email": "ada@example.com"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "登录邮箱格式错误",
			path:       "/api/auth/login",
			body:       gin.H{"email": "ada", "password": "x"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "密码错误透传401",
			path:        "/api/auth/login",
			body:        gin.H{"email": "ada@example.com", "password": "wrong"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid credentials",
		},
		{
			name: "注册成功",
			path: "/api/auth/register",
			body: gin.H{
				"role":        "landlord",
				"name":        "Ada",
				"email":       "ada@example.com",
				"password":    "secret123",
				"phoneNumber": "08012345678",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "注册角色无效",
			path: "/api/auth/register",
			body: gin.H{
				"role":        "admin",
				"name":        "Ada",
				"email":       "ada@example.com",
				"password":    "secret123",
				"phoneNumber": "08012345678",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "验证码通过但未返回令牌",
			path:       "/api/auth/verify-otp",
			body:       gin.H{"email": "ada@example.com", "otp": "123456"},
			wantStatus: http.StatusOK,
		},
		{
			name:        "重置密码验证码错误",
			path:        "/api/auth/reset-password",
			body:        gin.H{"email": "ada@example.com", "otp": "000000", "newPassword": "secret456"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid or expired OTP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantMessage != "" {
				env := decode(t, w, nil)
				assert.Equal(t, tt.wantMessage, env.Message)
			}
		})
	}
}

func TestAuthController_ProfileRequiresSession(t *testing.T) {
	router := setupAuthCtlRouter(t)

	w := performRequest(router, http.MethodGet, "/api/auth/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = withBearer(router, http.MethodGet, "/api/auth/profile", "unknown")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

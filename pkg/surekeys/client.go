package surekeys

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== 客户端 ====================

// Config 客户端配置
type Config struct {
	BaseURL string // 含 /api 前缀，例如 https://api.surekeys.ng/api
	Timeout time.Duration
	Debug   bool
}

// Client SureKeys 远程 API 客户端
// 每个调用只发一次请求，不做重试
type Client struct {
	http *resty.Client
}

// NewClient 创建客户端
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetDebug(cfg.Debug).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "SureKeys-Posting/1.0")

	return &Client{http: client}
}

// ==================== 错误 ====================

// ErrUnexpectedResponse 响应体无法识别
var ErrUnexpectedResponse = errors.New("远程 API 响应格式异常")

// APIError 远程 API 返回的非 2xx 错误
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("SureKeys API 错误 [%d]: %s", e.StatusCode, e.Message)
}

// IsUnauthorized 令牌无效或过期
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// AsAPIError 取出远程错误
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// errorBody 远程错误响应 {"message": "..."}
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ==================== 请求辅助 ====================

func (c *Client) request(ctx context.Context, token string) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// check 统一处理网络错误与非 2xx 响应
func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("网络请求失败: %w", err)
	}
	if resp.IsSuccess() {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}
	return apiErr
}

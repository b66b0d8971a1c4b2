package surekeys

import (
	"context"
	"fmt"
)

// Register POST /auth/register
func (c *Client) Register(ctx context.Context, req *RegisterRequest) (*MessageResp, error) {
	return c.postMessage(ctx, "/auth/register", req)
}

// Login POST /auth/login
func (c *Client) Login(ctx context.Context, req *LoginRequest) (*AuthResp, error) {
	return c.postAuth(ctx, "/auth/login", req)
}

// VerifyOTP POST /auth/verify-otp
func (c *Client) VerifyOTP(ctx context.Context, req *VerifyOTPRequest) (*AuthResp, error) {
	var res AuthResp
	resp, err := c.request(ctx, "").
		SetBody(req).
		SetResult(&res).
		Post("/auth/verify-otp")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &res, nil
}

// ResendOTP POST /auth/resend-otp
func (c *Client) ResendOTP(ctx context.Context, req *EmailRequest) (*MessageResp, error) {
	return c.postMessage(ctx, "/auth/resend-otp", req)
}

// ForgotPassword POST /auth/forgot-password
func (c *Client) ForgotPassword(ctx context.Context, req *EmailRequest) (*MessageResp, error) {
	return c.postMessage(ctx, "/auth/forgot-password", req)
}

// ResetPassword POST /auth/reset-password
func (c *Client) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (*MessageResp, error) {
	return c.postMessage(ctx, "/auth/reset-password", req)
}

func (c *Client) postMessage(ctx context.Context, path string, body interface{}) (*MessageResp, error) {
	var res MessageResp
	resp, err := c.request(ctx, "").
		SetBody(body).
		SetResult(&res).
		Post(path)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &res, nil
}

// postAuth 登录类接口必须返回 token 和用户信息
func (c *Client) postAuth(ctx context.Context, path string, body interface{}) (*AuthResp, error) {
	var res AuthResp
	resp, err := c.request(ctx, "").
		SetBody(body).
		SetResult(&res).
		Post(path)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	if res.Token == "" || res.User == nil {
		return nil, fmt.Errorf("%w: 登录响应缺少 token 或 user", ErrUnexpectedResponse)
	}
	return &res, nil
}

package dto

import "time"

// LoginResult 登录成功后返回给前端的本地会话
// 前端之后用 SessionID 作为 Bearer 凭证，远程令牌不出服务端
type LoginResult struct {
	SessionID string       `json:"sessionId"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Profile   *ProfileView `json:"profile"`
	Message   string       `json:"message,omitempty"`
}

// ProfileView 用户资料
type ProfileView struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Role        string `json:"role"`
}

// MessageView 只有提示信息的结果
type MessageView struct {
	Message string `json:"message"`
}

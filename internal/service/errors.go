package service

import "net/http"

// Error is a validation or authentication failure with the HTTP status
// and message to report.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func badRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

func unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

// Messages reported by the auth API.
const (
	MsgLoginSuccess       = "登录成功"
	MsgRegisterSuccess    = "注册成功"
	MsgForgotPassword     = "如果该邮箱已注册，您将收到重置密码的邮件"
	MsgResetSuccess       = "密码已重置成功"
	MsgMissingCredentials = "邮箱和密码不能为空"
	MsgBadCredentials     = "邮箱或密码错误"
	MsgMissingFields      = "所有字段都是必填的"
	MsgBadEmail           = "邮箱格式不正确"
	MsgShortPassword      = "密码长度至少为6位"
	MsgMissingEmail       = "邮箱不能为空"
	MsgMissingReset       = "Token 和密码不能为空"
	MsgMissingProvider    = "缺少提供商参数"
	MsgBadProvider        = "不支持的提供商"
	MsgNotLoggedIn        = "未登录"
	MsgServerError        = "服务器错误"
	MsgTooManyRequests    = "请求过于频繁"
)

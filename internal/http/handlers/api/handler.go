package api

import "github.com/prato-next/internal/provider"

// Handler 对外 API 处理器入口
// 调用方身份由网关注入的 X-Actor-Id / X-Actor-Role 头标识。
type Handler struct {
	*provider.Container
}

// New 创建 API 处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

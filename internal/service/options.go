package service

import (
	"Fellowship/internal/access"
	"Fellowship/internal/api/config"
	"time"
)

// ChatOptions 聊天服务可调参数，零值字段使用默认值
type ChatOptions struct {
	EditWindow       time.Duration
	MaxContentLength int
	DefaultPageSize  int
	MaxPageSize      int
	Now              func() time.Time
}

// ChatOptionsFromConfig 从配置读取，缺省项交给 normalize
func ChatOptionsFromConfig(cfg config.ChatConfig) ChatOptions {
	return ChatOptions{
		EditWindow:       time.Duration(cfg.EditWindowSeconds) * time.Second,
		MaxContentLength: cfg.MaxContentLength,
		DefaultPageSize:  cfg.DefaultPageSize,
		MaxPageSize:      cfg.MaxPageSize,
	}
}

func (o ChatOptions) normalize() ChatOptions {
	if o.EditWindow <= 0 {
		o.EditWindow = access.DefaultEditWindow
	}
	if o.MaxContentLength <= 0 {
		o.MaxContentLength = 5000
	}
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = 50
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 100
	}
	if o.DefaultPageSize > o.MaxPageSize {
		o.DefaultPageSize = o.MaxPageSize
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

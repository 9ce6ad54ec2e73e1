package api

import (
	"Fellowship/internal/api/handler"
	"Fellowship/internal/pkg/security"
)

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	ConversationHandler *handler.ConversationHandler
	MessageHandler      *handler.MessageHandler
	AttachmentHandler   *handler.AttachmentHandler
	TokenSigner         *security.TokenSigner
}

package api

import (
	"Fellowship/internal/api/middleware"
	"Fellowship/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "pong"})
		})

		chatGroup := apiGroup.Group("/chat")
		chatGroup.Use(middleware.AuthMiddleware(group.TokenSigner))
		{
			conversations := chatGroup.Group("/conversations")
			{
				conversations.GET("", group.ConversationHandler.ListConversations)
				conversations.POST("", group.ConversationHandler.CreateConversation)
				conversations.POST("/category", group.ConversationHandler.GetOrCreateCategory)
				conversations.GET("/:id", group.ConversationHandler.GetConversation)
				conversations.GET("/:id/messages", group.ConversationHandler.ListMessages)
				conversations.POST("/:id/read", group.ConversationHandler.MarkRead)
				conversations.POST("/:id/participants", group.ConversationHandler.AddParticipants)
				conversations.DELETE("/:id/participants/:user_id", group.ConversationHandler.RemoveParticipant)
			}

			messages := chatGroup.Group("/messages")
			{
				messages.POST("", group.MessageHandler.SendMessage)
				messages.PUT("/:id", group.MessageHandler.EditMessage)
				messages.DELETE("/:id", group.MessageHandler.DeleteMessage)
			}

			chatGroup.GET("/unread-count", group.ConversationHandler.GetUnreadCount)
			chatGroup.POST("/attachments", group.AttachmentHandler.Upload)
		}
	}

	return r
}

package handler

import (
	"Fellowship/internal/api/dto"
	"Fellowship/internal/pkg/consts"
	"Fellowship/internal/pkg/response"
	"Fellowship/internal/service"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageService service.MessageService
}

func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// SendMessage 发送消息接口
func (s *MessageHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := s.messageService.SendMessage(c.Request.Context(), c.GetUint64(consts.CtxUserID), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// EditMessage 路径中的 id 可以是消息 ID 或客户端临时 ID
func (s *MessageHandler) EditMessage(c *gin.Context) {
	var req dto.EditMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := s.messageService.EditMessage(c.Request.Context(), c.GetUint64(consts.CtxUserID), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *MessageHandler) DeleteMessage(c *gin.Context) {
	res, err := s.messageService.DeleteMessage(c.Request.Context(), c.GetUint64(consts.CtxUserID), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

package handler

import (
	"Fellowship/internal/api/dto"
	"Fellowship/internal/pkg/consts"
	"Fellowship/internal/pkg/response"
	"Fellowship/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 会话相关接口
type ConversationHandler struct {
	conversationService service.ConversationService
	queryService        service.QueryService
	messageService      service.MessageService
}

func NewConversationHandler(conversationService service.ConversationService, queryService service.QueryService,
	messageService service.MessageService) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		queryService:        queryService,
		messageService:      messageService,
	}
}

// ListConversations 当前用户可见的会话列表
func (s *ConversationHandler) ListConversations(c *gin.Context) {
	var query dto.ListConversationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := s.queryService.ListConversations(c.Request.Context(), c.GetUint64(consts.CtxUserID), query.Type)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *ConversationHandler) CreateConversation(c *gin.Context) {
	var req dto.CreateConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := s.conversationService.CreateConversation(c.Request.Context(), c.GetUint64(consts.CtxUserID), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// GetOrCreateCategory 分堂/小组会话，不存在则创建
func (s *ConversationHandler) GetOrCreateCategory(c *gin.Context) {
	var req dto.CategoryConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := s.conversationService.GetOrCreateCategoryConversation(c.Request.Context(), c.GetUint64(consts.CtxUserID), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *ConversationHandler) GetConversation(c *gin.Context) {
	convID, ok := conversationID(c)
	if !ok {
		return
	}

	res, err := s.conversationService.GetConversation(c.Request.Context(), c.GetUint64(consts.CtxUserID), convID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// ListMessages 分页拉取消息，同时标记已读
func (s *ConversationHandler) ListMessages(c *gin.Context) {
	convID, ok := conversationID(c)
	if !ok {
		return
	}
	var query dto.ListMessagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := s.messageService.ListMessages(c.Request.Context(), c.GetUint64(consts.CtxUserID), convID, &query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *ConversationHandler) MarkRead(c *gin.Context) {
	convID, ok := conversationID(c)
	if !ok {
		return
	}

	if err := s.conversationService.MarkRead(c.Request.Context(), c.GetUint64(consts.CtxUserID), convID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *ConversationHandler) AddParticipants(c *gin.Context) {
	convID, ok := conversationID(c)
	if !ok {
		return
	}
	var req dto.AddParticipantsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := s.conversationService.AddParticipants(c.Request.Context(), c.GetUint64(consts.CtxUserID), convID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *ConversationHandler) RemoveParticipant(c *gin.Context) {
	convID, ok := conversationID(c)
	if !ok {
		return
	}
	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrUserNotFound)
		return
	}

	if err = s.conversationService.RemoveParticipant(c.Request.Context(), c.GetUint64(consts.CtxUserID), convID, targetID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *ConversationHandler) GetUnreadCount(c *gin.Context) {
	res, err := s.queryService.GetUnreadCount(c.Request.Context(), c.GetUint64(consts.CtxUserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// conversationID 非数字的会话 ID 与不存在的会话同样返回 404
func conversationID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, service.ErrConversationNotFound)
		return 0, false
	}
	return id, true
}

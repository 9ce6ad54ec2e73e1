package dto

import (
	"Fellowship/internal/model"
	"time"
)

// SendMessageReq 发送消息请求体
type SendMessageReq struct {
	ConversationID uint64                 `json:"conversation_id" binding:"required"`
	Content        string                 `json:"content" binding:"required,max=5000"`
	Type           model.MessageType      `json:"type" binding:"omitempty,oneof=text image file audio video location"`
	ReplyToID      *uint64                `json:"reply_to_id" binding:"omitempty,min=1"`
	ClientID       *string                `json:"client_id" binding:"omitempty,min=1,max=64"`
	FileURL        *string                `json:"file_url" binding:"omitempty,max=512"`
	FileName       *string                `json:"file_name" binding:"omitempty,max=255"`
	FileSize       *int64                 `json:"file_size" binding:"omitempty,min=0"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// EditMessageReq 编辑消息请求体，client_id 作为路径参数无法解析时的兜底
type EditMessageReq struct {
	Content  string  `json:"content" binding:"required,max=5000"`
	ClientID *string `json:"client_id" binding:"omitempty,max=64"`
}

// CreateConversationReq 创建会话
type CreateConversationReq struct {
	Name           string                 `json:"name" binding:"omitempty,max=255"`
	Description    *string                `json:"description" binding:"omitempty,max=1000"`
	Type           model.ConversationType `json:"type" binding:"required,oneof=individual group mc branch announcement"`
	ParticipantIDs []uint64               `json:"participant_ids" binding:"omitempty,dive,min=1"`
	BranchID       *uint64                `json:"branch_id" binding:"omitempty,min=1"`
	MCID           *uint64                `json:"mc_id" binding:"omitempty,min=1"`
	Avatar         *string                `json:"avatar" binding:"omitempty,max=512"`
}

// CategoryConversationReq 获取或创建分堂/小组会话
type CategoryConversationReq struct {
	Type       model.ConversationType `json:"type" binding:"required,oneof=branch mc"`
	CategoryID uint64                 `json:"category_id" binding:"required,min=1"`
}

// AddParticipantsReq 群聊加人
type AddParticipantsReq struct {
	UserIDs       []uint64 `json:"user_ids" binding:"required,min=1,dive,min=1"`
	IsAdmin       bool     `json:"is_admin"`
	CanAddMembers bool     `json:"can_add_members"`
}

// ListConversationsQuery 会话列表过滤
type ListConversationsQuery struct {
	Type string `form:"type" binding:"omitempty,oneof=all individual group mc branch announcement"`
}

// ListMessagesQuery 分页参数
type ListMessagesQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1,max=1000000"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// ConversationDTO 会话列表项响应
type ConversationDTO struct {
	ID               uint64                 `json:"id"`
	Name             string                 `json:"name"`
	Description      *string                `json:"description"`
	Type             model.ConversationType `json:"type"`
	Avatar           *string                `json:"avatar"`
	IsMuted          bool                   `json:"is_muted"`
	IsPinned         bool                   `json:"is_pinned"`
	CreatedBy        uint64                 `json:"created_by"`
	BranchID         *uint64                `json:"branch_id"`
	MCID             *uint64                `json:"mc_id"`
	Settings         map[string]interface{} `json:"settings"`
	ParticipantCount int                    `json:"participant_count"`
	Participants     []*ParticipantDTO      `json:"participants"`
	LastMessage      *MessageDTO            `json:"last_message"`
	UnreadCount      uint64                 `json:"unread_count"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// ParticipantDTO 成员摘要
type ParticipantDTO struct {
	UserID        uint64     `json:"user_id"`
	Name          string     `json:"name"`
	IsAdmin       bool       `json:"is_admin"`
	CanAddMembers bool       `json:"can_add_members"`
	JoinedAt      time.Time  `json:"joined_at"`
	LastReadAt    *time.Time `json:"last_read_at"`
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID             uint64                 `json:"id"`
	ClientID       *string                `json:"client_id"`
	ConversationID uint64                 `json:"conversation_id"`
	SenderID       uint64                 `json:"sender_id"`
	SenderName     string                 `json:"sender_name"`
	Content        string                 `json:"content"`
	Type           model.MessageType      `json:"type"`
	Status         model.MessageStatus    `json:"status"`
	FileURL        *string                `json:"file_url"`
	FileName       *string                `json:"file_name"`
	FileSize       *int64                 `json:"file_size"`
	ReplyToID      *uint64                `json:"reply_to_id"`
	ReplyTo        *ReplyPreviewDTO       `json:"reply_to"`
	Metadata       map[string]interface{} `json:"metadata"`
	IsEncrypted    bool                   `json:"is_encrypted"`
	IsEdited       bool                   `json:"is_edited"`
	ReadAt         *time.Time             `json:"read_at"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ReplyPreviewDTO 被回复消息预览，原消息删除后 Available=false
type ReplyPreviewDTO struct {
	ID         uint64  `json:"id"`
	Available  bool    `json:"available"`
	SenderID   *uint64 `json:"sender_id,omitempty"`
	SenderName *string `json:"sender_name,omitempty"`
	Content    *string `json:"content,omitempty"`
}

// MessagePageDTO 分页消息
type MessagePageDTO struct {
	Messages   []*MessageDTO `json:"messages"`
	Pagination PaginationDTO `json:"pagination"`
}

type PaginationDTO struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// DeleteMessageDTO 删除结果
type DeleteMessageDTO struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// UnreadCountDTO 全局未读数
type UnreadCountDTO struct {
	Total uint64 `json:"total"`
}

// ProvisionResultDTO 批量加人结果
type ProvisionResultDTO struct {
	Added  int `json:"added"`
	Failed int `json:"failed"`
}

// AttachmentDTO 附件上传结果
type AttachmentDTO struct {
	FileURL  string            `json:"file_url"`
	FileName string            `json:"file_name"`
	FileSize int64             `json:"file_size"`
	MimeType string            `json:"mime_type"`
	Type     model.MessageType `json:"type"`
}

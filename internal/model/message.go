package model

import "time"

type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageFile     MessageType = "file"
	MessageAudio    MessageType = "audio"
	MessageVideo    MessageType = "video"
	MessageLocation MessageType = "location"
	MessageSystem   MessageType = "system"
)

type MessageStatus string

const (
	MessageSending   MessageStatus = "sending"
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
	MessageFailed    MessageStatus = "failed"
)

// Message 消息明细
type Message struct {
	ID             uint64        `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientID       *string       `gorm:"type:varchar(64);uniqueIndex" json:"clientId"`
	ConversationID uint64        `gorm:"not null;index:idx_msg_conv_created" json:"conversationId"`
	SenderID       uint64        `gorm:"not null;index" json:"senderId"`
	SenderName     string        `gorm:"type:varchar(255);not null" json:"senderName"` // 发送时快照
	Content        string        `gorm:"type:longtext;not null" json:"content"`
	Type           MessageType   `gorm:"type:varchar(20);not null;default:text" json:"type"`
	Status         MessageStatus `gorm:"type:varchar(20);not null;default:sent" json:"status"`
	FileURL        *string       `gorm:"type:varchar(512)" json:"fileUrl"`
	FileName       *string       `gorm:"type:varchar(255)" json:"fileName"`
	FileSize       *int64        `json:"fileSize"`
	ReplyToID      *uint64       `gorm:"index" json:"replyToId"` // 弱引用，不建外键
	Metadata       JSONMap       `gorm:"type:json" json:"metadata"`
	IsEncrypted    bool          `gorm:"not null;default:false" json:"isEncrypted"`
	ReadAt         *time.Time    `json:"readAt"`
	CreatedAt      time.Time     `gorm:"index:idx_msg_conv_created" json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

func (Message) TableName() string { return "chat_messages" }

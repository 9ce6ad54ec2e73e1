package model

import "time"

type ConversationType string

const (
	ConversationIndividual   ConversationType = "individual"
	ConversationGroup        ConversationType = "group"
	ConversationMC           ConversationType = "mc"
	ConversationBranch       ConversationType = "branch"
	ConversationAnnouncement ConversationType = "announcement"
)

// ConversationTypes 全部会话类型
var ConversationTypes = []ConversationType{
	ConversationIndividual,
	ConversationGroup,
	ConversationMC,
	ConversationBranch,
	ConversationAnnouncement,
}

func (t ConversationType) Valid() bool {
	for _, v := range ConversationTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsCategory 分堂/小组会话由组织结构自动维护
func (t ConversationType) IsCategory() bool {
	return t == ConversationBranch || t == ConversationMC
}

// Conversation 会话主表
type Conversation struct {
	ID          uint64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string           `gorm:"type:varchar(255);not null" json:"name"`
	Description *string          `gorm:"type:text" json:"description"`
	Type        ConversationType `gorm:"type:varchar(20);not null;index:idx_conv_type_updated" json:"type"`
	Avatar      *string          `gorm:"type:varchar(512)" json:"avatar"`
	IsMuted     bool             `gorm:"not null;default:false" json:"isMuted"`
	IsPinned    bool             `gorm:"not null;default:false" json:"isPinned"`
	CreatedBy   uint64           `gorm:"not null;index" json:"createdBy"`
	BranchID    *uint64          `gorm:"index" json:"branchId"` // mc 会话冗余其所属分堂
	MCID        *uint64          `gorm:"column:mc_id;index" json:"mcId"`
	CategoryKey *string          `gorm:"type:varchar(64);uniqueIndex" json:"-"` // branch:1 / mc:3 / individual:1_2
	Settings    JSONMap          `gorm:"type:json" json:"settings"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `gorm:"index:idx_conv_type_updated" json:"updatedAt"`
}

func (Conversation) TableName() string { return "conversations" }

// ConversationParticipant 会话成员表
type ConversationParticipant struct {
	ID                   uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID       uint64     `gorm:"not null;uniqueIndex:idx_conv_user" json:"conversationId"`
	UserID               uint64     `gorm:"not null;uniqueIndex:idx_conv_user;index" json:"userId"`
	JoinedAt             time.Time  `gorm:"not null" json:"joinedAt"`
	LeftAt               *time.Time `gorm:"index" json:"leftAt"` // 非空即已退出
	IsAdmin              bool       `gorm:"not null;default:false" json:"isAdmin"`
	CanAddMembers        bool       `gorm:"not null;default:false" json:"canAddMembers"`
	NotificationsEnabled bool       `gorm:"not null" json:"notificationsEnabled"` // 写入时显式赋值
	LastReadAt           *time.Time `json:"lastReadAt"`
	UnreadCount          uint64     `gorm:"not null;default:0" json:"unreadCount"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

func (ConversationParticipant) TableName() string { return "conversation_participants" }

func (p *ConversationParticipant) Active() bool {
	return p != nil && p.LeftAt == nil
}

// ParticipantOptions 添加成员时可覆盖的默认值
type ParticipantOptions struct {
	IsAdmin              bool
	CanAddMembers        bool
	NotificationsEnabled *bool
}

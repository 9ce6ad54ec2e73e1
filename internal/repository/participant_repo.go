package repository

import (
	"Fellowship/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ParticipantRepo interface {
	Add(ctx context.Context, convID, userID uint64, opts model.ParticipantOptions, at time.Time) (bool, error)
	Remove(ctx context.Context, convID, userID uint64, at time.Time) (bool, error)
	Get(ctx context.Context, convID, userID uint64) (*model.ConversationParticipant, error)

	MarkRead(ctx context.Context, convID, userID uint64, at time.Time) error
	IncrementUnread(ctx context.Context, convID, userID uint64) error

	ListActiveByConversations(ctx context.Context, convIDs []uint64) (map[uint64][]*model.ConversationParticipant, error)
	GetUserMemberships(ctx context.Context, userID uint64, convIDs []uint64) (map[uint64]*model.ConversationParticipant, error)
	TotalUnread(ctx context.Context, userID uint64) (uint64, error)
}

type participantRepoImpl struct {
	db *gorm.DB
}

func NewParticipantRepo(db *gorm.DB) ParticipantRepo {
	return &participantRepoImpl{db: db}
}

// Add 插入或重新激活成员；已是活跃成员时返回 false
func (s *participantRepoImpl) Add(ctx context.Context, convID, userID uint64, opts model.ParticipantOptions, at time.Time) (bool, error) {
	notify := true
	if opts.NotificationsEnabled != nil {
		notify = *opts.NotificationsEnabled
	}
	row := &model.ConversationParticipant{
		ConversationID:       convID,
		UserID:               userID,
		JoinedAt:             at,
		IsAdmin:              opts.IsAdmin,
		CanAddMembers:        opts.CanAddMembers,
		NotificationsEnabled: notify,
	}
	db := s.db.WithContext(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	// 曾经退出过：复用原行，未读清零
	res = db.Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ? AND left_at IS NOT NULL", convID, userID).
		UpdateColumns(map[string]interface{}{
			"left_at":               nil,
			"joined_at":             at,
			"unread_count":          0,
			"last_read_at":          nil,
			"is_admin":              opts.IsAdmin,
			"can_add_members":       opts.CanAddMembers,
			"notifications_enabled": notify,
			"updated_at":            at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Remove 软退出，保留历史行
func (s *participantRepoImpl) Remove(ctx context.Context, convID, userID uint64, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ? AND left_at IS NULL", convID, userID).
		UpdateColumns(map[string]interface{}{
			"left_at":    at,
			"updated_at": at,
		})
	return res.RowsAffected == 1, res.Error
}

// Get 包含已退出的成员行，不存在时返回 nil
func (s *participantRepoImpl) Get(ctx context.Context, convID, userID uint64) (*model.ConversationParticipant, error) {
	var p model.ConversationParticipant
	err := s.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkRead 未读清零，last_read_at 只前进不后退
func (s *participantRepoImpl) MarkRead(ctx context.Context, convID, userID uint64, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ? AND left_at IS NULL", convID, userID).
		UpdateColumns(map[string]interface{}{
			"unread_count": 0,
			"last_read_at": gorm.Expr("CASE WHEN last_read_at IS NULL OR last_read_at < ? THEN ? ELSE last_read_at END", at, at),
			"updated_at":   at,
		}).Error
}

// IncrementUnread 由数据库完成自增，避免并发丢失
func (s *participantRepoImpl) IncrementUnread(ctx context.Context, convID, userID uint64) error {
	return s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ? AND left_at IS NULL", convID, userID).
		UpdateColumn("unread_count", gorm.Expr("unread_count + 1")).Error
}

// ListActiveByConversations 会话列表批量装配成员
func (s *participantRepoImpl) ListActiveByConversations(ctx context.Context, convIDs []uint64) (map[uint64][]*model.ConversationParticipant, error) {
	result := make(map[uint64][]*model.ConversationParticipant, len(convIDs))
	if len(convIDs) == 0 {
		return result, nil
	}
	var list []*model.ConversationParticipant
	err := s.db.WithContext(ctx).
		Where("conversation_id IN ? AND left_at IS NULL", convIDs).
		Order("joined_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		result[p.ConversationID] = append(result[p.ConversationID], p)
	}
	return result, nil
}

// GetUserMemberships 当前用户在给定会话中的成员行（含已退出）
func (s *participantRepoImpl) GetUserMemberships(ctx context.Context, userID uint64, convIDs []uint64) (map[uint64]*model.ConversationParticipant, error) {
	result := make(map[uint64]*model.ConversationParticipant, len(convIDs))
	if len(convIDs) == 0 {
		return result, nil
	}
	var list []*model.ConversationParticipant
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND conversation_id IN ?", userID, convIDs).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		result[p.ConversationID] = p
	}
	return result, nil
}

// TotalUnread 计算全局未读数
func (s *participantRepoImpl) TotalUnread(ctx context.Context, userID uint64) (uint64, error) {
	var total uint64
	err := s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("user_id = ? AND left_at IS NULL", userID).
		Select("COALESCE(SUM(unread_count), 0)").
		Scan(&total).Error
	return total, err
}

// incrementUnreadExcept 发送者之外的活跃成员未读 +1
func incrementUnreadExcept(db *gorm.DB, convID, senderID uint64) error {
	return db.Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id <> ? AND left_at IS NULL", convID, senderID).
		UpdateColumn("unread_count", gorm.Expr("unread_count + 1")).Error
}

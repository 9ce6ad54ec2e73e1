package repository

import (
	"Fellowship/internal/access"
	"Fellowship/internal/model"
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepo interface {
	Create(ctx context.Context, conv *model.Conversation, participants []*model.ConversationParticipant) error
	FindOrCreateByKey(ctx context.Context, conv *model.Conversation) (*model.Conversation, bool, error)
	GetByID(ctx context.Context, convID uint64) (*model.Conversation, error)
	GetByCategoryKey(ctx context.Context, key string) (*model.Conversation, error)
	Touch(ctx context.Context, convID uint64, at time.Time) error

	ListByScopes(ctx context.Context, scopes []access.Scope) ([]*model.Conversation, error)
	ListByType(ctx context.Context, convType model.ConversationType) ([]*model.Conversation, error)
}

type conversationRepoImpl struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepoImpl{db: db}
}

// Create 开启事务创建会话及初始成员
func (s *conversationRepoImpl) Create(ctx context.Context, conv *model.Conversation, participants []*model.ConversationParticipant) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		for _, p := range participants {
			p.ConversationID = conv.ID
		}
		if len(participants) == 0 {
			return nil
		}
		return tx.Create(&participants).Error
	})
}

// FindOrCreateByKey 依赖 category_key 唯一索引做原子插入，冲突时读回已有行
func (s *conversationRepoImpl) FindOrCreateByKey(ctx context.Context, conv *model.Conversation) (*model.Conversation, bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category_key"}},
			DoNothing: true,
		}).
		Create(conv)
	if res.Error != nil {
		return nil, false, res.Error
	}
	existing, err := s.GetByCategoryKey(ctx, *conv.CategoryKey)
	if err != nil {
		return nil, false, err
	}
	return existing, res.RowsAffected == 1, nil
}

// GetByID 根据会话 ID 获取会话
func (s *conversationRepoImpl) GetByID(ctx context.Context, convID uint64) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).First(&conv, convID).Error
	return &conv, err
}

// GetByCategoryKey branch:1 / mc:3 / individual:1_2
func (s *conversationRepoImpl) GetByCategoryKey(ctx context.Context, key string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).Where("category_key = ?", key).First(&conv).Error
	return &conv, err
}

// Touch 新消息到达时刷新会话排序时间
func (s *conversationRepoImpl) Touch(ctx context.Context, convID uint64, at time.Time) error {
	return touchConversation(s.db.WithContext(ctx), convID, at)
}

// ListByScopes 各 Scope 之间为 OR，按最近活跃倒序
func (s *conversationRepoImpl) ListByScopes(ctx context.Context, scopes []access.Scope) ([]*model.Conversation, error) {
	var convs []*model.Conversation
	if len(scopes) == 0 {
		return convs, nil
	}

	parts := make([]string, 0, len(scopes))
	args := make([]interface{}, 0, len(scopes)*3)
	for _, sc := range scopes {
		if sc.All {
			parts = append(parts, "c.type = ?")
			args = append(args, sc.Type)
			continue
		}
		sub := make([]string, 0, 3)
		subArgs := make([]interface{}, 0, 3)
		if len(sc.BranchIDs) > 0 {
			sub = append(sub, "c.branch_id IN ?")
			subArgs = append(subArgs, sc.BranchIDs)
		}
		if len(sc.MCIDs) > 0 {
			sub = append(sub, "c.mc_id IN ?")
			subArgs = append(subArgs, sc.MCIDs)
		}
		if sc.ParticipantOf != 0 {
			sub = append(sub, "EXISTS (SELECT 1 FROM conversation_participants p "+
				"WHERE p.conversation_id = c.id AND p.user_id = ? AND p.left_at IS NULL)")
			subArgs = append(subArgs, sc.ParticipantOf)
		}
		if len(sub) == 0 {
			continue
		}
		parts = append(parts, "(c.type = ? AND ("+strings.Join(sub, " OR ")+"))")
		args = append(args, sc.Type)
		args = append(args, subArgs...)
	}
	if len(parts) == 0 {
		return convs, nil
	}

	err := s.db.WithContext(ctx).Table("conversations c").
		Select("c.*").
		Where(strings.Join(parts, " OR "), args...).
		Order("c.updated_at DESC, c.id DESC").
		Find(&convs).Error
	return convs, err
}

// ListByType 对账任务遍历全部分类会话
func (s *conversationRepoImpl) ListByType(ctx context.Context, convType model.ConversationType) ([]*model.Conversation, error) {
	var convs []*model.Conversation
	err := s.db.WithContext(ctx).Where("type = ?", convType).Order("id ASC").Find(&convs).Error
	return convs, err
}

// touchConversation updated_at 只前进不后退
func touchConversation(db *gorm.DB, convID uint64, at time.Time) error {
	return db.Model(&model.Conversation{}).
		Where("id = ?", convID).
		UpdateColumn("updated_at", gorm.Expr("CASE WHEN updated_at < ? THEN ? ELSE updated_at END", at, at)).Error
}

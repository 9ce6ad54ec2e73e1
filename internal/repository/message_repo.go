package repository

import (
	"Fellowship/internal/model"
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
)

type MessageRepo interface {
	Append(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, msgID uint64) (*model.Message, error)
	GetByClientID(ctx context.Context, clientID string) (*model.Message, error)
	Resolve(ctx context.Context, key string) (*model.Message, error)
	GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.Message, error)

	UpdateContent(ctx context.Context, msgID uint64, content string, at time.Time) error
	Delete(ctx context.Context, msgID uint64) (bool, error)

	Page(ctx context.Context, convID uint64, offset, limit int) ([]*model.Message, int64, error)
	Count(ctx context.Context, convID uint64) (int64, error)
	LastByConversations(ctx context.Context, convIDs []uint64) (map[uint64]*model.Message, error)
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepoImpl{db: db}
}

// Append 同一事务内写消息、累加他人未读、刷新会话时间
func (s *messageRepoImpl) Append(ctx context.Context, msg *model.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		if err := incrementUnreadExcept(tx, msg.ConversationID, msg.SenderID); err != nil {
			return err
		}
		return touchConversation(tx, msg.ConversationID, msg.CreatedAt)
	})
}

func (s *messageRepoImpl) GetByID(ctx context.Context, msgID uint64) (*model.Message, error) {
	var msg model.Message
	err := s.db.WithContext(ctx).First(&msg, msgID).Error
	return &msg, err
}

func (s *messageRepoImpl) GetByClientID(ctx context.Context, clientID string) (*model.Message, error) {
	var msg model.Message
	err := s.db.WithContext(ctx).Where("client_id = ?", clientID).First(&msg).Error
	return &msg, err
}

// Resolve 先按主键查找，找不到再按 client_id 查找
func (s *messageRepoImpl) Resolve(ctx context.Context, key string) (*model.Message, error) {
	if id, err := strconv.ParseUint(key, 10, 64); err == nil && id > 0 {
		msg, err := s.GetByID(ctx, id)
		if err == nil {
			return msg, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if key == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return s.GetByClientID(ctx, key)
}

// GetByIDs 回复预览批量查询，已删除的 id 不会出现在结果中
func (s *messageRepoImpl) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.Message, error) {
	result := make(map[uint64]*model.Message, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var list []*model.Message
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, m := range list {
		result[m.ID] = m
	}
	return result, nil
}

func (s *messageRepoImpl) UpdateContent(ctx context.Context, msgID uint64, content string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ?", msgID).
		UpdateColumns(map[string]interface{}{
			"content":    content,
			"updated_at": at,
		}).Error
}

// Delete 物理删除，返回是否真的删除了一行
func (s *messageRepoImpl) Delete(ctx context.Context, msgID uint64) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&model.Message{}, msgID)
	return res.RowsAffected > 0, res.Error
}

// Page 按 created_at、id 倒序分页
func (s *messageRepoImpl) Page(ctx context.Context, convID uint64, offset, limit int) ([]*model.Message, int64, error) {
	var list []*model.Message
	total, err := s.Count(ctx, convID)
	if err != nil {
		return nil, 0, err
	}
	err = s.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, total, err
}

func (s *messageRepoImpl) Count(ctx context.Context, convID uint64) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ?", convID).
		Count(&total).Error
	return total, err
}

// LastByConversations 每个会话 id 最大的一条消息
func (s *messageRepoImpl) LastByConversations(ctx context.Context, convIDs []uint64) (map[uint64]*model.Message, error) {
	result := make(map[uint64]*model.Message, len(convIDs))
	if len(convIDs) == 0 {
		return result, nil
	}
	latest := s.db.Model(&model.Message{}).
		Select("MAX(id)").
		Where("conversation_id IN ?", convIDs).
		Group("conversation_id")

	var list []*model.Message
	if err := s.db.WithContext(ctx).Where("id IN (?)", latest).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, m := range list {
		result[m.ConversationID] = m
	}
	return result, nil
}

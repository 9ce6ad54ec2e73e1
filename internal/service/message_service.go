package service

import (
	"Fellowship/internal/access"
	"Fellowship/internal/api/dto"
	"Fellowship/internal/model"
	"Fellowship/internal/pkg/directory"
	"Fellowship/internal/repository"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
)

// MessageService 消息发送、编辑、删除与分页
type MessageService interface {
	SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	EditMessage(ctx context.Context, userID uint64, key string, req *dto.EditMessageReq) (*dto.MessageDTO, error)
	DeleteMessage(ctx context.Context, userID uint64, key string) (*dto.DeleteMessageDTO, error)
	ListMessages(ctx context.Context, userID, convID uint64, query *dto.ListMessagesQuery) (*dto.MessagePageDTO, error)
}

type messageServiceImpl struct {
	chatContext
}

func NewMessageService(convRepo repository.ConversationRepo, participantRepo repository.ParticipantRepo, messageRepo repository.MessageRepo,
	dir directory.Directory, opts ChatOptions) MessageService {
	return &messageServiceImpl{chatContext{
		convRepo:        convRepo,
		participantRepo: participantRepo,
		messageRepo:     messageRepo,
		dir:             dir,
		opts:            opts.normalize(),
	}}
}

// SendMessage 发送者必须是会话的活跃成员；相同 client_id 重发返回已有消息
func (s *messageServiceImpl) SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	msgType := req.Type
	if msgType == "" {
		msgType = model.MessageText
	}
	if msgType == model.MessageSystem {
		return nil, NewValidationError("type", "system messages cannot be sent")
	}
	if err := s.checkContent(req.Content); err != nil {
		return nil, err
	}

	a, err := s.actor(ctx, senderID)
	if err != nil {
		return nil, err
	}
	conv, err := s.conversation(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	policy, ok := access.For(conv.Type)
	if !ok {
		return nil, ErrConversationNotFound
	}
	member, err := s.participantRepo.Get(ctx, conv.ID, a.UserID)
	if err != nil {
		return nil, err
	}
	target := targetOf(conv, member)
	if !target.IsParticipant {
		env, err := s.env(ctx)
		if err != nil {
			return nil, err
		}
		if !policy.CanView(a, target, env) {
			return nil, ErrConversationNotFound
		}
		return nil, ErrNotParticipant
	}
	if !policy.CanPost(a, target) {
		return nil, ErrAnnouncementReadOnly
	}

	if req.ClientID != nil {
		existing, err := s.ownedByClientID(ctx, *req.ClientID, a.UserID, conv.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return s.messageDTO(ctx, existing)
		}
	}
	if req.ReplyToID != nil {
		reply, err := s.messageRepo.GetByID(ctx, *req.ReplyToID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && reply.ConversationID != conv.ID) {
			return nil, NewValidationError("reply_to_id", "must reference a message in this conversation")
		}
		if err != nil {
			return nil, err
		}
	}

	sender, err := s.dir.GetUser(ctx, a.UserID)
	if err != nil {
		return nil, fmt.Errorf("load sender: %w", err)
	}

	now := s.opts.Now()
	msg := &model.Message{
		ClientID:       req.ClientID,
		ConversationID: conv.ID,
		SenderID:       a.UserID,
		SenderName:     sender.Name,
		Content:        req.Content,
		Type:           msgType,
		Status:         model.MessageSent,
		FileURL:        req.FileURL,
		FileName:       req.FileName,
		FileSize:       req.FileSize,
		ReplyToID:      req.ReplyToID,
		Metadata:       model.JSONMap(req.Metadata),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err = s.messageRepo.Append(ctx, msg); err != nil {
		// 并发重发同一 client_id 时唯一索引冲突，回读已落库的那条
		if req.ClientID != nil {
			if existing, lookupErr := s.ownedByClientID(ctx, *req.ClientID, a.UserID, conv.ID); lookupErr == nil && existing != nil {
				return s.messageDTO(ctx, existing)
			}
		}
		return nil, err
	}
	return s.messageDTO(ctx, msg)
}

// ownedByClientID client_id 已被占用时：同一发送者同一会话视为重发，否则为参数错误
func (s *messageServiceImpl) ownedByClientID(ctx context.Context, clientID string, senderID, convID uint64) (*model.Message, error) {
	existing, err := s.messageRepo.GetByClientID(ctx, clientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if existing.SenderID != senderID || existing.ConversationID != convID {
		return nil, NewValidationError("client_id", "has already been taken")
	}
	return existing, nil
}

func (s *messageServiceImpl) checkContent(content string) error {
	if utf8.RuneCountInString(content) > s.opts.MaxContentLength {
		return NewValidationError("content", fmt.Sprintf("must not exceed %d characters", s.opts.MaxContentLength))
	}
	if strings.TrimSpace(content) == "" {
		return NewValidationError("content", "is required")
	}
	return nil
}

// resolve 路径参数按主键、client_id 依次查找，再退回请求体里的 client_id
func (s *messageServiceImpl) resolve(ctx context.Context, key string, fallbackClientID *string) (*model.Message, error) {
	msg, err := s.messageRepo.Resolve(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) && fallbackClientID != nil && *fallbackClientID != "" {
		msg, err = s.messageRepo.GetByClientID(ctx, *fallbackClientID)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	return msg, err
}

// EditMessage 仅发送者本人，且在编辑窗口内
func (s *messageServiceImpl) EditMessage(ctx context.Context, userID uint64, key string, req *dto.EditMessageReq) (*dto.MessageDTO, error) {
	if err := s.checkContent(req.Content); err != nil {
		return nil, err
	}
	msg, err := s.resolve(ctx, key, req.ClientID)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	switch access.CanEdit(userID, msg, now, s.opts.EditWindow) {
	case access.EditNotOwner:
		return nil, ErrEditNotOwner
	case access.EditExpired:
		return nil, ErrEditWindowExpired
	}

	if err = s.messageRepo.UpdateContent(ctx, msg.ID, req.Content, now); err != nil {
		return nil, err
	}
	msg.Content = req.Content
	msg.UpdatedAt = now
	return s.messageDTO(ctx, msg)
}

// DeleteMessage 找不到即视为已删除
func (s *messageServiceImpl) DeleteMessage(ctx context.Context, userID uint64, key string) (*dto.DeleteMessageDTO, error) {
	res := &dto.DeleteMessageDTO{ID: key, Deleted: true}
	msg, err := s.resolve(ctx, key, nil)
	if errors.Is(err, ErrMessageNotFound) {
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	if msg.SenderID != userID {
		a, err := s.actor(ctx, userID)
		if err != nil {
			return nil, err
		}
		sender := access.Actor{UserID: msg.SenderID}
		if u, err := s.dir.GetUser(ctx, msg.SenderID); err == nil {
			sender = access.ActorFrom(u)
		} else if !errors.Is(err, directory.ErrNotFound) {
			return nil, err
		}
		if !access.CanDelete(a, sender) {
			return nil, ErrDeleteDenied
		}
	}

	if _, err = s.messageRepo.Delete(ctx, msg.ID); err != nil {
		return nil, err
	}
	return res, nil
}

// ListMessages 库内倒序分页，返回前翻转为页内正序，并把请求者标记为已读
func (s *messageServiceImpl) ListMessages(ctx context.Context, userID, convID uint64, query *dto.ListMessagesQuery) (*dto.MessagePageDTO, error) {
	a, err := s.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	conv, member, _, err := s.visibleConversation(ctx, a, convID)
	if err != nil {
		return nil, err
	}

	page, limit := s.pageParams(query)
	var list []*model.Message
	var total int64
	offset, ok := pageOffset(page, limit)
	if ok {
		list, total, err = s.messageRepo.Page(ctx, conv.ID, offset, limit)
	} else {
		// 越界页码直接返回空页
		total, err = s.messageRepo.Count(ctx, conv.ID)
	}
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}

	if member.Active() {
		if err = s.participantRepo.MarkRead(ctx, conv.ID, a.UserID, s.opts.Now()); err != nil {
			return nil, err
		}
	}

	items, err := s.messageDTOs(ctx, list)
	if err != nil {
		return nil, err
	}
	return &dto.MessagePageDTO{
		Messages: items,
		Pagination: dto.PaginationDTO{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasMore: ok && int64(offset)+int64(len(list)) < total,
		},
	}, nil
}

// pageOffset (page-1)*limit 溢出 int 时返回 false
func pageOffset(page, limit int) (int, bool) {
	if page-1 > math.MaxInt/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}

func (s *messageServiceImpl) pageParams(query *dto.ListMessagesQuery) (int, int) {
	page, limit := 1, s.opts.DefaultPageSize
	if query != nil {
		if query.Page > 0 {
			page = query.Page
		}
		if query.Limit > 0 {
			limit = query.Limit
		}
	}
	if limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}
	return page, limit
}

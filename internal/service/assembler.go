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

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// chatContext 各服务共用的查询与装配逻辑
type chatContext struct {
	convRepo        repository.ConversationRepo
	participantRepo repository.ParticipantRepo
	messageRepo     repository.MessageRepo
	dir             directory.Directory
	opts            ChatOptions
}

// actor 从目录加载当前用户；目录里查不到视为未认证
func (s *chatContext) actor(ctx context.Context, userID uint64) (access.Actor, error) {
	u, err := s.dir.GetUser(ctx, userID)
	if errors.Is(err, directory.ErrNotFound) {
		return access.Actor{}, ErrUnauthenticated
	}
	if err != nil {
		return access.Actor{}, fmt.Errorf("load actor %d: %w", userID, err)
	}
	return access.ActorFrom(u), nil
}

func (s *chatContext) env(ctx context.Context) (access.Env, error) {
	hq, err := s.dir.HeadquartersBranchIDs(ctx)
	if err != nil {
		return access.Env{}, fmt.Errorf("load headquarters: %w", err)
	}
	return access.Env{HeadquartersBranchIDs: hq}, nil
}

// conversation 读取会话，不存在时返回 ErrConversationNotFound
func (s *chatContext) conversation(ctx context.Context, convID uint64) (*model.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, convID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// visibleConversation 不可见与不存在对调用方不可区分
func (s *chatContext) visibleConversation(ctx context.Context, a access.Actor, convID uint64) (*model.Conversation, *model.ConversationParticipant, access.Policy, error) {
	conv, err := s.conversation(ctx, convID)
	if err != nil {
		return nil, nil, nil, err
	}
	policy, ok := access.For(conv.Type)
	if !ok {
		return nil, nil, nil, ErrConversationNotFound
	}
	member, err := s.participantRepo.Get(ctx, conv.ID, a.UserID)
	if err != nil {
		return nil, nil, nil, err
	}
	env, err := s.env(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if !policy.CanView(a, targetOf(conv, member), env) {
		return nil, nil, nil, ErrConversationNotFound
	}
	return conv, member, policy, nil
}

func targetOf(conv *model.Conversation, member *model.ConversationParticipant) access.Target {
	t := access.Target{BranchID: conv.BranchID, MCID: conv.MCID}
	if member.Active() {
		t.IsParticipant = true
		t.IsAdmin = member.IsAdmin
		t.CanAddMembers = member.CanAddMembers
	}
	return t
}

// conversationDTOs 批量装配成员、最后一条消息与当前用户未读数
func (s *chatContext) conversationDTOs(ctx context.Context, a access.Actor, convs []*model.Conversation) ([]*dto.ConversationDTO, error) {
	result := make([]*dto.ConversationDTO, 0, len(convs))
	if len(convs) == 0 {
		return result, nil
	}
	ids := make([]uint64, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}

	members, err := s.participantRepo.ListActiveByConversations(ctx, ids)
	if err != nil {
		return nil, err
	}
	mine, err := s.participantRepo.GetUserMemberships(ctx, a.UserID, ids)
	if err != nil {
		return nil, err
	}
	latest, err := s.messageRepo.LastByConversations(ctx, ids)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uint64, 0)
	seen := make(map[uint64]struct{})
	for _, list := range members {
		for _, p := range list {
			if _, ok := seen[p.UserID]; !ok {
				seen[p.UserID] = struct{}{}
				userIDs = append(userIDs, p.UserID)
			}
		}
	}
	users, err := s.dir.GetUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	lastMsgs := make([]*model.Message, 0, len(latest))
	for _, m := range latest {
		lastMsgs = append(lastMsgs, m)
	}
	lastDTOs, err := s.messageDTOs(ctx, lastMsgs)
	if err != nil {
		return nil, err
	}
	lastByConv := make(map[uint64]*dto.MessageDTO, len(lastDTOs))
	for _, m := range lastDTOs {
		lastByConv[m.ConversationID] = m
	}

	for _, conv := range convs {
		item := &dto.ConversationDTO{}
		if err = copier.Copy(item, conv); err != nil {
			return nil, err
		}
		list := members[conv.ID]
		item.Participants = make([]*dto.ParticipantDTO, 0, len(list))
		for _, p := range list {
			pd := &dto.ParticipantDTO{
				UserID:        p.UserID,
				IsAdmin:       p.IsAdmin,
				CanAddMembers: p.CanAddMembers,
				JoinedAt:      p.JoinedAt,
				LastReadAt:    p.LastReadAt,
			}
			if u, ok := users[p.UserID]; ok {
				pd.Name = u.Name
			}
			item.Participants = append(item.Participants, pd)
		}
		item.ParticipantCount = len(list)
		item.Name = displayName(conv, a.UserID, item.Participants)
		item.LastMessage = lastByConv[conv.ID]
		if m, ok := mine[conv.ID]; ok && m.Active() {
			item.UnreadCount = m.UnreadCount
		}
		result = append(result, item)
	}
	return result, nil
}

// displayName 两人私聊显示对方名字
func displayName(conv *model.Conversation, viewerID uint64, members []*dto.ParticipantDTO) string {
	if conv.Type != model.ConversationIndividual || len(members) != 2 {
		return conv.Name
	}
	for _, m := range members {
		if m.UserID != viewerID && m.Name != "" {
			return m.Name
		}
	}
	return conv.Name
}

// messageDTOs 附带回复预览，被回复消息已删除时 available=false
func (s *chatContext) messageDTOs(ctx context.Context, msgs []*model.Message) ([]*dto.MessageDTO, error) {
	result := make([]*dto.MessageDTO, 0, len(msgs))
	if len(msgs) == 0 {
		return result, nil
	}
	replyIDs := make([]uint64, 0)
	for _, m := range msgs {
		if m.ReplyToID != nil {
			replyIDs = append(replyIDs, *m.ReplyToID)
		}
	}
	replies, err := s.messageRepo.GetByIDs(ctx, replyIDs)
	if err != nil {
		return nil, err
	}

	for _, m := range msgs {
		item := &dto.MessageDTO{}
		if err = copier.Copy(item, m); err != nil {
			return nil, err
		}
		item.IsEdited = !m.UpdatedAt.Equal(m.CreatedAt)
		if m.ReplyToID != nil {
			preview := &dto.ReplyPreviewDTO{ID: *m.ReplyToID}
			if target, ok := replies[*m.ReplyToID]; ok {
				preview.Available = true
				preview.SenderID = &target.SenderID
				preview.SenderName = &target.SenderName
				preview.Content = &target.Content
			}
			item.ReplyTo = preview
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *chatContext) messageDTO(ctx context.Context, msg *model.Message) (*dto.MessageDTO, error) {
	list, err := s.messageDTOs(ctx, []*model.Message{msg})
	if err != nil {
		return nil, err
	}
	return list[0], nil
}

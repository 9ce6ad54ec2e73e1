package service

import (
	"Fellowship/internal/access"
	"Fellowship/internal/api/dto"
	"Fellowship/internal/model"
	"Fellowship/internal/pkg/directory"
	"Fellowship/internal/repository"
	"context"
)

// QueryService 会话列表与全局未读
type QueryService interface {
	ListConversations(ctx context.Context, userID uint64, typeFilter string) ([]*dto.ConversationDTO, error)
	GetUnreadCount(ctx context.Context, userID uint64) (*dto.UnreadCountDTO, error)
}

type queryServiceImpl struct {
	chatContext
}

func NewQueryService(convRepo repository.ConversationRepo, participantRepo repository.ParticipantRepo, messageRepo repository.MessageRepo,
	dir directory.Directory, opts ChatOptions) QueryService {
	return &queryServiceImpl{chatContext{
		convRepo:        convRepo,
		participantRepo: participantRepo,
		messageRepo:     messageRepo,
		dir:             dir,
		opts:            opts.normalize(),
	}}
}

// ListConversations 按可见性规则列出会话，最近活跃在前
func (s *queryServiceImpl) ListConversations(ctx context.Context, userID uint64, typeFilter string) ([]*dto.ConversationDTO, error) {
	var filter model.ConversationType
	if typeFilter != "" && typeFilter != "all" {
		filter = model.ConversationType(typeFilter)
		if !filter.Valid() {
			return nil, NewValidationError("type", "must be one of: all individual group mc branch announcement")
		}
	}

	a, err := s.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	env, err := s.env(ctx)
	if err != nil {
		return nil, err
	}
	convs, err := s.convRepo.ListByScopes(ctx, access.Scopes(a, env, filter))
	if err != nil {
		return nil, err
	}
	return s.conversationDTOs(ctx, a, convs)
}

func (s *queryServiceImpl) GetUnreadCount(ctx context.Context, userID uint64) (*dto.UnreadCountDTO, error) {
	total, err := s.participantRepo.TotalUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountDTO{Total: total}, nil
}

package service

import (
	"Fellowship/internal/access"
	"Fellowship/internal/api/dto"
	"Fellowship/internal/model"
	"Fellowship/internal/pkg/consts"
	"Fellowship/internal/pkg/directory"
	"Fellowship/internal/pkg/util"
	"Fellowship/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
)

// ConversationService 会话创建、分类会话按需创建与成员管理
type ConversationService interface {
	CreateConversation(ctx context.Context, userID uint64, req *dto.CreateConversationReq) (*dto.ConversationDTO, error)
	GetOrCreateCategoryConversation(ctx context.Context, userID uint64, req *dto.CategoryConversationReq) (*dto.ConversationDTO, error)
	GetOrCreateBranchConversation(ctx context.Context, branchID uint64) (*model.Conversation, error)
	GetOrCreateMCConversation(ctx context.Context, mcID uint64) (*model.Conversation, error)
	GetConversation(ctx context.Context, userID, convID uint64) (*dto.ConversationDTO, error)
	AddParticipants(ctx context.Context, userID, convID uint64, req *dto.AddParticipantsReq) (*dto.ProvisionResultDTO, error)
	RemoveParticipant(ctx context.Context, userID, convID, targetUserID uint64) error
	MarkRead(ctx context.Context, userID, convID uint64) error
}

type conversationServiceImpl struct {
	chatContext
	provisioning ProvisioningService
}

func NewConversationService(convRepo repository.ConversationRepo, participantRepo repository.ParticipantRepo, messageRepo repository.MessageRepo,
	dir directory.Directory, provisioning ProvisioningService, opts ChatOptions) ConversationService {
	return &conversationServiceImpl{
		chatContext: chatContext{
			convRepo:        convRepo,
			participantRepo: participantRepo,
			messageRepo:     messageRepo,
			dir:             dir,
			opts:            opts.normalize(),
		},
		provisioning: provisioning,
	}
}

// CreateConversation 权限判定在任何写入之前完成
func (s *conversationServiceImpl) CreateConversation(ctx context.Context, userID uint64, req *dto.CreateConversationReq) (*dto.ConversationDTO, error) {
	policy, ok := access.For(req.Type)
	if !ok {
		return nil, NewValidationError("type", "is invalid")
	}
	a, err := s.actor(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch req.Type {
	case model.ConversationBranch:
		return s.createBranch(ctx, a, policy, req)
	case model.ConversationMC:
		return s.createMC(ctx, a, policy, req)
	case model.ConversationAnnouncement:
		return s.createAnnouncement(ctx, a, policy, req)
	default:
		return s.createAdHoc(ctx, a, policy, req)
	}
}

func (s *conversationServiceImpl) createBranch(ctx context.Context, a access.Actor, policy access.Policy, req *dto.CreateConversationReq) (*dto.ConversationDTO, error) {
	if req.BranchID == nil {
		return nil, NewValidationError("branch_id", "is required for branch conversations")
	}
	if !policy.CanCreate(a, access.CreateRequest{BranchID: req.BranchID}) {
		return nil, ErrPermissionDenied
	}
	conv, err := s.GetOrCreateBranchConversation(ctx, *req.BranchID)
	if err != nil {
		return nil, err
	}
	return s.joinAndRender(ctx, a, conv)
}

func (s *conversationServiceImpl) createMC(ctx context.Context, a access.Actor, policy access.Policy, req *dto.CreateConversationReq) (*dto.ConversationDTO, error) {
	if req.MCID == nil {
		return nil, NewValidationError("mc_id", "is required for mc conversations")
	}
	mc, err := s.dir.GetMC(ctx, *req.MCID)
	if errors.Is(err, directory.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	if !policy.CanCreate(a, access.CreateRequest{MCID: req.MCID, MCBranchID: &mc.BranchID}) {
		return nil, ErrPermissionDenied
	}
	conv, err := s.mcConversation(ctx, mc)
	if err != nil {
		return nil, err
	}
	return s.joinAndRender(ctx, a, conv)
}

func (s *conversationServiceImpl) createAnnouncement(ctx context.Context, a access.Actor, policy access.Policy, req *dto.CreateConversationReq) (*dto.ConversationDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewValidationError("name", "is required")
	}
	if !policy.CanCreate(a, access.CreateRequest{}) {
		return nil, ErrPermissionDenied
	}
	now := s.opts.Now()
	conv := &model.Conversation{
		Name:        name,
		Description: req.Description,
		Type:        model.ConversationAnnouncement,
		Avatar:      req.Avatar,
		CreatedBy:   a.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	creator := &model.ConversationParticipant{
		UserID:               a.UserID,
		JoinedAt:             now,
		IsAdmin:              true,
		CanAddMembers:        true,
		NotificationsEnabled: true,
	}
	if err := s.convRepo.Create(ctx, conv, []*model.ConversationParticipant{creator}); err != nil {
		return nil, err
	}
	if res, err := s.provisioning.AddAllUsers(ctx, conv.ID); err != nil {
		log.ErrorContext(ctx, "announcement provisioning failed", "conversation_id", conv.ID, "err", err)
	} else {
		log.InfoContext(ctx, "announcement provisioned", "conversation_id", conv.ID, "added", res.Added, "failed", res.Failed)
	}
	return s.render(ctx, a, conv)
}

// createAdHoc 群聊/私聊；两人私聊按用户对去重
func (s *conversationServiceImpl) createAdHoc(ctx context.Context, a access.Actor, policy access.Policy, req *dto.CreateConversationReq) (*dto.ConversationDTO, error) {
	others := make([]uint64, 0, len(req.ParticipantIDs))
	for _, id := range util.UniqueUint64(req.ParticipantIDs) {
		if id != a.UserID {
			others = append(others, id)
		}
	}
	if !policy.CanCreate(a, access.CreateRequest{Others: len(others)}) {
		return nil, NewValidationError("participant_ids", "at least one other participant is required")
	}
	name := strings.TrimSpace(req.Name)
	if req.Type == model.ConversationGroup && name == "" {
		return nil, NewValidationError("name", "is required for group conversations")
	}

	users, err := s.dir.GetUsers(ctx, others)
	if err != nil {
		return nil, err
	}
	for _, id := range others {
		if _, ok := users[id]; !ok {
			return nil, NewValidationError("participant_ids", fmt.Sprintf("user %d does not exist", id))
		}
	}

	now := s.opts.Now()
	conv := &model.Conversation{
		Name:        name,
		Description: req.Description,
		Type:        req.Type,
		Avatar:      req.Avatar,
		CreatedBy:   a.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if conv.Name == "" && len(others) == 1 {
		conv.Name = users[others[0]].Name
	}

	if req.Type == model.ConversationIndividual && len(others) == 1 {
		key := consts.CategoryKeyIndividual + util.PairKey(a.UserID, others[0])
		conv.CategoryKey = &key
		existing, _, err := s.convRepo.FindOrCreateByKey(ctx, conv)
		if err != nil {
			return nil, err
		}
		for _, id := range []uint64{a.UserID, others[0]} {
			if _, err = s.participantRepo.Add(ctx, existing.ID, id, model.ParticipantOptions{}, now); err != nil {
				return nil, err
			}
		}
		return s.render(ctx, a, existing)
	}

	members := []*model.ConversationParticipant{{
		UserID: a.UserID, JoinedAt: now, IsAdmin: true, CanAddMembers: true, NotificationsEnabled: true,
	}}
	for _, id := range others {
		members = append(members, &model.ConversationParticipant{UserID: id, JoinedAt: now, NotificationsEnabled: true})
	}
	if err = s.convRepo.Create(ctx, conv, members); err != nil {
		return nil, err
	}
	return s.render(ctx, a, conv)
}

// GetOrCreateCategoryConversation 先按可见性严格校验，再查找或创建，最后确保请求者在会话中
func (s *conversationServiceImpl) GetOrCreateCategoryConversation(ctx context.Context, userID uint64, req *dto.CategoryConversationReq) (*dto.ConversationDTO, error) {
	a, err := s.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	env, err := s.env(ctx)
	if err != nil {
		return nil, err
	}
	policy, ok := access.For(req.Type)
	if !ok || !req.Type.IsCategory() {
		return nil, NewValidationError("type", "must be one of: branch mc")
	}

	var conv *model.Conversation
	switch req.Type {
	case model.ConversationBranch:
		branch, err := s.branch(ctx, req.CategoryID)
		if err != nil {
			return nil, err
		}
		if !policy.CanView(a, access.Target{BranchID: &branch.ID}, env) {
			return nil, ErrPermissionDenied
		}
		if conv, err = s.branchConversation(ctx, branch); err != nil {
			return nil, err
		}
	default:
		mc, err := s.mc(ctx, req.CategoryID)
		if err != nil {
			return nil, err
		}
		if !policy.CanView(a, access.Target{BranchID: &mc.BranchID, MCID: &mc.ID}, env) {
			return nil, ErrPermissionDenied
		}
		if conv, err = s.mcConversation(ctx, mc); err != nil {
			return nil, err
		}
	}
	return s.joinAndRender(ctx, a, conv)
}

func (s *conversationServiceImpl) GetOrCreateBranchConversation(ctx context.Context, branchID uint64) (*model.Conversation, error) {
	branch, err := s.branch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return s.branchConversation(ctx, branch)
}

func (s *conversationServiceImpl) GetOrCreateMCConversation(ctx context.Context, mcID uint64) (*model.Conversation, error) {
	mc, err := s.mc(ctx, mcID)
	if err != nil {
		return nil, err
	}
	return s.mcConversation(ctx, mc)
}

func (s *conversationServiceImpl) branch(ctx context.Context, id uint64) (*directory.Branch, error) {
	b, err := s.dir.GetBranch(ctx, id)
	if errors.Is(err, directory.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	return b, err
}

func (s *conversationServiceImpl) mc(ctx context.Context, id uint64) (*directory.MC, error) {
	mc, err := s.dir.GetMC(ctx, id)
	if errors.Is(err, directory.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	return mc, err
}

func (s *conversationServiceImpl) branchConversation(ctx context.Context, branch *directory.Branch) (*model.Conversation, error) {
	now := s.opts.Now()
	conv, created, err := s.convRepo.FindOrCreateByKey(ctx, &model.Conversation{
		Name:        branch.Name + consts.CategoryChatSuffix,
		Type:        model.ConversationBranch,
		BranchID:    &branch.ID,
		CategoryKey: categoryKey(consts.CategoryKeyBranch, branch.ID),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	if created {
		if _, err = s.provisioning.AddAllBranchUsers(ctx, conv.ID, branch.ID); err != nil {
			log.ErrorContext(ctx, "branch provisioning failed", "conversation_id", conv.ID, "err", err)
		}
	}
	return conv, nil
}

func (s *conversationServiceImpl) mcConversation(ctx context.Context, mc *directory.MC) (*model.Conversation, error) {
	now := s.opts.Now()
	conv, created, err := s.convRepo.FindOrCreateByKey(ctx, &model.Conversation{
		Name:        mc.Name + consts.CategoryChatSuffix,
		Type:        model.ConversationMC,
		BranchID:    &mc.BranchID,
		MCID:        &mc.ID,
		CategoryKey: categoryKey(consts.CategoryKeyMC, mc.ID),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	if created {
		if _, err = s.provisioning.AddAllMCUsers(ctx, conv.ID, mc.ID); err != nil {
			log.ErrorContext(ctx, "mc provisioning failed", "conversation_id", conv.ID, "err", err)
		}
	}
	return conv, nil
}

func (s *conversationServiceImpl) joinAndRender(ctx context.Context, a access.Actor, conv *model.Conversation) (*dto.ConversationDTO, error) {
	if _, err := s.participantRepo.Add(ctx, conv.ID, a.UserID, model.ParticipantOptions{}, s.opts.Now()); err != nil {
		return nil, err
	}
	return s.render(ctx, a, conv)
}

func (s *conversationServiceImpl) render(ctx context.Context, a access.Actor, conv *model.Conversation) (*dto.ConversationDTO, error) {
	list, err := s.conversationDTOs(ctx, a, []*model.Conversation{conv})
	if err != nil {
		return nil, err
	}
	return list[0], nil
}

func (s *conversationServiceImpl) GetConversation(ctx context.Context, userID, convID uint64) (*dto.ConversationDTO, error) {
	a, err := s.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	conv, _, _, err := s.visibleConversation(ctx, a, convID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, a, conv)
}

// AddParticipants 仅群聊；单个用户失败不影响其他用户
func (s *conversationServiceImpl) AddParticipants(ctx context.Context, userID, convID uint64, req *dto.AddParticipantsReq) (*dto.ProvisionResultDTO, error) {
	a, err := s.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	conv, member, _, err := s.visibleConversation(ctx, a, convID)
	if err != nil {
		return nil, err
	}
	if conv.Type != model.ConversationGroup {
		return nil, ErrGroupOnly
	}
	target := targetOf(conv, member)
	if !access.CanManageMembers(a, target) {
		return nil, ErrPermissionDenied
	}
	if (req.IsAdmin || req.CanAddMembers) && !access.CanGrantAdmin(a, target) {
		return nil, ErrPermissionDenied
	}

	ids := util.UniqueUint64(req.UserIDs)
	users, err := s.dir.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return nil, NewValidationError("user_ids", fmt.Sprintf("user %d does not exist", id))
		}
	}

	res := &dto.ProvisionResultDTO{}
	opts := model.ParticipantOptions{IsAdmin: req.IsAdmin, CanAddMembers: req.CanAddMembers}
	for _, id := range ids {
		added, err := s.participantRepo.Add(ctx, conv.ID, id, opts, s.opts.Now())
		if err != nil {
			res.Failed++
			log.ErrorContext(ctx, "add participant failed", "conversation_id", conv.ID, "user_id", id, "err", err)
			continue
		}
		if added {
			res.Added++
		}
	}
	return res, nil
}

// RemoveParticipant 本人可退出；移除他人需要群管理权限，移除群管理员需要授权资格
func (s *conversationServiceImpl) RemoveParticipant(ctx context.Context, userID, convID, targetUserID uint64) error {
	a, err := s.actor(ctx, userID)
	if err != nil {
		return err
	}
	conv, member, _, err := s.visibleConversation(ctx, a, convID)
	if err != nil {
		return err
	}
	if conv.Type != model.ConversationGroup {
		return ErrGroupOnly
	}
	if targetUserID != a.UserID {
		target := targetOf(conv, member)
		if !access.CanManageMembers(a, target) {
			return ErrPermissionDenied
		}
		removed, err := s.participantRepo.Get(ctx, conv.ID, targetUserID)
		if err != nil {
			return err
		}
		if removed.Active() && removed.IsAdmin && !access.CanGrantAdmin(a, target) {
			return ErrPermissionDenied
		}
	}
	_, err = s.participantRepo.Remove(ctx, conv.ID, targetUserID, s.opts.Now())
	return err
}

func (s *conversationServiceImpl) MarkRead(ctx context.Context, userID, convID uint64) error {
	a, err := s.actor(ctx, userID)
	if err != nil {
		return err
	}
	conv, member, _, err := s.visibleConversation(ctx, a, convID)
	if err != nil {
		return err
	}
	if !member.Active() {
		return ErrNotParticipant
	}
	return s.participantRepo.MarkRead(ctx, conv.ID, a.UserID, s.opts.Now())
}

package service

import (
	"Fellowship/internal/api/dto"
	"Fellowship/internal/model"
	"Fellowship/internal/pkg/consts"
	"Fellowship/internal/pkg/directory"
	"Fellowship/internal/pkg/redis"
	"Fellowship/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	pkgerr "github.com/pkg/errors"
	"gorm.io/gorm"
)

// provisionLockTTL 单次全量对账的最长持锁时间
const provisionLockTTL = 10 * time.Minute

// ProvisioningService 按组织结构批量维护分类会话成员
type ProvisioningService interface {
	AddAllBranchUsers(ctx context.Context, convID, branchID uint64) (*dto.ProvisionResultDTO, error)
	AddAllMCUsers(ctx context.Context, convID, mcID uint64) (*dto.ProvisionResultDTO, error)
	AddAllUsers(ctx context.Context, convID uint64) (*dto.ProvisionResultDTO, error)
	// Reconcile 重新跑一遍所有公告/分堂/小组会话的批量加人
	Reconcile(ctx context.Context) error
	// SyncUser 目录中用户新增或调岗后调整其分类会话成员身份
	SyncUser(ctx context.Context, before, after *directory.User) error
}

type provisioningServiceImpl struct {
	convRepo        repository.ConversationRepo
	participantRepo repository.ParticipantRepo
	dir             directory.Directory
	now             func() time.Time
}

func NewProvisioningService(convRepo repository.ConversationRepo, participantRepo repository.ParticipantRepo, dir directory.Directory, opts ChatOptions) ProvisioningService {
	opts = opts.normalize()
	return &provisioningServiceImpl{
		convRepo:        convRepo,
		participantRepo: participantRepo,
		dir:             dir,
		now:             opts.Now,
	}
}

func (s *provisioningServiceImpl) AddAllBranchUsers(ctx context.Context, convID, branchID uint64) (*dto.ProvisionResultDTO, error) {
	users, err := s.dir.ListUsersByBranch(ctx, branchID)
	if err != nil {
		return nil, pkgerr.Wrapf(err, "list users of branch %d", branchID)
	}
	return s.addAll(ctx, convID, users), nil
}

func (s *provisioningServiceImpl) AddAllMCUsers(ctx context.Context, convID, mcID uint64) (*dto.ProvisionResultDTO, error) {
	users, err := s.dir.ListUsersByMC(ctx, mcID)
	if err != nil {
		return nil, pkgerr.Wrapf(err, "list users of mc %d", mcID)
	}
	return s.addAll(ctx, convID, users), nil
}

func (s *provisioningServiceImpl) AddAllUsers(ctx context.Context, convID uint64) (*dto.ProvisionResultDTO, error) {
	users, err := s.dir.ListAllUsers(ctx)
	if err != nil {
		return nil, pkgerr.Wrap(err, "list all users")
	}
	return s.addAll(ctx, convID, users), nil
}

// addAll 单个用户失败只记日志，不影响其他用户
func (s *provisioningServiceImpl) addAll(ctx context.Context, convID uint64, users []*directory.User) *dto.ProvisionResultDTO {
	res := &dto.ProvisionResultDTO{}
	for _, u := range users {
		added, err := s.participantRepo.Add(ctx, convID, u.ID, model.ParticipantOptions{}, s.now())
		if err != nil {
			res.Failed++
			log.ErrorContext(ctx, "provision participant failed",
				"conversation_id", convID, "user_id", u.ID, "err", err)
			continue
		}
		if added {
			res.Added++
		}
	}
	return res
}

func (s *provisioningServiceImpl) Reconcile(ctx context.Context) error {
	token := uuid.NewString()
	ok, err := redis.TryLock(ctx, consts.ProvisionLock, token, provisionLockTTL, 1)
	if err != nil {
		return pkgerr.Wrap(err, "acquire provision lock")
	}
	if !ok {
		log.InfoContext(ctx, "provision reconcile skipped, another run holds the lock")
		return nil
	}
	defer redis.UnLock(context.WithoutCancel(ctx), consts.ProvisionLock, token)

	total := &dto.ProvisionResultDTO{}
	for _, t := range []model.ConversationType{model.ConversationAnnouncement, model.ConversationBranch, model.ConversationMC} {
		convs, err := s.convRepo.ListByType(ctx, t)
		if err != nil {
			return pkgerr.Wrapf(err, "list %s conversations", t)
		}
		for _, conv := range convs {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res, err := s.provisionConversation(ctx, conv)
			if err != nil {
				log.ErrorContext(ctx, "provision conversation failed", "conversation_id", conv.ID, "err", err)
				continue
			}
			total.Added += res.Added
			total.Failed += res.Failed
		}
	}
	log.InfoContext(ctx, "provision reconcile finished", "added", total.Added, "failed", total.Failed)
	return nil
}

func (s *provisioningServiceImpl) provisionConversation(ctx context.Context, conv *model.Conversation) (*dto.ProvisionResultDTO, error) {
	switch conv.Type {
	case model.ConversationAnnouncement:
		return s.AddAllUsers(ctx, conv.ID)
	case model.ConversationBranch:
		if conv.BranchID != nil {
			return s.AddAllBranchUsers(ctx, conv.ID, *conv.BranchID)
		}
	case model.ConversationMC:
		if conv.MCID != nil {
			return s.AddAllMCUsers(ctx, conv.ID, *conv.MCID)
		}
	}
	return &dto.ProvisionResultDTO{}, nil
}

func (s *provisioningServiceImpl) SyncUser(ctx context.Context, before, after *directory.User) error {
	now := s.now()

	if after == nil {
		if before == nil {
			return nil
		}
		if err := s.leaveCategory(ctx, consts.CategoryKeyBranch, before.BranchID, before.ID, now); err != nil {
			return err
		}
		return s.leaveCategory(ctx, consts.CategoryKeyMC, before.MCID, before.ID, now)
	}

	if before == nil {
		announcements, err := s.convRepo.ListByType(ctx, model.ConversationAnnouncement)
		if err != nil {
			return pkgerr.Wrap(err, "list announcement conversations")
		}
		for _, conv := range announcements {
			if _, err = s.participantRepo.Add(ctx, conv.ID, after.ID, model.ParticipantOptions{}, now); err != nil {
				return pkgerr.Wrapf(err, "join announcement %d", conv.ID)
			}
		}
		before = &directory.User{ID: after.ID}
	}

	if !sameRef(before.BranchID, after.BranchID) {
		if err := s.leaveCategory(ctx, consts.CategoryKeyBranch, before.BranchID, after.ID, now); err != nil {
			return err
		}
	}
	if err := s.joinCategory(ctx, consts.CategoryKeyBranch, after.BranchID, after.ID, now); err != nil {
		return err
	}
	if !sameRef(before.MCID, after.MCID) {
		if err := s.leaveCategory(ctx, consts.CategoryKeyMC, before.MCID, after.ID, now); err != nil {
			return err
		}
	}
	return s.joinCategory(ctx, consts.CategoryKeyMC, after.MCID, after.ID, now)
}

// joinCategory 只加入已存在的分类会话，会话由首次访问时创建
func (s *provisioningServiceImpl) joinCategory(ctx context.Context, prefix string, categoryID *uint64, userID uint64, now time.Time) error {
	conv, err := s.categoryConversation(ctx, prefix, categoryID)
	if err != nil || conv == nil {
		return err
	}
	if _, err = s.participantRepo.Add(ctx, conv.ID, userID, model.ParticipantOptions{}, now); err != nil {
		return pkgerr.Wrapf(err, "join %s%d", prefix, *categoryID)
	}
	return nil
}

func (s *provisioningServiceImpl) leaveCategory(ctx context.Context, prefix string, categoryID *uint64, userID uint64, now time.Time) error {
	conv, err := s.categoryConversation(ctx, prefix, categoryID)
	if err != nil || conv == nil {
		return err
	}
	if _, err = s.participantRepo.Remove(ctx, conv.ID, userID, now); err != nil {
		return pkgerr.Wrapf(err, "leave %s%d", prefix, *categoryID)
	}
	return nil
}

func (s *provisioningServiceImpl) categoryConversation(ctx context.Context, prefix string, categoryID *uint64) (*model.Conversation, error) {
	if categoryID == nil {
		return nil, nil
	}
	conv, err := s.convRepo.GetByCategoryKey(ctx, prefix+strconv.FormatUint(*categoryID, 10))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerr.Wrapf(err, "find %s%d", prefix, *categoryID)
	}
	return conv, nil
}

func sameRef(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func categoryKey(prefix string, id uint64) *string {
	key := prefix + strconv.FormatUint(id, 10)
	return &key
}

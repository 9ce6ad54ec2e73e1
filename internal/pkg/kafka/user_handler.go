package kafka

import (
	"Fellowship/internal/model"
	"Fellowship/internal/pkg/directory"
	"Fellowship/internal/pkg/util"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	pkgerr "github.com/pkg/errors"
)

const usersTable = "users"

// UserSyncer 目录用户变更后调整分类会话成员
type UserSyncer interface {
	SyncUser(ctx context.Context, before, after *directory.User) error
}

// UsersHandler 消费 users 表的 binlog
type UsersHandler struct {
	syncer      UserSyncer
	invalidator directory.Invalidator
}

func NewUsersHandler(syncer UserSyncer, invalidator directory.Invalidator) *UsersHandler {
	return &UsersHandler{syncer: syncer, invalidator: invalidator}
}

func (s *UsersHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("users consumer setup")
	return nil
}

func (s *UsersHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("users consumer cleanup")
	return nil
}

func (s *UsersHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-users consume claim", "partition", claim.Partition())
	if err := pullMessageBatch(session, claim, s.logic); err != nil {
		log.Error("topic-users process batch error", "err", err)
		return err
	}
	return nil
}

func (s *UsersHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, usersTable)
	if err != nil {
		return err
	}

	for i, row := range canalMsg.Data {
		var before, after *directory.User
		switch canalMsg.Type {
		case INSERT:
			after, err = parseUserRow(row)
		case UPDATE:
			if before, err = parseUserRow(canalMsg.Before(i)); err == nil {
				after, err = parseUserRow(row)
			}
		case DELETE:
			before, err = parseUserRow(row)
		default:
			return ErrSkipMessage
		}
		if err != nil {
			log.WarnContext(ctx, "skip malformed users row", "type", canalMsg.Type, "err", err)
			continue
		}

		if before == nil && after == nil {
			continue
		}
		id := userID(before, after)
		if err = s.invalidator.Invalidate(ctx, id); err != nil {
			return pkgerr.Wrapf(err, "invalidate user %d", id)
		}
		if err = s.syncer.SyncUser(ctx, before, after); err != nil {
			return pkgerr.Wrapf(err, "sync user %d", id)
		}
		log.InfoContext(ctx, "user membership synced", "user_id", id, "type", canalMsg.Type)
	}
	return nil
}

// userRow users 表中与聊天相关的列
type userRow struct {
	ID        uint64     `json:"id" binding:"required"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role" binding:"omitempty,oneof=super_admin branch_admin mc_leader member"`
	BranchID  *uint64    `json:"branch_id"`
	MCID      *uint64    `json:"mc_id"`
	DeletedAt string     `json:"deleted_at"`
}

// parseUserRow 软删除的行返回 nil
func parseUserRow(row map[string]interface{}) (*directory.User, error) {
	var r userRow
	var err error
	if r.ID, err = canalUint64(row["id"]); err != nil {
		return nil, pkgerr.Wrap(err, "id")
	}
	if r.BranchID, err = canalOptionalUint64(row["branch_id"]); err != nil {
		return nil, pkgerr.Wrap(err, "branch_id")
	}
	if r.MCID, err = canalOptionalUint64(row["mc_id"]); err != nil {
		return nil, pkgerr.Wrap(err, "mc_id")
	}
	r.Name = canalString(row["name"])
	r.Email = canalString(row["email"])
	r.Role = model.Role(canalString(row["role"]))
	r.DeletedAt = canalString(row["deleted_at"])

	if err = util.ValidateDTO(&r); err != nil {
		return nil, err
	}
	if r.DeletedAt != "" {
		return nil, nil
	}
	if r.Role == "" {
		r.Role = model.RoleMember
	}
	return &directory.User{
		ID:       r.ID,
		Name:     r.Name,
		Email:    r.Email,
		Role:     r.Role,
		BranchID: r.BranchID,
		MCID:     r.MCID,
	}, nil
}

func userID(before, after *directory.User) uint64 {
	if after != nil {
		return after.ID
	}
	if before != nil {
		return before.ID
	}
	return 0
}

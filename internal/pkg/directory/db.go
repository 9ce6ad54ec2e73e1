package directory

import (
	"Fellowship/internal/model"
	"context"
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

type dbDirectory struct {
	db *gorm.DB
}

// NewDBDirectory 与主系统共库部署时直接读 users/branches/missional_communities
func NewDBDirectory(db *gorm.DB) Directory {
	return &dbDirectory{db: db}
}

func (s *dbDirectory) GetUser(ctx context.Context, id uint64) (*User, error) {
	var u model.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user %d: %w", id, err)
	}
	return toUser(&u)
}

func (s *dbDirectory) GetUsers(ctx context.Context, ids []uint64) (map[uint64]*User, error) {
	result := make(map[uint64]*User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	users, err := s.findUsers(ctx, s.db.Where("id IN ?", ids))
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (s *dbDirectory) ListUsersByBranch(ctx context.Context, branchID uint64) ([]*User, error) {
	return s.findUsers(ctx, s.db.Where("branch_id = ?", branchID))
}

func (s *dbDirectory) ListUsersByMC(ctx context.Context, mcID uint64) ([]*User, error) {
	return s.findUsers(ctx, s.db.Where("mc_id = ?", mcID))
}

func (s *dbDirectory) ListAllUsers(ctx context.Context) ([]*User, error) {
	return s.findUsers(ctx, s.db)
}

func (s *dbDirectory) GetBranch(ctx context.Context, id uint64) (*Branch, error) {
	var b model.Branch
	err := s.db.WithContext(ctx).First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query branch %d: %w", id, err)
	}
	return &Branch{ID: b.ID, Name: b.Name, IsHeadquarters: b.IsHeadquarters}, nil
}

func (s *dbDirectory) GetMC(ctx context.Context, id uint64) (*MC, error) {
	var mc model.MissionalCommunity
	err := s.db.WithContext(ctx).First(&mc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query mc %d: %w", id, err)
	}
	return &MC{ID: mc.ID, Name: mc.Name, BranchID: mc.BranchID}, nil
}

func (s *dbDirectory) HeadquartersBranchIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).Model(&model.Branch{}).
		Where("is_headquarters = ?", true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("query headquarters: %w", err)
	}
	return ids, nil
}

func (s *dbDirectory) findUsers(ctx context.Context, query *gorm.DB) ([]*User, error) {
	var rows []*model.User
	if err := query.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		u, err := toUser(row)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func toUser(row *model.User) (*User, error) {
	u := &User{}
	if err := copier.Copy(u, row); err != nil {
		return nil, err
	}
	return u, nil
}

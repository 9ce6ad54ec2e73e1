package directory

import (
	"Fellowship/internal/model"
	"context"
	"errors"
)

// ErrNotFound 目录中不存在该用户/分堂/小组
var ErrNotFound = errors.New("directory: record not found")

// User 目录中的用户快照
type User struct {
	ID       uint64     `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
	BranchID *uint64    `json:"branch_id"`
	MCID     *uint64    `json:"mc_id"`
}

type Branch struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	IsHeadquarters bool   `json:"is_headquarters"`
}

type MC struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	BranchID uint64 `json:"branch_id"`
}

// Directory 主系统用户/组织结构的只读视图
type Directory interface {
	GetUser(ctx context.Context, id uint64) (*User, error)
	// GetUsers 缺失的 id 不会出现在结果中
	GetUsers(ctx context.Context, ids []uint64) (map[uint64]*User, error)
	ListUsersByBranch(ctx context.Context, branchID uint64) ([]*User, error)
	ListUsersByMC(ctx context.Context, mcID uint64) ([]*User, error)
	ListAllUsers(ctx context.Context) ([]*User, error)
	GetBranch(ctx context.Context, id uint64) (*Branch, error)
	GetMC(ctx context.Context, id uint64) (*MC, error)
	HeadquartersBranchIDs(ctx context.Context) ([]uint64, error)
}

// Invalidator 用户数据变更后清理缓存
type Invalidator interface {
	Invalidate(ctx context.Context, userIDs ...uint64) error
}

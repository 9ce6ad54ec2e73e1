// Package access holds the pure permission rules of the chat module.
//
// Each conversation type has its own Policy. Callers resolve one with For
// and never branch on the type themselves; the per-type rules stay in one
// place and are exhaustively testable.
package access

import (
	"Fellowship/internal/model"
	"Fellowship/internal/pkg/directory"
)

// Actor 当前请求者，由鉴权中间件解析后显式传入
type Actor struct {
	UserID   uint64
	Role     model.Role
	BranchID *uint64
	MCID     *uint64
}

func ActorFrom(u *directory.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role, BranchID: u.BranchID, MCID: u.MCID}
}

func (a Actor) IsSuperAdmin() bool {
	return a.Role == model.RoleSuperAdmin
}

// Env 规则依赖的目录事实
type Env struct {
	HeadquartersBranchIDs []uint64
}

func (e Env) isHeadquarters(branchID *uint64) bool {
	if branchID == nil {
		return false
	}
	for _, id := range e.HeadquartersBranchIDs {
		if id == *branchID {
			return true
		}
	}
	return false
}

// Target 被判定的会话，mc 会话的 BranchID 为小组所属分堂
type Target struct {
	BranchID      *uint64
	MCID          *uint64
	IsParticipant bool // 当前仍在会话中
	IsAdmin       bool
	CanAddMembers bool
}

// CreateRequest 创建会话的判定输入
type CreateRequest struct {
	BranchID *uint64
	MCID     *uint64
	// MCBranchID 目标小组所属分堂，由目录查询得到
	MCBranchID *uint64
	// Others 除创建者外的参与者数量
	Others int
}

// Scope 列表查询条件，多个字段之间为 OR
type Scope struct {
	Type          model.ConversationType
	All           bool
	BranchIDs     []uint64
	MCIDs         []uint64
	ParticipantOf uint64
}

// Empty 该类型下什么都看不到
func (s Scope) Empty() bool {
	return !s.All && len(s.BranchIDs) == 0 && len(s.MCIDs) == 0 && s.ParticipantOf == 0
}

// Policy 单一会话类型的规则集合
type Policy interface {
	Type() model.ConversationType
	// CanView 会话列表/详情可见性，也是分类会话按需创建前的访问校验
	CanView(a Actor, t Target, env Env) bool
	// Scope 把可见性规则翻译成列表查询条件
	Scope(a Actor, env Env) Scope
	CanCreate(a Actor, req CreateRequest) bool
	CanPost(a Actor, t Target) bool
}

var policies = map[model.ConversationType]Policy{
	model.ConversationAnnouncement: announcementPolicy{},
	model.ConversationBranch:       branchPolicy{},
	model.ConversationMC:           mcPolicy{},
	model.ConversationGroup:        groupPolicy{},
	model.ConversationIndividual:   individualPolicy{},
}

// For 返回类型对应的规则，未知类型返回 false
func For(t model.ConversationType) (Policy, bool) {
	p, ok := policies[t]
	return p, ok
}

// Scopes 列表查询条件；filter 为空或 all 时返回全部类型
func Scopes(a Actor, env Env, filter model.ConversationType) []Scope {
	out := make([]Scope, 0, len(model.ConversationTypes))
	for _, t := range model.ConversationTypes {
		if filter != "" && filter != t {
			continue
		}
		s := policies[t].Scope(a, env)
		if !s.Empty() {
			out = append(out, s)
		}
	}
	return out
}

// CanManageMembers 群成员管理：超级管理员、群管理员或被授权拉人的成员
func CanManageMembers(a Actor, t Target) bool {
	if a.IsSuperAdmin() {
		return true
	}
	return t.IsParticipant && (t.IsAdmin || t.CanAddMembers)
}

// CanGrantAdmin 给新成员授予管理或拉人权限：仅超级管理员或群管理员
func CanGrantAdmin(a Actor, t Target) bool {
	if a.IsSuperAdmin() {
		return true
	}
	return t.IsParticipant && t.IsAdmin
}

func sameID(a, b *uint64) bool {
	return a != nil && b != nil && *a == *b
}

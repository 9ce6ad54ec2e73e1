package access

import (
	"Fellowship/internal/model"
	"time"
)

// DefaultEditWindow 发送后允许编辑的时长
const DefaultEditWindow = 2 * time.Minute

type EditDecision int

const (
	EditAllowed EditDecision = iota
	EditNotOwner
	EditExpired
)

// CanEdit 只有发送者本人且在窗口期内可以编辑，恰好等于窗口仍允许
func CanEdit(actorID uint64, msg *model.Message, now time.Time, window time.Duration) EditDecision {
	if msg.SenderID != actorID {
		return EditNotOwner
	}
	if now.Sub(msg.CreatedAt) > window {
		return EditExpired
	}
	return EditAllowed
}

// CanDelete 依次判定：本人、超级管理员、同分堂管理员、同小组组长
func CanDelete(a Actor, sender Actor) bool {
	if a.UserID == sender.UserID {
		return true
	}
	switch a.Role {
	case model.RoleSuperAdmin:
		return true
	case model.RoleBranchAdmin:
		return sameID(a.BranchID, sender.BranchID)
	case model.RoleMCLeader:
		return sameID(a.MCID, sender.MCID)
	}
	return false
}

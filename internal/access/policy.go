package access

import "Fellowship/internal/model"

type announcementPolicy struct{}

func (announcementPolicy) Type() model.ConversationType { return model.ConversationAnnouncement }

func (announcementPolicy) CanView(Actor, Target, Env) bool { return true }

func (announcementPolicy) Scope(Actor, Env) Scope {
	return Scope{Type: model.ConversationAnnouncement, All: true}
}

func (announcementPolicy) CanCreate(a Actor, _ CreateRequest) bool {
	return a.IsSuperAdmin()
}

// 公告只允许管理员发言
func (announcementPolicy) CanPost(a Actor, t Target) bool {
	return t.IsParticipant && (t.IsAdmin || a.IsSuperAdmin())
}

type branchPolicy struct{}

func (branchPolicy) Type() model.ConversationType { return model.ConversationBranch }

func (branchPolicy) CanView(a Actor, t Target, env Env) bool {
	if a.IsSuperAdmin() {
		return true
	}
	if a.Role == model.RoleBranchAdmin && env.isHeadquarters(t.BranchID) {
		return true
	}
	return sameID(a.BranchID, t.BranchID)
}

func (branchPolicy) Scope(a Actor, env Env) Scope {
	s := Scope{Type: model.ConversationBranch}
	if a.IsSuperAdmin() {
		s.All = true
		return s
	}
	if a.BranchID != nil {
		s.BranchIDs = append(s.BranchIDs, *a.BranchID)
	}
	if a.Role == model.RoleBranchAdmin {
		s.BranchIDs = append(s.BranchIDs, env.HeadquartersBranchIDs...)
	}
	return s
}

func (branchPolicy) CanCreate(a Actor, req CreateRequest) bool {
	if req.BranchID == nil {
		return false
	}
	if a.IsSuperAdmin() {
		return true
	}
	return a.Role == model.RoleBranchAdmin && sameID(a.BranchID, req.BranchID)
}

func (branchPolicy) CanPost(_ Actor, t Target) bool { return t.IsParticipant }

type mcPolicy struct{}

func (mcPolicy) Type() model.ConversationType { return model.ConversationMC }

func (mcPolicy) CanView(a Actor, t Target, _ Env) bool {
	switch a.Role {
	case model.RoleSuperAdmin:
		return true
	case model.RoleBranchAdmin:
		return sameID(a.BranchID, t.BranchID)
	default:
		return sameID(a.MCID, t.MCID)
	}
}

func (mcPolicy) Scope(a Actor, _ Env) Scope {
	s := Scope{Type: model.ConversationMC}
	switch a.Role {
	case model.RoleSuperAdmin:
		s.All = true
	case model.RoleBranchAdmin:
		if a.BranchID != nil {
			s.BranchIDs = []uint64{*a.BranchID}
		}
	default:
		if a.MCID != nil {
			s.MCIDs = []uint64{*a.MCID}
		}
	}
	return s
}

func (mcPolicy) CanCreate(a Actor, req CreateRequest) bool {
	if req.MCID == nil {
		return false
	}
	switch a.Role {
	case model.RoleSuperAdmin:
		return true
	case model.RoleBranchAdmin:
		return sameID(a.BranchID, req.MCBranchID)
	case model.RoleMCLeader:
		return sameID(a.MCID, req.MCID)
	}
	return false
}

func (mcPolicy) CanPost(_ Actor, t Target) bool { return t.IsParticipant }

// participantPolicy 群聊与私聊只对当前成员可见
type participantPolicy struct{}

func (participantPolicy) CanView(_ Actor, t Target, _ Env) bool { return t.IsParticipant }

func (participantPolicy) CanCreate(_ Actor, req CreateRequest) bool { return req.Others >= 1 }

func (participantPolicy) CanPost(_ Actor, t Target) bool { return t.IsParticipant }

type groupPolicy struct{ participantPolicy }

func (groupPolicy) Type() model.ConversationType { return model.ConversationGroup }

func (groupPolicy) Scope(a Actor, _ Env) Scope {
	return Scope{Type: model.ConversationGroup, ParticipantOf: a.UserID}
}

type individualPolicy struct{ participantPolicy }

func (individualPolicy) Type() model.ConversationType { return model.ConversationIndividual }

func (individualPolicy) Scope(a Actor, _ Env) Scope {
	return Scope{Type: model.ConversationIndividual, ParticipantOf: a.UserID}
}

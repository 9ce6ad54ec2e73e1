package access_test

import (
	"testing"
	"time"

	"Fellowship/internal/access"
	"Fellowship/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(v uint64) *uint64 { return &v }

var (
	superAdmin  = access.Actor{UserID: 1, Role: model.RoleSuperAdmin}
	adminNorth  = access.Actor{UserID: 2, Role: model.RoleBranchAdmin, BranchID: id(5)}
	leaderThree = access.Actor{UserID: 3, Role: model.RoleMCLeader, BranchID: id(5), MCID: id(3)}
	leaderSeven = access.Actor{UserID: 4, Role: model.RoleMCLeader, BranchID: id(6), MCID: id(7)}
	memberFive  = access.Actor{UserID: 5, Role: model.RoleMember, BranchID: id(5), MCID: id(3)}
	loneMember  = access.Actor{UserID: 6, Role: model.RoleMember}
	hq          = access.Env{HeadquartersBranchIDs: []uint64{1}}
)

func policy(t *testing.T, typ model.ConversationType) access.Policy {
	t.Helper()
	p, ok := access.For(typ)
	require.True(t, ok)
	require.Equal(t, typ, p.Type())
	return p
}

func TestFor_CoversEveryType(t *testing.T) {
	for _, typ := range model.ConversationTypes {
		_, ok := access.For(typ)
		assert.True(t, ok, typ)
	}
	_, ok := access.For("channel")
	assert.False(t, ok)
}

func TestCanView(t *testing.T) {
	tests := []struct {
		name   string
		typ    model.ConversationType
		actor  access.Actor
		target access.Target
		want   bool
	}{
		{"announcement visible to member", model.ConversationAnnouncement, loneMember, access.Target{}, true},
		{"branch super admin", model.ConversationBranch, superAdmin, access.Target{BranchID: id(9)}, true},
		{"branch own", model.ConversationBranch, memberFive, access.Target{BranchID: id(5)}, true},
		{"branch other", model.ConversationBranch, memberFive, access.Target{BranchID: id(6)}, false},
		{"branch hq for admin", model.ConversationBranch, adminNorth, access.Target{BranchID: id(1)}, true},
		{"branch hq not for member", model.ConversationBranch, memberFive, access.Target{BranchID: id(1)}, false},
		{"branch hq not for mc leader", model.ConversationBranch, leaderThree, access.Target{BranchID: id(1)}, false},
		{"branch without branch", model.ConversationBranch, loneMember, access.Target{BranchID: id(5)}, false},
		{"mc super admin", model.ConversationMC, superAdmin, access.Target{BranchID: id(6), MCID: id(7)}, true},
		{"mc branch admin same branch", model.ConversationMC, adminNorth, access.Target{BranchID: id(5), MCID: id(3)}, true},
		{"mc branch admin other branch", model.ConversationMC, adminNorth, access.Target{BranchID: id(6), MCID: id(7)}, false},
		{"mc leader own", model.ConversationMC, leaderThree, access.Target{BranchID: id(5), MCID: id(3)}, true},
		{"mc leader other", model.ConversationMC, leaderThree, access.Target{BranchID: id(6), MCID: id(7)}, false},
		{"mc member own", model.ConversationMC, memberFive, access.Target{BranchID: id(5), MCID: id(3)}, true},
		{"mc member without mc", model.ConversationMC, loneMember, access.Target{BranchID: id(5), MCID: id(3)}, false},
		{"group participant", model.ConversationGroup, loneMember, access.Target{IsParticipant: true}, true},
		{"group outsider super admin", model.ConversationGroup, superAdmin, access.Target{}, false},
		{"individual outsider", model.ConversationIndividual, memberFive, access.Target{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy(t, tt.typ).CanView(tt.actor, tt.target, hq))
		})
	}
}

func TestCanCreate(t *testing.T) {
	tests := []struct {
		name  string
		typ   model.ConversationType
		actor access.Actor
		req   access.CreateRequest
		want  bool
	}{
		{"announcement super admin", model.ConversationAnnouncement, superAdmin, access.CreateRequest{}, true},
		{"announcement branch admin", model.ConversationAnnouncement, adminNorth, access.CreateRequest{}, false},
		{"branch super admin", model.ConversationBranch, superAdmin, access.CreateRequest{BranchID: id(9)}, true},
		{"branch own admin", model.ConversationBranch, adminNorth, access.CreateRequest{BranchID: id(5)}, true},
		{"branch other admin", model.ConversationBranch, adminNorth, access.CreateRequest{BranchID: id(6)}, false},
		{"branch member", model.ConversationBranch, memberFive, access.CreateRequest{BranchID: id(5)}, false},
		{"branch missing id", model.ConversationBranch, superAdmin, access.CreateRequest{}, false},
		{"mc branch admin owning", model.ConversationMC, adminNorth, access.CreateRequest{MCID: id(3), MCBranchID: id(5)}, true},
		{"mc branch admin foreign", model.ConversationMC, adminNorth, access.CreateRequest{MCID: id(7), MCBranchID: id(6)}, false},
		{"mc own leader", model.ConversationMC, leaderThree, access.CreateRequest{MCID: id(3), MCBranchID: id(5)}, true},
		{"mc other leader", model.ConversationMC, leaderSeven, access.CreateRequest{MCID: id(3), MCBranchID: id(5)}, false},
		{"mc member", model.ConversationMC, memberFive, access.CreateRequest{MCID: id(3), MCBranchID: id(5)}, false},
		{"group with others", model.ConversationGroup, loneMember, access.CreateRequest{Others: 2}, true},
		{"group alone", model.ConversationGroup, superAdmin, access.CreateRequest{}, false},
		{"individual with other", model.ConversationIndividual, memberFive, access.CreateRequest{Others: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy(t, tt.typ).CanCreate(tt.actor, tt.req))
		})
	}
}

func TestCanPost(t *testing.T) {
	ann := policy(t, model.ConversationAnnouncement)
	assert.True(t, ann.CanPost(loneMember, access.Target{IsParticipant: true, IsAdmin: true}))
	assert.True(t, ann.CanPost(superAdmin, access.Target{IsParticipant: true}))
	assert.False(t, ann.CanPost(memberFive, access.Target{IsParticipant: true}))
	assert.False(t, ann.CanPost(superAdmin, access.Target{}))

	branch := policy(t, model.ConversationBranch)
	assert.True(t, branch.CanPost(memberFive, access.Target{IsParticipant: true}))
	assert.False(t, branch.CanPost(superAdmin, access.Target{}))
}

func TestScopes(t *testing.T) {
	t.Run("member with branch only", func(t *testing.T) {
		a := access.Actor{UserID: 8, Role: model.RoleMember, BranchID: id(5)}
		scopes := access.Scopes(a, hq, model.ConversationBranch)
		require.Len(t, scopes, 1)
		assert.Equal(t, []uint64{5}, scopes[0].BranchIDs)
		assert.False(t, scopes[0].All)

		assert.Empty(t, access.Scopes(a, hq, model.ConversationMC))
	})

	t.Run("branch admin sees headquarters", func(t *testing.T) {
		scopes := access.Scopes(adminNorth, hq, model.ConversationBranch)
		require.Len(t, scopes, 1)
		assert.ElementsMatch(t, []uint64{5, 1}, scopes[0].BranchIDs)
	})

	t.Run("all types", func(t *testing.T) {
		scopes := access.Scopes(loneMember, hq, "")
		types := make([]model.ConversationType, 0, len(scopes))
		for _, s := range scopes {
			types = append(types, s.Type)
		}
		assert.ElementsMatch(t, []model.ConversationType{
			model.ConversationAnnouncement, model.ConversationGroup, model.ConversationIndividual,
		}, types)
	})

	t.Run("super admin", func(t *testing.T) {
		for _, s := range access.Scopes(superAdmin, hq, "") {
			if s.Type == model.ConversationGroup || s.Type == model.ConversationIndividual {
				assert.Equal(t, superAdmin.UserID, s.ParticipantOf)
				continue
			}
			assert.True(t, s.All, s.Type)
		}
	})
}

func TestCanManageMembers(t *testing.T) {
	assert.True(t, access.CanManageMembers(superAdmin, access.Target{}))
	assert.True(t, access.CanManageMembers(memberFive, access.Target{IsParticipant: true, CanAddMembers: true}))
	assert.True(t, access.CanManageMembers(memberFive, access.Target{IsParticipant: true, IsAdmin: true}))
	assert.False(t, access.CanManageMembers(memberFive, access.Target{IsParticipant: true}))
	assert.False(t, access.CanManageMembers(memberFive, access.Target{IsAdmin: true}))
}

func TestCanGrantAdmin(t *testing.T) {
	assert.True(t, access.CanGrantAdmin(superAdmin, access.Target{}))
	assert.True(t, access.CanGrantAdmin(memberFive, access.Target{IsParticipant: true, IsAdmin: true}))
	assert.False(t, access.CanGrantAdmin(memberFive, access.Target{IsParticipant: true, CanAddMembers: true}))
	assert.False(t, access.CanGrantAdmin(memberFive, access.Target{IsAdmin: true}))
}

func TestCanEdit(t *testing.T) {
	sent := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	msg := &model.Message{SenderID: 3, CreatedAt: sent}

	assert.Equal(t, access.EditAllowed, access.CanEdit(3, msg, sent.Add(119*time.Second), access.DefaultEditWindow))
	assert.Equal(t, access.EditAllowed, access.CanEdit(3, msg, sent.Add(120*time.Second), access.DefaultEditWindow))
	assert.Equal(t, access.EditExpired, access.CanEdit(3, msg, sent.Add(121*time.Second), access.DefaultEditWindow))
	assert.Equal(t, access.EditNotOwner, access.CanEdit(4, msg, sent.Add(time.Second), access.DefaultEditWindow))
	assert.Equal(t, access.EditNotOwner, access.CanEdit(4, msg, sent.Add(time.Hour), access.DefaultEditWindow))
}

func TestCanDelete(t *testing.T) {
	tests := []struct {
		name   string
		actor  access.Actor
		sender access.Actor
		want   bool
	}{
		{"own message", memberFive, memberFive, true},
		{"super admin", superAdmin, leaderSeven, true},
		{"branch admin same branch", adminNorth, leaderThree, true},
		{"branch admin other branch", adminNorth, leaderSeven, false},
		{"leader same mc", leaderThree, memberFive, true},
		{"leader other mc", leaderSeven, leaderThree, false},
		{"member other", memberFive, leaderThree, false},
		{"branch admin sender without branch", adminNorth, loneMember, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.CanDelete(tt.actor, tt.sender))
		})
	}
}

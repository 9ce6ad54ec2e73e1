package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"Fellowship/internal/api/dto"
	"Fellowship/internal/model"
	"Fellowship/internal/pkg/directory"
	"Fellowship/internal/pkg/redis"
	"Fellowship/internal/repository"
	"Fellowship/internal/service"
	"Fellowship/internal/testhelpers"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// 目录数据：
//
//	branch 1 Central (headquarters), 5 North, 6 South, 9 East
//	mc 3 (branch 5), mc 7 (branch 6)
const (
	uSuper       uint64 = 1 // super_admin
	uAdminNorth  uint64 = 2 // branch_admin of 5
	uLeaderThree uint64 = 3 // mc_leader of 3, branch 5
	uLeaderSeven uint64 = 4 // mc_leader of 7, branch 6
	uMemberMC    uint64 = 5 // member, branch 5, mc 3
	uMemberNorth uint64 = 6 // member, branch 5, no mc
	uDrifter     uint64 = 7 // member, no branch, no mc
	uAdminSouth  uint64 = 8 // branch_admin of 6
)

var base = time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	db           *gorm.DB
	clock        *clock
	participants repository.ParticipantRepo
	provisioning service.ProvisioningService
	conversation service.ConversationService
	message      service.MessageService
	query        service.QueryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testhelpers.NewDB(t)
	p := testhelpers.Ptr[uint64]
	testhelpers.Seed(t, db,
		&model.Branch{ID: 1, Name: "Central", IsHeadquarters: true},
		&model.Branch{ID: 5, Name: "North"},
		&model.Branch{ID: 6, Name: "South"},
		&model.Branch{ID: 9, Name: "East"},
		&model.MissionalCommunity{ID: 3, Name: "Riverside", BranchID: 5},
		&model.MissionalCommunity{ID: 7, Name: "Harbour", BranchID: 6},
		&model.User{ID: uSuper, Name: "Ada", Role: model.RoleSuperAdmin},
		&model.User{ID: uAdminNorth, Name: "Ben", Role: model.RoleBranchAdmin, BranchID: p(5)},
		&model.User{ID: uLeaderThree, Name: "Cara", Role: model.RoleMCLeader, BranchID: p(5), MCID: p(3)},
		&model.User{ID: uLeaderSeven, Name: "Dan", Role: model.RoleMCLeader, BranchID: p(6), MCID: p(7)},
		&model.User{ID: uMemberMC, Name: "Eli", Role: model.RoleMember, BranchID: p(5), MCID: p(3)},
		&model.User{ID: uMemberNorth, Name: "Fay", Role: model.RoleMember, BranchID: p(5)},
		&model.User{ID: uDrifter, Name: "Gus", Role: model.RoleMember},
		&model.User{ID: uAdminSouth, Name: "Hana", Role: model.RoleBranchAdmin, BranchID: p(6)},
	)

	rdb, _ := testhelpers.NewRedis(t)
	redis.Rdb = rdb

	c := &clock{t: base}
	opts := service.ChatOptions{Now: c.Now}
	dir := directory.NewDBDirectory(db)
	convRepo := repository.NewConversationRepo(db)
	participantRepo := repository.NewParticipantRepo(db)
	messageRepo := repository.NewMessageRepo(db)
	prov := service.NewProvisioningService(convRepo, participantRepo, dir, opts)

	return &fixture{
		db:           db,
		clock:        c,
		participants: participantRepo,
		provisioning: prov,
		conversation: service.NewConversationService(convRepo, participantRepo, messageRepo, dir, prov, opts),
		message:      service.NewMessageService(convRepo, participantRepo, messageRepo, dir, opts),
		query:        service.NewQueryService(convRepo, participantRepo, messageRepo, dir, opts),
	}
}

func (f *fixture) group(t *testing.T, creator uint64, others ...uint64) *dto.ConversationDTO {
	t.Helper()
	conv, err := f.conversation.CreateConversation(context.Background(), creator, &dto.CreateConversationReq{
		Name: "Worship team", Type: model.ConversationGroup, ParticipantIDs: others,
	})
	require.NoError(t, err)
	return conv
}

func (f *fixture) send(t *testing.T, sender, convID uint64, content string) *dto.MessageDTO {
	t.Helper()
	msg, err := f.message.SendMessage(context.Background(), sender, &dto.SendMessageReq{
		ConversationID: convID, Content: content,
	})
	require.NoError(t, err)
	return msg
}

func (f *fixture) member(t *testing.T, convID, userID uint64) *model.ConversationParticipant {
	t.Helper()
	p, err := f.participants.Get(context.Background(), convID, userID)
	require.NoError(t, err)
	return p
}

func (f *fixture) unread(t *testing.T, convID, userID uint64) uint64 {
	t.Helper()
	p := f.member(t, convID, userID)
	require.NotNil(t, p)
	return p.UnreadCount
}

package service_test

import (
	"context"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"Fellowship/internal/api/dto"
	"Fellowship/internal/model"
	"Fellowship/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage_UnreadMonotonicity(t *testing.T) {
	f := newFixture(t)
	conv := f.group(t, uSuper, uMemberMC, uMemberNorth)

	const n = 5
	for i := 0; i < n; i++ {
		f.clock.Advance(time.Second)
		f.send(t, uSuper, conv.ID, "msg "+strconv.Itoa(i))
	}

	assert.Equal(t, uint64(n), f.unread(t, conv.ID, uMemberMC))
	assert.Equal(t, uint64(n), f.unread(t, conv.ID, uMemberNorth))
	assert.Equal(t, uint64(0), f.unread(t, conv.ID, uSuper), "sender never counts own messages")
}

func TestSendMessage_ReadResets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, uSuper, uMemberMC)

	f.send(t, uSuper, conv.ID, "one")
	f.send(t, uSuper, conv.ID, "two")
	require.NoError(t, f.conversation.MarkRead(ctx, uMemberMC, conv.ID))
	assert.Equal(t, uint64(0), f.unread(t, conv.ID, uMemberMC))

	f.send(t, uMemberMC, conv.ID, "my own reply")
	assert.Equal(t, uint64(0), f.unread(t, conv.ID, uMemberMC))

	f.send(t, uSuper, conv.ID, "three")
	assert.Equal(t, uint64(1), f.unread(t, conv.ID, uMemberMC))
}

func TestSendMessage_Snapshot(t *testing.T) {
	f := newFixture(t)
	conv := f.group(t, uSuper, uMemberMC)

	msg := f.send(t, uMemberMC, conv.ID, "hello")
	assert.Equal(t, "Eli", msg.SenderName)
	assert.Equal(t, model.MessageText, msg.Type)
	assert.Equal(t, model.MessageSent, msg.Status)
	assert.False(t, msg.IsEdited)

	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", uMemberMC).Update("name", "Elijah").Error)
	page, err := f.message.ListMessages(context.Background(), uSuper, conv.ID, nil)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "Eli", page.Messages[0].SenderName, "sender name is frozen at send time")
}

func TestSendMessage_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, uSuper, uMemberMC)

	_, err := f.message.SendMessage(ctx, uSuper, &dto.SendMessageReq{ConversationID: conv.ID, Content: strings.Repeat("é", 5001)})
	assert.ErrorIs(t, err, service.ErrParamInvalid)

	_, err = f.message.SendMessage(ctx, uSuper, &dto.SendMessageReq{ConversationID: conv.ID, Content: strings.Repeat("é", 5000)})
	assert.NoError(t, err)

	for _, blank := range []string{"", "   ", "\n\t "} {
		_, err = f.message.SendMessage(ctx, uSuper, &dto.SendMessageReq{ConversationID: conv.ID, Content: blank})
		assert.ErrorIs(t, err, service.ErrParamInvalid, "%q", blank)
	}

	_, err = f.message.SendMessage(ctx, uSuper, &dto.SendMessageReq{ConversationID: conv.ID, Content: "x", Type: model.MessageSystem})
	assert.ErrorIs(t, err, service.ErrParamInvalid)

	missing := uint64(404)
	_, err = f.message.SendMessage(ctx, uSuper, &dto.SendMessageReq{ConversationID: conv.ID, Content: "x", ReplyToID: &missing})
	var vErr *service.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "reply_to_id")

	_, err = f.message.SendMessage(ctx, uSuper, &dto.SendMessageReq{ConversationID: 999, Content: "x"})
	assert.ErrorIs(t, err, service.ErrConversationNotFound)
}

func TestSendMessage_Membership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, uSuper, uMemberMC)

	_, err := f.message.SendMessage(ctx, uDrifter, &dto.SendMessageReq{ConversationID: conv.ID, Content: "let me in"})
	assert.ErrorIs(t, err, service.ErrConversationNotFound, "invisible conversations look absent")

	branch, err := f.conversation.GetOrCreateCategoryConversation(ctx, uAdminNorth, &dto.CategoryConversationReq{
		Type: model.ConversationBranch, CategoryID: 5,
	})
	require.NoError(t, err)
	_, err = f.message.SendMessage(ctx, uSuper, &dto.SendMessageReq{ConversationID: branch.ID, Content: "hi"})
	assert.ErrorIs(t, err, service.ErrNotParticipant)

	_, err = f.message.SendMessage(ctx, uMemberNorth, &dto.SendMessageReq{ConversationID: branch.ID, Content: "hi"})
	assert.NoError(t, err)
}

func TestSendMessage_AnnouncementReadOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann, err := f.conversation.CreateConversation(ctx, uSuper, &dto.CreateConversationReq{
		Name: "Church news", Type: model.ConversationAnnouncement,
	})
	require.NoError(t, err)

	_, err = f.message.SendMessage(ctx, uMemberMC, &dto.SendMessageReq{ConversationID: ann.ID, Content: "can I post?"})
	assert.ErrorIs(t, err, service.ErrAnnouncementReadOnly)

	f.send(t, uSuper, ann.ID, "Sunday service moves to 10am")
	assert.Equal(t, uint64(1), f.unread(t, ann.ID, uMemberMC))
}

func TestClientIDReconciliation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, uSuper, uMemberMC)
	clientID := "abc123"

	sent, err := f.message.SendMessage(ctx, uSuper, &dto.SendMessageReq{ConversationID: conv.ID, Content: "draft", ClientID: &clientID})
	require.NoError(t, err)
	require.NotNil(t, sent.ClientID)
	assert.Equal(t, "abc123", *sent.ClientID)

	again, err := f.message.SendMessage(ctx, uSuper, &dto.SendMessageReq{ConversationID: conv.ID, Content: "draft", ClientID: &clientID})
	require.NoError(t, err)
	assert.Equal(t, sent.ID, again.ID)
	assert.Equal(t, uint64(1), f.unread(t, conv.ID, uMemberMC), "a resend does not count twice")

	_, err = f.message.SendMessage(ctx, uMemberMC, &dto.SendMessageReq{ConversationID: conv.ID, Content: "mine", ClientID: &clientID})
	assert.ErrorIs(t, err, service.ErrParamInvalid)

	edited, err := f.message.EditMessage(ctx, uSuper, "abc123", &dto.EditMessageReq{Content: "final"})
	require.NoError(t, err)
	assert.Equal(t, sent.ID, edited.ID)
	assert.Equal(t, "final", edited.Content)

	_, err = f.message.DeleteMessage(ctx, uSuper, "abc123")
	require.NoError(t, err)
	_, err = f.message.EditMessage(ctx, uSuper, strconv.FormatUint(sent.ID, 10), &dto.EditMessageReq{Content: "gone"})
	assert.ErrorIs(t, err, service.ErrMessageNotFound)
}

func TestEditMessage_BodyClientIDFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, uSuper, uMemberMC)
	clientID := "tmp-42"
	_, err := f.message.SendMessage(ctx, uSuper, &dto.SendMessageReq{ConversationID: conv.ID, Content: "a", ClientID: &clientID})
	require.NoError(t, err)

	edited, err := f.message.EditMessage(ctx, uSuper, "not-a-real-key", &dto.EditMessageReq{Content: "b", ClientID: &clientID})
	require.NoError(t, err)
	assert.Equal(t, "b", edited.Content)
}

func TestEditMessage_Window(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, uSuper, uMemberMC)

	first := f.send(t, uMemberMC, conv.ID, "typo")
	key := strconv.FormatUint(first.ID, 10)

	_, err := f.message.EditMessage(ctx, uSuper, key, &dto.EditMessageReq{Content: "hijack"})
	assert.ErrorIs(t, err, service.ErrEditNotOwner)

	_, err = f.message.EditMessage(ctx, uMemberMC, key, &dto.EditMessageReq{Content: " \t"})
	assert.ErrorIs(t, err, service.ErrParamInvalid)

	f.clock.Advance(119 * time.Second)
	edited, err := f.message.EditMessage(ctx, uMemberMC, key, &dto.EditMessageReq{Content: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", edited.Content)
	assert.True(t, edited.IsEdited)

	f.clock.Advance(2 * time.Second)
	_, err = f.message.EditMessage(ctx, uMemberMC, key, &dto.EditMessageReq{Content: "too late"})
	assert.ErrorIs(t, err, service.ErrEditWindowExpired)
	code, _ := service.StatusOf(err)
	assert.Equal(t, service.Forbidden, code)

	_, err = f.message.EditMessage(ctx, uSuper, key, &dto.EditMessageReq{Content: "still not yours"})
	assert.ErrorIs(t, err, service.ErrEditNotOwner)
}

func TestDeleteMessage_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, uSuper, uMemberMC)
	msg := f.send(t, uMemberMC, conv.ID, "bye")
	key := strconv.FormatUint(msg.ID, 10)

	res, err := f.message.DeleteMessage(ctx, uDrifter, "987654")
	require.NoError(t, err)
	assert.True(t, res.Deleted)

	_, err = f.message.DeleteMessage(ctx, uMemberMC, key)
	require.NoError(t, err)
	_, err = f.message.DeleteMessage(ctx, uMemberMC, key)
	require.NoError(t, err)
}

func TestDeleteMessage_Hierarchy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, uLeaderThree, uLeaderSeven, uAdminNorth, uMemberMC, uAdminSouth)

	msg := f.send(t, uLeaderThree, conv.ID, "mc 3 update")
	key := strconv.FormatUint(msg.ID, 10)

	_, err := f.message.DeleteMessage(ctx, uLeaderSeven, key)
	assert.ErrorIs(t, err, service.ErrDeleteDenied)
	_, err = f.message.DeleteMessage(ctx, uAdminSouth, key)
	assert.ErrorIs(t, err, service.ErrDeleteDenied)
	_, err = f.message.DeleteMessage(ctx, uMemberMC, key)
	assert.ErrorIs(t, err, service.ErrDeleteDenied)

	_, err = f.message.DeleteMessage(ctx, uAdminNorth, key)
	require.NoError(t, err)

	_, err = f.message.EditMessage(ctx, uLeaderThree, key, &dto.EditMessageReq{Content: "x"})
	assert.ErrorIs(t, err, service.ErrMessageNotFound)

	member := f.send(t, uMemberMC, conv.ID, "from mc 3")
	_, err = f.message.DeleteMessage(ctx, uLeaderThree, strconv.FormatUint(member.ID, 10))
	assert.NoError(t, err, "mc leader moderates own mc")
}

func TestReplyPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, uSuper, uMemberMC)

	original := f.send(t, uSuper, conv.ID, "who's bringing snacks?")
	f.clock.Advance(time.Second)
	reply, err := f.message.SendMessage(ctx, uMemberMC, &dto.SendMessageReq{
		ConversationID: conv.ID, Content: "me", ReplyToID: &original.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyTo)
	assert.True(t, reply.ReplyTo.Available)
	assert.Equal(t, "who's bringing snacks?", *reply.ReplyTo.Content)

	_, err = f.message.DeleteMessage(ctx, uSuper, strconv.FormatUint(original.ID, 10))
	require.NoError(t, err)

	page, err := f.message.ListMessages(ctx, uMemberMC, conv.ID, nil)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	got := page.Messages[0].ReplyTo
	require.NotNil(t, got)
	assert.Equal(t, original.ID, got.ID)
	assert.False(t, got.Available)
	assert.Nil(t, got.Content)
}

func TestListMessages_PageOrderAndRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, uSuper, uMemberMC)
	for i := 1; i <= 5; i++ {
		f.clock.Advance(time.Second)
		f.send(t, uSuper, conv.ID, "m"+strconv.Itoa(i))
	}
	require.Equal(t, uint64(5), f.unread(t, conv.ID, uMemberMC))

	page, err := f.message.ListMessages(ctx, uMemberMC, conv.ID, &dto.ListMessagesQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "m4", page.Messages[0].Content)
	assert.Equal(t, "m5", page.Messages[1].Content)
	assert.Equal(t, int64(5), page.Pagination.Total)
	assert.True(t, page.Pagination.HasMore)
	assert.Equal(t, uint64(0), f.unread(t, conv.ID, uMemberMC), "listing marks read")
	lastRead := f.member(t, conv.ID, uMemberMC).LastReadAt
	require.NotNil(t, lastRead)

	page, err = f.message.ListMessages(ctx, uMemberMC, conv.ID, &dto.ListMessagesQuery{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "m1", page.Messages[0].Content)
	assert.False(t, page.Pagination.HasMore)

	page, err = f.message.ListMessages(ctx, uMemberMC, conv.ID, &dto.ListMessagesQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Pagination.Limit)

	_, err = f.message.ListMessages(ctx, uDrifter, conv.ID, nil)
	assert.ErrorIs(t, err, service.ErrConversationNotFound)
}

func TestListMessages_HugePage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.group(t, uSuper, uMemberMC)
	for i := 1; i <= 3; i++ {
		f.send(t, uSuper, conv.ID, "m"+strconv.Itoa(i))
	}

	for _, page := range []int{math.MaxInt / 50, math.MaxInt, 4} {
		res, err := f.message.ListMessages(ctx, uMemberMC, conv.ID, &dto.ListMessagesQuery{Page: page, Limit: 100})
		require.NoError(t, err)
		assert.Empty(t, res.Messages, "page %d", page)
		assert.False(t, res.Pagination.HasMore, "page %d", page)
		assert.Equal(t, int64(3), res.Pagination.Total)
	}
}

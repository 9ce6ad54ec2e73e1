package api_test

import (
	"Fellowship/internal/api/dto"
	"Fellowship/internal/model"
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockConversationService struct {
	mock.Mock
}

func (m *MockConversationService) CreateConversation(ctx context.Context, userID uint64, req *dto.CreateConversationReq) (*dto.ConversationDTO, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ConversationDTO), args.Error(1)
}

func (m *MockConversationService) GetOrCreateCategoryConversation(ctx context.Context, userID uint64, req *dto.CategoryConversationReq) (*dto.ConversationDTO, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ConversationDTO), args.Error(1)
}

func (m *MockConversationService) GetOrCreateBranchConversation(ctx context.Context, branchID uint64) (*model.Conversation, error) {
	args := m.Called(ctx, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockConversationService) GetOrCreateMCConversation(ctx context.Context, mcID uint64) (*model.Conversation, error) {
	args := m.Called(ctx, mcID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockConversationService) GetConversation(ctx context.Context, userID, convID uint64) (*dto.ConversationDTO, error) {
	args := m.Called(ctx, userID, convID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ConversationDTO), args.Error(1)
}

func (m *MockConversationService) AddParticipants(ctx context.Context, userID, convID uint64, req *dto.AddParticipantsReq) (*dto.ProvisionResultDTO, error) {
	args := m.Called(ctx, userID, convID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ProvisionResultDTO), args.Error(1)
}

func (m *MockConversationService) RemoveParticipant(ctx context.Context, userID, convID, targetUserID uint64) error {
	return m.Called(ctx, userID, convID, targetUserID).Error(0)
}

func (m *MockConversationService) MarkRead(ctx context.Context, userID, convID uint64) error {
	return m.Called(ctx, userID, convID).Error(0)
}

type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	args := m.Called(ctx, senderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MessageDTO), args.Error(1)
}

func (m *MockMessageService) EditMessage(ctx context.Context, userID uint64, key string, req *dto.EditMessageReq) (*dto.MessageDTO, error) {
	args := m.Called(ctx, userID, key, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MessageDTO), args.Error(1)
}

func (m *MockMessageService) DeleteMessage(ctx context.Context, userID uint64, key string) (*dto.DeleteMessageDTO, error) {
	args := m.Called(ctx, userID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DeleteMessageDTO), args.Error(1)
}

func (m *MockMessageService) ListMessages(ctx context.Context, userID, convID uint64, query *dto.ListMessagesQuery) (*dto.MessagePageDTO, error) {
	args := m.Called(ctx, userID, convID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MessagePageDTO), args.Error(1)
}

type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) ListConversations(ctx context.Context, userID uint64, typeFilter string) ([]*dto.ConversationDTO, error) {
	args := m.Called(ctx, userID, typeFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dto.ConversationDTO), args.Error(1)
}

func (m *MockQueryService) GetUnreadCount(ctx context.Context, userID uint64) (*dto.UnreadCountDTO, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UnreadCountDTO), args.Error(1)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, objectName, reader, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) GetPublicURL(objectName string) string {
	return "https://cdn.example.org/chat-attachments/" + objectName
}

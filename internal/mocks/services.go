package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messenger-service/internal/models"
)

type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) CreateChat(ctx context.Context, actorID int, name *string, memberIDs []int) (models.ChatDetail, error) {
	args := m.Called(ctx, actorID, name, memberIDs)
	var detail models.ChatDetail
	if val := args.Get(0); val != nil {
		detail = val.(models.ChatDetail)
	}
	return detail, args.Error(1)
}

func (m *ChatServiceMock) GetChat(ctx context.Context, chatID int, viewerID int) (models.ChatDetail, error) {
	args := m.Called(ctx, chatID, viewerID)
	var detail models.ChatDetail
	if val := args.Get(0); val != nil {
		detail = val.(models.ChatDetail)
	}
	return detail, args.Error(1)
}

func (m *ChatServiceMock) ListChats(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ChatSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatSummary)
	}
	return list, args.Error(1)
}

func (m *ChatServiceMock) AddMember(ctx context.Context, chatID int, actorID int, userID int) (models.ChatMember, error) {
	args := m.Called(ctx, chatID, actorID, userID)
	var member models.ChatMember
	if val := args.Get(0); val != nil {
		member = val.(models.ChatMember)
	}
	return member, args.Error(1)
}

func (m *ChatServiceMock) ChangeChatName(ctx context.Context, chatID int, actorID int, name *string) (models.Chat, error) {
	args := m.Called(ctx, chatID, actorID, name)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatServiceMock) LeaveChat(ctx context.Context, chatID int, actorID int) (models.ChatMember, error) {
	args := m.Called(ctx, chatID, actorID)
	var member models.ChatMember
	if val := args.Get(0); val != nil {
		member = val.(models.ChatMember)
	}
	return member, args.Error(1)
}

func (m *ChatServiceMock) UnhideChat(ctx context.Context, chatID int, actorID int) (models.ChatMember, error) {
	args := m.Called(ctx, chatID, actorID)
	var member models.ChatMember
	if val := args.Get(0); val != nil {
		member = val.(models.ChatMember)
	}
	return member, args.Error(1)
}

func (m *ChatServiceMock) SendMessage(ctx context.Context, chatID int, authorID int, content string) (models.MessageView, error) {
	args := m.Called(ctx, chatID, authorID, content)
	var msg models.MessageView
	if val := args.Get(0); val != nil {
		msg = val.(models.MessageView)
	}
	return msg, args.Error(1)
}

func (m *ChatServiceMock) EditMessage(ctx context.Context, messageID int, actorID int, content string) (models.Message, error) {
	args := m.Called(ctx, messageID, actorID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ChatServiceMock) DeleteMessage(ctx context.Context, messageID int, actorID int) (models.Message, error) {
	args := m.Called(ctx, messageID, actorID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type RelationshipServiceMock struct {
	mock.Mock
}

func (m *RelationshipServiceMock) ListFriendships(ctx context.Context, userID int) ([]models.FriendshipView, error) {
	args := m.Called(ctx, userID)
	var list []models.FriendshipView
	if val := args.Get(0); val != nil {
		list = val.([]models.FriendshipView)
	}
	return list, args.Error(1)
}

func (m *RelationshipServiceMock) CreateFriendship(ctx context.Context, requesterID int, receiverID int) (models.FriendshipView, error) {
	args := m.Called(ctx, requesterID, receiverID)
	var f models.FriendshipView
	if val := args.Get(0); val != nil {
		f = val.(models.FriendshipView)
	}
	return f, args.Error(1)
}

func (m *RelationshipServiceMock) AcceptFriendship(ctx context.Context, friendshipID int, actorID int) (models.Friendship, error) {
	args := m.Called(ctx, friendshipID, actorID)
	var f models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(models.Friendship)
	}
	return f, args.Error(1)
}

func (m *RelationshipServiceMock) DeleteFriendship(ctx context.Context, friendshipID int, actorID int) (models.Friendship, error) {
	args := m.Called(ctx, friendshipID, actorID)
	var f models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(models.Friendship)
	}
	return f, args.Error(1)
}

func (m *RelationshipServiceMock) ListBlocks(ctx context.Context, blockerID int) ([]models.BlockView, error) {
	args := m.Called(ctx, blockerID)
	var list []models.BlockView
	if val := args.Get(0); val != nil {
		list = val.([]models.BlockView)
	}
	return list, args.Error(1)
}

func (m *RelationshipServiceMock) CreateBlock(ctx context.Context, blockerID int, blockedID int) (models.Block, error) {
	args := m.Called(ctx, blockerID, blockedID)
	var b models.Block
	if val := args.Get(0); val != nil {
		b = val.(models.Block)
	}
	return b, args.Error(1)
}

func (m *RelationshipServiceMock) DeleteBlock(ctx context.Context, blockerID int, blockedID int) (models.Block, error) {
	args := m.Called(ctx, blockerID, blockedID)
	var b models.Block
	if val := args.Get(0); val != nil {
		b = val.(models.Block)
	}
	return b, args.Error(1)
}

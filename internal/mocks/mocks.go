package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) FindDirectChat(ctx context.Context, userA int, userB int) (models.Chat, error) {
	args := m.Called(ctx, userA, userB)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) CreateChat(ctx context.Context, name *string, isGroup bool, memberIDs []int) (models.Chat, error) {
	args := m.Called(ctx, name, isGroup, memberIDs)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) ListMembers(ctx context.Context, chatID int) ([]models.ChatMember, error) {
	args := m.Called(ctx, chatID)
	var members []models.ChatMember
	if val := args.Get(0); val != nil {
		members = val.([]models.ChatMember)
	}
	return members, args.Error(1)
}

func (m *ChatRepositoryMock) GetMember(ctx context.Context, chatID int, userID int) (models.ChatMember, error) {
	args := m.Called(ctx, chatID, userID)
	var member models.ChatMember
	if val := args.Get(0); val != nil {
		member = val.(models.ChatMember)
	}
	return member, args.Error(1)
}

func (m *ChatRepositoryMock) HydrateChat(ctx context.Context, chatID int, viewerID int) (models.ChatDetail, error) {
	args := m.Called(ctx, chatID, viewerID)
	var detail models.ChatDetail
	if val := args.Get(0); val != nil {
		detail = val.(models.ChatDetail)
	}
	return detail, args.Error(1)
}

func (m *ChatRepositoryMock) ListChatsForUser(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ChatSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatSummary)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) AddMember(ctx context.Context, chatID int, userID int) (models.ChatMember, error) {
	args := m.Called(ctx, chatID, userID)
	var member models.ChatMember
	if val := args.Get(0); val != nil {
		member = val.(models.ChatMember)
	}
	return member, args.Error(1)
}

func (m *ChatRepositoryMock) RemoveMember(ctx context.Context, chatID int, userID int) (models.ChatMember, error) {
	args := m.Called(ctx, chatID, userID)
	var member models.ChatMember
	if val := args.Get(0); val != nil {
		member = val.(models.ChatMember)
	}
	return member, args.Error(1)
}

func (m *ChatRepositoryMock) SetHidden(ctx context.Context, chatID int, userID int, hidden bool) (models.ChatMember, error) {
	args := m.Called(ctx, chatID, userID, hidden)
	var member models.ChatMember
	if val := args.Get(0); val != nil {
		member = val.(models.ChatMember)
	}
	return member, args.Error(1)
}

func (m *ChatRepositoryMock) RenameChat(ctx context.Context, chatID int, name *string) (models.Chat, error) {
	args := m.Called(ctx, chatID, name)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID int, authorID int, content string) (models.MessageView, error) {
	args := m.Called(ctx, chatID, authorID, content)
	var msg models.MessageView
	if val := args.Get(0); val != nil {
		msg = val.(models.MessageView)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) UpdateContent(ctx context.Context, messageID int, content string) (models.Message, error) {
	args := m.Called(ctx, messageID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type RelationshipRepositoryMock struct {
	mock.Mock
}

func (m *RelationshipRepositoryMock) IsBlocked(ctx context.Context, userA int, userB int) (bool, error) {
	args := m.Called(ctx, userA, userB)
	return args.Bool(0), args.Error(1)
}

func (m *RelationshipRepositoryMock) ListFriendships(ctx context.Context, userID int) ([]models.FriendshipView, error) {
	args := m.Called(ctx, userID)
	var list []models.FriendshipView
	if val := args.Get(0); val != nil {
		list = val.([]models.FriendshipView)
	}
	return list, args.Error(1)
}

func (m *RelationshipRepositoryMock) GetFriendship(ctx context.Context, friendshipID int) (models.Friendship, error) {
	args := m.Called(ctx, friendshipID)
	var f models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(models.Friendship)
	}
	return f, args.Error(1)
}

func (m *RelationshipRepositoryMock) FindFriendship(ctx context.Context, userA int, userB int) (models.Friendship, error) {
	args := m.Called(ctx, userA, userB)
	var f models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(models.Friendship)
	}
	return f, args.Error(1)
}

func (m *RelationshipRepositoryMock) CreateFriendship(ctx context.Context, requesterID int, receiverID int) (models.FriendshipView, error) {
	args := m.Called(ctx, requesterID, receiverID)
	var f models.FriendshipView
	if val := args.Get(0); val != nil {
		f = val.(models.FriendshipView)
	}
	return f, args.Error(1)
}

func (m *RelationshipRepositoryMock) AcceptFriendship(ctx context.Context, friendshipID int) (models.Friendship, error) {
	args := m.Called(ctx, friendshipID)
	var f models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(models.Friendship)
	}
	return f, args.Error(1)
}

func (m *RelationshipRepositoryMock) DeleteFriendship(ctx context.Context, friendshipID int) (models.Friendship, error) {
	args := m.Called(ctx, friendshipID)
	var f models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(models.Friendship)
	}
	return f, args.Error(1)
}

func (m *RelationshipRepositoryMock) ListBlocks(ctx context.Context, blockerID int) ([]models.BlockView, error) {
	args := m.Called(ctx, blockerID)
	var list []models.BlockView
	if val := args.Get(0); val != nil {
		list = val.([]models.BlockView)
	}
	return list, args.Error(1)
}

func (m *RelationshipRepositoryMock) CreateBlock(ctx context.Context, blockerID int, blockedID int) (models.Block, error) {
	args := m.Called(ctx, blockerID, blockedID)
	var b models.Block
	if val := args.Get(0); val != nil {
		b = val.(models.Block)
	}
	return b, args.Error(1)
}

func (m *RelationshipRepositoryMock) DeleteBlock(ctx context.Context, blockerID int, blockedID int) (models.Block, error) {
	args := m.Called(ctx, blockerID, blockedID)
	var b models.Block
	if val := args.Get(0); val != nil {
		b = val.(models.Block)
	}
	return b, args.Error(1)
}

var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.RelationshipRepository = (*RelationshipRepositoryMock)(nil)

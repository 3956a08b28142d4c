package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

type chatFixture struct {
	chats     *mocks.ChatRepositoryMock
	messages  *mocks.MessageRepositoryMock
	relations *mocks.RelationshipRepositoryMock
	events    *mocks.PublisherMock
	svc       *ChatService
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		chats:     new(mocks.ChatRepositoryMock),
		messages:  new(mocks.MessageRepositoryMock),
		relations: new(mocks.RelationshipRepositoryMock),
		events:    new(mocks.PublisherMock),
	}
	gate := NewRelationshipService(f.relations, nil)
	f.svc = NewChatService(f.chats, f.messages, gate, f.events)
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

func (f *chatFixture) assert(t *testing.T) {
	f.chats.AssertExpectations(t)
	f.messages.AssertExpectations(t)
	f.relations.AssertExpectations(t)
}

func members(chatID int, userIDs ...int) []models.ChatMember {
	out := make([]models.ChatMember, 0, len(userIDs))
	for _, id := range userIDs {
		out = append(out, models.ChatMember{ChatID: chatID, UserID: id})
	}
	return out
}

func TestCreateChatReturnsExistingDM(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	detail := models.ChatDetail{Chat: models.Chat{ID: 4}}
	f.chats.On("FindDirectChat", mock.Anything, 1, 2).Return(models.Chat{ID: 4}, nil).Once()
	f.chats.On("HydrateChat", mock.Anything, 4, 1).Return(detail, nil).Once()

	got, err := f.svc.CreateChat(ctx, 1, nil, []int{2})
	require.NoError(t, err)
	assert.Equal(t, 4, got.ID)
	f.chats.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assert(t)
}

func TestCreateChatDedupsActorAndRepeats(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.chats.On("FindDirectChat", mock.Anything, 1, 2).Return(nil, repositories.ErrChatNotFound).Once()
	f.chats.On("CreateChat", mock.Anything, (*string)(nil), false, []int{1, 2}).Return(models.Chat{ID: 8}, nil).Once()
	f.chats.On("HydrateChat", mock.Anything, 8, 1).Return(models.ChatDetail{Chat: models.Chat{ID: 8}}, nil).Once()

	got, err := f.svc.CreateChat(ctx, 1, nil, []int{2, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, 8, got.ID)
	f.assert(t)
}

func TestCreateChatLostRaceReturnsWinner(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.chats.On("FindDirectChat", mock.Anything, 2, 1).Return(nil, repositories.ErrChatNotFound).Once()
	f.chats.On("CreateChat", mock.Anything, (*string)(nil), false, []int{2, 1}).Return(nil, repositories.ErrDirectChatExists).Once()
	f.chats.On("FindDirectChat", mock.Anything, 2, 1).Return(models.Chat{ID: 11}, nil).Once()
	f.chats.On("HydrateChat", mock.Anything, 11, 2).Return(models.ChatDetail{Chat: models.Chat{ID: 11}}, nil).Once()

	got, err := f.svc.CreateChat(ctx, 2, nil, []int{1})
	require.NoError(t, err)
	assert.Equal(t, 11, got.ID)
	f.assert(t)
}

func TestCreateChatGroupForThreeUsers(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	name := "  trip  "
	f.chats.On("CreateChat", mock.Anything, mock.MatchedBy(func(n *string) bool {
		return n != nil && *n == "trip"
	}), true, []int{1, 2, 3}).Return(models.Chat{ID: 5, IsGroup: true}, nil).Once()
	f.chats.On("HydrateChat", mock.Anything, 5, 1).Return(models.ChatDetail{Chat: models.Chat{ID: 5, IsGroup: true}}, nil).Once()

	got, err := f.svc.CreateChat(ctx, 1, &name, []int{2, 3})
	require.NoError(t, err)
	assert.True(t, got.IsGroup)
	f.chats.AssertNotCalled(t, "FindDirectChat", mock.Anything, mock.Anything, mock.Anything)
	f.events.AssertCalled(t, "Publish", mock.Anything, EventChatCreated, mock.Anything)
	f.assert(t)
}

func TestCreateChatSoloIsAGroupOfOne(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.chats.On("CreateChat", mock.Anything, (*string)(nil), false, []int{1}).Return(models.Chat{ID: 6}, nil).Once()
	f.chats.On("HydrateChat", mock.Anything, 6, 1).Return(models.ChatDetail{Chat: models.Chat{ID: 6}}, nil).Once()

	_, err := f.svc.CreateChat(ctx, 1, nil, nil)
	require.NoError(t, err)
	f.assert(t)
}

func TestCreateChatRejectsTooManyMembers(t *testing.T) {
	f := newChatFixture()
	ids := make([]int, 0, 20)
	for i := 2; i <= 21; i++ {
		ids = append(ids, i)
	}

	_, err := f.svc.CreateChat(context.Background(), 1, nil, ids)
	require.ErrorIs(t, err, ErrInvalidOperation)
	assert.Equal(t, "Max members in a chat: 20", err.Error())
	f.chats.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateChatRespectsConfiguredCap(t *testing.T) {
	f := newChatFixture()
	f.svc.WithMaxMembers(3)

	_, err := f.svc.CreateChat(context.Background(), 1, nil, []int{2, 3, 4})
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestCreateChatRejectsLongName(t *testing.T) {
	f := newChatFixture()
	name := strings.Repeat("x", MaxChatNameLength+1)

	_, err := f.svc.CreateChat(context.Background(), 1, &name, []int{2, 3})
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestCreateChatUnknownUser(t *testing.T) {
	f := newChatFixture()

	f.chats.On("CreateChat", mock.Anything, (*string)(nil), true, []int{1, 2, 99}).Return(nil, repositories.ErrUserNotFound).Once()

	_, err := f.svc.CreateChat(context.Background(), 1, nil, []int{2, 99})
	require.ErrorIs(t, err, ErrNotFound)
	f.assert(t)
}

func TestGetChatMapsRepositoryErrors(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.chats.On("HydrateChat", mock.Anything, 1, 7).Return(nil, repositories.ErrChatNotFound).Once()
	f.chats.On("HydrateChat", mock.Anything, 2, 7).Return(nil, repositories.ErrMemberNotFound).Once()
	f.chats.On("HydrateChat", mock.Anything, 3, 7).Return(nil, assert.AnError).Once()

	_, err := f.svc.GetChat(ctx, 1, 7)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.GetChat(ctx, 2, 7)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.GetChat(ctx, 3, 7)
	assert.ErrorIs(t, err, assert.AnError)
	_, ok := KindOf(err)
	assert.False(t, ok)
	f.assert(t)
}

func TestAddMemberRules(t *testing.T) {
	ctx := context.Background()

	t.Run("dm", func(t *testing.T) {
		f := newChatFixture()
		f.chats.On("GetChat", mock.Anything, 4).Return(models.Chat{ID: 4}, nil).Once()

		_, err := f.svc.AddMember(ctx, 4, 1, 3)
		require.ErrorIs(t, err, ErrInvalidOperation)
		assert.Equal(t, "Cannot add new user to a private DM", err.Error())
	})

	t.Run("missing chat", func(t *testing.T) {
		f := newChatFixture()
		f.chats.On("GetChat", mock.Anything, 4).Return(nil, repositories.ErrChatNotFound).Once()

		_, err := f.svc.AddMember(ctx, 4, 1, 3)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("outsider adding someone else", func(t *testing.T) {
		f := newChatFixture()
		f.chats.On("GetChat", mock.Anything, 4).Return(models.Chat{ID: 4, IsGroup: true}, nil).Once()
		f.chats.On("ListMembers", mock.Anything, 4).Return(members(4, 1, 2, 3), nil).Once()

		_, err := f.svc.AddMember(ctx, 4, 9, 10)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("already a member", func(t *testing.T) {
		f := newChatFixture()
		f.chats.On("GetChat", mock.Anything, 4).Return(models.Chat{ID: 4, IsGroup: true}, nil).Once()
		f.chats.On("ListMembers", mock.Anything, 4).Return(members(4, 1, 2, 3), nil).Once()

		_, err := f.svc.AddMember(ctx, 4, 1, 2)
		require.ErrorIs(t, err, ErrInvalidOperation)
	})

	t.Run("full", func(t *testing.T) {
		f := newChatFixture()
		ids := make([]int, 0, models.MaxChatMembers)
		for i := 1; i <= models.MaxChatMembers; i++ {
			ids = append(ids, i)
		}
		f.chats.On("GetChat", mock.Anything, 4).Return(models.Chat{ID: 4, IsGroup: true}, nil).Once()
		f.chats.On("ListMembers", mock.Anything, 4).Return(members(4, ids...), nil).Once()

		_, err := f.svc.AddMember(ctx, 4, 1, 50)
		require.ErrorIs(t, err, ErrInvalidOperation)
	})

	t.Run("self join", func(t *testing.T) {
		f := newChatFixture()
		f.chats.On("GetChat", mock.Anything, 4).Return(models.Chat{ID: 4, IsGroup: true}, nil).Once()
		f.chats.On("ListMembers", mock.Anything, 4).Return(members(4, 1, 2, 3), nil).Once()
		f.chats.On("AddMember", mock.Anything, 4, 9).Return(models.ChatMember{ChatID: 4, UserID: 9}, nil).Once()

		m, err := f.svc.AddMember(ctx, 4, 9, 9)
		require.NoError(t, err)
		assert.Equal(t, 9, m.UserID)
		f.assert(t)
	})
}

func TestChangeChatName(t *testing.T) {
	ctx := context.Background()

	t.Run("member renames", func(t *testing.T) {
		f := newChatFixture()
		name := "Weekend"
		f.chats.On("GetChat", mock.Anything, 4).Return(models.Chat{ID: 4, IsGroup: true}, nil).Once()
		f.chats.On("GetMember", mock.Anything, 4, 1).Return(models.ChatMember{ChatID: 4, UserID: 1}, nil).Once()
		f.chats.On("RenameChat", mock.Anything, 4, &name).Return(models.Chat{ID: 4, Name: &name}, nil).Once()

		chat, err := f.svc.ChangeChatName(ctx, 4, 1, &name)
		require.NoError(t, err)
		assert.Equal(t, "Weekend", *chat.Name)
		f.assert(t)
	})

	t.Run("blank clears", func(t *testing.T) {
		f := newChatFixture()
		blank := "   "
		f.chats.On("GetChat", mock.Anything, 4).Return(models.Chat{ID: 4}, nil).Once()
		f.chats.On("GetMember", mock.Anything, 4, 1).Return(models.ChatMember{ChatID: 4, UserID: 1}, nil).Once()
		f.chats.On("RenameChat", mock.Anything, 4, (*string)(nil)).Return(models.Chat{ID: 4}, nil).Once()

		chat, err := f.svc.ChangeChatName(ctx, 4, 1, &blank)
		require.NoError(t, err)
		assert.Nil(t, chat.Name)
	})

	t.Run("non member", func(t *testing.T) {
		f := newChatFixture()
		name := "x"
		f.chats.On("GetChat", mock.Anything, 4).Return(models.Chat{ID: 4}, nil).Once()
		f.chats.On("GetMember", mock.Anything, 4, 9).Return(nil, repositories.ErrMemberNotFound).Once()

		_, err := f.svc.ChangeChatName(ctx, 4, 9, &name)
		require.ErrorIs(t, err, ErrForbidden)
	})
}

func TestLeaveChat(t *testing.T) {
	ctx := context.Background()

	t.Run("group removes membership", func(t *testing.T) {
		f := newChatFixture()
		f.chats.On("GetChat", mock.Anything, 4).Return(models.Chat{ID: 4, IsGroup: true}, nil).Once()
		f.chats.On("RemoveMember", mock.Anything, 4, 1).Return(models.ChatMember{ChatID: 4, UserID: 1}, nil).Once()

		_, err := f.svc.LeaveChat(ctx, 4, 1)
		require.NoError(t, err)
		f.chats.AssertNotCalled(t, "SetHidden", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.assert(t)
	})

	t.Run("dm only hides", func(t *testing.T) {
		f := newChatFixture()
		f.chats.On("GetChat", mock.Anything, 4).Return(models.Chat{ID: 4}, nil).Once()
		f.chats.On("SetHidden", mock.Anything, 4, 1, true).Return(models.ChatMember{ChatID: 4, UserID: 1, Hidden: true}, nil).Once()

		m, err := f.svc.LeaveChat(ctx, 4, 1)
		require.NoError(t, err)
		assert.True(t, m.Hidden)
		f.chats.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
		f.assert(t)
	})

	t.Run("not a member", func(t *testing.T) {
		f := newChatFixture()
		f.chats.On("GetChat", mock.Anything, 4).Return(models.Chat{ID: 4, IsGroup: true}, nil).Once()
		f.chats.On("RemoveMember", mock.Anything, 4, 9).Return(nil, repositories.ErrMemberNotFound).Once()

		_, err := f.svc.LeaveChat(ctx, 4, 9)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUnhideChat(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.chats.On("GetChat", mock.Anything, 4).Return(models.Chat{ID: 4}, nil).Twice()
	f.chats.On("SetHidden", mock.Anything, 4, 1, false).Return(models.ChatMember{ChatID: 4, UserID: 1}, nil).Twice()

	for i := 0; i < 2; i++ {
		m, err := f.svc.UnhideChat(ctx, 4, 1)
		require.NoError(t, err)
		assert.False(t, m.Hidden)
	}
	f.assert(t)
}

func TestMemberSetKeepsOrder(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, memberSet(3, []int{1, 3, 2, 1}))
	assert.Equal(t, []int{5}, memberSet(5, nil))
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// MaxChatNameLength bounds chat names, in characters.
const MaxChatNameLength = 50

// ChatService is the only writer of chats, memberships and messages. Every
// mutation it performs is a single storage transaction.
type ChatService struct {
	chats      repositories.ChatRepository
	messages   repositories.MessageRepository
	gate       BlockGate
	events     EventPublisher
	maxMembers int
}

// NewChatService constructs a ChatService. events may be nil.
func NewChatService(chats repositories.ChatRepository, messages repositories.MessageRepository, gate BlockGate, events EventPublisher) *ChatService {
	return &ChatService{
		chats:      chats,
		messages:   messages,
		gate:       gate,
		events:     events,
		maxMembers: models.MaxChatMembers,
	}
}

// WithMaxMembers overrides the member cap; values outside 2..MaxChatMembers
// are ignored.
func (s *ChatService) WithMaxMembers(n int) *ChatService {
	if n >= 2 && n <= models.MaxChatMembers {
		s.maxMembers = n
	}
	return s
}

// CreateChat opens a chat between the actor and memberIDs. For exactly two
// distinct users the existing DM is returned instead of creating another.
// The result is hydrated for the actor.
func (s *ChatService) CreateChat(ctx context.Context, actorID int, name *string, memberIDs []int) (detail models.ChatDetail, err error) {
	ctx, span := tracer.Start(ctx, "chats.create")
	defer func() { finish(span, "create_chat", err) }()

	ids := memberSet(actorID, memberIDs)
	if len(ids) > s.maxMembers {
		return models.ChatDetail{}, newError(KindInvalidOperation, fmt.Sprintf("Max members in a chat: %d", s.maxMembers))
	}
	name, err = normalizeName(name)
	if err != nil {
		return models.ChatDetail{}, err
	}

	if len(ids) == 2 {
		existing, err := s.chats.FindDirectChat(ctx, ids[0], ids[1])
		if err == nil {
			return s.hydrate(ctx, existing.ID, actorID)
		}
		if !errors.Is(err, repositories.ErrChatNotFound) {
			return models.ChatDetail{}, err
		}
	}

	chat, err := s.chats.CreateChat(ctx, name, len(ids) > 2, ids)
	switch {
	case errors.Is(err, repositories.ErrDirectChatExists):
		// Lost the first-contact race; the winner's DM is canonical.
		existing, err := s.chats.FindDirectChat(ctx, ids[0], ids[1])
		if err != nil {
			return models.ChatDetail{}, err
		}
		return s.hydrate(ctx, existing.ID, actorID)
	case errors.Is(err, repositories.ErrUserNotFound):
		return models.ChatDetail{}, newError(KindNotFound, "User not found")
	case err != nil:
		return models.ChatDetail{}, err
	}

	publish(ctx, s.events, EventChatCreated, map[string]any{
		"chat_id":    chat.ID,
		"is_group":   chat.IsGroup,
		"member_ids": ids,
		"created_by": actorID,
	})
	return s.hydrate(ctx, chat.ID, actorID)
}

// GetChat hydrates a chat for viewerID, resetting the viewer's unread count.
func (s *ChatService) GetChat(ctx context.Context, chatID int, viewerID int) (detail models.ChatDetail, err error) {
	ctx, span := tracer.Start(ctx, "chats.get")
	defer func() { finish(span, "get_chat", err) }()

	return s.hydrate(ctx, chatID, viewerID)
}

func (s *ChatService) hydrate(ctx context.Context, chatID int, viewerID int) (models.ChatDetail, error) {
	detail, err := s.chats.HydrateChat(ctx, chatID, viewerID)
	switch {
	case errors.Is(err, repositories.ErrChatNotFound):
		return models.ChatDetail{}, newError(KindNotFound, "Chat not found")
	case errors.Is(err, repositories.ErrMemberNotFound):
		return models.ChatDetail{}, newError(KindForbidden, "You are not a member of this chat")
	case err != nil:
		return models.ChatDetail{}, err
	}
	return detail, nil
}

// ListChats returns the user's visible chats, most recently active first.
func (s *ChatService) ListChats(ctx context.Context, userID int) (chats []models.ChatSummary, err error) {
	ctx, span := tracer.Start(ctx, "chats.list")
	defer func() { finish(span, "list_chats", err) }()

	return s.chats.ListChatsForUser(ctx, userID)
}

// AddMember adds userID to a group chat. Actors may add themselves, or
// anyone once they are members. DMs never gain members.
func (s *ChatService) AddMember(ctx context.Context, chatID int, actorID int, userID int) (member models.ChatMember, err error) {
	ctx, span := tracer.Start(ctx, "chats.add_member")
	defer func() { finish(span, "add_member", err) }()

	chat, err := s.getChat(ctx, chatID)
	if err != nil {
		return models.ChatMember{}, err
	}
	if !chat.IsGroup {
		return models.ChatMember{}, newError(KindInvalidOperation, "Cannot add new user to a private DM")
	}

	members, err := s.chats.ListMembers(ctx, chatID)
	if err != nil {
		return models.ChatMember{}, err
	}
	if actorID != userID && !hasMember(members, actorID) {
		return models.ChatMember{}, newError(KindForbidden, "You are not a member of this chat")
	}
	if hasMember(members, userID) {
		return models.ChatMember{}, newError(KindInvalidOperation, "User is already a member of this chat")
	}
	if len(members) >= s.maxMembers {
		return models.ChatMember{}, newError(KindInvalidOperation, fmt.Sprintf("Max members in a chat: %d", s.maxMembers))
	}

	member, err = s.chats.AddMember(ctx, chatID, userID)
	switch {
	case errors.Is(err, repositories.ErrMemberExists):
		return models.ChatMember{}, newError(KindInvalidOperation, "User is already a member of this chat")
	case errors.Is(err, repositories.ErrChatNotFound):
		return models.ChatMember{}, newError(KindNotFound, "Chat not found")
	case errors.Is(err, repositories.ErrUserNotFound):
		return models.ChatMember{}, newError(KindNotFound, "User not found")
	case err != nil:
		return models.ChatMember{}, err
	}

	publish(ctx, s.events, EventMemberAdded, map[string]any{
		"chat_id":  chatID,
		"user_id":  userID,
		"added_by": actorID,
	})
	return member, nil
}

// ChangeChatName renames a chat the actor belongs to. An empty name clears it.
func (s *ChatService) ChangeChatName(ctx context.Context, chatID int, actorID int, name *string) (chat models.Chat, err error) {
	ctx, span := tracer.Start(ctx, "chats.rename")
	defer func() { finish(span, "change_chat_name", err) }()

	name, err = normalizeName(name)
	if err != nil {
		return models.Chat{}, err
	}
	if _, err := s.getChat(ctx, chatID); err != nil {
		return models.Chat{}, err
	}
	if err := s.requireMember(ctx, chatID, actorID); err != nil {
		return models.Chat{}, err
	}

	chat, err = s.chats.RenameChat(ctx, chatID, name)
	if errors.Is(err, repositories.ErrChatNotFound) {
		return models.Chat{}, newError(KindNotFound, "Chat not found")
	}
	if err != nil {
		return models.Chat{}, err
	}

	publish(ctx, s.events, EventChatRenamed, map[string]any{"chat_id": chatID, "name": chat.Name, "renamed_by": actorID})
	return chat, nil
}

// LeaveChat removes the actor from a group chat. A DM keeps both members,
// so leaving one only hides it from the actor until new activity arrives.
func (s *ChatService) LeaveChat(ctx context.Context, chatID int, actorID int) (member models.ChatMember, err error) {
	ctx, span := tracer.Start(ctx, "chats.leave")
	defer func() { finish(span, "leave_chat", err) }()

	chat, err := s.getChat(ctx, chatID)
	if err != nil {
		return models.ChatMember{}, err
	}

	if chat.IsGroup {
		member, err = s.chats.RemoveMember(ctx, chatID, actorID)
	} else {
		member, err = s.chats.SetHidden(ctx, chatID, actorID, true)
	}
	if errors.Is(err, repositories.ErrMemberNotFound) {
		return models.ChatMember{}, newError(KindNotFound, "Chat membership not found")
	}
	if err != nil {
		return models.ChatMember{}, err
	}

	publish(ctx, s.events, EventMemberLeft, map[string]any{
		"chat_id": chatID,
		"user_id": actorID,
		"removed": chat.IsGroup,
	})
	return member, nil
}

// UnhideChat makes a chat visible to the actor again. Idempotent.
func (s *ChatService) UnhideChat(ctx context.Context, chatID int, actorID int) (member models.ChatMember, err error) {
	ctx, span := tracer.Start(ctx, "chats.unhide")
	defer func() { finish(span, "unhide_chat", err) }()

	if _, err := s.getChat(ctx, chatID); err != nil {
		return models.ChatMember{}, err
	}

	member, err = s.chats.SetHidden(ctx, chatID, actorID, false)
	if errors.Is(err, repositories.ErrMemberNotFound) {
		return models.ChatMember{}, newError(KindNotFound, "Chat membership not found")
	}
	if err != nil {
		return models.ChatMember{}, err
	}
	return member, nil
}

func (s *ChatService) getChat(ctx context.Context, chatID int) (models.Chat, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if errors.Is(err, repositories.ErrChatNotFound) {
		return models.Chat{}, newError(KindNotFound, "Chat not found")
	}
	return chat, err
}

func (s *ChatService) requireMember(ctx context.Context, chatID int, userID int) error {
	_, err := s.chats.GetMember(ctx, chatID, userID)
	if errors.Is(err, repositories.ErrMemberNotFound) {
		return newError(KindForbidden, "You are not a member of this chat")
	}
	return err
}

// memberSet puts the actor first and drops duplicates, keeping request order.
func memberSet(actorID int, memberIDs []int) []int {
	seen := map[int]struct{}{actorID: {}}
	ids := []int{actorID}
	for _, id := range memberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func hasMember(members []models.ChatMember, userID int) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func normalizeName(name *string) (*string, error) {
	if name == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > MaxChatNameLength {
		return nil, newError(KindInvalidOperation, fmt.Sprintf("Chat name must be %d characters or less", MaxChatNameLength))
	}
	return &trimmed, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
)

// SendMessage stores a message from authorID. The author must be a member
// and someone else must still be in the chat; in a DM, a block in either
// direction stops the message.
func (s *ChatService) SendMessage(ctx context.Context, chatID int, authorID int, content string) (msg models.MessageView, err error) {
	ctx, span := tracer.Start(ctx, "chats.send_message")
	defer func() { finish(span, "send_message", err) }()

	if err := validateContent(content); err != nil {
		return models.MessageView{}, err
	}

	chat, err := s.getChat(ctx, chatID)
	if err != nil {
		return models.MessageView{}, err
	}
	members, err := s.chats.ListMembers(ctx, chatID)
	if err != nil {
		return models.MessageView{}, err
	}
	if !hasMember(members, authorID) {
		return models.MessageView{}, newError(KindForbidden, "You are not a member of this chat")
	}
	if len(members) <= 1 {
		return models.MessageView{}, newError(KindOnlySelf, "You are the only user in this chat")
	}

	if !chat.IsGroup {
		for _, m := range members {
			if m.UserID == authorID {
				continue
			}
			blocked, err := s.gate.IsBlocked(ctx, authorID, m.UserID)
			if err != nil {
				return models.MessageView{}, err
			}
			if blocked {
				return models.MessageView{}, newError(KindBlocked, "Cannot send messages to this user")
			}
		}
	}

	msg, err = s.messages.CreateMessage(ctx, chatID, authorID, content)
	if errors.Is(err, repositories.ErrChatNotFound) {
		return models.MessageView{}, newError(KindNotFound, "Chat not found")
	}
	if err != nil {
		return models.MessageView{}, err
	}

	kind := "dm"
	if chat.IsGroup {
		kind = "group"
	}
	observability.IncMessageSent(kind)
	publish(ctx, s.events, EventMessageSent, msg)
	return msg, nil
}

// EditMessage replaces the content of a message. Only its author may edit.
// Edits are not new activity: unread counts and chat order are unchanged.
func (s *ChatService) EditMessage(ctx context.Context, messageID int, actorID int, content string) (msg models.Message, err error) {
	ctx, span := tracer.Start(ctx, "chats.edit_message")
	defer func() { finish(span, "edit_message", err) }()

	if err := s.requireAuthor(ctx, messageID, actorID, "edit"); err != nil {
		return models.Message{}, err
	}
	if err := validateContent(content); err != nil {
		return models.Message{}, err
	}

	msg, err = s.messages.UpdateContent(ctx, messageID, content)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return models.Message{}, newError(KindNotFound, "Message not found")
	}
	if err != nil {
		return models.Message{}, err
	}

	publish(ctx, s.events, EventMessageEdited, msg)
	return msg, nil
}

// DeleteMessage permanently removes a message. Only its author may delete.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID int, actorID int) (msg models.Message, err error) {
	ctx, span := tracer.Start(ctx, "chats.delete_message")
	defer func() { finish(span, "delete_message", err) }()

	if err := s.requireAuthor(ctx, messageID, actorID, "delete"); err != nil {
		return models.Message{}, err
	}

	msg, err = s.messages.DeleteMessage(ctx, messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return models.Message{}, newError(KindNotFound, "Message not found")
	}
	if err != nil {
		return models.Message{}, err
	}

	publish(ctx, s.events, EventMessageDeleted, msg)
	return msg, nil
}

func (s *ChatService) requireAuthor(ctx context.Context, messageID int, actorID int, verb string) error {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return newError(KindNotFound, "Message not found")
	}
	if err != nil {
		return err
	}
	if !msg.SentBy(actorID) {
		return newError(KindForbidden, fmt.Sprintf("Not authorized to %s this message", verb))
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return newError(KindInvalidOperation, "Message cannot be empty")
	}
	if utf8.RuneCountInString(content) > models.MaxMessageLength {
		return newError(KindInvalidOperation, fmt.Sprintf("Message cannot exceed %d characters", models.MaxMessageLength))
	}
	return nil
}

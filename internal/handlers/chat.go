package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/models"
	"messenger-service/internal/telemetry"
)

type chatService interface {
	CreateChat(ctx context.Context, actorID int, name *string, memberIDs []int) (models.ChatDetail, error)
	GetChat(ctx context.Context, chatID int, viewerID int) (models.ChatDetail, error)
	ListChats(ctx context.Context, userID int) ([]models.ChatSummary, error)
	AddMember(ctx context.Context, chatID int, actorID int, userID int) (models.ChatMember, error)
	ChangeChatName(ctx context.Context, chatID int, actorID int, name *string) (models.Chat, error)
	LeaveChat(ctx context.Context, chatID int, actorID int) (models.ChatMember, error)
	UnhideChat(ctx context.Context, chatID int, actorID int) (models.ChatMember, error)
	SendMessage(ctx context.Context, chatID int, authorID int, content string) (models.MessageView, error)
	EditMessage(ctx context.Context, messageID int, actorID int, content string) (models.Message, error)
	DeleteMessage(ctx context.Context, messageID int, actorID int) (models.Message, error)
}

// ChatHandler exposes chat, membership and message endpoints.
type ChatHandler struct {
	chats chatService
	audit *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler. audit may be nil.
func NewChatHandler(chats chatService, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{chats: chats, audit: audit}
}

// ListChats returns the chats visible to the authenticated user.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetInt("userID")

	chats, err := h.chats.ListChats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// CreateChat opens a chat with the listed users, or returns the existing DM.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req struct {
		Name      *string `json:"name"`
		MemberIDs []int   `json:"member_ids" binding:"dive,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	chat, err := h.chats.CreateChat(c.Request.Context(), userID, req.Name, req.MemberIDs)
	if err != nil {
		auditFailure(c, h.audit, "create chat", err)
		respondError(c, err)
		return
	}

	emitAudit(c, h.audit, "INFO", "Chat opened")
	c.JSON(http.StatusOK, chat)
}

// GetChat returns a hydrated chat and marks it read for the caller.
func (h *ChatHandler) GetChat(c *gin.Context) {
	chatID, ok := parseIDParam(c, "chat_id", "chat")
	if !ok {
		return
	}

	chat, err := h.chats.GetChat(c.Request.Context(), chatID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// RenameChat changes the chat name.
func (h *ChatHandler) RenameChat(c *gin.Context) {
	chatID, ok := parseIDParam(c, "chat_id", "chat")
	if !ok {
		return
	}

	var req struct {
		Name *string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.chats.ChangeChatName(c.Request.Context(), chatID, c.GetInt("userID"), req.Name)
	if err != nil {
		auditFailure(c, h.audit, "rename chat", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// AddMember adds a user to a group chat; without a body the caller joins.
func (h *ChatHandler) AddMember(c *gin.Context) {
	chatID, ok := parseIDParam(c, "chat_id", "chat")
	if !ok {
		return
	}

	var req struct {
		UserID int `json:"user_id" binding:"omitempty,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	target := req.UserID
	if target == 0 {
		target = userID
	}

	member, err := h.chats.AddMember(c.Request.Context(), chatID, userID, target)
	if err != nil {
		auditFailure(c, h.audit, "add member", err)
		respondError(c, err)
		return
	}

	emitAudit(c, h.audit, "INFO", "Chat member added")
	c.JSON(http.StatusCreated, member)
}

// PostMessage stores a message in the chat.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	chatID, ok := parseIDParam(c, "chat_id", "chat")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chats.SendMessage(c.Request.Context(), chatID, c.GetInt("userID"), req.Content)
	if err != nil {
		auditFailure(c, h.audit, "send message", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// LeaveChat leaves a group chat or hides a DM for the caller.
func (h *ChatHandler) LeaveChat(c *gin.Context) {
	chatID, ok := parseIDParam(c, "chat_id", "chat")
	if !ok {
		return
	}

	member, err := h.chats.LeaveChat(c.Request.Context(), chatID, c.GetInt("userID"))
	if err != nil {
		auditFailure(c, h.audit, "leave chat", err)
		respondError(c, err)
		return
	}

	emitAudit(c, h.audit, "INFO", "Chat left")
	c.JSON(http.StatusOK, member)
}

// UnhideChat restores a hidden chat to the caller's list.
func (h *ChatHandler) UnhideChat(c *gin.Context) {
	chatID, ok := parseIDParam(c, "chat_id", "chat")
	if !ok {
		return
	}

	member, err := h.chats.UnhideChat(c.Request.Context(), chatID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// EditMessage replaces the content of the caller's message.
func (h *ChatHandler) EditMessage(c *gin.Context) {
	messageID, ok := parseIDParam(c, "message_id", "message")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chats.EditMessage(c.Request.Context(), messageID, c.GetInt("userID"), req.Content)
	if err != nil {
		auditFailure(c, h.audit, "edit message", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// DeleteMessage removes the caller's message and returns it.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	messageID, ok := parseIDParam(c, "message_id", "message")
	if !ok {
		return
	}

	msg, err := h.chats.DeleteMessage(c.Request.Context(), messageID, c.GetInt("userID"))
	if err != nil {
		auditFailure(c, h.audit, "delete message", err)
		respondError(c, err)
		return
	}

	emitAudit(c, h.audit, "INFO", "Message deleted")
	c.JSON(http.StatusOK, msg)
}

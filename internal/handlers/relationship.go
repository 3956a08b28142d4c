package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/models"
	"messenger-service/internal/telemetry"
)

type relationshipService interface {
	ListFriendships(ctx context.Context, userID int) ([]models.FriendshipView, error)
	CreateFriendship(ctx context.Context, requesterID int, receiverID int) (models.FriendshipView, error)
	AcceptFriendship(ctx context.Context, friendshipID int, actorID int) (models.Friendship, error)
	DeleteFriendship(ctx context.Context, friendshipID int, actorID int) (models.Friendship, error)
	ListBlocks(ctx context.Context, blockerID int) ([]models.BlockView, error)
	CreateBlock(ctx context.Context, blockerID int, blockedID int) (models.Block, error)
	DeleteBlock(ctx context.Context, blockerID int, blockedID int) (models.Block, error)
}

// RelationshipHandler exposes friendship and block endpoints.
type RelationshipHandler struct {
	relationships relationshipService
	audit         *telemetry.AuditEmitter
}

// NewRelationshipHandler builds a RelationshipHandler. audit may be nil.
func NewRelationshipHandler(relationships relationshipService, audit *telemetry.AuditEmitter) *RelationshipHandler {
	return &RelationshipHandler{relationships: relationships, audit: audit}
}

// ListFriendships handles GET /friendships.
func (h *RelationshipHandler) ListFriendships(c *gin.Context) {
	friendships, err := h.relationships.ListFriendships(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friendships": friendships})
}

// CreateFriendship handles POST /friendships.
func (h *RelationshipHandler) CreateFriendship(c *gin.Context) {
	var req struct {
		ReceiverID int `json:"receiver_id" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, err := h.relationships.CreateFriendship(c.Request.Context(), c.GetInt("userID"), req.ReceiverID)
	if err != nil {
		auditFailure(c, h.audit, "create friendship", err)
		respondError(c, err)
		return
	}

	emitAudit(c, h.audit, "INFO", "Friend request sent")
	c.JSON(http.StatusCreated, f)
}

// AcceptFriendship handles PUT /friendships/:friendship_id.
func (h *RelationshipHandler) AcceptFriendship(c *gin.Context) {
	friendshipID, ok := parseIDParam(c, "friendship_id", "friendship")
	if !ok {
		return
	}

	f, err := h.relationships.AcceptFriendship(c.Request.Context(), friendshipID, c.GetInt("userID"))
	if err != nil {
		auditFailure(c, h.audit, "accept friendship", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// DeleteFriendship handles DELETE /friendships/:friendship_id.
func (h *RelationshipHandler) DeleteFriendship(c *gin.Context) {
	friendshipID, ok := parseIDParam(c, "friendship_id", "friendship")
	if !ok {
		return
	}

	f, err := h.relationships.DeleteFriendship(c.Request.Context(), friendshipID, c.GetInt("userID"))
	if err != nil {
		auditFailure(c, h.audit, "delete friendship", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// ListBlocks handles GET /blocks.
func (h *RelationshipHandler) ListBlocks(c *gin.Context) {
	blocks, err := h.relationships.ListBlocks(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocks": blocks})
}

// CreateBlock handles POST /blocks.
func (h *RelationshipHandler) CreateBlock(c *gin.Context) {
	var req struct {
		UserID int `json:"user_id" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	block, err := h.relationships.CreateBlock(c.Request.Context(), c.GetInt("userID"), req.UserID)
	if err != nil {
		auditFailure(c, h.audit, "create block", err)
		respondError(c, err)
		return
	}

	emitAudit(c, h.audit, "INFO", "User blocked")
	c.JSON(http.StatusCreated, block)
}

// DeleteBlock handles DELETE /blocks/:user_id.
func (h *RelationshipHandler) DeleteBlock(c *gin.Context) {
	blockedID, ok := parseIDParam(c, "user_id", "user")
	if !ok {
		return
	}

	block, err := h.relationships.DeleteBlock(c.Request.Context(), c.GetInt("userID"), blockedID)
	if err != nil {
		auditFailure(c, h.audit, "delete block", err)
		respondError(c, err)
		return
	}

	emitAudit(c, h.audit, "INFO", "User unblocked")
	c.JSON(http.StatusOK, block)
}

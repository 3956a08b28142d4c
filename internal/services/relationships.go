package services

import (
	"context"
	"errors"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// BlockGate answers whether two users may message each other.
type BlockGate interface {
	IsBlocked(ctx context.Context, userA int, userB int) (bool, error)
}

// RelationshipService manages friendships and blocks, and gates messaging
// and friending on blocks.
type RelationshipService struct {
	repo   repositories.RelationshipRepository
	events EventPublisher
}

// NewRelationshipService constructs a RelationshipService. events may be nil.
func NewRelationshipService(repo repositories.RelationshipRepository, events EventPublisher) *RelationshipService {
	return &RelationshipService{repo: repo, events: events}
}

// IsBlocked reports whether a block exists between the pair in either direction.
func (s *RelationshipService) IsBlocked(ctx context.Context, userA int, userB int) (bool, error) {
	return s.repo.IsBlocked(ctx, userA, userB)
}

// ListFriendships returns the user's friendships and pending requests.
func (s *RelationshipService) ListFriendships(ctx context.Context, userID int) ([]models.FriendshipView, error) {
	return s.repo.ListFriendships(ctx, userID)
}

// CreateFriendship sends a friend request from requesterID to receiverID and
// returns it as the requester sees it.
func (s *RelationshipService) CreateFriendship(ctx context.Context, requesterID int, receiverID int) (f models.FriendshipView, err error) {
	ctx, span := tracer.Start(ctx, "relationships.create_friendship")
	defer func() { finish(span, "create_friendship", err) }()

	if requesterID == receiverID {
		return models.FriendshipView{}, newError(KindInvalidOperation, "Cannot send a friend request to yourself")
	}

	blocked, err := s.repo.IsBlocked(ctx, requesterID, receiverID)
	if err != nil {
		return models.FriendshipView{}, err
	}
	if blocked {
		return models.FriendshipView{}, newError(KindForbidden, "Cannot add friend while blocked")
	}

	_, err = s.repo.FindFriendship(ctx, requesterID, receiverID)
	switch {
	case err == nil:
		return models.FriendshipView{}, newError(KindInvalidOperation, "A friend request between these users already exists")
	case !errors.Is(err, repositories.ErrFriendshipNotFound):
		return models.FriendshipView{}, err
	}

	f, err = s.repo.CreateFriendship(ctx, requesterID, receiverID)
	switch {
	case errors.Is(err, repositories.ErrPairBlocked):
		return models.FriendshipView{}, newError(KindForbidden, "Cannot add friend while blocked")
	case errors.Is(err, repositories.ErrFriendshipExists):
		return models.FriendshipView{}, newError(KindInvalidOperation, "A friend request between these users already exists")
	case errors.Is(err, repositories.ErrUserNotFound):
		return models.FriendshipView{}, newError(KindNotFound, "User not found")
	case err != nil:
		return models.FriendshipView{}, err
	}

	publish(ctx, s.events, EventFriendshipCreated, models.Friendship{
		ID:          f.ID,
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Accepted:    f.Accepted,
		CreatedAt:   f.CreatedAt,
	})
	return f, nil
}

// AcceptFriendship accepts a pending request; only its receiver may do so.
func (s *RelationshipService) AcceptFriendship(ctx context.Context, friendshipID int, actorID int) (f models.Friendship, err error) {
	ctx, span := tracer.Start(ctx, "relationships.accept_friendship")
	defer func() { finish(span, "accept_friendship", err) }()

	request, err := s.repo.GetFriendship(ctx, friendshipID)
	if errors.Is(err, repositories.ErrFriendshipNotFound) {
		return models.Friendship{}, newError(KindNotFound, "Friend request not found")
	}
	if err != nil {
		return models.Friendship{}, err
	}
	if request.ReceiverID != actorID {
		return models.Friendship{}, newError(KindForbidden, "You are not authorized to accept this request")
	}

	f, err = s.repo.AcceptFriendship(ctx, friendshipID)
	switch {
	case errors.Is(err, repositories.ErrFriendshipNotFound):
		return models.Friendship{}, newError(KindNotFound, "Friend request not found")
	case errors.Is(err, repositories.ErrPairBlocked):
		return models.Friendship{}, newError(KindForbidden, "Cannot accept friend request while blocked")
	case err != nil:
		return models.Friendship{}, err
	}

	publish(ctx, s.events, EventFriendshipAccepted, f)
	return f, nil
}

// DeleteFriendship declines a request or unfriends; either party may do so.
func (s *RelationshipService) DeleteFriendship(ctx context.Context, friendshipID int, actorID int) (f models.Friendship, err error) {
	ctx, span := tracer.Start(ctx, "relationships.delete_friendship")
	defer func() { finish(span, "delete_friendship", err) }()

	request, err := s.repo.GetFriendship(ctx, friendshipID)
	if errors.Is(err, repositories.ErrFriendshipNotFound) {
		return models.Friendship{}, newError(KindNotFound, "Friend request not found")
	}
	if err != nil {
		return models.Friendship{}, err
	}
	if !request.Involves(actorID) {
		return models.Friendship{}, newError(KindForbidden, "You are not part of this friendship")
	}

	f, err = s.repo.DeleteFriendship(ctx, friendshipID)
	if errors.Is(err, repositories.ErrFriendshipNotFound) {
		return models.Friendship{}, newError(KindNotFound, "Friend request not found")
	}
	if err != nil {
		return models.Friendship{}, err
	}

	publish(ctx, s.events, EventFriendshipDeleted, f)
	return f, nil
}

// ListBlocks returns the blocks the user has created.
func (s *RelationshipService) ListBlocks(ctx context.Context, blockerID int) ([]models.BlockView, error) {
	return s.repo.ListBlocks(ctx, blockerID)
}

// CreateBlock blocks blockedID, dropping any friendship between the two in
// the same transaction.
func (s *RelationshipService) CreateBlock(ctx context.Context, blockerID int, blockedID int) (b models.Block, err error) {
	ctx, span := tracer.Start(ctx, "relationships.create_block")
	defer func() { finish(span, "create_block", err) }()

	if blockerID == blockedID {
		return models.Block{}, newError(KindInvalidOperation, "Cannot block yourself")
	}

	b, err = s.repo.CreateBlock(ctx, blockerID, blockedID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.Block{}, newError(KindNotFound, "User not found")
	}
	if err != nil {
		return models.Block{}, err
	}

	publish(ctx, s.events, EventBlockCreated, b)
	return b, nil
}

// DeleteBlock lifts a block previously created by blockerID.
func (s *RelationshipService) DeleteBlock(ctx context.Context, blockerID int, blockedID int) (b models.Block, err error) {
	ctx, span := tracer.Start(ctx, "relationships.delete_block")
	defer func() { finish(span, "delete_block", err) }()

	b, err = s.repo.DeleteBlock(ctx, blockerID, blockedID)
	if errors.Is(err, repositories.ErrBlockNotFound) {
		return models.Block{}, newError(KindNotFound, "Block not found")
	}
	if err != nil {
		return models.Block{}, err
	}

	publish(ctx, s.events, EventBlockDeleted, b)
	return b, nil
}

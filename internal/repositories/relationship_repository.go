package repositories

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"messenger-service/internal/models"
)

var (
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrFriendshipExists   = errors.New("friendship already exists")
	ErrBlockNotFound      = errors.New("block not found")
	ErrPairBlocked        = errors.New("users are blocked")
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// RelationshipRepository persists friendships and blocks between users.
type RelationshipRepository interface {
	IsBlocked(ctx context.Context, userA int, userB int) (bool, error)
	ListFriendships(ctx context.Context, userID int) ([]models.FriendshipView, error)
	GetFriendship(ctx context.Context, friendshipID int) (models.Friendship, error)
	FindFriendship(ctx context.Context, userA int, userB int) (models.Friendship, error)
	CreateFriendship(ctx context.Context, requesterID int, receiverID int) (models.FriendshipView, error)
	AcceptFriendship(ctx context.Context, friendshipID int) (models.Friendship, error)
	DeleteFriendship(ctx context.Context, friendshipID int) (models.Friendship, error)
	ListBlocks(ctx context.Context, blockerID int) ([]models.BlockView, error)
	CreateBlock(ctx context.Context, blockerID int, blockedID int) (models.Block, error)
	DeleteBlock(ctx context.Context, blockerID int, blockedID int) (models.Block, error)
}

// RelationshipRepo is a sqlx implementation of RelationshipRepository.
type RelationshipRepo struct {
	db *sqlx.DB
}

// NewRelationshipRepo constructs a RelationshipRepo.
func NewRelationshipRepo(db *sqlx.DB) *RelationshipRepo {
	return &RelationshipRepo{db: db}
}

// eitherWay matches a row linking a and b through colA/colB in any order.
func eitherWay(colA, colB string, a, b int) sq.Or {
	return sq.Or{
		sq.Eq{colA: a, colB: b},
		sq.Eq{colA: b, colB: a},
	}
}

// IsBlocked reports whether a block exists between the users in either direction.
func (r *RelationshipRepo) IsBlocked(ctx context.Context, userA int, userB int) (bool, error) {
	return blockExists(ctx, r.db, userA, userB)
}

func blockExists(ctx context.Context, q sqlx.QueryerContext, userA int, userB int) (bool, error) {
	inner, args, err := psql.Select("1").From("blocks").
		Where(eitherWay("blocker_id", "blocked_id", userA, userB)).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "build block query")
	}
	var blocked bool
	if err := sqlx.GetContext(ctx, q, &blocked, `SELECT EXISTS(`+inner+`)`, args...); err != nil {
		return false, errors.Wrap(err, "check block")
	}
	return blocked, nil
}

// lockPair takes a transaction-scoped advisory lock on the unordered pair.
// Every write that creates or upgrades a friendship, and every block, holds
// it, so a friendship and a block between the same users never coexist.
func lockPair(ctx context.Context, tx *sqlx.Tx, userA int, userB int) error {
	if userA > userB {
		userA, userB = userB, userA
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1::int, $2::int)`, userA, userB); err != nil {
		return errors.Wrap(err, "lock pair")
	}
	return nil
}

type friendshipRow struct {
	models.Friendship
	Requester models.UserRef `db:"requester"`
	Receiver  models.UserRef `db:"receiver"`
}

// ListFriendships returns every friendship involving the user, pending or
// accepted, seen from the user's side.
func (r *RelationshipRepo) ListFriendships(ctx context.Context, userID int) ([]models.FriendshipView, error) {
	query, args, err := psql.Select(
		"f.id", "f.requester_id", "f.receiver_id", "f.accepted", "f.created_at",
		`rq.id AS "requester.id"`, `rq.username AS "requester.username"`, `rq.last_seen AS "requester.last_seen"`,
		`rc.id AS "receiver.id"`, `rc.username AS "receiver.username"`, `rc.last_seen AS "receiver.last_seen"`,
	).
		From("friendships f").
		Join("users rq ON rq.id = f.requester_id").
		Join("users rc ON rc.id = f.receiver_id").
		Where(sq.Or{sq.Eq{"f.requester_id": userID}, sq.Eq{"f.receiver_id": userID}}).
		OrderBy("f.created_at DESC", "f.id DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build friendships query")
	}

	var rows []friendshipRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list friendships")
	}

	views := make([]models.FriendshipView, 0, len(rows))
	for _, row := range rows {
		view := models.FriendshipView{
			ID:          row.ID,
			Accepted:    row.Accepted,
			CreatedAt:   row.CreatedAt,
			IsRequester: row.RequesterID == userID,
			Friend:      row.Requester,
		}
		if view.IsRequester {
			view.Friend = row.Receiver
		}
		views = append(views, view)
	}
	return views, nil
}

// GetFriendship fetches a friendship by id.
func (r *RelationshipRepo) GetFriendship(ctx context.Context, friendshipID int) (models.Friendship, error) {
	var f models.Friendship
	err := r.db.GetContext(ctx, &f, `SELECT id, requester_id, receiver_id, accepted, created_at FROM friendships WHERE id = $1`, friendshipID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Friendship{}, ErrFriendshipNotFound
	}
	if err != nil {
		return models.Friendship{}, errors.Wrap(err, "get friendship")
	}
	return f, nil
}

// FindFriendship fetches the friendship between two users in either direction.
func (r *RelationshipRepo) FindFriendship(ctx context.Context, userA int, userB int) (models.Friendship, error) {
	query, args, err := psql.Select("id", "requester_id", "receiver_id", "accepted", "created_at").
		From("friendships").
		Where(eitherWay("requester_id", "receiver_id", userA, userB)).
		Limit(1).
		ToSql()
	if err != nil {
		return models.Friendship{}, errors.Wrap(err, "build friendship query")
	}
	var f models.Friendship
	err = r.db.GetContext(ctx, &f, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Friendship{}, ErrFriendshipNotFound
	}
	if err != nil {
		return models.Friendship{}, errors.Wrap(err, "find friendship")
	}
	return f, nil
}

// CreateFriendship stores a pending request and returns it as the requester
// sees it. A block between the pair yields ErrPairBlocked, and the
// unordered-pair index turns a concurrent duplicate into ErrFriendshipExists.
func (r *RelationshipRepo) CreateFriendship(ctx context.Context, requesterID int, receiverID int) (models.FriendshipView, error) {
	view := models.FriendshipView{IsRequester: true}
	err := inTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		if err := lockPair(ctx, tx, requesterID, receiverID); err != nil {
			return err
		}
		blocked, err := blockExists(ctx, tx, requesterID, receiverID)
		if err != nil {
			return err
		}
		if blocked {
			return ErrPairBlocked
		}

		var f models.Friendship
		err = tx.GetContext(ctx, &f, `INSERT INTO friendships (requester_id, receiver_id) VALUES ($1, $2)
            RETURNING id, requester_id, receiver_id, accepted, created_at`, requesterID, receiverID)
		switch {
		case isUniqueViolation(err):
			return ErrFriendshipExists
		case isForeignKeyViolation(err):
			return ErrUserNotFound
		case err != nil:
			return errors.Wrap(err, "create friendship")
		}

		if err := tx.GetContext(ctx, &view.Friend, `SELECT id, username, last_seen FROM users WHERE id = $1`, receiverID); err != nil {
			return errors.Wrap(err, "load receiver")
		}
		view.ID, view.Accepted, view.CreatedAt = f.ID, f.Accepted, f.CreatedAt
		return nil
	})
	if err != nil {
		return models.FriendshipView{}, err
	}
	return view, nil
}

// AcceptFriendship marks a request accepted unless a block now separates
// the pair, in which case it returns ErrPairBlocked.
func (r *RelationshipRepo) AcceptFriendship(ctx context.Context, friendshipID int) (models.Friendship, error) {
	current, err := r.GetFriendship(ctx, friendshipID)
	if err != nil {
		return models.Friendship{}, err
	}

	var f models.Friendship
	err = inTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		if err := lockPair(ctx, tx, current.RequesterID, current.ReceiverID); err != nil {
			return err
		}
		err := tx.GetContext(ctx, &f, `UPDATE friendships f SET accepted = TRUE
            WHERE f.id = $1 AND NOT EXISTS (
                SELECT 1 FROM blocks b
                WHERE (b.blocker_id = f.requester_id AND b.blocked_id = f.receiver_id)
                   OR (b.blocker_id = f.receiver_id AND b.blocked_id = f.requester_id))
            RETURNING f.id, f.requester_id, f.receiver_id, f.accepted, f.created_at`, friendshipID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return errors.Wrap(err, "accept friendship")
		}

		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM friendships WHERE id = $1)`, friendshipID); err != nil {
			return errors.Wrap(err, "check friendship")
		}
		if exists {
			return ErrPairBlocked
		}
		return ErrFriendshipNotFound
	})
	if err != nil {
		return models.Friendship{}, err
	}
	return f, nil
}

// DeleteFriendship removes a friendship or pending request.
func (r *RelationshipRepo) DeleteFriendship(ctx context.Context, friendshipID int) (models.Friendship, error) {
	var f models.Friendship
	err := r.db.GetContext(ctx, &f, `DELETE FROM friendships WHERE id = $1
        RETURNING id, requester_id, receiver_id, accepted, created_at`, friendshipID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Friendship{}, ErrFriendshipNotFound
	}
	if err != nil {
		return models.Friendship{}, errors.Wrap(err, "delete friendship")
	}
	return f, nil
}

type blockRow struct {
	ID        int            `db:"id"`
	CreatedAt time.Time      `db:"created_at"`
	Blocked   models.UserRef `db:"blocked"`
}

// ListBlocks returns the blocks created by blockerID.
func (r *RelationshipRepo) ListBlocks(ctx context.Context, blockerID int) ([]models.BlockView, error) {
	var rows []blockRow
	err := r.db.SelectContext(ctx, &rows, `SELECT b.id, b.created_at,
            u.id AS "blocked.id", u.username AS "blocked.username", u.last_seen AS "blocked.last_seen"
        FROM blocks b
        JOIN users u ON u.id = b.blocked_id
        WHERE b.blocker_id = $1
        ORDER BY b.created_at DESC, b.id DESC`, blockerID)
	if err != nil {
		return nil, errors.Wrap(err, "list blocks")
	}
	views := make([]models.BlockView, 0, len(rows))
	for _, row := range rows {
		views = append(views, models.BlockView{ID: row.ID, CreatedAt: row.CreatedAt, Blocked: row.Blocked})
	}
	return views, nil
}

// CreateBlock removes any friendship between the pair and records the block
// in one transaction under the pair lock. Blocking an already blocked user returns the existing block.
func (r *RelationshipRepo) CreateBlock(ctx context.Context, blockerID int, blockedID int) (models.Block, error) {
	del, args, err := psql.Delete("friendships").
		Where(eitherWay("requester_id", "receiver_id", blockerID, blockedID)).
		ToSql()
	if err != nil {
		return models.Block{}, errors.Wrap(err, "build friendship delete")
	}

	var block models.Block
	err = inTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		if err := lockPair(ctx, tx, blockerID, blockedID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, del, args...); err != nil {
			return errors.Wrap(err, "delete friendship")
		}
		err := tx.GetContext(ctx, &block, `INSERT INTO blocks (blocker_id, blocked_id) VALUES ($1, $2)
            ON CONFLICT (blocker_id, blocked_id) DO UPDATE SET blocker_id = EXCLUDED.blocker_id
            RETURNING id, blocker_id, blocked_id, created_at`, blockerID, blockedID)
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		if err != nil {
			return errors.Wrap(err, "insert block")
		}
		return nil
	})
	if err != nil {
		return models.Block{}, err
	}
	return block, nil
}

// DeleteBlock lifts a block. Only the blocker's direction is matched.
func (r *RelationshipRepo) DeleteBlock(ctx context.Context, blockerID int, blockedID int) (models.Block, error) {
	var block models.Block
	err := r.db.GetContext(ctx, &block, `DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2
        RETURNING id, blocker_id, blocked_id, created_at`, blockerID, blockedID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Block{}, ErrBlockNotFound
	}
	if err != nil {
		return models.Block{}, errors.Wrap(err, "delete block")
	}
	return block, nil
}

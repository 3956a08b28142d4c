package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"messenger-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, chat_id, user_id, content, sent_at`

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID int, authorID int, content string) (models.MessageView, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	UpdateContent(ctx context.Context, messageID int, content string) (models.Message, error)
	DeleteMessage(ctx context.Context, messageID int) (models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message and records it as new activity in one
// transaction. The chat row is updated first and stays locked until commit,
// which orders sends against HydrateChat. updated_at never moves backwards and
// the message takes it as its sent_at. Every other member gets one more
// unread message and has the chat unhidden.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID int, authorID int, content string) (models.MessageView, error) {
	var view models.MessageView
	err := inTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		var sentAt time.Time
		err := tx.GetContext(ctx, &sentAt, `UPDATE chats SET updated_at = GREATEST(updated_at, clock_timestamp())
            WHERE id = $1 RETURNING updated_at`, chatID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrChatNotFound
		}
		if err != nil {
			return errors.Wrap(err, "bump chat activity")
		}

		if err := tx.GetContext(ctx, &view.Message, `INSERT INTO messages (chat_id, user_id, content, sent_at) VALUES ($1, $2, $3, $4)
            RETURNING `+messageColumns, chatID, authorID, content, sentAt); err != nil {
			if isForeignKeyViolation(err) {
				return ErrUserNotFound
			}
			return errors.Wrap(err, "insert message")
		}

		if _, err := tx.ExecContext(ctx, `UPDATE chat_members SET unread_count = unread_count + 1, hidden = FALSE
            WHERE chat_id = $1 AND user_id <> $2`, chatID, authorID); err != nil {
			return errors.Wrap(err, "mark unread")
		}

		if err := tx.GetContext(ctx, &view.Author, `SELECT id, username FROM users WHERE id = $1`, authorID); err != nil {
			return errors.Wrap(err, "load author")
		}
		return nil
	})
	if err != nil {
		return models.MessageView{}, err
	}
	return view, nil
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, errors.Wrap(err, "get message")
	}
	return msg, nil
}

// UpdateContent replaces a message body. Chat activity is left untouched.
func (r *MessageRepo) UpdateContent(ctx context.Context, messageID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `UPDATE messages SET content = $2 WHERE id = $1 RETURNING `+messageColumns, messageID, content)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, errors.Wrap(err, "update message")
	}
	return msg, nil
}

// DeleteMessage removes a message permanently and returns the deleted row.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `DELETE FROM messages WHERE id = $1 RETURNING `+messageColumns, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, errors.Wrap(err, "delete message")
	}
	return msg, nil
}

package repositories

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"messenger-service/internal/models"
)

var (
	ErrChatNotFound     = errors.New("chat not found")
	ErrMemberNotFound   = errors.New("chat member not found")
	ErrMemberExists     = errors.New("user is already a chat member")
	ErrDirectChatExists = errors.New("direct chat already exists")
)

const chatColumns = `c.id, c.name, c.is_group, c.created_at, c.updated_at`

const memberViewQuery = `SELECT cm.chat_id, cm.user_id, cm.unread_count, cm.hidden,
        u.id AS "user.id", u.username AS "user.username", u.last_seen AS "user.last_seen"
    FROM chat_members cm
    JOIN users u ON u.id = cm.user_id`

const messageViewQuery = `SELECT m.id, m.chat_id, m.user_id, m.content, m.sent_at,
        u.id AS "author.id", COALESCE(u.username, '') AS "author.username"
    FROM messages m
    LEFT JOIN users u ON u.id = m.user_id`

// ChatRepository abstracts chat and membership persistence.
type ChatRepository interface {
	FindDirectChat(ctx context.Context, userA int, userB int) (models.Chat, error)
	CreateChat(ctx context.Context, name *string, isGroup bool, memberIDs []int) (models.Chat, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	ListMembers(ctx context.Context, chatID int) ([]models.ChatMember, error)
	GetMember(ctx context.Context, chatID int, userID int) (models.ChatMember, error)
	HydrateChat(ctx context.Context, chatID int, viewerID int) (models.ChatDetail, error)
	ListChatsForUser(ctx context.Context, userID int) ([]models.ChatSummary, error)
	AddMember(ctx context.Context, chatID int, userID int) (models.ChatMember, error)
	RemoveMember(ctx context.Context, chatID int, userID int) (models.ChatMember, error)
	SetHidden(ctx context.Context, chatID int, userID int, hidden bool) (models.ChatMember, error)
	RenameChat(ctx context.Context, chatID int, name *string) (models.Chat, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// FindDirectChat returns the oldest non-group chat whose membership is
// exactly {userA, userB}. Groups that merely contain both users never match.
func (r *ChatRepo) FindDirectChat(ctx context.Context, userA int, userB int) (models.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats c
        WHERE c.is_group = FALSE
        AND EXISTS (SELECT 1 FROM chat_members WHERE chat_id = c.id AND user_id = $1)
        AND EXISTS (SELECT 1 FROM chat_members WHERE chat_id = c.id AND user_id = $2)
        AND (SELECT COUNT(*) FROM chat_members WHERE chat_id = c.id) = 2
        ORDER BY c.created_at ASC, c.id ASC
        LIMIT 1`
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, query, userA, userB)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return models.Chat{}, errors.Wrap(err, "find direct chat")
	}
	return chat, nil
}

// CreateChat inserts the chat and one visible, fully-read membership per id
// atomically. A two-member non-group chat claims the pair's dm_key; losing
// that race yields ErrDirectChatExists.
func (r *ChatRepo) CreateChat(ctx context.Context, name *string, isGroup bool, memberIDs []int) (models.Chat, error) {
	var dmKey *string
	if !isGroup && len(memberIDs) == 2 {
		key := models.DMKey(memberIDs[0], memberIDs[1])
		dmKey = &key
	}

	var chat models.Chat
	err := inTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &chat, `INSERT INTO chats (name, is_group, dm_key) VALUES ($1, $2, $3)
            ON CONFLICT (dm_key) DO NOTHING
            RETURNING id, name, is_group, created_at, updated_at`, name, isGroup, dmKey)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDirectChatExists
		}
		if err != nil {
			return errors.Wrap(err, "insert chat")
		}

		for _, id := range memberIDs {
			if _, err := tx.ExecContext(ctx, `INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2)`, chat.ID, id); err != nil {
				if isForeignKeyViolation(err) {
					return ErrUserNotFound
				}
				return errors.Wrap(err, "insert chat member")
			}
		}
		return nil
	})
	if err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats c WHERE c.id = $1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return models.Chat{}, errors.Wrap(err, "get chat")
	}
	return chat, nil
}

// ListMembers returns the current membership rows of a chat.
func (r *ChatRepo) ListMembers(ctx context.Context, chatID int) ([]models.ChatMember, error) {
	var members []models.ChatMember
	err := r.db.SelectContext(ctx, &members, `SELECT chat_id, user_id, unread_count, hidden
        FROM chat_members WHERE chat_id = $1 ORDER BY user_id`, chatID)
	if err != nil {
		return nil, errors.Wrap(err, "list chat members")
	}
	return members, nil
}

// GetMember fetches one membership row.
func (r *ChatRepo) GetMember(ctx context.Context, chatID int, userID int) (models.ChatMember, error) {
	var member models.ChatMember
	err := r.db.GetContext(ctx, &member, `SELECT chat_id, user_id, unread_count, hidden
        FROM chat_members WHERE chat_id = $1 AND user_id = $2`, chatID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatMember{}, ErrMemberNotFound
	}
	if err != nil {
		return models.ChatMember{}, errors.Wrap(err, "get chat member")
	}
	return member, nil
}

// HydrateChat resets the viewer's unread counter and loads the chat with all
// members and messages in one transaction. It starts by share-locking the
// chat row, which CreateMessage updates before anything else, so a concurrent
// send is either fully visible here or starts after this commits.
func (r *ChatRepo) HydrateChat(ctx context.Context, chatID int, viewerID int) (models.ChatDetail, error) {
	var detail models.ChatDetail
	err := inTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &detail.Chat, `SELECT `+chatColumns+` FROM chats c WHERE c.id = $1 FOR SHARE`, chatID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrChatNotFound
			}
			return errors.Wrap(err, "lock chat")
		}

		res, err := tx.ExecContext(ctx, `UPDATE chat_members SET unread_count = 0 WHERE chat_id = $1 AND user_id = $2`, chatID, viewerID)
		if err != nil {
			return errors.Wrap(err, "reset unread count")
		}
		if n, err := res.RowsAffected(); err != nil {
			return errors.Wrap(err, "reset unread count")
		} else if n == 0 {
			return ErrMemberNotFound
		}

		if err := tx.SelectContext(ctx, &detail.Members, memberViewQuery+` WHERE cm.chat_id = $1 ORDER BY cm.user_id`, chatID); err != nil {
			return errors.Wrap(err, "load chat members")
		}
		if err := tx.SelectContext(ctx, &detail.Messages, messageViewQuery+` WHERE m.chat_id = $1 ORDER BY m.sent_at ASC, m.id ASC`, chatID); err != nil {
			return errors.Wrap(err, "load chat messages")
		}
		return nil
	})
	if err != nil {
		return models.ChatDetail{}, err
	}

	if detail.Members == nil {
		detail.Members = []models.MemberView{}
	}
	if detail.Messages == nil {
		detail.Messages = []models.MessageView{}
	}
	for i := range detail.Messages {
		fillAuthor(&detail.Messages[i])
	}
	return detail, nil
}

// ListChatsForUser returns the chats in which the user holds a visible
// membership, most recently active first, each with its members and latest
// message.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats, `SELECT `+chatColumns+` FROM chats c
        INNER JOIN chat_members cm ON cm.chat_id = c.id
        WHERE cm.user_id = $1 AND cm.hidden = FALSE
        ORDER BY c.updated_at DESC, c.id DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list chats")
	}
	result := make([]models.ChatSummary, 0, len(chats))
	if len(chats) == 0 {
		return result, nil
	}

	ids := make([]int, 0, len(chats))
	for _, c := range chats {
		ids = append(ids, c.ID)
	}

	query, args, err := sqlx.In(memberViewQuery+` WHERE cm.chat_id IN (?) ORDER BY cm.chat_id, cm.user_id`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "build members query")
	}
	var members []models.MemberView
	if err := r.db.SelectContext(ctx, &members, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "list chat members")
	}

	query, args, err = sqlx.In(`SELECT DISTINCT ON (m.chat_id) m.id, m.chat_id, m.user_id, m.content, m.sent_at,
            u.id AS "author.id", COALESCE(u.username, '') AS "author.username"
        FROM messages m
        LEFT JOIN users u ON u.id = m.user_id
        WHERE m.chat_id IN (?)
        ORDER BY m.chat_id, m.sent_at DESC, m.id DESC`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "build last message query")
	}
	var latest []models.MessageView
	if err := r.db.SelectContext(ctx, &latest, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "list last messages")
	}

	membersByChat := map[int][]models.MemberView{}
	for _, m := range members {
		membersByChat[m.ChatID] = append(membersByChat[m.ChatID], m)
	}
	latestByChat := map[int]models.MessageView{}
	for _, m := range latest {
		fillAuthor(&m)
		latestByChat[m.ChatID] = m
	}

	for _, c := range chats {
		summary := models.ChatSummary{Chat: c, Members: membersByChat[c.ID]}
		if summary.Members == nil {
			summary.Members = []models.MemberView{}
		}
		if msg, ok := latestByChat[c.ID]; ok {
			summary.LastMessage = &msg
		}
		result = append(result, summary)
	}
	return result, nil
}

// AddMember inserts a new visible membership.
func (r *ChatRepo) AddMember(ctx context.Context, chatID int, userID int) (models.ChatMember, error) {
	var member models.ChatMember
	err := r.db.GetContext(ctx, &member, `INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2)
        RETURNING chat_id, user_id, unread_count, hidden`, chatID, userID)
	switch {
	case err == nil:
		return member, nil
	case isUniqueViolation(err):
		return models.ChatMember{}, ErrMemberExists
	case isForeignKeyViolation(err):
		if err := chatExists(ctx, r.db, chatID); err != nil {
			return models.ChatMember{}, err
		}
		return models.ChatMember{}, ErrUserNotFound
	default:
		return models.ChatMember{}, errors.Wrap(err, "add chat member")
	}
}

// RemoveMember deletes a membership and returns the removed row.
func (r *ChatRepo) RemoveMember(ctx context.Context, chatID int, userID int) (models.ChatMember, error) {
	var member models.ChatMember
	err := r.db.GetContext(ctx, &member, `DELETE FROM chat_members WHERE chat_id = $1 AND user_id = $2
        RETURNING chat_id, user_id, unread_count, hidden`, chatID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatMember{}, ErrMemberNotFound
	}
	if err != nil {
		return models.ChatMember{}, errors.Wrap(err, "remove chat member")
	}
	return member, nil
}

// SetHidden updates the per-member hidden flag.
func (r *ChatRepo) SetHidden(ctx context.Context, chatID int, userID int, hidden bool) (models.ChatMember, error) {
	var member models.ChatMember
	err := r.db.GetContext(ctx, &member, `UPDATE chat_members SET hidden = $3 WHERE chat_id = $1 AND user_id = $2
        RETURNING chat_id, user_id, unread_count, hidden`, chatID, userID, hidden)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatMember{}, ErrMemberNotFound
	}
	if err != nil {
		return models.ChatMember{}, errors.Wrap(err, "set chat hidden")
	}
	return member, nil
}

// RenameChat replaces the chat name; nil clears it.
func (r *ChatRepo) RenameChat(ctx context.Context, chatID int, name *string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `UPDATE chats SET name = $2 WHERE id = $1
        RETURNING id, name, is_group, created_at, updated_at`, chatID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return models.Chat{}, errors.Wrap(err, "rename chat")
	}
	return chat, nil
}

func chatExists(ctx context.Context, q sqlx.QueryerContext, chatID int) error {
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS(SELECT 1 FROM chats WHERE id = $1)`, chatID); err != nil {
		return errors.Wrap(err, "check chat")
	}
	if !exists {
		return ErrChatNotFound
	}
	return nil
}

func fillAuthor(m *models.MessageView) {
	if m.Author.ID == nil {
		m.Author.Username = models.DeletedUsername
	}
}

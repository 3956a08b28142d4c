package models

import "time"

// MaxMessageLength is the longest accepted message body, in characters.
const MaxMessageLength = 2000

// Message is a chat message. UserID is nil once the author account is gone.
type Message struct {
	ID      int       `db:"id" json:"id"`
	ChatID  int       `db:"chat_id" json:"chat_id"`
	UserID  *int      `db:"user_id" json:"user_id"`
	Content string    `db:"content" json:"content"`
	SentAt  time.Time `db:"sent_at" json:"sent_at"`
}

// MessageView is a message joined to its author.
type MessageView struct {
	Message
	Author UserRef `db:"author" json:"author"`
}

// SentBy reports whether userID authored the message.
func (m Message) SentBy(userID int) bool {
	return m.UserID != nil && *m.UserID == userID
}

package models

import (
	"strconv"
	"time"
)

// MaxChatMembers caps the member count of any chat, the creator included.
const MaxChatMembers = 20

// Chat is either a one-to-one DM or a group chat.
type Chat struct {
	ID        int       `db:"id" json:"id"`
	Name      *string   `db:"name" json:"name"`
	IsGroup   bool      `db:"is_group" json:"is_group"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ChatMember is one user's private view of a shared chat.
type ChatMember struct {
	ChatID      int  `db:"chat_id" json:"chat_id"`
	UserID      int  `db:"user_id" json:"user_id"`
	UnreadCount int  `db:"unread_count" json:"unread_count"`
	Hidden      bool `db:"hidden" json:"hidden"`
}

// MemberView is a membership joined to the member's public profile.
type MemberView struct {
	ChatMember
	User UserRef `db:"user" json:"user"`
}

// ChatDetail is a hydrated chat: every member and every message, oldest first.
type ChatDetail struct {
	Chat
	Members  []MemberView  `json:"members"`
	Messages []MessageView `json:"messages"`
}

// ChatSummary is a list entry: every member and at most the latest message.
type ChatSummary struct {
	Chat
	Members     []MemberView `json:"members"`
	LastMessage *MessageView `json:"last_message,omitempty"`
}

// MemberIDs returns the user ids of the hydrated members.
func (d ChatDetail) MemberIDs() []int {
	ids := make([]int, 0, len(d.Members))
	for _, m := range d.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// DMKey is the unordered pair key stored on non-group two-member chats.
func DMKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return strconv.Itoa(a) + ":" + strconv.Itoa(b)
}

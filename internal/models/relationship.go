package models

import "time"

// Friendship is stored once per unordered pair.
type Friendship struct {
	ID          int       `db:"id" json:"id"`
	RequesterID int       `db:"requester_id" json:"requester_id"`
	ReceiverID  int       `db:"receiver_id" json:"receiver_id"`
	Accepted    bool      `db:"accepted" json:"accepted"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Involves reports whether userID is either side of the friendship.
func (f Friendship) Involves(userID int) bool {
	return f.RequesterID == userID || f.ReceiverID == userID
}

// FriendshipView is a friendship seen from one of its two users.
type FriendshipView struct {
	ID          int       `json:"id"`
	Friend      UserRef   `json:"friend"`
	Accepted    bool      `json:"accepted"`
	CreatedAt   time.Time `json:"created_at"`
	IsRequester bool      `json:"is_requester"`
}

// Block is directed: only the blocker can lift it, but it gates both sides.
type Block struct {
	ID        int       `db:"id" json:"id"`
	BlockerID int       `db:"blocker_id" json:"blocker_id"`
	BlockedID int       `db:"blocked_id" json:"blocked_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BlockView is a block joined to the blocked user's profile.
type BlockView struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Blocked   UserRef   `json:"blocked"`
}

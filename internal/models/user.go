package models

import "time"

// DeletedUsername is shown in place of an author whose account no longer exists.
const DeletedUsername = "Deleted User"

// User is owned by the account flow; the messaging core only references it.
type User struct {
	ID           int        `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	LastSeen     *time.Time `db:"last_seen" json:"last_seen"`
}

// UserRef is the public projection of a user joined onto other records.
type UserRef struct {
	ID       *int       `db:"id" json:"id"`
	Username string     `db:"username" json:"username"`
	LastSeen *time.Time `db:"last_seen" json:"last_seen,omitempty"`
}

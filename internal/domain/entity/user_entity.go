package entity

import (
	"time"
)

// User is the aggregate root for the user domain.
// Passwords are stored as bcrypt hashes in Password field.
//
// PlaceIDs is an ordered back-reference list: every id in it must name an
// existing Place whose CreatorID is this user, and vice versa. Only the
// place create/delete transactions may change either side.
type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	AvatarURL string
	PlaceIDs  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

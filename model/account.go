package model

import "time"

/*

Account is the credential row used by the self-hosted postgres store.
The supabase store never touches it, accounts live in the managed auth
service there.

Id: primary key (uuid), shared with the matching Profile
Email: login identifier, unique
PasswordHash: bcrypt hash of the password
CreatedAt: time when entity is created

*/
type Account struct {
	Id           string    `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

package model

import "time"

/*

Profile is the public identity of an account

Id: primary key, equals the auth account id (uuid)
Username: display name chosen at signup
AvatarUrl: url of the profile picture
CreatedAt: time when entity is created

*/
type Profile struct {
	Id        string    `gorm:"primaryKey" json:"id"`
	Username  string    `json:"username"`
	AvatarUrl string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionUser is the slice of a Profile kept in the session store for the
// lifetime of a login. It is never persisted by the application.
type SessionUser struct {
	Id        string `json:"id"`
	Username  string `json:"username"`
	AvatarUrl string `json:"avatar_url"`
}

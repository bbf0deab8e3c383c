package model

import "time"

/*

Like is a "user liked post" relation

UserID: user id
PostID: post id
CreatedAt: time when relation is created

The (UserID, PostID) pair is the composite primary key, so the database
enforces one like per user per post. Toggling relies on this constraint.

*/
type Like struct {
	UserID    string    `gorm:"primaryKey" json:"user_id"`
	PostID    int64     `gorm:"primaryKey" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

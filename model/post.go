package model

import "time"

/*

Post is a single message in the discussion tree

Id: primary key, auto-incrementing
UserId: id of the authoring profile, "belongs-to" relation
Username: denormalized author name, written at insert time so the feed
	does not need a join to render it
Content: message body in plain text
ParentId: nil for a top-level post, otherwise the id of the post this
	one replies to. Self-referential, no depth limit.
CreatedAt: time when the post is created

*/
type Post struct {
	Id        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserId    string    `gorm:"index;not null" json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	ParentId  *int64    `gorm:"index" json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedPost is a Post augmented with the author's avatar and the ids of
// users who liked it, as returned by the feed query.
type FeedPost struct {
	Post
	AvatarUrl   string   `json:"avatar_url"`
	LikeUserIds []string `json:"like_user_ids"`
}

// IsReply returns true iff the post has a parent.
func (p Post) IsReply() bool {
	return p.ParentId != nil
}

package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/xianrendesu-max/threts/model"
	"github.com/xianrendesu-max/threts/store"
)

// feedRow is a posts row with the PostgREST resource embeddings the feed
// query asks for: the author's profile and the like relations.
type feedRow struct {
	model.Post
	Profiles *struct {
		AvatarUrl string `json:"avatar_url"`
	} `json:"profiles"`
	Likes []struct {
		UserID string `json:"user_id"`
	} `json:"likes"`
}

func (c *Client) rest(ctx context.Context, method, table string, query url.Values, body interface{}, header http.Header) (*http.Response, error) {
	return c.do(ctx, method, "/rest/v1/"+table, query, body, header)
}

// restFailure normalizes a non-2xx PostgREST response.
func restFailure(res *http.Response, op string) error {
	if res.StatusCode < 500 {
		return store.Validation(errorMessage(res))
	}
	return errors.Wrapf(store.ErrUpstream, "%s: %s", op, errorMessage(res))
}

// FeedPosts fetches all top-level posts newest first, each with the
// author avatar and liker ids embedded, in one declarative query.
func (c *Client) FeedPosts(ctx context.Context) ([]model.FeedPost, error) {
	query := url.Values{
		"select":    []string{"*,profiles:user_id(avatar_url),likes(user_id)"},
		"parent_id": []string{"is.null"},
		"order":     []string{"created_at.desc"},
	}

	res, err := c.rest(ctx, http.MethodGet, "posts", query, nil, nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 300 {
		return nil, restFailure(res, "feed query")
	}

	var rows []feedRow
	if err := decodeInto(res, &rows); err != nil {
		return nil, err
	}

	posts := []model.FeedPost{}
	for _, row := range rows {
		p := model.FeedPost{Post: row.Post, LikeUserIds: []string{}}
		if row.Profiles != nil {
			p.AvatarUrl = row.Profiles.AvatarUrl
		}
		for _, like := range row.Likes {
			p.LikeUserIds = append(p.LikeUserIds, like.UserID)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// PostByID fetches one post, ErrNotFound when the id matches nothing.
func (c *Client) PostByID(ctx context.Context, id int64) (*model.Post, error) {
	query := url.Values{
		"id":    []string{fmt.Sprintf("eq.%d", id)},
		"limit": []string{"1"},
	}

	res, err := c.rest(ctx, http.MethodGet, "posts", query, nil, nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 300 {
		return nil, restFailure(res, "post query")
	}

	var rows []model.Post
	if err := decodeInto(res, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return &rows[0], nil
}

// CreatePost inserts a post row and reads back the assigned id.
func (c *Client) CreatePost(ctx context.Context, post *model.Post) error {
	row := map[string]interface{}{
		"user_id":   post.UserId,
		"username":  post.Username,
		"content":   post.Content,
		"parent_id": post.ParentId,
	}
	header := http.Header{"Prefer": []string{"return=representation"}}

	res, err := c.rest(ctx, http.MethodPost, "posts", nil, row, header)
	if err != nil {
		return err
	}
	if res.StatusCode >= 300 {
		return restFailure(res, "post insert")
	}

	var rows []model.Post
	if err := decodeInto(res, &rows); err != nil {
		return err
	}
	if len(rows) == 1 {
		*post = rows[0]
	}
	return nil
}

// PostsByUser fetches every post authored by userID, newest first.
func (c *Client) PostsByUser(ctx context.Context, userID string) ([]model.Post, error) {
	query := url.Values{
		"user_id": []string{"eq." + userID},
		"order":   []string{"created_at.desc"},
	}

	res, err := c.rest(ctx, http.MethodGet, "posts", query, nil, nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 300 {
		return nil, restFailure(res, "user posts query")
	}

	var rows []model.Post
	if err := decodeInto(res, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ProfileByID fetches one profile, ErrNotFound when missing.
func (c *Client) ProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	query := url.Values{
		"id":    []string{"eq." + id},
		"limit": []string{"1"},
	}

	res, err := c.rest(ctx, http.MethodGet, "profiles", query, nil, nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 300 {
		return nil, restFailure(res, "profile query")
	}

	var rows []model.Profile
	if err := decodeInto(res, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return &rows[0], nil
}

// ToggleLike inserts the like pair and, when the backend's uniqueness
// constraint reports a conflict, deletes the existing row instead. The
// constraint is what makes the toggle safe under concurrent requests;
// there is no read-then-write window here.
func (c *Client) ToggleLike(ctx context.Context, userID string, postID int64) (bool, error) {
	row := map[string]interface{}{"user_id": userID, "post_id": postID}

	res, err := c.rest(ctx, http.MethodPost, "likes", nil, row, nil)
	if err != nil {
		return false, err
	}

	switch {
	case res.StatusCode < 300:
		res.Body.Close()
		return true, nil
	case res.StatusCode == http.StatusConflict:
		res.Body.Close()
		return false, c.deleteLike(ctx, userID, postID)
	default:
		return false, restFailure(res, "like insert")
	}
}

func (c *Client) deleteLike(ctx context.Context, userID string, postID int64) error {
	query := url.Values{
		"user_id": []string{"eq." + userID},
		"post_id": []string{fmt.Sprintf("eq.%d", postID)},
	}

	res, err := c.rest(ctx, http.MethodDelete, "likes", query, nil, nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return restFailure(res, "like delete")
	}
	return nil
}

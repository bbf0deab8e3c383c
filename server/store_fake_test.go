package server

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xianrendesu-max/threts/model"
	"github.com/xianrendesu-max/threts/store"
)

// fakeStore is an in-memory store.Store used by the handler tests. It
// mirrors the backend contracts the handlers rely on: unique emails,
// unique like pairs, parent posts checked at insert.
type fakeStore struct {
	mu sync.Mutex

	nextPostId int64
	passwords  map[string]string // email -> password
	accountIds map[string]string // email -> account id
	profiles   map[string]model.Profile
	posts      map[int64]model.Post
	likes      map[string]bool // "userId/postId"

	// failWith, when set, makes every call fail with it.
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		passwords:  map[string]string{},
		accountIds: map[string]string{},
		profiles:   map[string]model.Profile{},
		posts:      map[int64]model.Post{},
		likes:      map[string]bool{},
	}
}

func likeKey(userID string, postID int64) string {
	return fmt.Sprintf("%s/%d", userID, postID)
}

func (f *fakeStore) SignUp(_ context.Context, email, password, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}

	if _, ok := f.accountIds[email]; ok {
		return store.Validation("User already registered")
	}

	id := fmt.Sprintf("user-%d", len(f.accountIds)+1)
	f.accountIds[email] = id
	f.passwords[email] = password
	f.profiles[id] = model.Profile{
		Id:        id,
		Username:  username,
		AvatarUrl: "https://robohash.org/" + username,
		CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeStore) SignIn(_ context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return "", f.failWith
	}

	id, ok := f.accountIds[email]
	if !ok || f.passwords[email] != password {
		return "", store.ErrInvalidCredentials
	}
	return id, nil
}

func (f *fakeStore) ProfileByID(_ context.Context, id string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}

	profile, ok := f.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &profile, nil
}

func (f *fakeStore) FeedPosts(_ context.Context) ([]model.FeedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}

	feed := []model.FeedPost{}
	for _, p := range f.posts {
		if p.ParentId != nil {
			continue
		}
		entry := model.FeedPost{Post: p, LikeUserIds: []string{}}
		if profile, ok := f.profiles[p.UserId]; ok {
			entry.AvatarUrl = profile.AvatarUrl
		}
		for key := range f.likes {
			parts := strings.SplitN(key, "/", 2)
			if parts[1] == fmt.Sprintf("%d", p.Id) {
				entry.LikeUserIds = append(entry.LikeUserIds, parts[0])
			}
		}
		feed = append(feed, entry)
	}
	sort.Slice(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	return feed, nil
}

func (f *fakeStore) PostByID(_ context.Context, id int64) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}

	post, ok := f.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &post, nil
}

func (f *fakeStore) CreatePost(_ context.Context, post *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}

	if post.ParentId != nil {
		if _, ok := f.posts[*post.ParentId]; !ok {
			return store.ErrNotFound
		}
	}

	f.nextPostId++
	post.Id = f.nextPostId
	// Monotonic timestamps so feed ordering is deterministic.
	post.CreatedAt = time.Unix(f.nextPostId, 0)
	f.posts[post.Id] = *post
	return nil
}

func (f *fakeStore) PostsByUser(_ context.Context, userID string) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}

	posts := []model.Post{}
	for _, p := range f.posts {
		if p.UserId == userID {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (f *fakeStore) ToggleLike(_ context.Context, userID string, postID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}

	key := likeKey(userID, postID)
	if f.likes[key] {
		delete(f.likes, key)
		return false, nil
	}
	f.likes[key] = true
	return true, nil
}

func (f *fakeStore) liked(userID string, postID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.likes[likeKey(userID, postID)]
}

// Package pg implements store.Store directly on a postgres database via
// gorm, for self-hosted deployments that do not use the managed backend.
// It owns what the managed backend otherwise owns: bcrypt credential
// hashing, profile provisioning at signup, and the constraints the rest
// of the application consumes as contracts (profile/parent foreign keys,
// unique like pairs).
package pg

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xianrendesu-max/threts/model"
	"github.com/xianrendesu-max/threts/store"
)

type Store struct {
	db *gorm.DB
}

// New wraps an already-open gorm connection. Callers get connections
// from utils.GetDBConnection and run Migrate once at startup.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema for every model this store owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Account{}, &model.Profile{}, &model.Post{}, &model.Like{})
}

// SignUp creates the account and its profile in one transaction, so a
// successful signup always has a profile row behind it.
func (s *Store) SignUp(ctx context.Context, email, password, username string) error {
	if email == "" || password == "" || username == "" {
		return store.Validation("email, password and username are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	id := uuid.New().String()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account := model.Account{
			Id:           id,
			Email:        email,
			PasswordHash: string(hash),
			CreatedAt:    time.Now(),
		}
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		profile := model.Profile{
			Id:        id,
			Username:  username,
			CreatedAt: time.Now(),
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return store.Validation("email already registered")
		}
		return errors.Wrapf(store.ErrUpstream, "signup: %v", err)
	}
	return nil
}

// SignIn verifies the password against the stored bcrypt hash.
func (s *Store) SignIn(ctx context.Context, email, password string) (string, error) {
	var account model.Account
	res := s.db.WithContext(ctx).Where("email = ?", email).First(&account)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return "", store.ErrInvalidCredentials
	}
	if res.Error != nil {
		return "", errors.Wrapf(store.ErrUpstream, "signin: %v", res.Error)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", store.ErrInvalidCredentials
	}
	return account.Id, nil
}

func (s *Store) ProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	res := s.db.WithContext(ctx).Where("id = ?", id).First(&profile)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if res.Error != nil {
		return nil, errors.Wrapf(store.ErrUpstream, "profile query: %v", res.Error)
	}
	return &profile, nil
}

// FeedPosts loads top-level posts newest first, then attaches avatars
// and liker ids with two batched lookups instead of a per-post query.
func (s *Store) FeedPosts(ctx context.Context) ([]model.FeedPost, error) {
	var posts []model.Post
	res := s.db.WithContext(ctx).
		Where("parent_id IS NULL").
		Order("created_at desc").
		Find(&posts)
	if res.Error != nil {
		return nil, errors.Wrapf(store.ErrUpstream, "feed query: %v", res.Error)
	}

	authorIds := []string{}
	postIds := []int64{}
	for _, p := range posts {
		authorIds = append(authorIds, p.UserId)
		postIds = append(postIds, p.Id)
	}

	avatars := map[string]string{}
	if len(authorIds) > 0 {
		var profiles []model.Profile
		if err := s.db.WithContext(ctx).Where("id IN ?", authorIds).Find(&profiles).Error; err != nil {
			return nil, errors.Wrapf(store.ErrUpstream, "feed avatars: %v", err)
		}
		for _, p := range profiles {
			avatars[p.Id] = p.AvatarUrl
		}
	}

	likers := map[int64][]string{}
	if len(postIds) > 0 {
		var likes []model.Like
		if err := s.db.WithContext(ctx).Where("post_id IN ?", postIds).Find(&likes).Error; err != nil {
			return nil, errors.Wrapf(store.ErrUpstream, "feed likes: %v", err)
		}
		for _, l := range likes {
			likers[l.PostID] = append(likers[l.PostID], l.UserID)
		}
	}

	feed := []model.FeedPost{}
	for _, p := range posts {
		likeUserIds := likers[p.Id]
		if likeUserIds == nil {
			likeUserIds = []string{}
		}
		feed = append(feed, model.FeedPost{
			Post:        p,
			AvatarUrl:   avatars[p.UserId],
			LikeUserIds: likeUserIds,
		})
	}
	return feed, nil
}

func (s *Store) PostByID(ctx context.Context, id int64) (*model.Post, error) {
	var post model.Post
	res := s.db.WithContext(ctx).Where("id = ?", id).First(&post)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if res.Error != nil {
		return nil, errors.Wrapf(store.ErrUpstream, "post query: %v", res.Error)
	}
	return &post, nil
}

// CreatePost validates the parent reference before insert so a reply
// can never point at a post that does not exist.
func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	if post.ParentId != nil {
		if _, err := s.PostByID(ctx, *post.ParentId); err != nil {
			return err
		}
	}

	post.CreatedAt = time.Now()
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return errors.Wrapf(store.ErrUpstream, "post insert: %v", err)
	}
	return nil
}

func (s *Store) PostsByUser(ctx context.Context, userID string) ([]model.Post, error) {
	posts := []model.Post{}
	res := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&posts)
	if res.Error != nil {
		return nil, errors.Wrapf(store.ErrUpstream, "user posts query: %v", res.Error)
	}
	return posts, nil
}

// ToggleLike inserts with ON CONFLICT DO NOTHING on the composite key.
// When no row was inserted the pair already existed, so the same call
// deletes it. The database serializes the two outcomes, there is no
// check-then-act window for concurrent toggles to race through.
func (s *Store) ToggleLike(ctx context.Context, userID string, postID int64) (bool, error) {
	like := model.Like{UserID: userID, PostID: postID, CreatedAt: time.Now()}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
	if res.Error != nil {
		return false, errors.Wrapf(store.ErrUpstream, "like insert: %v", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	del := s.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&model.Like{})
	if del.Error != nil {
		return false, errors.Wrapf(store.ErrUpstream, "like delete: %v", del.Error)
	}
	return false, nil
}

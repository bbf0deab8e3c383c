package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xianrendesu-max/threts/model"
	"github.com/xianrendesu-max/threts/server/middlewares"
	"github.com/xianrendesu-max/threts/session"
	"github.com/xianrendesu-max/threts/store"
	"github.com/xianrendesu-max/threts/utils"
	Logger "github.com/xianrendesu-max/threts/utils/log"
)

// feedEntry is a feed post prepared for rendering: like count and
// whether the viewing user already liked it.
type feedEntry struct {
	model.FeedPost
	LikeCount int
	LikedByMe bool
}

// Feed renders all top-level posts, newest first. A store failure
// degrades to an empty feed with a visible error instead of a crash.
func (s *Server) Feed(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	posts, err := s.Store.FeedPosts(c.Request.Context())
	if err != nil {
		Logger.Log.Errorf("feed fetch failed: %v", err)
		c.HTML(http.StatusOK, "index.html", gin.H{
			"User":  user,
			"Posts": []feedEntry{},
			"Error": "The feed is unavailable right now, try again shortly.",
		})
		return
	}

	entries := make([]feedEntry, 0, len(posts))
	for _, p := range posts {
		entries = append(entries, feedEntry{
			FeedPost:  p,
			LikeCount: len(p.LikeUserIds),
			LikedByMe: utils.ContainsString(p.LikeUserIds, user.Id),
		})
	}

	c.HTML(http.StatusOK, "index.html", gin.H{"User": user, "Posts": entries})
}

func (s *Server) SignupForm(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", gin.H{})
}

// Signup delegates account creation to the store, with the username as
// auxiliary profile data. Validation failures re-render the form with
// the backend's message.
func (s *Server) Signup(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	username := c.PostForm("username")

	err := s.Store.SignUp(c.Request.Context(), email, password, username)
	if err != nil {
		if ve, ok := store.AsValidation(err); ok {
			c.HTML(http.StatusBadRequest, "signup.html", gin.H{"Error": ve.Message})
			return
		}
		Logger.Log.Errorf("signup failed: %v", err)
		c.HTML(http.StatusBadGateway, "signup.html", gin.H{"Error": "Signup is unavailable right now."})
		return
	}

	c.Redirect(http.StatusFound, "/login")
}

func (s *Server) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

// Login verifies credentials, loads the matching profile and populates
// the session. A missing profile is a distinct auth outcome, not a nil
// dereference: the backend may still be provisioning it.
func (s *Server) Login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	ctx := c.Request.Context()
	accountID, err := s.Store.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			c.HTML(http.StatusUnauthorized, "login.html", gin.H{"Error": "Invalid email or password."})
			return
		}
		Logger.Log.Errorf("login failed: %v", err)
		c.HTML(http.StatusBadGateway, "login.html", gin.H{"Error": "Login is unavailable right now."})
		return
	}

	profile, err := s.Store.ProfileByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.HTML(http.StatusUnauthorized, "login.html", gin.H{"Error": "Your profile is still being set up, try again in a moment."})
			return
		}
		Logger.Log.Errorf("profile fetch after login failed: %v", err)
		c.HTML(http.StatusBadGateway, "login.html", gin.H{"Error": "Login is unavailable right now."})
		return
	}

	user := model.SessionUser{Id: profile.Id, Username: profile.Username, AvatarUrl: profile.AvatarUrl}
	sid, err := s.Sessions.Create(ctx, user)
	if err != nil {
		Logger.Log.Errorf("session create failed: %v", err)
		c.HTML(http.StatusBadGateway, "login.html", gin.H{"Error": "Login is unavailable right now."})
		return
	}

	token, err := s.Cookies.Encode(sid)
	if err != nil {
		Logger.Log.Errorf("session cookie encode failed: %v", err)
		c.HTML(http.StatusBadGateway, "login.html", gin.H{"Error": "Login is unavailable right now."})
		return
	}

	s.Cookies.SetCookie(c.Writer, token)
	c.Redirect(http.StatusFound, "/")
}

// Logout destroys the session if there is one and always redirects to
// login. Calling it without an active session is not an error.
func (s *Server) Logout(c *gin.Context) {
	if cookie, err := c.Cookie(session.CookieName); err == nil {
		if sid, err := s.Cookies.Decode(cookie); err == nil {
			if err := s.Sessions.Destroy(c.Request.Context(), sid); err != nil {
				Logger.Log.Errorf("session destroy failed: %v", err)
			}
		}
	}

	s.Cookies.ClearCookie(c.Writer)
	c.Redirect(http.StatusFound, "/login")
}

// ComposeForm renders the compose view, with the parent post as reply
// context when replyTo is present.
func (s *Server) ComposeForm(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	replyTo := c.Query("replyTo")

	var parent *model.Post
	if replyTo != "" {
		id, err := strconv.ParseInt(replyTo, 10, 64)
		if err != nil {
			s.notFound(c, "post")
			return
		}
		parent, err = s.Store.PostByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.notFound(c, "post")
				return
			}
			Logger.Log.Errorf("reply context fetch failed: %v", err)
			c.HTML(http.StatusBadGateway, "post.html", gin.H{"User": user, "ReplyTo": replyTo, "Error": "Could not load the post you are replying to."})
			return
		}
	}

	c.HTML(http.StatusOK, "post.html", gin.H{"User": user, "ReplyTo": replyTo, "ParentPost": parent})
}

// CreatePost inserts a new post owned by the session user. An absent or
// empty parent_id makes it top-level, otherwise it is a reply.
func (s *Server) CreatePost(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	content := c.PostForm("content")

	var parentId *int64
	if raw := c.PostForm("parent_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.HTML(http.StatusBadRequest, "post.html", gin.H{"User": user, "ReplyTo": "", "Error": "Invalid parent post."})
			return
		}
		parentId = &id
	}

	post := model.Post{
		UserId:   user.Id,
		Username: user.Username,
		Content:  content,
		ParentId: parentId,
	}
	if err := s.Store.CreatePost(c.Request.Context(), &post); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.notFound(c, "post")
			return
		}
		if ve, ok := store.AsValidation(err); ok {
			c.HTML(http.StatusBadRequest, "post.html", gin.H{"User": user, "ReplyTo": c.PostForm("parent_id"), "Error": ve.Message})
			return
		}
		Logger.Log.Errorf("post insert failed: %v", err)
		c.HTML(http.StatusBadGateway, "post.html", gin.H{"User": user, "ReplyTo": c.PostForm("parent_id"), "Error": "Posting is unavailable right now."})
		return
	}

	s.Notifier.PostCreated(c.Request.Context(), &post)
	c.Redirect(http.StatusFound, "/")
}

// Profile renders a profile and its posts, newest first. Without a path
// id it shows the session user's own profile.
func (s *Server) Profile(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	targetId := c.Param("id")
	if targetId == "" {
		targetId = user.Id
	}

	ctx := c.Request.Context()
	profile, err := s.Store.ProfileByID(ctx, targetId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.notFound(c, "profile")
			return
		}
		Logger.Log.Errorf("profile fetch failed: %v", err)
		c.HTML(http.StatusBadGateway, "notfound.html", gin.H{"Resource": "profile"})
		return
	}

	posts, err := s.Store.PostsByUser(ctx, targetId)
	if err != nil {
		Logger.Log.Errorf("profile posts fetch failed: %v", err)
		posts = []model.Post{}
	}

	c.HTML(http.StatusOK, "profile.html", gin.H{
		"User":    user,
		"Profile": profile,
		"Posts":   posts,
		"IsMe":    targetId == user.Id,
	})
}

// ToggleLike flips the like state for the session user on one post and
// acknowledges with JSON either way. Meant for asynchronous invocation
// from the feed view.
func (s *Server) ToggleLike(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	postId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}

	liked, err := s.Store.ToggleLike(c.Request.Context(), user.Id, postId)
	if err != nil {
		Logger.Log.Errorf("like toggle failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false})
		return
	}

	s.Notifier.LikeToggled(c.Request.Context(), user.Id, postId, liked)
	c.JSON(http.StatusOK, gin.H{"success": true, "liked": liked})
}

func (s *Server) notFound(c *gin.Context, resource string) {
	c.HTML(http.StatusNotFound, "notfound.html", gin.H{"Resource": resource})
}

// Package server wires the HTTP routes of the discussion app: feed,
// signup/login/logout, compose, profile and like toggling. Handlers are
// thin, each one is a straight-line sequence of one or two store calls
// and a render or redirect.
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"

	"github.com/xianrendesu-max/threts/notifier"
	"github.com/xianrendesu-max/threts/server/middlewares"
	"github.com/xianrendesu-max/threts/session"
	"github.com/xianrendesu-max/threts/store"
	Flag "github.com/xianrendesu-max/threts/utils/flag"
)

// Server holds every dependency the handlers need. It serves as
// dependency injection for the app, add any dependencies you require here.
type Server struct {
	Store    store.Store
	Sessions session.Store
	Cookies  *session.CookieCodec
	Notifier notifier.Notifier
}

// NewRouter builds the full route table. templatesGlob points at the
// html views; tests pass a relative glob into web/templates.
func NewRouter(s *Server, templatesGlob string) *gin.Engine {
	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()

	router.Use(cors.Default())
	router.Use(gintrace.Middleware(Flag.ServiceName))
	router.Use(middlewares.Metrics())
	router.LoadHTMLGlob(templatesGlob)

	guard := middlewares.Auth(s.Sessions, s.Cookies)

	router.GET("/", guard, s.Feed)
	router.GET("/signup", s.SignupForm)
	router.POST("/signup", s.Signup)
	router.GET("/login", s.LoginForm)
	router.POST("/login", s.Login)
	router.GET("/logout", s.Logout)
	router.GET("/post", guard, s.ComposeForm)
	router.POST("/post", guard, s.CreatePost)
	router.GET("/profile", guard, s.Profile)
	router.GET("/profile/:id", guard, s.Profile)
	router.POST("/like/:id", guard, s.ToggleLike)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	return router
}

package middlewares

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xianrendesu-max/threts/model"
	"github.com/xianrendesu-max/threts/session"
)

// UserKey is the gin context key the auth guard stores the session user
// under. Handlers read it through CurrentUser.
const UserKey = "session_user"

var requestCount = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "threts_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	},
	[]string{"path", "method", "status"},
)

func init() {
	prometheus.MustRegister(requestCount)
}

// Auth gates a route on an active session. It verifies the signed cookie,
// loads the session and exposes the user to the handler; any failure
// redirects to the login view without invoking the handler.
func Auth(sessions session.Store, codec *session.CookieCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(session.CookieName)
		if err != nil {
			redirectToLogin(c)
			return
		}

		sid, err := codec.Decode(cookie)
		if err != nil {
			redirectToLogin(c)
			return
		}

		user, ok, err := sessions.Get(c.Request.Context(), sid)
		if err != nil || !ok {
			redirectToLogin(c)
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

func redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, "/login")
	c.Abort()
}

// CurrentUser returns the session user the auth guard stored. Only valid
// on guarded routes.
func CurrentUser(c *gin.Context) model.SessionUser {
	value, _ := c.Get(UserKey)
	user, _ := value.(model.SessionUser)
	return user
}

// Metrics counts every request by route template, method and status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		requestCount.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

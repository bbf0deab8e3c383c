package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xianrendesu-max/threts/notifier"
	"github.com/xianrendesu-max/threts/session"
)

func newTestServer() (*Server, *fakeStore, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	fake := newFakeStore()
	s := &Server{
		Store:    fake,
		Sessions: session.NewMemoryStore(),
		Cookies:  session.NewCookieCodec("test-secret", false),
		Notifier: notifier.Noop{},
	}
	return s, fake, NewRouter(s, "../web/templates/*.html")
}

func doForm(router *gin.Engine, cookie *http.Cookie, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doGet(router *gin.Engine, cookie *http.Cookie, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// signupAndLogin runs the full signup+login flow and returns the session
// cookie for subsequent requests.
func signupAndLogin(t *testing.T, router *gin.Engine, email, password, username string) *http.Cookie {
	t.Helper()

	w := doForm(router, nil, "/signup", url.Values{
		"email":    {email},
		"password": {password},
		"username": {username},
	})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))

	w = doForm(router, nil, "/login", url.Values{
		"email":    {email},
		"password": {password},
	})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	return sessionCookie(t, w)
}

func TestGuardedRoutesRedirectWithoutSession(t *testing.T) {
	_, _, router := newTestServer()

	for _, path := range []string{"/", "/post", "/profile"} {
		w := doGet(router, nil, path)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}

	w := doForm(router, nil, "/like/1", url.Values{})
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestSignupLoginFeedScenario(t *testing.T) {
	_, _, router := newTestServer()

	cookie := signupAndLogin(t, router, "a@x.com", "pw123456", "alice")

	w := doGet(router, cookie, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestSignupDuplicateEmailRendersValidationMessage(t *testing.T) {
	_, _, router := newTestServer()

	form := url.Values{"email": {"a@x.com"}, "password": {"pw123456"}, "username": {"alice"}}
	w := doForm(router, nil, "/signup", form)
	require.Equal(t, http.StatusFound, w.Code)

	w = doForm(router, nil, "/signup", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "User already registered")
}

func TestLoginWrongPassword(t *testing.T) {
	_, _, router := newTestServer()
	signupAndLogin(t, router, "a@x.com", "pw123456", "alice")

	w := doForm(router, nil, "/login", url.Values{
		"email":    {"a@x.com"},
		"password": {"wrong"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")
}

func TestLoginWithoutProvisionedProfile(t *testing.T) {
	_, fake, router := newTestServer()
	signupAndLogin(t, router, "a@x.com", "pw123456", "alice")

	// Simulate the backend still provisioning the profile row.
	fake.mu.Lock()
	delete(fake.profiles, fake.accountIds["a@x.com"])
	fake.mu.Unlock()

	w := doForm(router, nil, "/login", url.Values{
		"email":    {"a@x.com"},
		"password": {"pw123456"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "still being set up")
}

func TestLogoutDestroysSession(t *testing.T) {
	_, _, router := newTestServer()
	cookie := signupAndLogin(t, router, "a@x.com", "pw123456", "alice")

	w := doGet(router, cookie, "/logout")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))

	// The old cookie no longer opens guarded routes.
	w = doGet(router, cookie, "/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// Logout without a session is not an error.
	w = doGet(router, nil, "/logout")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestComposeTopLevelPostAppearsFirst(t *testing.T) {
	_, _, router := newTestServer()
	cookie := signupAndLogin(t, router, "a@x.com", "pw123456", "alice")

	w := doForm(router, cookie, "/post", url.Values{"content": {"first post"}, "parent_id": {""}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	w = doForm(router, cookie, "/post", url.Values{"content": {"hello"}, "parent_id": {""}})
	require.Equal(t, http.StatusFound, w.Code)

	w = doGet(router, cookie, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "hello")
	assert.Contains(t, body, "first post")
	assert.Less(t, strings.Index(body, "hello"), strings.Index(body, "first post"),
		"newest post should render first")
}

func TestRepliesStayOutOfFeed(t *testing.T) {
	_, fake, router := newTestServer()
	cookie := signupAndLogin(t, router, "a@x.com", "pw123456", "alice")

	doForm(router, cookie, "/post", url.Values{"content": {"parent"}, "parent_id": {""}})
	w := doForm(router, cookie, "/post", url.Values{"content": {"the reply"}, "parent_id": {"1"}})
	require.Equal(t, http.StatusFound, w.Code)

	reply, err := fake.PostByID(nil, 2)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentId)
	assert.Equal(t, int64(1), *reply.ParentId)

	w = doGet(router, cookie, "/")
	assert.NotContains(t, w.Body.String(), "the reply")
}

func TestReplyToMissingPost(t *testing.T) {
	_, _, router := newTestServer()
	cookie := signupAndLogin(t, router, "a@x.com", "pw123456", "alice")

	w := doGet(router, cookie, "/post?replyTo=999")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doForm(router, cookie, "/post", url.Values{"content": {"orphan"}, "parent_id": {"999"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestComposeFormShowsReplyContext(t *testing.T) {
	_, _, router := newTestServer()
	cookie := signupAndLogin(t, router, "a@x.com", "pw123456", "alice")

	doForm(router, cookie, "/post", url.Values{"content": {"parent content"}, "parent_id": {""}})

	w := doGet(router, cookie, "/post?replyTo=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "parent content")
}

func TestLikeToggleParity(t *testing.T) {
	_, fake, router := newTestServer()
	cookie := signupAndLogin(t, router, "a@x.com", "pw123456", "alice")
	doForm(router, cookie, "/post", url.Values{"content": {"likeable"}, "parent_id": {""}})

	userId := fake.accountIds["a@x.com"]

	for n := 1; n <= 4; n++ {
		w := doForm(router, cookie, "/like/1", url.Values{})
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Success bool `json:"success"`
			Liked   bool `json:"liked"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, n%2 == 1, body.Liked, "toggle %d", n)
		assert.Equal(t, n%2 == 1, fake.liked(userId, 1), "toggle %d", n)
	}
}

func TestProfileOwnershipFlag(t *testing.T) {
	_, fake, router := newTestServer()
	cookie := signupAndLogin(t, router, "a@x.com", "pw123456", "alice")
	signupAndLogin(t, router, "b@x.com", "pw123456", "bob")

	w := doGet(router, cookie, "/profile")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "This is you")

	bobId := fake.accountIds["b@x.com"]
	w = doGet(router, cookie, "/profile/"+bobId)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bob")
	assert.NotContains(t, w.Body.String(), "This is you")
}

func TestProfileNotFound(t *testing.T) {
	_, _, router := newTestServer()
	cookie := signupAndLogin(t, router, "a@x.com", "pw123456", "alice")

	w := doGet(router, cookie, "/profile/no-such-user")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedDegradesOnStoreFailure(t *testing.T) {
	_, fake, router := newTestServer()
	cookie := signupAndLogin(t, router, "a@x.com", "pw123456", "alice")

	fake.mu.Lock()
	fake.failWith = assert.AnError
	fake.mu.Unlock()

	w := doGet(router, cookie, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}

func TestPing(t *testing.T) {
	_, _, router := newTestServer()

	w := doGet(router, nil, "/ping")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}

package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the browser cookie carrying the signed session id.
const CookieName = "threts_session"

var errBadToken = errors.New("session: invalid cookie token")

// CookieCodec signs session ids into cookie values and verifies them
// back. The payload is an HS256 JWT whose "sid" claim is the session id;
// a forged or expired cookie fails verification before the session store
// is ever consulted.
type CookieCodec struct {
	secret []byte
	secure bool
}

// NewCookieCodec builds a codec with the given signing secret. secure
// marks cookies Secure, which should be set everywhere but local dev.
func NewCookieCodec(secret string, secure bool) *CookieCodec {
	return &CookieCodec{secret: []byte(secret), secure: secure}
}

// Encode wraps a session id into a signed token.
func (c *CookieCodec) Encode(sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": time.Now().Add(TTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies a token and returns the session id inside it.
func (c *CookieCodec) Decode(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errBadToken
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", errBadToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errBadToken
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", errBadToken
	}
	return sid, nil
}

// SetCookie writes the session cookie on a response.
func (c *CookieCodec) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TTL / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
	})
}

// ClearCookie expires the session cookie on a response.
func (c *CookieCodec) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
	})
}

package supabase

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/xianrendesu-max/threts/store"
)

// SignUp creates an account through GoTrue. The username rides along as
// user metadata; the backend provisions the matching profile row from it
// (eventually consistent, login tolerates a short provisioning gap).
func (c *Client) SignUp(ctx context.Context, email, password, username string) error {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     map[string]string{"username": username},
	}

	res, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", nil, body, nil)
	if err != nil {
		return err
	}

	switch {
	case res.StatusCode < 300:
		res.Body.Close()
		return nil
	case res.StatusCode < 500:
		return store.Validation(errorMessage(res))
	default:
		return errors.Wrapf(store.ErrUpstream, "signup: %s", errorMessage(res))
	}
}

// SignIn exchanges credentials for a token through GoTrue's password
// grant and returns the account id.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	query := url.Values{"grant_type": []string{"password"}}
	body := map[string]string{"email": email, "password": password}

	res, err := c.do(ctx, http.MethodPost, "/auth/v1/token", query, body, nil)
	if err != nil {
		return "", err
	}

	switch {
	case res.StatusCode < 300:
		var grant struct {
			User struct {
				Id string `json:"id"`
			} `json:"user"`
		}
		if err := decodeInto(res, &grant); err != nil {
			return "", err
		}
		if grant.User.Id == "" {
			return "", errors.Wrap(store.ErrUpstream, "signin: token response without user id")
		}
		return grant.User.Id, nil
	case res.StatusCode < 500:
		res.Body.Close()
		return "", store.ErrInvalidCredentials
	default:
		return "", errors.Wrapf(store.ErrUpstream, "signin: %s", errorMessage(res))
	}
}

// Package supabase implements store.Store against a managed supabase
// backend: GoTrue for password auth and PostgREST for the relational
// data API. The client holds the project url and the anon key and sends
// both the apikey header and a bearer token on every call.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/xianrendesu-max/threts/store"
	Logger "github.com/xianrendesu-max/threts/utils/log"
)

// requestTimeout bounds every backend call so a hung backend fails the
// request instead of pinning it forever.
const requestTimeout = 10 * time.Second

type Client struct {
	baseUrl string
	anonKey string

	client *http.Client
}

// New creates a client for the given project url and anon key.
func New(baseUrl, anonKey string) *Client {
	return &Client{
		baseUrl: strings.TrimRight(baseUrl, "/"),
		anonKey: anonKey,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// NewFromEnv creates a client from SUPABASE_URL and SUPABASE_ANON_KEY.
func NewFromEnv() *Client {
	return New(os.Getenv("SUPABASE_URL"), os.Getenv("SUPABASE_ANON_KEY"))
}

// do issues one request against the backend. A non-nil body is JSON
// encoded. Returns the response for any HTTP status; only transport
// failures produce an error, normalized to store.ErrUpstream.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, header http.Header) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	uri := c.baseUrl + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		Logger.Log.Errorf("supabase %s %s failed: %v", method, path, err)
		return nil, errors.Wrapf(store.ErrUpstream, "%s %s: %v", method, path, err)
	}
	return res, nil
}

// errorMessage extracts the human readable message from a GoTrue or
// PostgREST error body. The two services disagree on the field name.
func errorMessage(res *http.Response) string {
	defer res.Body.Close()

	var payload struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	raw, err := io.ReadAll(res.Body)
	if err != nil || json.Unmarshal(raw, &payload) != nil {
		return res.Status
	}
	for _, m := range []string{payload.Msg, payload.Message, payload.ErrorDescription} {
		if m != "" {
			return m
		}
	}
	return res.Status
}

// decodeInto decodes a 2xx response body and closes it.
func decodeInto(res *http.Response, out interface{}) error {
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrapf(store.ErrUpstream, "decode response: %v", err)
	}
	return nil
}

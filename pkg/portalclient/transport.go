package portalclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// Transport decorates a base RoundTripper: it attaches the session's
// access token as a bearer credential and, on a 401, performs exactly
// one refresh and replays the original request. Repeated 401s after a
// replay propagate to the caller; there is no retry loop.
type Transport struct {
	// Base is the underlying transport; nil means http.DefaultTransport.
	Base http.RoundTripper

	// Session holds the token pair for this logged-in user.
	Session *Session

	// RefreshURL is the absolute URL of the refresh endpoint.
	RefreshURL string

	// refreshMu serializes refresh attempts so a burst of concurrent
	// 401s produces a single refresh call instead of a storm.
	refreshMu sync.Mutex
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	pair, held := t.Session.Pair()

	attempt := cloneWithAuth(req, pair.AccessToken, held)

	resp, err := t.base().RoundTrip(attempt)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || !held {
		return resp, nil
	}

	// the replay needs a rewindable body
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	newPair, refreshErr := t.refreshOnce(req, pair)

	if refreshErr != nil {
		// forced logout: the caller sees the original 401
		t.Session.Clear()
		return resp, nil
	}

	// single retry with the new access token
	resp.Body.Close()

	retry := cloneWithAuth(req, newPair.AccessToken, true)

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}

	return t.base().RoundTrip(retry)
}

// refreshOnce trades the refresh token for a new pair. Concurrent
// callers queue behind the mutex; whoever arrives after a successful
// refresh reuses the updated session instead of refreshing again.
func (t *Transport) refreshOnce(req *http.Request, used TokenPair) (TokenPair, error) {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	if current, ok := t.Session.Pair(); ok && current.AccessToken != used.AccessToken {
		return current, nil
	}

	payload, err := json.Marshal(map[string]string{
		"refreshToken": used.RefreshToken,
	})

	if err != nil {
		return TokenPair{}, err
	}

	refreshReq, err := http.NewRequestWithContext(req.Context(), http.MethodPost, t.RefreshURL, bytes.NewReader(payload))

	if err != nil {
		return TokenPair{}, err
	}

	refreshReq.Header.Set("Content-Type", "application/json")

	resp, err := t.base().RoundTrip(refreshReq)

	if err != nil {
		return TokenPair{}, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return TokenPair{}, fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	var body struct {
		Tokens TokenPair `json:"tokens"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return TokenPair{}, err
	}

	if body.Tokens.AccessToken == "" || body.Tokens.RefreshToken == "" {
		return TokenPair{}, fmt.Errorf("refresh response missing tokens")
	}

	t.Session.Set(body.Tokens)

	return body.Tokens, nil
}

// cloneWithAuth keeps the original request untouched so it can be
// replayed after a refresh.
func cloneWithAuth(req *http.Request, accessToken string, attach bool) *http.Request {
	out := req.Clone(req.Context())

	if attach {
		out.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return out
}

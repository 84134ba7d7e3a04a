package portalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// Client is a typed wrapper over the portal's user endpoints. One
// Client per logged-in user; Login populates its Session, Logout clears
// it.
type Client struct {
	baseURL string
	session *Session
	http    *http.Client
}

func New(baseURL string) *Client {
	session := NewSession()

	baseURL = strings.TrimRight(baseURL, "/")

	return &Client{
		baseURL: baseURL,
		session: session,
		http: &http.Client{
			Transport: &Transport{
				Session:    session,
				RefreshURL: baseURL + "/users/refresh-token",
			},
		},
	}
}

func (c *Client) Session() *Session {
	return c.session
}

type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	IsEmailVerified bool   `json:"isEmailVerified"`

	PhoneNumber    string  `json:"phoneNumber"`
	Program        string  `json:"program"`
	Department     string  `json:"department"`
	Semester       string  `json:"semester"`
	Batch          string  `json:"batch"`
	Address        string  `json:"address"`
	CNIC           string  `json:"cnic"`
	ProfilePicture *string `json:"profilePicture"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Program  string
	Dept     string
	Semester string
	Batch    string
	CNIC     string
	Address  string
}

type RegisterResult struct {
	Success   bool `json:"success"`
	EmailSent bool `json:"emailSent"`
	User      User `json:"user"`
}

// Register posts the multipart registration form (no avatar upload from
// this client).
func (c *Client) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"name":       in.Name,
		"email":      in.Email,
		"password":   in.Password,
		"phone":      in.Phone,
		"program":    in.Program,
		"department": in.Dept,
		"semester":   in.Semester,
		"batch":      in.Batch,
		"cnic":       in.CNIC,
		"address":    in.Address,
	}

	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return RegisterResult{}, err
		}
	}

	if err := w.Close(); err != nil {
		return RegisterResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/register", &buf)

	if err != nil {
		return RegisterResult{}, err
	}

	req.Header.Set("Content-Type", w.FormDataContentType())

	var out RegisterResult

	if err := c.do(req, http.StatusCreated, &out); err != nil {
		return RegisterResult{}, err
	}

	return out, nil
}

type loginResponse struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// Login authenticates and stores the returned token pair in the session.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/users/login", map[string]string{
		"email":    email,
		"password": password,
	})

	if err != nil {
		return User{}, err
	}

	var out loginResponse

	if err := c.do(req, http.StatusOK, &out); err != nil {
		return User{}, err
	}

	c.session.Set(out.Tokens)

	return out.User, nil
}

// VerifyEmail consumes a verification token from a mailed link.
func (c *Client) VerifyEmail(ctx context.Context, token string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/verify-email?token="+token, nil)

	if err != nil {
		return User{}, err
	}

	var out struct {
		User User `json:"user"`
	}

	if err := c.do(req, http.StatusOK, &out); err != nil {
		return User{}, err
	}

	return out.User, nil
}

// Profile fetches the authenticated user's profile; a stale access
// token is refreshed transparently by the transport.
func (c *Client) Profile(ctx context.Context) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/profile", nil)

	if err != nil {
		return User{}, err
	}

	var out struct {
		User User `json:"user"`
	}

	if err := c.do(req, http.StatusOK, &out); err != nil {
		return User{}, err
	}

	return out.User, nil
}

// Logout is client-side only: the server keeps no session state.
func (c *Client) Logout() {
	c.session.Clear()
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	b, err := json.Marshal(payload)

	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(b))

	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

// APIError carries the server's error envelope.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("portal: %s (%s, status %d)", e.Message, e.Code, e.StatusCode)
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.http.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		apiErr := &APIError{StatusCode: resp.StatusCode}

		var envelope struct {
			Error APIError `json:"error"`
		}

		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}

		io.Copy(io.Discard, resp.Body)

		return apiErr
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

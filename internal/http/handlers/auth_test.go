package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zamindar/collegeportal/internal/auth"
	"github.com/zamindar/collegeportal/internal/config"
	"github.com/zamindar/collegeportal/internal/domain/user"
	"github.com/zamindar/collegeportal/internal/http/handlers"
	"github.com/zamindar/collegeportal/internal/jobs"
	"github.com/zamindar/collegeportal/internal/mail"
	"github.com/zamindar/collegeportal/internal/repo/postgres"
	"github.com/zamindar/collegeportal/internal/security"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake implementations of the handlers.UserStore interface

type fakeUserStore struct {
	createFn        func(ctx context.Context, req user.CreateUserRequest) (user.User, error)
	getByEmailFn    func(ctx context.Context, email string) (user.User, error)
	getByIDFn       func(ctx context.Context, id string) (user.User, error)
	getByTokenFn    func(ctx context.Context, token string) (user.User, error)
	markVerifiedFn  func(ctx context.Context, id string) error
	setTokenFn      func(ctx context.Context, id, token string, expires time.Time) error
	updateLastLogin func(ctx context.Context, id string, at time.Time) error
}

func (f *fakeUserStore) Create(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return user.User{}, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, postgres.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return user.User{}, postgres.ErrUserNotFound
}

func (f *fakeUserStore) GetByVerificationToken(ctx context.Context, token string) (user.User, error) {
	if f.getByTokenFn != nil {
		return f.getByTokenFn(ctx, token)
	}
	return user.User{}, postgres.ErrTokenNotFound
}

func (f *fakeUserStore) MarkEmailVerified(ctx context.Context, id string) error {
	if f.markVerifiedFn != nil {
		return f.markVerifiedFn(ctx, id)
	}
	return nil
}

func (f *fakeUserStore) SetVerificationToken(ctx context.Context, id, token string, expires time.Time) error {
	if f.setTokenFn != nil {
		return f.setTokenFn(ctx, id, token, expires)
	}
	return nil
}

func (f *fakeUserStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if f.updateLastLogin != nil {
		return f.updateLastLogin(ctx, id, at)
	}
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []mail.VerificationEmail
}

func (f *fakeMailer) SendVerification(ctx context.Context, in mail.VerificationEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, in)
	return nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
}

func (f *fakeQueue) Enqueue(ctx context.Context, j jobs.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.jobs = append(f.jobs, j)
	return nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()

	return config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 15,
		JWTRefreshTTLDays:   7,
		VerifyTokenTTLHours: 24,
		PublicBaseURL:       "http://localhost:8080",
		FrontendURL:         "http://localhost:5173",
		UploadDir:           t.TempDir(),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testJWT(cfg config.Config) *auth.Manager {
	return auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
}

// small helper returning a gin engine that mounts one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func registerForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	return &buf, w.FormDataContentType()
}

// Registration tests

func TestRegister_Success(t *testing.T) {
	cfg := testConfig(t)

	var captured user.CreateUserRequest

	store := &fakeUserStore{
		createFn: func(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
			captured = req

			return user.User{
				ID:    "user-1",
				Name:  req.Name,
				Email: req.Email,
				Role:  req.Role,
			}, nil
		},
	}

	mailer := &fakeMailer{}
	queue := &fakeQueue{}

	h := handlers.NewAuthHandler(store, testJWT(cfg), mailer, queue, cfg, testLogger())

	body, contentType := registerForm(t, map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret1",
	})

	req := httptest.NewRequest(http.MethodPost, "/users/register", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	setupRouter(http.MethodPost, "/users/register", h.Register).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// password only ever stored hashed
	if captured.PasswordHash == "secret1" {
		t.Fatalf("password stored as plaintext")
	}
	if err := security.CheckPassword(captured.PasswordHash, "secret1"); err != nil {
		t.Fatalf("stored hash does not match the password: %v", err)
	}

	if captured.Role != user.RoleStudent {
		t.Fatalf("expected role defaulted to student, got %q", captured.Role)
	}

	if len(captured.VerificationToken) != 64 {
		t.Fatalf("expected 64-char verification token, got %d chars", len(captured.VerificationToken))
	}

	wantExpiry := time.Now().UTC().Add(24 * time.Hour)
	if diff := captured.TokenExpires.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("token expiry not ~24h ahead: %v", captured.TokenExpires)
	}

	var resp struct {
		Success   bool `json:"success"`
		EmailSent bool `json:"emailSent"`
		User      struct {
			ID              string `json:"id"`
			IsEmailVerified bool   `json:"isEmailVerified"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if !resp.Success || !resp.EmailSent {
		t.Fatalf("expected success with emailSent=true, got %+v", resp)
	}
	if resp.User.IsEmailVerified {
		t.Fatalf("fresh registration must not be verified")
	}

	if len(mailer.sent) != 1 || mailer.sent[0].Token != captured.VerificationToken {
		t.Fatalf("expected one mail carrying the stored token")
	}
	if len(queue.jobs) != 0 {
		t.Fatalf("nothing should be queued when the send works")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	cfg := testConfig(t)

	store := &fakeUserStore{
		createFn: func(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
			return user.User{}, postgres.ErrEmailAlreadyUsed
		},
	}

	h := handlers.NewAuthHandler(store, testJWT(cfg), &fakeMailer{}, &fakeQueue{}, cfg, testLogger())

	body, contentType := registerForm(t, map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret1",
	})

	req := httptest.NewRequest(http.MethodPost, "/users/register", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	setupRouter(http.MethodPost, "/users/register", h.Register).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "email_taken") {
		t.Fatalf("expected email_taken code, got %s", rec.Body.String())
	}
}

func TestRegister_ValidationFailure(t *testing.T) {
	cfg := testConfig(t)

	h := handlers.NewAuthHandler(&fakeUserStore{}, testJWT(cfg), &fakeMailer{}, &fakeQueue{}, cfg, testLogger())

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"missing email", map[string]string{"name": "Alice", "password": "secret1"}},
		{"bad email", map[string]string{"name": "Alice", "email": "nope", "password": "secret1"}},
		{"short password", map[string]string{"name": "Alice", "email": "a@b.com", "password": "abc"}},
		{"unknown role", map[string]string{"name": "Alice", "email": "a@b.com", "password": "secret1", "role": "superuser"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := registerForm(t, tc.fields)

			req := httptest.NewRequest(http.MethodPost, "/users/register", body)
			req.Header.Set("Content-Type", contentType)

			rec := httptest.NewRecorder()
			setupRouter(http.MethodPost, "/users/register", h.Register).ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRegister_MailFailureStillCreatesUser(t *testing.T) {
	cfg := testConfig(t)

	created := 0

	store := &fakeUserStore{
		createFn: func(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
			created++
			return user.User{ID: "user-1", Name: req.Name, Email: req.Email}, nil
		},
	}

	mailer := &fakeMailer{err: errors.New("provider down")}
	queue := &fakeQueue{}

	h := handlers.NewAuthHandler(store, testJWT(cfg), mailer, queue, cfg, testLogger())

	body, contentType := registerForm(t, map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret1",
	})

	req := httptest.NewRequest(http.MethodPost, "/users/register", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	setupRouter(http.MethodPost, "/users/register", h.Register).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("mail outage must not fail registration, got %d", rec.Code)
	}
	if created != 1 {
		t.Fatalf("expected exactly one user row, got %d", created)
	}

	var resp struct {
		EmailSent bool `json:"emailSent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.EmailSent {
		t.Fatalf("expected emailSent=false")
	}

	if len(queue.jobs) != 1 {
		t.Fatalf("expected failed send queued for retry, got %d jobs", len(queue.jobs))
	}
	if queue.jobs[0].Type != jobs.JobSendVerificationEmail {
		t.Fatalf("unexpected job type %q", queue.jobs[0].Type)
	}
}

// Email verification tests

func verifiedUser(verified bool, expires time.Time) user.User {
	token := "sometoken"
	exp := expires

	return user.User{
		ID:                "user-1",
		Name:              "Alice",
		Email:             "alice@example.com",
		IsEmailVerified:   verified,
		VerificationToken: &token,
		TokenExpires:      &exp,
	}
}

func TestVerifyEmail(t *testing.T) {
	cfg := testConfig(t)

	tests := []struct {
		name       string
		url        string
		store      *fakeUserStore
		wantStatus int
		wantCode   string
	}{
		{
			name: "success flips flag and clears token",
			url:  "/users/verify-email?token=sometoken",
			store: &fakeUserStore{
				getByTokenFn: func(ctx context.Context, token string) (user.User, error) {
					return verifiedUser(false, time.Now().UTC().Add(time.Hour)), nil
				},
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing token",
			url:        "/users/verify-email",
			store:      &fakeUserStore{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "token_required",
		},
		{
			name: "unknown token",
			url:  "/users/verify-email?token=bogus",
			store: &fakeUserStore{
				getByTokenFn: func(ctx context.Context, token string) (user.User, error) {
					return user.User{}, postgres.ErrTokenNotFound
				},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "token_not_found",
		},
		{
			name: "expired token",
			url:  "/users/verify-email?token=sometoken",
			store: &fakeUserStore{
				getByTokenFn: func(ctx context.Context, token string) (user.User, error) {
					return verifiedUser(false, time.Now().UTC().Add(-time.Minute)), nil
				},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "token_expired",
		},
		{
			name: "already verified",
			url:  "/users/verify-email?token=sometoken",
			store: &fakeUserStore{
				getByTokenFn: func(ctx context.Context, token string) (user.User, error) {
					return verifiedUser(true, time.Now().UTC().Add(time.Hour)), nil
				},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "already_verified",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marked := false
			tc.store.markVerifiedFn = func(ctx context.Context, id string) error {
				marked = true
				return nil
			}

			h := handlers.NewAuthHandler(tc.store, testJWT(cfg), &fakeMailer{}, &fakeQueue{}, cfg, testLogger())

			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rec := httptest.NewRecorder()
			setupRouter(http.MethodGet, "/users/verify-email", h.VerifyEmail).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}

			if tc.wantCode != "" && !strings.Contains(rec.Body.String(), tc.wantCode) {
				t.Fatalf("expected code %q in %s", tc.wantCode, rec.Body.String())
			}

			if tc.wantStatus == http.StatusOK {
				if !marked {
					t.Fatalf("expected MarkEmailVerified to be called")
				}
				if !strings.Contains(rec.Body.String(), `"isEmailVerified":true`) {
					t.Fatalf("expected verified summary, got %s", rec.Body.String())
				}
			} else if marked {
				t.Fatalf("MarkEmailVerified must not run on failure")
			}
		})
	}
}

// Login tests

func loginJSON(t *testing.T, h gin.HandlerFunc, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		t.Fatalf("marshal login body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/users/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	setupRouter(http.MethodPost, "/users/login", h).ServeHTTP(rec, req)

	return rec
}

func storedAlice(t *testing.T) user.User {
	t.Helper()

	hash, err := security.HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	return user.User{
		ID:           "user-1",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		Role:         user.RoleStudent,
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	cfg := testConfig(t)

	h := handlers.NewAuthHandler(&fakeUserStore{}, testJWT(cfg), &fakeMailer{}, &fakeQueue{}, cfg, testLogger())

	rec := loginJSON(t, h.Login, "nobody@example.com", "secret1")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "user_not_found") {
		t.Fatalf("expected user_not_found, got %s", rec.Body.String())
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	cfg := testConfig(t)
	alice := storedAlice(t)

	store := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return alice, nil
		},
	}

	h := handlers.NewAuthHandler(store, testJWT(cfg), &fakeMailer{}, &fakeQueue{}, cfg, testLogger())

	rec := loginJSON(t, h.Login, "alice@example.com", "wrong-password")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_credentials") {
		t.Fatalf("expected invalid_credentials, got %s", rec.Body.String())
	}
}

func TestLogin_Success(t *testing.T) {
	cfg := testConfig(t)
	alice := storedAlice(t)

	lastLoginSet := false

	store := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return alice, nil
		},
		updateLastLogin: func(ctx context.Context, id string, at time.Time) error {
			lastLoginSet = true
			return nil
		},
	}

	jwtManager := testJWT(cfg)
	h := handlers.NewAuthHandler(store, jwtManager, &fakeMailer{}, &fakeQueue{}, cfg, testLogger())

	rec := loginJSON(t, h.Login, "alice@example.com", "secret1")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !lastLoginSet {
		t.Fatalf("expected last_login update")
	}

	var resp struct {
		Tokens struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	claims, err := jwtManager.VerifyAccessToken(resp.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify issued access token: %v", err)
	}
	if claims.UserID != alice.ID {
		t.Fatalf("access token subject %q, want %q", claims.UserID, alice.ID)
	}

	if _, err := jwtManager.VerifyRefreshToken(resp.Tokens.RefreshToken); err != nil {
		t.Fatalf("verify issued refresh token: %v", err)
	}
}

// Refresh tests

func refreshJSON(t *testing.T, h gin.HandlerFunc, refreshToken string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		t.Fatalf("marshal refresh body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/users/refresh-token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	setupRouter(http.MethodPost, "/users/refresh-token", h).ServeHTTP(rec, req)

	return rec
}

func TestRefresh(t *testing.T) {
	cfg := testConfig(t)
	jwtManager := testJWT(cfg)
	alice := storedAlice(t)

	aliceStore := &fakeUserStore{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			if id == alice.ID {
				return alice, nil
			}
			return user.User{}, postgres.ErrUserNotFound
		},
	}

	validRefresh, err := jwtManager.GenerateRefreshToken(alice.ID, alice.Email, alice.Role)
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}

	accessAsRefresh, err := jwtManager.GenerateAccessToken(alice.ID, alice.Email, alice.Role)
	if err != nil {
		t.Fatalf("generate access: %v", err)
	}

	expiredManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), -time.Minute)
	expiredRefresh, err := expiredManager.GenerateRefreshToken(alice.ID, alice.Email, alice.Role)
	if err != nil {
		t.Fatalf("generate expired refresh: %v", err)
	}

	tests := []struct {
		name       string
		token      string
		store      *fakeUserStore
		wantStatus int
		wantCode   string
	}{
		{"valid refresh", validRefresh, aliceStore, http.StatusOK, ""},
		{"access token rejected", accessAsRefresh, aliceStore, http.StatusUnauthorized, "invalid_refresh"},
		{"expired refresh", expiredRefresh, aliceStore, http.StatusUnauthorized, "expired_refresh"},
		{"deleted user", validRefresh, &fakeUserStore{}, http.StatusUnauthorized, "invalid_refresh"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := handlers.NewAuthHandler(tc.store, jwtManager, &fakeMailer{}, &fakeQueue{}, cfg, testLogger())

			rec := refreshJSON(t, h.Refresh, tc.token)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
			if tc.wantCode != "" && !strings.Contains(rec.Body.String(), tc.wantCode) {
				t.Fatalf("expected code %q in %s", tc.wantCode, rec.Body.String())
			}

			if tc.wantStatus == http.StatusOK {
				var resp struct {
					Tokens struct {
						AccessToken  string `json:"accessToken"`
						RefreshToken string `json:"refreshToken"`
					} `json:"tokens"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if _, err := jwtManager.VerifyAccessToken(resp.Tokens.AccessToken); err != nil {
					t.Fatalf("new access token invalid: %v", err)
				}
			}
		})
	}
}

// Resend verification tests

func TestResendVerification(t *testing.T) {
	cfg := testConfig(t)

	unverified := storedAlice(t)
	verified := storedAlice(t)
	verified.IsEmailVerified = true

	t.Run("rotates token and sends", func(t *testing.T) {
		var rotatedToken string

		store := &fakeUserStore{
			getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
				return unverified, nil
			},
			setTokenFn: func(ctx context.Context, id, token string, expires time.Time) error {
				rotatedToken = token
				return nil
			},
		}

		mailer := &fakeMailer{}
		h := handlers.NewAuthHandler(store, testJWT(cfg), mailer, &fakeQueue{}, cfg, testLogger())

		body, _ := json.Marshal(map[string]string{"email": "alice@example.com"})
		req := httptest.NewRequest(http.MethodPost, "/users/resend-verification", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		setupRouter(http.MethodPost, "/users/resend-verification", h.ResendVerification).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if rotatedToken == "" {
			t.Fatalf("expected a fresh token stored")
		}
		if len(mailer.sent) != 1 || mailer.sent[0].Token != rotatedToken {
			t.Fatalf("expected mail carrying the rotated token")
		}
	})

	t.Run("already verified rejected", func(t *testing.T) {
		store := &fakeUserStore{
			getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
				return verified, nil
			},
		}

		h := handlers.NewAuthHandler(store, testJWT(cfg), &fakeMailer{}, &fakeQueue{}, cfg, testLogger())

		body, _ := json.Marshal(map[string]string{"email": "alice@example.com"})
		req := httptest.NewRequest(http.MethodPost, "/users/resend-verification", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		setupRouter(http.MethodPost, "/users/resend-verification", h.ResendVerification).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "already_verified") {
			t.Fatalf("expected already_verified, got %s", rec.Body.String())
		}
	})
}

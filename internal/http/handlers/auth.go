package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zamindar/collegeportal/internal/auth"
	"github.com/zamindar/collegeportal/internal/config"
	"github.com/zamindar/collegeportal/internal/domain/user"
	"github.com/zamindar/collegeportal/internal/jobs"
	"github.com/zamindar/collegeportal/internal/mail"
	"github.com/zamindar/collegeportal/internal/repo/postgres"
	"github.com/zamindar/collegeportal/internal/security"
)

type UserStore interface {
	Create(ctx context.Context, req user.CreateUserRequest) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByVerificationToken(ctx context.Context, token string) (user.User, error)
	MarkEmailVerified(ctx context.Context, id string) error
	SetVerificationToken(ctx context.Context, id, token string, expires time.Time) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// MailEnqueuer pushes failed deliveries onto the retry queue. Optional:
// a nil enqueuer means failed sends are only reported, never retried.
type MailEnqueuer interface {
	Enqueue(ctx context.Context, j jobs.Job) error
}

type AuthHandler struct {
	users  UserStore
	jwt    *auth.Manager
	mailer mail.Mailer
	queue  MailEnqueuer
	cfg    config.Config
	log    *slog.Logger
}

func NewAuthHandler(users UserStore, jwtManager *auth.Manager, mailer mail.Mailer, queue MailEnqueuer, cfg config.Config, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		jwt:    jwtManager,
		mailer: mailer,
		queue:  queue,
		cfg:    cfg,
		log:    log,
	}
}

type RegisterRequest struct {
	Name     string `form:"name" binding:"required,min=2"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=6"`
	Phone    string `form:"phone" binding:"omitempty,max=20"`
	CNIC     string `form:"cnic" binding:"omitempty,max=20"`
	Program  string `form:"program" binding:"omitempty,max=50"`
	Dept     string `form:"department" binding:"omitempty,max=100"`
	Semester string `form:"semester" binding:"omitempty,max=20"`
	Batch    string `form:"batch" binding:"omitempty,max=20"`
	Address  string `form:"address"`
	Role     string `form:"role" binding:"omitempty,oneof=student teacher admin"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// minimal summary returned by register/verify; the full profile comes
// back from login/profile.
func userSummary(u user.User) gin.H {
	return gin.H{
		"id":              u.ID,
		"name":            u.Name,
		"email":           u.Email,
		"isEmailVerified": u.IsEmailVerified,
	}
}

// Register creates the user row and dispatches the verification mail.
// Mail dispatch failing does NOT roll the account back: the response
// carries emailSent=false and the payload goes to the retry queue.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindForm(ctx, &req) {
		return
	}

	role := user.Role(req.Role)

	if role == "" {
		role = user.RoleStudent
	}

	avatarPath, err := saveAvatar(ctx, h.cfg.UploadDir)

	if err != nil {
		RespondBadRequest(ctx, "invalid_avatar", err.Error(), nil)
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	token, err := security.NewVerificationToken()

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.users.Create(cctx, user.CreateUserRequest{
		Name:              req.Name,
		Email:             req.Email,
		Phone:             req.Phone,
		PasswordHash:      hash,
		Role:              role,
		Department:        req.Dept,
		Program:           req.Program,
		Semester:          req.Semester,
		Batch:             req.Batch,
		CNIC:              req.CNIC,
		Address:           req.Address,
		Avatar:            avatarPath,
		VerificationToken: token,
		TokenExpires:      time.Now().UTC().Add(h.cfg.VerifyTokenTTL()),
	})

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "Email already registered")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	emailSent := h.dispatchVerification(ctx.Request.Context(), u, token)

	message := "User registered successfully. Please check your email to verify your account."

	if !emailSent {
		message = "User registered successfully, but the verification email could not be sent. Please request a resend."
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   message,
		"user":      userSummary(u),
		"emailSent": emailSent,
	})
}

// VerifyEmail consumes the single-use token from the query string.
func (h *AuthHandler) VerifyEmail(ctx *gin.Context) {
	token := ctx.Query("token")

	if token == "" {
		RespondBadRequest(ctx, "token_required", "Verification token is required", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.users.GetByVerificationToken(cctx, token)

	if err != nil {
		if errors.Is(err, postgres.ErrTokenNotFound) {
			RespondBadRequest(ctx, "token_not_found", "Invalid verification token", nil)
			return
		}

		RespondInternal(ctx, "Could not verify email")
		return
	}

	// compare against the stored expiry only, no grace window
	if u.TokenExpires == nil || time.Now().UTC().After(*u.TokenExpires) {
		RespondBadRequest(ctx, "token_expired", "Verification token has expired", nil)
		return
	}

	if u.IsEmailVerified {
		RespondBadRequest(ctx, "already_verified", "Email is already verified", nil)
		return
	}

	if err := h.users.MarkEmailVerified(cctx, u.ID); err != nil {
		RespondInternal(ctx, "Could not verify email")
		return
	}

	u.IsEmailVerified = true

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Email verified successfully",
		"user":    userSummary(u),
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "user_not_found", "User not found")
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(foundUser.ID, foundUser.Email, foundUser.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	refreshToken, err := h.jwt.GenerateRefreshToken(foundUser.ID, foundUser.Email, foundUser.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate refresh token")
		return
	}

	now := time.Now().UTC()

	if err := h.users.UpdateLastLogin(cctx, foundUser.ID, now); err != nil {
		// non-fatal: the login still counts
		h.log.Warn("update last_login failed", "user_id", foundUser.ID, "err", err)
	}

	foundUser.LastLogin = &now

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    profileResponse(foundUser, h.cfg.PublicBaseURL),
		"tokens": tokenPairResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
	})
}

// Refresh mints a new token pair from a valid refresh token. Stateless:
// nothing is stored or revoked server-side, expiry is the only check
// beyond the signature and the user row still existing.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req RefreshRequest

	if !BindJSON(ctx, &req) {
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(req.RefreshToken)

	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			RespondUnAuthorized(ctx, "expired_refresh", "Refresh token expired.")
			return
		}

		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, claims.UserID)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
			return
		}

		RespondInternal(ctx, "Could not refresh session")
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	refreshToken, err := h.jwt.GenerateRefreshToken(u.ID, u.Email, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate refresh token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"tokens": tokenPairResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
	})
}

// ResendVerification rotates the token and re-sends the mail for an
// account that never completed verification.
func (h *AuthHandler) ResendVerification(ctx *gin.Context) {
	var req ResendVerificationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "user_not_found", "User not found")
			return
		}

		RespondInternal(ctx, "Could not resend verification email")
		return
	}

	if u.IsEmailVerified {
		RespondBadRequest(ctx, "already_verified", "Email is already verified", nil)
		return
	}

	token, err := security.NewVerificationToken()

	if err != nil {
		RespondInternal(ctx, "Could not resend verification email")
		return
	}

	if err := h.users.SetVerificationToken(cctx, u.ID, token, time.Now().UTC().Add(h.cfg.VerifyTokenTTL())); err != nil {
		RespondInternal(ctx, "Could not resend verification email")
		return
	}

	emailSent := h.dispatchVerification(ctx.Request.Context(), u, token)

	ctx.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Verification email requested",
		"emailSent": emailSent,
	})
}

// dispatchVerification tries a synchronous send so the response can
// report emailSent truthfully, and falls back to the retry queue.
func (h *AuthHandler) dispatchVerification(ctx context.Context, u user.User, token string) bool {
	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := h.mailer.SendVerification(sendCtx, mail.VerificationEmail{
		Email: u.Email,
		Name:  u.Name,
		Token: token,
	})

	if err == nil {
		return true
	}

	h.log.Warn("verification mail send failed", "user_id", u.ID, "err", err)

	if h.queue == nil {
		return false
	}

	payload := jobs.SendVerificationEmailPayload{
		UserID:      u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Token:       token,
		RequestedAt: time.Now().UTC(),
	}

	raw, err := jobs.EncodePayload(jobs.JobSendVerificationEmail, payload)

	if err != nil {
		h.log.Error("encode mail job failed", "user_id", u.ID, "err", err)
		return false
	}

	j, err := jobs.NewJob(jobs.JobSendVerificationEmail, raw)

	if err != nil {
		h.log.Error("build mail job failed", "user_id", u.ID, "err", err)
		return false
	}

	if err := h.queue.Enqueue(context.WithoutCancel(ctx), j); err != nil {
		h.log.Error("enqueue mail job failed", "user_id", u.ID, "err", err)
	}

	return false
}

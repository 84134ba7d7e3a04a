package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zamindar/collegeportal/internal/config"
	"github.com/zamindar/collegeportal/internal/domain/user"
	"github.com/zamindar/collegeportal/internal/http/middlewares"
	"github.com/zamindar/collegeportal/internal/repo/postgres"
)

type UserReader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type UsersHandler struct {
	users UserReader
	cfg   config.Config
	log   *slog.Logger
}

func NewUsersHandler(users UserReader, cfg config.Config, log *slog.Logger) *UsersHandler {
	return &UsersHandler{users: users, cfg: cfg, log: log}
}

// Profile returns the authenticated user's full profile, avatar
// resolved to an absolute URL.
func (h *UsersHandler) Profile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "user_not_found", "User not found")
			return
		}

		RespondInternal(ctx, "Could not load profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    profileResponse(u, h.cfg.PublicBaseURL),
	})
}

// GetUser looks up any user by id. Admin-only; the dashboard's user
// management screen is the caller.
func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "user_not_found", "User not found")
			return
		}

		RespondInternal(ctx, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    profileResponse(u, h.cfg.PublicBaseURL),
	})
}

// profileResponse is the wire shape shared by login and profile.
func profileResponse(u user.User, publicBaseURL string) gin.H {
	return gin.H{
		"id":              u.ID,
		"name":            u.Name,
		"email":           u.Email,
		"phoneNumber":     u.Phone,
		"cnic":            u.CNIC,
		"program":         u.Program,
		"department":      u.Department,
		"semester":        u.Semester,
		"batch":           u.Batch,
		"address":         u.Address,
		"profilePicture":  avatarURL(u.Avatar, publicBaseURL),
		"role":            u.Role,
		"isEmailVerified": u.IsEmailVerified,
	}
}

// avatarURL resolves the stored relative path to a full URL, or nil when
// no avatar was uploaded.
func avatarURL(avatar *string, publicBaseURL string) *string {
	if avatar == nil || *avatar == "" {
		return nil
	}

	url := publicBaseURL + "/uploads/avatars/" + path.Base(*avatar)

	return &url
}

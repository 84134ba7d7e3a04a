package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var allowedAvatarExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// saveAvatar stores an optional uploaded avatar under
// <uploadDir>/avatars/<uuid><ext> and returns the relative path that
// goes in the user row. A request without an avatar returns (nil, nil).
func saveAvatar(ctx *gin.Context, uploadDir string) (*string, error) {
	file, err := ctx.FormFile("avatar")

	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}

		return nil, errors.New("could not read avatar upload")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))

	if _, ok := allowedAvatarExts[ext]; !ok {
		return nil, errors.New("avatar must be a jpg, jpeg, png or webp image")
	}

	// never trust the client filename
	name := uuid.NewString() + ext
	dst := filepath.Join(uploadDir, "avatars", name)

	if err := ctx.SaveUploadedFile(file, dst); err != nil {
		return nil, errors.New("could not store avatar upload")
	}

	rel := "uploads/avatars/" + name

	return &rel, nil
}

package handler

import (
	"net/http"

	"meshforge/backend/common"
	apperrors "meshforge/backend/common/errors"

	"github.com/gin-gonic/gin"
)

// respondAppError maps error codes from the model/service layers onto HTTP
// statuses. ErrCacheConflict never reaches here; the service layer absorbs it.
func respondAppError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperrors.CodeOf(err) {
	case apperrors.ErrUnauthorized:
		status = http.StatusForbidden
	case apperrors.ErrInvalidCredentials, apperrors.ErrEmptyCredentials, apperrors.ErrUserDisabled:
		status = http.StatusUnauthorized
	case apperrors.ErrProfileNotFound, apperrors.ErrBuildNotFound, apperrors.ErrUserNotFound:
		status = http.StatusNotFound
	case apperrors.ErrInvalidTarget, apperrors.ErrInvalidParam, apperrors.ErrBadRequest,
		apperrors.ErrEmptyID, apperrors.ErrUsernameTaken:
		status = http.StatusBadRequest
	}
	common.RespErrorStr(c, status, err.Error())
}

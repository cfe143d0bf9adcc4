package errors

// Generic error codes
const (
	ErrInternalServer = "ERR_INTERNAL_SERVER"
	ErrInvalidParam   = "ERR_INVALID_PARAM"
	ErrBadRequest     = "ERR_BAD_REQUEST"
)

// User / auth error codes
const (
	ErrEmptyID            = "ERR_EMPTY_ID"
	ErrUserNotFound       = "ERR_USER_NOT_FOUND"
	ErrEmptyCredentials   = "ERR_EMPTY_CREDENTIALS"
	ErrInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrUserDisabled       = "ERR_USER_DISABLED"
	ErrUsernameTaken      = "ERR_USERNAME_TAKEN"
	ErrUnauthorized       = "ERR_UNAUTHORIZED"
)

// Build orchestration error codes
const (
	ErrProfileNotFound = "ERR_PROFILE_NOT_FOUND"
	ErrBuildNotFound   = "ERR_BUILD_NOT_FOUND"
	ErrInvalidTarget   = "ERR_INVALID_TARGET"
	ErrCacheConflict   = "ERR_CACHE_CONFLICT"
)

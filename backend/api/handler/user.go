package handler

import (
	"net/http"

	"meshforge/backend/common"
	"meshforge/backend/model"
	"meshforge/backend/service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterPayload struct {
	Username    string `json:"username" validate:"required,min=3,max=20"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"omitempty,max=50"`
	Email       string `json:"email" validate:"omitempty,email"`
}

func Register(c *gin.Context) {
	var payload RegisterPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	if err := validate.Struct(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	if model.IsUsernameAlreadyTaken(payload.Username) {
		common.RespErrorStr(c, http.StatusBadRequest, "username is already taken")
		return
	}

	user := &model.User{
		Username:    payload.Username,
		Password:    payload.Password,
		DisplayName: payload.DisplayName,
		Email:       payload.Email,
		Role:        common.RoleCommonUser,
		Status:      common.UserStatusEnabled,
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}
	if err := user.Insert(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to create user", err)
		return
	}
	common.RespSuccess(c, user)
}

type LoginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func Login(c *gin.Context) {
	var payload LoginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	if err := validate.Struct(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	user := &model.User{
		Username: payload.Username,
		Password: payload.Password,
	}
	if err := user.ValidateAndFill(); err != nil {
		respondAppError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set("id", user.ID)
	session.Set("username", user.Username)
	session.Set("role", user.Role)
	if err := session.Save(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to save session", err)
		return
	}

	accessToken, err := service.GenerateToken(user)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to generate token", err)
		return
	}
	refreshToken, err := service.GenerateRefreshToken(user)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to generate refresh token", err)
		return
	}

	common.RespSuccess(c, gin.H{
		"user":          user,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// Logout clears the session and blacklists the presented access token until
// it would have expired anyway.
func Logout(c *gin.Context) {
	if common.RedisEnabled {
		if token := c.GetString("token"); token != "" {
			if err := common.RDB.Set(c, "jwt:blacklist:"+token, "1", service.AccessTokenDuration).Err(); err != nil {
				common.SysError("blacklist token: " + err.Error())
			}
		}
	}
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	common.RespSuccessStr(c, "logged out")
}

// GetAllUsers is admin-only account management.
func GetAllUsers(c *gin.Context) {
	users, err := model.GetAllUsers()
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to fetch users", err)
		return
	}
	common.RespSuccess(c, users)
}

func GetSelf(c *gin.Context) {
	userID := c.GetInt64("user_id")
	user, err := model.GetUserById(userID)
	if err != nil {
		respondAppError(c, err)
		return
	}
	common.RespSuccess(c, user)
}

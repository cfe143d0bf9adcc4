package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"meshforge/backend/common"
	"meshforge/backend/model"

	"github.com/gin-gonic/gin"
)

type profilePayload struct {
	Name    string          `json:"name" validate:"required,max=100"`
	Targets []string        `json:"targets" validate:"required"`
	Config  json.RawMessage `json:"config"`
	Version string          `json:"version" validate:"omitempty,max=64"`
}

// configJSON normalizes the raw config blob. An absent config means an empty
// object; anything present must itself be a JSON object, since that is what
// gets hashed and handed to the build workflow.
func (p *profilePayload) configJSON() (string, bool) {
	if len(p.Config) == 0 {
		return "{}", true
	}
	trimmed := bytes.TrimSpace(p.Config)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return "", false
	}
	return string(trimmed), true
}

func GetProfiles(c *gin.Context) {
	userID := c.GetInt64("user_id")
	profiles, err := model.GetProfilesByUserID(userID)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to fetch profiles", err)
		return
	}
	common.RespSuccess(c, profiles)
}

// GetPublicProfiles backs unauthenticated discovery on the landing page.
func GetPublicProfiles(c *gin.Context) {
	profiles, err := model.GetPublicProfiles(50)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to fetch profiles", err)
		return
	}
	common.RespSuccess(c, profiles)
}

func CreateProfile(c *gin.Context) {
	var payload profilePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	if err := validate.Struct(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	configJSON, ok := payload.configJSON()
	if !ok {
		common.RespErrorStr(c, http.StatusBadRequest, "config must be a JSON object")
		return
	}

	profile := &model.Profile{
		UserID:     c.GetInt64("user_id"),
		Name:       payload.Name,
		ConfigJSON: configJSON,
		Version:    payload.Version,
	}
	if err := profile.SetTargets(payload.Targets); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid targets", err)
		return
	}
	if err := profile.Insert(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to create profile", err)
		return
	}
	common.RespSuccess(c, profile)
}

func UpdateProfile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.RespErrorStr(c, http.StatusBadRequest, "invalid profile id")
		return
	}

	var payload profilePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	if err := validate.Struct(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	configJSON, ok := payload.configJSON()
	if !ok {
		common.RespErrorStr(c, http.StatusBadRequest, "config must be a JSON object")
		return
	}

	userID := c.GetInt64("user_id")
	profile, err := model.GetProfileForOwner(id, userID)
	if err != nil {
		respondAppError(c, err)
		return
	}

	profile.Name = payload.Name
	profile.ConfigJSON = configJSON
	if payload.Version != "" {
		profile.Version = payload.Version
	}
	if err := profile.SetTargets(payload.Targets); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid targets", err)
		return
	}

	// UpdateProfile also prunes linkage rows for targets that were removed.
	if err := model.UpdateProfile(profile); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to update profile", err)
		return
	}
	common.RespSuccess(c, profile)
}

func DeleteProfile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.RespErrorStr(c, http.StatusBadRequest, "invalid profile id")
		return
	}

	userID := c.GetInt64("user_id")
	profile, err := model.GetProfileForOwner(id, userID)
	if err != nil {
		respondAppError(c, err)
		return
	}

	if err := model.DeleteProfile(profile); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to delete profile", err)
		return
	}
	common.RespSuccess(c, nil)
}

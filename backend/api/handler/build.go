package handler

import (
	"net/http"
	"strconv"

	"meshforge/backend/common"
	"meshforge/backend/model"
	"meshforge/backend/service"

	"github.com/gin-gonic/gin"
)

type buildRequestPayload struct {
	Target string `json:"target" validate:"required,max=64"`
}

// RequestBuild triggers (or cache-serves) a firmware build for one of the
// profile's targets.
func RequestBuild(c *gin.Context) {
	profileID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.RespErrorStr(c, http.StatusBadRequest, "invalid profile id")
		return
	}

	var payload buildRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	if err := validate.Struct(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	userID := c.GetInt64("user_id")
	result, err := service.RequestBuild(c.Request.Context(), profileID, payload.Target, userID)
	if err != nil {
		respondAppError(c, err)
		return
	}
	common.RespSuccess(c, result)
}

// GetBuild returns one ledger row. Builds are shared, immutable history, so
// any authenticated user may read them.
func GetBuild(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.RespErrorStr(c, http.StatusBadRequest, "invalid build id")
		return
	}
	build, err := model.GetBuildByID(id)
	if err != nil {
		respondAppError(c, err)
		return
	}
	common.RespSuccess(c, build)
}

type profileBuildView struct {
	Link  *model.ProfileBuild `json:"link"`
	Build *model.Build        `json:"build"`
}

// GetProfileBuilds lists the builds currently serving each of the profile's
// targets, one linkage row per (profile, target).
func GetProfileBuilds(c *gin.Context) {
	profileID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.RespErrorStr(c, http.StatusBadRequest, "invalid profile id")
		return
	}

	userID := c.GetInt64("user_id")
	profile, err := model.GetProfileForOwner(profileID, userID)
	if err != nil {
		respondAppError(c, err)
		return
	}

	links, err := model.GetProfileBuilds(profile.ID)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to fetch profile builds", err)
		return
	}

	views := make([]profileBuildView, 0, len(links))
	for _, link := range links {
		build, err := model.GetBuildByID(link.BuildID)
		if err != nil {
			common.SysError("profile build " + strconv.FormatInt(link.ID, 10) + " references missing build")
			continue
		}
		views = append(views, profileBuildView{Link: link, Build: build})
	}
	common.RespSuccess(c, views)
}

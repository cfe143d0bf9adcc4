package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	apperrors "meshforge/backend/common/errors"
	"meshforge/backend/service"

	"github.com/gin-gonic/gin"
)

// buildWebhookPayload is what the CI workflow posts back. build_id and
// github_run_id arrive as either strings or numbers depending on how the
// workflow templated them, so both are decoded loosely.
type buildWebhookPayload struct {
	BuildID      any    `json:"build_id"`
	State        string `json:"state"`
	ArtifactPath string `json:"artifactPath"`
	GithubRunID  any    `json:"github_run_id"`
}

// BuildWebhook ingests asynchronous status reports from the external build
// runner. Unlike the /api JSON envelope, responses here are bare statuses:
// 400 for a malformed payload, 404 for an unknown build, 200 empty on
// success. The runner retries on anything else, so replays must stay no-ops.
func BuildWebhook(c *gin.Context) {
	var payload buildWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.String(http.StatusBadRequest, "invalid JSON body")
		return
	}

	buildID, ok := asInt64(payload.BuildID)
	if !ok || buildID <= 0 || payload.State == "" {
		c.String(http.StatusBadRequest, "missing build_id or state")
		return
	}
	githubRunID, _ := asInt64(payload.GithubRunID)

	_, err := service.IngestBuildStatus(buildID, payload.State, payload.ArtifactPath, githubRunID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrBuildNotFound) {
			c.String(http.StatusNotFound, "build not found")
			return
		}
		c.String(http.StatusInternalServerError, "failed to ingest build status")
		return
	}
	c.Status(http.StatusOK)
}

func asInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return parsed, err == nil
	case float64:
		return int64(val), true
	case json.Number:
		parsed, err := val.Int64()
		return parsed, err == nil
	default:
		return 0, false
	}
}

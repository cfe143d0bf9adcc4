package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"meshforge/backend/api/middleware"
	"meshforge/backend/common"
	"meshforge/backend/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postWebhook(t *testing.T, payload any) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	ctx.Request = newJSONRequest(t, http.MethodPost, "/api/webhook/build", payload)
	BuildWebhook(ctx)
	return recorder
}

func TestBuildWebhookMissingFields(t *testing.T) {
	recorder := postWebhook(t, map[string]any{"state": "building"})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = postWebhook(t, map[string]any{"build_id": "1"})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestBuildWebhookUnknownBuild(t *testing.T) {
	recorder := postWebhook(t, map[string]any{"build_id": "999999", "state": "building"})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestBuildWebhookSuccessPopulatesCache(t *testing.T) {
	build, err := model.CreateBuild("tbeam", "hash-webhook-1", "2.5.1", 0)
	require.NoError(t, err)

	recorder := postWebhook(t, map[string]any{
		"build_id":      build.ID,
		"state":         "success",
		"artifactPath":  "https://cdn/x.bin",
		"github_run_id": "12345",
	})
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, recorder.Body.String())

	updated, err := model.GetBuildByID(build.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BuildStatusSuccess, updated.Status)
	assert.Equal(t, "https://cdn/x.bin", updated.ArtifactURL)
	assert.Equal(t, int64(12345), updated.GithubRunID)

	entry, err := model.LookupBuildCache("hash-webhook-1", "tbeam")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "https://cdn/x.bin", entry.ArtifactURL)
	assert.Equal(t, "2.5.1", entry.Version)
}

func TestBuildWebhookReplayIsIdempotent(t *testing.T) {
	build, err := model.CreateBuild("tbeam", "hash-webhook-2", "2.5.1", 0)
	require.NoError(t, err)

	payload := map[string]any{
		"build_id":     build.ID,
		"state":        "success",
		"artifactPath": "https://cdn/y.bin",
	}
	assert.Equal(t, http.StatusOK, postWebhook(t, payload).Code)
	assert.Equal(t, http.StatusOK, postWebhook(t, payload).Code)

	updated, err := model.GetBuildByID(build.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BuildStatusSuccess, updated.Status)
	assert.Equal(t, "https://cdn/y.bin", updated.ArtifactURL)
}

func TestBuildWebhookIntermediateStates(t *testing.T) {
	build, err := model.CreateBuild("rak4631", "hash-webhook-3", "2.5.1", 0)
	require.NoError(t, err)

	for _, state := range []string{"checking_out", "building", "uploading"} {
		recorder := postWebhook(t, map[string]any{"build_id": build.ID, "state": state})
		assert.Equal(t, http.StatusOK, recorder.Code)
	}

	updated, err := model.GetBuildByID(build.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BuildStatusUploading, updated.Status)
	assert.Nil(t, updated.CompletedAt)

	// Intermediate states never touch the cache.
	entry, err := model.LookupBuildCache("hash-webhook-3", "rak4631")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestBuildWebhookNumericBuildID(t *testing.T) {
	build, err := model.CreateBuild("tbeam", "hash-webhook-4", "2.5.1", 0)
	require.NoError(t, err)

	// build_id arrives as a JSON number when the workflow does not quote it.
	recorder := postWebhook(t, map[string]any{"build_id": build.ID, "state": "building", "github_run_id": 777})
	assert.Equal(t, http.StatusOK, recorder.Code)

	updated, err := model.GetBuildByID(build.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BuildStatusBuilding, updated.Status)
	assert.Equal(t, int64(777), updated.GithubRunID)
}

func TestWebhookSignatureVerification(t *testing.T) {
	originalSecret := common.WebhookSecret
	common.WebhookSecret = "test-webhook-secret"
	defer func() { common.WebhookSecret = originalSecret }()

	build, err := model.CreateBuild("tbeam", "hash-webhook-5", "2.5.1", 0)
	require.NoError(t, err)

	router := gin.New()
	router.POST("/api/webhook/build", middleware.WebhookSignature(), BuildWebhook)

	body, err := json.Marshal(map[string]any{"build_id": build.ID, "state": "building"})
	require.NoError(t, err)

	// No signature.
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/build", bytes.NewReader(body))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Wrong signature.
	req = httptest.NewRequest(http.MethodPost, "/api/webhook/build", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Valid signature.
	mac := hmac.New(sha256.New, []byte(common.WebhookSecret))
	mac.Write(body)
	req = httptest.NewRequest(http.MethodPost, "/api/webhook/build", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

package model

import (
	"testing"
	"time"

	apperrors "meshforge/backend/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBuild(t *testing.T) {
	build, err := CreateBuild("tbeam", "hash-build-1", "2.5.1", 0)
	require.NoError(t, err)
	assert.Equal(t, BuildStatusQueued, build.Status)
	assert.Equal(t, "hash-build-1", build.BuildHash)
	assert.Equal(t, "2.5.1", build.Version)
	assert.False(t, build.StartedAt.IsZero())
	assert.Nil(t, build.CompletedAt)
}

func TestAdvanceBuildStatusUnknownBuild(t *testing.T) {
	_, err := AdvanceBuildStatus(999999, BuildStatusBuilding, "", 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBuildNotFound))
}

func TestAdvanceBuildStatusIdempotentReplay(t *testing.T) {
	build, err := CreateBuild("tbeam", "hash-build-2", "2.5.1", 0)
	require.NoError(t, err)

	first, err := AdvanceBuildStatus(build.ID, BuildStatusSuccess, "https://cdn/x.bin", 42)
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, first.Status)
	assert.Equal(t, "https://cdn/x.bin", first.ArtifactURL)
	assert.Equal(t, int64(42), first.GithubRunID)
	require.NotNil(t, first.CompletedAt)
	completedAt := *first.CompletedAt

	// The runner delivers at least once; the replay must change nothing.
	second, err := AdvanceBuildStatus(build.ID, BuildStatusSuccess, "https://cdn/x.bin", 42)
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, second.Status)
	assert.Equal(t, "https://cdn/x.bin", second.ArtifactURL)
	require.NotNil(t, second.CompletedAt)
	assert.Equal(t, completedAt.Unix(), second.CompletedAt.Unix())
}

func TestAdvanceBuildStatusAcceptsArbitraryReports(t *testing.T) {
	build, err := CreateBuild("rak4631", "hash-build-3", "2.5.1", 0)
	require.NoError(t, err)

	// Out-of-order and unknown statuses are stored as reported, never
	// rejected: the external runner is authoritative.
	updated, err := AdvanceBuildStatus(build.ID, BuildStatusUploading, "", 0)
	require.NoError(t, err)
	assert.Equal(t, BuildStatusUploading, updated.Status)

	updated, err = AdvanceBuildStatus(build.ID, "flashing_test_rig", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "flashing_test_rig", updated.Status)
	assert.Nil(t, updated.CompletedAt)
}

func TestGetLatestBuildByHash(t *testing.T) {
	first, err := CreateBuild("tbeam", "hash-build-4", "2.5.1", 0)
	require.NoError(t, err)
	second, err := CreateBuild("tbeam", "hash-build-4", "2.5.1", 0)
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	latest, err := GetLatestBuildByHash("hash-build-4")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	none, err := GetLatestBuildByHash("hash-build-never")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMarkStaleBuildsFailed(t *testing.T) {
	stale, err := CreateBuild("tbeam", "hash-build-5", "2.5.1", 0)
	require.NoError(t, err)
	stale.StartedAt = time.Now().Add(-6 * time.Hour)
	require.NoError(t, BuildDB.Save(stale))

	fresh, err := CreateBuild("tbeam", "hash-build-6", "2.5.1", 0)
	require.NoError(t, err)

	n, err := MarkStaleBuildsFailed(4 * time.Hour)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	swept, err := GetBuildByID(stale.ID)
	require.NoError(t, err)
	assert.Equal(t, BuildStatusFailure, swept.Status)
	require.NotNil(t, swept.CompletedAt)

	untouched, err := GetBuildByID(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, BuildStatusQueued, untouched.Status)
}

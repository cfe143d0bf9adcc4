package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachProfileBuildReplacesExistingRow(t *testing.T) {
	profile := mustCreateProfile(t, 100, "attach-test", []string{"tbeam"}, "{}", "2.5.1")
	first, err := CreateBuild("tbeam", "hash-link-1", "2.5.1", 0)
	require.NoError(t, err)
	second, err := CreateBuild("tbeam", "hash-link-1", "2.5.1", 0)
	require.NoError(t, err)

	_, err = AttachProfileBuild(profile.ID, "tbeam", first.ID)
	require.NoError(t, err)
	// Attaching again for the same (profile, target) must leave exactly one
	// row, pointing at the newer build.
	_, err = AttachProfileBuild(profile.ID, "tbeam", second.ID)
	require.NoError(t, err)

	links, err := GetProfileBuilds(profile.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, second.ID, links[0].BuildID)
	assert.Equal(t, "tbeam", links[0].Target)
}

func TestSyncProfileBuildsPrunesRemovedTargets(t *testing.T) {
	profile := mustCreateProfile(t, 101, "sync-test", []string{"tbeam", "rak4631"}, "{}", "2.5.1")
	tbeamBuild, err := CreateBuild("tbeam", "hash-link-2", "2.5.1", 0)
	require.NoError(t, err)
	rakBuild, err := CreateBuild("rak4631", "hash-link-3", "2.5.1", 0)
	require.NoError(t, err)
	_, err = AttachProfileBuild(profile.ID, "tbeam", tbeamBuild.ID)
	require.NoError(t, err)
	_, err = AttachProfileBuild(profile.ID, "rak4631", rakBuild.ID)
	require.NoError(t, err)

	// Dropping rak4631 removes its row and leaves tbeam alone.
	require.NoError(t, SyncProfileBuilds(profile.ID, []string{"tbeam"}))

	links, err := GetProfileBuilds(profile.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "tbeam", links[0].Target)

	// Builds themselves are shared history and must survive the prune.
	_, err = GetBuildByID(rakBuild.ID)
	assert.NoError(t, err)
}

func TestSyncProfileBuildsNeverCreatesRows(t *testing.T) {
	profile := mustCreateProfile(t, 102, "lazy-test", []string{"tbeam"}, "{}", "2.5.1")

	// Adding a target without triggering a build leaves the linkage empty:
	// building is an explicit user action.
	require.NoError(t, SyncProfileBuilds(profile.ID, []string{"tbeam", "heltec-v3"}))

	links, err := GetProfileBuilds(profile.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestUpdateProfilePrunesLinkage(t *testing.T) {
	profile := mustCreateProfile(t, 103, "update-prune", []string{"tbeam", "rak4631"}, "{}", "2.5.1")
	build, err := CreateBuild("rak4631", "hash-link-4", "2.5.1", 0)
	require.NoError(t, err)
	_, err = AttachProfileBuild(profile.ID, "rak4631", build.ID)
	require.NoError(t, err)

	require.NoError(t, profile.SetTargets([]string{"tbeam"}))
	require.NoError(t, UpdateProfile(profile))

	links, err := GetProfileBuilds(profile.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestDeleteProfileCascadesLinkageOnly(t *testing.T) {
	profile := mustCreateProfile(t, 104, "delete-cascade", []string{"tbeam"}, "{}", "2.5.1")
	build, err := CreateBuild("tbeam", "hash-link-5", "2.5.1", 0)
	require.NoError(t, err)
	_, err = AttachProfileBuild(profile.ID, "tbeam", build.ID)
	require.NoError(t, err)

	require.NoError(t, DeleteProfile(profile))

	links, err := GetProfileBuilds(profile.ID)
	require.NoError(t, err)
	assert.Empty(t, links)

	// The build row is immutable shared history.
	kept, err := GetBuildByID(build.ID)
	require.NoError(t, err)
	assert.Equal(t, BuildStatusQueued, kept.Status)
}

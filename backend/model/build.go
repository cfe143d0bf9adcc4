package model

import (
	"time"

	apperrors "meshforge/backend/common/errors"

	"github.com/burugo/thing"
)

// Build status values. The set is open: the external runner is authoritative
// and unknown statuses are stored as reported, for display and audit. Only
// success and failure are terminal and only success has side effects.
const (
	BuildStatusQueued      = "queued"
	BuildStatusCheckingOut = "checking_out"
	BuildStatusBuilding    = "building"
	BuildStatusUploading   = "uploading"
	BuildStatusSuccess     = "success"
	BuildStatusFailure     = "failure"
)

// IsTerminalBuildStatus reports whether status ends a build's lifecycle.
func IsTerminalBuildStatus(status string) bool {
	return status == BuildStatusSuccess || status == BuildStatusFailure
}

// Build is one compilation attempt, an append-only audit/status record. Rows
// are created once and only Status, ArtifactURL, GithubRunID and CompletedAt
// change afterwards, driven by reports from the external runner. BuildHash is
// content-derived and deliberately not unique: a cache miss that later
// succeeds and a racing duplicate dispatch may share a hash.
// Version snapshots the profile version at dispatch time so cache population
// never depends on the profile's current state.
type Build struct {
	thing.BaseModel
	Target      string     `db:"target" json:"target"`
	BuildHash   string     `db:"build_hash,index" json:"build_hash"`
	Version     string     `db:"version" json:"version"`
	GithubRunID int64      `db:"github_run_id" json:"github_run_id,omitempty"`
	Status      string     `db:"status" json:"status"`
	ArtifactURL string     `db:"artifact_url" json:"artifact_url,omitempty"`
	StartedAt   time.Time  `db:"started_at" json:"started_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

func (b *Build) TableName() string {
	return "builds"
}

var BuildDB *thing.Thing[*Build]

// BuildInit initializes BuildDB during InitDB.
func BuildInit() error {
	var err error
	BuildDB, err = thing.Use[*Build]()
	if err != nil {
		return err
	}
	return nil
}

// CreateBuild records a new dispatched compilation attempt with status queued.
func CreateBuild(target string, buildHash string, version string, githubRunID int64) (*Build, error) {
	build := &Build{
		Target:      target,
		BuildHash:   buildHash,
		Version:     version,
		GithubRunID: githubRunID,
		Status:      BuildStatusQueued,
		StartedAt:   time.Now(),
	}
	if err := BuildDB.Save(build); err != nil {
		return nil, err
	}
	return build, nil
}

// RecordCachedBuild writes a lightweight "served from cache" ledger entry. It
// is born terminal and is never dispatched; it exists so the linkage has a
// real build id to point at and so cache hits show up in the audit trail.
func RecordCachedBuild(target string, buildHash string, entry *BuildCacheEntry) (*Build, error) {
	now := time.Now()
	build := &Build{
		Target:      target,
		BuildHash:   buildHash,
		Version:     entry.Version,
		Status:      BuildStatusSuccess,
		ArtifactURL: entry.ArtifactURL,
		StartedAt:   now,
		CompletedAt: &now,
	}
	if err := BuildDB.Save(build); err != nil {
		return nil, err
	}
	return build, nil
}

func GetBuildByID(id int64) (*Build, error) {
	build, err := BuildDB.ByID(id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrBuildNotFound, "build not found")
	}
	return build, nil
}

// AdvanceBuildStatus applies an externally reported status transition.
// Repeated reports of the same status are no-ops, not errors: the runner
// delivers at least once. Ordering is not validated either; out-of-order or
// skipped intermediate reports are not corruption, the runner is authoritative.
func AdvanceBuildStatus(id int64, status string, artifactURL string, githubRunID int64) (*Build, error) {
	build, err := GetBuildByID(id)
	if err != nil {
		return nil, err
	}

	sameArtifact := artifactURL == "" || artifactURL == build.ArtifactURL
	sameRun := githubRunID == 0 || githubRunID == build.GithubRunID
	if build.Status == status && sameArtifact && sameRun {
		return build, nil
	}

	build.Status = status
	if artifactURL != "" {
		build.ArtifactURL = artifactURL
	}
	if githubRunID != 0 {
		build.GithubRunID = githubRunID
	}
	if IsTerminalBuildStatus(status) && build.CompletedAt == nil {
		now := time.Now()
		build.CompletedAt = &now
	}
	if err := BuildDB.Save(build); err != nil {
		return nil, err
	}
	return build, nil
}

// GetLatestBuildByHash returns the most recent build for a hash, or nil when
// none exists. Observability only: the cache store, not the ledger, decides
// whether a configuration has already been built.
func GetLatestBuildByHash(buildHash string) (*Build, error) {
	builds, err := BuildDB.Where("build_hash = ?", buildHash).Order("id DESC").Fetch(0, 1)
	if err != nil {
		return nil, err
	}
	if len(builds) == 0 {
		return nil, nil
	}
	return builds[0], nil
}

// MarkStaleBuildsFailed fails non-terminal builds older than maxAge. Builds
// whose runner died without a final report would otherwise sit in queued or
// building forever.
func MarkStaleBuildsFailed(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	builds, err := BuildDB.Where(
		"status NOT IN (?, ?) AND started_at < ?",
		BuildStatusSuccess, BuildStatusFailure, cutoff,
	).All()
	if err != nil {
		return 0, err
	}
	failed := 0
	for _, build := range builds {
		build.Status = BuildStatusFailure
		now := time.Now()
		build.CompletedAt = &now
		if err := BuildDB.Save(build); err != nil {
			return failed, err
		}
		failed++
	}
	return failed, nil
}

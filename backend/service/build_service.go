package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meshforge/backend/common"
	apperrors "meshforge/backend/common/errors"
	"meshforge/backend/library/buildhash"
	"meshforge/backend/model"
)

// Dispatcher hands a queued build to the external CI runner. The core only
// records that a dispatch occurred; it never blocks on compilation, and
// completion arrives later through the webhook.
type Dispatcher interface {
	Dispatch(ctx context.Context, build *model.Build, profile *model.Profile) error
}

// BuildDispatcher is the outbound CI collaborator, set from main. When nil the
// dispatch is recorded in the ledger but no runner is contacted (tests,
// record-only deployments).
var BuildDispatcher Dispatcher

// BuildRequestResult is what a build request returns to the caller.
type BuildRequestResult struct {
	ServedFromCache bool         `json:"served_from_cache"`
	Build           *model.Build `json:"build"`
}

// RequestBuild is the deduplication point of the whole system: it computes the
// content hash for (target, config, version), serves a cache hit without ever
// contacting the runner, and only dispatches a new compilation on a miss.
//
// The check-then-dispatch window is racy on purpose: two concurrent requests
// for the same uncached hash may both dispatch. Both builds will later try to
// write the same cache key and the loser's insert is absorbed as a conflict,
// so the race costs duplicate CI minutes, never correctness.
func RequestBuild(ctx context.Context, profileID int64, target string, ownerID int64) (*BuildRequestResult, error) {
	profile, err := model.GetProfileForOwner(profileID, ownerID)
	if err != nil {
		return nil, err
	}
	if !profile.HasTarget(target) {
		return nil, apperrors.New(apperrors.ErrInvalidTarget, "target is not in the profile's target set: "+target)
	}

	hash, err := buildhash.Hash(target, profile.ConfigJSON, profile.Version)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "compute build hash")
	}

	entry, err := model.LookupBuildCache(hash, target)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "cache lookup")
	}
	if entry != nil {
		build, err := model.RecordCachedBuild(target, hash, entry)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "record cached build")
		}
		if _, err := model.AttachProfileBuild(profile.ID, target, build.ID); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "attach profile build")
		}
		return &BuildRequestResult{ServedFromCache: true, Build: build}, nil
	}

	build, err := model.CreateBuild(target, hash, profile.Version, 0)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "create build")
	}
	if BuildDispatcher != nil {
		if err := BuildDispatcher.Dispatch(ctx, build, profile); err != nil {
			common.SysError("dispatch build " + fmt.Sprint(build.ID) + ": " + err.Error())
			if _, advErr := model.AdvanceBuildStatus(build.ID, model.BuildStatusFailure, "", 0); advErr != nil {
				common.SysError("mark dispatch failure: " + advErr.Error())
			}
			return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "dispatch build")
		}
	}
	if _, err := model.AttachProfileBuild(profile.ID, target, build.ID); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "attach profile build")
	}
	return &BuildRequestResult{ServedFromCache: false, Build: build}, nil
}

// IngestBuildStatus applies an asynchronous status report from the external
// runner. Replays are no-ops (at-least-once delivery), unknown statuses are
// stored as reported, and only success with an artifact populates the cache.
// A cache-insert conflict means another build for the same hash got there
// first and is treated as success.
func IngestBuildStatus(buildID int64, status string, artifactURL string, githubRunID int64) (*model.Build, error) {
	build, err := model.AdvanceBuildStatus(buildID, status, artifactURL, githubRunID)
	if err != nil {
		return nil, err
	}
	if status == model.BuildStatusSuccess && artifactURL != "" {
		_, err := model.InsertBuildCache(build.BuildHash, build.Target, artifactURL, build.Version)
		if err != nil {
			if errors.Is(err, model.ErrCacheConflict) || apperrors.IsCode(err, apperrors.ErrCacheConflict) {
				common.SysLog("build cache entry already present for " + build.BuildHash + "/" + build.Target)
			} else {
				return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "populate build cache")
			}
		}
	}
	return build, nil
}

// StartBuildReaper periodically fails builds stuck in a non-terminal status
// for longer than common.StaleBuildMaxAge. Hardening, not contract: a runner
// that dies without a final report must not pin queued builds forever.
func StartBuildReaper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(common.StaleBuildSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := model.MarkStaleBuildsFailed(common.StaleBuildMaxAge)
				if err != nil {
					common.SysError("build reaper: " + err.Error())
					continue
				}
				if n > 0 {
					common.SysLog(fmt.Sprintf("build reaper: marked %d stale build(s) as failed", n))
				}
			}
		}
	}()
}

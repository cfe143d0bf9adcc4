package model

import (
	"strings"

	apperrors "meshforge/backend/common/errors"

	"github.com/burugo/thing"
)

// ErrCacheConflict is returned by InsertBuildCache when a row already exists
// for the (hash, target) key. It is expected under concurrency and must be
// swallowed by callers: someone else already cached this artifact.
var ErrCacheConflict = apperrors.New(apperrors.ErrCacheConflict, "cache entry already exists")

// BuildCacheEntry maps a build hash + target to a reusable artifact. Entries
// are the sole source of truth for "has this exact configuration been built"
// and are immutable once written: first writer wins, later writers observe
// ErrCacheConflict. CacheKey is hash|target with a unique constraint, which is
// what makes the insert atomic-with-uniqueness.
type BuildCacheEntry struct {
	thing.BaseModel
	CacheKey    string `db:"cache_key,unique" json:"-"`
	BuildHash   string `db:"build_hash,index" json:"build_hash"`
	Target      string `db:"target" json:"target"`
	ArtifactURL string `db:"artifact_url" json:"artifact_url"`
	Version     string `db:"version" json:"version"`
}

func (e *BuildCacheEntry) TableName() string {
	return "build_cache"
}

func buildCacheKey(buildHash string, target string) string {
	return buildHash + "|" + target
}

var BuildCacheDB *thing.Thing[*BuildCacheEntry]

// BuildCacheInit initializes BuildCacheDB during InitDB.
func BuildCacheInit() error {
	var err error
	BuildCacheDB, err = thing.Use[*BuildCacheEntry]()
	if err != nil {
		return err
	}
	return nil
}

// LookupBuildCache returns the cached entry for (buildHash, target), or nil on
// a miss. Read-only, no side effects.
func LookupBuildCache(buildHash string, target string) (*BuildCacheEntry, error) {
	entries, err := BuildCacheDB.Where("cache_key = ?", buildCacheKey(buildHash, target)).Fetch(0, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// InsertBuildCache stores an artifact reference for (buildHash, target).
// Returns ErrCacheConflict when a row already exists for the key; the unique
// constraint on cache_key is the serialization point, so two concurrent
// successful builds for the same key leave exactly one surviving row.
func InsertBuildCache(buildHash string, target string, artifactURL string, version string) (*BuildCacheEntry, error) {
	entry := &BuildCacheEntry{
		CacheKey:    buildCacheKey(buildHash, target),
		BuildHash:   buildHash,
		Target:      target,
		ArtifactURL: artifactURL,
		Version:     version,
	}
	if err := BuildCacheDB.Save(entry); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCacheConflict
		}
		return nil, err
	}
	return entry, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

package model

import (
	"github.com/burugo/thing"
)

// ProfileBuild is the pointer from a (profile, target) pair to the build
// currently serving it. Invariant: at most one live row per pair, enforced by
// delete-then-insert rather than update-in-place so concurrent attaches
// converge to last-write-wins with no partial state.
type ProfileBuild struct {
	thing.BaseModel
	ProfileID int64  `db:"profile_id,index" json:"profile_id"`
	BuildID   int64  `db:"build_id,index" json:"build_id"`
	Target    string `db:"target" json:"target"`
}

func (pb *ProfileBuild) TableName() string {
	return "profile_builds"
}

var ProfileBuildDB *thing.Thing[*ProfileBuild]

// ProfileBuildInit initializes ProfileBuildDB during InitDB.
func ProfileBuildInit() error {
	var err error
	ProfileBuildDB, err = thing.Use[*ProfileBuild]()
	if err != nil {
		return err
	}
	return nil
}

func GetProfileBuilds(profileID int64) ([]*ProfileBuild, error) {
	return ProfileBuildDB.Where("profile_id = ?", profileID).Order("id DESC").All()
}

// SyncProfileBuilds deletes every linkage row whose target is no longer in
// newTargets. It never creates rows for added targets: a target added to a
// profile has no build until the user explicitly triggers one.
func SyncProfileBuilds(profileID int64, newTargets []string) error {
	targetSet := make(map[string]bool, len(newTargets))
	for _, t := range newTargets {
		targetSet[t] = true
	}
	rows, err := ProfileBuildDB.Where("profile_id = ?", profileID).All()
	if err != nil {
		return err
	}
	for _, row := range rows {
		if !targetSet[row.Target] {
			if err := ProfileBuildDB.Delete(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// AttachProfileBuild points (profileID, target) at buildID, replacing any
// previous pointer. Delete-then-insert keeps the at-most-one-row invariant
// under concurrent attaches; the last writer wins.
func AttachProfileBuild(profileID int64, target string, buildID int64) (*ProfileBuild, error) {
	existing, err := ProfileBuildDB.Where("profile_id = ? AND target = ?", profileID, target).All()
	if err != nil {
		return nil, err
	}
	for _, row := range existing {
		if err := ProfileBuildDB.Delete(row); err != nil {
			return nil, err
		}
	}
	row := &ProfileBuild{
		ProfileID: profileID,
		BuildID:   buildID,
		Target:    target,
	}
	if err := ProfileBuildDB.Save(row); err != nil {
		return nil, err
	}
	return row, nil
}

// DeleteProfileBuildsByProfile removes all linkage rows for a profile. Called
// when the owning profile is deleted; the referenced builds are untouched.
func DeleteProfileBuildsByProfile(profileID int64) error {
	rows, err := ProfileBuildDB.Where("profile_id = ?", profileID).All()
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := ProfileBuildDB.Delete(row); err != nil {
			return err
		}
	}
	return nil
}

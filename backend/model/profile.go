package model

import (
	"encoding/json"

	apperrors "meshforge/backend/common/errors"

	"github.com/burugo/thing"
)

// Profile is a user-authored firmware configuration: which hardware targets to
// build for, the feature-flag map and the firmware version. Owned exclusively
// by UserID; only the owner may read or mutate it through the ownership-checked
// accessors below.
type Profile struct {
	thing.BaseModel
	UserID      int64  `db:"user_id,index" json:"user_id"`
	Name        string `db:"name" json:"name"`
	TargetsJSON string `db:"targets_json" json:"targets_json"`
	ConfigJSON  string `db:"config_json" json:"config_json"`
	Version     string `db:"version" json:"version"`
}

func (p *Profile) TableName() string {
	return "profiles"
}

// GetTargets returns the target list stored in TargetsJSON.
func (p *Profile) GetTargets() ([]string, error) {
	if p.TargetsJSON == "" {
		return []string{}, nil
	}
	var targets []string
	if err := json.Unmarshal([]byte(p.TargetsJSON), &targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// SetTargets stores the target list into TargetsJSON.
func (p *Profile) SetTargets(targets []string) error {
	data, err := json.Marshal(targets)
	if err != nil {
		return err
	}
	p.TargetsJSON = string(data)
	return nil
}

// HasTarget reports whether target is in the profile's target set.
func (p *Profile) HasTarget(target string) bool {
	targets, err := p.GetTargets()
	if err != nil {
		return false
	}
	for _, t := range targets {
		if t == target {
			return true
		}
	}
	return false
}

var ProfileDB *thing.Thing[*Profile]

// ProfileInit initializes ProfileDB during InitDB.
func ProfileInit() error {
	var err error
	ProfileDB, err = thing.Use[*Profile]()
	if err != nil {
		return err
	}
	return nil
}

func GetProfilesByUserID(userID int64) ([]*Profile, error) {
	return ProfileDB.Where("user_id = ?", userID).Order("updated_at DESC").All()
}

// GetPublicProfiles lists profiles for unauthenticated discovery. No ownership
// filter on purpose; this backs the public landing page.
func GetPublicProfiles(limit int) ([]*Profile, error) {
	return ProfileDB.Order("updated_at DESC").Fetch(0, limit)
}

// GetProfileForOwner loads a profile and verifies ownership. A missing row and
// a foreign row are indistinguishable to the caller: both come back as
// unauthorized, so existence is never leaked to non-owners.
func GetProfileForOwner(id int64, ownerID int64) (*Profile, error) {
	profile, err := ProfileDB.ByID(id)
	if err != nil || profile.UserID != ownerID {
		return nil, apperrors.New(apperrors.ErrUnauthorized, "not the profile owner")
	}
	return profile, nil
}

func (p *Profile) Insert() error {
	return ProfileDB.Save(p)
}

// UpdateProfile saves the profile and prunes linkage rows whose target was
// removed from the target set. Rows are never created for added targets here;
// building is an explicit, billable action the user must trigger.
func UpdateProfile(p *Profile) error {
	if err := ProfileDB.Save(p); err != nil {
		return err
	}
	targets, err := p.GetTargets()
	if err != nil {
		return err
	}
	return SyncProfileBuilds(p.ID, targets)
}

// DeleteProfile removes the profile and cascades its linkage rows. Builds stay:
// they are shared, immutable history.
func DeleteProfile(p *Profile) error {
	if err := DeleteProfileBuildsByProfile(p.ID); err != nil {
		return err
	}
	return ProfileDB.Delete(p)
}

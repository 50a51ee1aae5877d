package db

import (
	"time"

	"gorm.io/gorm"
)

// AnyGender is the preferred-gender wildcard.
const AnyGender = "any"

// Profile is a registered user's matchable identity.
//
// ID is the externally issued chat user id, never generated here.
// Deleting a profile clears the descriptive fields but keeps the row,
// its credits and every like edge, so registering again is idempotent.
type Profile struct {
	ID                 uint64    `gorm:"primaryKey;autoIncrement:false"`
	DisplayName        string    `gorm:"size:128;not null;default:''"`
	Premium            bool      `gorm:"not null;default:false"`
	PhotoRef           string    `gorm:"size:255;not null;default:''"`
	Description        string    `gorm:"size:1024;not null;default:''"`
	Contact            string    `gorm:"size:64;not null;default:''"`
	Gender             string    `gorm:"size:16;not null;default:'';index:idx_profiles_location_gender,priority:3"`
	PreferredGender    string    `gorm:"size:16;not null;default:''"`
	Country            string    `gorm:"size:64;not null;default:'';index:idx_profiles_location_gender,priority:1"`
	City               string    `gorm:"size:64;not null;default:'';index:idx_profiles_location_gender,priority:2"`
	SuperLikeCredits   int64     `gorm:"not null;default:0"`
	LikesReceived      int64     `gorm:"not null;default:0"`
	SuperLikesReceived int64     `gorm:"not null;default:0"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

// IsComplete reports whether the profile is visible for matching.
// CompleteScope is the SQL form of the same predicate; keep them in sync.
func (p *Profile) IsComplete(requirePhoto bool) bool {
	if p == nil {
		return false
	}
	if p.Gender == "" || p.PreferredGender == "" || p.Country == "" || p.City == "" {
		return false
	}
	return !requirePhoto || p.PhotoRef != ""
}

// CompleteScope restricts a profiles query to complete profiles.
func CompleteScope(requirePhoto bool) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("profiles.gender <> '' AND profiles.preferred_gender <> ''").
			Where("profiles.country <> '' AND profiles.city <> ''")
		if requirePhoto {
			tx = tx.Where("profiles.photo_ref <> ''")
		}
		return tx
	}
}

// Like is a directed expression of interest.
//
// Composite PK: (LikerID, TargetID)
//   - Inserting the same ordered pair twice is a no-op.
//
// Indexes:
//   - idx_likes_target_created(target_id, created_at): received-likes counts.
type Like struct {
	LikerID   uint64    `gorm:"primaryKey;autoIncrement:false"`
	TargetID  uint64    `gorm:"primaryKey;autoIncrement:false;index:idx_likes_target_created,priority:1"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_likes_target_created,priority:2"`
}

// SuperLike is a paid like that reveals the liker's contact to the target.
// Same uniqueness rules as Like.
type SuperLike struct {
	LikerID   uint64    `gorm:"primaryKey;autoIncrement:false"`
	TargetID  uint64    `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Match records a detected mutual like. The pair is stored ordered
// (UserLowID < UserHighID) so each pair has exactly one row.
type Match struct {
	UserLowID  uint64    `gorm:"primaryKey;autoIncrement:false"`
	UserHighID uint64    `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

// OrderedPair returns a and b sorted ascending.
func OrderedPair(a, b uint64) (low, high uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// Other returns the member of the match that is not id.
func (m Match) Other(id uint64) uint64 {
	if m.UserLowID == id {
		return m.UserHighID
	}
	return m.UserLowID
}

// Models lists every table managed by AutoMigrate.
func Models() []any {
	return []any{&Profile{}, &Like{}, &SuperLike{}, &Match{}}
}

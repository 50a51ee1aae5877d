package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/leomatch/internal/db"
)

// LocationMode selects which location fields must be equal for two profiles to be "nearby".
type LocationMode string

const (
	LocationCity        LocationMode = "city"
	LocationCountry     LocationMode = "country"
	LocationCityCountry LocationMode = "city_country"
)

// CandidateQuery describes one keyset page of candidates for a requester.
type CandidateQuery struct {
	Requester     *db.Profile
	LocationMode  LocationMode
	Bidirectional bool
	RequirePhoto  bool
	AfterID       uint64
	Limit         int
}

// descriptiveColumns are the user-editable fields cleared on profile deletion.
var descriptiveColumns = []string{
	"photo_ref", "description", "contact", "gender", "preferred_gender", "country", "city",
}

// ProfileRepository provides data access methods for the Profile model.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// GetProfile loads a profile by id. Missing rows return gorm.ErrRecordNotFound.
func (r *ProfileRepository) GetProfile(ctx context.Context, id uint64) (*db.Profile, error) {
	var p db.Profile
	if err := conn(ctx, r.db).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfileForUpdate loads a profile and takes a row lock where the dialect supports it.
func (r *ProfileRepository) GetProfileForUpdate(ctx context.Context, id uint64) (*db.Profile, error) {
	tx := conn(ctx, r.db)
	if tx.Dialector.Name() != "sqlite" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p db.Profile
	if err := tx.First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile inserts p unless a row with the same id exists.
// Returns true if a new row was written.
func (r *ProfileRepository) CreateProfile(ctx context.Context, p *db.Profile) (bool, error) {
	res := conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(p)
	return res.RowsAffected > 0, res.Error
}

// UpsertProfile writes the descriptive fields of p, creating the row if needed.
// Counters, credits and the premium flag are never overwritten.
func (r *ProfileRepository) UpsertProfile(ctx context.Context, p *db.Profile) error {
	return conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(append([]string{"display_name", "updated_at"}, descriptiveColumns...)),
		}).
		Create(p).Error
}

// UpdateColumns applies an explicit column → value set to one profile.
func (r *ProfileRepository) UpdateColumns(ctx context.Context, id uint64, cols map[string]any) error {
	if len(cols) == 0 {
		return nil
	}
	res := conn(ctx, r.db).Model(&db.Profile{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports changed rows only; tell "unchanged" apart from "missing".
		ok, err := r.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// Exists reports whether a profile row with this id is present.
func (r *ProfileRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	err := conn(ctx, r.db).Model(&db.Profile{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// ResetProfile clears the descriptive fields, keeping identity, credits and edges.
func (r *ProfileRepository) ResetProfile(ctx context.Context, id uint64) error {
	cols := make(map[string]any, len(descriptiveColumns))
	for _, c := range descriptiveColumns {
		cols[c] = ""
	}
	return r.UpdateColumns(ctx, id, cols)
}

// SetPremium flips the premium flag.
func (r *ProfileRepository) SetPremium(ctx context.Context, id uint64, premium bool) error {
	return r.UpdateColumns(ctx, id, map[string]any{"premium": premium})
}

// AddCredits increases the super-like balance by n.
func (r *ProfileRepository) AddCredits(ctx context.Context, id uint64, n int64) error {
	res := conn(ctx, r.db).Model(&db.Profile{}).Where("id = ?", id).
		UpdateColumn("super_like_credits", gorm.Expr("super_like_credits + ?", n))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ConsumeCredit decrements the balance by one if it is positive.
// The check and the decrement are one statement; false means no credit was left.
func (r *ProfileRepository) ConsumeCredit(ctx context.Context, id uint64) (bool, error) {
	res := conn(ctx, r.db).Model(&db.Profile{}).
		Where("id = ? AND super_like_credits > 0", id).
		UpdateColumn("super_like_credits", gorm.Expr("super_like_credits - 1"))
	return res.RowsAffected == 1, res.Error
}

// IncrementLikesReceived bumps the received-likes counter.
func (r *ProfileRepository) IncrementLikesReceived(ctx context.Context, id uint64) error {
	return r.increment(ctx, id, "likes_received")
}

// IncrementSuperLikesReceived bumps the received-super-likes counter.
func (r *ProfileRepository) IncrementSuperLikesReceived(ctx context.Context, id uint64) error {
	return r.increment(ctx, id, "super_likes_received")
}

func (r *ProfileRepository) increment(ctx context.Context, id uint64, column string) error {
	return conn(ctx, r.db).Model(&db.Profile{}).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

// ListCandidates returns one page of profiles eligible to be shown to q.Requester.
//
// Behavior:
//   - Excludes the requester, incomplete profiles, and anyone the requester
//     already liked, super-liked or matched with.
//   - Candidate gender must fit the requester's preference ("any" matches all);
//     with Bidirectional the requester must also fit the candidate's preference.
//   - Location equality per q.LocationMode.
//   - Ordered by id ASC, starting after q.AfterID.
func (r *ProfileRepository) ListCandidates(ctx context.Context, q CandidateQuery) ([]db.Profile, error) {
	req := q.Requester
	if req == nil {
		return nil, errors.New("candidate query without requester")
	}

	query := conn(ctx, r.db).
		Model(&db.Profile{}).
		Scopes(db.CompleteScope(q.RequirePhoto)).
		Where("profiles.id <> ?", req.ID)

	if req.PreferredGender != db.AnyGender {
		query = query.Where("profiles.gender = ?", req.PreferredGender)
	}
	if q.Bidirectional {
		query = query.Where("(profiles.preferred_gender = ? OR profiles.preferred_gender = ?)", db.AnyGender, req.Gender)
	}

	switch q.LocationMode {
	case LocationCountry:
		query = query.Where("profiles.country = ?", req.Country)
	case LocationCityCountry:
		query = query.Where("profiles.country = ? AND profiles.city = ?", req.Country, req.City)
	default:
		query = query.Where("profiles.city = ?", req.City)
	}

	query = query.
		Where("NOT EXISTS (SELECT 1 FROM likes l WHERE l.liker_id = ? AND l.target_id = profiles.id)", req.ID).
		Where("NOT EXISTS (SELECT 1 FROM super_likes s WHERE s.liker_id = ? AND s.target_id = profiles.id)", req.ID).
		Where(`NOT EXISTS (
			SELECT 1 FROM matches m
			WHERE (m.user_low_id = ? AND m.user_high_id = profiles.id)
			   OR (m.user_high_id = ? AND m.user_low_id = profiles.id)
		)`, req.ID, req.ID)

	if q.AfterID > 0 {
		query = query.Where("profiles.id > ?", q.AfterID)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var out []db.Profile
	if err := query.Order("profiles.id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// TopProfiles ranks complete profiles by likes + super-likes received.
func (r *ProfileRepository) TopProfiles(ctx context.Context, requirePhoto bool, limit int) ([]db.Profile, error) {
	var out []db.Profile
	err := conn(ctx, r.db).
		Model(&db.Profile{}).
		Scopes(db.CompleteScope(requirePhoto)).
		Order("(profiles.likes_received + profiles.super_likes_received) DESC, profiles.id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

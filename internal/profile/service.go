// Package profile owns the profile lifecycle: registration, edits,
// soft deletion and the premium flag.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/oggyb/leomatch/internal/config"
	"github.com/oggyb/leomatch/internal/db"
)

var (
	ErrNotFound        = errors.New("profile not found")
	ErrInvalidUpdate   = errors.New("invalid profile update")
	ErrPremiumRequired = errors.New("premium required to filter by gender")
)

// Store is the persistence the service needs.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetProfile(ctx context.Context, id uint64) (*db.Profile, error)
	CreateProfile(ctx context.Context, p *db.Profile) (bool, error)
	UpdateColumns(ctx context.Context, id uint64, cols map[string]any) error
	ResetProfile(ctx context.Context, id uint64) error
	SetPremium(ctx context.Context, id uint64, premium bool) error
	TopProfiles(ctx context.Context, requirePhoto bool, limit int) ([]db.Profile, error)
}

type Service struct {
	store    Store
	validate *validator.Validate
	log      *slog.Logger

	requirePhoto        bool
	premiumGenderFilter bool
}

// NewService creates a profile service using the Match section of cfg.
func NewService(store Store, cfg *config.Config, log *slog.Logger) *Service {
	return &Service{
		store:               store,
		validate:            validator.New(),
		log:                 log,
		requirePhoto:        cfg.Match.RequirePhoto,
		premiumGenderFilter: cfg.Match.PremiumGenderFilter,
	}
}

// Register creates the profile on first contact. Registering an existing id
// returns the stored profile untouched with created = false.
func (s *Service) Register(ctx context.Context, id uint64, displayName string) (p *db.Profile, created bool, err error) {
	if id == 0 {
		return nil, false, fmt.Errorf("%w: id must be set", ErrInvalidUpdate)
	}
	created, err = s.store.CreateProfile(ctx, &db.Profile{ID: id, DisplayName: displayName})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info("profile registered", "profile", id)
	}
	p, err = s.Get(ctx, id)
	return p, created, err
}

// Get loads a profile; missing profiles return ErrNotFound.
func (s *Service) Get(ctx context.Context, id uint64) (*db.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return p, err
}

// Update normalizes and validates u, then writes the set fields.
//
// Behavior:
//   - Fails with ErrInvalidUpdate before touching storage when u is invalid.
//   - With the premium gender filter on, only premium users may store a
//     preferred gender other than "any".
//   - Returns the profile as stored after the update.
func (s *Service) Update(ctx context.Context, id uint64, u Update) (*db.Profile, error) {
	u.Normalize()
	if err := u.Validate(s.validate); err != nil {
		return nil, err
	}

	var out *db.Profile
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if s.premiumGenderFilter && !p.Premium &&
			u.PreferredGender != nil && *u.PreferredGender != db.AnyGender {
			return ErrPremiumRequired
		}
		if !u.IsEmpty() {
			if err := s.store.UpdateColumns(ctx, id, u.Columns()); err != nil {
				return err
			}
		}
		out, err = s.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("profile updated", "profile", id, "fields", len(u.Columns()), "complete", s.IsComplete(out))
	return out, nil
}

// Delete clears the descriptive fields. Identity, credits and like history
// stay, so the user can register again without losing them.
func (s *Service) Delete(ctx context.Context, id uint64) error {
	if err := s.store.ResetProfile(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return err
	}
	s.log.Info("profile deleted", "profile", id)
	return nil
}

// SetPremium flips the premium flag. Losing premium resets a gender filter
// to "any" when the premium gender filter is enabled.
func (s *Service) SetPremium(ctx context.Context, id uint64, premium bool) error {
	return s.store.WithinTx(ctx, func(ctx context.Context) error {
		err := s.store.SetPremium(ctx, id, premium)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		if err != nil || premium || !s.premiumGenderFilter {
			return err
		}
		p, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if p.PreferredGender == "" || p.PreferredGender == db.AnyGender {
			return nil
		}
		return s.store.UpdateColumns(ctx, id, map[string]any{"preferred_gender": db.AnyGender})
	})
}

// Top ranks complete profiles by likes and super-likes received.
func (s *Service) Top(ctx context.Context, limit int) ([]db.Profile, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.store.TopProfiles(ctx, s.requirePhoto, limit)
}

// IsComplete applies the configured completeness predicate.
func (s *Service) IsComplete(p *db.Profile) bool {
	return p.IsComplete(s.requirePhoto)
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/leomatch/internal/db"
	"github.com/oggyb/leomatch/internal/utils/pagination"
)

// LikeRepository provides data access methods for likes, super-likes and matches.
// Edges are insert-only: nothing here updates or deletes them.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// CreateLike inserts the directed edge liker → target.
//
// Behavior:
//   - If the (liker_id, target_id) pair exists → nothing is written.
//   - Returns true only when a new row was inserted.
//
// Example:
//
//	repo.CreateLike(ctx, 1, 2) // user 1 liked user 2
func (r *LikeRepository) CreateLike(ctx context.Context, likerID, targetID uint64) (bool, error) {
	res := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "liker_id"}, {Name: "target_id"}},
			DoNothing: true,
		}).
		Create(&db.Like{LikerID: likerID, TargetID: targetID})
	return res.RowsAffected > 0, res.Error
}

// HasLiked checks whether an actor has liked a recipient.
//
// Example:
//
//	repo.HasLiked(ctx, 1, 2) // -> true if user 1 liked user 2
func (r *LikeRepository) HasLiked(ctx context.Context, actorID, recipientID uint64) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&db.Like{}).
		Where("liker_id = ? AND target_id = ?", actorID, recipientID).
		Count(&count).Error
	return count > 0, err
}

// CreateSuperLike inserts the directed super-like edge; same idempotency as CreateLike.
func (r *LikeRepository) CreateSuperLike(ctx context.Context, likerID, targetID uint64) (bool, error) {
	res := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "liker_id"}, {Name: "target_id"}},
			DoNothing: true,
		}).
		Create(&db.SuperLike{LikerID: likerID, TargetID: targetID})
	return res.RowsAffected > 0, res.Error
}

// HasSuperLiked checks whether an actor has super-liked a recipient.
func (r *LikeRepository) HasSuperLiked(ctx context.Context, actorID, recipientID uint64) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&db.SuperLike{}).
		Where("liker_id = ? AND target_id = ?", actorID, recipientID).
		Count(&count).Error
	return count > 0, err
}

// CreateMatch records the match between a and b (order irrelevant).
// Returns true only for the call that inserted the row.
func (r *LikeRepository) CreateMatch(ctx context.Context, a, b uint64) (bool, error) {
	low, high := db.OrderedPair(a, b)
	res := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_low_id"}, {Name: "user_high_id"}},
			DoNothing: true,
		}).
		Create(&db.Match{UserLowID: low, UserHighID: high})
	return res.RowsAffected > 0, res.Error
}

// HasMatch checks whether a and b are matched.
func (r *LikeRepository) HasMatch(ctx context.Context, a, b uint64) (bool, error) {
	low, high := db.OrderedPair(a, b)
	var count int64
	err := conn(ctx, r.db).
		Model(&db.Match{}).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		Count(&count).Error
	return count > 0, err
}

// CountLikesReceived returns how many users liked the given recipient.
// Used in conjunction with Redis cache (DB is fallback).
//
// Example:
//
//	repo.CountLikesReceived(ctx, 42) // -> 123
func (r *LikeRepository) CountLikesReceived(ctx context.Context, recipientID uint64) (int64, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&db.Like{}).
		Where("target_id = ?", recipientID).
		Count(&count).Error
	return count, err
}

// ListMatches returns the matches of userID, newest first.
//
// Behavior:
//   - Ordered by created_at DESC, then the other user's id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.ListMatches(ctx, 42, nil, 20) // first 20 matches of user 42
func (r *LikeRepository) ListMatches(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.Match, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	other := "CASE WHEN m.user_low_id = ? THEN m.user_high_id ELSE m.user_low_id END"

	query := conn(ctx, r.db).
		Table("matches m").
		Where("m.user_low_id = ? OR m.user_high_id = ?", userID, userID).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "m.created_at DESC, " + other + " DESC",
			Vars:               []any{userID},
			WithoutParentheses: true,
		}}).
		Limit(limit + 1)

	if cursor.ID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(m.created_at < ? OR (m.created_at = ? AND "+other+" < ?))",
			ts, ts, userID, cursor.ID,
		)
	}

	var matches []db.Match
	if err := query.Find(&matches).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(matches) > limit {
		last := matches[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:          last.Other(userID),
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		matches = matches[:limit]
	}

	return matches, nextToken, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

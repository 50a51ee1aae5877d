package match

import (
	"context"

	"github.com/oggyb/leomatch/internal/db"
	"github.com/oggyb/leomatch/internal/repository"
)

// Store is the storage the engine runs on. Calls made with the context
// passed into WithinTx's callback join that transaction.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetProfile(ctx context.Context, id uint64) (*db.Profile, error)
	GetProfileForUpdate(ctx context.Context, id uint64) (*db.Profile, error)
	ListCandidates(ctx context.Context, q repository.CandidateQuery) ([]db.Profile, error)
	AddCredits(ctx context.Context, id uint64, n int64) error
	ConsumeCredit(ctx context.Context, id uint64) (bool, error)
	IncrementLikesReceived(ctx context.Context, id uint64) error
	IncrementSuperLikesReceived(ctx context.Context, id uint64) error

	CreateLike(ctx context.Context, likerID, targetID uint64) (bool, error)
	HasLiked(ctx context.Context, actorID, recipientID uint64) (bool, error)
	CreateSuperLike(ctx context.Context, likerID, targetID uint64) (bool, error)
	CreateMatch(ctx context.Context, a, b uint64) (bool, error)
}

var _ Store = (*repository.Store)(nil)

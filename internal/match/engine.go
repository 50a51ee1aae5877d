// Package match decides which profiles a user sees and what a like means.
//
// Every mutating call runs under a keyed lock and one storage transaction:
// likes lock the unordered pair, credit changes lock the spending profile.
// Storage failures are retried a few times and then reported as
// ErrStorageUnavailable; caller errors are returned on the first attempt.
package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/leomatch/internal/config"
	"github.com/oggyb/leomatch/internal/db"
	"github.com/oggyb/leomatch/internal/events"
	"github.com/oggyb/leomatch/internal/logger"
	"github.com/oggyb/leomatch/internal/metrics"
	"github.com/oggyb/leomatch/internal/repository"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusMatch   Status = "match"
)

// MatchOutcome is the result of a plain like.
//
// Other is the liked profile. While Status is StatusPending the target must
// not be told who liked them. NewMatch is true only for the one call that
// detected the match, so both sides are notified exactly once.
type MatchOutcome struct {
	Status   Status
	Other    *db.Profile
	NewMatch bool
	Recorded bool // this call inserted the like edge
}

// SuperLikeOutcome is the result of a super-like. The liker's contact is
// revealed to the target regardless of any plain-like state. Every
// successful super-like costs exactly one credit; Repeat is set when the
// liker had already super-liked this target.
type SuperLikeOutcome struct {
	ContactRevealed bool
	Liker           *db.Profile
	Target          *db.Profile
	Repeat          bool
	CreditsLeft     int64
}

// Engine implements candidate selection, likes, super-likes and credits.
type Engine struct {
	store     Store
	locker    Locker
	publisher events.Publisher
	log       *slog.Logger

	locationMode  repository.LocationMode
	bidirectional bool
	requirePhoto  bool
	batchSize     int
	retries       int
}

type Option func(*Engine)

func WithLocker(l Locker) Option { return func(e *Engine) { e.locker = l } }

func WithPublisher(p events.Publisher) Option { return func(e *Engine) { e.publisher = p } }

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

func WithLocationMode(m repository.LocationMode) Option {
	return func(e *Engine) { e.locationMode = m }
}

// WithBidirectional toggles the requester-must-fit-candidate's-preference check.
func WithBidirectional(on bool) Option { return func(e *Engine) { e.bidirectional = on } }

func WithRequirePhoto(on bool) Option { return func(e *Engine) { e.requirePhoto = on } }

func WithBatchSize(n int) Option { return func(e *Engine) { e.batchSize = n } }

func WithRetries(n int) Option { return func(e *Engine) { e.retries = n } }

// WithConfig applies the Match section of the app config.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		switch repository.LocationMode(cfg.Match.LocationMode) {
		case repository.LocationCountry, repository.LocationCityCountry:
			e.locationMode = repository.LocationMode(cfg.Match.LocationMode)
		default:
			e.locationMode = repository.LocationCity
		}
		e.bidirectional = cfg.Match.GenderPolicy != "one_way"
		e.requirePhoto = cfg.Match.RequirePhoto
		if cfg.Match.BatchSize > 0 {
			e.batchSize = cfg.Match.BatchSize
		}
		if cfg.Match.StorageRetries > 0 {
			e.retries = cfg.Match.StorageRetries
		}
	}
}

// NewEngine builds an engine over store. Defaults: in-process locks, no
// events, city matching, bidirectional gender check, photo required.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		locker:        NewLocalLocker(),
		publisher:     events.Nop{},
		log:           logger.Named("match"),
		locationMode:  repository.LocationCity,
		bidirectional: true,
		requirePhoto:  true,
		batchSize:     20,
		retries:       3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsVisible applies the completeness predicate the engine filters with.
func (e *Engine) IsVisible(p *db.Profile) bool {
	return p.IsComplete(e.requirePhoto)
}

// Like records liker → target and reports whether the pair now matches.
//
// Behavior:
//   - Repeating a like is a no-op that returns the current state.
//   - If target already liked liker the result is StatusMatch; the match row
//     is written once and NewMatch is set only on that call.
//   - Once matched, the pair keeps returning StatusMatch from both sides.
//
// Example:
//
//	engine.Like(ctx, 1, 2) // -> pending
//	engine.Like(ctx, 2, 1) // -> match, NewMatch = true
func (e *Engine) Like(ctx context.Context, likerID, targetID uint64) (MatchOutcome, error) {
	defer observe("like", time.Now())

	if likerID == targetID {
		return MatchOutcome{}, ErrSelfLike
	}

	var out MatchOutcome
	err := e.locked(ctx, "like", pairKey(likerID, targetID), func(ctx context.Context) error {
		_, target, err := e.loadPair(ctx, likerID, targetID)
		if err != nil {
			return err
		}

		created, err := e.store.CreateLike(ctx, likerID, targetID)
		if err != nil {
			return err
		}
		if created {
			if err := e.store.IncrementLikesReceived(ctx, targetID); err != nil {
				return err
			}
			target.LikesReceived++
		}

		reverse, err := e.store.HasLiked(ctx, targetID, likerID)
		if err != nil {
			return err
		}
		if !reverse {
			out = MatchOutcome{Status: StatusPending, Other: target, Recorded: created}
			return nil
		}

		newMatch, err := e.store.CreateMatch(ctx, likerID, targetID)
		if err != nil {
			return err
		}
		out = MatchOutcome{Status: StatusMatch, Other: target, NewMatch: newMatch, Recorded: created}
		return nil
	})
	if err != nil {
		return MatchOutcome{}, err
	}

	metrics.LikesTotal.WithLabelValues(string(out.Status)).Inc()
	switch {
	case out.NewMatch:
		metrics.MatchesCreatedTotal.Inc()
		e.log.Info("match created", "liker", likerID, "target", targetID)
		e.publish(ctx, events.NewMatchCreated(likerID, targetID))
	case out.Recorded && out.Status == StatusPending:
		e.publish(ctx, events.NewLikeReceived(targetID))
	}
	return out, nil
}

// SuperLike spends one credit to reveal the liker's contact to target.
//
// Behavior:
//   - Fails with ErrInsufficientCredits when the balance is zero.
//   - Each success spends one credit, repeats to the same target included.
//     The edge and the target's counter are written once.
//   - Plain-like match state is neither read nor changed.
func (e *Engine) SuperLike(ctx context.Context, likerID, targetID uint64) (SuperLikeOutcome, error) {
	defer observe("super_like", time.Now())

	if likerID == targetID {
		return SuperLikeOutcome{}, ErrSelfLike
	}

	var out SuperLikeOutcome
	err := e.locked(ctx, "super_like", profileKey(likerID), func(ctx context.Context) error {
		liker, err := e.load(ctx, likerID, e.store.GetProfileForUpdate)
		if err != nil {
			return err
		}
		target, err := e.load(ctx, targetID, e.store.GetProfile)
		if err != nil {
			return err
		}

		ok, err := e.store.ConsumeCredit(ctx, likerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientCredits
		}
		liker.SuperLikeCredits--

		created, err := e.store.CreateSuperLike(ctx, likerID, targetID)
		if err != nil {
			return err
		}
		if created {
			if err := e.store.IncrementSuperLikesReceived(ctx, targetID); err != nil {
				return err
			}
			target.SuperLikesReceived++
		}

		out = SuperLikeOutcome{
			ContactRevealed: true,
			Liker:           liker,
			Target:          target,
			Repeat:          !created,
			CreditsLeft:     liker.SuperLikeCredits,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientCredits) {
			metrics.SuperLikesTotal.WithLabelValues("insufficient").Inc()
		}
		return SuperLikeOutcome{}, err
	}

	result := "charged"
	if out.Repeat {
		result = "repeat"
	}
	metrics.SuperLikesTotal.WithLabelValues(result).Inc()
	e.publish(ctx, events.NewSuperLikeReceived(likerID, targetID))
	return out, nil
}

// PurchaseCredits grants count super-like credits and returns the new balance.
// Payment is verified by the caller.
func (e *Engine) PurchaseCredits(ctx context.Context, profileID uint64, count int64) (int64, error) {
	defer observe("purchase_credits", time.Now())

	if count <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuantity, count)
	}

	var balance int64
	err := e.locked(ctx, "purchase_credits", profileKey(profileID), func(ctx context.Context) error {
		p, err := e.load(ctx, profileID, e.store.GetProfileForUpdate)
		if err != nil {
			return err
		}
		if err := e.store.AddCredits(ctx, profileID, count); err != nil {
			return err
		}
		balance = p.SuperLikeCredits + count
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.CreditsGrantedTotal.Add(float64(count))
	e.log.Info("credits granted", "profile", profileID, "count", count, "balance", balance)
	return balance, nil
}

func (e *Engine) loadPair(ctx context.Context, likerID, targetID uint64) (*db.Profile, *db.Profile, error) {
	liker, err := e.load(ctx, likerID, e.store.GetProfile)
	if err != nil {
		return nil, nil, err
	}
	target, err := e.load(ctx, targetID, e.store.GetProfile)
	if err != nil {
		return nil, nil, err
	}
	return liker, target, nil
}

func (e *Engine) load(
	ctx context.Context,
	id uint64,
	get func(context.Context, uint64) (*db.Profile, error),
) (*db.Profile, error) {
	p, err := get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProfile, id)
	}
	return p, err
}

// publish delivers events after commit. Failures are logged, not returned.
func (e *Engine) publish(ctx context.Context, evs ...events.Event) {
	status := "ok"
	if err := e.publisher.Publish(ctx, evs...); err != nil {
		status = "error"
		e.log.Warn("failed to publish events", "count", len(evs), "err", err)
	}
	for _, ev := range evs {
		metrics.EventsPublishedTotal.WithLabelValues(string(ev.Type), status).Inc()
	}
}

func observe(op string, start time.Time) {
	metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

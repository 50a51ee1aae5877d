package match

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"gorm.io/gorm"

	"github.com/oggyb/leomatch/internal/db"
	"github.com/oggyb/leomatch/internal/metrics"
	"github.com/oggyb/leomatch/internal/repository"
	"github.com/oggyb/leomatch/internal/utils/pagination"
)

// Candidates is a lazy, finite walk over the profiles eligible for one
// requester, in ascending id order. Pages are fetched on demand, so profiles
// liked while browsing drop out of later pages.
type Candidates struct {
	engine *Engine
	query  repository.CandidateQuery
	buf    []db.Profile
	last   uint64
	done   bool
}

// FindCandidates starts a fresh candidate sequence for requesterID.
// The requester must exist and be complete.
func (e *Engine) FindCandidates(ctx context.Context, requesterID uint64) (*Candidates, error) {
	return e.ResumeCandidates(ctx, requesterID, "")
}

// ResumeCandidates continues a sequence after the position encoded in token
// (see Candidates.Token). An empty token starts from the beginning.
func (e *Engine) ResumeCandidates(ctx context.Context, requesterID uint64, token string) (*Candidates, error) {
	cursor, err := pagination.Decode(token)
	if err != nil {
		return nil, err
	}

	var requester *db.Profile
	err = e.withRetry(ctx, "find_candidates", func(ctx context.Context) error {
		p, err := e.store.GetProfile(ctx, requesterID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", ErrUnknownProfile, requesterID)
		}
		requester = p
		return err
	})
	if err != nil {
		return nil, err
	}
	if !e.IsVisible(requester) {
		return nil, ErrProfileIncomplete
	}

	return &Candidates{
		engine: e,
		query: repository.CandidateQuery{
			Requester:     requester,
			LocationMode:  e.locationMode,
			Bidirectional: e.bidirectional,
			RequirePhoto:  e.requirePhoto,
			Limit:         max(e.batchSize, 1),
		},
		last: cursor.ID,
	}, nil
}

// Next returns the next candidate, or nil when the sequence is exhausted.
func (c *Candidates) Next(ctx context.Context) (*db.Profile, error) {
	if len(c.buf) == 0 {
		if c.done {
			return nil, nil
		}
		if err := c.fill(ctx); err != nil {
			return nil, err
		}
		if len(c.buf) == 0 {
			return nil, nil
		}
	}

	p := c.buf[0]
	c.buf = c.buf[1:]
	c.last = p.ID
	metrics.CandidatesServedTotal.Inc()
	return &p, nil
}

// All ranges over the remaining candidates. Iteration stops after the first error.
func (c *Candidates) All(ctx context.Context) iter.Seq2[*db.Profile, error] {
	return func(yield func(*db.Profile, error) bool) {
		for {
			p, err := c.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if p == nil || !yield(p, nil) {
				return
			}
		}
	}
}

// Token encodes the position after the last candidate returned by Next.
// It is empty before the first candidate.
func (c *Candidates) Token() (string, error) {
	if c.last == 0 {
		return "", nil
	}
	return pagination.Encode(pagination.Cursor{ID: c.last})
}

// Requester is the profile the sequence was built for.
func (c *Candidates) Requester() *db.Profile { return c.query.Requester }

func (c *Candidates) fill(ctx context.Context) error {
	q := c.query
	q.AfterID = c.last

	var page []db.Profile
	err := c.engine.withRetry(ctx, "find_candidates", func(ctx context.Context) error {
		var err error
		page, err = c.engine.store.ListCandidates(ctx, q)
		return err
	})
	if err != nil {
		return err
	}

	c.buf = page
	c.done = len(page) < q.Limit
	return nil
}

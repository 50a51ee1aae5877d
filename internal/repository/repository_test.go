package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/leomatch/internal/db"
	"github.com/oggyb/leomatch/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func complete(id uint64, gender, pref, city string) db.Profile {
	return db.Profile{
		ID:              id,
		DisplayName:     fmt.Sprintf("p%d", id),
		PhotoRef:        "photo",
		Gender:          gender,
		PreferredGender: pref,
		Country:         "peru",
		City:            city,
	}
}

func candidateIDs(ps []db.Profile) []uint64 {
	ids := make([]uint64, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestCreateLikeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewLikeRepository(setupTestDB(t))

	created, err := repo.CreateLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, created)

	liked, err := repo.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = repo.HasLiked(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, liked)

	n, err := repo.CountLikesReceived(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreateMatchOrderIndependent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewLikeRepository(setupTestDB(t))

	created, err := repo.CreateMatch(ctx, 7, 3)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateMatch(ctx, 3, 7)
	require.NoError(t, err)
	assert.False(t, created)

	ok, err := repo.HasMatch(ctx, 3, 7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSuperLikeEdges(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewLikeRepository(setupTestDB(t))

	created, err := repo.CreateSuperLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateSuperLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, created)

	ok, err := repo.HasSuperLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	// a super-like is not a plain like
	liked, err := repo.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestListMatchesPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	base := time.Now().UTC().Truncate(time.Millisecond)
	rows := []db.Match{
		{UserLowID: 1, UserHighID: 2, CreatedAt: base.Add(-3 * time.Minute)},
		{UserLowID: 1, UserHighID: 3, CreatedAt: base.Add(-2 * time.Minute)},
		{UserLowID: 1, UserHighID: 4, CreatedAt: base.Add(-1 * time.Minute)},
		{UserLowID: 5, UserHighID: 6, CreatedAt: base},
	}
	require.NoError(t, dbase.Create(&rows).Error)

	page1, next, err := repo.ListMatches(ctx, 1, nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotNil(t, next)
	assert.Equal(t, uint64(4), page1[0].Other(1))
	assert.Equal(t, uint64(3), page1[1].Other(1))

	page2, next, err := repo.ListMatches(ctx, 1, next, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Nil(t, next)
	assert.Equal(t, uint64(2), page2[0].Other(1))
}

func TestListMatchesRejectsBadToken(t *testing.T) {
	repo := repository.NewLikeRepository(setupTestDB(t))
	bad := "###"
	_, _, err := repo.ListMatches(context.Background(), 1, &bad, 10)
	assert.Error(t, err)
}

func TestProfileLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	p := complete(10, "m", "f", "lima")
	created, err := repo.CreateProfile(ctx, &p)
	require.NoError(t, err)
	assert.True(t, created)

	dup := db.Profile{ID: 10, DisplayName: "other"}
	created, err = repo.CreateProfile(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.GetProfile(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "p10", got.DisplayName)

	require.NoError(t, repo.AddCredits(ctx, 10, 2))
	require.NoError(t, repo.SetPremium(ctx, 10, true))
	require.NoError(t, repo.ResetProfile(ctx, 10))

	got, err = repo.GetProfile(ctx, 10)
	require.NoError(t, err)
	assert.False(t, got.IsComplete(false))
	assert.Equal(t, "p10", got.DisplayName)
	assert.Equal(t, int64(2), got.SuperLikeCredits)
	assert.True(t, got.Premium)

	_, err = repo.GetProfile(ctx, 999)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.ErrorIs(t, repo.SetPremium(ctx, 999, true), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.AddCredits(ctx, 999, 1), gorm.ErrRecordNotFound)
}

func TestUpsertProfileKeepsCounters(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	p := complete(1, "m", "f", "lima")
	p.SuperLikeCredits = 4
	require.NoError(t, repo.UpsertProfile(ctx, &p))

	again := complete(1, "m", "any", "quito")
	require.NoError(t, repo.UpsertProfile(ctx, &again))

	got, err := repo.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "quito", got.City)
	assert.Equal(t, "any", got.PreferredGender)
	assert.Equal(t, int64(4), got.SuperLikeCredits)
}

func TestConsumeCreditNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	p := complete(1, "m", "f", "lima")
	p.SuperLikeCredits = 1
	_, err := repo.CreateProfile(ctx, &p)
	require.NoError(t, err)

	ok, err := repo.ConsumeCredit(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ConsumeCredit(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.SuperLikeCredits)
}

func TestListCandidatesFilters(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	store := repository.NewStore(dbase)

	profiles := []db.Profile{
		complete(1, "m", "f", "lima"),   // requester
		complete(2, "f", "m", "lima"),   // compatible
		complete(3, "f", "m", "quito"),  // other city
		complete(4, "f", "f", "lima"),   // wants women only → fails bidirectional check
		complete(5, "f", "any", "lima"), // compatible via wildcard
		complete(6, "m", "f", "lima"),   // wrong gender
		{ID: 7, Gender: "f", PreferredGender: "m", City: "lima"}, // incomplete
		complete(8, "f", "m", "lima"),   // already liked
		complete(9, "f", "m", "lima"),   // already super-liked
		complete(10, "f", "m", "lima"),  // matched
	}
	require.NoError(t, dbase.Create(&profiles).Error)

	_, err := store.CreateLike(ctx, 1, 8)
	require.NoError(t, err)
	_, err = store.CreateSuperLike(ctx, 1, 9)
	require.NoError(t, err)
	_, err = store.CreateMatch(ctx, 1, 10)
	require.NoError(t, err)

	q := repository.CandidateQuery{
		Requester:     &profiles[0],
		LocationMode:  repository.LocationCity,
		Bidirectional: true,
		RequirePhoto:  true,
	}
	got, err := store.ListCandidates(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 5}, candidateIDs(got))

	q.Bidirectional = false
	got, err = store.ListCandidates(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 4, 5}, candidateIDs(got))

	q.Bidirectional = true
	q.LocationMode = repository.LocationCountry
	got, err = store.ListCandidates(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3, 5}, candidateIDs(got))

	q.AfterID = 2
	q.Limit = 1
	got, err = store.ListCandidates(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, candidateIDs(got))
}

func TestListCandidatesAnyPreference(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewProfileRepository(dbase)

	profiles := []db.Profile{
		complete(1, "m", "any", "lima"),
		complete(2, "f", "m", "lima"),
		complete(3, "m", "m", "lima"),
		complete(4, "f", "f", "lima"),
	}
	require.NoError(t, dbase.Create(&profiles).Error)

	got, err := repo.ListCandidates(ctx, repository.CandidateQuery{
		Requester:     &profiles[0],
		LocationMode:  repository.LocationCityCountry,
		Bidirectional: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, candidateIDs(got))

	_, err = repo.ListCandidates(ctx, repository.CandidateQuery{})
	assert.Error(t, err)
}

func TestTopProfiles(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewProfileRepository(dbase)

	a, b, c := complete(1, "m", "f", "lima"), complete(2, "f", "m", "lima"), complete(3, "f", "m", "lima")
	a.LikesReceived = 1
	b.LikesReceived, b.SuperLikesReceived = 2, 1
	c.LikesReceived = 3
	require.NoError(t, dbase.Create(&[]db.Profile{a, b, c}).Error)

	require.NoError(t, repo.IncrementLikesReceived(ctx, 1))
	require.NoError(t, repo.IncrementSuperLikesReceived(ctx, 1))
	require.NoError(t, repo.IncrementSuperLikesReceived(ctx, 1)) // a: 1+1+2 = 4

	top, err := repo.TopProfiles(ctx, true, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, candidateIDs(top)) // 4, then 3 (tie with c broken by id)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(setupTestDB(t))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := store.CreateLike(ctx, 1, 2); err != nil {
			return err
		}
		// nested call joins the outer transaction
		return store.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := store.CreateLike(ctx, 2, 1); err != nil {
				return err
			}
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	liked, err := store.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, liked)
	liked, err = store.HasLiked(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, liked)
}

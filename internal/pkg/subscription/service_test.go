package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/SumanthChary/postpro-backend/app/models"
	"github.com/SumanthChary/postpro-backend/internal/pkg/plans"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRepository struct {
	subs map[uint]*models.Subscription
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{subs: make(map[uint]*models.Subscription)}
}

func (f *fakeRepository) GetByUserID(userID uint) (*models.Subscription, error) {
	sub, ok := f.subs[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeRepository) Upsert(sub *models.Subscription) error {
	if sub.ID == 0 {
		sub.ID = uint(len(f.subs) + 1)
	}
	cp := *sub
	f.subs[sub.UserID] = &cp
	return nil
}

func (f *fakeRepository) IncrementPostCount(userID uint) error {
	if sub, ok := f.subs[userID]; ok {
		sub.MonthlyPostCount++
	}
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testUser() *models.User {
	return &models.User{ID: 42, Email: "creator@example.com"}
}

func TestStatusDefaultsToStarter(t *testing.T) {
	svc := NewService(newFakeRepository(), NoopStatusCache{}, nil).
		WithClock(fixedClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)))

	st, err := svc.Status(context.Background(), testUser())
	require.NoError(t, err)
	assert.Equal(t, "Starter", st.Plan.Name)
	assert.Equal(t, 5, st.MonthlyLimit)
	assert.Equal(t, 5, st.RemainingUses)
	assert.False(t, st.Subscribed)
	assert.True(t, st.CanUse)
}

func TestStatusUnlimitedAllowList(t *testing.T) {
	svc := NewService(newFakeRepository(), NoopStatusCache{}, []string{"Creator@Example.com"}).
		WithClock(fixedClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)))

	st, err := svc.Status(context.Background(), testUser())
	require.NoError(t, err)
	assert.Equal(t, plans.UnlimitedPosts, st.MonthlyLimit)
	assert.True(t, st.CanUse)
	assert.True(t, st.Subscribed)
}

func TestCanUseFlipsAtLimit(t *testing.T) {
	repo := newFakeRepository()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := NewService(repo, NoopStatusCache{}, nil).WithClock(fixedClock(now))
	user := testUser()

	for i := 0; i < 5; i++ {
		st, err := svc.Status(context.Background(), user)
		require.NoError(t, err)
		require.True(t, st.CanUse, "post %d should be allowed", i+1)
		require.NoError(t, svc.RecordPost(context.Background(), user))
	}

	st, err := svc.Status(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 5, st.MonthlyPostCount)
	assert.Equal(t, 0, st.RemainingUses)
	assert.False(t, st.CanUse)

	assert.ErrorIs(t, svc.RecordPost(context.Background(), user), ErrMonthlyLimitReached)
}

func TestMonthlyResetRollsCounter(t *testing.T) {
	repo := newFakeRepository()
	march := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := NewService(repo, NoopStatusCache{}, nil).WithClock(fixedClock(march))
	user := testUser()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.RecordPost(context.Background(), user))
	}

	// One month later the counter reads zero and the reset date advanced.
	april := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	svc.WithClock(fixedClock(april))
	st, err := svc.Status(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 0, st.MonthlyPostCount)
	assert.True(t, st.CanUse)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), st.MonthlyResetDate)
}

func TestSetPlanUpgrades(t *testing.T) {
	repo := newFakeRepository()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := NewService(repo, NoopStatusCache{}, nil).WithClock(fixedClock(now))
	user := testUser()

	require.NoError(t, svc.SetPlan(context.Background(), user.ID, user.Email, "Pro", true))

	st, err := svc.Status(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "Pro", st.Plan.Name)
	assert.True(t, st.Subscribed)
	assert.Equal(t, plans.UnlimitedPosts, st.MonthlyLimit)

	// Cancellation drops back to Starter limits.
	require.NoError(t, svc.SetPlan(context.Background(), user.ID, user.Email, "Pro", false))
	st, err = svc.Status(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "Starter", st.Plan.Name)
	assert.Equal(t, 5, st.MonthlyLimit)
}

func TestRedisCacheMemoizesUntilTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cacheTTL := 30 * time.Second

	repo := newFakeRepository()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := NewService(repo, NewRedisStatusCache(client, cacheTTL), nil).WithClock(fixedClock(now))
	user := testUser()

	st, err := svc.Status(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 0, st.MonthlyPostCount)

	// Mutate behind the cache's back; the stale count must survive until TTL.
	repo.Upsert(&models.Subscription{
		UserID:           user.ID,
		Email:            user.Email,
		PlanName:         "Starter",
		MonthlyPostCount: 3,
		MonthlyResetDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	})

	st, err = svc.Status(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 0, st.MonthlyPostCount, "cache should serve the memoized status")

	mr.FastForward(cacheTTL + time.Second)
	st, err = svc.Status(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 3, st.MonthlyPostCount, "expired cache should recompute")
}

func TestRecordPostInvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := newFakeRepository()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := NewService(repo, NewRedisStatusCache(client, 30*time.Second), nil).WithClock(fixedClock(now))
	user := testUser()

	_, err := svc.Status(context.Background(), user)
	require.NoError(t, err)

	require.NoError(t, svc.RecordPost(context.Background(), user))

	st, err := svc.Status(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 1, st.MonthlyPostCount, "write must invalidate memoized status")
}

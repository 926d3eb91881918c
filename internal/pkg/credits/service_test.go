package credits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SumanthChary/postpro-backend/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository is an in-memory ledger. WithTx stages all mutations on a
// copy and only commits when the callback returns nil, mirroring the
// rollback behavior of the GORM implementation.
type fakeRepository struct {
	nextID  uint
	rows    []models.Credit
	history []models.CreditHistory
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{nextID: 1}
}

func (f *fakeRepository) clone() *fakeRepository {
	c := &fakeRepository{nextID: f.nextID}
	c.rows = append([]models.Credit(nil), f.rows...)
	c.history = append([]models.CreditHistory(nil), f.history...)
	return c
}

func (f *fakeRepository) WithTx(fn func(tx Repository) error) error {
	staged := f.clone()
	if err := fn(staged); err != nil {
		return err
	}
	*f = *staged
	return nil
}

func (f *fakeRepository) InsertGrant(c *models.Credit) error {
	c.ID = f.nextID
	f.nextID++
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	f.rows = append(f.rows, *c)
	return nil
}

func (f *fakeRepository) ListActiveForUpdate(userID uint, now time.Time) ([]models.Credit, error) {
	var out []models.Credit
	for _, row := range f.rows {
		if row.UserID == userID && row.Balance > 0 && row.ExpiresAt.After(now) {
			out = append(out, row)
		}
	}
	// insertion sort by expiry, earliest first
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ExpiresAt.Before(out[j-1].ExpiresAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (f *fakeRepository) UpdateBalance(id uint, balance int) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Balance = balance
			return nil
		}
	}
	return errors.New("row not found")
}

func (f *fakeRepository) SumActive(userID uint, now time.Time) (int, error) {
	total := 0
	for _, row := range f.rows {
		if row.UserID == userID && row.Balance > 0 && row.ExpiresAt.After(now) {
			total += row.Balance
		}
	}
	return total, nil
}

func (f *fakeRepository) DeleteExpired(now time.Time) ([]models.Credit, error) {
	var gone []models.Credit
	var kept []models.Credit
	for _, row := range f.rows {
		if row.Balance > 0 && !row.ExpiresAt.After(now) {
			gone = append(gone, row)
		} else {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return gone, nil
}

func (f *fakeRepository) AppendHistory(h *models.CreditHistory) error {
	h.ID = f.nextID
	f.nextID++
	f.history = append(f.history, *h)
	return nil
}

func (f *fakeRepository) ListHistory(userID uint, limit int) ([]models.CreditHistory, error) {
	var out []models.CreditHistory
	for i := len(f.history) - 1; i >= 0; i-- {
		if f.history[i].UserID == userID {
			out = append(out, f.history[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAddThenGet(t *testing.T) {
	repo := newFakeRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(repo).WithClock(fixedClock(now))

	_, err := svc.Add(context.Background(), 42, 10, now.Add(30*24*time.Hour), models.CreditReasonPurchase)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 10, got)
}

func TestAddRejectsBadInput(t *testing.T) {
	repo := newFakeRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(repo).WithClock(fixedClock(now))

	_, err := svc.Add(context.Background(), 42, 0, now.Add(time.Hour), "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Add(context.Background(), 42, 5, now.Add(-time.Hour), "")
	assert.ErrorIs(t, err, ErrInvalidExpiry)
}

func TestUseConsumesOldestExpiringFirst(t *testing.T) {
	repo := newFakeRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(repo).WithClock(fixedClock(now))

	t1 := now.Add(24 * time.Hour)
	t2 := now.Add(48 * time.Hour)
	// Insert in reverse expiry order so ordering must come from the query,
	// not insertion order.
	_, err := svc.Add(context.Background(), 42, 10, t2, "")
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), 42, 3, t1, "")
	require.NoError(t, err)

	require.NoError(t, svc.Use(context.Background(), 42, 7))

	rows, err := repo.ListActiveForUpdate(42, now)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, t2, rows[0].ExpiresAt)
	assert.Equal(t, 6, rows[0].Balance)

	total, err := svc.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
}

func TestUseShortfallRollsBackEverything(t *testing.T) {
	repo := newFakeRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(repo).WithClock(fixedClock(now))

	_, err := svc.Add(context.Background(), 42, 3, now.Add(24*time.Hour), "")
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), 42, 2, now.Add(48*time.Hour), "")
	require.NoError(t, err)

	err = svc.Use(context.Background(), 42, 7)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	// No partial debit may survive the failed attempt.
	total, err := svc.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
}

func TestUseIgnoresExpiredRows(t *testing.T) {
	repo := newFakeRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(repo).WithClock(fixedClock(now.Add(-72 * time.Hour)))

	_, err := svc.Add(context.Background(), 42, 5, now.Add(-time.Hour), "")
	require.NoError(t, err)

	svc.WithClock(fixedClock(now))
	err = svc.Use(context.Background(), 42, 1)
	assert.ErrorIs(t, err, ErrInsufficientCredits)
}

func TestGetExcludesExpired(t *testing.T) {
	repo := newFakeRepository()
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(60 * 24 * time.Hour)
	svc := NewService(repo).WithClock(fixedClock(early))

	_, err := svc.Add(context.Background(), 7, 5, early.Add(24*time.Hour), "")
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), 7, 8, late.Add(24*time.Hour), "")
	require.NoError(t, err)

	svc.WithClock(fixedClock(late))
	total, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 8, total)
}

func TestExpireStaleForfeitsToHistory(t *testing.T) {
	repo := newFakeRepository()
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(repo).WithClock(fixedClock(early))

	_, err := svc.Add(context.Background(), 7, 5, early.Add(time.Hour), "")
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), 8, 2, early.Add(time.Hour), "")
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), 7, 9, early.Add(100*time.Hour), "")
	require.NoError(t, err)

	svc.WithClock(fixedClock(early.Add(2 * time.Hour)))
	forfeited, err := svc.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, forfeited)

	total, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 9, total)

	hist, err := svc.History(context.Background(), 7, 0)
	require.NoError(t, err)
	var expired int
	for _, h := range hist {
		if h.Reason == models.CreditReasonExpired {
			expired += -h.Amount
		}
	}
	assert.Equal(t, 5, expired)
}

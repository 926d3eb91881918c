package promo

import (
	"context"
	"testing"
	"time"

	"github.com/SumanthChary/postpro-backend/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type redemptionKey struct {
	userID uint
	code   string
}

type fakeRepository struct {
	rows map[redemptionKey]*models.CodeRedemption
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{rows: make(map[redemptionKey]*models.CodeRedemption)}
}

func (f *fakeRepository) RecordRedemption(rec *models.CodeRedemption) (bool, error) {
	key := redemptionKey{userID: rec.UserID, code: rec.Code}
	if _, ok := f.rows[key]; ok {
		return false, nil
	}
	f.rows[key] = rec
	return true, nil
}

type grant struct {
	userID    uint
	amount    int
	expiresAt time.Time
	reason    string
}

type fakeGranter struct {
	grants []grant
}

func (f *fakeGranter) Add(_ context.Context, userID uint, amount int, expiresAt time.Time, reason string) (*models.Credit, error) {
	f.grants = append(f.grants, grant{userID: userID, amount: amount, expiresAt: expiresAt, reason: reason})
	return &models.Credit{UserID: userID, Balance: amount, ExpiresAt: expiresAt}, nil
}

func TestRedeemGrantsCredits(t *testing.T) {
	repo := newFakeRepository()
	granter := &fakeGranter{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(repo, granter).WithClock(func() time.Time { return now })

	credits, err := svc.Redeem(context.Background(), 1, "POST3X")
	require.NoError(t, err)
	assert.Equal(t, 3, credits)

	require.Len(t, granter.grants, 1)
	assert.Equal(t, uint(1), granter.grants[0].userID)
	assert.Equal(t, 3, granter.grants[0].amount)
	assert.Equal(t, models.CreditReasonRedeemed, granter.grants[0].reason)
	assert.Equal(t, now.Add(30*24*time.Hour), granter.grants[0].expiresAt)
}

func TestRedeemNormalizesCode(t *testing.T) {
	svc := NewService(newFakeRepository(), &fakeGranter{})

	credits, err := svc.Redeem(context.Background(), 1, "  post3x ")
	require.NoError(t, err)
	assert.Equal(t, 3, credits)
}

func TestRedeemTwiceReturnsAlreadyRedeemed(t *testing.T) {
	repo := newFakeRepository()
	granter := &fakeGranter{}
	svc := NewService(repo, granter)

	_, err := svc.Redeem(context.Background(), 1, "POST3X")
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), 1, "POST3X")
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
	assert.Len(t, granter.grants, 1, "second attempt must not grant again")
}

func TestRedeemDistinctUsers(t *testing.T) {
	repo := newFakeRepository()
	granter := &fakeGranter{}
	svc := NewService(repo, granter)

	_, err := svc.Redeem(context.Background(), 1, "POST3X")
	require.NoError(t, err)
	_, err = svc.Redeem(context.Background(), 2, "POST3X")
	require.NoError(t, err)
	assert.Len(t, granter.grants, 2)
}

func TestRedeemUnknownCode(t *testing.T) {
	svc := NewService(newFakeRepository(), &fakeGranter{})

	_, err := svc.Redeem(context.Background(), 1, "NOPE")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestRedeemRequiresUser(t *testing.T) {
	svc := NewService(newFakeRepository(), &fakeGranter{})

	_, err := svc.Redeem(context.Background(), 0, "POST3X")
	assert.Error(t, err)
}

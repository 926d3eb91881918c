package promo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SumanthChary/postpro-backend/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidCode     = errors.New("promo code invalid")
	ErrAlreadyRedeemed = errors.New("promo code already redeemed")
)

// Code is a static promo definition: a credit grant with a validity window.
type Code struct {
	Credits  int
	Validity time.Duration
}

// The catalog of live codes. POST3X is the launch promotion.
var codes = map[string]Code{
	"POST3X": {Credits: 3, Validity: 30 * 24 * time.Hour},
}

// CreditGranter adds a credit grant to the ledger.
type CreditGranter interface {
	Add(ctx context.Context, userID uint, amount int, expiresAt time.Time, reason string) (*models.Credit, error)
}

// Repository records redemptions; the unique (user_id, code) index makes
// each code one-time per user.
type Repository interface {
	RecordRedemption(r *models.CodeRedemption) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a redemption repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) RecordRedemption(rec *models.CodeRedemption) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "code"},
		},
		DoNothing: true,
	}).Create(rec)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// Service redeems promo codes into credit grants.
type Service struct {
	repo    Repository
	credits CreditGranter
	now     func() time.Time
}

// NewService creates the promo service.
func NewService(repo Repository, credits CreditGranter) *Service {
	return &Service{repo: repo, credits: credits, now: time.Now}
}

// WithClock overrides the time source, used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Redeem grants the code's credits exactly once per user. The redemption
// row is written before the grant so a duplicate attempt never reaches the
// ledger.
func (s *Service) Redeem(ctx context.Context, userID uint, rawCode string) (int, error) {
	if userID == 0 {
		return 0, errors.New("user_id is required")
	}
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	def, ok := codes[code]
	if !ok {
		return 0, ErrInvalidCode
	}

	created, err := s.repo.RecordRedemption(&models.CodeRedemption{
		UserID:  userID,
		Code:    code,
		Credits: def.Credits,
	})
	if err != nil {
		return 0, fmt.Errorf("record redemption: %w", err)
	}
	if !created {
		return 0, ErrAlreadyRedeemed
	}

	if _, err := s.credits.Add(ctx, userID, def.Credits, s.now().Add(def.Validity), models.CreditReasonRedeemed); err != nil {
		return 0, fmt.Errorf("grant promo credits: %w", err)
	}
	return def.Credits, nil
}

package credits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SumanthChary/postpro-backend/app/models"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount       = errors.New("credit amount must be positive")
	ErrInvalidExpiry       = errors.New("credit expiry must be in the future")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// Service implements the credit ledger: grants are discrete rows with their
// own balance and expiry, debits consume oldest-expiring rows first, and
// expired balances are forfeited into the history table.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a ledger service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates a ledger service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// WithClock overrides the time source, used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Add inserts a new grant row. Grants are never merged with existing rows.
func (s *Service) Add(ctx context.Context, userID uint, amount int, expiresAt time.Time, reason string) (*models.Credit, error) {
	_ = ctx
	if userID == 0 {
		return nil, errors.New("user_id is required")
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	now := s.now()
	if !expiresAt.After(now) {
		return nil, ErrInvalidExpiry
	}
	if reason == "" {
		reason = models.CreditReasonPurchase
	}

	row := &models.Credit{
		UserID:    userID,
		Balance:   amount,
		ExpiresAt: expiresAt,
	}
	err := s.repo.WithTx(func(tx Repository) error {
		if err := tx.InsertGrant(row); err != nil {
			return err
		}
		return tx.AppendHistory(&models.CreditHistory{
			UserID: userID,
			Amount: amount,
			Reason: reason,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("add credits: %w", err)
	}
	return row, nil
}

// Use debits amount from the user's unexpired rows, soonest expiry first.
// The whole debit runs in one transaction under row locks; a shortfall rolls
// everything back and returns ErrInsufficientCredits, leaving the ledger
// untouched.
func (s *Service) Use(ctx context.Context, userID uint, amount int) error {
	_ = ctx
	if userID == 0 {
		return errors.New("user_id is required")
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	now := s.now()

	err := s.repo.WithTx(func(tx Repository) error {
		rows, err := tx.ListActiveForUpdate(userID, now)
		if err != nil {
			return err
		}

		total := 0
		for _, row := range rows {
			total += row.Balance
		}
		if total < amount {
			return ErrInsufficientCredits
		}

		remaining := amount
		for _, row := range rows {
			if remaining == 0 {
				break
			}
			take := row.Balance
			if take > remaining {
				take = remaining
			}
			if err := tx.UpdateBalance(row.ID, row.Balance-take); err != nil {
				return err
			}
			remaining -= take
		}

		return tx.AppendHistory(&models.CreditHistory{
			UserID: userID,
			Amount: -amount,
			Reason: models.CreditReasonUsed,
		})
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientCredits) {
			return ErrInsufficientCredits
		}
		return fmt.Errorf("use credits: %w", err)
	}
	return nil
}

// Get sums the balances of unexpired rows with balance > 0.
func (s *Service) Get(ctx context.Context, userID uint) (int, error) {
	_ = ctx
	if userID == 0 {
		return 0, errors.New("user_id is required")
	}
	total, err := s.repo.SumActive(userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("sum credits: %w", err)
	}
	return total, nil
}

// ExpireStale deletes expired rows that still carry balance and logs the
// forfeited amounts with reason "expired". Scheduling is external (cron or
// the internal admin endpoint); nothing in-process calls this periodically.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	_ = ctx
	now := s.now()

	forfeited := 0
	err := s.repo.WithTx(func(tx Repository) error {
		rows, err := tx.DeleteExpired(now)
		if err != nil {
			return err
		}
		for _, row := range rows {
			forfeited += row.Balance
			if err := tx.AppendHistory(&models.CreditHistory{
				UserID: row.UserID,
				Amount: -row.Balance,
				Reason: models.CreditReasonExpired,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("expire credits: %w", err)
	}
	return forfeited, nil
}

// History returns the most recent ledger movements for a user.
func (s *Service) History(ctx context.Context, userID uint, limit int) ([]models.CreditHistory, error) {
	_ = ctx
	if userID == 0 {
		return nil, errors.New("user_id is required")
	}
	return s.repo.ListHistory(userID, limit)
}

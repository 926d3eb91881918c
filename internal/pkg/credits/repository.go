package credits

import (
	"time"

	"github.com/SumanthChary/postpro-backend/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the credit ledger service.
// ListActiveForUpdate must only be called inside WithTx; it takes row locks
// so concurrent debits for the same user serialize instead of racing.
type Repository interface {
	WithTx(fn func(tx Repository) error) error
	InsertGrant(c *models.Credit) error
	ListActiveForUpdate(userID uint, now time.Time) ([]models.Credit, error)
	UpdateBalance(id uint, balance int) error
	SumActive(userID uint, now time.Time) (int, error)
	DeleteExpired(now time.Time) ([]models.Credit, error)
	AppendHistory(h *models.CreditHistory) error
	ListHistory(userID uint, limit int) ([]models.CreditHistory, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a credit ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(fn func(tx Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) InsertGrant(c *models.Credit) error {
	return r.db.Create(c).Error
}

func (r *gormRepository) ListActiveForUpdate(userID uint, now time.Time) ([]models.Credit, error) {
	var rows []models.Credit
	err := r.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND balance > 0 AND expires_at > ?", userID, now).
		Order("expires_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) UpdateBalance(id uint, balance int) error {
	return r.db.Model(&models.Credit{}).Where("id = ?", id).Update("balance", balance).Error
}

func (r *gormRepository) SumActive(userID uint, now time.Time) (int, error) {
	var total *int
	err := r.db.Model(&models.Credit{}).
		Select("SUM(balance)").
		Where("user_id = ? AND balance > 0 AND expires_at > ?", userID, now).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *gormRepository) DeleteExpired(now time.Time) ([]models.Credit, error) {
	var rows []models.Credit
	if err := r.db.
		Where("balance > 0 AND expires_at <= ?", now).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	if err := r.db.Delete(&models.Credit{}, ids).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *gormRepository) AppendHistory(h *models.CreditHistory) error {
	return r.db.Create(h).Error
}

func (r *gormRepository) ListHistory(userID uint, limit int) ([]models.CreditHistory, error) {
	var rows []models.CreditHistory
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

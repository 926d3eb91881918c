package payments

import (
	"errors"
	"strings"

	"github.com/SumanthChary/postpro-backend/app/models"
	"gorm.io/gorm"
)

// Repository provides DB operations used by the payment service.
type Repository interface {
	Insert(p *models.Payment) error
	GetByTransactionID(transactionID string) (*models.Payment, error)
	UpdateStatus(transactionID, status string) error
	ListByUser(userID uint, limit int) ([]models.Payment, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Insert(p *models.Payment) error {
	err := r.db.Create(p).Error
	if err == nil {
		return nil
	}
	// The unique transaction_id index is the idempotency guard; surface
	// duplicate-key violations as ErrDuplicateTransaction.
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") {
		return ErrDuplicateTransaction
	}
	return err
}

func (r *gormRepository) GetByTransactionID(transactionID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("transaction_id = ?", transactionID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) UpdateStatus(transactionID, status string) error {
	return r.db.Model(&models.Payment{}).
		Where("transaction_id = ?", transactionID).
		UpdateColumn("status", status).Error
}

func (r *gormRepository) ListByUser(userID uint, limit int) ([]models.Payment, error) {
	var rows []models.Payment
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

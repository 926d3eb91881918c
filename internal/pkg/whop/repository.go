package whop

import (
	"errors"
	"time"

	"github.com/SumanthChary/postpro-backend/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventStore persists webhook payloads with deduplication metadata.
type EventStore interface {
	CreateIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
}

// UserDirectory resolves and provisions users referenced by webhook payloads.
type UserDirectory interface {
	GetByEmail(email string) (*models.User, error)
	EnsureByEmail(email, name, whopUserID string) (*models.User, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewEventStore creates a webhook event store backed by GORM.
func NewEventStore(db *gorm.DB) EventStore {
	return &gormStore{db: db}
}

func (r *gormStore) CreateIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormStore) MarkProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

type gormDirectory struct {
	db *gorm.DB
}

// NewUserDirectory creates a user directory backed by GORM.
func NewUserDirectory(db *gorm.DB) UserDirectory {
	return &gormDirectory{db: db}
}

func (r *gormDirectory) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormDirectory) EnsureByEmail(email, name, whopUserID string) (*models.User, error) {
	user, err := r.GetByEmail(email)
	if err == nil {
		if whopUserID != "" && user.WhopUserID == "" {
			user.WhopUserID = whopUserID
			if err := r.db.Save(user).Error; err != nil {
				return nil, err
			}
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if name == "" {
		name = email
	}
	user = &models.User{
		Name:       name,
		Email:      email,
		Role:       models.ROLE_USER,
		Status:     models.STATUS_ACTIVE,
		WhopUserID: whopUserID,
	}
	if err := r.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

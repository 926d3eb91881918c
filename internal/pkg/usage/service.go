package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SumanthChary/postpro-backend/app/models"
	"gorm.io/gorm"
)

// Repository provides DB operations for the usage log.
type Repository interface {
	Insert(rec *models.UsageRecord) error
	List(userID uint, limit int) ([]models.UsageRecord, error)
	DistinctDays(userID uint, since time.Time) ([]time.Time, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a usage repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Insert(rec *models.UsageRecord) error {
	return r.db.Create(rec).Error
}

func (r *gormRepository) List(userID uint, limit int) ([]models.UsageRecord, error) {
	var rows []models.UsageRecord
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (r *gormRepository) DistinctDays(userID uint, since time.Time) ([]time.Time, error) {
	var days []time.Time
	err := r.db.Model(&models.UsageRecord{}).
		Select("DISTINCT DATE(created_at)").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("1 DESC").
		Pluck("DATE(created_at)", &days).Error
	return days, err
}

// How far back the streak query looks. Nobody has a longer streak than the
// product has existed, but bound the scan anyway.
const streakWindow = 366

// Service records billable actions and derives display statistics.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates the usage service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates the usage service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// WithClock overrides the time source, used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Record appends one usage row.
func (s *Service) Record(ctx context.Context, userID uint, actionType string, creditsUsed int) error {
	_ = ctx
	if userID == 0 {
		return errors.New("user_id is required")
	}
	if actionType == "" {
		return errors.New("action_type is required")
	}
	return s.repo.Insert(&models.UsageRecord{
		UserID:      userID,
		ActionType:  actionType,
		CreditsUsed: creditsUsed,
	})
}

// History returns the newest usage rows for display.
func (s *Service) History(ctx context.Context, userID uint, limit int) ([]models.UsageRecord, error) {
	_ = ctx
	if userID == 0 {
		return nil, errors.New("user_id is required")
	}
	return s.repo.List(userID, limit)
}

// Streak counts distinct calendar dates with at least one record,
// consecutive from today backward. A day without activity breaks the chain;
// today itself may still be pending, so a chain ending yesterday counts.
func (s *Service) Streak(ctx context.Context, userID uint) (int, error) {
	_ = ctx
	if userID == 0 {
		return 0, errors.New("user_id is required")
	}

	now := s.now().UTC()
	today := truncateDay(now)
	since := today.AddDate(0, 0, -streakWindow)

	days, err := s.repo.DistinctDays(userID, since)
	if err != nil {
		return 0, fmt.Errorf("list usage days: %w", err)
	}
	if len(days) == 0 {
		return 0, nil
	}

	seen := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		seen[truncateDay(d.UTC())] = struct{}{}
	}

	cursor := today
	if _, ok := seen[cursor]; !ok {
		// No activity yet today; the streak may still be alive from yesterday.
		cursor = cursor.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := seen[cursor]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak, nil
}

func truncateDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

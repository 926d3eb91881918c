package sharing

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/SumanthChary/postpro-backend/app/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEmptyContent = errors.New("content is required")
	ErrNotFound     = errors.New("shared analysis not found")
)

// Repository persists shareable analysis snapshots.
type Repository interface {
	Insert(a *models.PublicAnalysis) error
	GetByToken(token string) (*models.PublicAnalysis, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a sharing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Insert(a *models.PublicAnalysis) error {
	return r.db.Create(a).Error
}

func (r *gormRepository) GetByToken(token string) (*models.PublicAnalysis, error) {
	var a models.PublicAnalysis
	err := r.db.Where("share_token = ?", token).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SharedAnalysis is the public view of a shared snapshot. The owner's user
// id is deliberately absent.
type SharedAnalysis struct {
	ShareToken string          `json:"share_token"`
	Content    string          `json:"content"`
	Category   string          `json:"category,omitempty"`
	Scores     json.RawMessage `json:"scores,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

// Service creates and resolves public analysis links.
type Service struct {
	repo     Repository
	newToken func() string
}

// NewService creates the sharing service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, newToken: func() string { return uuid.NewString() }}
}

// WithTokenSource overrides token generation, used by tests.
func (s *Service) WithTokenSource(fn func() string) *Service {
	s.newToken = fn
	return s
}

// Share stores a snapshot of an analysis and returns its public token.
func (s *Service) Share(userID uint, content, category string, scores json.RawMessage) (string, error) {
	if userID == 0 {
		return "", errors.New("user_id is required")
	}
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}

	row := &models.PublicAnalysis{
		ShareToken: s.newToken(),
		UserID:     userID,
		Content:    content,
		Category:   category,
		ScoresJSON: string(scores),
	}
	if err := s.repo.Insert(row); err != nil {
		return "", err
	}
	return row.ShareToken, nil
}

// Get resolves a share token to its snapshot. No authentication is
// required; the token is the capability.
func (s *Service) Get(token string) (*SharedAnalysis, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNotFound
	}
	row, err := s.repo.GetByToken(token)
	if err != nil {
		return nil, err
	}

	out := &SharedAnalysis{
		ShareToken: row.ShareToken,
		Content:    row.Content,
		Category:   row.Category,
		CreatedAt:  row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if row.ScoresJSON != "" {
		out.Scores = json.RawMessage(row.ScoresJSON)
	}
	return out, nil
}

package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SumanthChary/postpro-backend/app/models"
	"github.com/SumanthChary/postpro-backend/internal/pkg/plans"
	"gorm.io/gorm"
)

var ErrMonthlyLimitReached = errors.New("monthly post limit reached")

// Status is the resolved view of a user's subscription and usage allowance.
type Status struct {
	Plan             plans.Plan `json:"plan"`
	Subscribed       bool       `json:"subscribed"`
	MonthlyPostCount int        `json:"monthly_post_count"`
	MonthlyResetDate time.Time  `json:"monthly_reset_date"`
	MonthlyLimit     int        `json:"monthly_limit"`
	RemainingUses    int        `json:"remaining_uses"`
	CanUse           bool       `json:"can_use"`
}

// Service resolves subscription status. Accounts on the unlimited allow-list
// get the synthetic Unlimited plan; everyone else gets their persisted
// subscription row, or the Starter defaults when none exists.
type Service struct {
	repo      Repository
	cache     StatusCache
	unlimited map[string]struct{}
	now       func() time.Time
}

// NewService creates an accessor with an injected cache and allow-list.
func NewService(repo Repository, cache StatusCache, unlimitedEmails []string) *Service {
	allow := make(map[string]struct{}, len(unlimitedEmails))
	for _, e := range unlimitedEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allow[e] = struct{}{}
		}
	}
	if cache == nil {
		cache = NoopStatusCache{}
	}
	return &Service{repo: repo, cache: cache, unlimited: allow, now: time.Now}
}

// WithClock overrides the time source, used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Status returns the user's plan, counters and derived allowance. Results
// are memoized in the cache for its TTL.
func (s *Service) Status(ctx context.Context, user *models.User) (*Status, error) {
	if user == nil || user.ID == 0 {
		return nil, errors.New("user is required")
	}

	if st, ok := s.cache.Get(ctx, user.ID); ok {
		return st, nil
	}

	st, err := s.resolve(user)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, user.ID, st)
	return st, nil
}

func (s *Service) resolve(user *models.User) (*Status, error) {
	now := s.now()

	if _, ok := s.unlimited[strings.ToLower(strings.TrimSpace(user.Email))]; ok {
		plan := plans.Unlimited()
		return &Status{
			Plan:             plan,
			Subscribed:       true,
			MonthlyResetDate: nextMonthStart(now),
			MonthlyLimit:     plan.MonthlyPostLimit,
			RemainingUses:    plans.UnlimitedPosts,
			CanUse:           true,
		}, nil
	}

	sub, err := s.repo.GetByUserID(user.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// Most users never get a row; free-tier state is computed per request.
		sub = &models.Subscription{
			UserID:           user.ID,
			Email:            user.Email,
			PlanName:         plans.Starter().Name,
			MonthlyResetDate: nextMonthStart(now),
		}
	}

	// Reset is a date comparison, not a job: once the reset date has passed
	// the counter reads as zero and the date rolls forward.
	if !now.Before(sub.MonthlyResetDate) {
		sub.MonthlyPostCount = 0
		sub.MonthlyResetDate = nextMonthStart(now)
		if sub.ID != 0 {
			if err := s.repo.Upsert(sub); err != nil {
				return nil, fmt.Errorf("roll monthly reset: %w", err)
			}
		}
	}

	plan := plans.ByName(sub.PlanName)
	if !sub.Subscribed {
		plan = plans.Starter()
	}

	limit := plan.MonthlyPostLimit
	canUse := limit == plans.UnlimitedPosts || sub.MonthlyPostCount < limit
	remaining := plans.UnlimitedPosts
	if limit != plans.UnlimitedPosts {
		remaining = limit - sub.MonthlyPostCount
		if remaining < 0 {
			remaining = 0
		}
	}

	return &Status{
		Plan:             plan,
		Subscribed:       sub.Subscribed,
		MonthlyPostCount: sub.MonthlyPostCount,
		MonthlyResetDate: sub.MonthlyResetDate,
		MonthlyLimit:     limit,
		RemainingUses:    remaining,
		CanUse:           canUse,
	}, nil
}

// RecordPost counts one post against the monthly limit and invalidates the
// memoized status. Returns ErrMonthlyLimitReached when the allowance is
// already spent.
func (s *Service) RecordPost(ctx context.Context, user *models.User) error {
	st, err := s.Status(ctx, user)
	if err != nil {
		return err
	}
	if !st.CanUse {
		return ErrMonthlyLimitReached
	}
	if st.MonthlyLimit == plans.UnlimitedPosts {
		return nil
	}

	sub, err := s.repo.GetByUserID(user.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		sub = &models.Subscription{
			UserID:           user.ID,
			Email:            user.Email,
			PlanName:         st.Plan.Name,
			Subscribed:       st.Subscribed,
			MonthlyPostCount: st.MonthlyPostCount,
			MonthlyResetDate: st.MonthlyResetDate,
		}
		if err := s.repo.Upsert(sub); err != nil {
			return fmt.Errorf("create subscription row: %w", err)
		}
	}
	if err := s.repo.IncrementPostCount(user.ID); err != nil {
		return fmt.Errorf("increment post count: %w", err)
	}
	s.cache.Invalidate(ctx, user.ID)
	return nil
}

// SetPlan persists subscription state from a payment or webhook event and
// invalidates the memoized status.
func (s *Service) SetPlan(ctx context.Context, userID uint, email, planName string, subscribed bool) error {
	if userID == 0 {
		return errors.New("user_id is required")
	}
	now := s.now()

	sub, err := s.repo.GetByUserID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		sub = &models.Subscription{
			UserID:           userID,
			Email:            email,
			MonthlyResetDate: nextMonthStart(now),
		}
	}
	sub.PlanName = plans.ByName(planName).Name
	sub.Subscribed = subscribed
	if email != "" {
		sub.Email = email
	}
	if err := s.repo.Upsert(sub); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	s.cache.Invalidate(ctx, userID)
	return nil
}

func nextMonthStart(now time.Time) time.Time {
	year, month, _ := now.UTC().Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

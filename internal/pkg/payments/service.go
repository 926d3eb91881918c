package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/SumanthChary/postpro-backend/app/models"
	"github.com/SumanthChary/postpro-backend/internal/pkg/plans"
	"github.com/google/uuid"
)

var (
	// ErrInvalidSignature carries the exact message the dashboard expects.
	ErrInvalidSignature     = errors.New("Invalid payment signature")
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrPaymentNotCaptured   = errors.New("payment not captured")
	ErrOrderMismatch        = errors.New("payment does not belong to order")
)

// How long purchased credits stay spendable.
const creditValidity = 365 * 24 * time.Hour

// CreditGranter adds a credit grant to the ledger.
type CreditGranter interface {
	Add(ctx context.Context, userID uint, amount int, expiresAt time.Time, reason string) (*models.Credit, error)
}

// PlanSetter persists subscription state after a verified payment.
type PlanSetter interface {
	SetPlan(ctx context.Context, userID uint, email, planName string, subscribed bool) error
}

// Service drives a payment attempt through
// CREATED -> CAPTURED -> VERIFIED -> RECORDED. Every step failure is
// terminal; the caller re-initiates payment, nothing retries.
type Service struct {
	repo    Repository
	client  *RazorpayClient
	credits CreditGranter
	subs    PlanSetter
	now     func() time.Time
}

// NewService wires the payment service.
func NewService(repo Repository, client *RazorpayClient, credits CreditGranter, subs PlanSetter) *Service {
	return &Service{repo: repo, client: client, credits: credits, subs: subs, now: time.Now}
}

// WithClock overrides the time source, used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateOrder opens a Razorpay order for the named plan and returns it for
// the client-side checkout widget.
func (s *Service) CreateOrder(ctx context.Context, planName string) (*RazorpayOrder, error) {
	plan := plans.ByName(planName)
	if plan.Price <= 0 {
		return nil, fmt.Errorf("plan %q is not purchasable", planName)
	}
	// Razorpay amounts are in minor units.
	amount := int64(math.Round(plan.Price * 100))
	receipt := "postpro_" + uuid.NewString()
	return s.client.CreateOrder(ctx, amount, plan.Currency, receipt)
}

// VerifyInput is a provider callback for a completed checkout.
type VerifyInput struct {
	UserID    uint
	Email     string
	OrderID   string
	PaymentID string
	Signature string
	PlanName  string
}

// VerifyAndRecord checks the HMAC signature, re-fetches the payment from
// Razorpay and requires captured status, then records the payment and grants
// the plan's credits. The unique transaction id makes the RECORDED step
// idempotent under retry.
func (s *Service) VerifyAndRecord(ctx context.Context, in VerifyInput) (*models.Payment, error) {
	if in.UserID == 0 || strings.TrimSpace(in.OrderID) == "" || strings.TrimSpace(in.PaymentID) == "" {
		return nil, errors.New("user_id, order_id and payment_id are required")
	}

	if !VerifyPaymentSignature(in.OrderID, in.PaymentID, in.Signature, s.client.KeySecret) {
		return nil, ErrInvalidSignature
	}

	provider, err := s.client.FetchPayment(ctx, in.PaymentID)
	if err != nil {
		return nil, err
	}
	if provider.Status != RazorpayPaymentStatusCaptured {
		return nil, fmt.Errorf("%w: status=%s", ErrPaymentNotCaptured, provider.Status)
	}
	if provider.OrderID != "" && provider.OrderID != in.OrderID {
		return nil, ErrOrderMismatch
	}

	plan := plans.ByName(in.PlanName)
	payment := &models.Payment{
		UserID:           in.UserID,
		Amount:           provider.Amount,
		Currency:         provider.Currency,
		PaymentMethod:    models.PaymentMethodRazorpay,
		TransactionID:    in.PaymentID,
		OrderID:          in.OrderID,
		SubscriptionTier: plan.Name,
	}
	return payment, s.record(ctx, payment, in.Email, plan)
}

// CaptureInput records a capture already performed by a client-side SDK
// (PayPal) or trusted webhook (Whop).
type CaptureInput struct {
	UserID        uint
	Email         string
	TransactionID string
	Amount        int64
	Currency      string
	Method        string
	PlanName      string
}

// RecordCapture inserts the payment and grants credits, with the same
// duplicate-transaction idempotency as VerifyAndRecord.
func (s *Service) RecordCapture(ctx context.Context, in CaptureInput) (*models.Payment, error) {
	if in.UserID == 0 || strings.TrimSpace(in.TransactionID) == "" {
		return nil, errors.New("user_id and transaction_id are required")
	}
	method := in.Method
	if method == "" {
		method = models.PaymentMethodPayPal
	}

	plan := plans.ByName(in.PlanName)
	payment := &models.Payment{
		UserID:           in.UserID,
		Amount:           in.Amount,
		Currency:         in.Currency,
		PaymentMethod:    method,
		TransactionID:    in.TransactionID,
		SubscriptionTier: plan.Name,
	}
	return payment, s.record(ctx, payment, in.Email, plan)
}

// record inserts the payment as pending, grants credits, activates the
// subscription, then marks the row completed. A duplicate transaction id
// only short-circuits when the stored row is already completed; a pending
// row means a previous attempt died between insert and grant, so the retry
// resumes the remaining steps instead of stranding the paid user.
func (s *Service) record(ctx context.Context, payment *models.Payment, email string, plan plans.Plan) error {
	payment.Status = models.PaymentStatusPending
	if err := s.repo.Insert(payment); err != nil {
		if !errors.Is(err, ErrDuplicateTransaction) {
			return fmt.Errorf("record payment: %w", err)
		}
		existing, lookupErr := s.repo.GetByTransactionID(payment.TransactionID)
		if lookupErr != nil {
			return fmt.Errorf("look up duplicate payment: %w", lookupErr)
		}
		if existing.Status == models.PaymentStatusCompleted {
			return ErrDuplicateTransaction
		}
		payment.ID = existing.ID
	}

	if plan.CreditsIncluded > 0 {
		if _, err := s.credits.Add(ctx, payment.UserID, plan.CreditsIncluded, s.now().Add(creditValidity), models.CreditReasonPurchase); err != nil {
			return fmt.Errorf("grant plan credits: %w", err)
		}
	}
	if err := s.subs.SetPlan(ctx, payment.UserID, email, plan.Name, true); err != nil {
		return fmt.Errorf("activate subscription: %w", err)
	}

	if err := s.repo.UpdateStatus(payment.TransactionID, models.PaymentStatusCompleted); err != nil {
		return fmt.Errorf("complete payment: %w", err)
	}
	payment.Status = models.PaymentStatusCompleted
	return nil
}

// History returns the user's recorded payments, newest first.
func (s *Service) History(ctx context.Context, userID uint, limit int) ([]models.Payment, error) {
	_ = ctx
	if userID == 0 {
		return nil, errors.New("user_id is required")
	}
	return s.repo.ListByUser(userID, limit)
}

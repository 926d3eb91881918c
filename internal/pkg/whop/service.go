package whop

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/SumanthChary/postpro-backend/app/models"
	"github.com/SumanthChary/postpro-backend/internal/pkg/payments"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// CaptureRecorder records externally captured payments.
type CaptureRecorder interface {
	RecordCapture(ctx context.Context, in payments.CaptureInput) (*models.Payment, error)
}

// PlanSetter persists subscription state from webhook events.
type PlanSetter interface {
	SetPlan(ctx context.Context, userID uint, email, planName string, subscribed bool) error
}

// Service ingests Whop webhooks: verify (when a secret is configured),
// persist idempotently, then dispatch on the event type. Duplicate
// deliveries are acknowledged without reprocessing.
type Service struct {
	store    EventStore
	users    UserDirectory
	payments CaptureRecorder
	subs     PlanSetter
	secret   string
}

// NewService wires the webhook service. An empty secret disables signature
// enforcement; events are then stored with signature_valid=false.
func NewService(store EventStore, users UserDirectory, recorder CaptureRecorder, subs PlanSetter, secret string) *Service {
	return &Service{store: store, users: users, payments: recorder, subs: subs, secret: strings.TrimSpace(secret)}
}

// Result reports what HandleEvent did with a delivery.
type Result struct {
	EventType      string
	Duplicate      bool
	SignatureValid bool
}

// HandleEvent processes one webhook delivery.
func (s *Service) HandleEvent(ctx context.Context, rawBody []byte, signatureHeader string) (*Result, error) {
	signatureValid := VerifySignature(rawBody, signatureHeader, s.secret)
	if s.secret != "" && !signatureValid {
		return nil, ErrInvalidSignature
	}

	ev, err := ParseEvent(rawBody)
	if err != nil {
		return nil, err
	}

	stored, created, err := s.persist(ev, rawBody, signatureValid)
	if err != nil {
		return nil, err
	}
	res := &Result{EventType: ev.Type, SignatureValid: signatureValid}
	if !created {
		res.Duplicate = true
		return res, nil
	}

	processErr := s.dispatch(ctx, ev)
	errMsg := ""
	if processErr != nil {
		errMsg = processErr.Error()
	}
	if err := s.store.MarkProcessed(stored.ID, errMsg); err != nil {
		return res, err
	}
	return res, processErr
}

func (s *Service) persist(ev *Event, rawBody []byte, signatureValid bool) (*models.WebhookEvent, bool, error) {
	eventID := strings.TrimSpace(ev.ID)
	if eventID == "" {
		// Providers occasionally omit delivery ids; hash the payload so the
		// dedup index still has something stable to key on.
		sum := sha256.Sum256(rawBody)
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}
	created, stored, err := s.store.CreateIfNotExists(&models.WebhookEvent{
		Provider:        models.WebhookProviderWhop,
		ProviderEventID: eventID,
		EventType:       ev.Type,
		PayloadJSON:     string(rawBody),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		return nil, false, fmt.Errorf("persist webhook event: %w", err)
	}
	return stored, created, nil
}

func (s *Service) dispatch(ctx context.Context, ev *Event) error {
	switch ev.Type {
	case EventPaymentSuccess:
		return s.onPaymentSuccess(ctx, ev)
	case EventSubscriptionCreated:
		return s.onSubscriptionChanged(ctx, ev, true)
	case EventSubscriptionCancelled:
		return s.onSubscriptionChanged(ctx, ev, false)
	case EventUserCreated:
		return s.onUserCreated(ctx, ev)
	}
	return ErrUnknownEventType
}

func (s *Service) onPaymentSuccess(ctx context.Context, ev *Event) error {
	var data PaymentData
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return fmt.Errorf("decode payment data: %w", err)
	}
	if data.Email == "" || data.ID == "" {
		return errors.New("payment.success requires id and email")
	}

	user, err := s.users.EnsureByEmail(data.Email, "", "")
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	_, err = s.payments.RecordCapture(ctx, payments.CaptureInput{
		UserID:        user.ID,
		Email:         user.Email,
		TransactionID: data.ID,
		Amount:        int64(math.Round(data.Amount * 100)),
		Currency:      data.Currency,
		Method:        models.PaymentMethodWhop,
		PlanName:      data.Plan,
	})
	if errors.Is(err, payments.ErrDuplicateTransaction) {
		// Redelivery of an already-recorded payment is not a failure.
		return nil
	}
	return err
}

func (s *Service) onSubscriptionChanged(ctx context.Context, ev *Event, subscribed bool) error {
	var data SubscriptionData
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return fmt.Errorf("decode subscription data: %w", err)
	}
	if data.Email == "" {
		return errors.New("subscription event requires email")
	}

	user, err := s.users.EnsureByEmail(data.Email, "", "")
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}
	return s.subs.SetPlan(ctx, user.ID, user.Email, data.Plan, subscribed)
}

func (s *Service) onUserCreated(_ context.Context, ev *Event) error {
	var data UserData
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return fmt.Errorf("decode user data: %w", err)
	}
	if data.Email == "" {
		return errors.New("user.created requires email")
	}
	_, err := s.users.EnsureByEmail(data.Email, data.Name, data.ID)
	return err
}

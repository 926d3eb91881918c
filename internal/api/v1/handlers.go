package apiv1

import (
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/SumanthChary/postpro-backend/app/models"
	"github.com/SumanthChary/postpro-backend/internal/pkg/credits"
	"github.com/SumanthChary/postpro-backend/internal/pkg/enhance"
	"github.com/SumanthChary/postpro-backend/internal/pkg/gemini"
	"github.com/SumanthChary/postpro-backend/internal/pkg/middleware"
	"github.com/SumanthChary/postpro-backend/internal/pkg/payments"
	"github.com/SumanthChary/postpro-backend/internal/pkg/plans"
	"github.com/SumanthChary/postpro-backend/internal/pkg/promo"
	"github.com/SumanthChary/postpro-backend/internal/pkg/sharing"
	"github.com/SumanthChary/postpro-backend/internal/pkg/subscription"
	"github.com/SumanthChary/postpro-backend/internal/pkg/usage"
	"github.com/SumanthChary/postpro-backend/internal/pkg/whop"
)

// APIServer holds the domain services behind the v1 routes.
type APIServer struct {
	Credits       *credits.Service
	Subscriptions *subscription.Service
	Payments      *payments.Service
	Whop          *whop.Service
	Enhance       *enhance.Service
	Usage         *usage.Service
	Promo         *promo.Service
	Sharing       *sharing.Service

	SiteURL  string
	validate *validator.Validate
}

// NewAPIServer creates a new API server instance.
func NewAPIServer() *APIServer {
	return &APIServer{validate: validator.New()}
}

func (s *APIServer) currentUser(c *fiber.Ctx) *models.User {
	return &models.User{
		ID:    middleware.CurrentUserID(c),
		Email: middleware.CurrentUserEmail(c),
	}
}

func (s *APIServer) parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return err
	}
	return s.validate.Struct(dst)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": msg})
}

func businessError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
}

// GetPing handles the ping endpoint.
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}

// PostEnhancePost rewrites a post for engagement. Counts against the
// monthly post allowance.
func (s *APIServer) PostEnhancePost(c *fiber.Ctx) error {
	var req ContentRequest
	if err := s.parseBody(c, &req); err != nil {
		return badRequest(c, "postContent is required")
	}

	user := s.currentUser(c)
	st, err := s.Subscriptions.Status(c.Context(), user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to resolve subscription"})
	}
	if !st.CanUse {
		return businessError(c, fiber.StatusForbidden, "Monthly post limit reached")
	}

	enhanced, err := s.Enhance.EnhancePost(c.Context(), req.PostContent, req.Category)
	if err != nil {
		if errors.Is(err, enhance.ErrEmptyContent) {
			return badRequest(c, "postContent is required")
		}
		if errors.Is(err, gemini.ErrNotConfigured) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "AI service not configured"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "bad_gateway", "message": "AI service unavailable"})
	}

	if err := s.Subscriptions.RecordPost(c.Context(), user); err != nil && !errors.Is(err, subscription.ErrMonthlyLimitReached) {
		log.Printf("record post for user %d: %v", user.ID, err)
	}
	s.recordUsage(c, user.ID, models.ActionEnhancePost)

	return c.JSON(fiber.Map{"enhancedPost": enhanced})
}

// PostAnalyzeHashtags suggests hashtags. A missing AI key is a hard 500
// here; other upstream failures degrade to the static list.
func (s *APIServer) PostAnalyzeHashtags(c *fiber.Ctx) error {
	var req ContentRequest
	if err := s.parseBody(c, &req); err != nil {
		return badRequest(c, "postContent is required")
	}

	res, err := s.Enhance.AnalyzeHashtags(c.Context(), req.PostContent, req.Category)
	if err != nil {
		if errors.Is(err, gemini.ErrNotConfigured) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "AI service not configured"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "bad_gateway", "message": "AI service unavailable"})
	}

	s.recordUsage(c, middleware.CurrentUserID(c), models.ActionHashtags)
	return c.JSON(res)
}

// PostAnalyzeVirality scores a post. Never hard-fails; falls back to a
// jittered score.
func (s *APIServer) PostAnalyzeVirality(c *fiber.Ctx) error {
	var req ContentRequest
	if err := s.parseBody(c, &req); err != nil {
		return badRequest(c, "postContent is required")
	}

	res, err := s.Enhance.AnalyzeVirality(c.Context(), req.PostContent, req.Category)
	if err != nil {
		return badRequest(c, err.Error())
	}

	s.recordUsage(c, middleware.CurrentUserID(c), models.ActionVirality)
	return c.JSON(res)
}

// PostGenerateCTASuggestions suggests calls to action.
func (s *APIServer) PostGenerateCTASuggestions(c *fiber.Ctx) error {
	var req ContentRequest
	if err := s.parseBody(c, &req); err != nil {
		return badRequest(c, "postContent is required")
	}

	res, err := s.Enhance.GenerateCTASuggestions(c.Context(), req.PostContent, req.Category)
	if err != nil {
		return badRequest(c, err.Error())
	}

	s.recordUsage(c, middleware.CurrentUserID(c), models.ActionCTASuggestions)
	return c.JSON(res)
}

// PostChatAssistant answers a free-form question about the user's content.
func (s *APIServer) PostChatAssistant(c *fiber.Ctx) error {
	var req ChatRequest
	if err := s.parseBody(c, &req); err != nil {
		return badRequest(c, "message is required")
	}

	res, err := s.Enhance.ChatAssistant(c.Context(), req.Message)
	if err != nil {
		return badRequest(c, err.Error())
	}

	s.recordUsage(c, middleware.CurrentUserID(c), models.ActionChatAssistant)
	return c.JSON(res)
}

// PostHandleCredits multiplexes credit operations on an action field,
// matching the shape the dashboard already speaks.
func (s *APIServer) PostHandleCredits(c *fiber.Ctx) error {
	var req CreditsRequest
	if err := s.parseBody(c, &req); err != nil {
		return badRequest(c, "action must be one of add, use, get")
	}

	userID := middleware.CurrentUserID(c)

	switch req.Action {
	case "get":
		balance, err := s.Credits.Get(c.Context(), userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to read credits"})
		}
		return c.JSON(fiber.Map{"success": true, "credits": balance})

	case "add":
		expiresAt, err := parseExpiry(req.ExpiresAt)
		if err != nil {
			return badRequest(c, "expires_at must be RFC 3339")
		}
		grant, err := s.Credits.Add(c.Context(), userID, req.Amount, expiresAt, models.CreditReasonPurchase)
		if err != nil {
			if errors.Is(err, credits.ErrInvalidAmount) || errors.Is(err, credits.ErrInvalidExpiry) {
				return businessError(c, fiber.StatusBadRequest, err.Error())
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Failed to add credits"})
		}
		balance, _ := s.Credits.Get(c.Context(), userID)
		return c.JSON(fiber.Map{"success": true, "credits": balance, "grant_id": grant.ID})

	case "use":
		if err := s.Credits.Use(c.Context(), userID, req.Amount); err != nil {
			if errors.Is(err, credits.ErrInsufficientCredits) {
				return businessError(c, fiber.StatusBadRequest, "Insufficient credits")
			}
			if errors.Is(err, credits.ErrInvalidAmount) {
				return businessError(c, fiber.StatusBadRequest, err.Error())
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Failed to use credits"})
		}
		if err := s.Usage.Record(c.Context(), userID, "credit_use", req.Amount); err != nil {
			log.Printf("usage record for user %d: %v", userID, err)
		}
		balance, _ := s.Credits.Get(c.Context(), userID)
		return c.JSON(fiber.Map{"success": true, "credits": balance})
	}

	return badRequest(c, "action must be one of add, use, get")
}

// PostHandleRazorpayPayment multiplexes order creation and verification.
func (s *APIServer) PostHandleRazorpayPayment(c *fiber.Ctx) error {
	var req RazorpayRequest
	if err := s.parseBody(c, &req); err != nil {
		return badRequest(c, "action must be one of create-order, verify")
	}

	switch req.Action {
	case "create-order":
		order, err := s.Payments.CreateOrder(c.Context(), req.PlanName)
		if err != nil {
			return businessError(c, fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{"success": true, "order": order})

	case "verify":
		payment, err := s.Payments.VerifyAndRecord(c.Context(), payments.VerifyInput{
			UserID:    middleware.CurrentUserID(c),
			Email:     middleware.CurrentUserEmail(c),
			OrderID:   req.RazorpayOrderID,
			PaymentID: req.RazorpayPaymentID,
			Signature: req.RazorpaySignature,
			PlanName:  req.PlanName,
		})
		if err != nil {
			switch {
			case errors.Is(err, payments.ErrInvalidSignature):
				return businessError(c, fiber.StatusBadRequest, err.Error())
			case errors.Is(err, payments.ErrDuplicateTransaction):
				return businessError(c, fiber.StatusConflict, "Transaction already recorded")
			case errors.Is(err, payments.ErrPaymentNotCaptured), errors.Is(err, payments.ErrOrderMismatch):
				return businessError(c, fiber.StatusBadRequest, err.Error())
			}
			log.Printf("razorpay verify failed: %v", err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "error": "Payment verification failed"})
		}
		return c.JSON(fiber.Map{"success": true, "payment_id": payment.TransactionID})
	}

	return badRequest(c, "action must be one of create-order, verify")
}

// PostPayPalRecordCapture records a capture the PayPal browser SDK already
// performed.
func (s *APIServer) PostPayPalRecordCapture(c *fiber.Ctx) error {
	var req PayPalCaptureRequest
	if err := s.parseBody(c, &req); err != nil {
		return badRequest(c, "transaction_id, amount and plan_name are required")
	}

	payment, err := s.Payments.RecordCapture(c.Context(), payments.CaptureInput{
		UserID:        middleware.CurrentUserID(c),
		Email:         middleware.CurrentUserEmail(c),
		TransactionID: req.TransactionID,
		Amount:        int64(math.Round(req.Amount * 100)),
		Currency:      req.Currency,
		Method:        models.PaymentMethodPayPal,
		PlanName:      req.PlanName,
	})
	if err != nil {
		if errors.Is(err, payments.ErrDuplicateTransaction) {
			return businessError(c, fiber.StatusConflict, "Transaction already recorded")
		}
		log.Printf("paypal capture record failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Failed to record payment"})
	}
	return c.JSON(fiber.Map{"success": true, "payment_id": payment.TransactionID})
}

// PostWhopWebhook ingests Whop lifecycle events. Unauthenticated; the
// HMAC signature (when a secret is configured) is the trust anchor.
func (s *APIServer) PostWhopWebhook(c *fiber.Ctx) error {
	res, err := s.Whop.HandleEvent(c.Context(), c.Body(), c.Get("X-Whop-Signature"))
	if err != nil {
		if errors.Is(err, whop.ErrInvalidSignature) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid webhook signature"})
		}
		log.Printf("whop webhook failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Webhook processing failed"})
	}
	return c.JSON(fiber.Map{"received": true, "type": res.EventType, "duplicate": res.Duplicate})
}

// PostRedeemCode redeems a promo code for bonus credits.
func (s *APIServer) PostRedeemCode(c *fiber.Ctx) error {
	var req RedeemRequest
	if err := s.parseBody(c, &req); err != nil {
		return badRequest(c, "code is required")
	}

	granted, err := s.Promo.Redeem(c.Context(), middleware.CurrentUserID(c), req.Code)
	if err != nil {
		if errors.Is(err, promo.ErrAlreadyRedeemed) {
			return businessError(c, fiber.StatusConflict, "Code already redeemed")
		}
		if errors.Is(err, promo.ErrInvalidCode) {
			return businessError(c, fiber.StatusBadRequest, "Invalid code")
		}
		log.Printf("redeem code failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Failed to redeem code"})
	}
	return c.JSON(fiber.Map{"success": true, "credits": granted})
}

// GetPlans returns the purchasable plan catalog for the pricing page.
func (s *APIServer) GetPlans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"plans": plans.Catalog()})
}

// GetCreditHistory lists the caller's ledger movements for the dashboard.
func (s *APIServer) GetCreditHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	rows, err := s.Credits.History(c.Context(), middleware.CurrentUserID(c), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to read credit history"})
	}
	return c.JSON(fiber.Map{"history": rows})
}

// GetPaymentHistory lists the caller's recorded payments.
func (s *APIServer) GetPaymentHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	rows, err := s.Payments.History(c.Context(), middleware.CurrentUserID(c), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to read payment history"})
	}
	return c.JSON(fiber.Map{"payments": rows})
}

// GetSubscriptionStatus returns the caller's plan, usage counters and
// remaining allowance.
func (s *APIServer) GetSubscriptionStatus(c *fiber.Ctx) error {
	st, err := s.Subscriptions.Status(c.Context(), s.currentUser(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to resolve subscription"})
	}
	return c.JSON(st)
}

// GetUsageHistory lists recent usage records.
func (s *APIServer) GetUsageHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	records, err := s.Usage.History(c.Context(), middleware.CurrentUserID(c), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to read usage history"})
	}
	return c.JSON(fiber.Map{"records": records})
}

// GetUsageStreak returns the consecutive-day usage streak.
func (s *APIServer) GetUsageStreak(c *fiber.Ctx) error {
	streak, err := s.Usage.Streak(c.Context(), middleware.CurrentUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to compute streak"})
	}
	return c.JSON(fiber.Map{"streak": streak})
}

// PostSharePublicAnalysis snapshots an analysis behind a public token.
func (s *APIServer) PostSharePublicAnalysis(c *fiber.Ctx) error {
	var req ShareRequest
	if err := s.parseBody(c, &req); err != nil {
		return badRequest(c, "content is required")
	}

	token, err := s.Sharing.Share(middleware.CurrentUserID(c), req.Content, req.Category, req.Scores)
	if err != nil {
		if errors.Is(err, sharing.ErrEmptyContent) {
			return badRequest(c, "content is required")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to share analysis"})
	}

	shareURL := ""
	if s.SiteURL != "" {
		shareURL = strings.TrimSuffix(s.SiteURL, "/") + "/shared/" + token
	}
	return c.JSON(fiber.Map{"share_token": token, "share_url": shareURL})
}

// GetSharedAnalysis serves a shared snapshot. No auth; the token is the
// capability.
func (s *APIServer) GetSharedAnalysis(c *fiber.Ctx) error {
	res, err := s.Sharing.Get(c.Params("token"))
	if err != nil {
		if errors.Is(err, sharing.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Shared analysis not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load shared analysis"})
	}
	return c.JSON(res)
}

// PostExpireCredits sweeps expired credit rows. Invoked by the external
// cron, guarded by the internal token.
func (s *APIServer) PostExpireCredits(c *fiber.Ctx) error {
	forfeited, err := s.Credits.ExpireStale(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to expire credits"})
	}
	return c.JSON(fiber.Map{"success": true, "forfeited": forfeited})
}

func (s *APIServer) recordUsage(c *fiber.Ctx, userID uint, action string) {
	if err := s.Usage.Record(c.Context(), userID, action, 0); err != nil {
		log.Printf("usage record for user %d action %s: %v", userID, action, err)
	}
}

func parseExpiry(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		// Default purchased-credit validity.
		return time.Now().Add(365 * 24 * time.Hour), nil
	}
	return time.Parse(time.RFC3339, raw)
}

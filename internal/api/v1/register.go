package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/SumanthChary/postpro-backend/internal/pkg/middleware"
)

// RegisterHandlers attaches the v1 routes. Ping, the Whop webhook and
// shared-analysis reads are public; everything else requires an API key,
// and the operational sweep requires the internal token.
func RegisterHandlers(r fiber.Router, s *APIServer, internalToken string) {
	r.Get("/ping", s.GetPing)
	r.Get("/plans", s.GetPlans)
	r.Post("/whop-webhook", s.PostWhopWebhook)
	r.Get("/shared/:token", s.GetSharedAnalysis)

	auth := r.Group("", middleware.APIKeyAuth())
	auth.Post("/enhance-post", s.PostEnhancePost)
	auth.Post("/analyze-hashtags", s.PostAnalyzeHashtags)
	auth.Post("/analyze-virality", s.PostAnalyzeVirality)
	auth.Post("/generate-cta-suggestions", s.PostGenerateCTASuggestions)
	auth.Post("/chat-assistant", s.PostChatAssistant)
	auth.Post("/handle-credits", s.PostHandleCredits)
	auth.Post("/handle-razorpay-payment", s.PostHandleRazorpayPayment)
	auth.Post("/paypal/record-capture", s.PostPayPalRecordCapture)
	auth.Post("/redeem-code", s.PostRedeemCode)
	auth.Get("/credits/history", s.GetCreditHistory)
	auth.Get("/payments/history", s.GetPaymentHistory)
	auth.Get("/subscription/status", s.GetSubscriptionStatus)
	auth.Get("/usage/history", s.GetUsageHistory)
	auth.Get("/usage/streak", s.GetUsageStreak)
	auth.Post("/share-public-analysis", s.PostSharePublicAnalysis)

	internal := r.Group("/internal", middleware.InternalAuth(internalToken))
	internal.Post("/expire-credits", s.PostExpireCredits)
}

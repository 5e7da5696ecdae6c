package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"guidehub/internal/dto/request"
	"guidehub/internal/usecase"
	"guidehub/pkg/utils"

	"go.uber.org/zap"
)

// maxWebhookBody caps webhook payloads; processor events are a few KB.
const maxWebhookBody = 65536

const signatureHeader = "Stripe-Signature"

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// CreateIntent handles POST /api/payments/create-intent (protected)
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreatePaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	intent, err := h.service.RequestPayment(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create payment intent")
		return
	}

	utils.ResponseSuccess(w, "success", intent)
}

// Webhook handles POST /api/payments/webhook. The raw body is passed through
// untouched because the signature covers its exact bytes.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		// Not a verification failure, and redelivery would hit the same
		// limit, so the delivery is acknowledged and dropped.
		h.log.Error("Dropping unreadable webhook body",
			zap.Error(err),
			zap.Int("limit_bytes", maxWebhookBody),
			zap.String("remote_addr", r.RemoteAddr))
		utils.ResponseSuccess(w, "ignored", map[string]bool{"received": false})
		return
	}

	err = h.service.ApplyWebhookEvent(r.Context(), payload, r.Header.Get(signatureHeader))
	if errors.Is(err, usecase.ErrVerification) {
		h.log.Warn("Rejected unverified webhook",
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr))
		utils.ResponseBadRequest(w, "Webhook verification failed", nil)
		return
	}
	if err != nil {
		// 5xx makes the processor redeliver later.
		handleServiceError(w, h.log, err, "apply webhook")
		return
	}

	utils.ResponseSuccess(w, "success", map[string]bool{"received": true})
}

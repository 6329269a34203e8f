package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/ortakpos/ortakpos/infra/response"
	"github.com/ortakpos/ortakpos/provider"
	"go.uber.org/zap"
)

// handlerTimeout bounds a single gateway round trip including the slow SOAP
// endpoint.
const handlerTimeout = 90 * time.Second

// PaymentHandler exposes the uniform payment operations over HTTP
type PaymentHandler struct {
	service  *provider.Service
	validate *validator.Validate
	logger   *zap.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(service *provider.Service, validate *validator.Validate, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		validate: validate,
		logger:   logger,
	}
}

func tenantID(r *http.Request) string {
	if tenant := r.Header.Get("X-Tenant-ID"); tenant != "" {
		return tenant
	}
	return "default"
}

// writeOperationError maps dispatch errors onto HTTP statuses; unsupported
// capabilities get 501 so callers can feature-detect.
func writeOperationError(w http.ResponseWriter, err error) {
	var unsupported *provider.UnsupportedOperationError
	if errors.As(err, &unsupported) {
		response.Error(w, http.StatusNotImplemented, "operation not supported", err)
		return
	}
	response.Error(w, http.StatusBadRequest, "payment operation failed", err)
}

// CreatePayment handles POST /v1/payments/{provider}
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	var req provider.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request format", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "validation error", err)
		return
	}
	req.ClientIP = clientIP(r)

	providerName := chi.URLParam(r, "provider")
	resp, err := h.service.CreatePayment(ctx, tenantID(r), providerName, req)
	if err != nil {
		writeOperationError(w, err)
		return
	}

	h.logger.Info("payment processed",
		zap.String("provider", providerName),
		zap.String("status", string(resp.Status)),
		zap.String("paymentId", resp.PaymentID))
	response.Success(w, http.StatusOK, "payment processed", resp)
}

// Create3DPayment handles POST /v1/payments/{provider}/3d
func (h *PaymentHandler) Create3DPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	var req provider.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request format", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "validation error", err)
		return
	}
	req.ClientIP = clientIP(r)

	providerName := chi.URLParam(r, "provider")
	resp, err := h.service.Create3DPayment(ctx, tenantID(r), providerName, req)
	if err != nil {
		writeOperationError(w, err)
		return
	}

	h.logger.Info("3D payment initialized",
		zap.String("provider", providerName),
		zap.String("status", string(resp.Status)))
	response.Success(w, http.StatusOK, "3D payment initialized", resp)
}

// Callback handles POST /v1/callback/{provider}: the bank redirect that
// resolves a pending 3D payment.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := r.ParseForm(); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid callback form", err)
		return
	}

	raw := make(map[string]string, len(r.Form))
	for key := range r.Form {
		raw[key] = r.Form.Get(key)
	}

	callback := provider.CallbackData{
		TransactionID:  firstOf(raw, "transactionId", "islemGUID", "TURKPOS_RETVAL_Islem_GUID"),
		PaymentID:      firstOf(raw, "paymentId"),
		OrderID:        firstOf(raw, "orderId", "siparisId", "TURKPOS_RETVAL_Siparis_ID"),
		ConversationID: firstOf(raw, "conversationId"),
		MD:             firstOf(raw, "md"),
		MDStatus:       firstOf(raw, "mdStatus"),
		Hash:           firstOf(raw, "hash", "islemHash", "TURKPOS_RETVAL_Hash"),
		Status:         firstOf(raw, "status"),
		Raw:            raw,
	}

	providerName := chi.URLParam(r, "provider")
	resp, err := h.service.Complete3DPayment(ctx, tenantID(r), providerName, callback)
	if err != nil {
		writeOperationError(w, err)
		return
	}

	h.logger.Info("3D payment completed",
		zap.String("provider", providerName),
		zap.String("status", string(resp.Status)),
		zap.String("paymentId", resp.PaymentID))
	response.Success(w, http.StatusOK, "callback processed", resp)
}

// GetPaymentStatus handles GET /v1/payments/{provider}/{paymentId}
func (h *PaymentHandler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	providerName := chi.URLParam(r, "provider")
	paymentID := chi.URLParam(r, "paymentId")

	resp, err := h.service.GetPaymentStatus(ctx, tenantID(r), providerName, paymentID)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "payment status", resp)
}

// CancelPayment handles POST /v1/payments/{provider}/cancel
func (h *PaymentHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	var req provider.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request format", err)
		return
	}

	providerName := chi.URLParam(r, "provider")
	resp, err := h.service.CancelPayment(ctx, tenantID(r), providerName, req)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "cancel processed", resp)
}

// RefundPayment handles POST /v1/payments/{provider}/refund
func (h *PaymentHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	var req provider.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request format", err)
		return
	}

	providerName := chi.URLParam(r, "provider")
	resp, err := h.service.RefundPayment(ctx, tenantID(r), providerName, req)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "refund processed", resp)
}

// BinCheck handles GET /v1/bin/{provider}/{bin}
func (h *PaymentHandler) BinCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	providerName := chi.URLParam(r, "provider")
	resp, err := h.service.BinCheck(ctx, tenantID(r), providerName, chi.URLParam(r, "bin"))
	if err != nil {
		writeOperationError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "bin check", resp)
}

// InstallmentInfo handles POST /v1/installments/{provider}
func (h *PaymentHandler) InstallmentInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	var req provider.InstallmentInquiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request format", err)
		return
	}

	providerName := chi.URLParam(r, "provider")
	resp, err := h.service.InstallmentInfo(ctx, tenantID(r), providerName, req)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "installment info", resp)
}

func firstOf(values map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := values[key]; v != "" {
			return v
		}
	}
	return ""
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}

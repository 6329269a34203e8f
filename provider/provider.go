package provider

import (
	"context"
	"fmt"
)

// Operation identifies one of the uniform gateway operations, used for
// capability checks before dispatch.
type Operation string

const (
	OpCreatePayment   Operation = "createPayment"
	OpCreate3DPayment Operation = "create3DPayment"
	OpComplete3D      Operation = "complete3DPayment"
	OpRefund          Operation = "refund"
	OpCancel          Operation = "cancel"
	OpPaymentStatus   Operation = "getPaymentStatus"
	OpBinCheck        Operation = "binCheck"
	OpInstallmentInfo Operation = "installmentInfo"
)

// ConfigField represents a required configuration field for a payment provider
type ConfigField struct {
	Key         string `json:"key"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // "string", "number", "url", "boolean"
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
	Pattern     string `json:"pattern,omitempty"`
	MinLength   int    `json:"minLength,omitempty"`
	MaxLength   int    `json:"maxLength,omitempty"`
}

// UnsupportedOperationError is returned when a provider does not offer an
// optional operation. Callers can feature-detect with errors.As instead of
// treating it as a payment decline.
type UnsupportedOperationError struct {
	Provider  string
	Operation Operation
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s: operation %q is not supported by this provider", e.Provider, e.Operation)
}

// NewUnsupportedOperationError builds the error adapters return for
// capabilities they do not offer.
func NewUnsupportedOperationError(providerName string, op Operation) error {
	return &UnsupportedOperationError{Provider: providerName, Operation: op}
}

// PaymentProvider defines the interface that all payment gateways must
// implement. Business-level declines are returned as failed responses, not
// errors; adapters only return an error for configuration faults,
// unsupported operations and programmer mistakes (missing payment id and
// the like).
type PaymentProvider interface {
	// Initialize sets up the payment provider with authentication and configuration
	Initialize(config map[string]string) error

	// GetRequiredConfig returns the configuration fields required for this provider
	GetRequiredConfig(environment string) []ConfigField

	// ValidateConfig validates the provided configuration against provider requirements
	ValidateConfig(config map[string]string) error

	// Supports reports whether the provider implements the given operation
	Supports(op Operation) bool

	// CreatePayment makes a non-3D payment request
	CreatePayment(ctx context.Context, request PaymentRequest) (*PaymentResponse, error)

	// Create3DPayment starts a 3D secure payment process. On success the
	// response status is pending and HTML carries the challenge content.
	Create3DPayment(ctx context.Context, request PaymentRequest) (*PaymentResponse, error)

	// Complete3DPayment finishes a 3D secure payment after the bank redirect.
	// The callback is authenticated before any business field is interpreted.
	Complete3DPayment(ctx context.Context, callback CallbackData) (*PaymentResponse, error)

	// GetPaymentStatus retrieves the current status of a payment; safe to retry
	GetPaymentStatus(ctx context.Context, paymentID string) (*PaymentResponse, error)

	// CancelPayment voids a payment before settlement
	CancelPayment(ctx context.Context, request CancelRequest) (*PaymentResponse, error)

	// RefundPayment issues a full or partial refund for a settled payment
	RefundPayment(ctx context.Context, request RefundRequest) (*RefundResponse, error)

	// BinCheck looks up issuer information for a card BIN (optional capability)
	BinCheck(ctx context.Context, binNumber string) (*BinCheckResponse, error)

	// InstallmentInfo lists installment options for a BIN and amount (optional capability)
	InstallmentInfo(ctx context.Context, request InstallmentInquiryRequest) (*InstallmentInfoResponse, error)
}

// ProviderFactory is a function type that creates a new PaymentProvider
type ProviderFactory func() PaymentProvider

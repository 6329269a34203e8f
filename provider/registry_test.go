package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name      string
	supported map[Operation]bool
}

func (s *stubProvider) Initialize(config map[string]string) error { return nil }
func (s *stubProvider) GetRequiredConfig(environment string) []ConfigField {
	return []ConfigField{{Key: "apiKey", Required: true, Type: "string"}}
}
func (s *stubProvider) ValidateConfig(config map[string]string) error { return nil }
func (s *stubProvider) Supports(op Operation) bool                    { return s.supported[op] }
func (s *stubProvider) CreatePayment(ctx context.Context, request PaymentRequest) (*PaymentResponse, error) {
	return &PaymentResponse{Success: true, Status: StatusSuccessful, PaymentID: "stub-1"}, nil
}
func (s *stubProvider) Create3DPayment(ctx context.Context, request PaymentRequest) (*PaymentResponse, error) {
	return &PaymentResponse{Status: StatusPending, HTML: "<form/>"}, nil
}
func (s *stubProvider) Complete3DPayment(ctx context.Context, callback CallbackData) (*PaymentResponse, error) {
	return &PaymentResponse{Success: true, Status: StatusSuccessful}, nil
}
func (s *stubProvider) GetPaymentStatus(ctx context.Context, paymentID string) (*PaymentResponse, error) {
	return &PaymentResponse{Success: true, Status: StatusSuccessful, PaymentID: paymentID}, nil
}
func (s *stubProvider) CancelPayment(ctx context.Context, request CancelRequest) (*PaymentResponse, error) {
	return &PaymentResponse{Success: true, Status: StatusCancelled}, nil
}
func (s *stubProvider) RefundPayment(ctx context.Context, request RefundRequest) (*RefundResponse, error) {
	return &RefundResponse{Success: true, Status: StatusSuccessful}, nil
}
func (s *stubProvider) BinCheck(ctx context.Context, binNumber string) (*BinCheckResponse, error) {
	return &BinCheckResponse{Success: true, BinNumber: binNumber}, nil
}
func (s *stubProvider) InstallmentInfo(ctx context.Context, request InstallmentInquiryRequest) (*InstallmentInfoResponse, error) {
	return &InstallmentInfoResponse{Success: true}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	registry.Register("stub", func() PaymentProvider { return &stubProvider{name: "stub"} })

	factory, err := registry.Get("stub")
	require.NoError(t, err)
	require.NotNil(t, factory)

	p, err := registry.CreateProvider("stub")
	require.NoError(t, err)
	assert.IsType(t, &stubProvider{}, p)
}

func TestRegistryUnknownProvider(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent")

	_, err = registry.CreateProvider("nonexistent")
	assert.Error(t, err)
}

func TestRegistryProviderNames(t *testing.T) {
	registry := NewRegistry()
	registry.Register("zeta", func() PaymentProvider { return &stubProvider{} })
	registry.Register("alpha", func() PaymentProvider { return &stubProvider{} })

	assert.Equal(t, []string{"alpha", "zeta"}, registry.ProviderNames())
}

func TestRegistryOverwrite(t *testing.T) {
	registry := NewRegistry()
	registry.Register("stub", func() PaymentProvider { return &stubProvider{name: "first"} })
	registry.Register("stub", func() PaymentProvider { return &stubProvider{name: "second"} })

	p, err := registry.CreateProvider("stub")
	require.NoError(t, err)
	assert.Equal(t, "second", p.(*stubProvider).name)
}

package provider

import (
	"context"
	"fmt"
	"sync"
)

// Service is the composition point over the provider registry. It holds
// initialized provider instances per tenant and dispatches the uniform
// operation set, checking capabilities before a call ever reaches an
// adapter.
type Service struct {
	registry  *Registry
	instances map[string]PaymentProvider
	mu        sync.RWMutex
}

// NewService creates a payment service over the given registry
func NewService(registry *Registry) *Service {
	if registry == nil {
		registry = DefaultRegistry
	}
	return &Service{
		registry:  registry,
		instances: make(map[string]PaymentProvider),
	}
}

func instanceKey(tenantID, providerName string) string {
	return tenantID + "_" + providerName
}

// EnableProvider instantiates and initializes a provider for a tenant.
// Configuration faults fail here, never at call time.
func (s *Service) EnableProvider(tenantID, providerName string, config map[string]string) error {
	p, err := s.registry.CreateProvider(providerName)
	if err != nil {
		return err
	}
	if err := p.Initialize(config); err != nil {
		return fmt.Errorf("failed to initialize provider %q: %w", providerName, err)
	}

	s.mu.Lock()
	s.instances[instanceKey(tenantID, providerName)] = p
	s.mu.Unlock()
	return nil
}

// Provider returns the initialized provider for a tenant
func (s *Service) Provider(tenantID, providerName string) (PaymentProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.instances[instanceKey(tenantID, providerName)]
	if !ok {
		return nil, fmt.Errorf("provider %q is not enabled for tenant %q", providerName, tenantID)
	}
	return p, nil
}

// IsSupported reports whether an enabled provider offers the operation
func (s *Service) IsSupported(tenantID, providerName string, op Operation) bool {
	p, err := s.Provider(tenantID, providerName)
	if err != nil {
		return false
	}
	return p.Supports(op)
}

func (s *Service) dispatch(tenantID, providerName string, op Operation) (PaymentProvider, error) {
	p, err := s.Provider(tenantID, providerName)
	if err != nil {
		return nil, err
	}
	if !p.Supports(op) {
		return nil, NewUnsupportedOperationError(providerName, op)
	}
	return p, nil
}

// CreatePayment makes a non-3D payment via the named provider
func (s *Service) CreatePayment(ctx context.Context, tenantID, providerName string, request PaymentRequest) (*PaymentResponse, error) {
	p, err := s.dispatch(tenantID, providerName, OpCreatePayment)
	if err != nil {
		return nil, err
	}
	return p.CreatePayment(ctx, request)
}

// Create3DPayment starts a 3D secure flow via the named provider
func (s *Service) Create3DPayment(ctx context.Context, tenantID, providerName string, request PaymentRequest) (*PaymentResponse, error) {
	p, err := s.dispatch(tenantID, providerName, OpCreate3DPayment)
	if err != nil {
		return nil, err
	}
	return p.Create3DPayment(ctx, request)
}

// Complete3DPayment resolves a pending 3D payment from bank callback data
func (s *Service) Complete3DPayment(ctx context.Context, tenantID, providerName string, callback CallbackData) (*PaymentResponse, error) {
	p, err := s.dispatch(tenantID, providerName, OpComplete3D)
	if err != nil {
		return nil, err
	}
	return p.Complete3DPayment(ctx, callback)
}

// GetPaymentStatus queries the current status of a payment
func (s *Service) GetPaymentStatus(ctx context.Context, tenantID, providerName, paymentID string) (*PaymentResponse, error) {
	p, err := s.dispatch(tenantID, providerName, OpPaymentStatus)
	if err != nil {
		return nil, err
	}
	return p.GetPaymentStatus(ctx, paymentID)
}

// CancelPayment voids a payment via the named provider
func (s *Service) CancelPayment(ctx context.Context, tenantID, providerName string, request CancelRequest) (*PaymentResponse, error) {
	p, err := s.dispatch(tenantID, providerName, OpCancel)
	if err != nil {
		return nil, err
	}
	return p.CancelPayment(ctx, request)
}

// RefundPayment refunds a payment via the named provider
func (s *Service) RefundPayment(ctx context.Context, tenantID, providerName string, request RefundRequest) (*RefundResponse, error) {
	p, err := s.dispatch(tenantID, providerName, OpRefund)
	if err != nil {
		return nil, err
	}
	return p.RefundPayment(ctx, request)
}

// BinCheck looks up issuer information via providers that support it
func (s *Service) BinCheck(ctx context.Context, tenantID, providerName, binNumber string) (*BinCheckResponse, error) {
	p, err := s.dispatch(tenantID, providerName, OpBinCheck)
	if err != nil {
		return nil, err
	}
	return p.BinCheck(ctx, binNumber)
}

// InstallmentInfo lists installment options via providers that support it
func (s *Service) InstallmentInfo(ctx context.Context, tenantID, providerName string, request InstallmentInquiryRequest) (*InstallmentInfoResponse, error) {
	p, err := s.dispatch(tenantID, providerName, OpInstallmentInfo)
	if err != nil {
		return nil, err
	}
	return p.InstallmentInfo(ctx, request)
}

package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, supported map[Operation]bool) *Service {
	t.Helper()

	registry := NewRegistry()
	registry.Register("stub", func() PaymentProvider {
		return &stubProvider{name: "stub", supported: supported}
	})

	service := NewService(registry)
	require.NoError(t, service.EnableProvider("tenant1", "stub", map[string]string{"apiKey": "k"}))
	return service
}

func allOperations() map[Operation]bool {
	return map[Operation]bool{
		OpCreatePayment:   true,
		OpCreate3DPayment: true,
		OpComplete3D:      true,
		OpRefund:          true,
		OpCancel:          true,
		OpPaymentStatus:   true,
		OpBinCheck:        true,
		OpInstallmentInfo: true,
	}
}

func TestServiceDispatch(t *testing.T) {
	service := newTestService(t, allOperations())

	resp, err := service.CreatePayment(context.Background(), "tenant1", "stub", PaymentRequest{Amount: 100})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "stub-1", resp.PaymentID)
}

func TestServiceProviderNotEnabled(t *testing.T) {
	service := newTestService(t, allOperations())

	_, err := service.CreatePayment(context.Background(), "other-tenant", "stub", PaymentRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enabled")

	_, err = service.CreatePayment(context.Background(), "tenant1", "missing", PaymentRequest{})
	assert.Error(t, err)
}

func TestServiceUnsupportedOperation(t *testing.T) {
	supported := allOperations()
	supported[OpBinCheck] = false
	supported[OpInstallmentInfo] = false
	service := newTestService(t, supported)

	_, err := service.BinCheck(context.Background(), "tenant1", "stub", "552879")
	require.Error(t, err)

	var unsupported *UnsupportedOperationError
	require.True(t, errors.As(err, &unsupported), "expected UnsupportedOperationError, got %T", err)
	assert.Equal(t, "stub", unsupported.Provider)
	assert.Equal(t, OpBinCheck, unsupported.Operation)
	assert.Contains(t, err.Error(), "not supported")

	_, err = service.InstallmentInfo(context.Background(), "tenant1", "stub", InstallmentInquiryRequest{})
	assert.True(t, errors.As(err, &unsupported))
}

func TestServiceIsSupported(t *testing.T) {
	supported := allOperations()
	supported[OpBinCheck] = false
	service := newTestService(t, supported)

	assert.True(t, service.IsSupported("tenant1", "stub", OpCreatePayment))
	assert.False(t, service.IsSupported("tenant1", "stub", OpBinCheck))
	assert.False(t, service.IsSupported("tenant1", "missing", OpCreatePayment))
}

func TestServiceEnableUnknownProvider(t *testing.T) {
	service := NewService(NewRegistry())
	err := service.EnableProvider("tenant1", "ghost", map[string]string{})
	assert.Error(t, err)
}

package iyzico

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ortakpos/ortakpos/provider"
)

func validPaymentRequest() provider.PaymentRequest {
	return provider.PaymentRequest{
		Amount:   100.0,
		Currency: "TRY",
		BasketID: "B67832",
		Customer: provider.Customer{
			Name:    "John",
			Surname: "Doe",
			Email:   "john@example.com",
			Address: &provider.Address{
				City:    "Istanbul",
				Country: "Turkey",
				Address: "Test Mah. Test Sok. No:1",
			},
		},
		CardInfo: provider.CardInfo{
			CardHolderName: "John Doe",
			CardNumber:     "5528790000000008",
			ExpireMonth:    "12",
			ExpireYear:     "2030",
			CVV:            "123",
		},
		Items: []provider.Item{
			{ID: "BI101", Name: "Binocular", Category: "Collectibles", Price: 100.0},
		},
	}
}

func newTestProvider(t *testing.T, serverURL string) *IyzicoProvider {
	t.Helper()

	p := NewProvider().(*IyzicoProvider)
	err := p.Initialize(map[string]string{
		"apiKey":      "test-api-key-1234",
		"secretKey":   "test-secret-key-1234",
		"environment": "sandbox",
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	p.baseURL = serverURL
	p.httpClient = provider.NewProviderHTTPClient(
		provider.CreateHTTPClientConfig(serverURL, false, 5*time.Second))
	return p
}

func TestNewProvider(t *testing.T) {
	p := NewProvider()
	if p == nil {
		t.Fatal("NewProvider() should not return nil")
	}
	if _, ok := p.(*IyzicoProvider); !ok {
		t.Error("NewProvider() should return *IyzicoProvider")
	}
}

func TestIyzicoProvider_Initialize(t *testing.T) {
	tests := []struct {
		name        string
		config      map[string]string
		expectError bool
		expectURL   string
	}{
		{
			name: "Valid sandbox config",
			config: map[string]string{
				"apiKey":      "test-api-key-1234",
				"secretKey":   "test-secret-key-1234",
				"environment": "sandbox",
			},
			expectURL: apiSandboxURL,
		},
		{
			name: "Valid production config",
			config: map[string]string{
				"apiKey":      "test-api-key-1234",
				"secretKey":   "test-secret-key-1234",
				"environment": "production",
			},
			expectURL: apiProductionURL,
		},
		{
			name: "Missing apiKey",
			config: map[string]string{
				"secretKey":   "test-secret-key-1234",
				"environment": "sandbox",
			},
			expectError: true,
		},
		{
			name: "Missing secretKey",
			config: map[string]string{
				"apiKey":      "test-api-key-1234",
				"environment": "sandbox",
			},
			expectError: true,
		},
		{
			name:        "Empty config",
			config:      map[string]string{},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider().(*IyzicoProvider)
			err := p.Initialize(tt.config)

			if tt.expectError {
				if err == nil {
					t.Error("expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.baseURL != tt.expectURL {
				t.Errorf("baseURL = %s, want %s", p.baseURL, tt.expectURL)
			}
		})
	}
}

func TestIyzicoProvider_Supports(t *testing.T) {
	p := NewProvider()
	ops := []provider.Operation{
		provider.OpCreatePayment, provider.OpCreate3DPayment, provider.OpComplete3D,
		provider.OpRefund, provider.OpCancel, provider.OpPaymentStatus,
		provider.OpBinCheck, provider.OpInstallmentInfo,
	}
	for _, op := range ops {
		if !p.Supports(op) {
			t.Errorf("Supports(%s) = false, want true", op)
		}
	}
}

func TestIyzicoProvider_ValidatePaymentRequest(t *testing.T) {
	p := &IyzicoProvider{}

	tests := []struct {
		name        string
		mutate      func(*provider.PaymentRequest)
		is3D        bool
		expectError bool
	}{
		{name: "valid request", mutate: func(r *provider.PaymentRequest) {}},
		{name: "zero amount", mutate: func(r *provider.PaymentRequest) { r.Amount = 0 }, expectError: true},
		{name: "missing email", mutate: func(r *provider.PaymentRequest) { r.Customer.Email = "" }, expectError: true},
		{name: "missing card number", mutate: func(r *provider.PaymentRequest) { r.CardInfo.CardNumber = "" }, expectError: true},
		{name: "missing cvv", mutate: func(r *provider.PaymentRequest) { r.CardInfo.CVV = "" }, expectError: true},
		{name: "empty basket", mutate: func(r *provider.PaymentRequest) { r.Items = nil }, expectError: true},
		{name: "3D without callback", mutate: func(r *provider.PaymentRequest) {}, is3D: true, expectError: true},
		{
			name: "3D with callback",
			mutate: func(r *provider.PaymentRequest) {
				r.CallbackURL = "https://merchant.example.com/callback"
			},
			is3D: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPaymentRequest()
			tt.mutate(&req)
			err := p.validatePaymentRequest(req, tt.is3D)
			if tt.expectError && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestIyzicoProvider_CreatePayment_Success(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			t.Error("missing Authorization header")
		}
		if r.Header.Get("x-iyzi-rnd") == "" {
			t.Error("missing x-iyzi-rnd header")
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "success",
			"paymentId": "12345678",
			"price":     "100.00",
			"paidPrice": "100.00",
			"currency":  "TRY",
		})
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	resp, err := p.CreatePayment(context.Background(), validPaymentRequest())
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	if !resp.Success || resp.Status != provider.StatusSuccessful {
		t.Errorf("expected success, got %+v", resp)
	}
	if resp.PaymentID != "12345678" {
		t.Errorf("PaymentID = %q, want 12345678", resp.PaymentID)
	}
	if resp.Amount != 100.0 {
		t.Errorf("Amount = %v, want 100", resp.Amount)
	}

	// wire format checks
	if captured["price"] != "100.00" {
		t.Errorf("price sent as %v, want 100.00", captured["price"])
	}
	card, _ := captured["paymentCard"].(map[string]any)
	if card["cardNumber"] != "5528790000000008" {
		t.Errorf("card number sent as %v", card["cardNumber"])
	}
	items, _ := captured["basketItems"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 basket item, got %d", len(items))
	}
}

func TestIyzicoProvider_CreatePayment_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":       "failure",
			"errorCode":    "ERROR001",
			"errorMessage": "Kart limiti yetersiz",
		})
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	resp, err := p.CreatePayment(context.Background(), validPaymentRequest())
	if err != nil {
		t.Fatalf("business failure must not raise: %v", err)
	}

	if resp.Success || resp.Status != provider.StatusFailed {
		t.Errorf("expected failed status, got %+v", resp)
	}
	if resp.ErrorCode != "ERROR001" {
		t.Errorf("ErrorCode = %q, want ERROR001", resp.ErrorCode)
	}
	if resp.Message != "Kart limiti yetersiz" {
		t.Errorf("Message = %q", resp.Message)
	}
}

func TestIyzicoProvider_CreatePayment_UnknownStatusFailsClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "weird-new-status"})
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	resp, err := p.CreatePayment(context.Background(), validPaymentRequest())
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if resp.Success || resp.Status == provider.StatusSuccessful {
		t.Errorf("unknown status must never map to success: %+v", resp)
	}
}

func TestIyzicoProvider_Create3DPayment_Pending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":             "success",
			"paymentId":          "3d-12345",
			"threeDSHtmlContent": "<form action='https://bank.example.com'>...</form>",
		})
	}))
	defer server.Close()

	req := validPaymentRequest()
	req.CallbackURL = "https://merchant.example.com/callback"

	p := newTestProvider(t, server.URL)
	resp, err := p.Create3DPayment(context.Background(), req)
	if err != nil {
		t.Fatalf("Create3DPayment: %v", err)
	}

	// initialization is never a confirmed payment
	if resp.Success {
		t.Error("3D init must not report success")
	}
	if resp.Status != provider.StatusPending {
		t.Errorf("Status = %q, want pending", resp.Status)
	}
	if resp.HTML == "" {
		t.Error("HTML challenge content missing")
	}
}

func TestIyzicoProvider_Complete3DPayment_FailedMDStatus(t *testing.T) {
	p := newTestProvider(t, "http://unused.invalid")

	resp, err := p.Complete3DPayment(context.Background(), provider.CallbackData{
		PaymentID: "3d-12345",
		MDStatus:  "0",
	})
	if err != nil {
		t.Fatalf("Complete3DPayment: %v", err)
	}
	if resp.Success || resp.Status != provider.StatusFailed {
		t.Errorf("expected failure, got %+v", resp)
	}
	if resp.ErrorCode != "MDSTATUS_0" {
		t.Errorf("ErrorCode = %q", resp.ErrorCode)
	}
}

func TestIyzicoProvider_Complete3DPayment_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "3dsecure/auth") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "success",
			"paymentId": "3d-12345",
		})
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	resp, err := p.Complete3DPayment(context.Background(), provider.CallbackData{
		PaymentID: "3d-12345",
		MDStatus:  "1",
	})
	if err != nil {
		t.Fatalf("Complete3DPayment: %v", err)
	}
	if !resp.Success || resp.PaymentID != "3d-12345" {
		t.Errorf("expected success, got %+v", resp)
	}
}

func TestIyzicoProvider_RefundPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["price"] != "50.00" {
			t.Errorf("refund price = %v, want 50.00", body["price"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":               "success",
			"paymentTransactionId": "refund-9",
			"price":                "50.00",
		})
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	resp, err := p.RefundPayment(context.Background(), provider.RefundRequest{
		PaymentID:    "12345678",
		RefundAmount: 50,
	})
	if err != nil {
		t.Fatalf("RefundPayment: %v", err)
	}
	if !resp.Success || resp.RefundID != "refund-9" {
		t.Errorf("unexpected refund response: %+v", resp)
	}
	if resp.RefundAmount != 50 {
		t.Errorf("RefundAmount = %v", resp.RefundAmount)
	}
}

func TestIyzicoProvider_BinCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":          "success",
			"binNumber":       "552879",
			"cardType":        "CREDIT_CARD",
			"cardAssociation": "MASTER_CARD",
			"cardFamily":      "Bonus",
			"bankName":        "Garanti Bankası",
			"commercial":      0,
		})
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	resp, err := p.BinCheck(context.Background(), "552879")
	if err != nil {
		t.Fatalf("BinCheck: %v", err)
	}
	if !resp.Success || resp.CardAssociation != "MASTER_CARD" || resp.BankName != "Garanti Bankası" {
		t.Errorf("unexpected bin response: %+v", resp)
	}
	if resp.Commercial {
		t.Error("Commercial should be false")
	}
}

func TestIyzicoProvider_BinCheck_TooShort(t *testing.T) {
	p := newTestProvider(t, "http://unused.invalid")
	if _, err := p.BinCheck(context.Background(), "55"); err == nil {
		t.Error("expected error for short BIN")
	}
}

func TestIyzicoProvider_InstallmentInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"installmentDetails": []any{
				map[string]any{
					"binNumber":      "552879",
					"bankName":       "Garanti Bankası",
					"cardFamilyName": "Bonus",
					"installmentPrices": []any{
						map[string]any{"installmentNumber": 1, "installmentPrice": 100.0, "totalPrice": 100.0},
						map[string]any{"installmentNumber": 3, "installmentPrice": 34.33, "totalPrice": 103.0},
					},
				},
			},
		})
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	resp, err := p.InstallmentInfo(context.Background(), provider.InstallmentInquiryRequest{
		BinNumber: "552879",
		Amount:    100,
	})
	if err != nil {
		t.Fatalf("InstallmentInfo: %v", err)
	}
	if len(resp.Details) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(resp.Details))
	}
	if len(resp.Details[0].Prices) != 2 {
		t.Fatalf("expected 2 prices, got %d", len(resp.Details[0].Prices))
	}
	if resp.Details[0].Prices[1].TotalPrice != 103.0 {
		t.Errorf("TotalPrice = %v", resp.Details[0].Prices[1].TotalPrice)
	}
}

func TestIyzicoProvider_TransportErrorAsFailure(t *testing.T) {
	p := newTestProvider(t, "http://127.0.0.1:1") // nothing listens here

	resp, err := p.CreatePayment(context.Background(), validPaymentRequest())
	if err != nil {
		t.Fatalf("transport faults must come back as data: %v", err)
	}
	if resp.Success || resp.Status != provider.StatusFailed {
		t.Errorf("expected failed result, got %+v", resp)
	}
	if resp.ErrorCode != "NETWORK_ERROR" && resp.ErrorCode != "TIMEOUT" {
		t.Errorf("ErrorCode = %q", resp.ErrorCode)
	}
}

func TestGenerateAuthorizationHeaderDeterministic(t *testing.T) {
	p := &IyzicoProvider{apiKey: "api-key", secretKey: "secret-key"}
	body := []byte(`{"price":"100.00"}`)

	first := p.generateAuthorizationHeader("rnd-1", body)
	second := p.generateAuthorizationHeader("rnd-1", body)
	if first != second {
		t.Error("signature must be deterministic for identical inputs")
	}

	// any single-field change must change the signature
	variants := []string{
		(&IyzicoProvider{apiKey: "api-keX", secretKey: "secret-key"}).generateAuthorizationHeader("rnd-1", body),
		(&IyzicoProvider{apiKey: "api-key", secretKey: "secret-keX"}).generateAuthorizationHeader("rnd-1", body),
		p.generateAuthorizationHeader("rnd-2", body),
		p.generateAuthorizationHeader("rnd-1", []byte(`{"price":"100.01"}`)),
	}
	for i, variant := range variants {
		if variant == first {
			t.Errorf("variant %d produced identical signature", i)
		}
	}
}

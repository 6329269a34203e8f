package iyzico

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ortakpos/ortakpos/provider"
)

const (
	// API URLs
	apiSandboxURL    = "https://sandbox-api.iyzipay.com"
	apiProductionURL = "https://api.iyzipay.com"

	// API Endpoints
	endpointPayment     = "/payment/auth"
	endpoint3DInit      = "/payment/3dsecure/initialize"
	endpoint3DComplete  = "/payment/3dsecure/auth"
	endpointCancel      = "/payment/cancel"
	endpointRefund      = "/payment/refund"
	endpointRetrieve    = "/payment/detail"
	endpointBinCheck    = "/payment/bin/check"
	endpointInstallment = "/payment/iyzipos/installment"

	// Default values
	defaultLocale  = "tr"
	defaultTimeout = 30 * time.Second
)

// statusMap translates Iyzico's status field; anything unknown fails closed
var statusMap = provider.NewStatusMap(map[string]provider.PaymentStatus{
	"success": provider.StatusSuccessful,
	"failure": provider.StatusFailed,
})

// mdStatus values Iyzico reports after the 3D challenge, keyed to the
// reason shown to the caller on a failed authentication.
var mdStatusMessages = map[string]string{
	"0": "3D secure signature or verification failed",
	"2": "cardholder or issuer not enrolled to 3D secure",
	"3": "issuer not enrolled to 3D secure",
	"4": "verification attempt, cardholder chose to enroll later",
	"5": "unable to verify",
	"6": "3D secure error",
	"7": "system error",
	"8": "unknown card number",
}

// IyzicoProvider implements the provider.PaymentProvider interface for Iyzico
type IyzicoProvider struct {
	apiKey       string
	secretKey    string
	baseURL      string
	isProduction bool
	currencies   provider.CurrencyTable
	httpClient   *provider.ProviderHTTPClient
}

// NewProvider creates a new Iyzico payment provider
func NewProvider() provider.PaymentProvider {
	return &IyzicoProvider{
		currencies: provider.CurrencyTable{
			Codes: map[string]string{
				"TRY": "TRY",
				"USD": "USD",
				"EUR": "EUR",
				"GBP": "GBP",
			},
			Default: "TRY",
		},
	}
}

// GetRequiredConfig returns the configuration fields required for Iyzico
func (p *IyzicoProvider) GetRequiredConfig(environment string) []provider.ConfigField {
	return []provider.ConfigField{
		{
			Key:         "apiKey",
			Required:    true,
			Type:        "string",
			Description: "Iyzico API Key (found in Iyzico merchant panel)",
			Example:     "sandbox-BIOoONNaqF8UZZmP3...",
			MinLength:   10,
			MaxLength:   200,
		},
		{
			Key:         "secretKey",
			Required:    true,
			Type:        "string",
			Description: "Iyzico Secret Key (found in Iyzico merchant panel)",
			Example:     "sandbox-NjQwOTRkMDBkZmE1...",
			MinLength:   10,
			MaxLength:   200,
		},
		{
			Key:         "environment",
			Required:    true,
			Type:        "string",
			Description: "Environment setting (sandbox or production)",
			Example:     "sandbox",
			Pattern:     "^(sandbox|production)$",
		},
	}
}

// ValidateConfig validates the provided configuration against Iyzico requirements
func (p *IyzicoProvider) ValidateConfig(config map[string]string) error {
	return provider.ValidateConfigFields("iyzico", config, p.GetRequiredConfig(config["environment"]))
}

// Initialize sets up the Iyzico payment provider with authentication credentials
func (p *IyzicoProvider) Initialize(conf map[string]string) error {
	if err := p.ValidateConfig(conf); err != nil {
		return err
	}

	p.apiKey = conf["apiKey"]
	p.secretKey = conf["secretKey"]
	p.isProduction = conf["environment"] == "production"

	if p.isProduction {
		p.baseURL = apiProductionURL
	} else {
		p.baseURL = apiSandboxURL
	}

	p.httpClient = provider.NewProviderHTTPClient(
		provider.CreateHTTPClientConfig(p.baseURL, p.isProduction, defaultTimeout))

	return nil
}

// Supports reports the operations Iyzico offers; the full contract is covered
func (p *IyzicoProvider) Supports(op provider.Operation) bool {
	switch op {
	case provider.OpCreatePayment, provider.OpCreate3DPayment, provider.OpComplete3D,
		provider.OpRefund, provider.OpCancel, provider.OpPaymentStatus,
		provider.OpBinCheck, provider.OpInstallmentInfo:
		return true
	}
	return false
}

// CreatePayment makes a non-3D payment request
func (p *IyzicoProvider) CreatePayment(ctx context.Context, request provider.PaymentRequest) (*provider.PaymentResponse, error) {
	if err := p.validatePaymentRequest(request, false); err != nil {
		return nil, fmt.Errorf("iyzico: invalid payment request: %w", err)
	}

	return p.sendPaymentRequest(ctx, endpointPayment, p.mapToIyzicoPaymentRequest(request, false))
}

// Create3DPayment starts a 3D secure payment process
func (p *IyzicoProvider) Create3DPayment(ctx context.Context, request provider.PaymentRequest) (*provider.PaymentResponse, error) {
	if err := p.validatePaymentRequest(request, true); err != nil {
		return nil, fmt.Errorf("iyzico: invalid 3D payment request: %w", err)
	}

	resp, err := p.sendPaymentRequest(ctx, endpoint3DInit, p.mapToIyzicoPaymentRequest(request, true))
	if err != nil {
		return nil, err
	}

	// initialization never confirms the payment; the challenge is still ahead
	if resp.Success {
		resp.Success = false
		resp.Status = provider.StatusPending
		if resp.Message == "" {
			resp.Message = "3D secure authentication required"
		}
	}
	return resp, nil
}

// Complete3DPayment completes a 3D secure payment after the bank redirect.
// Iyzico reports the challenge outcome in mdStatus; only a passing value
// lets the authorization call proceed.
func (p *IyzicoProvider) Complete3DPayment(ctx context.Context, callback provider.CallbackData) (*provider.PaymentResponse, error) {
	paymentID := callback.PaymentID
	if paymentID == "" {
		paymentID = callback.Get("paymentId")
	}
	if paymentID == "" {
		return nil, errors.New("iyzico: paymentId is required for 3D completion")
	}

	mdStatus := callback.MDStatus
	if mdStatus == "" {
		mdStatus = callback.Get("mdStatus")
	}
	if mdStatus != "1" {
		message := mdStatusMessages[mdStatus]
		if message == "" {
			message = "3D secure authentication failed"
		}
		now := time.Now()
		return &provider.PaymentResponse{
			Success:    false,
			Status:     provider.StatusFailed,
			PaymentID:  paymentID,
			Message:    message,
			ErrorCode:  "MDSTATUS_" + mdStatus,
			SystemTime: &now,
		}, nil
	}

	req := map[string]any{
		"paymentId":      paymentID,
		"conversationId": callback.ConversationID,
		"locale":         defaultLocale,
	}
	if data := callback.Get("conversationData"); data != "" {
		req["conversationData"] = data
	}

	return p.sendPaymentRequest(ctx, endpoint3DComplete, req)
}

// GetPaymentStatus retrieves the current status of a payment
func (p *IyzicoProvider) GetPaymentStatus(ctx context.Context, paymentID string) (*provider.PaymentResponse, error) {
	if paymentID == "" {
		return nil, errors.New("iyzico: paymentID is required")
	}

	req := map[string]any{
		"paymentId":      paymentID,
		"locale":         defaultLocale,
		"conversationId": uuid.New().String(),
	}

	return p.sendPaymentRequest(ctx, endpointRetrieve, req)
}

// CancelPayment voids a same-day payment before settlement
func (p *IyzicoProvider) CancelPayment(ctx context.Context, request provider.CancelRequest) (*provider.PaymentResponse, error) {
	if request.PaymentID == "" {
		return nil, errors.New("iyzico: paymentID is required")
	}

	conversationID := request.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	req := map[string]any{
		"paymentId":      request.PaymentID,
		"ip":             "127.0.0.1",
		"locale":         defaultLocale,
		"conversationId": conversationID,
	}
	if request.Reason != "" {
		req["reason"] = request.Reason
	}

	resp, err := p.sendPaymentRequest(ctx, endpointCancel, req)
	if err != nil {
		return nil, err
	}
	if resp.Success {
		resp.Status = provider.StatusCancelled
	}
	return resp, nil
}

// RefundPayment issues a full or partial refund for a payment
func (p *IyzicoProvider) RefundPayment(ctx context.Context, request provider.RefundRequest) (*provider.RefundResponse, error) {
	if request.PaymentID == "" {
		return nil, errors.New("iyzico: paymentID is required for refund")
	}

	conversationID := request.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	req := map[string]any{
		"paymentTransactionId": request.PaymentID,
		"locale":               defaultLocale,
		"ip":                   "127.0.0.1",
		"conversationId":       conversationID,
	}
	if request.RefundAmount > 0 {
		req["price"] = provider.FormatAmount(request.RefundAmount)
	}
	if request.Currency != "" {
		req["currency"] = p.currencies.Code(request.Currency)
	}
	if request.Reason != "" {
		req["reason"] = request.Reason
	}

	now := time.Now()
	resp, err := p.sendRequest(ctx, endpointRefund, req)
	if err != nil {
		return &provider.RefundResponse{
			Success:    false,
			Status:     provider.StatusFailed,
			PaymentID:  request.PaymentID,
			Message:    err.Error(),
			ErrorCode:  transportErrorCode(err),
			SystemTime: &now,
		}, nil
	}

	status := statusMap.Resolve(provider.StringField(resp, "status"))
	refundResp := &provider.RefundResponse{
		Success:      status == provider.StatusSuccessful,
		Status:       status,
		PaymentID:    request.PaymentID,
		RefundID:     provider.StringField(resp, "paymentTransactionId"),
		RefundAmount: request.RefundAmount,
		SystemTime:   &now,
		RawResponse:  resp,
	}
	if amount := provider.FloatField(resp, "price"); amount > 0 {
		refundResp.RefundAmount = amount
	}
	if !refundResp.Success {
		refundResp.ErrorCode = provider.StringField(resp, "errorCode")
		refundResp.Message = provider.StringField(resp, "errorMessage")
	} else {
		refundResp.Message = "refund successful"
	}

	return refundResp, nil
}

// BinCheck looks up issuer information for the first digits of a card number
func (p *IyzicoProvider) BinCheck(ctx context.Context, binNumber string) (*provider.BinCheckResponse, error) {
	if len(binNumber) < 6 {
		return nil, errors.New("iyzico: binNumber must be at least 6 digits")
	}

	req := map[string]any{
		"binNumber":      binNumber,
		"locale":         defaultLocale,
		"conversationId": uuid.New().String(),
	}

	resp, err := p.sendRequest(ctx, endpointBinCheck, req)
	if err != nil {
		return &provider.BinCheckResponse{
			Success:   false,
			BinNumber: binNumber,
			Message:   err.Error(),
			ErrorCode: transportErrorCode(err),
		}, nil
	}

	status := statusMap.Resolve(provider.StringField(resp, "status"))
	binResp := &provider.BinCheckResponse{
		Success:         status == provider.StatusSuccessful,
		BinNumber:       provider.StringField(resp, "binNumber"),
		CardType:        provider.StringField(resp, "cardType"),
		CardAssociation: provider.StringField(resp, "cardAssociation"),
		CardFamily:      provider.StringField(resp, "cardFamily"),
		BankName:        provider.StringField(resp, "bankName"),
		BankCode:        provider.StringField(resp, "bankCode"),
		Commercial:      provider.FloatField(resp, "commercial") == 1,
		RawResponse:     resp,
	}
	if binResp.BinNumber == "" {
		binResp.BinNumber = binNumber
	}
	if !binResp.Success {
		binResp.ErrorCode = provider.StringField(resp, "errorCode")
		binResp.Message = provider.StringField(resp, "errorMessage")
	}
	return binResp, nil
}

// InstallmentInfo lists installment options for a BIN and amount
func (p *IyzicoProvider) InstallmentInfo(ctx context.Context, request provider.InstallmentInquiryRequest) (*provider.InstallmentInfoResponse, error) {
	if request.Amount <= 0 {
		return nil, errors.New("iyzico: amount must be greater than 0")
	}

	conversationID := request.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	req := map[string]any{
		"binNumber":      request.BinNumber,
		"price":          provider.FormatAmount(request.Amount),
		"locale":         defaultLocale,
		"conversationId": conversationID,
	}

	resp, err := p.sendRequest(ctx, endpointInstallment, req)
	if err != nil {
		return &provider.InstallmentInfoResponse{
			Success:   false,
			Message:   err.Error(),
			ErrorCode: transportErrorCode(err),
		}, nil
	}

	status := statusMap.Resolve(provider.StringField(resp, "status"))
	infoResp := &provider.InstallmentInfoResponse{
		Success:     status == provider.StatusSuccessful,
		RawResponse: resp,
	}
	if !infoResp.Success {
		infoResp.ErrorCode = provider.StringField(resp, "errorCode")
		infoResp.Message = provider.StringField(resp, "errorMessage")
		return infoResp, nil
	}

	details, _ := resp["installmentDetails"].([]any)
	for _, raw := range details {
		detail, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		parsed := provider.InstallmentDetail{
			BinNumber:       provider.StringField(detail, "binNumber"),
			BankName:        provider.StringField(detail, "bankName"),
			CardFamily:      provider.StringField(detail, "cardFamilyName"),
			CardType:        provider.StringField(detail, "cardType"),
			CardAssociation: provider.StringField(detail, "cardAssociation"),
		}
		prices, _ := detail["installmentPrices"].([]any)
		for _, rawPrice := range prices {
			price, ok := rawPrice.(map[string]any)
			if !ok {
				continue
			}
			parsed.Prices = append(parsed.Prices, provider.InstallmentPrice{
				InstallmentNumber: int(provider.FloatField(price, "installmentNumber")),
				InstallmentPrice:  provider.FloatField(price, "installmentPrice"),
				TotalPrice:        provider.FloatField(price, "totalPrice"),
			})
		}
		infoResp.Details = append(infoResp.Details, parsed)
	}

	return infoResp, nil
}

// validatePaymentRequest validates the payment request
func (p *IyzicoProvider) validatePaymentRequest(request provider.PaymentRequest, is3D bool) error {
	if request.Amount <= 0 {
		return errors.New("amount must be greater than 0")
	}
	if request.Customer.Name == "" || request.Customer.Surname == "" {
		return errors.New("customer name and surname are required")
	}
	if request.Customer.Email == "" {
		return errors.New("customer email is required")
	}
	if request.CardInfo.CardNumber == "" {
		return errors.New("card number is required")
	}
	if request.CardInfo.CVV == "" {
		return errors.New("CVV is required")
	}
	if request.CardInfo.ExpireMonth == "" || request.CardInfo.ExpireYear == "" {
		return errors.New("card expiration month and year are required")
	}
	if len(request.Items) == 0 {
		return errors.New("at least one basket item is required")
	}
	if is3D && request.CallbackURL == "" {
		return errors.New("callback URL is required for 3D secure payments")
	}
	return nil
}

// mapToIyzicoPaymentRequest creates the Iyzico payment request structure
func (p *IyzicoProvider) mapToIyzicoPaymentRequest(request provider.PaymentRequest, is3D bool) map[string]any {
	conversationID := request.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	installmentCount := request.InstallmentCount
	if installmentCount < 1 {
		installmentCount = 1
	}

	paidAmount := request.PaidAmount
	if paidAmount <= 0 {
		paidAmount = request.Amount
	}

	req := map[string]any{
		"locale":         defaultLocale,
		"conversationId": conversationID,
		"basketId":       request.BasketID,
		"price":          provider.FormatAmount(request.Amount),
		"paidPrice":      provider.FormatAmount(paidAmount),
		"currency":       p.currencies.Code(request.Currency),
		"installment":    installmentCount,
	}

	basketItems := make([]map[string]any, len(request.Items))
	for i, item := range request.Items {
		itemType := item.ItemType
		if itemType == "" {
			itemType = provider.ItemTypePhysical
		}
		basketItems[i] = map[string]any{
			"id":        item.ID,
			"name":      item.Name,
			"category1": item.Category,
			"itemType":  itemType,
			"price":     provider.FormatAmount(item.Price),
		}
	}
	req["basketItems"] = basketItems

	buyerIP := request.Customer.IPAddress
	if buyerIP == "" {
		buyerIP = request.ClientIP
	}
	if buyerIP == "" {
		buyerIP = "127.0.0.1"
	}

	buyerID := request.Customer.ID
	if buyerID == "" {
		buyerID = uuid.New().String()
	}

	var regAddress, city, country, zipCode string
	if request.Customer.Address != nil {
		regAddress = request.Customer.Address.Address
		city = request.Customer.Address.City
		country = request.Customer.Address.Country
		zipCode = request.Customer.Address.ZipCode
	}

	req["buyer"] = map[string]any{
		"id":                  buyerID,
		"name":                request.Customer.Name,
		"surname":             request.Customer.Surname,
		"gsmNumber":           request.Customer.PhoneNumber,
		"email":               request.Customer.Email,
		"identityNumber":      request.Customer.IdentityNo,
		"registrationAddress": regAddress,
		"ip":                  buyerIP,
		"city":                city,
		"country":             country,
		"zipCode":             zipCode,
	}

	contactName := request.Customer.Name + " " + request.Customer.Surname
	req["shippingAddress"] = mapAddress(request.ShippingAddress, request.Customer.Address, contactName)
	req["billingAddress"] = mapAddress(request.BillingAddress, request.Customer.Address, contactName)

	registerCard := 0
	if request.CardInfo.RegisterCard {
		registerCard = 1
	}
	req["paymentCard"] = map[string]any{
		"cardHolderName": request.CardInfo.CardHolderName,
		"cardNumber":     request.CardInfo.CardNumber,
		"expireMonth":    request.CardInfo.ExpireMonth,
		"expireYear":     request.CardInfo.ExpireYear,
		"cvc":            request.CardInfo.CVV,
		"registerCard":   registerCard,
	}

	if is3D {
		req["callbackUrl"] = request.CallbackURL
	}

	return req
}

func mapAddress(addr, fallback *provider.Address, contactName string) map[string]any {
	if addr == nil {
		addr = fallback
	}
	if addr == nil {
		addr = &provider.Address{}
	}
	if addr.ContactName != "" {
		contactName = addr.ContactName
	}
	return map[string]any{
		"contactName": contactName,
		"address":     addr.Address,
		"city":        addr.City,
		"country":     addr.Country,
		"zipCode":     addr.ZipCode,
	}
}

// sendPaymentRequest sends payment requests to Iyzico and maps the response
func (p *IyzicoProvider) sendPaymentRequest(ctx context.Context, endpoint string, requestData map[string]any) (*provider.PaymentResponse, error) {
	now := time.Now()
	resp, err := p.sendRequest(ctx, endpoint, requestData)
	if err != nil {
		// transport faults come back as failed results so callers keep a
		// single code path per operation
		return &provider.PaymentResponse{
			Success:    false,
			Status:     provider.StatusFailed,
			Message:    err.Error(),
			ErrorCode:  transportErrorCode(err),
			SystemTime: &now,
		}, nil
	}

	status := statusMap.Resolve(provider.StringField(resp, "status"))
	paymentResp := &provider.PaymentResponse{
		Success:        status == provider.StatusSuccessful,
		Status:         status,
		ConversationID: provider.StringField(resp, "conversationId"),
		SystemTime:     &now,
		RawResponse:    resp,
	}

	if paymentResp.Success {
		paymentResp.Message = "payment successful"
		paymentResp.PaymentID = provider.StringField(resp, "paymentId")
		paymentResp.TransactionID = provider.StringField(resp, "paymentTransactionId")

		if htmlContent := provider.StringField(resp, "threeDSHtmlContent"); htmlContent != "" {
			paymentResp.Success = false
			paymentResp.Status = provider.StatusPending
			paymentResp.HTML = htmlContent
			paymentResp.Message = "3D secure authentication required"
		}
		if redirectURL := provider.StringField(resp, "redirectUrl"); redirectURL != "" {
			paymentResp.RedirectURL = redirectURL
		}
	} else {
		paymentResp.ErrorCode = provider.StringField(resp, "errorCode")
		paymentResp.Message = provider.StringField(resp, "errorMessage")
		if paymentResp.Message == "" {
			paymentResp.Message = "payment failed"
		}
	}

	if amount := provider.FloatField(resp, "paidPrice"); amount > 0 {
		paymentResp.Amount = amount
	} else if amount := provider.FloatField(resp, "price"); amount > 0 {
		paymentResp.Amount = amount
	}
	paymentResp.Currency = provider.StringField(resp, "currency")

	return paymentResp, nil
}

// sendRequest signs and sends a request to the Iyzico API
func (p *IyzicoProvider) sendRequest(ctx context.Context, endpoint string, requestData map[string]any) (map[string]any, error) {
	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	randomKey := fmt.Sprintf("%d%s", time.Now().UnixNano()/int64(time.Millisecond), uuid.New().String()[:8])

	resp, err := p.httpClient.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Body:     json.RawMessage(jsonData),
		Headers: map[string]string{
			"Authorization": p.generateAuthorizationHeader(randomKey, jsonData),
			"x-iyzi-rnd":    randomKey,
		},
	})
	if err != nil && resp == nil {
		return nil, err
	}

	var responseData map[string]any
	if jsonErr := json.Unmarshal(resp.Body, &responseData); jsonErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("failed to parse response: %w", jsonErr)
	}

	return responseData, nil
}

// generateAuthorizationHeader computes the HMAC-SHA256 request signature.
// The canonical string is apiKey + randomKey + SHA-256(body); its order is
// part of the wire contract.
func (p *IyzicoProvider) generateAuthorizationHeader(randomKey string, body []byte) string {
	payloadHash := sha256.Sum256(body)
	canonical := p.apiKey + randomKey + hex.EncodeToString(payloadHash[:])

	mac := hmac.New(sha256.New, []byte(p.secretKey))
	mac.Write([]byte(canonical))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	authString := fmt.Sprintf("apiKey:%s&randomKey:%s&signature:%s", p.apiKey, randomKey, signature)
	return "IYZWSv2 " + base64.StdEncoding.EncodeToString([]byte(authString))
}

func transportErrorCode(err error) string {
	if provider.IsTimeout(err) {
		return "TIMEOUT"
	}
	return "NETWORK_ERROR"
}

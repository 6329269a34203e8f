package parampos

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ortakpos/ortakpos/provider"
)

const (
	// API URLs
	apiSandboxURL    = "https://test-dmz.param.com.tr/turkpos.ws/service_turkpos_test.asmx"
	apiProductionURL = "https://posws.param.com.tr/turkpos.ws/service_turkpos_prod.asmx"

	// SOAP namespace; SOAPAction is namespace + action
	soapNamespace = "https://turkpos.com.tr/"

	// SOAP actions
	actionPayment      = "TP_Islem_Odeme"
	action3DComplete   = "TP_WMD_Pay"
	actionCancelRefund = "TP_Islem_Iptal_Iade_Kismi"
	actionQuery        = "TP_Islem_Sorgulama"

	// Security types for TP_Islem_Odeme
	securityTypeNonSecure = "NS"
	securityType3D        = "3D"

	// invalidSignatureMessage is fixed so callers can tell tampering from
	// an ordinary decline
	invalidSignatureMessage = "invalid callback signature"

	// The legacy SOAP endpoint is noticeably slower than the REST gateways
	defaultTimeout = 60 * time.Second
)

// ParamPosProvider implements the provider.PaymentProvider interface for the
// Param SOAP virtual POS.
type ParamPosProvider struct {
	clientCode     string
	clientUsername string
	clientPassword string
	guid           string
	baseURL        string
	isProduction   bool
	currencies     provider.CurrencyTable
	rates          provider.InstallmentRateTable
	httpClient     *provider.ProviderHTTPClient
}

// NewProvider creates a new Param POS payment provider
func NewProvider() provider.PaymentProvider {
	return &ParamPosProvider{
		currencies: provider.CurrencyTable{
			Codes: map[string]string{
				"TRY": "1000",
				"USD": "1001",
				"EUR": "1002",
				"GBP": "1003",
			},
			Default: "1000",
		},
		rates: provider.DefaultInstallmentRates(),
	}
}

// SetInstallmentRates replaces the illustrative surcharge schedule with the
// rates negotiated with the provider.
func (p *ParamPosProvider) SetInstallmentRates(rates provider.InstallmentRateTable) {
	if rates != nil {
		p.rates = rates
	}
}

// GetRequiredConfig returns the configuration fields required for Param POS
func (p *ParamPosProvider) GetRequiredConfig(environment string) []provider.ConfigField {
	return []provider.ConfigField{
		{
			Key:         "clientCode",
			Required:    true,
			Type:        "string",
			Description: "Param client code (dealer code from the Param panel)",
			Example:     "10738",
			MinLength:   3,
			MaxLength:   20,
		},
		{
			Key:         "clientUsername",
			Required:    true,
			Type:        "string",
			Description: "Param API username",
			Example:     "Test",
			MinLength:   2,
			MaxLength:   50,
		},
		{
			Key:         "clientPassword",
			Required:    true,
			Type:        "string",
			Description: "Param API password",
			Example:     "Test",
			MinLength:   2,
			MaxLength:   50,
		},
		{
			Key:         "guid",
			Required:    true,
			Type:        "string",
			Description: "Merchant GUID issued by Param",
			Example:     "0c13d406-873b-403b-9c09-a5766840d98c",
			MinLength:   36,
			MaxLength:   36,
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

// ValidateConfig validates the provided configuration against Param requirements
func (p *ParamPosProvider) ValidateConfig(config map[string]string) error {
	return provider.ValidateConfigFields("parampos", config, p.GetRequiredConfig(config["environment"]))
}

// Initialize sets up the Param POS provider with authentication credentials
func (p *ParamPosProvider) Initialize(conf map[string]string) error {
	if err := p.ValidateConfig(conf); err != nil {
		return err
	}

	p.clientCode = conf["clientCode"]
	p.clientUsername = conf["clientUsername"]
	p.clientPassword = conf["clientPassword"]
	p.guid = conf["guid"]
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

// Supports reports the operations Param POS offers. BIN lookup and
// installment inquiry are not part of the SOAP contract.
func (p *ParamPosProvider) Supports(op provider.Operation) bool {
	switch op {
	case provider.OpCreatePayment, provider.OpCreate3DPayment, provider.OpComplete3D,
		provider.OpRefund, provider.OpCancel, provider.OpPaymentStatus:
		return true
	}
	return false
}

// CreatePayment makes a non-3D payment request
func (p *ParamPosProvider) CreatePayment(ctx context.Context, request provider.PaymentRequest) (*provider.PaymentResponse, error) {
	if err := p.validatePaymentRequest(request, false); err != nil {
		return nil, fmt.Errorf("parampos: invalid payment request: %w", err)
	}
	return p.sendPayment(ctx, request, securityTypeNonSecure)
}

// Create3DPayment starts a 3D secure payment process
func (p *ParamPosProvider) Create3DPayment(ctx context.Context, request provider.PaymentRequest) (*provider.PaymentResponse, error) {
	if err := p.validatePaymentRequest(request, true); err != nil {
		return nil, fmt.Errorf("parampos: invalid 3D payment request: %w", err)
	}
	return p.sendPayment(ctx, request, securityType3D)
}

// Complete3DPayment finishes a 3D secure payment after the bank redirect.
// The callback hash is verified before any business field is interpreted.
func (p *ParamPosProvider) Complete3DPayment(ctx context.Context, callback provider.CallbackData) (*provider.PaymentResponse, error) {
	now := time.Now()

	transactionGUID := callback.TransactionID
	if transactionGUID == "" {
		transactionGUID = callback.Get("islemGUID")
	}
	orderID := callback.OrderID
	if orderID == "" {
		orderID = callback.Get("orderId")
	}
	md := callback.MD
	if md == "" {
		md = callback.Get("md")
	}
	mdStatus := callback.MDStatus
	if mdStatus == "" {
		mdStatus = callback.Get("mdStatus")
	}
	receivedHash := callback.Hash
	if receivedHash == "" {
		receivedHash = callback.Get("islemHash")
	}

	if !p.verifyCallbackHash(transactionGUID, md, mdStatus, orderID, receivedHash) {
		return &provider.PaymentResponse{
			Success:    false,
			Status:     provider.StatusFailed,
			OrderID:    orderID,
			Message:    invalidSignatureMessage,
			ErrorCode:  "INVALID_SIGNATURE",
			SystemTime: &now,
		}, nil
	}

	if mdStatus != "1" {
		message := callback.Get("mdErrorMessage")
		if message == "" {
			message = "3D secure authentication failed"
		}
		return &provider.PaymentResponse{
			Success:    false,
			Status:     provider.StatusFailed,
			OrderID:    orderID,
			Message:    message,
			ErrorCode:  "MDSTATUS_" + mdStatus,
			SystemTime: &now,
		}, nil
	}

	envelope := provider.BuildSOAPEnvelope(action3DComplete, soapNamespace,
		p.credentialBlock(),
		provider.XMLElement("UCD_MD", md),
		provider.XMLElement("Islem_GUID", transactionGUID),
		provider.XMLElement("Siparis_ID", orderID),
	)

	result, err := p.sendSOAP(ctx, action3DComplete, envelope)
	if err != nil {
		return p.transportFailure(err, &now), nil
	}

	resp := p.mapPaymentResult(result, &now)
	resp.OrderID = orderID
	return resp, nil
}

// GetPaymentStatus retrieves the current status of a payment by order id;
// the query is read-only and safe to retry.
func (p *ParamPosProvider) GetPaymentStatus(ctx context.Context, paymentID string) (*provider.PaymentResponse, error) {
	if paymentID == "" {
		return nil, errors.New("parampos: paymentID is required")
	}

	now := time.Now()
	envelope := provider.BuildSOAPEnvelope(actionQuery, soapNamespace,
		p.credentialBlock(),
		provider.XMLElement("GUID", p.guid),
		provider.XMLElement("Dekont_ID", paymentID),
		provider.XMLElement("Siparis_ID", paymentID),
	)

	result, err := p.sendSOAP(ctx, actionQuery, envelope)
	if err != nil {
		return p.transportFailure(err, &now), nil
	}

	resp := p.mapPaymentResult(result, &now)
	if resp.PaymentID == "" {
		resp.PaymentID = paymentID
	}
	return resp, nil
}

// CancelPayment voids a same-day payment
func (p *ParamPosProvider) CancelPayment(ctx context.Context, request provider.CancelRequest) (*provider.PaymentResponse, error) {
	if request.PaymentID == "" {
		return nil, errors.New("parampos: paymentID is required")
	}

	now := time.Now()
	result, err := p.sendCancelRefund(ctx, "IPTAL", request.PaymentID, 0)
	if err != nil {
		return p.transportFailure(err, &now), nil
	}

	resp := p.mapPaymentResult(result, &now)
	if resp.Success {
		resp.Status = provider.StatusCancelled
		resp.Message = "payment cancelled"
	}
	if resp.PaymentID == "" {
		resp.PaymentID = request.PaymentID
	}
	return resp, nil
}

// RefundPayment issues a full or partial refund. The refund bound against
// the captured amount is enforced provider-side; a rejection comes back as
// a failed result with the provider's reason.
func (p *ParamPosProvider) RefundPayment(ctx context.Context, request provider.RefundRequest) (*provider.RefundResponse, error) {
	if request.PaymentID == "" {
		return nil, errors.New("parampos: paymentID is required for refund")
	}

	now := time.Now()
	result, err := p.sendCancelRefund(ctx, "IADE", request.PaymentID, request.RefundAmount)
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

	status := resolveResult(result["Sonuc"])
	refundResp := &provider.RefundResponse{
		Success:      status == provider.StatusSuccessful,
		Status:       status,
		PaymentID:    request.PaymentID,
		RefundID:     result["Dekont_ID"],
		RefundAmount: request.RefundAmount,
		SystemTime:   &now,
		RawResponse:  result,
	}
	if refundResp.Success {
		refundResp.Message = "refund successful"
	} else {
		refundResp.ErrorCode = result["Sonuc"]
		refundResp.Message = result["Sonuc_Str"]
	}
	return refundResp, nil
}

// BinCheck is not offered by the Param SOAP service
func (p *ParamPosProvider) BinCheck(ctx context.Context, binNumber string) (*provider.BinCheckResponse, error) {
	return nil, provider.NewUnsupportedOperationError("parampos", provider.OpBinCheck)
}

// InstallmentInfo is not offered by the Param SOAP service; installment
// totals are computed merchant-side from the configured rate table.
func (p *ParamPosProvider) InstallmentInfo(ctx context.Context, request provider.InstallmentInquiryRequest) (*provider.InstallmentInfoResponse, error) {
	return nil, provider.NewUnsupportedOperationError("parampos", provider.OpInstallmentInfo)
}

// validatePaymentRequest validates the payment request
func (p *ParamPosProvider) validatePaymentRequest(request provider.PaymentRequest, is3D bool) error {
	if request.Amount <= 0 {
		return errors.New("amount must be greater than 0")
	}
	if request.CardInfo.CardNumber == "" {
		return errors.New("card number is required")
	}
	if request.CardInfo.CardHolderName == "" {
		return errors.New("card holder name is required")
	}
	if request.CardInfo.CVV == "" {
		return errors.New("CVV is required")
	}
	if request.CardInfo.ExpireMonth == "" || request.CardInfo.ExpireYear == "" {
		return errors.New("card expiration month and year are required")
	}
	if is3D && request.CallbackURL == "" {
		return errors.New("callback URL is required for 3D secure payments")
	}
	return nil
}

// sendPayment builds, signs and sends a TP_Islem_Odeme request
func (p *ParamPosProvider) sendPayment(ctx context.Context, request provider.PaymentRequest, securityType string) (*provider.PaymentResponse, error) {
	now := time.Now()

	orderID := request.BasketID
	if orderID == "" {
		orderID = fmt.Sprintf("OP%d", now.UnixNano())
	}

	installments := request.InstallmentCount
	if installments < 1 {
		installments = 1
	}

	amount := provider.FormatAmount(request.Amount)
	total := provider.FormatAmount(p.rates.Total(request.Amount, installments))

	fragments := []string{
		p.credentialBlock(),
		provider.XMLElement("GUID", p.guid),
		provider.XMLElement("KK_Sahibi", request.CardInfo.CardHolderName),
		provider.XMLElement("KK_No", request.CardInfo.CardNumber),
		provider.XMLElement("KK_SK_Ay", request.CardInfo.ExpireMonth),
		provider.XMLElement("KK_SK_Yil", request.CardInfo.ExpireYear),
		provider.XMLElement("KK_CVC", request.CardInfo.CVV),
		provider.XMLElement("Siparis_ID", orderID),
		provider.XMLElement("Siparis_Aciklama", request.Description),
		provider.XMLElement("Taksit", strconv.Itoa(installments)),
		provider.XMLElement("Islem_Tutar", amount),
		provider.XMLElement("Toplam_Tutar", total),
		provider.XMLElement("Islem_Hash", p.paymentHash(installments, amount, total, orderID)),
		provider.XMLElement("Islem_Guvenlik_Tip", securityType),
		provider.XMLElement("IPAdr", clientIP(request)),
		provider.XMLElement("Doviz_Kodu", p.currencies.Code(request.Currency)),
	}
	if securityType == securityType3D {
		fragments = append(fragments,
			provider.XMLElement("Basarili_URL", request.CallbackURL),
			provider.XMLElement("Hata_URL", request.CallbackURL),
		)
	}

	envelope := provider.BuildSOAPEnvelope(actionPayment, soapNamespace, fragments...)

	result, err := p.sendSOAP(ctx, actionPayment, envelope)
	if err != nil {
		return p.transportFailure(err, &now), nil
	}

	resp := p.mapPaymentResult(result, &now)
	resp.OrderID = orderID
	resp.Amount = request.Amount
	resp.Currency = request.Currency

	if securityType == securityType3D && resp.Success {
		// the transaction is only pending until the challenge completes
		resp.Success = false
		resp.Status = provider.StatusPending
		resp.Message = "3D secure authentication required"
		if resp.HTML == "" && resp.RedirectURL == "" {
			resp.Status = provider.StatusFailed
			resp.Message = "provider returned no 3D secure challenge content"
		}
	}

	return resp, nil
}

// sendCancelRefund sends a TP_Islem_Iptal_Iade_Kismi request. A zero amount
// means full reversal.
func (p *ParamPosProvider) sendCancelRefund(ctx context.Context, kind, paymentID string, amount float64) (map[string]string, error) {
	fragments := []string{
		p.credentialBlock(),
		provider.XMLElement("GUID", p.guid),
		provider.XMLElement("Durum", kind),
		provider.XMLElement("Siparis_ID", paymentID),
	}
	if amount > 0 {
		fragments = append(fragments, provider.XMLElement("Tutar", provider.FormatAmount(amount)))
	}

	envelope := provider.BuildSOAPEnvelope(actionCancelRefund, soapNamespace, fragments...)
	return p.sendSOAP(ctx, actionCancelRefund, envelope)
}

// sendSOAP posts an envelope and extracts the action's flat result element
func (p *ParamPosProvider) sendSOAP(ctx context.Context, action, envelope string) (map[string]string, error) {
	resp, err := p.httpClient.SendXML(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: "",
		Body:     envelope,
	}, soapNamespace+action)
	if err != nil {
		return nil, err
	}

	return provider.ParseSOAPResult(resp.Body, action+"Result")
}

// credentialBlock renders the security element every request carries
func (p *ParamPosProvider) credentialBlock() string {
	return provider.XMLWrap("G",
		provider.XMLElement("CLIENT_CODE", p.clientCode)+
			provider.XMLElement("CLIENT_USERNAME", p.clientUsername)+
			provider.XMLElement("CLIENT_PASSWORD", p.clientPassword))
}

// paymentHash binds the merchant identity and the economically significant
// fields of a sale. The concatenation order is part of the wire contract.
func (p *ParamPosProvider) paymentHash(installments int, amount, total, orderID string) string {
	canonical := p.clientCode + p.guid + strconv.Itoa(installments) + amount + total + orderID
	digest := sha256.Sum256([]byte(canonical))
	return base64.StdEncoding.EncodeToString(digest[:])
}

// verifyCallbackHash recomputes the 3D callback signature from the
// callback's own fields and the merchant GUID and compares it with the
// received value.
func (p *ParamPosProvider) verifyCallbackHash(transactionGUID, md, mdStatus, orderID, receivedHash string) bool {
	if receivedHash == "" {
		return false
	}
	canonical := transactionGUID + md + mdStatus + orderID + p.guid
	digest := sha1.Sum([]byte(canonical))
	return base64.StdEncoding.EncodeToString(digest[:]) == receivedHash
}

// mapPaymentResult translates a flat SOAP result into the shared response.
// Sonuc greater than zero means approved; everything else, including values
// the mapper has never seen, is a failure.
func (p *ParamPosProvider) mapPaymentResult(result map[string]string, now *time.Time) *provider.PaymentResponse {
	status := resolveResult(result["Sonuc"])
	resp := &provider.PaymentResponse{
		Success:     status == provider.StatusSuccessful,
		Status:      status,
		PaymentID:   result["Dekont_ID"],
		SystemTime:  now,
		RawResponse: result,
	}

	if transactionID := result["Islem_GUID"]; transactionID != "" {
		resp.TransactionID = transactionID
	} else if transactionID := result["Islem_ID"]; transactionID != "" {
		resp.TransactionID = transactionID
	}
	if orderID := result["Siparis_ID"]; orderID != "" {
		resp.OrderID = orderID
	}
	if html := result["UCD_HTML"]; html != "" && html != "NONSECURE" {
		resp.HTML = html
	}
	if redirectURL := result["UCD_URL"]; redirectURL != "" {
		resp.RedirectURL = redirectURL
	}

	if resp.Success {
		resp.Message = "payment successful"
	} else {
		resp.ErrorCode = result["Sonuc"]
		resp.Message = result["Sonuc_Str"]
		if resp.Message == "" {
			resp.Message = "payment failed"
		}
	}

	return resp
}

// transportFailure wraps a transport-level error as a failed result so the
// caller keeps one code path per operation.
func (p *ParamPosProvider) transportFailure(err error, now *time.Time) *provider.PaymentResponse {
	return &provider.PaymentResponse{
		Success:    false,
		Status:     provider.StatusFailed,
		Message:    err.Error(),
		ErrorCode:  transportErrorCode(err),
		SystemTime: now,
	}
}

// resolveResult maps the numeric Sonuc field fail-closed
func resolveResult(sonuc string) provider.PaymentStatus {
	code, err := strconv.Atoi(sonuc)
	if err != nil || code <= 0 {
		return provider.StatusFailed
	}
	return provider.StatusSuccessful
}

func clientIP(request provider.PaymentRequest) string {
	if request.ClientIP != "" {
		return request.ClientIP
	}
	if request.Customer.IPAddress != "" {
		return request.Customer.IPAddress
	}
	return "127.0.0.1"
}

func transportErrorCode(err error) string {
	if provider.IsTimeout(err) {
		return "TIMEOUT"
	}
	return "NETWORK_ERROR"
}

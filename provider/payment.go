package provider

import "time"

// PaymentStatus represents the current status of a payment
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusSuccessful PaymentStatus = "successful"
	StatusFailed     PaymentStatus = "failed"
	StatusCancelled  PaymentStatus = "cancelled"
)

// Item types accepted by the gateways for basket items
const (
	ItemTypePhysical = "PHYSICAL"
	ItemTypeVirtual  = "VIRTUAL"
)

// Address represents a physical address
type Address struct {
	ContactName string `json:"contactName,omitempty"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Address     string `json:"address"`
	ZipCode     string `json:"zipCode,omitempty"`
}

// Customer represents the buyer information
type Customer struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Surname     string   `json:"surname"`
	Email       string   `json:"email"`
	PhoneNumber string   `json:"phoneNumber,omitempty"`
	IdentityNo  string   `json:"identityNumber,omitempty"`
	IPAddress   string   `json:"ipAddress,omitempty"`
	Address     *Address `json:"address,omitempty"`
}

// CardInfo represents credit card information
type CardInfo struct {
	CardHolderName string `json:"cardHolderName"`
	CardNumber     string `json:"cardNumber"`
	ExpireMonth    string `json:"expireMonth"` // MM
	ExpireYear     string `json:"expireYear"`  // YYYY
	CVV            string `json:"cvv"`
	RegisterCard   bool   `json:"registerCard,omitempty"`
}

// Item represents a product or service item in the payment basket
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	ItemType string  `json:"itemType,omitempty"` // PHYSICAL or VIRTUAL
	Price    float64 `json:"price"`
}

// PaymentRequest contains all information required to create a payment.
// Amount is the basket total; PaidAmount is the amount actually charged
// (installment surcharges included). When PaidAmount is zero the adapters
// fall back to Amount.
type PaymentRequest struct {
	ConversationID   string   `json:"conversationId,omitempty"`
	BasketID         string   `json:"basketId,omitempty"`
	Amount           float64  `json:"amount"`
	PaidAmount       float64  `json:"paidAmount,omitempty"`
	Currency         string   `json:"currency"`
	InstallmentCount int      `json:"installmentCount,omitempty"`
	Customer         Customer `json:"customer"`
	CardInfo         CardInfo `json:"cardInfo"`
	Items            []Item   `json:"items"`
	ShippingAddress  *Address `json:"shippingAddress,omitempty"`
	BillingAddress   *Address `json:"billingAddress,omitempty"`
	CallbackURL      string   `json:"callbackUrl,omitempty"`
	ClientIP         string   `json:"clientIp,omitempty"`
	Description      string   `json:"description,omitempty"`
	TenantID         int      `json:"tenantId,omitempty"`
}

// PaymentResponse contains the result of a payment request
type PaymentResponse struct {
	Success        bool          `json:"success"`
	Status         PaymentStatus `json:"status"`
	PaymentID      string        `json:"paymentId,omitempty"`
	TransactionID  string        `json:"transactionId,omitempty"`
	OrderID        string        `json:"orderId,omitempty"`
	ConversationID string        `json:"conversationId,omitempty"`
	Amount         float64       `json:"amount,omitempty"`
	Currency       string        `json:"currency,omitempty"`
	Message        string        `json:"message,omitempty"`
	ErrorCode      string        `json:"errorCode,omitempty"`
	HTML           string        `json:"html,omitempty"` // 3D secure challenge content
	RedirectURL    string        `json:"redirectUrl,omitempty"`
	SystemTime     *time.Time    `json:"systemTime,omitempty"`
	RawResponse    any           `json:"rawResponse,omitempty"` // diagnostics only, never parsed by callers
}

// RefundRequest contains information to request a full or partial refund
type RefundRequest struct {
	PaymentID      string  `json:"paymentId"`
	RefundAmount   float64 `json:"refundAmount,omitempty"` // zero means full refund
	Currency       string  `json:"currency,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	ConversationID string  `json:"conversationId,omitempty"`
}

// RefundResponse contains the result of a refund request
type RefundResponse struct {
	Success      bool          `json:"success"`
	Status       PaymentStatus `json:"status"`
	RefundID     string        `json:"refundId,omitempty"`
	PaymentID    string        `json:"paymentId,omitempty"`
	RefundAmount float64       `json:"refundAmount,omitempty"`
	Message      string        `json:"message,omitempty"`
	ErrorCode    string        `json:"errorCode,omitempty"`
	SystemTime   *time.Time    `json:"systemTime,omitempty"`
	RawResponse  any           `json:"rawResponse,omitempty"`
}

// CancelRequest contains information to void a payment before settlement
type CancelRequest struct {
	PaymentID      string `json:"paymentId"`
	Reason         string `json:"reason,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

// CallbackData carries the fields a bank posts back after the 3D secure
// challenge. The typed fields cover what the verifiers need; Raw keeps the
// complete form so adapters can reach provider-specific extras.
type CallbackData struct {
	TransactionID  string            `json:"transactionId,omitempty"`
	PaymentID      string            `json:"paymentId,omitempty"`
	OrderID        string            `json:"orderId,omitempty"`
	ConversationID string            `json:"conversationId,omitempty"`
	MD             string            `json:"md,omitempty"`
	MDStatus       string            `json:"mdStatus,omitempty"`
	Hash           string            `json:"hash,omitempty"`
	Status         string            `json:"status,omitempty"`
	Raw            map[string]string `json:"raw,omitempty"`
}

// Get returns a raw callback field, preferring the typed value when set.
func (c CallbackData) Get(key string) string {
	if c.Raw == nil {
		return ""
	}
	return c.Raw[key]
}

// BinCheckResponse contains issuer information for a card BIN
type BinCheckResponse struct {
	Success         bool   `json:"success"`
	BinNumber       string `json:"binNumber"`
	CardType        string `json:"cardType,omitempty"`        // CREDIT_CARD, DEBIT_CARD, PREPAID_CARD
	CardAssociation string `json:"cardAssociation,omitempty"` // VISA, MASTER_CARD, TROY, AMEX
	CardFamily      string `json:"cardFamily,omitempty"`
	BankName        string `json:"bankName,omitempty"`
	BankCode        string `json:"bankCode,omitempty"`
	Commercial      bool   `json:"commercial,omitempty"`
	Message         string `json:"message,omitempty"`
	ErrorCode       string `json:"errorCode,omitempty"`
	RawResponse     any    `json:"rawResponse,omitempty"`
}

// InstallmentInquiryRequest asks a provider for the installment options
// available to a card BIN for a given amount.
type InstallmentInquiryRequest struct {
	BinNumber      string  `json:"binNumber"`
	Amount         float64 `json:"amount"`
	ConversationID string  `json:"conversationId,omitempty"`
}

// InstallmentPrice is a single row of an installment offer
type InstallmentPrice struct {
	InstallmentNumber int     `json:"installmentNumber"`
	InstallmentPrice  float64 `json:"installmentPrice"`
	TotalPrice        float64 `json:"totalPrice"`
}

// InstallmentDetail describes the installment options one bank offers for a BIN
type InstallmentDetail struct {
	BinNumber       string             `json:"binNumber"`
	BankName        string             `json:"bankName,omitempty"`
	CardFamily      string             `json:"cardFamily,omitempty"`
	CardType        string             `json:"cardType,omitempty"`
	CardAssociation string             `json:"cardAssociation,omitempty"`
	Prices          []InstallmentPrice `json:"prices"`
}

// InstallmentInfoResponse contains the result of an installment inquiry
type InstallmentInfoResponse struct {
	Success     bool                `json:"success"`
	Details     []InstallmentDetail `json:"details,omitempty"`
	Message     string              `json:"message,omitempty"`
	ErrorCode   string              `json:"errorCode,omitempty"`
	RawResponse any                 `json:"rawResponse,omitempty"`
}

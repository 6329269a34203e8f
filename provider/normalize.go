package provider

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// StatusMap translates a provider's native status vocabulary into the
// shared PaymentStatus enum. Lookup is case-insensitive and fail-closed:
// anything the table does not know maps to StatusFailed, never to success.
type StatusMap map[string]PaymentStatus

// NewStatusMap builds a StatusMap with normalized keys
func NewStatusMap(entries map[string]PaymentStatus) StatusMap {
	m := make(StatusMap, len(entries))
	for k, v := range entries {
		m[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return m
}

// Resolve maps a raw provider status onto the shared enum
func (m StatusMap) Resolve(raw string) PaymentStatus {
	if status, ok := m[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return status
	}
	return StatusFailed
}

// CurrencyTable maps ISO currency names onto a provider's numeric or
// symbolic currency codes. Unknown currencies fall back to Default, which
// is an explicit policy choice of the adapter rather than an error.
type CurrencyTable struct {
	Codes   map[string]string
	Default string
}

// Code returns the provider code for the given currency
func (t CurrencyTable) Code(currency string) string {
	if code, ok := t.Codes[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return code
	}
	return t.Default
}

// FormatAmount renders a monetary value as the fixed two-decimal string the
// gateways require, rounding half up.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(math.Round(amount*100)/100, 'f', 2, 64)
}

// ParseAmount parses a provider-formatted monetary string. Turkish gateways
// sometimes use a comma decimal separator. A non-numeric input is a hard
// error, not a zero amount.
func ParseAmount(value string) (float64, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(value, ",", "."))
	if trimmed == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	amount, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return amount, nil
}

// FormatAmountString normalizes a caller-supplied decimal string to the
// two-decimal wire format.
func FormatAmountString(value string) (string, error) {
	amount, err := ParseAmount(value)
	if err != nil {
		return "", err
	}
	return FormatAmount(amount), nil
}

// InstallmentRateTable maps an installment count onto the surcharge rate
// applied to the base amount. The built-in table is a placeholder schedule;
// production deployments inject the rates negotiated with the provider.
type InstallmentRateTable map[int]float64

// DefaultInstallmentRates returns the illustrative schedule of n% for n
// installments (2 through 12). Single payment carries no surcharge.
func DefaultInstallmentRates() InstallmentRateTable {
	rates := make(InstallmentRateTable, 11)
	for n := 2; n <= 12; n++ {
		rates[n] = float64(n) / 100
	}
	return rates
}

// Total computes the total payable amount for the given installment count,
// rounded to two decimals.
func (t InstallmentRateTable) Total(amount float64, installments int) float64 {
	rate := t[installments]
	return math.Round(amount*(1+rate)*100) / 100
}

// StringField tolerantly reads a string field from a decoded provider
// payload; numbers and booleans are coerced rather than dropped.
func StringField(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

// FloatField tolerantly reads a numeric field from a decoded provider
// payload, accepting both JSON numbers and formatted strings.
func FloatField(data map[string]any, key string) float64 {
	v, ok := data[key]
	if !ok || v == nil {
		return 0
	}
	if s, isStr := v.(string); isStr {
		amount, err := ParseAmount(s)
		if err != nil {
			return 0
		}
		return amount
	}
	return cast.ToFloat64(v)
}

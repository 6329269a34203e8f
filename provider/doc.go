// Package provider defines the common contract the payment gateway
// adapters implement and the shared infrastructure they build on.
//
// Each gateway lives in its own subpackage (iyzico, parampos) and registers
// a factory with the package registry from init. The facade enables
// providers per tenant through Service, which checks capabilities before
// dispatching any of the uniform operations:
//
//	service := provider.NewService(provider.DefaultRegistry)
//	err := service.EnableProvider("default", "iyzico", map[string]string{
//		"apiKey":      "...",
//		"secretKey":   "...",
//		"environment": "sandbox",
//	})
//	resp, err := service.CreatePayment(ctx, "default", "iyzico", request)
//
// Business declines come back as failed responses, never as errors, so
// callers keep a single code path per operation. Adapters translate their
// gateway's native status vocabulary through fail-closed StatusMap tables:
// an unknown provider code is a failure, never a success.
//
// The shared pieces are the HTTP transport (http_client.go), the SOAP
// envelope codec with XML escaping (soap.go), credential validation
// (validation.go) and status/currency/amount normalization (normalize.go).
package provider

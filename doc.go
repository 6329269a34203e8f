// Package ortakpos provides a unified payment gateway that abstracts
// heterogeneous Turkish payment providers behind a single, standardized API.
// REST/JSON gateways and legacy SOAP/XML gateways are driven through the same
// polymorphic interface, so callers write one payment flow and switch
// providers by name.
//
// # Overview
//
// Every provider differs in transport, authentication and response format:
// one signs JSON bodies with HMAC-SHA256, another hashes SOAP fields with
// SHA-256 and verifies 3D secure callbacks with SHA-1. OrtakPOS normalizes
// all of it (statuses, currency codes, amount formatting, error surfacing)
// into one request/response vocabulary defined in the provider package.
//
// # Architecture
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │  İyzico (REST)  │
//	│   Your Apps     │◄──►│    OrtakPOS     │◄──►│                 │
//	│                 │    │                 │    │  Param (SOAP)   │
//	└─────────────────┘    └─────────────────┘    └─────────────────┘
//
// Gateway adapters live in subpackages of provider and register themselves
// from init. The provider.Service dispatches the uniform operation set per
// tenant and checks capabilities before a call reaches an adapter; an
// operation a gateway does not offer comes back as a typed
// UnsupportedOperationError instead of a provider-specific failure.
//
// # Supported Providers
//
//   - İyzico: REST/JSON gateway with payment, 3D secure, refund, cancel,
//     status, BIN lookup and installment inquiry
//   - Param POS: SOAP/XML gateway with payment, 3D secure, refund, cancel
//     and status (BIN lookup and installment inquiry are not part of its
//     contract)
//
// # Quick Start
//
//	service := provider.NewService(nil)
//	err := service.EnableProvider("default", "iyzico", map[string]string{
//		"apiKey":      "your-api-key",
//		"secretKey":   "your-secret-key",
//		"environment": "sandbox",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	resp, err := service.CreatePayment(ctx, "default", "iyzico", request)
//
// The cmd package wires the same service behind an HTTP facade with
// tenant-scoped credentials persisted in SQLite.
package ortakpos

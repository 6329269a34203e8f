package iyzico

import "github.com/ortakpos/ortakpos/provider"

// Register Iyzico provider with the gateway registry
func init() {
	provider.Register("iyzico", NewProvider)
}

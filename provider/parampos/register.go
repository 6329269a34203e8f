package parampos

import "github.com/ortakpos/ortakpos/provider"

// Register Param POS provider with the gateway registry
func init() {
	provider.Register("parampos", NewProvider)
}

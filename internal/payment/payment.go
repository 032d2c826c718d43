// Package payment provides the payment rail used to disburse approved
// refunds. The arbiter never retries a disbursement; callers fold the
// outcome into their response instead.
package payment

import "context"

// Result is the payment rail's reply to a disbursement.
type Result struct {
	Success bool   `json:"success"`
	Details string `json:"details,omitempty"`
}

// Disburser sends funds to a recipient address.
type Disburser interface {
	// Send transfers amount to address with a human-readable memo.
	Send(ctx context.Context, address string, amount float64, memo string) (*Result, error)

	// Name returns the rail name (e.g., "locus", "mock").
	Name() string
}

// Package oracle defines the decision oracle consumed during dispute
// analysis: an external reasoning engine that takes a dispute context and
// returns free-form text. No structure is guaranteed in the reply; parsing
// is the dispute package's job.
package oracle

import (
	"context"
	"fmt"

	"github.com/soyeahso/arbiter/internal/domain"
)

// Request is the input to one Analyze call.
type Request struct {
	System    string
	Messages  []domain.Message
	MaxTokens int
}

// Oracle is the interface all decision oracle providers implement.
type Oracle interface {
	// Analyze sends the dispute context and returns the raw reply text.
	Analyze(ctx context.Context, req Request) (string, error)

	// Name returns the provider name (e.g., "claude", "mock").
	Name() string
}

// APIError is a non-2xx reply from an oracle provider's HTTP API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("oracle API error (%d): %s", e.Status, e.Body)
}
